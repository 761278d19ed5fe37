// Package remotesync is the plugin that exchanges databases and pages with
// the shared remote host.
package remotesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/autoumpire/internal/plugins"
	"github.com/mcoot/autoumpire/internal/remote"
	"github.com/mcoot/autoumpire/internal/services/database"
	"github.com/mcoot/autoumpire/internal/ui"
)

// PluginID identifies the remote sync plugin.
const PluginID = "remotesync"

// Export ids
const (
	ExportStatus   = "remotesync.status"
	ExportDownload = "remotesync.download"
	ExportUpload   = "remotesync.upload"
	ExportBackups  = "remotesync.backups"
	ExportLogs     = "remotesync.logs"
	ExportLock     = "remotesync.lock"
	ExportUnlock   = "remotesync.unlock"
)

const (
	fieldConfirm = "remotesync.confirm"
	fieldRotate  = "remotesync.rotate"
	fieldLog     = "remotesync.log"
	fieldForce   = "remotesync.force"
)

// FieldPublish is the checkbox this plugin adds to the page generation form.
const FieldPublish = "remotesync.publish"

// PageSource provides the pages last generated locally.
type PageSource interface {
	Load() (map[string][]byte, error)
}

type syncPlugin struct {
	db     *database.Service
	syncer *remote.Syncer
	pages  PageSource
	logger *slog.Logger
}

// New creates the remote sync plugin.
func New(db *database.Service, syncer *remote.Syncer, pages PageSource, logger *slog.Logger) *plugins.Plugin {
	p := &syncPlugin{db: db, syncer: syncer, pages: pages, logger: logger}
	return &plugins.Plugin{
		ID:   PluginID,
		Name: "Remote",
		Exports: []plugins.Export{
			{ID: ExportStatus, DisplayName: "Remote -> Status", Answer: p.answerStatus},
			{ID: ExportDownload, DisplayName: "Remote -> Download databases", Ask: p.askDownload, Answer: p.answerDownload},
			{ID: ExportUpload, DisplayName: "Remote -> Upload databases", Ask: p.askUpload, Answer: p.answerUpload},
			{ID: ExportBackups, DisplayName: "Remote -> Backups", Ask: p.askBackups, Answer: p.answerBackups},
			{ID: ExportLogs, DisplayName: "Remote -> Logs", Ask: p.askLogs, Answer: p.answerLogs},
			{ID: ExportLock, DisplayName: "Remote -> Take lock", Ask: p.askLock, Answer: p.answerLock},
			{ID: ExportUnlock, DisplayName: "Remote -> Release lock", Answer: p.answerUnlock},
		},
		Hooks: plugins.Hooks{
			PageRequestGenerate: p.requestPublish,
			PageGenerate:        p.publish,
		},
	}
}

// compare reads the local marker and compares it with the remote one.
func (p *syncPlugin) compare(ctx context.Context) (remote.Status, int, int, error) {
	state, err := p.db.GenericState(ctx)
	if err != nil {
		return remote.InSync, 0, 0, err
	}
	status, theirs, err := p.syncer.Compare(ctx, state.UniqueID)
	return status, state.UniqueID, theirs, err
}

func (p *syncPlugin) lockLabel(ctx context.Context) (ui.Component, error) {
	held, err := p.syncer.CurrentLock(ctx)
	switch {
	case errors.Is(err, remote.ErrMalformedLock):
		return ui.Warning("The lock file is malformed; taking the lock will replace it."), nil
	case err != nil:
		return nil, err
	case held == nil:
		return ui.Info("Nobody holds the lock."), nil
	case held.User == p.syncer.User():
		return ui.Info("You hold the lock since " + held.Since.UTC().Format(time.DateTime) + "."), nil
	}
	return ui.Warning("Locked by " + held.User + " since " + held.Since.UTC().Format(time.DateTime) + "."), nil
}

func (p *syncPlugin) answerStatus(ctx context.Context, _ ui.Answers, _ []string) ([]ui.Component, error) {
	status, ours, theirs, err := p.compare(ctx)
	if err != nil {
		return nil, err
	}
	out := []ui.Component{ui.Info(fmt.Sprintf("Local marker %d, remote marker %d: %s.", ours, theirs, status))}
	switch status {
	case remote.RemoteAhead:
		out = append(out, ui.Warning("Download to catch up before editing."))
	case remote.RemoteBehind, remote.NoRemoteDatabases:
		out = append(out, ui.Info("Upload to share your changes."))
	}
	lock, err := p.lockLabel(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.syncer.Log(ctx, remote.AccessLog, "checked status"); err != nil {
		return nil, err
	}
	return append(out, lock), nil
}

func (p *syncPlugin) askDownload(ctx context.Context, _ []string) ([]ui.Component, error) {
	status, _, _, err := p.compare(ctx)
	if err != nil {
		return nil, err
	}
	if status == remote.NoRemoteDatabases {
		return []ui.Component{ui.Warning("The remote has no databases.")}, nil
	}
	return []ui.Component{
		ui.Info("Sync status: " + status.String() + "."),
		ui.Checkbox{ID: fieldConfirm, Title: "Replace the local databases with the remote copy?", Default: status == remote.RemoteAhead},
	}, nil
}

func (p *syncPlugin) answerDownload(ctx context.Context, answers ui.Answers, _ []string) ([]ui.Component, error) {
	if !ui.ValueOr(answers, fieldConfirm, false) {
		return []ui.Component{ui.Info("Download cancelled.")}, nil
	}
	n, err := p.syncer.Download(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.db.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("reload databases: %w", err)
	}
	return []ui.Component{ui.Success(fmt.Sprintf("Downloaded %d databases.", n))}, nil
}

func (p *syncPlugin) askUpload(ctx context.Context, _ []string) ([]ui.Component, error) {
	status, _, _, err := p.compare(ctx)
	if err != nil {
		return nil, err
	}
	var out []ui.Component
	if status == remote.RemoteAhead {
		out = append(out, ui.Warning("The remote is ahead of you; uploading discards changes made there."))
	}
	return append(out, ui.Checkbox{ID: fieldConfirm, Title: "Upload the local databases?", Default: status != remote.RemoteAhead}), nil
}

func (p *syncPlugin) answerUpload(ctx context.Context, answers ui.Answers, _ []string) ([]ui.Component, error) {
	if !ui.ValueOr(answers, fieldConfirm, false) {
		return []ui.Component{ui.Info("Upload cancelled.")}, nil
	}
	if err := p.db.Flush(ctx); err != nil {
		return nil, err
	}
	backup, err := p.syncer.Upload(ctx)
	if err != nil {
		return nil, err
	}
	out := []ui.Component{ui.Success("Databases uploaded.")}
	if backup != "" {
		out = append(out, ui.Info("Previous remote copy backed up as "+backup+"."))
	}
	return out, nil
}

func (p *syncPlugin) askBackups(ctx context.Context, _ []string) ([]ui.Component, error) {
	backups, err := p.syncer.Backups(ctx)
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return []ui.Component{ui.Info("There are no backups.")}, nil
	}
	out := make([]ui.Component, 0, len(backups)+1)
	for _, b := range backups {
		out = append(out, ui.Info(b))
	}
	return append(out, ui.Checkbox{ID: fieldRotate, Title: "Remove backups beyond the retention count?"}), nil
}

func (p *syncPlugin) answerBackups(ctx context.Context, answers ui.Answers, _ []string) ([]ui.Component, error) {
	if !ui.ValueOr(answers, fieldRotate, false) {
		return nil, nil
	}
	removed, err := p.syncer.RotateBackups(ctx)
	if err != nil {
		return nil, err
	}
	return []ui.Component{ui.Success(fmt.Sprintf("Removed %d old backups.", len(removed)))}, nil
}

func (p *syncPlugin) askLogs(context.Context, []string) ([]ui.Component, error) {
	return []ui.Component{ui.Dropdown{
		ID:      fieldLog,
		Title:   "Log",
		Options: ui.Opts(remote.AccessLog, remote.EditLog, remote.PublishLog),
		Default: remote.EditLog,
	}}, nil
}

func (p *syncPlugin) answerLogs(ctx context.Context, answers ui.Answers, _ []string) ([]ui.Component, error) {
	kind := ui.ValueOr(answers, fieldLog, remote.EditLog)
	content, err := p.syncer.ReadLog(ctx, kind)
	if err != nil {
		return nil, err
	}
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return []ui.Component{ui.Info("The " + kind + " log is empty.")}, nil
	}
	return []ui.Component{ui.Info(content)}, nil
}

func (p *syncPlugin) askLock(ctx context.Context, _ []string) ([]ui.Component, error) {
	lock, err := p.lockLabel(ctx)
	if err != nil {
		return nil, err
	}
	out := []ui.Component{lock}
	if l, ok := lock.(ui.Label); ok && l.Style == ui.LabelWarning {
		out = append(out, ui.Checkbox{ID: fieldForce, Title: "Take the lock anyway?"})
	}
	return out, nil
}

func (p *syncPlugin) answerLock(ctx context.Context, answers ui.Answers, _ []string) ([]ui.Component, error) {
	if err := p.syncer.AcquireLock(ctx, ui.ValueOr(answers, fieldForce, false)); err != nil {
		return nil, err
	}
	return []ui.Component{ui.Success("You hold the lock.")}, nil
}

func (p *syncPlugin) answerUnlock(ctx context.Context, _ ui.Answers, _ []string) ([]ui.Component, error) {
	if err := p.syncer.ReleaseLock(ctx); err != nil {
		return nil, err
	}
	return []ui.Component{ui.Success("Lock released.")}, nil
}

func (p *syncPlugin) requestPublish(context.Context) []ui.Component {
	return []ui.Component{ui.Checkbox{ID: FieldPublish, Title: "Publish the pages to the remote?", Default: true}}
}

func (p *syncPlugin) publish(ctx context.Context, answers ui.Answers) []ui.Component {
	if !ui.ValueOr(answers, FieldPublish, false) {
		return nil
	}
	site, err := p.pages.Load()
	if err != nil {
		return []ui.Component{ui.Error(fmt.Errorf("read generated pages: %w", err))}
	}
	if err := p.syncer.Publish(ctx, site); err != nil {
		p.logger.Warn("publish failed", slog.String("error", err.Error()))
		return []ui.Component{ui.Error(err)}
	}
	return []ui.Component{ui.Success(fmt.Sprintf("Published %d pages.", len(site)))}
}
