package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/autoumpire/internal/plugins/remotesync"
	"github.com/mcoot/autoumpire/internal/remote"
	"github.com/mcoot/autoumpire/internal/ui"
	"github.com/mcoot/autoumpire/internal/ui/prompt"
)

const quit = "quit"

// menu offers the exports of the enabled plugins until the umpire quits.
// Abandoning a form returns to the menu; abandoning the menu quits.
func (s *session) menu(ctx context.Context) error {
	term := prompt.NewTerminal(s.in, s.out, s.cfg.Accessible)
	if s.app.Syncer != nil {
		if err := s.app.Syncer.Log(ctx, remote.AccessLog, "opened the menu"); err != nil {
			slog.Warn("write access log", slog.String("error", err.Error()))
		}
		if err := s.offerSync(ctx, term); err != nil && !errors.Is(err, prompt.ErrAborted) {
			return err
		}
	}

	for {
		options, err := s.app.Bus.Menu(ctx)
		if err != nil {
			return err
		}
		options = append(options, ui.Option{Label: "Quit", Value: quit})

		choice, err := term.Choose(ctx, "Auto-Umpire", options)
		if errors.Is(err, prompt.ErrAborted) || choice == quit {
			return nil
		}
		if err != nil {
			return err
		}

		err = s.app.Run(ctx, term, choice)
		switch {
		case errors.Is(err, prompt.ErrAborted):
			term.Show(ui.Warning("Cancelled."))
		case err != nil:
			return err
		}
	}
}

// offerSync compares sync markers on login and offers the transfer that
// brings this machine level with the remote.
func (s *session) offerSync(ctx context.Context, term *prompt.Terminal) error {
	state, err := s.app.DB.GenericState(ctx)
	if err != nil {
		return err
	}
	status, _, err := s.app.Syncer.Compare(ctx, state.UniqueID)
	if err != nil {
		return err
	}
	switch status {
	case remote.RemoteAhead:
		return s.app.Run(ctx, term, remotesync.ExportDownload)
	case remote.RemoteBehind, remote.NoRemoteDatabases:
		return s.app.Run(ctx, term, remotesync.ExportUpload)
	}
	choice, err := term.Choose(ctx, "In sync with the remote", []ui.Option{
		{Label: "Continue", Value: quit},
		{Label: "Download", Value: remotesync.ExportDownload},
		{Label: "Upload", Value: remotesync.ExportUpload},
	})
	if err != nil || choice == quit {
		return err
	}
	return s.app.Run(ctx, term, choice)
}
