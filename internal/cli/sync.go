package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mcoot/autoumpire/internal/plugins/remotesync"
	"github.com/mcoot/autoumpire/internal/ui/prompt"
)

var errNoRemote = errors.New("no remote is configured; set remote.kind in au2.yaml")

func (s *session) newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Share the databases with the other umpires",
	}

	sub := func(use, short, export string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if s.app.Syncer == nil {
					return errNoRemote
				}
				return s.runScripted(cmd, prompt.NewScripted(), export)
			},
		}
	}

	cmd.AddCommand(
		sub("status", "Compare the local and remote databases", remotesync.ExportStatus),
		sub("download", "Fetch the remote databases when they are ahead", remotesync.ExportDownload),
		sub("upload", "Upload the local databases unless the remote is ahead", remotesync.ExportUpload),
		sub("backups", "List the remote backups", remotesync.ExportBackups),
		sub("lock", "Take the editing lock", remotesync.ExportLock),
		sub("unlock", "Release the editing lock", remotesync.ExportUnlock),
	)
	return cmd
}
