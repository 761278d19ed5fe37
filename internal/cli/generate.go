package cli

import (
	"github.com/spf13/cobra"

	pagesplugin "github.com/mcoot/autoumpire/internal/plugins/pages"
	"github.com/mcoot/autoumpire/internal/plugins/remotesync"
	"github.com/mcoot/autoumpire/internal/ui/prompt"
)

func (s *session) newGenerateCmd() *cobra.Command {
	var noPublish bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the public pages",
		Long:  "Generate the public pages into the pages directory and, when a remote is configured, publish them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			script := prompt.NewScripted()
			if noPublish {
				script.Answer(remotesync.FieldPublish, false)
			}
			return s.runScripted(cmd, script, pagesplugin.ExportGenerate)
		},
	}
	cmd.Flags().BoolVar(&noPublish, "no-publish", false, "Only write the pages locally")
	return cmd
}

// runScripted performs export with the script and prints what it showed.
func (s *session) runScripted(cmd *cobra.Command, script *prompt.Scripted, export string) error {
	labels, err := s.app.RunScripted(cmd.Context(), script, export)
	s.print().Print(Result{Export: export, Labels: labels})
	return err
}
