package cli

import (
	"github.com/spf13/cobra"

	targetingplugin "github.com/mcoot/autoumpire/internal/plugins/targeting"
	"github.com/mcoot/autoumpire/internal/ui/prompt"
)

func (s *session) newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "Show everybody's current targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runScripted(cmd, prompt.NewScripted(), targetingplugin.ExportSummary)
		},
	}
}
