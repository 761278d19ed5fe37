package cli

import (
	"github.com/spf13/cobra"
)

func (s *session) newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview the pages in a browser",
		Long: `Serve the pages directory locally, regenerating the pages whenever the
databases change. Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				s.app.Config.Preview.Port = port
			}
			return s.app.Preview().ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (env: AU2_PREVIEW_PORT)")
	return cmd
}
