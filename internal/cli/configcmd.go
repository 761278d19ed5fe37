package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/autoumpire/internal/config"
)

func (s *session) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Inspect or create the settings file",
		Annotations: map[string]string{"app": "none"},
	}

	cmd.AddCommand(&cobra.Command{
		Use:         "show",
		Short:       "Print the effective settings",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"app": "none"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.output == "json" {
				s.print().Print(s.cfg)
				return nil
			}
			data, err := yaml.Marshal(s.cfg)
			if err != nil {
				return err
			}
			_, err = s.out.Write(data)
			return err
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the effective settings to au2.yaml",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"app": "none"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(s.cfg.BaseDir, config.FileName)
			_, err := os.Stat(path)
			switch {
			case err == nil && !force:
				return errors.New(path + " already exists; use --force to overwrite")
			case err != nil && !errors.Is(err, fs.ErrNotExist):
				return err
			}
			if err := s.cfg.Write(); err != nil {
				return err
			}
			s.print().Print("Wrote " + path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}
