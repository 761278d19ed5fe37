package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/autoumpire/internal/ui/prompt"
)

func (s *session) newExportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exports",
		Short: "List the actions of the enabled plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := s.app.Bus.Menu(cmd.Context())
			if err != nil {
				return err
			}
			s.print().Print(options)
			return nil
		},
	}
}

func (s *session) newRunCmd() *cobra.Command {
	var (
		sets    []string
		choices []string
	)
	cmd := &cobra.Command{
		Use:   "run EXPORT",
		Short: "Run an action without the menu",
		Long: `Run an action non-interactively. Every field takes its default unless
set with --set id=value; values "true", "false" and integers are typed.
Arguments the action asks for are given in order with --choose.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script := prompt.NewScripted()
			script.Choices = choices
			for _, kv := range sets {
				id, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("--set %q: want id=value", kv)
				}
				script.Answer(id, scalar(v))
			}
			return s.runScripted(cmd, script, args[0])
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Answer a field (repeatable)")
	cmd.Flags().StringArrayVar(&choices, "choose", nil, "Answer an argument choice (repeatable)")
	return cmd
}

// scalar types a --set value.
func scalar(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return v
}
