// Package cli is the au2 command line: the interactive menu plus scripted
// commands for generating, previewing and syncing.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/autoumpire/internal/config"
	"github.com/mcoot/autoumpire/internal/crash"
	"github.com/mcoot/autoumpire/internal/dependencies/clock"
	"github.com/mcoot/autoumpire/internal/factory"
)

// logFileName is the log file inside the logs directory.
const logFileName = "au2.log"

// crashPause keeps a crash message on screen before the process exits.
const crashPause = 5 * time.Second

// session is the state shared by the commands of one invocation.
type session struct {
	baseDir  string
	output   string
	logLevel string

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg     config.Config
	app     *factory.App
	logFile *os.File
}

// NewRootCmd creates the root command. Output goes to out and errOut.
func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	cmd, _ := newRoot(in, out, errOut)
	return cmd
}

func newRoot(in io.Reader, out, errOut io.Writer) (*cobra.Command, *session) {
	s := &session{in: in, out: out, errOut: errOut, output: "text"}

	rootCmd := &cobra.Command{
		Use:   "au2",
		Short: "Umpiring tool for the Assassins' Guild game",
		Long: `au2 keeps the assassins and events of a game, derives targets, scores
and the wanted list from them, and generates the public pages and emails.

Run without a subcommand for the interactive menu.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["app"] == "none" {
				return s.loadConfig()
			}
			return s.open(cmd.Context(), cmd.Name() == "serve")
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.menu(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&s.baseDir, "base-dir", "", "Directory holding au2.yaml and the databases (env: AU2_BASE_DIR)")
	rootCmd.PersistentFlags().StringVarP(&s.output, "output", "o", s.output, "Output format: text, json")
	rootCmd.PersistentFlags().StringVar(&s.logLevel, "log-level", "", "Log level: debug, info, warn, error (env: AU2_LOG_LEVEL)")

	// Add subcommands
	rootCmd.AddCommand(s.newGenerateCmd())
	rootCmd.AddCommand(s.newServeCmd())
	rootCmd.AddCommand(s.newTargetsCmd())
	rootCmd.AddCommand(s.newSyncCmd())
	rootCmd.AddCommand(s.newExportsCmd())
	rootCmd.AddCommand(s.newRunCmd())
	rootCmd.AddCommand(s.newConfigCmd())

	return rootCmd, s
}

func (s *session) loadConfig() error {
	cfg, err := config.Load(s.baseDir)
	if err != nil {
		return err
	}
	if s.logLevel != "" {
		cfg.LogLevel = s.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	s.cfg = cfg
	return nil
}

// open loads the game. The server logs to stdout; every other command logs
// to a file so that log lines do not break up the forms.
func (s *session) open(ctx context.Context, server bool) error {
	if err := s.loadConfig(); err != nil {
		return err
	}
	sink := s.out
	if !server {
		if err := os.MkdirAll(s.cfg.LogsDir(), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(filepath.Join(s.cfg.LogsDir(), logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		s.logFile = f
		sink = f
	}
	logger := factory.NewLogger(s.cfg, sink)
	slog.SetDefault(logger)

	app, err := factory.New(ctx, s.cfg, logger)
	if err != nil {
		return fmt.Errorf("open game: %w", err)
	}
	s.app = app
	return nil
}

func (s *session) close() error {
	var errs []error
	if s.app != nil {
		errs = append(errs, s.app.Close())
	}
	if s.logFile != nil {
		errs = append(errs, s.logFile.Close())
	}
	return errors.Join(errs...)
}

func (s *session) print() *Output {
	return NewOutput(s.output, s.out, s.errOut)
}

// snapshot supplies the databases to a crash dump, if a game is open.
func (s *session) snapshot() map[string][]byte {
	if s.app == nil {
		return nil
	}
	return s.app.Databases(context.Background())
}

// Execute runs the root command and returns the process exit status. A
// panic anywhere below writes a crash dump first.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, s := newRoot(os.Stdin, os.Stdout, os.Stderr)
	// The settings may be invalid; the dump still goes under the base dir.
	cfg, _ := config.Load("")
	writer := crash.NewWriter(cfg.CrashDir(), clock.New(), factory.NewLogger(cfg, os.Stderr))

	err := writer.Guard(func() error {
		return root.ExecuteContext(ctx)
	}, s.snapshot)
	if err == nil {
		return 0
	}
	s.print().PrintError(err)
	if errors.Is(err, crash.ErrPanic) {
		time.Sleep(crashPause)
	}
	return 1
}
