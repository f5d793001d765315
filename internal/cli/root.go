package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-reviewer/internal/config"
	"quiz-reviewer/internal/logging"
)

// rootOptions holds the persistent flags and what PersistentPreRunE derives
// from them.
type rootOptions struct {
	port       string
	configPath string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "quiz-reviewer",
		Short:         "Turn plain-text reviewers into interactive, scored quizzes",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(opts.configPath)
			if err != nil {
				return err
			}
			level := cfg.Log.Level
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			logger, err := logging.New(logging.Options{Level: level, File: cfg.Log.File, Console: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.port, "port", envPort, "port to listen on")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level from config")
	cmd.AddCommand(NewStartCmd(opts))
	cmd.AddCommand(NewMigrateCmd(opts))
	cmd.AddCommand(NewImportCmd(opts))
	cmd.AddCommand(NewParseCmd(opts))
	cmd.AddCommand(NewTakeCmd(opts))
	return cmd
}
