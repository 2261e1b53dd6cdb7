package cmd

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/gdlinear/internal/config"
	"github.com/YuminosukeSato/gdlinear/pkg/log"
)

// app holds the state shared by the subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	runID   string
	logger  log.Logger
}

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	cmd := &cobra.Command{
		Use:          "gdfit",
		Short:        "gdfit fits linear least-squares models by batch gradient descent.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML config file")
	cmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn or error")
	_ = a.v.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(
		fitCmd(a),
		synthCmd(a),
		versionCmd(),
	)
	return cmd
}

// setup loads the configuration and installs the loggers. Library warnings
// such as ConvergenceWarning are routed to the same zerolog output.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	stderr := cmd.ErrOrStderr()
	if err := log.SetupLogger(stderr, cfg.LogLevel); err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	provider := log.NewZerologProvider(stderr, level)
	log.SetProvider(provider)
	log.RouteWarnings(log.NewZerologLogger(stderr, level))

	a.runID = uuid.NewString()
	a.logger = provider.GetLoggerWithName("gdfit").With(log.EstimatorIDKey, a.runID)
	return nil
}
