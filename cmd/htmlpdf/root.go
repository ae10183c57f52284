package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"htmlpdf/internal/observability"
)

// app is the state shared by the subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "htmlpdf",
		Short:         "Convert HTML documents to paginated PDF.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(cmd); err != nil {
				return err
			}
			return a.initLogger(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	defaults := observability.DefaultConfig()
	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default ./htmlpdf.yaml)")
	pf.String("log-level", defaults.Level, "log level: debug, info, warn or error")
	pf.String("log-format", defaults.Format, "console log format: console or json")
	pf.String("log-file", "", "also write JSON logs to this rotating file")
	pf.Bool("no-color", false, "disable colored log levels")

	root.AddCommand(newRenderCmd(a), newBoxesCmd(a))
	return root
}

// initConfig layers the config file and HTMLPDF_* environment variables
// under the command line flags.
func (a *app) initConfig(cmd *cobra.Command) error {
	v := a.v
	if a.cfgFile != "" {
		path, err := homedir.Expand(a.cfgFile)
		if err != nil {
			return fmt.Errorf("config path: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("htmlpdf")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("HTMLPDF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return v.BindPFlags(cmd.Flags())
}

func (a *app) initLogger(cmd *cobra.Command) error {
	cfg := observability.DefaultConfig()
	cfg.Level = a.v.GetString("log-level")
	cfg.Format = a.v.GetString("log-format")
	cfg.NoColor = a.v.GetBool("no-color")
	if file := a.v.GetString("log-file"); file != "" {
		path, err := homedir.Expand(file)
		if err != nil {
			return fmt.Errorf("log file path: %w", err)
		}
		cfg.File = path
	}
	logger, err := observability.NewLogger(cfg, zapcore.AddSync(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}
