package cmd

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/karlding/canmsggen/pkg/config"
)

var (
	configFile string
	logLevel   string
	logFormat  string

	// conf is loaded before any subcommand runs
	conf *config.Config
	log  = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "canmsggen",
	Short: "canmsggen generates accessors for Megasquirt CAN realtime broadcast messages",
	Long: `Generates fixed size message accessor structs from a realtime broadcast
field layout CSV, and decodes broadcast frames against the same layout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "TOML or YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level [trace,debug,info,warn,error]")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format [text,json]")
}

func setup(cmd *cobra.Command) error {
	conf = config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		conf = loaded
	}

	if logLevel != "" {
		conf.Log.Level = logLevel
	}
	if logFormat != "" {
		conf.Log.Format = logFormat
	}
	return setupLogging(conf.Log)
}

func setupLogging(lc config.LogConfig) error {
	log.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	switch lc.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	default:
		return errors.Newf("unknown log format %q", lc.Format)
	}
	return nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
