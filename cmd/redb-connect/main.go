package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/redbco/redb-connect/cmd/redb-connect/internal/commands"
	"github.com/redbco/redb-connect/cmd/redb-connect/internal/settings"
	"github.com/redbco/redb-connect/pkg/catalog"
	"github.com/redbco/redb-connect/pkg/logger"

	// Link every community driver into the binary.
	_ "github.com/redbco/redb-connect/pkg/database/all"
)

var (
	configFile string

	// Build information, set with -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"

	cfg *settings.Settings
	log *logger.Logger
)

func printVersionInfo() {
	fmt.Printf("redb-connect %s\n", Version)
	fmt.Printf("Built: %s, from commit: %s\n", BuildTime, GitCommit)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "redb-connect",
	Short: "Work with the databases described in a catalog file",
	Long: "redb-connect reads database descriptors from a YAML catalog, resolves ${VAR} references " +
		"from the environment or the keyring and runs record operations against the selected store.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load(viper.New(), configFile, cmd.Flags())
		if err != nil {
			return err
		}
		if err := s.LoadEnvFile(cmd.Flags().Changed("env-file")); err != nil {
			return err
		}
		l, err := s.NewLogger(Version)
		if err != nil {
			return err
		}
		cfg, log = s, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("version").Changed {
			printVersionInfo()
			return nil
		}
		return cmd.Help()
	},
}

// newEnv loads the catalog named by the settings.
func newEnv() (*commands.Env, error) {
	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	log.Debug("Loaded %d database descriptors from %s", cat.Len(), cat.Path())
	return &commands.Env{
		Catalog:      cat,
		Lookup:       cfg.Lookup(),
		Logger:       log,
		Timeout:      cfg.Timeout,
		DefaultLimit: cfg.Limit,
		Out:          os.Stdout,
	}, nil
}

// commandContext bounds a command by the --timeout setting.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout > 0 {
		return context.WithTimeout(ctx, cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to a settings file (yaml, json or toml)")
	flags.String("catalog", catalog.DefaultPath, "Path to the database catalog")
	flags.String("env-file", ".env", "Environment file loaded before resolving references")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-file", "", "Also write logs to this rotated file")
	flags.Duration("timeout", 0, "Timeout for connecting and running a command (default 30s)")
	flags.Bool("keyring", true, "Resolve ${keyring:service/user} references")

	rootCmd.Flags().Bool("version", false, "Show version information and exit")

	setupCommands()
}

func main() {
	Execute()
}
