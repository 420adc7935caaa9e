package main

import (
	"github.com/spf13/cobra"

	"github.com/redbco/redb-connect/cmd/redb-connect/internal/commands"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the databases in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		return commands.List(env)
	},
}

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [database]",
	Short: "Show a database descriptor",
	Long:  `Print the resolved descriptor as JSON. Passwords, keys and tokens are masked.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		return commands.Show(env, args[0])
	},
}

// pingCmd represents the ping command
var pingCmd = &cobra.Command{
	Use:   "ping [database]",
	Short: "Connect to a database and check it responds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return commands.Ping(ctx, env, args[0])
	},
}

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health [database...]",
	Short: "Ping several databases at once",
	Long:  `Ping the named databases, or every catalog entry when none is named, and report each result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		parallel, _ := cmd.Flags().GetInt("parallel")
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return commands.Health(ctx, env, args, parallel)
	},
}

func init() {
	healthCmd.Flags().Int("parallel", 4, "Number of databases checked at the same time")
}
