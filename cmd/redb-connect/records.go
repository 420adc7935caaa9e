package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/redbco/redb-connect/cmd/redb-connect/internal/commands"
)

// readData returns the --data value, or stdin when it is "-".
func readData(cmd *cobra.Command) (string, error) {
	data, _ := cmd.Flags().GetString("data")
	if data != "-" {
		return data, nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(b), nil
}

func filterFlag(cmd *cobra.Command) (map[string]interface{}, error) {
	where, _ := cmd.Flags().GetString("where")
	return commands.ParseFilter(where)
}

// insertCmd represents the insert command
var insertCmd = &cobra.Command{
	Use:   "insert [database] [table]",
	Short: "Insert one record or a JSON array of records",
	Example: `  redb-connect insert sessions sessions --data '{"key":"u1","value":"active"}'
  cat users.json | redb-connect insert mysql users --data -`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readData(cmd)
		if err != nil {
			return err
		}
		records, err := commands.ParseRecords(data)
		if err != nil {
			return err
		}
		env, err := newEnv()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return commands.Insert(ctx, env, args[0], args[1], records)
	},
}

// findCmd represents the find command
var findCmd = &cobra.Command{
	Use:     "find [database] [table]",
	Short:   "Print the records matching a filter",
	Example: `  redb-connect find mysql users --where '{"name":"John"}' --limit 10`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := filterFlag(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		env, err := newEnv()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return commands.Find(ctx, env, args[0], args[1], filter, limit)
	},
}

// findOneCmd represents the find-one command
var findOneCmd = &cobra.Command{
	Use:   "find-one [database] [table]",
	Short: "Print the first record matching a filter",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := filterFlag(cmd)
		if err != nil {
			return err
		}
		env, err := newEnv()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return commands.FindOne(ctx, env, args[0], args[1], filter)
	},
}

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:     "update [database] [table] key=value...",
	Short:   "Update the first record matching a filter",
	Example: `  redb-connect update mysql users age=31 --where '{"name":"John"}'`,
	Args:    cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := filterFlag(cmd)
		if err != nil {
			return err
		}
		changes, err := commands.ParseAssignments(args[2:])
		if err != nil {
			return err
		}
		env, err := newEnv()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return commands.Update(ctx, env, args[0], args[1], filter, changes)
	},
}

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete [database] [table]",
	Short: "Delete the first record matching a filter",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := filterFlag(cmd)
		if err != nil {
			return err
		}
		env, err := newEnv()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return commands.Delete(ctx, env, args[0], args[1], filter)
	},
}

func init() {
	insertCmd.Flags().StringP("data", "d", "", "Record as a JSON object, an array of objects, or - for stdin")
	_ = insertCmd.MarkFlagRequired("data")

	findCmd.Flags().Int("limit", 0, "Maximum number of records (0 uses the default limit)")
	for _, c := range []*cobra.Command{findCmd, findOneCmd, updateCmd, deleteCmd} {
		c.Flags().StringP("where", "w", "", "Filter as a JSON object of field equalities")
	}
}
