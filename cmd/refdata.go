package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var refdataCmd = &cobra.Command{
	Use:   "refdata",
	Short: "Manage reference datasets backing the code resolvers",
}

var refdataSyncCmd = &cobra.Command{
	Use:   "sync [dataset...]",
	Short: "Download reference data and rebuild the code indexes",
	Long:  "Fetches the upstream reference documents, embeds their content, and atomically rebuilds the vector indexes. With no arguments, syncs every dataset.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		names := args
		if len(names) == 0 {
			names = env.Registry.AllNames()
		}
		for _, name := range names {
			n, err := env.Syncer.Sync(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d records\n", name, n)
		}
		return nil
	},
}

var refdataStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which datasets have been synced",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		for _, name := range env.Registry.AllNames() {
			schema, err := env.Syncer.Status(cmd.Context(), name)
			if err != nil {
				return err
			}
			if schema == nil {
				fmt.Printf("%s: never synced\n", name)
				continue
			}
			fmt.Printf("%s: synced, columns %v\n", name, schema.Names())
		}
		return nil
	},
}

var refdataDropCmd = &cobra.Command{
	Use:   "drop <dataset>",
	Short: "Drop a dataset's index and schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Syncer.Drop(cmd.Context(), args[0]); err != nil {
			return err
		}
		zap.S().Infow("dataset dropped", "dataset", args[0])
		return nil
	},
}

func init() {
	refdataCmd.AddCommand(refdataSyncCmd, refdataStatusCmd, refdataDropCmd)
	rootCmd.AddCommand(refdataCmd)
}
