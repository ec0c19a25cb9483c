package cmd

import (
	"github.com/spf13/cobra"

	"github.com/minekit/minekit/internal/logging"
	"github.com/minekit/minekit/internal/mojang"
)

var includeSnapshots bool

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List game versions from the remote catalog",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := mojang.NewClient("")
		versions, err := client.Versions(includeSnapshots)
		if err != nil {
			return err
		}
		for _, v := range versions {
			logging.Infof("%-20s %s\n", v.ID, v.Type)
		}
		return nil
	},
}

func init() {
	versionsCmd.Flags().BoolVar(&includeSnapshots, "snapshots", false, "Include snapshots and other unreleased builds")
	rootCmd.AddCommand(versionsCmd)
}
