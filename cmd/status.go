package cmd

import (
	"github.com/spf13/cobra"

	"github.com/minekit/minekit/internal/logging"
	"github.com/minekit/minekit/internal/paths"
	"github.com/minekit/minekit/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status <instance>",
	Short: "Show the installed components of an instance",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := paths.New(baseDir, args[0])
		instanceDir, err := p.Get("instance")
		if err != nil {
			return err
		}
		st, err := state.Load(instanceDir)
		if err != nil {
			return err
		}

		for name, c := range st.Components {
			switch c.Kind {
			case state.KindGame:
				logging.Infof("%-16s game    version=%s\n", name, c.Version)
			case state.KindRuntime:
				if c.Arguments != "" {
					logging.Infof("%-16s runtime path=%s arguments=%q\n", name, c.Path, c.Arguments)
				} else {
					logging.Infof("%-16s runtime path=%s\n", name, c.Path)
				}
			default:
				logging.Infof("%-16s %s\n", name, c.Kind)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
