package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/minekit/minekit/internal/accounts"
	"github.com/minekit/minekit/internal/instance"
	"github.com/minekit/minekit/internal/logging"
	"github.com/minekit/minekit/internal/mojang"
	"github.com/minekit/minekit/internal/paths"
	"github.com/minekit/minekit/internal/platform"
	"github.com/minekit/minekit/internal/state"
	"github.com/minekit/minekit/internal/vanilla"
)

var username string

var launchCmd = &cobra.Command{
	Use:   "launch <instance>",
	Short: "Synthesize the java command line for an installed instance",
	Long: `Reads the instance's installation state, reloads the matching build
manifest from the local cache, and prints the full java invocation:
JVM arguments, main class and game arguments.`,
	Args: usageArgs(cobra.ExactArgs(1)),
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
		// State, not the catalog, decides which version is installed.
		game, err := st.Get("net.minecraft")
		if err != nil {
			return err
		}

		accountsDir, err := p.Get("accounts")
		if err != nil {
			return err
		}
		store, err := accounts.Load(accountsDir)
		if err != nil {
			return err
		}

		v, err := vanilla.New(mojang.NewClient(""), p, st, store, platform.Current(), game.Version)
		if err != nil {
			return err
		}

		cmdline, err := instance.Command(v, username)
		if err != nil {
			return err
		}

		logging.Infof("java %s\n", strings.Join(cmdline, " "))
		return nil
	},
}

func init() {
	launchCmd.Flags().StringVarP(&username, "username", "u", "Player", "Player name to launch as")
	rootCmd.AddCommand(launchCmd)
}
