package cmd

import (
	"context"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/minekit/minekit/internal/accounts"
	"github.com/minekit/minekit/internal/downloader"
	"github.com/minekit/minekit/internal/instance"
	"github.com/minekit/minekit/internal/mojang"
	"github.com/minekit/minekit/internal/paths"
	"github.com/minekit/minekit/internal/platform"
	"github.com/minekit/minekit/internal/state"
	"github.com/minekit/minekit/internal/vanilla"
)

var (
	gameVersion string
	concurrency int
)

var downloadCmd = &cobra.Command{
	Use:   "download <instance>",
	Short: "Download and verify everything a version needs to run",
	Long: `Resolves the requested version against the remote catalog, diffs its build
manifest against the local filesystem, and downloads only the files that
are missing or corrupted. Native archives are extracted into the
instance's natives directory.`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := paths.New(baseDir, args[0])
		accountsDir, err := p.Get("accounts")
		if err != nil {
			return err
		}
		store, err := accounts.Load(accountsDir)
		if err != nil {
			return err
		}

		client := mojang.NewClient("")
		osys := platform.Current()

		v, err := vanilla.New(client, p, state.New(), store, osys, gameVersion)
		if err != nil {
			return err
		}

		var (
			barOnce sync.Once
			bar     *progressbar.ProgressBar
		)
		onProgress := func(pr downloader.Progress) {
			barOnce.Do(func() {
				bar = progressbar.Default(pr.Total, "downloading")
			})
			_ = bar.Set64(pr.Completed)
		}

		return instance.Download(context.Background(), v, osys, concurrency, onProgress)
	},
}

func init() {
	downloadCmd.Flags().StringVar(&gameVersion, "version", "", "Game version to install (default: latest release)")
	downloadCmd.Flags().IntVar(&concurrency, "concurrency", downloader.DefaultWorkers, "Number of concurrent downloads")
	rootCmd.AddCommand(downloadCmd)
}
