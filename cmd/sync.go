package cmd

import (
	"tenant-sync/core/scope"
	"tenant-sync/core/syncer"

	"github.com/spf13/cobra"
)

var (
	uploadMode     string
	downloadTenant string
	downloadSelf   string
	downloadRole   string
	downloadAll    bool
)

// syncCmd is the parent command for one-shot sync operations.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a sync operation against the remote store",
	Long: `Runs one sync operation and exits. Operations that cannot reach the remote
store are queued and replayed by the next successful sync.`,
}

var syncFullCmd = &cobra.Command{
	Use:   "full",
	Short: "Merge local and remote data in both directions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(a *agent) syncer.Result {
			return a.orch.FullSync(cmd.Context())
		})
	},
}

var syncUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Push local data to the remote store",
	Long: `Pushes local data to the remote store.

Modes:
  merge          merge with the remote copy first (default)
  authoritative  overwrite the remote copy; unsynced edits on other devices are lost

Examples:
  sync upload
  sync upload --mode authoritative --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := syncer.ParseUploadMode(uploadMode)
		if err != nil {
			return err
		}
		return withAgent(cmd, func(a *agent) syncer.Result {
			return a.orch.UploadOnly(cmd.Context(), mode)
		})
	},
}

var syncDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Pull the remote data visible to a caller",
	Long: `Merges remote data into local storage without writing to the remote store.

Examples:
  sync download --all
  sync download --tenant t1 --self me@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		caller := scope.ForRole(downloadRole, downloadTenant, downloadSelf)
		if downloadAll {
			caller = scope.All()
		}
		return withAgent(cmd, func(a *agent) syncer.Result {
			return a.orch.DownloadOnly(cmd.Context(), caller)
		})
	},
}

var syncShareCmd = &cobra.Command{
	Use:   "share [code]",
	Short: "Join the tenant owning a share code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(a *agent) syncer.Result {
			return a.orch.SyncByShareCode(cmd.Context(), args[0])
		})
	},
}

var syncFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Replay syncs queued while offline",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(a *agent) syncer.Result {
			return a.orch.Flush(cmd.Context())
		})
	},
}

func withAgent(cmd *cobra.Command, fn func(a *agent) syncer.Result) error {
	ctx := cmd.Context()
	a, err := openAgent(ctx, cliConfirmer)
	if err != nil {
		return err
	}
	defer a.Close()

	a.connectOrWarn(ctx)
	return report(a.log, fn(a))
}

func init() {
	syncUploadCmd.Flags().StringVar(&uploadMode, "mode", string(syncer.ModeMerge), "Upload mode: merge or authoritative")

	syncDownloadCmd.Flags().StringVar(&downloadTenant, "tenant", "", "Tenant the caller belongs to")
	syncDownloadCmd.Flags().StringVar(&downloadSelf, "self", "", "Caller's own user email")
	syncDownloadCmd.Flags().StringVar(&downloadRole, "role", "", "Caller role (platform_admin and superadmin see every tenant)")
	syncDownloadCmd.Flags().BoolVar(&downloadAll, "all", false, "Download every tenant")

	syncCmd.PersistentFlags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	syncCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")

	syncCmd.AddCommand(syncFullCmd, syncUploadCmd, syncDownloadCmd, syncShareCmd, syncFlushCmd)
	RootCmd.AddCommand(syncCmd)
}
