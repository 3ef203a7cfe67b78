package cmd

import (
	"fmt"

	"tenant-sync/core/syncer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var authoritativeDelete bool

// tombstoneCmd groups deletion and tombstone maintenance.
var tombstoneCmd = &cobra.Command{
	Use:   "tombstone",
	Short: "Delete entities and manage tombstones",
	Long: `Deleted identities are remembered as tombstones so that no device can
bring them back. Tombstones are kept until purged.`,
}

var tombstoneListCmd = &cobra.Command{
	Use:   "list [kind]",
	Short: "List deleted identities of a kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openAgent(cmd.Context(), cliConfirmer)
		if err != nil {
			return err
		}
		defer a.Close()

		ids, err := a.orch.Tombstones(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		a.log.Info("Tombstones", zap.String("kind", args[0]), zap.Int("count", len(ids)))
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var tombstoneDeleteCmd = &cobra.Command{
	Use:   "delete [kind] [identity]",
	Short: "Delete an entity on every device",
	Long: `Records a tombstone, removes the entity locally and uploads the deletion.

By default the deletion is merged with the remote copy. --authoritative
overwrites the remote copy instead and needs confirmation.

Examples:
  tombstone delete users bob@example.com
  tombstone delete tenants t42 --authoritative --yes`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(a *agent) syncer.Result {
			return a.orch.DeleteEntity(cmd.Context(), args[0], args[1], authoritativeDelete)
		})
	},
}

var tombstonePurgeCmd = &cobra.Command{
	Use:   "purge [kind]",
	Short: "Forget every tombstone of a kind, locally and remotely",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(a *agent) syncer.Result {
			return a.orch.PurgeTombstones(cmd.Context(), args[0])
		})
	},
}

func init() {
	tombstoneDeleteCmd.Flags().BoolVar(&authoritativeDelete, "authoritative", false, "Overwrite the remote copy instead of merging")

	tombstoneCmd.PersistentFlags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	tombstoneCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")

	tombstoneCmd.AddCommand(tombstoneListCmd, tombstoneDeleteCmd, tombstonePurgeCmd)
	RootCmd.AddCommand(tombstoneCmd)
}
