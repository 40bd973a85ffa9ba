package cli

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/splitkit/splitkit/internal/storage"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all client-side state",
	Long: `Clear the client state file: anonymous id, variant assignments, the
local event log, and the returning-user marker.

The next assignment request performs a fresh weighted draw.

Example:
  splitkit reset --state ./splitkit-state.json`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Clear all state in %s", statePath),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			if err == promptui.ErrInterrupt {
				os.Exit(0)
			}
			fmt.Println("Aborted.")
			return nil
		}
	}

	st, err := storage.OpenFileStore(statePath)
	if err != nil {
		return err
	}

	if err := storage.Reset(st); err != nil {
		return err
	}

	fmt.Println("Client state cleared.")
	return nil
}
