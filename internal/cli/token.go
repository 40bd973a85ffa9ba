package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show the collector ingest token",
	Long: `Show the bearer token clients need to post events to the collector.

The token is written next to the database when the collector starts.

Example:
  splitkit token`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(tokenFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no collector running. Start with: splitkit serve")
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return fmt.Errorf("token file is empty. Restart the collector with: splitkit serve")
	}

	fmt.Printf("Ingest token: %s\n", token)
	fmt.Println()
	fmt.Println("Clients send it as: Authorization: Bearer <token>")
	return nil
}
