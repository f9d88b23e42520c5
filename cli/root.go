package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "swapcore",
	Short: "A CLI for the swapcore quoting and derivation engine",
	Long: `swapcore is a command-line companion to the swapcore engine. It resolves
price quotes for token pairs and inspects the token lists the engine trades
against.

Examples:
  swapcore quote 1.5 native 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48 --chain 1
  swapcore quote 100 0xA0b8... native --chain 1 --exact-output
  swapcore list-tokens --dir ./token-lists --symbol USDC`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}
