package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/emberwallet/swapcore/engine/currency"
	"github.com/emberwallet/swapcore/tokenlists"
)

var (
	tokensDir    string
	tokensSource string
	filterChain  uint64
	filterSymbol string
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List tokens from the configured token lists",
	Long: `List the tokens found in a directory of token list files, optionally
downloading a list source first.

Examples:
  swapcore list-tokens --dir ./token-lists
  swapcore list-tokens --dir ./token-lists --chain 1
  swapcore list-tokens --dir ./token-lists --symbol USDC
  swapcore list-tokens --dir ./token-lists --fetch github.com/org/lists//mainnet`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&tokensDir, "dir", "./token-lists", "Directory of token list files")
	tokensCmd.Flags().StringVar(&tokensSource, "fetch", "", "Token list source to download before listing")
	tokensCmd.Flags().Uint64Var(&filterChain, "chain", 0, "Filter by chain id")
	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if tokensSource != "" {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		if !jsonOutput {
			s.Suffix = " Downloading token lists..."
			s.Start()
		}
		err := tokenlists.ListsDownload(tokensSource, tokensDir)
		if !jsonOutput {
			s.Stop()
		}
		if err != nil {
			printError(err)
			os.Exit(1)
		}
	}

	lists, err := tokenlists.LoadDir(tokensDir)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	var tokens []tokenlists.TokenInfo
	for _, list := range lists {
		tokens = append(tokens, list.Tokens...)
	}

	// Apply filters
	if filterChain != 0 {
		var temp []tokenlists.TokenInfo
		for _, token := range tokens {
			if token.ChainID == filterChain {
				temp = append(temp, token)
			}
		}
		tokens = temp
	}
	if filterSymbol != "" {
		var temp []tokenlists.TokenInfo
		for _, token := range tokens {
			if strings.Contains(strings.ToUpper(token.Symbol), strings.ToUpper(filterSymbol)) {
				temp = append(temp, token)
			}
		}
		tokens = temp
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(tokens, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayTokens(tokens)
}

func displayTokens(tokens []tokenlists.TokenInfo) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            KNOWN TOKENS")
	fmt.Println(strings.Repeat("=", 90))

	// Group tokens by chain
	tokensByChain := make(map[uint64][]tokenlists.TokenInfo)
	for _, token := range tokens {
		tokensByChain[token.ChainID] = append(tokensByChain[token.ChainID], token)
	}

	chains := make([]uint64, 0, len(tokensByChain))
	for chain := range tokensByChain {
		chains = append(chains, chain)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })

	for _, chain := range chains {
		color.Cyan("\n%s", strings.ToUpper(currency.ChainID(chain).Name()))
		fmt.Println(strings.Repeat("-", 90))

		for _, token := range tokensByChain[chain] {
			address := token.Address
			if len(address) > 40 {
				address = address[:37] + "..."
			}

			fmt.Printf("  %-10s  %2d decimals  %s\n",
				color.YellowString(token.Symbol),
				token.Decimals,
				color.HiBlackString(address))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens across %d chains\n\n", len(tokens), len(chains))
}
