package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/emberwallet/swapcore/engine/currency"
	"github.com/emberwallet/swapcore/engine/quote"
	"github.com/emberwallet/swapcore/engine/swap"
)

var (
	quoteChainID     uint64
	quoteEngineURL   string
	quoteExactOutput bool
	quoteSlippageBps int64
	quoteDecimals    int32
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <tokenIn> <tokenOut>",
	Short: "Resolve a price quote for a token pair",
	Long: `Resolve a price quote through the quoting source the engine uses.

Tokens are given as "native" for the chain currency or as a hex contract
address. The amount is the human-readable exact amount of the input token,
or of the output token with --exact-output.

Examples:
  swapcore quote 1.5 native 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48 --chain 1
  swapcore quote 250 0xA0b8... native --chain 1 --exact-output`,
	Args: cobra.ExactArgs(3),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().Uint64Var(&quoteChainID, "chain", 1, "Chain id to quote on")
	quoteCmd.Flags().StringVar(&quoteEngineURL, "quoter", "http://localhost:8081", "Quoting API base URL")
	quoteCmd.Flags().BoolVar(&quoteExactOutput, "exact-output", false, "Treat the amount as the desired output")
	quoteCmd.Flags().Int64Var(&quoteSlippageBps, "slippage-bps", 0, "Slippage tolerance in bps (0 = default)")
	quoteCmd.Flags().Int32Var(&quoteDecimals, "decimals", 18, "Decimals for token contract arguments")
}

func runQuote(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	chain := currency.ChainID(quoteChainID)
	tokenIn, err := cliToken(chain, args[1])
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	tokenOut, err := cliToken(chain, args[2])
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	tradeType := swap.ExactInput
	exact, other := tokenIn, tokenOut
	if quoteExactOutput {
		tradeType = swap.ExactOutput
		exact, other = tokenOut, tokenIn
	}

	amount, ok := currency.ParseAmount(args[0], exact)
	if !ok || amount == nil {
		printError(fmt.Errorf("malformed amount %q", args[0]))
		os.Exit(1)
	}

	clientConfig := quote.DefaultClientConfig()
	clientConfig.SlippageBps = quoteSlippageBps
	client, err := quote.NewClient(quoteEngineURL, nil, clientConfig)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer client.Close()

	// Resolve with spinner
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Resolving quote..."
		s.Start()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	result := quote.NewResolver(client).Await(ctx, &quote.Request{
		Amount: amount,
		Other:  other,
		Type:   tradeType,
	})

	if !jsonOutput {
		s.Stop()
	}

	if result.Status != swap.QuoteResolved {
		printError(fmt.Errorf("quote %s: %v", result.Status, result.Err))
		os.Exit(1)
	}

	if jsonOutput {
		out := map[string]any{
			"inputAmount":    result.Trade.InputAmount.Exact(),
			"outputAmount":   result.Trade.OutputAmount.Exact(),
			"tradeType":      result.Trade.Type.String(),
			"router":         result.Trade.Quote.Router.Hex(),
			"gasUseEstimate": result.Trade.Quote.GasUseEstimate,
		}
		if tradeType == swap.ExactInput {
			out["minimumAmountOut"] = result.Trade.MinimumAmountOut().Exact()
		} else {
			out["maximumAmountIn"] = result.Trade.MaximumAmountIn().Exact()
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayTrade(result.Trade)
}

func displayTrade(t *swap.Trade) {
	fmt.Println()
	color.Green("QUOTE RESOLVED")
	fmt.Printf("  %s %s -> %s %s\n",
		color.YellowString(t.InputAmount.Exact()), t.InputAmount.Currency.Symbol,
		color.YellowString(t.OutputAmount.Exact()), t.OutputAmount.Currency.Symbol)

	if t.Type == swap.ExactInput {
		fmt.Printf("  Minimum received: %s %s\n",
			t.MinimumAmountOut().Exact(), t.OutputAmount.Currency.Symbol)
	} else {
		fmt.Printf("  Maximum spent:    %s %s\n",
			t.MaximumAmountIn().Exact(), t.InputAmount.Currency.Symbol)
	}

	fmt.Printf("  Router:       %s\n", color.HiBlackString(t.Quote.Router.Hex()))
	fmt.Printf("  Gas estimate: %d\n\n", t.Quote.GasUseEstimate)
}

// cliToken parses a token argument: "native" or a hex contract address.
func cliToken(chain currency.ChainID, arg string) (*currency.Currency, error) {
	if arg == "native" {
		return currency.NativeOnChain(chain), nil
	}
	if !common.IsHexAddress(arg) {
		return nil, fmt.Errorf("malformed token %q: expected \"native\" or a hex address", arg)
	}
	return currency.NewToken(chain, common.HexToAddress(arg), quoteDecimals, "TOKEN", "Token"), nil
}
