package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "dexter",
		Short:        "Cardano DEX pool and order toolkit",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("env", ".env", "dotenv file to load, missing files are ignored")

	poolsCmd := &cobra.Command{
		Use:   "pools",
		Short: "Fetch live liquidity pools",
		RunE:  runPools,
	}
	poolsCmd.Flags().StringSlice("dex", nil, "adapters to query (comma-separated), default all")
	poolsCmd.Flags().String("token-a", "", "first token unit, empty means lovelace")
	poolsCmd.Flags().String("token-b", "", "second token unit, empty keeps every pool with token-a")
	poolsCmd.Flags().Bool("group", false, "group pools by adapter")
	root.AddCommand(poolsCmd)

	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Re-read the current state of a pool",
		RunE:  runState,
	}
	stateCmd.Flags().String("pool", "-", "pool JSON file, - for stdin")
	root.AddCommand(stateCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Replay the states of a pool from its LP token transactions",
		RunE:  runHistory,
	}
	historyCmd.Flags().String("pool", "-", "pool JSON file, - for stdin")
	root.AddCommand(historyCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap against a pool snapshot",
		RunE:  runQuote,
	}
	quoteCmd.Flags().String("pool", "-", "pool JSON file, - for stdin")
	quoteCmd.Flags().String("token", "", "swap-in token unit, or the swap-out token with --exact-out")
	quoteCmd.Flags().String("amount", "", "amount in minimal units")
	quoteCmd.Flags().Bool("exact-out", false, "treat amount as the desired output")
	quoteCmd.Flags().Uint16("slippage-bps", 50, "slippage tolerance for min receive")
	root.AddCommand(quoteCmd)

	feesCmd := &cobra.Command{
		Use:   "fees",
		Short: "Print the order fee schedule of an adapter",
		RunE:  runFees,
	}
	feesCmd.Flags().String("dex", "MuesliSwap", "adapter name")
	root.AddCommand(feesCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
