package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/amm"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/bootstrap"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/config"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/constants"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/dex"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/fetch"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// setup loads the environment and builds the fetch stack without Redis
func setup(cmd *cobra.Command) (*bootstrap.Core, error) {
	envFile, _ := cmd.Flags().GetString("env")
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	core, err := bootstrap.NewCore(cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	return core, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, constants.FetchTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readPool decodes a pool from a file, or stdin when path is "-"
func readPool(cmd *cobra.Command) (*models.LiquidityPool, error) {
	path, _ := cmd.Flags().GetString("pool")

	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var pool models.LiquidityPool
	if err := json.NewDecoder(r).Decode(&pool); err != nil {
		return nil, fmt.Errorf("invalid pool json: %w", err)
	}
	if pool.Dex == "" {
		return nil, fmt.Errorf("pool json has no dex")
	}
	return &pool, nil
}

func runPools(cmd *cobra.Command, _ []string) error {
	core, err := setup(cmd)
	if err != nil {
		return err
	}

	dexs, _ := cmd.Flags().GetStringSlice("dex")
	tokenA, _ := cmd.Flags().GetString("token-a")
	tokenB, _ := cmd.Flags().GetString("token-b")
	group, _ := cmd.Flags().GetBool("group")

	a, err := models.TokenFromUnit(tokenA)
	if err != nil {
		return fmt.Errorf("token-a: %w", err)
	}
	filter := fetch.PairFilter{A: a}
	if tokenB != "" {
		b, err := models.TokenFromUnit(tokenB)
		if err != nil {
			return fmt.Errorf("token-b: %w", err)
		}
		filter.B = &b
	}

	req := fetch.NewRequest(core.Dexs, core.FetchOptions)
	if len(dexs) == 0 {
		req.ForAllDexs()
	} else if _, err := req.ForDexs(dexs...); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if group {
		groups, err := req.GetLiquidityPoolsByDex(ctx, filter)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), groups)
	}

	pools, err := req.GetLiquidityPools(ctx, filter)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), pools)
}

func runState(cmd *cobra.Command, _ []string) error {
	core, err := setup(cmd)
	if err != nil {
		return err
	}
	pool, err := readPool(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	state, err := core.NewRequest().GetLiquidityPoolState(ctx, pool)
	if err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("pool %s no longer exists", pool.UUID())
	}
	return printJSON(cmd.OutOrStdout(), state)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	core, err := setup(cmd)
	if err != nil {
		return err
	}
	pool, err := readPool(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	history, err := core.NewRequest().GetLiquidityPoolHistory(ctx, pool)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), history)
}

func runQuote(cmd *cobra.Command, _ []string) error {
	core, err := setup(cmd)
	if err != nil {
		return err
	}
	pool, err := readPool(cmd)
	if err != nil {
		return err
	}

	unit, _ := cmd.Flags().GetString("token")
	amountStr, _ := cmd.Flags().GetString("amount")
	exactOut, _ := cmd.Flags().GetBool("exact-out")
	slippage, _ := cmd.Flags().GetUint16("slippage-bps")

	token, err := models.TokenFromUnit(unit)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}
	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok || amount.Sign() <= 0 {
		return fmt.Errorf("amount must be a positive integer")
	}
	if slippage > constants.MaxQuoteSlippageBps {
		return fmt.Errorf("slippage-bps must be <= %d", constants.MaxQuoteSlippageBps)
	}

	d, ok := core.Dexs[pool.Dex]
	if !ok {
		return fmt.Errorf("%w: %s", fetch.ErrUnknownDex, pool.Dex)
	}
	q, err := dex.QuoteSwap(d, pool, token, amount, exactOut, slippage)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s\n", d.Name(), pool.Pair())
	fmt.Fprintf(w, "give:         %s %s\n", amm.ToDecimal(q.SwapInAmount, q.SwapInToken.Decimals()), q.SwapInToken.Ticker())
	fmt.Fprintf(w, "receive:      %s %s\n", amm.ToDecimal(q.SwapOutAmount, q.SwapOutToken.Decimals()), q.SwapOutToken.Ticker())
	fmt.Fprintf(w, "min receive:  %s %s\n", amm.ToDecimal(q.MinReceive, q.SwapOutToken.Decimals()), q.SwapOutToken.Ticker())
	fmt.Fprintf(w, "price impact: %.4f%%\n", q.PriceImpactPercent)
	return nil
}

func runFees(cmd *cobra.Command, _ []string) error {
	core, err := setup(cmd)
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("dex")
	d, ok := core.Dexs[name]
	if !ok {
		return fmt.Errorf("%w: %s", fetch.ErrUnknownDex, name)
	}
	return printJSON(cmd.OutOrStdout(), d.SwapOrderFees())
}
