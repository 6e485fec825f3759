package dex

import (
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/amm"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
)

// Quote is a priced swap against one pool snapshot
type Quote struct {
	SwapInToken        models.Token
	SwapOutToken       models.Token
	SwapInAmount       *big.Int
	SwapOutAmount      *big.Int
	MinReceive         *big.Int
	PriceImpactPercent float64
}

// QuoteSwap prices a swap with the adapter's own math. With exactOut false, amount is
// spent in token; with exactOut true, amount of token is the desired output.
func QuoteSwap(d Dex, pool *models.LiquidityPool, token models.Token, amount *big.Int, exactOut bool, slippageBps uint16) (Quote, error) {
	if amount == nil || amount.Sign() <= 0 {
		return Quote{}, fmt.Errorf("%w: amount must be > 0", ErrConfiguration)
	}
	other, err := pool.OtherToken(token)
	if err != nil {
		return Quote{}, err
	}

	q := Quote{SwapInToken: token, SwapOutToken: other}
	if exactOut {
		q.SwapInToken, q.SwapOutToken = other, token
		q.SwapOutAmount = new(big.Int).Set(amount)
		q.SwapInAmount, err = d.EstimatedGive(pool, token, amount)
	} else {
		q.SwapInAmount = new(big.Int).Set(amount)
		q.SwapOutAmount, err = d.EstimatedReceive(pool, token, amount)
	}
	if err != nil {
		return Quote{}, err
	}

	q.PriceImpactPercent, err = d.PriceImpactPercent(pool, q.SwapInToken, q.SwapInAmount)
	if err != nil {
		return Quote{}, err
	}
	q.MinReceive = amm.ApplySlippage(q.SwapOutAmount, slippageBps)
	return q, nil
}
