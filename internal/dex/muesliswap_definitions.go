package dex

import (
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/datum"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
)

// muesliPoolDatum is the datum attached to MuesliSwap pool outputs
func muesliPoolDatum() datum.Field {
	return datum.Constr(0,
		datum.Constr(0,
			datum.BytesParam(models.PoolAssetAPolicyID),
			datum.BytesParam(models.PoolAssetAAssetName),
		),
		datum.Constr(0,
			datum.BytesParam(models.PoolAssetBPolicyID),
			datum.BytesParam(models.PoolAssetBAssetName),
		),
		datum.OptionalIntParam(models.TotalLpTokens),
		datum.OptionalIntParam(models.LpFee),
	)
}

// muesliOrderDatum is the datum locked with a MuesliSwap swap order
func muesliOrderDatum() datum.Field {
	sender := datum.Constr(0,
		datum.Constr(0, datum.BytesParam(models.SenderPubKeyHash)),
		datum.Constr(0,
			datum.Constr(0,
				datum.Constr(0, datum.BytesParam(models.SenderStakingKeyHash)),
			),
		),
	)

	return datum.Constr(0,
		datum.Constr(0,
			sender,
			datum.BytesParam(models.SwapOutTokenPolicyID),
			datum.BytesParam(models.SwapOutTokenAssetName),
			datum.BytesParam(models.SwapInTokenPolicyID),
			datum.BytesParam(models.SwapInTokenAssetName),
			datum.IntParam(models.MinReceive),
			datum.ConstrParam(models.AllowPartialFill),
			datum.IntParam(models.TotalFees),
		),
	)
}
