package api

type muesliAddress struct {
	PolicyID string `json:"policyId"`
	Name     string `json:"name"`
}

type muesliToken struct {
	Symbol        string        `json:"symbol"`
	Address       muesliAddress `json:"address"`
	Amount        flexNumber    `json:"amount"`
	DecimalPlaces int           `json:"decimalPlaces"`
}

type muesliLPToken struct {
	Address muesliAddress `json:"address"`
	Amount  flexNumber    `json:"amount"`
}

type muesliPool struct {
	Provider       string        `json:"provider"`
	TokenA         muesliToken   `json:"tokenA"`
	TokenB         muesliToken   `json:"tokenB"`
	BatcherAddress string        `json:"batcherAddress"`
	PoolFee        flexNumber    `json:"poolFee"`
	LPToken        muesliLPToken `json:"lpToken"`
}
