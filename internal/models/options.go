package models

import "github.com/shopspring/decimal"

// AnalyticQuote represents closed-form prices for one ParameterSet.
type AnalyticQuote struct {
	D1        float64 `json:"d1"`
	D2        float64 `json:"d2"`
	CallPrice float64 `json:"call_price"`
	PutPrice  float64 `json:"put_price"`
}

// Price returns the quote for the given option type.
func (q AnalyticQuote) Price(optType OptionType) float64 {
	if optType == OptionTypePut {
		return q.PutPrice
	}
	return q.CallPrice
}

// PricePath represents one simulated spot trajectory.
type PricePath struct {
	Timescale Timescale `json:"timescale"`
	Seed      uint64    `json:"seed"`
	Times     []float64 `json:"times"`
	Spots     []float64 `json:"spots"`
}

// Steps returns the number of grid steps (points minus one).
func (p PricePath) Steps() int {
	return len(p.Times) - 1
}

// Last returns the final spot of the path.
func (p PricePath) Last() float64 {
	if len(p.Spots) == 0 {
		return 0
	}
	return p.Spots[len(p.Spots)-1]
}

// Greeks represents option Greeks.
type Greeks struct {
	Delta float64 `json:"delta" csv:"Delta"`
	Gamma float64 `json:"gamma" csv:"Gamma"`
	Theta float64 `json:"theta" csv:"Theta"`
	Vega  float64 `json:"vega" csv:"Vega"`
	Rho   float64 `json:"rho" csv:"Rho"`
}

// GreeksPoint holds the Greeks at one elapsed time of a grid.
type GreeksPoint struct {
	Time      float64 `json:"time" csv:"Time"`
	Remaining float64 `json:"remaining" csv:"Remaining"`
	Greeks
}

// GreeksSeries holds Greeks indexed by elapsed time.
type GreeksSeries struct {
	OptionType OptionType    `json:"option_type"`
	Points     []GreeksPoint `json:"points"`
}

// HedgeRow represents one rebalancing period of a delta hedge.
type HedgeRow struct {
	Period          int     `json:"period" csv:"Period"`
	Time            float64 `json:"time" csv:"Time"`
	StockPrice      float64 `json:"stock_price" csv:"StockPrice"`
	Delta           float64 `json:"delta" csv:"Delta"`
	SharesPurchased float64 `json:"shares_purchased" csv:"SharesPurchased"`
	Cost            float64 `json:"cost" csv:"Cost"`
	CumulativeCost  float64 `json:"cumulative_cost" csv:"CumulativeCost"`
}

// HedgingLedger is the period-by-period record of a delta hedge.
type HedgingLedger struct {
	OptionType  OptionType      `json:"option_type"`
	Shares      int             `json:"shares"`
	Rows        []HedgeRow      `json:"rows"`
	TotalShares float64         `json:"total_shares"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}
