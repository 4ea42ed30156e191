package market

// Spread tiers for synthetic books. Liquid markets get a tighter spread.
const (
	highVolumeSpread   = 2
	mediumVolumeSpread = 3
	lowVolumeSpread    = 5
)

func syntheticSpread(volume int) int {
	switch {
	case volume > 10000:
		return highVolumeSpread
	case volume > 1000:
		return mediumVolumeSpread
	default:
		return lowVolumeSpread
	}
}

func clampPrice(p int) int {
	if p < 1 {
		return 1
	}
	if p > 99 {
		return 99
	}
	return p
}

// Synthesize fabricates a two-level order book from a market's last traded
// price and volume, for markets where the exchange returns no depth. The
// result is a pure function of (lastPrice, volume). Returns ok=false when
// there is no usable last price, in which case the market should be dropped
// for the cycle.
func Synthesize(lastPrice, volume int) (OrderBook, bool) {
	if lastPrice < 1 || lastPrice > 99 {
		return OrderBook{}, false
	}

	spread := syntheticSpread(volume)

	yesBid := clampPrice(lastPrice - spread/2)
	noBid := clampPrice((100 - lastPrice) - spread/2)

	depth := volume / 100
	if depth < 10 {
		depth = 10
	}

	return OrderBook{
		Yes: []Level{
			{Price: yesBid, Quantity: depth},
			{Price: clampPrice(yesBid - 1), Quantity: depth / 2},
		},
		No: []Level{
			{Price: noBid, Quantity: depth},
			{Price: clampPrice(noBid - 1), Quantity: depth / 2},
		},
	}, true
}
