package market

import "context"

// DataSource is the feed of open markets and order books the scheduler
// consumes. Implementations own their caching and rate limiting.
type DataSource interface {
	// FetchOpenMarkets returns up to maxMarkets markets matching the status
	// filter, each with volume >= minVolume.
	FetchOpenMarkets(ctx context.Context, maxMarkets int, status string, minVolume int) ([]Market, error)

	// FetchOrderBook returns the current depth for one market. Either side
	// may come back empty.
	FetchOrderBook(ctx context.Context, ticker string) (OrderBook, error)
}
