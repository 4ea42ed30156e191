package market

import "fmt"

// Side of a binary contract. The no price is the complement of the yes
// price, so a held no contract gains when the yes price falls.
type Side string

const (
	Yes Side = "yes"
	No  Side = "no"
)

func ParseSide(s string) (Side, error) {
	switch s {
	case "yes":
		return Yes, nil
	case "no":
		return No, nil
	}
	return "", fmt.Errorf("invalid side %q", s)
}

// Opposite returns the other side of the contract.
func (s Side) Opposite() Side {
	if s == Yes {
		return No
	}
	return Yes
}

// Level is one rung of a bid ladder: price in cents and resting quantity.
type Level struct {
	Price    int
	Quantity int
}

// OrderBook holds the bid ladders for both sides, best price first.
// A nil ladder means the exchange returned no depth for that side.
type OrderBook struct {
	Yes []Level
	No  []Level
}

// BestBid returns the top of the ladder for the given side.
func (ob OrderBook) BestBid(side Side) (Level, bool) {
	ladder := ob.Yes
	if side == No {
		ladder = ob.No
	}
	if len(ladder) == 0 {
		return Level{}, false
	}
	return ladder[0], true
}

// Empty reports whether either side is missing depth.
func (ob OrderBook) Empty() bool {
	return len(ob.Yes) == 0 || len(ob.No) == 0
}

// Market is one tradable binary market as returned by the data source.
// LastPrice is the yes price in cents; 0 means the exchange reported none.
type Market struct {
	Ticker       string
	SeriesTicker string
	Title        string
	LastPrice    int
	Volume       int
	OpenInterest int
	OrderBook    OrderBook
}

// PriceTable maps ticker -> side -> best bid in cents.
type PriceTable map[string]map[Side]int

// Price looks up the best bid for a ticker/side pair.
func (pt PriceTable) Price(ticker string, side Side) (int, bool) {
	sides, ok := pt[ticker]
	if !ok {
		return 0, false
	}
	p, ok := sides[side]
	return p, ok
}

// ExtractPrices builds a PriceTable from the best bids of enriched markets.
// Markets missing depth on either side are left out.
func ExtractPrices(markets []Market) PriceTable {
	pt := make(PriceTable, len(markets))
	for _, m := range markets {
		yes, okYes := m.OrderBook.BestBid(Yes)
		no, okNo := m.OrderBook.BestBid(No)
		if !okYes || !okNo {
			continue
		}
		pt[m.Ticker] = map[Side]int{Yes: yes.Price, No: no.Price}
	}
	return pt
}
