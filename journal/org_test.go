package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	opened := time.Date(2025, 6, 1, 10, 30, 45, 0, time.UTC)
	closed := time.Date(2025, 6, 1, 14, 20, 30, 0, time.UTC)

	trade := TradeRecord{
		PositionID:  "01JWCTESTABCDEFGHJKMNPQRS",
		Ticker:      "KXFED-25JUN-H",
		Side:        "yes",
		Quantity:    25,
		EntryPrice:  40,
		ExitPrice:   65,
		OpenedAt:    opened,
		ClosedAt:    closed,
		RealizedPnL: 625,
		Reason:      "take_profit",
	}

	result := FormatTradeOrg(trade)

	// Check heading
	assert.Contains(t, result, "** Trade: KXFED-25JUN-H yes (01JWCTES)")

	// Check properties drawer
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":POSITION_ID: 01JWCTESTABCDEFGHJKMNPQRS")
	assert.Contains(t, result, ":TICKER: KXFED-25JUN-H")
	assert.Contains(t, result, ":SIDE: yes")
	assert.Contains(t, result, ":QUANTITY: 25")
	assert.Contains(t, result, ":ENTRY_PRICE: 40¢")
	assert.Contains(t, result, ":EXIT_PRICE: 65¢")
	assert.Contains(t, result, ":OPENED_AT: 2025-06-01T10:30:45Z")
	assert.Contains(t, result, ":CLOSED_AT: 2025-06-01T14:20:30Z")
	assert.Contains(t, result, ":REALIZED_PNL: $6.25")
	assert.Contains(t, result, ":REASON: take_profit")
	assert.Contains(t, result, ":END:")

	// Check narrative sections
	assert.Contains(t, result, "*** Thesis")
	assert.Contains(t, result, "*** Execution")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradeOrgShortID(t *testing.T) {
	t.Parallel()

	trade := TradeRecord{
		PositionID: "short",
		Ticker:     "KXBTC-25AUG",
		Side:       "no",
	}

	result := FormatTradeOrg(trade)
	assert.Contains(t, result, "** Trade: KXBTC-25AUG no (short)")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	trades := []TradeRecord{
		{PositionID: "01AAAAAAAAAAAAAAAAAAAAAAAA", Ticker: "MKT-A", Side: "yes"},
		{PositionID: "01BBBBBBBBBBBBBBBBBBBBBBBB", Ticker: "MKT-B", Side: "no"},
	}

	result := FormatTradesOrg(trades)
	require.Equal(t, 2, strings.Count(result, "** Trade:"))
	assert.Contains(t, result, "MKT-A")
	assert.Contains(t, result, "MKT-B")
}
