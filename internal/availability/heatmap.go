package availability

import (
	"time"

	"github.com/shopspring/decimal"

	"go-booking-engine/internal/domain/entity"
)

// Summary is the heatmap cell of one day. Percentages are shares of the
// candidate starts the open window would hold without breaks, rounded to two
// places, and always add up to 100.
type Summary struct {
	Date             entity.Date
	Closed           bool
	AvailableCount   int
	BookedCount      int
	BlockedCount     int
	AvailablePercent decimal.Decimal
	BookedPercent    decimal.Decimal
	BlockedPercent   decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Summarize builds the heatmap cell of day. available is the number of slots
// finally offered, after any lead-time or booking-window filter. Slots lost
// to breaks or filters count as blocked. A closed day is fully blocked.
func Summarize(day Day, available int, serviceDuration entity.Duration, opts Options, loc *time.Location) Summary {
	s := Summary{Date: day.Date, Closed: day.Hours.Closed, AvailableCount: available, BookedCount: day.Booked}

	total := 0
	if !day.Hours.Closed && !serviceDuration.IsZero() {
		total = len(candidates(day.Hours.Window(loc), serviceDuration, opts.step(serviceDuration)))
	}
	if blocked := total - available - day.Booked; blocked > 0 {
		s.BlockedCount = blocked
	}

	denom := s.AvailableCount + s.BookedCount + s.BlockedCount
	if denom == 0 {
		s.AvailablePercent = decimal.Zero
		s.BookedPercent = decimal.Zero
		s.BlockedPercent = hundred
		return s
	}

	d := decimal.NewFromInt(int64(denom))
	s.AvailablePercent = decimal.NewFromInt(int64(s.AvailableCount)).Mul(hundred).Div(d).Round(2)
	s.BookedPercent = decimal.NewFromInt(int64(s.BookedCount)).Mul(hundred).Div(d).Round(2)
	s.BlockedPercent = hundred.Sub(s.AvailablePercent).Sub(s.BookedPercent)
	return s
}
