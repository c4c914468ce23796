// Package billing prices play sessions. Everything here is a pure function of
// (now, session, rate card): callers own the clock and the tick cadence.
package billing

import (
	"errors"
	"time"

	"playzone/internal/model"

	"github.com/shopspring/decimal"
)

var (
	sixty   = decimal.NewFromInt(60)
	hundred = decimal.NewFromInt(100)
)

// ErrInvalidDiscount is returned when a discount percent is outside [0,100]
// or carries more precision than the stored decimal(5,2) column.
var ErrInvalidDiscount = errors.New("discount percent must be between 0 and 100 with at most two decimals")

// RateCard is the per-device pricing used by the calculator.
type RateCard struct {
	HourlyRate          decimal.Decimal
	ExtraControllerRate decimal.Decimal
}

// RateCardOf extracts the rate card of a device.
func RateCardOf(d *model.Device) RateCard {
	return RateCard{HourlyRate: d.HourlyRate, ExtraControllerRate: d.ExtraControllerRate}
}

// Quote is the priced state of a session at a given instant.
type Quote struct {
	Minutes      int64           `json:"minutes"`
	Base         decimal.Decimal `json:"base"`
	Surcharge    decimal.Decimal `json:"surcharge"`
	Total        decimal.Decimal `json:"total"`
	EffectiveEnd time.Time       `json:"effective_end"`
	// Expired is set once a timed session reaches its scheduled end.
	Expired bool `json:"expired"`
	// Remaining is the countdown for timed sessions; zero otherwise.
	Remaining time.Duration `json:"remaining"`
	// ExtraTime is how long a timed session has overrun. Shown, never billed.
	ExtraTime time.Duration `json:"extra_time"`
}

// EffectiveEnd returns the instant billing is measured up to: the fixed end
// time when the session has one, else now, clamped to the scheduled end of a
// timed session. The bool reports whether that clamp applied.
func EffectiveEnd(now time.Time, s *model.Session) (time.Time, bool) {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	expired := false
	if s.IsTimed() && !end.Before(*s.ScheduledEnd) {
		end = *s.ScheduledEnd
		expired = true
	}
	if end.Before(s.StartTime) {
		end = s.StartTime
	}
	return end, expired
}

// ElapsedMinutes counts whole completed minutes between start and end.
func ElapsedMinutes(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Minute)
}

// Price computes the session cost at now. The total is rounded to two
// decimals only after base and surcharge have been added at full precision.
func Price(now time.Time, s *model.Session, rc RateCard) Quote {
	end, expired := EffectiveEnd(now, s)
	minutes := ElapsedMinutes(s.StartTime, end)
	m := decimal.NewFromInt(minutes)

	var base decimal.Decimal
	if s.IsTimed() {
		hours := decimal.NewFromInt(minutes / 60)
		rest := decimal.NewFromInt(minutes % 60)
		base = rc.HourlyRate.Mul(hours).Add(rc.HourlyRate.Mul(rest).Div(sixty))
	} else {
		base = rc.HourlyRate.Mul(m).Div(sixty)
	}

	surcharge := decimal.Zero
	if s.ExtraControllers > 0 {
		surcharge = decimal.NewFromInt(int64(s.ExtraControllers)).
			Mul(rc.ExtraControllerRate).Mul(m).Div(sixty)
	}

	q := Quote{
		Minutes:      minutes,
		Base:         base,
		Surcharge:    surcharge,
		Total:        base.Add(surcharge).Round(2),
		EffectiveEnd: end,
		Expired:      expired,
	}

	if s.IsTimed() {
		actual := now
		if s.EndTime != nil {
			actual = *s.EndTime
		}
		if actual.Before(*s.ScheduledEnd) {
			q.Remaining = s.ScheduledEnd.Sub(actual)
		} else {
			q.ExtraTime = actual.Sub(*s.ScheduledEnd)
		}
	}
	return q
}

// ApplyDiscount returns round(total × (1 − percent/100), 2). The percent is
// persisted with two decimals, so a finer one could not be reproduced later.
func ApplyDiscount(total, percent decimal.Decimal) (decimal.Decimal, error) {
	if percent.IsNegative() || percent.GreaterThan(hundred) || !percent.Equal(percent.Round(2)) {
		return decimal.Zero, ErrInvalidDiscount
	}
	factor := decimal.NewFromInt(1).Sub(percent.Div(hundred))
	return total.Mul(factor).Round(2), nil
}
