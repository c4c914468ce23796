package billing_test

import (
	"testing"
	"time"

	"playzone/internal/billing"
	"playzone/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func openSession(extra int) *model.Session {
	return &model.Session{StartTime: t0, ExtraControllers: extra, BillingMode: model.BillingOpen, Status: model.SessionActive}
}

func timedSession(minutes int) *model.Session {
	end := t0.Add(time.Duration(minutes) * time.Minute)
	return &model.Session{StartTime: t0, BillingMode: model.BillingTimed, ScheduledEnd: &end, Status: model.SessionActive}
}

func TestPrice_OpenWithControllerAndDiscount(t *testing.T) {
	rc := billing.RateCard{HourlyRate: dec("1.5"), ExtraControllerRate: dec("0.25")}

	q := billing.Price(t0.Add(90*time.Minute), openSession(1), rc)

	assert.Equal(t, int64(90), q.Minutes)
	assert.Equal(t, "2.25", q.Base.String())
	assert.Equal(t, "0.375", q.Surcharge.String())
	assert.Equal(t, "2.63", q.Total.StringFixed(2))
	assert.False(t, q.Expired)

	final, err := billing.ApplyDiscount(q.Total, dec("10"))
	require.NoError(t, err)
	assert.Equal(t, "2.37", final.StringFixed(2))
}

func TestPrice_TimedStopsAtScheduledEnd(t *testing.T) {
	rc := billing.RateCard{HourlyRate: dec("2"), ExtraControllerRate: dec("0.5")}
	s := timedSession(60)

	atEnd := billing.Price(t0.Add(60*time.Minute), s, rc)
	later := billing.Price(t0.Add(5*time.Hour), s, rc)

	assert.Equal(t, "2.00", atEnd.Total.StringFixed(2))
	assert.True(t, atEnd.Total.Equal(later.Total))
	assert.True(t, later.Expired)
	assert.Equal(t, 4*time.Hour, later.ExtraTime)
	assert.Zero(t, later.Remaining)
}

func TestPrice_TimedCountdownBeforeExpiry(t *testing.T) {
	rc := billing.RateCard{HourlyRate: dec("3")}
	s := timedSession(120)

	q := billing.Price(t0.Add(75*time.Minute), s, rc)

	// 1h × 3 + 15min × 3/60
	assert.Equal(t, "3.75", q.Total.StringFixed(2))
	assert.False(t, q.Expired)
	assert.Equal(t, 45*time.Minute, q.Remaining)
}

func TestPrice_OpenIsNonDecreasing(t *testing.T) {
	rc := billing.RateCard{HourlyRate: dec("1.75"), ExtraControllerRate: dec("0.40")}
	s := openSession(2)

	prev := decimal.Zero
	for sec := 0; sec <= 4*3600; sec += 37 {
		q := billing.Price(t0.Add(time.Duration(sec)*time.Second), s, rc)
		require.True(t, q.Total.GreaterThanOrEqual(prev), "cost dropped at %ds", sec)
		prev = q.Total
	}
}

func TestPrice_PartialMinuteNotBilled(t *testing.T) {
	rc := billing.RateCard{HourlyRate: dec("6")}

	q := billing.Price(t0.Add(59*time.Second), openSession(0), rc)

	assert.Equal(t, int64(0), q.Minutes)
	assert.True(t, q.Total.IsZero())
}

func TestPrice_CompletedUsesFixedEnd(t *testing.T) {
	rc := billing.RateCard{HourlyRate: dec("1.2")}
	s := openSession(0)
	end := t0.Add(30 * time.Minute)
	s.EndTime = &end

	q := billing.Price(t0.Add(10*time.Hour), s, rc)

	assert.Equal(t, int64(30), q.Minutes)
	assert.Equal(t, "0.60", q.Total.StringFixed(2))
}

func TestPrice_ClockBeforeStart(t *testing.T) {
	q := billing.Price(t0.Add(-time.Minute), openSession(0), billing.RateCard{HourlyRate: dec("2")})
	assert.True(t, q.Total.IsZero())
	assert.Equal(t, t0, q.EffectiveEnd)
}

func TestApplyDiscount(t *testing.T) {
	cases := []struct {
		total, pct, want string
	}{
		{"10.00", "0", "10.00"},
		{"10.00", "100", "0.00"},
		{"7.35", "15", "6.25"},
		{"0.01", "50", "0.01"},
	}
	for _, c := range cases {
		got, err := billing.ApplyDiscount(dec(c.total), dec(c.pct))
		require.NoError(t, err)
		assert.Equal(t, c.want, got.StringFixed(2), "total=%s pct=%s", c.total, c.pct)
		assert.True(t, got.LessThanOrEqual(dec(c.total)))
	}

	_, err := billing.ApplyDiscount(dec("5"), dec("101"))
	assert.ErrorIs(t, err, billing.ErrInvalidDiscount)
	_, err = billing.ApplyDiscount(dec("5"), dec("-1"))
	assert.ErrorIs(t, err, billing.ErrInvalidDiscount)
}

func TestApplyDiscount_AtMostTwoDecimals(t *testing.T) {
	got, err := billing.ApplyDiscount(dec("9.00"), dec("33.33"))
	require.NoError(t, err)
	assert.Equal(t, "6.00", got.StringFixed(2))

	_, err = billing.ApplyDiscount(dec("9.00"), dec("33.335"))
	assert.ErrorIs(t, err, billing.ErrInvalidDiscount)

	// trailing zeros are not extra precision
	_, err = billing.ApplyDiscount(dec("9.00"), dec("12.500"))
	assert.NoError(t, err)
}
