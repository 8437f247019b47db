package usage

import "time"

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a query value to a Period. Empty defaults to PeriodDay.
func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, true
	case PeriodMonth:
		return PeriodMonth, true
	default:
		return "", false
	}
}

// Report is the embedding token usage of one budget period.
// A zero limit means the period is unlimited; Remaining is then -1.
type Report struct {
	period    Period
	start     time.Time
	end       time.Time
	used      int64
	limit     int64
	remaining int64
}

// NewReport creates a usage report.
func NewReport(period Period, start, end time.Time, used, limit, remaining int64) Report {
	return Report{
		period:    period,
		start:     start,
		end:       end,
		used:      used,
		limit:     limit,
		remaining: remaining,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// Start returns the period start (UTC).
func (r *Report) Start() time.Time { return r.start }

// End returns the period end, which is also when the budget resets.
func (r *Report) End() time.Time { return r.end }

// TokensUsed returns tokens consumed in the period.
func (r *Report) TokensUsed() int64 { return r.used }

// TokensLimit returns the token cap, 0 when unlimited.
func (r *Report) TokensLimit() int64 { return r.limit }

// TokensRemaining returns tokens left, -1 when unlimited.
func (r *Report) TokensRemaining() int64 { return r.remaining }

// Exhausted reports whether a limited budget has no tokens left.
func (r *Report) Exhausted() bool { return r.limit > 0 && r.remaining <= 0 }
