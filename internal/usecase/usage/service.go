package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/casecards/internal/domain/usage"
)

// Service reports embedding token usage against the budget.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode, nothing tracked).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	now := s.now().UTC()
	used, limit, remaining := int64(0), int64(0), int64(-1)

	var start, end time.Time
	switch period {
	case domusage.PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
		if s.br != nil {
			used, limit, remaining = s.br.MonthlyUsed(), s.br.MonthlyLimit(), s.br.RemainingMonthly()
		}
	default:
		period = domusage.PeriodDay
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
		if s.br != nil {
			used, limit, remaining = s.br.DailyUsed(), s.br.DailyLimit(), s.br.RemainingDaily()
		}
	}

	return domusage.NewReport(period, start, end, used, limit, remaining)
}
