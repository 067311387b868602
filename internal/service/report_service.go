package service

import (
	"context"
	"fmt"
	"time"

	"food-delivery/internal/apperror"
	"food-delivery/internal/domain"
	"food-delivery/internal/repository"
	"food-delivery/internal/timeutil"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ReportService aggregates merchant sales figures.
type ReportService interface {
	MonthlyReport(ctx context.Context, identity domain.Identity, month, year int) (*domain.SalesReport, error)
	AnnualReport(ctx context.Context, identity domain.Identity, year int) (*domain.SalesReport, error)
	PeriodReport(ctx context.Context, identity domain.Identity, period timeutil.Range) (*domain.SalesReport, error)
	Dashboard(ctx context.Context, identity domain.Identity, now time.Time) (*domain.Dashboard, error)
}

type reportService struct {
	merchants         repository.MerchantRepository
	orders            repository.OrderRepository
	products          repository.ProductRepository
	feedbacks         repository.FeedbackRepository
	lowStockThreshold int
}

func NewReportService(
	merchants repository.MerchantRepository,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	feedbacks repository.FeedbackRepository,
	lowStockThreshold int,
) ReportService {
	return &reportService{
		merchants:         merchants,
		orders:            orders,
		products:          products,
		feedbacks:         feedbacks,
		lowStockThreshold: lowStockThreshold,
	}
}

func (s *reportService) MonthlyReport(ctx context.Context, identity domain.Identity, month, year int) (*domain.SalesReport, error) {
	period, err := timeutil.MonthRange(year, time.Month(month))
	if err != nil {
		return nil, apperror.Validation("%s", err.Error())
	}
	return s.report(ctx, identity, period)
}

func (s *reportService) AnnualReport(ctx context.Context, identity domain.Identity, year int) (*domain.SalesReport, error) {
	period, err := timeutil.YearRange(year)
	if err != nil {
		return nil, apperror.Validation("%s", err.Error())
	}
	return s.report(ctx, identity, period)
}

func (s *reportService) PeriodReport(ctx context.Context, identity domain.Identity, period timeutil.Range) (*domain.SalesReport, error) {
	if !period.Start.Before(period.End) {
		return nil, apperror.Validation("period start must be before its end")
	}
	return s.report(ctx, identity, period)
}

// report fills the period figures plus the figures of the calendar year the
// period starts in.
func (s *reportService) report(ctx context.Context, identity domain.Identity, period timeutil.Range) (*domain.SalesReport, error) {
	merchant, err := merchantFor(ctx, s.merchants, identity)
	if err != nil {
		return nil, err
	}

	totals, err := s.orders.MerchantTotals(ctx, merchant.ID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate period: %w", err)
	}

	year, _ := timeutil.YearRange(period.Start.Year())
	annual := totals
	if !year.Start.Equal(period.Start) || !year.End.Equal(period.End) {
		annual, err = s.orders.MerchantTotals(ctx, merchant.ID, year.Start, year.End)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate year: %w", err)
		}
	}

	grouped, err := s.orders.StatusBreakdown(ctx, merchant.ID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to group period by status: %w", err)
	}

	ratings, err := s.feedbacks.StatsByMerchant(ctx, merchant.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}

	return &domain.SalesReport{
		MerchantID:       merchant.ID,
		PeriodStart:      period.Start,
		PeriodEnd:        period.End,
		Revenue:          totals.Revenue,
		OrderCount:       totals.Count,
		AverageTicket:    AverageTicket(totals.Revenue, totals.Count),
		AnnualRevenue:    annual.Revenue,
		AnnualOrderCount: annual.Count,
		AverageRating:    ratings.AverageRating,
		TotalRatings:     ratings.TotalRatings,
		ByStatus:         byStatus(grouped),
	}, nil
}

// byStatus lists every order status in lifecycle order, with zero figures
// for statuses absent from grouped.
func byStatus(grouped []domain.StatusTotals) []domain.StatusTotals {
	index := make(map[domain.OrderStatus]domain.StatusTotals, len(grouped))
	for _, totals := range grouped {
		index[totals.Status] = totals
	}
	breakdown := make([]domain.StatusTotals, 0, len(domain.OrderStatuses))
	for _, status := range domain.OrderStatuses {
		totals, ok := index[status]
		if !ok {
			totals = domain.StatusTotals{Status: status, Revenue: decimal.Zero}
		}
		breakdown = append(breakdown, totals)
	}
	return breakdown
}

// Dashboard compares the month containing now with the previous month.
func (s *reportService) Dashboard(ctx context.Context, identity domain.Identity, now time.Time) (*domain.Dashboard, error) {
	merchant, err := merchantFor(ctx, s.merchants, identity)
	if err != nil {
		return nil, err
	}

	current := timeutil.CurrentMonth(now)
	previous := timeutil.PreviousMonth(now)
	year, _ := timeutil.YearRange(current.Start.Year())

	month, err := s.orders.MerchantTotals(ctx, merchant.ID, current.Start, current.End)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate current month: %w", err)
	}
	last, err := s.orders.MerchantTotals(ctx, merchant.ID, previous.Start, previous.End)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate previous month: %w", err)
	}
	annual, err := s.orders.MerchantTotals(ctx, merchant.ID, year.Start, year.End)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate year: %w", err)
	}

	products, err := s.products.Stats(ctx, merchant.ID, s.lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to load product stats: %w", err)
	}
	ratings, err := s.feedbacks.StatsByMerchant(ctx, merchant.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}

	return &domain.Dashboard{
		MonthRevenue:         month.Revenue,
		MonthOrders:          month.Count,
		PreviousMonthRevenue: last.Revenue,
		PreviousMonthOrders:  last.Count,
		RevenueVariation:     PercentChange(month.Revenue, last.Revenue),
		OrdersVariation:      PercentChange(decimal.NewFromInt(month.Count), decimal.NewFromInt(last.Count)),
		AverageTicket:        AverageTicket(month.Revenue, month.Count),
		YearRevenue:          annual.Revenue,
		YearOrders:           annual.Count,
		Products:             products,
		AverageRating:        ratings.AverageRating,
		TotalRatings:         ratings.TotalRatings,
	}, nil
}

// AverageTicket is revenue divided by count, rounded half-up to cents. Zero
// orders yield zero.
func AverageTicket(revenue decimal.Decimal, count int64) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return revenue.DivRound(decimal.NewFromInt(count), 2)
}

// PercentChange returns (current-previous)/previous as a percentage, with the
// ratio rounded to 4 places. A zero previous value yields 100 when current is
// positive and 0 otherwise.
func PercentChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return current.Sub(previous).DivRound(previous, 4).Mul(hundred)
}
