package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"salepoint/backend/internal/domain"
)

// Granularity selects the fixed calendar range a bucket sequence covers.
type Granularity string

const (
	GranularityHour    Granularity = "hour"
	GranularityDay     Granularity = "day"
	GranularityWeekday Granularity = "weekday"
	GranularityMonth   Granularity = "month"
)

func ParseGranularity(raw string) (Granularity, error) {
	switch Granularity(raw) {
	case GranularityHour, GranularityDay, GranularityWeekday, GranularityMonth:
		return Granularity(raw), nil
	default:
		return "", fmt.Errorf("unknown granularity %q", raw)
	}
}

// weekday labels are Monday-first regardless of time.Weekday's Sunday-0
// numbering.
var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// categoryPalette cycles when there are more categories than colors.
var categoryPalette = [5]string{"#10B981", "#3B82F6", "#F59E0B", "#EF4444", "#8B5CF6"}

const fallbackCategory = "Others"

// countable reports whether an order participates in aggregates. Cancelled
// orders are excluded everywhere.
func countable(order domain.Order) bool {
	return order.Status != domain.OrderStatusCancelled
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Year(), a.Month(), a.Day()
	by, bm, bd := b.Year(), b.Month(), b.Day()
	return ay == by && am == bm && ad == bd
}

func avgTicket(revenue int64, sales int) int64 {
	if sales == 0 {
		return 0
	}
	return int64(math.Round(float64(revenue) / float64(sales)))
}

// Buckets dispatches to the granularity-specific bucketizer. ref pins the
// calendar reference ("today"); its location decides calendar-date equality.
func Buckets(orders []domain.Order, granularity Granularity, ref time.Time) []domain.TimeBucket {
	switch granularity {
	case GranularityDay:
		return DailyBuckets(orders, ref)
	case GranularityWeekday:
		return WeekdayBuckets(orders, ref)
	case GranularityMonth:
		return MonthlyBuckets(orders, ref)
	default:
		return HourlyBuckets(orders, ref)
	}
}

// HourlyBuckets produces 24 buckets ("0h".."23h") scoped to orders created on
// ref's calendar date. Buckets with no orders report zeroes, never an error.
func HourlyBuckets(orders []domain.Order, ref time.Time) []domain.TimeBucket {
	buckets := make([]domain.TimeBucket, 24)
	for hour := range buckets {
		buckets[hour].Label = HourLabel(hour)
	}

	for _, order := range orders {
		if !countable(order) {
			continue
		}
		created := order.CreatedAt.In(ref.Location())
		if !sameDay(created, ref) {
			continue
		}
		hour := created.Hour()
		buckets[hour].RevenueCents += order.TotalCents
		buckets[hour].Sales++
	}

	for i := range buckets {
		buckets[i].AvgTicketCents = avgTicket(buckets[i].RevenueCents, buckets[i].Sales)
	}
	return buckets
}

// DailyBuckets produces 30 buckets for the calendar days ending at ref,
// oldest first. The customer count is the number of distinct customer ids
// seen that day; anonymous orders do not count as one shared customer.
func DailyBuckets(orders []domain.Order, ref time.Time) []domain.TimeBucket {
	loc := ref.Location()
	type dayKey struct {
		year  int
		month time.Month
		day   int
	}

	// Calendar arithmetic, not elapsed hours: a DST day is 23 or 25 hours
	// long and would skew a duration-based offset.
	buckets := make([]domain.TimeBucket, 30)
	customerSets := make([]map[string]struct{}, 30)
	index := make(map[dayKey]int, 30)
	for i := range buckets {
		day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, i-29)
		buckets[i].Label = strconv.Itoa(day.Day())
		customerSets[i] = make(map[string]struct{})
		index[dayKey{day.Year(), day.Month(), day.Day()}] = i
	}

	for _, order := range orders {
		if !countable(order) {
			continue
		}
		created := order.CreatedAt.In(loc)
		i, ok := index[dayKey{created.Year(), created.Month(), created.Day()}]
		if !ok {
			continue
		}
		buckets[i].RevenueCents += order.TotalCents
		buckets[i].Sales++
		if order.CustomerID != "" {
			customerSets[i][order.CustomerID] = struct{}{}
		}
	}

	for i := range buckets {
		buckets[i].Customers = len(customerSets[i])
	}
	return buckets
}

// WeekdayBuckets aggregates across all historical weeks: an order created on
// any Wednesday lands in "Wed" no matter which week or month it falls in.
// ref supplies the time zone the weekday is read in.
func WeekdayBuckets(orders []domain.Order, ref time.Time) []domain.TimeBucket {
	buckets := make([]domain.TimeBucket, 7)
	customerSets := make([]map[string]struct{}, 7)
	for i := range buckets {
		buckets[i].Label = weekdayLabels[i]
		customerSets[i] = make(map[string]struct{})
	}

	for _, order := range orders {
		if !countable(order) {
			continue
		}
		// time.Weekday counts Sunday as 0; shift to the Monday-first sequence.
		idx := (int(order.CreatedAt.In(ref.Location()).Weekday()) + 6) % 7
		buckets[idx].RevenueCents += order.TotalCents
		buckets[idx].Sales++
		if order.CustomerID != "" {
			customerSets[idx][order.CustomerID] = struct{}{}
		}
	}

	for i := range buckets {
		buckets[i].Customers = len(customerSets[i])
	}
	return buckets
}

// MonthlyBuckets produces 12 buckets for the calendar months ending with
// ref's month, oldest first. Orders match on month AND year so the same month
// of a prior year is never conflated.
func MonthlyBuckets(orders []domain.Order, ref time.Time) []domain.TimeBucket {
	loc := ref.Location()
	type monthKey struct {
		year  int
		month time.Month
	}

	buckets := make([]domain.TimeBucket, 12)
	customerSets := make([]map[string]struct{}, 12)
	index := make(map[monthKey]int, 12)
	for i := range buckets {
		m := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, i-11, 0)
		buckets[i].Label = m.Month().String()[:3]
		customerSets[i] = make(map[string]struct{})
		index[monthKey{m.Year(), m.Month()}] = i
	}

	for _, order := range orders {
		if !countable(order) {
			continue
		}
		created := order.CreatedAt.In(loc)
		i, ok := index[monthKey{created.Year(), created.Month()}]
		if !ok {
			continue
		}
		buckets[i].RevenueCents += order.TotalCents
		buckets[i].Sales++
		if order.CustomerID != "" {
			customerSets[i][order.CustomerID] = struct{}{}
		}
	}

	for i := range buckets {
		buckets[i].Customers = len(customerSets[i])
	}
	return buckets
}

// CategoryShares joins order lines to product categories and computes each
// category's rounded percentage of total sale value. Line values use the
// captured unit price, never the product's current price. Zero line items
// yield an empty slice so callers render a no-data state instead of a
// divide-by-zero artifact.
func CategoryShares(orders []domain.Order, products []domain.Product) []domain.CategoryShare {
	categoryByID := make(map[string]string, len(products))
	for _, p := range products {
		categoryByID[p.ID] = p.Category
	}

	totals := make(map[string]int64)
	grandTotal := int64(0)
	for _, order := range orders {
		if !countable(order) {
			continue
		}
		for _, line := range order.Items {
			category, ok := categoryByID[line.ProductID]
			if !ok || category == "" {
				category = fallbackCategory
			}
			value := line.UnitPriceCents * int64(line.Qty)
			totals[category] += value
			grandTotal += value
		}
	}

	if grandTotal == 0 {
		return []domain.CategoryShare{}
	}

	shares := make([]domain.CategoryShare, 0, len(totals))
	for name, total := range totals {
		percent := int(math.Round(float64(total) / float64(grandTotal) * 100))
		shares = append(shares, domain.CategoryShare{Name: name, Percent: percent})
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Percent == shares[j].Percent {
			return shares[i].Name < shares[j].Name
		}
		return shares[i].Percent > shares[j].Percent
	})

	for i := range shares {
		shares[i].Color = categoryPalette[i%len(categoryPalette)]
	}
	return shares
}

// Summarize derives the same-day KPI snapshot. Profits and conversion rate
// require cost and traffic data this system does not hold, so they stay zero
// placeholders rather than fabricated figures.
func Summarize(orders []domain.Order, customers []domain.Customer, ref time.Time) domain.Summary {
	summary := domain.Summary{RegisteredCustomers: len(customers)}

	hourRevenue := make(map[int]int64)
	for _, order := range orders {
		if !countable(order) {
			continue
		}
		created := order.CreatedAt.In(ref.Location())
		if !sameDay(created, ref) {
			continue
		}
		summary.RevenueCents += order.TotalCents
		summary.Sales++
		hourRevenue[created.Hour()] += order.TotalCents
	}
	summary.AvgTicketCents = avgTicket(summary.RevenueCents, summary.Sales)

	if len(hourRevenue) > 0 {
		bestHour, worstHour := -1, -1
		var bestRevenue, worstRevenue int64
		for hour, revenue := range hourRevenue {
			if bestHour == -1 || revenue > bestRevenue || (revenue == bestRevenue && hour < bestHour) {
				bestHour, bestRevenue = hour, revenue
			}
			if worstHour == -1 || revenue < worstRevenue || (revenue == worstRevenue && hour < worstHour) {
				worstHour, worstRevenue = hour, revenue
			}
		}
		best := HourLabel(bestHour)
		worst := HourLabel(worstHour)
		summary.BestHour = &best
		summary.WorstHour = &worst
	}

	return summary
}

func HourLabel(hour int) string {
	return strconv.Itoa(hour) + "h"
}
