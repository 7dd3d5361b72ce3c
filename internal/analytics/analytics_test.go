package analytics

import (
	"testing"
	"time"

	"salepoint/backend/internal/domain"
)

func orderAt(at time.Time, totalCents int64) domain.Order {
	return domain.Order{
		ID:         "ord-" + at.Format("20060102150405.000000000"),
		TotalCents: totalCents,
		Status:     domain.OrderStatusCompleted,
		CreatedAt:  at,
	}
}

func TestParseGranularity(t *testing.T) {
	for _, raw := range []string{"hour", "day", "weekday", "month"} {
		if _, err := ParseGranularity(raw); err != nil {
			t.Fatalf("expected %q to parse, got %v", raw, err)
		}
	}
	if _, err := ParseGranularity("decade"); err == nil {
		t.Fatalf("expected unknown granularity to be rejected")
	}
}

func TestHourlyBucketsGroupByHourOfDay(t *testing.T) {
	ref := time.Date(2026, time.March, 10, 18, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		orderAt(time.Date(2026, time.March, 10, 14, 5, 0, 0, time.UTC), 100),
		orderAt(time.Date(2026, time.March, 10, 14, 40, 0, 0, time.UTC), 50),
		orderAt(time.Date(2026, time.March, 10, 9, 15, 0, 0, time.UTC), 200),
	}

	buckets := HourlyBuckets(orders, ref)
	if len(buckets) != 24 {
		t.Fatalf("expected 24 hourly buckets, got %d", len(buckets))
	}
	if buckets[0].Label != "0h" || buckets[23].Label != "23h" {
		t.Fatalf("unexpected hour labels %q..%q", buckets[0].Label, buckets[23].Label)
	}

	fourteen := buckets[14]
	if fourteen.RevenueCents != 150 || fourteen.Sales != 2 || fourteen.AvgTicketCents != 75 {
		t.Fatalf("unexpected 14h bucket: %+v", fourteen)
	}
	nine := buckets[9]
	if nine.RevenueCents != 200 || nine.Sales != 1 || nine.AvgTicketCents != 200 {
		t.Fatalf("unexpected 9h bucket: %+v", nine)
	}
	if buckets[3].RevenueCents != 0 || buckets[3].Sales != 0 || buckets[3].AvgTicketCents != 0 {
		t.Fatalf("expected empty 3h bucket to stay zero, got %+v", buckets[3])
	}
}

func TestHourlyBucketsScopedToReferenceDay(t *testing.T) {
	ref := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		orderAt(time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC), 500),
		orderAt(time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC), 900),
		orderAt(time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC), 700),
	}

	buckets := HourlyBuckets(orders, ref)
	var revenue int64
	for _, b := range buckets {
		revenue += b.RevenueCents
	}
	if revenue != 500 {
		t.Fatalf("expected only same-day revenue 500, got %d", revenue)
	}
}

func TestHourlyBucketsExcludeCancelledOrders(t *testing.T) {
	ref := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	cancelled := orderAt(time.Date(2026, time.March, 10, 11, 0, 0, 0, time.UTC), 1000)
	cancelled.Status = domain.OrderStatusCancelled
	orders := []domain.Order{
		orderAt(time.Date(2026, time.March, 10, 11, 30, 0, 0, time.UTC), 300),
		cancelled,
	}

	buckets := HourlyBuckets(orders, ref)
	if buckets[11].RevenueCents != 300 || buckets[11].Sales != 1 {
		t.Fatalf("expected cancelled order to be ignored, got %+v", buckets[11])
	}
}

func TestDailyBucketsOldestFirstWithDistinctCustomers(t *testing.T) {
	ref := time.Date(2026, time.March, 30, 16, 0, 0, 0, time.UTC)

	repeat := orderAt(time.Date(2026, time.March, 30, 9, 0, 0, 0, time.UTC), 100)
	repeat.CustomerID = "cust-a"
	repeatAgain := orderAt(time.Date(2026, time.March, 30, 13, 0, 0, 0, time.UTC), 200)
	repeatAgain.CustomerID = "cust-a"
	other := orderAt(time.Date(2026, time.March, 30, 14, 0, 0, 0, time.UTC), 300)
	other.CustomerID = "cust-b"
	anonymous := orderAt(time.Date(2026, time.March, 30, 15, 0, 0, 0, time.UTC), 400)
	oldest := orderAt(time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC), 50)
	tooOld := orderAt(time.Date(2026, time.February, 27, 8, 0, 0, 0, time.UTC), 9000)

	buckets := DailyBuckets([]domain.Order{repeat, repeatAgain, other, anonymous, oldest, tooOld}, ref)
	if len(buckets) != 30 {
		t.Fatalf("expected 30 daily buckets, got %d", len(buckets))
	}
	if buckets[0].Label != "1" || buckets[29].Label != "30" {
		t.Fatalf("expected oldest-first day labels, got %q..%q", buckets[0].Label, buckets[29].Label)
	}
	if buckets[0].RevenueCents != 50 {
		t.Fatalf("expected oldest window day to carry 50, got %d", buckets[0].RevenueCents)
	}

	today := buckets[29]
	if today.RevenueCents != 1000 || today.Sales != 4 {
		t.Fatalf("unexpected reference-day bucket: %+v", today)
	}
	if today.Customers != 2 {
		t.Fatalf("expected 2 distinct customers, anonymous excluded, got %d", today.Customers)
	}

	var revenue int64
	for _, b := range buckets {
		revenue += b.RevenueCents
	}
	if revenue != 1050 {
		t.Fatalf("expected orders outside the 30-day window to be dropped, got %d", revenue)
	}
}

func TestWeekdayBucketsAccumulateAcrossWeeks(t *testing.T) {
	// 2026-03-04 and 2026-03-11 are both Wednesdays.
	orders := []domain.Order{
		orderAt(time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC), 100),
		orderAt(time.Date(2026, time.March, 11, 10, 0, 0, 0, time.UTC), 200),
		orderAt(time.Date(2026, time.March, 8, 10, 0, 0, 0, time.UTC), 40), // Sunday
	}

	buckets := WeekdayBuckets(orders, time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC))
	if len(buckets) != 7 {
		t.Fatalf("expected 7 weekday buckets, got %d", len(buckets))
	}
	if buckets[0].Label != "Mon" || buckets[6].Label != "Sun" {
		t.Fatalf("expected Monday-first labels, got %q..%q", buckets[0].Label, buckets[6].Label)
	}
	if buckets[2].RevenueCents != 300 || buckets[2].Sales != 2 {
		t.Fatalf("expected both Wednesdays in one bucket, got %+v", buckets[2])
	}
	if buckets[6].RevenueCents != 40 {
		t.Fatalf("expected Sunday order in the last bucket, got %+v", buckets[6])
	}
}

func TestDailyBucketsSpanDSTTransition(t *testing.T) {
	// US DST began 2026-03-08; March 8 was a 23-hour day in New York.
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	ref := time.Date(2026, time.March, 20, 16, 0, 0, 0, loc)
	orders := []domain.Order{
		orderAt(time.Date(2026, time.March, 15, 12, 0, 0, 0, loc), 500),
	}

	buckets := DailyBuckets(orders, ref)
	target := buckets[24] // five days before the reference day
	if target.Label != "15" {
		t.Fatalf("expected label 15 at offset 24, got %q", target.Label)
	}
	if target.RevenueCents != 500 || target.Sales != 1 {
		t.Fatalf("expected order on its calendar day, got %+v", target)
	}
	for i, b := range buckets {
		if i != 24 && b.RevenueCents != 0 {
			t.Fatalf("revenue leaked into bucket %d (%q): %+v", i, b.Label, b)
		}
	}
}

func TestWeekdayBucketsUseReferenceZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 03:00 UTC on Wednesday 2026-03-18 is still Tuesday 23:00 in New York.
	orders := []domain.Order{
		orderAt(time.Date(2026, time.March, 18, 3, 0, 0, 0, time.UTC), 100),
	}

	buckets := WeekdayBuckets(orders, time.Date(2026, time.March, 20, 0, 0, 0, 0, loc))
	if buckets[1].RevenueCents != 100 || buckets[1].Sales != 1 {
		t.Fatalf("expected order in Tue bucket, got %+v", buckets[1])
	}
	if buckets[2].RevenueCents != 0 {
		t.Fatalf("expected empty Wed bucket, got %+v", buckets[2])
	}
}

func TestMonthlyBucketsDoNotConflateYears(t *testing.T) {
	ref := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		orderAt(time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC), 500),
		orderAt(time.Date(2025, time.March, 2, 10, 0, 0, 0, time.UTC), 9000),
		orderAt(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC), 120),
	}

	buckets := MonthlyBuckets(orders, ref)
	if len(buckets) != 12 {
		t.Fatalf("expected 12 monthly buckets, got %d", len(buckets))
	}
	if buckets[0].Label != "Apr" || buckets[11].Label != "Mar" {
		t.Fatalf("unexpected month labels %q..%q", buckets[0].Label, buckets[11].Label)
	}

	current := buckets[11]
	if current.RevenueCents != 500 || current.Sales != 1 {
		t.Fatalf("expected March 2025 to stay out of March 2026, got %+v", current)
	}
	if buckets[2].RevenueCents != 120 {
		t.Fatalf("expected June 2025 inside the window, got %+v", buckets[2])
	}
}

func TestCategorySharesRoundAndSort(t *testing.T) {
	products := []domain.Product{
		{ID: "p-tv", Category: "Electronics"},
		{ID: "p-bread", Category: "Food"},
	}
	orders := []domain.Order{
		{
			Status:    domain.OrderStatusCompleted,
			CreatedAt: time.Now(),
			Items: []domain.OrderLine{
				{ProductID: "p-tv", Qty: 1, UnitPriceCents: 800},
				{ProductID: "p-bread", Qty: 2, UnitPriceCents: 100},
			},
		},
	}

	shares := CategoryShares(orders, products)
	if len(shares) != 2 {
		t.Fatalf("expected 2 category shares, got %d", len(shares))
	}
	if shares[0].Name != "Electronics" || shares[0].Percent != 80 {
		t.Fatalf("unexpected leading share: %+v", shares[0])
	}
	if shares[1].Name != "Food" || shares[1].Percent != 20 {
		t.Fatalf("unexpected trailing share: %+v", shares[1])
	}
	if shares[0].Color != "#10B981" || shares[1].Color != "#3B82F6" {
		t.Fatalf("expected palette colors by rank, got %q and %q", shares[0].Color, shares[1].Color)
	}
}

func TestCategorySharesFallBackForUnknownProducts(t *testing.T) {
	orders := []domain.Order{
		{
			Status:    domain.OrderStatusCompleted,
			CreatedAt: time.Now(),
			Items: []domain.OrderLine{
				{ProductID: "p-deleted", Qty: 1, UnitPriceCents: 300},
			},
		},
	}

	shares := CategoryShares(orders, nil)
	if len(shares) != 1 || shares[0].Name != "Others" || shares[0].Percent != 100 {
		t.Fatalf("expected unknown product to land in Others, got %+v", shares)
	}
}

func TestCategorySharesEmptyWithoutSales(t *testing.T) {
	shares := CategoryShares(nil, nil)
	if shares == nil || len(shares) != 0 {
		t.Fatalf("expected empty slice for no sales, got %#v", shares)
	}

	cancelled := domain.Order{
		Status: domain.OrderStatusCancelled,
		Items:  []domain.OrderLine{{ProductID: "p", Qty: 1, UnitPriceCents: 100}},
	}
	shares = CategoryShares([]domain.Order{cancelled}, nil)
	if len(shares) != 0 {
		t.Fatalf("expected cancelled-only history to produce no shares, got %+v", shares)
	}
}

func TestSummarizePicksBestAndWorstHours(t *testing.T) {
	ref := time.Date(2026, time.March, 10, 20, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		orderAt(time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC), 100),
		orderAt(time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC), 50),
		orderAt(time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC), 200),
		orderAt(time.Date(2026, time.March, 10, 11, 0, 0, 0, time.UTC), 40),
	}
	customers := []domain.Customer{{ID: "c1"}, {ID: "c2"}}

	summary := Summarize(orders, customers, ref)
	if summary.RevenueCents != 390 || summary.Sales != 4 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
	if summary.AvgTicketCents != 98 {
		t.Fatalf("expected rounded avg ticket 98, got %d", summary.AvgTicketCents)
	}
	if summary.RegisteredCustomers != 2 {
		t.Fatalf("expected 2 registered customers, got %d", summary.RegisteredCustomers)
	}
	if summary.BestHour == nil || *summary.BestHour != "9h" {
		t.Fatalf("expected best hour 9h, got %v", summary.BestHour)
	}
	if summary.WorstHour == nil || *summary.WorstHour != "11h" {
		t.Fatalf("expected worst hour 11h, got %v", summary.WorstHour)
	}
	if summary.ProfitsCents != 0 || summary.ConversionRate != 0 {
		t.Fatalf("expected zero placeholders for profits and conversion, got %+v", summary)
	}
}

func TestSummarizeBestHourTieBreaksOnEarlierHour(t *testing.T) {
	ref := time.Date(2026, time.March, 10, 20, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		orderAt(time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC), 150),
		orderAt(time.Date(2026, time.March, 10, 17, 0, 0, 0, time.UTC), 150),
	}

	summary := Summarize(orders, nil, ref)
	if summary.BestHour == nil || *summary.BestHour != "8h" {
		t.Fatalf("expected tie to resolve to the earlier hour, got %v", summary.BestHour)
	}
	if summary.WorstHour == nil || *summary.WorstHour != "8h" {
		t.Fatalf("expected worst hour tie to resolve to 8h too, got %v", summary.WorstHour)
	}
}

func TestSummarizeWithoutSalesToday(t *testing.T) {
	ref := time.Date(2026, time.March, 10, 20, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		orderAt(time.Date(2026, time.March, 9, 14, 0, 0, 0, time.UTC), 500),
	}

	summary := Summarize(orders, nil, ref)
	if summary.RevenueCents != 0 || summary.Sales != 0 || summary.AvgTicketCents != 0 {
		t.Fatalf("expected zero totals, got %+v", summary)
	}
	if summary.BestHour != nil || summary.WorstHour != nil {
		t.Fatalf("expected nil best and worst hours without sales, got %v / %v", summary.BestHour, summary.WorstHour)
	}
}

func TestBucketsDispatchesOnGranularity(t *testing.T) {
	ref := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		granularity Granularity
		want        int
	}{
		{GranularityHour, 24},
		{GranularityDay, 30},
		{GranularityWeekday, 7},
		{GranularityMonth, 12},
	}
	for _, tc := range cases {
		got := Buckets(nil, tc.granularity, ref)
		if len(got) != tc.want {
			t.Fatalf("granularity %q: expected %d buckets, got %d", tc.granularity, tc.want, len(got))
		}
	}
}
