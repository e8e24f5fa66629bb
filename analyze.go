package main

import (
	"fmt"
	"sort"
	"time"
)

// AggregationError reports a table that cannot produce a meaningful report
// section. The whole run aborts; no partial report is emitted.
type AggregationError struct {
	Section string
	Reason  string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate %s: %s", e.Section, e.Reason)
}

type BasicStats struct {
	TotalRevenue      float64   `json:"total_revenue"`
	AvgTransaction    float64   `json:"avg_transaction_value"`
	MedianTransaction float64   `json:"median_transaction_value"`
	TotalUnits        int       `json:"total_units"`
	Transactions      int       `json:"transactions"`
	UniqueCustomers   int       `json:"unique_customers"`
	AvgDiscount       float64   `json:"avg_discount_percent"`
	FirstDate         time.Time `json:"first_date"`
	LastDate          time.Time `json:"last_date"`
}

type ProductStats struct {
	Product      string  `json:"product"`
	Revenue      float64 `json:"revenue"`
	AvgBasePrice float64 `json:"avg_base_price"`
	Transactions int     `json:"transactions"`
	Units        int     `json:"units"`
	AvgDiscount  float64 `json:"avg_discount_percent"`
}

type RegionStats struct {
	Region         string  `json:"region"`
	Revenue        float64 `json:"revenue"`
	Transactions   int     `json:"transactions"`
	AvgTransaction float64 `json:"avg_transaction_value"`
}

type PeriodRevenue struct {
	Period       string  `json:"period"`
	Revenue      float64 `json:"revenue"`
	Transactions int     `json:"transactions"`
}

type TemporalStats struct {
	Monthly     []PeriodRevenue `json:"monthly"`
	Quarterly   []PeriodRevenue `json:"quarterly"`
	PeakMonth   string          `json:"peak_month"`
	SlowMonth   string          `json:"slow_month"`
	PeakQuarter string          `json:"peak_quarter"`
}

type CategoryStats struct {
	Category     string  `json:"category"`
	Revenue      float64 `json:"revenue"`
	Share        float64 `json:"revenue_share_percent"`
	Transactions int     `json:"transactions"`
}

type DiscountPartition struct {
	Label          string  `json:"label"`
	Transactions   int     `json:"transactions"`
	Revenue        float64 `json:"revenue"`
	AvgTransaction float64 `json:"avg_transaction_value"`
}

type DiscountLevel struct {
	Percent      int     `json:"discount_percent"`
	Revenue      float64 `json:"revenue"`
	Share        float64 `json:"revenue_share_percent"`
	Transactions int     `json:"transactions"`
}

type DiscountStats struct {
	Discounted    DiscountPartition `json:"discounted"`
	NonDiscounted DiscountPartition `json:"non_discounted"`
	AvgDiscount   float64           `json:"avg_discount_percent"`
	Levels        []DiscountLevel   `json:"levels"`
}

type PaymentStats struct {
	Method         string  `json:"method"`
	Transactions   int     `json:"transactions"`
	Revenue        float64 `json:"revenue"`
	AvgTransaction float64 `json:"avg_transaction_value"`
	Share          float64 `json:"transaction_share_percent"`
}

// Report holds all seven sections in their fixed output order.
type Report struct {
	Basic      BasicStats      `json:"basic_statistics"`
	Products   []ProductStats  `json:"product_performance"`
	Regions    []RegionStats   `json:"regional_analysis"`
	Temporal   TemporalStats   `json:"temporal_patterns"`
	Categories []CategoryStats `json:"category_insights"`
	Discounts  DiscountStats   `json:"discount_effectiveness"`
	Payments   []PaymentStats  `json:"payment_method_trends"`
}

// analyze runs every aggregation over the loaded table. Each aggregation is
// pure and independent of the others; the table itself is never mutated.
func analyze(rows []Transaction) (Report, error) {
	var rep Report
	var err error
	if rep.Basic, err = basicStatistics(rows); err != nil {
		return Report{}, err
	}
	if rep.Products, err = productPerformance(rows); err != nil {
		return Report{}, err
	}
	if rep.Regions, err = regionalAnalysis(rows); err != nil {
		return Report{}, err
	}
	if rep.Temporal, err = temporalPatterns(rows); err != nil {
		return Report{}, err
	}
	if rep.Categories, err = categoryInsights(rows); err != nil {
		return Report{}, err
	}
	if rep.Discounts, err = discountEffectiveness(rows); err != nil {
		return Report{}, err
	}
	if rep.Payments, err = paymentMethodTrends(rows); err != nil {
		return Report{}, err
	}
	return rep, nil
}

func emptyTableError(section string) *AggregationError {
	return &AggregationError{Section: section, Reason: "dataset has no rows"}
}

func basicStatistics(rows []Transaction) (BasicStats, error) {
	if len(rows) == 0 {
		return BasicStats{}, emptyTableError("basic statistics")
	}

	stats := BasicStats{Transactions: len(rows)}
	customers := make(map[string]struct{}, len(rows))
	values := make([]float64, 0, len(rows))
	var discountSum float64

	for i, tx := range rows {
		stats.TotalRevenue += tx.FinalPrice
		stats.TotalUnits += tx.Quantity
		discountSum += float64(tx.DiscountPercent)
		customers[tx.CustomerID] = struct{}{}
		values = append(values, tx.FinalPrice)
		if i == 0 || tx.Date.Before(stats.FirstDate) {
			stats.FirstDate = tx.Date
		}
		if i == 0 || tx.Date.After(stats.LastDate) {
			stats.LastDate = tx.Date
		}
	}

	stats.AvgTransaction = stats.TotalRevenue / float64(len(rows))
	stats.MedianTransaction = median(values)
	stats.UniqueCustomers = len(customers)
	stats.AvgDiscount = discountSum / float64(len(rows))
	return stats, nil
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func productPerformance(rows []Transaction) ([]ProductStats, error) {
	if len(rows) == 0 {
		return nil, emptyTableError("product performance")
	}

	buckets, order := bucketRows(rows, knownProducts, func(tx Transaction) string { return tx.Product })
	stats := make([]ProductStats, 0, len(order))
	for _, name := range order {
		group := buckets[name]
		entry := ProductStats{Product: name, Transactions: len(group)}
		var baseSum, discountSum float64
		for _, tx := range group {
			entry.Revenue += tx.FinalPrice
			entry.Units += tx.Quantity
			baseSum += float64(tx.BasePrice)
			discountSum += float64(tx.DiscountPercent)
		}
		if len(group) > 0 {
			entry.AvgBasePrice = baseSum / float64(len(group))
			entry.AvgDiscount = discountSum / float64(len(group))
		}
		stats = append(stats, entry)
	}
	sortByRevenue(stats, func(s ProductStats) (float64, string) { return s.Revenue, s.Product })
	return stats, nil
}

func regionalAnalysis(rows []Transaction) ([]RegionStats, error) {
	if len(rows) == 0 {
		return nil, emptyTableError("regional analysis")
	}

	buckets, order := bucketRows(rows, knownRegions, func(tx Transaction) string { return tx.Region })
	stats := make([]RegionStats, 0, len(order))
	for _, name := range order {
		group := buckets[name]
		entry := RegionStats{Region: name, Transactions: len(group)}
		for _, tx := range group {
			entry.Revenue += tx.FinalPrice
		}
		if len(group) > 0 {
			entry.AvgTransaction = entry.Revenue / float64(len(group))
		}
		stats = append(stats, entry)
	}
	sortByRevenue(stats, func(s RegionStats) (float64, string) { return s.Revenue, s.Region })
	return stats, nil
}

func temporalPatterns(rows []Transaction) (TemporalStats, error) {
	if len(rows) == 0 {
		return TemporalStats{}, emptyTableError("temporal patterns")
	}

	monthly := make([]PeriodRevenue, 12)
	for m := range monthly {
		monthly[m].Period = time.Month(m + 1).String()
	}
	quarterly := make([]PeriodRevenue, 4)
	for q := range quarterly {
		quarterly[q].Period = fmt.Sprintf("Q%d", q+1)
	}

	for _, tx := range rows {
		m := int(tx.Date.Month()) - 1
		monthly[m].Revenue += tx.FinalPrice
		monthly[m].Transactions++
		quarterly[m/3].Revenue += tx.FinalPrice
		quarterly[m/3].Transactions++
	}

	stats := TemporalStats{Monthly: monthly, Quarterly: quarterly}
	stats.PeakMonth = peakPeriod(monthly)
	stats.PeakQuarter = peakPeriod(quarterly)
	stats.SlowMonth = slowestActivePeriod(monthly)
	return stats, nil
}

// peakPeriod returns the period with the highest revenue; ties go to the
// earliest period.
func peakPeriod(periods []PeriodRevenue) string {
	best := 0
	for i := 1; i < len(periods); i++ {
		if periods[i].Revenue > periods[best].Revenue {
			best = i
		}
	}
	return periods[best].Period
}

// slowestActivePeriod returns the lowest-revenue period among periods that
// saw at least one transaction; ties go to the earliest period.
func slowestActivePeriod(periods []PeriodRevenue) string {
	worst := -1
	for i, period := range periods {
		if period.Transactions == 0 {
			continue
		}
		if worst < 0 || period.Revenue < periods[worst].Revenue {
			worst = i
		}
	}
	if worst < 0 {
		return ""
	}
	return periods[worst].Period
}

func categoryInsights(rows []Transaction) ([]CategoryStats, error) {
	if len(rows) == 0 {
		return nil, emptyTableError("category insights")
	}

	grand := grandTotal(rows)
	buckets, order := bucketRows(rows, knownCategories, func(tx Transaction) string { return tx.Category })
	stats := make([]CategoryStats, 0, len(order))
	for _, name := range order {
		group := buckets[name]
		entry := CategoryStats{Category: name, Transactions: len(group)}
		for _, tx := range group {
			entry.Revenue += tx.FinalPrice
		}
		if grand > 0 {
			entry.Share = entry.Revenue / grand * 100
		}
		stats = append(stats, entry)
	}
	sortByRevenue(stats, func(s CategoryStats) (float64, string) { return s.Revenue, s.Category })
	return stats, nil
}

func discountEffectiveness(rows []Transaction) (DiscountStats, error) {
	if len(rows) == 0 {
		return DiscountStats{}, emptyTableError("discount effectiveness")
	}

	stats := DiscountStats{
		Discounted:    DiscountPartition{Label: "Discounted"},
		NonDiscounted: DiscountPartition{Label: "No Discount"},
	}
	grand := grandTotal(rows)
	levels := make(map[int]*DiscountLevel)
	var discountSum float64

	for _, tx := range rows {
		part := &stats.NonDiscounted
		if tx.DiscountPercent > 0 {
			part = &stats.Discounted
		}
		part.Transactions++
		part.Revenue += tx.FinalPrice
		discountSum += float64(tx.DiscountPercent)

		level, ok := levels[tx.DiscountPercent]
		if !ok {
			level = &DiscountLevel{Percent: tx.DiscountPercent}
			levels[tx.DiscountPercent] = level
		}
		level.Transactions++
		level.Revenue += tx.FinalPrice
	}

	if stats.Discounted.Transactions > 0 {
		stats.Discounted.AvgTransaction = stats.Discounted.Revenue / float64(stats.Discounted.Transactions)
	}
	if stats.NonDiscounted.Transactions > 0 {
		stats.NonDiscounted.AvgTransaction = stats.NonDiscounted.Revenue / float64(stats.NonDiscounted.Transactions)
	}
	stats.AvgDiscount = discountSum / float64(len(rows))

	percents := make([]int, 0, len(levels))
	for percent := range levels {
		percents = append(percents, percent)
	}
	sort.Ints(percents)
	for _, percent := range percents {
		level := *levels[percent]
		if grand > 0 {
			level.Share = level.Revenue / grand * 100
		}
		stats.Levels = append(stats.Levels, level)
	}

	return stats, nil
}

func paymentMethodTrends(rows []Transaction) ([]PaymentStats, error) {
	if len(rows) == 0 {
		return nil, emptyTableError("payment method trends")
	}

	buckets, order := bucketRows(rows, knownPaymentMethods, func(tx Transaction) string { return tx.PaymentMethod })
	stats := make([]PaymentStats, 0, len(order))
	for _, name := range order {
		group := buckets[name]
		entry := PaymentStats{Method: name, Transactions: len(group)}
		for _, tx := range group {
			entry.Revenue += tx.FinalPrice
		}
		if len(group) > 0 {
			entry.AvgTransaction = entry.Revenue / float64(len(group))
		}
		entry.Share = float64(len(group)) / float64(len(rows)) * 100
		stats = append(stats, entry)
	}
	sortByRevenue(stats, func(s PaymentStats) (float64, string) { return s.Revenue, s.Method })
	return stats, nil
}

func grandTotal(rows []Transaction) float64 {
	var total float64
	for _, tx := range rows {
		total += tx.FinalPrice
	}
	return total
}

// bucketRows partitions rows over a closed categorical set. Every known
// value gets a bucket even when no row matches it, so empty groups stay
// visible in the report. Values outside the set share one Other bucket,
// appended last.
func bucketRows(rows []Transaction, known []string, key func(Transaction) string) (map[string][]Transaction, []string) {
	buckets := make(map[string][]Transaction, len(known)+1)
	for _, name := range known {
		buckets[name] = nil
	}

	hasOther := false
	for _, tx := range rows {
		k := key(tx)
		if _, ok := buckets[k]; !ok {
			k = otherBucket
			hasOther = true
		}
		buckets[k] = append(buckets[k], tx)
	}

	order := append([]string(nil), known...)
	if hasOther {
		order = append(order, otherBucket)
	}
	return buckets, order
}

// sortByRevenue orders group stats by revenue descending, breaking ties by
// name ascending so equal-revenue groups print deterministically.
func sortByRevenue[T any](stats []T, key func(T) (float64, string)) {
	sort.SliceStable(stats, func(i, j int) bool {
		ri, ni := key(stats[i])
		rj, nj := key(stats[j])
		if ri != rj {
			return ri > rj
		}
		return ni < nj
	})
}
