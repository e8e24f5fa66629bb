package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioRows() []Transaction {
	return []Transaction{
		{
			Date:            time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			Product:         "Laptop",
			Category:        "Electronics",
			Quantity:        2,
			BasePrice:       1000,
			DiscountPercent: 10,
			FinalPrice:      1800.00,
			Region:          "Asia",
			PaymentMethod:   "Credit Card",
			CustomerID:      "C1",
		},
		{
			Date:            time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
			Product:         "Camera",
			Category:        "Electronics",
			Quantity:        1,
			BasePrice:       500,
			DiscountPercent: 0,
			FinalPrice:      500.00,
			Region:          "Europe",
			PaymentMethod:   "PayPal",
			CustomerID:      "C2",
		},
	}
}

// syntheticRows spreads transactions across every closed set and all four
// quarters so partition checks exercise every group.
func syntheticRows() []Transaction {
	rows := make([]Transaction, 0, 48)
	discounts := []int{0, 5, 10, 20}
	for i := 0; i < 48; i++ {
		product := knownProducts[i%len(knownProducts)]
		quantity := 1 + i%3
		basePrice := 100 + 10*i
		discount := discounts[i%len(discounts)]
		rows = append(rows, Transaction{
			Date:            time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i*7),
			Product:         product,
			Category:        productCategory[product],
			Quantity:        quantity,
			BasePrice:       basePrice,
			DiscountPercent: discount,
			FinalPrice:      float64(basePrice*quantity) * (1 - float64(discount)/100),
			Region:          knownRegions[i%len(knownRegions)],
			PaymentMethod:   knownPaymentMethods[i%len(knownPaymentMethods)],
			CustomerID:      fmt.Sprintf("C%d", i%11),
		})
	}
	return rows
}

func TestAnalyzeTwoRowScenario(t *testing.T) {
	rep, err := analyze(scenarioRows())
	require.NoError(t, err)

	assert.InDelta(t, 2300.00, rep.Basic.TotalRevenue, 1e-9)
	assert.InDelta(t, 1150.00, rep.Basic.AvgTransaction, 1e-9)
	assert.InDelta(t, 1150.00, rep.Basic.MedianTransaction, 1e-9)
	assert.Equal(t, 3, rep.Basic.TotalUnits)
	assert.Equal(t, 2, rep.Basic.Transactions)
	assert.Equal(t, 2, rep.Basic.UniqueCustomers)
	assert.InDelta(t, 5.0, rep.Basic.AvgDiscount, 1e-9)

	// Electronics carries all revenue; the other categories stay visible at zero.
	require.Len(t, rep.Categories, len(knownCategories))
	assert.Equal(t, "Electronics", rep.Categories[0].Category)
	assert.InDelta(t, 100.0, rep.Categories[0].Share, 1e-9)
	assert.Equal(t, 2, rep.Categories[0].Transactions)
	for _, entry := range rep.Categories[1:] {
		assert.Zero(t, entry.Revenue)
		assert.Zero(t, entry.Transactions)
	}

	assert.Equal(t, 1, rep.Discounts.Discounted.Transactions)
	assert.InDelta(t, 1800.00, rep.Discounts.Discounted.AvgTransaction, 1e-9)
	assert.Equal(t, 1, rep.Discounts.NonDiscounted.Transactions)
	assert.InDelta(t, 500.00, rep.Discounts.NonDiscounted.AvgTransaction, 1e-9)

	assert.Equal(t, "March", rep.Temporal.PeakMonth)
	assert.Equal(t, "April", rep.Temporal.SlowMonth)
	assert.Equal(t, "Q1", rep.Temporal.PeakQuarter)

	assert.Equal(t, "Laptop", rep.Products[0].Product)
	assert.InDelta(t, 1800.00, rep.Products[0].Revenue, 1e-9)
	assert.Equal(t, "Asia", rep.Regions[0].Region)
	assert.Equal(t, "Credit Card", rep.Payments[0].Method)
	assert.InDelta(t, 50.0, rep.Payments[0].Share, 1e-9)
}

func TestPartitionCompleteness(t *testing.T) {
	rows := syntheticRows()
	rep, err := analyze(rows)
	require.NoError(t, err)

	grand := rep.Basic.TotalRevenue

	var productSum float64
	for _, entry := range rep.Products {
		productSum += entry.Revenue
	}
	assert.InDelta(t, grand, productSum, 1e-6)

	var regionSum float64
	for _, entry := range rep.Regions {
		regionSum += entry.Revenue
	}
	assert.InDelta(t, grand, regionSum, 1e-6)

	var categorySum float64
	for _, entry := range rep.Categories {
		categorySum += entry.Revenue
	}
	assert.InDelta(t, grand, categorySum, 1e-6)

	var paymentSum float64
	var paymentShare float64
	for _, entry := range rep.Payments {
		paymentSum += entry.Revenue
		paymentShare += entry.Share
	}
	assert.InDelta(t, grand, paymentSum, 1e-6)
	assert.InDelta(t, 100.0, paymentShare, 1e-6)

	var monthlySum, quarterlySum float64
	for _, entry := range rep.Temporal.Monthly {
		monthlySum += entry.Revenue
	}
	for _, entry := range rep.Temporal.Quarterly {
		quarterlySum += entry.Revenue
	}
	assert.InDelta(t, grand, monthlySum, 1e-6)
	assert.InDelta(t, grand, quarterlySum, 1e-6)

	partitionSum := rep.Discounts.Discounted.Revenue + rep.Discounts.NonDiscounted.Revenue
	assert.InDelta(t, grand, partitionSum, 1e-6)
}

func TestCategorySharesSumToHundred(t *testing.T) {
	rep, err := analyze(syntheticRows())
	require.NoError(t, err)

	var shareSum float64
	for _, entry := range rep.Categories {
		shareSum += entry.Share
	}
	assert.InDelta(t, 100.0, shareSum, 1e-6)
}

func TestDiscountPartitionsReconstructAverage(t *testing.T) {
	rep, err := analyze(syntheticRows())
	require.NoError(t, err)

	d := rep.Discounts.Discounted
	n := rep.Discounts.NonDiscounted
	total := d.Transactions + n.Transactions
	require.Equal(t, rep.Basic.Transactions, total)

	weighted := (float64(d.Transactions)*d.AvgTransaction + float64(n.Transactions)*n.AvgTransaction) / float64(total)
	assert.InDelta(t, rep.Basic.AvgTransaction, weighted, 1e-6)
}

func TestDiscountLevelsCoverGrandTotal(t *testing.T) {
	rep, err := analyze(syntheticRows())
	require.NoError(t, err)

	var levelSum, shareSum float64
	for _, level := range rep.Discounts.Levels {
		levelSum += level.Revenue
		shareSum += level.Share
	}
	assert.InDelta(t, rep.Basic.TotalRevenue, levelSum, 1e-6)
	assert.InDelta(t, 100.0, shareSum, 1e-6)
}

func TestUniqueCustomersBound(t *testing.T) {
	rep, err := analyze(syntheticRows())
	require.NoError(t, err)
	assert.LessOrEqual(t, rep.Basic.UniqueCustomers, rep.Basic.Transactions)
}

func TestSingleRowBoundary(t *testing.T) {
	rows := scenarioRows()[:1]
	rep, err := analyze(rows)
	require.NoError(t, err)

	assert.InDelta(t, 1800.00, rep.Basic.TotalRevenue, 1e-9)
	assert.InDelta(t, 1800.00, rep.Basic.AvgTransaction, 1e-9)
	assert.InDelta(t, 1800.00, rep.Basic.MedianTransaction, 1e-9)
	assert.Equal(t, 1, rep.Basic.UniqueCustomers)
	assert.InDelta(t, 10.0, rep.Basic.AvgDiscount, 1e-9)

	assert.Equal(t, "Laptop", rep.Products[0].Product)
	assert.InDelta(t, 1000.0, rep.Products[0].AvgBasePrice, 1e-9)
	assert.Equal(t, 1, rep.Products[0].Transactions)
	assert.Equal(t, 2, rep.Products[0].Units)
}

func TestEmptyTableFails(t *testing.T) {
	_, err := analyze(nil)
	var aggErr *AggregationError
	require.ErrorAs(t, err, &aggErr)
}

func TestUnknownValuesBucketedAsOther(t *testing.T) {
	rows := append(scenarioRows(), Transaction{
		Date:            time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Product:         "Gizmo",
		Category:        "Gadgets",
		Quantity:        1,
		BasePrice:       100,
		DiscountPercent: 0,
		FinalPrice:      100.00,
		Region:          "Antarctica",
		PaymentMethod:   "Crypto",
		CustomerID:      "C3",
	})

	rep, err := analyze(rows)
	require.NoError(t, err)
	assert.InDelta(t, 2400.00, rep.Basic.TotalRevenue, 1e-9)

	findProduct := func(name string) *ProductStats {
		for i := range rep.Products {
			if rep.Products[i].Product == name {
				return &rep.Products[i]
			}
		}
		return nil
	}
	other := findProduct(otherBucket)
	require.NotNil(t, other)
	assert.InDelta(t, 100.00, other.Revenue, 1e-9)
	assert.Equal(t, 1, other.Transactions)

	// Every grouping still partitions the full table.
	var productSum float64
	for _, entry := range rep.Products {
		productSum += entry.Revenue
	}
	assert.InDelta(t, rep.Basic.TotalRevenue, productSum, 1e-9)

	var categorySum float64
	for _, entry := range rep.Categories {
		categorySum += entry.Revenue
	}
	assert.InDelta(t, rep.Basic.TotalRevenue, categorySum, 1e-9)
}

func TestRevenueRankingTieBreak(t *testing.T) {
	rows := []Transaction{
		{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Product: "Tablet", Category: "Electronics",
			Quantity: 1, BasePrice: 100, FinalPrice: 100, Region: "Asia", PaymentMethod: "PayPal", CustomerID: "C1"},
		{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Product: "Camera", Category: "Electronics",
			Quantity: 1, BasePrice: 100, FinalPrice: 100, Region: "Europe", PaymentMethod: "PayPal", CustomerID: "C2"},
	}

	stats, err := productPerformance(rows)
	require.NoError(t, err)
	require.Len(t, stats, len(knownProducts))
	assert.Equal(t, "Camera", stats[0].Product)
	assert.Equal(t, "Tablet", stats[1].Product)
}

func TestTemporalPeakTieBreakEarliest(t *testing.T) {
	rows := []Transaction{
		{Date: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), Product: "Laptop", Category: "Electronics",
			Quantity: 1, BasePrice: 100, FinalPrice: 100, Region: "Asia", PaymentMethod: "PayPal", CustomerID: "C1"},
		{Date: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), Product: "Laptop", Category: "Electronics",
			Quantity: 1, BasePrice: 100, FinalPrice: 100, Region: "Asia", PaymentMethod: "PayPal", CustomerID: "C1"},
	}

	stats, err := temporalPatterns(rows)
	require.NoError(t, err)
	assert.Equal(t, "January", stats.PeakMonth)
	assert.Equal(t, "January", stats.SlowMonth)
	assert.Equal(t, "Q1", stats.PeakQuarter)
}

func TestAggregationsDoNotMutateRows(t *testing.T) {
	rows := scenarioRows()
	snapshot := append([]Transaction(nil), rows...)

	_, err := analyze(rows)
	require.NoError(t, err)
	assert.Equal(t, snapshot, rows)
}
