package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const ruleWidth = 60

// printReport renders the seven report sections in their fixed order.
// Rendering is pure formatting: identical reports produce byte-identical
// output.
func printReport(w io.Writer, rep Report) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "E-COMMERCE SALES ANALYSIS")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	printBasicStatistics(w, rep.Basic)
	printProductPerformance(w, rep.Products)
	printRegionalAnalysis(w, rep.Regions)
	printTemporalPatterns(w, rep.Temporal)
	printCategoryInsights(w, rep.Categories)
	printDiscountEffectiveness(w, rep.Discounts)
	printPaymentMethodTrends(w, rep.Payments)
}

func printSectionHeader(w io.Writer, title string) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, rule)
}

func printColumnRule(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
}

func printBasicStatistics(w io.Writer, stats BasicStats) {
	printSectionHeader(w, "BASIC STATISTICS")
	fmt.Fprintf(w, "%-27s %s\n", "Total Revenue:", formatCurrency(stats.TotalRevenue))
	fmt.Fprintf(w, "%-27s %s\n", "Average Transaction Value:", formatCurrency(stats.AvgTransaction))
	fmt.Fprintf(w, "%-27s %s\n", "Median Transaction Value:", formatCurrency(stats.MedianTransaction))
	fmt.Fprintf(w, "%-27s %s\n", "Total Units Sold:", formatCount(stats.TotalUnits))
	fmt.Fprintf(w, "%-27s %s\n", "Total Transactions:", formatCount(stats.Transactions))
	fmt.Fprintf(w, "%-27s %s\n", "Unique Customers:", formatCount(stats.UniqueCustomers))
	fmt.Fprintf(w, "%-27s %s\n", "Average Discount:", formatPercent(stats.AvgDiscount))
	fmt.Fprintf(w, "%-27s %s to %s\n", "Date Range:",
		stats.FirstDate.Format("2006-01-02"), stats.LastDate.Format("2006-01-02"))
	fmt.Fprintln(w)
}

func printProductPerformance(w io.Writer, stats []ProductStats) {
	printSectionHeader(w, "PRODUCT PERFORMANCE")
	fmt.Fprintf(w, "%-12s %14s %12s %6s %7s %10s\n",
		"Product", "Revenue", "Avg Price", "Txns", "Units", "Avg Disc")
	printColumnRule(w)
	for _, entry := range stats {
		fmt.Fprintf(w, "%-12s %14s %12s %6d %7d %10s\n",
			entry.Product,
			formatCurrency(entry.Revenue),
			formatCurrency(entry.AvgBasePrice),
			entry.Transactions,
			entry.Units,
			formatPercent(entry.AvgDiscount),
		)
	}
	fmt.Fprintln(w)
}

func printRegionalAnalysis(w io.Writer, stats []RegionStats) {
	printSectionHeader(w, "REGIONAL ANALYSIS")
	fmt.Fprintf(w, "%-15s %14s %6s %16s\n", "Region", "Revenue", "Txns", "Avg Transaction")
	printColumnRule(w)
	for _, entry := range stats {
		fmt.Fprintf(w, "%-15s %14s %6d %16s\n",
			entry.Region,
			formatCurrency(entry.Revenue),
			entry.Transactions,
			formatCurrency(entry.AvgTransaction),
		)
	}
	fmt.Fprintln(w)
}

func printTemporalPatterns(w io.Writer, stats TemporalStats) {
	printSectionHeader(w, "TEMPORAL PATTERNS")
	fmt.Fprintln(w, "Monthly Revenue:")
	for _, period := range stats.Monthly {
		fmt.Fprintf(w, "  %-10s %14s %6d\n", period.Period, formatCurrency(period.Revenue), period.Transactions)
	}
	fmt.Fprintf(w, "Peak Month:    %s\n", stats.PeakMonth)
	if stats.SlowMonth != "" {
		fmt.Fprintf(w, "Slowest Month: %s\n", stats.SlowMonth)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Quarterly Revenue:")
	for _, period := range stats.Quarterly {
		fmt.Fprintf(w, "  %-10s %14s %6d\n", period.Period, formatCurrency(period.Revenue), period.Transactions)
	}
	fmt.Fprintf(w, "Peak Quarter:  %s\n", stats.PeakQuarter)
	fmt.Fprintln(w)
}

func printCategoryInsights(w io.Writer, stats []CategoryStats) {
	printSectionHeader(w, "CATEGORY INSIGHTS")
	fmt.Fprintf(w, "%-13s %14s %9s %6s\n", "Category", "Revenue", "Share", "Txns")
	printColumnRule(w)
	for _, entry := range stats {
		fmt.Fprintf(w, "%-13s %14s %9s %6d\n",
			entry.Category,
			formatCurrency(entry.Revenue),
			formatPercent(entry.Share),
			entry.Transactions,
		)
	}
	fmt.Fprintln(w)
}

func printDiscountEffectiveness(w io.Writer, stats DiscountStats) {
	printSectionHeader(w, "DISCOUNT EFFECTIVENESS")
	fmt.Fprintf(w, "%-13s %6s %14s %14s\n", "Partition", "Txns", "Revenue", "Avg Value")
	printColumnRule(w)
	for _, part := range []DiscountPartition{stats.Discounted, stats.NonDiscounted} {
		fmt.Fprintf(w, "%-13s %6d %14s %14s\n",
			part.Label,
			part.Transactions,
			formatCurrency(part.Revenue),
			formatCurrency(part.AvgTransaction),
		)
	}
	fmt.Fprintf(w, "\nOverall Average Discount: %s\n", formatPercent(stats.AvgDiscount))
	fmt.Fprintln(w, "\nRevenue by Discount Level:")
	for _, level := range stats.Levels {
		fmt.Fprintf(w, "  %3d%% %14s %9s %6d\n",
			level.Percent,
			formatCurrency(level.Revenue),
			formatPercent(level.Share),
			level.Transactions,
		)
	}
	fmt.Fprintln(w)
}

func printPaymentMethodTrends(w io.Writer, stats []PaymentStats) {
	printSectionHeader(w, "PAYMENT METHOD TRENDS")
	fmt.Fprintf(w, "%-14s %6s %14s %14s %9s\n", "Method", "Txns", "Revenue", "Avg Value", "Share")
	printColumnRule(w)
	for _, entry := range stats {
		fmt.Fprintf(w, "%-14s %6d %14s %14s %9s\n",
			entry.Method,
			entry.Transactions,
			formatCurrency(entry.Revenue),
			formatCurrency(entry.AvgTransaction),
			formatPercent(entry.Share),
		)
	}
	fmt.Fprintln(w)
}

// formatCurrency renders an amount as $X,XXX.XX. Rounding to cents happens
// here only; aggregation keeps full float precision.
func formatCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	cents := int64(math.Round(amount * 100))
	result := fmt.Sprintf("$%s.%02d", groupThousands(cents/100), cents%100)
	if negative {
		result = "-" + result
	}
	return result
}

func formatPercent(value float64) string {
	return fmt.Sprintf("%.2f%%", value)
}

func formatCount(n int) string {
	return groupThousands(int64(n))
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return strings.Join(append([]string{s}, parts...), ",")
}

func writeReportJSON(rep Report, path string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// writeProductCSV exports the Product Performance section for spreadsheet
// use, one row per product in report order.
func writeProductCSV(rep Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{
		"product",
		"revenue",
		"avg_base_price",
		"transactions",
		"units",
		"avg_discount_percent",
	}); err != nil {
		return err
	}

	for _, entry := range rep.Products {
		record := []string{
			entry.Product,
			strconv.FormatFloat(entry.Revenue, 'f', 2, 64),
			strconv.FormatFloat(entry.AvgBasePrice, 'f', 2, 64),
			strconv.Itoa(entry.Transactions),
			strconv.Itoa(entry.Units),
			strconv.FormatFloat(entry.AvgDiscount, 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
