package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Transaction is one purchase event from the sales dataset.
type Transaction struct {
	Date            time.Time
	Product         string
	Category        string
	Quantity        int
	BasePrice       int
	DiscountPercent int
	FinalPrice      float64
	Region          string
	PaymentMethod   string
	CustomerID      string
}

// otherBucket collects rows whose categorical value falls outside a known set.
const otherBucket = "Other"

var (
	knownProducts = []string{
		"Laptop", "Smartphone", "Tablet", "Monitor", "Camera", "Headphones", "Smartwatch",
	}
	knownCategories     = []string{"Electronics", "Accessories", "Wearables"}
	knownRegions        = []string{"North America", "Europe", "Asia", "South America", "Oceania"}
	knownPaymentMethods = []string{"Credit Card", "Debit Card", "PayPal", "Bank Transfer"}

	productCategory = map[string]string{
		"Laptop":     "Electronics",
		"Smartphone": "Electronics",
		"Tablet":     "Electronics",
		"Monitor":    "Electronics",
		"Camera":     "Electronics",
		"Headphones": "Accessories",
		"Smartwatch": "Wearables",
	}
)

var expectedColumns = []string{
	"date",
	"product",
	"category",
	"quantity",
	"base_price",
	"discount_percent",
	"final_price",
	"region",
	"payment_method",
	"customer_id",
}

// DataLoadError reports a missing, unreadable, or schema-invalid dataset.
// It aborts the run before any aggregation happens.
type DataLoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DataLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Path, e.Reason)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// loadDataset reads the sales CSV into memory. The header must contain
// exactly the expected columns, in any order. Any unparsable or out-of-range
// value in a required field fails the whole load; there is no partial
// recovery.
func loadDataset(path string) ([]Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DataLoadError{Path: path, Reason: "cannot open dataset", Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, &DataLoadError{Path: path, Reason: "unable to read header", Err: err}
	}

	colMap := normalizeHeaders(headers)
	for _, name := range expectedColumns {
		if _, ok := colMap[normalizeHeader(name)]; !ok {
			return nil, &DataLoadError{Path: path, Reason: fmt.Sprintf("missing %s column", name)}
		}
	}
	if len(headers) != len(expectedColumns) {
		return nil, &DataLoadError{
			Path:   path,
			Reason: fmt.Sprintf("expected %d columns, found %d", len(expectedColumns), len(headers)),
		}
	}

	rows := make([]Transaction, 0, 256)
	line := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &DataLoadError{Path: path, Reason: "unable to read CSV", Err: err}
		}
		line++

		tx, err := parseTransaction(record, colMap)
		if err != nil {
			return nil, &DataLoadError{Path: path, Reason: fmt.Sprintf("row %d", line), Err: err}
		}
		validateClosedSets(tx, line)
		if !priceConsistent(tx) {
			logger.WithFields(logrus.Fields{
				"row":         line,
				"final_price": tx.FinalPrice,
			}).Warn("final_price inconsistent with base_price, quantity and discount")
		}
		rows = append(rows, tx)
	}

	return rows, nil
}

func parseTransaction(record []string, colMap map[string]int) (Transaction, error) {
	var tx Transaction
	var err error

	tx.Date, err = parseDate(getValue(record, colMap, "date"))
	if err != nil {
		return Transaction{}, fmt.Errorf("date: %w", err)
	}

	tx.Product = getValue(record, colMap, "product")
	if tx.Product == "" {
		return Transaction{}, errors.New("product: empty value")
	}
	tx.Category = getValue(record, colMap, "category")
	if tx.Category == "" {
		return Transaction{}, errors.New("category: empty value")
	}
	tx.Region = getValue(record, colMap, "region")
	if tx.Region == "" {
		return Transaction{}, errors.New("region: empty value")
	}
	tx.PaymentMethod = getValue(record, colMap, "payment_method")
	if tx.PaymentMethod == "" {
		return Transaction{}, errors.New("payment_method: empty value")
	}
	tx.CustomerID = getValue(record, colMap, "customer_id")
	if tx.CustomerID == "" {
		return Transaction{}, errors.New("customer_id: empty value")
	}

	tx.Quantity, err = parseIntField(record, colMap, "quantity")
	if err != nil {
		return Transaction{}, err
	}
	if tx.Quantity < 1 {
		return Transaction{}, fmt.Errorf("quantity: must be at least 1, got %d", tx.Quantity)
	}

	tx.BasePrice, err = parseIntField(record, colMap, "base_price")
	if err != nil {
		return Transaction{}, err
	}
	if tx.BasePrice <= 0 {
		return Transaction{}, fmt.Errorf("base_price: must be positive, got %d", tx.BasePrice)
	}

	tx.DiscountPercent, err = parseIntField(record, colMap, "discount_percent")
	if err != nil {
		return Transaction{}, err
	}
	if tx.DiscountPercent < 0 || tx.DiscountPercent > 100 {
		return Transaction{}, fmt.Errorf("discount_percent: must be in [0,100], got %d", tx.DiscountPercent)
	}

	raw := getValue(record, colMap, "final_price")
	tx.FinalPrice, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return Transaction{}, fmt.Errorf("final_price: unparsable value %q", raw)
	}
	if tx.FinalPrice < 0 {
		return Transaction{}, fmt.Errorf("final_price: must be non-negative, got %v", tx.FinalPrice)
	}

	return tx, nil
}

func parseIntField(record []string, colMap map[string]int, name string) (int, error) {
	raw := getValue(record, colMap, name)
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: unparsable value %q", name, raw)
	}
	return value, nil
}

// validateClosedSets warns about categorical values outside the documented
// sets. The rows are kept; aggregation folds them into the Other bucket.
func validateClosedSets(tx Transaction, line int) {
	if !isKnown(tx.Product, knownProducts) {
		logger.WithFields(logrus.Fields{"row": line, "product": tx.Product}).Warn("unknown product")
	} else if expected := productCategory[tx.Product]; expected != tx.Category {
		logger.WithFields(logrus.Fields{
			"row":      line,
			"product":  tx.Product,
			"category": tx.Category,
		}).Warnf("category does not match product (expected %s)", expected)
	}
	if !isKnown(tx.Category, knownCategories) {
		logger.WithFields(logrus.Fields{"row": line, "category": tx.Category}).Warn("unknown category")
	}
	if !isKnown(tx.Region, knownRegions) {
		logger.WithFields(logrus.Fields{"row": line, "region": tx.Region}).Warn("unknown region")
	}
	if !isKnown(tx.PaymentMethod, knownPaymentMethods) {
		logger.WithFields(logrus.Fields{"row": line, "payment_method": tx.PaymentMethod}).Warn("unknown payment method")
	}
}

func isKnown(value string, set []string) bool {
	for _, entry := range set {
		if entry == value {
			return true
		}
	}
	return false
}

// priceTolerance absorbs the rounding slack the data contract allows between
// final_price and the recomputed price.
var priceTolerance = decimal.RequireFromString("0.05")

func priceConsistent(tx Transaction) bool {
	expected := decimal.NewFromInt(int64(tx.BasePrice)).
		Mul(decimal.NewFromInt(int64(tx.Quantity))).
		Mul(decimal.NewFromInt(int64(100 - tx.DiscountPercent))).
		Div(decimal.NewFromInt(100))
	actual := decimal.NewFromFloat(tx.FinalPrice)
	return expected.Sub(actual).Abs().LessThanOrEqual(priceTolerance)
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	layouts := []string{
		"2006-01-02",
		"2006/01/02",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %s", value)
}

func normalizeHeaders(headers []string) map[string]int {
	result := make(map[string]int, len(headers))
	for idx, header := range headers {
		normalized := normalizeHeader(header)
		if _, exists := result[normalized]; !exists {
			result[normalized] = idx
		}
	}
	return result
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}

func getValue(record []string, colMap map[string]int, name string) string {
	idx, ok := colMap[normalizeHeader(name)]
	if !ok || idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
