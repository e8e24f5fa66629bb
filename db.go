package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type DBConfig struct {
	URL    string
	Schema string
	Tag    string
}

func dbURLFromEnv() string {
	if value := strings.TrimSpace(os.Getenv("SALES_REPORT_DB_URL")); value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv("DATABASE_URL"))
}

func sanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("db schema is required")
	}
	valid := regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	if !valid.MatchString(value) {
		return "", fmt.Errorf("invalid schema name: %s", value)
	}
	return value, nil
}

// seedDatabase initializes the schema and stores the current report as the
// first run, unless runs already exist.
func seedDatabase(rep Report, cfg DBConfig) (string, error) {
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return "", err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return "", err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return "", err
	}

	if err := ensureSchema(ctx, db, schema); err != nil {
		return "", err
	}

	var count int
	if err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s.report_runs`, schema)).Scan(&count); err != nil {
		return "", err
	}
	if count > 0 {
		logger.Info("report runs already present; skipping seed")
		return "", nil
	}

	return storeReportTx(ctx, db, rep, schema, cfg.Tag)
}

func storeReportInDB(rep Report, cfg DBConfig) (string, error) {
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return "", err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return "", err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return "", err
	}

	if err := ensureSchema(ctx, db, schema); err != nil {
		return "", err
	}

	return storeReportTx(ctx, db, rep, schema, cfg.Tag)
}

func storeReportTx(ctx context.Context, db *sql.DB, rep Report, schema string, tag string) (string, error) {
	runID := uuid.New()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.report_runs (
			id, total_revenue, avg_transaction, median_transaction,
			total_units, transactions, unique_customers, avg_discount,
			first_date, last_date, run_tag
		) VALUES (
			$1,$2,$3,$4,
			$5,$6,$7,$8,
			$9,$10,$11
		)`, schema),
		runID,
		rep.Basic.TotalRevenue,
		rep.Basic.AvgTransaction,
		rep.Basic.MedianTransaction,
		rep.Basic.TotalUnits,
		rep.Basic.Transactions,
		rep.Basic.UniqueCustomers,
		rep.Basic.AvgDiscount,
		rep.Basic.FirstDate,
		rep.Basic.LastDate,
		nullString(tag),
	)
	if err != nil {
		return "", err
	}

	insertProductSQL := fmt.Sprintf(`
		INSERT INTO %s.report_product_stats (
			id, run_id, product, revenue, avg_base_price, transactions, units, avg_discount
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, schema)
	for _, entry := range rep.Products {
		_, err = tx.ExecContext(ctx, insertProductSQL,
			uuid.New(), runID, entry.Product, entry.Revenue,
			entry.AvgBasePrice, entry.Transactions, entry.Units, entry.AvgDiscount)
		if err != nil {
			return "", err
		}
	}

	insertRegionSQL := fmt.Sprintf(`
		INSERT INTO %s.report_region_stats (
			id, run_id, region, revenue, transactions, avg_transaction
		) VALUES ($1,$2,$3,$4,$5,$6)`, schema)
	for _, entry := range rep.Regions {
		_, err = tx.ExecContext(ctx, insertRegionSQL,
			uuid.New(), runID, entry.Region, entry.Revenue,
			entry.Transactions, entry.AvgTransaction)
		if err != nil {
			return "", err
		}
	}

	insertCategorySQL := fmt.Sprintf(`
		INSERT INTO %s.report_category_stats (
			id, run_id, category, revenue, revenue_share, transactions
		) VALUES ($1,$2,$3,$4,$5,$6)`, schema)
	for _, entry := range rep.Categories {
		_, err = tx.ExecContext(ctx, insertCategorySQL,
			uuid.New(), runID, entry.Category, entry.Revenue,
			entry.Share, entry.Transactions)
		if err != nil {
			return "", err
		}
	}

	insertPaymentSQL := fmt.Sprintf(`
		INSERT INTO %s.report_payment_stats (
			id, run_id, method, transactions, revenue, avg_transaction, txn_share
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`, schema)
	for _, entry := range rep.Payments {
		_, err = tx.ExecContext(ctx, insertPaymentSQL,
			uuid.New(), runID, entry.Method, entry.Transactions,
			entry.Revenue, entry.AvgTransaction, entry.Share)
		if err != nil {
			return "", err
		}
	}

	insertPeriodSQL := fmt.Sprintf(`
		INSERT INTO %s.report_period_revenue (
			id, run_id, granularity, position, period, revenue, transactions
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`, schema)
	for i, entry := range rep.Temporal.Monthly {
		_, err = tx.ExecContext(ctx, insertPeriodSQL,
			uuid.New(), runID, "month", i+1, entry.Period, entry.Revenue, entry.Transactions)
		if err != nil {
			return "", err
		}
	}
	for i, entry := range rep.Temporal.Quarterly {
		_, err = tx.ExecContext(ctx, insertPeriodSQL,
			uuid.New(), runID, "quarter", i+1, entry.Period, entry.Revenue, entry.Transactions)
		if err != nil {
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return runID.String(), nil
}

func ensureSchema(ctx context.Context, db *sql.DB, schema string) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema)); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.report_runs (
			id uuid PRIMARY KEY,
			total_revenue numeric(14,2) NOT NULL,
			avg_transaction numeric(14,2) NOT NULL,
			median_transaction numeric(14,2) NOT NULL,
			total_units integer NOT NULL,
			transactions integer NOT NULL,
			unique_customers integer NOT NULL,
			avg_discount numeric(6,2) NOT NULL,
			first_date date NOT NULL,
			last_date date NOT NULL,
			run_tag text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.report_product_stats (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.report_runs(id) ON DELETE CASCADE,
			product text NOT NULL,
			revenue numeric(14,2) NOT NULL,
			avg_base_price numeric(14,2) NOT NULL,
			transactions integer NOT NULL,
			units integer NOT NULL,
			avg_discount numeric(6,2) NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.report_region_stats (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.report_runs(id) ON DELETE CASCADE,
			region text NOT NULL,
			revenue numeric(14,2) NOT NULL,
			transactions integer NOT NULL,
			avg_transaction numeric(14,2) NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.report_category_stats (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.report_runs(id) ON DELETE CASCADE,
			category text NOT NULL,
			revenue numeric(14,2) NOT NULL,
			revenue_share numeric(6,2) NOT NULL,
			transactions integer NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.report_payment_stats (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.report_runs(id) ON DELETE CASCADE,
			method text NOT NULL,
			transactions integer NOT NULL,
			revenue numeric(14,2) NOT NULL,
			avg_transaction numeric(14,2) NOT NULL,
			txn_share numeric(6,2) NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.report_period_revenue (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.report_runs(id) ON DELETE CASCADE,
			granularity text NOT NULL,
			position integer NOT NULL,
			period text NOT NULL,
			revenue numeric(14,2) NOT NULL,
			transactions integer NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	for _, table := range []string{
		"report_product_stats",
		"report_region_stats",
		"report_category_stats",
		"report_payment_stats",
		"report_period_revenue",
	} {
		_, err = db.ExecContext(ctx, fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %s_%s_run_idx ON %s.%s (run_id)`,
			schema, table, schema, table))
		if err != nil {
			return err
		}
	}
	return nil
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
