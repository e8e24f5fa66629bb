package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

const defaultDatasetPath = "ecommerce_sales_2025.csv"

var logger = newLogger()

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func main() {
	inputPath := flag.String("input", defaultDatasetPath, "Path to the sales CSV")
	jsonOut := flag.String("json", "", "Optional JSON output path for the full report")
	productsOut := flag.String("products-csv", "", "Optional CSV output path for product performance")
	dbEnabled := flag.Bool("db", false, "Store report in Postgres (requires SALES_REPORT_DB_URL or DATABASE_URL)")
	dbSchema := flag.String("db-schema", "sales_report", "Postgres schema for report tables")
	dbTag := flag.String("db-tag", "", "Optional label for this report run")
	initDB := flag.Bool("init-db", false, "Initialize database schema and seed data if empty")
	flag.Parse()

	rows, err := loadDataset(*inputPath)
	if err != nil {
		exitWithError(err)
	}
	logger.WithFields(logrus.Fields{"path": *inputPath, "rows": len(rows)}).Info("dataset loaded")

	rep, err := analyze(rows)
	if err != nil {
		exitWithError(err)
	}

	printReport(os.Stdout, rep)

	if *jsonOut != "" {
		if err := writeReportJSON(rep, *jsonOut); err != nil {
			exitWithError(err)
		}
		logger.WithField("path", *jsonOut).Info("JSON report saved")
	}

	if *productsOut != "" {
		if err := writeProductCSV(rep, *productsOut); err != nil {
			exitWithError(err)
		}
		logger.WithField("path", *productsOut).Info("product CSV saved")
	}

	if *dbEnabled || *initDB {
		dbURL := dbURLFromEnv()
		if dbURL == "" {
			exitWithError(errors.New("database URL missing; set SALES_REPORT_DB_URL or DATABASE_URL"))
		}
		cfg := DBConfig{
			URL:    dbURL,
			Schema: *dbSchema,
			Tag:    *dbTag,
		}
		seeded := false
		if *initDB {
			runID, err := seedDatabase(rep, cfg)
			if err != nil {
				exitWithError(err)
			}
			if runID != "" {
				seeded = true
				logger.WithField("run_id", runID).Info("seeded Postgres with initial report run")
			}
		}
		if *dbEnabled {
			if seeded {
				logger.Info("skipped duplicate insert; current report already used for seed")
			} else {
				runID, err := storeReportInDB(rep, cfg)
				if err != nil {
					exitWithError(err)
				}
				logger.WithField("run_id", runID).Info("stored report run in Postgres")
			}
		}
	}
}

// exitWithError names the failed stage on stderr and terminates non-zero.
// It runs before any report output has been written, so a failed run never
// produces a partial report.
func exitWithError(err error) {
	var loadErr *DataLoadError
	var aggErr *AggregationError
	switch {
	case errors.As(err, &loadErr):
		fmt.Fprintln(os.Stderr, "Error: data load failed:", err)
	case errors.As(err, &aggErr):
		fmt.Fprintln(os.Stderr, "Error: aggregation failed:", err)
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(1)
}
