package reference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	// Postgres driver for database/sql.
	_ "github.com/lib/pq"

	"github.com/Lavan1999/agentic-ai/internal/cdm"
)

const (
	tariffQuery = "SELECT hscode, description, duty_percentage FROM tariff_data WHERE hscode = $1 LIMIT 1"

	valuationQuery = "SELECT product_id, description, price, currency, variation_percentage, unit_name " +
		"FROM valuation_products WHERE hscode = $1 ORDER BY product_id LIMIT 1"
)

// PostgresSource reads reference records from the imported reference tables.
// It never writes; loading the tables is done elsewhere.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource wraps an open database handle.
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// OpenPostgres connects with the lib/pq driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresSource, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn missing")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresSource(db), nil
}

// Close releases the database handle.
func (s *PostgresSource) Close() error {
	return s.db.Close()
}

// FetchTariff looks up the tariff row for hsCode.
func (s *PostgresSource) FetchTariff(ctx context.Context, hsCode string) (*cdm.TariffReference, error) {
	var code, description, duty sql.NullString
	err := s.db.QueryRowContext(ctx, tariffQuery, hsCode).Scan(&code, &description, &duty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cdm.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query tariff_data: %w", err)
	}
	return &cdm.TariffReference{
		HSCode:         strings.TrimSpace(code.String),
		Description:    strings.TrimSpace(description.String),
		DutyPercentage: strings.TrimSpace(duty.String),
	}, nil
}

// FetchValuation looks up the first valuation product for hsCode.
func (s *PostgresSource) FetchValuation(ctx context.Context, hsCode string) (*cdm.ValuationReference, error) {
	var productID, description, price, currency, variation, unit sql.NullString
	err := s.db.QueryRowContext(ctx, valuationQuery, hsCode).
		Scan(&productID, &description, &price, &currency, &variation, &unit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cdm.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query valuation_products: %w", err)
	}
	return &cdm.ValuationReference{
		ProductID:           strings.TrimSpace(productID.String),
		Description:         strings.TrimSpace(description.String),
		Price:               strings.TrimSpace(price.String),
		Currency:            strings.TrimSpace(currency.String),
		VariationPercentage: strings.TrimSpace(variation.String),
		UnitName:            strings.TrimSpace(unit.String),
	}, nil
}
