package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Database wraps the GORM DB handle and exposes the run history.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed history at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Run{}, &RiskOutcome{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	if err := db.Exec("PRAGMA foreign_keys=ON").Error; err != nil {
		logrus.WithError(err).Warn("enable foreign keys")
	}
	if err := applyIndexes(db); err != nil {
		return nil, fmt.Errorf("apply indexes: %w", err)
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun inserts a run and its outcomes in one transaction, assigning an id
// when the run has none.
func (d *Database) SaveRun(run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	if strings.TrimSpace(run.ID) == "" {
		run.ID = uuid.NewString()
	}
	for i := range run.Outcomes {
		run.Outcomes[i].RunID = run.ID
		run.Outcomes[i].Position = i
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
}

// RunQuery filters and pages the run listing.
type RunQuery struct {
	DeclarationID string
	Since         time.Time
	Offset        int
	Limit         int
}

// ListRuns returns runs newest first without their outcomes, plus the total
// number of matching runs.
func (d *Database) ListRuns(opts RunQuery) ([]Run, int64, error) {
	if d == nil {
		return nil, 0, errors.New("database is nil")
	}
	filtered := func() *gorm.DB {
		q := d.gorm.Model(&Run{})
		if id := strings.TrimSpace(opts.DeclarationID); id != "" {
			q = q.Where("declaration_id = ?", id)
		}
		if !opts.Since.IsZero() {
			q = q.Where("created_at >= ?", opts.Since)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := filtered().Order("created_at DESC").Order("id ASC").Offset(opts.Offset)
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	var runs []Run
	if err := query.Find(&runs).Error; err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// GetRun loads one run with its outcomes in request order.
func (d *Database) GetRun(id string) (*Run, error) {
	var run Run
	err := d.gorm.Preload("Outcomes", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&run, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// PruneRuns deletes runs created before cutoff and returns how many went.
func (d *Database) PruneRuns(cutoff time.Time) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var removed int64
	err := d.gorm.Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&Run{}).Select("id").Where("created_at < ?", cutoff)
		if err := tx.Where("run_id IN (?)", stale).Delete(&RiskOutcome{}).Error; err != nil {
			return err
		}
		result := tx.Where("created_at < ?", cutoff).Delete(&Run{})
		removed = result.RowsAffected
		return result.Error
	})
	return removed, err
}

func applyIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_declaration_created ON runs(declaration_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_risk_outcomes_run_position ON risk_outcomes(run_id, position)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
