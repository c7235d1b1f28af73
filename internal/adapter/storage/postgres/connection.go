package postgres

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/observability/telemetry"
)

const queryStartTimeKey = "sigec:query_start"

// registerLatencyCallbacks times every query/create/update/delete GORM runs
// and feeds it into the sigec_database_latency_seconds histogram.
func registerLatencyCallbacks(db *gorm.DB) {
	before := func(tx *gorm.DB) { tx.InstanceSet(queryStartTimeKey, time.Now()) }
	after := func(operation string) func(tx *gorm.DB) {
		return func(tx *gorm.DB) {
			startedAt, ok := tx.InstanceGet(queryStartTimeKey)
			if !ok {
				return
			}
			start, ok := startedAt.(time.Time)
			if !ok {
				return
			}
			telemetry.DatabaseLatency.WithLabelValues(operation, tx.Statement.Table).Observe(time.Since(start).Seconds())
		}
	}

	_ = db.Callback().Create().Before("gorm:create").Register("sigec:before_create", before)
	_ = db.Callback().Create().After("gorm:create").Register("sigec:after_create", after("create"))
	_ = db.Callback().Query().Before("gorm:query").Register("sigec:before_query", before)
	_ = db.Callback().Query().After("gorm:query").Register("sigec:after_query", after("query"))
	_ = db.Callback().Update().Before("gorm:update").Register("sigec:before_update", before)
	_ = db.Callback().Update().After("gorm:update").Register("sigec:after_update", after("update"))
	_ = db.Callback().Delete().Before("gorm:delete").Register("sigec:before_delete", before)
	_ = db.Callback().Delete().After("gorm:delete").Register("sigec:after_delete", after("delete"))
}

// ConnectionOptions mirrors pkg/config.DatabaseConfig so this package stays
// free of a direct dependency on it.
type ConnectionOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	LogQueries      bool
}

// NewConnection initializes a new PostgreSQL connection using GORM.
func NewConnection(url string, opts ConnectionOptions, log *zap.Logger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if opts.LogQueries {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	registerLatencyCallbacks(db)

	log.Info("connected to postgres")
	return db, nil
}

// RunMigrations AutoMigrates the full domain model. There are no hand-written
// SQL migrations in this repository; GORM's schema diffing is the source of
// truth for table shape, the way the teacher's NietzscheDB layer used to
// treat its own store as authoritative.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Client{},
		&domain.Station{},
		&domain.Connector{},
		&domain.Location{},
		&domain.TariffPlan{},
		&domain.TariffRule{},
		&domain.ClientTariff{},
		&domain.ChargingSession{},
		&domain.OcppTransaction{},
		&domain.MeterValue{},
		&domain.PaymentTransaction{},
		&domain.IdempotencyRecord{},
		&domain.Payment{},
		&domain.PaymentCard{},
		&domain.Refund{},
	)
}

// Close releases the underlying sql.DB connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
