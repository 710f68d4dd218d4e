package database

import (
	"errors"
	"fmt"
	"log"

	"rental-api/internal/model"
	"rental-api/pkg/config"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// BookingOverlapConstraint is the Postgres exclusion constraint that closes
// the booking-overlap race at the persistence boundary: two slot-holding
// bookings on the same property with intersecting [check_in, check_out)
// ranges cannot both commit.
const BookingOverlapConstraint = "bookings_no_overlap"

const bookingOverlapDDL = `
ALTER TABLE bookings ADD CONSTRAINT ` + BookingOverlapConstraint + `
EXCLUDE USING gist (
	property_id WITH =,
	daterange(check_in, check_out) WITH &&
) WHERE (status IN ('confirmed', 'checked_in') AND deleted_at IS NULL)`

// Initialize initializes the database connection with the provided configuration
func Initialize(cfg *config.DBConfig) error {
	var err error

	// Connect with PreferSimpleProtocol to prevent "prepared statement
	// already exists" errors behind connection poolers
	pgConfig := postgres.Config{
		DSN:                  cfg.GetDSN(),
		PreferSimpleProtocol: true,
	}

	DB, err = gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
	})
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		return err
	}

	// Configure connection pool
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("Failed to get database connection: %v", err)
		return err
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := migrate(); err != nil {
		return err
	}

	fmt.Println("Database connected and migrated successfully")
	return nil
}

func migrate() error {
	err := DB.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.Property{},
		&model.Booking{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// btree_gist is needed for the equality half of the exclusion constraint
	if err := DB.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return fmt.Errorf("failed to create btree_gist extension: %w", err)
	}

	if !DB.Migrator().HasConstraint(&model.Booking{}, BookingOverlapConstraint) {
		if err := DB.Exec(bookingOverlapDDL).Error; err != nil {
			return fmt.Errorf("failed to create booking overlap constraint: %w", err)
		}
	}

	return nil
}

// IsBookingConflict reports whether an error is the overlap exclusion
// constraint rejecting a write (SQLSTATE 23P01, exclusion_violation).
func IsBookingConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23P01" && pgErr.ConstraintName == BookingOverlapConstraint
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
