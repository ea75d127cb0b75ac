package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"apartment_booking/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBConfig holds database connection parameters
type DBConfig struct {
	DSN string
}

// LoadDBConfig loads database configuration from environment variables
func LoadDBConfig() (*DBConfig, error) {
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	if dbHost == "" || dbPort == "" || dbUser == "" || dbName == "" {
		return nil, fmt.Errorf("database environment variables not set (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dbHost, dbPort, dbUser, dbPassword, dbName, getEnv("DB_SSLMODE", "disable"))

	return &DBConfig{DSN: dsn}, nil
}

// ConnectDB establishes a connection to the PostgreSQL database
func ConnectDB(ctx context.Context, cfg DBConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	maxRetries := 5
	retryInterval := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.New(ctx, cfg.DSN)
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				log.Info("Successfully connected to PostgreSQL")
				return pool, nil
			}
			pool.Close()
		}
		log.Warn("Failed to connect to database, retrying",
			"attempt", i+1,
			"max_attempts", maxRetries,
			"retry_in", retryInterval.String(),
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
}

// AutoMigrate creates tables if they don't exist
func AutoMigrate(ctx context.Context, db *pgxpool.Pool, log *logger.Logger) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}
	log.Info("AutoMigrate applied successfully")
	return nil
}

const schemaSQL = `
	CREATE EXTENSION IF NOT EXISTS btree_gist;

	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		login TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		legacy_password BOOLEAN NOT NULL DEFAULT FALSE,
		role TEXT NOT NULL CHECK (role IN ('user', 'admin')) DEFAULT 'user',
		is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
		full_name TEXT NOT NULL DEFAULT '',
		phone TEXT,
		date_of_birth DATE,
		address TEXT,
		passport_series TEXT,
		passport_number TEXT,
		passport_issued_by TEXT,
		passport_issue_date DATE,
		preferences TEXT, -- JSON object stored as text
		profile_completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS apartments (
		id BIGSERIAL PRIMARY KEY,
		owner_id BIGINT NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL,
		address TEXT NOT NULL,
		price_per_night BIGINT NOT NULL CHECK (price_per_night > 0), -- in kopecks
		bedrooms INT NOT NULL DEFAULT 0,
		bathrooms INT NOT NULL DEFAULT 0,
		max_guests INT NOT NULL DEFAULT 1 CHECK (max_guests >= 1),
		image_ref TEXT,
		amenities TEXT[] NOT NULL DEFAULT '{}',
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		moderation_status TEXT NOT NULL DEFAULT 'pending'
			CHECK (moderation_status IN ('pending', 'approved', 'rejected')),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS bookings (
		id BIGSERIAL PRIMARY KEY,
		apartment_id BIGINT NOT NULL REFERENCES apartments(id) ON DELETE CASCADE,
		renter_id BIGINT NOT NULL REFERENCES users(id),
		check_in DATE NOT NULL,
		check_out DATE NOT NULL,
		guests INT NOT NULL CHECK (guests >= 1),
		total_price BIGINT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'confirmed', 'cancelled', 'completed')),
		special_requests TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		CHECK (check_out > check_in)
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id BIGSERIAL PRIMARY KEY,
		apartment_id BIGINT NOT NULL REFERENCES apartments(id) ON DELETE CASCADE,
		booking_id BIGINT NOT NULL UNIQUE REFERENCES bookings(id) ON DELETE CASCADE,
		author_id BIGINT NOT NULL REFERENCES users(id),
		rating SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		cleanliness SMALLINT NOT NULL CHECK (cleanliness BETWEEN 1 AND 5),
		communication SMALLINT NOT NULL CHECK (communication BETWEEN 1 AND 5),
		location SMALLINT NOT NULL CHECK (location BETWEEN 1 AND 5),
		value SMALLINT NOT NULL CHECK (value BETWEEN 1 AND 5),
		comment TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_apartments_owner_id ON apartments(owner_id);
	CREATE INDEX IF NOT EXISTS idx_apartments_moderation_status ON apartments(moderation_status);
	CREATE INDEX IF NOT EXISTS idx_apartments_city ON apartments(city);
	CREATE INDEX IF NOT EXISTS idx_bookings_apartment_id ON bookings(apartment_id);
	CREATE INDEX IF NOT EXISTS idx_bookings_renter_id ON bookings(renter_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_apartment_id ON reviews(apartment_id);

	-- Non-cancelled stays of one apartment may never overlap
	DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM pg_constraint WHERE conname = 'bookings_no_overlap'
		) THEN
			ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
				EXCLUDE USING gist (
					apartment_id WITH =,
					daterange(check_in, check_out, '[)') WITH &&
				) WHERE (status <> 'cancelled');
		END IF;
	END
	$$;

	CREATE OR REPLACE FUNCTION update_updated_at_column()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ language 'plpgsql';

	DO $$
	DECLARE
		t TEXT;
	BEGIN
		FOREACH t IN ARRAY ARRAY['users', 'apartments', 'bookings'] LOOP
			IF NOT EXISTS (
				SELECT 1 FROM pg_trigger
				WHERE tgname = 'set_' || t || '_updated_at' AND tgrelid = t::regclass
			) THEN
				EXECUTE format(
					'CREATE TRIGGER %I BEFORE UPDATE ON %I FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()',
					'set_' || t || '_updated_at', t
				);
			END IF;
		END LOOP;
	END
	$$;
`
