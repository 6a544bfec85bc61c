package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

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

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	return &DBConfig{DSN: dsn}, nil
}

// ConnectDB establishes a connection to the PostgreSQL database
func ConnectDB(cfg *DBConfig) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	// Retry connecting to the database a few times
	maxRetries := 5
	retryInterval := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.New(context.Background(), cfg.DSN)
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				log.Println("Successfully connected to PostgreSQL!")
				return pool, nil
			}
		}
		log.Printf("Failed to connect to database (attempt %d/%d): %v. Retrying in %v...", i+1, maxRetries, err, retryInterval)
		time.Sleep(retryInterval)
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
}

// AutoMigrate creates the ledger tables if they don't exist. All monetary
// columns are BIGINT paise. The balance CHECK backs up the conditional
// update in the user repository; transactions are append-only and sufficient
// to replay every balance from zero.
func AutoMigrate(db *pgxpool.Pool) error {
	sql := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('user', 'admin')) DEFAULT 'user',
		balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		total_investment BIGINT NOT NULL DEFAULT 0,
		total_earnings BIGINT NOT NULL DEFAULT 0,
		referral_code TEXT UNIQUE NOT NULL,
		referred_by INTEGER REFERENCES users(id),
		referrals INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		price BIGINT NOT NULL CHECK (price > 0),
		daily_income BIGINT NOT NULL CHECK (daily_income > 0),
		validity_days INTEGER NOT NULL CHECK (validity_days > 0),
		image TEXT NOT NULL DEFAULT '',
		category VARCHAR(50) NOT NULL CHECK (category IN ('Starter', 'Pro', 'Enterprise')),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS investments (
		id BIGSERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		product_id INTEGER NOT NULL,
		product_name TEXT NOT NULL,
		amount BIGINT NOT NULL,
		daily_return BIGINT NOT NULL,
		purchase_date TIMESTAMP WITH TIME ZONE NOT NULL,
		expiry_date TIMESTAMP WITH TIME ZONE NOT NULL,
		last_collection_date TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		CHECK (last_collection_date <= expiry_date)
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		type VARCHAR(20) NOT NULL CHECK (type IN ('recharge', 'withdraw', 'bonus', 'investment')),
		amount BIGINT NOT NULL CHECK (amount > 0),
		status VARCHAR(20) NOT NULL CHECK (status IN ('pending', 'completed', 'failed')) DEFAULT 'pending',
		reference TEXT UNIQUE NOT NULL,
		details TEXT,
		upi_id TEXT,
		utr TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS gift_codes (
		code TEXT PRIMARY KEY,
		reward_amount BIGINT NOT NULL CHECK (reward_amount > 0),
		max_uses INTEGER NOT NULL CHECK (max_uses > 0),
		current_uses INTEGER NOT NULL DEFAULT 0 CHECK (current_uses <= max_uses),
		expiry_date TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS gift_redemptions (
		id BIGSERIAL PRIMARY KEY,
		code TEXT NOT NULL REFERENCES gift_codes(code),
		user_id INTEGER NOT NULL REFERENCES users(id),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (code, user_id)
	);

	CREATE TABLE IF NOT EXISTS app_settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		app_name TEXT NOT NULL,
		app_logo TEXT NOT NULL,
		about_content TEXT NOT NULL,
		platform_upi TEXT NOT NULL,
		min_recharge BIGINT NOT NULL,
		min_withdrawal BIGINT NOT NULL,
		allow_withdrawals BOOLEAN NOT NULL DEFAULT TRUE
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_investments_user_id ON investments(user_id);
	CREATE INDEX IF NOT EXISTS idx_investments_expiry_date ON investments(expiry_date);
	CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);
	CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type);

	-- Default platform settings, single row
	INSERT INTO app_settings (id, app_name, app_logo, about_content, platform_upi, min_recharge, min_withdrawal, allow_withdrawals)
	VALUES (1, 'PowerGrid Invest', E'⚡', 'The leading energy investment network.', 'powergrid@upi', 50000, 10000, TRUE)
	ON CONFLICT (id) DO NOTHING;

	-- Starter catalog, seeded only into an empty table
	INSERT INTO products (name, price, daily_income, validity_days, image, category)
	SELECT v.name, v.price, v.daily_income, v.validity_days, v.image, v.category
	FROM (VALUES
		('Eco-Mini Power 1.0', 50000::bigint, 2500::bigint, 30, 'https://picsum.photos/seed/power1/400/400', 'Starter'),
		('Volt-Core Prime', 200000::bigint, 11000::bigint, 45, 'https://picsum.photos/seed/power2/400/400', 'Pro'),
		('Grid-Master 5000', 500000::bigint, 30000::bigint, 60, 'https://picsum.photos/seed/power3/400/400', 'Enterprise'),
		('Quantum Battery Hub', 1500000::bigint, 100000::bigint, 90, 'https://picsum.photos/seed/power4/400/400', 'Enterprise')
	) AS v(name, price, daily_income, validity_days, image, category)
	WHERE NOT EXISTS (SELECT 1 FROM products);
	`
	_, err := db.Exec(context.Background(), sql)
	if err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	log.Println("AutoMigrate applied successfully")
	return nil
}
