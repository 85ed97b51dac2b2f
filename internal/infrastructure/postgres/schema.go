package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"servicemarket/pkg/logger"
)

// Constraint names the repositories match on.
const (
	ConstraintUsersPhone        = "users_phone_number_key"
	ConstraintCategoriesName    = "categories_name_key"
	ConstraintOfferPerProvider  = "offers_demand_provider_key"
	ConstraintReviewPerOffer    = "reviews_reviewer_offer_key"
	ConstraintReviewPerUserPair = "reviews_reviewer_user_key"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		phone_number TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NULL,
		user_type TEXT NOT NULL CHECK (user_type IN ('PROVIDER', 'RECEIVER')),
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		balance NUMERIC(14, 2) NOT NULL DEFAULT 0,
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		rating_count INTEGER NOT NULL DEFAULT 0,
		fcm_token TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT users_phone_number_key UNIQUE (phone_number)
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		parent_id UUID NULL REFERENCES categories(id) ON DELETE RESTRICT,
		commission_rate NUMERIC(10, 4) NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		image_url TEXT NOT NULL DEFAULT '',
		questions JSONB NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT categories_name_key UNIQUE (name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_categories_parent ON categories(parent_id)`,
	`CREATE TABLE IF NOT EXISTS user_categories (
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		category_id UUID NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
		PRIMARY KEY (user_id, category_id)
	)`,
	`CREATE SEQUENCE IF NOT EXISTS demand_number_seq START WITH 1000000 MINVALUE 1000000 MAXVALUE 9999999`,
	`CREATE TABLE IF NOT EXISTS demands (
		id UUID PRIMARY KEY,
		demand_number BIGINT NOT NULL UNIQUE DEFAULT nextval('demand_number_seq'),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		category_id UUID NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		district TEXT NOT NULL DEFAULT '',
		answers JSONB NULL,
		status TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE', 'CLOSED', 'COMPLETED', 'CANCELLED')),
		is_approved BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_demands_listing ON demands(is_approved, category_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_demands_owner ON demands(user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS offers (
		id UUID PRIMARY KEY,
		demand_id UUID NOT NULL REFERENCES demands(id) ON DELETE CASCADE,
		provider_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		price NUMERIC(14, 2) NOT NULL CHECK (price >= 0),
		estimated_time TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'ACCEPTED', 'REJECTED', 'COMPLETED')),
		provider_completed BOOLEAN NOT NULL DEFAULT FALSE,
		is_approved BOOLEAN NOT NULL DEFAULT TRUE,
		commission_amount NUMERIC(14, 2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT offers_demand_provider_key UNIQUE (demand_id, provider_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_offers_provider ON offers(provider_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL,
		data JSONB NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE is_read = FALSE`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id UUID PRIMARY KEY,
		reviewer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		reviewed_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		offer_id UUID NULL REFERENCES offers(id) ON DELETE SET NULL,
		rating SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (reviewer_id <> reviewed_user_id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS reviews_reviewer_offer_key ON reviews(reviewer_id, offer_id) WHERE offer_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS reviews_reviewer_user_key ON reviews(reviewer_id, reviewed_user_id) WHERE offer_id IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_reviewed ON reviews(reviewed_user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS charities (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_charities_city ON charities(city) WHERE is_active`,
}

// EnsureSchema creates missing tables, sequences and indexes. Statements are
// idempotent so it runs on every start.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	logger.Info("database schema ensured (%d statements)", len(schemaStatements))
	return nil
}
