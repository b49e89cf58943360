package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens the Postgres connection pool and applies migrations.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	db.SetMaxOpenConns(10)

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS neighborhoods (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            city TEXT NOT NULL DEFAULT '',
            state TEXT NOT NULL DEFAULT '',
            zip_codes TEXT[] NOT NULL DEFAULT '{}',
            member_count INT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS neighborhoods_zip_codes_idx ON neighborhoods USING GIN (zip_codes);`,
	`CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            bio TEXT NOT NULL DEFAULT '',
            avatar TEXT NOT NULL DEFAULT '',
            zip_code TEXT NOT NULL DEFAULT '',
            neighborhood_id UUID NOT NULL REFERENCES neighborhoods(id),
            role TEXT NOT NULL DEFAULT 'resident',
            is_verified BOOLEAN NOT NULL DEFAULT FALSE,
            skills TEXT[] NOT NULL DEFAULT '{}',
            last_active TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS users_neighborhood_idx ON users (neighborhood_id);`,
	`CREATE TABLE IF NOT EXISTS messages (
            id UUID PRIMARY KEY,
            sender_id UUID NOT NULL REFERENCES users(id),
            recipient_id UUID NOT NULL REFERENCES users(id),
            content VARCHAR(1000) NOT NULL,
            conversation_id TEXT NOT NULL,
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            read_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS messages_conversation_idx ON messages (conversation_id, created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS messages_participants_idx ON messages (sender_id, recipient_id);`,
	`CREATE INDEX IF NOT EXISTS messages_unread_idx ON messages (recipient_id, is_read);`,
	`CREATE TABLE IF NOT EXISTS forum_posts (
            id UUID PRIMARY KEY,
            title VARCHAR(200) NOT NULL,
            content VARCHAR(5000) NOT NULL,
            category TEXT NOT NULL,
            tags TEXT[] NOT NULL DEFAULT '{}',
            images TEXT[] NOT NULL DEFAULT '{}',
            author_id UUID NOT NULL REFERENCES users(id),
            neighborhood_id UUID NOT NULL REFERENCES neighborhoods(id),
            like_count INT NOT NULL DEFAULT 0,
            comment_count INT NOT NULL DEFAULT 0,
            views INT NOT NULL DEFAULT 0,
            is_sticky BOOLEAN NOT NULL DEFAULT FALSE,
            is_solved BOOLEAN NOT NULL DEFAULT FALSE,
            last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS forum_posts_neighborhood_idx ON forum_posts (neighborhood_id, category, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS forum_likes (
            post_id UUID NOT NULL REFERENCES forum_posts(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES users(id),
            liked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(post_id, user_id)
        );`,
	`CREATE TABLE IF NOT EXISTS forum_comments (
            id UUID PRIMARY KEY,
            post_id UUID NOT NULL REFERENCES forum_posts(id) ON DELETE CASCADE,
            author_id UUID NOT NULL REFERENCES users(id),
            content VARCHAR(1000) NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE TABLE IF NOT EXISTS marketplace_listings (
            id UUID PRIMARY KEY,
            title VARCHAR(100) NOT NULL,
            description VARCHAR(2000) NOT NULL,
            category TEXT NOT NULL,
            condition TEXT NOT NULL,
            price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
            price_type TEXT NOT NULL DEFAULT 'fixed',
            status TEXT NOT NULL DEFAULT 'available',
            seller_id UUID NOT NULL REFERENCES users(id),
            neighborhood_id UUID NOT NULL REFERENCES neighborhoods(id),
            images TEXT[] NOT NULL DEFAULT '{}',
            tags TEXT[] NOT NULL DEFAULT '{}',
            favorite_count INT NOT NULL DEFAULT 0,
            bumped_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS marketplace_listings_neighborhood_idx ON marketplace_listings (neighborhood_id, status, bumped_at DESC);`,
	`CREATE TABLE IF NOT EXISTS marketplace_favorites (
            listing_id UUID NOT NULL REFERENCES marketplace_listings(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES users(id),
            PRIMARY KEY(listing_id, user_id)
        );`,
	`CREATE TABLE IF NOT EXISTS safety_reports (
            id UUID PRIMARY KEY,
            title VARCHAR(200) NOT NULL,
            description VARCHAR(2000) NOT NULL,
            type TEXT NOT NULL,
            severity TEXT NOT NULL DEFAULT 'medium',
            status TEXT NOT NULL DEFAULT 'active',
            address TEXT NOT NULL,
            latitude DOUBLE PRECISION NOT NULL,
            longitude DOUBLE PRECISION NOT NULL,
            reporter_id UUID NOT NULL REFERENCES users(id),
            neighborhood_id UUID NOT NULL REFERENCES neighborhoods(id),
            is_anonymous BOOLEAN NOT NULL DEFAULT FALSE,
            is_verified BOOLEAN NOT NULL DEFAULT FALSE,
            images TEXT[] NOT NULL DEFAULT '{}',
            tags TEXT[] NOT NULL DEFAULT '{}',
            acknowledged_count INT NOT NULL DEFAULT 0,
            police_reported BOOLEAN NOT NULL DEFAULT FALSE,
            police_report_number TEXT NOT NULL DEFAULT '',
            incident_at TIMESTAMPTZ NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS safety_reports_neighborhood_idx ON safety_reports (neighborhood_id, type, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS safety_acknowledgements (
            report_id UUID NOT NULL REFERENCES safety_reports(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES users(id),
            acknowledged_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(report_id, user_id)
        );`,
	`ALTER TABLE marketplace_favorites ADD COLUMN IF NOT EXISTS favorited_at TIMESTAMPTZ NOT NULL DEFAULT NOW();`,
	`ALTER TABLE safety_reports ADD COLUMN IF NOT EXISTS verified_by UUID REFERENCES users(id);`,
	`CREATE TABLE IF NOT EXISTS safety_comments (
            id UUID PRIMARY KEY,
            report_id UUID NOT NULL REFERENCES safety_reports(id) ON DELETE CASCADE,
            author_id UUID NOT NULL REFERENCES users(id),
            content VARCHAR(500) NOT NULL,
            is_anonymous BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS safety_comments_report_idx ON safety_comments (report_id, created_at);`,
}

func runMigrations(ctx context.Context, db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
