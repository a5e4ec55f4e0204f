package database

import (
	"fmt"
	"log/slog"
)

// migrations выполняются по порядку при каждом старте и должны быть идемпотентны
var migrations = []string{
	createUsersTable,
	createEventsTable,
	createReviewsTable,
	createRegistrationsTable,
	createEventAnalyticsTable,
	createNotificationsTable,
	createNotificationReadsTable,
	convertTimestampsToTZ,
	createEventsDateIndex,
	createReviewsEventIndex,
	createRegistrationsEventIndex,
	createNotificationsRecipientIndex,
}

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	for i, migration := range migrations {
		slog.Debug("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully", "count", len(migrations))
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    username VARCHAR(100) UNIQUE NOT NULL,
    password_hash VARCHAR(100) NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'user',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (role IN ('user', 'admin'))
);`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id SERIAL PRIMARY KEY,
    title VARCHAR(300) NOT NULL,
    location VARCHAR(300) NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    date DATE NOT NULL,
    time VARCHAR(8) NOT NULL DEFAULT '',
    category VARCHAR(100) NOT NULL DEFAULT '',
    image TEXT NOT NULL DEFAULT '',
    price NUMERIC(10,2) NOT NULL DEFAULT 0,
    is_paid BOOLEAN NOT NULL DEFAULT FALSE,
    tickets_available INTEGER NOT NULL DEFAULT 0,
    registration_deadline TIMESTAMPTZ,
    max_registrations INTEGER NOT NULL DEFAULT 0,
    min_registrations INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    organizer_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (status IN ('active', 'cancelled', 'completed', 'draft')),
    CHECK (tickets_available >= 0)
);`

const createReviewsTable = `
CREATE TABLE IF NOT EXISTS reviews (
    id SERIAL PRIMARY KEY,
    event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    username VARCHAR(100) NOT NULL,
    review_text TEXT NOT NULL,
    rating INTEGER NOT NULL,
    sentiment VARCHAR(20) NOT NULL DEFAULT 'neutral',
    admin_response TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (rating BETWEEN 1 AND 5)
);`

const createRegistrationsTable = `
CREATE TABLE IF NOT EXISTS registrations (
    id SERIAL PRIMARY KEY,
    event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
    first_name VARCHAR(100) NOT NULL,
    last_name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL,
    phone VARCHAR(50) NOT NULL DEFAULT '',
    ticket_quantity INTEGER NOT NULL DEFAULT 1,
    payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
    total_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
    confirmation_code VARCHAR(32) UNIQUE NOT NULL,
    check_in_status BOOLEAN NOT NULL DEFAULT FALSE,
    checked_in_at TIMESTAMPTZ,
    checkout_session_id VARCHAR(255),
    payment_intent_id VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (ticket_quantity > 0),
    CHECK (payment_status IN ('pending', 'completed', 'failed', 'refunded', 'free'))
);`

const createEventAnalyticsTable = `
CREATE TABLE IF NOT EXISTS event_analytics (
    event_id INTEGER PRIMARY KEY REFERENCES events(id) ON DELETE CASCADE,
    attendance JSONB NOT NULL DEFAULT '{}',
    satisfaction JSONB NOT NULL DEFAULT '{}',
    ratings JSONB NOT NULL DEFAULT '{}',
    engagement JSONB NOT NULL DEFAULT '{}',
    positive_count INTEGER NOT NULL DEFAULT 0,
    neutral_count INTEGER NOT NULL DEFAULT 0,
    negative_count INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createNotificationsTable = `
CREATE TABLE IF NOT EXISTS notifications (
    id SERIAL PRIMARY KEY,
    recipient_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
    audience VARCHAR(20) NOT NULL,
    kind VARCHAR(30) NOT NULL,
    title VARCHAR(300) NOT NULL,
    message TEXT NOT NULL,
    metadata JSONB NOT NULL DEFAULT '{}',
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (audience IN ('user', 'admins', 'all')),
    CHECK (kind IN ('event', 'review', 'review_response', 'general'))
);`

// Состояние прочтения для рассылок администраторам и всем пользователям
const createNotificationReadsTable = `
CREATE TABLE IF NOT EXISTS notification_reads (
    notification_id INTEGER NOT NULL REFERENCES notifications(id) ON DELETE CASCADE,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    read_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    PRIMARY KEY (notification_id, user_id)
);`

// Базы со старой схемой хранили TIMESTAMP без зоны; прежние значения считаются UTC
const convertTimestampsToTZ = `
DO $$
DECLARE col record;
BEGIN
    FOR col IN
        SELECT table_name, column_name FROM information_schema.columns
        WHERE table_schema = current_schema()
          AND data_type = 'timestamp without time zone'
          AND table_name IN ('users', 'events', 'reviews', 'registrations', 'event_analytics',
                             'notifications', 'notification_reads')
    LOOP
        EXECUTE format('ALTER TABLE %I ALTER COLUMN %I TYPE TIMESTAMPTZ USING %I AT TIME ZONE ''UTC''',
                       col.table_name, col.column_name, col.column_name);
    END LOOP;
END $$;`

const createEventsDateIndex = `
CREATE INDEX IF NOT EXISTS events_date_idx ON events (date);`

const createReviewsEventIndex = `
CREATE INDEX IF NOT EXISTS reviews_event_created_idx ON reviews (event_id, created_at);`

const createRegistrationsEventIndex = `
CREATE INDEX IF NOT EXISTS registrations_event_idx ON registrations (event_id);`

const createNotificationsRecipientIndex = `
CREATE INDEX IF NOT EXISTS notifications_recipient_idx ON notifications (recipient_id, created_at DESC);`
