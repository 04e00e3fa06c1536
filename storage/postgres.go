package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"plusauto-intel/models"
)

// PostgresStore persists sessions to PostgreSQL, for deployments where
// several agents share one record store. Same schema as the SQLite driver.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects, waits for the server to come up, and runs
// migrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS intelligence_sessions (
			id                 SERIAL PRIMARY KEY,
			session_id         TEXT UNIQUE NOT NULL,
			timestamp          TIMESTAMPTZ NOT NULL,
			mode               TEXT NOT NULL,
			insights_generated INTEGER NOT NULL,
			confidence_average DOUBLE PRECISION NOT NULL,
			data_points        INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS marketplace_intelligence (
			id                SERIAL PRIMARY KEY,
			session_id        TEXT NOT NULL REFERENCES intelligence_sessions(session_id),
			timestamp         TIMESTAMPTZ NOT NULL,
			total_listings    INTEGER NOT NULL,
			avg_price         DOUBLE PRECISION NOT NULL,
			median_price      DOUBLE PRECISION NOT NULL,
			luxury_percentage DOUBLE PRECISION NOT NULL,
			market_trend      TEXT NOT NULL,
			raw_data          TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS dealer_intelligence (
			id            SERIAL PRIMARY KEY,
			session_id    TEXT NOT NULL REFERENCES intelligence_sessions(session_id),
			timestamp     TIMESTAMPTZ NOT NULL,
			dealer_name   TEXT NOT NULL,
			listing_count INTEGER NOT NULL,
			market_share  DOUBLE PRECISION NOT NULL
		);

		CREATE TABLE IF NOT EXISTS ai_insights (
			id               SERIAL PRIMARY KEY,
			session_id       TEXT NOT NULL REFERENCES intelligence_sessions(session_id),
			timestamp        TIMESTAMPTZ NOT NULL,
			insight_type     TEXT NOT NULL,
			title            TEXT NOT NULL,
			description      TEXT NOT NULL,
			confidence_score DOUBLE PRECISION NOT NULL,
			impact_level     TEXT NOT NULL,
			recommendation   TEXT NOT NULL DEFAULT ''
		);
	`)
	return err
}

// Save writes the whole session in one transaction.
func (s *PostgresStore) Save(session *models.IntelligenceSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("postgres: marshal session: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO intelligence_sessions
			(session_id, timestamp, mode, insights_generated, confidence_average, data_points)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		session.SessionID, session.Timestamp, session.Mode,
		session.Summary.InsightsGenerated, session.Summary.ConfidenceAverage,
		session.Aggregates.SampleSize,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert session: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO marketplace_intelligence
			(session_id, timestamp, total_listings, avg_price, median_price,
			 luxury_percentage, market_trend, raw_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		session.SessionID, session.Timestamp, session.TotalListings,
		session.Aggregates.AveragePrice, session.Aggregates.MedianPrice,
		session.Aggregates.LuxuryPct, session.Aggregates.DominantSegment,
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("postgres: insert marketplace row: %w", err)
	}

	for _, dealer := range session.TopDealers {
		_, err = tx.Exec(`
			INSERT INTO dealer_intelligence
				(session_id, timestamp, dealer_name, listing_count, market_share)
			VALUES ($1, $2, $3, $4, $5)`,
			session.SessionID, session.Timestamp, dealer.Name, dealer.ListingCount,
			dealer.MarketShare(session.TotalListings),
		)
		if err != nil {
			return fmt.Errorf("postgres: insert dealer row: %w", err)
		}
	}

	for _, ins := range session.Insights {
		_, err = tx.Exec(`
			INSERT INTO ai_insights
				(session_id, timestamp, insight_type, title, description,
				 confidence_score, impact_level, recommendation)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			session.SessionID, session.Timestamp, string(ins.Kind), ins.Title,
			ins.Description, ins.Confidence, string(ins.Impact), ins.Recommendation,
		)
		if err != nil {
			return fmt.Errorf("postgres: insert insight row: %w", err)
		}
	}

	return tx.Commit()
}

// Get retrieves a previously saved session by ID.
func (s *PostgresStore) Get(sessionID string) (*models.IntelligenceSession, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT raw_data FROM marketplace_intelligence WHERE session_id = $1`,
		sessionID,
	).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("postgres: get %s: %w", sessionID, err)
	}

	var session models.IntelligenceSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("postgres: decode %s: %w", sessionID, err)
	}
	return &session, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
