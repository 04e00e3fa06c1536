package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"plusauto-intel/models"
)

// SQLiteStore persists sessions to an embedded SQLite database. This is the
// default driver: the agent is a single local binary and carries its record
// store with it.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database file and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single connection avoids SQLITE_BUSY on concurrent sessions; writes
	// are one small transaction per run.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS intelligence_sessions (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id         TEXT UNIQUE NOT NULL,
			timestamp          TEXT NOT NULL,
			mode               TEXT NOT NULL,
			insights_generated INTEGER NOT NULL,
			confidence_average REAL NOT NULL,
			data_points        INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS marketplace_intelligence (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id        TEXT NOT NULL REFERENCES intelligence_sessions(session_id),
			timestamp         TEXT NOT NULL,
			total_listings    INTEGER NOT NULL,
			avg_price         REAL NOT NULL,
			median_price      REAL NOT NULL,
			luxury_percentage REAL NOT NULL,
			market_trend      TEXT NOT NULL,
			raw_data          TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS dealer_intelligence (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id    TEXT NOT NULL REFERENCES intelligence_sessions(session_id),
			timestamp     TEXT NOT NULL,
			dealer_name   TEXT NOT NULL,
			listing_count INTEGER NOT NULL,
			market_share  REAL NOT NULL
		);

		CREATE TABLE IF NOT EXISTS ai_insights (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id       TEXT NOT NULL REFERENCES intelligence_sessions(session_id),
			timestamp        TEXT NOT NULL,
			insight_type     TEXT NOT NULL,
			title            TEXT NOT NULL,
			description      TEXT NOT NULL,
			confidence_score REAL NOT NULL,
			impact_level     TEXT NOT NULL,
			recommendation   TEXT NOT NULL DEFAULT ''
		);
	`)
	return err
}

// Save writes the whole session in one transaction.
func (s *SQLiteStore) Save(session *models.IntelligenceSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("sqlite: marshal session: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	ts := session.Timestamp.Format(time.RFC3339)

	_, err = tx.Exec(`
		INSERT INTO intelligence_sessions
			(session_id, timestamp, mode, insights_generated, confidence_average, data_points)
		VALUES (?, ?, ?, ?, ?, ?)`,
		session.SessionID, ts, session.Mode,
		session.Summary.InsightsGenerated, session.Summary.ConfidenceAverage,
		session.Aggregates.SampleSize,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert session: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO marketplace_intelligence
			(session_id, timestamp, total_listings, avg_price, median_price,
			 luxury_percentage, market_trend, raw_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.SessionID, ts, session.TotalListings,
		session.Aggregates.AveragePrice, session.Aggregates.MedianPrice,
		session.Aggregates.LuxuryPct, session.Aggregates.DominantSegment,
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert marketplace row: %w", err)
	}

	for _, dealer := range session.TopDealers {
		_, err = tx.Exec(`
			INSERT INTO dealer_intelligence
				(session_id, timestamp, dealer_name, listing_count, market_share)
			VALUES (?, ?, ?, ?, ?)`,
			session.SessionID, ts, dealer.Name, dealer.ListingCount,
			dealer.MarketShare(session.TotalListings),
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert dealer row: %w", err)
		}
	}

	for _, ins := range session.Insights {
		_, err = tx.Exec(`
			INSERT INTO ai_insights
				(session_id, timestamp, insight_type, title, description,
				 confidence_score, impact_level, recommendation)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			session.SessionID, ts, string(ins.Kind), ins.Title, ins.Description,
			ins.Confidence, string(ins.Impact), ins.Recommendation,
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert insight row: %w", err)
		}
	}

	return tx.Commit()
}

// Get retrieves a previously saved session by ID.
func (s *SQLiteStore) Get(sessionID string) (*models.IntelligenceSession, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT raw_data FROM marketplace_intelligence WHERE session_id = ?`,
		sessionID,
	).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get %s: %w", sessionID, err)
	}

	var session models.IntelligenceSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("sqlite: decode %s: %w", sessionID, err)
	}
	return &session, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
