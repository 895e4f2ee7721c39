package postgres

import (
	"NoticeBoard/internal/core/domain"
	"NoticeBoard/internal/core/ports"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

type journalRepository struct {
	db     *DB
	sealer ports.PayloadSealer // Optional; nil stores payloads in the clear
	log    zerolog.Logger
}

var _ ports.PublicationJournal = (*journalRepository)(nil) // Ensure compliance

// JournalRepository is the Postgres publication journal.
type JournalRepository interface {
	ports.PublicationJournal
	EnsureSchema(ctx context.Context) error
}

// NewJournalRepository creates a new journal backed by db.
func NewJournalRepository(db *DB, sealer ports.PayloadSealer, baseLogger *zerolog.Logger) JournalRepository {
	return &journalRepository{
		db:     db,
		sealer: sealer,
		log:    baseLogger.With().Str("component", "journal_repo").Logger(),
	}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS publications (
		id           UUID PRIMARY KEY,
		event        TEXT NOT NULL,
		payload      TEXT NOT NULL,
		sealed       BOOLEAN NOT NULL,
		delivered    INTEGER NOT NULL,
		failed       INTEGER NOT NULL,
		published_at TIMESTAMPTZ NOT NULL,
		duration_ms  BIGINT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS publications_event_idx ON publications (event, published_at DESC)`,
}

// EnsureSchema creates the publications table if it does not exist yet.
func (r *journalRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.pool.Exec(ctx, stmt); err != nil {
			r.log.Error().Err(err).Msg("Failed to create journal schema")
			return fmt.Errorf("ensure journal schema: %w", err)
		}
	}
	return nil
}

// Append stores a snapshot of pub. The payload is JSON-encoded and sealed
// when a sealer is configured.
func (r *journalRepository) Append(ctx context.Context, pub domain.Publication) error {
	// 1. Snapshot and protect the payload
	stored, err := r.encodePayload(pub)
	if err != nil {
		return err
	}

	// 2. Insert into database
	query := `
		INSERT INTO publications (
			id, event, payload, sealed, delivered, failed, published_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.pool.Exec(ctx, query,
		pub.ID,
		pub.Event,
		stored,
		r.sealer != nil,
		pub.Delivered,
		len(pub.Failures),
		pub.StartedAt,
		pub.Duration.Milliseconds(),
	)
	if err != nil {
		r.log.Error().Err(err).Str("event", pub.Event).Msg("Failed to insert publication")
		return fmt.Errorf("append publication %s: %w", pub.ID, err)
	}
	return nil
}

// encodePayload returns the text stored in the payload column.
func (r *journalRepository) encodePayload(pub domain.Publication) (string, error) {
	raw, err := json.Marshal(pub.Payload)
	if err != nil {
		// Channels, funcs and the like cannot be journaled; keep their type
		r.log.Warn().Err(err).Str("event", pub.Event).Msg("Payload is not JSON-encodable, storing its type only")
		raw, _ = json.Marshal(map[string]string{"unencodable": fmt.Sprintf("%T", pub.Payload)})
	}

	if r.sealer == nil {
		return string(raw), nil
	}

	sealed, err := r.sealer.Seal(raw)
	if err != nil {
		r.log.Error().Err(err).Str("event", pub.Event).Msg("Failed to seal payload")
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// ListByEvent returns the most recent publications of event, newest first.
func (r *journalRepository) ListByEvent(ctx context.Context, event string, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, event, payload, sealed, delivered, failed, published_at, duration_ms, created_at
		FROM publications
		WHERE event = $1
		ORDER BY published_at DESC
		LIMIT $2
	`
	rows, err := r.db.pool.Query(ctx, query, event, limit)
	if err != nil {
		r.log.Error().Err(err).Str("event", event).Msg("Failed to query publications")
		return nil, err
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		var stored string
		var sealed bool

		if err := rows.Scan(
			&e.ID,
			&e.Event,
			&stored,
			&sealed,
			&e.Delivered,
			&e.Failed,
			&e.PublishedAt,
			&e.DurationMS,
			&e.CreatedAt,
		); err != nil {
			r.log.Error().Err(err).Msg("Failed to scan publication row")
			return nil, err
		}

		payload, err := r.decodePayload(stored, sealed)
		if err != nil {
			r.log.Error().Err(err).Str("publication_id", e.ID.String()).Msg("Failed to open journaled payload")
			return nil, err
		}
		e.Payload = payload
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// decodePayload reverses encodePayload.
func (r *journalRepository) decodePayload(stored string, sealed bool) ([]byte, error) {
	if !sealed {
		return []byte(stored), nil
	}
	if r.sealer == nil {
		return nil, fmt.Errorf("payload is sealed but no sealer is configured")
	}

	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return nil, fmt.Errorf("base64-decode payload: %w", err)
	}
	return r.sealer.Open(raw)
}
