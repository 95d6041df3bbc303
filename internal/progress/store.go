// Package progress persists the builder's save: completed mission stickers
// and the chosen tier. One save slot, overwritten in place.
package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/cornellj834-lang/Lego-Adventure-App/internal/config"
	"github.com/cornellj834-lang/Lego-Adventure-App/internal/content"
	"github.com/cornellj834-lang/Lego-Adventure-App/internal/protocol"
)

// saveSlot tags the single row. The version suffix invalidates saves from
// incompatible earlier layouts.
const saveSlot = "save_v3"

// Store wraps the SQLite-backed save file.
type Store struct {
	db    *sql.DB
	log   *slog.Logger
	clock func() time.Time
}

func Open(ctx context.Context, cfg config.ProgressConfig, log *slog.Logger) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	ddl := `
CREATE TABLE IF NOT EXISTS saves (
    slot TEXT PRIMARY KEY,
    state TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("init progress schema: %w", err)
	}

	return &Store{db: db, log: log.With(slog.String("component", "progress-store")), clock: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func defaultState() protocol.ProgressState {
	return protocol.ProgressState{
		CompletedMissions: []string{},
		Level:             string(content.LevelAdventure),
	}
}

// Load returns the save, or defaults when none exists. A corrupt row is
// treated as missing rather than surfaced; the app must always start.
func (s *Store) Load(ctx context.Context) protocol.ProgressState {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM saves WHERE slot = ?`, saveSlot).Scan(&raw)
	if err == sql.ErrNoRows {
		return defaultState()
	}
	if err != nil {
		s.log.Warn("load failed, using defaults", slog.String("error", err.Error()))
		return defaultState()
	}

	var state protocol.ProgressState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.log.Warn("corrupt save, using defaults", slog.String("error", err.Error()))
		return defaultState()
	}
	if state.CompletedMissions == nil {
		state.CompletedMissions = []string{}
	}
	if state.Level == "" {
		state.Level = string(content.LevelAdventure)
	}
	return state
}

// Save overwrites the slot with the given state.
func (s *Store) Save(ctx context.Context, state protocol.ProgressState) error {
	if state.CompletedMissions == nil {
		state.CompletedMissions = []string{}
	}
	if state.Level == "" {
		state.Level = string(content.LevelAdventure)
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saves(slot, state, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		saveSlot, string(raw), s.clock().UTC())
	return err
}

// Reset deletes the save slot.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, saveSlot)
	return err
}
