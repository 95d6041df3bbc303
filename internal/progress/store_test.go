package progress

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"log/slog"

	"github.com/cornellj834-lang/Lego-Adventure-App/internal/config"
	"github.com/cornellj834-lang/Lego-Adventure-App/internal/protocol"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(context.Background(), config.ProgressConfig{
		Path: filepath.Join(t.TempDir(), "progress.db"),
	}, log)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadDefaultsWhenEmpty(t *testing.T) {
	s := openTestStore(t)
	state := s.Load(context.Background())
	if len(state.CompletedMissions) != 0 {
		t.Fatalf("fresh save has missions %v", state.CompletedMissions)
	}
	if state.Level != "ADVENTURE" {
		t.Fatalf("fresh save level = %q, want ADVENTURE", state.Level)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	want := protocol.ProgressState{
		CompletedMissions: []string{"veh-racer", "dino-rex"},
		Level:             "TINY",
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := s.Load(ctx)
	if got.Level != want.Level {
		t.Fatalf("level = %q, want %q", got.Level, want.Level)
	}
	if len(got.CompletedMissions) != 2 || got.CompletedMissions[0] != "veh-racer" {
		t.Fatalf("missions = %v", got.CompletedMissions)
	}
}

func TestSaveOverwritesSlot(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	s.Save(ctx, protocol.ProgressState{CompletedMissions: []string{"a"}, Level: "TINY"})
	s.Save(ctx, protocol.ProgressState{CompletedMissions: []string{"a", "b"}, Level: "ADVENTURE"})

	got := s.Load(ctx)
	if len(got.CompletedMissions) != 2 || got.Level != "ADVENTURE" {
		t.Fatalf("got %+v after overwrite", got)
	}
}

func TestResetClearsSave(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	s.Save(ctx, protocol.ProgressState{CompletedMissions: []string{"a"}, Level: "TINY"})
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	got := s.Load(ctx)
	if len(got.CompletedMissions) != 0 || got.Level != "ADVENTURE" {
		t.Fatalf("got %+v after reset, want defaults", got)
	}
}

func TestLoadToleratesCorruptRow(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO saves(slot, state, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)`,
		saveSlot, "{not json"); err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	got := s.Load(ctx)
	if got.Level != "ADVENTURE" || len(got.CompletedMissions) != 0 {
		t.Fatalf("corrupt save should load defaults, got %+v", got)
	}
}
