package biz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/biz/usecase"
	"github.com/summonlabs/summoner/internal/data"
)

func TestNewUsecases_CorruptFilesDoNotBlockStartup(t *testing.T) {
	dir := t.TempDir()
	paths := data.MessagePaths{
		PoolFile:   filepath.Join(dir, "summoning_messages.json"),
		UsedFile:   filepath.Join(dir, "used_messages.json"),
		PhrasesCSV: filepath.Join(dir, "summoning_phrases.csv"),
		HaikusCSV:  filepath.Join(dir, "summoning_haikus.csv"),
	}
	stateFile := filepath.Join(dir, "bot_data.json")
	files := map[string]string{
		paths.PoolFile:   "not json",
		paths.UsedFile:   "{",
		paths.PhrasesCSV: "number,phrase\n1,come back\n2,where are you\n",
		stateFile:        `{"watched_offline_since":"2024-03-10T09:00:00","watched_status":"offline"}`,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ucs, err := NewUsecases(
		Repos{
			Message: data.NewMessageRepo(paths, "42", nil),
			State:   data.NewStateRepo(stateFile, nil),
		},
		nil,
		usecase.SummonConfig{WatchedUserID: "42"},
		usecase.DefaultCleanupConfig(),
		nil,
	)
	if err != nil {
		t.Fatalf("NewUsecases() error = %v", err)
	}

	if stats := ucs.Pool.Stats(); stats.Total != 2 || stats.Used != 0 {
		t.Errorf("Expected 2 messages and none used, got %+v", stats)
	}
	state := ucs.State.Snapshot()
	if state.OfflineSince == nil || state.LastKnownStatus != domain.StatusOffline {
		t.Errorf("Expected persisted offline period, got %+v", state)
	}
}
