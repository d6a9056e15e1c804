package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/biz/repo"
	"github.com/summonlabs/summoner/internal/fsstore"
)

// haikuLineSeparator separates haiku lines inside a single CSV cell
const haikuLineSeparator = " / "

// MessagePaths locates the message store files
type MessagePaths struct {
	PoolFile   string // cached pool (JSON)
	UsedFile   string // used id set (JSON)
	PhrasesCSV string // columns: number, phrase
	HaikusCSV  string // columns: number, haiku
}

// messageRepo implements the message store over JSON files and CSV sources
type messageRepo struct {
	paths         MessagePaths
	watchedUserID string
	logger        *slog.Logger
}

type usedFile struct {
	UsedIDs []int `json:"used_ids"`
}

// NewMessageRepo creates a new message repository
// watchedUserID is used to address the built-in fallback messages.
func NewMessageRepo(paths MessagePaths, watchedUserID string, logger *slog.Logger) repo.MessageRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &messageRepo{
		paths:         paths,
		watchedUserID: watchedUserID,
		logger:        logger.With("component", "message_store"),
	}
}

// LoadPool loads the cached pool, falling back to the flat sources
// An undecodable cache is treated as absent and rebuilt.
func (r *messageRepo) LoadPool() ([]domain.Message, error) {
	var msgs []domain.Message
	ok, err := fsstore.ReadJSON(r.paths.PoolFile, &msgs)
	if errors.Is(err, fsstore.ErrDecodeFailed) {
		r.logger.Warn("message pool cache unreadable, rebuilding from sources", "path", r.paths.PoolFile, "error", err)
		ok, msgs = false, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load message pool: %w", err)
	}
	if ok && len(msgs) > 0 {
		return msgs, nil
	}

	msgs, err = r.LoadSources()
	if err != nil {
		return nil, err
	}
	if err := r.SavePool(msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// LoadSources reads phrases and haikus from CSV, or the fallback set if both are empty
func (r *messageRepo) LoadSources() ([]domain.Message, error) {
	var msgs []domain.Message

	phrases, err := r.readCSV(r.paths.PhrasesCSV, PhrasesColumn, domain.KindPhrase)
	if err != nil {
		return nil, err
	}
	msgs = append(msgs, phrases...)

	haikus, err := r.readCSV(r.paths.HaikusCSV, HaikusColumn, domain.KindHaiku)
	if err != nil {
		return nil, err
	}
	msgs = append(msgs, haikus...)

	if len(msgs) == 0 {
		r.logger.Warn("no CSV messages found, using fallback messages")
		msgs = fallbackMessages(r.watchedUserID)
	}
	return msgs, nil
}

// readCSV reads one source; a missing file yields zero messages
func (r *messageRepo) readCSV(path, textColumn string, kind domain.Kind) ([]domain.Message, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Info("message source not found", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	msgs, skipped, err := parseMessageCSV(f, textColumn, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if skipped > 0 {
		r.logger.Warn("skipped malformed rows", "path", path, "count", skipped)
	}
	r.logger.Info("loaded message source", "path", path, "kind", kind, "count", len(msgs))
	return msgs, nil
}

// parseMessageCSV parses a headed CSV with a "number" column and a text column
func parseMessageCSV(in io.Reader, textColumn string, kind domain.Kind) ([]domain.Message, int, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	idCol, textCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case "number":
			idCol = i
		case textColumn:
			textCol = i
		}
	}
	if idCol < 0 || textCol < 0 {
		return nil, 0, fmt.Errorf("missing columns number/%s in header %v", textColumn, header)
	}

	var msgs []domain.Message
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		if idCol >= len(record) || textCol >= len(record) {
			skipped++
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(record[idCol]))
		if err != nil {
			skipped++
			continue
		}
		text := record[textCol]
		if kind == domain.KindHaiku {
			text = strings.ReplaceAll(text, haikuLineSeparator, "\n")
		}
		msgs = append(msgs, domain.Message{ID: id, Text: text, Kind: kind})
	}
	return msgs, skipped, nil
}

// SavePool overwrites the cached pool
func (r *messageRepo) SavePool(msgs []domain.Message) error {
	if err := fsstore.WriteJSONAtomic(r.paths.PoolFile, msgs); err != nil {
		return fmt.Errorf("failed to save message pool: %w", err)
	}
	return nil
}

// LoadUsed loads the used id set
func (r *messageRepo) LoadUsed() (map[int]struct{}, error) {
	var f usedFile
	_, err := fsstore.ReadJSON(r.paths.UsedFile, &f)
	if errors.Is(err, fsstore.ErrDecodeFailed) {
		r.logger.Warn("used messages unreadable, starting with an empty set", "path", r.paths.UsedFile, "error", err)
		f = usedFile{}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load used messages: %w", err)
	}
	used := make(map[int]struct{}, len(f.UsedIDs))
	for _, id := range f.UsedIDs {
		used[id] = struct{}{}
	}
	return used, nil
}

// SaveUsed overwrites the used id set
func (r *messageRepo) SaveUsed(used map[int]struct{}) error {
	ids := make([]int, 0, len(used))
	for id := range used {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	if err := fsstore.WriteJSONAtomic(r.paths.UsedFile, usedFile{UsedIDs: ids}); err != nil {
		return fmt.Errorf("failed to save used messages: %w", err)
	}
	return nil
}

// DeleteCache removes the cached pool and used set
func (r *messageRepo) DeleteCache() error {
	if err := fsstore.Remove(r.paths.PoolFile); err != nil {
		return err
	}
	return fsstore.Remove(r.paths.UsedFile)
}

func fallbackMessages(userID string) []domain.Message {
	mention := domain.MentionFor(userID)
	return []domain.Message{
		{ID: 1, Text: "🔮 " + mention + " SUMMONING CIRCLE ACTIVATED 🔮", Kind: domain.KindPhrase},
		{ID: 2, Text: "Breaking news: Local legend spotted in chat for first time in 3 days", Kind: domain.KindPhrase},
		{ID: 3, Text: mention + " has vanished\nLike morning mist at sunrise\nThe chat grows silent", Kind: domain.KindHaiku},
		{ID: 4, Text: "Emergency: Need " + mention + "'s opinion on literally anything right now", Kind: domain.KindPhrase},
		{ID: 5, Text: "Last seen three months ago\nThe profile pic still smiles\nBut " + mention + " is absent", Kind: domain.KindHaiku},
	}
}
