package data

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/summonlabs/summoner/internal/fsstore"
)

// MentionChange is one rewritten CSV row
type MentionChange struct {
	Number string
	Before string
	After  string
}

// MentionizeResult reports a rewrite of one CSV source
type MentionizeResult struct {
	Path    string
	Backup  string // empty on dry run
	Rows    int
	Changed []MentionChange
}

// NameMatcher finds a name as a whole word, case-insensitively
// Word characters are Unicode letters, digits and underscore, so "José" matches in "Hi José!".
type NameMatcher struct {
	re *regexp.Regexp
}

// NewNameMatcher creates a matcher for name
func NewNameMatcher(name string) (*NameMatcher, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(name))
	if err != nil {
		return nil, err
	}
	return &NameMatcher{re: re}, nil
}

// ReplaceAll replaces every whole-word occurrence in s with repl
func (m *NameMatcher) ReplaceAll(s, repl string) string {
	var b strings.Builder
	last, pos := 0, 0
	for pos < len(s) {
		loc := m.re.FindStringIndex(s[pos:])
		if loc == nil || loc[0] == loc[1] {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if wordBoundaryBefore(s, start) && wordBoundaryAfter(s, end) {
			b.WriteString(s[last:start])
			b.WriteString(repl)
			last, pos = end, end
			continue
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		pos = start + size
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func wordBoundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func wordBoundaryAfter(s string, i int) bool {
	if i == len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

// MentionizeCSV replaces every whole-word occurrence of the name in textColumn with mention
// Unless dryRun, the file is first copied to <path>.backup_YYYYMMDD_HHMMSS and then rewritten.
func MentionizeCSV(path, textColumn string, matcher *NameMatcher, mention string, dryRun bool, now time.Time) (*MentionizeResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return &MentionizeResult{Path: path}, nil
	}

	numCol, textCol := -1, -1
	for i, name := range records[0] {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case "number":
			numCol = i
		case textColumn:
			textCol = i
		}
	}
	if textCol < 0 {
		return nil, fmt.Errorf("missing column %s in %s", textColumn, path)
	}

	result := &MentionizeResult{Path: path, Rows: len(records) - 1}
	for _, record := range records[1:] {
		if textCol >= len(record) {
			continue
		}
		before := record[textCol]
		after := matcher.ReplaceAll(before, mention)
		if after == before {
			continue
		}
		record[textCol] = after
		change := MentionChange{Before: before, After: after}
		if numCol >= 0 && numCol < len(record) {
			change.Number = record[numCol]
		}
		result.Changed = append(result.Changed, change)
	}

	if dryRun || len(result.Changed) == 0 {
		return result, nil
	}

	backup := path + ".backup_" + now.Format("20060102_150405")
	if err := fsstore.WriteFileAtomic(backup, raw); err != nil {
		return nil, fmt.Errorf("failed to back up %s: %w", path, err)
	}
	result.Backup = backup

	var out bytes.Buffer
	writer := csv.NewWriter(&out)
	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := fsstore.WriteFileAtomic(path, out.Bytes()); err != nil {
		return nil, err
	}
	return result, nil
}

// PhrasesColumn and HaikusColumn are the text columns of the two CSV sources
const (
	PhrasesColumn = "phrase"
	HaikusColumn  = "haiku"
)
