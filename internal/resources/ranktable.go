package resources

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/MeKo-Tech/walang/internal/tokenize"
)

// Mode says which unit a rank table ranks.
type Mode string

const (
	ModeWord   Mode = "word"
	ModeBigram Mode = "bigram"
)

// RankTable maps tokens to their 1-based frequency rank (1 = most frequent).
// The zero value is an empty word table.
type RankTable struct {
	Mode  Mode
	Ranks map[string]int
}

// Len returns the number of ranked tokens.
func (t RankTable) Len() int { return len(t.Ranks) }

// Empty reports whether the table has no entries.
func (t RankTable) Empty() bool { return len(t.Ranks) == 0 }

// Rank returns the rank of token, or false if it is not ranked.
func (t RankTable) Rank(token string) (int, bool) {
	r, ok := t.Ranks[token]
	return r, ok
}

// EffectiveMode returns the table mode, defaulting to ModeWord.
func (t RankTable) EffectiveMode() Mode {
	if t.Mode == ModeBigram {
		return ModeBigram
	}
	return ModeWord
}

// ParseRankTable reads a rank table: one token per line, most frequent first.
// An optional first line starting with '#' is a header; if it mentions
// "bigram" the table ranks bigrams. Blank lines are skipped but still occupy
// a rank position. When a token repeats, the first occurrence wins.
func ParseRankTable(r io.Reader) (RankTable, error) {
	table := RankTable{Mode: ModeWord, Ranks: make(map[string]int)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	rank := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineNum++
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
			if strings.HasPrefix(line, "#") {
				if strings.Contains(strings.ToLower(line), "bigram") {
					table.Mode = ModeBigram
				}
				continue
			}
		}

		rank++
		token := tokenize.Normalize(strings.TrimSpace(line))
		if token == "" {
			continue
		}
		if _, exists := table.Ranks[token]; exists {
			continue
		}
		table.Ranks[token] = rank
	}
	if err := scanner.Err(); err != nil {
		return RankTable{}, fmt.Errorf("%w: %w", ErrResourceMalformed, err)
	}
	return table, nil
}

// ReadRankTable loads the rank table for code from freqDir.
func ReadRankTable(freqDir, code string) (RankTable, error) {
	if !ValidCode(code) {
		return RankTable{}, fmt.Errorf("%w: invalid language code %q", ErrResourceMissing, code)
	}
	path := RankTablePath(freqDir, code)
	f, err := os.Open(path) //nolint:gosec // path built from a validated code
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RankTable{}, fmt.Errorf("%w: %s", ErrResourceMissing, path)
		}
		return RankTable{}, fmt.Errorf("failed to open rank table %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	table, err := ParseRankTable(f)
	if err != nil {
		return RankTable{}, fmt.Errorf("rank table %s: %w", path, err)
	}
	return table, nil
}
