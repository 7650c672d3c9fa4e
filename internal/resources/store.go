package resources

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
)

// StoreConfig configures a Store.
type StoreConfig struct {
	// Root is the resource root holding alphabets/, the indices and index.json.
	Root string
	// FreqDir overrides <Root>/freq as the rank table directory.
	FreqDir string
	// Logger receives recovered resource errors at debug level.
	Logger *slog.Logger
}

// Store is a read-through cache over a resource root. Every resource is
// loaded at most once per process; entries are immutable after loading and
// safe for concurrent readers. Missing or malformed resources are cached as
// absent and never reported as errors.
type Store struct {
	root    string
	freqDir string
	logger  *slog.Logger

	rankTables sync.Map // key: rankKey, value: *rankEntry
	alphabets  sync.Map // key: code, value: *alphabetEntry

	charIndexOnce   sync.Once
	charIndex       *CharIndex
	scriptIndexOnce sync.Once
	scriptIndex     *ScriptIndex
	catalogOnce     sync.Once
	catalog         Catalog
	languagesOnce   sync.Once
	languages       []string

	rankLoads     atomic.Int64
	alphabetLoads atomic.Int64
}

type rankKey struct {
	dir  string
	code string
}

type rankEntry struct {
	once  sync.Once
	table RankTable
}

type alphabetEntry struct {
	once     sync.Once
	alphabet *Alphabet
}

// NewStore creates a Store for cfg. An empty Root uses DefaultRoot().
func NewStore(cfg StoreConfig) *Store {
	root := cfg.Root
	if root == "" {
		root = DefaultRoot()
	}
	freqDir := cfg.FreqDir
	if freqDir == "" {
		freqDir = filepath.Join(root, FreqDir)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: root, freqDir: freqDir, logger: logger}
}

// Root returns the resource root.
func (s *Store) Root() string { return s.root }

// FreqDir returns the rank table directory.
func (s *Store) FreqDir() string { return s.freqDir }

// RankTable returns the rank table of code from the store's rank table
// directory. An absent or unreadable table is returned as an empty word table.
func (s *Store) RankTable(code string) RankTable {
	return s.RankTableAt(s.freqDir, code)
}

// RankTableAt returns the rank table of code from dir, memoized per (dir, code).
func (s *Store) RankTableAt(dir, code string) RankTable {
	key := rankKey{dir: dir, code: code}
	v, ok := s.rankTables.Load(key)
	if !ok {
		v, _ = s.rankTables.LoadOrStore(key, &rankEntry{})
	}
	entry, ok := v.(*rankEntry)
	if !ok {
		return RankTable{Mode: ModeWord}
	}

	entry.once.Do(func() {
		s.rankLoads.Add(1)
		table, err := ReadRankTable(dir, code)
		if err != nil {
			s.logRecovered("rank table", code, err)
			table = RankTable{Mode: ModeWord, Ranks: map[string]int{}}
		}
		entry.table = table
	})
	return entry.table
}

// Alphabet returns the alphabet metadata of code, or false when none exists.
func (s *Store) Alphabet(code string) (*Alphabet, bool) {
	v, ok := s.alphabets.Load(code)
	if !ok {
		v, _ = s.alphabets.LoadOrStore(code, &alphabetEntry{})
	}
	entry, ok := v.(*alphabetEntry)
	if !ok {
		return nil, false
	}

	entry.once.Do(func() {
		s.alphabetLoads.Add(1)
		a, err := ReadAlphabet(s.root, code)
		if err != nil {
			s.logRecovered("alphabet", code, err)
			return
		}
		entry.alphabet = a
	})
	return entry.alphabet, entry.alphabet != nil
}

// CharIndex returns the character index, or false when the root has none.
func (s *Store) CharIndex() (*CharIndex, bool) {
	s.charIndexOnce.Do(func() {
		ci, err := ReadCharIndex(s.root)
		if err != nil {
			s.logRecovered("character index", "", err)
			return
		}
		s.charIndex = ci
	})
	return s.charIndex, s.charIndex != nil
}

// ScriptIndex returns the script index, or false when the root has none.
func (s *Store) ScriptIndex() (*ScriptIndex, bool) {
	s.scriptIndexOnce.Do(func() {
		si, err := ReadScriptIndex(s.root)
		if err != nil {
			s.logRecovered("script index", "", err)
			return
		}
		s.scriptIndex = si
	})
	return s.scriptIndex, s.scriptIndex != nil
}

// Catalog returns the language catalog, or false when the root has none.
func (s *Store) Catalog() (Catalog, bool) {
	s.catalogOnce.Do(func() {
		c, err := ReadCatalog(s.root)
		if err != nil {
			s.logRecovered("catalog", "", err)
			return
		}
		s.catalog = c
	})
	return s.catalog, s.catalog != nil
}

// Languages returns the language universe of the root: the catalog codes when
// a catalog exists, otherwise the union of alphabet and rank table file stems.
// The slice is shared; callers must not modify it.
func (s *Store) Languages() []string {
	s.languagesOnce.Do(func() {
		if c, ok := s.Catalog(); ok {
			if codes := c.Codes(); len(codes) > 0 {
				s.languages = codes
				return
			}
		}
		s.languages = AvailableCodes(s.root, s.freqDir)
	})
	return s.languages
}

// Stats reports how many resources the store has loaded so far.
type Stats struct {
	RankTables int64 `json:"rank_tables"`
	Alphabets  int64 `json:"alphabets"`
}

// Stats returns load counters.
func (s *Store) Stats() Stats {
	return Stats{RankTables: s.rankLoads.Load(), Alphabets: s.alphabetLoads.Load()}
}

func (s *Store) logRecovered(kind, code string, err error) {
	reason := "error"
	switch {
	case errors.Is(err, ErrResourceMissing):
		reason = "missing"
	case errors.Is(err, ErrResourceMalformed):
		reason = "malformed"
	}
	s.logger.Debug("resource unavailable, treating as no evidence",
		"kind", kind, "code", code, "root", s.root, "reason", reason, "error", err)
}

// AvailableCodes returns the sorted union of language codes that have an
// alphabet under root or a rank table in freqDir.
func AvailableCodes(root, freqDir string) []string {
	if freqDir == "" {
		freqDir = filepath.Join(root, FreqDir)
	}
	merged := make(map[string]struct{})
	for _, c := range listStems(filepath.Join(root, AlphabetsDir), alphabetExt, true) {
		merged[c] = struct{}{}
	}
	for _, c := range listStems(freqDir, rankTableExt, false) {
		merged[c] = struct{}{}
	}
	out := make([]string, 0, len(merged))
	for c := range merged {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
