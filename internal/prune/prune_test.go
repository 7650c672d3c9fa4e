package prune

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MeKo-Tech/walang/internal/resources"
	"github.com/MeKo-Tech/walang/internal/testutil"
)

type fakeSource struct {
	charIndex   *resources.CharIndex
	scriptIndex *resources.ScriptIndex
	languages   []string
}

func (f fakeSource) CharIndex() (*resources.CharIndex, bool) {
	return f.charIndex, f.charIndex != nil
}

func (f fakeSource) ScriptIndex() (*resources.ScriptIndex, bool) {
	return f.scriptIndex, f.scriptIndex != nil
}

func (f fakeSource) Languages() []string { return f.languages }

func TestCandidates_UnionOfCharIndex(t *testing.T) {
	src := fakeSource{
		charIndex: &resources.CharIndex{CharToLanguages: map[string][]string{
			"ñ": {"es", "gl"},
			"a": {"es", "pt", "gl", "en"},
			"ç": {"pt", "fr"},
		}},
		languages: []string{"en", "es", "fr", "gl", "pt", "ru"},
	}
	p := New(src, nil)

	assert.Equal(t, []string{"es", "gl"}, p.Candidates("ñ"))
	assert.Equal(t, []string{"fr", "pt"}, p.Candidates("ç"))
	assert.Equal(t, []string{"en", "es", "pt", "gl"}, p.Candidates("Añ"))
}

func TestCandidates_FallsBackToUniverse(t *testing.T) {
	src := fakeSource{
		charIndex: &resources.CharIndex{CharToLanguages: map[string][]string{"a": {"en"}}},
		languages: []string{"xx", "ru", "en"},
	}
	p := New(src, nil)

	// No character of the text is indexed.
	assert.Equal(t, []string{"en", "ru", "xx"}, p.Candidates("ж"))

	// No character index at all.
	p = New(fakeSource{languages: []string{"zz", "de", "aa"}}, nil)
	assert.Equal(t, []string{"de", "aa", "zz"}, p.Candidates("hello"))
}

func TestCandidates_IgnoresLanguagesOutsideUniverse(t *testing.T) {
	src := fakeSource{
		charIndex: &resources.CharIndex{CharToLanguages: map[string][]string{"a": {"en", "unknown"}}},
		languages: []string{"en", "de"},
	}
	assert.Equal(t, []string{"en"}, New(src, nil).Candidates("a"))
}

func TestCandidates_EmptyUniverseUsesCommonLanguages(t *testing.T) {
	p := New(fakeSource{}, []string{"en", "es"})
	assert.Equal(t, []string{"en", "es"}, p.Universe())
	assert.Equal(t, []string{"en", "es"}, p.Candidates("hola"))
}

func TestCandidates_ScriptOrdering(t *testing.T) {
	src := fakeSource{
		charIndex: &resources.CharIndex{CharToLanguages: map[string][]string{
			"а": {"bg", "ru", "uk", "kk"},
			"b": {"az"},
		}},
		scriptIndex: &resources.ScriptIndex{ScriptToLanguages: map[string][]string{
			"Cyrl": {"uk", "bg"},
			"Latn": {"az"},
		}},
		languages: []string{"az", "bg", "kk", "ru", "uk"},
	}
	p := New(src, nil)

	// ru is common, bg/uk share the dominant script, the rest follow.
	assert.Equal(t, []string{"ru", "bg", "uk", "az", "kk"}, p.Candidates("абвb"))
}

func TestCandidates_NeverEmptyWithUniverse(t *testing.T) {
	p := New(fakeSource{
		charIndex: &resources.CharIndex{CharToLanguages: map[string][]string{}},
		languages: []string{"en"},
	}, nil)
	for _, text := range []string{"", "123", "hello", "日本語"} {
		assert.NotEmpty(t, p.Candidates(text), "text %q", text)
	}
}

func TestCandidates_WithStore(t *testing.T) {
	store := resources.NewStore(resources.StoreConfig{Root: testutil.RomanceRoot(t)})
	p := New(store, nil)

	assert.Equal(t, []string{"es"}, p.Candidates("ñ"))
	assert.Equal(t, []string{"pt"}, p.Candidates("ã"))
	assert.Equal(t, []string{"es", "pt"}, p.Candidates("casa"))
}

func TestPrioritize(t *testing.T) {
	got := Prioritize([]string{"xx", "de", "aa", "en", "de", "", "zz"}, DefaultCommonLanguages)
	assert.Equal(t, []string{"de", "en", "xx", "aa", "zz"}, got)
	assert.Empty(t, Prioritize(nil, DefaultCommonLanguages))
}
