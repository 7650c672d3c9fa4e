package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordTokens(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "only digits and punctuation", in: "123 !@# $%^", want: nil},
		{name: "simple phrase", in: "gracias por todo", want: []string{"gracias", "por", "todo"}},
		{name: "case folded and deduplicated", in: "Hello hello HELLO", want: []string{"hello"}},
		{name: "digits split runs", in: "hello123world", want: []string{"hello", "world"}},
		{name: "underscore splits runs", in: "snake_case", want: []string{"snake", "case"}},
		{name: "non latin", in: "Привет, мир!", want: []string{"привет", "мир"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WordTokens(tt.in))
		})
	}
}

func TestBigramTokens(t *testing.T) {
	assert.Nil(t, BigramTokens(""))
	assert.Nil(t, BigramTokens("a"))
	assert.Equal(t, []string{"ab"}, BigramTokens("ab"))
	assert.Equal(t, []string{"ab"}, BigramTokens("a b"))
	assert.Equal(t, []string{"ab", "bc"}, BigramTokens("ABC"))
	assert.Equal(t, []string{"今日", "日は", "は忙", "忙し", "しい"}, BigramTokens("今日は忙しい"))
	assert.Equal(t, []string{"aa"}, BigramTokens("aaaa"))
}

func TestCharSet(t *testing.T) {
	assert.Nil(t, CharSet(""))
	assert.Nil(t, CharSet("42 - 7"))
	assert.Equal(t, []string{"ż", "ó", "ł", "ć"}, CharSet("Żółć"))
	assert.Equal(t, []string{"h", "e", "l", "o"}, CharSet("hello123!@#"))
}

func TestNormalizationInvariance(t *testing.T) {
	forms := []string{"CAF\u00c9", "caf\u00e9", "cafe\u0301"}

	for _, f := range forms[1:] {
		assert.Equal(t, WordTokens(forms[0]), WordTokens(f), "word tokens for %q", f)
		assert.Equal(t, BigramTokens(forms[0]), BigramTokens(f), "bigrams for %q", f)
		assert.Equal(t, CharSet(forms[0]), CharSet(f), "char set for %q", f)
	}
	assert.Equal(t, []string{"caf\u00e9"}, WordTokens("cafe\u0301"))
}

func TestNormalizeCompatibilityForms(t *testing.T) {
	// Fullwidth letters and ligatures fold to their plain forms.
	assert.Equal(t, "abc", Normalize("ＡＢＣ"))
	assert.Equal(t, "fi", Normalize("ﬁ"))
	assert.Equal(t, "", Normalize(""))
}

func TestSet(t *testing.T) {
	s := NewSet("b", "a", "", "b")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has(""))
	assert.Equal(t, []string{"a", "b"}, s.Sorted())
}
