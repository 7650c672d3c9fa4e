package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/walang/internal/testutil"
)

func TestLanguagesCommand(t *testing.T) {
	root := testutil.RomanceRoot(t)

	stdout, _, err := executeCommand(t, "", "--resource-root", root, "languages")
	require.NoError(t, err)

	assert.Contains(t, stdout, "CODE")
	assert.Regexp(t, `es\s+Spanish\s+Latn\s+ltr\s+yes\s+yes`, stdout)
	assert.Regexp(t, `pt\s+Portuguese\s+Latn\s+ltr\s+yes\s+yes`, stdout)
	assert.Contains(t, stdout, "2 languages")
}

func TestLanguagesCommandJSON(t *testing.T) {
	root := testutil.RomanceRoot(t)

	stdout, _, err := executeCommand(t, "", "--resource-root", root, "languages", "--format", "json")
	require.NoError(t, err)

	var rows []languageRow
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, languageRow{
		Code: "es", Name: "Spanish", Script: "Latn", Direction: "ltr", HasFrequency: true, HasAlphabet: true,
	}, rows[0])
	assert.Equal(t, "pt", rows[1].Code)
}

func TestLanguagesCommandScriptFilter(t *testing.T) {
	root := testutil.RomanceRoot(t)

	stdout, _, err := executeCommand(t, "", "--resource-root", root, "languages", "--script", "latn", "-f", "json")
	require.NoError(t, err)
	var rows []languageRow
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	assert.Len(t, rows, 2)

	stdout, _, err = executeCommand(t, "", "--resource-root", root, "languages", "--script", "Cyrl")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No languages found")
}

func TestLanguagesCommandWithoutCatalog(t *testing.T) {
	root := testutil.WriteResourceRoot(t, testutil.RootFixture{
		Languages: []testutil.LanguageFixture{
			{Code: "xa", Tokens: []string{"foo"}},
			{Code: "xb", Lowercase: []string{"a", "b"}},
		},
	})

	stdout, _, err := executeCommand(t, "", "--resource-root", root, "languages", "-f", "json")
	require.NoError(t, err)

	var rows []languageRow
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	assert.Equal(t, []languageRow{
		{Code: "xa", HasFrequency: true},
		{Code: "xb", HasAlphabet: true},
	}, rows)
}

func TestLanguagesCommandInvalidFormat(t *testing.T) {
	_, _, err := executeCommand(t, "", "languages", "--format", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}
