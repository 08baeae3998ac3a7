package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	t.Run("Bare JSON object", func(t *testing.T) {
		got, err := ExtractJSONObject(`{"title": "The Lost Star"}`)
		require.NoError(t, err)
		assert.Equal(t, `{"title": "The Lost Star"}`, got)
	})

	t.Run("Markdown fence with language identifier", func(t *testing.T) {
		raw := "```json\n{\"title\": \"The Lost Star\"}\n```"
		got, err := ExtractJSONObject(raw)
		require.NoError(t, err)
		assert.Equal(t, `{"title": "The Lost Star"}`, got)
	})

	t.Run("Prose wrapper around the payload", func(t *testing.T) {
		raw := "Here is the outline you asked for:\n{\"title\": \"The Lost Star\", \"chapters\": []}\nHope you like it!"
		got, err := ExtractJSONObject(raw)
		require.NoError(t, err)
		assert.Equal(t, `{"title": "The Lost Star", "chapters": []}`, got)
	})

	t.Run("Dangling trailing fence", func(t *testing.T) {
		raw := "{\"title\": \"The Lost Star\"}\n```"
		got, err := ExtractJSONObject(raw)
		require.NoError(t, err)
		assert.JSONEq(t, `{"title": "The Lost Star"}`, got)
	})

	t.Run("Braces inside string values do not confuse the walker", func(t *testing.T) {
		raw := `{"text": "the dragon said {roar} loudly"} trailing prose`
		got, err := ExtractJSONObject(raw)
		require.NoError(t, err)
		assert.Equal(t, `{"text": "the dragon said {roar} loudly"}`, got)
	})

	t.Run("Nested objects return the full outer block", func(t *testing.T) {
		raw := `{"a": {"b": {"c": 1}}, "d": 2}`
		got, err := ExtractJSONObject(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	})

	t.Run("Truncated output gets its braces balanced", func(t *testing.T) {
		raw := `{"title": "The Lost Star", "chapters": [{"number": 1}]`
		got, err := ExtractJSONObject(raw)
		require.NoError(t, err)
		var parsed map[string]any
		assert.NoError(t, json.Unmarshal([]byte(got), &parsed))
	})

	t.Run("Plain prose with no JSON", func(t *testing.T) {
		_, err := ExtractJSONObject("Once upon a time there was no JSON at all.")
		assert.ErrorIs(t, err, ErrNoJSONFound)
	})

	t.Run("Empty input", func(t *testing.T) {
		_, err := ExtractJSONObject("")
		assert.ErrorIs(t, err, ErrNoJSONFound)
	})
}
