package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTextbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "textbook.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"a1","title":"Binary Search","content":"..."}]`), 0o644))

	tb, err := LoadTextbook(path)
	require.NoError(t, err)
	require.Len(t, tb.Articles, 1)
	assert.Equal(t, "Binary Search", tb.Articles[0].Title)
}

func TestLoadTextbookMissingFile(t *testing.T) {
	_, err := LoadTextbook("/nonexistent/textbook.json")
	assert.Error(t, err)
}

func TestLoadStrategyDoc(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strategy.txt")
	require.NoError(t, os.WriteFile(path, []byte("read the problem twice"), 0o644))

	doc, err := LoadStrategyDoc(path)
	require.NoError(t, err)
	assert.Equal(t, "read the problem twice", doc.Content)
}
