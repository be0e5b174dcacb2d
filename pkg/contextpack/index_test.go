package contextpack

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedding gives every document a distinct, deterministic vector.
func stubEmbedding() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		v := make([]float32, 4)
		for i, c := range []byte(text) {
			v[i%4] += float32(c)
		}
		return v, nil
	}
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := NewIndex(filepath.Join(t.TempDir(), "index"), stubEmbedding())
	require.NoError(t, err)
	return ix
}

func TestIndex_AddAndCount(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx, "README.md", "installation guide", map[string]string{"path": "README.md"}))
	require.NoError(t, ix.Add(ctx, "go.mod", "module deps", map[string]string{"path": "go.mod"}))

	assert.Equal(t, 2, ix.Count())
}

func TestIndex_AddPack(t *testing.T) {
	ix := newTestIndex(t)

	pack := &Pack{Files: []File{
		{Path: "README.md", Content: "readme body"},
		{Path: "docs/guide.md", Content: "guide body"},
	}}

	require.NoError(t, ix.AddPack(context.Background(), pack))
	assert.Equal(t, 2, ix.Count())
}

func TestIndex_SearchEmpty(t *testing.T) {
	ix := newTestIndex(t)

	results, err := ix.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_KeywordSearch(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx, "README.md", "how to install and run the service", map[string]string{"path": "README.md"}))
	require.NoError(t, ix.Add(ctx, "docs/auth.md", "authentication and api keys", map[string]string{"path": "docs/auth.md"}))

	results, err := ix.keywordSearch(ctx, "authentication keys", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "docs/auth.md", results[0].Path)
	assert.Equal(t, 1, results[0].Rank)
}

func TestIndex_NoEmbedder(t *testing.T) {
	ix, err := NewIndex(filepath.Join(t.TempDir(), "index"), nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx, "README.md", "how to install and run the service", map[string]string{"path": "README.md"}))
	require.NoError(t, ix.Add(ctx, "docs/auth.md", "authentication and api keys", map[string]string{"path": "docs/auth.md"}))

	// Without an embedding model the index still answers by keyword.
	results, err := ix.Search(ctx, "authentication keys", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "docs/auth.md", results[0].Path)
}

func TestLocalEmbedding(t *testing.T) {
	embed := localEmbedding()
	ctx := context.Background()

	v1, err := embed(ctx, "alpha beta gamma")
	require.NoError(t, err)
	require.Len(t, v1, localEmbeddingDim)

	v2, err := embed(ctx, "alpha beta gamma")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	// Unit length.
	var norm float64
	for _, v := range v1 {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)

	// Empty input still yields a nonzero vector.
	empty, err := embed(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, float32(1), empty[0])
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"user_auth flow", []string{"user", "auth", "flow"}},
		{"pkg/store.Load", []string{"pkg", "store", "Load"}},
		{"a b", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.query))
		})
	}
}

func TestFormatResults(t *testing.T) {
	out := FormatResults([]SearchResult{
		{Rank: 1, Path: "README.md", Content: "body", Score: 0.9},
	})

	assert.Contains(t, out, "## Relevant Context")
	assert.Contains(t, out, "README.md")
	assert.Contains(t, out, "90% match")
}

func TestFormatResults_Empty(t *testing.T) {
	assert.Contains(t, FormatResults(nil), "No matching context")
}
