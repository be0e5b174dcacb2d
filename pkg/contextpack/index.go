package contextpack

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/philippgille/chromem-go"
	"google.golang.org/genai"
)

// DefaultEmbeddingModel is the Gemini embedding model.
const DefaultEmbeddingModel = "gemini-embedding-001"

// SearchResult is one index hit.
type SearchResult struct {
	ID       string            `json:"id"`
	Path     string            `json:"path"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float32           `json:"score"`
	Rank     int               `json:"rank"`
}

// Index stores context pack content in an embedded vector database.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection

	// semantic is false when no real embedding model is configured;
	// Search then goes straight to keyword matching.
	semantic bool
}

// NewIndex opens or creates a persistent index at the given path.
// The embedding function may be nil; the index then embeds with a
// local hashing function and answers queries by keyword match only.
func NewIndex(path string, embed chromem.EmbeddingFunc) (*Index, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}

	semantic := embed != nil
	if embed == nil {
		embed = localEmbedding()
	}

	collection, err := db.GetOrCreateCollection("context", nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}

	return &Index{db: db, collection: collection, semantic: semantic}, nil
}

const localEmbeddingDim = 128

// localEmbedding hashes tokens into a fixed-size bag-of-words vector.
// It keeps the collection self-contained when no embedding model is
// configured; similarity from these vectors is too crude to rank by,
// so callers stick to keyword search.
func localEmbedding() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		vec := make([]float32, localEmbeddingDim)
		for _, token := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(token))
			vec[h.Sum32()%localEmbeddingDim]++
		}

		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			vec[0] = 1
			return vec, nil
		}

		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
		return vec, nil
	}
}

// GeminiEmbedding returns an embedding function backed by the Gemini
// SDK. Returns nil when no client is available so the index degrades
// to keyword search.
func GeminiEmbedding(client *genai.Client, model string) chromem.EmbeddingFunc {
	if client == nil {
		return nil
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}

	return func(ctx context.Context, text string) ([]float32, error) {
		contents := []*genai.Content{
			{Parts: []*genai.Part{{Text: text}}},
		}

		result, err := client.Models.EmbedContent(ctx, model, contents, nil)
		if err != nil {
			return nil, fmt.Errorf("embed content: %w", err)
		}
		if result == nil || len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("empty embedding response")
		}

		return result.Embeddings[0].Values, nil
	}
}

// AddPack indexes every file in the pack, one document per file.
func (ix *Index) AddPack(ctx context.Context, pack *Pack) error {
	for i := range pack.Files {
		f := &pack.Files[i]
		if err := ix.Add(ctx, f.Path, f.Content, map[string]string{
			"path": f.Path,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Add indexes one document.
func (ix *Index) Add(ctx context.Context, id, content string, metadata map[string]string) error {
	if err := ix.collection.AddDocument(ctx, chromem.Document{
		ID:       id,
		Content:  content,
		Metadata: metadata,
	}); err != nil {
		return fmt.Errorf("add document %s: %w", id, err)
	}
	return nil
}

// Count returns the number of indexed documents.
func (ix *Index) Count() int {
	return ix.collection.Count()
}

// Search queries the index. Semantic search runs first; when it
// fails or returns nothing, keyword matching over the stored
// documents takes over.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if ix.collection.Count() == 0 {
		return nil, nil
	}

	if ix.semantic {
		results, err := ix.semanticSearch(ctx, query, limit)
		if err == nil && len(results) > 0 {
			return results, nil
		}
	}

	return ix.keywordSearch(ctx, query, limit)
}

func (ix *Index) semanticSearch(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	count := ix.collection.Count()
	if limit > count {
		limit = count
	}

	docs, err := ix.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	var results []SearchResult
	for i, doc := range docs {
		results = append(results, SearchResult{
			ID:       doc.ID,
			Path:     doc.Metadata["path"],
			Content:  doc.Content,
			Metadata: doc.Metadata,
			Score:    doc.Similarity,
			Rank:     i + 1,
		})
	}

	return results, nil
}

func (ix *Index) keywordSearch(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	docs, err := ix.collection.Query(ctx, query, ix.collection.Count(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	keywords := tokenize(query)

	type scored struct {
		result SearchResult
		score  int
	}
	var scoredDocs []scored

	for _, doc := range docs {
		content := strings.ToLower(doc.Content)
		path := strings.ToLower(doc.Metadata["path"])

		score := 0
		for _, kw := range keywords {
			kw = strings.ToLower(kw)

			// Path matches outrank body matches.
			if strings.Contains(path, kw) {
				score += 5
			}
			score += strings.Count(content, kw)
		}

		if score > 0 {
			scoredDocs = append(scoredDocs, scored{
				result: SearchResult{
					ID:       doc.ID,
					Path:     doc.Metadata["path"],
					Content:  doc.Content,
					Metadata: doc.Metadata,
				},
				score: score,
			})
		}
	}

	sort.Slice(scoredDocs, func(i, j int) bool {
		return scoredDocs[i].score > scoredDocs[j].score
	})

	var results []SearchResult
	for i, sd := range scoredDocs {
		if i >= limit {
			break
		}
		sd.result.Score = float32(sd.score) / 100.0
		sd.result.Rank = i + 1
		results = append(results, sd.result)
	}

	return results, nil
}

// tokenize splits a query into keywords.
func tokenize(query string) []string {
	for _, sep := range []string{".", "_", "-", "(", ")", "/"} {
		query = strings.ReplaceAll(query, sep, " ")
	}

	var keywords []string
	for _, w := range strings.Fields(query) {
		if len(w) >= 2 {
			keywords = append(keywords, w)
		}
	}
	return keywords
}

// FormatResults renders search results as markdown for prompt
// injection.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No matching context found.\n"
	}

	var sb strings.Builder
	sb.WriteString("## Relevant Context\n\n")

	for _, r := range results {
		sb.WriteString(fmt.Sprintf("### %d. %s (%.0f%% match)\n\n", r.Rank, r.Path, r.Score*100))

		snippet := r.Content
		if len(snippet) > 500 {
			snippet = snippet[:500] + "\n... (truncated)"
		}
		sb.WriteString("```\n" + snippet + "\n```\n\n")
	}

	return sb.String()
}
