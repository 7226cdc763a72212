package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"studymate/internal/answer"
	"studymate/internal/chunker"
	"studymate/internal/domain"
	"studymate/internal/textclean"
)

var (
	ErrEmptyQuestion = errors.New("question cannot be empty")
	ErrNoDocuments   = errors.New("no .txt or .md documents found")
	ErrEmptyIndex    = errors.New("index is empty; run `studymate ingest` first")
)

// MetaStore is implemented by vector stores that can persist index metadata.
type MetaStore interface {
	SetMeta(key string, value []byte) error
	Meta(key string) ([]byte, error)
}

// Meta keys, shared with the sqlite store.
const (
	metaEmbedder      = "embedder"
	metaEmbedderState = "embedder_state"
)

// Options tunes retrieval and ingestion.
type Options struct {
	TopK                int
	SummaryMaxSentences int
	// Clean runs textclean.Clean on raw (non pre-chunked) documents.
	Clean bool
}

// IngestReport summarizes an ingestion run.
type IngestReport struct {
	Documents int
	Chunks    int
	Summary   string
	Elapsed   time.Duration
}

// RAGService retrieves passages from the indexed corpus and answers questions
// from them.
type RAGService struct {
	chunker    domain.Chunker
	embedder   domain.Embedder
	store      domain.VectorStore
	summarizer domain.Summarizer
	generator  domain.Generator
	opts       Options
	logger     *zap.Logger

	chunks []domain.Chunk
}

// NewRAGService wires the pipeline. generator may be nil, in which case
// answers are built from the template.
func NewRAGService(ch domain.Chunker, emb domain.Embedder, st domain.VectorStore, sum domain.Summarizer, gen domain.Generator, opts Options, logger *zap.Logger) *RAGService {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if gen == nil {
		gen = answer.Template{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RAGService{chunker: ch, embedder: emb, store: st, summarizer: sum, generator: gen, opts: opts, logger: logger}
}

// IngestDocuments reads the documents matched by paths (globs allowed),
// rebuilds the index from scratch and returns a report.
func (s *RAGService) IngestDocuments(ctx context.Context, paths []string) (IngestReport, error) {
	start := time.Now()
	documents, err := readDocuments(paths)
	if err != nil {
		return IngestReport{}, err
	}

	var allChunks []domain.Chunk
	var allTexts []string
	var corpus strings.Builder
	for _, d := range documents {
		chunks := chunker.SplitProcessed(d)
		if chunks == nil {
			if s.opts.Clean {
				d.Content = textclean.Clean(d.Content)
			}
			if chunks, err = s.chunker.Chunk(d); err != nil {
				return IngestReport{}, fmt.Errorf("chunk %s: %w", d.Path, err)
			}
		}
		for _, ch := range chunks {
			allChunks = append(allChunks, ch)
			allTexts = append(allTexts, ch.Text)
		}
		corpus.WriteString("\n")
		corpus.WriteString(d.Content)
		s.logger.Debug("document chunked", zap.String("path", d.Path), zap.Int("chunks", len(chunks)))
	}
	if len(allChunks) == 0 {
		return IngestReport{}, errors.New("documents produced no chunks")
	}

	if err := s.embedder.Prepare(allTexts); err != nil {
		return IngestReport{}, fmt.Errorf("prepare embedder: %w", err)
	}
	vectors := make([][]float64, len(allChunks))
	for i := range allChunks {
		if vectors[i], err = s.embedder.Embed(ctx, allChunks[i].Text); err != nil {
			return IngestReport{}, fmt.Errorf("embed %s: %w", allChunks[i].ChunkID, err)
		}
	}
	if err := s.store.Clear(); err != nil {
		return IngestReport{}, fmt.Errorf("clear store: %w", err)
	}
	// Hosted embedders learn their dimension from the first vector.
	if err := s.store.Init(len(vectors[0])); err != nil {
		return IngestReport{}, fmt.Errorf("init store: %w", err)
	}
	if err := s.store.Upsert(allChunks, vectors); err != nil {
		return IngestReport{}, fmt.Errorf("upsert: %w", err)
	}
	if err := s.saveEmbedder(); err != nil {
		return IngestReport{}, err
	}
	s.chunks = allChunks

	summary, err := s.summarizer.Summarize(corpus.String(), s.opts.SummaryMaxSentences)
	if err != nil {
		return IngestReport{}, fmt.Errorf("summarize: %w", err)
	}
	report := IngestReport{Documents: len(documents), Chunks: len(allChunks), Summary: summary, Elapsed: time.Since(start)}
	s.logger.Info("ingest complete",
		zap.Int("documents", report.Documents),
		zap.Int("chunks", report.Chunks),
		zap.Duration("elapsed", report.Elapsed))
	return report, nil
}

// Load restores a previously ingested index: the embedder state and the
// chunk list used for lexical fallback. It returns the number of chunks.
func (s *RAGService) Load(ctx context.Context) (int, error) {
	if ms, ok := s.store.(MetaStore); ok {
		if err := s.restoreEmbedder(ms); err != nil {
			return 0, err
		}
	}
	chunks, err := s.store.Chunks()
	if err != nil {
		return 0, fmt.Errorf("load chunks: %w", err)
	}
	s.chunks = chunks
	if len(chunks) == 0 {
		return 0, ErrEmptyIndex
	}
	s.logger.Info("index loaded", zap.Int("chunks", len(chunks)), zap.String("embedder", s.embedder.Name()))
	return len(chunks), nil
}

// ChunkCount is the number of chunks known to the service.
func (s *RAGService) ChunkCount() int { return len(s.chunks) }

// Query embeds query and searches the store. When the query shares no terms
// with the vocabulary, or every score is zero, chunks are ranked by lexical
// overlap instead.
func (s *RAGService) Query(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if isZero(vec) {
		return lexicalSearch(s.chunks, query, topK), nil
	}
	res, err := s.store.Search(vec, topK)
	if err != nil {
		return nil, err
	}
	for _, r := range res {
		if r.Score > 1e-9 {
			return res, nil
		}
	}
	return lexicalSearch(s.chunks, query, topK), nil
}

// Answer implements domain.Answerer.
func (s *RAGService) Answer(ctx context.Context, question string) (domain.ChatResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.ChatResponse{}, ErrEmptyQuestion
	}
	results, err := s.Query(ctx, question, s.opts.TopK)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("retrieve: %w", err)
	}
	s.logger.Info("retrieved passages", zap.Int("count", len(results)))

	passages := BuildContext(results)
	if passages == "" {
		return domain.ChatResponse{Answer: answer.NoContextAnswer, Status: domain.StatusSuccess}, nil
	}
	text, err := s.generator.Generate(ctx, question, passages)
	if err != nil {
		s.logger.Error("generation failed, using template", zap.String("generator", s.generator.Name()), zap.Error(err))
		text = answer.FormatTemplate(question, passages)
	}
	if strings.TrimSpace(text) == "" {
		return domain.ChatResponse{}, errors.New("failed to generate answer")
	}
	return domain.ChatResponse{Answer: text, Status: domain.StatusSuccess, Sources: Sources(results)}, nil
}

// BuildContext numbers the passages as "[Passage i] text", separated by blank lines.
func BuildContext(results []domain.SearchResult) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("[Passage %d] %s", i+1, r.Chunk.Text))
	}
	return strings.Join(parts, "\n\n")
}

// Sources returns the distinct chunk sources in rank order.
func Sources(results []domain.SearchResult) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, r := range results {
		src := r.Chunk.Source
		if src == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	return out
}

func (s *RAGService) saveEmbedder() error {
	ms, ok := s.store.(MetaStore)
	if !ok {
		return nil
	}
	if err := ms.SetMeta(metaEmbedder, []byte(s.embedder.Name())); err != nil {
		return fmt.Errorf("save embedder name: %w", err)
	}
	se, ok := s.embedder.(domain.StatefulEmbedder)
	if !ok {
		return nil
	}
	state, err := se.MarshalState()
	if err != nil {
		return fmt.Errorf("marshal embedder state: %w", err)
	}
	if err := ms.SetMeta(metaEmbedderState, state); err != nil {
		return fmt.Errorf("save embedder state: %w", err)
	}
	return nil
}

func (s *RAGService) restoreEmbedder(ms MetaStore) error {
	name, err := ms.Meta(metaEmbedder)
	if err != nil {
		return fmt.Errorf("read embedder name: %w", err)
	}
	if name == nil {
		return nil
	}
	if string(name) != s.embedder.Name() {
		return fmt.Errorf("index was built with embedder %q but %q is configured", name, s.embedder.Name())
	}
	se, ok := s.embedder.(domain.StatefulEmbedder)
	if !ok {
		return nil
	}
	state, err := ms.Meta(metaEmbedderState)
	if err != nil {
		return fmt.Errorf("read embedder state: %w", err)
	}
	if state == nil {
		return fmt.Errorf("index has no state for embedder %q", name)
	}
	return se.UnmarshalState(state)
}

func readDocuments(paths []string) ([]domain.Document, error) {
	var documents []domain.Document
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil || matches == nil {
			// unmatched patterns and missing paths contribute nothing
			if _, statErr := os.Stat(p); statErr != nil {
				continue
			}
			matches = []string{p}
		}
		for _, m := range matches {
			files, err := expandDir(m)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				ext := strings.ToLower(filepath.Ext(f))
				if ext != ".txt" && ext != ".md" {
					continue
				}
				data, err := os.ReadFile(f)
				if err != nil {
					return nil, err
				}
				documents = append(documents, domain.Document{ID: hashString(f), Path: f, Content: string(data)})
			}
		}
	}
	if len(documents) == 0 {
		return nil, ErrNoDocuments
	}
	return documents, nil
}

// expandDir returns the regular files under path, or path itself when it is
// not a directory.
func expandDir(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
