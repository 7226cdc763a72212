package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate/internal/answer"
	"studymate/internal/chunker"
	"studymate/internal/domain"
	"studymate/internal/embedding/tfidf"
	"studymate/internal/summarizer"
	"studymate/internal/vectorstore/memory"
	"studymate/internal/vectorstore/sqlite"
)

const biology = `Photosynthesis is the process by which green plants make their own food using sunlight.
Plants take in carbon dioxide and water and release oxygen during photosynthesis.
Chlorophyll in the leaves absorbs the light energy needed for this process.`

const physics = `A magnet attracts objects made of iron, nickel and cobalt.
Every magnet has a north pole and a south pole that always occur in pairs.`

type failingGenerator struct{ calls int }

func (g *failingGenerator) Name() string { return "failing" }

func (g *failingGenerator) Generate(context.Context, string, string) (string, error) {
	g.calls++
	return "", errors.New("quota exceeded")
}

type echoGenerator struct{ question, passages string }

func (g *echoGenerator) Name() string { return "echo" }

func (g *echoGenerator) Generate(_ context.Context, question, passages string) (string, error) {
	g.question, g.passages = question, passages
	return "generated answer", nil
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "biology.txt"), []byte(biology), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "physics.md"), []byte(physics), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.pdf"), []byte("%PDF"), 0o644))
	return dir
}

func newService(store domain.VectorStore, gen domain.Generator) *RAGService {
	return NewRAGService(
		chunker.NewSentenceChunker(1, 0),
		tfidf.NewEmbedder(),
		store,
		summarizer.NewFrequencySummarizer(),
		gen,
		Options{TopK: 2, SummaryMaxSentences: 2},
		nil,
	)
}

func TestIngestAndAnswer(t *testing.T) {
	dir := writeCorpus(t)
	svc := newService(memory.NewStorage(), nil)

	report, err := svc.IngestDocuments(context.Background(), []string{filepath.Join(dir, "*")})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, 5, report.Chunks)
	assert.NotEmpty(t, report.Summary)

	resp, err := svc.Answer(context.Background(), "  What is photosynthesis?  ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, resp.Status)
	assert.Contains(t, resp.Answer, "**Question:** What is photosynthesis?")
	assert.Contains(t, resp.Answer, "Photosynthesis is the process")
	assert.Equal(t, []string{"biology"}, resp.Sources)
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	svc := newService(memory.NewStorage(), nil)
	_, err := svc.Answer(context.Background(), " \t ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAnswerWithoutMatchesApologizes(t *testing.T) {
	dir := writeCorpus(t)
	svc := newService(memory.NewStorage(), nil)
	_, err := svc.IngestDocuments(context.Background(), []string{dir + "/*.txt"})
	require.NoError(t, err)

	resp, err := svc.Answer(context.Background(), "Who wrote Hamlet?")
	require.NoError(t, err)
	assert.Equal(t, answer.NoContextAnswer, resp.Answer)
	assert.Empty(t, resp.Sources)
}

func TestGeneratorReceivesNumberedPassages(t *testing.T) {
	dir := writeCorpus(t)
	gen := &echoGenerator{}
	svc := newService(memory.NewStorage(), gen)
	_, err := svc.IngestDocuments(context.Background(), []string{dir + "/*"})
	require.NoError(t, err)

	resp, err := svc.Answer(context.Background(), "magnet poles")
	require.NoError(t, err)
	assert.Equal(t, "generated answer", resp.Answer)
	assert.Equal(t, "magnet poles", gen.question)
	assert.Contains(t, gen.passages, "[Passage 1] ")
	assert.Equal(t, "physics", resp.Sources[0])
}

func TestGeneratorFailureFallsBackToTemplate(t *testing.T) {
	dir := writeCorpus(t)
	gen := &failingGenerator{}
	svc := newService(memory.NewStorage(), gen)
	_, err := svc.IngestDocuments(context.Background(), []string{dir + "/*"})
	require.NoError(t, err)

	resp, err := svc.Answer(context.Background(), "chlorophyll leaves")
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
	assert.Contains(t, resp.Answer, "Based on the study material")
}

func TestIngestWithoutDocuments(t *testing.T) {
	svc := newService(memory.NewStorage(), nil)
	_, err := svc.IngestDocuments(context.Background(), []string{filepath.Join(t.TempDir(), "*.txt")})
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestIngestProcessedFile(t *testing.T) {
	dir := t.TempDir()
	content := "Sound travels as a wave through a medium." + chunker.Separator + "Light can travel through a vacuum."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "physics_8.txt"), []byte(content), 0o644))

	svc := NewRAGService(chunker.NewWordChunker(500, 100, 50), tfidf.NewEmbedder(), memory.NewStorage(),
		summarizer.NewFrequencySummarizer(), nil, Options{Clean: true}, nil)
	report, err := svc.IngestDocuments(context.Background(), []string{dir + "/*.txt"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Chunks)
}

func TestLoadRestoresPersistedIndex(t *testing.T) {
	dir := writeCorpus(t)
	path := filepath.Join(t.TempDir(), "index.db")

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	_, err = newService(store, nil).IngestDocuments(context.Background(), []string{dir + "/*"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	svc := newService(reopened, nil)
	n, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	resp, err := svc.Answer(context.Background(), "north pole of a magnet")
	require.NoError(t, err)
	assert.Equal(t, "physics", resp.Sources[0])
}

func TestLoadEmptyIndex(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = newService(store, nil).Load(context.Background())
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestLexicalSearchOchiai(t *testing.T) {
	chunks := []domain.Chunk{{Text: "red apples"}, {Text: "green apples and pears"}, {Text: "bananas"}}
	res := lexicalSearch(chunks, "red apples", 5)
	require.Len(t, res, 2)
	assert.Equal(t, "red apples", res[0].Chunk.Text)
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)
}

func TestSourcesAreDistinct(t *testing.T) {
	results := []domain.SearchResult{
		{Chunk: domain.Chunk{Source: "b"}},
		{Chunk: domain.Chunk{Source: "a"}},
		{Chunk: domain.Chunk{Source: "b"}},
		{Chunk: domain.Chunk{}},
	}
	assert.Equal(t, []string{"b", "a"}, Sources(results))
}

func TestIngestWalksDirectories(t *testing.T) {
	dir := writeCorpus(t)
	nested := filepath.Join(dir, "chapter2")
	require.NoError(t, os.Mkdir(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "sound.txt"), []byte("Sound needs a medium such as air to travel."), 0o644))

	report, err := newService(memory.NewStorage(), nil).IngestDocuments(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Documents)
}
