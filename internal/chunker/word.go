package chunker

import (
	"path/filepath"
	"regexp"
	"strings"

	"studymate/internal/domain"
)

// Separator delimits pre-chunked passages in processed text files.
const Separator = "\n\n---CHUNK---\n\n"

var separatorRe = regexp.MustCompile(`\s*---CHUNK---\s*`)

// WordChunker splits text into fixed-size word windows. Consecutive windows
// share overlap words. Windows of minChars characters or fewer are dropped.
type WordChunker struct {
	size     int
	overlap  int
	minChars int
}

func NewWordChunker(size, overlap, minChars int) *WordChunker {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 5
	}
	if minChars < 0 {
		minChars = 0
	}
	return &WordChunker{size: size, overlap: overlap, minChars: minChars}
}

func (c *WordChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	words := strings.Fields(document.Content)
	var chunks []domain.Chunk
	step := c.size - c.overlap
	for i := 0; i < len(words); i += step {
		end := min(i+c.size, len(words))
		text := strings.Join(words[i:end], " ")
		if len(strings.TrimSpace(text)) > c.minChars {
			chunks = append(chunks, newChunk(document, len(chunks), text))
		}
	}
	return chunks, nil
}

// SplitProcessed returns the trimmed non-empty passages of a processed file,
// or nil when content carries no separator.
func SplitProcessed(document domain.Document) []domain.Chunk {
	if !separatorRe.MatchString(document.Content) {
		return nil
	}
	var chunks []domain.Chunk
	for _, part := range separatorRe.Split(document.Content, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chunks = append(chunks, newChunk(document, len(chunks), part))
	}
	return chunks
}

// SourceName is the citation label for a document path.
func SourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
