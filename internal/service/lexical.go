package service

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"studymate/internal/domain"
	"studymate/internal/vectorstore"
)

var unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// lexicalSearch ranks chunks by the Ochiai coefficient between the query's
// token set and each chunk's token set.
func lexicalSearch(chunks []domain.Chunk, query string, topK int) []domain.SearchResult {
	if topK <= 0 {
		topK = vectorstore.DefaultTopK
	}
	qset := toTokenSet(query)
	results := make([]domain.SearchResult, len(chunks))
	for i, ch := range chunks {
		results[i] = domain.SearchResult{Chunk: ch, Score: ochiai(qset, toTokenSet(ch.Text))}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	// drop chunks sharing no tokens with the query
	n := 0
	for n < len(results) && n < topK && results[n].Score > 0 {
		n++
	}
	return results[:n]
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// ochiai is |A∩B| / sqrt(|A||B|).
func ochiai(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(a))*float64(len(b)))
}
