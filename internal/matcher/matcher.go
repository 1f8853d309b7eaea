// Package matcher ranks harvested jobs against a list of keywords.
package matcher

import (
	"cmp"
	"slices"
	"strings"

	"github.com/khrees2412/jobharvest/pkg/models"
)

// Match is a record with its score.
type Match struct {
	Index  int // position in the store
	Record models.JobRecord
	Score  float64
}

// Score calculates how well a job matches the keywords.
// Returns a score between 0.0 and 1.0
func Score(rec models.JobRecord, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	// Factor 1: keywords in the description (60% weight)
	score := matchText(rec.Description, keywords) * 0.6
	// Factor 2: keywords in the title (40% weight)
	score += matchText(rec.JobTitle, keywords) * 0.4
	return score
}

// matchText returns the fraction of keywords found in text.
func matchText(text string, keywords []string) float64 {
	if text == "" || text == models.DescriptionNotFound || text == models.TitleNotFound {
		return 0
	}
	textLower := strings.ToLower(text)
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(textLower, kw) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// Rank scores every record and returns those at or above minScore, best first.
// Ties keep store order.
func Rank(records []models.JobRecord, keywords []string, minScore float64) []Match {
	matches := []Match{}
	for i, rec := range records {
		s := Score(rec, keywords)
		if s >= minScore && s > 0 {
			matches = append(matches, Match{Index: i, Record: rec, Score: s})
		}
	}
	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return matches
}

// Keywords extracts meaningful, lowercased keywords from free text such as
// "Go, Kubernetes and the cloud".
func Keywords(s string) []string {
	// Common stop words to ignore
	stopWords := map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true,
		"but": true, "in": true, "on": true, "at": true, "to": true,
		"for": true, "of": true, "with": true, "by": true,
	}

	keywords := []string{}
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.Trim(word, ".,!?;:")
		if word == "" || stopWords[word] || slices.Contains(keywords, word) {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}
