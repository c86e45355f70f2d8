// Package recommend builds a deduplicated recommendation list from
// detected book titles by querying two external catalogs in cascading
// phases.
package recommend

import (
	"context"
	"log"
	"strings"

	"github.com/shelfscape/backend/internal/models"
)

const (
	maxRecommendations  = 6
	maxSearchTerms      = 5
	titleResultsPerTerm = 8
	maxCategorySearches = 3
	categoryResults     = 5
	openLibraryResults  = 3

	descriptionLimit = 250
	noDescription    = "No description available."
)

// Aggregator composes the primary and secondary catalog clients.
type Aggregator struct {
	books       *GoogleBooksClient
	openLibrary *OpenLibraryClient
}

func NewAggregator(books *GoogleBooksClient, openLibrary *OpenLibraryClient) *Aggregator {
	return &Aggregator{books: books, openLibrary: openLibrary}
}

// Recommend turns detected titles into at most six recommendations.
// Catalog failures are logged and skipped, never propagated: the
// result is non-empty even when every upstream call fails, falling
// back to a fixed sample set.
func (a *Aggregator) Recommend(ctx context.Context, detected []string) []models.Recommendation {
	terms := detected
	if len(terms) > maxSearchTerms {
		terms = terms[:maxSearchTerms]
	}
	if len(terms) == 0 {
		log.Printf("recommend: no detected titles to search, returning samples")
		return sampleRecommendations()
	}

	recs := []models.Recommendation{}
	seen := map[string]bool{}
	categories := []string{}
	seenCategories := map[string]bool{}

	// Phase 1: title search against the primary catalog. Skip results
	// that merely echo the search term back, and collect categories for
	// the next phase.
	for _, term := range terms {
		if len(recs) >= maxRecommendations {
			break
		}
		found, err := a.books.Search(ctx, term, titleResultsPerTerm)
		if err != nil {
			log.Printf("recommend: title search: %v", err)
			continue
		}
		for _, rec := range found {
			if len(recs) >= maxRecommendations {
				break
			}
			key := strings.ToLower(rec.Title)
			if key == strings.ToLower(term) || seen[key] {
				continue
			}
			seen[key] = true
			recs = append(recs, rec)
			for _, cat := range rec.Categories {
				lc := strings.ToLower(cat)
				if !seenCategories[lc] {
					seenCategories[lc] = true
					categories = append(categories, lc)
				}
			}
		}
	}

	// Phase 2: category search, while still short. Self-match
	// suppression does not apply here.
	if len(recs) < maxRecommendations && len(categories) > 0 {
		if len(categories) > maxCategorySearches {
			categories = categories[:maxCategorySearches]
		}
		for _, cat := range categories {
			if len(recs) >= maxRecommendations {
				break
			}
			found, err := a.books.Search(ctx, "subject:"+cat, categoryResults)
			if err != nil {
				log.Printf("recommend: category search %q: %v", cat, err)
				continue
			}
			for _, rec := range found {
				if len(recs) >= maxRecommendations {
					break
				}
				key := strings.ToLower(rec.Title)
				if seen[key] {
					continue
				}
				seen[key] = true
				recs = append(recs, rec)
			}
		}
	}

	// Phase 3: secondary catalog with the original terms.
	if len(recs) < maxRecommendations {
		for _, term := range terms {
			if len(recs) >= maxRecommendations {
				break
			}
			found, err := a.openLibrary.Search(ctx, term, openLibraryResults)
			if err != nil {
				log.Printf("recommend: open library search: %v", err)
				continue
			}
			for _, rec := range found {
				if len(recs) >= maxRecommendations {
					break
				}
				key := strings.ToLower(rec.Title)
				if seen[key] {
					continue
				}
				seen[key] = true
				recs = append(recs, rec)
			}
		}
	}

	if len(recs) == 0 {
		log.Printf("recommend: all catalog searches came up empty, returning samples")
		return sampleRecommendations()
	}
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

// truncateDescription bounds a catalog description, marking the cut
// with an ellipsis. The limit counts characters, not bytes, so a
// multi-byte description is never cut mid-rune.
func truncateDescription(desc string) string {
	if desc == "" {
		return noDescription
	}
	if runes := []rune(desc); len(runes) > descriptionLimit {
		return string(runes[:descriptionLimit]) + "..."
	}
	return desc
}

// sampleRecommendations is the fixed fallback set used when the whole
// cascade yields nothing.
func sampleRecommendations() []models.Recommendation {
	return []models.Recommendation{
		{
			Title:         "Sample Rec: The Hitchhiker's Guide",
			Authors:       []string{"Douglas Adams"},
			Description:   "A hilarious sci-fi adventure...",
			Publisher:     "Pan Books",
			PublishedDate: "1979",
			PageCount:     180,
			Categories:    []string{"Fiction"},
			Language:      "en",
		},
		{
			Title:         "Sample Rec: Sapiens",
			Authors:       []string{"Yuval Noah Harari"},
			Description:   "A brief history of humankind...",
			Publisher:     "Harvill Secker",
			PublishedDate: "2011",
			PageCount:     464,
			Categories:    []string{"History"},
			Language:      "en",
		},
	}
}
