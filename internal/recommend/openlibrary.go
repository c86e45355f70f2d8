package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shelfscape/backend/internal/models"
)

// openLibraryTimeout bounds the secondary-catalog calls; the service
// is noticeably slower than the primary catalog.
const openLibraryTimeout = 10 * time.Second

// OpenLibraryClient queries the Open Library search API, the secondary
// catalog of the aggregator.
type OpenLibraryClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenLibraryClient(baseURL string) *OpenLibraryClient {
	return &OpenLibraryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: openLibraryTimeout},
	}
}

type openLibraryDoc struct {
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name"`
	CoverID             int      `json:"cover_i"`
	FirstSentence       []string `json:"first_sentence"`
	Publisher           []string `json:"publisher"`
	FirstPublishYear    int      `json:"first_publish_year"`
	NumberOfPagesMedian int      `json:"number_of_pages_median"`
	Subject             []string `json:"subject"`
	Language            []string `json:"language"`
	Key                 string   `json:"key"`
}

// Search runs a search.json query limited to a handful of documents.
func (c *OpenLibraryClient) Search(ctx context.Context, query string, limit int) ([]models.Recommendation, error) {
	u := fmt.Sprintf("%s/search.json?q=%s&limit=%d", c.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open library %q: %w", query, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open library %q: status %d", query, resp.StatusCode)
	}

	var payload struct {
		Docs []openLibraryDoc `json:"docs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("open library %q: decode: %w", query, err)
	}

	recs := make([]models.Recommendation, 0, len(payload.Docs))
	for _, doc := range payload.Docs {
		if doc.Title == "" {
			continue
		}
		recs = append(recs, models.Recommendation{
			Title:         doc.Title,
			Authors:       orUnknown(doc.AuthorName),
			Description:   truncateDescription(strings.Join(doc.FirstSentence, " ")),
			Image:         coverURL(doc.CoverID),
			Publisher:     strings.Join(firstN(doc.Publisher, 2), ", "),
			PublishedDate: publishYear(doc.FirstPublishYear),
			PageCount:     doc.NumberOfPagesMedian,
			Categories:    firstN(doc.Subject, 5),
			Language:      strings.Join(firstN(doc.Language, 2), ", "),
			PreviewLink:   previewLink(doc.Key),
		})
	}
	return recs, nil
}

func orUnknown(authors []string) []string {
	if len(authors) == 0 {
		return []string{"Unknown Author"}
	}
	return authors
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func coverURL(coverID int) string {
	if coverID == 0 {
		return ""
	}
	return fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", coverID)
}

func publishYear(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}

func previewLink(key string) string {
	if key == "" {
		return ""
	}
	return "https://openlibrary.org" + key
}
