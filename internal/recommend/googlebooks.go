package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shelfscape/backend/internal/models"
)

// GoogleBooksClient queries the Google Books volumes API.
type GoogleBooksClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewGoogleBooksClient(baseURL string) *GoogleBooksClient {
	return &GoogleBooksClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

type googleVolume struct {
	VolumeInfo struct {
		Title       string   `json:"title"`
		Authors     []string `json:"authors"`
		Description string   `json:"description"`
		ImageLinks  struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
		Publisher     string   `json:"publisher"`
		PublishedDate string   `json:"publishedDate"`
		PageCount     int      `json:"pageCount"`
		Categories    []string `json:"categories"`
		Language      string   `json:"language"`
		PreviewLink   string   `json:"previewLink"`
	} `json:"volumeInfo"`
}

// Search runs a volumes query and maps the results. The query may be a
// plain title or a "subject:<category>" filter.
func (c *GoogleBooksClient) Search(ctx context.Context, query string, maxResults int) ([]models.Recommendation, error) {
	u := fmt.Sprintf("%s/volumes?q=%s&maxResults=%d&orderBy=relevance&printType=books",
		c.baseURL, url.QueryEscape(query), maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google books %q: %w", query, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books %q: status %d", query, resp.StatusCode)
	}

	var payload struct {
		Items []googleVolume `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("google books %q: decode: %w", query, err)
	}

	recs := make([]models.Recommendation, 0, len(payload.Items))
	for _, item := range payload.Items {
		info := item.VolumeInfo
		if info.Title == "" {
			continue
		}
		authors := info.Authors
		if len(authors) == 0 {
			authors = []string{"Unknown Author"}
		}
		recs = append(recs, models.Recommendation{
			Title:         info.Title,
			Authors:       authors,
			Description:   truncateDescription(info.Description),
			Image:         info.ImageLinks.Thumbnail,
			Publisher:     info.Publisher,
			PublishedDate: info.PublishedDate,
			PageCount:     info.PageCount,
			Categories:    info.Categories,
			Language:      info.Language,
			PreviewLink:   info.PreviewLink,
		})
	}
	return recs, nil
}
