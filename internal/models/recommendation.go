package models

// Recommendation is one catalog entry accepted by the aggregator.
// The JSON field names mirror the catalog payloads the frontend expects.
type Recommendation struct {
	Title         string   `json:"title"          bson:"title"`
	Authors       []string `json:"authors"        bson:"authors"`
	Description   string   `json:"description"    bson:"description"`
	Image         string   `json:"image"          bson:"image"`
	Publisher     string   `json:"publisher"      bson:"publisher"`
	PublishedDate string   `json:"publishedDate"  bson:"published_date"`
	PageCount     int      `json:"pageCount"      bson:"page_count"`
	Categories    []string `json:"categories"     bson:"categories"`
	Language      string   `json:"language"       bson:"language"`
	PreviewLink   string   `json:"previewLink"    bson:"preview_link"`
}
