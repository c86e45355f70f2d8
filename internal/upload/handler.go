// Package upload implements the bookshelf image pipeline: stash the
// image, detect titles with the vision model, build recommendations
// from the book catalogs, save everything to the user's shelves, and
// record the run in the upload history.
package upload

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/shelfscape/backend/internal/api"
	"github.com/shelfscape/backend/internal/detect"
	"github.com/shelfscape/backend/internal/middleware"
	"github.com/shelfscape/backend/internal/models"
	"github.com/shelfscape/backend/internal/store"
)

// maxUploadBytes caps the multipart form size at 16 MiB.
const maxUploadBytes = 16 << 20

// Detector analyzes an image for book titles.
type Detector interface {
	Detect(ctx context.Context, image []byte, contentType string) detect.Result
}

// Recommender turns detected titles into book recommendations.
type Recommender interface {
	Recommend(ctx context.Context, detected []string) []models.Recommendation
}

// BlobStore holds the uploaded image bytes for the duration of the
// pipeline.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Remove(ctx context.Context, key string) error
}

// SaveStore persists pipeline results onto the user's shelves.
type SaveStore interface {
	SaveUploadResults(ctx context.Context, userID int64, detected []string, recs []models.Recommendation) (store.UploadSave, error)
}

// HistoryStore records completed uploads.
type HistoryStore interface {
	Insert(ctx context.Context, rec *models.UploadRecord) (string, error)
	ListByUser(ctx context.Context, userID int64) ([]models.UploadRecord, error)
}

// Handler holds the upload pipeline HTTP handlers.
type Handler struct {
	detector Detector
	recs     Recommender
	blobs    BlobStore
	saves    SaveStore
	history  HistoryStore
}

func NewHandler(detector Detector, recs Recommender, blobs BlobStore, saves SaveStore, history HistoryStore) *Handler {
	return &Handler{detector: detector, recs: recs, blobs: blobs, saves: saves, history: history}
}

// Upload runs the whole pipeline for one image. Detection failure is
// not a request failure: the response still carries the (empty) result
// set along with the reason.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	if h.detector == nil {
		api.Error(w, http.StatusServiceUnavailable, "Image analysis service is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("bookshelfImage")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "No file part in request")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		api.Error(w, http.StatusBadRequest, "No selected file")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		api.Error(w, http.StatusBadRequest, "Uploaded file is not an image.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	// Stash the image so the pipeline works from the blob store, then
	// clean it up whatever happens downstream.
	key := "uploads/" + uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
	if err := h.blobs.Upload(r.Context(), key, data, contentType); err != nil {
		log.Printf("blob upload failed: %v", err)
		api.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer func() {
		if err := h.blobs.Remove(context.Background(), key); err != nil {
			log.Printf("blob cleanup failed for %s: %v", key, err)
		}
	}()

	result := h.detector.Detect(r.Context(), data, contentType)

	// Recommendations run even when detection fails: with no usable
	// titles the aggregator falls back to its sample set, which still
	// gets saved and recorded below.
	recommendations := h.recs.Recommend(r.Context(), result.Titles)

	saveMessage := "No books detected or recommended to save."
	if len(result.Titles) > 0 || len(recommendations) > 0 {
		saved, err := h.saves.SaveUploadResults(r.Context(), userID, result.Titles, recommendations)
		if err != nil {
			log.Printf("saving upload results failed: %v", err)
			api.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if saved.AddedDetected+saved.AddedRecommended > 0 {
			saveMessage = fmt.Sprintf("Added %d detected and %d recommended books to your shelves.",
				saved.AddedDetected, saved.AddedRecommended)
		} else {
			saveMessage = "No new books needed to be added to your shelves."
		}
	}

	rec := &models.UploadRecord{
		UserID:          userID,
		ObjectKey:       key,
		DetectedBooks:   result.Titles,
		Recommendations: recommendations,
		SaveMessage:     saveMessage,
	}
	if result.Failed {
		rec.DetectionError = result.Reason
	}
	if _, err := h.history.Insert(r.Context(), rec); err != nil {
		// History is best effort; the user already has their result.
		log.Printf("recording upload history failed: %v", err)
	}

	resp := map[string]any{
		"detected_books":  result.Titles,
		"recommendations": recommendations,
		"save_message":    saveMessage,
	}
	if result.Failed {
		resp["detection_error"] = result.Reason
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

// History returns the caller's past uploads, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	records, err := h.history.ListByUser(r.Context(), userID)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if records == nil {
		records = []models.UploadRecord{}
	}
	api.WriteJSON(w, http.StatusOK, records)
}
