package documents

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"docsync-server/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type DocumentCreateResponse struct {
	ID string `json:"id"`
}

// HandleCreate mints a fresh server-generated document id with the posted
// state, or the default empty document when the body is empty. Clients that
// want collision-free share links use this instead of inventing their own
// identifiers.
func HandleCreate(store core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			logrus.WithError(err).Error("Failed to read request body")
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		state := core.DocumentState(data)
		if len(data) == 0 {
			state = core.DefaultState()
		} else if !json.Valid(data) {
			http.Error(w, "document state must be valid JSON", http.StatusBadRequest)
			return
		}

		doc := &core.Document{ID: ulid.Make().String(), State: state}
		stored, err := store.Create(r.Context(), doc)
		if err != nil {
			logrus.WithError(err).Error("Failed to create document")
			http.Error(w, "failed to create document", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, DocumentCreateResponse{ID: stored.ID})
	}
}

// HandleGet returns the persisted state for a document id.
func HandleGet(store core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		doc, err := store.FindID(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				http.Error(w, "document not found", http.StatusNotFound)
				return
			}
			logrus.WithError(err).Error("Failed to retrieve document")
			http.Error(w, "failed to retrieve document", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(doc.State); err != nil {
			logrus.WithError(err).Error("Failed to write response")
		}
	}
}
