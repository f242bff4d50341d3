package rooms

import (
	"net/http"

	"docsync-server/collab"

	"github.com/go-chi/render"
)

// HandleList reports the live rooms and their member counts.
func HandleList(service *collab.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, service.Rooms())
	}
}
