package transcripts

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/hireloop/backend/pkg/response"
)

// Handler serves stored transcripts.
type Handler struct {
	store *Store
}

// NewHandler creates a transcripts handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Get handles GET /interviews/:id/transcripts/:sid.
func (h *Handler) Get(c *gin.Context) {
	rec, err := h.store.Load(c.Request.Context(), c.Param("id"), c.Param("sid"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "transcript not found")
			return
		}
		response.Internal(c, "failed to load transcript")
		return
	}
	response.OK(c, rec)
}
