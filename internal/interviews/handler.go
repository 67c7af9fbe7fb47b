package interviews

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hireloop/backend/internal/middleware"
	"github.com/hireloop/backend/internal/models"
	"github.com/hireloop/backend/pkg/response"
)

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// CreateRequest is the body for POST /interviews.
type CreateRequest struct {
	CandidateName   string `json:"candidate_name" binding:"required"`
	Role            string `json:"role" binding:"required"`
	Password        string `json:"password" binding:"required,min=6"`
	StartTime       string `json:"start_time" binding:"required"`
	EndTime         string `json:"end_time" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1"`
}

// Handler handles admin interview HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an interviews handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /interviews (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	startTime, err := parseTime(req.StartTime)
	if err != nil {
		response.BadRequest(c, "invalid start_time")
		return
	}
	endTime, err := parseTime(req.EndTime)
	if err != nil {
		response.BadRequest(c, "invalid end_time")
		return
	}
	if !endTime.After(startTime) {
		response.BadRequest(c, "end_time must be after start_time")
		return
	}

	adminID := c.MustGet(middleware.ContextAdminID).(uuid.UUID)
	code, err := generateAccessCode()
	if err != nil {
		h.logger.Error("generate access code failed", zap.Error(err))
		response.Internal(c, "failed to create interview")
		return
	}

	iv := &models.Interview{
		ID:              code,
		Password:        req.Password,
		CandidateName:   req.CandidateName,
		Role:            req.Role,
		StartTime:       startTime,
		EndTime:         endTime,
		DurationMinutes: req.DurationMinutes,
		CreatedBy:       &adminID,
	}
	if err := h.repo.Create(c.Request.Context(), iv); err != nil {
		h.logger.Error("create interview failed", zap.Error(err))
		response.Internal(c, "failed to create interview")
		return
	}
	response.Created(c, iv)
}

// GetByID handles GET /interviews/:id (admin only).
func (h *Handler) GetByID(c *gin.Context) {
	iv, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "interview not found")
			return
		}
		response.Internal(c, "failed to load interview")
		return
	}
	response.OK(c, iv)
}

// List handles GET /interviews (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list interviews")
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /interviews/:id (admin only, pre-start schedule edits).
func (h *Handler) Update(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.repo.GetByID(c.Request.Context(), id); err != nil {
		response.NotFound(c, "interview not found")
		return
	}

	var req struct {
		CandidateName   *string `json:"candidate_name"`
		Role            *string `json:"role"`
		StartTime       *string `json:"start_time"`
		EndTime         *string `json:"end_time"`
		DurationMinutes *int    `json:"duration_minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}

	var startTime, endTime *time.Time
	if req.StartTime != nil {
		t, err := parseTime(*req.StartTime)
		if err != nil {
			response.BadRequest(c, "invalid start_time")
			return
		}
		startTime = &t
	}
	if req.EndTime != nil {
		t, err := parseTime(*req.EndTime)
		if err != nil {
			response.BadRequest(c, "invalid end_time")
			return
		}
		endTime = &t
	}

	if err := h.repo.Update(c.Request.Context(), id, req.CandidateName, req.Role, startTime, endTime, req.DurationMinutes); err != nil {
		h.logger.Error("update interview failed", zap.Error(err), zap.String("interview_id", id))
		response.Internal(c, "failed to update interview")
		return
	}
	updated, _ := h.repo.GetByID(c.Request.Context(), id)
	response.OK(c, updated)
}

// Delete handles DELETE /interviews/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.repo.GetByID(c.Request.Context(), id); err != nil {
		response.NotFound(c, "interview not found")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete interview")
		return
	}
	response.NoContent(c)
}

// Access codes avoid 0/1/O/I so they survive being read over the phone.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateAccessCode() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, 8)
	for i, v := range b {
		out[i] = codeAlphabet[int(v)%len(codeAlphabet)]
	}
	return "IV-" + string(out), nil
}
