package lifecycle

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hireloop/backend/internal/interviews"
	"github.com/hireloop/backend/pkg/response"
)

// LoginRequest is the body for POST /interviews/login.
type LoginRequest struct {
	InterviewID string `json:"interview_id" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// FlexInt accepts both a JSON number and a numeric string, matching lenient
// clients that send the question index either way.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// ProgressRequest is the body for PATCH /interviews/:id/progress.
type ProgressRequest struct {
	IsUsed               *bool    `json:"is_used"`
	CurrentQuestionIndex *FlexInt `json:"current_question_index"`
}

// Handler handles candidate-facing lifecycle endpoints.
type Handler struct {
	engine *Engine
	logger *zap.Logger
}

// NewHandler creates a lifecycle handler.
func NewHandler(engine *Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, logger: logger}
}

// Login handles POST /interviews/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	session, err := h.engine.Login(c.Request.Context(), req.InterviewID, req.Password)
	if err != nil {
		var rej *Rejection
		if errors.As(err, &rej) {
			h.writeRejection(c, rej)
			return
		}
		h.logger.Error("login failed", zap.Error(err), zap.String("interview_id", req.InterviewID))
		response.Internal(c, "login failed")
		return
	}
	response.OK(c, session)
}

func (h *Handler) writeRejection(c *gin.Context, rej *Rejection) {
	var data interface{}
	if rej.ScheduledTime != nil {
		data = gin.H{"scheduled_time": rej.ScheduledTime}
	}
	status := http.StatusForbidden
	switch rej.Kind {
	case RejectNotFound:
		status = http.StatusNotFound
	case RejectBadCredentials:
		status = http.StatusUnauthorized
	case RejectExpired:
		status = http.StatusGone
	}
	response.Reject(c, status, string(rej.Kind), rej.Message, data)
}

// SyncProgress handles PATCH /interviews/:id/progress.
func (h *Handler) SyncProgress(c *gin.Context) {
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	upd := Update{IsUsed: req.IsUsed}
	if req.CurrentQuestionIndex != nil {
		idx := int(*req.CurrentQuestionIndex)
		upd.CurrentQuestionIndex = &idx
	}

	iv, err := h.engine.SyncProgress(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		if errors.Is(err, interviews.ErrNotFound) {
			response.NotFound(c, "interview not found")
			return
		}
		h.logger.Error("progress sync failed", zap.Error(err), zap.String("interview_id", c.Param("id")))
		response.Internal(c, "failed to update interview")
		return
	}
	response.OK(c, iv)
}
