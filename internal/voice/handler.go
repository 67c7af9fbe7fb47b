package voice

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/hireloop/backend/pkg/response"
)

// StartRequest is the body for POST /voice/sessions.
type StartRequest struct {
	InterviewID   string `json:"interview_id" binding:"required"`
	CandidateName string `json:"candidate_name" binding:"required"`
	Role          string `json:"role" binding:"required"`
}

// TurnRequest is the body for POST /voice/sessions/:sid/turns.
type TurnRequest struct {
	Text string `json:"text" binding:"required"`
}

// Handler handles voice session HTTP endpoints.
type Handler struct {
	engine *Engine
}

// NewHandler creates a voice handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// Start handles POST /voice/sessions.
func (h *Handler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	result := h.engine.StartSession(c.Request.Context(), req.InterviewID, req.CandidateName, req.Role)
	response.Created(c, result)
}

// SubmitTurn handles POST /voice/sessions/:sid/turns.
func (h *Handler) SubmitTurn(c *gin.Context) {
	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	result, err := h.engine.ProcessTurn(c.Request.Context(), c.Param("sid"), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			response.NotFound(c, "voice session not found")
		case errors.Is(err, ErrSessionEnded):
			response.Conflict(c, "voice session already ended")
		default:
			response.Internal(c, "failed to process turn")
		}
		return
	}
	response.OK(c, result)
}

// GetState handles GET /voice/sessions/:sid.
func (h *Handler) GetState(c *gin.Context) {
	state, err := h.engine.ConversationState(c.Param("sid"))
	if err != nil {
		response.NotFound(c, "voice session not found")
		return
	}
	response.OK(c, state)
}

// End handles DELETE /voice/sessions/:sid.
func (h *Handler) End(c *gin.Context) {
	h.engine.EndSession(c.Request.Context(), c.Param("sid"))
	response.OK(c, gin.H{"ended": true})
}
