package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/grammarheroes/backend/internal/http/response"
	"github.com/grammarheroes/backend/internal/platform/apierr"
	"github.com/grammarheroes/backend/internal/services"
)

type SubmissionHandler struct {
	submissions services.SubmissionService
}

func NewSubmissionHandler(submissions services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// POST /submissions
func (h *SubmissionHandler) Submit(c *gin.Context) {
	playerID, ok := callerID(c)
	if !ok {
		return
	}
	var in services.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}
	in.IdempotencyKey = c.GetHeader("Idempotency-Key")

	res, err := h.submissions.Submit(c.Request.Context(), playerID, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}
