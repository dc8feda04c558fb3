package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grammarheroes/backend/internal/http/response"
	"github.com/grammarheroes/backend/internal/platform/apierr"
	"github.com/grammarheroes/backend/internal/services"
)

type AdventureHandler struct {
	adventures services.AdventureService
	players    services.PlayerService
}

func NewAdventureHandler(adventures services.AdventureService, players services.PlayerService) *AdventureHandler {
	return &AdventureHandler{adventures: adventures, players: players}
}

// POST /adventures
func (h *AdventureHandler) Start(c *gin.Context) {
	playerID, ok := callerID(c)
	if !ok {
		return
	}
	var in services.StartInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}
	adv, err := h.adventures.Start(c.Request.Context(), playerID, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"adventure": adv})
}

// GET /adventures/active
func (h *AdventureHandler) GetActive(c *gin.Context) {
	playerID, ok := callerID(c)
	if !ok {
		return
	}
	adv, err := h.adventures.GetActive(c.Request.Context(), playerID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"adventure": adv})
}

// PATCH /adventures/active
func (h *AdventureHandler) Progress(c *gin.Context) {
	playerID, ok := callerID(c)
	if !ok {
		return
	}
	var patch services.ProgressPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}
	adv, err := h.adventures.Progress(c.Request.Context(), playerID, patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"adventure": adv})
}

// POST /adventures/finish
// Replays of the same Idempotency-Key return the recorded summary with a
// duplicate marker instead of settling the run twice.
func (h *AdventureHandler) Finish(c *gin.Context) {
	playerID, ok := callerID(c)
	if !ok {
		return
	}
	var in services.FinishInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}
	in.IdempotencyKey = c.GetHeader("Idempotency-Key")

	res, err := h.adventures.Finish(c.Request.Context(), playerID, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /adventures/history
func (h *AdventureHandler) History(c *gin.Context) {
	playerID, ok := callerID(c)
	if !ok {
		return
	}
	rows, err := h.adventures.History(c.Request.Context(), playerID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"history": rows})
}

// GET /adventures/:id/summary
func (h *AdventureHandler) GetSummary(c *gin.Context) {
	playerID, ok := callerID(c)
	if !ok {
		return
	}
	advID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}
	sum, serr := h.adventures.GetSummary(c.Request.Context(), playerID, advID)
	if serr != nil {
		response.RespondAPIError(c, serr)
		return
	}
	response.RespondOK(c, gin.H{"summary": sum})
}

// GET /adventures/:id/stats
func (h *AdventureHandler) GetStats(c *gin.Context) {
	playerID, ok := callerID(c)
	if !ok {
		return
	}
	advID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}
	rows, serr := h.players.AdventureStats(c.Request.Context(), playerID, advID)
	if serr != nil {
		response.RespondAPIError(c, serr)
		return
	}
	response.RespondOK(c, gin.H{"stats": rows})
}
