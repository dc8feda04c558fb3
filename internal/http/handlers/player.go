package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grammarheroes/backend/internal/http/response"
	"github.com/grammarheroes/backend/internal/platform/apierr"
	"github.com/grammarheroes/backend/internal/platform/ctxutil"
	"github.com/grammarheroes/backend/internal/services"
)

type PlayerHandler struct {
	players services.PlayerService
}

func NewPlayerHandler(players services.PlayerService) *PlayerHandler {
	return &PlayerHandler{players: players}
}

// callerID pulls the arbitrated player identity out of the request context.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.PlayerID == uuid.Nil {
		response.RespondAPIError(c, apierr.Unauthorized(nil))
		return uuid.Nil, false
	}
	return rd.PlayerID, true
}

// GET /me
func (h *PlayerHandler) GetMe(c *gin.Context) {
	playerID, ok := callerID(c)
	if !ok {
		return
	}
	me, err := h.players.Me(c.Request.Context(), playerID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// PATCH /me
func (h *PlayerHandler) UpdateProfile(c *gin.Context) {
	playerID, ok := callerID(c)
	if !ok {
		return
	}
	var patch services.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}
	me, err := h.players.UpdateProfile(c.Request.Context(), playerID, patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// POST /me/display-name
// body: { "display_name": "..." }
func (h *PlayerHandler) SetDisplayName(c *gin.Context) {
	playerID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.Validation(err))
		return
	}
	me, err := h.players.SetDisplayName(c.Request.Context(), playerID, req.DisplayName)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// GET /display-name/availability?name=...
func (h *PlayerHandler) CheckDisplayName(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		response.RespondAPIError(c, apierr.Validation(errors.New("name query parameter is required")))
		return
	}
	available, err := h.players.DisplayNameAvailable(c.Request.Context(), name)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"name": name, "available": available})
}

// GET /me/mastery
// Projected over the full KC board: unseen KCs come back at the neutral prior.
func (h *PlayerHandler) GetMastery(c *gin.Context) {
	playerID, ok := callerID(c)
	if !ok {
		return
	}
	rows, err := h.players.MasteryProjection(c.Request.Context(), playerID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"mastery": rows})
}

// GET /bootstrap
func (h *PlayerHandler) Bootstrap(c *gin.Context) {
	playerID, ok := callerID(c)
	if !ok {
		return
	}
	view, err := h.players.Bootstrap(c.Request.Context(), playerID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}
