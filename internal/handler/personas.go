package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"tradercopilot/internal/models"
	"tradercopilot/internal/repository"
	"tradercopilot/internal/strategy"
)

type PersonaHandler struct {
	Repo     repository.Repository
	Registry *strategy.Registry
}

func (h *PersonaHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/personas")
	group.GET("", h.listPersonas)
	group.POST("", h.createPersona)
	group.POST("/:persona_id/enable", h.setEnabled(true))
	group.POST("/:persona_id/disable", h.setEnabled(false))
	group.DELETE("/:persona_id", h.deletePersona)
	r.GET("/api/v1/strategies", h.listStrategies)
}

func (h *PersonaHandler) listPersonas(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	items, err := h.Repo.ListPersonas(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

type createPersonaRequest struct {
	PersonaID  string   `json:"persona_id" binding:"required"`
	Name       string   `json:"name"`
	StrategyID string   `json:"strategy_id" binding:"required"`
	Tokens     []string `json:"tokens"`
	Timeframes []string `json:"timeframes"`
	Enabled    *bool    `json:"enabled"`
	UserID     *uint64  `json:"user_id"`
}

func (h *PersonaHandler) createPersona(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	var req createPersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if h.Registry != nil && h.Registry.Get(req.StrategyID) == nil {
		Error(c, http.StatusBadRequest, "unknown strategy: "+req.StrategyID, nil)
		return
	}

	tokens, _ := json.Marshal(req.Tokens)
	timeframes, _ := json.Marshal(req.Timeframes)
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	item := &models.Persona{
		PersonaID:  strings.TrimSpace(req.PersonaID),
		Name:       strings.TrimSpace(req.Name),
		StrategyID: strings.TrimSpace(req.StrategyID),
		Tokens:     datatypes.JSON(tokens),
		Timeframes: datatypes.JSON(timeframes),
		Enabled:    enabled,
		UserID:     req.UserID,
	}
	if err := h.Repo.CreatePersona(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *PersonaHandler) setEnabled(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.Repo == nil {
			Error(c, http.StatusInternalServerError, "repo unavailable", nil)
			return
		}
		personaID := strings.TrimSpace(c.Param("persona_id"))
		if personaID == "" {
			Error(c, http.StatusBadRequest, "persona_id required", nil)
			return
		}
		if err := h.Repo.SetPersonaEnabled(c.Request.Context(), personaID, enabled); err != nil {
			Error(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
		Ok(c, gin.H{"persona_id": personaID, "enabled": enabled}, nil)
	}
}

func (h *PersonaHandler) deletePersona(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	personaID := strings.TrimSpace(c.Param("persona_id"))
	if personaID == "" {
		Error(c, http.StatusBadRequest, "persona_id required", nil)
		return
	}
	if err := h.Repo.DeletePersona(c.Request.Context(), personaID); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"persona_id": personaID, "deleted": true}, nil)
}

func (h *PersonaHandler) listStrategies(c *gin.Context) {
	if h.Registry == nil {
		Error(c, http.StatusInternalServerError, "registry unavailable", nil)
		return
	}
	Ok(c, h.Registry.Names(), nil)
}
