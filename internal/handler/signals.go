package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tradercopilot/internal/models"
	"tradercopilot/internal/repository"
)

type SignalHandler struct {
	Repo repository.Repository
}

func (h *SignalHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/signals")
	group.GET("", h.listSignals)
	group.GET("/stats", h.signalStats)
}

func (h *SignalHandler) listSignals(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	params := repository.ListSignalsParams{
		Limit:   intQuery(c, "limit", 50),
		Offset:  intQuery(c, "offset", 0),
		OrderBy: "timestamp",
		Asc:     boolPtr(false),
	}
	if token := strings.TrimSpace(c.Query("token")); token != "" {
		params.Token = &token
	}
	if direction := strings.TrimSpace(c.Query("direction")); direction != "" {
		params.Direction = &direction
	}
	if mode := strings.TrimSpace(c.Query("mode")); mode != "" {
		params.Mode = &mode
	}
	if strategyID := strings.TrimSpace(c.Query("strategy")); strategyID != "" {
		params.StrategyID = &strategyID
	}
	if outcome, ok := c.GetQuery("outcome"); ok {
		outcome = strings.TrimSpace(outcome)
		params.Outcome = &outcome
	}
	if userRaw := strings.TrimSpace(c.Query("user_id")); userRaw != "" {
		if userID, err := strconv.ParseUint(userRaw, 10, 64); err == nil {
			params.UserID = &userID
		}
	}
	if since := strings.TrimSpace(c.Query("since")); since != "" {
		if parsed, err := time.Parse(time.RFC3339, since); err == nil {
			parsed = parsed.UTC()
			params.Since = &parsed
		}
	}
	if until := strings.TrimSpace(c.Query("until")); until != "" {
		if parsed, err := time.Parse(time.RFC3339, until); err == nil {
			parsed = parsed.UTC()
			params.Until = &parsed
		}
	}

	ctx := c.Request.Context()
	items, err := h.Repo.ListSignals(ctx, params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountSignals(ctx, params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

// signalStats summarizes closed-signal outcomes for one strategy or the
// whole system.
func (h *SignalHandler) signalStats(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	base := repository.ListSignalsParams{}
	if strategyID := strings.TrimSpace(c.Query("strategy")); strategyID != "" {
		base.StrategyID = &strategyID
	}

	ctx := c.Request.Context()
	counts := map[string]int64{}
	for _, outcome := range []string{models.OutcomeWin, models.OutcomeLoss, models.OutcomeExpired, ""} {
		outcome := outcome
		params := base
		params.Outcome = &outcome
		total, err := h.Repo.CountSignals(ctx, params)
		if err != nil {
			Error(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
		label := outcome
		if label == "" {
			label = "pending"
		}
		counts[label] = total
	}

	closed := counts[models.OutcomeWin] + counts[models.OutcomeLoss]
	winRate := 0.0
	if closed > 0 {
		winRate = float64(counts[models.OutcomeWin]) / float64(closed)
	}
	Ok(c, gin.H{
		"win":      counts[models.OutcomeWin],
		"loss":     counts[models.OutcomeLoss],
		"expired":  counts[models.OutcomeExpired],
		"pending":  counts["pending"],
		"win_rate": winRate,
	}, nil)
}
