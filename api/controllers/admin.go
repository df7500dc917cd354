package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Envislon1/create-joy/api/models"
	"github.com/Envislon1/create-joy/api/transport"
	"github.com/Envislon1/create-joy/logging"
	"github.com/Envislon1/create-joy/settlement"
	"github.com/Envislon1/create-joy/storage"
	"github.com/gin-gonic/gin"
)

type AdminController struct {
	settings     storage.ContestSettingsStorage
	contestants  storage.ContestantStorage
	transactions storage.VoteTransactionStorage
	boost        *settlement.Administrator
}

func NewAdminController(settings storage.ContestSettingsStorage, contestants storage.ContestantStorage, transactions storage.VoteTransactionStorage, boost *settlement.Administrator) *AdminController {
	return &AdminController{
		settings:     settings,
		contestants:  contestants,
		transactions: transactions,
		boost:        boost,
	}
}

func (c *AdminController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/admin", transport.AdminAuthMiddleware())

	group.GET("/settings", c.getSettings)
	group.PUT("/settings", c.updateSettings)
	group.POST("/boost", c.applyBoost)
	group.GET("/contestants", c.listContestants)
	group.POST("/contestants/:id/approve", c.approveContestant)
	group.DELETE("/contestants/:id", c.deleteContestant)
	group.GET("/transactions", c.listTransactions)
	group.DELETE("/transactions", c.purgeTransactions)
}

// @Security AdminToken
// getSettings godoc
// @Summary List all contest settings rows
// @Tags admin
// @Produce json
// @Success 200 {array} storage.ContestSetting
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/settings [get]
func (c *AdminController) getSettings(g *gin.Context) {
	rows, err := c.settings.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to list settings: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	g.JSON(http.StatusOK, rows)
}

// @Security AdminToken
// updateSettings godoc
// @Summary Upsert contest settings rows
// @Description Dates are RFC3339, vote_price a positive integer, flags "true"/"false"
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.UpdateSettingsRequest true "Settings to upsert"
// @Success 200 {object} map[string]int
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/settings [put]
func (c *AdminController) updateSettings(g *gin.Context) {
	var req models.UpdateSettingsRequest
	if err := g.ShouldBindJSON(&req); err != nil || len(req.Settings) == 0 {
		g.JSON(http.StatusBadRequest, gin.H{"error": "invalid request, missing settings"})
		return
	}

	// The boost guard is only ever written through its conditional claim.
	if _, ok := req.Settings[storage.VoteBoostAppliedKey]; ok {
		g.JSON(http.StatusBadRequest, gin.H{"error": "vote_boost_applied cannot be set directly"})
		return
	}

	updated := 0
	for key, value := range req.Settings {
		setting := &storage.ContestSetting{
			Key:       key,
			Value:     value,
			UpdatedAt: time.Now().UTC(),
		}
		if err := c.settings.Put(g.Request.Context(), setting); err != nil {
			logging.Log.Errorf("ADMIN: failed to update setting %s: %v", key, err)
			g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		updated++
	}

	logging.Log.Infof("ADMIN: updated %d settings", updated)
	g.JSON(http.StatusOK, gin.H{"updated": updated})
}

// @Security AdminToken
// applyBoost godoc
// @Summary Apply the one-time post-contest vote boost
// @Description Sets each configured contestant's votes to the leader's final count plus a bonus; runs at most once
// @Tags admin
// @Produce json
// @Success 200 {object} models.BoostResponse
// @Failure 500 {object} models.BoostResponse
// @Router /api/admin/boost [post]
func (c *AdminController) applyBoost(g *gin.Context) {
	report, err := c.boost.Apply(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("ADMIN: boost failed: %v", err)
		g.JSON(http.StatusInternalServerError, &models.BoostResponse{Success: false, Message: err.Error()})
		return
	}

	switch report.Outcome {
	case settlement.BoostTooEarly:
		g.JSON(http.StatusOK, &models.BoostResponse{
			Success: false,
			Message: "Vote boost not yet applicable. Wait until contest ends.",
		})
	case settlement.BoostAlreadyApplied:
		g.JSON(http.StatusOK, &models.BoostResponse{
			Success: false,
			Message: "Vote boost has already been applied",
		})
	default:
		results := make([]models.BoostEntry, 0, len(report.Results))
		for _, r := range report.Results {
			entry := models.BoostEntry{Name: r.Name, Success: r.Success, Error: r.Err}
			if r.Success {
				votes := r.NewVotes
				entry.NewVotes = &votes
			}
			results = append(results, entry)
		}
		highest := report.HighestVotes
		g.JSON(http.StatusOK, &models.BoostResponse{
			Success:            true,
			Message:            "Vote boosts applied successfully",
			HighestVotesAtTime: &highest,
			Results:            results,
		})
	}
}

// @Security AdminToken
// listContestants godoc
// @Summary List all contestants, including unapproved
// @Tags admin
// @Produce json
// @Success 200 {array} storage.Contestant
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/contestants [get]
func (c *AdminController) listContestants(g *gin.Context) {
	all, err := c.contestants.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to list contestants: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logging.Log.Infof("ADMIN: listed %d contestants", len(all))
	g.JSON(http.StatusOK, all)
}

// @Security AdminToken
// approveContestant godoc
// @Summary Approve a contestant for the public roster
// @Tags admin
// @Produce json
// @Param id path string true "Contestant ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/contestants/{id}/approve [post]
func (c *AdminController) approveContestant(g *gin.Context) {
	id := g.Param("id")
	if err := c.contestants.Approve(g.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			g.JSON(http.StatusNotFound, gin.H{"error": "contestant not found"})
			return
		}
		logging.Log.Errorf("ADMIN: failed to approve contestant %s: %v", id, err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logging.Log.Infof("ADMIN: approved contestant %s", id)
	g.JSON(http.StatusOK, gin.H{"approved": id})
}

// @Security AdminToken
// deleteContestant godoc
// @Summary Delete a contestant
// @Tags admin
// @Produce json
// @Param id path string true "Contestant ID"
// @Success 200 {object} map[string]string
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/contestants/{id} [delete]
func (c *AdminController) deleteContestant(g *gin.Context) {
	id := g.Param("id")
	if err := c.contestants.Delete(g.Request.Context(), id); err != nil {
		logging.Log.Errorf("ADMIN: failed to delete contestant %s: %v", id, err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logging.Log.Infof("ADMIN: deleted contestant %s", id)
	g.JSON(http.StatusOK, gin.H{"deleted": id})
}

// @Security AdminToken
// listTransactions godoc
// @Summary List all vote transactions
// @Tags admin
// @Produce json
// @Success 200 {array} storage.VoteTransaction
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/transactions [get]
func (c *AdminController) listTransactions(g *gin.Context) {
	txs, err := c.transactions.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to list transactions: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logging.Log.Infof("ADMIN: listed %d transactions", len(txs))
	g.JSON(http.StatusOK, txs)
}

// @Security AdminToken
// purgeTransactions godoc
// @Summary Delete all vote transactions
// @Description Pre-launch cleanup only; never run during an active contest
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/transactions [delete]
func (c *AdminController) purgeTransactions(g *gin.Context) {
	if err := c.transactions.DeleteAll(g.Request.Context()); err != nil {
		logging.Log.Errorf("ADMIN: failed to purge transactions: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logging.Log.Warnf("ADMIN: purged all vote transactions")
	g.JSON(http.StatusOK, gin.H{"message": "All transactions deleted"})
}
