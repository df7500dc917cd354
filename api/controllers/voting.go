package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/Envislon1/create-joy/api/models"
	"github.com/Envislon1/create-joy/contest"
	"github.com/Envislon1/create-joy/logging"
	"github.com/Envislon1/create-joy/settlement"
	"github.com/Envislon1/create-joy/storage"
	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type VotingController struct {
	verifier     *settlement.Verifier
	transactions storage.VoteTransactionStorage
	contestants  storage.ContestantStorage
	settings     storage.ContestSettingsStorage
}

func NewVotingController(verifier *settlement.Verifier, transactions storage.VoteTransactionStorage, contestants storage.ContestantStorage, settings storage.ContestSettingsStorage) *VotingController {
	return &VotingController{
		verifier:     verifier,
		transactions: transactions,
		contestants:  contestants,
		settings:     settings,
	}
}

func (c *VotingController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api")

	group.POST("/vote/init", c.initVote)
	group.POST("/vote/verify", c.verifyVote)
	group.GET("/vote/:reference", c.getTransaction)
	group.GET("/leaderboard", c.leaderboard)
	group.GET("/settings", c.getPublicSettings)
}

// initVote godoc
// @Summary Initialize a vote purchase
// @Description Mints a payment reference and records a pending transaction for the checkout widget
// @Tags voting
// @Accept json
// @Produce json
// @Param request body models.InitVoteRequest true "Vote purchase"
// @Success 200 {object} models.InitVoteResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 404 {object} models.ErrorResponse "Contestant not found"
// @Failure 409 {object} models.ErrorResponse "Contest is not accepting votes"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/vote/init [post]
func (c *VotingController) initVote(g *gin.Context) {
	var req models.InitVoteRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	rows, err := c.settings.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("VOTE: failed to load settings: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load contest settings"})
		return
	}
	settings, err := contest.ParseSettings(rows)
	if err != nil {
		logging.Log.Errorf("VOTE: invalid settings: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "contest is not configured"})
		return
	}

	now := time.Now()
	if phase := settings.PhaseAt(now); phase != contest.PhaseActive || !settings.IsActive {
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "contest is not accepting votes"})
		return
	}

	contestant, err := c.contestants.Get(g.Request.Context(), req.ContestantID)
	if err != nil || !contestant.Approved {
		g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "contestant not found"})
		return
	}

	reference := fmt.Sprintf("vote_%d_%s", now.UnixMilli(), c.generateReferenceID())
	tx := &storage.VoteTransaction{
		Reference:    reference,
		ContestantID: req.ContestantID,
		VoterEmail:   req.VoterEmail,
		Votes:        req.VoteCount,
		Amount:       settings.AmountForVotes(req.VoteCount),
		Status:       storage.TxStatusPending,
		CreatedAt:    now.UTC(),
	}
	if err := c.transactions.Create(g.Request.Context(), tx); err != nil {
		logging.Log.Errorf("VOTE: failed to create pending transaction: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not initialize vote purchase"})
		return
	}

	logging.Log.Infof("VOTE: initialized reference %s for %s (%d votes)", reference, req.ContestantID, req.VoteCount)
	g.JSON(http.StatusOK, &models.InitVoteResponse{
		Reference: reference,
		Amount:    tx.Amount,
		Email:     req.VoterEmail,
	})
}

// verifyVote godoc
// @Summary Verify a payment and credit votes
// @Description Re-verifies the reference against the payment gateway and credits votes exactly once
// @Tags voting
// @Accept json
// @Produce json
// @Param request body models.VerifyVoteRequest true "Payment confirmation"
// @Success 200 {object} models.VerifyVoteResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request or amount below minimum"
// @Failure 402 {object} models.ErrorResponse "Payment not confirmed"
// @Failure 404 {object} models.ErrorResponse "Contestant not found"
// @Failure 409 {object} models.ErrorResponse "Contest is not accepting votes"
// @Failure 502 {object} models.ErrorResponse "Gateway unavailable, retry with the same reference"
// @Router /api/vote/verify [post]
func (c *VotingController) verifyVote(g *gin.Context) {
	var req models.VerifyVoteRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	result, err := c.verifier.Verify(g.Request.Context(), settlement.VerifyRequest{
		Reference:    req.Reference,
		ContestantID: req.ContestantID,
		VoterEmail:   req.VoterEmail,
		ClaimedVotes: req.VoteCount,
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, settlement.ErrPhaseViolation):
			status = http.StatusConflict
		case errors.Is(err, settlement.ErrContestantNotFound):
			status = http.StatusNotFound
		case errors.Is(err, settlement.ErrPaymentNotConfirmed):
			status = http.StatusPaymentRequired
		case errors.Is(err, settlement.ErrAmountBelowMinimum):
			status = http.StatusBadRequest
		case errors.Is(err, settlement.ErrGatewayUnavailable):
			status = http.StatusBadGateway
		}
		logging.Log.Warnf("VOTE: verification failed for %s: %v", req.Reference, err)
		g.JSON(status, &models.ErrorResponse{Error: err.Error()})
		return
	}

	message := fmt.Sprintf("%d votes credited", result.CreditedVotes)
	if result.AlreadyCredited {
		message = "votes already credited for this reference"
	}
	g.JSON(http.StatusOK, &models.VerifyVoteResponse{
		Success:       true,
		Message:       message,
		CreditedVotes: result.CreditedVotes,
	})
}

// getTransaction godoc
// @Summary Get a vote transaction by reference
// @Tags voting
// @Produce json
// @Param reference path string true "Payment reference"
// @Success 200 {object} storage.VoteTransaction
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/vote/{reference} [get]
func (c *VotingController) getTransaction(g *gin.Context) {
	reference := g.Param("reference")
	if reference == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "reference is required"})
		return
	}

	tx, err := c.transactions.Get(g.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "no transaction for the given reference"})
			return
		}
		logging.Log.Errorf("VOTE: failed to load transaction %s: %v", reference, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load transaction"})
		return
	}
	g.JSON(http.StatusOK, tx)
}

// leaderboard godoc
// @Summary Public leaderboard
// @Description Approved contestants ranked by vote count
// @Tags voting
// @Produce json
// @Success 200 {array} models.LeaderboardEntry
// @Failure 500 {object} models.ErrorResponse
// @Router /api/leaderboard [get]
func (c *VotingController) leaderboard(g *gin.Context) {
	all, err := c.contestants.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("VOTE: failed to load contestants: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load leaderboard"})
		return
	}

	approved := make([]*storage.Contestant, 0, len(all))
	for _, contestant := range all {
		if contestant.Approved {
			approved = append(approved, contestant)
		}
	}
	sort.SliceStable(approved, func(i, j int) bool { return approved[i].Votes > approved[j].Votes })

	entries := make([]models.LeaderboardEntry, 0, len(approved))
	for i, contestant := range approved {
		entries = append(entries, models.LeaderboardEntry{
			Rank:         i + 1,
			ID:           contestant.ID,
			Name:         contestant.Name,
			ProfileImage: contestant.ProfileImage,
			Votes:        contestant.Votes,
		})
	}
	g.JSON(http.StatusOK, entries)
}

// getPublicSettings godoc
// @Summary Public contest settings
// @Description Contest window and vote price for countdown and checkout displays
// @Tags voting
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} models.ErrorResponse
// @Router /api/settings [get]
func (c *VotingController) getPublicSettings(g *gin.Context) {
	rows, err := c.settings.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("VOTE: failed to load settings: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load contest settings"})
		return
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	g.JSON(http.StatusOK, out)
}

func (c *VotingController) generateReferenceID() string {
	id, err := gonanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 13)
	if err != nil {
		logging.Log.Errorf("VOTE: failed to generate reference id: %v", err)
		return "error"
	}
	return id
}
