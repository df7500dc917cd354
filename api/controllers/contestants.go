package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Envislon1/create-joy/api/models"
	"github.com/Envislon1/create-joy/logging"
	"github.com/Envislon1/create-joy/storage"
	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type ContestantsController struct {
	contestants storage.ContestantStorage
}

func NewContestantsController(contestants storage.ContestantStorage) *ContestantsController {
	return &ContestantsController{contestants: contestants}
}

func (c *ContestantsController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api")

	group.POST("/contestants", c.register)
	group.GET("/contestants", c.list)
	group.GET("/contestants/:id", c.get)
}

// register godoc
// @Summary Register a contestant
// @Description Creates a contestant with zero votes, pending admin approval
// @Tags contestants
// @Accept json
// @Produce json
// @Param request body models.RegisterContestantRequest true "Registration"
// @Success 201 {object} models.ContestantResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/contestants [post]
func (c *ContestantsController) register(g *gin.Context) {
	var req models.RegisterContestantRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid registration data"})
		return
	}

	contestant := &storage.Contestant{
		ID:           c.generateID(),
		Name:         req.Name,
		Age:          req.Age,
		Sex:          req.Sex,
		ProfileImage: req.ProfileImage,
		Votes:        0,
		Approved:     false,
		ParentName:   req.ParentName,
		ParentEmail:  req.ParentEmail,
		ParentPhone:  req.ParentPhone,
		RegisteredAt: time.Now().UTC(),
	}

	if err := c.contestants.Create(g.Request.Context(), contestant); err != nil {
		logging.Log.Errorf("CONTESTANT: failed to register: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not register contestant"})
		return
	}

	logging.Log.Infof("CONTESTANT: registered %s (%s)", contestant.Name, contestant.ID)
	g.JSON(http.StatusCreated, models.TransformContestantToResponse(contestant))
}

// list godoc
// @Summary List approved contestants
// @Tags contestants
// @Produce json
// @Success 200 {array} models.ContestantResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/contestants [get]
func (c *ContestantsController) list(g *gin.Context) {
	all, err := c.contestants.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("CONTESTANT: failed to list: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load contestants"})
		return
	}

	out := make([]models.ContestantResponse, 0, len(all))
	for _, contestant := range all {
		if contestant.Approved {
			out = append(out, models.TransformContestantToResponse(contestant))
		}
	}
	g.JSON(http.StatusOK, out)
}

// get godoc
// @Summary Get a contestant by id
// @Tags contestants
// @Produce json
// @Param id path string true "Contestant ID"
// @Success 200 {object} models.ContestantResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/contestants/{id} [get]
func (c *ContestantsController) get(g *gin.Context) {
	id := g.Param("id")

	contestant, err := c.contestants.Get(g.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "contestant not found"})
			return
		}
		logging.Log.Errorf("CONTESTANT: failed to get %s: %v", id, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load contestant"})
		return
	}
	if !contestant.Approved {
		g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "contestant not found"})
		return
	}

	g.JSON(http.StatusOK, models.TransformContestantToResponse(contestant))
}

func (c *ContestantsController) generateID() string {
	id, err := gonanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 12)
	if err != nil {
		logging.Log.Errorf("CONTESTANT: failed to generate id: %v", err)
		return "error"
	}
	return id
}
