package models

import (
	"time"

	"github.com/Envislon1/create-joy/storage"
)

type RegisterContestantRequest struct {
	Name         string `json:"name" binding:"required"`
	Age          int    `json:"age" binding:"required,min=1"`
	Sex          string `json:"sex" binding:"required,oneof=male female"`
	ProfileImage string `json:"profileImage"`
	ParentName   string `json:"parentName" binding:"required"`
	ParentEmail  string `json:"parentEmail" binding:"required,email"`
	ParentPhone  string `json:"parentPhone" binding:"required"`
}

// ContestantResponse is the public view of a contestant; parent contact
// details stay out of it.
type ContestantResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Sex          string    `json:"sex"`
	ProfileImage string    `json:"profileImage"`
	Votes        int       `json:"votes"`
	Approved     bool      `json:"approved"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
	Votes        int    `json:"votes"`
}

func TransformContestantToResponse(c *storage.Contestant) ContestantResponse {
	return ContestantResponse{
		ID:           c.ID,
		Name:         c.Name,
		Age:          c.Age,
		Sex:          c.Sex,
		ProfileImage: c.ProfileImage,
		Votes:        c.Votes,
		Approved:     c.Approved,
		RegisteredAt: c.RegisteredAt,
	}
}
