package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Envislon1/create-joy/api/models"
	testutils "github.com/Envislon1/create-joy/api/controllers/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterContestant(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("registration starts unapproved with zero votes", func(t *testing.T) {
		w := testutils.PerformRequest(env.router, http.MethodPost, "/api/contestants", models.RegisterContestantRequest{
			Name:        "Zainab Bello",
			Age:         6,
			Sex:         "female",
			ParentName:  "Fatima Bello",
			ParentEmail: "fatima@example.com",
			ParentPhone: "+2348012345678",
		}, nil)

		require.Equal(t, http.StatusCreated, w.Code)

		var res models.ContestantResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, "Zainab Bello", res.Name)
		assert.Equal(t, 0, res.Votes)

		// Not visible publicly until an admin approves.
		get := testutils.PerformRequest(env.router, http.MethodGet, "/api/contestants/"+res.ID, nil, nil)
		assert.Equal(t, http.StatusNotFound, get.Code)
	})

	t.Run("missing parent contact is rejected", func(t *testing.T) {
		w := testutils.PerformRequest(env.router, http.MethodPost, "/api/contestants", map[string]interface{}{
			"name": "No Parent",
			"age":  5,
			"sex":  "male",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid sex value is rejected", func(t *testing.T) {
		w := testutils.PerformRequest(env.router, http.MethodPost, "/api/contestants", models.RegisterContestantRequest{
			Name:        "Bad Value",
			Age:         5,
			Sex:         "other",
			ParentName:  "P",
			ParentEmail: "p@example.com",
			ParentPhone: "+2348000000000",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListContestants(t *testing.T) {
	env := setupTestEnv(t)

	// Register one more; it stays unapproved and must not appear.
	w := testutils.PerformRequest(env.router, http.MethodPost, "/api/contestants", models.RegisterContestantRequest{
		Name:        "Emeka Nwosu",
		Age:         8,
		Sex:         "male",
		ParentName:  "Ngozi Nwosu",
		ParentEmail: "ngozi@example.com",
		ParentPhone: "+2348098765432",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	list := testutils.PerformRequest(env.router, http.MethodGet, "/api/contestants", nil, nil)
	require.Equal(t, http.StatusOK, list.Code)

	var out []models.ContestantResponse
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Ada Obi", out[0].Name)
}

func TestGetContestant(t *testing.T) {
	env := setupTestEnv(t)

	w := testutils.PerformRequest(env.router, http.MethodGet, "/api/contestants/c1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res models.ContestantResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "c1", res.ID)
	assert.Equal(t, 12, res.Votes)

	missing := testutils.PerformRequest(env.router, http.MethodGet, "/api/contestants/ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}
