package contest

import (
	"testing"
	"time"

	"github.com/Envislon1/create-joy/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingsRows(values map[string]string) []*storage.ContestSetting {
	rows := make([]*storage.ContestSetting, 0, len(values))
	for k, v := range values {
		rows = append(rows, &storage.ContestSetting{Key: k, Value: v})
	}
	return rows
}

func TestParseSettings(t *testing.T) {
	t.Run("full settings", func(t *testing.T) {
		s, err := ParseSettings(settingsRows(map[string]string{
			SettingContestName:  "Little Stars Contest",
			SettingStartDate:    "2025-06-01T00:00:00Z",
			SettingEndDate:      "2025-07-01T00:00:00Z",
			SettingVotePrice:    "50",
			SettingIsActive:     "true",
			SettingBoostApplied: "false",
		}))
		require.NoError(t, err)

		assert.Equal(t, "Little Stars Contest", s.ContestName)
		assert.Equal(t, 50, s.VotePrice)
		assert.True(t, s.IsActive)
		assert.False(t, s.BoostApplied)
		require.NotNil(t, s.EndDate)
		assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), *s.EndDate)
	})

	t.Run("missing end date means no scheduled end", func(t *testing.T) {
		s, err := ParseSettings(settingsRows(map[string]string{
			SettingStartDate: "2025-06-01T00:00:00Z",
			SettingVotePrice: "50",
		}))
		require.NoError(t, err)
		assert.Nil(t, s.EndDate)
		assert.True(t, s.IsActive, "is_active defaults to true")
		assert.Equal(t, PhaseActive, s.PhaseAt(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("boost marker accepts only the literal true", func(t *testing.T) {
		s, err := ParseSettings(settingsRows(map[string]string{
			SettingStartDate:    "2025-06-01T00:00:00Z",
			SettingVotePrice:    "50",
			SettingBoostApplied: "true",
		}))
		require.NoError(t, err)
		assert.True(t, s.BoostApplied)
	})

	t.Run("missing start date fails", func(t *testing.T) {
		_, err := ParseSettings(settingsRows(map[string]string{
			SettingVotePrice: "50",
		}))
		assert.Error(t, err)
	})

	t.Run("zero or negative price fails", func(t *testing.T) {
		for _, price := range []string{"0", "-5", "fifty"} {
			_, err := ParseSettings(settingsRows(map[string]string{
				SettingStartDate: "2025-06-01T00:00:00Z",
				SettingVotePrice: price,
			}))
			assert.Error(t, err, "price %q should be rejected", price)
		}
	})
}

func TestVotesForAmount(t *testing.T) {
	s := &Settings{VotePrice: 50}

	tests := []struct {
		name     string
		subunits int64
		votes    int
	}{
		{"exact single vote", 5000, 1},
		{"exact multiple", 50000, 10},
		{"remainder is not credited", 17500, 3}, // 175 units at price 50
		{"below one vote", 4900, 0},
		{"zero", 0, 0},
		{"subunit remainder truncates first", 5099, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.votes, s.VotesForAmount(tt.subunits))
		})
	}
}

func TestAmountForVotes(t *testing.T) {
	s := &Settings{VotePrice: 50}
	assert.Equal(t, int64(5000), s.AmountForVotes(1))
	assert.Equal(t, int64(100000), s.AmountForVotes(20))
}
