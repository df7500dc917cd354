package models

// UpdateSettingsRequest upserts contest settings rows. Values are the raw
// string form as stored (RFC3339 dates, integer price, "true"/"false" flags).
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}

// BoostEntry mirrors the boost report's per-contestant JSON shape.
type BoostEntry struct {
	Name     string `json:"name"`
	Success  bool   `json:"success"`
	NewVotes *int   `json:"newVotes,omitempty"`
	Error    string `json:"error,omitempty"`
}

type BoostResponse struct {
	Success            bool         `json:"success"`
	Message            string       `json:"message"`
	HighestVotesAtTime *int         `json:"highestVotesAtTime,omitempty"`
	Results            []BoostEntry `json:"results,omitempty"`
}
