package models

// InitVoteRequest asks for a payment reference before the buyer is handed to
// the gateway checkout.
type InitVoteRequest struct {
	ContestantID string `json:"contestant_id" binding:"required"`
	VoteCount    int    `json:"vote_count" binding:"required,min=1"`
	VoterEmail   string `json:"voter_email" binding:"required,email"`
}

// InitVoteResponse carries what the checkout widget needs: the minted
// reference and the amount in the smallest currency subunit.
type InitVoteResponse struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Email     string `json:"email"`
}

// VerifyVoteRequest is the settlement call made after the gateway confirms a
// payment, by the client callback or the gateway webhook.
type VerifyVoteRequest struct {
	Reference    string `json:"reference" binding:"required"`
	ContestantID string `json:"contestant_id" binding:"required"`
	VoteCount    int    `json:"vote_count"`
	VoterEmail   string `json:"voter_email"`
}

type VerifyVoteResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	CreditedVotes int    `json:"credited_votes,omitempty"`
}
