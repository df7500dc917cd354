package storage

import "time"

// Transaction settlement states. A transaction leaves "pending" exactly once.
const (
	TxStatusPending  = "pending"
	TxStatusCredited = "credited"
	TxStatusRejected = "rejected"
)

type Contestant struct {
	ID           string    `dynamodbav:"PK" json:"id"`
	Name         string    `dynamodbav:"Name" json:"name"`
	Age          int       `dynamodbav:"Age" json:"age"`
	Sex          string    `dynamodbav:"Sex" json:"sex"`
	ProfileImage string    `dynamodbav:"ProfileImage" json:"profileImage"`
	Votes        int       `dynamodbav:"Votes" json:"votes"`
	Approved     bool      `dynamodbav:"Approved" json:"approved"`
	ParentName   string    `dynamodbav:"ParentName" json:"parentName"`
	ParentEmail  string    `dynamodbav:"ParentEmail" json:"parentEmail"`
	ParentPhone  string    `dynamodbav:"ParentPhone" json:"parentPhone"`
	RegisteredAt time.Time `dynamodbav:"RegisteredAt" json:"registeredAt"`
}

// VoteTransaction is the idempotency record for one payment reference.
// At most one transaction per reference ever reaches "credited".
type VoteTransaction struct {
	Reference    string    `dynamodbav:"PK" json:"reference"`
	ContestantID string    `dynamodbav:"ContestantID" json:"contestantId"`
	VoterEmail   string    `dynamodbav:"VoterEmail" json:"voterEmail"`
	Votes        int       `dynamodbav:"Votes" json:"votes"`
	Amount       int64     `dynamodbav:"Amount" json:"amount"` // smallest currency unit
	Status       string    `dynamodbav:"TxStatus" json:"status"`
	CreatedAt    time.Time `dynamodbav:"CreatedAt" json:"createdAt"`
}

// ContestSetting is one key/value row of the contest configuration
// (contest_start_date, contest_end_date, vote_price, vote_boost_applied, ...).
type ContestSetting struct {
	Key       string    `dynamodbav:"PK" json:"setting_key"`
	Value     string    `dynamodbav:"SettingValue" json:"setting_value"`
	UpdatedAt time.Time `dynamodbav:"UpdatedAt" json:"updated_at"`
}
