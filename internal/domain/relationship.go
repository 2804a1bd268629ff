package domain

// Relation state for an ordered (requester, target) pair.
const (
	RelationNone      = "none"
	RelationPending   = "pending"
	RelationFollowing = "following"
	RelationBlocked   = "blocked"
)

// Relation is a snapshot of every fact the engine needs to decide a
// transition for (requester, target), loaded in one query.
type Relation struct {
	RequesterID string
	TargetID    string

	Following          bool // requester currently follows target
	Pending            bool // requester has a pending request to target
	BlockedByTarget    bool // target has blocked requester
	BlockedByRequester bool // requester has blocked target
	TargetIsPrivate    bool
}

// Report outcomes.
const (
	ReportRecorded       = "recorded"
	ReportAccountDeleted = "account_deleted"
)

type ReportResult struct {
	Outcome string `json:"outcome"`
	Count   int    `json:"count"`
}
