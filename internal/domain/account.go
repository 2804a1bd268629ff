package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ReportThreshold is the number of distinct reporters that triggers
// irreversible deletion of the reported account.
const ReportThreshold = 10

// Account is one person (or admin) in the credential store. Relationship
// sets (followers, following, blocks, requests, reports) live in their own
// tables and are loaded on demand, never embedded here.
type Account struct {
	ID            string     `json:"id"`
	DisplayID     string     `json:"displayId"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	PasswordHash  string     `json:"-"`
	Role          string     `json:"role"`
	ProfileFor    string     `json:"profileFor,omitempty"`
	Gender        string     `json:"gender,omitempty"`
	DOB           *time.Time `json:"dob,omitempty"`
	MaritalStatus string     `json:"maritalStatus,omitempty"`
	Religion      string     `json:"religion,omitempty"`
	District      string     `json:"district,omitempty"`
	State         string     `json:"state,omitempty"`
	Location      string     `json:"location,omitempty"`
	Profession    string     `json:"profession,omitempty"`
	About         string     `json:"about,omitempty"`
	Image         string     `json:"image,omitempty"`
	IsActive      bool       `json:"isActive"`
	IsBlocked     bool       `json:"isBlocked"`
	IsReported    bool       `json:"isReported"`
	IsPrivate     bool       `json:"isPrivate"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// NewAccountInput carries the caller-supplied fields for account creation.
// Phone is raw here; the lifecycle manager normalizes it before any lookup.
type NewAccountInput struct {
	Name          string
	Email         string
	Phone         string
	Password      string
	Role          string
	ProfileFor    string
	Gender        string
	DOB           *time.Time
	MaritalStatus string
	Religion      string
	District      string
	State         string
	Location      string
	Profession    string
	About         string
	Image         string
	IsPrivate     bool
}

type AccountUpdate struct {
	Name          *string
	Email         *string
	Phone         *string
	ProfileFor    *string
	Gender        *string
	MaritalStatus *string
	Religion      *string
	District      *string
	State         *string
	Location      *string
	Profession    *string
	About         *string
	Image         *string
	IsPrivate     *bool
}
