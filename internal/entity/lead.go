package entity

import (
	"time"

	"github.com/google/uuid"
)

// CandidateLead is one organization returned by the discovery step, in the
// relevance order the model produced. ContactEmail and Phone are "" when no
// value was verifiably found; they are never guessed.
type CandidateLead struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Address       string `json:"address"`
	Website       string `json:"website,omitempty"`
	ContactEmail  string `json:"contact_email"`
	Phone         string `json:"phone,omitempty"`
	Justification string `json:"justification"`
}

// Outreach is the drafted email for one candidate. SuggestedEmail mirrors the
// candidate's contact email and stays "" when none was found.
type Outreach struct {
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	SuggestedEmail string `json:"suggested_email"`
}

// Lead is a candidate merged with its drafted outreach; the unit shown to the
// user and persisted with the run history.
type Lead struct {
	CandidateLead
	Outreach
	Score          int            `json:"score"`
	ScoreBreakdown map[string]int `json:"score_breakdown,omitempty"`
}

// HistoryEntry is one past run: the profile snapshot plus its ordered leads.
type HistoryEntry struct {
	ID        uuid.UUID       `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Profile   BusinessProfile `json:"profile"`
	Leads     []Lead          `json:"leads"`
}
