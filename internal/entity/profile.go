package entity

import (
	"time"

	"github.com/google/uuid"
)

// BusinessProfile captures the sender's own business description and the
// targeting parameters for one lead search. The uploaded document itself is
// never stored; only the derived text feeds the run.
type BusinessProfile struct {
	SiteURL          string `json:"site_url,omitempty"`
	Description      string `json:"description"`
	TargetIndustry   string `json:"target_industry"`
	Location         string `json:"location"`
	DesiredLeadCount int    `json:"desired_lead_count"`
	MeetingLink      string `json:"meeting_link,omitempty"`
	HighlightSnippet string `json:"highlight_snippet,omitempty"`
}

// ProfileSnapshot is a stored BusinessProfile row, one per run, newest first.
type ProfileSnapshot struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Profile   BusinessProfile `json:"profile"`
	CreatedAt time.Time       `json:"created_at"`
}
