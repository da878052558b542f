package dto

import "github.com/leadscout/api/internal/entity"

// GenerateRequest is the payload for a lead-generation run. It binds from
// JSON or from multipart form fields; the optional PDF travels as the
// "document" file part and is never part of this struct.
type GenerateRequest struct {
	SiteURL          string `json:"site_url,omitempty" form:"site_url"`
	Description      string `json:"description" form:"description"`
	TargetIndustry   string `json:"target_industry" form:"target_industry"`
	Location         string `json:"location" form:"location"`
	DesiredLeadCount int    `json:"desired_lead_count" form:"desired_lead_count"`
	MeetingLink      string `json:"meeting_link,omitempty" form:"meeting_link"`
	HighlightSnippet string `json:"highlight_snippet,omitempty" form:"highlight_snippet"`
}

// Profile converts the request into the domain value object.
func (r GenerateRequest) Profile() entity.BusinessProfile {
	return entity.BusinessProfile{
		SiteURL:          r.SiteURL,
		Description:      r.Description,
		TargetIndustry:   r.TargetIndustry,
		Location:         r.Location,
		DesiredLeadCount: r.DesiredLeadCount,
		MeetingLink:      r.MeetingLink,
		HighlightSnippet: r.HighlightSnippet,
	}
}

// GenerateResponse returns the finished run.
type GenerateResponse struct {
	Summary string        `json:"summary"`
	Leads   []entity.Lead `json:"leads"`
}

// ProgressResponse reports the orchestrator state for the current account.
type ProgressResponse struct {
	State    string `json:"state"`
	Progress string `json:"progress"`
	Error    string `json:"error,omitempty"`
}
