package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/leadscout/api/internal/entity"
)

// Sentinel errors the orchestrator maps onto its error taxonomy.
var (
	// ErrBadLeadFormat marks a discovery response that could not be parsed
	// as a JSON array, so callers can tell the user it was a transient
	// model-output issue rather than bad input.
	ErrBadLeadFormat = errors.New("lead discovery response was not a JSON array")
)

const (
	minLeadCount        = 1
	defaultMaxLeadCount = 10
)

// Config holds the Gemini connection settings. The API key always comes from
// configuration, never from a literal.
type Config struct {
	APIKey string
	Model  string

	// MaxLeads caps how many leads a single discovery call may request.
	// Zero means the default of 10.
	MaxLeads int

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

// Client wraps the Gemini API behind the three generation steps of a run.
type Client struct {
	client   *genai.Client
	model    string
	maxLeads int
}

// New builds a Gemini-backed client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	maxLeads := cfg.MaxLeads
	if maxLeads <= 0 {
		maxLeads = defaultMaxLeadCount
	}
	return &Client{client: client, model: strings.TrimSpace(cfg.Model), maxLeads: maxLeads}, nil
}

// Summarize condenses the business description, extracted document text and
// site URL into a short prose summary used by the later steps.
func (c *Client) Summarize(ctx context.Context, description, docText, siteURL string) (string, error) {
	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(summarizePrompt(description, docText, siteURL)),
		&genai.GenerateContentConfig{CandidateCount: 1},
	)
	if err != nil {
		return "", fmt.Errorf("analyze business: %w", err)
	}

	summary := strings.TrimSpace(resp.Text())
	if summary == "" {
		return "", fmt.Errorf("analyze business: empty model response")
	}
	return summary, nil
}

// DiscoverLeads runs a Google-Search-grounded query for real organizations
// matching the industry and location. The response is parsed leniently:
// whatever sits between the first '[' and the last ']' is treated as the
// payload, tolerating incidental prose or markdown fencing around it.
func (c *Client) DiscoverLeads(ctx context.Context, summary, industry, location string, count int) ([]entity.CandidateLead, error) {
	count = clampLeadCount(count, c.maxLeads)

	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(discoverPrompt(summary, industry, location, count)),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			CandidateCount: 1,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("find leads: %w", err)
	}

	candidates, err := parseCandidates(resp.Text())
	if err != nil {
		return nil, err
	}
	return truncateCandidates(candidates, count), nil
}

// DraftOutreach writes one personalized email for a candidate using a
// structured completion with an explicit output schema.
func (c *Client) DraftOutreach(ctx context.Context, summary string, lead entity.CandidateLead, siteURL, meetingLink, snippet string) (entity.Outreach, error) {
	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(outreachPrompt(summary, lead, siteURL, meetingLink, snippet)),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   outreachSchema,
		},
	)
	if err != nil {
		return entity.Outreach{}, fmt.Errorf("draft outreach for %s: %w", lead.Name, err)
	}

	return parseOutreach(resp.Text())
}

var outreachSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"subject":         {Type: genai.TypeString, Description: "A compelling email subject line."},
		"body":            {Type: genai.TypeString, Description: "The full personalized email body, formatted with newlines and short paragraphs."},
		"suggested_email": {Type: genai.TypeString, Description: "The contact email taken from the input; an empty string when none was provided."},
	},
	Required: []string{"subject", "body", "suggested_email"},
}

type candidatePayload struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Address       string `json:"address"`
	Website       string `json:"website"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Justification string `json:"justification"`
}

type outreachPayload struct {
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	SuggestedEmail string `json:"suggested_email"`
}

func clampLeadCount(count, max int) int {
	if max <= 0 {
		max = defaultMaxLeadCount
	}
	if count < minLeadCount {
		return minLeadCount
	}
	if count > max {
		return max
	}
	return count
}

// truncateCandidates drops surplus entries when the model returns more leads
// than were asked for.
func truncateCandidates(candidates []entity.CandidateLead, count int) []entity.CandidateLead {
	if len(candidates) > count {
		return candidates[:count]
	}
	return candidates
}

// extractJSONArray returns the substring between the first '[' and the last
// ']' of the raw response. This is a tolerance for formatting around the
// payload, not a security boundary.
func extractJSONArray(raw string) (string, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return "", ErrBadLeadFormat
	}
	return raw[start : end+1], nil
}

func parseCandidates(raw string) ([]entity.CandidateLead, error) {
	payload, err := extractJSONArray(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}

	var parsed []candidatePayload
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLeadFormat, err)
	}

	candidates := make([]entity.CandidateLead, 0, len(parsed))
	for _, p := range parsed {
		candidates = append(candidates, entity.CandidateLead{
			Name:          strings.TrimSpace(p.Name),
			Description:   strings.TrimSpace(p.Description),
			Address:       strings.TrimSpace(p.Address),
			Website:       strings.TrimSpace(p.Website),
			ContactEmail:  strings.TrimSpace(p.Email),
			Phone:         strings.TrimSpace(p.Phone),
			Justification: strings.TrimSpace(p.Justification),
		})
	}
	return candidates, nil
}

func parseOutreach(raw string) (entity.Outreach, error) {
	var parsed outreachPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return entity.Outreach{}, fmt.Errorf("parse outreach response: %w", err)
	}
	return entity.Outreach{
		Subject:        strings.TrimSpace(parsed.Subject),
		Body:           strings.TrimSpace(parsed.Body),
		SuggestedEmail: strings.TrimSpace(parsed.SuggestedEmail),
	}, nil
}
