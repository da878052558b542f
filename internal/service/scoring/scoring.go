package scoring

import (
	"net/url"
	"strings"
)

const (
	categoryContact       = "contact_completeness"
	categoryWebsite       = "web_presence"
	categoryAddress       = "address_quality"
	categoryJustification = "justification_specificity"
)

var freeHostingDomains = []string{
	"wordpress.com",
	"blogspot.com",
	"wixsite.com",
	"weebly.com",
	"squarespace.com",
	"medium.com",
	"substack.com",
	"godaddysites.com",
	"notion.site",
	"googlepages.com",
}

// LeadFeatures captures the signals used to score a discovered lead's
// contactability. Scoring annotates; it never changes the relevance order the
// discovery step returned.
type LeadFeatures struct {
	Email         string
	Phone         string
	Website       string
	Address       string
	Justification string
}

// ScoreResult reports the aggregate score and the per-category breakdown.
type ScoreResult struct {
	Total     int
	Breakdown map[string]int
}

// ComputeScore evaluates the provided features and returns the score breakdown.
func ComputeScore(input LeadFeatures) ScoreResult {
	breakdown := map[string]int{
		categoryContact:       scoreContactCompleteness(input),
		categoryWebsite:       scoreWebPresence(input),
		categoryAddress:       scoreAddressQuality(input),
		categoryJustification: scoreJustification(input),
	}

	total := 0
	for _, value := range breakdown {
		total += value
	}

	return ScoreResult{
		Total:     total,
		Breakdown: breakdown,
	}
}

func scoreContactCompleteness(input LeadFeatures) int {
	score := 0
	if strings.TrimSpace(input.Email) != "" {
		score += 20
	}
	if strings.TrimSpace(input.Phone) != "" {
		score += 10
	}
	if score > 30 {
		return 30
	}
	return score
}

func scoreWebPresence(input LeadFeatures) int {
	website := strings.TrimSpace(input.Website)
	if website == "" {
		return 0
	}

	score := 10
	u, err := url.Parse(website)
	if err != nil || u.Host == "" {
		return score
	}
	if u.Scheme == "https" {
		score += 10
	}
	if !isFreeHostedDomain(u.Host) {
		score += 10
	}
	if score > 30 {
		return 30
	}
	return score
}

func scoreAddressQuality(input LeadFeatures) int {
	addr := strings.TrimSpace(input.Address)
	if addr == "" {
		return 0
	}

	segments := strings.FieldsFunc(addr, func(r rune) bool { return r == ',' || r == ';' })
	switch {
	case len(segments) >= 3:
		return 20
	case len(segments) == 2:
		return 15
	default:
		return 5
	}
}

func scoreJustification(input LeadFeatures) int {
	justification := strings.TrimSpace(input.Justification)
	if justification == "" {
		return 0
	}

	words := len(strings.Fields(justification))
	switch {
	case words >= 20:
		return 20
	case words >= 10:
		return 10
	default:
		return 5
	}
}

func isFreeHostedDomain(host string) bool {
	host = strings.ToLower(strings.Trim(host, "."))
	for _, domain := range freeHostingDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
