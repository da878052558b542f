package service

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/leadscout/api/internal/entity"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup

	errEmptyURL   = errors.New("empty url")
	errInvalidURL = errors.New("invalid url")
)

const (
	trackingPrefix     = "utm_"
	defaultPhoneRegion = "US"
)

// LeadSanitizer normalizes discovered candidate data without ever inventing
// values: a field that fails validation becomes the empty string, never a
// guess. This backs the no-fabrication contract at the code level, on top of
// the prompt-level mandate.
type LeadSanitizer struct {
	DefaultRegion string
}

// NewLeadSanitizer builds a sanitizer with the given default phone region.
func NewLeadSanitizer(defaultRegion string) *LeadSanitizer {
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = defaultPhoneRegion
	}
	return &LeadSanitizer{DefaultRegion: region}
}

// Sanitize returns a cleaned copy of the candidate. Text fields are trimmed;
// email, website and phone are normalized or blanked.
func (s *LeadSanitizer) Sanitize(lead entity.CandidateLead) entity.CandidateLead {
	return entity.CandidateLead{
		Name:          strings.TrimSpace(lead.Name),
		Description:   strings.TrimSpace(lead.Description),
		Address:       strings.TrimSpace(lead.Address),
		Website:       sanitizeWebsite(lead.Website),
		ContactEmail:  cleanEmail(lead.ContactEmail),
		Phone:         normalizePhone(lead.Phone, s.DefaultRegion),
		Justification: strings.TrimSpace(lead.Justification),
	}
}

func cleanEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ""
	}

	domain, err := idnaProfile.ToASCII(email[at+1:])
	if err != nil || !isDomainValid(domain) {
		return ""
	}
	email = email[:at+1] + domain

	if !emailPattern.MatchString(email) {
		return ""
	}
	return email
}

func sanitizeWebsite(raw string) string {
	u, err := sanitizeURL(raw)
	if err != nil {
		return ""
	}
	stripTracking(u)
	return u.String()
}

func sanitizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errEmptyURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, errInvalidURL
	}
	u.Scheme = "https"
	return u, nil
}

func stripTracking(u *url.URL) {
	if u == nil {
		return
	}
	query := u.Query()
	changed := false
	for key := range query {
		if strings.HasPrefix(strings.ToLower(key), trackingPrefix) {
			query.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
}

func normalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = defaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	parts := strings.Split(domain, ".")
	for _, part := range parts {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}
