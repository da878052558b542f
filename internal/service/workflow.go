package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/leadscout/api/internal/entity"
	"github.com/leadscout/api/internal/gemini"
	"github.com/leadscout/api/internal/service/scoring"
	"github.com/leadscout/api/internal/session"
)

// RunState tracks where an account's generation run currently is.
type RunState int

const (
	StateInput RunState = iota
	StateLoading
	StateResults
	StateError
)

// String returns the wire representation of the state.
func (s RunState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateResults:
		return "results"
	case StateError:
		return "error"
	default:
		return "input"
	}
}

// loadingMessages are the progress labels shown while a run executes, in step
// order. The drafting label is suffixed with per-lead progress.
var loadingMessages = [4]string{
	"Analyzing document...",
	"Understanding your business...",
	"Searching for local leads...",
	"Drafting outreach emails...",
}

var (
	// ErrRunInProgress rejects a second submit while a run is loading.
	ErrRunInProgress = errors.New("a generation run is already in progress")
	// ErrResetRequired rejects a submit from a finished run before reset.
	ErrResetRequired = errors.New("previous run must be reset first")
	// ErrNoLeads means discovery returned zero candidates.
	ErrNoLeads = errors.New("Could not find any suitable leads. Try broadening your search criteria.")
)

// ValidationError reports missing required profile fields without starting a
// run.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	return "invalid profile: " + strings.Join(names, ", ")
}

// Generator produces the three model-backed steps of a run.
type Generator interface {
	Summarize(ctx context.Context, description, docText, siteURL string) (string, error)
	DiscoverLeads(ctx context.Context, summary, industry, location string, count int) ([]entity.CandidateLead, error)
	DraftOutreach(ctx context.Context, summary string, lead entity.CandidateLead, siteURL, meetingLink, snippet string) (entity.Outreach, error)
}

// DocumentExtractor turns an uploaded document into plain text.
type DocumentExtractor interface {
	ExtractFromBytes(data []byte) (string, error)
}

// RunStore persists profile snapshots and finished runs.
type RunStore interface {
	SaveProfile(ctx context.Context, userID uuid.UUID, profile entity.BusinessProfile) (*entity.ProfileSnapshot, error)
	AppendHistory(ctx context.Context, userID uuid.UUID, profile entity.BusinessProfile, leads []entity.Lead) (*entity.HistoryEntry, error)
}

var _ Generator = (*gemini.Client)(nil)
var _ RunStore = (*HistoryService)(nil)

// RunResult is the outcome of a successful run.
type RunResult struct {
	Summary string
	Leads   []entity.Lead
}

// Status is a point-in-time snapshot of a workflow.
type Status struct {
	State   RunState
	Message string
	Err     string
}

// WorkflowDeps bundles the collaborators a workflow needs.
type WorkflowDeps struct {
	Generator Generator
	Extractor DocumentExtractor
	Sanitizer *LeadSanitizer
	Store     RunStore
	Sessions  *session.Manager
}

// Workflow drives one account's generation runs through the
// Input/Loading/Results/Error state machine. All steps of a run execute
// strictly in sequence on the calling goroutine; the state guard is what
// blocks re-entrancy.
type Workflow struct {
	userID uuid.UUID
	deps   WorkflowDeps

	mu       sync.Mutex
	state    RunState
	progress string
	runErr   string
	summary  string
	leads    []entity.Lead
}

// NewWorkflow builds a workflow in the Input state for one account.
func NewWorkflow(userID uuid.UUID, deps WorkflowDeps) *Workflow {
	return &Workflow{
		userID:   userID,
		deps:     deps,
		state:    StateInput,
		progress: loadingMessages[0],
	}
}

func validateProfile(profile entity.BusinessProfile) *ValidationError {
	fields := make(map[string]string)
	if strings.TrimSpace(profile.Description) == "" {
		fields["description"] = "description is required"
	}
	if strings.TrimSpace(profile.TargetIndustry) == "" {
		fields["target_industry"] = "target industry is required"
	}
	if strings.TrimSpace(profile.Location) == "" {
		fields["location"] = "location is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Run executes a full generation run. Validation failures never leave Input;
// a run already loading returns ErrRunInProgress; finished runs must be reset
// before submitting again.
func (w *Workflow) Run(ctx context.Context, profile entity.BusinessProfile, document []byte) (*RunResult, error) {
	if verr := validateProfile(profile); verr != nil {
		return nil, verr
	}

	w.mu.Lock()
	switch w.state {
	case StateLoading:
		w.mu.Unlock()
		return nil, ErrRunInProgress
	case StateResults, StateError:
		w.mu.Unlock()
		return nil, ErrResetRequired
	}
	w.state = StateLoading
	w.progress = loadingMessages[0]
	w.runErr = ""
	w.mu.Unlock()

	leads, summary, err := w.execute(ctx, profile, document)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.state = StateError
		w.runErr = err.Error()
		return nil, err
	}
	w.state = StateResults
	w.summary = summary
	w.leads = leads
	return &RunResult{Summary: summary, Leads: leads}, nil
}

func (w *Workflow) execute(ctx context.Context, profile entity.BusinessProfile, document []byte) ([]entity.Lead, string, error) {
	// The last-used profile survives even when the run itself fails.
	if w.deps.Store != nil {
		if _, err := w.deps.Store.SaveProfile(ctx, w.userID, profile); err != nil {
			log.Printf("save business profile failed user=%s err=%v", w.userID, err)
		}
	}

	var docText string
	if len(document) > 0 {
		w.setProgress(loadingMessages[0])
		text, err := w.deps.Extractor.ExtractFromBytes(document)
		if err != nil {
			return nil, "", err
		}
		docText = text
	}

	w.setProgress(loadingMessages[1])
	summary, err := w.deps.Generator.Summarize(ctx, profile.Description, docText, profile.SiteURL)
	if err != nil {
		return nil, "", fmt.Errorf("understand business: %w", err)
	}

	w.setProgress(loadingMessages[2])
	candidates, err := w.deps.Generator.DiscoverLeads(ctx, summary, profile.TargetIndustry, profile.Location, profile.DesiredLeadCount)
	if err != nil {
		return nil, "", err
	}
	if len(candidates) == 0 {
		return nil, "", ErrNoLeads
	}

	leads := make([]entity.Lead, 0, len(candidates))
	for i, candidate := range candidates {
		w.setProgress(fmt.Sprintf("%s (%d/%d): %s", loadingMessages[3], i+1, len(candidates), candidate.Name))
		outreach, err := w.deps.Generator.DraftOutreach(ctx, summary, candidate, profile.SiteURL, profile.MeetingLink, profile.HighlightSnippet)
		if err != nil {
			return nil, "", fmt.Errorf("draft outreach for %s: %w", candidate.Name, err)
		}

		cleaned := candidate
		if w.deps.Sanitizer != nil {
			cleaned = w.deps.Sanitizer.Sanitize(candidate)
		}
		score := scoring.ComputeScore(scoring.LeadFeatures{
			Email:         cleaned.ContactEmail,
			Phone:         cleaned.Phone,
			Website:       cleaned.Website,
			Address:       cleaned.Address,
			Justification: cleaned.Justification,
		})
		leads = append(leads, entity.Lead{
			CandidateLead:  cleaned,
			Outreach:       outreach,
			Score:          score.Total,
			ScoreBreakdown: score.Breakdown,
		})
	}

	// A run that generated leads still counts even when history cannot be
	// written; the caller gets the results either way.
	if w.deps.Store != nil {
		entry, err := w.deps.Store.AppendHistory(ctx, w.userID, profile, leads)
		if err != nil {
			log.Printf("append lead history failed user=%s err=%v", w.userID, err)
		} else if w.deps.Sessions != nil {
			// Optimistic prepend, then reconcile against the store so the
			// cached working set matches what /profile and /history serve.
			w.deps.Sessions.RecordRun(w.userID, *entry)
			if err := w.deps.Sessions.Refresh(ctx, w.userID); err != nil {
				log.Printf("refresh session data failed user=%s err=%v", w.userID, err)
			}
		}
	}

	return leads, summary, nil
}

func (w *Workflow) setProgress(message string) {
	w.mu.Lock()
	w.progress = message
	w.mu.Unlock()
}

// Reset returns a finished run to the Input state. A loading run cannot be
// reset out from under itself.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateLoading {
		return ErrRunInProgress
	}
	w.state = StateInput
	w.progress = loadingMessages[0]
	w.runErr = ""
	w.summary = ""
	w.leads = nil
	return nil
}

// Status reports the current state, progress label and last error.
func (w *Workflow) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{State: w.state, Message: w.progress, Err: w.runErr}
}

// WorkflowRegistry hands out one workflow per account.
type WorkflowRegistry struct {
	mu      sync.Mutex
	runs    map[uuid.UUID]*Workflow
	factory func(uuid.UUID) *Workflow
}

// NewWorkflowRegistry builds a registry that creates workflows on demand.
func NewWorkflowRegistry(factory func(uuid.UUID) *Workflow) *WorkflowRegistry {
	return &WorkflowRegistry{
		runs:    make(map[uuid.UUID]*Workflow),
		factory: factory,
	}
}

// For returns the account's workflow, creating it on first use.
func (r *WorkflowRegistry) For(userID uuid.UUID) *Workflow {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.runs[userID]; ok {
		return w
	}
	w := r.factory(userID)
	r.runs[userID] = w
	return w
}
