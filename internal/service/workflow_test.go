package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/leadscout/api/internal/entity"
	"github.com/leadscout/api/internal/gemini"
	"github.com/leadscout/api/internal/session"
)

type stubGenerator struct {
	summary      string
	summarizeErr error
	candidates   []entity.CandidateLead
	discoverErr  error
	draftErr     map[string]error

	drafted      []string
	discoverWait chan struct{}
}

func (g *stubGenerator) Summarize(context.Context, string, string, string) (string, error) {
	if g.summarizeErr != nil {
		return "", g.summarizeErr
	}
	return g.summary, nil
}

func (g *stubGenerator) DiscoverLeads(context.Context, string, string, string, int) ([]entity.CandidateLead, error) {
	if g.discoverWait != nil {
		<-g.discoverWait
	}
	if g.discoverErr != nil {
		return nil, g.discoverErr
	}
	return g.candidates, nil
}

func (g *stubGenerator) DraftOutreach(_ context.Context, _ string, lead entity.CandidateLead, _, _, _ string) (entity.Outreach, error) {
	g.drafted = append(g.drafted, lead.Name)
	if err := g.draftErr[lead.Name]; err != nil {
		return entity.Outreach{}, err
	}
	return entity.Outreach{
		Subject:        "Hello " + lead.Name,
		Body:           "body",
		SuggestedEmail: lead.ContactEmail,
	}, nil
}

type stubRunStore struct {
	savedProfiles  int
	appended       [][]entity.Lead
	saveProfileErr error
	appendErr      error
}

func (s *stubRunStore) SaveProfile(_ context.Context, userID uuid.UUID, profile entity.BusinessProfile) (*entity.ProfileSnapshot, error) {
	if s.saveProfileErr != nil {
		return nil, s.saveProfileErr
	}
	s.savedProfiles++
	return &entity.ProfileSnapshot{ID: uuid.New(), UserID: userID, Profile: profile}, nil
}

func (s *stubRunStore) AppendHistory(_ context.Context, _ uuid.UUID, profile entity.BusinessProfile, leads []entity.Lead) (*entity.HistoryEntry, error) {
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	s.appended = append(s.appended, leads)
	return &entity.HistoryEntry{ID: uuid.New(), Profile: profile, Leads: leads}, nil
}

type stubExtractor struct {
	text string
	err  error
}

func (e *stubExtractor) ExtractFromBytes([]byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

func newTestWorkflow(gen Generator, store RunStore) *Workflow {
	return NewWorkflow(uuid.New(), WorkflowDeps{
		Generator: gen,
		Extractor: &stubExtractor{text: "doc text"},
		Sanitizer: NewLeadSanitizer("US"),
		Store:     store,
	})
}

func threeCandidates() []entity.CandidateLead {
	return []entity.CandidateLead{
		{Name: "Taco Haven", ContactEmail: "owner@tacohaven.com", Website: "tacohaven.com", Address: "101 Main St, Austin, TX"},
		{Name: "Bluebonnet Cafe", ContactEmail: "", Website: "bluebonnet.cafe"},
		{Name: "Hill Country Goods", ContactEmail: "HELLO@hillcountry.shop"},
	}
}

func TestWorkflowRunSuccess(t *testing.T) {
	gen := &stubGenerator{summary: "a web design studio", candidates: threeCandidates()}
	store := &stubRunStore{}
	w := newTestWorkflow(gen, store)

	result, err := w.Run(context.Background(), testProfile(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary != "a web design studio" {
		t.Fatalf("unexpected summary: %q", result.Summary)
	}
	if len(result.Leads) != 3 {
		t.Fatalf("expected 3 leads, got %d", len(result.Leads))
	}

	// discovery order survives sanitizing and scoring
	if result.Leads[0].Name != "Taco Haven" || result.Leads[2].Name != "Hill Country Goods" {
		t.Fatalf("lead order changed: %+v", result.Leads)
	}
	if result.Leads[2].ContactEmail != "hello@hillcountry.shop" {
		t.Fatalf("expected lowercased email, got %q", result.Leads[2].ContactEmail)
	}
	if result.Leads[1].ContactEmail != "" {
		t.Fatalf("empty contact email must stay empty, got %q", result.Leads[1].ContactEmail)
	}
	// Taco Haven has email, website and address; it must outscore the
	// email-less cafe.
	if result.Leads[0].Score <= result.Leads[1].Score {
		t.Fatalf("unexpected scores: %d vs %d", result.Leads[0].Score, result.Leads[1].Score)
	}

	if got := w.Status(); got.State != StateResults {
		t.Fatalf("expected results state, got %s", got.State)
	}
	if store.savedProfiles != 1 {
		t.Fatalf("expected profile snapshot saved once, got %d", store.savedProfiles)
	}
	if len(store.appended) != 1 || len(store.appended[0]) != 3 {
		t.Fatalf("expected one history entry with 3 leads, got %+v", store.appended)
	}
}

func TestWorkflowRunValidation(t *testing.T) {
	w := newTestWorkflow(&stubGenerator{}, &stubRunStore{})

	_, err := w.Run(context.Background(), entity.BusinessProfile{Description: "only a description"}, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["target_industry"]; !ok {
		t.Fatalf("expected target_industry field error, got %+v", verr.Fields)
	}
	if _, ok := verr.Fields["location"]; !ok {
		t.Fatalf("expected location field error, got %+v", verr.Fields)
	}
	if got := w.Status(); got.State != StateInput {
		t.Fatalf("validation failure must not leave input state, got %s", got.State)
	}
}

func TestWorkflowRunEmptyDiscovery(t *testing.T) {
	gen := &stubGenerator{summary: "s", candidates: nil}
	w := newTestWorkflow(gen, &stubRunStore{})

	_, err := w.Run(context.Background(), testProfile(), nil)
	if !errors.Is(err, ErrNoLeads) {
		t.Fatalf("expected ErrNoLeads, got %v", err)
	}
	status := w.Status()
	if status.State != StateError {
		t.Fatalf("expected error state, got %s", status.State)
	}
	if !strings.Contains(status.Err, "broadening your search") {
		t.Fatalf("unexpected error message: %q", status.Err)
	}
}

func TestWorkflowRunFormatError(t *testing.T) {
	gen := &stubGenerator{summary: "s", discoverErr: fmt.Errorf("discover leads: %w", gemini.ErrBadLeadFormat)}
	w := newTestWorkflow(gen, &stubRunStore{})

	_, err := w.Run(context.Background(), testProfile(), nil)
	if !errors.Is(err, gemini.ErrBadLeadFormat) {
		t.Fatalf("expected format error to surface, got %v", err)
	}
	if got := w.Status(); got.State != StateError {
		t.Fatalf("expected error state, got %s", got.State)
	}
}

func TestWorkflowRunDraftingFailureAbortsRun(t *testing.T) {
	gen := &stubGenerator{
		summary:    "s",
		candidates: threeCandidates(),
		draftErr:   map[string]error{"Bluebonnet Cafe": errors.New("model overloaded")},
	}
	store := &stubRunStore{}
	w := newTestWorkflow(gen, store)

	_, err := w.Run(context.Background(), testProfile(), nil)
	if err == nil || !strings.Contains(err.Error(), "Bluebonnet Cafe") {
		t.Fatalf("expected drafting error naming the lead, got %v", err)
	}
	if len(gen.drafted) != 2 {
		t.Fatalf("expected drafting to stop at the failure, drafted %v", gen.drafted)
	}
	if len(store.appended) != 0 {
		t.Fatal("no partial results may be persisted")
	}
	if got := w.Status(); got.State != StateError {
		t.Fatalf("expected error state, got %s", got.State)
	}
}

func TestWorkflowRunDocumentExtraction(t *testing.T) {
	t.Run("extractor failure aborts", func(t *testing.T) {
		w := NewWorkflow(uuid.New(), WorkflowDeps{
			Generator: &stubGenerator{summary: "s", candidates: threeCandidates()},
			Extractor: &stubExtractor{err: errors.New("document analysis failed: encrypted file")},
			Sanitizer: NewLeadSanitizer("US"),
			Store:     &stubRunStore{},
		})

		_, err := w.Run(context.Background(), testProfile(), []byte("%PDF-1.4"))
		if err == nil || !strings.Contains(err.Error(), "document analysis failed") {
			t.Fatalf("expected extractor error, got %v", err)
		}
		if got := w.Status(); got.State != StateError {
			t.Fatalf("expected error state, got %s", got.State)
		}
	})

	t.Run("no document skips extraction", func(t *testing.T) {
		w := NewWorkflow(uuid.New(), WorkflowDeps{
			Generator: &stubGenerator{summary: "s", candidates: threeCandidates()},
			Extractor: &stubExtractor{err: errors.New("must not be called")},
			Sanitizer: NewLeadSanitizer("US"),
			Store:     &stubRunStore{},
		})

		if _, err := w.Run(context.Background(), testProfile(), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestWorkflowRunPersistenceFailureNonFatal(t *testing.T) {
	gen := &stubGenerator{summary: "s", candidates: threeCandidates()}
	store := &stubRunStore{saveProfileErr: errors.New("db down"), appendErr: errors.New("db down")}
	w := newTestWorkflow(gen, store)

	result, err := w.Run(context.Background(), testProfile(), nil)
	if err != nil {
		t.Fatalf("persistence failure must not fail the run: %v", err)
	}
	if len(result.Leads) != 3 {
		t.Fatalf("expected 3 leads despite storage failure, got %d", len(result.Leads))
	}
	if got := w.Status(); got.State != StateResults {
		t.Fatalf("expected results state, got %s", got.State)
	}
}

// reconcilingRunStore backs both the run persistence and the session loader,
// so the cache can be checked against what the store actually holds.
type reconcilingRunStore struct {
	profile *entity.ProfileSnapshot
	past    []entity.HistoryEntry
	runs    []entity.HistoryEntry
	loads   int
}

func (s *reconcilingRunStore) SaveProfile(_ context.Context, userID uuid.UUID, profile entity.BusinessProfile) (*entity.ProfileSnapshot, error) {
	snap := &entity.ProfileSnapshot{ID: uuid.New(), UserID: userID, Profile: profile}
	s.profile = snap
	return snap, nil
}

func (s *reconcilingRunStore) AppendHistory(_ context.Context, _ uuid.UUID, profile entity.BusinessProfile, leads []entity.Lead) (*entity.HistoryEntry, error) {
	entry := entity.HistoryEntry{ID: uuid.New(), Profile: profile, Leads: leads}
	s.runs = append([]entity.HistoryEntry{entry}, s.runs...)
	return &entry, nil
}

func (s *reconcilingRunStore) LoadUserData(context.Context, uuid.UUID) (session.UserData, error) {
	s.loads++
	history := append(append([]entity.HistoryEntry{}, s.runs...), s.past...)
	return session.UserData{Profile: s.profile, History: history}, nil
}

func TestWorkflowRunReconcilesSessionCache(t *testing.T) {
	userID := uuid.New()
	store := &reconcilingRunStore{
		profile: &entity.ProfileSnapshot{ID: uuid.New(), UserID: userID, Profile: testProfile()},
		past: []entity.HistoryEntry{
			{ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New()},
		},
	}
	manager := session.NewManager(session.NewBus(), store)
	defer manager.Close()

	w := NewWorkflow(userID, WorkflowDeps{
		Generator: &stubGenerator{summary: "s", candidates: threeCandidates()},
		Extractor: &stubExtractor{},
		Sanitizer: NewLeadSanitizer("US"),
		Store:     store,
		Sessions:  manager,
	})

	// The cache is cold here, as after a process restart with a still-valid
	// token: no sign-in event ever warmed it.
	if _, err := w.Run(context.Background(), testProfile(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.loads == 0 {
		t.Fatal("expected a refetch of user data after the run")
	}

	data, err := manager.Data(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Profile == nil {
		t.Fatal("expected the saved profile in the session cache")
	}
	if got, want := len(data.History), len(store.past)+1; got != want {
		t.Fatalf("expected %d history entries, got %d", want, got)
	}
	if len(data.History[0].Leads) != 3 {
		t.Fatalf("expected the new run first, got %+v", data.History[0])
	}
}

func TestWorkflowReentrancy(t *testing.T) {
	gen := &stubGenerator{
		summary:      "s",
		candidates:   threeCandidates(),
		discoverWait: make(chan struct{}),
	}
	w := newTestWorkflow(gen, &stubRunStore{})

	done := make(chan error, 1)
	go func() {
		_, err := w.Run(context.Background(), testProfile(), nil)
		done <- err
	}()

	deadline := time.After(2 * time.Second)
	for w.Status().State != StateLoading {
		select {
		case <-deadline:
			t.Fatal("run never entered loading state")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := w.Run(context.Background(), testProfile(), nil); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	if err := w.Reset(); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected reset to be rejected while loading, got %v", err)
	}

	close(gen.discoverWait)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error from first run: %v", err)
	}
}

func TestWorkflowResetSemantics(t *testing.T) {
	gen := &stubGenerator{summary: "s", candidates: threeCandidates()}
	w := newTestWorkflow(gen, &stubRunStore{})

	if _, err := w.Run(context.Background(), testProfile(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// finished runs block a new submit until reset
	if _, err := w.Run(context.Background(), testProfile(), nil); !errors.Is(err, ErrResetRequired) {
		t.Fatalf("expected ErrResetRequired, got %v", err)
	}

	if err := w.Reset(); err != nil {
		t.Fatalf("unexpected reset error: %v", err)
	}
	status := w.Status()
	if status.State != StateInput || status.Err != "" {
		t.Fatalf("reset did not restore input state: %+v", status)
	}
	if status.Message != "Analyzing document..." {
		t.Fatalf("reset did not restore first progress label: %q", status.Message)
	}

	if _, err := w.Run(context.Background(), testProfile(), nil); err != nil {
		t.Fatalf("run after reset failed: %v", err)
	}
}

func TestWorkflowProgressLabels(t *testing.T) {
	gen := &stubGenerator{summary: "s", candidates: threeCandidates()[:1]}
	w := newTestWorkflow(gen, &stubRunStore{})

	if _, err := w.Run(context.Background(), testProfile(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The last label set during the run names the drafted lead.
	if got := w.Status().Message; got != "Drafting outreach emails... (1/1): Taco Haven" {
		t.Fatalf("unexpected final progress label: %q", got)
	}
}

func TestWorkflowRegistry(t *testing.T) {
	registry := NewWorkflowRegistry(func(id uuid.UUID) *Workflow {
		return NewWorkflow(id, WorkflowDeps{Generator: &stubGenerator{}})
	})

	a := uuid.New()
	b := uuid.New()
	if registry.For(a) != registry.For(a) {
		t.Fatal("expected same workflow for same account")
	}
	if registry.For(a) == registry.For(b) {
		t.Fatal("expected distinct workflows per account")
	}
}
