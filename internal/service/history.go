package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/leadscout/api/internal/entity"
	"github.com/leadscout/api/internal/repository"
	"github.com/leadscout/api/internal/session"
)

// historyCap bounds how many past runs a listing returns.
const historyCap = 20

// ErrNoSavedProfile indicates the account has not run a search yet.
var ErrNoSavedProfile = errors.New("no saved business profile")

// HistoryService persists profile snapshots and run history and serves them
// back, newest-first.
type HistoryService struct {
	profiles repository.ProfilesRepository
	leads    repository.LeadsRepository
}

// NewHistoryService builds a HistoryService over the two repositories.
func NewHistoryService(profiles repository.ProfilesRepository, leads repository.LeadsRepository) *HistoryService {
	return &HistoryService{profiles: profiles, leads: leads}
}

// SaveProfile stores a profile snapshot as the account's last-used profile.
func (s *HistoryService) SaveProfile(ctx context.Context, userID uuid.UUID, profile entity.BusinessProfile) (*entity.ProfileSnapshot, error) {
	return s.profiles.Insert(ctx, userID, profile)
}

// LatestProfile returns the most recently saved profile.
func (s *HistoryService) LatestProfile(ctx context.Context, userID uuid.UUID) (*entity.BusinessProfile, error) {
	snap, err := s.profiles.Latest(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrNoSavedProfile
		}
		return nil, err
	}
	return &snap.Profile, nil
}

// AppendHistory stores a finished run: the profile snapshot plus its ordered
// lead sequence.
func (s *HistoryService) AppendHistory(ctx context.Context, userID uuid.UUID, profile entity.BusinessProfile, leads []entity.Lead) (*entity.HistoryEntry, error) {
	snap, err := s.profiles.Insert(ctx, userID, profile)
	if err != nil {
		return nil, fmt.Errorf("save run profile: %w", err)
	}

	if err := s.leads.InsertForProfile(ctx, snap.ID, leads); err != nil {
		return nil, fmt.Errorf("save run leads: %w", err)
	}

	return &entity.HistoryEntry{
		ID:        snap.ID,
		CreatedAt: snap.CreatedAt,
		Profile:   snap.Profile,
		Leads:     leads,
	}, nil
}

// ListHistory returns past runs ordered newest-first, capped at 20.
func (s *HistoryService) ListHistory(ctx context.Context, userID uuid.UUID) ([]entity.HistoryEntry, error) {
	snaps, err := s.profiles.ListRecent(ctx, userID, historyCap)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(snaps))
	for _, snap := range snaps {
		ids = append(ids, snap.ID)
	}

	grouped, err := s.leads.ListByProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]entity.HistoryEntry, 0, len(snaps))
	for _, snap := range snaps {
		entries = append(entries, entity.HistoryEntry{
			ID:        snap.ID,
			CreatedAt: snap.CreatedAt,
			Profile:   snap.Profile,
			Leads:     grouped[snap.ID],
		})
	}
	return entries, nil
}

// LoadUserData resolves the session working set for an account.
func (s *HistoryService) LoadUserData(ctx context.Context, userID uuid.UUID) (session.UserData, error) {
	var data session.UserData

	snap, err := s.profiles.Latest(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
		return session.UserData{}, err
	}
	data.Profile = snap

	history, err := s.ListHistory(ctx, userID)
	if err != nil {
		return session.UserData{}, err
	}
	data.History = history

	return data, nil
}

var _ session.Loader = (*HistoryService)(nil)
