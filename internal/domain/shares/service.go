package shares

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrBadState     = errors.New("invalid state")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type InviteInput struct {
	FarmID        string
	OwnerUserID   string
	GranteeUserID string
	Scopes        []Scope
}

// Invite crea una invitación o, si ya hay una viva para (farm, owner, grantee),
// le actualiza los scopes.
func (s *Service) Invite(ctx context.Context, in InviteInput) (Share, error) {
	farmID := strings.TrimSpace(in.FarmID)
	ownerID := strings.TrimSpace(in.OwnerUserID)
	granteeID := strings.TrimSpace(in.GranteeUserID)

	if farmID == "" || ownerID == "" || granteeID == "" {
		return Share{}, ErrInvalidInput
	}
	if ownerID == granteeID {
		return Share{}, ErrInvalidInput
	}

	scopes := []Scope{ScopeFarmRead}
	if len(in.Scopes) > 0 {
		var err error
		scopes, err = normalizeScopesStrict(in.Scopes)
		if err != nil {
			return Share{}, err
		}
		if len(scopes) == 0 {
			return Share{}, ErrInvalidInput
		}
	}

	now := s.now()

	matches, err := s.matching(ctx, farmID, ownerID, granteeID)
	if err != nil {
		return Share{}, err
	}
	if winner, ok := latestLive(matches); ok {
		if err := s.revokeOthers(ctx, winner.ID, matches, now); err != nil {
			return Share{}, err
		}
		winner.Scopes = scopes
		winner.UpdatedAt = now
		if err := s.repo.Update(ctx, winner); err != nil {
			return Share{}, err
		}
		return winner, nil
	}

	sh := Share{
		ID:            uuid.NewString(),
		FarmID:        farmID,
		OwnerUserID:   ownerID,
		GranteeUserID: granteeID,
		Scopes:        scopes,
		Status:        StatusInvited,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, sh); err != nil {
		return Share{}, err
	}
	return sh, nil
}

// Accept activa la invitación. Cualquier otro share vivo para el mismo
// (farm, owner, grantee) queda revocado: nunca hay más de uno activo.
func (s *Service) Accept(ctx context.Context, shareID, granteeUserID string) (Share, error) {
	shareID = strings.TrimSpace(shareID)
	granteeUserID = strings.TrimSpace(granteeUserID)
	if shareID == "" || granteeUserID == "" {
		return Share{}, ErrInvalidInput
	}

	sh, err := s.get(ctx, shareID)
	if err != nil {
		return Share{}, err
	}
	if sh.GranteeUserID != granteeUserID {
		return Share{}, ErrForbidden
	}

	switch sh.Status {
	case StatusActive:
		return sh, nil
	case StatusInvited:
	default:
		return Share{}, ErrBadState
	}

	now := s.now()

	matches, err := s.matching(ctx, sh.FarmID, sh.OwnerUserID, sh.GranteeUserID)
	if err != nil {
		return Share{}, err
	}
	if err := s.revokeOthers(ctx, sh.ID, matches, now); err != nil {
		return Share{}, err
	}

	sh.Status = StatusActive
	sh.UpdatedAt = now
	if err := s.repo.Update(ctx, sh); err != nil {
		return Share{}, err
	}
	return sh, nil
}

func (s *Service) Revoke(ctx context.Context, shareID, ownerUserID string) (Share, error) {
	shareID = strings.TrimSpace(shareID)
	ownerUserID = strings.TrimSpace(ownerUserID)
	if shareID == "" || ownerUserID == "" {
		return Share{}, ErrInvalidInput
	}

	sh, err := s.get(ctx, shareID)
	if err != nil {
		return Share{}, err
	}
	if sh.OwnerUserID != ownerUserID {
		return Share{}, ErrForbidden
	}

	// Idempotente
	if sh.Status == StatusRevoked {
		return sh, nil
	}

	now := s.now()
	sh.Status = StatusRevoked
	sh.UpdatedAt = now
	sh.RevokedAt = &now

	if err := s.repo.Update(ctx, sh); err != nil {
		return Share{}, err
	}
	return sh, nil
}

func (s *Service) ListByFarm(ctx context.Context, farmID string) ([]Share, error) {
	farmID = strings.TrimSpace(farmID)
	if farmID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByFarm(ctx, farmID)
}

// ListByGrantee devuelve los shares del invitado, opcionalmente filtrados por status.
func (s *Service) ListByGrantee(ctx context.Context, granteeUserID string, statuses ...Status) ([]Share, error) {
	granteeUserID = strings.TrimSpace(granteeUserID)
	if granteeUserID == "" {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.ListByGrantee(ctx, granteeUserID)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return items, nil
	}

	out := make([]Share, 0, len(items))
	for _, sh := range items {
		for _, st := range statuses {
			if sh.Status == st {
				out = append(out, sh)
				break
			}
		}
	}
	return out, nil
}

func (s *Service) get(ctx context.Context, id string) (Share, error) {
	sh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Share{}, ErrNotFound
		}
		return Share{}, err
	}
	return sh, nil
}

func (s *Service) matching(ctx context.Context, farmID, ownerID, granteeID string) ([]Share, error) {
	items, err := s.repo.ListByFarm(ctx, farmID)
	if err != nil {
		return nil, err
	}
	out := make([]Share, 0, len(items))
	for _, sh := range items {
		if sh.OwnerUserID == ownerID && sh.GranteeUserID == granteeID {
			out = append(out, sh)
		}
	}
	return out, nil
}

// latestLive elige el share no revocado más reciente.
func latestLive(items []Share) (Share, bool) {
	live := make([]Share, 0, len(items))
	for _, sh := range items {
		if sh.Status != StatusRevoked {
			live = append(live, sh)
		}
	}
	if len(live) == 0 {
		return Share{}, false
	}
	sort.SliceStable(live, func(i, j int) bool {
		if !live[i].UpdatedAt.Equal(live[j].UpdatedAt) {
			return live[i].UpdatedAt.After(live[j].UpdatedAt)
		}
		return live[i].CreatedAt.After(live[j].CreatedAt)
	})
	return live[0], true
}

func (s *Service) revokeOthers(ctx context.Context, keepID string, matches []Share, now time.Time) error {
	for _, sh := range matches {
		if sh.ID == keepID || sh.Status == StatusRevoked {
			continue
		}
		sh.Status = StatusRevoked
		sh.UpdatedAt = now
		sh.RevokedAt = &now
		if err := s.repo.Update(ctx, sh); err != nil {
			return err
		}
	}
	return nil
}

func normalizeScopesStrict(in []Scope) ([]Scope, error) {
	allowed := map[Scope]struct{}{
		ScopeFarmRead: {},
	}

	seen := map[Scope]struct{}{}
	out := make([]Scope, 0, len(in))
	for _, raw := range in {
		sc := Scope(strings.TrimSpace(string(raw)))
		if sc == "" {
			continue
		}
		if _, ok := allowed[sc]; !ok {
			return nil, ErrInvalidInput
		}
		if _, ok := seen[sc]; ok {
			continue
		}
		seen[sc] = struct{}{}
		out = append(out, sc)
	}
	return out, nil
}
