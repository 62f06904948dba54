package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/internal/domain/model"
)

// CreateTeam adds a team. Names are unique in the session ignoring case.
func (s *Service) CreateTeam(ctx context.Context, code, name, color string) (*model.Team, error) {
	const op = "service.CreateTeam"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Wrap(op, errs.Invalidf("team name is required"))
	}
	return locked(ctx, s, op, code, func(sess *model.Session) (*model.Team, error) {
		t := &model.Team{
			ID:        uuid.NewString(),
			SessionID: sess.ID,
			Name:      name,
			Color:     color,
		}
		if err := s.store.CreateTeam(ctx, t); err != nil {
			if errors.Is(err, errs.ErrDuplicate) {
				return nil, errs.ErrTeamNameTaken
			}
			return nil, err
		}
		if err := s.emit(ctx, sess.ID, model.EventTeamCreated, t); err != nil {
			return nil, err
		}
		return t, nil
	})
}

// UpdateTeam renames or recolors a team. Empty fields are left unchanged.
func (s *Service) UpdateTeam(ctx context.Context, code, teamID, name, color string) (*model.Team, error) {
	return locked(ctx, s, "service.UpdateTeam", code, func(sess *model.Session) (*model.Team, error) {
		t, err := s.team(ctx, sess, teamID)
		if err != nil {
			return nil, err
		}
		if n := strings.TrimSpace(name); n != "" {
			t.Name = n
		}
		if color != "" {
			t.Color = color
		}
		if err := s.store.SaveTeam(ctx, t); err != nil {
			if errors.Is(err, errs.ErrDuplicate) {
				return nil, errs.ErrTeamNameTaken
			}
			return nil, err
		}
		if err := s.emit(ctx, sess.ID, model.EventTeamUpdated, t); err != nil {
			return nil, err
		}
		return t, nil
	})
}

// DeleteTeam removes a team. Its players stay, without a team.
func (s *Service) DeleteTeam(ctx context.Context, code, teamID string) error {
	_, err := locked(ctx, s, "service.DeleteTeam", code, func(sess *model.Session) (struct{}, error) {
		t, err := s.team(ctx, sess, teamID)
		if err != nil {
			return struct{}{}, err
		}
		if err := s.store.DeleteTeam(ctx, t.ID); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, s.emit(ctx, sess.ID, model.EventTeamDeleted, map[string]any{"teamId": t.ID, "name": t.Name})
	})
	return err
}
