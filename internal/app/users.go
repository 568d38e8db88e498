package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Register creates a user and returns it with a fresh session token.
func (a *App) Register(ctx context.Context, req registerRequest) (*User, string, error) {
	u := &User{
		ID:       uuid.NewString(),
		Username: req.Username,
		Name:     req.Name,
	}
	if err := a.DB.CreateUser(ctx, u); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}
	token, err := a.Sessions.Issue(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue session: %w", err)
	}
	a.Logger.Info("user registered", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return u, token, nil
}

func (a *App) UpdateProfile(ctx context.Context, userID, bio string) error {
	if err := a.DB.UpdateBio(ctx, userID, bio); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// SetTimeIntervals replaces the whole weekly template of userID.
func (a *App) SetTimeIntervals(ctx context.Context, userID string, intervals []TimeInterval) error {
	for i := range intervals {
		intervals[i].UserID = userID
	}
	if err := a.DB.ReplaceTimeIntervals(ctx, userID, intervals); err != nil {
		return fmt.Errorf("replace intervals: %w", err)
	}
	return nil
}
