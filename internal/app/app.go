package app

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// App bundles the request handlers with their collaborators.
type App struct {
	DB       Store
	Calendar CalendarClient
	Logger   *zap.Logger
	Sessions *SessionIssuer
	// OAuth is nil when the Google integration is not configured.
	OAuth *oauth2.Config

	// Location is the zone every date and hour-of-day is interpreted in.
	Location *time.Location
	// Now is swapped in tests.
	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now().In(a.Location)
	}
	return time.Now().In(a.Location)
}
