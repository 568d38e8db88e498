package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// CalendarEvent is the one-hour event mirrored for a booking.
type CalendarEvent struct {
	// ID is the provider event id. It is derived from the booking id, so a
	// repeated insert for the same booking is refused as a duplicate.
	ID string
	// RequestID keys the conference created with the event so a retried
	// insert does not create a second meeting.
	RequestID     string
	Summary       string
	Description   string
	Start         time.Time
	End           time.Time
	AttendeeEmail string
	AttendeeName  string
}

// CalendarClient inserts events into a user's external calendar.
type CalendarClient interface {
	InsertEvent(ctx context.Context, userID string, ev CalendarEvent) (string, error)
}

// TokenStore keeps the per-user OAuth credentials.
type TokenStore interface {
	CalendarToken(ctx context.Context, userID string) (*oauth2.Token, error)
	SaveCalendarToken(ctx context.Context, userID string, tok *oauth2.Token) error
}

// NewGoogleOAuthConfig returns nil when any credential is missing, which
// disables the calendar integration.
func NewGoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			calendar.CalendarScope,
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleCalendar writes events to the user's primary Google calendar.
type GoogleCalendar struct {
	oauth      *oauth2.Config
	tokens     TokenStore
	calendarID string
	// endpoint overrides the API base URL when set.
	endpoint string
}

func NewGoogleCalendar(cfg *oauth2.Config, tokens TokenStore) *GoogleCalendar {
	return &GoogleCalendar{oauth: cfg, tokens: tokens, calendarID: "primary"}
}

// liveToken exchanges the stored refresh state for a valid access token and
// writes back whatever the refresh produced.
func (g *GoogleCalendar) liveToken(ctx context.Context, userID string) (*oauth2.Token, error) {
	stored, err := g.tokens.CalendarToken(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrCalendarNotLinked
	}
	if err != nil {
		return nil, fmt.Errorf("load calendar token: %w", err)
	}

	tok, err := g.oauth.TokenSource(ctx, stored).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh calendar token: %w", err)
	}
	if tok.AccessToken != stored.AccessToken {
		if err := g.tokens.SaveCalendarToken(ctx, userID, tok); err != nil {
			return nil, fmt.Errorf("store refreshed token: %w", err)
		}
	}
	return tok, nil
}

func (g *GoogleCalendar) InsertEvent(ctx context.Context, userID string, ev CalendarEvent) (string, error) {
	tok, err := g.liveToken(ctx, userID)
	if err != nil {
		return "", err
	}

	opts := []option.ClientOption{option.WithHTTPClient(g.oauth.Client(ctx, tok))}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create calendar service: %w", err)
	}

	event := &calendar.Event{
		Id:          ev.ID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.Start.Location().String(),
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.End.Location().String(),
		},
		Attendees: []*calendar.EventAttendee{
			{Email: ev.AttendeeEmail, DisplayName: ev.AttendeeName},
		},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: ev.RequestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
	}

	created, err := srv.Events.Insert(g.calendarID, event).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict && ev.ID != "" {
		// an earlier attempt already created it
		return ev.ID, nil
	}
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	return created.Id, nil
}

// calendarEventID maps a booking id onto the base32hex alphabet Google
// accepts for event ids. UUID hex digits already belong to it.
func calendarEventID(bookingID string) string {
	return strings.ToLower(strings.ReplaceAll(bookingID, "-", ""))
}

// GET /api/calendar/auth
// Starts the OAuth flow for the signed-in owner.
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.OAuth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}

	state, err := a.Sessions.IssueOAuthState(SessionUserID(c))
	if err != nil {
		a.respondError(c, err, msgUserNotFound, msgCalendarConflict)
		return
	}

	url := a.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	c.JSON(http.StatusOK, gin.H{"auth_url": url})
}

// GET /oauth2callback
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.OAuth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}
	userID, err := a.Sessions.ParseOAuthState(c.Query("state"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}

	ctx := c.Request.Context()
	token, err := a.OAuth.Exchange(ctx, code)
	if err != nil {
		a.Logger.Warn("oauth code exchange failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}
	if err := a.DB.SaveCalendarToken(ctx, userID, token); err != nil {
		a.respondError(c, err, msgUserNotFound, msgCalendarConflict)
		return
	}

	a.Logger.Info("calendar connected", zap.String("user_id", userID))
	c.JSON(http.StatusOK, gin.H{"message": "calendar connected"})
}
