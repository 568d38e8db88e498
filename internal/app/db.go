package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/oauth2"
)

const uniqueViolation = "23505"

// PgStore implements Store on PostgreSQL.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// mapError folds driver errors into the package error kinds.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PgStore) CreateUser(ctx context.Context, u *User) error {
	q := `INSERT INTO users (id, username, name, created_at)
	      VALUES ($1, $2, $3, now())
	      RETURNING created_at`
	err := s.pool.QueryRow(ctx, q, u.ID, u.Username, u.Name).Scan(&u.CreatedAt)
	return mapError(err)
}

const userColumns = `id, username, name, COALESCE(bio, ''), COALESCE(email, ''), avatar_url, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Bio, &u.Email, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (s *PgStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username=$1`
	return scanUser(s.pool.QueryRow(ctx, q, username))
}

func (s *PgStore) UpdateBio(ctx context.Context, userID, bio string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET bio=$1 WHERE id=$2`, bio, userID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceTimeIntervals swaps the whole weekly template in one transaction.
func (s *PgStore) ReplaceTimeIntervals(ctx context.Context, userID string, intervals []TimeInterval) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM user_time_intervals WHERE user_id=$1`, userID); err != nil {
		return err
	}

	rows := make([][]any, 0, len(intervals))
	for _, iv := range intervals {
		rows = append(rows, []any{userID, iv.WeekDay, iv.TimeStartInMinutes, iv.TimeEndInMinutes})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"user_time_intervals"},
		[]string{"user_id", "week_day", "time_start_in_minutes", "time_end_in_minutes"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return mapError(err)
	}

	return tx.Commit(ctx)
}

func (s *PgStore) ListTimeIntervals(ctx context.Context, userID string) ([]TimeInterval, error) {
	q := `SELECT id, user_id, week_day, time_start_in_minutes, time_end_in_minutes, created_at
	      FROM user_time_intervals WHERE user_id=$1 ORDER BY week_day`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimeInterval
	for rows.Next() {
		var iv TimeInterval
		if err := rows.Scan(&iv.ID, &iv.UserID, &iv.WeekDay,
			&iv.TimeStartInMinutes, &iv.TimeEndInMinutes, &iv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (s *PgStore) TimeIntervalForWeekDay(ctx context.Context, userID string, weekDay int) (*TimeInterval, error) {
	q := `SELECT id, user_id, week_day, time_start_in_minutes, time_end_in_minutes, created_at
	      FROM user_time_intervals WHERE user_id=$1 AND week_day=$2 LIMIT 1`
	var iv TimeInterval
	err := s.pool.QueryRow(ctx, q, userID, weekDay).Scan(&iv.ID, &iv.UserID, &iv.WeekDay,
		&iv.TimeStartInMinutes, &iv.TimeEndInMinutes, &iv.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &iv, nil
}

func (s *PgStore) BookingExists(ctx context.Context, userID string, date time.Time) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM schedulings WHERE user_id=$1 AND date=$2)`
	err := s.pool.QueryRow(ctx, q, userID, date).Scan(&exists)
	return exists, err
}

func (s *PgStore) CreateBooking(ctx context.Context, b *Booking) error {
	q := `INSERT INTO schedulings
	      (id, user_id, date, name, email, observations, calendar_sync_status, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,now())
	      RETURNING created_at`
	err := s.pool.QueryRow(ctx, q,
		b.ID, b.UserID, b.Date, b.Name, b.Email, b.Observations, b.SyncStatus,
	).Scan(&b.CreatedAt)
	return mapError(err)
}

const bookingColumns = `id, user_id, date, name, email, observations, calendar_sync_status,
	COALESCE(calendar_event_id, ''), calendar_sync_attempts, COALESCE(calendar_sync_error, ''), created_at`

func scanBooking(row pgx.Row) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.UserID, &b.Date, &b.Name, &b.Email, &b.Observations,
		&b.SyncStatus, &b.EventID, &b.SyncAttempts, &b.SyncError, &b.CreatedAt)
	return b, err
}

func (s *PgStore) listBookings(ctx context.Context, q string, args ...any) ([]Booking, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PgStore) ListBookingsBetween(ctx context.Context, userID string, from, to time.Time) ([]Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM schedulings
	      WHERE user_id=$1 AND date >= $2 AND date <= $3
	      ORDER BY date`
	return s.listBookings(ctx, q, userID, from, to)
}

// DailyBookingCounts groups in SQL so the month is never loaded row by row.
func (s *PgStore) DailyBookingCounts(ctx context.Context, userID string, year int, month time.Month, loc *time.Location) ([]DayCount, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0)
	q := `SELECT CAST(EXTRACT(DAY FROM date AT TIME ZONE $4) AS INTEGER) AS day, COUNT(*) AS amount
	      FROM schedulings
	      WHERE user_id=$1 AND date >= $2 AND date < $3
	      GROUP BY 1
	      ORDER BY 1`
	rows, err := s.pool.Query(ctx, q, userID, from, to, loc.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Amount); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

func (s *PgStore) RecordSyncSuccess(ctx context.Context, bookingID, eventID string) error {
	q := `UPDATE schedulings
	      SET calendar_sync_status='succeeded', calendar_event_id=$2,
	          calendar_sync_attempts=calendar_sync_attempts+1, calendar_sync_error=NULL
	      WHERE id=$1`
	_, err := s.pool.Exec(ctx, q, bookingID, eventID)
	return err
}

func (s *PgStore) RecordSyncFailure(ctx context.Context, bookingID, reason string) error {
	q := `UPDATE schedulings
	      SET calendar_sync_status='failed', calendar_sync_error=$2,
	          calendar_sync_attempts=calendar_sync_attempts+1
	      WHERE id=$1 AND calendar_sync_status <> 'succeeded'`
	_, err := s.pool.Exec(ctx, q, bookingID, reason)
	return err
}

func (s *PgStore) ListUnsyncedBookings(ctx context.Context, createdBefore time.Time, maxAttempts, limit int) ([]Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM schedulings
	      WHERE calendar_sync_status IN ('pending', 'failed')
	        AND calendar_sync_attempts < $2
	        AND created_at < $1
	      ORDER BY created_at
	      LIMIT $3`
	return s.listBookings(ctx, q, createdBefore, maxAttempts, limit)
}

func (s *PgStore) CalendarToken(ctx context.Context, userID string) (*oauth2.Token, error) {
	q := `SELECT access_token, COALESCE(refresh_token, ''), COALESCE(token_type, ''), expires_at
	      FROM calendar_accounts WHERE user_id=$1`
	var tok oauth2.Token
	var expiry *time.Time
	err := s.pool.QueryRow(ctx, q, userID).Scan(&tok.AccessToken, &tok.RefreshToken, &tok.TokenType, &expiry)
	if err != nil {
		return nil, mapError(err)
	}
	if expiry != nil {
		tok.Expiry = *expiry
	}
	return &tok, nil
}

// SaveCalendarToken upserts the user's credentials. An empty refresh token
// keeps the stored one, since Google only sends it on first consent.
func (s *PgStore) SaveCalendarToken(ctx context.Context, userID string, tok *oauth2.Token) error {
	var expiry *time.Time
	if !tok.Expiry.IsZero() {
		e := tok.Expiry
		expiry = &e
	}
	q := `INSERT INTO calendar_accounts (user_id, provider, access_token, refresh_token, token_type, expires_at, updated_at)
	      VALUES ($1, 'google', $2, NULLIF($3, ''), $4, $5, now())
	      ON CONFLICT (user_id) DO UPDATE SET
	        access_token = EXCLUDED.access_token,
	        refresh_token = COALESCE(EXCLUDED.refresh_token, calendar_accounts.refresh_token),
	        token_type = EXCLUDED.token_type,
	        expires_at = EXCLUDED.expires_at,
	        updated_at = now()`
	_, err := s.pool.Exec(ctx, q, userID, tok.AccessToken, tok.RefreshToken, tok.TokenType, expiry)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return err
}
