package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
)

const contractColumns = `id, version, title, agency, category, location, procurement_type,
	estimated_value, deadline, published_at`

func scanContract(row pgx.Row) (entity.ContractAnnouncement, error) {
	var (
		c              entity.ContractAnnouncement
		estimatedValue pgtype.Int8
		deadline       pgtype.Timestamptz
		publishedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&c.ID, &c.Version, &c.Title, &c.Agency, &c.Category, &c.Location,
		&c.ProcurementType, &estimatedValue, &deadline, &publishedAt,
	)
	if err != nil {
		return entity.ContractAnnouncement{}, err
	}

	c.EstimatedValue = int64PtrFromPgInt8(estimatedValue)
	c.Deadline = timePtrFromPgTimestamptz(deadline)
	c.PublishedAt = timeFromPgTimestamptz(publishedAt)

	return c, nil
}

func (s *DB) GetContract(ctx context.Context, contractID int64) (_ *entity.ContractAnnouncement, err error) {
	ctx, span := s.startSpan(ctx, "GetContract")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, contractID)

	c, err := scanContract(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &c, nil
}

func (s *DB) ListContractsPublishedSince(ctx context.Context, since time.Time) (_ []entity.ContractAnnouncement, err error) {
	ctx, span := s.startSpan(ctx, "ListContractsPublishedSince")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT `+contractColumns+` FROM contracts
		WHERE published_at >= $1
		ORDER BY published_at ASC`,
		pgTimestamptz(since),
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var items []entity.ContractAnnouncement
	for rows.Next() {
		c, scanErr := scanContract(rows)
		if scanErr != nil {
			return nil, s.mapError(scanErr)
		}
		items = append(items, c)
	}

	return items, s.mapError(rows.Err())
}

const profileColumns = `user_id, industries, locations, contract_types, min_value, max_value,
	frequency, email_alerts, chat_alerts, email, chat_destination`

func scanProfile(row pgx.Row) (entity.UserPreferenceProfile, error) {
	var (
		p         entity.UserPreferenceProfile
		minValue  pgtype.Int8
		maxValue  pgtype.Int8
		frequency pgtype.Text
	)

	err := row.Scan(
		&p.UserID, &p.Industries, &p.Locations, &p.ContractTypes, &minValue, &maxValue,
		&frequency, &p.EmailAlerts, &p.ChatAlerts, &p.Email, &p.ChatDestination,
	)
	if err != nil {
		return entity.UserPreferenceProfile{}, err
	}

	p.MinValue = int64PtrFromPgInt8(minValue)
	p.MaxValue = int64PtrFromPgInt8(maxValue)
	p.Frequency = entity.FrequencyFromString(frequency.String)

	return p, nil
}

func (s *DB) GetProfile(ctx context.Context, userID int64) (_ *entity.UserPreferenceProfile, err error) {
	ctx, span := s.startSpan(ctx, "GetProfile")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_preferences WHERE user_id = $1`, userID)

	p, err := scanProfile(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &p, nil
}

// ListAlertableProfiles returns every profile with at least one delivery
// channel enabled.
func (s *DB) ListAlertableProfiles(ctx context.Context) (_ []entity.UserPreferenceProfile, err error) {
	ctx, span := s.startSpan(ctx, "ListAlertableProfiles")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT `+profileColumns+` FROM user_preferences
		WHERE email_alerts OR chat_alerts
		ORDER BY user_id ASC`,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var items []entity.UserPreferenceProfile
	for rows.Next() {
		p, scanErr := scanProfile(rows)
		if scanErr != nil {
			return nil, s.mapError(scanErr)
		}
		items = append(items, p)
	}

	return items, s.mapError(rows.Err())
}

// ListActiveTrackedDeadlines returns active tracked deadlines inside the
// [from, until) window.
func (s *DB) ListActiveTrackedDeadlines(ctx context.Context, from, until time.Time) (_ []entity.TrackedDeadline, err error) {
	ctx, span := s.startSpan(ctx, "ListActiveTrackedDeadlines")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT id, user_id, contract_id, deadline, active
		FROM tracked_deadlines
		WHERE active AND deadline >= $1 AND deadline < $2
		ORDER BY deadline ASC`,
		pgTimestamptz(from), pgTimestamptz(until),
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var items []entity.TrackedDeadline
	for rows.Next() {
		var (
			td       entity.TrackedDeadline
			deadline pgtype.Timestamptz
		)
		if scanErr := rows.Scan(&td.ID, &td.UserID, &td.ContractID, &deadline, &td.Active); scanErr != nil {
			return nil, s.mapError(scanErr)
		}
		td.Deadline = timeFromPgTimestamptz(deadline)
		items = append(items, td)
	}

	return items, s.mapError(rows.Err())
}
