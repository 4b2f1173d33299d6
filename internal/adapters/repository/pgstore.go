package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gigmatch/gigmatch/internal/domain/geo"
	"github.com/gigmatch/gigmatch/internal/domain/model"
)

// uniqueViolation is the Postgres error code raised by the
// (event_id, performer_id) unique index.
const uniqueViolation = "23505"

// PGStore implements Store on a pgx connection pool. The uniqueness and
// compare-and-swap guarantees come from the schema: a unique index on
// (event_id, performer_id) and UPDATE ... WHERE status = $from.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to the database at dsn.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready verifies connectivity.
func (s *PGStore) Ready(ctx context.Context) error {
	var one int
	return s.pool.QueryRow(ctx, "select 1").Scan(&one)
}

// UpsertPerformer creates or replaces a performer profile.
func (s *PGStore) UpsertPerformer(ctx context.Context, p model.PerformerProfile) error {
	var lat, lng *float64
	if p.Coordinates != nil {
		lat = &p.Coordinates.Latitude
		lng = &p.Coordinates.Longitude
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO performers (performer_id, stage_name, city, latitude, longitude, mobility_radius_km, experience_level)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (performer_id) DO UPDATE SET
			stage_name = EXCLUDED.stage_name,
			city = EXCLUDED.city,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			mobility_radius_km = EXCLUDED.mobility_radius_km,
			experience_level = EXCLUDED.experience_level`,
		p.PerformerID, p.StageName, p.City, lat, lng, p.MobilityRadiusKm, p.ExperienceLevel,
	)
	if err != nil {
		return fmt.Errorf("upsert performer: %w", err)
	}
	return nil
}

// GetPerformer returns the profile or ErrPerformerNotFound.
func (s *PGStore) GetPerformer(ctx context.Context, performerID string) (model.PerformerProfile, error) {
	var p model.PerformerProfile
	var lat, lng *float64
	err := s.pool.QueryRow(ctx, `
		SELECT performer_id, stage_name, city, latitude, longitude, mobility_radius_km, experience_level
		FROM performers WHERE performer_id = $1`, performerID).
		Scan(&p.PerformerID, &p.StageName, &p.City, &lat, &lng, &p.MobilityRadiusKm, &p.ExperienceLevel)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PerformerProfile{}, fmt.Errorf("%w: %s", ErrPerformerNotFound, performerID)
	}
	if err != nil {
		return model.PerformerProfile{}, fmt.Errorf("query performer: %w", err)
	}
	if lat != nil && lng != nil {
		p.Coordinates = &geo.Coordinates{Latitude: *lat, Longitude: *lng}
	}
	return p, nil
}

// UpsertOrganizer creates or replaces an organizer profile.
func (s *PGStore) UpsertOrganizer(ctx context.Context, o model.OrganizerProfile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO organizers (organizer_id, company_name, city)
		VALUES ($1,$2,$3)
		ON CONFLICT (organizer_id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			city = EXCLUDED.city`,
		o.OrganizerID, o.CompanyName, o.City,
	)
	if err != nil {
		return fmt.Errorf("upsert organizer: %w", err)
	}
	return nil
}

// GetOrganizer returns the profile or ErrOrganizerNotFound.
func (s *PGStore) GetOrganizer(ctx context.Context, organizerID string) (model.OrganizerProfile, error) {
	var o model.OrganizerProfile
	err := s.pool.QueryRow(ctx, `
		SELECT organizer_id, company_name, city
		FROM organizers WHERE organizer_id = $1`, organizerID).
		Scan(&o.OrganizerID, &o.CompanyName, &o.City)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.OrganizerProfile{}, fmt.Errorf("%w: %s", ErrOrganizerNotFound, organizerID)
	}
	if err != nil {
		return model.OrganizerProfile{}, fmt.Errorf("query organizer: %w", err)
	}
	return o, nil
}

// CreateEvent stores a new event.
func (s *PGStore) CreateEvent(ctx context.Context, e model.Event) error {
	var lat, lng *float64
	if e.Location.Coordinates != nil {
		lat = &e.Location.Coordinates.Latitude
		lng = &e.Location.Coordinates.Longitude
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO events (event_id, organizer_id, title, city, postal_code, address,
		                    latitude, longitude, event_date, start_time, end_time,
		                    fee_amount, max_performers, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		e.EventID, e.OrganizerID, e.Title, e.Location.City, e.Location.PostalCode,
		e.Location.Address, lat, lng, e.Date, e.StartTime, e.EndTime,
		e.FeeAmount, e.MaxPerformers, e.Status,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent returns the event or ErrEventNotFound.
func (s *PGStore) GetEvent(ctx context.Context, eventID string) (model.Event, error) {
	row := s.pool.QueryRow(ctx, eventSelect+` WHERE event_id = $1`, eventID)
	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Event{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	return e, err
}

// ListEvents returns every event.
func (s *PGStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.queryEvents(ctx, eventSelect)
}

// ListEventsByOrganizer returns the organizer's own events.
func (s *PGStore) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error) {
	return s.queryEvents(ctx, eventSelect+` WHERE organizer_id = $1`, organizerID)
}

// UpdateEventStatus is a compare-and-swap on the event status.
func (s *PGStore) UpdateEventStatus(ctx context.Context, eventID string, from, to model.EventStatus) (model.Event, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE events SET status = $3
		WHERE event_id = $1 AND status = $2
		RETURNING `+eventColumns, eventID, from, to)
	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the event is gone or its status moved under us.
		if _, getErr := s.GetEvent(ctx, eventID); getErr != nil {
			return model.Event{}, getErr
		}
		return model.Event{}, fmt.Errorf("%w: event %s is no longer %s", ErrStatusConflict, eventID, from)
	}
	return e, err
}

// CreateApplication stores a new application; the unique index on
// (event_id, performer_id) enforces the pair invariant.
func (s *PGStore) CreateApplication(ctx context.Context, a model.Application) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO applications (application_id, event_id, performer_id, message, status, applied_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ApplicationID, a.EventID, a.PerformerID, a.Message, a.Status, a.AppliedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: performer %s already applied to event %s", ErrDuplicateApplication, a.PerformerID, a.EventID)
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// GetApplication returns the application or ErrApplicationNotFound.
func (s *PGStore) GetApplication(ctx context.Context, applicationID string) (model.Application, error) {
	row := s.pool.QueryRow(ctx, applicationSelect+` WHERE application_id = $1`, applicationID)
	a, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Application{}, fmt.Errorf("%w: %s", ErrApplicationNotFound, applicationID)
	}
	return a, err
}

// ListApplicationsByEvent returns every application for the event.
func (s *PGStore) ListApplicationsByEvent(ctx context.Context, eventID string) ([]model.Application, error) {
	return s.queryApplications(ctx, applicationSelect+` WHERE event_id = $1`, eventID)
}

// ListApplicationsByPerformer returns the performer's applications.
func (s *PGStore) ListApplicationsByPerformer(ctx context.Context, performerID string) ([]model.Application, error) {
	return s.queryApplications(ctx, applicationSelect+` WHERE performer_id = $1`, performerID)
}

// ListApplications returns every application.
func (s *PGStore) ListApplications(ctx context.Context) ([]model.Application, error) {
	return s.queryApplications(ctx, applicationSelect)
}

// UpdateApplicationStatus is a compare-and-swap on the application status.
func (s *PGStore) UpdateApplicationStatus(ctx context.Context, applicationID string, from, to model.ApplicationStatus, respondedAt *time.Time) (model.Application, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE applications SET status = $3, responded_at = COALESCE($4, responded_at)
		WHERE application_id = $1 AND status = $2
		RETURNING `+applicationColumns, applicationID, from, to, respondedAt)
	a, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.GetApplication(ctx, applicationID); getErr != nil {
			return model.Application{}, getErr
		}
		return model.Application{}, fmt.Errorf("%w: application %s is no longer %s", ErrStatusConflict, applicationID, from)
	}
	return a, err
}

// AddRating stores a rating.
func (s *PGStore) AddRating(ctx context.Context, r model.Rating) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ratings (rating_id, event_id, performer_id, score, comment, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		r.RatingID, r.EventID, r.PerformerID, r.Score, r.Comment, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

// ListRatingsByPerformer returns the performer's received ratings.
func (s *PGStore) ListRatingsByPerformer(ctx context.Context, performerID string) ([]model.Rating, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT rating_id, event_id, performer_id, score, comment, created_at
		FROM ratings WHERE performer_id = $1`, performerID)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var out []model.Rating
	for rows.Next() {
		var r model.Rating
		if err := rows.Scan(&r.RatingID, &r.EventID, &r.PerformerID, &r.Score, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const eventColumns = `event_id, organizer_id, title, city, postal_code, address,
	latitude, longitude, event_date, start_time, end_time, fee_amount, max_performers, status`

const eventSelect = `SELECT ` + eventColumns + ` FROM events`

const applicationColumns = `application_id, event_id, performer_id, message, status, applied_at, responded_at`

const applicationSelect = `SELECT ` + applicationColumns + ` FROM applications`

func (s *PGStore) queryEvents(ctx context.Context, sql string, args ...any) ([]model.Event, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGStore) queryApplications(ctx context.Context, sql string, args ...any) ([]model.Application, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var out []model.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanEvent(row pgx.Row) (model.Event, error) {
	var e model.Event
	var lat, lng *float64
	if err := row.Scan(
		&e.EventID, &e.OrganizerID, &e.Title, &e.Location.City, &e.Location.PostalCode,
		&e.Location.Address, &lat, &lng, &e.Date, &e.StartTime, &e.EndTime,
		&e.FeeAmount, &e.MaxPerformers, &e.Status,
	); err != nil {
		return model.Event{}, err
	}
	if lat != nil && lng != nil {
		e.Location.Coordinates = &geo.Coordinates{Latitude: *lat, Longitude: *lng}
	}
	return e, nil
}

func scanApplication(row pgx.Row) (model.Application, error) {
	var a model.Application
	if err := row.Scan(
		&a.ApplicationID, &a.EventID, &a.PerformerID, &a.Message, &a.Status,
		&a.AppliedAt, &a.RespondedAt,
	); err != nil {
		return model.Application{}, err
	}
	return a, nil
}
