package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/saferides/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) SaveRide(ctx context.Context, r *models.RideRequest) error {
	stops, err := json.Marshal(r.Stops)
	if err != nil {
		return err
	}
	shares, err := json.Marshal(r.Shares)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO ride_requests(id, rider_id, stops, option_id, status, total_cents, payment_method, shares, hold_id, requested_at, scheduled_for, updated_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 ON CONFLICT (id) DO NOTHING`,
		r.ID, r.RiderID, stops, r.OptionID, r.Status, r.TotalCents, nullable(string(r.PaymentMethod)), shares, nullable(r.HoldID), r.RequestedAt, r.ScheduledFor, time.Now())
	return err
}

func (p *PostgresStore) UpdateRide(ctx context.Context, r *models.RideRequest) error {
	shares, err := json.Marshal(r.Shares)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`UPDATE ride_requests SET status=$1, total_cents=$2, payment_method=$3, shares=$4, hold_id=$5, updated_at=$6 WHERE id=$7`,
		r.Status, r.TotalCents, nullable(string(r.PaymentMethod)), shares, nullable(r.HoldID), time.Now(), r.ID)
	return err
}

func (p *PostgresStore) ListRides(ctx context.Context, riderID string) ([]models.RideRequest, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, rider_id, stops, option_id, status, total_cents, COALESCE(payment_method,''), shares, COALESCE(hold_id,''), requested_at, scheduled_for
		 FROM ride_requests WHERE rider_id=$1 ORDER BY requested_at ASC`, riderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.RideRequest
	for rows.Next() {
		var r models.RideRequest
		var stops, shares []byte
		var method string
		if err := rows.Scan(&r.ID, &r.RiderID, &stops, &r.OptionID, &r.Status, &r.TotalCents, &method, &shares, &r.HoldID, &r.RequestedAt, &r.ScheduledFor); err != nil {
			return nil, err
		}
		r.PaymentMethod = models.PaymentMethod(method)
		if err := json.Unmarshal(stops, &r.Stops); err != nil {
			return nil, err
		}
		if len(shares) > 0 {
			if err := json.Unmarshal(shares, &r.Shares); err != nil {
				return nil, err
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresStore) SaveScheduled(ctx context.Context, s *models.ScheduledRide) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO scheduled_rides(id, rider_id, dest_name, dest_address, dest_lat, dest_lon, scheduled_for, status, notification_id, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (id) DO NOTHING`,
		s.ID, s.RiderID, s.Destination.Name, s.Destination.Address, s.Destination.Coord.Lat, s.Destination.Coord.Lon, s.ScheduledFor, s.Status, nullable(s.NotificationID), s.CreatedAt)
	return err
}

func (p *PostgresStore) UpdateScheduled(ctx context.Context, s *models.ScheduledRide) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE scheduled_rides SET status=$1, notification_id=$2 WHERE id=$3`,
		s.Status, nullable(s.NotificationID), s.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: scheduled ride %s", models.ErrNotFound, s.ID)
	}
	return nil
}

func (p *PostgresStore) GetScheduled(ctx context.Context, id string) (*models.ScheduledRide, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, rider_id, dest_name, dest_address, dest_lat, dest_lon, scheduled_for, status, COALESCE(notification_id,''), created_at
		 FROM scheduled_rides WHERE id=$1`, id)
	var s models.ScheduledRide
	err := row.Scan(&s.ID, &s.RiderID, &s.Destination.Name, &s.Destination.Address, &s.Destination.Coord.Lat, &s.Destination.Coord.Lon, &s.ScheduledFor, &s.Status, &s.NotificationID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: scheduled ride %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *PostgresStore) ListScheduled(ctx context.Context, riderID string, status models.ScheduleStatus) ([]models.ScheduledRide, error) {
	q := `SELECT id, rider_id, dest_name, dest_address, dest_lat, dest_lon, scheduled_for, status, COALESCE(notification_id,''), created_at
	      FROM scheduled_rides WHERE rider_id=$1`
	args := []any{riderID}
	if status != "" {
		q += ` AND status=$2`
		args = append(args, status)
	}
	q += ` ORDER BY scheduled_for ASC`
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.ScheduledRide
	for rows.Next() {
		var s models.ScheduledRide
		if err := rows.Scan(&s.ID, &s.RiderID, &s.Destination.Name, &s.Destination.Address, &s.Destination.Coord.Lat, &s.Destination.Coord.Lon, &s.ScheduledFor, &s.Status, &s.NotificationID, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
