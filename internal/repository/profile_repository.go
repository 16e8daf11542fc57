package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jengzang/mobility-backend-go/internal/database"
	"github.com/jengzang/mobility-backend-go/internal/models"
)

// ProfileRepository stores ranked per-date location profiles
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// SaveEntries upserts profile entries in one transaction
func (r *ProfileRepository) SaveEntries(ctx context.Context, taskID int64, entries []models.ProfileEntry) error {
	if len(entries) == 0 {
		return nil
	}

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO location_profiles (sample_date, msisdn_no, geohash, visit_count, rank_order, task_id)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (sample_date, msisdn_no, geohash) DO UPDATE SET
				visit_count = excluded.visit_count,
				rank_order = excluded.rank_order,
				task_id = excluded.task_id,
				updated_at = CURRENT_TIMESTAMP
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare profile insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.SampleDate, e.SubscriberID, e.Geohash, e.VisitCount, e.Rank, taskID); err != nil {
				return fmt.Errorf("failed to save profile entry: %w", err)
			}
		}
		return nil
	})
}

func dateArgs(dates []int) (string, []interface{}) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(dates)), ",")
	args := make([]interface{}, len(dates))
	for i, d := range dates {
		args[i] = d
	}
	return placeholders, args
}

// ExistingDates reports which of the given dates already have stored profiles
func (r *ProfileRepository) ExistingDates(ctx context.Context, dates []int) (map[int]bool, error) {
	existing := make(map[int]bool)
	if len(dates) == 0 {
		return existing, nil
	}

	placeholders, args := dateArgs(dates)
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT sample_date FROM location_profiles WHERE sample_date IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile dates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan profile date: %w", err)
		}
		existing[d] = true
	}
	return existing, rows.Err()
}

// DeleteDates removes all profiles of the given sampling dates
func (r *ProfileRepository) DeleteDates(ctx context.Context, dates []int) (int64, error) {
	if len(dates) == 0 {
		return 0, nil
	}

	placeholders, args := dateArgs(dates)
	result, err := r.db.ExecContext(ctx, "DELETE FROM location_profiles WHERE sample_date IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete profiles: %w", err)
	}
	return result.RowsAffected()
}

// GetProfile returns a subscriber's profile for one date ordered by rank
func (r *ProfileRepository) GetProfile(ctx context.Context, subscriberID string, date int) ([]models.ProfileEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sample_date, msisdn_no, geohash, visit_count, rank_order
		FROM location_profiles
		WHERE msisdn_no = ? AND sample_date = ?
		ORDER BY rank_order
	`, subscriberID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	defer rows.Close()

	entries := []models.ProfileEntry{}
	for rows.Next() {
		var e models.ProfileEntry
		if err := rows.Scan(&e.SampleDate, &e.SubscriberID, &e.Geohash, &e.VisitCount, &e.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan profile entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
