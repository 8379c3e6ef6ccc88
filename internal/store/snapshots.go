package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const snapshotColumns = `date, tss, ctl, atl, tsb, weekly_tss, monthly_tss,
	monotony, strain, form_status, training_balance, computed_at`

// SaveSnapshot stores or replaces the snapshot for its date
func (s *Store) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	computedAt := snap.ComputedAt
	if computedAt.IsZero() {
		computedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO fitness_snapshots (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			tss = excluded.tss,
			ctl = excluded.ctl,
			atl = excluded.atl,
			tsb = excluded.tsb,
			weekly_tss = excluded.weekly_tss,
			monthly_tss = excluded.monthly_tss,
			monotony = excluded.monotony,
			strain = excluded.strain,
			form_status = excluded.form_status,
			training_balance = excluded.training_balance,
			computed_at = excluded.computed_at
	`),
		snap.Date.Format(DateLayout), snap.TSS, snap.CTL, snap.ATL, snap.TSB,
		snap.WeeklyTSS, snap.MonthlyTSS, snap.Monotony, snap.Strain,
		snap.FormStatus, snap.TrainingBalance, computedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", snap.Date.Format(DateLayout), err)
	}
	return nil
}

// GetSnapshot retrieves the snapshot for a date
func (s *Store) GetSnapshot(ctx context.Context, date time.Time) (*Snapshot, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row, s.q(`SELECT `+snapshotColumns+` FROM fitness_snapshots WHERE date = ?`),
		date.Format(DateLayout))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toSnapshot()
}

// LatestSnapshot returns the most recent snapshot
func (s *Store) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row, `SELECT `+snapshotColumns+` FROM fitness_snapshots ORDER BY date DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toSnapshot()
}

// SnapshotsBetween returns snapshots in [from, to] ordered by date
func (s *Store) SnapshotsBetween(ctx context.Context, from, to time.Time) ([]Snapshot, error) {
	var rows []snapshotRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT `+snapshotColumns+`
		FROM fitness_snapshots
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`), from.Format(DateLayout), to.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}

	snaps := make([]Snapshot, 0, len(rows))
	for _, row := range rows {
		snap, err := row.toSnapshot()
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *snap)
	}
	return snaps, nil
}

func (row snapshotRow) toSnapshot() (*Snapshot, error) {
	date, err := time.Parse(DateLayout, row.Date)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot date %q: %w", row.Date, err)
	}
	computedAt, _ := time.Parse(time.RFC3339, row.ComputedAt)

	return &Snapshot{
		Date:            date,
		TSS:             row.TSS,
		CTL:             row.CTL,
		ATL:             row.ATL,
		TSB:             row.TSB,
		WeeklyTSS:       row.WeeklyTSS,
		MonthlyTSS:      row.MonthlyTSS,
		Monotony:        row.Monotony,
		Strain:          row.Strain,
		FormStatus:      row.FormStatus,
		TrainingBalance: row.TrainingBalance,
		ComputedAt:      computedAt,
	}, nil
}
