package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"safebrowse/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const subscriberBuffer = 64

// sqlStore implements Store on any sqlx connection whose schema matches
// the activities and alert_logs tables. Queries are written with ? and
// rebound for the driver.
type sqlStore struct {
	db     *sqlx.DB
	hub    *hub
	logger *zap.Logger
}

func newSQLStore(db *sqlx.DB, logger *zap.Logger) *sqlStore {
	return &sqlStore{db: db, hub: newHub(logger), logger: logger}
}

func (s *sqlStore) Append(ctx context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return err
	}

	var err error
	switch rec.Collection {
	case CollectionActivities:
		a := rec.Activity
		_, err = s.db.ExecContext(ctx, s.db.Rebind(`
			INSERT INTO activities (
				id, timestamp, kind, content, risk_level, sophistication, status, reason, verified
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			a.ID, a.Timestamp, a.Kind, a.Content, a.RiskLevel, a.Sophistication, a.Status, a.Reason, a.Verified,
		)
	case CollectionAlerts:
		l := rec.Alert
		_, err = s.db.ExecContext(ctx, s.db.Rebind(`
			INSERT INTO alert_logs (
				id, timestamp, message, method, risk_level, activity_id
			) VALUES (?, ?, ?, ?, ?, ?)`),
			l.ID, l.Timestamp, l.Message, l.Method, l.RiskLevel, l.ActivityID,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to append %s record: %w", rec.Collection, err)
	}

	s.hub.publish(rec)
	return nil
}

func (s *sqlStore) Last(ctx context.Context, c Collection, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}

	switch c {
	case CollectionActivities:
		var rows []models.Activity
		err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
			SELECT id, timestamp, kind, content, risk_level, sophistication, status, reason, verified
			FROM (
				SELECT * FROM activities ORDER BY seq DESC LIMIT ?
			) recent
			ORDER BY seq ASC`), limit)
		if err != nil {
			return nil, fmt.Errorf("failed to query activities: %w", err)
		}
		out := make([]Record, 0, len(rows))
		for _, a := range rows {
			out = append(out, ActivityRecord(a))
		}
		return out, nil

	case CollectionAlerts:
		var rows []models.AlertLog
		err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
			SELECT id, timestamp, message, method, risk_level, activity_id
			FROM (
				SELECT * FROM alert_logs ORDER BY seq DESC LIMIT ?
			) recent
			ORDER BY seq ASC`), limit)
		if err != nil {
			return nil, fmt.Errorf("failed to query alert logs: %w", err)
		}
		out := make([]Record, 0, len(rows))
		for _, l := range rows {
			out = append(out, AlertRecord(l))
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
}

func (s *sqlStore) SubscribeLast(ctx context.Context, c Collection, limit int) (<-chan Record, error) {
	if _, err := ParseCollection(string(c)); err != nil {
		return nil, err
	}

	// Subscribe before reading the backlog so nothing appended in between is lost.
	live, unsubscribe := s.hub.subscribe(c, subscriberBuffer)
	backlog, err := s.Last(ctx, c, limit)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	out := make(chan Record, len(backlog)+1)
	go func() {
		defer close(out)
		defer unsubscribe()

		seen := make(map[string]struct{}, len(backlog))
		for _, rec := range backlog {
			seen[rec.ID()] = struct{}{}
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case rec, ok := <-live:
				if !ok {
					return
				}
				if _, dup := seen[rec.ID()]; dup {
					continue
				}
				select {
				case out <- rec:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *sqlStore) Activity(ctx context.Context, id string) (models.Activity, error) {
	var a models.Activity
	err := s.db.GetContext(ctx, &a, s.db.Rebind(`
		SELECT id, timestamp, kind, content, risk_level, sophistication, status, reason, verified
		FROM activities WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Activity{}, ErrNotFound
	}
	if err != nil {
		return models.Activity{}, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

func (s *sqlStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByRiskLevel: make(map[models.RiskLevel]int, len(models.RiskLevels))}
	for _, level := range models.RiskLevels {
		stats.ByRiskLevel[level] = 0
	}

	var byLevel []struct {
		RiskLevel models.RiskLevel `db:"risk_level"`
		Count     int              `db:"count"`
	}
	if err := s.db.SelectContext(ctx, &byLevel,
		`SELECT risk_level, COUNT(*) AS count FROM activities GROUP BY risk_level`); err != nil {
		return Stats{}, fmt.Errorf("failed to count activities: %w", err)
	}
	for _, row := range byLevel {
		stats.ByRiskLevel[row.RiskLevel] = row.Count
		stats.TotalActivities += row.Count
	}

	counts := []struct {
		dest  *int
		query string
		args  []any
	}{
		{&stats.Blocked, `SELECT COUNT(*) FROM activities WHERE status = ?`, []any{models.StatusBlocked}},
		{&stats.Unverified, `SELECT COUNT(*) FROM activities WHERE verified = ?`, []any{false}},
		{&stats.Alerts, `SELECT COUNT(*) FROM alert_logs`, nil},
	}
	for _, c := range counts {
		if err := s.db.GetContext(ctx, c.dest, s.db.Rebind(c.query), c.args...); err != nil {
			return Stats{}, fmt.Errorf("failed to compute stats: %w", err)
		}
	}
	return stats, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
