package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"digesttracker/internal/model"
)

type SchedulePostgresStorage struct {
	db *sqlx.DB
}

func NewScheduleStorage(db *sqlx.DB) *SchedulePostgresStorage {
	return &SchedulePostgresStorage{db: db}
}

// Create records a digest cadence for a topic.
func (s *SchedulePostgresStorage) Create(ctx context.Context, sched model.Schedule) (model.Schedule, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return model.Schedule{}, err
	}
	defer conn.Close()

	sched.ID = newID(sched.TopicID + "-" + sched.Frequency)
	sched.Enabled = true

	if _, err := conn.ExecContext(
		ctx,
		`INSERT INTO schedules (id, topic_id, frequency, cron_expr, enabled) VALUES ($1, $2, $3, $4, $5);`,
		sched.ID,
		sched.TopicID,
		sched.Frequency,
		sched.CronExpr,
		sched.Enabled,
	); err != nil {
		return model.Schedule{}, err
	}

	return sched, nil
}

// All returns every enabled schedule with its topic name resolved, ordered
// by topic then frequency.
func (s *SchedulePostgresStorage) All(ctx context.Context) ([]model.Schedule, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []dbSchedule
	if err := conn.SelectContext(
		ctx,
		&rows,
		`SELECT s.*, t.name AS topic_name
		 FROM schedules s
		 JOIN topics t ON t.id = s.topic_id
		 WHERE s.enabled = TRUE
		 ORDER BY t.name, s.frequency;`,
	); err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row dbSchedule, _ int) model.Schedule {
		return scheduleFromRow(row)
	}), nil
}

// Delete removes the schedule identified by topic and frequency.
func (s *SchedulePostgresStorage) Delete(ctx context.Context, topicID, frequency string) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, `DELETE FROM schedules WHERE topic_id = $1 AND frequency = $2;`, topicID, frequency)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}

	return nil
}

type dbSchedule struct {
	ID        string `db:"id"`
	TopicID   string `db:"topic_id"`
	TopicName string `db:"topic_name"`
	Frequency string `db:"frequency"`
	CronExpr  string `db:"cron_expr"`
	Enabled   bool   `db:"enabled"`
}

func scheduleFromRow(row dbSchedule) model.Schedule {
	return model.Schedule{
		ID:        row.ID,
		TopicID:   row.TopicID,
		TopicName: row.TopicName,
		Frequency: row.Frequency,
		CronExpr:  row.CronExpr,
		Enabled:   row.Enabled,
	}
}
