package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

const markEventSeen = `insert or ignore into seen_event (event_id, name, event_date, first_seen)
values (?, ?, ?, ?)`

type MarkEventSeenParams struct {
	EventID   int64
	Name      string
	EventDate int64
	FirstSeen int64
}

// MarkEventSeen returns true when the event had not been seen before.
func (q *Queries) MarkEventSeen(ctx context.Context, arg MarkEventSeenParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, markEventSeen,
		arg.EventID,
		arg.Name,
		arg.EventDate,
		arg.FirstSeen,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

const addSignupAttempt = `insert into signup_attempt (event_id, user_id, attempted_at, outcome, message)
values (?, ?, ?, ?, ?)`

type AddSignupAttemptParams struct {
	EventID     int64
	UserID      string
	AttemptedAt int64
	Outcome     SignupOutcome
	Message     string
}

func (q *Queries) AddSignupAttempt(ctx context.Context, arg AddSignupAttemptParams) error {
	_, err := q.db.ExecContext(ctx, addSignupAttempt,
		arg.EventID,
		arg.UserID,
		arg.AttemptedAt,
		int64(arg.Outcome),
		arg.Message,
	)
	return err
}

const hasHeldSignup = `select exists (
    select 1 from signup_attempt
    where event_id = ? and user_id = ? and outcome in (?, ?)
)`

// HasHeldSignup reports whether an attempt for the event ever put the student
// on its roster.
func (q *Queries) HasHeldSignup(ctx context.Context, eventId int64, userId string) (bool, error) {
	row := q.db.QueryRowContext(ctx, hasHeldSignup,
		eventId,
		userId,
		int64(SIGNUP_SUCCEEDED),
		int64(SIGNUP_ALREADY_SIGNED_UP),
	)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listSignupAttempts = `select id, event_id, user_id, attempted_at, outcome, message
from signup_attempt
where user_id = ?
order by attempted_at, id`

type SignupAttempt struct {
	ID          int64
	EventID     int64
	UserID      string
	AttemptedAt int64
	Outcome     SignupOutcome
	Message     string
}

func (q *Queries) ListSignupAttempts(ctx context.Context, userId string) ([]SignupAttempt, error) {
	rows, err := q.db.QueryContext(ctx, listSignupAttempts, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SignupAttempt
	for rows.Next() {
		var i SignupAttempt
		var outcome int64
		err := rows.Scan(
			&i.ID,
			&i.EventID,
			&i.UserID,
			&i.AttemptedAt,
			&outcome,
			&i.Message,
		)
		if err != nil {
			return nil, err
		}
		i.Outcome = SignupOutcome(outcome)
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
