package db

import (
	"context"
	"database/sql"
	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type SignupOutcome int64

const (
	SIGNUP_SUCCEEDED SignupOutcome = iota
	SIGNUP_ALREADY_SIGNED_UP
	SIGNUP_CAPACITY_EXCEEDED
	SIGNUP_REJECTED
	SIGNUP_FAILED
)

func (o SignupOutcome) String() string {
	switch o {
	case SIGNUP_SUCCEEDED:
		return "succeeded"
	case SIGNUP_ALREADY_SIGNED_UP:
		return "already signed up"
	case SIGNUP_CAPACITY_EXCEEDED:
		return "capacity exceeded"
	case SIGNUP_REJECTED:
		return "rejected"
	case SIGNUP_FAILED:
		return "failed"
	}
	return "unknown"
}

// Holds reports whether the student ends up on the roster after this outcome.
func (o SignupOutcome) Holds() bool {
	return o == SIGNUP_SUCCEEDED || o == SIGNUP_ALREADY_SIGNED_UP
}

// Open opens the sqlite database at path, creating it if needed, and applies
// Schema. A path of ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer, an in-memory database only exists on the
	// connection that created it
	database.SetMaxOpenConns(1)

	_, err = database.ExecContext(ctx, Schema)
	if err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}
