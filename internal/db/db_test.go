package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func setup(t testing.TB) *Queries {
	database, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return New(database)
}

func TestMarkEventSeen(t *testing.T) {
	qry := setup(t)
	ctx := context.Background()

	params := MarkEventSeenParams{EventID: 1301, Name: "通識講座", EventDate: 1696435200, FirstSeen: 1696000000}
	inserted, err := qry.MarkEventSeen(ctx, params)
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = qry.MarkEventSeen(ctx, params)
	require.NoError(t, err)
	require.False(t, inserted)
}

func TestSignupAttempts(t *testing.T) {
	qry := setup(t)
	ctx := context.Background()

	held, err := qry.HasHeldSignup(ctx, 1301, "s1234567")
	require.NoError(t, err)
	require.False(t, held)

	for i, outcome := range []SignupOutcome{SIGNUP_CAPACITY_EXCEEDED, SIGNUP_SUCCEEDED} {
		err := qry.AddSignupAttempt(ctx, AddSignupAttemptParams{
			EventID:     1301,
			UserID:      "s1234567",
			AttemptedAt: int64(100 + i),
			Outcome:     outcome,
			Message:     outcome.String(),
		})
		require.NoError(t, err)
	}

	held, err = qry.HasHeldSignup(ctx, 1301, "s1234567")
	require.NoError(t, err)
	require.True(t, held)
	held, err = qry.HasHeldSignup(ctx, 1301, "someone else")
	require.NoError(t, err)
	require.False(t, held)

	attempts, err := qry.ListSignupAttempts(ctx, "s1234567")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	require.Equal(t, SIGNUP_CAPACITY_EXCEEDED, attempts[0].Outcome)
	require.Equal(t, SIGNUP_SUCCEEDED, attempts[1].Outcome)
	require.Equal(t, "succeeded", attempts[1].Message)
}

func TestMakeTxDiscard(t *testing.T) {
	database, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	ctx := context.Background()

	makeTx := NewMakeTx(database)
	tx, discard, _, err := makeTx(ctx)
	require.NoError(t, err)
	err = tx.AddSignupAttempt(ctx, AddSignupAttemptParams{EventID: 1, UserID: "s1", Outcome: SIGNUP_SUCCEEDED})
	require.NoError(t, err)
	require.NoError(t, discard())

	attempts, err := New(database).ListSignupAttempts(ctx, "s1")
	require.NoError(t, err)
	require.Empty(t, attempts)
}
