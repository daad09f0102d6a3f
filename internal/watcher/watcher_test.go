package watcher

import (
	"context"
	"errors"
	"ncue-api/internal/components/chrono"
	"ncue-api/internal/components/telemetry"
	"ncue-api/internal/db"
	"ncue-api/internal/portal"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubPortal struct {
	mutex    sync.Mutex
	listings map[portal.Category][]portal.Event
	listErr  error
	results  map[int]error
	calls    []int
}

func (p *stubPortal) EventsByCategory(ctx context.Context, categories ...portal.Category) (map[portal.Category][]portal.Event, error) {
	result := map[portal.Category][]portal.Event{}
	for _, c := range categories {
		if events, ok := p.listings[c]; ok {
			result[c] = events
		}
	}
	return result, p.listErr
}

func (p *stubPortal) SignupEvent(ctx context.Context, eventId int, userId string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.calls = append(p.calls, eventId)
	return p.results[eventId]
}

type recordingNotifier struct {
	subjects []string
}

func (n *recordingNotifier) Notify(ctx context.Context, subject, body string) error {
	n.subjects = append(n.subjects, subject)
	return nil
}

func event(id int, name string, capacity, current int, open bool) portal.Event {
	e := portal.Event{
		ID:             id,
		Name:           name,
		Date:           chrono.FromROC(112, time.November, 2),
		Capacity:       capacity,
		CurrentSignups: current,
	}
	if open {
		e.SignupUrl = &url.URL{Scheme: "http", Host: "aps.ncue.edu.tw", Path: "/app/signup_form.php"}
	}
	return e
}

func setup(t testing.TB, p Portal, notifier Notifier) (*Watcher, *db.Queries) {
	database, err := db.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		database.Close()
	})

	w := NewWatcher(p, database, Options{
		UserId:     "S1234567",
		Categories: []portal.Category{portal.CategoryGeneralEducation, portal.CategorySpiritual},
		Keywords:   []string{"資訊安全", "正念"},
		Notifier:   notifier,
	}, telemetry.NewTestAPI(t), chrono.FixedImpl{At: time.Date(2023, 10, 1, 8, 0, 0, 0, chrono.Taipei())})
	return w, db.New(database)
}

func TestPoll(t *testing.T) {
	p := &stubPortal{
		listings: map[portal.Category][]portal.Event{
			portal.CategoryGeneralEducation: {
				event(1301, "通識講座：資訊安全入門", 100, 10, true),
				event(1302, "通識講座：資訊安全進階", 50, 50, false),
				event(1303, "通識講座：氣候變遷", 50, 3, true),
			},
			portal.CategorySpiritual: {
				event(1288, "心靈講座：正念與生活", 80, 20, true),
				event(1301, "通識講座：資訊安全入門", 100, 10, true),
			},
		},
		results: map[int]error{
			1288: portal.ErrAlreadySignedUp,
		},
	}
	notifier := &recordingNotifier{}
	w, qry := setup(t, p, notifier)
	ctx := context.Background()

	result, err := w.Poll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 4, result.Seen)
	require.Equal(t, 4, result.New)
	require.Equal(t, []int{1288, 1301}, p.calls)
	require.Len(t, result.Attempts, 2)
	require.Equal(t, db.SIGNUP_ALREADY_SIGNED_UP, result.Attempts[0].Outcome)
	require.Equal(t, "正念", result.Attempts[0].Keyword)
	require.Equal(t, db.SIGNUP_SUCCEEDED, result.Attempts[1].Outcome)
	require.Equal(t, []string{"Signed up: 通識講座：資訊安全入門"}, notifier.subjects)

	attempts, err := qry.ListSignupAttempts(ctx, "S1234567")
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	// signups that are held are never attempted again
	result, err = w.Poll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 0, result.New)
	require.Empty(t, result.Attempts)
	require.Len(t, p.calls, 2)
}

func TestPollRetriesFullEvents(t *testing.T) {
	p := &stubPortal{
		listings: map[portal.Category][]portal.Event{
			portal.CategoryGeneralEducation: {
				event(1301, "通識講座：資訊安全入門", 100, 99, true),
			},
		},
		results: map[int]error{
			1301: portal.ErrCapacityExceeded,
		},
	}
	w, _ := setup(t, p, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := w.Poll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, result.Attempts, 1)
		require.Equal(t, db.SIGNUP_CAPACITY_EXCEEDED, result.Attempts[0].Outcome)
	}
	require.Equal(t, []int{1301, 1301}, p.calls)
}

func TestPollListingErrors(t *testing.T) {
	listErr := errors.New("spiritual: portal: transport error")

	p := &stubPortal{listErr: listErr}
	w, _ := setup(t, p, nil)
	_, err := w.Poll(context.Background())
	require.ErrorIs(t, err, listErr)

	// a partial listing is still polled
	p = &stubPortal{
		listErr: listErr,
		listings: map[portal.Category][]portal.Event{
			portal.CategoryGeneralEducation: {
				event(1301, "通識講座：資訊安全入門", 100, 10, true),
			},
		},
	}
	w, _ = setup(t, p, nil)
	result, err := w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Attempts, 1)
}

func TestOutcomeOf(t *testing.T) {
	require.Equal(t, db.SIGNUP_SUCCEEDED, outcomeOf(nil))
	require.Equal(t, db.SIGNUP_REJECTED, outcomeOf(portal.ErrSignupRejected))
	require.Equal(t, db.SIGNUP_FAILED, outcomeOf(portal.ErrReauthFailed))
}
