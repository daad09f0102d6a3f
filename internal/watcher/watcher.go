package watcher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ncue-api/internal/components/assert"
	"ncue-api/internal/components/chrono"
	"ncue-api/internal/components/telemetry"
	"ncue-api/internal/db"
	"ncue-api/internal/portal"
	"sort"
	"strings"
)

const (
	report_watcher_poll   = "watcher.poll"
	report_watcher_signup = "watcher.signup"
	report_watcher_notify = "watcher.notify"
	report_watcher_db     = "watcher.db"
)

// Portal is the part of portal.Client the watcher uses.
type Portal interface {
	EventsByCategory(ctx context.Context, categories ...portal.Category) (map[portal.Category][]portal.Event, error)
	SignupEvent(ctx context.Context, eventId int, userId string) error
}

type Options struct {
	// UserId is the student signed up to matching events.
	UserId     string
	Categories []portal.Category
	Keywords   []string
	// Similarity is the Jaro-Winkler threshold for keyword matches.
	Similarity float64
	// Notifier is optional.
	Notifier Notifier
}

// Watcher polls the event listings and signs up to matching events as soon
// as they have open seats. Every attempt is recorded so an event that was
// signed up to once is never attempted again.
type Watcher struct {
	portal  Portal
	qry     *db.Queries
	makeTx  db.MakeTx
	matcher Matcher
	opts    Options
	tel     telemetry.API
	time    chrono.API
}

func NewWatcher(p Portal, database *sql.DB, opts Options, tel telemetry.API, time chrono.API) *Watcher {
	assert.NotNil(p)
	assert.NotNil(database)
	assert.NotNil(time)
	assert.NotEmptyStr(opts.UserId)

	if len(opts.Categories) == 0 {
		opts.Categories = []portal.Category{portal.CategoryAll}
	}

	return &Watcher{
		portal:  p,
		qry:     db.New(database),
		makeTx:  db.NewMakeTx(database),
		matcher: NewMatcher(opts.Keywords, opts.Similarity),
		opts:    opts,
		tel:     telemetry.NewScopedAPI("watcher", tel),
		time:    time,
	}
}

// Attempt is the outcome of signing up to a single event during a poll.
type Attempt struct {
	Event   portal.Event
	Keyword string
	Outcome db.SignupOutcome
	Err     error
}

type PollResult struct {
	// Seen is the number of distinct events across all polled listings.
	Seen int
	// New is the number of events never seen by a previous poll.
	New      int
	Attempts []Attempt
}

func outcomeOf(err error) db.SignupOutcome {
	switch {
	case err == nil:
		return db.SIGNUP_SUCCEEDED
	case errors.Is(err, portal.ErrAlreadySignedUp):
		return db.SIGNUP_ALREADY_SIGNED_UP
	case errors.Is(err, portal.ErrCapacityExceeded):
		return db.SIGNUP_CAPACITY_EXCEEDED
	case errors.Is(err, portal.ErrSignupRejected):
		return db.SIGNUP_REJECTED
	}
	return db.SIGNUP_FAILED
}

// hasOpenSeats reports whether signing up to the event could succeed.
func hasOpenSeats(e portal.Event) bool {
	return e.SignupUrl != nil && e.CurrentSignups < e.Capacity
}

// collect merges listings into a list of distinct events ordered by id.
func collect(listings map[portal.Category][]portal.Event) []portal.Event {
	byId := map[int]portal.Event{}
	for _, events := range listings {
		for _, e := range events {
			byId[e.ID] = e
		}
	}
	events := make([]portal.Event, 0, len(byId))
	for _, e := range byId {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].ID < events[j].ID
	})
	return events
}

// Poll runs a single pass: fetch, match, sign up, record and notify. Listings
// that fail to load are skipped as long as at least one category loaded.
func (w *Watcher) Poll(ctx context.Context) (PollResult, error) {
	listings, err := w.portal.EventsByCategory(ctx, w.opts.Categories...)
	if err != nil {
		if len(listings) == 0 {
			w.tel.ReportBroken(report_watcher_poll, err)
			return PollResult{}, err
		}
		w.tel.ReportWarning(report_watcher_poll, err)
	}

	events := collect(listings)
	result := PollResult{Seen: len(events)}
	now := w.time.Now()

	for _, e := range events {
		inserted, err := w.qry.MarkEventSeen(ctx, db.MarkEventSeenParams{
			EventID:   int64(e.ID),
			Name:      e.Name,
			EventDate: e.Date.Unix(),
			FirstSeen: now.Unix(),
		})
		if err != nil {
			w.tel.ReportBroken(report_watcher_db, fmt.Errorf("mark seen: %w", err), e.ID)
			return result, err
		}
		if inserted {
			result.New++
		}

		keyword, ok := w.matcher.Match(e.Name)
		if !ok || !hasOpenSeats(e) {
			continue
		}
		held, err := w.qry.HasHeldSignup(ctx, int64(e.ID), w.opts.UserId)
		if err != nil {
			w.tel.ReportBroken(report_watcher_db, fmt.Errorf("check signup: %w", err), e.ID)
			return result, err
		}
		if held {
			continue
		}

		attempt, err := w.signup(ctx, e, keyword)
		if err != nil {
			return result, err
		}
		result.Attempts = append(result.Attempts, attempt)
	}

	w.tel.ReportCount(report_watcher_poll, int64(len(result.Attempts)))
	return result, nil
}

// signup attempts a single event and records the outcome. Only failures to
// record are returned, signup failures are part of the attempt.
func (w *Watcher) signup(ctx context.Context, e portal.Event, keyword string) (Attempt, error) {
	w.tel.ReportDebug("signing up", e.ID, e.Name, keyword)

	signupErr := w.portal.SignupEvent(ctx, e.ID, w.opts.UserId)
	attempt := Attempt{
		Event:   e,
		Keyword: keyword,
		Outcome: outcomeOf(signupErr),
		Err:     signupErr,
	}
	if attempt.Outcome == db.SIGNUP_FAILED {
		w.tel.ReportWarning(report_watcher_signup, signupErr, e.ID)
	}

	message := ""
	if signupErr != nil {
		message = signupErr.Error()
	}

	tx, discard, commit, err := w.makeTx(ctx)
	if err != nil {
		w.tel.ReportBroken(report_watcher_db, fmt.Errorf("begin tx: %w", err))
		return attempt, err
	}
	defer discard()

	err = tx.AddSignupAttempt(ctx, db.AddSignupAttemptParams{
		EventID:     int64(e.ID),
		UserID:      w.opts.UserId,
		AttemptedAt: w.time.Now().Unix(),
		Outcome:     attempt.Outcome,
		Message:     message,
	})
	if err != nil {
		w.tel.ReportBroken(report_watcher_db, fmt.Errorf("add attempt: %w", err), e.ID)
		return attempt, err
	}
	err = commit()
	if err != nil {
		w.tel.ReportBroken(report_watcher_db, fmt.Errorf("commit: %w", err), e.ID)
		return attempt, err
	}

	if attempt.Outcome == db.SIGNUP_SUCCEEDED {
		w.notify(ctx, e, keyword)
	}
	return attempt, nil
}

func (w *Watcher) notify(ctx context.Context, e portal.Event, keyword string) {
	if w.opts.Notifier == nil {
		return
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Signed %s up to %s.\n\n", w.opts.UserId, e.Name)
	fmt.Fprintf(&body, "Date: %s\n", e.Date.In(w.time.Location()).Format("2006-01-02"))
	fmt.Fprintf(&body, "Seats: %d/%d\n", e.CurrentSignups+1, e.Capacity)
	if keyword != "" {
		fmt.Fprintf(&body, "Matched keyword: %s\n", keyword)
	}
	if e.Href != nil {
		fmt.Fprintf(&body, "Details: %s\n", e.Href.String())
	}

	err := w.opts.Notifier.Notify(ctx, fmt.Sprintf("Signed up: %s", e.Name), body.String())
	if err != nil {
		w.tel.ReportWarning(report_watcher_notify, err, e.ID)
	}
}

// Start polls on the given cron schedule until ctx is done.
func (w *Watcher) Start(ctx context.Context, cron chrono.CronAPI, schedule string) error {
	return cron.Cron(schedule, func() {
		if ctx.Err() != nil {
			return
		}
		result, err := w.Poll(ctx)
		if err != nil {
			return
		}
		w.tel.ReportDebug("poll finished", result.Seen, result.New, len(result.Attempts))
	})
}
