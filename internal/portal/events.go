package portal

import (
	"context"
	"errors"
	"fmt"
	"ncue-api/pkg/htmlutil"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Category filters the public event listing.
type Category int

const (
	CategoryAll Category = iota
	CategoryGeneralEducation
	CategorySpiritual
	CategoryLanguage
)

// Categories lists every valid category, CategoryAll first.
var Categories = []Category{
	CategoryAll,
	CategoryGeneralEducation,
	CategorySpiritual,
	CategoryLanguage,
}

func (c Category) selpp() (int, error) {
	switch c {
	case CategoryAll:
		return 0, nil
	case CategoryGeneralEducation:
		return 1, nil
	case CategorySpiritual:
		return 2, nil
	case CategoryLanguage:
		return 4, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidCategory, int(c))
}

func (c Category) String() string {
	switch c {
	case CategoryAll:
		return "all"
	case CategoryGeneralEducation:
		return "general-education"
	case CategorySpiritual:
		return "spiritual"
	case CategoryLanguage:
		return "language"
	}
	return "Category(" + strconv.Itoa(int(c)) + ")"
}

// Label is the name the portal displays for the category.
func (c Category) Label() string {
	switch c {
	case CategoryAll:
		return "全部"
	case CategoryGeneralEducation:
		return "通識"
	case CategorySpiritual:
		return "心靈"
	case CategoryLanguage:
		return "語文"
	}
	return ""
}

// ParseCategory accepts either the english name of a category or the label
// the portal displays for it.
func ParseCategory(name string) (Category, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, c := range Categories {
		if normalized == c.String() || normalized == c.Label() {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, name)
}

const (
	selector_events        = "#signup-table > tbody > tr"
	selector_event_detail  = "#content-table > tbody > tr"
	selector_event_members = "#member-table > tbody > tr"
)

// extractEvents reads the rows of an event listing, base is the url of the
// listing page.
func extractEvents(doc *goquery.Document, base *url.URL) ([]Event, error) {
	var events []Event
	var err error
	doc.Find(selector_events).EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := rowCells(row)
		if cells.Length() == 0 {
			return true
		}

		r := newRowReader(endpoint_events, i, base, cells)
		if !r.require(6) {
			err = r.err
			return false
		}

		var event Event
		event.ID, event.Name, event.Href = r.eventLink(r.cell(0), "name")
		event.Date = r.date(1, "date")
		event.Capacity = r.integer(2, "capacity")
		event.CurrentSignups = r.integer(3, "current")
		event.MemberListUrl = r.optionalLink(r.cell(3), "member_list_url")
		event.Status = r.text(5)
		event.SignupUrl = r.optionalLink(r.cell(5), "signup_url")
		if r.err != nil {
			err = r.err
			return false
		}

		events = append(events, event)
		return true
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// extractEventDetail reads the label/value rows of an event content page by
// their position. base is the url of the content page.
func extractEventDetail(doc *goquery.Document, base *url.URL, id int) (EventDetail, error) {
	rows := doc.Find(selector_event_detail)
	if rows.Length() < 6 {
		return EventDetail{}, &MalformedRowError{
			Page:  endpoint_event,
			Field: "rows",
			Value: strconv.Itoa(rows.Length()),
			Err:   fmt.Errorf("expected at least 6 rows"),
		}
	}
	value := func(i int) *rowReader {
		return newRowReader(endpoint_event, i, base, rows.Eq(i).ChildrenFiltered("td"))
	}

	detail := EventDetail{
		ID:   id,
		Href: base,
	}
	name := value(0)
	detail.Name = name.text(0)
	date := value(1)
	detail.Date = date.date(0, "date")
	detail.Place = value(2).text(0)
	status := value(3)
	detail.Status = status.text(0)
	detail.SignupUrl = status.optionalLink(status.cell(0), "signup_url")
	members := value(4)
	detail.MemberListUrl = members.optionalLink(members.cell(0), "member_list_url")

	for _, r := range []*rowReader{name, date, status, members} {
		if r.err != nil {
			return EventDetail{}, r.err
		}
	}

	fragment, err := rows.Eq(5).ChildrenFiltered("td").Html()
	if err == nil {
		detail.Description, err = htmlutil.StripTags(fragment)
	}
	if err != nil {
		return EventDetail{}, &MalformedRowError{Page: endpoint_event, Row: 5, Field: "description", Err: err}
	}

	return detail, nil
}

func parseGender(text string) (Gender, error) {
	switch strings.TrimSpace(text) {
	case "男", "1":
		return GenderMale, nil
	case "女", "2":
		return GenderFemale, nil
	}
	return 0, fmt.Errorf("unknown gender")
}

func extractMembers(doc *goquery.Document) ([]Member, error) {
	var members []Member
	var err error
	doc.Find(selector_event_members).EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := rowCells(row)
		if cells.Length() == 0 {
			return true
		}

		r := newRowReader(endpoint_members, i, nil, cells)
		if !r.require(4) {
			err = r.err
			return false
		}

		member := Member{
			Name:        r.text(0),
			Affiliation: r.text(2),
			Title:       r.text(3),
		}
		genderText := r.text(1)
		gender, genderErr := parseGender(genderText)
		if genderErr != nil {
			r.fail("gender", genderText, genderErr)
		}
		member.Gender = gender
		if r.err != nil {
			err = r.err
			return false
		}

		members = append(members, member)
		return true
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Events fetches the public event listing of a category, it does not need a
// logged in session.
func (c *Client) Events(ctx context.Context, category Category) ([]Event, error) {
	selpp, err := category.selpp()
	if err != nil {
		return nil, err
	}

	query := url.Values{"selpp": {strconv.Itoa(selpp)}}
	body, err := c.get(ctx, endpoint_events, query)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		c.tel.ReportBroken(report_client_events, fmt.Errorf("parse document: %w", err), category.String())
		return nil, err
	}

	events, err := extractEvents(doc, c.resolve(endpoint_events, query))
	if err != nil {
		c.tel.ReportBroken(report_client_events, err, category.String())
		return nil, err
	}
	c.tel.ReportCount(report_client_events, int64(len(events)))
	return events, nil
}

// EventsByCategory fetches the listings of several categories concurrently,
// every category is attempted even if some of them fail.
func (c *Client) EventsByCategory(ctx context.Context, categories ...Category) (map[Category][]Event, error) {
	for _, category := range categories {
		if _, err := category.selpp(); err != nil {
			return nil, err
		}
	}

	result := make(map[Category][]Event, len(categories))
	var errs []error
	var mutex sync.Mutex
	wg := sync.WaitGroup{}
	for _, category := range categories {
		category := category
		wg.Add(1)
		go func() {
			defer wg.Done()

			events, err := c.Events(ctx, category)

			mutex.Lock()
			defer mutex.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", category, err))
				return
			}
			result[category] = events
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}
	return result, nil
}

// Event fetches the content page of an event, it does not need a logged in session.
func (c *Client) Event(ctx context.Context, eventId int) (EventDetail, error) {
	query := url.Values{"crs_seq": {strconv.Itoa(eventId)}}
	body, err := c.get(ctx, endpoint_event, query)
	if err != nil {
		return EventDetail{}, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		c.tel.ReportBroken(report_client_event, fmt.Errorf("parse document: %w", err), eventId)
		return EventDetail{}, err
	}

	detail, err := extractEventDetail(doc, c.resolve(endpoint_event, query), eventId)
	if err != nil {
		c.tel.ReportBroken(report_client_event, err, eventId)
		return EventDetail{}, err
	}
	return detail, nil
}

// EventMembers fetches the signup roster of an event, it does not need a
// logged in session.
func (c *Client) EventMembers(ctx context.Context, eventId int) ([]Member, error) {
	query := url.Values{"crs_seq": {strconv.Itoa(eventId)}}
	body, err := c.get(ctx, endpoint_members, query)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		c.tel.ReportBroken(report_client_members, fmt.Errorf("parse document: %w", err), eventId)
		return nil, err
	}

	members, err := extractMembers(doc)
	if err != nil {
		c.tel.ReportBroken(report_client_members, err, eventId)
		return nil, err
	}
	return members, nil
}
