package portal

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

const (
	selector_results    = "#score-table > tbody > tr"
	selector_curriculum = "#curriculum-table > tbody > tr"
	selector_hours      = "ul[data-role=listview] > li > a"
)

// matches headers like 112學年度第1學期
var semesterRegex = regexp.MustCompile(`(\d+)\D+(\d+)`)

// semesterState is carried from a semester header row to the course rows below it.
type semesterState struct {
	seen         bool
	academicYear int
	semester     int
}

func extractResults(doc *goquery.Document) ([]ResultRecord, error) {
	var records []ResultRecord
	var state semesterState
	var err error
	doc.Find(selector_results).EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := rowCells(row)
		r := newRowReader(endpoint_results, i, nil, cells)

		switch cells.Length() {
		case 0:
			return true
		case 1:
			text := r.text(0)
			groups := semesterRegex.FindStringSubmatch(text)
			if len(groups) < 3 {
				r.fail("semester", text, fmt.Errorf("not a semester header"))
				break
			}
			year, yearErr := strconv.Atoi(groups[1])
			semester, semesterErr := strconv.Atoi(groups[2])
			if yearErr != nil || semesterErr != nil {
				r.fail("semester", text, fmt.Errorf("not a semester header"))
				break
			}
			state = semesterState{seen: true, academicYear: year, semester: semester}
		default:
			if !r.require(3) {
				break
			}
			if !state.seen {
				r.fail("semester", "", fmt.Errorf("course row before any semester header"))
				break
			}
			record := ResultRecord{
				CourseName:   r.text(0),
				AcademicYear: state.academicYear,
				Semester:     state.semester,
				Score:        r.integer(1, "score"),
				Credit:       r.integer(2, "credit"),
			}
			if r.err == nil {
				records = append(records, record)
			}
		}

		if r.err != nil {
			err = r.err
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func extractCurriculum(doc *goquery.Document) ([]CourseScheduleEntry, error) {
	var entries []CourseScheduleEntry
	var err error
	doc.Find(selector_curriculum).EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := rowCells(row)
		if cells.Length() == 0 {
			return true
		}

		r := newRowReader(endpoint_curriculum, i, nil, cells)
		if !r.require(4) {
			err = r.err
			return false
		}

		entry := CourseScheduleEntry{
			Name:   r.text(0),
			Place:  r.text(2),
			Credit: r.integer(3, "credit"),
		}
		periodText := r.text(1)
		periods, periodErr := parsePeriods(periodText)
		if periodErr != nil {
			r.fail("periods", periodText, periodErr)
		}
		entry.Periods = periods
		if r.err != nil {
			err = r.err
			return false
		}

		entries = append(entries, entry)
		return true
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func extractApprovedHours(doc *goquery.Document, base *url.URL) ([]ApprovedHoursRecord, error) {
	var records []ApprovedHoursRecord
	var err error
	doc.Find(selector_hours).EachWithBreak(func(i int, anchor *goquery.Selection) bool {
		r := newRowReader(endpoint_hours, i, base, anchor.Children())
		if !r.require(3) {
			err = r.err
			return false
		}

		var record ApprovedHoursRecord
		record.ID, _, record.Href = r.eventLink(anchor, "href")
		record.Name = r.text(0)
		record.Date = r.date(1, "date")
		record.Hours = r.integer(2, "hours")
		if r.err != nil {
			err = r.err
			return false
		}

		records = append(records, record)
		return true
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// fetchAuthenticated fetches a page that requires a logged in session through
// withReauth and runs extract over it.
func fetchAuthenticated[T any](
	ctx context.Context,
	c *Client,
	id, endpoint string,
	extract func(doc *goquery.Document) (T, error),
) (T, error) {
	return withReauth(ctx, c, id, func(ctx context.Context) (T, error) {
		var zero T

		body, err := c.get(ctx, endpoint, nil)
		if err != nil {
			return zero, err
		}
		if err := checkSession(body); err != nil {
			return zero, err
		}
		doc, err := parseDocument(body)
		if err != nil {
			c.tel.ReportBroken(id, fmt.Errorf("parse document: %w", err))
			return zero, err
		}

		result, err := extract(doc)
		if err != nil {
			c.tel.ReportBroken(id, err)
			return zero, err
		}
		return result, nil
	})
}

// Results returns the grades of every course the student has taken, in the
// order the portal lists them.
func (c *Client) Results(ctx context.Context) ([]ResultRecord, error) {
	return fetchAuthenticated(ctx, c, report_client_results, endpoint_results, extractResults)
}

// Curriculum returns the course schedule of the current semester.
func (c *Client) Curriculum(ctx context.Context) ([]CourseScheduleEntry, error) {
	return fetchAuthenticated(ctx, c, report_client_curriculum, endpoint_curriculum, extractCurriculum)
}

func (c *Client) ApprovedHours(ctx context.Context) ([]ApprovedHoursRecord, error) {
	base := c.resolve(endpoint_hours, nil)
	return fetchAuthenticated(ctx, c, report_client_hours, endpoint_hours, func(doc *goquery.Document) ([]ApprovedHoursRecord, error) {
		return extractApprovedHours(doc, base)
	})
}
