package portal

import (
	"fmt"
	"ncue-api/internal/components/chrono"
	"ncue-api/pkg/htmlutil"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// max_period is the last class period of a day, later periods are malformed.
const max_period = 20

var (
	crsSeqRegex  = regexp.MustCompile(`crs_seq=(\d+)`)
	rocDateRegex = regexp.MustCompile(`(\d+)\s*[/.-]\s*(\d+)\s*[/.-]\s*(\d+)`)
	periodRegex  = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
)

// parseInt parses trimmed base-10 text, anything else is an error.
func parseInt(text string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(text))
}

// parseCrsSeq extracts the event id from a link of the form `...crs_seq=<digits>`.
func parseCrsSeq(href string) (int, error) {
	groups := crsSeqRegex.FindStringSubmatch(href)
	if len(groups) < 2 {
		return 0, fmt.Errorf("no crs_seq in link")
	}
	return strconv.Atoi(groups[1])
}

// parseROCDate finds the first `yyy/mm/dd` group in text, where yyy is a ROC
// calendar year, and returns the date in the gregorian calendar.
func parseROCDate(text string) (time.Time, error) {
	groups := rocDateRegex.FindStringSubmatch(text)
	if len(groups) < 4 {
		return time.Time{}, fmt.Errorf("no date in text")
	}
	year, err := strconv.Atoi(groups[1])
	if err != nil {
		return time.Time{}, err
	}
	month, err := strconv.Atoi(groups[2])
	if err != nil {
		return time.Time{}, err
	}
	day, err := strconv.Atoi(groups[3])
	if err != nil {
		return time.Time{}, err
	}

	date := chrono.FromROC(year, time.Month(month), day)
	// time.Date normalizes out of range values, a date that moved is invalid
	if date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date %d/%d/%d", year, month, day)
	}
	return date, nil
}

// parsePeriods expands the first `NN-MM` range in text into every period from
// NN to MM. Text without a range has no periods.
func parsePeriods(text string) ([]int, error) {
	groups := periodRegex.FindStringSubmatch(text)
	if len(groups) < 3 {
		return []int{}, nil
	}
	start, err := strconv.Atoi(groups[1])
	if err != nil {
		return nil, err
	}
	end, err := strconv.Atoi(groups[2])
	if err != nil {
		return nil, err
	}
	if start > end {
		return nil, fmt.Errorf("period range %d-%d is reversed", start, end)
	}
	if end > max_period {
		return nil, fmt.Errorf("period range %d-%d ends after period %d", start, end, max_period)
	}

	periods := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		periods = append(periods, p)
	}
	return periods, nil
}

// rowReader projects the cells of a single table row or list item into fields.
// The first failure is kept and every later read is a no-op, check err once
// after reading all the fields.
type rowReader struct {
	page  string
	row   int
	base  *url.URL
	cells *goquery.Selection
	err   error
}

func newRowReader(page string, row int, base *url.URL, cells *goquery.Selection) *rowReader {
	return &rowReader{page: page, row: row, base: base, cells: cells}
}

func (r *rowReader) fail(field, value string, err error) {
	if r.err != nil {
		return
	}
	r.err = &MalformedRowError{
		Page:  r.page,
		Row:   r.row,
		Field: field,
		Value: value,
		Err:   err,
	}
}

// require fails unless the row has at least n cells.
func (r *rowReader) require(n int) bool {
	if r.cells.Length() < n {
		r.fail("cells", strconv.Itoa(r.cells.Length()), fmt.Errorf("expected at least %d cells", n))
		return false
	}
	return true
}

func (r *rowReader) cell(col int) *goquery.Selection {
	return r.cells.Eq(col)
}

func (r *rowReader) text(col int) string {
	if r.err != nil {
		return ""
	}
	return htmlutil.CleanText(r.cell(col))
}

func (r *rowReader) integer(col int, field string) int {
	if r.err != nil {
		return 0
	}
	text := r.text(col)
	n, err := parseInt(text)
	if err != nil {
		r.fail(field, text, err)
		return 0
	}
	return n
}

func (r *rowReader) date(col int, field string) time.Time {
	if r.err != nil {
		return time.Time{}
	}
	text := r.text(col)
	date, err := parseROCDate(text)
	if err != nil {
		r.fail(field, text, err)
		return time.Time{}
	}
	return date
}

// optionalLink resolves the href of the first anchor in sel, a missing anchor is nil.
func (r *rowReader) optionalLink(sel *goquery.Selection, field string) *url.URL {
	if r.err != nil {
		return nil
	}
	anchor := firstAnchor(sel)
	if anchor.Length() == 0 {
		return nil
	}
	href := anchor.AttrOr("href", "")
	link, err := htmlutil.ResolveHref(r.base, href)
	if err != nil {
		r.fail(field, href, err)
		return nil
	}
	return link
}

// eventLink reads the id, name and link of the event anchor in sel, the anchor
// must exist and point to a crs_seq.
func (r *rowReader) eventLink(sel *goquery.Selection, field string) (id int, name string, link *url.URL) {
	if r.err != nil {
		return 0, "", nil
	}
	anchor := firstAnchor(sel)
	if anchor.Length() == 0 {
		r.fail(field, "", fmt.Errorf("missing link"))
		return 0, "", nil
	}
	href := anchor.AttrOr("href", "")
	id, err := parseCrsSeq(href)
	if err != nil {
		r.fail(field, href, err)
		return 0, "", nil
	}
	link, err = htmlutil.ResolveHref(r.base, href)
	if err != nil {
		r.fail(field, href, err)
		return 0, "", nil
	}
	return id, htmlutil.CleanText(anchor), link
}

// firstAnchor returns the first anchor with an href inside sel, or sel itself
// when it is one.
func firstAnchor(sel *goquery.Selection) *goquery.Selection {
	anchor := sel.Find("a[href]").First()
	if anchor.Length() == 0 {
		anchor = sel.Filter("a[href]").First()
	}
	return anchor
}

// rowCells returns the data cells of a table row, rows without any <td> such
// as header rows yield an empty selection.
func rowCells(row *goquery.Selection) *goquery.Selection {
	return row.ChildrenFiltered("td")
}
