package portal

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const selector_signed_up = "#signup-table > tbody > tr:not(:last-child)"

var signSeqRegex = regexp.MustCompile(`Del_check\('(\d+)'\)`)

// signupForm is the form the portal's signup page submits, only the event,
// the applicant and the contact email change between signups.
func (c *Client) signupForm(eventId int, userId string) map[string]string {
	return map[string]string{
		"stud_id":   "",
		"role":      "2",
		"crs_seq":   strconv.Itoa(eventId),
		"person":    "80",
		"backpsn":   "0",
		"chkmeal":   "0",
		"proof_flg": "0",
		"grp_cnt":   "0",
		"upload":    "0",
		"stud_name": c.displayName,
		"sex":       "1",
		"tel":       "",
		"email":     fmt.Sprintf("%s@%s", strings.ToLower(userId), institutional_domain),
		"addr":      "",
		"serv":      c.displayName,
		"title":     c.displayName,
	}
}

// SignupEvent signs userId up to an event. Rejections are returned as
// ErrCapacityExceeded, ErrSignupRejected or ErrAlreadySignedUp, an empty
// userId as ErrCredentialsMissing.
func (c *Client) SignupEvent(ctx context.Context, eventId int, userId string) error {
	if userId == "" {
		return fmt.Errorf("%w: signup needs a user id", ErrCredentialsMissing)
	}

	_, err := withReauth(ctx, c, report_client_signup, func(ctx context.Context) (struct{}, error) {
		body, err := c.postMultipart(ctx, endpoint_signup, c.signupForm(eventId, userId))
		if err != nil {
			return struct{}{}, err
		}
		m, ok := signupMarkers.classify(body)
		if ok {
			return struct{}{}, m.err
		}
		return struct{}{}, nil
	})
	if err != nil {
		c.tel.ReportDebug("signup failed", eventId, err)
		return err
	}
	c.tel.ReportDebug("signed up", eventId)
	return nil
}

func extractSignedUpEvents(doc *goquery.Document, base *url.URL) ([]SignupRecord, error) {
	var records []SignupRecord
	var err error
	doc.Find(selector_signed_up).EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := rowCells(row)
		if cells.Length() == 0 {
			return true
		}

		r := newRowReader(endpoint_signed_up, i, base, cells)
		if !r.require(4) {
			err = r.err
			return false
		}

		var record SignupRecord
		record.ID, record.Name, record.Href = r.eventLink(r.cell(0), "name")
		record.Date = r.date(1, "date")
		record.Capacity = r.integer(2, "capacity")
		record.CurrentSignups = r.integer(3, "current")
		record.MemberListUrl = r.optionalLink(r.cell(3), "member_list_url")
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

// SignedUpEvents lists the events the logged in student signed up to.
func (c *Client) SignedUpEvents(ctx context.Context) ([]SignupRecord, error) {
	base := c.resolve(endpoint_signed_up, nil)
	return fetchAuthenticated(ctx, c, report_client_signed_up, endpoint_signed_up, func(doc *goquery.Document) ([]SignupRecord, error) {
		return extractSignedUpEvents(doc, base)
	})
}

func extractSignSeq(body string) (int, error) {
	groups := signSeqRegex.FindStringSubmatch(body)
	if len(groups) < 2 {
		return 0, ErrSignupNotFound
	}
	return strconv.Atoi(groups[1])
}

// SignSeq looks up the sign sequence of the logged in student's signup to an
// event, it fails with ErrSignupNotFound when there is no such signup.
func (c *Client) SignSeq(ctx context.Context, eventId int) (int, error) {
	return withReauth(ctx, c, report_client_sign_seq, func(ctx context.Context) (int, error) {
		body, err := c.get(ctx, endpoint_members, url.Values{"crs_seq": {strconv.Itoa(eventId)}})
		if err != nil {
			return 0, err
		}
		if err := checkSession(body); err != nil {
			return 0, err
		}
		return extractSignSeq(body)
	})
}

// CancelSignupEvent cancels a signup by its sign sequence. It returns false
// when the portal did not confirm the cancellation, for example because the
// signup does not exist or was already cancelled.
func (c *Client) CancelSignupEvent(ctx context.Context, signSeq int) (bool, error) {
	return withReauth(ctx, c, report_client_cancel, func(ctx context.Context) (bool, error) {
		body, err := c.get(ctx, endpoint_cancel, url.Values{"sign_seq": {strconv.Itoa(signSeq)}})
		if err != nil {
			return false, err
		}
		m, ok := cancelMarkers.classify(body)
		if !ok {
			c.tel.ReportDebug("cancellation not confirmed", signSeq)
			return false, nil
		}
		if m.err != nil {
			return false, m.err
		}
		return true, nil
	})
}

// CancelSignupByEvent looks up the sign sequence of an event and cancels it.
func (c *Client) CancelSignupByEvent(ctx context.Context, eventId int) (bool, error) {
	signSeq, err := c.SignSeq(ctx, eventId)
	if err != nil {
		return false, err
	}
	return c.CancelSignupEvent(ctx, signSeq)
}
