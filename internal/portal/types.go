package portal

import (
	"net/url"
	"time"
)

// Event is a row of the public event listing.
type Event struct {
	ID             int
	Name           string
	Href           *url.URL
	Date           time.Time
	Capacity       int
	CurrentSignups int
	Status         string
	// SignupUrl is nil once signup has closed.
	SignupUrl     *url.URL
	MemberListUrl *url.URL
}

// EventDetail is the content page of a single event.
type EventDetail struct {
	ID            int
	Name          string
	Href          *url.URL
	Date          time.Time
	Status        string
	SignupUrl     *url.URL
	MemberListUrl *url.URL
	Place         string
	// Description is plain text, one line per block of the page markup.
	Description string
}

type Gender int

const (
	GenderMale Gender = iota + 1
	GenderFemale
)

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	}
	return "unknown"
}

// Member is a person on the signup roster of an event.
type Member struct {
	Name        string
	Gender      Gender
	Affiliation string
	Title       string
}

// ResultRecord is the grade of a single course. AcademicYear is the ROC
// academic year label as printed, it is not converted like dates are.
type ResultRecord struct {
	CourseName   string
	AcademicYear int
	Semester     int
	Score        int
	Credit       int
}

type CourseScheduleEntry struct {
	Name string
	// Periods is the inclusive range of class periods in ascending order,
	// empty for courses without a fixed time.
	Periods []int
	Place   string
	Credit  int
}

// ApprovedHoursRecord is an event whose attendance has been certified.
type ApprovedHoursRecord struct {
	ID    int
	Name  string
	Href  *url.URL
	Date  time.Time
	Hours int
}

// SignupRecord is an event the logged in student signed up to. The sign
// sequence needed to cancel it is looked up with Client.SignSeq.
type SignupRecord struct {
	ID             int
	Name           string
	Href           *url.URL
	Date           time.Time
	Capacity       int
	CurrentSignups int
	MemberListUrl  *url.URL
}
