// Package viewstate normalizes the caller-controlled listing
// parameters (status tab, week/all view mode, week start date and page
// number) and encodes them back into query strings so mutating actions
// can land the caller on the exact slice they were looking at.
package viewstate

import (
	"net/url"
	"strconv"
	"time"

	"worksite/internal/models"
)

const (
	ViewWeek = "week"
	ViewAll  = "all"

	// PerPage is the fixed listing page size.
	PerPage = 12

	// DateLayout is the wire format for all calendar dates.
	DateLayout = "2006-01-02"
)

// State is the normalized listing view, derived per request and never
// persisted.
type State struct {
	Tab       string
	View      string
	WeekStart time.Time
	Page      int
}

// Resolve builds a State from raw request parameters. Unknown tabs
// reset to "assigned", malformed week starts to the Monday of the
// current week, and any valid week start is snapped back to its Monday.
// The deprecated wf parameter (wf=0 meaning "all") is honored only when
// view is absent.
func Resolve(tab, view, wf, weekStart, page string, now time.Time) State {
	st := State{
		Tab:  models.StatusAssigned,
		View: ViewWeek,
		Page: 1,
	}

	if models.IsValidStatus(tab) {
		st.Tab = tab
	}

	switch {
	case view != "":
		if view == ViewAll {
			st.View = ViewAll
		}
	case wf == "0":
		st.View = ViewAll
	}

	ws, ok := ParseDate(weekStart)
	if !ok {
		ws = now
	}
	st.WeekStart = MondayOf(ws)

	if p, err := strconv.Atoi(page); err == nil && p > 1 {
		st.Page = p
	}

	return st
}

// Window returns the inclusive 7-day range [WeekStart, WeekStart+6].
func (s State) Window() (from, to time.Time) {
	return s.WeekStart, s.WeekStart.AddDate(0, 0, 6)
}

// Windowed reports whether the date window applies to queries.
func (s State) Windowed() bool {
	return s.View == ViewWeek
}

// ClampPage fits the page into [1, totalPages] for the given row count
// and returns totalPages. An empty result still counts as one page.
func (s *State) ClampPage(totalRows int) (totalPages int) {
	totalPages = (totalRows + PerPage - 1) / PerPage
	if totalPages < 1 {
		totalPages = 1
	}
	if s.Page > totalPages {
		s.Page = totalPages
	}
	if s.Page < 1 {
		s.Page = 1
	}
	return totalPages
}

// Offset is the row offset of the current page. ClampPage must have
// run first.
func (s State) Offset() int {
	return (s.Page - 1) * PerPage
}

// Encode renders the state as a listing query string. The default page
// is omitted, the deprecated wf parameter is never emitted.
func (s State) Encode() string {
	q := url.Values{}
	q.Set("tab", s.Tab)
	q.Set("view", s.View)
	q.Set("ws", s.WeekStart.Format(DateLayout))
	if s.Page > 1 {
		q.Set("page", strconv.Itoa(s.Page))
	}
	return q.Encode()
}

// ParseDate parses a strict YYYY-MM-DD date string. The parsed value
// must round-trip back to the input exactly.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, s)
	if err != nil || t.Format(DateLayout) != s {
		return time.Time{}, false
	}
	return t, true
}

// MondayOf returns the Monday of the ISO week containing t, at
// midnight in t's location.
func MondayOf(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	dow := int(d.Weekday())
	if dow == 0 {
		dow = 7
	}
	return d.AddDate(0, 0, -(dow - 1))
}
