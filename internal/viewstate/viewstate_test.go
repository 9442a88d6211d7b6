package viewstate

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, time.June, 18, 15, 4, 5, 0, time.UTC) // a Wednesday

func TestResolveDefaults(t *testing.T) {
	st := Resolve("", "", "", "", "", testNow)

	if st.Tab != "assigned" {
		t.Errorf("tab = %q, want assigned", st.Tab)
	}
	if st.View != ViewWeek {
		t.Errorf("view = %q, want week", st.View)
	}
	if got := st.WeekStart.Format(DateLayout); got != "2025-06-16" {
		t.Errorf("week start = %s, want 2025-06-16", got)
	}
	if st.Page != 1 {
		t.Errorf("page = %d, want 1", st.Page)
	}
}

func TestResolveTab(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"assigned", "assigned"},
		{"in_progress", "in_progress"},
		{"pending", "pending"},
		{"approved", "approved"},
		{"deleted", "assigned"},
		{"'; DROP TABLE tasks;--", "assigned"},
	}
	for _, c := range cases {
		st := Resolve(c.in, "", "", "", "", testNow)
		if st.Tab != c.want {
			t.Errorf("Resolve(tab=%q).Tab = %q, want %q", c.in, st.Tab, c.want)
		}
	}
}

func TestResolveViewMode(t *testing.T) {
	cases := []struct {
		view, wf, want string
	}{
		{"", "", ViewWeek},
		{"all", "", ViewAll},
		{"week", "", ViewWeek},
		{"everything", "", ViewWeek},
		// deprecated wf only applies when view is absent
		{"", "0", ViewAll},
		{"", "1", ViewWeek},
		{"week", "0", ViewWeek},
	}
	for _, c := range cases {
		st := Resolve("", c.view, c.wf, "", "", testNow)
		if st.View != c.want {
			t.Errorf("Resolve(view=%q, wf=%q).View = %q, want %q", c.view, c.wf, st.View, c.want)
		}
	}
}

func TestResolveWeekStartSnapsToMonday(t *testing.T) {
	// 2025-06-12 is a Thursday; the window must align to its Monday.
	st := Resolve("", "", "", "2025-06-12", "", testNow)

	from, to := st.Window()
	if got := from.Format(DateLayout); got != "2025-06-09" {
		t.Errorf("window from = %s, want 2025-06-09", got)
	}
	if got := to.Format(DateLayout); got != "2025-06-15" {
		t.Errorf("window to = %s, want 2025-06-15", got)
	}
}

func TestResolveWeekStartRejectsMalformed(t *testing.T) {
	wantDefault := "2025-06-16" // Monday of testNow's week
	for _, in := range []string{"2025-6-12", "12-06-2025", "2025-06-32", "garbage", "2025-06-12T00:00:00"} {
		st := Resolve("", "", "", in, "", testNow)
		if got := st.WeekStart.Format(DateLayout); got != wantDefault {
			t.Errorf("Resolve(ws=%q).WeekStart = %s, want %s", in, got, wantDefault)
		}
	}
}

func TestResolvePage(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 1},
		{"0", 1},
		{"-3", 1},
		{"2", 2},
		{"999", 999},
		{"two", 1},
	}
	for _, c := range cases {
		st := Resolve("", "", "", "", c.in, testNow)
		if st.Page != c.want {
			t.Errorf("Resolve(page=%q).Page = %d, want %d", c.in, st.Page, c.want)
		}
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct {
		rows, page, wantPage, wantTotal int
	}{
		{0, 1, 1, 1},
		{0, 50, 1, 1},
		{12, 1, 1, 1},
		{13, 2, 2, 2},
		{25, 999, 3, 3},
		{25, 2, 2, 3},
	}
	for _, c := range cases {
		st := State{Page: c.page}
		total := st.ClampPage(c.rows)
		if total != c.wantTotal {
			t.Errorf("ClampPage(%d rows) total = %d, want %d", c.rows, total, c.wantTotal)
		}
		if st.Page != c.wantPage {
			t.Errorf("ClampPage(%d rows, page %d) page = %d, want %d", c.rows, c.page, st.Page, c.wantPage)
		}
	}
}

func TestOffset(t *testing.T) {
	st := State{Page: 3}
	if st.Offset() != 24 {
		t.Errorf("offset = %d, want 24", st.Offset())
	}
}

func TestEncode(t *testing.T) {
	st := Resolve("pending", "all", "", "2025-06-12", "3", testNow)
	got := st.Encode()
	want := "page=3&tab=pending&view=all&ws=2025-06-09"
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}

	st.Page = 1
	got = st.Encode()
	want = "tab=pending&view=all&ws=2025-06-09"
	if got != want {
		t.Errorf("Encode() without page = %q, want %q", got, want)
	}
}

func TestMondayOf(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2025-06-09", "2025-06-09"}, // Monday maps to itself
		{"2025-06-12", "2025-06-09"}, // Thursday
		{"2025-06-15", "2025-06-09"}, // Sunday belongs to the preceding Monday
		{"2025-01-01", "2024-12-30"}, // week spanning a year boundary
	}
	for _, c := range cases {
		in, ok := ParseDate(c.in)
		if !ok {
			t.Fatalf("ParseDate(%q) failed", c.in)
		}
		if got := MondayOf(in).Format(DateLayout); got != c.want {
			t.Errorf("MondayOf(%s) = %s, want %s", c.in, got, c.want)
		}
	}
}
