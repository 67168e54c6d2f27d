package rotation

import (
	"slices"
	"testing"
	"time"

	"github.com/shineum/civicmail/internal/account"
)

func accounts(names ...string) []account.Account {
	out := make([]account.Account, len(names))
	for i, n := range names {
		out[i] = account.Account{Name: n}
	}
	return out
}

func TestSelectAccount_Cyclic(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 3; n++ {
		accts := accounts("gmail", "outlook", "yahoo")[:n]
		for d := -20; d < 400; d++ {
			got := SelectAccount(accts, d)
			if !slices.ContainsFunc(accts, func(a account.Account) bool { return a.Name == got.Name }) {
				t.Fatalf("n=%d d=%d: %q not in active list", n, d, got.Name)
			}
			if next := SelectAccount(accts, d+n); next.Name != got.Name {
				t.Fatalf("n=%d d=%d: SelectAccount(d+n)=%q, want %q", n, d, next.Name, got.Name)
			}
		}
	}
}

func TestSelectAccount_SingleAccount(t *testing.T) {
	t.Parallel()

	accts := accounts("only")
	for _, d := range []int{-1, 0, 1, 7, 19723} {
		if got := SelectAccount(accts, d); got.Name != "only" {
			t.Errorf("d=%d: got %q", d, got.Name)
		}
	}
}

func TestSelectAccount_Modulo(t *testing.T) {
	t.Parallel()

	accts := accounts("a", "b", "c")
	tests := []struct {
		day  int
		want string
	}{
		{0, "a"}, {1, "b"}, {2, "c"}, {3, "a"}, {-1, "c"}, {-3, "a"},
	}
	for _, tt := range tests {
		if got := SelectAccount(accts, tt.day); got.Name != tt.want {
			t.Errorf("SelectAccount(%d): got %q, want %q", tt.day, got.Name, tt.want)
		}
	}
}

func TestDayOrdinal(t *testing.T) {
	t.Parallel()

	if got := DayOrdinal(time.Date(1970, 1, 1, 23, 0, 0, 0, time.UTC)); got != 0 {
		t.Errorf("epoch: got %d, want 0", got)
	}

	karachi := time.FixedZone("PKT", 5*60*60)
	dec31 := time.Date(2024, 12, 31, 9, 0, 0, 0, karachi)
	jan1 := time.Date(2025, 1, 1, 9, 0, 0, 0, karachi)
	if DayOrdinal(jan1)-DayOrdinal(dec31) != 1 {
		t.Errorf("year boundary: got %d and %d", DayOrdinal(dec31), DayOrdinal(jan1))
	}

	// Local calendar date wins over the UTC date.
	lateUTC := time.Date(2024, 6, 1, 21, 0, 0, 0, time.UTC)
	if DayOrdinal(lateUTC.In(karachi)) != DayOrdinal(lateUTC)+1 {
		t.Error("ordinal should follow the local date")
	}
}

func TestISOWeekday(t *testing.T) {
	t.Parallel()

	// 2024-01-15 is a Monday.
	monday := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	for i := range 7 {
		if got := ISOWeekday(monday.AddDate(0, 0, i)); got != i+1 {
			t.Errorf("day %d: got %d, want %d", i, got, i+1)
		}
	}
}

// mondayFriday sends on Monday (alternating templates 1 and 3) and Friday
// (template 2), the same rotation the built-in configuration ships.
func mondayFriday(t *testing.T) Schedule {
	t.Helper()
	s, err := NewSchedule(1, map[int][]int{1: {1, 3}, 5: {2}})
	if err != nil {
		t.Fatalf("NewSchedule(): %v", err)
	}
	return s
}

func TestSelectTemplate_MondayFriday(t *testing.T) {
	t.Parallel()

	s := mondayFriday(t)

	tests := []struct {
		name    string
		weekday int
		week    int
		want    Decision
	}{
		{"monday even week", 1, 2, Decision{TemplateID: 1, SendDay: true}},
		{"monday odd week", 1, 3, Decision{TemplateID: 3, SendDay: true}},
		{"friday", 5, 3, Decision{TemplateID: 2, SendDay: true}},
		{"tuesday", 2, 3, Decision{TemplateID: 1, SendDay: false}},
		{"wednesday", 3, 3, Decision{TemplateID: 1, SendDay: false}},
		{"thursday", 4, 3, Decision{TemplateID: 1, SendDay: false}},
		{"saturday", 6, 3, Decision{TemplateID: 1, SendDay: false}},
		{"sunday", 7, 3, Decision{TemplateID: 1, SendDay: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// Repeated calls must agree.
			for range 10 {
				if got := s.SelectTemplate(tt.weekday, tt.week); got != tt.want {
					t.Fatalf("SelectTemplate(%d, %d): got %+v, want %+v", tt.weekday, tt.week, got, tt.want)
				}
			}
		})
	}
}

func TestDecide_MondayAlternatesWeekly(t *testing.T) {
	t.Parallel()

	s := mondayFriday(t)
	monday := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	first := s.Decide(monday)
	second := s.Decide(monday.AddDate(0, 0, 7))
	if !first.SendDay || !second.SendDay {
		t.Fatal("mondays should be send days")
	}
	if first.TemplateID == second.TemplateID {
		t.Errorf("consecutive mondays both chose template %d", first.TemplateID)
	}
}

func TestNewSchedule_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  int
		days map[int][]int
	}{
		{"zero default", 0, map[int][]int{1: {1}}},
		{"weekday zero", 1, map[int][]int{0: {1}}},
		{"weekday eight", 1, map[int][]int{8: {1}}},
		{"empty candidates", 1, map[int][]int{1: {}}},
		{"negative id", 1, map[int][]int{1: {-2}}},
		{"no days", 1, map[int][]int{}},
	}
	for _, tt := range tests {
		if _, err := NewSchedule(tt.def, tt.days); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestSchedule_TemplateIDs(t *testing.T) {
	t.Parallel()

	if got := mondayFriday(t).TemplateIDs(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("TemplateIDs(): got %v, want [1 2 3]", got)
	}
}

func TestParseWeekday(t *testing.T) {
	t.Parallel()

	tests := map[string]int{"Monday": 1, "fri": 5, " SUNDAY ": 7, "thu": 4}
	for in, want := range tests {
		got, err := ParseWeekday(in)
		if err != nil || got != want {
			t.Errorf("ParseWeekday(%q): got %d, %v; want %d", in, got, err, want)
		}
	}
	if _, err := ParseWeekday("someday"); err == nil {
		t.Error("expected error for unknown weekday")
	}
}
