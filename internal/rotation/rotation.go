// Package rotation decides which account sends on a given day and which
// template it sends, if any.
package rotation

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/shineum/civicmail/internal/account"
)

// SelectAccount returns accounts[dayOrdinal mod len(accounts)]. Negative
// ordinals wrap into range. accounts must not be empty.
func SelectAccount(accounts []account.Account, dayOrdinal int) account.Account {
	if len(accounts) == 0 {
		panic("rotation: SelectAccount called with no accounts")
	}
	if len(accounts) == 1 {
		return accounts[0]
	}
	return accounts[mod(dayOrdinal, len(accounts))]
}

// DayOrdinal returns the number of days between 1970-01-01 and the calendar
// date of t in its own location. Consecutive local dates always differ by one,
// including across year ends.
func DayOrdinal(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// ISOWeekday returns the ISO weekday of t: Monday is 1, Sunday is 7.
func ISOWeekday(t time.Time) int {
	if wd := int(t.Weekday()); wd != 0 {
		return wd
	}
	return 7
}

var weekdayNames = map[string]int{
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
	"sunday":    7,
}

// ParseWeekday converts a weekday name (case-insensitive, full or
// three-letter) to its ISO number.
func ParseWeekday(name string) (int, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for full, n := range weekdayNames {
		if name == full || (len(name) == 3 && strings.HasPrefix(full, name)) {
			return n, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// WeekdayName returns the English name of an ISO weekday.
func WeekdayName(isoWeekday int) string {
	return time.Weekday(isoWeekday % 7).String()
}

// Decision is the template choice for one day.
type Decision struct {
	TemplateID int
	SendDay    bool
}

// Schedule maps ISO weekdays to candidate templates. Days without an entry
// are not send days and fall back to the default template.
type Schedule struct {
	days            map[int][]int
	defaultTemplate int
}

// NewSchedule validates days (ISO weekday to candidate template ids) and
// returns a schedule.
func NewSchedule(defaultTemplate int, days map[int][]int) (Schedule, error) {
	if defaultTemplate <= 0 {
		return Schedule{}, fmt.Errorf("default template must be positive, got %d", defaultTemplate)
	}
	s := Schedule{days: make(map[int][]int, len(days)), defaultTemplate: defaultTemplate}
	for wd, ids := range days {
		if wd < 1 || wd > 7 {
			return Schedule{}, fmt.Errorf("weekday %d out of range 1..7", wd)
		}
		if len(ids) == 0 {
			return Schedule{}, fmt.Errorf("weekday %s has no templates", WeekdayName(wd))
		}
		for _, id := range ids {
			if id <= 0 {
				return Schedule{}, fmt.Errorf("weekday %s: template id must be positive, got %d", WeekdayName(wd), id)
			}
		}
		s.days[wd] = slices.Clone(ids)
	}
	if len(s.days) == 0 {
		return Schedule{}, errors.New("schedule has no send days")
	}
	return s, nil
}

// SelectTemplate returns the decision for weekday (1..7). When a weekday has
// several candidates, isoWeek picks one so that the choice alternates week
// to week and is reproducible.
func (s Schedule) SelectTemplate(weekday, isoWeek int) Decision {
	ids, ok := s.days[weekday]
	if !ok {
		return Decision{TemplateID: s.defaultTemplate, SendDay: false}
	}
	return Decision{TemplateID: ids[mod(isoWeek, len(ids))], SendDay: true}
}

// Decide is SelectTemplate for the local date of t.
func (s Schedule) Decide(t time.Time) Decision {
	_, week := t.ISOWeek()
	return s.SelectTemplate(ISOWeekday(t), week)
}

// TemplateIDs returns every template id the schedule can produce, sorted.
func (s Schedule) TemplateIDs() []int {
	ids := []int{s.defaultTemplate}
	for _, wd := range slices.Sorted(maps.Keys(s.days)) {
		for _, id := range s.days[wd] {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	slices.Sort(ids)
	return ids
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
