// Package render fills message templates with configuration data.
package render

import (
	"html"
	"strings"
	"time"

	"github.com/shineum/civicmail/internal/config"
)

// Vars maps placeholder names to their values.
type Vars map[string]string

// itemsSuffix marks variables that already hold HTML markup.
const itemsSuffix = "_items"

// Variables builds the substitution map for one message. Every list field
// is exposed three ways: name (comma-joined), name_list ("- " bullets, one
// per line) and name_items (<li> elements, values escaped).
func Variables(b *config.Bundle, reference, noticeID string, now time.Time) Vars {
	if b.Zone != nil {
		now = now.In(b.Zone)
	}

	v := Vars{
		"reference_number":    reference,
		"notice_id":           noticeID,
		"date":                now.Format(b.DateFormat),
		"time":                now.Format(b.TimeFormat),
		"area_name":           b.Location.AreaName,
		"city":                b.Location.City,
		"province":            b.Location.Province,
		"country":             b.Location.Country,
		"coordinates":         b.Location.Coordinates,
		"primary_issue":       b.Issue.PrimaryIssue,
		"affected_population": b.Issue.AffectedPopulation,
		"duration":            b.Issue.Duration,
	}

	v.addList("specific_problems", b.Issue.SpecificProblems)
	v.addList("constitutional_articles", b.Legal.ConstitutionalArticles)
	v.addList("relevant_laws", b.Legal.RelevantLaws)
	v.addList("escalation_path", b.Legal.EscalationPath)

	return v
}

func (v Vars) addList(name string, items []string) {
	bullets := make([]string, len(items))
	lis := make([]string, len(items))
	for i, item := range items {
		bullets[i] = "- " + item
		lis[i] = "<li>" + html.EscapeString(item) + "</li>"
	}
	v[name] = strings.Join(items, ", ")
	v[name+"_list"] = strings.Join(bullets, "\n")
	v[name+itemsSuffix] = strings.Join(lis, "\n")
}
