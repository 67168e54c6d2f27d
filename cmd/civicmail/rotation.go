package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shineum/civicmail/internal/config"
	"github.com/shineum/civicmail/internal/dispatch"
)

// printRotation writes one row per day starting at from.
func printRotation(w io.Writer, d *dispatch.Dispatcher, b *config.Bundle, from time.Time, days int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDAY\tACCOUNT\tTEMPLATE\tACTION")
	for i := range days {
		p := d.Plan(from.AddDate(0, 0, i))
		action := "skip"
		if p.Decision.SendDay || b.SendEveryDay {
			action = "send"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			p.Date.Format("2006-01-02"),
			p.Date.Weekday().String()[:3],
			p.Account.Name,
			p.Decision.TemplateID,
			action,
		)
	}
	tw.Flush()
}
