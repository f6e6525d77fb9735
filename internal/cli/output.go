package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"campusevents/internal/domain"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printEvents(w io.Writer, events []domain.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tTITLE\tCATEGORY\tSEATS\tSTATUS")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			e.ID, e.Date, e.Time, e.Title, e.Category, e.Registered, e.Capacity, status(e))
	}
	tw.Flush()
}

func status(e domain.Event) string {
	switch {
	case e.IsRegistered:
		return "registered"
	case e.IsFull():
		return "full"
	default:
		return fmt.Sprintf("%d left", e.SpotsLeft())
	}
}

// Totals are grouped with thousands separators.
func printStats(w io.Writer, st domain.EventStats) {
	p := message.NewPrinter(language.English)
	tw := newTable(w)
	p.Fprintf(tw, "Events\t%d\n", st.TotalEvents)
	p.Fprintf(tw, "Registrations\t%d\n", st.TotalRegistrations)
	p.Fprintf(tw, "Capacity\t%d\n", st.TotalCapacity)
	p.Fprintf(tw, "Full events\t%d\n", st.FullEvents)
	p.Fprintf(tw, "Fill rate\t%.0f%%\n", st.FillRate*100)
	tw.Flush()
}

func printAttendees(w io.Writer, attendees []domain.Attendee) {
	if len(attendees) == 0 {
		fmt.Fprintln(w, "No attendees.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tEMAIL\tDEPARTMENT\tREGISTERED")
	for _, a := range attendees {
		registered := "-"
		if !a.RegisteredAt.IsZero() {
			registered = a.RegisteredAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Name, a.Email, a.Department, registered)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d attendee(s)\n", len(attendees))
}

func printProfile(w io.Writer, u *domain.User) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Name\t%s\n", u.Name)
	fmt.Fprintf(tw, "Email\t%s\n", u.Email)
	fmt.Fprintf(tw, "Role\t%s\n", u.Role)
	if u.Department != "" {
		fmt.Fprintf(tw, "Department\t%s\n", u.Department)
	}
	if u.Phone != "" {
		fmt.Fprintf(tw, "Phone\t%s\n", u.Phone)
	}
	tw.Flush()
}
