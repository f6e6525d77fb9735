package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"campusevents/internal/domain"
	"campusevents/internal/filter"
)

var categories = []string{
	domain.CategoryWorkshop,
	domain.CategorySeminar,
	domain.CategoryCultural,
	domain.CategorySports,
	domain.CategoryTechnical,
	domain.CategorySocial,
}

func (a *App) login(ctx context.Context, args []string) error {
	fs := a.flagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("%w: login requires -email and -password", ErrUsage)
	}
	user, err := a.Session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Logged in as %s (%s)\n", user.Name, user.Role)
	return nil
}

func (a *App) signup(ctx context.Context, args []string) error {
	fs := a.flagSet("signup")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	role := fs.String("role", string(domain.RoleStudent), "organizer or student")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *email == "" || *password == "" {
		return fmt.Errorf("%w: signup requires -name, -email and -password", ErrUsage)
	}
	user, err := a.Session.Signup(ctx, *name, *email, *password, domain.Role(*role))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Welcome, %s! Signed up as %s.\n", user.Name, user.Role)
	return nil
}

// logout always clears local state, even when the stored credential cannot be read back.
func (a *App) logout(ctx context.Context, _ []string) error {
	if _, err := a.Session.Restore(ctx); err != nil && !errors.Is(err, domain.ErrNoSession) {
		fmt.Fprintf(a.Err, "stored session could not be read, clearing it: %v\n", err)
	}
	if err := a.Session.Logout(ctx); err != nil {
		fmt.Fprintln(a.Out, "Logged out locally.")
		return err
	}
	fmt.Fprintln(a.Out, "Logged out.")
	return nil
}

func (a *App) whoami(ctx context.Context, _ []string) error {
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	user, err := a.Session.Profile(ctx)
	if err != nil {
		return err
	}
	printProfile(a.Out, user)
	return nil
}

func (a *App) profile(ctx context.Context, args []string) error {
	fs := a.flagSet("profile")
	var patch domain.ProfilePatch
	fs.Func("name", "new display name", func(s string) error { patch.Name = &s; return nil })
	fs.Func("department", "new department", func(s string) error { patch.Department = &s; return nil })
	fs.Func("phone", "new phone number", func(s string) error { patch.Phone = &s; return nil })
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	var (
		user *domain.User
		err  error
	)
	if patch == (domain.ProfilePatch{}) {
		user, err = a.Session.Profile(ctx)
	} else {
		user, err = a.Session.UpdateProfile(ctx, patch)
	}
	if err != nil {
		return err
	}
	printProfile(a.Out, user)
	return nil
}

func (a *App) events(ctx context.Context, args []string) error {
	fs := a.flagSet("events")
	var criteria domain.FilterCriteria
	fs.StringVar(&criteria.Search, "search", "", "case-insensitive title search")
	fs.StringVar(&criteria.Category, "category", "", "one of "+strings.Join(categories, ", "))
	fs.Func("date", "today, this-week or this-month", func(s string) error {
		b := domain.DateBucket(s)
		if !b.Valid() {
			return fmt.Errorf("unknown date range %q", s)
		}
		criteria.Date = b
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	if err := a.Events.LoadBrowse(ctx, criteria); err != nil {
		return err
	}
	printEvents(a.Out, a.Filter.Apply(a.Events.Snapshot(), criteria))
	return nil
}

func (a *App) myEvents(ctx context.Context, _ []string) error {
	if err := a.requireOrganizer(ctx); err != nil {
		return err
	}
	if err := a.Events.LoadMine(ctx); err != nil {
		return err
	}
	printEvents(a.Out, a.Events.Snapshot())
	fmt.Fprintln(a.Out)
	printStats(a.Out, a.Events.Stats())
	return nil
}

func (a *App) register(ctx context.Context, args []string) error {
	id, err := parseWithID(a.flagSet("register"), args)
	if err != nil {
		return err
	}
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	if err := a.Events.LoadBrowse(ctx, domain.FilterCriteria{}); err != nil {
		return err
	}
	if err := a.Events.Register(ctx, id); err != nil {
		return err
	}
	e, ok := a.Events.Get(id)
	if !ok {
		return domain.ErrEventNotFound
	}
	fmt.Fprintf(a.Out, "Registered for %q. %d of %d seats taken.\n", e.Title, e.Registered, e.Capacity)
	return nil
}

func (a *App) unregister(ctx context.Context, args []string) error {
	id, err := parseWithID(a.flagSet("unregister"), args)
	if err != nil {
		return err
	}
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	if err := a.Events.LoadBrowse(ctx, domain.FilterCriteria{}); err != nil {
		return err
	}
	if err := a.Events.Unregister(ctx, id); err != nil {
		return err
	}
	e, _ := a.Events.Get(id)
	fmt.Fprintf(a.Out, "Registration for %q cancelled.\n", e.Title)
	return nil
}

func (a *App) create(ctx context.Context, args []string) error {
	fs := a.flagSet("create")
	var data domain.EventFormData
	fs.StringVar(&data.Title, "title", "", "event title")
	fs.StringVar(&data.Description, "description", "", "event description")
	fs.StringVar(&data.Date, "date", "", "date as YYYY-MM-DD")
	fs.StringVar(&data.Time, "time", "", "start time as HH:MM")
	fs.StringVar(&data.Location, "location", "", "venue")
	fs.StringVar(&data.Category, "category", "", "one of "+strings.Join(categories, ", "))
	fs.IntVar(&data.Capacity, "capacity", 0, "number of seats")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validateForm(data); err != nil {
		return err
	}
	if err := a.requireOrganizer(ctx); err != nil {
		return err
	}
	e, err := a.Events.Create(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Created %q with id %s.\n", e.Title, e.ID)
	return nil
}

func (a *App) update(ctx context.Context, args []string) error {
	fs := a.flagSet("update")
	var patch domain.EventPatch
	fs.Func("title", "event title", func(s string) error { patch.Title = &s; return nil })
	fs.Func("description", "event description", func(s string) error { patch.Description = &s; return nil })
	fs.Func("date", "date as YYYY-MM-DD", func(s string) error {
		if _, err := time.Parse(filter.DateLayout, s); err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD")
		}
		patch.Date = &s
		return nil
	})
	fs.Func("time", "start time as HH:MM", func(s string) error { patch.Time = &s; return nil })
	fs.Func("location", "venue", func(s string) error { patch.Location = &s; return nil })
	fs.Func("category", "event category", func(s string) error {
		if !slices.Contains(categories, s) {
			return fmt.Errorf("unknown category %q", s)
		}
		patch.Category = &s
		return nil
	})
	fs.Func("capacity", "number of seats", func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("capacity must be a number")
		}
		patch.Capacity = &n
		return nil
	})
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if err := a.requireOrganizer(ctx); err != nil {
		return err
	}
	if err := a.Events.LoadMine(ctx); err != nil {
		return err
	}
	e, err := a.Events.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Updated %q.\n", e.Title)
	return nil
}

func (a *App) deleteEvent(ctx context.Context, args []string) error {
	id, err := parseWithID(a.flagSet("delete"), args)
	if err != nil {
		return err
	}
	if err := a.requireOrganizer(ctx); err != nil {
		return err
	}
	if err := a.Events.LoadMine(ctx); err != nil {
		return err
	}
	e, _ := a.Events.Get(id)
	if err := a.Events.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Deleted %q.\n", e.Title)
	return nil
}

func (a *App) attendees(ctx context.Context, args []string) error {
	fs := a.flagSet("attendees")
	query := fs.String("q", "", "search name, email or department")
	asCSV := fs.Bool("csv", false, "write the roster as CSV")
	mailTo := fs.String("mail", "", "email the roster to this address")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if err := a.requireOrganizer(ctx); err != nil {
		return err
	}
	roster, err := a.Roster.Attendees(ctx, id)
	if err != nil {
		return err
	}
	roster = filter.Attendees(roster, *query)

	switch {
	case *mailTo != "":
		title := id
		if err := a.Events.LoadMine(ctx); err == nil {
			if e, ok := a.Events.Get(id); ok {
				title = e.Title
			}
		}
		if err := a.Roster.EmailExport(ctx, title, *mailTo, roster); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Sent %d attendees to %s.\n", len(roster), *mailTo)
		return nil
	case *asCSV:
		return a.Roster.ExportCSV(a.Out, roster)
	default:
		printAttendees(a.Out, roster)
		return nil
	}
}

func validateForm(d domain.EventFormData) error {
	var missing []string
	for name, v := range map[string]string{
		"-title": d.Title, "-date": d.Date, "-time": d.Time, "-location": d.Location, "-category": d.Category,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%w: create requires %s", ErrUsage, strings.Join(missing, ", "))
	}
	if _, err := time.Parse(filter.DateLayout, d.Date); err != nil {
		return fmt.Errorf("%w: -date must be YYYY-MM-DD", ErrUsage)
	}
	if !slices.Contains(categories, d.Category) {
		return fmt.Errorf("%w: -category must be one of %s", ErrUsage, strings.Join(categories, ", "))
	}
	return nil
}
