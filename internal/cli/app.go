// Package cli implements campusctl, a command-line client that drives every campus events
// operation through the same services a graphical client would use.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"campusevents/internal/domain"
	"campusevents/internal/filter"
	"campusevents/internal/services"
)

// App holds the wired services behind the commands.
type App struct {
	Session domain.SessionService
	Events  *services.EventStore
	Roster  domain.RosterService
	Filter  filter.Evaluator

	Out io.Writer
	Err io.Writer
}

type command struct {
	usage string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":      {"login -email E -password P", (*App).login},
	"signup":     {"signup -name N -email E -password P -role organizer|student", (*App).signup},
	"logout":     {"logout", (*App).logout},
	"whoami":     {"whoami", (*App).whoami},
	"profile":    {"profile [-name N] [-department D] [-phone P]", (*App).profile},
	"events":     {"events [-search S] [-category C] [-date today|this-week|this-month]", (*App).events},
	"my-events":  {"my-events", (*App).myEvents},
	"register":   {"register <event-id>", (*App).register},
	"unregister": {"unregister <event-id>", (*App).unregister},
	"create":     {"create -title T -date YYYY-MM-DD -time HH:MM -location L -category C -capacity N [-description D]", (*App).create},
	"update":     {"update <event-id> [-title T] [-date D] [-time T] [-location L] [-category C] [-capacity N] [-description D]", (*App).update},
	"delete":     {"delete <event-id>", (*App).deleteEvent},
	"attendees":  {"attendees <event-id> [-q QUERY] [-csv] [-mail ADDRESS]", (*App).attendees},
}

// ErrUsage is returned when the command line cannot be understood.
var ErrUsage = errors.New("usage")

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return ErrUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.Err, "unknown command %q\n", args[0])
		a.usage()
		return ErrUsage
	}
	err := cmd.run(a, ctx, args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func (a *App) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(a.Err, "usage: campusctl <command> [flags]")
	fmt.Fprintln(a.Err)
	for _, name := range names {
		fmt.Fprintf(a.Err, "  %s\n", commands[name].usage)
	}
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Err)
	return fs
}

// parseWithID parses flags on either side of a single positional event id.
func parseWithID(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() == 0 {
		return "", fmt.Errorf("%w: %s requires an event id", ErrUsage, fs.Name())
	}
	id := fs.Arg(0)
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return "", err
	}
	if fs.NArg() > 0 {
		return "", fmt.Errorf("%w: unexpected arguments %s", ErrUsage, strings.Join(fs.Args(), " "))
	}
	return id, nil
}

// requireSession restores the persisted credential, failing when nobody is logged in.
func (a *App) requireSession(ctx context.Context) (domain.SessionCredential, error) {
	cred, err := a.Session.Restore(ctx)
	if errors.Is(err, domain.ErrNoSession) {
		return cred, errNotLoggedIn
	}
	return cred, err
}

func (a *App) requireOrganizer(ctx context.Context) error {
	cred, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	if cred.Role != domain.RoleOrganizer {
		return errOrganizerOnly
	}
	return nil
}
