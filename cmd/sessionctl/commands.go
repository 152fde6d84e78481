package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/visitor-session/internal/config"
	"github.com/jrsteele09/visitor-session/session"
	"github.com/jrsteele09/visitor-session/users"
)

var (
	// errCommandFailed means the command ran and was refused; the reason has already
	// been reported through the session log observer
	errCommandFailed = errors.New("command failed")
	errUsage         = errors.New("usage")
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"login":          loginCmd,
	"whoami":         whoamiCmd,
	"update-profile": updateProfileCmd,
	"logout":         logoutCmd,
	"can":            canCmd,
}

// app is one sessionctl invocation: a store over the configured backend and client,
// revalidated before the command runs.
type app struct {
	cfg      config.Config
	out      io.Writer
	store    *session.Store
	registry *prometheus.Registry
	ended    chan session.Event
}

func run(ctx context.Context, c config.Config, args []string, out io.Writer) error {
	cmd, ok := commands[args[0]]
	if !ok {
		return errUsage
	}

	kv, closeKV, err := openKV(ctx, c)
	if err != nil {
		return errors.Wrap(err, "open session store")
	}
	defer closeKV()

	client, err := newClient(ctx, c, kv)
	if err != nil {
		return errors.Wrap(err, "create auth client")
	}

	store, err := session.New(client, kv, session.WithRedirectDelay(c.GetLogoutRedirectDelay()))
	if err != nil {
		return err
	}
	defer store.Close()

	a := &app{
		cfg:      c,
		out:      out,
		store:    store,
		registry: prometheus.NewRegistry(),
		ended:    make(chan session.Event, 1),
	}
	metrics, err := session.NewMetricsObserver(a.registry)
	if err != nil {
		return err
	}
	store.Subscribe(metrics)
	store.Subscribe(session.NewLogObserver(log.Logger))
	store.Subscribe(session.ObserverFunc(func(e session.Event) {
		if e.Kind == session.EventSessionEnded {
			select {
			case a.ended <- e:
			default:
			}
		}
	}))
	defer a.writeMetrics()

	select {
	case <-store.Start(ctx):
	case <-ctx.Done():
		return ctx.Err()
	}

	return cmd(ctx, a, args[1:])
}

func (a *app) writeMetrics() {
	path := a.cfg.GetMetricsTextfile()
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to write metrics")
	}
}

func loginCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *email == "" || *password == "" {
		return errUsage
	}

	if !a.store.Login(ctx, *email, *password) {
		return errCommandFailed
	}
	return a.printUser()
}

func whoamiCmd(_ context.Context, a *app, _ []string) error {
	if !a.store.IsAuthenticated() {
		fmt.Fprintln(a.out, "not logged in")
		return errCommandFailed
	}
	return a.printUser()
}

func updateProfileCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("update-profile", flag.ContinueOnError)
	fs.String("first-name", "", "new first name")
	fs.String("last-name", "", "new last name")
	fs.String("phone", "", "new phone number")
	fs.String("avatar", "", "new avatar URL")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	patch := patchFromFlags(fs)
	if patch.IsEmpty() {
		return errUsage
	}
	if !a.store.UpdateProfile(ctx, patch) {
		return errCommandFailed
	}
	return a.printUser()
}

// patchFromFlags sets only the fields whose flags were given, so an explicit empty
// value clears a field.
func patchFromFlags(fs *flag.FlagSet) users.ProfilePatch {
	var patch users.ProfilePatch
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "first-name":
			patch.FirstName = &v
		case "last-name":
			patch.LastName = &v
		case "phone":
			patch.Phone = &v
		case "avatar":
			patch.Avatar = &v
		}
	})
	return patch
}

func logoutCmd(ctx context.Context, a *app, _ []string) error {
	a.store.Logout(ctx)

	wait := a.cfg.GetLogoutRedirectDelay() + time.Second
	select {
	case <-a.ended:
		fmt.Fprintln(a.out, "logged out")
	case <-time.After(wait):
		log.Warn().Msg("session end was not confirmed")
	case <-ctx.Done():
	}
	return nil
}

func canCmd(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("can", flag.ContinueOnError)
	roleList := fs.String("role", "", "comma separated roles, any of which grants access")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	roles, err := parseRoles(*roleList)
	if err != nil {
		return errors.Wrap(err, "-role")
	}
	if !a.store.Authorize(roles...) {
		fmt.Fprintln(a.out, "denied")
		return errCommandFailed
	}
	fmt.Fprintln(a.out, "allowed")
	return nil
}

func parseRoles(list string) ([]users.RoleType, error) {
	var roles []users.RoleType
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		role, err := users.ParseRole(name)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func (a *app) printUser() error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(a.store.User())
}
