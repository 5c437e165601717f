// Command datingctl is a terminal client for the datingapp API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/client"
	"github.com/isdelr/datingapp-be/internal/logger"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }

const usage = `usage: datingctl [flags] <command>

commands:
  register          create an account
  login             log in and store the session
  logout            forget the stored session
  whoami            show the stored session
  open <route>      navigate to a route, e.g. members, members/<id>, member/edit, admin
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("datingctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage); fs.PrintDefaults() }

	apiURL := fs.String("api", envOr("DATINGAPP_API", "http://localhost:5000/api"), "API base URL")
	sessionPath := fs.String("session", envOr("DATINGAPP_SESSION", defaultSessionPath()), "session file")
	logLevel := fs.String("log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	logger.Init(*logLevel, false)

	app := &cli{
		api:    client.NewAPI(*apiURL, nil),
		store:  client.NewFileStore(*sessionPath),
		in:     bufio.NewReader(stdin),
		out:    stdout,
		errOut: stderr,
	}

	var err error
	switch cmd := fs.Arg(0); cmd {
	case "register":
		err = app.register(ctx)
	case "login":
		err = app.login(ctx)
	case "logout":
		err = app.logout()
	case "whoami":
		err = app.whoami()
	case "open":
		if fs.NArg() < 2 {
			fmt.Fprintln(stderr, "open: missing route")
			return 2
		}
		err = app.open(ctx, fs.Arg(1))
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", describe(err))
		return 1
	}
	return 0
}

type cli struct {
	api    *client.API
	store  *client.FileStore
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func (c *cli) credentials() (string, string, error) {
	fmt.Fprint(c.out, "Username: ")
	username, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && username != "") {
		return "", "", err
	}
	fmt.Fprint(c.out, "Password: ")
	pw, err := readPassword()
	fmt.Fprintln(c.out)
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(username), string(pw), nil
}

func (c *cli) register(ctx context.Context) error {
	username, password, err := c.credentials()
	if err != nil {
		return err
	}
	user, err := c.api.Register(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Registered %s (%s)\n", user.Username, user.ID)
	return nil
}

func (c *cli) login(ctx context.Context) error {
	username, password, err := c.credentials()
	if err != nil {
		return err
	}
	session, user, err := c.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := c.store.Save(session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(c.out, "Logged in as %s, session valid until %s\n",
		user.Username, session.Claims.ExpiresAt.Time.Local().Format("15:04:05"))
	return nil
}

func (c *cli) logout() error {
	if err := c.store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func (c *cli) whoami() error {
	s, err := c.store.Load()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s (%s) roles=%s expires=%s\n",
		s.Username(), s.UserID(), strings.Join(s.Roles(), ","), s.Claims.ExpiresAt.Time.Local().Format("15:04:05"))
	return nil
}

func (c *cli) open(ctx context.Context, route string) error {
	notices := client.NotifierFunc(func(msg string) { fmt.Fprintln(c.errOut, "! "+msg) })
	nav := client.NewNavigator(client.DefaultRoutes(c.api), c.store, notices, c.render)
	_, err := nav.Navigate(ctx, route)
	return err
}

func (c *cli) render(a client.Activation) {
	switch data := a.Data.(type) {
	case client.MemberPage:
		fmt.Fprintf(c.out, "Members (page %d of %d, %d total)\n", data.Page.CurrentPage, data.Page.TotalPages, data.Page.TotalItems)
		for _, m := range data.Members {
			fmt.Fprintf(c.out, "  %-36s %s\n", m.ID, m.Username)
		}
	case client.Member:
		fmt.Fprintf(c.out, "%s (%s)\n  created:     %s\n  last active: %s\n  photos:      %d\n",
			data.Username, data.ID, data.Created.Format("2006-01-02"), data.LastActive.Format("2006-01-02 15:04"), len(data.Photos))
	case []client.UserWithRoles:
		for _, u := range data {
			fmt.Fprintf(c.out, "  %-20s %s\n", u.Username, strings.Join(u.Roles, ", "))
		}
	default:
		fmt.Fprintln(c.out, "Home")
	}
}

// describe turns taxonomy errors into user-facing text.
func describe(err error) string {
	switch {
	case errors.Is(err, auth.ErrDuplicateUsername):
		return "username already exists"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "invalid username or password"
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, client.ErrNoSession):
		return "not logged in"
	case errors.Is(err, auth.ErrForbidden):
		return "not allowed"
	case errors.Is(err, auth.ErrUpstreamUnavailable):
		return "service unavailable, try again later"
	default:
		return err.Error()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".datingapp-session"
	}
	return filepath.Join(dir, "datingapp", "session")
}
