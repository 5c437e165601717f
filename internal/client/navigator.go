package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/rs/zerolog/log"
)

// ResolveState is a step of a route resolver.
type ResolveState int

const (
	Idle ResolveState = iota
	Fetching
	Resolved
	FailedFetch
	RedirectedAway
)

func (s ResolveState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Resolved:
		return "resolved"
	case FailedFetch:
		return "failed-fetch"
	case RedirectedAway:
		return "redirected-away"
	default:
		return fmt.Sprintf("ResolveState(%d)", int(s))
	}
}

const (
	// HomePath is where guard failures send the user.
	HomePath = ""

	noticeLoginRequired   = "You need to log in to view this page"
	noticeNotAuthorized   = "You are not authorized to access this area"
	defaultResolverNotice = "Problem retrieving data"
	maxRedirects          = 8
)

var (
	// ErrRedirectLoop is returned when redirects do not settle.
	ErrRedirectLoop = errors.New("too many redirects")
	// ErrNoRoute is returned when no route matches and the table has no wildcard.
	ErrNoRoute = errors.New("no matching route")
)

// Request is what a resolver sees.
type Request struct {
	Path    string
	Params  map[string]string
	Session *Session
}

// Resolver fetches the data a view needs before it activates.
type Resolver func(ctx context.Context, req Request) (interface{}, error)

// Route is one row of the navigation table.
type Route struct {
	// Path is slash separated; ":name" segments capture params and "**" matches anything.
	Path string
	// RedirectTo sends matching navigations elsewhere without any checks.
	RedirectTo *string
	Protected  bool
	// Roles, when set, requires the session to hold at least one of them.
	Roles    []string
	Resolve  Resolver
	Fallback string
	// Notice replaces the default resolver failure message.
	Notice string
}

// Activation is handed to the view layer once a route may render.
type Activation struct {
	Route   *Route
	Path    string
	Params  map[string]string
	Session *Session
	// Data is the resolver result; never nil when the route has a resolver.
	Data interface{}
}

// Step records one resolver state transition.
type Step struct {
	Path  string
	State ResolveState
}

// Result is the outcome of a navigation.
type Result struct {
	Path       string
	Activation *Activation
	Trace      []Step
}

// SessionSource yields the current session.
type SessionSource interface {
	Load() (*Session, error)
	Clear() error
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Notify calls f.
func (f NotifierFunc) Notify(msg string) { f(msg) }

// Navigator enforces the route table: guard first, then resolver, then view.
type Navigator struct {
	routes   []Route
	sessions SessionSource
	notify   Notifier
	activate func(Activation)
	now      func() time.Time
}

// NewNavigator creates a navigator. activate is called only for routes that
// passed the guard and resolved their data.
func NewNavigator(routes []Route, sessions SessionSource, notify Notifier, activate func(Activation)) *Navigator {
	if notify == nil {
		notify = NotifierFunc(func(string) {})
	}
	if activate == nil {
		activate = func(Activation) {}
	}
	return &Navigator{routes: routes, sessions: sessions, notify: notify, activate: activate, now: time.Now}
}

// Navigate follows path through guards, resolvers and redirects. At most one
// notice is shown per call, however many hops fail. If ctx is cancelled while
// a resolver runs, its data is discarded and nothing activates.
func (n *Navigator) Navigate(ctx context.Context, path string) (Result, error) {
	res := Result{}
	path = cleanPath(path)

	notified := false
	notify := func(msg string) {
		if notified {
			return
		}
		notified = true
		n.notify.Notify(msg)
	}

	for hop := 0; hop < maxRedirects; hop++ {
		route, params, ok := n.match(path)
		if !ok {
			return res, fmt.Errorf("%w: %q", ErrNoRoute, path)
		}
		if route.RedirectTo != nil {
			path = cleanPath(*route.RedirectTo)
			continue
		}

		var session *Session
		if route.Protected {
			s, notice, allowed := n.guard(route)
			if !allowed {
				notify(notice)
				path = HomePath
				continue
			}
			session = s
		}

		act := Activation{Route: route, Path: path, Params: params, Session: session}
		if route.Resolve != nil {
			res.Trace = append(res.Trace, Step{path, Idle}, Step{path, Fetching})

			data, err := route.Resolve(ctx, Request{Path: path, Params: params, Session: session})
			if ctx.Err() != nil {
				log.Debug().Str("path", path).Msg("Navigation cancelled, discarding resolved data")
				return res, ctx.Err()
			}
			if err == nil && data == nil {
				err = errors.New("resolver returned no data")
			}
			if err != nil {
				res.Trace = append(res.Trace, Step{path, FailedFetch}, Step{path, RedirectedAway})
				log.Debug().Err(err).Str("path", path).Str("fallback", route.Fallback).Msg("Resolver failed")
				if errors.Is(err, auth.ErrUnauthenticated) {
					_ = n.sessions.Clear()
				}
				notify(noticeFor(route))
				path = cleanPath(route.Fallback)
				continue
			}
			res.Trace = append(res.Trace, Step{path, Resolved})
			act.Data = data
		}

		res.Path = path
		res.Activation = &act
		n.activate(act)
		return res, nil
	}
	return res, ErrRedirectLoop
}

// guard checks the session and roles for route. On failure it returns the
// notice to show; the caller redirects home.
func (n *Navigator) guard(route *Route) (*Session, string, bool) {
	s, err := n.sessions.Load()
	if err == nil && s.Expired(n.now()) {
		_ = n.sessions.Clear()
		err = ErrNoSession
	}
	if err != nil {
		return nil, noticeLoginRequired, false
	}
	if len(route.Roles) > 0 && !s.HasAnyRole(route.Roles...) {
		return nil, noticeNotAuthorized, false
	}
	return s, "", true
}

func (n *Navigator) match(path string) (*Route, map[string]string, bool) {
	segs := splitPath(path)
	for i := range n.routes {
		if params, ok := matchSegments(splitPath(n.routes[i].Path), segs); ok {
			return &n.routes[i], params, true
		}
	}
	return nil, nil, false
}

func matchSegments(pattern, segs []string) (map[string]string, bool) {
	params := map[string]string{}
	for i, p := range pattern {
		if p == "**" {
			return params, true
		}
		if i >= len(segs) {
			return nil, false
		}
		switch {
		case strings.HasPrefix(p, ":"):
			params[p[1:]] = segs[i]
		case p != segs[i]:
			return nil, false
		}
	}
	if len(pattern) != len(segs) {
		return nil, false
	}
	return params, true
}

func noticeFor(r *Route) string {
	if r.Notice != "" {
		return r.Notice
	}
	return defaultResolverNotice
}

func cleanPath(p string) string {
	return strings.Trim(strings.TrimSpace(p), "/")
}

func splitPath(p string) []string {
	p = cleanPath(p)
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
