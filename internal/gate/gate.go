// Package gate implements the profile-completeness state machine that
// decides whether a signed-in user may reach protected destinations or
// must first finish their profile.
package gate

import (
	"sync"
	"time"
)

// State is the gate's position in the sign-in/profile flow.
type State int

const (
	Unauthenticated State = iota
	// Authenticating means the identity provider has reported a
	// signed-in subject but no usable session exists yet.
	Authenticating
	// ProfileIncomplete means the session is live but the user row is
	// missing or not yet marked complete.
	ProfileIncomplete
	ProfileComplete
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case ProfileIncomplete:
		return "profile_incomplete"
	case ProfileComplete:
		return "profile_complete"
	default:
		return "unknown"
	}
}

// RouteKind classifies a destination for Resolve.
type RouteKind int

const (
	// RoutePublic destinations are reachable in any state.
	RoutePublic RouteKind = iota
	// RouteProtected destinations require a complete profile.
	RouteProtected
	// RouteSetup is the profile-completion form itself.
	RouteSetup
)

// Decision is the outcome of resolving a destination against the
// current state.
type Decision int

const (
	Allow Decision = iota
	// RedirectSetup sends the user to the profile-completion form.
	RedirectSetup
	// RedirectHome sends the user away from the setup form to the
	// default authenticated destination.
	RedirectHome
	// RedirectSignIn sends an unauthenticated user to sign in.
	RedirectSignIn
)

// DefaultSessionTimeout bounds how long the gate waits in
// Authenticating before giving up on the session and treating the
// profile as incomplete.
const DefaultSessionTimeout = 3 * time.Second

// Gate tracks one user's position in the sign-in flow. All methods are
// safe for concurrent use.
type Gate struct {
	mu      sync.Mutex
	state   State
	timeout time.Duration
	timer   *time.Timer
}

// Option configures a Gate.
type Option func(*Gate)

// WithSessionTimeout overrides the bounded wait for a usable session.
func WithSessionTimeout(d time.Duration) Option {
	return func(g *Gate) { g.timeout = d }
}

func New(opts ...Option) *Gate {
	g := &Gate{state: Unauthenticated, timeout: DefaultSessionTimeout}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// SignIn records that the identity provider reported a signed-in
// subject without a usable session yet. It arms the timeout that falls
// back to ProfileIncomplete if the session never materializes, so the
// flow is bounded and never hangs.
func (g *Gate) SignIn() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Unauthenticated {
		return
	}
	g.state = Authenticating
	g.stopTimer()
	g.timer = time.AfterFunc(g.timeout, g.sessionTimedOut)
}

// SessionEstablished records that a session token became usable and the
// server-side profile was fetched. It is valid while Authenticating and
// also while ProfileIncomplete, since a late session can still arrive
// after the timeout fallback already fired.
func (g *Gate) SessionEstablished(profileComplete bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Authenticating && g.state != ProfileIncomplete {
		return
	}
	g.stopTimer()
	if profileComplete {
		g.state = ProfileComplete
	} else {
		g.state = ProfileIncomplete
	}
}

// CompleteProfile records a successful profile-completion submission.
func (g *Gate) CompleteProfile() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != ProfileIncomplete {
		return
	}
	g.state = ProfileComplete
}

// SignOut resets the gate from any state.
func (g *Gate) SignOut() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopTimer()
	g.state = Unauthenticated
}

func (g *Gate) sessionTimedOut() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Authenticating {
		return
	}
	g.state = ProfileIncomplete
}

func (g *Gate) stopTimer() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// Resolve applies the routing contract: an incomplete profile is pushed
// to the setup form before anything protected, a complete profile is
// pushed off the setup form, and unauthenticated users may reach only
// public destinations.
func (g *Gate) Resolve(route RouteKind) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if route == RoutePublic {
		return Allow
	}

	switch g.state {
	case Unauthenticated:
		return RedirectSignIn
	case Authenticating, ProfileIncomplete:
		if route == RouteSetup {
			return Allow
		}
		return RedirectSetup
	case ProfileComplete:
		if route == RouteSetup {
			return RedirectHome
		}
		return Allow
	default:
		return RedirectSignIn
	}
}
