package engine

// Mode selects how Apply treats an event. Both modes run the identical
// state transitions; only Live returns side-effect requests.
type Mode int

const (
	Live Mode = iota
	Replay
)

func (m Mode) String() string {
	if m == Replay {
		return "replay"
	}
	return "live"
}

// Guard is a one-shot flag keyed to a session view identity. It lets the
// hierarchy reset run once per view activation even when a replay is
// triggered repeatedly for the same view.
type Guard struct {
	view string
	done bool
}

// Enter switches the guard to view. The flag clears only when the identity
// actually changes.
func (g *Guard) Enter(view string) {
	if view == g.view {
		return
	}
	g.view = view
	g.done = false
}

// View returns the current view identity.
func (g *Guard) View() string {
	return g.view
}

// Once runs fn unless it already ran for the current view, and reports
// whether it ran.
func (g *Guard) Once(fn func()) bool {
	if g.done {
		return false
	}
	g.done = true
	fn()
	return true
}
