package report

import "log/slog"

type State int

const (
	StateIdle State = iota
	StateAggregating
	StateResolvingImages
	StateRendering
	StateSerialized
	StateDelivered
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:            "idle",
	StateAggregating:     "aggregating",
	StateResolvingImages: "resolving_images",
	StateRendering:       "rendering",
	StateSerialized:      "serialized",
	StateDelivered:       "delivered",
	StateFailed:          "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal reports whether no transition can follow s.
func (s State) Terminal() bool {
	return s == StateDelivered || s == StateFailed
}

// generation tracks the state of a single Generate call.
type generation struct {
	id       string
	state    State
	observer Observer
	logger   *slog.Logger
}

func (g *generation) set(s State) {
	g.logger.Debug("report state", "from", g.state.String(), "to", s.String())
	g.state = s
	if g.observer != nil {
		g.observer(g.id, s)
	}
}
