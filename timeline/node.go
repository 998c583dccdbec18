// Package timeline reconstructs a hierarchical tree of nested
// scopes/frames/ranges per thread from the flat event stream each recorder
// produces, and provides pre-order iteration and predicate search over the
// result.
package timeline

// Type identifies what a Node represents in the reconstructed tree.
type Type int

const (
	// Root is the tree's single root; it carries no timing.
	Root Type = iota
	// Thread owns one subtree per recorder.
	Thread
	// Scope maps to a matched scope enter/leave pair.
	Scope
	// Frame maps to a matched frame start/end pair.
	Frame
	// Range maps to a matched time-range begin/end pair.
	Range
	// Event is a point-in-time annotation; it does not nest.
	Event
)

func (t Type) String() string {
	switch t {
	case Root:
		return "Root"
	case Thread:
		return "Thread"
	case Scope:
		return "Scope"
	case Frame:
		return "Frame"
	case Range:
		return "Range"
	case Event:
		return "Event"
	default:
		return "Unknown"
	}
}

// Node is one entry in the reconstructed timeline tree. Children are owned
// (insertion order = chronological enter order); Parent is a non-owning
// back pointer used only during construction and by callers that want to
// walk upward from a search result.
type Node struct {
	Type     Type
	Name     string
	ThreadID uint64
	Begin    uint32
	Duration uint32
	Args     map[string]any

	Parent   *Node
	Children []*Node

	rangeID uint32
	closed  bool
}

// End returns Begin + Duration.
func (n *Node) End() uint32 { return n.Begin + n.Duration }

// IsPoint reports whether this node should be treated as a point event
// (zero duration) when queried.
func (n *Node) IsPoint() bool { return n.Duration == 0 }

func (n *Node) setArg(name string, value any) {
	if n.Args == nil {
		n.Args = make(map[string]any)
	}
	n.Args[name] = value
}

func (n *Node) addChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}
