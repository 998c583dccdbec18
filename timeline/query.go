package timeline

import "iter"

// Predicate reports whether a node matches a search.
type Predicate func(*Node) bool

// ByType matches nodes of exactly the given type.
func ByType(t Type) Predicate {
	return func(n *Node) bool { return n.Type == t }
}

// ByName matches nodes with exactly the given name.
func ByName(name string) Predicate {
	return func(n *Node) bool { return n.Name == name }
}

// ByThreadID matches nodes belonging to the given thread.
func ByThreadID(id uint64) Predicate {
	return func(n *Node) bool { return n.ThreadID == id }
}

// ByWindow matches nodes whose [Begin, End] interval intersects
// [begin, end] inclusively.
func ByWindow(begin, end uint32) Predicate {
	return func(n *Node) bool { return n.Begin <= end && n.End() >= begin }
}

// And combines predicates, matching only nodes that satisfy all of them.
func And(preds ...Predicate) Predicate {
	return func(n *Node) bool {
		for _, p := range preds {
			if !p(n) {
				return false
			}
		}
		return true
	}
}

// PreOrder returns a pre-order iterator over every node in the timeline
// except the root itself.
func (t *Timeline) PreOrder() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, child := range t.root.Children {
			if !walk(child, yield) {
				return
			}
		}
	}
}

func walk(n *Node, yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for _, c := range n.Children {
		if !walk(c, yield) {
			return false
		}
	}
	return true
}

// Search returns a pre-order iterator over every node (excluding root) that
// satisfies pred.
func (t *Timeline) Search(pred Predicate) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for n := range t.PreOrder() {
			if pred(n) {
				if !yield(n) {
					return
				}
			}
		}
	}
}
