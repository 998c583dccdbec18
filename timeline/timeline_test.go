package timeline

import (
	"testing"

	"github.com/kestrelgfx/tracecore/clock"
	"github.com/kestrelgfx/tracecore/recorder"
	"github.com/kestrelgfx/tracecore/strtab"
)

func newTestRecorder(t *testing.T, id uint64, names, scopes *strtab.Table) *recorder.Recorder {
	t.Helper()
	c := clock.New()
	return recorder.New(id, c, names.View(8), scopes.View(8), 4096, true)
}

func countByType(n *Node, typ Type) int {
	count := 0
	if n.Type == typ {
		count = 1
	}
	for _, c := range n.Children {
		count += countByType(c, typ)
	}
	return count
}

// P3: every child's interval lies within its parent's interval.
func TestChildIntervalsNestWithinParent(t *testing.T) {
	names := strtab.New()
	scopes := strtab.New()
	r := newTestRecorder(t, 1, names, scopes)

	outer := r.ScopeIDFor("Outer")
	inner := r.ScopeIDFor("Inner")

	r.EnterScopeAt(1000, outer)
	r.EnterScopeAt(1100, inner)
	r.LeaveScopeAt(1900)
	r.LeaveScopeAt(2000)

	tl := Build([]*recorder.Recorder{r}, names, scopes)

	var check func(*Node)
	check = func(n *Node) {
		for _, c := range n.Children {
			if n.Type != Root && n.Type != Thread {
				if c.Begin < n.Begin || c.End() > n.End() {
					t.Errorf("child %s [%d,%d] escapes parent %s [%d,%d]",
						c.Name, c.Begin, c.End(), n.Name, n.Begin, n.End())
				}
			}
			check(c)
		}
	}
	check(tl.Root())

	if got := countByType(tl.Root(), Scope); got != 2 {
		t.Fatalf("expected 2 scope nodes, got %d", got)
	}
}

// P4: an annotation made while multiple scopes are open lands on the
// innermost (topmost on the stack) scope, not an ancestor.
func TestAnnotationLandsOnInnermostScope(t *testing.T) {
	names := strtab.New()
	scopes := strtab.New()
	r := newTestRecorder(t, 1, names, scopes)

	outer := r.ScopeIDFor("Outer")
	inner := r.ScopeIDFor("Inner")

	r.EnterScopeAt(0, outer)
	r.EnterScopeAt(10, inner)
	if err := r.AnnotateCurrentScopeAt(20, "k", "v"); err != nil {
		t.Fatalf("AnnotateCurrentScopeAt: %v", err)
	}
	r.LeaveScopeAt(30)
	r.LeaveScopeAt(40)

	tl := Build([]*recorder.Recorder{r}, names, scopes)

	thread := tl.Root().Children[0]
	outerNode := thread.Children[0]
	if outerNode.Name != "Outer" {
		t.Fatalf("expected Outer as first child, got %s", outerNode.Name)
	}
	if len(outerNode.Args) != 0 {
		t.Fatalf("annotation incorrectly landed on Outer: %v", outerNode.Args)
	}
	if len(outerNode.Children) != 1 {
		t.Fatalf("expected Inner as Outer's only child, got %d children", len(outerNode.Children))
	}
	innerNode := outerNode.Children[0]
	if innerNode.Name != "Inner" {
		t.Fatalf("expected Inner, got %s", innerNode.Name)
	}
	if innerNode.Args["k"] != "v" {
		t.Fatalf("expected annotation on Inner, got args %v", innerNode.Args)
	}
}

// S4: two independent threads each with 7 scope pairs reconstruct into two
// disjoint subtrees with no cross-thread bleed.
func TestTwoThreadsReconstructIndependently(t *testing.T) {
	names := strtab.New()
	scopes := strtab.New()
	r1 := newTestRecorder(t, 1, names, scopes)
	r2 := newTestRecorder(t, 2, names, scopes)
	r1.SetName("Worker-1")
	r2.SetName("Worker-2")

	id1 := r1.ScopeIDFor("Work")
	id2 := r2.ScopeIDFor("Work")

	const pairs = 7
	for i := 0; i < pairs; i++ {
		ts := uint32(i * 100)
		r1.EnterScopeAt(ts, id1)
		r1.LeaveScopeAt(ts + 50)
		r2.EnterScopeAt(ts, id2)
		r2.LeaveScopeAt(ts + 50)
	}

	tl := Build([]*recorder.Recorder{r1, r2}, names, scopes)

	if len(tl.Root().Children) != 2 {
		t.Fatalf("expected 2 thread nodes, got %d", len(tl.Root().Children))
	}

	for _, thread := range tl.Root().Children {
		if len(thread.Children) != pairs {
			t.Errorf("thread %s: expected %d scopes, got %d", thread.Name, pairs, len(thread.Children))
		}
		for _, scope := range thread.Children {
			if scope.ThreadID != thread.ThreadID {
				t.Errorf("scope %s carries thread id %d, want %d", scope.Name, scope.ThreadID, thread.ThreadID)
			}
		}
	}

	total := 0
	for n := range tl.Search(ByType(Scope)) {
		total++
		if n.Name != "Work" {
			t.Errorf("unexpected scope name %q", n.Name)
		}
	}
	if total != 2*pairs {
		t.Fatalf("Search(ByType(Scope)) found %d nodes, want %d", total, 2*pairs)
	}
}

// PreOrder visits every non-root node exactly once and skips the root.
func TestPreOrderSkipsRootAndVisitsAll(t *testing.T) {
	names := strtab.New()
	scopes := strtab.New()
	r := newTestRecorder(t, 1, names, scopes)
	id := r.ScopeIDFor("A")
	r.EnterScopeAt(0, id)
	r.LeaveScopeAt(10)

	tl := Build([]*recorder.Recorder{r}, names, scopes)

	var visited []*Node
	for n := range tl.PreOrder() {
		visited = append(visited, n)
		if n.Type == Root {
			t.Fatalf("PreOrder must not yield the root node")
		}
	}
	// thread + scope = 2 nodes
	if len(visited) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(visited))
	}
}

// Search with ByWindow only returns nodes overlapping the requested window.
func TestSearchByWindow(t *testing.T) {
	names := strtab.New()
	scopes := strtab.New()
	r := newTestRecorder(t, 1, names, scopes)
	id := r.ScopeIDFor("W")

	r.EnterScopeAt(0, id)
	r.LeaveScopeAt(100)
	r.EnterScopeAt(1000, id)
	r.LeaveScopeAt(1100)

	tl := Build([]*recorder.Recorder{r}, names, scopes)

	var got []*Node
	for n := range tl.Search(And(ByType(Scope), ByWindow(500, 1200))) {
		got = append(got, n)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 node in window, got %d", len(got))
	}
	if got[0].Begin != 1000 {
		t.Fatalf("expected the second scope, got Begin=%d", got[0].Begin)
	}
}
