package timeline

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/kestrelgfx/tracecore/recorder"
	"github.com/kestrelgfx/tracecore/strtab"
)

// Timeline is the reconstructed tree rooted at a single Root node.
type Timeline struct {
	root *Node
}

// Root returns the timeline's root node.
func (t *Timeline) Root() *Node { return t.root }

// Build reconstructs a Timeline from the given recorders' current contents.
// names resolves general-table indices (annotation/value/range/thread
// names); scopeNames resolves custom scope event ids (offset by
// recorder.CustomScopeBase).
func Build(recorders []*recorder.Recorder, names, scopeNames *strtab.Table) *Timeline {
	root := &Node{Type: Root}
	for _, rec := range recorders {
		buildThread(root, rec, names, scopeNames)
	}
	return &Timeline{root: root}
}

func buildThread(root *Node, rec *recorder.Recorder, names, scopeNames *strtab.Table) {
	thread := &Node{Type: Thread, Name: rec.Name(), ThreadID: rec.ID()}
	root.addChild(thread)

	var (
		stack      []*Node
		parentCand = thread
		lastTS     uint32
		haveLastTS bool
	)

	lookup := func(idx uint32) string {
		if idx == strtab.NoIndex {
			return ""
		}
		s, err := names.Get(idx)
		if err != nil {
			return ""
		}
		return s
	}

	advanceParentCandidate := func(ts uint32) {
		for parentCand.Parent != nil && parentCand.closed && parentCand.End() < ts {
			if len(stack) > 0 && parentCand == stack[len(stack)-1] {
				break
			}
			parentCand = parentCand.Parent
		}
	}

	popMatching := func(pred func(*Node) bool) *Node {
		for i := len(stack) - 1; i >= 0; i-- {
			if pred(stack[i]) {
				n := stack[i]
				stack = append(stack[:i], stack[i+1:]...)
				return n
			}
		}
		return nil
	}

	topOfStack := func() *Node {
		if len(stack) == 0 {
			return thread
		}
		return stack[len(stack)-1]
	}

	for _, rec := range rec.SnapshotRecords() {
		ts := rec.Timestamp
		if haveLastTS && ts < lastTS {
			log.Printf("tracecore: timeline: non-monotonic timestamp on recorder %d (%d < %d)", thread.ThreadID, ts, lastTS)
		}
		lastTS = ts
		haveLastTS = true

		advanceParentCandidate(ts)

		switch {
		case rec.WireID == recorder.WireTimeRangeBegin:
			rangeID, nameIdx := rec.Args[0], rec.Args[1]
			n := &Node{Type: Range, Name: lookup(nameIdx), ThreadID: thread.ThreadID, Begin: ts, rangeID: rangeID}
			parentCand.addChild(n)
			stack = append(stack, n)
			parentCand = n

		case rec.WireID == recorder.WireTimeRangeEnd:
			rangeID := rec.Args[0]
			n := popMatching(func(c *Node) bool { return c.Type == Range && c.rangeID == rangeID })
			if n == nil {
				continue
			}
			n.Duration = ts - n.Begin
			n.closed = true
			parentCand = n.Parent

		case rec.WireID == recorder.WireTimingFrameStart:
			frameNumber := rec.Args[0]
			n := &Node{Type: Frame, Name: frameName(frameNumber), ThreadID: thread.ThreadID, Begin: ts}
			parentCand.addChild(n)
			stack = append(stack, n)
			parentCand = n

		case rec.WireID == recorder.WireTimingFrameEnd:
			n := popMatching(func(c *Node) bool { return c.Type == Frame })
			if n == nil {
				continue
			}
			n.Duration = ts - n.Begin
			n.closed = true
			parentCand = n.Parent

		case rec.WireID == recorder.WireScopeLeave:
			n := popMatching(func(c *Node) bool { return c.Type == Scope })
			if n == nil {
				continue
			}
			n.Duration = ts - n.Begin
			n.closed = true
			parentCand = n.Parent

		case rec.WireID == recorder.WireScopeAppendData:
			nameIdx, valueIdx := rec.Args[0], rec.Args[1]
			target := topOfStack()
			target.setArg(lookup(nameIdx), decodeJSONValue(lookup(valueIdx)))

		case rec.WireID == recorder.WireTraceTimeStamp || rec.WireID == recorder.WireTraceMark:
			nameIdx, valueIdx := rec.Args[0], rec.Args[1]
			n := &Node{Type: Event, Name: lookup(nameIdx), ThreadID: thread.ThreadID, Begin: ts, closed: true}
			if v := lookup(valueIdx); v != "" {
				n.setArg("value", decodeJSONValue(v))
			}
			parentCand.addChild(n)

		case recorder.IsCustomScope(rec.WireID):
			idx := rec.WireID - recorder.CustomScopeBase
			name, err := scopeNames.Get(idx)
			if err != nil {
				name = ""
			}
			n := &Node{Type: Scope, Name: name, ThreadID: thread.ThreadID, Begin: ts}
			parentCand.addChild(n)
			stack = append(stack, n)
			parentCand = n

		case rec.WireID == recorder.WireScopeEnter:
			nameIdx := rec.Args[0]
			n := &Node{Type: Scope, Name: lookup(nameIdx), ThreadID: thread.ThreadID, Begin: ts}
			parentCand.addChild(n)
			stack = append(stack, n)
			parentCand = n
		}
	}
}

func frameName(frameNumber uint32) string {
	return fmt.Sprintf("Frame %d", frameNumber)
}

func decodeJSONValue(s string) any {
	if s == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
