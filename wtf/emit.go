package wtf

import (
	"encoding/json"
	"fmt"

	"github.com/kestrelgfx/tracecore/bufbuilder"
	"github.com/kestrelgfx/tracecore/recorder"
	"github.com/kestrelgfx/tracecore/strtab"
)

// FileHeader is the opaque JSON payload of chunk 1. AppName becomes
// contextInfo.title; Timebase is the wall-clock epoch the trace's
// microsecond timestamps are relative to.
type FileHeader struct {
	AppName  string
	Timebase float64
}

func (h FileHeader) marshal() []byte {
	doc := map[string]any{
		"type":     "file_header",
		"flags":    []string{"has_high_resolution_times"},
		"timebase": h.Timebase,
		"contextInfo": map[string]any{
			"contextType": "script",
			"title":       h.AppName,
			"args":        []any{},
			"taskId":      "",
			"userAgent":   map[string]any{},
			"icon":        map[string]any{},
		},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		// doc is a fixed, statically JSON-safe literal; this cannot fail.
		panic(err)
	}
	return b
}

// eventDef is one built-in wire event's name and optional argument
// signature, in event-definition string table order.
type eventDef struct {
	id   uint32
	name string
	sig  string // empty if the event takes no documented signature string
}

var builtinEventDefs = []eventDef{
	{recorder.WireEventDefine, "wtf.event#define", "uint16 wireId, uint16 eventClass, uint32 flags, ascii name, ascii args"},
	{recorder.WireTraceDiscontinuity, "wtf.trace#discontinuity", ""},
	{recorder.WireZoneCreate, "wtf.zone#create", "uint16 zoneId, ascii name, ascii type, ascii location"},
	{recorder.WireZoneDelete, "wtf.zone#delete", "uint16 zoneId"},
	{recorder.WireZoneSet, "wtf.zone#set", "uint16 zoneId"},
	{recorder.WireScopeEnter, "wtf.scope#enter", "ascii name"},
	{recorder.WireScopeEnterTracing, "wtf.scope#enterTracing", ""},
	{recorder.WireScopeLeave, "wtf.scope#leave", ""},
	{recorder.WireScopeAppendData, "wtf.scope#appendData", "ascii name, any value"},
	{recorder.WireTraceMark, "wtf.trace#mark", "ascii name, any value"},
	{recorder.WireTraceTimeStamp, "wtf.trace#timeStamp", "ascii name, any value"},
	{recorder.WireTimeRangeBegin, "wtf.timeRange#begin", "uint32 id, ascii name, any value"},
	{recorder.WireTimeRangeEnd, "wtf.timeRange#end", "uint32 id"},
	{recorder.WireTimingFrameStart, "wtf.timing#frameStart", "uint32 number"},
	{recorder.WireTimingFrameEnd, "wtf.timing#frameEnd", "uint32 number"},
	{recorder.WireScopeAppendDataURL, "wtf.scope#appendData_url_utf8", "utf8 url"},
	{recorder.WireScopeAppendDataReadyState, "wtf.scope#appendData_readyState_int32", "int32 readyState"},
}

// buildEventDefsChunk assembles chunk 2: the event-definition string table
// (built-in names/signatures followed by every custom scope name) and the
// event#define rows describing each wire id.
func buildEventDefsChunk(scopeNames []string) []byte {
	strs := strtab.New()
	nameIdx := make(map[uint32]uint32, len(builtinEventDefs))
	sigIdx := make(map[uint32]uint32, len(builtinEventDefs))
	for _, d := range builtinEventDefs {
		nameIdx[d.id] = strs.Intern(d.name)
		if d.sig != "" {
			sigIdx[d.id] = strs.Intern(d.sig)
		} else {
			sigIdx[d.id] = strtab.NoIndex
		}
	}
	scopeNameIdx := make([]uint32, len(scopeNames))
	for i, name := range scopeNames {
		scopeNameIdx[i] = strs.Intern(name)
	}

	strBuilder := bufbuilder.New(256)
	for _, s := range strs.Snapshot() {
		strBuilder.AppendCString(s)
	}

	events := bufbuilder.New(256)
	for _, d := range builtinEventDefs {
		events.AppendU16(uint16(d.id))
		events.AppendU16(1) // eventClass
		events.AppendU32(0) // flags
		events.AppendU32(nameIdx[d.id])
		events.AppendU32(sigIdx[d.id])
	}
	for i, idx := range scopeNameIdx {
		wireID := recorder.CustomScopeBase + uint32(i)
		events.AppendU16(uint16(wireID))
		events.AppendU16(1)
		events.AppendU32(0)
		events.AppendU32(idx)
		events.AppendU32(strtab.NoIndex)
	}

	return buildChunk(ChunkIDEventDefs, ChunkTypeData, 0, 0, []part{
		{ptype: PartTypeStrings, payload: strBuilder.Build()},
		{ptype: PartTypeEvents, payload: events.Build()},
	})
}

// buildTraceChunk assembles chunk 3: the general string table (plus the
// fixed zone-metadata literals and one name per zone) followed by, per
// recorder in registry order, a zone#create/zone#set pair and that
// recorder's dumped events.
func buildTraceChunk(generalNames []string, recorders []*recorder.Recorder) []byte {
	allNames := make([]string, len(generalNames), len(generalNames)+2+len(recorders))
	copy(allNames, generalNames)
	scriptIdx := uint32(len(allNames))
	allNames = append(allNames, "script")
	locationIdx := uint32(len(allNames))
	allNames = append(allNames, "Some_Location")

	zoneNameIdx := make([]uint32, len(recorders))
	for i := range recorders {
		zoneNameIdx[i] = uint32(len(allNames))
		allNames = append(allNames, fmt.Sprintf("Thread_%d", i+1))
	}

	strBuilder := bufbuilder.New(512)
	for _, s := range allNames {
		strBuilder.AppendCString(s)
	}

	events := bufbuilder.New(1024)
	for i, rec := range recorders {
		zoneID := uint32(i + 1)

		events.AppendU32(recorder.WireZoneCreate)
		events.AppendU32(0)
		events.AppendU32(zoneID)
		events.AppendU32(zoneNameIdx[i])
		events.AppendU32(scriptIdx)
		events.AppendU32(locationIdx)

		events.AppendU32(recorder.WireZoneSet)
		events.AppendU32(0)
		events.AppendU32(zoneID)

		rec.Dump(events)
	}

	return buildChunk(ChunkIDTrace, ChunkTypeData, 0, 0, []part{
		{ptype: PartTypeStrings, payload: strBuilder.Build()},
		{ptype: PartTypeEvents, payload: events.Build()},
	})
}

// Emit produces a complete WTF binary trace stream: the file-header chunk,
// the event-definitions chunk, and the trace chunk, in that order.
func Emit(header FileHeader, names, scopeNames *strtab.Table, recorders []*recorder.Recorder) []byte {
	out := buildChunk(ChunkIDFileHeader, ChunkTypeHeader, 0, 0, []part{
		{ptype: PartTypeHeader, payload: header.marshal()},
	})
	out = append(out, buildEventDefsChunk(scopeNames.Snapshot())...)
	out = append(out, buildTraceChunk(names.Snapshot(), recorders)...)
	return out
}
