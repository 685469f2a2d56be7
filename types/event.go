package types

import "strconv"

// EventAttribute is a single key-value tag within an event.
type EventAttribute struct {
	Key   string `cramberry:"1"`
	Value string `cramberry:"2"`
	Index bool   `cramberry:"3"` // Whether indexers should pick this up.
}

// Event is an application-emitted event. Events are part of the
// deterministic effect log and must be identical on every node.
type Event struct {
	Kind       string           `cramberry:"1"`
	Attributes []EventAttribute `cramberry:"2"`
}

// NewEvent creates an event from alternating key/value pairs.
func NewEvent(kind string, kv ...string) Event {
	e := Event{Kind: kind}
	for i := 0; i+1 < len(kv); i += 2 {
		e.Attributes = append(e.Attributes, EventAttribute{Key: kv[i], Value: kv[i+1], Index: true})
	}
	return e
}

// Uint formats an amount for an event attribute.
func Uint(v uint64) string { return strconv.FormatUint(v, 10) }
