// Package netmsg is the JSON tagged-union dispatch registry for the
// control-plane text messages of spec.md §6, adapted from
// server/message.go's registerInbound/registerOutbound registries and
// server/jsoniter.go's Config. The teacher peeks the discriminator field
// with a hand-rolled ReadObjectCB decoder operating on unsafe.Pointer,
// grounded in needing to support dozens of message types at high
// frequency; this spec's textual control plane is a small, low-frequency
// set (chunk requests, mine/place, init/leave), so peeking the
// discriminator with one extra lightweight Unmarshal into a small struct is
// the right-sized adaptation of the same idea, not a re-implementation of
// the unsafe-pointer machinery.
package netmsg

import (
	"fmt"
	"reflect"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// JSON is the shared codec configuration, matching server/jsoniter.go's
// Config: no HTML escaping (these are never embedded in a browser <script>
// tag, but the convention is worth keeping), sorted map keys for
// deterministic output, compact by default.
var JSON = jsoniter.Config{
	EscapeHTML:   false,
	SortMapKeys:  true,
	CaseSensitive: true,
}.Froze()

var registry = make(map[string]reflect.Type)

// Register associates typeName (the wire-level "type" or "commandType"
// discriminator value) with the zero value's Go type, so Decode can
// construct and unmarshal into fresh instances of it. Call from each
// feature package's init(), mirroring registerInbound's call-at-init-time
// convention.
func Register(typeName string, zero interface{}) {
	registry[typeName] = reflect.TypeOf(zero)
}

// discriminator extracts whichever of the two discriminator field names
// spec.md §6 uses is present on a given message ("type" for most messages,
// "commandType" for mineBlock/placeBlock).
type discriminator struct {
	Type        string `json:"type"`
	CommandType string `json:"commandType"`
}

// Decode peeks raw's discriminator field, looks up the registered Go type,
// and unmarshals raw into a fresh pointer of that type, returned as
// interface{}. Callers type-switch on the result.
func Decode(raw []byte) (interface{}, error) {
	var d discriminator
	if err := JSON.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("netmsg: invalid JSON: %w", err)
	}

	name := d.Type
	if name == "" {
		name = d.CommandType
	}
	if name == "" {
		return nil, fmt.Errorf("netmsg: message has no type or commandType field")
	}

	typ, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("netmsg: unknown message type %q", name)
	}

	ptr := reflect.New(typ)
	if err := JSON.Unmarshal(raw, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("netmsg: decoding %q: %w", name, err)
	}
	return ptr.Interface(), nil
}

// Encode marshals v as flat JSON (no envelope), matching how spec.md §6
// messages carry their own "type" field as an ordinary struct tag rather
// than a wrapper envelope.
func Encode(v interface{}) ([]byte, error) {
	return JSON.Marshal(v)
}

// uncapitalize mirrors the teacher's uncapitalize helper: it lowercases
// the first character of s. No message type in this repository calls it;
// every registered type states its wire name explicitly.
func uncapitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[0:1]) + s[1:]
}
