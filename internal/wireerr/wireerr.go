// Package wireerr is the closed vocabulary of stable wire error strings
// (spec.md §7), shaped after the teacher's small closed-vocabulary value
// types (e.g. world.TeamCode-style strings with their own marshaling)
// rather than a generic error interface.
package wireerr

// Code is a stable string sent to clients identifying the kind of failure.
// It is always accompanied by the offending request's seq and a free-text
// reason, never broadcast to anyone but the originating client.
type Code string

const (
	BadRequest        Code = "BadRequest"
	InvalidCoordinates Code = "InvalidCoordinates"
	InvalidParameters Code = "InvalidParameters"

	OutOfBounds Code = "OutOfBounds"

	BlockOccupied  Code = "BlockOccupied"
	InvalidBlockID Code = "InvalidBlockID"

	SetBlockFailed Code = "SetBlockFailed"

	ChunkGenerationFailed Code = "ChunkGenerationFailed"
	InternalServerError   Code = "InternalServerError"

	ServerFull Code = "ServerFull"
	InitFailed Code = "InitFailed"

	InvalidJSON Code = "InvalidJSON"
)

// Error is a typed validation/processing failure carrying the seq of the
// request that caused it, per spec's "echo the original seq" contract.
type Error struct {
	Seq    uint32
	Code   Code
	Reason string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Reason
}

// New builds an Error.
func New(seq uint32, code Code, reason string) *Error {
	return &Error{Seq: seq, Code: code, Reason: reason}
}
