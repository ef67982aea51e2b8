// Package wire holds the binary schemas for PlayerInput and Snapshot
// (spec.md §6). The teacher encodes its own wire types with jsoniter field
// hooks, not a positional binary codec (mk48's hot-path messages are JSON
// over a browser WebSocket); spec.md explicitly allows "any length-prefixed
// binary encoding" here and suggests "a table-based schema with stable
// accessors", so this package is a hand-rolled encoding/binary codec in
// that shape rather than an adaptation of a teacher file.
package wire

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrShortBuffer is returned when a Decode call does not have enough bytes
// to parse a complete frame.
var ErrShortBuffer = errors.New("wire: short buffer")

// playerInputSize is the fixed encoded size of PlayerInput, in bytes:
// seq(4) + intentX,Y,Z(4*3) + yaw(4) + 3 bools(1*3).
const playerInputSize = 4 + 12 + 4 + 3

// PlayerInput is one decoded client->server input frame (spec.md §3/§6).
type PlayerInput struct {
	seq            uint32
	intentX        float32
	intentY        float32
	intentZ        float32
	yaw            float32
	jumpPressed    bool
	flyDownPressed bool
	isFlying       bool
}

// NewPlayerInput builds a PlayerInput from already-validated fields.
func NewPlayerInput(seq uint32, intentX, intentY, intentZ, yaw float32, jumpPressed, flyDownPressed, isFlying bool) PlayerInput {
	return PlayerInput{
		seq: seq, intentX: intentX, intentY: intentY, intentZ: intentZ, yaw: yaw,
		jumpPressed: jumpPressed, flyDownPressed: flyDownPressed, isFlying: isFlying,
	}
}

func (p PlayerInput) Seq() uint32            { return p.seq }
func (p PlayerInput) IntentX() float32       { return p.intentX }
func (p PlayerInput) IntentY() float32       { return p.intentY }
func (p PlayerInput) IntentZ() float32       { return p.intentZ }
func (p PlayerInput) Yaw() float32           { return p.yaw }
func (p PlayerInput) JumpPressed() bool      { return p.jumpPressed }
func (p PlayerInput) FlyDownPressed() bool   { return p.flyDownPressed }
func (p PlayerInput) IsFlying() bool         { return p.isFlying }

// Finite reports whether every numeric field is a finite, non-NaN value —
// the rejection test spec.md §4.D requires before a frame is processed.
func (p PlayerInput) Finite() bool {
	return finite32(p.intentX) && finite32(p.intentY) && finite32(p.intentZ) && finite32(p.yaw)
}

// EncodePlayerInput writes p's fixed-size binary encoding, for client use.
func EncodePlayerInput(p PlayerInput) []byte {
	buf := make([]byte, playerInputSize)
	o := 0
	binary.LittleEndian.PutUint32(buf[o:], p.seq)
	o += 4
	putFloat32(buf[o:], p.intentX)
	o += 4
	putFloat32(buf[o:], p.intentY)
	o += 4
	putFloat32(buf[o:], p.intentZ)
	o += 4
	putFloat32(buf[o:], p.yaw)
	o += 4
	buf[o] = boolByte(p.jumpPressed)
	o++
	buf[o] = boolByte(p.flyDownPressed)
	o++
	buf[o] = boolByte(p.isFlying)
	return buf
}

// DecodePlayerInput parses one fixed-size PlayerInput frame from b.
func DecodePlayerInput(b []byte) (PlayerInput, error) {
	if len(b) < playerInputSize {
		return PlayerInput{}, ErrShortBuffer
	}
	o := 0
	seq := binary.LittleEndian.Uint32(b[o:])
	o += 4
	ix := getFloat32(b[o:])
	o += 4
	iy := getFloat32(b[o:])
	o += 4
	iz := getFloat32(b[o:])
	o += 4
	yaw := getFloat32(b[o:])
	o += 4
	jump := b[o] != 0
	o++
	flyDown := b[o] != 0
	o++
	flying := b[o] != 0

	return PlayerInput{
		seq: seq, intentX: ix, intentY: iy, intentZ: iz, yaw: yaw,
		jumpPressed: jump, flyDownPressed: flyDown, isFlying: flying,
	}, nil
}

func putFloat32(b []byte, f float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(f))
}

func getFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func finite32(f float32) bool {
	return !(f != f) && f > -math.MaxFloat32 && f < math.MaxFloat32
}
