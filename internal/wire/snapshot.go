package wire

import (
	"encoding/binary"
)

// PlayerState is one player's entry within a Snapshot (spec.md §6).
type PlayerState struct {
	id         string
	posX       float32
	posY       float32
	posZ       float32
	velX       float32
	velY       float32
	velZ       float32
	yaw        float32
	isGrounded bool
	isFlying   bool
	lastAck    uint32
}

// NewPlayerState builds a PlayerState record for encoding.
func NewPlayerState(id string, posX, posY, posZ, velX, velY, velZ, yaw float32, isGrounded, isFlying bool, lastAck uint32) PlayerState {
	return PlayerState{
		id: id, posX: posX, posY: posY, posZ: posZ,
		velX: velX, velY: velY, velZ: velZ, yaw: yaw,
		isGrounded: isGrounded, isFlying: isFlying, lastAck: lastAck,
	}
}

func (p PlayerState) ID() string        { return p.id }
func (p PlayerState) Position() (x, y, z float32) { return p.posX, p.posY, p.posZ }
func (p PlayerState) Velocity() (x, y, z float32) { return p.velX, p.velY, p.velZ }
func (p PlayerState) Yaw() float32      { return p.yaw }
func (p PlayerState) IsGrounded() bool  { return p.isGrounded }
func (p PlayerState) IsFlying() bool    { return p.isFlying }
func (p PlayerState) LastAck() uint32   { return p.lastAck }

// Snapshot is one server->clients broadcast frame (spec.md §6).
type Snapshot struct {
	tick    uint32
	players []PlayerState
}

// NewSnapshot builds a Snapshot for encoding.
func NewSnapshot(tick uint32, players []PlayerState) Snapshot {
	return Snapshot{tick: tick, players: players}
}

func (s Snapshot) Tick() uint32             { return s.tick }
func (s Snapshot) Players() []PlayerState   { return s.players }

// playerStateSize returns id's length-prefix plus body size for one PlayerState.
func playerStateSize(id string) int {
	// idLen(2) + id bytes + pos(12) + vel(12) + yaw(4) + 2 bools(1*2) + lastAck(4)
	return 2 + len(id) + 12 + 12 + 4 + 2 + 4
}

// EncodeSnapshot writes s's binary encoding: tick, player count, then each
// player record length-prefixed only on its variable-length id field.
func EncodeSnapshot(s Snapshot) []byte {
	size := 4 + 2 // tick + player count
	for _, p := range s.players {
		size += playerStateSize(p.id)
	}
	buf := make([]byte, size)

	o := 0
	binary.LittleEndian.PutUint32(buf[o:], s.tick)
	o += 4
	binary.LittleEndian.PutUint16(buf[o:], uint16(len(s.players)))
	o += 2

	for _, p := range s.players {
		binary.LittleEndian.PutUint16(buf[o:], uint16(len(p.id)))
		o += 2
		o += copy(buf[o:], p.id)
		putFloat32(buf[o:], p.posX)
		o += 4
		putFloat32(buf[o:], p.posY)
		o += 4
		putFloat32(buf[o:], p.posZ)
		o += 4
		putFloat32(buf[o:], p.velX)
		o += 4
		putFloat32(buf[o:], p.velY)
		o += 4
		putFloat32(buf[o:], p.velZ)
		o += 4
		putFloat32(buf[o:], p.yaw)
		o += 4
		buf[o] = boolByte(p.isGrounded)
		o++
		buf[o] = boolByte(p.isFlying)
		o++
		binary.LittleEndian.PutUint32(buf[o:], p.lastAck)
		o += 4
	}
	return buf
}

// DecodeSnapshot parses a Snapshot previously written by EncodeSnapshot.
func DecodeSnapshot(b []byte) (Snapshot, error) {
	if len(b) < 6 {
		return Snapshot{}, ErrShortBuffer
	}
	o := 0
	tick := binary.LittleEndian.Uint32(b[o:])
	o += 4
	count := int(binary.LittleEndian.Uint16(b[o:]))
	o += 2

	players := make([]PlayerState, 0, count)
	for i := 0; i < count; i++ {
		if o+2 > len(b) {
			return Snapshot{}, ErrShortBuffer
		}
		idLen := int(binary.LittleEndian.Uint16(b[o:]))
		o += 2
		if o+idLen+12+12+4+2+4 > len(b) {
			return Snapshot{}, ErrShortBuffer
		}
		id := string(b[o : o+idLen])
		o += idLen

		posX := getFloat32(b[o:])
		o += 4
		posY := getFloat32(b[o:])
		o += 4
		posZ := getFloat32(b[o:])
		o += 4
		velX := getFloat32(b[o:])
		o += 4
		velY := getFloat32(b[o:])
		o += 4
		velZ := getFloat32(b[o:])
		o += 4
		yaw := getFloat32(b[o:])
		o += 4
		grounded := b[o] != 0
		o++
		flying := b[o] != 0
		o++
		lastAck := binary.LittleEndian.Uint32(b[o:])
		o += 4

		players = append(players, PlayerState{
			id: id, posX: posX, posY: posY, posZ: posZ,
			velX: velX, velY: velY, velZ: velZ, yaw: yaw,
			isGrounded: grounded, isFlying: flying, lastAck: lastAck,
		})
	}

	return Snapshot{tick: tick, players: players}, nil
}
