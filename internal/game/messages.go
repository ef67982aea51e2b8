// Textual JSON control-plane messages (spec.md §6), registered into
// internal/netmsg's dispatch table at init time the way server/inbound.go
// and server/outbound.go's types register into message.go's registries.
package game

import (
	"github.com/ashgrove/voxelkeep/internal/netmsg"
)

func init() {
	netmsg.Register("chunkRequest", ChunkRequest{})
	netmsg.Register("mineBlock", MineBlockCommand{})
	netmsg.Register("placeBlock", PlaceBlockCommand{})
}

// ChunkRequest is a client -> server request for one chunk's voxels.
type ChunkRequest struct {
	Type string `json:"type"`
	CX   int32  `json:"cx"`
	CZ   int32  `json:"cz"`
	LOD  int    `json:"lod"`
	Seq  uint32 `json:"seq,omitempty"`
}

// ChunkResponse answers a ChunkRequest with the chunk's raw voxel bytes.
type ChunkResponse struct {
	Type   string    `json:"type"`
	CX     int32     `json:"cx"`
	CZ     int32     `json:"cz"`
	LOD    int       `json:"lod"`
	Seq    uint32    `json:"seq,omitempty"`
	Voxels []byte    `json:"voxels"`
}

// ChunkResponseError answers a ChunkRequest that could not be fulfilled.
type ChunkResponseError struct {
	Type   string `json:"type"`
	CX     int32  `json:"cx"`
	CZ     int32  `json:"cz"`
	Seq    uint32 `json:"seq,omitempty"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// InitPlayer is one already-active remote player included in an Init message.
type InitPlayer struct {
	ID       string       `json:"id"`
	Position InitPosition `json:"position"`
}

// InitPosition is a plain {x,y,z} position, used where the wire format
// calls for an untyped position object rather than a full PlayerState.
type InitPosition struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Init is sent once per newly initialized connection (spec.md §6).
type Init struct {
	Type        string     `json:"type"`
	PlayerID    string     `json:"playerId"`
	InitialPos  InitPosition `json:"initialPos"`
	State       InitState  `json:"state"`
}

// InitState carries the already-initialized remote players at the moment
// a new connection finishes initializing.
type InitState struct {
	Players []InitPlayer `json:"players"`
}

// PlayerLeft is broadcast to all clients on disconnect (spec.md §6).
type PlayerLeft struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

// MineBlockCommand is a client -> server mine request.
type MineBlockCommand struct {
	CommandType   string `json:"commandType"`
	Seq           uint32 `json:"seq"`
	TargetVoxelX  int32  `json:"targetVoxelX"`
	TargetVoxelY  int32  `json:"targetVoxelY"`
	TargetVoxelZ  int32  `json:"targetVoxelZ"`
}

// PlaceBlockCommand is a client -> server place request.
type PlaceBlockCommand struct {
	CommandType   string `json:"commandType"`
	Seq           uint32 `json:"seq"`
	TargetVoxelX  int32  `json:"targetVoxelX"`
	TargetVoxelY  int32  `json:"targetVoxelY"`
	TargetVoxelZ  int32  `json:"targetVoxelZ"`
	BlockID       uint8  `json:"blockId"`
}

// MineError / PlaceError report a failed mine/place command to the
// originating client only, never broadcast (spec.md §7 policy).
type MineError struct {
	Type   string `json:"type"`
	Seq    uint32 `json:"seq"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type PlaceError struct {
	Type   string `json:"type"`
	Seq    uint32 `json:"seq"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// BlockUpdate is broadcast on a successful mine/place mutation.
type BlockUpdate struct {
	Type    string `json:"type"`
	ChunkX  int32  `json:"chunkX"`
	ChunkZ  int32  `json:"chunkZ"`
	RLEBytes []byte `json:"rleBytes"`
}
