// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package game

import (
	"log"
	"net/http"
	"time"

	"github.com/ashgrove/voxelkeep/internal/blockops"
	"github.com/ashgrove/voxelkeep/internal/chunkstore"
	"github.com/ashgrove/voxelkeep/internal/collider"
	"github.com/ashgrove/voxelkeep/internal/gc"
	"github.com/ashgrove/voxelkeep/internal/idgen"
	"github.com/ashgrove/voxelkeep/internal/movement"
	"github.com/ashgrove/voxelkeep/internal/physics"
	"github.com/ashgrove/voxelkeep/internal/rle"
	"github.com/ashgrove/voxelkeep/internal/stats"
	"github.com/ashgrove/voxelkeep/internal/voxel"
	"github.com/ashgrove/voxelkeep/internal/wire"
	"github.com/ashgrove/voxelkeep/internal/wireerr"
	"github.com/ashgrove/voxelkeep/internal/world"
)

// snapshotEveryTicks broadcasts a Snapshot every other tick (15 Hz at a
// 30 Hz fixed step), per spec.md §4.E step 7.
const snapshotEveryTicks = 2

// gcEveryTicks runs proximity GC every 60 s of ticks, per spec.md §4.E step 8.
const gcEveryTicks = 60 * int(world.TicksPerSecond)

// initialChunkRadius is how many chunks around the origin are pre-warmed
// before initial_server_load_complete can become true (spec.md §4.C/E).
// spec.md's scenario 1 only requires the (0,0) chunk pre-warmed; a small
// surrounding radius is carried so a lone spawned player always has solid
// ground immediately to their sides too.
const initialChunkRadius = 1

// HubOptions configures a new Hub, mirroring server_main/main.go's flag-fed
// construction of server.HubOptions.
type HubOptions struct {
	Seed           int64
	MaxConnections int
	Cloud          stats.Cloud
}

// signedInbound pairs one decoded message (binary PlayerInput or a JSON
// control message) with the client it arrived from, mirroring
// server/message.go's SignedInbound.
type signedInbound struct {
	client Client
	input  *wire.PlayerInput
	json   interface{}
}

// pendingChunkWait is one chunk-dependent reply parked until future
// resolves. run is called at most once, with the resolved chunk (nil on
// generation failure) and the error Future.Wait would have returned.
type pendingChunkWait struct {
	future *chunkstore.Future
	run    func(*voxel.Chunk, error)
}

// Hub is the authoritative simulation: the event loop adapted line-for-line
// in structure from server/hub.go's Hub.run, generalized from boat-combat
// bookkeeping to voxel simulation bookkeeping.
type Hub struct {
	opts HubOptions

	clients ClientList
	players map[string]*Player

	store    *chunkstore.Store
	colliders *collider.Queues
	physics  *physics.World
	sweeper  *gc.Sweeper

	cloud stats.Cloud

	awaiting []*Player

	initialChunksRemaining     int
	expectedInitialColliders   int
	processedInitialColliders  int
	initialServerLoadComplete bool

	// pendingChunkWaits holds chunk-dependent replies (chunk requests,
	// mine/place commands) that are waiting on a Future not yet resolved,
	// so dispatch never blocks the event loop on Future.Wait (spec.md
	// §5: the tick loop never suspends mid-step). Drained every Tick,
	// right after Store.Drain gives any of them a chance to resolve.
	pendingChunkWaits []pendingChunkWait

	tick uint32

	register   chan Client
	unregister chan Client
	inbound    chan signedInbound

	ticker *time.Ticker
}

// NewHub constructs a Hub and pre-warms the initial chunk set. It does not
// start the tick loop; call Run for that.
func NewHub(opts HubOptions) *Hub {
	h := &Hub{
		opts:      opts,
		players:   make(map[string]*Player),
		colliders: collider.NewQueues(),
		physics:   physics.New(),
		sweeper:   gc.NewSweeper(),
		cloud:     opts.Cloud,

		register:   make(chan Client, 8),
		unregister: make(chan Client, 8),
		inbound:    make(chan signedInbound, 64),

		ticker: time.NewTicker(world.TickPeriod),
	}
	if h.cloud == nil {
		h.cloud = stats.Offline{}
	}

	h.store = chunkstore.New(opts.Seed, h.onChunkGenerated)

	for cz := -initialChunkRadius; cz <= initialChunkRadius; cz++ {
		for cx := -initialChunkRadius; cx <= initialChunkRadius; cx++ {
			h.initialChunksRemaining++
			h.store.GetOrCreate(voxel.Key{CX: int32(cx), CZ: int32(cz), LOD: voxel.High})
		}
	}

	return h
}

// onChunkGenerated is chunkstore.OnGenerated: it runs on the simulation
// goroutine (via Store.Drain) and enqueues the chunk's collider build,
// matching spec.md §4.A's "generator hands the chunk to §4.B".
func (h *Hub) onChunkGenerated(c *voxel.Chunk) {
	before := h.colliders.PendingCreates()
	collider.BuildInto(c, h.colliders, h.physics)
	enqueued := h.colliders.PendingCreates() - before

	if h.initialChunksRemaining > 0 {
		h.initialChunksRemaining--
		h.expectedInitialColliders += enqueued
	}
}

// Run is the Hub's event loop, adapted from Hub.run: register/unregister
// clients, dispatch inbound messages as they arrive, and step the
// simulation on a fixed ticker. Every cloud.UpdatePeriod() it reports the
// player count and flushes the buffered stats. Blocks until stopped by the
// caller's process exiting; the teacher's hub never returns either.
func (h *Hub) Run() {
	statsTicker := time.NewTicker(h.cloud.UpdatePeriod())
	defer statsTicker.Stop()
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case in := <-h.inbound:
			h.dispatch(in)
		case <-h.ticker.C:
			h.Tick()
		case <-statsTicker.C:
			if err := h.cloud.UpdateServer(len(h.players)); err != nil {
				log.Printf("game: stats update error: %v", err)
			}
			go func(cloud stats.Cloud) {
				if err := cloud.FlushStatistics(); err != nil {
					log.Printf("game: stats flush error: %v", err)
				}
			}(h.cloud)
		}
	}
}

// Register queues client for addition to the Hub, enforcing the
// connection cap with a ServerFull rejection (spec.md §4.C).
func (h *Hub) Register(client Client) bool {
	if h.opts.MaxConnections > 0 && h.clients.Len >= h.opts.MaxConnections {
		client.SendJSON(chunkErrorServerFull())
		client.Destroy()
		return false
	}
	h.register <- client
	return true
}

func chunkErrorServerFull() interface{} {
	return struct {
		Type   string `json:"type"`
		Code   string `json:"code"`
		Reason string `json:"reason"`
	}{Type: "serverFull", Code: string(wireerr.ServerFull), Reason: "server is full"}
}

func (h *Hub) registerClient(client Client) {
	id := idgen.New(func(id string) bool {
		_, exists := h.players[id]
		return exists
	})

	player := &Player{ID: id, AwaitingInit: true}
	h.players[id] = player

	data := client.Data()
	data.Player = player
	data.Hub = h

	h.clients.Add(client)
	client.Init()

	h.awaiting = append(h.awaiting, player)
}

func (h *Hub) unregisterClient(client Client) {
	client.Close()

	player := client.Data().Player
	if player == nil {
		return
	}

	if player.HasBody {
		h.physics.RemoveBody(player.Body)
	}
	delete(h.players, player.ID)
	h.removeFromAwaiting(player)

	data := client.Data()
	data.Hub = nil
	h.clients.Remove(client)

	h.broadcastJSON(PlayerLeft{Type: "playerLeft", PlayerID: player.ID})
}

func (h *Hub) removeFromAwaiting(player *Player) {
	for i, p := range h.awaiting {
		if p == player {
			h.awaiting = append(h.awaiting[:i], h.awaiting[i+1:]...)
			return
		}
	}
}

// withChunk runs fn with the chunk a future resolves to, without ever
// blocking the caller: if the future is already resolved it runs fn
// immediately, otherwise it parks fn until the next Tick after the future
// resolves (see drainPendingChunkWaits). This is what keeps
// handleChunkRequest/handleMine/handlePlace from stalling the event loop
// on Future.Wait the way the teacher's corresponding handlers never had
// to worry about, since voxel chunks have no equivalent in server/hub.go.
func (h *Hub) withChunk(future *chunkstore.Future, fn func(*voxel.Chunk, error)) {
	select {
	case <-future.Done():
		fn(future.Wait())
	default:
		h.pendingChunkWaits = append(h.pendingChunkWaits, pendingChunkWait{future: future, run: fn})
	}
}

// drainPendingChunkWaits resolves any parked chunk-dependent replies whose
// future has finished since it was parked. Called once per Tick, right
// after Store.Drain gives generation workers' results a chance to land.
func (h *Hub) drainPendingChunkWaits() {
	if len(h.pendingChunkWaits) == 0 {
		return
	}
	remaining := h.pendingChunkWaits[:0]
	for _, p := range h.pendingChunkWaits {
		select {
		case <-p.future.Done():
			p.run(p.future.Wait())
		default:
			remaining = append(remaining, p)
		}
	}
	h.pendingChunkWaits = remaining
}

func (h *Hub) dispatch(in signedInbound) {
	// If the client has since been unregistered, the message is stale.
	if in.client.Data().Hub != h {
		return
	}
	player := in.client.Data().Player
	if player == nil {
		return
	}

	if in.input != nil {
		h.applyInput(player, *in.input)
		return
	}

	switch msg := in.json.(type) {
	case *ChunkRequest:
		h.handleChunkRequest(in.client, msg)
	case *MineBlockCommand:
		h.handleMine(in.client, player, msg)
	case *PlaceBlockCommand:
		h.handlePlace(in.client, player, msg)
	default:
		log.Printf("game: unhandled message type %T", msg)
	}
}

// applyInput processes one PlayerInput frame immediately on arrival,
// matching spec.md §4.D ("each binary input frame is bound to a player")
// and the teacher's inbound-channel dispatch happening independent of the
// tick ticker.
func (h *Hub) applyInput(player *Player, in wire.PlayerInput) {
	if !player.HasBody {
		log.Printf("game: input for uninitialized player %s dropped", player.ID)
		return
	}
	if !in.Finite() {
		return
	}

	pos, ok := h.physics.Translation(player.Body)
	if !ok {
		return
	}
	vel, _ := h.physics.LinearVelocity(player.Body)

	state := movement.State{Position: pos, Velocity: vel}
	mvIn := movement.Input{
		Seq: in.Seq(), IntentX: in.IntentX(), IntentZ: in.IntentZ(), Yaw: in.Yaw(),
		JumpPressed: in.JumpPressed(), FlyDownPressed: in.FlyDownPressed(), IsFlying: in.IsFlying(),
	}

	result := movement.Step(physics.GroundRay{World: h.physics}, &state, mvIn)
	if result.VelocityApplied {
		h.physics.SetLinearVelocity(player.Body, state.Velocity)
	}

	player.LastProcessedInputSeq = in.Seq()
	player.LastYaw = in.Yaw()
	player.IsFlying = in.IsFlying()
	player.HadMovementIntent = mvIn.IntentX != 0 || mvIn.IntentZ != 0
}

// Tick runs one fixed simulation step, in the exact order spec.md §4.E
// specifies.
func (h *Hub) Tick() {
	start := time.Now()

	h.store.Drain()
	h.drainPendingChunkWaits()

	created := h.colliders.DrainCreates(h.physics)
	h.colliders.DrainRemoves(h.physics)

	if !h.initialServerLoadComplete {
		h.processedInitialColliders += created

		if h.initialChunksRemaining == 0 && h.processedInitialCreatesCaughtUp() {
			h.initialServerLoadComplete = true
		}
	}

	if h.initialServerLoadComplete {
		h.initializeAwaitingPlayers()
	}

	h.physics.Step(float32(world.TickPeriod.Seconds()))

	for _, p := range h.players {
		if p.HasBody && p.IsFlying {
			vel, ok := h.physics.LinearVelocity(p.Body)
			if ok {
				movement.ClampFlyingY(&vel)
				h.physics.SetLinearVelocity(p.Body, vel)
			}
		}
	}

	h.tick++
	if h.tick%snapshotEveryTicks == 0 {
		h.broadcastSnapshot()
	}
	if int(h.tick)%gcEveryTicks == 0 {
		h.runGC()
	}

	h.cloud.RecordTick(time.Since(start))
}

// processedInitialCreatesCaughtUp reports whether every collider expected
// from the pre-warmed initial chunk set has actually been created,
// matching spec.md §4.E step 3's "processed-initial >= expected-initial".
func (h *Hub) processedInitialCreatesCaughtUp() bool {
	return h.processedInitialColliders >= h.expectedInitialColliders
}

func (h *Hub) initializeAwaitingPlayers() {
	if len(h.awaiting) == 0 {
		return
	}
	ready := h.awaiting
	h.awaiting = nil

	for _, player := range ready {
		h.initializePlayer(player)
	}
}

func (h *Hub) initializePlayer(player *Player) {
	spawnChunkKey := voxel.Key{CX: 0, CZ: 0, LOD: voxel.High}
	chunk, ok := h.store.Get(spawnChunkKey)
	if !ok {
		// Should not happen: the origin chunk is part of the pre-warmed set.
		log.Printf("game: spawn chunk missing for player %s", player.ID)
		h.awaiting = append(h.awaiting, player)
		return
	}

	top := chunk.HeightAt(0, 0)
	spawnY := float32(top) + 1 + movement.HalfHeight + 0.05

	body := h.physics.CreateCapsuleBody(world.Vec3{0, spawnY, 0}, physics.DefaultCapsule)
	player.Body = body
	player.HasBody = true
	player.AwaitingInit = false

	var remote []InitPlayer
	for _, other := range h.players {
		if other == player || !other.HasBody {
			continue
		}
		pos, ok := h.physics.Translation(other.Body)
		if !ok {
			continue
		}
		remote = append(remote, InitPlayer{
			ID:       other.ID,
			Position: InitPosition{X: pos[0], Y: pos[1], Z: pos[2]},
		})
	}

	client := h.clientFor(player)
	if client != nil {
		client.SendJSON(Init{
			Type:       "init",
			PlayerID:   player.ID,
			InitialPos: InitPosition{X: 0, Y: spawnY, Z: 0},
			State:      InitState{Players: remote},
		})
	}
}

func (h *Hub) clientFor(player *Player) Client {
	for c := h.clients.First; c != nil; c = c.Data().Next {
		if c.Data().Player == player {
			return c
		}
	}
	return nil
}

func (h *Hub) broadcastSnapshot() {
	var states []wire.PlayerState
	for _, p := range h.players {
		if !p.HasBody {
			continue
		}
		pos, ok := h.physics.Translation(p.Body)
		if !ok {
			continue
		}
		vel, _ := h.physics.LinearVelocity(p.Body)
		grounded := physics.GroundRay{World: h.physics}.RaycastDown(
			world.Vec3{pos[0], pos[1] - movement.HalfHeight + movement.GroundTestSkin, pos[2]},
			movement.GroundTestMaxToi,
		)

		states = append(states, wire.NewPlayerState(
			p.ID, pos[0], pos[1], pos[2], vel[0], vel[1], vel[2], p.LastYaw,
			grounded, p.IsFlying, p.LastProcessedInputSeq,
		))
	}

	snapshot := wire.NewSnapshot(h.tick, states)
	encoded := wire.EncodeSnapshot(snapshot)

	for c := h.clients.First; c != nil; c = c.Data().Next {
		c.SendBinary(encoded)
	}
}

func (h *Hub) runGC() {
	var positions []gc.PlayerPosition
	for _, p := range h.players {
		if !p.HasBody {
			continue
		}
		pos, ok := h.physics.Translation(p.Body)
		if !ok {
			continue
		}
		positions = append(positions, gc.PlayerPosition{X: pos[0], Z: pos[2]})
	}

	before := h.colliders.PendingRemoves()
	h.sweeper.Sweep(h.store, h.colliders, positions)
	retired := h.colliders.PendingRemoves() - before
	h.cloud.RecordGCSweep(retired)
}

func (h *Hub) broadcastJSON(v interface{}) {
	for c := h.clients.First; c != nil; c = c.Data().Next {
		c.SendJSON(v)
	}
}

func (h *Hub) handleChunkRequest(client Client, req *ChunkRequest) {
	lod := voxel.High
	if req.LOD == 1 {
		lod = voxel.Low
	}
	key := voxel.Key{CX: req.CX, CZ: req.CZ, LOD: lod}

	future := h.store.GetOrCreate(key)
	h.withChunk(future, func(chunk *voxel.Chunk, err error) {
		if err != nil {
			client.SendJSON(ChunkResponseError{
				Type: "chunkResponseError", CX: req.CX, CZ: req.CZ, Seq: req.Seq,
				Code: string(wireerr.ChunkGenerationFailed), Reason: err.Error(),
			})
			return
		}

		voxels := make([]byte, len(chunk.Voxels))
		for i, v := range chunk.Voxels {
			voxels[i] = byte(v)
		}

		client.SendJSON(ChunkResponse{
			Type: "chunkResponse", CX: req.CX, CZ: req.CZ, LOD: req.LOD, Seq: req.Seq, Voxels: voxels,
		})
	})
}

func (h *Hub) handleMine(client Client, player *Player, cmd *MineBlockCommand) {
	req := blockops.Request{
		Seq: cmd.Seq, X: cmd.TargetVoxelX, Y: cmd.TargetVoxelY, Z: cmd.TargetVoxelZ,
	}
	h.handleBlockOp(client, req, true)
}

func (h *Hub) handlePlace(client Client, player *Player, cmd *PlaceBlockCommand) {
	req := blockops.Request{
		Seq: cmd.Seq, X: cmd.TargetVoxelX, Y: cmd.TargetVoxelY, Z: cmd.TargetVoxelZ,
		BlockID: voxel.BlockID(cmd.BlockID),
	}
	h.handleBlockOp(client, req, false)
}

// handleBlockOp resolves req's target chunk through withChunk (never
// blocking the event loop) and then runs the mine/place mutation once the
// chunk is actually available.
func (h *Hub) handleBlockOp(client Client, req blockops.Request, mine bool) {
	if werr := blockops.Validate(req); werr != nil {
		h.finishBlockOp(client, nil, werr, mine)
		return
	}

	future := h.store.GetOrCreate(blockops.KeyFor(req))
	h.withChunk(future, func(chunk *voxel.Chunk, err error) {
		if err != nil {
			h.finishBlockOp(client, nil, wireerr.New(req.Seq, wireerr.ChunkGenerationFailed, err.Error()), mine)
			return
		}

		var result *blockops.Result
		var werr *wireerr.Error
		if mine {
			result, werr = blockops.Mine(chunk, h.colliders, h.physics, req)
		} else {
			result, werr = blockops.Place(chunk, h.colliders, h.physics, req)
		}
		h.finishBlockOp(client, result, werr, mine)
	})
}

func (h *Hub) finishBlockOp(client Client, result *blockops.Result, werr *wireerr.Error, mine bool) {
	if werr != nil {
		if mine {
			client.SendJSON(MineError{Type: "mineError", Seq: werr.Seq, Code: string(werr.Code), Reason: werr.Reason})
		} else {
			client.SendJSON(PlaceError{Type: "placeError", Seq: werr.Seq, Code: string(werr.Code), Reason: werr.Reason})
		}
		return
	}
	if result.NoOp {
		return
	}

	encoded := rle.Encode([]rle.Change{result.Change})
	h.broadcastJSON(BlockUpdate{
		Type: "blockUpdate", ChunkX: result.ChunkKey.CX, ChunkZ: result.ChunkKey.CZ, RLEBytes: encoded,
	})
}

// UpgradeAndServe upgrades an HTTP request to a websocket connection and
// registers a new SocketClient, matching server/main.go's serveWs shape.
func (h *Hub) UpgradeAndServe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("game: upgrade error:", err)
		return
	}
	client := NewSocketClient(conn)
	h.Register(client)
}
