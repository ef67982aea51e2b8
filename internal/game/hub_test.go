package game

import (
	"sync"
	"testing"
	"time"

	"github.com/ashgrove/voxelkeep/internal/voxel"
)

// fakeClient is a minimal Client for driving Hub in tests without a real
// websocket connection.
type fakeClient struct {
	data ClientData

	mu     sync.Mutex
	json   []interface{}
	binary [][]byte
}

func (c *fakeClient) Close()            {}
func (c *fakeClient) Data() *ClientData { return &c.data }
func (c *fakeClient) Destroy()          {}
func (c *fakeClient) Init()             {}

func (c *fakeClient) SendJSON(v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.json = append(c.json, v)
}

func (c *fakeClient) SendBinary(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.binary = append(c.binary, b)
}

func (c *fakeClient) messages() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]interface{}, len(c.json))
	copy(out, c.json)
	return out
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(HubOptions{Seed: 1})
	t.Cleanup(func() { h.store.Close() })
	return h
}

func attachedClient(h *Hub) (*fakeClient, *Player) {
	player := &Player{ID: "p1"}
	client := &fakeClient{}
	client.data.Hub = h
	client.data.Player = player
	return client, player
}

// runDispatchWithDeadline fails the test if dispatch does not return within
// the deadline, proving the event-loop goroutine is never blocked waiting
// on chunk generation (spec.md §5: the tick loop never suspends mid-step).
func runDispatchWithDeadline(t *testing.T, h *Hub, in signedInbound) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		h.dispatch(in)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("dispatch blocked instead of returning immediately")
	}
}

// drainUntil repeatedly ticks h (generating real background work to land)
// until cond reports true, or fails the test after a bounded number of
// attempts.
func drainUntil(t *testing.T, h *Hub, cond func() bool) {
	t.Helper()
	for i := 0; i < 2000; i++ {
		if cond() {
			return
		}
		h.Tick()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition never became true after draining")
}

func TestHandleChunkRequestForUngeneratedChunkDoesNotBlock(t *testing.T) {
	h := newTestHub(t)
	client, _ := attachedClient(h)

	req := &ChunkRequest{Type: "chunkRequest", CX: 50, CZ: 50, LOD: 0, Seq: 7}
	runDispatchWithDeadline(t, h, signedInbound{client: client, json: req})

	if len(client.messages()) != 0 {
		t.Fatalf("expected no immediate reply for an unresolved chunk, got %v", client.messages())
	}
	if len(h.pendingChunkWaits) != 1 {
		t.Fatalf("expected 1 parked chunk wait, got %d", len(h.pendingChunkWaits))
	}

	drainUntil(t, h, func() bool { return len(client.messages()) > 0 })

	msgs := client.messages()
	resp, ok := msgs[0].(ChunkResponse)
	if !ok {
		t.Fatalf("expected a ChunkResponse, got %T", msgs[0])
	}
	if resp.CX != 50 || resp.CZ != 50 || resp.Seq != 7 {
		t.Fatalf("unexpected chunk response: %+v", resp)
	}
}

func TestHandleMineForUngeneratedChunkDoesNotBlock(t *testing.T) {
	h := newTestHub(t)
	client, _ := attachedClient(h)

	// Chunk (3,0) is outside the pre-warmed radius, so its Future will not
	// be resolved synchronously.
	cmd := &MineBlockCommand{CommandType: "mineBlock", Seq: 1, TargetVoxelX: 3 * voxel.HighWidth, TargetVoxelY: 0, TargetVoxelZ: 0}
	runDispatchWithDeadline(t, h, signedInbound{client: client, json: cmd})

	if len(client.messages()) != 0 {
		t.Fatalf("expected no immediate reply, got %v", client.messages())
	}
	if len(h.pendingChunkWaits) != 1 {
		t.Fatalf("expected 1 parked chunk wait, got %d", len(h.pendingChunkWaits))
	}

	drainUntil(t, h, func() bool {
		key := voxel.Key{CX: 3, CZ: 0, LOD: voxel.High}
		_, ok := h.store.Get(key)
		return ok
	})
}

func TestHandleChunkRequestForAlreadyGeneratedChunkRepliesImmediately(t *testing.T) {
	h := newTestHub(t)
	client, _ := attachedClient(h)

	// Let the pre-warmed origin chunk finish generating first.
	drainUntil(t, h, func() bool {
		_, ok := h.store.Get(voxel.Key{CX: 0, CZ: 0, LOD: voxel.High})
		return ok
	})

	req := &ChunkRequest{Type: "chunkRequest", CX: 0, CZ: 0, LOD: 0, Seq: 1}
	h.dispatch(signedInbound{client: client, json: req})

	if len(h.pendingChunkWaits) != 0 {
		t.Fatalf("expected no parked wait for an already-resolved chunk, got %d", len(h.pendingChunkWaits))
	}
	if len(client.messages()) != 1 {
		t.Fatalf("expected an immediate reply, got %d messages", len(client.messages()))
	}
}
