package gc

import (
	"testing"

	"github.com/ashgrove/voxelkeep/internal/collider"
	"github.com/ashgrove/voxelkeep/internal/voxel"
)

type fakeStore struct {
	chunks map[voxel.Key]*voxel.Chunk
}

func newFakeStore(keys ...voxel.Key) *fakeStore {
	s := &fakeStore{chunks: make(map[voxel.Key]*voxel.Chunk)}
	for _, k := range keys {
		s.chunks[k] = &voxel.Chunk{Key: k}
	}
	return s
}

func (s *fakeStore) ForEach(fn func(*voxel.Chunk)) {
	for _, c := range s.chunks {
		fn(c)
	}
}

func (s *fakeStore) Delete(key voxel.Key) {
	delete(s.chunks, key)
}

func TestSweepDefersDeletionOneCycle(t *testing.T) {
	far := voxel.Key{CX: 100, CZ: 100, LOD: voxel.High}
	store := newFakeStore(far)
	q := collider.NewQueues()
	sweeper := NewSweeper()
	players := []PlayerPosition{{X: 0, Z: 0}}

	sweeper.Sweep(store, q, players)
	if _, ok := store.chunks[far]; !ok {
		t.Fatalf("expected chunk to survive first sweep (deferred)")
	}

	sweeper.Sweep(store, q, players)
	if _, ok := store.chunks[far]; ok {
		t.Fatalf("expected chunk deleted on second consecutive far sweep")
	}
}

func TestSweepKeepsChunksNearPlayers(t *testing.T) {
	near := voxel.Key{CX: 0, CZ: 0, LOD: voxel.High}
	store := newFakeStore(near)
	q := collider.NewQueues()
	sweeper := NewSweeper()
	players := []PlayerPosition{{X: 0, Z: 0}}

	for i := 0; i < 3; i++ {
		sweeper.Sweep(store, q, players)
	}
	if _, ok := store.chunks[near]; !ok {
		t.Fatalf("expected nearby chunk to survive repeated sweeps")
	}
}

func TestSweepResetsMarkWhenPlayerReturnsBetweenCycles(t *testing.T) {
	key := voxel.Key{CX: 100, CZ: 100, LOD: voxel.High}
	store := newFakeStore(key)
	q := collider.NewQueues()
	sweeper := NewSweeper()
	far := []PlayerPosition{{X: 0, Z: 0}}

	sweeper.Sweep(store, q, far) // marks far, not yet deleted (first mark)

	originX, originZ := key.WorldOrigin()
	near := []PlayerPosition{{X: originX, Z: originZ}}
	sweeper.Sweep(store, q, near) // a player re-enters range: unmarked, not deleted

	sweeper.Sweep(store, q, far) // marked far again, but this is only the first consecutive mark

	if _, ok := store.chunks[key]; !ok {
		t.Fatalf("expected chunk to survive: the near sweep should have reset its mark")
	}
}
