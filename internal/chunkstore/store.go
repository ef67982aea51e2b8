// Package chunkstore owns the map of ChunkKey to Chunk and lazily
// generates chunks on a bounded-concurrency worker pool, mirroring the
// channel+goroutine-pool worker idiom of
// Leterax-go-voxels/pkg/game.ChunkManager.chunkWorker (there, a client
// consuming chunks pushed by a server; here, the authoritative producer).
package chunkstore

import (
	"fmt"
	"sync"
	"time"

	"github.com/ashgrove/voxelkeep/internal/heightfield"
	"github.com/ashgrove/voxelkeep/internal/voxel"
)

// Concurrency is the number of generation workers, per spec ("concurrency ~ 4").
const Concurrency = 4

// Future resolves to a generated Chunk or an error. Safe to Wait() from
// any number of goroutines.
type Future struct {
	done  chan struct{}
	chunk *voxel.Chunk
	err   error
}

// Wait blocks until the chunk is generated (or generation failed).
func (f *Future) Wait() (*voxel.Chunk, error) {
	<-f.done
	return f.chunk, f.err
}

// Done returns a channel closed once the future resolves, for use in select.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

func (f *Future) resolve(c *voxel.Chunk, err error) {
	f.chunk = c
	f.err = err
	close(f.done)
}

// OnGenerated is invoked (on the simulation goroutine, via the hand-off
// channel) once a chunk's voxels have landed in the store. It is the hook
// by which the collider builder learns about newly-available geometry,
// per spec §4.A ("the generator hands the chunk to §4.B").
type OnGenerated func(*voxel.Chunk)

// Store is the authoritative chunk map. All field access documented as
// simulation-goroutine-only must only happen from that goroutine; workers
// only ever touch their own job's inputs and outputs.
type Store struct {
	height *heightfield.Func

	mu     sync.Mutex // guards chunks and pending (pending per spec §5)
	chunks map[voxel.Key]*voxel.Chunk
	pending map[voxel.Key]*Future

	jobs chan job

	onGenerated OnGenerated

	// landed is the simulation-thread hand-off channel: workers produce
	// owned Chunk buffers, the simulation goroutine (Drain) is the only
	// one that inserts them into chunks, preserving "no shared mutable
	// state crosses the handoff" from spec §5.
	landed chan landedChunk

	closeOnce sync.Once
	stop      chan struct{}
}

type job struct {
	key    voxel.Key
	future *Future
}

type landedChunk struct {
	key   voxel.Key
	chunk *voxel.Chunk
	err   error
	future *Future
}

// New creates a Store seeded by seed, with onGenerated called from Drain
// for every chunk that successfully lands.
func New(seed int64, onGenerated OnGenerated) *Store {
	s := &Store{
		height:      heightfield.New(seed),
		chunks:      make(map[voxel.Key]*voxel.Chunk),
		pending:     make(map[voxel.Key]*Future),
		jobs:        make(chan job, 256),
		landed:      make(chan landedChunk, 256),
		onGenerated: onGenerated,
		stop:        make(chan struct{}),
	}
	for i := 0; i < Concurrency; i++ {
		go s.worker()
	}
	return s
}

// Get returns the chunk for key if already generated, without triggering
// generation.
func (s *Store) Get(key voxel.Key) (*voxel.Chunk, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chunks[key]
	return c, ok
}

// GetOrCreate returns the chunk for key, generating it if absent.
// Duplicate concurrent requests for the same key share one in-flight Future,
// per spec.
func (s *Store) GetOrCreate(key voxel.Key) *Future {
	s.mu.Lock()
	if c, ok := s.chunks[key]; ok {
		s.mu.Unlock()
		f := &Future{done: make(chan struct{})}
		f.resolve(c, nil)
		return f
	}
	if f, ok := s.pending[key]; ok {
		s.mu.Unlock()
		return f
	}
	f := &Future{done: make(chan struct{})}
	s.pending[key] = f
	s.mu.Unlock()

	s.jobs <- job{key: key, future: f}
	return f
}

// Drain must be called once per tick from the simulation goroutine. It
// inserts any chunks that finished generating since the last call and
// invokes onGenerated for each, per spec's "simulation-thread hop".
func (s *Store) Drain() {
	for {
		select {
		case l := <-s.landed:
			if l.err == nil {
				s.mu.Lock()
				s.chunks[l.key] = l.chunk
				delete(s.pending, l.key)
				s.mu.Unlock()
				if s.onGenerated != nil {
					s.onGenerated(l.chunk)
				}
			}
			l.future.resolve(l.chunk, l.err)
		default:
			return
		}
	}
}

// Delete removes key from the store (used by proximity GC). It is the
// caller's responsibility to have already retired the chunk's colliders.
func (s *Store) Delete(key voxel.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, key)
}

// ForEach calls fn for every currently-generated chunk. fn must not mutate
// the store; callers needing to delete should collect keys and call Delete
// afterward.
func (s *Store) ForEach(fn func(*voxel.Chunk)) {
	s.mu.Lock()
	chunks := make([]*voxel.Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		chunks = append(chunks, c)
	}
	s.mu.Unlock()
	for _, c := range chunks {
		fn(c)
	}
}

func (s *Store) worker() {
	for {
		select {
		case <-s.stop:
			return
		case j := <-s.jobs:
			chunk, err := s.generate(j.key)
			s.landed <- landedChunk{key: j.key, chunk: chunk, err: err, future: j.future}
			if err != nil {
				// Remove from pending so a later request can retry,
				// per spec's failure-isolation requirement. Must happen
				// after landed delivery so Drain still resolves the
				// future for anyone already waiting.
				s.mu.Lock()
				delete(s.pending, j.key)
				s.mu.Unlock()
			}
		}
	}
}

// generate runs the height-function sampling and fill algorithm from
// spec §4.A. A panicking height function is isolated to this goroutine
// and turned into an error, per spec's failure contract.
func (s *Store) generate(key voxel.Key) (chunk *voxel.Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chunk generation panic at %+v: %v", key, r)
			chunk = nil
		}
	}()

	c := voxel.New(key)
	w, d, h := key.LOD.Dims()
	originX, originZ := key.WorldOrigin()

	// Voxel-grid scale relative to High LOD (1 for High, 2 for Low).
	scale := float32(voxel.HighWidth) / float32(w)

	for lz := 0; lz < d; lz++ {
		for lx := 0; lx < w; lx++ {
			wx := float64(originX) + float64(lx)*float64(scale)
			wz := float64(originZ) + float64(lz)*float64(scale)
			top := s.height.HeightAt(wx+float64(scale)*0.5, wz+float64(scale)*0.5)

			// Rescale the world-space column top into this chunk's own
			// voxel-height resolution.
			localTop := int(float32(top) * float32(h) / voxel.HighHeight)
			if localTop >= h {
				localTop = h - 1
			}

			for ly := 0; ly < h; ly++ {
				var id voxel.BlockID
				switch {
				case ly > localTop:
					id = voxel.Air
				case ly > localTop-4:
					id = voxel.Dirt
				default:
					id = voxel.Stone
				}
				c.Set(lx, ly, lz, id)
			}
		}
	}

	// Heightmap is always sampled at the reference W*D resolution,
	// independent of this chunk's own voxel LOD, per spec.
	for hz := 0; hz < voxel.HighDepth; hz++ {
		for hx := 0; hx < voxel.HighWidth; hx++ {
			wx := float64(originX) + float64(hx)
			wz := float64(originZ) + float64(hz)
			c.Heightmap[hx+hz*voxel.HighWidth] = int32(s.height.HeightAt(wx+0.5, wz+0.5))
		}
	}

	c.Generated = true
	c.LastAccessed = time.Now()
	c.LastModified = c.LastAccessed
	c.ColliderHandles = nil
	return c, nil
}

// Close stops all generation workers.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.stop) })
}
