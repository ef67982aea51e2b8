// Package heightfield is the external, deterministic, seeded height
// function spec.md §1 requires and treats as a collaborator. Adapted from
// server/terrain/noise.Generator: two perlin octaves (a higher-frequency
// "detail" layer and a lower-frequency "macro relief" layer) combined into
// one column height, except producing an integer column-top in voxel
// units instead of a byte heightmap pixel.
package heightfield

import (
	"github.com/aquilax/go-perlin"
)

const (
	detailFrequency = 0.01
	reliefFrequency = 0.0015

	// baseHeight is the column top when both noise layers evaluate to 0.
	baseHeight = 40
	// detailAmplitude scales the high-frequency layer.
	detailAmplitude = 16
	// reliefAmplitude scales the low-frequency layer.
	reliefAmplitude = 24

	minHeight = 1
	maxHeight = voxelHeightHigh - 2
	// voxelHeightHigh mirrors voxel.HighHeight without importing the voxel
	// package, keeping heightfield a leaf dependency.
	voxelHeightHigh = 128
)

// Func is a deterministic seeded height function: same seed and (x, z)
// always yields the same column-top y.
type Func struct {
	detail *perlin.Perlin
	relief *perlin.Perlin
}

// New builds a Func for seed. Two independent Perlin fields are derived
// from the same seed (offset by one, as the teacher offsets landHi/landLo)
// so a single seed fully determines the terrain.
func New(seed int64) *Func {
	return &Func{
		detail: perlin.NewPerlin(2.0, 2.0, 3, seed),
		relief: perlin.NewPerlin(2.5, 2.0, 2, seed+1),
	}
}

// HeightAt returns the column-top y for world-space column (x, z). Pure
// function of (seed, x, z); isolated from panics by the caller (see
// chunkstore.Store.generate), since a future height function implementation
// could divide by attacker-controlled input.
func (f *Func) HeightAt(x, z float64) int {
	detail := f.detail.Noise2D(x*detailFrequency, z*detailFrequency) * detailAmplitude
	relief := f.relief.Noise2D(x*reliefFrequency, z*reliefFrequency) * reliefAmplitude

	h := baseHeight + int(detail+relief)
	if h < minHeight {
		h = minHeight
	}
	if h > maxHeight {
		h = maxHeight
	}
	return h
}
