// Package stats is the operational telemetry subsystem: a Cloud interface
// with an Offline{} no-op implementation, mirroring server/cloud.go's
// shape exactly. It records only ambient ops counters (concurrent players,
// tick duration, GC sweep counts) — never voxel world state — so it does
// not run afoul of "no persistence across sessions", which governs world
// state, not operational metrics.
package stats

import (
	"fmt"
	"time"
)

// Cloud is the operational reporting contract. A nil-safe Offline{}
// implementation is always valid, matching the teacher's "nil cloud acts
// as a no-op" comment (realized here as an explicit no-op value instead of
// a nil interface, since Go method calls on a nil interface panic where a
// nil *pointer* receiver would not).
type Cloud interface {
	fmt.Stringer

	// UpdateServer reports the current concurrent player count.
	UpdateServer(players int) error
	// RecordTick reports one simulation tick's wall-clock duration.
	RecordTick(d time.Duration)
	// RecordGCSweep reports how many chunks one proximity GC pass retired.
	RecordGCSweep(retired int)
	// FlushStatistics pushes any buffered counters to the backing store.
	FlushStatistics() error
	// UpdatePeriod is how often the caller should invoke UpdateServer and
	// FlushStatistics.
	UpdatePeriod() time.Duration
}

// Offline is the no-op Cloud used when no backing store is configured.
type Offline struct{}

func (Offline) String() string { return "offline" }

func (Offline) UpdateServer(players int) error { return nil }

func (Offline) RecordTick(d time.Duration) {}

func (Offline) RecordGCSweep(retired int) {}

func (Offline) FlushStatistics() error { return nil }

func (Offline) UpdatePeriod() time.Duration { return time.Minute }
