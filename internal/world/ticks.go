package world

import "time"

// TickPeriod is the fixed simulation step: 1/30 s, per spec.
const TickPeriod = time.Second / 30

// TicksPerSecond is the inverse of TickPeriod expressed as a Ticks value.
const TicksPerSecond = Ticks(time.Second / TickPeriod)

// Ticks is a duration measured in fixed simulation steps.
type Ticks uint32

// ToTicks converts a duration in seconds to Ticks, rounding to the nearest step.
func ToTicks(seconds float32) Ticks {
	return Ticks(seconds*float32(float64(time.Second)/float64(TickPeriod)) + 0.5)
}

// Float returns the duration in seconds.
func (t Ticks) Float() float32 {
	return float32(t) * float32(float64(TickPeriod)/float64(time.Second))
}
