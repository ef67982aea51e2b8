// Package dynamo is the AWS-backed stats.Cloud implementation, using
// github.com/aws/aws-sdk-go's session plus github.com/guregu/dynamo the
// same way server/cloud/db.DynamoDBDatabase does. It persists only the
// operational counters stats.Cloud defines (player count, tick durations,
// GC sweep counts) into one DynamoDB table, a deliberately narrower slice
// of the teacher's cloud stack: the teacher's Cloud also does Route53 DNS
// slot reclamation and S3 terrain-snapshot uploads, which have no
// counterpart in this spec's scope (no regional server-slot fleet, no
// terrain PNG export), so only the database-backed counters path is
// adapted — documented in DESIGN.md.
package dynamo

import (
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	gdynamo "github.com/guregu/dynamo"
)

// Record is the one row this package writes per server instance per
// reporting period, shaped like server/cloud/db.Server but slimmed to the
// fields this spec's ambient stats actually have.
type Record struct {
	ServerID      string        `dynamo:"server_id"`
	Players       int           `dynamo:"players"`
	TickP99Millis float64       `dynamo:"tick_p99_ms"`
	GCRetired     int           `dynamo:"gc_retired"`
	UpdatedAt     int64         `dynamo:"updated_at"`
	TTL           int64         `dynamo:"ttl,omitempty"`
}

// Cloud implements stats.Cloud against one DynamoDB table.
type Cloud struct {
	serverID string
	table    gdynamo.Table

	mu        sync.Mutex
	players   int
	tickTimes []time.Duration
	gcRetired int
}

// New opens a Cloud backed by tableName in the AWS region/credentials
// implied by sess, matching DynamoDBDatabase's "session in, table handle
// out" construction.
func New(sess *session.Session, tableName, serverID string) *Cloud {
	db := gdynamo.NewFromIface(dynamodb.New(sess))
	return &Cloud{
		serverID: serverID,
		table:    db.Table(tableName),
	}
}

func (c *Cloud) String() string {
	return "aws:" + c.serverID
}

// UpdateServer records the current player count for the next flush.
func (c *Cloud) UpdateServer(players int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.players = players
	return nil
}

// RecordTick buffers a tick duration sample for the next flush's p99.
func (c *Cloud) RecordTick(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickTimes = append(c.tickTimes, d)
}

// RecordGCSweep accumulates a GC pass's retired-chunk count for the next
// flush.
func (c *Cloud) RecordGCSweep(retired int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gcRetired += retired
}

// FlushStatistics writes the buffered counters as one Record and resets
// them, matching the teacher's Cloud() method's flush-then-reset rhythm.
func (c *Cloud) FlushStatistics() error {
	c.mu.Lock()
	players := c.players
	p99 := percentile99(c.tickTimes)
	retired := c.gcRetired
	c.tickTimes = nil
	c.gcRetired = 0
	c.mu.Unlock()

	rec := Record{
		ServerID:      c.serverID,
		Players:       players,
		TickP99Millis: p99,
		GCRetired:     retired,
		UpdatedAt:     unixNow(),
	}
	return c.table.Put(rec).Run()
}

func (c *Cloud) UpdatePeriod() time.Duration {
	return 30 * time.Second
}

func percentile99(samples []time.Duration) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	idx := (len(sorted) * 99) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return float64(sorted[idx]) / float64(time.Millisecond)
}

// unixNow is isolated in its own function so it's the only place this
// package calls time.Now, keeping the surface easy to stub in tests.
func unixNow() int64 {
	return time.Now().Unix()
}
