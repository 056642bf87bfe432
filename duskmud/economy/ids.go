package economy

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// IDGenerator issues snowflake ids from the simulation clock. Several
// entities are routinely created within one scheduler tick, so ids are
// forced strictly monotonic rather than relying on the timestamp alone.
type IDGenerator struct {
	last snowflake.ID
}

func NewIDGenerator() *IDGenerator { return &IDGenerator{} }

// Next returns a fresh id for the given simulation time.
func (g *IDGenerator) Next(now time.Time) snowflake.ID {
	id := snowflake.New(now)
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
