// Package sim impairs a datagram stream, either in process with Channel or
// on a real interface with Netem.
package sim

import (
	"math/rand"

	"github.com/sdrfec/sdrfec/internal/dropper"
)

// ChannelConfig describes the impairments of a Channel. Zero values disable
// each one.
type ChannelConfig struct {
	Loss       dropper.Decider
	Reorder    float64 // probability a datagram is held back
	ReorderGap int     // datagrams sent before a held one is released (default 5)
	Duplicate  float64 // probability a datagram is delivered twice
}

// ChannelStats counts what a Channel did to the stream.
type ChannelStats struct {
	Sent       int
	Lost       int
	Reordered  int
	Duplicated int
	Delivered  int
}

type heldDatagram struct {
	data []byte
	due  int
}

// Channel passes datagrams to a deliver callback, losing, reordering and
// duplicating some of them. It copies datagrams it holds back, so callers
// may reuse their buffers once Send returns.
type Channel struct {
	cfg   ChannelConfig
	rng   *rand.Rand
	held  []heldDatagram
	stats ChannelStats
}

func NewChannel(cfg ChannelConfig, rng *rand.Rand) *Channel {
	if cfg.Loss == nil {
		cfg.Loss = dropper.Never{}
	}
	if cfg.ReorderGap <= 0 {
		cfg.ReorderGap = 5
	}
	return &Channel{cfg: cfg, rng: rng}
}

// Send offers one datagram to the channel. deliver is called for every
// datagram leaving the channel as a result, in delivery order.
func (c *Channel) Send(d []byte, deliver func([]byte)) {
	c.stats.Sent++
	c.release(false, deliver)
	if c.cfg.Loss.Drop() {
		c.stats.Lost++
		return
	}
	if c.cfg.Reorder > 0 && c.rng.Float64() < c.cfg.Reorder {
		c.stats.Reordered++
		c.held = append(c.held, heldDatagram{
			data: append([]byte(nil), d...),
			due:  c.stats.Sent + c.cfg.ReorderGap,
		})
		return
	}
	c.deliver(d, deliver)
}

// Flush delivers every datagram still held back.
func (c *Channel) Flush(deliver func([]byte)) {
	c.release(true, deliver)
}

func (c *Channel) Stats() ChannelStats { return c.stats }

func (c *Channel) release(all bool, deliver func([]byte)) {
	kept := c.held[:0]
	for _, h := range c.held {
		if all || h.due <= c.stats.Sent {
			c.deliver(h.data, deliver)
			continue
		}
		kept = append(kept, h)
	}
	clear(c.held[len(kept):])
	c.held = kept
}

func (c *Channel) deliver(d []byte, deliver func([]byte)) {
	deliver(d)
	c.stats.Delivered++
	if c.cfg.Duplicate > 0 && c.rng.Float64() < c.cfg.Duplicate {
		c.stats.Duplicated++
		deliver(d)
		c.stats.Delivered++
	}
}
