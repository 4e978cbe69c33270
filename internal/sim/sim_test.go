package sim

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdrfec/sdrfec/internal/dropper"
)

func seq(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte{byte(i)}
	}
	return out
}

func TestChannelTransparentByDefault(t *testing.T) {
	c := NewChannel(ChannelConfig{}, rand.New(rand.NewSource(1)))
	var got []byte
	for _, d := range seq(50) {
		c.Send(d, func(b []byte) { got = append(got, b[0]) })
	}
	c.Flush(func(b []byte) { got = append(got, b[0]) })
	require.Len(t, got, 50)
	for i, b := range got {
		assert.Equal(t, byte(i), b)
	}
	assert.Equal(t, ChannelStats{Sent: 50, Delivered: 50}, c.Stats())
}

func TestChannelImpairments(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	c := NewChannel(ChannelConfig{
		Loss:      dropper.New(0.1, rng),
		Reorder:   0.1,
		Duplicate: 0.05,
	}, rng)
	seen := make(map[byte]int)
	var order []byte
	sink := func(b []byte) {
		seen[b[0]]++
		order = append(order, b[0])
	}
	buf := make([]byte, 1)
	for i := 0; i < 200; i++ {
		buf[0] = byte(i)
		c.Send(buf, sink) // the channel must copy what it holds back
	}
	c.Flush(sink)

	st := c.Stats()
	assert.Equal(t, 200, st.Sent)
	assert.Positive(t, st.Lost)
	assert.Positive(t, st.Reordered)
	assert.Positive(t, st.Duplicated)
	assert.Equal(t, st.Sent-st.Lost+st.Duplicated, st.Delivered)
	assert.Len(t, order, st.Delivered)
	assert.Len(t, seen, st.Sent-st.Lost)

	inversions := 0
	for i := 1; i < len(order); i++ {
		if order[i] < order[i-1] {
			inversions++
		}
	}
	assert.Positive(t, inversions)
}

func TestNetemCommands(t *testing.T) {
	var cmds []string
	m := NewNetem(func(ctx context.Context, name string, args ...string) error {
		cmds = append(cmds, name+" "+strings.Join(args, " "))
		return nil
	})
	err := m.Apply(context.Background(), &NetScenario{
		Dev: "eth0", DelayMs: 10, LossRate: 0.02, ReorderRate: 0.01, BandwidthMbps: 50,
	})
	require.NoError(t, err)
	require.NoError(t, m.Cleanup(context.Background()))
	assert.Equal(t, []string{
		"tc qdisc del dev eth0 root",
		"tc qdisc add dev eth0 root handle 1: htb default 1",
		"tc class replace dev eth0 parent 1: classid 1:1 htb rate 50mbit ceil 50mbit",
		"tc qdisc add dev eth0 parent 1:1 handle 100: netem delay 10.00ms 0.00ms loss 2.000% reorder 1.00% gap 5",
		"tc qdisc del dev eth0 root",
	}, cmds)
}

func TestNetemUnlimitedAndErrors(t *testing.T) {
	var cmds []string
	m := NewNetem(func(ctx context.Context, name string, args ...string) error {
		cmds = append(cmds, strings.Join(args, " "))
		if args[1] == "add" {
			return errors.New("operation not permitted")
		}
		return nil
	})
	err := m.Apply(context.Background(), &NetScenario{Dev: "lo", DuplicateRate: 0.5})
	assert.Error(t, err)
	assert.Equal(t, "qdisc add dev lo root handle 10: netem delay 0.00ms 0.00ms loss 0.000% duplicate 50.00%", cmds[1])

	assert.Error(t, NewNetem(nil).Apply(context.Background(), &NetScenario{}))
	assert.NoError(t, NewNetem(nil).Cleanup(context.Background()))
}
