package sdrfec

import (
	"context"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdrfec/sdrfec/fec"
	"github.com/sdrfec/sdrfec/internal/logging"
)

func TestReceiverOverUDP(t *testing.T) {
	rng := rand.New(rand.NewSource(20))
	frames := encodeFrames(t, 16, 4, fec.SchemeCauchy, 0, 3, rng)

	rx, err := NewReceiver(ReceiverOptions{
		Options: Options{OriginalBlocks: 16, FECBlocks: 4, Logger: logging.Nop()},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn, err := rx.Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)
	addr := conn.LocalAddr().String()

	got := make(chan []byte, len(frames))
	served := make(chan error, 1)
	go func() {
		served <- rx.Serve(ctx, conn, func(samples []byte, res Result) {
			got <- append([]byte(nil), samples...)
		})
	}()

	tx, err := net.Dial("udp4", addr)
	require.NoError(t, err)
	defer tx.Close()
	for _, f := range frames {
		for _, d := range f.without(2, 9) {
			_, err := tx.Write(d)
			require.NoError(t, err)
		}
		// Loopback rarely drops, but keep the socket buffer from overflowing.
		time.Sleep(5 * time.Millisecond)
	}

	for i, f := range frames {
		select {
		case samples := <-got:
			assert.Equal(t, f.samples, samples, "frame %d", i)
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout waiting for frame %d, stats %+v", i, rx.Stats())
		}
	}
	meta, ok := rx.CurrentMeta()
	require.True(t, ok)
	assert.True(t, testMeta.Equal(MetaData{
		CenterFrequency: meta.CenterFrequency,
		SampleRate:      meta.SampleRate,
		SampleBytes:     meta.SampleBytes,
		SampleBits:      meta.SampleBits,
	}))

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	st := rx.Stats()
	assert.EqualValues(t, 3, st.Frames)
	assert.EqualValues(t, 6, st.Recovered)
}

func TestReceiverRejectsBadMulticastGroup(t *testing.T) {
	rx, err := NewReceiver(ReceiverOptions{
		Options:        Options{OriginalBlocks: 8, FECBlocks: 2, Logger: logging.Nop()},
		MulticastGroup: "10.0.0.1",
	})
	require.NoError(t, err)
	_, err = rx.Listen(context.Background(), "127.0.0.1:0")
	assert.Error(t, err)
}

func TestReceiverPublishesMetaBeforeDecode(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	frames := encodeFrames(t, 16, 4, fec.SchemeCauchy, 30, 1, rng)

	rx, err := NewReceiver(ReceiverOptions{
		Options: Options{OriginalBlocks: 16, FECBlocks: 4, Logger: logging.Nop()},
	})
	require.NoError(t, err)
	_, ok := rx.CurrentMeta()
	require.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn, err := rx.Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() {
		served <- rx.Serve(ctx, conn, func([]byte, Result) {
			t.Error("superframe emitted from a single block")
		})
	}()

	tx, err := net.Dial("udp4", conn.LocalAddr().String())
	require.NoError(t, err)
	defer tx.Close()
	// Block 0 alone cannot complete the superframe.
	_, err = tx.Write(frames[0].dgrams[0])
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := rx.CurrentMeta()
		return ok
	}, 5*time.Second, 10*time.Millisecond)
	meta, _ := rx.CurrentMeta()
	assert.True(t, metaFor(16, 4).Equal(meta), "%+v", meta)
	assert.EqualValues(t, 0, rx.Stats().Frames)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
