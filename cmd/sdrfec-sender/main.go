// Command sdrfec-sender transmits a synthetic tone as FEC protected I/Q
// superframes, optionally through a lossy channel, for exercising a
// receiver.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/sdrfec/sdrfec/sdrfec"
	"github.com/sdrfec/sdrfec/fec"
	"github.com/sdrfec/sdrfec/internal/dropper"
	"github.com/sdrfec/sdrfec/internal/iq"
	"github.com/sdrfec/sdrfec/internal/logging"
	"github.com/sdrfec/sdrfec/internal/sim"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sender error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dest      = flag.String("dest", "127.0.0.1:9094", "destination address, unicast or multicast")
		k         = flag.Int("k", 128, "original blocks per superframe")
		m         = flag.Int("m", 8, "recovery blocks per superframe")
		schemeS   = flag.String("scheme", "cauchy", "erasure code: cauchy, gf256 or raptorq")
		freq      = flag.Uint("freq", 435000, "center frequency announced in kHz")
		rate      = flag.Uint("rate", 48000, "sample rate in Hz")
		toneHz    = flag.Float64("tone", 1000, "tone offset from center in Hz")
		amplitude = flag.Float64("amplitude", 0.5, "tone amplitude, fraction of full scale")
		frames    = flag.Int("frames", 0, "superframes to send, 0 until interrupted")
		noPacing  = flag.Bool("no-pacing", false, "send as fast as possible instead of at the sample rate")
		loss      = flag.Float64("loss", 0, "simulated datagram loss probability")
		burst     = flag.Float64("burst", 1, "mean simulated loss burst length in datagrams")
		reorder   = flag.Float64("reorder", 0, "simulated reorder probability")
		duplicate = flag.Float64("duplicate", 0, "simulated duplicate probability")
		seed      = flag.Int64("seed", 1, "simulator random seed")
		netemDev  = flag.String("netem-dev", "", "also apply loss/reorder/duplicate with tc netem on this device")
		ttl       = flag.Int("ttl", 1, "multicast TTL")
		logLevel  = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.New(level, logging.Text, os.Stderr)
	scheme, err := fec.ParseScheme(*schemeS)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	framer, err := sdrfec.NewFramer(*k, *m, scheme)
	if err != nil {
		return fmt.Errorf("framer: %w", err)
	}
	raddr, err := net.ResolveUDPAddr("udp4", *dest)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	// Unconnected, so an absent receiver does not surface as ECONNREFUSED.
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return fmt.Errorf("socket: %w", err)
	}
	defer conn.Close()
	if raddr.IP.IsMulticast() {
		if err := ipv4.NewPacketConn(conn).SetMulticastTTL(*ttl); err != nil {
			return fmt.Errorf("multicast ttl: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *netemDev != "" {
		nm := sim.NewNetem(nil)
		err := nm.Apply(ctx, &sim.NetScenario{
			Dev:           *netemDev,
			LossRate:      float32(*loss),
			ReorderRate:   float32(*reorder),
			DuplicateRate: float32(*duplicate),
		})
		if err != nil {
			return fmt.Errorf("netem: %w", err)
		}
		defer nm.Cleanup(context.Background())
		*loss, *reorder, *duplicate = 0, 0, 0
	}

	rng := rand.New(rand.NewSource(*seed))
	var lossModel dropper.Decider = dropper.Never{}
	switch {
	case *loss > 0 && *burst > 1:
		lossModel = dropper.NewBurst(*loss, *burst, rng)
	case *loss > 0:
		lossModel = dropper.New(*loss, rng)
	}
	ch := sim.NewChannel(sim.ChannelConfig{Loss: lossModel, Reorder: *reorder, Duplicate: *duplicate}, rng)

	tone := iq.Tone{Freq: *toneHz, Rate: float64(*rate), Amplitude: *amplitude}
	meta := sdrfec.MetaData{
		CenterFrequency: uint32(*freq),
		SampleRate:      uint32(*rate),
		SampleBytes:     2,
		SampleBits:      16,
	}
	samples := make([]byte, framer.FrameBytes())
	period := time.Duration(float64(time.Second) * float64(len(samples)/sdrfec.SampleSize) / float64(*rate))
	log.Info("sending", logging.String("dest", *dest), logging.Int("k", *k), logging.Int("m", *m),
		logging.String("scheme", scheme.String()), logging.Any("period", period))

	var sendErr error
	send := func(d []byte) {
		if _, err := conn.WriteTo(d, raddr); err != nil && sendErr == nil {
			sendErr = err
		}
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	sent := 0
	for *frames == 0 || sent < *frames {
		tone.Fill(samples)
		meta.SetTimestamp(time.Now())
		dgrams, err := framer.Frame(meta, samples)
		if err != nil {
			return fmt.Errorf("frame: %w", err)
		}
		for _, d := range dgrams {
			ch.Send(d, send)
		}
		if sendErr != nil {
			return fmt.Errorf("send: %w", sendErr)
		}
		sent++
		if *noPacing {
			if ctx.Err() != nil {
				break
			}
			continue
		}
		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			break
		}
	}
	ch.Flush(send)
	log.Info("done", logging.Int("frames", sent), logging.Any("channel", ch.Stats()))
	return sendErr
}
