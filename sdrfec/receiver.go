package sdrfec

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/net/ipv4"
	"golang.org/x/sync/errgroup"

	"github.com/sdrfec/sdrfec/internal/logging"
)

// readBufferSize exceeds DatagramSize so oversized datagrams are seen whole
// and rejected instead of being silently truncated to a valid length.
const readBufferSize = 2048

// ReceiverOptions configures the UDP receive loop.
type ReceiverOptions struct {
	Options
	IngressRing    int    // datagrams queued between socket and decoder (default 1024)
	ReadBuffer     int    // SO_RCVBUF in bytes, 0 keeps the OS default
	MulticastGroup string // IPv4 group to join, empty for unicast
	Interface      string // interface name for the multicast join
}

func (o *ReceiverOptions) setDefaults() {
	if o.IngressRing <= 0 {
		o.IngressRing = DefaultIngressRing
	}
}

// Sink consumes one superframe. samples is reused once Sink returns.
type Sink func(samples []byte, res Result)

// Receiver reads datagrams from a socket on one goroutine and feeds them to
// a Buffer on another, calling Sink for every superframe produced.
type Receiver struct {
	opts ReceiverOptions
	buf  *Buffer
	ring *ingressRing
	out  []byte
	log  logging.Logger

	ingressDrops atomic.Uint64
	readErrors   atomic.Uint64

	metaMu    sync.Mutex
	meta      MetaData
	metaValid bool
}

func NewReceiver(opts ReceiverOptions) (*Receiver, error) {
	opts.setDefaults()
	opts.Options.setDefaults()
	buf, err := NewBuffer(opts.Options)
	if err != nil {
		return nil, err
	}
	return &Receiver{
		opts: opts,
		buf:  buf,
		ring: newIngressRing(opts.IngressRing, readBufferSize),
		out:  make([]byte, buf.FrameBytes()),
		log:  opts.Logger,
	}, nil
}

// FrameBytes returns the size of the superframes passed to Sink.
func (r *Receiver) FrameBytes() int { return r.buf.FrameBytes() }

// Stats may be called from any goroutine.
func (r *Receiver) Stats() Stats {
	s := r.buf.Stats()
	s.IngressDrops = r.ingressDrops.Load()
	s.ReadErrors = r.readErrors.Load()
	return s
}

// CurrentMeta returns the metadata of the latest superframe passed to Sink.
// It may be called from any goroutine.
func (r *Receiver) CurrentMeta() (MetaData, bool) {
	r.metaMu.Lock()
	defer r.metaMu.Unlock()
	return r.meta, r.metaValid
}

// ListenAndServe binds addr, joins the configured multicast group and
// serves until ctx is cancelled.
func (r *Receiver) ListenAndServe(ctx context.Context, addr string, sink Sink) error {
	conn, err := r.Listen(ctx, addr)
	if err != nil {
		return err
	}
	return r.Serve(ctx, conn, sink)
}

// Listen opens the UDP socket ListenAndServe would use.
func (r *Receiver) Listen(ctx context.Context, addr string) (net.PacketConn, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	conn, err := lc.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	if r.opts.ReadBuffer > 0 {
		if uc, ok := conn.(*net.UDPConn); ok {
			if err := uc.SetReadBuffer(r.opts.ReadBuffer); err != nil {
				r.log.Warn("set read buffer", logging.Int("bytes", r.opts.ReadBuffer), logging.Err(err))
			}
		}
	}
	if r.opts.MulticastGroup != "" {
		if err := joinGroup(conn, r.opts.MulticastGroup, r.opts.Interface); err != nil {
			conn.Close()
			return nil, err
		}
		r.log.Info("joined multicast group", logging.String("group", r.opts.MulticastGroup))
	}
	return conn, nil
}

func joinGroup(conn net.PacketConn, group, ifname string) error {
	ip := net.ParseIP(group)
	if ip == nil || ip.To4() == nil || !ip.IsMulticast() {
		return fmt.Errorf("invalid IPv4 multicast group %q", group)
	}
	var ifi *net.Interface
	if ifname != "" {
		var err error
		if ifi, err = net.InterfaceByName(ifname); err != nil {
			return fmt.Errorf("multicast interface: %w", err)
		}
	}
	if err := ipv4.NewPacketConn(conn).JoinGroup(ifi, &net.UDPAddr{IP: ip}); err != nil {
		return fmt.Errorf("join %s: %w", group, err)
	}
	return nil
}

// Serve processes datagrams from conn until ctx is cancelled or reading
// fails. It closes conn on return. A Receiver serves one conn at a time.
func (r *Receiver) Serve(ctx context.Context, conn net.PacketConn, sink Sink) error {
	defer conn.Close()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return conn.Close()
	})
	g.Go(func() error { return r.readLoop(gctx, conn) })
	g.Go(func() error { return r.decodeLoop(gctx, sink) })
	err := g.Wait()
	if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (r *Receiver) readLoop(ctx context.Context, conn net.PacketConn) error {
	scratch := make([]byte, readBufferSize)
	for {
		b := r.ring.next()
		full := b == nil
		if full {
			b = scratch
		}
		n, _, err := conn.ReadFrom(b)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				r.readErrors.Add(1)
				continue
			}
			return fmt.Errorf("read datagram: %w", err)
		}
		if full {
			r.ingressDrops.Add(1)
			continue
		}
		r.ring.commit(n)
	}
}

func (r *Receiver) decodeLoop(ctx context.Context, sink Sink) error {
	var (
		published MetaData
		have      bool
	)
	for {
		d, ok := r.ring.peek()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-r.ring.ready:
			}
			continue
		}
		res, err := r.buf.WriteAndRead(d, r.out)
		r.ring.release()
		// Block 0 updates the tracker before its superframe decodes.
		if res.MetaValid && (!have || res.Meta != published) {
			published, have = res.Meta, true
			r.metaMu.Lock()
			r.meta, r.metaValid = res.Meta, true
			r.metaMu.Unlock()
		}
		if err != nil {
			if errors.Is(err, ErrShortBuffer) {
				return err
			}
			if r.log.Enabled(logging.Debug) {
				r.log.Debug("datagram discarded", logging.Err(err))
			}
			continue
		}
		if !res.Ready {
			continue
		}
		if sink != nil {
			sink(r.out[:res.N], res)
		}
	}
}
