package vision

import (
	"context"
	"log/slog"
	"net"
	"strings"

	"github.com/forgebots/station/protocol"
)

// DefaultUDPAddr matches the port the camera module broadcasts on
const DefaultUDPAddr = ":5000"

// UDPListener accepts detection reports as UDP datagrams, one or more
// newline-delimited lines per packet. It is the wireless alternative to the
// serial Reader for cameras mounted away from the station.
type UDPListener struct {
	addr   string
	events chan<- protocol.Event
	log    *slog.Logger
}

func NewUDPListener(addr string, events chan<- protocol.Event, log *slog.Logger) *UDPListener {
	if addr == "" {
		addr = DefaultUDPAddr
	}
	if log == nil {
		log = slog.Default()
	}
	return &UDPListener{addr: addr, events: events, log: log}
}

// Run listens until the context is cancelled
func (l *UDPListener) Run(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", l.addr)
	if err != nil {
		return err
	}
	return l.Serve(ctx, conn)
}

// Serve reads datagrams from an already-bound socket. It owns conn and
// closes it when the context ends.
func (l *UDPListener) Serve(ctx context.Context, conn net.PacketConn) error {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	l.log.Info("listening for camera datagrams", "addr", conn.LocalAddr().String())

	buf := make([]byte, 512)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		l.handlePacket(buf[:n])
	}
}

// handlePacket parses every line in a datagram; a missing trailing newline
// still terminates the report at the packet boundary
func (l *UDPListener) handlePacket(p []byte) {
	for _, line := range strings.Split(string(p), "\n") {
		ev := protocol.ParseLine(line)
		if ev == nil {
			continue
		}
		l.deliver(ev)
	}
}

func (l *UDPListener) deliver(ev protocol.Event) {
	select {
	case l.events <- ev:
	default:
		l.log.Warn("event queue full, detection dropped")
	}
}
