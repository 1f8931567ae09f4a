package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/pion/rtp"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/cwsl/ft8skimmer/ft8"
)

// pcmSegment is one RTP packet's worth of samples with its arrival time.
type pcmSegment struct {
	arrived time.Time
	samples []int16
}

// RTPSource receives PCM audio from a radiod multicast stream and serves
// capture windows to the decode pipeline. Implements ft8.SampleSource.
type RTPSource struct {
	conn    *net.UDPConn
	ssrc    uint32
	cfg     SourceConfig
	core    ft8.Config
	mu      sync.Mutex
	buffer  []pcmSegment
	running bool
}

// NewRTPSource joins the multicast group and starts buffering audio.
func NewRTPSource(cfg SourceConfig, core ft8.Config) (*RTPSource, error) {
	addr, err := net.ResolveUDPAddr("udp4", cfg.DataGroup)
	if err != nil {
		return nil, fmt.Errorf("invalid data group %q: %w", cfg.DataGroup, err)
	}

	var iface *net.Interface
	if cfg.Interface != "" {
		iface, err = net.InterfaceByName(cfg.Interface)
		if err != nil {
			return nil, fmt.Errorf("interface %q: %w", cfg.Interface, err)
		}
	}

	conn, err := listenMulticast(addr, iface)
	if err != nil {
		return nil, fmt.Errorf("failed to setup data socket: %w", err)
	}

	src := &RTPSource{
		conn:    conn,
		ssrc:    cfg.SSRC,
		cfg:     cfg,
		core:    core,
		running: true,
	}
	go src.receiveLoop()

	log.Printf("[Audio] Receiving on %s (iface: %v, ssrc: %d)", addr, cfg.Interface, cfg.SSRC)
	return src, nil
}

// listenMulticast creates the receive socket the way ka9q-radio's
// listen_mcast() does: SO_REUSEPORT/SO_REUSEADDR so several decoders can
// share one stream, then an IGMP join on the chosen interface.
func listenMulticast(addr *net.UDPAddr, iface *net.Interface) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
					sockErr = fmt.Errorf("failed to set SO_REUSEPORT: %w", err)
					return
				}
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
					sockErr = fmt.Errorf("failed to set SO_REUSEADDR: %w", err)
				}
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	conn, err := lc.ListenPacket(context.Background(), "udp4", addr.String())
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	udpConn := conn.(*net.UDPConn)

	if err := udpConn.SetReadBuffer(1024 * 1024); err != nil {
		log.Printf("[Audio] Warning: failed to set read buffer size: %v", err)
	}

	p := ipv4.NewPacketConn(udpConn)
	if iface != nil {
		if err := p.JoinGroup(iface, addr); err != nil {
			log.Printf("[Audio] Warning: failed to join multicast group on %s: %v", iface.Name, err)
		}
	} else if err := p.JoinGroup(nil, addr); err != nil {
		log.Printf("[Audio] Warning: failed to join multicast group: %v", err)
	}

	return udpConn, nil
}

// Close stops the receive loop and leaves the group.
func (s *RTPSource) Close() error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return s.conn.Close()
}

func (s *RTPSource) receiveLoop() {
	buf := make([]byte, 65536)

	for {
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()
			if !running {
				return
			}
			log.Printf("[Audio] Error reading UDP packet: %v", err)
			continue
		}
		arrived := time.Now().UTC()

		if n < 12 {
			continue
		}
		packet := &rtp.Packet{}
		if err := packet.Unmarshal(buf[:n]); err != nil {
			log.Printf("[Audio] Error parsing RTP packet: %v", err)
			continue
		}
		if s.ssrc != 0 && packet.SSRC != s.ssrc {
			// Another receiver's stream on the same group.
			continue
		}
		if len(packet.Payload) == 0 || len(packet.Payload)%2 != 0 {
			continue
		}

		// radiod sends big-endian int16 PCM. The packet buffer is reused,
		// so the samples are copied out here.
		samples := make([]int16, len(packet.Payload)/2)
		for i := range samples {
			samples[i] = int16(packet.Payload[i*2])<<8 | int16(packet.Payload[i*2+1])
		}

		s.mu.Lock()
		s.buffer = append(s.buffer, pcmSegment{arrived: arrived, samples: samples})
		s.pruneLocked(arrived)
		s.mu.Unlock()
	}
}

// pruneLocked drops audio older than two slots; nothing upstream will ask
// for it again.
func (s *RTPSource) pruneLocked(now time.Time) {
	cutoff := now.Add(-2 * time.Duration(ft8.SlotSeconds) * time.Second)
	i := 0
	for ; i < len(s.buffer); i++ {
		if s.buffer[i].arrived.After(cutoff) {
			break
		}
	}
	if i > 0 {
		s.buffer = append(s.buffer[:0], s.buffer[i:]...)
	}
}

// Capture blocks until the window closes, then assembles its audio into a
// decode-ready frame.
func (s *RTPSource) Capture(ctx context.Context, window ft8.CaptureWindow) (*ft8.AudioFrame, error) {
	wait := time.Until(window.End())
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	s.mu.Lock()
	var pcm []int16
	for _, seg := range s.buffer {
		if seg.arrived.Before(window.Start) || !seg.arrived.Before(window.End()) {
			continue
		}
		pcm = append(pcm, seg.samples...)
	}
	s.mu.Unlock()

	return ft8.BuildFrame(pcm, s.cfg.SampleRate, s.cfg.Channels, s.cfg.Channel, window.Start, s.core)
}
