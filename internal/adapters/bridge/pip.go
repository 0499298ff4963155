package bridge

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/stagebridge/internal/core"
	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrNoPiPClient = errors.New("no client to host pip")

type pipCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

// PiPHost implements core.PiPHost by delegating the window to connected
// clients. Frames travel as binary messages, see EncodeFrame.
type PiPHost struct {
	hub *Hub

	mu       sync.RWMutex
	listener core.PiPListener
}

func NewPiPHost(hub *Hub) *PiPHost {
	return &PiPHost{hub: hub}
}

func (p *PiPHost) SetListener(l core.PiPListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = l
}

func (p *PiPHost) command(name string, required bool) error {
	sent := p.hub.BroadcastJSON(pipCommand{Type: "pip", Command: name})
	if sent == 0 && required {
		return ErrNoPiPClient
	}
	return nil
}

func (p *PiPHost) SetPiPEnabled(enabled bool) error {
	if enabled {
		return p.command("enable", false)
	}
	return p.command("disable", false)
}

func (p *PiPHost) StartPiP() error { return p.command("start", true) }

func (p *PiPHost) StopPiP() error { return p.command("stop", false) }

func (p *PiPHost) PushFrame(frame domain.Frame) error {
	b, err := EncodeFrame(frame)
	if err != nil {
		return err
	}
	p.hub.Broadcast(websocket.BinaryMessage, b)
	return nil
}

func (p *PiPHost) report(kind string) error {
	p.mu.RLock()
	l := p.listener
	p.mu.RUnlock()
	if l == nil {
		return domain.ErrPiPNotEnabled
	}
	switch kind {
	case "pipStarted":
		l.OnPiPStarted()
	case "pipStopped":
		l.OnPiPStopped()
	case "pipRestored":
		l.OnPiPRestored()
	}
	return nil
}

func handlePiPReport(ctl *Controller, _ context.Context, _ *Client, raw []byte) (any, error) {
	if ctl.PiP == nil {
		return nil, domain.ErrPiPNotEnabled
	}
	var env envelope
	if err := decode(raw, &env); err != nil {
		return nil, err
	}
	log.Debug().Str("module", "bridge").Str("report", env.Type).Msg("pip report")
	return nil, ctl.PiP.report(env.Type)
}

// EncodeFrame lays a frame out as
// u16 urn length | urn | u8 mime length | mime | i64 unix nanos | data,
// big endian.
func EncodeFrame(f domain.Frame) ([]byte, error) {
	if len(f.DeviceURN) > 0xffff {
		return nil, fmt.Errorf("frame urn too long: %d", len(f.DeviceURN))
	}
	if len(f.MimeType) > 0xff {
		return nil, fmt.Errorf("frame mime too long: %d", len(f.MimeType))
	}
	b := make([]byte, 0, 2+len(f.DeviceURN)+1+len(f.MimeType)+8+len(f.Data))
	b = binary.BigEndian.AppendUint16(b, uint16(len(f.DeviceURN)))
	b = append(b, f.DeviceURN...)
	b = append(b, byte(len(f.MimeType)))
	b = append(b, f.MimeType...)
	var ts int64
	if !f.Timestamp.IsZero() {
		ts = f.Timestamp.UnixNano()
	}
	b = binary.BigEndian.AppendUint64(b, uint64(ts))
	return append(b, f.Data...), nil
}

var errShortFrame = errors.New("short frame")

func DecodeFrame(b []byte) (domain.Frame, error) {
	var f domain.Frame
	if len(b) < 2 {
		return f, errShortFrame
	}
	n := int(binary.BigEndian.Uint16(b))
	b = b[2:]
	if len(b) < n+1 {
		return f, errShortFrame
	}
	f.DeviceURN = domain.DeviceURN(b[:n])
	b = b[n:]
	m := int(b[0])
	b = b[1:]
	if len(b) < m+8 {
		return f, errShortFrame
	}
	f.MimeType = string(b[:m])
	b = b[m:]
	if ts := int64(binary.BigEndian.Uint64(b)); ts != 0 {
		f.Timestamp = time.Unix(0, ts)
	}
	f.Data = append([]byte(nil), b[8:]...)
	return f, nil
}
