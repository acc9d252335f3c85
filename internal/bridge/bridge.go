package bridge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/secretarylab/relayd/internal/domain"
)

// ErrNotConnected is returned when no device helper is attached.
var ErrNotConnected = errors.New("device bridge not connected")

// DefaultRPCTimeout bounds every request to the device helper. Tree snapshots
// of a busy chat screen are the slowest call and stay well under this.
const DefaultRPCTimeout = 5 * time.Second

// Events receives notification events decoded from the bridge. Handlers run
// on a dedicated dispatcher goroutine, never on the socket read loop, so a
// handler may block (activation retries) without stalling RPC responses.
type Events interface {
	HandleNotification(ctx context.Context, n domain.RawNotification)
	HandleNotificationRemoved(key string)
}

// Bridge is the host side of the device-helper websocket. One helper at a
// time; a new connection replaces the previous one.
type Bridge struct {
	events     Events
	logger     *zap.Logger
	rpcTimeout time.Duration

	queue chan frame

	mu      sync.Mutex // guards conn, pending, nextID
	conn    *websocket.Conn
	pending map[uint64]pendingCall
	nextID  uint64

	writeMu sync.Mutex // gorilla permits one concurrent writer
}

// pendingCall ties an in-flight RPC to the connection it was written on, so a
// replaced socket's teardown cannot fail RPCs issued on its successor.
type pendingCall struct {
	ch   chan frame
	conn *websocket.Conn
}

var (
	_ domain.TreeProvider = (*Bridge)(nil)
	_ domain.Activator    = (*Bridge)(nil)
	_ domain.Clipboard    = (*Bridge)(nil)
)

// New creates a bridge dispatching events to the given handler.
func New(events Events, logger *zap.Logger) *Bridge {
	return &Bridge{
		events:     events,
		logger:     logger,
		rpcTimeout: DefaultRPCTimeout,
		queue:      make(chan frame, 64),
		pending:    make(map[uint64]pendingCall),
	}
}

// Start launches the event dispatcher worker.
func (b *Bridge) Start(ctx context.Context) {
	go b.dispatch(ctx)
}

// Attach adopts a newly connected device helper socket and serves it until it
// disconnects. Blocks for the lifetime of the connection.
func (b *Bridge) Attach(conn *websocket.Conn) {
	b.mu.Lock()
	if b.conn != nil {
		b.conn.Close()
	}
	b.conn = conn
	b.mu.Unlock()

	b.logger.Info("device bridge connected",
		zap.String("remote", conn.RemoteAddr().String()))
	b.readLoop(conn)
}

// Connected reports whether a device helper is currently attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// Root implements domain.TreeProvider over a snapshot RPC.
func (b *Bridge) Root(ctx context.Context) domain.Node {
	resp, err := b.call(ctx, frame{Op: opRoot})
	if err != nil {
		b.logger.Debug("root snapshot unavailable", zap.Error(err))
		return nil
	}
	if resp.Tree == nil {
		return nil
	}
	return &node{snap: resp.Tree, bridge: b}
}

// Activate implements domain.Activator: the helper taps the notification
// identified by key.
func (b *Bridge) Activate(ctx context.Context, key string) error {
	resp, err := b.call(ctx, frame{Op: opActivate, Key: key})
	if err != nil {
		return err
	}
	if !resp.OK {
		if resp.Error != "" {
			return errors.New(resp.Error)
		}
		return errors.New("activation refused")
	}
	return nil
}

// SetText implements domain.Clipboard against the device clipboard.
func (b *Bridge) SetText(ctx context.Context, label, text string) error {
	resp, err := b.call(ctx, frame{Op: opClipboard, Label: label, Text: text})
	if err != nil {
		return err
	}
	if !resp.OK {
		return errors.New("clipboard write refused")
	}
	return nil
}

// perform executes one element action; false covers refusal, disconnection
// and timeout alike (the engine treats them all as action failure).
func (b *Bridge) perform(ref, action, text string) bool {
	resp, err := b.call(context.Background(), frame{
		Op: opPerform, NodeRef: ref, Action: action, Text: text,
	})
	if err != nil {
		b.logger.Debug("element action failed",
			zap.String("action", action),
			zap.Error(err))
		return false
	}
	return resp.OK
}

// release is fire-and-forget; losing it only delays recycling on the device.
func (b *Bridge) release(ref string) {
	b.send(frame{Op: opRelease, NodeRef: ref})
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			b.detach(conn, err)
			return
		}
		switch {
		case f.ID != 0 && f.Op == "":
			b.deliver(f)
		case f.Type == eventNotification, f.Type == eventNotificationRemoved:
			select {
			case b.queue <- f:
			default:
				b.logger.Warn("event queue full, dropping notification event",
					zap.String("key", f.Key))
			}
		case f.Type == eventWindowState:
			b.handleWindowState(f)
		default:
			b.logger.Debug("unrecognized bridge frame", zap.String("type", f.Type))
		}
	}
}

func (b *Bridge) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-b.queue:
			switch f.Type {
			case eventNotification:
				if f.Notification != nil {
					b.events.HandleNotification(ctx, f.Notification.toDomain())
				}
			case eventNotificationRemoved:
				b.events.HandleNotificationRemoved(f.Key)
			}
		}
	}
}

// handleWindowState ignores dialog/popup transitions; replying against a
// dialog-obscured window is pointless.
func (b *Bridge) handleWindowState(f frame) {
	if strings.Contains(f.ClassName, "Dialog") || strings.Contains(f.ClassName, "Popup") {
		b.logger.Debug("ignoring dialog/popup window state",
			zap.String("class", f.ClassName))
		return
	}
	b.logger.Debug("window state changed", zap.String("class", f.ClassName))
}

func (b *Bridge) call(ctx context.Context, req frame) (frame, error) {
	b.mu.Lock()
	conn := b.conn
	if conn == nil {
		b.mu.Unlock()
		return frame{}, ErrNotConnected
	}
	b.nextID++
	id := b.nextID
	ch := make(chan frame, 1)
	b.pending[id] = pendingCall{ch: ch, conn: conn}
	b.mu.Unlock()

	req.ID = id
	if err := b.write(conn, req); err != nil {
		b.forget(id)
		return frame{}, err
	}

	select {
	case <-ctx.Done():
		b.forget(id)
		return frame{}, ctx.Err()
	case <-time.After(b.rpcTimeout):
		b.forget(id)
		return frame{}, errors.New("bridge rpc timeout")
	case resp, ok := <-ch:
		if !ok {
			return frame{}, ErrNotConnected
		}
		return resp, nil
	}
}

func (b *Bridge) send(f frame) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return
	}
	if err := b.write(conn, f); err != nil {
		b.logger.Debug("bridge send failed", zap.Error(err))
	}
}

func (b *Bridge) write(conn *websocket.Conn, f frame) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return conn.WriteJSON(f)
}

func (b *Bridge) deliver(resp frame) {
	b.mu.Lock()
	p, ok := b.pending[resp.ID]
	if ok {
		delete(b.pending, resp.ID)
	}
	b.mu.Unlock()
	if ok {
		p.ch <- resp
	}
}

func (b *Bridge) forget(id uint64) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

// detach clears the connection and fails every RPC pending on it. RPCs
// already issued on a replacement connection are left alone.
func (b *Bridge) detach(conn *websocket.Conn, err error) {
	b.mu.Lock()
	if b.conn == conn {
		b.conn = nil
	}
	for id, p := range b.pending {
		if p.conn != conn {
			continue
		}
		close(p.ch)
		delete(b.pending, id)
	}
	b.mu.Unlock()
	conn.Close()
	b.logger.Warn("device bridge disconnected", zap.Error(err))
}
