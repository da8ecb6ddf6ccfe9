package netplay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// closeGrace bounds how long Close waits to deliver the close frame.
const closeGrace = time.Second

type wsTransport struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

// NewWebSocketTransport adapts an open websocket connection. Frames are sent
// as binary messages.
//
// Precondition: conn must not be nil.
func NewWebSocketTransport(conn *websocket.Conn) Transport {
	return &wsTransport{conn: conn}
}

// Dial opens a websocket transport to url.
func Dial(ctx context.Context, url string) (Transport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return NewWebSocketTransport(conn), nil
}

// Upgrader accepts linked battle connections on an HTTP handler.
type Upgrader struct {
	up websocket.Upgrader
}

// NewUpgrader returns an Upgrader. checkOrigin may be nil to accept every
// origin.
func NewUpgrader(checkOrigin func(*http.Request) bool) *Upgrader {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Upgrader{up: websocket.Upgrader{CheckOrigin: checkOrigin}}
}

// Accept upgrades the request. On failure the upgrader has already replied
// to the client.
func (u *Upgrader) Accept(w http.ResponseWriter, r *http.Request) (Transport, error) {
	conn, err := u.up.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrading websocket: %w", err)
	}
	return NewWebSocketTransport(conn), nil
}

func (t *wsTransport) Read(ctx context.Context) ([]byte, error) {
	_ = t.conn.SetReadDeadline(time.Time{})
	stop := context.AfterFunc(ctx, func() {
		_ = t.conn.SetReadDeadline(time.Now())
	})
	defer stop()
	typ, data, err := t.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if typ != websocket.BinaryMessage {
		return nil, fmt.Errorf("%w: non-binary websocket frame", ErrMalformed)
	}
	return data, nil
}

func (t *wsTransport) Write(ctx context.Context, data []byte) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(dl)
	} else {
		_ = t.conn.SetWriteDeadline(time.Time{})
	}
	return t.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (t *wsTransport) Close() error {
	t.wmu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	werr := t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
	t.wmu.Unlock()
	if errors.Is(werr, websocket.ErrCloseSent) {
		werr = nil
	}
	return errors.Join(werr, t.conn.Close())
}
