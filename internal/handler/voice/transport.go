package voice

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voicerelay/backend/internal/service/session"
)

// wsTransport adapts a gorilla connection to the session transport contract.
// Receive is called by the session goroutine only; Send is serialized against
// the ping loop's control frames by gorilla itself, and against itself by
// the write mutex.
type wsTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{conn: conn}
}

func (t *wsTransport) Send(_ context.Context, event session.Event) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteJSON(event)
}

func (t *wsTransport) Receive(_ context.Context) (session.Input, error) {
	// Refresh before blocking: a turn that outlasts the read window must not
	// count against the next read.
	t.conn.SetReadDeadline(time.Now().Add(readWait))

	var input session.Input
	if err := t.conn.ReadJSON(&input); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
			log.Printf("[websocket] read error: %v", err)
		}
		return session.Input{}, fmt.Errorf("%w: %v", session.ErrTransportClosed, err)
	}

	return input, nil
}
