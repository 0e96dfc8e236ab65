package client

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"backend-fieldtrack/internal/stream"

	"github.com/gorilla/websocket"
)

var dialFn = websocket.DefaultDialer.Dial

var (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Tracker keeps one persistent websocket to the ingest endpoint and
// pushes position envelopes over it. Sends are fire-and-forget: while
// the connection is down, messages are dropped, not queued.
type Tracker struct {
	url   string
	token string

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewTracker(url, token string) *Tracker {
	return &Tracker{url: url, token: token}
}

// Run dials and redials the ingest socket until ctx is cancelled,
// backing off exponentially up to maxBackoff between failed attempts.
func (t *Tracker) Run(ctx context.Context) {
	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		header := http.Header{}
		header.Set("Authorization", "Bearer "+t.token)
		conn, _, err := dialFn(t.url, header)
		if err != nil {
			log.Printf("client: dial %s failed: %v", t.url, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = initialBackoff

		t.mu.Lock()
		t.conn = conn
		t.mu.Unlock()

		t.readUntilClosed(ctx, conn)

		t.mu.Lock()
		t.conn = nil
		t.mu.Unlock()
		_ = conn.Close()
	}
}

// readUntilClosed drains the connection so disconnects are noticed
// promptly. The server sends nothing meaningful on the ingest socket.
func (t *Tracker) readUntilClosed(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	select {
	case <-ctx.Done():
		_ = conn.Close()
		<-done
	case <-done:
	}
}

// SendPosition pushes one position update. Dropped silently when the
// connection is down; the sampler's throttling bounds what is lost.
func (t *Tracker) SendPosition(visitID string, lat, lng float64, recordedAt time.Time) {
	t.send(stream.Envelope{
		Kind:       stream.KindPositionUpdate,
		VisitID:    visitID,
		Lat:        lat,
		Lng:        lng,
		RecordedAt: recordedAt,
	})
}

// SendStop sends the advisory stop-tracking signal. The authoritative
// stop is the end-visit REST call.
func (t *Tracker) SendStop(visitID string) {
	t.send(stream.Envelope{Kind: stream.KindStopTracking, VisitID: visitID})
}

func (t *Tracker) send(env stream.Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}

	// the lock also serializes writers on the shared connection
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("client: dropped %s message: %v", env.Kind, err)
	}
}
