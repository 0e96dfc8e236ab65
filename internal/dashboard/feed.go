package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"backend-fieldtrack/internal/stream"

	"github.com/gorilla/websocket"
)

var feedDialFn = websocket.DefaultDialer.Dial

var (
	feedInitialBackoff = time.Second
	feedMaxBackoff     = 30 * time.Second
)

// FeedListener subscribes to the realtime feed and applies every
// envelope to the aggregator, reconnecting with capped exponential
// backoff on disconnect.
type FeedListener struct {
	url   string
	token string
	apply func(stream.Envelope)
}

func NewFeedListener(url, token string, apply func(stream.Envelope)) *FeedListener {
	return &FeedListener{url: url, token: token, apply: apply}
}

func (f *FeedListener) Run(ctx context.Context) {
	backoff := feedInitialBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		header := http.Header{}
		header.Set("Authorization", "Bearer "+f.token)
		conn, _, err := feedDialFn(f.url, header)
		if err != nil {
			log.Printf("dashboard: feed dial failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > feedMaxBackoff {
				backoff = feedMaxBackoff
			}
			continue
		}
		backoff = feedInitialBackoff

		f.consume(ctx, conn)
		_ = conn.Close()
	}
}

func (f *FeedListener) consume(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env stream.Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				log.Printf("dashboard: bad feed payload: %v", err)
				continue
			}
			f.apply(env)
		}
	}()
	select {
	case <-ctx.Done():
		_ = conn.Close()
		<-done
	case <-done:
	}
}
