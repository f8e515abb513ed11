package market

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultWSURL is the Hyperliquid mainnet websocket endpoint.
const DefaultWSURL = "wss://api.hyperliquid.xyz/ws"

const (
	wsHandshakeTimeout = 10 * time.Second
	wsReadTimeout      = 60 * time.Second
	wsMaxBackoff       = 30 * time.Second
)

// Stream maintains a websocket subscription to the allMids feed and pushes
// mid price maps to Updates. It reconnects with exponential backoff until
// stopped.
type Stream struct {
	url     string
	log     *slog.Logger
	updates chan map[string]float64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStream creates a Stream for the given websocket URL. An empty url
// selects DefaultWSURL.
func NewStream(url string) *Stream {
	if url == "" {
		url = DefaultWSURL
	}
	return &Stream{
		url:     url,
		log:     slog.Default().With("component", "price-stream"),
		updates: make(chan map[string]float64, 1),
	}
}

// Updates returns the channel of mid price maps. Slow consumers miss
// intermediate updates rather than blocking the reader.
func (s *Stream) Updates() <-chan map[string]float64 {
	return s.updates
}

// Start launches the connection loop. It returns immediately.
func (s *Stream) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.connectionLoop(ctx)
}

// Stop tears down the connection and waits for the loop to exit.
func (s *Stream) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Stream) connectionLoop(ctx context.Context) {
	defer s.wg.Done()

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			s.log.Info("price stream stopped")
			return
		default:
		}

		err := s.readOnce(ctx)
		if err != nil && ctx.Err() == nil {
			s.log.Warn("price stream disconnected", "error", err, "backoff", backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > wsMaxBackoff {
			backoff = wsMaxBackoff
		}
	}
}

func (s *Stream) readOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := map[string]any{
		"method": "subscribe",
		"subscription": map[string]any{"type": "allMids"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}
	s.log.Info("price stream connected", "url", s.url)

	// Unblock the read loop when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	type allMidsMessage struct {
		Channel string `json:"channel"`
		Data    struct {
			Mids map[string]string `json:"mids"`
		} `json:"data"`
	}

	for {
		if err := conn.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			return err
		}

		var msg allMidsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		if msg.Channel != "allMids" {
			continue
		}

		mids := make(map[string]float64, len(msg.Data.Mids))
		for coin, v := range msg.Data.Mids {
			if strings.HasPrefix(coin, "@") {
				continue
			}
			price, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			mids[coin] = price
		}
		if len(mids) == 0 {
			continue
		}

		select {
		case s.updates <- mids:
		default:
			// Drop the pending update in favour of the newest one.
			select {
			case <-s.updates:
			default:
			}
			select {
			case s.updates <- mids:
			default:
			}
		}
	}
}
