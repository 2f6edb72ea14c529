package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Stream keeps the price cache warm between scheduled refreshes by
// following the Binance combined miniTicker feed for the supported
// symbols. Losing the stream is harmless: the provider falls back to its
// normal fetch path.
type Stream struct {
	baseURL  string
	symbols  []string
	provider *Provider
}

// NewStream creates a live price stream for the given symbols.
func NewStream(baseURL string, symbols []string, provider *Provider) *Stream {
	return &Stream{
		baseURL:  baseURL,
		symbols:  symbols,
		provider: provider,
	}
}

// miniTicker is the subset of the Binance payload we care about.
type miniTicker struct {
	Data struct {
		Symbol string `json:"s"`
		Close  string `json:"c"`
	} `json:"data"`
}

// Run reads ticker events until the context is cancelled, reconnecting
// with exponential backoff on any error.
func (s *Stream) Run(ctx context.Context) {
	reconnectDelay := 5 * time.Second
	maxReconnectDelay := 60 * time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := s.connect(ctx)
		if err != nil {
			log.Printf("⚠️  Price stream connect failed: %v", err)
		} else {
			log.Printf("✅ Price stream connected (%d symbols)", len(s.symbols))
			reconnectDelay = 5 * time.Second
			err = s.readLoop(ctx, conn)
			conn.Close()
			if ctx.Err() != nil {
				return
			}
			log.Printf("⚠️  Price stream error: %v", err)
		}

		log.Printf("🔄 Reconnecting price stream in %v...", reconnectDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
		reconnectDelay *= 2
		if reconnectDelay > maxReconnectDelay {
			reconnectDelay = maxReconnectDelay
		}
	}
}

func (s *Stream) connect(ctx context.Context) (*websocket.Conn, error) {
	streams := make([]string, 0, len(s.symbols))
	for _, sym := range s.symbols {
		if IsSupported(sym) {
			streams = append(streams, strings.ToLower(sym)+"usdt@miniTicker")
		}
	}
	if len(streams) == 0 {
		return nil, fmt.Errorf("no supported symbols to stream")
	}

	url := fmt.Sprintf("%s?streams=%s", s.baseURL, strings.Join(streams, "/"))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.baseURL, err)
	}
	return conn, nil
}

func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) error {
	// Unblock ReadMessage when the context is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var tick miniTicker
		if err := json.Unmarshal(payload, &tick); err != nil {
			continue // skip malformed frames
		}

		sym := strings.TrimSuffix(strings.ToUpper(tick.Data.Symbol), "USDT")
		var price float64
		if _, err := fmt.Sscanf(tick.Data.Close, "%f", &price); err != nil {
			continue
		}
		s.provider.StorePrice(ctx, sym, price)
	}
}
