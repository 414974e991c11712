package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"GammaPull/pkg/logger"
)

// Feed maintains a websocket subscription to per-ticker trade prints and
// keeps the last trade in memory. It is an optional spot-resolution rung:
// when the feed is down, resolution falls through to REST.
type Feed struct {
	url            string
	apiKey         string
	tickers        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	mu    sync.RWMutex
	last  map[string]lastTrade
	conn  *websocket.Conn
	done  chan struct{}
	once  sync.Once
	runWG sync.WaitGroup
}

type lastTrade struct {
	price float64
	at    time.Time
}

type Config struct {
	WebSocketURL   string
	APIKey         string
	Tickers        []string
	ReconnectDelay time.Duration
	PingInterval   time.Duration
}

func NewFeed(cfg Config, log *logger.Logger) (*Feed, error) {
	if cfg.WebSocketURL == "" {
		return nil, fmt.Errorf("stream: websocket url is required")
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}

	return &Feed{
		url:            cfg.WebSocketURL,
		apiKey:         cfg.APIKey,
		tickers:        cfg.Tickers,
		reconnectDelay: cfg.ReconnectDelay,
		pingInterval:   cfg.PingInterval,
		log:            log,
		last:           make(map[string]lastTrade),
		done:           make(chan struct{}),
	}, nil
}

// Start launches the connect/read loop. Reconnects with a fixed delay
// until Stop is called.
func (f *Feed) Start(ctx context.Context) {
	f.runWG.Add(1)
	go func() {
		defer f.runWG.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-f.done:
				return
			default:
			}

			if err := f.connectAndRead(ctx); err != nil {
				f.log.Warn("stream disconnected", logger.Error(err))
			}

			select {
			case <-ctx.Done():
				return
			case <-f.done:
				return
			case <-time.After(f.reconnectDelay):
			}
		}
	}()
}

// Stop terminates the loop and closes the connection.
func (f *Feed) Stop() {
	f.once.Do(func() { close(f.done) })
	f.mu.Lock()
	if f.conn != nil {
		_ = f.conn.Close()
	}
	f.mu.Unlock()
	f.runWG.Wait()
}

// LastTrade returns the most recent trade print for a ticker.
func (f *Feed) LastTrade(ticker string) (float64, time.Time, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	lt, ok := f.last[ticker]
	if !ok {
		return 0, time.Time{}, false
	}
	return lt.price, lt.at, true
}

type controlMessage struct {
	Action string `json:"action"`
	Params string `json:"params"`
}

type tradeEvent struct {
	Event     string  `json:"ev"`
	Symbol    string  `json:"sym"`
	Price     float64 `json:"p"`
	Timestamp int64   `json:"t"` // unix millis
}

func (f *Feed) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
	defer conn.Close()

	if f.apiKey != "" {
		if err := conn.WriteJSON(controlMessage{Action: "auth", Params: f.apiKey}); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	subs := make([]string, 0, len(f.tickers))
	for _, t := range f.tickers {
		subs = append(subs, "T."+t)
	}
	if err := conn.WriteJSON(controlMessage{Action: "subscribe", Params: strings.Join(subs, ",")}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	f.log.Info("stream connected", logger.Strings("tickers", f.tickers))

	// Keepalive pings; the read loop below owns the connection lifetime.
	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(f.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ticker.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var events []tradeEvent
		if err := json.Unmarshal(raw, &events); err != nil {
			continue // status/control frames are not trade arrays
		}
		for _, ev := range events {
			if ev.Event != "T" || ev.Price <= 0 {
				continue
			}
			f.mu.Lock()
			f.last[ev.Symbol] = lastTrade{
				price: ev.Price,
				at:    time.UnixMilli(ev.Timestamp),
			}
			f.mu.Unlock()
		}
	}
}
