package service

import (
	"context"
	"net/http"
	"time"

	"breakout_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type ServiceNotifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

// TickSink — куда отдаём кадры фида; реализует диспетчер тиков.
type TickSink interface {
	SubmitBatch(ticks []models.Tick)
}

// StateTracker — health-состояние фида.
type StateTracker interface {
	SetWSConnected(v bool)
	TouchTick(t time.Time)
}

type Config struct {
	URL          string
	AccessToken  string
	APIKey       string
	PingInterval time.Duration
	Reconnect    time.Duration
}

type Client struct {
	cfg      Config
	log      *zap.Logger
	n        ServiceNotifier
	state    StateTracker
	wsDialer *websocket.Dialer
}

func NewClient(cfg Config, log *zap.Logger, n ServiceNotifier, state StateTracker) *Client {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 20 * time.Second
	}
	if cfg.Reconnect <= 0 {
		cfg.Reconnect = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:      cfg,
		log:      log,
		n:        n,
		state:    state,
		wsDialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Run держит одно соединение на весь список токенов и переподключается до отмены ctx.
func (c *Client) Run(ctx context.Context, tokens []int64, sink TickSink) {
	if len(tokens) == 0 {
		c.log.Warn("[WS] empty universe, feed not started")
		return
	}
	c.notify(ctx, "🚀 Фид запущен: инструментов %d", len(tokens))

	for {
		err := c.session(ctx, tokens, sink)
		c.setConnected(false)
		if ctx.Err() != nil {
			c.log.Info("[WS] feed stopped")
			return
		}
		c.log.Warn("[WS] session ended, reconnecting", zap.Error(err), zap.Duration("after", c.cfg.Reconnect))

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.Reconnect):
		}
	}
}

func (c *Client) session(ctx context.Context, tokens []int64, sink TickSink) error {
	header := http.Header{}
	if c.cfg.APIKey != "" || c.cfg.AccessToken != "" {
		header.Set("Authorization", "token "+c.cfg.APIKey+":"+c.cfg.AccessToken)
	}

	c.log.Info("[WS] connect", zap.String("url", c.cfg.URL), zap.Int("tokens", len(tokens)))
	conn, _, err := c.wsDialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub, err := sonic.ConfigFastest.Marshal(subscribeMsg{Action: "subscribe", Tokens: tokens})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return err
	}
	c.setConnected(true)

	// keepalive; WriteControl безопасен параллельно с чтением
	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(c.cfg.PingInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
				_ = conn.Close()
				return
			case <-done:
				return
			case <-t.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					c.log.Warn("[WS] ping failed", zap.Error(err))
				}
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		ticks, err := DecodeFrame(msg)
		if err != nil {
			c.log.Debug("[WS] bad frame", zap.Error(err))
			continue
		}
		if len(ticks) == 0 {
			continue
		}
		now := time.Now()
		for i := range ticks {
			if ticks[i].At.IsZero() {
				ticks[i].At = now
			}
		}
		sink.SubmitBatch(ticks)
		if c.state != nil {
			c.state.TouchTick(time.Now())
		}
	}
}

func (c *Client) setConnected(v bool) {
	if c.state != nil {
		c.state.SetWSConnected(v)
	}
}

func (c *Client) notify(ctx context.Context, format string, args ...any) {
	if c.n != nil {
		c.n.SendService(ctx, format, args...)
	}
}
