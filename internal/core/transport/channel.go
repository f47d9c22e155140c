package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/genbridge/genbridge/internal/core/backend"
	"github.com/genbridge/genbridge/internal/core/event"
	"github.com/genbridge/genbridge/internal/core/job"
	"github.com/genbridge/genbridge/internal/core/state"
)

// Conn is the subset of a websocket connection the channel needs.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// DialFunc opens a push connection. Injected so tests run without a
// network.
type DialFunc func(ctx context.Context, url string) (Conn, error)

// Dial is the production DialFunc.
func Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Channel owns at most one live push connection and translates inbound
// frames into state-store calls. It holds no business logic beyond
// that translation.
type Channel struct {
	dial           DialFunc
	reconnectDelay time.Duration

	queue   *state.Queue
	results *state.Results
	conn    *state.Connection
	bus     event.Bus

	mu     sync.Mutex
	ws     Conn
	url    string
	gen    uint64 // bumped on every connect/close; stale callbacks check it
	closed bool
	timer  *time.Timer
}

func NewChannel(dial DialFunc, reconnectDelay time.Duration, queue *state.Queue, results *state.Results, conn *state.Connection, bus event.Bus) *Channel {
	if dial == nil {
		dial = Dial
	}
	if reconnectDelay <= 0 {
		reconnectDelay = 3 * time.Second
	}
	return &Channel{
		dial:           dial,
		reconnectDelay: reconnectDelay,
		queue:          queue,
		results:        results,
		conn:           conn,
		bus:            bus,
	}
}

// Connect opens the channel to url, tearing down any previous
// connection first so its close handling cannot trigger a reconnect.
func (c *Channel) Connect(ctx context.Context, url string) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.closed = false
	c.url = url
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.ws != nil {
		_ = c.ws.Close()
		c.ws = nil
	}
	c.mu.Unlock()

	ws, err := c.dial(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("push channel dial failed")
		c.setConnected(false)
		c.scheduleReconnect(gen)
		return err
	}

	c.mu.Lock()
	if c.closed || gen != c.gen {
		// A newer Connect or a Close won the race; discard this dial.
		c.mu.Unlock()
		_ = ws.Close()
		return nil
	}
	c.ws = ws
	c.mu.Unlock()

	c.setConnected(true)
	log.Info().Str("url", url).Msg("push channel connected")
	go c.readLoop(ws, gen)
	return nil
}

// Close tears the channel down. Idempotent; no reconnect fires after
// it returns.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()

	if ws != nil {
		_ = ws.Close()
		c.setConnected(false)
	}
}

func (c *Channel) readLoop(ws Conn, gen uint64) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.onClose(gen, err)
			return
		}
		c.Handle(context.Background(), data)
	}
}

func (c *Channel) onClose(gen uint64, err error) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.ws = nil
	c.mu.Unlock()

	log.Warn().Err(err).Msg("push channel closed")
	c.setConnected(false)
	c.scheduleReconnect(gen)
}

// scheduleReconnect arms a single reconnect attempt. The timer is
// skipped if a newer connection was established or the channel was
// closed before it fired.
func (c *Channel) scheduleReconnect(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen || c.timer != nil {
		return
	}
	c.timer = time.AfterFunc(c.reconnectDelay, func() {
		c.mu.Lock()
		c.timer = nil
		stale := c.closed || gen != c.gen
		url := c.url
		c.mu.Unlock()
		if stale {
			return
		}
		_ = c.Connect(context.Background(), url)
	})
}

func (c *Channel) setConnected(connected bool) {
	changed := c.conn.Connected() != connected
	c.conn.SetConnected(connected)
	if changed {
		c.bus.Publish(context.Background(), event.Event{
			Type:    event.TypeConnectionChanged,
			Payload: event.ConnectionEvent{Connected: connected},
		})
	}
}

// Handle processes one inbound frame. Malformed frames are logged and
// dropped; one bad frame must never kill the channel.
func (c *Channel) Handle(ctx context.Context, data []byte) {
	msg, err := Decode(data)
	if err != nil {
		log.Debug().Err(err).Msg("dropping malformed frame")
		return
	}

	switch m := msg.(type) {
	case Progress:
		c.queue.Upsert(progressUpdate(m))
	case Complete:
		c.handleComplete(ctx, m)
	case Failed:
		c.queue.Remove(m.JobID)
		c.bus.Publish(ctx, event.Event{
			Type:    event.TypeGenerationFailed,
			Payload: event.GenerationEvent{JobID: m.JobID, Error: m.Error},
		})
		c.notify(ctx, event.LevelError, "Generation failed: "+m.Error)
	case QueueReplace:
		if m.HasJobs {
			jobs := make([]job.Job, 0, len(m.Jobs))
			for _, rec := range m.Jobs {
				jobs = append(jobs, rec.Canonical())
			}
			c.queue.Replace(jobs)
		}
	case SystemStatus:
		c.conn.MergeSystem(m.Fields)
	case Started:
		log.Debug().Str("job_id", m.JobID).Msg("generation started")
	case Unknown:
		log.Debug().Str("type", m.Type).Msg("unknown frame type")
	}
}

func (c *Channel) handleComplete(ctx context.Context, m Complete) {
	tracked, wasTracked := c.queue.Get(m.JobID)
	c.queue.Remove(m.JobID)

	res := job.Result{
		ID:    m.ResultID,
		JobID: m.JobID,
		Params: job.Params{
			Prompt:         m.Prompt,
			NegativePrompt: m.NegativePrompt,
			Width:          m.Width,
			Height:         m.Height,
			Steps:          m.Steps,
			CfgScale:       m.CfgScale,
			Seed:           m.Seed,
		},
		ImageURL:  m.ImageURL,
		CreatedAt: backend.ParseTimestamp(m.CreatedAt),
	}
	if res.ID == "" {
		res.ID = m.JobID
	}
	if wasTracked {
		fillMissingParams(&res.Params, tracked.Params)
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now()
	}
	c.results.Add(res)

	c.bus.Publish(ctx, event.Event{
		Type: event.TypeGenerationCompleted,
		Payload: event.GenerationEvent{
			JobID:    m.JobID,
			ResultID: res.ID,
			Prompt:   res.Params.Prompt,
		},
	})
	c.notify(ctx, event.LevelSuccess, "Generation completed")
}

// fillMissingParams backfills parameter fields the completion payload
// omitted from the ones the job echoed back at submission time. The
// fallback is per field so a payload carrying only the prompt still
// keeps the job's dimensions.
func fillMissingParams(p *job.Params, from job.Params) {
	if p.Prompt == "" {
		p.Prompt = from.Prompt
	}
	if p.NegativePrompt == "" {
		p.NegativePrompt = from.NegativePrompt
	}
	if p.Width == 0 {
		p.Width = from.Width
	}
	if p.Height == 0 {
		p.Height = from.Height
	}
	if p.Steps == 0 {
		p.Steps = from.Steps
	}
	if p.CfgScale == 0 {
		p.CfgScale = from.CfgScale
	}
	if p.Seed == 0 {
		p.Seed = from.Seed
	}
}

func (c *Channel) notify(ctx context.Context, level event.Level, msg string) {
	c.bus.Publish(ctx, event.Event{
		Type:    event.TypeNotification,
		Payload: event.Notification{Level: level, Message: msg},
	})
}

func progressUpdate(m Progress) job.Update {
	id := m.JobID
	if id == "" {
		id = m.ID
	}
	u := job.Update{ID: id}
	if m.Status != "" {
		u.Status = job.ParseStatus(m.Status)
	}
	if m.Progress != nil {
		pct := job.NormalizeProgress(m.Progress)
		u.Progress = &pct
	}
	u.CurrentStep = m.CurrentStep
	u.TotalSteps = m.TotalSteps
	return u
}
