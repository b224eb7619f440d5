package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"transformrecorder/internal/clock"
	"transformrecorder/internal/fileutil"
	"transformrecorder/internal/logging"
	"transformrecorder/internal/sequence"
	"transformrecorder/internal/transform"
)

// State is the controller lifecycle state.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateRecording:
		return "recording"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Encoder persists one channel's samples. *sequence.Encoder implements it.
type Encoder interface {
	WriteChannel(ordinal int, name string, samples []transform.Sample) (sequence.Result, error)
	Dir() string
}

// SessionRecord summarizes a stopped session for cataloging.
type SessionRecord struct {
	ID        string
	StartedAt time.Time
	StoppedAt time.Time
	Duration  float64
	Events    int
	Files     []sequence.Result
}

// Catalog stores records of saved sessions.
type Catalog interface {
	RecordSession(ctx context.Context, rec SessionRecord) error
}

// StopResult reports what a Stop call did.
type StopResult struct {
	SessionID string
	// Files lists the sequence files written successfully.
	Files []sequence.Result
	// Events is the number of change notifications sampled.
	Events int
	// Duration is the frozen clock reading in seconds.
	Duration float64
	// Persisted is set when the session was handed to the encoder.
	Persisted bool
}

// Option customizes a Controller.
type Option func(*Controller)

// WithEncoder sets the encoder used on Stop.
func WithEncoder(enc Encoder) Option {
	return func(c *Controller) { c.encoder = enc }
}

// WithCatalog records every persisted session in cat.
func WithCatalog(cat Catalog) Option {
	return func(c *Controller) { c.catalog = cat }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithPersist sets whether Stop writes sequence files. The default is true.
func WithPersist(persist bool) Option {
	return func(c *Controller) { c.persist = persist }
}

// WithTimeSource drives the session clock from source.
func WithTimeSource(source clock.TimeSource) Option {
	return func(c *Controller) { c.timeSource = source }
}

// WithWallClock overrides the wall clock used for session start and stop
// times.
func WithWallClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithEventErrorHandler receives errors from change notifications processed
// through the source subscription, which has no caller to return them to.
func WithEventErrorHandler(fn func(error)) Option {
	return func(c *Controller) { c.onEventError = fn }
}

// WithDirLock holds the output directory lock while Stop writes files.
func WithDirLock() Option {
	return func(c *Controller) { c.lockDir = true }
}

// Controller drives the Idle -> Armed -> Recording lifecycle of one session.
type Controller struct {
	session *Session
	state   State
	active  int
	sub     transform.Subscription

	persist      bool
	lockDir      bool
	encoder      Encoder
	catalog      Catalog
	logger       *slog.Logger
	onEventError func(error)
	timeSource   clock.TimeSource
	now          func() time.Time
}

// NewController returns an idle controller with an empty session.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		persist: true,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "capture")
	c.session = NewSession(c.timeSource)
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// Session returns the live session.
func (c *Controller) Session() *Session { return c.session }

// Active returns the ordinal of the observed channel, or 0 when idle.
func (c *Controller) Active() int { return c.active }

// Count returns the number of samples buffered for the channel.
func (c *Controller) Count(ordinal int) int { return c.session.Buffer().Count(ordinal) }

// Persist reports whether Stop writes sequence files.
func (c *Controller) Persist() bool { return c.persist }

// SetPersist toggles writing sequence files on Stop.
func (c *Controller) SetPersist(persist bool) { c.persist = persist }

// BindChannel assigns src to the channel, named after the source.
func (c *Controller) BindChannel(ordinal int, src transform.Source) error {
	return c.BindChannelNamed(ordinal, src, "")
}

// BindChannelNamed assigns src to the channel under name. An empty name uses
// the source name.
func (c *Controller) BindChannelNamed(ordinal int, src transform.Source, name string) error {
	if c.state == StateRecording {
		return fmt.Errorf("bind channel %d: %w: %s", ordinal, ErrInvalidState, c.state)
	}
	return c.session.Bind(ordinal, src, name)
}

// UnbindChannel clears the channel binding.
func (c *Controller) UnbindChannel(ordinal int) error {
	if c.state == StateRecording {
		return fmt.Errorf("unbind channel %d: %w: %s", ordinal, ErrInvalidState, c.state)
	}
	if err := c.session.Unbind(ordinal); err != nil {
		return err
	}
	if c.active == ordinal {
		c.active = 0
		c.state = StateIdle
	}
	return nil
}

// SelectChannel picks the first bound channel in ordinal order as the active
// target and arms the controller.
func (c *Controller) SelectChannel() (Channel, error) {
	if c.state == StateRecording {
		return Channel{}, fmt.Errorf("select channel: %w: %s", ErrInvalidState, c.state)
	}
	for _, ch := range c.session.Channels() {
		if ch.Bound() {
			c.active = ch.Ordinal
			c.state = StateArmed
			return ch, nil
		}
	}
	return Channel{}, ErrNoChannelBound
}

// Record starts observing the active channel. From Idle it selects a channel
// first.
func (c *Controller) Record() error {
	if c.state == StateRecording {
		return fmt.Errorf("record: %w: %s", ErrInvalidState, c.state)
	}
	ch, err := c.SelectChannel()
	if err != nil {
		return err
	}
	c.sub = ch.Source.Subscribe(c.handleChange)
	c.state = StateRecording
	c.logger.Info("recording started",
		logging.String(logging.FieldSessionID, c.session.ID()),
		logging.Int(logging.FieldOrdinal, ch.Ordinal),
		logging.String(logging.FieldChannel, ch.Name),
		logging.Int("bound_channels", len(c.session.BoundChannels())),
	)
	return nil
}

func (c *Controller) handleChange() {
	if err := c.OnSourceChanged(); err != nil {
		c.logger.Warn("change notification dropped",
			logging.String(logging.FieldSessionID, c.session.ID()),
			logging.Error(err),
		)
		if c.onEventError != nil {
			c.onEventError(err)
		}
	}
}

// OnSourceChanged samples every bound channel once. It is ignored unless the
// controller is recording. The first event starts the clock.
func (c *Controller) OnSourceChanged() error {
	if c.state != StateRecording {
		return nil
	}
	clk := c.session.Clock()
	if !clk.Started() {
		if err := clk.Start(); err != nil {
			c.logger.Warn("clock start ignored", logging.Error(err))
		}
	}
	return c.session.sample(clk.Elapsed(), c.now())
}

// Stop ends recording, writes the buffered channels when persistence is on,
// and resets the session. Stop while idle or armed does nothing. Channels are
// saved independently; a *SaveError lists the ones that failed and the
// session is reset regardless.
func (c *Controller) Stop(ctx context.Context) (StopResult, error) {
	switch c.state {
	case StateIdle:
		return StopResult{}, nil
	case StateArmed:
		c.state = StateIdle
		c.active = 0
		return StopResult{}, nil
	}

	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
	clk := c.session.Clock()
	if clk.Running() {
		if err := clk.Stop(); err != nil {
			c.logger.Warn("clock stop ignored", logging.Error(err))
		}
	}

	result := StopResult{
		SessionID: c.session.ID(),
		Events:    c.session.Events(),
		Duration:  clk.Elapsed(),
	}
	var err error
	if c.persist {
		result.Persisted = true
		result.Files, err = c.save(ctx)
		c.recordSession(ctx, result)
	}

	c.logger.Info("recording stopped",
		logging.String(logging.FieldSessionID, result.SessionID),
		logging.Int("events", result.Events),
		logging.Float64("duration_seconds", result.Duration),
		logging.Int("files", len(result.Files)),
		logging.Bool("persisted", result.Persisted),
	)

	c.session.Reset()
	c.state = StateIdle
	c.active = 0
	return result, err
}

func (c *Controller) save(ctx context.Context) ([]sequence.Result, error) {
	pending := make([]Channel, 0, NumChannels)
	for _, ch := range c.session.BoundChannels() {
		if c.session.Buffer().Count(ch.Ordinal) > 0 {
			pending = append(pending, ch)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	failAll := func(err error) error {
		saveErr := &SaveError{}
		for _, ch := range pending {
			saveErr.Failures = append(saveErr.Failures, &sequence.WriteError{
				Ordinal: ch.Ordinal,
				Channel: ch.Name,
				Err:     err,
			})
		}
		return saveErr
	}
	if c.encoder == nil {
		return nil, failAll(ErrNoEncoder)
	}
	if c.lockDir {
		lock, err := fileutil.LockDir(ctx, c.encoder.Dir())
		if err != nil {
			return nil, failAll(fmt.Errorf("%w: %w", sequence.ErrOutputNotWritable, err))
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				c.logger.Warn("release output lock", logging.Error(err))
			}
		}()
	}

	var (
		files    []sequence.Result
		failures []*sequence.WriteError
	)
	for _, ch := range pending {
		samples := c.session.Buffer().Drain(ch.Ordinal, false)
		res, err := c.encoder.WriteChannel(ch.Ordinal, ch.Name, samples)
		if err != nil {
			var writeErr *sequence.WriteError
			if !errors.As(err, &writeErr) {
				writeErr = &sequence.WriteError{Ordinal: ch.Ordinal, Channel: ch.Name, Err: err}
			}
			c.logger.Error("sequence file not saved",
				logging.String(logging.FieldSessionID, c.session.ID()),
				logging.Int(logging.FieldOrdinal, ch.Ordinal),
				logging.String(logging.FieldChannel, ch.Name),
				logging.Error(err),
			)
			failures = append(failures, writeErr)
			continue
		}
		files = append(files, res)
	}
	if len(failures) > 0 {
		return files, &SaveError{Failures: failures}
	}
	return files, nil
}

func (c *Controller) recordSession(ctx context.Context, result StopResult) {
	if c.catalog == nil || len(result.Files) == 0 {
		return
	}
	rec := SessionRecord{
		ID:        result.SessionID,
		StartedAt: c.session.StartedAt(),
		StoppedAt: c.now(),
		Duration:  result.Duration,
		Events:    result.Events,
		Files:     result.Files,
	}
	if err := c.catalog.RecordSession(ctx, rec); err != nil {
		c.logger.Warn("catalog update failed",
			logging.String(logging.FieldSessionID, result.SessionID),
			logging.Error(err),
		)
	}
}
