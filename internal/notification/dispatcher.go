// Package notification delivers build notifications by email. The Dispatcher
// performs one best-effort SMTP delivery per call and reports the outcome as a
// Result instead of an error, so a mail failure never breaks the caller.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/shaharia-lab/mailnotify/internal/notification")

// Dispatcher sends mail using a fixed set of Settings.
type Dispatcher struct {
	settings  Settings
	factory   SessionFactory
	overrides Properties
	logger    *slog.Logger
	metrics   *Metrics
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSessionFactory replaces the go-mail session factory.
func WithSessionFactory(f SessionFactory) DispatcherOption {
	return func(d *Dispatcher) { d.factory = f }
}

// WithLogger sets the logger used for failure reports.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithPropertyOverrides sets operator-level property overrides. They take
// precedence over the built-in timeout defaults.
func WithPropertyOverrides(p Properties) DispatcherOption {
	return func(d *Dispatcher) { d.overrides = p.Clone() }
}

// WithMetrics records every attempt in m.
func WithMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher creates a Dispatcher for settings.
func NewDispatcher(settings Settings, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		settings: settings,
		factory:  GoMailSessionFactory{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Settings returns the dispatcher configuration.
func (d *Dispatcher) Settings() Settings { return d.settings }

// Equal reports whether d and other were built from equal settings.
func (d *Dispatcher) Equal(other *Dispatcher) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.settings == other.settings
}

// Hash is consistent with Equal.
func (d *Dispatcher) Hash() uint64 {
	if d == nil {
		return 0
	}
	return d.settings.Hash()
}

// attempt tracks the state Send needs for logging and cleanup.
type attempt struct {
	step      FailureReason
	transport Transport
}

// Send makes one delivery attempt of subject/body to recipient. It never
// panics or returns an error: failures are logged at error level and
// reported in the Result. The transport, once acquired, is always closed.
func (d *Dispatcher) Send(ctx context.Context, subject, body, recipient string) (res Result) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "notification.Send", trace.WithAttributes(
		attribute.String("mail.protocol", d.settings.Protocol()),
		attribute.String("mail.host", d.settings.Host),
		attribute.Int("mail.port", d.settings.Port),
	))
	defer span.End()

	a := &attempt{step: ReasonSession}
	defer func() {
		if r := recover(); r != nil {
			res = failed(a.step, fmt.Errorf("panic: %v", r))
		}
		if !res.OK() {
			d.logger.Error("sending failed",
				"subject", subject,
				"recipient", recipient,
				"reason", res.Reason.String(),
				"error", res.Err,
			)
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Reason.String())
		}
		if a.transport != nil {
			if err := d.closeTransport(a.transport); err != nil {
				res.CloseErr = err
				d.logger.Error("failed to close transport", "error", err)
			}
		}
		d.metrics.observe(res, time.Since(start))
	}()

	return d.deliver(ctx, a, subject, body, recipient)
}

func (d *Dispatcher) deliver(ctx context.Context, a *attempt, subject, body, recipient string) Result {
	props := BuildProperties(d.settings, d.overrides)

	var auth *Authenticator
	if d.settings.HasCredentials() {
		auth = &Authenticator{Username: d.settings.Username, Password: d.settings.Password}
	}
	session, err := d.factory.NewSession(props, auth)
	if err != nil {
		return failed(ReasonSession, fmt.Errorf("creating session: %w", err))
	}

	transport, err := session.Transport()
	if err != nil {
		return failed(ReasonSession, fmt.Errorf("acquiring transport: %w", err))
	}
	a.transport = transport

	a.step = ReasonConnect
	username, password := connectCredentials(d.settings)
	if err := transport.Connect(ctx, d.settings.Host, d.settings.Port, username, password); err != nil {
		return failed(classifyConnectErr(err), err)
	}

	a.step = ReasonMessage
	msg, err := session.NewMessage(d.settings.FromAddr, recipient, subject, body)
	if err != nil {
		return failed(ReasonMessage, err)
	}
	recipients, err := msg.GetRecipients()
	if err != nil {
		return failed(ReasonMessage, fmt.Errorf("reading recipients: %w", err))
	}

	a.step = ReasonDelivery
	if err := transport.SendMessage(ctx, msg, recipients); err != nil {
		return failed(ReasonDelivery, err)
	}
	return Result{}
}

// connectCredentials yields nil for both values unless both are non-blank,
// so the connection is anonymous rather than a zero-length login.
func connectCredentials(s Settings) (username, password *string) {
	if !s.HasCredentials() {
		return nil, nil
	}
	return nilIfBlank(s.Username), nilIfBlank(s.Password)
}

// closeTransport converts a panicking Close into an error.
func (d *Dispatcher) closeTransport(t Transport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while closing transport: %v", r)
		}
	}()
	return t.Close()
}

// DispatcherCache hands out one Dispatcher per distinct Settings value.
type DispatcherCache struct {
	mu    sync.Mutex
	opts  []DispatcherOption
	byCfg map[Settings]*Dispatcher
}

// NewDispatcherCache creates a cache whose dispatchers are built with opts.
func NewDispatcherCache(opts ...DispatcherOption) *DispatcherCache {
	return &DispatcherCache{opts: opts, byCfg: make(map[Settings]*Dispatcher)}
}

// Get returns the cached dispatcher for settings, creating it on first use.
func (c *DispatcherCache) Get(settings Settings) *Dispatcher {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.byCfg[settings]; ok {
		return d
	}
	d := NewDispatcher(settings, c.opts...)
	c.byCfg[settings] = d
	return d
}

// Len returns the number of distinct dispatchers held.
func (c *DispatcherCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byCfg)
}
