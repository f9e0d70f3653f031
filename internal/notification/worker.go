package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"parking-service/internal/model"
	"parking-service/internal/repository"
)

// Sender abstracts the Web Push delivery call so tests can capture
// payloads without a push service.
type Sender interface {
	Send(ctx context.Context, message []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)
}

type webpushSender struct{}

func (webpushSender) Send(ctx context.Context, message []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error) {
	return webpush.SendNotificationWithContext(ctx, message, sub, opts)
}

type envelope struct {
	Event     string    `json:"event"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

type WebPushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subject         string
	TTL             int
	WorkerPoolSize  int
	QueueSize       int
}

// WebPushPublisher fans events out to all registered browser
// subscriptions through a fixed worker pool. Publish never blocks the
// caller: when the queue is full the event is dropped and logged.
type WebPushPublisher struct {
	cfg    WebPushConfig
	subs   *repository.SubscriptionRepository
	sender Sender
	queue  chan envelope
	wg     sync.WaitGroup
	log    zerolog.Logger
}

func NewWebPushPublisher(cfg WebPushConfig, subs *repository.SubscriptionRepository, log zerolog.Logger) *WebPushPublisher {
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 60
	}
	return &WebPushPublisher{
		cfg:    cfg,
		subs:   subs,
		sender: webpushSender{},
		queue:  make(chan envelope, cfg.QueueSize),
		log:    log,
	}
}

// Start launches the worker pool. Workers drain the queue until ctx is
// cancelled; Wait blocks until they finish.
func (p *WebPushPublisher) Start(ctx context.Context) {
	for i := 0; i < p.cfg.WorkerPoolSize; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *WebPushPublisher) Wait() {
	p.wg.Wait()
}

// Publish enqueues an event for delivery. Fire and forget: a full queue
// drops the event rather than stalling request handling.
func (p *WebPushPublisher) Publish(event string, payload any) {
	env := envelope{Event: event, Payload: payload, Timestamp: time.Now().UTC()}
	select {
	case p.queue <- env:
	default:
		p.log.Warn().Str("event", event).Msg("notification queue full, event dropped")
	}
}

func (p *WebPushPublisher) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-p.queue:
			p.deliver(ctx, env)
		}
	}
}

func (p *WebPushPublisher) deliver(ctx context.Context, env envelope) {
	body, err := json.Marshal(env)
	if err != nil {
		p.log.Error().Err(err).Str("event", env.Event).Msg("failed to marshal notification")
		return
	}

	subs, err := p.subs.All(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to load push subscriptions")
		return
	}

	opts := &webpush.Options{
		Subscriber:      p.cfg.Subject,
		VAPIDPublicKey:  p.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: p.cfg.VAPIDPrivateKey,
		TTL:             p.cfg.TTL,
	}

	for _, sub := range subs {
		p.send(ctx, body, sub, opts)
	}
}

func (p *WebPushPublisher) send(ctx context.Context, body []byte, sub model.PushSubscription, opts *webpush.Options) {
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}
	resp, err := p.sender.Send(ctx, body, target, opts)
	if err != nil {
		p.log.Warn().Err(err).Str("endpoint", sub.Endpoint).Msg("push delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		// Subscription expired at the push service; drop it on our side too.
		if err := p.subs.Delete(ctx, sub.Endpoint); err != nil {
			p.log.Warn().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to remove expired subscription")
			return
		}
		p.log.Info().Str("endpoint", sub.Endpoint).Msg("removed expired push subscription")
	}
}
