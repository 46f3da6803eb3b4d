package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const queueSize = 1024

var (
	ErrInvalidTopic = domain.NewError(
		"InvalidWebhookEvent", domain.ErrClassValidation, "unknown webhook event type",
	)
	ErrMissingEndpoint = domain.NewError(
		"MissingWebhookEndpoint", domain.ErrClassValidation, "missing webhook endpoint",
	)
)

var topics = map[string]bool{
	string(domain.TopicOrderCreated):         true,
	string(domain.TopicOrderCancelled):       true,
	string(domain.TopicOrderExecuted):        true,
	string(domain.TopicTradeExecuted):        true,
	string(domain.TopicTokenAdded):           true,
	string(domain.TopicTokenRemoved):         true,
	string(domain.TopicTradeContractUpdated): true,
	string(domain.TopicTokenRestriction):     true,
	string(domain.TopicOwnershipTransferred): true,
	ports.AnyTopic:                           true,
}

// IsValidTopic tells whether subscribers can register for topic.
func IsValidTopic(topic string) bool {
	return topics[topic]
}

// Service forwards committed contract events to webhook subscribers and to
// any other registered sink, in commit order.
type Service struct {
	pubsub ports.PubSub

	lock  *sync.RWMutex
	sinks []ports.Publisher

	queue chan []domain.EventLog
	done  chan struct{}
	once  sync.Once
}

func NewService(pubsub ports.PubSub, sinks ...ports.Publisher) (*Service, error) {
	if pubsub == nil {
		return nil, fmt.Errorf("missing pubsub")
	}

	svc := &Service{
		pubsub: pubsub,
		lock:   &sync.RWMutex{},
		sinks:  sinks,
		queue:  make(chan []domain.EventLog, queueSize),
		done:   make(chan struct{}),
	}
	go svc.dispatch()
	return svc, nil
}

// AddSink registers one more receiver of event messages.
func (s *Service) AddSink(sink ports.Publisher) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sinks = append(s.sinks, sink)
}

func (s *Service) AddWebhook(
	_ context.Context, topic, endpoint, secret string,
) (string, error) {
	if !IsValidTopic(topic) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	if endpoint == "" {
		return "", ErrMissingEndpoint
	}
	return s.pubsub.Subscribe(topic, endpoint, secret)
}

func (s *Service) RemoveWebhook(_ context.Context, id string) error {
	return s.pubsub.Unsubscribe(ports.UnspecifiedTopic, id)
}

// ListWebhooks returns the webhooks registered for topic, including those
// for any topic. An empty topic lists them all.
func (s *Service) ListWebhooks(_ context.Context, topic string) ([]WebhookInfo, error) {
	if topic != ports.UnspecifiedTopic && !IsValidTopic(topic) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	subs := s.pubsub.ListSubscriptionsForTopic(topic)
	webhooks := make([]WebhookInfo, 0, len(subs))
	for _, sub := range subs {
		webhooks = append(webhooks, WebhookInfo{
			Id:       sub.Id(),
			Topic:    sub.Topic(),
			Endpoint: sub.NotifyAt(),
			Secured:  sub.IsSecured(),
		})
	}
	return webhooks, nil
}

// PublishEvents enqueues a batch of committed events. It never blocks: if
// the queue is full the batch is dropped.
func (s *Service) PublishEvents(events []domain.EventLog) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.queue <- events:
	default:
		log.Warnf("event queue full, dropping %d events", len(events))
	}
}

// Close stops dispatching and closes the webhook store.
func (s *Service) Close() {
	s.once.Do(func() {
		close(s.done)
		if err := s.pubsub.Close(); err != nil {
			log.WithError(err).Warn("failed to close pubsub")
		}
	})
}

func (s *Service) dispatch() {
	for {
		select {
		case <-s.done:
			return
		case events := <-s.queue:
			for _, event := range events {
				s.publish(event)
			}
		}
	}
}

func (s *Service) publish(event domain.EventLog) {
	topic := string(event.Event.Topic())
	payload := getEventPayload(event)
	message, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Warnf("failed to serialize %s event", topic)
		return
	}

	s.lock.RLock()
	publishers := append([]ports.Publisher{s.pubsub}, s.sinks...)
	s.lock.RUnlock()

	for _, p := range publishers {
		if err := p.Publish(topic, string(message)); err != nil {
			log.WithError(err).Warnf("failed to publish %s event", topic)
		}
	}
}

type WebhookInfo struct {
	Id       string `json:"id"`
	Topic    string `json:"event"`
	Endpoint string `json:"endpoint"`
	Secured  bool   `json:"is_secured"`
}
