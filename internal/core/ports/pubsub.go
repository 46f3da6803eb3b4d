package ports

import "github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"

const AnyTopic = "*"
const UnspecifiedTopic = ""

// EventPublisher receives the events of every committed operation, in
// commit order.
type EventPublisher interface {
	PublishEvents(events []domain.EventLog)
}

// Publisher delivers a serialized message for a topic to some audience.
type Publisher interface {
	Publish(topic string, message string) error
}

type Subscription interface {
	Topic() string
	Id() string
	IsSecured() bool
	NotifyAt() string
}

// PubSub defines the methods of a webhook pubsub service.
type PubSub interface {
	Publisher
	// Subscribe adds a new subscription for the requested topic.
	Subscribe(topic, endpoint, secret string) (string, error)
	// Unsubscribe removes some client defined by its id for a topic.
	Unsubscribe(topic, id string) error
	// ListSubscriptionsForTopic returns the info of all clients subscribed for
	// a certain topic.
	ListSubscriptionsForTopic(topic string) []Subscription
	// Close should be used to gracefully close the connection with the store.
	Close() error
}
