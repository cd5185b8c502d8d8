package messaging

import (
	messaging "github.com/rodolfodevapp/eventshop-messaging-go/rabbitmq"
)

const (
	ReservationsExchange  = "reservations.events"
	NotificationsExchange = "notifications.events"
)

type EventBuses struct {
	// Producer publishes reservation integration events drained from the outbox.
	Producer *messaging.RabbitMqEventBus
	// Notifications carries ReservationNotification messages for the mailer.
	Notifications *messaging.RabbitMqEventBus
}

func NewEventBuses(rabbitUri string) EventBuses {
	return EventBuses{
		Producer:      newBus(rabbitUri, ReservationsExchange, "reservations.dispatcher.v1"),
		Notifications: newBus(rabbitUri, NotificationsExchange, "reservations.notifier.v1"),
	}
}

func newBus(rabbitUri, exchange, queuePrefix string) *messaging.RabbitMqEventBus {
	opts := messaging.RabbitMqOptions{
		URI:          rabbitUri,
		ExchangeName: exchange,
		QueuePrefix:  queuePrefix,
		Prefetch:     32,
		RetryDelayMs: 30000,
	}
	return messaging.NewRabbitMqEventBus(opts, nil, nil)
}
