package rabbitmq

// Exchange direct-обменник уведомлений.
const Exchange = "notifications"

// RoutingTrial ключ маршрутизации уведомлений о пробном периоде.
const RoutingTrial = "trial"

// QueueConfig описывает очередь и её ключ маршрутизации в обменнике уведомлений.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые объявляются при настройке канала.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.trial", RoutingKey: RoutingTrial},
	}
}
