package realtime

import "strings"

// AdminTopic is the global feed every back-office dashboard joins.
const AdminTopic = "admin"

const (
	orderTopicPrefix  = "order:"
	driverTopicPrefix = "driver:"
)

// OrderTopic is the topic for a single order's status updates.
func OrderTopic(orderID string) string {
	return orderTopicPrefix + orderID
}

// DriverTopic is the topic for a single driver's status and location.
func DriverTopic(driverID string) string {
	return driverTopicPrefix + driverID
}

// ValidTopic rejects empty and oversized topic names.
func ValidTopic(topic string) bool {
	topic = strings.TrimSpace(topic)
	return topic != "" && len(topic) <= 128
}
