package queue

import (
	"time"

	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"github.com/balogunquadri/banshee-bn-backend/pkg/providers"
)

// NewItems builds one pending outbox row per channel for message. The rows
// are written by the caller, usually in the transaction that produced the
// event.
func NewItems(channels []string, message *providers.Message, maxAttempts int) []models.NotificationQueue {
	if len(channels) == 0 {
		return nil
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	payload := models.JSON{
		"title": message.Title,
		"body":  message.Body,
	}
	if message.Metadata != nil {
		payload["metadata"] = map[string]interface{}(message.Metadata)
	}

	now := time.Now().UTC()
	items := make([]models.NotificationQueue, 0, len(channels))
	for _, channel := range channels {
		items = append(items, models.NotificationQueue{
			Event:        message.Event,
			TripID:       message.TripID,
			Channel:      channel,
			Payload:      payload,
			Status:       models.QueueStatusPending,
			ScheduledFor: now,
			MaxAttempts:  maxAttempts,
		})
	}
	return items
}

// messageFromItem restores the message stored in an outbox row
func messageFromItem(item *models.NotificationQueue) *providers.Message {
	message := &providers.Message{
		Event:  item.Event,
		TripID: item.TripID,
	}

	message.Title, _ = item.Payload["title"].(string)
	message.Body, _ = item.Payload["body"].(string)
	if metadata, ok := item.Payload["metadata"].(map[string]interface{}); ok {
		message.Metadata = models.JSON(metadata)
	}

	return message
}
