package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/balogunquadri/banshee-bn-backend/pkg/config"
	"github.com/balogunquadri/banshee-bn-backend/pkg/log"
	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
)

// Provider interface for outbound notification channels
type Provider interface {
	Send(ctx context.Context, message *Message) error
	GetName() string
}

// Message is one trip event rendered for delivery
type Message struct {
	Event    models.TripEvent `json:"event"`
	TripID   string           `json:"tripId"`
	Title    string           `json:"title"`
	Body     string           `json:"body"`
	Metadata models.JSON      `json:"metadata,omitempty"`
}

// ProviderManager manages the configured notification providers
type ProviderManager struct {
	providers map[string]Provider
	logger    *log.Logger
}

// NewProviderManager registers a provider for every channel with a
// configured URL
func NewProviderManager(cfg *config.NotifyConfig, logger *log.Logger) *ProviderManager {
	manager := &ProviderManager{
		providers: make(map[string]Provider),
		logger:    logger,
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.WebhookURL != "" {
		manager.Register(NewWebhookProvider(cfg.WebhookURL, timeout, logger))
	}
	if cfg.SlackWebhookURL != "" {
		manager.Register(NewSlackProvider(cfg.SlackWebhookURL, timeout, logger))
	}

	return manager
}

// Register adds or replaces a provider
func (pm *ProviderManager) Register(provider Provider) {
	pm.providers[provider.GetName()] = provider
	pm.logger.WithField("provider", provider.GetName()).Debug("Registered provider")
}

// GetProvider returns a provider by name
func (pm *ProviderManager) GetProvider(name string) Provider {
	return pm.providers[name]
}

// Names returns the registered channel names in a stable order
func (pm *ProviderManager) Names() []string {
	names := make([]string, 0, len(pm.providers))
	for name := range pm.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BaseProvider provides common functionality for providers
type BaseProvider struct {
	name   string
	url    string
	logger *log.Logger
	client *http.Client
}

// NewBaseProvider creates a new base provider posting to url
func NewBaseProvider(name, url string, timeout time.Duration, logger *log.Logger) *BaseProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &BaseProvider{
		name:   name,
		url:    url,
		logger: logger,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetName returns the provider name
func (bp *BaseProvider) GetName() string {
	return bp.name
}

// post sends body as JSON and checks the response status
func (bp *BaseProvider) post(ctx context.Context, body interface{}, successCodes ...int) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bp.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Banshee/1.0")

	resp, err := bp.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	for _, code := range successCodes {
		if resp.StatusCode == code {
			bp.logger.WithFields(log.Fields{
				"provider":    bp.name,
				"status_code": resp.StatusCode,
			}).Debug("Notification sent successfully")
			return nil
		}
	}

	// Read response body for error details
	bodyString, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	bp.logger.WithFields(log.Fields{
		"provider":      bp.name,
		"status_code":   resp.StatusCode,
		"response_body": string(bodyString),
	}).Error("Failed to send notification")

	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, bodyString)
}

// Slack Provider
type SlackProvider struct {
	*BaseProvider
}

// NewSlackProvider creates a provider posting to a Slack incoming webhook
func NewSlackProvider(webhookURL string, timeout time.Duration, logger *log.Logger) *SlackProvider {
	return &SlackProvider{
		BaseProvider: NewBaseProvider("slack", webhookURL, timeout, logger),
	}
}

// Send sends notification to Slack
func (sp *SlackProvider) Send(ctx context.Context, message *Message) error {
	payload := map[string]interface{}{
		"text": message.Title,
		"attachments": []map[string]interface{}{
			{
				"color":  eventColor(message.Event),
				"title":  message.Title,
				"text":   message.Body,
				"footer": "Banshee",
				"ts":     time.Now().Unix(),
			},
		},
	}

	return sp.post(ctx, payload, http.StatusOK)
}

// eventColor returns the Slack attachment color for an event
func eventColor(event models.TripEvent) string {
	switch event {
	case models.EventTripApproved:
		return "good"
	case models.EventTripRejected:
		return "danger"
	case models.EventTripEdited:
		return "warning"
	default:
		return "#439FE0"
	}
}

// Webhook Provider
type WebhookProvider struct {
	*BaseProvider
}

// NewWebhookProvider creates a new generic webhook provider
func NewWebhookProvider(url string, timeout time.Duration, logger *log.Logger) *WebhookProvider {
	return &WebhookProvider{
		BaseProvider: NewBaseProvider("webhook", url, timeout, logger),
	}
}

// Send sends notification to a generic webhook
func (wp *WebhookProvider) Send(ctx context.Context, message *Message) error {
	payload := map[string]interface{}{
		"event":     message.Event,
		"tripId":    message.TripID,
		"title":     message.Title,
		"body":      message.Body,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if message.Metadata != nil {
		payload["metadata"] = message.Metadata
	}

	return wp.post(ctx, payload, http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent)
}
