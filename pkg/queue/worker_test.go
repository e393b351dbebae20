package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/balogunquadri/banshee-bn-backend/pkg/config"
	"github.com/balogunquadri/banshee-bn-backend/pkg/db"
	"github.com/balogunquadri/banshee-bn-backend/pkg/db/dbtest"
	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"github.com/balogunquadri/banshee-bn-backend/pkg/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name string
	err  error

	mu   sync.Mutex
	sent []*providers.Message
}

func (f *fakeProvider) GetName() string { return f.name }

func (f *fakeProvider) Send(ctx context.Context, message *providers.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message)
	return f.err
}

func (f *fakeProvider) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var queueConfig = config.QueueConfig{
	WorkerCount:     1,
	PollInterval:    1,
	BatchSize:       10,
	RetryAttempts:   3,
	RetryBackoffMin: 1,
	RetryBackoffMax: 300,
}

func setup(t *testing.T, fakes ...*fakeProvider) (*Manager, *db.Repository) {
	t.Helper()
	database := dbtest.New(t)
	logger := dbtest.Logger(t)

	pm := providers.NewProviderManager(&config.NotifyConfig{}, logger)
	for _, f := range fakes {
		pm.Register(f)
	}

	cfg := queueConfig
	m := NewManager(&cfg, database, pm, logger)
	return m, db.NewRepository(database)
}

func enqueue(t *testing.T, repo *db.Repository, maxAttempts int, channels ...string) {
	t.Helper()
	items := NewItems(channels, &providers.Message{
		Event:    models.EventTripSubmitted,
		TripID:   "8f9b2c4e-1d3a-4b5c-9e7f-0a1b2c3d4e5f",
		Title:    "New trip request",
		Body:     "Test Staff requested a trip",
		Metadata: models.JSON{"type": "one-way"},
	}, maxAttempts)
	require.NoError(t, repo.CreateQueueItems(context.Background(), items))
}

func loadItems(t *testing.T, repo *db.Repository) []models.NotificationQueue {
	t.Helper()
	var items []models.NotificationQueue
	require.NoError(t, repo.DB().Order("id").Find(&items).Error)
	return items
}

func TestNewItems(t *testing.T) {
	assert.Nil(t, NewItems(nil, &providers.Message{}, 3))

	items := NewItems([]string{"slack", "webhook"}, &providers.Message{Event: models.EventTripApproved, TripID: "t1", Title: "x"}, 0)
	require.Len(t, items, 2)
	assert.Equal(t, "slack", items[0].Channel)
	assert.Equal(t, "webhook", items[1].Channel)
	assert.Equal(t, 3, items[0].MaxAttempts)
	assert.Equal(t, models.QueueStatusPending, items[1].Status)
	assert.Equal(t, "x", items[1].Payload["title"])
}

func TestProcessQueueSends(t *testing.T) {
	webhook := &fakeProvider{name: "webhook"}
	m, repo := setup(t, webhook)
	enqueue(t, repo, 3, "webhook")

	m.newWorker(1).processQueue(context.Background())

	require.Equal(t, 1, webhook.count())
	msg := webhook.sent[0]
	assert.Equal(t, models.EventTripSubmitted, msg.Event)
	assert.Equal(t, "New trip request", msg.Title)
	assert.Equal(t, models.JSON{"type": "one-way"}, msg.Metadata)

	items := loadItems(t, repo)
	require.Len(t, items, 1)
	assert.Equal(t, models.QueueStatusSent, items[0].Status)
	assert.Equal(t, 1, items[0].Attempts)
	assert.NotNil(t, items[0].ProcessedAt)

	// Sent items are not picked up again
	m.newWorker(2).processQueue(context.Background())
	assert.Equal(t, 1, webhook.count())
}

func TestProcessQueueRetriesThenFails(t *testing.T) {
	slack := &fakeProvider{name: "slack", err: errors.New("HTTP 502: bad gateway")}
	m, repo := setup(t, slack)
	enqueue(t, repo, 2, "slack")
	worker := m.newWorker(1)
	ctx := context.Background()

	worker.processQueue(ctx)

	items := loadItems(t, repo)
	require.Len(t, items, 1)
	assert.Equal(t, models.QueueStatusPending, items[0].Status)
	assert.Equal(t, 1, items[0].Attempts)
	assert.Equal(t, "HTTP 502: bad gateway", items[0].LastError)
	require.NotNil(t, items[0].NextRetryAt)
	assert.True(t, items[0].NextRetryAt.After(time.Now().UTC()))

	// Not due yet
	worker.processQueue(ctx)
	assert.Equal(t, 1, slack.count())

	// Make the retry due
	require.NoError(t, repo.DB().Model(&models.NotificationQueue{}).Where("id = ?", items[0].ID).
		Update("next_retry_at", time.Now().UTC().Add(-time.Second)).Error)

	worker.processQueue(ctx)
	assert.Equal(t, 2, slack.count())

	items = loadItems(t, repo)
	assert.Equal(t, models.QueueStatusFailed, items[0].Status)
	assert.Equal(t, 2, items[0].Attempts)
	assert.NotNil(t, items[0].ProcessedAt)
}

func TestProcessQueueUnknownChannel(t *testing.T) {
	m, repo := setup(t)
	enqueue(t, repo, 3, "discord")

	m.newWorker(1).processQueue(context.Background())

	items := loadItems(t, repo)
	require.Len(t, items, 1)
	assert.Equal(t, models.QueueStatusFailed, items[0].Status)
	assert.Contains(t, items[0].LastError, "discord")
}

func TestCalculateBackoff(t *testing.T) {
	m, _ := setup(t)
	w := m.newWorker(1)

	assert.Equal(t, 1*time.Second, w.calculateBackoff(1))
	assert.Equal(t, 2*time.Second, w.calculateBackoff(2))
	assert.Equal(t, 8*time.Second, w.calculateBackoff(4))
	assert.Equal(t, 300*time.Second, w.calculateBackoff(12))
	assert.Equal(t, 1*time.Second, w.calculateBackoff(0))

	// Shift widths past the int size must not wrap to zero or negative
	for _, attempts := range []int{63, 64, 65, 100, 1000} {
		assert.Equal(t, 300*time.Second, w.calculateBackoff(attempts), attempts)
	}

	w.config.RetryBackoffMin = 0
	assert.Equal(t, 16*time.Second, w.calculateBackoff(5))
}

func TestPerformCleanup(t *testing.T) {
	m, repo := setup(t)
	ctx := context.Background()
	enqueue(t, repo, 3, "webhook", "slack")

	items := loadItems(t, repo)
	old := time.Now().UTC().AddDate(0, 0, -8)
	items[0].Status = models.QueueStatusSent
	items[0].ProcessedAt = &old
	require.NoError(t, repo.UpdateQueueItem(ctx, &items[0]))

	require.NoError(t, repo.DB().Exec("UPDATE notification_queues SET status = ?, updated_at = ? WHERE id = ?",
		models.QueueStatusProcessing, time.Now().UTC().Add(-2*time.Hour), items[1].ID).Error)

	m.performCleanup(ctx)

	remaining := loadItems(t, repo)
	require.Len(t, remaining, 1)
	assert.Equal(t, items[1].ID, remaining[0].ID)
	assert.Equal(t, models.QueueStatusPending, remaining[0].Status)
}

func TestManagerStartStop(t *testing.T) {
	webhook := &fakeProvider{name: "webhook"}
	m, repo := setup(t, webhook)
	enqueue(t, repo, 3, "webhook")

	m.Start(context.Background())
	assert.Eventually(t, func() bool { return webhook.count() == 1 }, 5*time.Second, 50*time.Millisecond)

	m.Stop()
	m.Stop()
}
