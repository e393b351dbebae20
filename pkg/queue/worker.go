package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/balogunquadri/banshee-bn-backend/pkg/config"
	"github.com/balogunquadri/banshee-bn-backend/pkg/db"
	"github.com/balogunquadri/banshee-bn-backend/pkg/log"
	"github.com/balogunquadri/banshee-bn-backend/pkg/models"
	"github.com/balogunquadri/banshee-bn-backend/pkg/providers"
)

// Worker represents a queue worker
type Worker struct {
	id        int
	config    *config.QueueConfig
	repo      *db.Repository
	logger    *log.Logger
	providers *providers.ProviderManager
	stopCh    chan struct{}
	wg        *sync.WaitGroup
}

// Manager manages multiple workers
type Manager struct {
	config    *config.QueueConfig
	repo      *db.Repository
	logger    *log.Logger
	providers *providers.ProviderManager
	workers   []*Worker
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewManager creates a new queue manager
func NewManager(cfg *config.QueueConfig, database *db.DB, providerManager *providers.ProviderManager, logger *log.Logger) *Manager {
	return &Manager{
		config:    cfg,
		repo:      db.NewRepository(database),
		logger:    logger,
		providers: providerManager,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the queue manager and workers
func (m *Manager) Start(ctx context.Context) {
	workerCount := m.config.WorkerCount
	if workerCount <= 0 {
		workerCount = 2
	}

	m.logger.WithField("worker_count", workerCount).Info("Starting queue workers")

	for i := 0; i < workerCount; i++ {
		worker := m.newWorker(i + 1)
		m.workers = append(m.workers, worker)
		m.wg.Add(1)
		go worker.start(ctx)
	}

	m.wg.Add(1)
	go m.cleanupWorker(ctx)

	m.logger.Info("Queue manager started successfully")
}

// Stop stops the queue manager and all workers
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.logger.Info("Stopping queue manager...")

		close(m.stopCh)
		for _, worker := range m.workers {
			close(worker.stopCh)
		}

		m.wg.Wait()

		m.logger.Info("Queue manager stopped")
	})
}

func (m *Manager) newWorker(id int) *Worker {
	return &Worker{
		id:        id,
		config:    m.config,
		repo:      m.repo,
		logger:    m.logger,
		providers: m.providers,
		stopCh:    make(chan struct{}),
		wg:        &m.wg,
	}
}

// start starts a single worker
func (w *Worker) start(ctx context.Context) {
	defer w.wg.Done()

	w.logger.WithField("worker_id", w.id).Info("Worker started")

	interval := time.Duration(w.config.PollInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.WithField("worker_id", w.id).Info("Worker stopped by context")
			return
		case <-w.stopCh:
			w.logger.WithField("worker_id", w.id).Info("Worker stopped")
			return
		case <-ticker.C:
			w.processQueue(ctx)
		}
	}
}

// processQueue processes pending queue items
func (w *Worker) processQueue(ctx context.Context) {
	batch := w.config.BatchSize
	if batch <= 0 {
		batch = 10
	}

	queueItems, err := w.repo.GetPendingQueueItems(ctx, batch)
	if err != nil {
		w.logger.WithError(err).Error("Failed to get pending queue items")
		return
	}

	if len(queueItems) == 0 {
		return
	}

	w.logger.WithFields(log.Fields{
		"worker_id": w.id,
		"count":     len(queueItems),
	}).Debug("Processing queue items")

	for i := range queueItems {
		w.processQueueItem(ctx, &queueItems[i])
	}
}

// processQueueItem delivers a single queue item through its channel
func (w *Worker) processQueueItem(ctx context.Context, item *models.NotificationQueue) {
	claimed, err := w.repo.ClaimQueueItem(ctx, item.ID)
	if err != nil {
		w.logger.WithError(err).Error("Failed to claim queue item")
		return
	}
	if !claimed {
		// Another worker picked it up
		return
	}

	provider := w.providers.GetProvider(item.Channel)
	if provider == nil {
		w.failQueueItem(ctx, item, fmt.Sprintf("Provider not found for channel: %s", item.Channel))
		return
	}

	if err := provider.Send(ctx, messageFromItem(item)); err != nil {
		w.handleFailure(ctx, item, err.Error())
		return
	}

	now := time.Now().UTC()
	item.Attempts++
	item.Status = models.QueueStatusSent
	item.ProcessedAt = &now
	item.NextRetryAt = nil
	item.LastError = ""
	if err := w.repo.UpdateQueueItem(ctx, item); err != nil {
		w.logger.WithError(err).Error("Failed to mark queue item as sent")
		return
	}

	w.logger.LogQueue(item.ID, item.TripID, item.Channel, "sent", true, item.Attempts, "")
}

// handleFailure schedules a retry or gives up after the last attempt
func (w *Worker) handleFailure(ctx context.Context, item *models.NotificationQueue, errorMsg string) {
	item.Attempts++
	item.LastError = errorMsg

	maxAttempts := item.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = w.config.RetryAttempts
	}

	if item.Attempts >= maxAttempts {
		now := time.Now().UTC()
		item.Status = models.QueueStatusFailed
		item.ProcessedAt = &now
		item.NextRetryAt = nil
		if err := w.repo.UpdateQueueItem(ctx, item); err != nil {
			w.logger.WithError(err).Error("Failed to mark queue item as failed")
		}
		w.logger.LogQueue(item.ID, item.TripID, item.Channel, "failed_max_attempts", false, item.Attempts, "")
		return
	}

	nextRetry := time.Now().UTC().Add(w.calculateBackoff(item.Attempts))
	item.NextRetryAt = &nextRetry
	item.Status = models.QueueStatusPending

	if err := w.repo.UpdateQueueItem(ctx, item); err != nil {
		w.logger.WithError(err).Error("Failed to schedule queue item retry")
		return
	}

	w.logger.LogQueue(item.ID, item.TripID, item.Channel, "retry_scheduled", false, item.Attempts, nextRetry.Format(time.RFC3339))
}

// failQueueItem marks a queue item as failed without retrying
func (w *Worker) failQueueItem(ctx context.Context, item *models.NotificationQueue, errorMsg string) {
	now := time.Now().UTC()
	item.LastError = errorMsg
	item.Status = models.QueueStatusFailed
	item.ProcessedAt = &now
	if err := w.repo.UpdateQueueItem(ctx, item); err != nil {
		w.logger.WithError(err).Error("Failed to mark queue item as failed")
	}
	w.logger.LogQueue(item.ID, item.TripID, item.Channel, "failed", false, item.Attempts, "")
}

// calculateBackoff calculates exponential backoff delay
func (w *Worker) calculateBackoff(attempts int) time.Duration {
	minBackoff := w.config.RetryBackoffMin
	maxBackoff := w.config.RetryBackoffMax
	if attempts < 1 {
		attempts = 1
	}

	if minBackoff < 1 {
		minBackoff = 1
	}
	if minBackoff >= maxBackoff {
		return time.Duration(maxBackoff) * time.Second
	}

	// Exponential backoff: min * 2^(attempts-1), doubling until the cap
	backoff := minBackoff
	for i := 1; i < attempts && backoff < maxBackoff; i++ {
		backoff *= 2
	}

	if backoff > maxBackoff {
		backoff = maxBackoff
	}

	return time.Duration(backoff) * time.Second
}

// cleanupWorker performs periodic cleanup tasks
func (m *Manager) cleanupWorker(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(1 * time.Hour) // Cleanup every hour
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.performCleanup(ctx)
		}
	}
}

// performCleanup removes old finished items and releases stuck ones
func (m *Manager) performCleanup(ctx context.Context) {
	m.logger.Debug("Performing queue cleanup")

	// Clean up old completed queue items (older than 7 days)
	cleaned, err := m.repo.DeleteProcessedQueueItems(ctx, time.Now().UTC().AddDate(0, 0, -7))
	if err != nil {
		m.logger.WithError(err).Error("Failed to clean up queue items")
	} else if cleaned > 0 {
		m.logger.WithField("cleaned_items", cleaned).Info("Cleaned up old queue items")
	}

	// Reset stuck processing items (older than 1 hour)
	reset, err := m.repo.ResetStuckQueueItems(ctx, time.Now().UTC().Add(-1*time.Hour))
	if err != nil {
		m.logger.WithError(err).Error("Failed to reset stuck queue items")
	} else if reset > 0 {
		m.logger.WithField("reset_items", reset).Warn("Reset stuck processing items")
	}
}
