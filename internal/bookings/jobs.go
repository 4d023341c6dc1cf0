package bookings

import (
	"context"
	"time"

	"tripline/pkg/logger"
)

// JobProcessor runs the background expiry of overdue bookings.
type JobProcessor struct {
	service  Service
	interval time.Duration
	done     chan struct{}
}

func NewJobProcessor(service Service, interval time.Duration) *JobProcessor {
	return &JobProcessor{
		service:  service,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start starts the expiry loop until Stop is called or ctx is cancelled.
func (jp *JobProcessor) Start(ctx context.Context) {
	go jp.run(ctx)
	logger.GetDefault().Info("booking expiry job started", "interval", jp.interval.String())
}

// Stop stops the expiry loop.
func (jp *JobProcessor) Stop() {
	close(jp.done)
	logger.GetDefault().Info("booking expiry job stopped")
}

func (jp *JobProcessor) run(ctx context.Context) {
	ticker := time.NewTicker(jp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			jp.processOverdue(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (jp *JobProcessor) processOverdue(ctx context.Context) {
	expired, err := jp.service.ExpireOverdueBookings(ctx)
	if err != nil {
		logger.GetDefault().WithError(err).Error("failed to expire overdue bookings")
		return
	}
	if expired > 0 {
		logger.GetDefault().Info("expired overdue bookings", "count", expired)
	}
}
