package daemon

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// Activity score thresholds: below the lower bound the sample costs an anger
// increment, above the upper bound it earns a decrement.
const (
	activityAngerBelow = -0.3
	activityCalmAbove  = 0.3
)

// ActivityMonitorConfig holds screen sampling configuration.
type ActivityMonitorConfig struct {
	SampleInterval  time.Duration // default 5 min
	PrepareDelay    time.Duration // pause between PrepareForCapture and the grab
	ClassifyTimeout time.Duration // cap on a single classifier call
}

// DefaultActivityMonitorConfig returns default activity monitor configuration.
func DefaultActivityMonitorConfig() ActivityMonitorConfig {
	return ActivityMonitorConfig{
		SampleInterval:  5 * time.Minute,
		PrepareDelay:    2 * time.Second,
		ClassifyTimeout: 60 * time.Second,
	}
}

// ActivityMonitor periodically samples the screen, has the classifier score
// it, and proposes mood changes based on the score.
type ActivityMonitor struct {
	config     ActivityMonitorConfig
	capturer   domain.ScreenCapturer
	classifier domain.ActivityClassifier
	bus        domain.CommandBus
	store      domain.EventStore
	logger     *zap.Logger
}

// NewActivityMonitor creates a screen activity monitor.
func NewActivityMonitor(
	config ActivityMonitorConfig,
	capturer domain.ScreenCapturer,
	classifier domain.ActivityClassifier,
	cmdBus domain.CommandBus,
	store domain.EventStore,
	logger *zap.Logger,
) *ActivityMonitor {
	return &ActivityMonitor{
		config:     config,
		capturer:   capturer,
		classifier: classifier,
		bus:        cmdBus,
		store:      store,
		logger:     logger,
	}
}

// Run samples on a fixed interval until the context is canceled.
func (m *ActivityMonitor) Run(ctx context.Context) error {
	m.logger.Info("activity monitor started",
		zap.Duration("interval", m.config.SampleInterval))

	ticker := time.NewTicker(m.config.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("activity monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			m.Sample(ctx)
		}
	}
}

// Sample runs one capture-and-classify pass. Capture or classification
// failure skips the rest of the tick; the loop stays on schedule.
func (m *ActivityMonitor) Sample(ctx context.Context) {
	// Let the presentation side pose before the grab.
	m.bus.Publish(domain.Command{Type: domain.CommandPrepareForCapture})
	select {
	case <-ctx.Done():
		return
	case <-time.After(m.config.PrepareDelay):
	}

	img, err := m.capturer.Capture()
	if err != nil {
		m.logger.Warn("screen capture failed, skipping tick", zap.Error(err))
		return
	}

	classifyCtx, cancel := context.WithTimeout(ctx, m.config.ClassifyTimeout)
	defer cancel()

	assessment, err := m.classifier.Classify(classifyCtx, img)
	if err != nil {
		m.logger.Warn("activity classification failed, skipping tick", zap.Error(err))
		return
	}

	m.logger.Info("activity assessed",
		zap.Float64("score", assessment.Score),
		zap.String("reply", assessment.Reply))

	m.bus.Publish(domain.Command{
		Type:  domain.CommandShowBubble,
		Text:  assessment.Reply,
		Score: assessment.Score,
	})

	switch {
	case assessment.Score < activityAngerBelow:
		m.bus.Publish(domain.Command{Type: domain.CommandAngerDelta, Delta: 1})
	case assessment.Score > activityCalmAbove:
		m.bus.Publish(domain.Command{Type: domain.CommandAngerDelta, Delta: -1})
	}

	if m.store != nil {
		detail := fmt.Sprintf("score=%.2f reply=%s", assessment.Score, assessment.Reply)
		if err := m.store.Record(domain.EventAssessment, detail); err != nil {
			m.logger.Warn("failed to record assessment", zap.Error(err))
		}
	}
}
