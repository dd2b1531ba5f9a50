package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

const digestTimeout = 2 * time.Minute

// DigestBuilder renders the sales digest of a calendar day.
type DigestBuilder interface {
	DailyDigest(ctx context.Context, day time.Time) (string, error)
}

// Notifier delivers a message to a recipient.
type Notifier interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Options configures the digest job.
type Options struct {
	Schedule  string
	Location  *time.Location
	Recipient string
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	location  *time.Location
	recipient string
	digests   DigestBuilder
	notifier  Notifier
	now       func() time.Time
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(opts Options, digests DigestBuilder, notifier Notifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &Scheduler{
		// standard 5-field cron expressions, evaluated in the store timezone
		cron:      cron.New(cron.WithLocation(opts.Location)),
		schedule:  opts.Schedule,
		location:  opts.Location,
		recipient: opts.Recipient,
		digests:   digests,
		notifier:  notifier,
		now:       time.Now,
		logger:    logger,
	}
}

// Start registers the digest job and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sendDailyDigest); err != nil {
		return fmt.Errorf("schedule daily digest %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("timezone", s.location.String()))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDailyDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
	defer cancel()

	if err := s.RunDigest(ctx); err != nil {
		s.logger.Error("daily digest failed", zap.Error(err))
	}
}

// RunDigest builds today's digest and sends it to the configured recipient.
func (s *Scheduler) RunDigest(ctx context.Context) error {
	s.logger.Info("generating daily digest")

	digest, err := s.digests.DailyDigest(ctx, s.now().In(s.location))
	if err != nil {
		return fmt.Errorf("build daily digest: %w", err)
	}

	req := models.OutboundMessageRequest{
		To:      s.recipient,
		Message: digest,
	}
	if err := s.notifier.SendOutbound(ctx, req); err != nil {
		return fmt.Errorf("send daily digest: %w", err)
	}

	s.logger.Info("daily digest sent successfully")
	return nil
}
