package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecolenet/remplacement-api/internal/engine"
	"github.com/ecolenet/remplacement-api/internal/models"
	"github.com/ecolenet/remplacement-api/pkg/jobs"
)

// Reminder is one outbound nudge about an uncovered absence.
type Reminder struct {
	AbsenceID        string    `json:"absence_id"`
	CollaboratorName string    `json:"collaborator_name"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	Tier             string    `json:"tier"`
	DaysRemaining    *int      `json:"days_remaining"`
	Schools          []string  `json:"schools"`
}

// Transport delivers reminders. Implementations may post to chat, send mail
// or just log.
type Transport interface {
	Send(ctx context.Context, reminder Reminder) error
}

// LogTransport writes reminders to the application log. The default until a
// real channel is configured.
type LogTransport struct {
	Logger *zap.Logger
}

// Send logs the reminder.
func (t LogTransport) Send(_ context.Context, reminder Reminder) error {
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("replacement reminder",
		zap.String("absence_id", reminder.AbsenceID),
		zap.String("collaborator", reminder.CollaboratorName),
		zap.String("tier", reminder.Tier),
		zap.Strings("schools", reminder.Schools))
	return nil
}

type boardProvider interface {
	Board(ctx context.Context, filter models.AbsenceFilter, today time.Time) (*models.BoardPage, error)
}

// NotificationConfig tunes the periodic reminder sweep.
type NotificationConfig struct {
	Interval time.Duration
	Workers  int
}

// NotificationService periodically sweeps the board and dispatches reminders
// for absences that are due or overdue, through a retrying worker queue.
type NotificationService struct {
	board     boardProvider
	transport Transport
	queue     *jobs.Queue
	logger    *zap.Logger
	interval  time.Duration
}

// NewNotificationService constructs a NotificationService instance.
func NewNotificationService(board boardProvider, transport Transport, logger *zap.Logger, config NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if transport == nil {
		transport = LogTransport{Logger: logger}
	}
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}

	s := &NotificationService{
		board:     board,
		transport: transport,
		logger:    logger,
		interval:  config.Interval,
	}
	s.queue = jobs.NewQueue("reminders", s.handleJob, jobs.QueueConfig{
		Workers: config.Workers,
		Logger:  logger,
	})
	return s
}

// Run starts the queue and sweeps until the context is cancelled.
func (s *NotificationService) Run(ctx context.Context) {
	s.queue.Start(ctx)
	defer s.queue.Stop()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep enqueues one reminder per due-or-overdue board row.
func (s *NotificationService) sweep(ctx context.Context) {
	today := time.Now().UTC()
	page, err := s.board.Board(ctx, models.AbsenceFilter{}, today)
	if err != nil {
		s.logger.Warn("reminder sweep failed to build board", zap.Error(err))
		return
	}

	enqueued := 0
	for _, row := range page.Rows {
		if row.Urgency.Tier != engine.TierDueOrOverdue {
			continue
		}
		schools := make([]string, 0, len(row.Schools))
		for _, school := range row.Schools {
			schools = append(schools, school.SchoolName)
		}
		reminder := Reminder{
			AbsenceID:        row.ID,
			CollaboratorName: row.CollaboratorName,
			StartDate:        row.StartDate,
			EndDate:          row.EndDate,
			Tier:             string(row.Urgency.Tier),
			DaysRemaining:    row.Urgency.DaysRemaining,
			Schools:          schools,
		}
		if err := s.queue.Enqueue(jobs.Job{
			ID:      uuid.NewString(),
			Type:    "reminder",
			Payload: reminder,
		}); err != nil {
			s.logger.Warn("failed to enqueue reminder", zap.String("absence_id", row.ID), zap.Error(err))
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		s.logger.Info("reminder sweep complete", zap.Int("reminders", enqueued))
	}
}

func (s *NotificationService) handleJob(ctx context.Context, job jobs.Job) error {
	reminder, ok := job.Payload.(Reminder)
	if !ok {
		return fmt.Errorf("unexpected payload type for job %s", job.ID)
	}
	return s.transport.Send(ctx, reminder)
}
