package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/config"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/lecturacritica/tutor-api/internal/monitoring"
	"github.com/lecturacritica/tutor-api/internal/repository"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
)

const (
	EventQuestionsReady  = "questions_ready"
	EventQuestionsFailed = "questions_failed"
	EventNotification    = "notification"
)

// QuestionQueue accepts assignments whose questions must be (re)generated.
type QuestionQueue interface {
	Enqueue(ids ...uuid.UUID)
}

// EventPublisher pushes realtime events to a connected user.
type EventPublisher interface {
	Publish(userID uuid.UUID, event string, payload any)
}

// QuestionWorker runs question generation off the request path on a fixed pool
// of goroutines fed by a bounded queue. A full queue drops the job and the
// assignment stays pending.
type QuestionWorker struct {
	assignments repository.AssignmentRepository
	readings    repository.ReadingRepository
	texts       ReadingTextService
	ai          AIGateway
	events      EventPublisher

	enabled bool
	workers int
	jobs    chan uuid.UUID

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewQuestionWorker(
	lc fx.Lifecycle,
	cfg *config.Config,
	assignments repository.AssignmentRepository,
	readings repository.ReadingRepository,
	texts ReadingTextService,
	ai AIGateway,
	events EventPublisher,
) *QuestionWorker {
	w := newQuestionWorker(cfg, assignments, readings, texts, ai, events)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			w.Start()
			return nil
		},
		OnStop: w.Stop,
	})
	return w
}

func newQuestionWorker(
	cfg *config.Config,
	assignments repository.AssignmentRepository,
	readings repository.ReadingRepository,
	texts ReadingTextService,
	ai AIGateway,
	events EventPublisher,
) *QuestionWorker {
	workers := cfg.AI.Workers
	if workers <= 0 {
		workers = 1
	}
	size := cfg.AI.QueueSize
	if size <= 0 {
		size = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &QuestionWorker{
		assignments: assignments,
		readings:    readings,
		texts:       texts,
		ai:          ai,
		events:      events,
		enabled:     cfg.BackgroundAIEnabled(),
		workers:     workers,
		jobs:        make(chan uuid.UUID, size),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (w *QuestionWorker) Start() {
	if !w.enabled {
		log.Info().Msg("QuestionWorker: background generation disabled")
		return
	}
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.loop(i)
	}
	log.Info().Int("workers", w.workers).Int("queue", cap(w.jobs)).Msg("QuestionWorker started")
}

func (w *QuestionWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.jobs)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		w.cancel()
		log.Info().Msg("QuestionWorker stopped")
		return nil
	case <-ctx.Done():
		w.cancel()
		return fmt.Errorf("question worker shutdown: %w", ctx.Err())
	}
}

func (w *QuestionWorker) Enqueue(ids ...uuid.UUID) {
	if !w.enabled {
		return
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}
	for _, id := range ids {
		select {
		case w.jobs <- id:
			monitoring.QuestionQueueDepth.Inc()
		default:
			monitoring.QuestionJobs.WithLabelValues("dropped").Inc()
			log.Warn().Str("assignmentID", id.String()).Msg("QuestionWorker.Enqueue: queue full, job dropped")
		}
	}
}

func (w *QuestionWorker) loop(n int) {
	defer w.wg.Done()
	for id := range w.jobs {
		monitoring.QuestionQueueDepth.Dec()
		w.safeProcess(id, n)
	}
}

func (w *QuestionWorker) safeProcess(id uuid.UUID, n int) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("assignmentID", id.String()).Msg("QuestionWorker: job panicked")
			w.markFailed(w.ctx, id, fmt.Sprintf("panic: %v", r))
		}
	}()
	if err := w.Process(w.ctx, id); err != nil {
		log.Error().Err(err).Int("worker", n).Str("assignmentID", id.String()).Msg("QuestionWorker: job failed")
	}
}

// Process generates and stores the questions of one assignment. Generation
// errors are written to the assignment as a failed status.
func (w *QuestionWorker) Process(ctx context.Context, id uuid.UUID) error {
	a, err := w.assignments.FindByIDWithReading(ctx, id)
	if err != nil {
		monitoring.QuestionJobs.WithLabelValues("missing").Inc()
		return fmt.Errorf("load assignment %s: %w", id, err)
	}
	reading := a.Reading
	if reading == nil {
		if reading, err = w.readings.FindByID(ctx, a.ReadingID); err != nil {
			w.markFailed(ctx, id, "lectura no encontrada")
			return fmt.Errorf("load reading %s: %w", a.ReadingID, err)
		}
	}

	text := w.texts.Text(ctx, reading)
	qs, err := w.ai.GenerateQuestions(ctx, text, reading.Titulo, w.ai.DefaultCounts())
	if err != nil {
		w.markFailed(ctx, id, err.Error())
		w.publish(a.StudentID, EventQuestionsFailed, a, 0)
		return fmt.Errorf("generate questions: %w", err)
	}

	if err := w.assignments.UpdateQuestions(ctx, id, qs); err != nil {
		monitoring.QuestionJobs.WithLabelValues("failed").Inc()
		return fmt.Errorf("store questions: %w", err)
	}
	monitoring.QuestionJobs.WithLabelValues("ready").Inc()
	log.Info().Str("assignmentID", id.String()).Int("questions", qs.Total()).Msg("QuestionWorker: questions ready")
	w.publish(a.StudentID, EventQuestionsReady, a, qs.Total())
	return nil
}

func (w *QuestionWorker) markFailed(ctx context.Context, id uuid.UUID, reason string) {
	monitoring.QuestionJobs.WithLabelValues("failed").Inc()
	qs := model.PendingQuestionSet()
	qs.Status = model.QuestionsFailed
	qs.Error = reason
	if err := w.assignments.UpdateQuestions(ctx, id, qs); err != nil {
		log.Error().Err(err).Str("assignmentID", id.String()).Msg("QuestionWorker: could not store failed status")
	}
}

func (w *QuestionWorker) publish(userID uuid.UUID, event string, a *model.Assignment, total int) {
	if w.events == nil {
		return
	}
	w.events.Publish(userID, event, map[string]any{
		"assignmentId": a.ID,
		"readingId":    a.ReadingID,
		"questions":    total,
	})
}
