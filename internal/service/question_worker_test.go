package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingAI struct {
	AIGateway
	err error
}

func (f failingAI) GenerateQuestions(context.Context, string, string, LevelCounts) (model.QuestionSet, error) {
	return model.QuestionSet{}, f.err
}

type workerFixture struct {
	assignments *fakeAssignmentRepo
	readings    *fakeReadingRepo
	events      *fakeEvents
	reading     *model.Reading
	studentID   uuid.UUID
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	student := &model.User{ID: uuid.New(), Nombre: "Ana", Email: "ana@test.io", Rol: model.RoleEstudiante}
	reading := &model.Reading{ID: uuid.New(), Titulo: "La metamorfosis", Bucket: "lecturas", ObjectPath: "x/la-metamorfosis.pdf", Mime: "application/pdf", CreatedBy: uuid.New()}
	readings := newFakeReadingRepo(reading)
	return &workerFixture{
		assignments: newFakeAssignmentRepo(readings, newFakeUserRepo(student)),
		readings:    readings,
		events:      &fakeEvents{},
		reading:     reading,
		studentID:   student.ID,
	}
}

func (f *workerFixture) pending(t *testing.T, studentID uuid.UUID) uuid.UUID {
	t.Helper()
	a := model.NewAssignment(f.reading.ID, studentID, f.reading.CreatedBy, nil)
	require.NoError(t, f.assignments.Create(context.Background(), a))
	return a.ID
}

func (f *workerFixture) worker(ai AIGateway, env string) *QuestionWorker {
	cfg := testConfig()
	cfg.Server.Env = env
	return newQuestionWorker(cfg, f.assignments, f.readings, NewReadingTextService(newFakeStorage()), ai, f.events)
}

func TestQuestionWorker_ProcessStoresReadyQuestions(t *testing.T) {
	f := newWorkerFixture(t)
	id := f.pending(t, f.studentID)
	w := f.worker(NewAIGateway(nil, testConfig()), "test")

	require.NoError(t, w.Process(context.Background(), id))

	qs := f.assignments.snapshot(id).Questions.Data()
	assert.Equal(t, model.QuestionsReady, qs.Status)
	assert.Equal(t, 12, qs.Total())
	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, EventQuestionsReady, ev.event)
	assert.Equal(t, f.studentID, ev.userID)
	assert.Equal(t, 12, ev.payload.(map[string]any)["questions"])
}

func TestQuestionWorker_ProcessMarksFailure(t *testing.T) {
	f := newWorkerFixture(t)
	id := f.pending(t, f.studentID)
	w := f.worker(failingAI{AIGateway: NewAIGateway(nil, testConfig()), err: errors.New("boom")}, "test")

	err := w.Process(context.Background(), id)
	assert.Error(t, err)

	qs := f.assignments.snapshot(id).Questions.Data()
	assert.Equal(t, model.QuestionsFailed, qs.Status)
	assert.Equal(t, "boom", qs.Error)
	assert.Equal(t, []string{EventQuestionsFailed}, f.events.Names())
}

func TestQuestionWorker_ProcessUnknownAssignment(t *testing.T) {
	f := newWorkerFixture(t)
	w := f.worker(NewAIGateway(nil, testConfig()), "test")

	assert.Error(t, w.Process(context.Background(), uuid.New()))
	assert.Empty(t, f.events.Names())
}

func TestQuestionWorker_DisabledIgnoresEnqueue(t *testing.T) {
	f := newWorkerFixture(t)
	id := f.pending(t, f.studentID)
	w := f.worker(NewAIGateway(nil, testConfig()), "test")

	w.Start()
	w.Enqueue(id)
	require.NoError(t, w.Stop(context.Background()))

	assert.Equal(t, model.QuestionsPending, f.assignments.snapshot(id).Questions.Data().Status)
	assert.Empty(t, f.events.Names())
}

func TestQuestionWorker_RunsQueuedJobs(t *testing.T) {
	f := newWorkerFixture(t)
	first, second := f.pending(t, f.studentID), f.pending(t, uuid.New())
	w := f.worker(NewAIGateway(nil, testConfig()), "development")

	w.Start()
	w.Enqueue(first, second)

	assert.Eventually(t, func() bool {
		return f.assignments.snapshot(first).Questions.Data().Status == model.QuestionsReady &&
			f.assignments.snapshot(second).Questions.Data().Status == model.QuestionsReady
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))

	// stopped workers drop new jobs
	third := f.pending(t, uuid.New())
	w.Enqueue(third)
	assert.Equal(t, model.QuestionsPending, f.assignments.snapshot(third).Questions.Data().Status)
}
