package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/config"
	"github.com/lecturacritica/tutor-api/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Storage.BucketLecturas = "lecturas"
	cfg.Storage.BucketTareas = "tareas"
	cfg.AI.LiteralCount = 3
	cfg.AI.InferentialCount = 3
	cfg.AI.CriticalCount = 6
	cfg.AI.Timeout = time.Second
	cfg.AI.Workers = 1
	cfg.AI.QueueSize = 8
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpiresIn = time.Hour
	return cfg
}

// fakeGemini records every prompt and answers with a canned reply.
type fakeGemini struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (f *fakeGemini) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeGemini) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(_ context.Context, bucket, path string, r io.Reader, _ int64, _ string) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+path] = data
	return nil
}

func (f *fakeStorage) Download(_ context.Context, bucket, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+path]
	if !ok {
		return nil, fmt.Errorf("%w: object %s/%s", ErrStorage, bucket, path)
	}
	return data, nil
}

func (f *fakeStorage) PublicURL(bucket, path string) string {
	if path == "" {
		return ""
	}
	return "https://storage.test/" + bucket + "/" + path
}

type fakeQueue struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (f *fakeQueue) Enqueue(ids ...uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, ids...)
}

type publishedEvent struct {
	userID  uuid.UUID
	event   string
	payload any
}

type fakeEvents struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakeEvents) Publish(userID uuid.UUID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{userID: userID, event: event, payload: payload})
}

func (f *fakeEvents) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.event)
	}
	return out
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = model.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role model.Role) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		if u.Rol == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

type fakeReadingRepo struct {
	mu       sync.Mutex
	readings map[uuid.UUID]*model.Reading
}

func newFakeReadingRepo(readings ...*model.Reading) *fakeReadingRepo {
	r := &fakeReadingRepo{readings: make(map[uuid.UUID]*model.Reading)}
	for _, rd := range readings {
		r.readings[rd.ID] = rd
	}
	return r
}

func (r *fakeReadingRepo) Create(_ context.Context, reading *model.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reading.ID == uuid.Nil {
		reading.ID = uuid.New()
	}
	reading.CreatedAt = time.Now()
	cp := *reading
	r.readings[reading.ID] = &cp
	return nil
}

func (r *fakeReadingRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rd, ok := r.readings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rd
	return &cp, nil
}

func (r *fakeReadingRepo) ListByCreator(_ context.Context, creatorID uuid.UUID) ([]model.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Reading
	for _, rd := range r.readings {
		if rd.CreatedBy == creatorID {
			out = append(out, *rd)
		}
	}
	return out, nil
}

func (r *fakeReadingRepo) IDsByCreator(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error) {
	list, _ := r.ListByCreator(ctx, creatorID)
	ids := make([]uuid.UUID, 0, len(list))
	for _, rd := range list {
		ids = append(ids, rd.ID)
	}
	return ids, nil
}

// fakeAssignmentRepo stores copies so services only see persisted state.
type fakeAssignmentRepo struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*model.Assignment
	readings *fakeReadingRepo
	users    *fakeUserRepo
	failOn   map[uuid.UUID]error
}

func newFakeAssignmentRepo(readings *fakeReadingRepo, users *fakeUserRepo) *fakeAssignmentRepo {
	return &fakeAssignmentRepo{
		rows:     make(map[uuid.UUID]*model.Assignment),
		readings: readings,
		users:    users,
		failOn:   make(map[uuid.UUID]error),
	}
}

func cloneAssignment(a *model.Assignment) *model.Assignment {
	cp := *a
	cp.Answers = append(datatypes.JSONSlice[model.Answer]{}, a.Answers...)
	cp.Reading = nil
	cp.Student = nil
	return &cp
}

func (r *fakeAssignmentRepo) put(a *model.Assignment) error {
	if err := r.failOn[a.StudentID]; err != nil {
		return err
	}
	for _, existing := range r.rows {
		if existing.ReadingID == a.ReadingID && existing.StudentID == a.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	r.rows[a.ID] = cloneAssignment(a)
	return nil
}

// Create seeds a row directly; services go through InsertIfAbsent.
func (r *fakeAssignmentRepo) Create(_ context.Context, a *model.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.put(a)
}

func (r *fakeAssignmentRepo) InsertIfAbsent(_ context.Context, a *model.Assignment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.put(a)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeAssignmentRepo) get(id uuid.UUID) (*model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneAssignment(a), nil
}

func (r *fakeAssignmentRepo) withRelations(ctx context.Context, a *model.Assignment) *model.Assignment {
	if rd, err := r.readings.FindByID(ctx, a.ReadingID); err == nil {
		a.Reading = rd
	}
	if r.users != nil {
		if u, err := r.users.FindByID(ctx, a.StudentID); err == nil {
			a.Student = u
		}
	}
	return a
}

func (r *fakeAssignmentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Assignment, error) {
	return r.get(id)
}

func (r *fakeAssignmentRepo) FindByIDWithReading(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	a, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return r.withRelations(ctx, a), nil
}

func (r *fakeAssignmentRepo) FindByReadingAndStudent(_ context.Context, readingID, studentID uuid.UUID) (*model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.ReadingID == readingID && a.StudentID == studentID {
			return cloneAssignment(a), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAssignmentRepo) list(ctx context.Context, keep func(*model.Assignment) bool) []model.Assignment {
	r.mu.Lock()
	var out []model.Assignment
	for _, a := range r.rows {
		if keep(a) {
			out = append(out, *cloneAssignment(a))
		}
	}
	r.mu.Unlock()
	for i := range out {
		r.withRelations(ctx, &out[i])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeAssignmentRepo) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Assignment, error) {
	return r.list(ctx, func(a *model.Assignment) bool { return a.StudentID == studentID }), nil
}

func (r *fakeAssignmentRepo) ListByTeacher(ctx context.Context, teacherID uuid.UUID, readingID *uuid.UUID) ([]model.Assignment, error) {
	return r.list(ctx, func(a *model.Assignment) bool {
		return a.AssignedBy == teacherID && (readingID == nil || a.ReadingID == *readingID)
	}), nil
}

func (r *fakeAssignmentRepo) ListDueUnsubmitted(ctx context.Context, from, to time.Time) ([]model.Assignment, error) {
	return r.list(ctx, func(a *model.Assignment) bool {
		return a.DueDate != nil && !a.DueDate.Before(from) && !a.DueDate.After(to) && a.Submission.At == nil
	}), nil
}

func (r *fakeAssignmentRepo) update(id uuid.UUID, fn func(a *model.Assignment)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	fn(a)
	a.UpdatedAt = time.Now()
	return nil
}

func (r *fakeAssignmentRepo) UpdateReadAt(_ context.Context, id uuid.UUID, readAt *time.Time) error {
	return r.update(id, func(a *model.Assignment) { a.ReadAt = readAt })
}

func (r *fakeAssignmentRepo) UpdateSubmission(_ context.Context, id uuid.UUID, s model.Submission) error {
	return r.update(id, func(a *model.Assignment) { a.Submission = s })
}

func (r *fakeAssignmentRepo) UpdateFeedback(_ context.Context, id uuid.UUID, f model.Feedback) error {
	return r.update(id, func(a *model.Assignment) { a.Feedback = f })
}

func (r *fakeAssignmentRepo) UpdateQuestions(_ context.Context, id uuid.UUID, qs model.QuestionSet) error {
	return r.update(id, func(a *model.Assignment) { a.Questions = datatypes.NewJSONType(qs) })
}

func (r *fakeAssignmentRepo) UpsertAnswer(_ context.Context, id uuid.UUID, ans model.Answer, now time.Time) (model.Answer, error) {
	var stored model.Answer
	err := r.update(id, func(a *model.Assignment) {
		stored = a.UpsertAnswer(ans, now)
	})
	return stored, err
}

func (r *fakeAssignmentRepo) snapshot(id uuid.UUID) *model.Assignment {
	a, err := r.get(id)
	if err != nil {
		return nil
	}
	return a
}

func (r *fakeAssignmentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeMetricRepo struct {
	mu      sync.Mutex
	metrics []model.Metric
}

func (r *fakeMetricRepo) Create(_ context.Context, m *model.Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Source == "" {
		m.Source = "n8n"
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.metrics = append(r.metrics, *m)
	return nil
}

func (r *fakeMetricRepo) ListRecent(_ context.Context, limit int) ([]model.Metric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]model.Metric{}, r.metrics...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeMetricRepo) ListByKindForReadings(_ context.Context, kind model.MetricKind, readingIDs []uuid.UUID) ([]model.Metric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	allowed := make(map[uuid.UUID]bool, len(readingIDs))
	for _, id := range readingIDs {
		allowed[id] = true
	}
	var out []model.Metric
	for _, m := range r.metrics {
		if m.Kind == kind && m.ReadingID != nil && allowed[*m.ReadingID] {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	mu   sync.Mutex
	rows []model.Notification
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	r.rows = append(r.rows, *n)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if r.rows[i].UserID == userID {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID uuid.UUID, at time.Time) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id && r.rows[i].UserID == userID {
			if r.rows[i].ReadAt == nil {
				r.rows[i].ReadAt = &at
			}
			cp := r.rows[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*model.TeacherProfile
}

func (r *fakeProfileRepo) FindByUser(_ context.Context, userID uuid.UUID) (*model.TeacherProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) Upsert(_ context.Context, p *model.TeacherProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.profiles == nil {
		r.profiles = make(map[uuid.UUID]*model.TeacherProfile)
	}
	if existing, ok := r.profiles[p.UserID]; ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	} else if p.ID == uuid.Nil {
		p.ID = uuid.New()
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}
