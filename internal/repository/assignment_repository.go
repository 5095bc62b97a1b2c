package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssignmentRepository interface {
	// InsertIfAbsent inserts unless (reading, student) already exists. It reports whether a row was written.
	InsertIfAbsent(ctx context.Context, assignment *model.Assignment) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	FindByIDWithReading(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	FindByReadingAndStudent(ctx context.Context, readingID, studentID uuid.UUID) (*model.Assignment, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Assignment, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID, readingID *uuid.UUID) ([]model.Assignment, error)
	ListDueUnsubmitted(ctx context.Context, from, to time.Time) ([]model.Assignment, error)
	UpdateReadAt(ctx context.Context, id uuid.UUID, readAt *time.Time) error
	UpdateSubmission(ctx context.Context, id uuid.UUID, submission model.Submission) error
	UpdateFeedback(ctx context.Context, id uuid.UUID, feedback model.Feedback) error
	UpdateQuestions(ctx context.Context, id uuid.UUID, questions model.QuestionSet) error
	// UpsertAnswer merges ans into the stored answers under a row lock and returns the stored entry.
	UpsertAnswer(ctx context.Context, id uuid.UUID, ans model.Answer, now time.Time) (model.Answer, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

// InsertIfAbsent relies on the unique index idx_assignment_reading_student:
// Postgres reports zero affected rows for ON CONFLICT ... DO NOTHING, so a
// concurrent or repeated insert of the same pair is never an error.
func (r *assignmentRepository) InsertIfAbsent(ctx context.Context, assignment *model.Assignment) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reading_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(assignment)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *assignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	var a model.Assignment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) FindByIDWithReading(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	var a model.Assignment
	if err := r.db.WithContext(ctx).Preload("Reading").First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) FindByReadingAndStudent(ctx context.Context, readingID, studentID uuid.UUID) (*model.Assignment, error) {
	var a model.Assignment
	err := r.db.WithContext(ctx).
		Where("reading_id = ? AND student_id = ?", readingID, studentID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Assignment, error) {
	var list []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Reading").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID, readingID *uuid.UUID) ([]model.Assignment, error) {
	var list []model.Assignment
	q := r.db.WithContext(ctx).
		Preload("Reading").
		Preload("Student").
		Where("assigned_by = ?", teacherID)
	if readingID != nil {
		q = q.Where("reading_id = ?", *readingID)
	}
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *assignmentRepository) ListDueUnsubmitted(ctx context.Context, from, to time.Time) ([]model.Assignment, error) {
	var list []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Reading").
		Preload("Student").
		Where("due_date IS NOT NULL AND due_date >= ? AND due_date <= ?", from, to).
		Where("submission_at IS NULL").
		Order("due_date ASC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepository) UpdateReadAt(ctx context.Context, id uuid.UUID, readAt *time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("id = ?", id).
		Update("read_at", readAt).Error
}

func (r *assignmentRepository) UpdateSubmission(ctx context.Context, id uuid.UUID, s model.Submission) error {
	return r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"submission_bucket": s.Bucket,
			"submission_path":   s.Path,
			"submission_mime":   s.Mime,
			"submission_size":   s.Size,
			"submission_notes":  s.Notes,
			"submission_at":     s.At,
		}).Error
}

func (r *assignmentRepository) UpdateFeedback(ctx context.Context, id uuid.UUID, f model.Feedback) error {
	return r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"feedback_text":  f.Text,
			"feedback_score": f.Score,
			"feedback_by":    f.By,
			"feedback_at":    f.At,
		}).Error
}

func (r *assignmentRepository) UpdateQuestions(ctx context.Context, id uuid.UUID, questions model.QuestionSet) error {
	return r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("id = ?", id).
		Update("questions", datatypes.NewJSONType(questions)).Error
}

func (r *assignmentRepository) UpsertAnswer(ctx context.Context, id uuid.UUID, ans model.Answer, now time.Time) (model.Answer, error) {
	var stored model.Answer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a model.Assignment
		if err := lockAssignment(tx, id).First(&a).Error; err != nil {
			return err
		}
		stored = a.UpsertAnswer(ans, now)
		return tx.Model(&model.Assignment{}).
			Where("id = ?", id).
			Update("answers", a.Answers).Error
	})
	return stored, err
}

// lockAssignment selects the answers of one row with SELECT ... FOR UPDATE so
// concurrent answer writes on the same assignment serialize.
func lockAssignment(tx *gorm.DB, id uuid.UUID) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "answers").
		Where("id = ?", id)
}
