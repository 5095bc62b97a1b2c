package teacher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/config"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/middleware"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/lecturacritica/tutor-api/internal/service"
	"github.com/lecturacritica/tutor-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssignments struct {
	service.AssignmentService
	lastAssign  dto.AssignRequest
	assignCalls int
	result      *dto.AssignResult
	err         error
}

func (s *stubAssignments) Assign(_ context.Context, _ model.Principal, req dto.AssignRequest) (*dto.AssignResult, error) {
	s.assignCalls++
	s.lastAssign = req
	return s.result, s.err
}

func (s *stubAssignments) SendFeedback(_ context.Context, _ model.Principal, _ uuid.UUID, req dto.FeedbackRequest) (*model.Feedback, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Feedback{Text: *req.Text, Score: req.Score}, nil
}

func newTestRouter(t *testing.T, stub *stubAssignments) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.Register())

	ctrl := NewTeacherController(&config.Config{}, nil, stub, nil, nil, nil, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetPrincipal(c, model.Principal{ID: uuid.New(), Role: model.RoleDocente})
		c.Next()
	})
	r.POST("/assignments/assign", ctrl.Assign)
	r.POST("/assignments/:id/feedback", ctrl.SendFeedback)
	return r
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAssign_Batch(t *testing.T) {
	stub := &stubAssignments{result: &dto.AssignResult{Stats: &dto.BatchStats{Upserted: 2, Matched: 1}}}
	r := newTestRouter(t, stub)
	s1, s2, s3 := uuid.NewString(), uuid.NewString(), uuid.NewString()

	w := postJSON(r, "/assignments/assign", map[string]any{
		"readingId":  uuid.NewString(),
		"studentIds": []string{s1, s2, s3},
		"dueDate":    "2025-06-30",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.AssignBatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, dto.BatchStats{Upserted: 2, Matched: 1}, resp.Stats)
	assert.Equal(t, []string{s1, s2, s3}, stub.lastAssign.Targets())
}

func TestAssign_Single(t *testing.T) {
	id := uuid.New()
	stub := &stubAssignments{result: &dto.AssignResult{Assignment: &dto.AssignmentResponse{ID: id}}}
	r := newTestRouter(t, stub)

	w := postJSON(r, "/assignments/assign", map[string]any{"readingId": uuid.NewString(), "studentId": uuid.NewString()})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp dto.AssignSingleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.Assignment.ID)
}

func TestAssign_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]any
		err        error
		wantStatus int
	}{
		{"no targets", map[string]any{"readingId": uuid.NewString()}, nil, http.StatusBadRequest},
		{"bad reading id", map[string]any{"readingId": "x", "studentId": uuid.NewString()}, nil, http.StatusBadRequest},
		{"bad due date", map[string]any{"readingId": uuid.NewString(), "studentId": uuid.NewString(), "dueDate": "pronto"}, nil, http.StatusBadRequest},
		{"reading absent", map[string]any{"readingId": uuid.NewString(), "studentId": uuid.NewString()}, service.ErrReadingAbsent, http.StatusNotFound},
		{"target not a student", map[string]any{"readingId": uuid.NewString(), "studentId": uuid.NewString()}, fmt.Errorf("%w: no es estudiante", service.ErrValidation), http.StatusBadRequest},
		{"store failure", map[string]any{"readingId": uuid.NewString(), "studentId": uuid.NewString()}, errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAssignments{err: tt.err}
			w := postJSON(newTestRouter(t, stub), "/assignments/assign", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.err == nil {
				assert.Zero(t, stub.assignCalls)
			}
		})
	}
}

func TestSendFeedback(t *testing.T) {
	text := "Buen análisis"
	path := "/assignments/" + uuid.NewString() + "/feedback"

	w := postJSON(newTestRouter(t, &stubAssignments{}), path, map[string]any{"text": text, "score": 90})
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.FeedbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, text, resp.Feedback.Text)

	w = postJSON(newTestRouter(t, &stubAssignments{err: service.ErrNotOwner}), path, map[string]any{"text": text})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = postJSON(newTestRouter(t, &stubAssignments{}), path, map[string]any{"text": text, "score": 101})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
