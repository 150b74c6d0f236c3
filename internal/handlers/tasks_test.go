package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sproutplan/sproutplan-api/internal/database"
	"github.com/sproutplan/sproutplan-api/internal/models"
	"github.com/sproutplan/sproutplan-api/internal/request"
	"github.com/sproutplan/sproutplan-api/internal/validation"
)

// mockTaskRepo is an in-memory TaskRepositoryInterface for handler tests
type mockTaskRepo struct {
	tasks      map[uuid.UUID]*models.Task
	reorderErr error
	reordered  []uuid.UUID
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[uuid.UUID]*models.Task)}
}

func (m *mockTaskRepo) Create(_ context.Context, task *models.Task) error {
	next := 0
	for _, t := range m.tasks {
		if t.UserID == task.UserID && t.TaskDate == task.TaskDate {
			next++
		}
	}
	task.OrderIndex = next
	task.CreatedAt = time.Now().UTC()
	m.tasks[task.ID] = task
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*models.Task, error) {
	if task, ok := m.tasks[id]; ok && task.UserID == userID {
		copied := *task
		return &copied, nil
	}
	return nil, database.ErrNotFound
}

func (m *mockTaskRepo) ListByDate(ctx context.Context, userID uuid.UUID, date string) ([]*models.Task, error) {
	return m.ListByDateRange(ctx, userID, date, date)
}

func (m *mockTaskRepo) ListByDateRange(_ context.Context, userID uuid.UUID, from, to string) ([]*models.Task, error) {
	out := []*models.Task{}
	for _, task := range m.tasks {
		if task.UserID == userID && task.TaskDate >= from && task.TaskDate <= to {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaskDate != out[j].TaskDate {
			return out[i].TaskDate < out[j].TaskDate
		}
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out, nil
}

func (m *mockTaskRepo) Update(_ context.Context, task *models.Task) error {
	if _, ok := m.tasks[task.ID]; !ok {
		return database.ErrNotFound
	}
	m.tasks[task.ID] = task
	return nil
}

func (m *mockTaskRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	if task, ok := m.tasks[id]; ok && task.UserID == userID {
		delete(m.tasks, id)
		return nil
	}
	return database.ErrNotFound
}

func (m *mockTaskRepo) Reorder(_ context.Context, _ uuid.UUID, orderedIDs []uuid.UUID) error {
	if m.reorderErr != nil {
		return m.reorderErr
	}
	m.reordered = orderedIDs
	for i, id := range orderedIDs {
		if task, ok := m.tasks[id]; ok {
			task.OrderIndex = i
		}
	}
	return nil
}

func newTaskRouter(repo *mockTaskRepo, today string) *mux.Router {
	h := NewTaskHandler(repo)
	h.SetClock(func() time.Time {
		t, _ := time.Parse(models.DateLayout, today)
		return t
	})
	r := mux.NewRouter()
	h.RegisterRoutes(r.PathPrefix("/api/v1/tasks").Subrouter())
	return r
}

func doAuthed(router *mux.Router, user *models.User, method, path string, body any) *httptest.ResponseRecorder {
	req := newTestRequest(method, path, body)
	if user != nil {
		req = req.WithContext(request.WithUser(req.Context(), user))
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("Expected success envelope, got %s", w.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: uuid.New(), Username: "sam"}

	tests := []struct {
		name       string
		body       any
		wantStatus int
		validate   func(*testing.T, *models.Task)
	}{
		{
			name:       "explicit date",
			body:       map[string]string{"title": "feed the fish", "task_date": "2024-06-10"},
			wantStatus: http.StatusCreated,
			validate: func(t *testing.T, task *models.Task) {
				if task.Title != "feed the fish" {
					t.Errorf("Expected title 'feed the fish', got %q", task.Title)
				}
				if task.TaskDate != "2024-06-10" {
					t.Errorf("Expected task_date 2024-06-10, got %s", task.TaskDate)
				}
				if task.Completed {
					t.Error("Expected new task to start incomplete")
				}
				if task.CompletedAt != nil {
					t.Error("Expected nil completed_at on a new task")
				}
			},
		},
		{
			name:       "date defaults to today",
			body:       map[string]string{"title": "water plants"},
			wantStatus: http.StatusCreated,
			validate: func(t *testing.T, task *models.Task) {
				if task.TaskDate != "2024-06-12" {
					t.Errorf("Expected task_date to default to 2024-06-12, got %s", task.TaskDate)
				}
			},
		},
		{
			name:       "title is trimmed",
			body:       map[string]string{"title": "  brush teeth  "},
			wantStatus: http.StatusCreated,
			validate: func(t *testing.T, task *models.Task) {
				if task.Title != "brush teeth" {
					t.Errorf("Expected trimmed title, got %q", task.Title)
				}
			},
		},
		{
			name:       "missing title",
			body:       map[string]string{"task_date": "2024-06-10"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "whitespace-only title",
			body:       map[string]string{"title": "   "},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed date",
			body:       map[string]string{"title": "ok", "task_date": "June 10"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newTaskRouter(newMockTaskRepo(), "2024-06-12")
			w := doAuthed(router, user, "POST", "/api/v1/tasks", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.validate != nil {
				var task models.Task
				decodeData(t, w, &task)
				tt.validate(t, &task)
			}
		})
	}
}

func TestCreateTask_OrderIndexAppends(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: uuid.New(), Username: "sam"}
	router := newTaskRouter(newMockTaskRepo(), "2024-06-12")

	for i := 0; i < 3; i++ {
		w := doAuthed(router, user, "POST", "/api/v1/tasks", map[string]string{"title": "task", "task_date": "2024-06-10"})
		if w.Code != http.StatusCreated {
			t.Fatalf("Create %d failed: %d", i, w.Code)
		}
		var task models.Task
		decodeData(t, w, &task)
		if task.OrderIndex != i {
			t.Errorf("Expected order index %d, got %d", i, task.OrderIndex)
		}
	}
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: uuid.New(), Username: "sam"}
	repo := newMockTaskRepo()
	router := newTaskRouter(repo, "2024-06-12")

	for _, title := range []string{"first", "second"} {
		w := doAuthed(router, user, "POST", "/api/v1/tasks", map[string]string{"title": title, "task_date": "2024-06-12"})
		if w.Code != http.StatusCreated {
			t.Fatalf("Create failed: %d", w.Code)
		}
	}

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCount  int
	}{
		{"default date is today", "/api/v1/tasks", http.StatusOK, 2},
		{"explicit date", "/api/v1/tasks?date=2024-06-12", http.StatusOK, 2},
		{"empty day", "/api/v1/tasks?date=2024-06-13", http.StatusOK, 0},
		{"path date", "/api/v1/tasks/date/2024-06-12", http.StatusOK, 2},
		{"malformed query date", "/api/v1/tasks?date=tomorrow", http.StatusBadRequest, 0},
		{"malformed path date", "/api/v1/tasks/date/junk", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := doAuthed(router, user, "GET", tt.path, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var tasks []*models.Task
			decodeData(t, w, &tasks)
			if len(tasks) != tt.wantCount {
				t.Errorf("Expected %d tasks, got %d", tt.wantCount, len(tasks))
			}
			for i := 1; i < len(tasks); i++ {
				if tasks[i-1].OrderIndex > tasks[i].OrderIndex {
					t.Error("Expected tasks sorted by order index")
				}
			}
		})
	}
}

func TestUpdateTask_CompletionToggle(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: uuid.New(), Username: "sam"}
	repo := newMockTaskRepo()
	router := newTaskRouter(repo, "2024-06-12")

	w := doAuthed(router, user, "POST", "/api/v1/tasks", map[string]string{"title": "make bed"})
	var created models.Task
	decodeData(t, w, &created)

	w = doAuthed(router, user, "PATCH", "/api/v1/tasks/"+created.ID.String(), map[string]bool{"completed": true})
	if w.Code != http.StatusOK {
		t.Fatalf("Complete failed: %d: %s", w.Code, w.Body.String())
	}
	var completed models.Task
	decodeData(t, w, &completed)
	if !completed.Completed {
		t.Error("Expected task to be completed")
	}
	if completed.CompletedAt == nil {
		t.Error("Expected completed_at to be set")
	}

	w = doAuthed(router, user, "PATCH", "/api/v1/tasks/"+created.ID.String(), map[string]bool{"completed": false})
	var reopened models.Task
	decodeData(t, w, &reopened)
	if reopened.Completed {
		t.Error("Expected task to be incomplete again")
	}
	if reopened.CompletedAt != nil {
		t.Error("Expected completed_at to be cleared")
	}
}

func TestUpdateTask_Errors(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: uuid.New(), Username: "sam"}
	stranger := &models.User{ID: uuid.New(), Username: "rex"}
	repo := newMockTaskRepo()
	router := newTaskRouter(repo, "2024-06-12")

	w := doAuthed(router, user, "POST", "/api/v1/tasks", map[string]string{"title": "tidy room"})
	var created models.Task
	decodeData(t, w, &created)

	tests := []struct {
		name       string
		user       *models.User
		path       string
		body       any
		wantStatus int
	}{
		{"invalid id", user, "/api/v1/tasks/not-a-uuid", map[string]bool{"completed": true}, http.StatusBadRequest},
		{"unknown id", user, "/api/v1/tasks/" + uuid.NewString(), map[string]bool{"completed": true}, http.StatusNotFound},
		{"other user's task looks missing", stranger, "/api/v1/tasks/" + created.ID.String(), map[string]bool{"completed": true}, http.StatusNotFound},
		{"empty title", user, "/api/v1/tasks/" + created.ID.String(), map[string]string{"title": "  "}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := doAuthed(router, tt.user, "PATCH", tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: uuid.New(), Username: "sam"}
	repo := newMockTaskRepo()
	router := newTaskRouter(repo, "2024-06-12")

	w := doAuthed(router, user, "POST", "/api/v1/tasks", map[string]string{"title": "old task"})
	var created models.Task
	decodeData(t, w, &created)

	w = doAuthed(router, user, "DELETE", "/api/v1/tasks/"+created.ID.String(), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}

	// A second delete finds nothing.
	w = doAuthed(router, user, "DELETE", "/api/v1/tasks/"+created.ID.String(), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for repeated delete, got %d", w.Code)
	}
}

func TestReorderTasks(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: uuid.New(), Username: "sam"}

	t.Run("valid set", func(t *testing.T) {
		t.Parallel()

		repo := newMockTaskRepo()
		router := newTaskRouter(repo, "2024-06-12")

		ids := make([]uuid.UUID, 3)
		for i := range ids {
			w := doAuthed(router, user, "POST", "/api/v1/tasks", map[string]string{"title": "task", "task_date": "2024-06-10"})
			var task models.Task
			decodeData(t, w, &task)
			ids[i] = task.ID
		}

		reversed := []uuid.UUID{ids[2], ids[1], ids[0]}
		w := doAuthed(router, user, "POST", "/api/v1/tasks/reorder", map[string]any{"task_ids": reversed})
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if len(repo.reordered) != 3 || repo.reordered[0] != ids[2] {
			t.Errorf("Expected repo to receive reversed ids, got %v", repo.reordered)
		}
	})

	t.Run("rejected set maps to 400", func(t *testing.T) {
		t.Parallel()

		repo := newMockTaskRepo()
		repo.reorderErr = validation.NewError("reorder list must cover every task of the day")
		router := newTaskRouter(repo, "2024-06-12")

		w := doAuthed(router, user, "POST", "/api/v1/tasks/reorder", map[string]any{"task_ids": []uuid.UUID{uuid.New()}})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		t.Parallel()

		router := newTaskRouter(newMockTaskRepo(), "2024-06-12")

		w := doAuthed(router, user, "POST", "/api/v1/tasks/reorder", map[string]any{"task_ids": []uuid.UUID{}})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestTaskRoutes_RequireUser(t *testing.T) {
	t.Parallel()

	router := newTaskRouter(newMockTaskRepo(), "2024-06-12")

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/tasks"},
		{"POST", "/api/v1/tasks"},
		{"POST", "/api/v1/tasks/reorder"},
		{"GET", "/api/v1/tasks/date/2024-06-12"},
		{"PATCH", "/api/v1/tasks/" + uuid.NewString()},
		{"DELETE", "/api/v1/tasks/" + uuid.NewString()},
	}

	for _, p := range paths {
		w := doAuthed(router, nil, p.method, p.path, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without user, got %d", p.method, p.path, w.Code)
		}
	}
}
