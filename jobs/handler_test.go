package jobs

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubhamkulkarni01/emstrack/internal/auth"
)

type fakeEnqueuer struct {
	enqueued []ResyncPayload
}

func (f *fakeEnqueuer) EnqueueResync(ctx context.Context, payload ResyncPayload) (*asynq.TaskInfo, error) {
	f.enqueued = append(f.enqueued, payload)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func jobsRouter(enqueuer Enqueuer, user *auth.User) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.ContextWithPrincipal(req.Context(), user)))
		})
	})
	NewHandler(enqueuer, slog.Default()).MountRoutes(r)
	return r
}

func TestResyncTriggerRequiresDispatcherRole(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := jobsRouter(enqueuer, &auth.User{ID: 2})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/resync", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, enqueuer.enqueued)
}

func TestResyncTriggerEnqueuesTask(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := jobsRouter(enqueuer, &auth.User{ID: 5, Staff: true})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/resync", strings.NewReader(`{"class": "vehicle"}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"task_id":"task-1"`)
	require.Len(t, enqueuer.enqueued, 1)
	assert.Equal(t, "vehicle", enqueuer.enqueued[0].Class)
}

func TestResyncTriggerDefaultsToAllClasses(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := jobsRouter(enqueuer, &auth.User{ID: 1, Superuser: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/resync", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, enqueuer.enqueued, 1)
	assert.Empty(t, enqueuer.enqueued[0].Class)
}

func TestResyncTriggerRejectsUnknownClass(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := jobsRouter(enqueuer, &auth.User{ID: 5, Staff: true})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/resync", strings.NewReader(`{"class": "everything"}`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, enqueuer.enqueued)
}
