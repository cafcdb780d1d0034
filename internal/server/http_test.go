package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"crosspost/internal/executor"
	"crosspost/pkg/health"
	"crosspost/services/intent"
	"crosspost/services/publish"
	"crosspost/services/schema"
	"crosspost/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *executor.Fake) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t, &publish.Task{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := executor.NewFake()
	registry := schema.NewRegistry(schema.RegistryParams{})
	svc := publish.NewService(publish.ServiceParams{
		DB:       db,
		Node:     node,
		Executor: fake,
		Bus:      publish.NewBus(),
	})
	h := NewHandler(HandlerParams{
		Validator: intent.NewValidator(intent.ValidatorParams{Registry: registry}),
		Tasks:     svc,
		Registry:  registry,
	})

	e := gin.New()
	RegisterRoutes(e, h, health.ProvideHealth(health.HealthParams{DB: db}))
	return e, fake
}

func do(t *testing.T, e *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func draftBody(platform string, fields map[string]any) map[string]any {
	return map[string]any{
		"videoId": 42,
		"commonData": map[string]any{
			"title":       "测试视频",
			"description": "描述",
		},
		"platformData": []map[string]any{
			{"platform": platform, "accounts": []int64{1001, 1002}, "fields": fields},
		},
	}
}

func TestHealthRoutes(t *testing.T) {
	e, _ := newTestRouter(t)

	require.Equal(t, http.StatusOK, do(t, e, http.MethodGet, "/healthz", nil).Code)
	require.Equal(t, http.StatusOK, do(t, e, http.MethodGet, "/readyz", nil).Code)
}

func TestListPlatforms(t *testing.T) {
	e, _ := newTestRouter(t)

	w := do(t, e, http.MethodGet, "/api/v1/platforms", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Platforms []struct {
			Platform string `json:"platform"`
			TagLimit *int   `json:"tagLimit"`
		} `json:"platforms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Platforms, 7)
	require.Equal(t, "douyin", resp.Platforms[0].Platform)
	require.NotNil(t, resp.Platforms[0].TagLimit)
	require.Equal(t, 5, *resp.Platforms[0].TagLimit)
}

func TestPlatformFieldsHidesInternal(t *testing.T) {
	e, _ := newTestRouter(t)

	w := do(t, e, http.MethodGet, "/api/v1/platforms/kuaishou/fields", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Fields []struct {
			Key string `json:"key"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	for _, f := range resp.Fields {
		require.NotEqual(t, "useFileChooser", f.Key)
		require.NotEqual(t, "skipNewFeatureGuide", f.Key)
	}
}

func TestPlatformFieldsUnknownPlatform(t *testing.T) {
	e, _ := newTestRouter(t)

	w := do(t, e, http.MethodGet, "/api/v1/platforms/vine/fields", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTasksFromDraft(t *testing.T) {
	e, fake := newTestRouter(t)

	w := do(t, e, http.MethodPost, "/api/v1/tasks", draftBody("douyin", map[string]any{
		"tags": []string{"美食", "vlog"},
	}))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Tasks []publish.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Tasks, 2)
	for _, task := range resp.Tasks {
		require.Equal(t, publish.StatusPending, task.Status)
		require.Equal(t, "douyin", task.Platform)
	}
	require.Len(t, fake.Created(), 2)
}

func TestCreateTasksValidationFailure(t *testing.T) {
	e, fake := newTestRouter(t)

	w := do(t, e, http.MethodPost, "/api/v1/tasks", draftBody("douyin", map[string]any{
		"tags": []string{"a", "b", "c", "d", "e", "f"},
	}))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		FieldErrors []intent.FieldError `json:"fieldErrors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.FieldErrors, 1)
	require.Equal(t, intent.TooManyTags, resp.FieldErrors[0].Kind)

	// nothing was created
	require.Empty(t, fake.Created())
	lw := do(t, e, http.MethodGet, "/api/v1/tasks", nil)
	var list struct {
		Tasks []publish.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(lw.Body.Bytes(), &list))
	require.Empty(t, list.Tasks)
}

func TestCreateTasksMalformedBody(t *testing.T) {
	e, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", bytes.NewBufferString("{nope"))
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	e, _ := newTestRouter(t)

	w := do(t, e, http.MethodPost, "/api/v1/tasks", draftBody("bilibili", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Tasks []publish.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Tasks[0].ID

	w = do(t, e, http.MethodGet, "/api/v1/tasks/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, e, http.MethodPost, "/api/v1/tasks/"+id+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// cancelled is terminal; a second cancel is rejected
	w = do(t, e, http.MethodPost, "/api/v1/tasks/"+id+"/cancel", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, e, http.MethodDelete, "/api/v1/tasks/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, e, http.MethodGet, "/api/v1/tasks/"+id, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTasksRejectsUnknownStatus(t *testing.T) {
	e, _ := newTestRouter(t)

	w := do(t, e, http.MethodGet, "/api/v1/tasks?status=bogus", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFieldOptions(t *testing.T) {
	e, _ := newTestRouter(t)

	w := do(t, e, http.MethodGet, "/api/v1/platforms/tencent/fields/originalType/options", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Options []schema.Option `json:"options"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Options, 3)
}
