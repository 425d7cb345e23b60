package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dom/task-manager-api/internal/domain"
	"github.com/dom/task-manager-api/internal/testutil"
	"github.com/dom/task-manager-api/internal/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskJSON struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Tags        []string   `json:"tags"`
	UserID      string     `json:"user_id"`
}

func TestTaskHandler_Create(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	tests := []struct {
		name           string
		request        interface{}
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name:           "defaults applied",
			request:        map[string]interface{}{"title": "Write report"},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var task taskJSON
				testutil.AssertJSONResponse(t, resp, &task)
				assert.Equal(t, "Write report", task.Title)
				assert.Equal(t, "pending", task.Status)
				assert.Equal(t, "medium", task.Priority)
				assert.Equal(t, user.ID.String(), task.UserID)
			},
		},
		{
			name: "client supplied owner is ignored",
			request: map[string]interface{}{
				"title":   "Not yours",
				"user_id": uuid.New().String(),
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var task taskJSON
				testutil.AssertJSONResponse(t, resp, &task)
				assert.Equal(t, user.ID.String(), task.UserID)
			},
		},
		{
			name: "all fields",
			request: map[string]interface{}{
				"title":       "Ship release",
				"description": "tag and publish",
				"status":      "in_progress",
				"priority":    "high",
				"due_date":    "2030-01-02T15:04:05Z",
				"tags":        []string{"Work", " release ", "work"},
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var task taskJSON
				testutil.AssertJSONResponse(t, resp, &task)
				assert.Equal(t, "in_progress", task.Status)
				assert.Equal(t, "high", task.Priority)
				require.NotNil(t, task.DueDate)
				assert.True(t, task.DueDate.Equal(time.Date(2030, 1, 2, 15, 4, 5, 0, time.UTC)))
				assert.Equal(t, []string{"work", "release"}, task.Tags)
			},
		},
		{
			name:           "missing title",
			request:        map[string]interface{}{"description": "no title"},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertFieldErrors(t, resp, "title")
			},
		},
		{
			name:           "blank title",
			request:        map[string]interface{}{"title": "   "},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertFieldErrors(t, resp, "title")
			},
		},
		{
			name:           "invalid status and priority",
			request:        map[string]interface{}{"title": "x", "status": "done", "priority": "urgent"},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertFieldErrors(t, resp, "status", "priority")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.Do(t, http.MethodPost, ts.APIURL("/tasks"), token, tt.request)

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestTaskHandler_RequiresAuthentication(t *testing.T) {
	ts := testutil.NewTestServer(t)
	task := testutil.NewTaskBuilder().Build(t, ts.Repos)
	path := "/tasks/" + task.ID.String()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, path},
		{http.MethodPut, path},
		{http.MethodDelete, path},
		{http.MethodPatch, path + "/status"},
		{http.MethodGet, "/users"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := ts.Do(t, tt.method, ts.APIURL(tt.path), "", map[string]string{"title": "x"})
			testutil.AssertUnauthenticated(t, resp)
		})
	}

	_, err := ts.Repos.Task.GetByIDForUser(t.Context(), task.ID, task.UserID)
	assert.NoError(t, err, "rejected requests must not touch the task")
}

func TestTaskHandler_OwnershipIsolation(t *testing.T) {
	ts := testutil.NewTestServer(t)

	_, tokenA := testutil.NewUserBuilder().WithUsername("usera").BuildAndAuthenticate(t, ts)
	userB, tokenB := testutil.NewUserBuilder().WithUsername("userb").BuildAndAuthenticate(t, ts)

	taskB := testutil.NewTaskBuilder().WithOwner(userB).WithTitle("B's secret").Build(t, ts.Repos)
	path := ts.APIURL("/tasks/" + taskB.ID.String())

	tests := []struct {
		name   string
		method string
		url    string
		body   interface{}
	}{
		{name: "get", method: http.MethodGet, url: path},
		{name: "update", method: http.MethodPut, url: path, body: map[string]string{"title": "hijacked"}},
		{name: "status", method: http.MethodPatch, url: path + "/status", body: map[string]string{"status": "completed"}},
		{name: "delete", method: http.MethodDelete, url: path},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.Do(t, tt.method, tt.url, tokenA, tt.body)
			testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Task not found")
		})
	}

	// A's listing does not include B's task.
	resp := ts.Do(t, http.MethodGet, ts.APIURL("/tasks"), tokenA, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listA []taskJSON
	testutil.AssertJSONResponse(t, resp, &listA)
	assert.Empty(t, listA)

	// B still sees the task untouched.
	resp = ts.Do(t, http.MethodGet, path, tokenB, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got taskJSON
	testutil.AssertJSONResponse(t, resp, &got)
	assert.Equal(t, "B's secret", got.Title)
	assert.Equal(t, "pending", got.Status)
}

func TestTaskHandler_GetUnknownAndMalformedID(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	for _, id := range []string{uuid.New().String(), "42", "not-a-uuid"} {
		t.Run(id, func(t *testing.T) {
			resp := ts.Do(t, http.MethodGet, ts.APIURL("/tasks/"+id), token, nil)
			testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Task not found")
		})
	}
}

func TestTaskHandler_ListFilters(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	testutil.NewTaskBuilder().WithOwner(user).WithTitle("a").WithStatus(domain.TaskStatusPending).WithPriority(domain.TaskPriorityHigh).WithTags("home").Build(t, ts.Repos)
	testutil.NewTaskBuilder().WithOwner(user).WithTitle("b").WithStatus(domain.TaskStatusCompleted).WithPriority(domain.TaskPriorityHigh).WithTags("work").Build(t, ts.Repos)
	testutil.NewTaskBuilder().WithOwner(user).WithTitle("c").WithStatus(domain.TaskStatusCompleted).WithPriority(domain.TaskPriorityLow).WithTags("work", "urgent").Build(t, ts.Repos)

	tests := []struct {
		name   string
		query  string
		titles []string
	}{
		{name: "no filter", query: "", titles: []string{"a", "b", "c"}},
		{name: "by status", query: "?status=completed", titles: []string{"b", "c"}},
		{name: "by priority", query: "?priority=high", titles: []string{"a", "b"}},
		{name: "status and priority", query: "?status=completed&priority=low", titles: []string{"c"}},
		{name: "by tag", query: "?tag=work", titles: []string{"b", "c"}},
		{name: "tag is case insensitive", query: "?tag=URGENT", titles: []string{"c"}},
		{name: "unknown status matches nothing", query: "?status=archived", titles: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.Do(t, http.MethodGet, ts.APIURL("/tasks"+tt.query), token, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var tasks []taskJSON
			testutil.AssertJSONResponse(t, resp, &tasks)

			titles := make([]string, 0, len(tasks))
			for _, task := range tasks {
				titles = append(titles, task.Title)
			}
			assert.ElementsMatch(t, tt.titles, titles)
		})
	}
}

func TestTaskHandler_Update(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	tests := []struct {
		name           string
		request        interface{}
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name:           "partial update keeps other fields",
			request:        map[string]interface{}{"priority": "high"},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var task taskJSON
				testutil.AssertJSONResponse(t, resp, &task)
				assert.Equal(t, "original", task.Title)
				assert.Equal(t, "high", task.Priority)
				assert.Equal(t, "pending", task.Status)
			},
		},
		{
			name:           "update title and tags",
			request:        map[string]interface{}{"title": "renamed", "tags": []string{"Errand"}},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var task taskJSON
				testutil.AssertJSONResponse(t, resp, &task)
				assert.Equal(t, "renamed", task.Title)
				assert.Equal(t, []string{"errand"}, task.Tags)
			},
		},
		{
			name:           "owner cannot be reassigned",
			request:        map[string]interface{}{"title": "mine now", "user_id": uuid.New().String()},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertFieldErrors(t, resp, "user_id")
			},
		},
		{
			name:           "empty title",
			request:        map[string]interface{}{"title": ""},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertFieldErrors(t, resp, "title")
			},
		},
		{
			name:           "invalid status",
			request:        map[string]interface{}{"status": "done"},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertFieldErrors(t, resp, "status")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := testutil.NewTaskBuilder().WithOwner(user).WithTitle("original").Build(t, ts.Repos)

			resp := ts.Do(t, http.MethodPut, ts.APIURL("/tasks/"+task.ID.String()), token, tt.request)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}

			stored, err := ts.Repos.Task.GetByIDForUser(t.Context(), task.ID, user.ID)
			require.NoError(t, err)
			assert.Equal(t, user.ID, stored.UserID)
		})
	}
}

func TestTaskHandler_UpdateStatus(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	task := testutil.NewTaskBuilder().WithOwner(user).Build(t, ts.Repos)
	url := ts.APIURL("/tasks/" + task.ID.String() + "/status")

	tests := []struct {
		name           string
		request        interface{}
		expectedStatus int
		expectedError  string
	}{
		{name: "missing status", request: map[string]string{}, expectedStatus: http.StatusBadRequest, expectedError: "Status is required"},
		{name: "invalid status", request: map[string]string{"status": "archived"}, expectedStatus: http.StatusBadRequest, expectedError: "Invalid status"},
		{name: "valid status", request: map[string]string{"status": "completed"}, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.Do(t, http.MethodPatch, url, token, tt.request)

			if tt.expectedError != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
				return
			}

			require.Equal(t, tt.expectedStatus, resp.StatusCode)
			var got taskJSON
			testutil.AssertJSONResponse(t, resp, &got)
			assert.Equal(t, "completed", got.Status)
		})
	}
}

func TestTaskHandler_Delete(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	task := testutil.NewTaskBuilder().WithOwner(user).Build(t, ts.Repos)
	url := ts.APIURL("/tasks/" + task.ID.String())

	resp := ts.Do(t, http.MethodDelete, url, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.Do(t, http.MethodDelete, url, token, nil)
	testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Task not found")

	resp = ts.Do(t, http.MethodGet, url, token, nil)
	testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Task not found")
}

func TestTaskHandler_EventsStream(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner, ownerToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	_, otherToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	ownerWS := testutil.NewWSClient(t, ts.WebSocketURL(), ownerToken)
	otherWS := testutil.NewWSClient(t, ts.WebSocketURL(), otherToken)

	resp := ts.Do(t, http.MethodPost, ts.APIURL("/tasks"), ownerToken, map[string]string{"title": "watched"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created taskJSON
	testutil.AssertJSONResponse(t, resp, &created)

	payload := ownerWS.ExpectTaskEvent(websocket.MessageTypeTaskCreated, 2*time.Second)
	require.NotNil(t, payload.Task)
	assert.Equal(t, created.ID, payload.Task.ID.String())
	assert.Equal(t, owner.ID, payload.Task.UserID)

	resp = ts.Do(t, http.MethodPatch, ts.APIURL("/tasks/"+created.ID+"/status"), ownerToken, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload = ownerWS.ExpectTaskEvent(websocket.MessageTypeTaskUpdated, 2*time.Second)
	assert.Equal(t, domain.TaskStatusCompleted, payload.Task.Status)

	resp = ts.Do(t, http.MethodDelete, ts.APIURL("/tasks/"+created.ID), ownerToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	payload = ownerWS.ExpectTaskEvent(websocket.MessageTypeTaskDeleted, 2*time.Second)
	assert.Equal(t, created.ID, payload.Task.ID.String())

	otherWS.ExpectNoMessage(200 * time.Millisecond)
}

func TestTaskHandler_EventsStreamRequiresToken(t *testing.T) {
	ts := testutil.NewTestServer(t)

	for _, token := range []string{"", "not.a.jwt"} {
		conn, resp, err := testutil.DialWS(ts.WebSocketURL(), token)
		require.Error(t, err)
		if conn != nil {
			conn.Close()
		}
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}
}
