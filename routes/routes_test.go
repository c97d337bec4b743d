package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tharoon321/go-events-api/controllers"
	"github.com/Tharoon321/go-events-api/middleware"
	"github.com/Tharoon321/go-events-api/models"
	"github.com/Tharoon321/go-events-api/publisher"
	"github.com/Tharoon321/go-events-api/routes"
	"github.com/Tharoon321/go-events-api/store"
)

const apiKey = "mysecureapikey"

type envelope struct {
	Message string       `json:"message"`
	Data    models.Event `json:"data"`
	Error   string       `json:"error"`
}

func setupRouter(t *testing.T) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fs := store.NewFileStore(filepath.Join(t.TempDir(), "data", "events.json"))
	require.NoError(t, fs.Init())

	logger := zap.NewNop()
	router := routes.New(routes.Options{
		Logger:        logger,
		Events:        controllers.NewEventController(fs, publisher.Nop{}, logger),
		Authenticator: middleware.APIKeyAuthenticator{Key: apiKey},
	})
	return router, fs
}

func request(router http.Handler, method, path string, body interface{}, withKey bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if withKey {
		req.Header.Set(middleware.APIKeyHeader, apiKey)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func list(t *testing.T, router http.Handler, query string) []models.Event {
	t.Helper()
	w := request(router, http.MethodGet, "/api/events"+query, nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	var events []models.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	return events
}

func create(t *testing.T, router http.Handler, body map[string]interface{}) models.Event {
	t.Helper()
	w := request(router, http.MethodPost, "/api/events", body, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeEnvelope(t, w).Data
}

func eventPath(id int64) string {
	return "/api/events/" + strconv.FormatInt(id, 10)
}

func TestCreateAndList(t *testing.T) {
	router, _ := setupRouter(t)

	w := request(router, http.MethodPost, "/api/events", map[string]interface{}{
		"eventName": "Meetup", "date": "2024-05-01", "location": "Hall A", "userId": "u1",
	}, true)
	require.Equal(t, http.StatusCreated, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, "Event created", env.Message)
	assert.NotZero(t, env.Data.ID)
	assert.NotEmpty(t, env.Data.CreatedAt)
	assert.Equal(t, "", env.Data.Description)
	assert.Equal(t, []string{}, env.Data.Tags)

	events := list(t, router, "")
	require.Len(t, events, 1)
	assert.Equal(t, env.Data, events[0])
}

func TestCreateRejectsDuplicate(t *testing.T) {
	router, _ := setupRouter(t)
	body := map[string]interface{}{"eventName": "Meetup", "date": "2024-05-01", "location": "Hall A", "userId": "u1"}
	create(t, router, body)

	body["location"] = "Hall B"
	w := request(router, http.MethodPost, "/api/events", body, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Duplicate event for same user and date", decodeEnvelope(t, w).Error)

	body["userId"] = "u2"
	create(t, router, body)
	assert.Len(t, list(t, router, ""), 2)
}

func TestCreateRequiresFields(t *testing.T) {
	router, _ := setupRouter(t)
	full := map[string]interface{}{"eventName": "Meetup", "date": "2024-05-01", "location": "Hall A", "userId": "u1"}

	for _, field := range []string{"eventName", "date", "location", "userId"} {
		body := map[string]interface{}{}
		for k, v := range full {
			if k != field {
				body[k] = v
			}
		}
		w := request(router, http.MethodPost, "/api/events", body, true)
		assert.Equal(t, http.StatusBadRequest, w.Code, field)
		assert.Equal(t, "eventName, date, location, and userId are required", decodeEnvelope(t, w).Error)

		body[field] = ""
		w = request(router, http.MethodPost, "/api/events", body, true)
		assert.Equal(t, http.StatusBadRequest, w.Code, field)
	}

	w := request(router, http.MethodPost, "/api/events", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, list(t, router, ""))
}

func TestWriteRoutesRequireAPIKey(t *testing.T) {
	router, _ := setupRouter(t)
	ev := create(t, router, map[string]interface{}{"eventName": "Meetup", "date": "2024-05-01", "location": "Hall A", "userId": "u1"})

	cases := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPost, "/api/events", map[string]interface{}{"eventName": "X", "date": "d", "location": "l", "userId": "u1"}},
		{http.MethodPut, eventPath(ev.ID), map[string]interface{}{"location": "Hall B", "userId": "u1"}},
		{http.MethodDelete, eventPath(ev.ID), map[string]interface{}{"userId": "u1"}},
	}
	for _, tc := range cases {
		w := request(router, tc.method, tc.path, tc.body, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.method)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
	}

	events := list(t, router, "")
	require.Len(t, events, 1)
	assert.Equal(t, ev, events[0])
}

func TestListFilters(t *testing.T) {
	router, _ := setupRouter(t)
	create(t, router, map[string]interface{}{"eventName": "A", "date": "2024-01-01", "location": "Hall A", "userId": "u1", "tags": []string{"go"}})
	create(t, router, map[string]interface{}{"eventName": "B", "date": "2024-01-02", "location": "Hall A", "userId": "u1", "tags": []string{"rust", "go"}})
	create(t, router, map[string]interface{}{"eventName": "C", "date": "2024-01-01", "location": "Hall B", "userId": "u2"})

	byDate := list(t, router, "?date=2024-01-01")
	require.Len(t, byDate, 2)
	for _, e := range byDate {
		assert.Equal(t, "2024-01-01", e.Date)
	}

	byLocation := list(t, router, "?location="+url.QueryEscape("Hall A"))
	assert.Len(t, byLocation, 2)

	byTag := list(t, router, "?tag=rust")
	require.Len(t, byTag, 1)
	assert.Equal(t, "B", byTag[0].EventName)

	combined := list(t, router, "?date=2024-01-01&tag=go")
	require.Len(t, combined, 1)
	assert.Equal(t, "A", combined[0].EventName)

	assert.Empty(t, list(t, router, "?location=nowhere"))
}

func TestListEmptyIsArray(t *testing.T) {
	router, _ := setupRouter(t)
	w := request(router, http.MethodGet, "/api/events", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func names(events []models.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.EventName
	}
	return out
}

func TestListSorting(t *testing.T) {
	router, _ := setupRouter(t)
	create(t, router, map[string]interface{}{"eventName": "Beta", "date": "2024-03-01", "location": "L", "userId": "u1"})
	create(t, router, map[string]interface{}{"eventName": "Alpha", "date": "2024-01-01", "location": "L", "userId": "u1"})
	create(t, router, map[string]interface{}{"eventName": "Gamma", "date": "2024-02-01", "location": "L", "userId": "u1"})

	assert.Equal(t, []string{"Beta", "Alpha", "Gamma"}, names(list(t, router, "")))
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, names(list(t, router, "?sort=eventName")))
	assert.Equal(t, []string{"Gamma", "Beta", "Alpha"}, names(list(t, router, "?sort=eventName&order=desc")))
	assert.Equal(t, []string{"Alpha", "Gamma", "Beta"}, names(list(t, router, "?sort=date&order=asc")))
	assert.Equal(t, []string{"Beta", "Gamma", "Alpha"}, names(list(t, router, "?sort=date&order=desc")))
	assert.Equal(t, []string{"Alpha", "Gamma", "Beta"}, names(list(t, router, "?sort=date&order=sideways")))
	assert.Equal(t, []string{"Beta", "Alpha", "Gamma"}, names(list(t, router, "?sort=location&order=desc")))
}

func TestListSortingUsesUTF16Order(t *testing.T) {
	router, _ := setupRouter(t)
	create(t, router, map[string]interface{}{"eventName": "～", "date": "2024-01-01", "location": "L", "userId": "u1"})
	create(t, router, map[string]interface{}{"eventName": "😀", "date": "2024-01-01", "location": "L", "userId": "u1"})
	create(t, router, map[string]interface{}{"eventName": "Z", "date": "2024-01-01", "location": "L", "userId": "u1"})

	assert.Equal(t, []string{"Z", "😀", "～"}, names(list(t, router, "?sort=eventName")))
	assert.Equal(t, []string{"～", "😀", "Z"}, names(list(t, router, "?sort=eventName&order=desc")))
}

func TestGetEvent(t *testing.T) {
	router, _ := setupRouter(t)
	ev := create(t, router, map[string]interface{}{"eventName": "Meetup", "date": "2024-05-01", "location": "Hall A", "userId": "u1"})

	w := request(router, http.MethodGet, eventPath(ev.ID), nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, ev, got)

	assert.Equal(t, http.StatusNotFound, request(router, http.MethodGet, eventPath(ev.ID+1), nil, false).Code)
	assert.Equal(t, http.StatusNotFound, request(router, http.MethodGet, "/api/events/abc", nil, false).Code)
}

func TestUpdateEvent(t *testing.T) {
	router, _ := setupRouter(t)
	ev := create(t, router, map[string]interface{}{
		"eventName": "Meetup", "date": "2024-05-01", "location": "Hall A", "userId": "u1",
		"description": "first", "tags": []string{"go"},
	})

	w := request(router, http.MethodPut, eventPath(ev.ID), map[string]interface{}{"location": "Hall B", "userId": "u1"}, true)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "Event updated", env.Message)
	assert.Equal(t, "Hall B", env.Data.Location)
	assert.Equal(t, []string{"go"}, env.Data.Tags)
	assert.Equal(t, "first", env.Data.Description)

	w = request(router, http.MethodPut, eventPath(ev.ID), map[string]interface{}{
		"description": "", "tags": []string{}, "date": "2024-06-01", "userId": "u1",
		"eventName": "Renamed", "createdAt": "never", "id": 1,
	}, true)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeEnvelope(t, w).Data
	assert.Equal(t, "first", updated.Description)
	assert.Equal(t, []string{"go"}, updated.Tags)
	assert.Equal(t, "2024-06-01", updated.Date)
	assert.Equal(t, "Meetup", updated.EventName)
	assert.Equal(t, ev.ID, updated.ID)
	assert.Equal(t, ev.CreatedAt, updated.CreatedAt)

	events := list(t, router, "")
	require.Len(t, events, 1)
	assert.Equal(t, updated, events[0])
}

func TestUpdateForbiddenAndNotFound(t *testing.T) {
	router, _ := setupRouter(t)
	ev := create(t, router, map[string]interface{}{"eventName": "Meetup", "date": "2024-05-01", "location": "Hall A", "userId": "u1"})

	w := request(router, http.MethodPut, eventPath(ev.ID), map[string]interface{}{"location": "Hall B", "userId": "u2"}, true)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Unauthorized to update this event", decodeEnvelope(t, w).Error)

	w = request(router, http.MethodPut, eventPath(ev.ID), map[string]interface{}{"location": "Hall B"}, true)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(router, http.MethodPut, eventPath(ev.ID+1), map[string]interface{}{"location": "Hall B", "userId": "u1"}, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Event not found", decodeEnvelope(t, w).Error)

	events := list(t, router, "")
	require.Len(t, events, 1)
	assert.Equal(t, "Hall A", events[0].Location)
}

func TestDeleteEvent(t *testing.T) {
	router, _ := setupRouter(t)
	a := create(t, router, map[string]interface{}{"eventName": "A", "date": "2024-05-01", "location": "L", "userId": "u1"})
	b := create(t, router, map[string]interface{}{"eventName": "B", "date": "2024-05-01", "location": "L", "userId": "u1"})
	c := create(t, router, map[string]interface{}{"eventName": "C", "date": "2024-05-01", "location": "L", "userId": "u1"})

	w := request(router, http.MethodDelete, eventPath(a.ID), map[string]interface{}{"userId": "u2"}, true)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Unauthorized to delete this event", decodeEnvelope(t, w).Error)

	w = request(router, http.MethodDelete, eventPath(a.ID), map[string]interface{}{"userId": "u2", "isAdmin": 0}, true)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(router, http.MethodDelete, eventPath(a.ID), nil, true)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(router, http.MethodDelete, eventPath(a.ID), map[string]interface{}{"userId": "u1"}, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Event deleted successfully"}`, w.Body.String())

	w = request(router, http.MethodDelete, eventPath(b.ID), map[string]interface{}{"userId": "u2", "isAdmin": true}, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(router, http.MethodDelete, eventPath(c.ID), map[string]interface{}{"isAdmin": "yes"}, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(router, http.MethodDelete, eventPath(a.ID), map[string]interface{}{"userId": "u1"}, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Empty(t, list(t, router, ""))
}

func TestDeleteKeepsOrderOfRemaining(t *testing.T) {
	router, _ := setupRouter(t)
	create(t, router, map[string]interface{}{"eventName": "A", "date": "d", "location": "L", "userId": "u1"})
	b := create(t, router, map[string]interface{}{"eventName": "B", "date": "d", "location": "L", "userId": "u1"})
	create(t, router, map[string]interface{}{"eventName": "C", "date": "d", "location": "L", "userId": "u1"})

	w := request(router, http.MethodDelete, eventPath(b.ID), map[string]interface{}{"userId": "u1"}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"A", "C"}, names(list(t, router, "")))
}

func TestEndToEndScenario(t *testing.T) {
	router, _ := setupRouter(t)

	ev := create(t, router, map[string]interface{}{"eventName": "Meetup", "date": "2024-05-01", "location": "Hall A", "userId": "u1"})
	assert.NotZero(t, ev.ID)
	assert.NotEmpty(t, ev.CreatedAt)

	found := list(t, router, "?location="+url.QueryEscape("Hall A"))
	require.Len(t, found, 1)
	assert.Equal(t, ev, found[0])

	w := request(router, http.MethodPut, eventPath(ev.ID), map[string]interface{}{"location": "Hall B", "userId": "u1"}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hall B", decodeEnvelope(t, w).Data.Location)

	w = request(router, http.MethodDelete, eventPath(ev.ID), map[string]interface{}{"userId": "u2"}, true)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(router, http.MethodDelete, eventPath(ev.ID), map[string]interface{}{"userId": "u1"}, true)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, list(t, router, ""))
}

func TestAuxiliaryRoutes(t *testing.T) {
	router, _ := setupRouter(t)

	w := request(router, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = request(router, http.MethodGet, "/", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/events")

	request(router, http.MethodGet, "/api/events", nil, false)
	w = request(router, http.MethodGet, "/metrics", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "events_api_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/events", nil)
	req.Header.Set("Origin", "http://example.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", middleware.APIKeyHeader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
