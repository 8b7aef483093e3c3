package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usersvc/internal/auth"
	"usersvc/internal/handler"
	"usersvc/internal/repository"
	"usersvc/internal/service"
)

type testServer struct {
	t *testing.T
	e *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
	jwtService := auth.NewJWTService("test-secret")
	svc := service.NewUserService(
		repository.NewMemoryUserRepository(),
		jwtService,
		auth.PlainHasher{},
		auth.NewTokenStore(nil),
		nil,
	)

	e := echo.New()
	e.Logger.SetOutput(new(strings.Builder))
	Register(e, jwtService, handler.NewUserHandler(svc))
	return &testServer{t: t, e: e}
}

func (s *testServer) do(method, path, body string, headers ...string) (int, []byte) {
	s.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec.Code, rec.Body.Bytes()
}

func (s *testServer) object(method, path, body string, headers ...string) (int, map[string]interface{}) {
	s.t.Helper()
	code, raw := s.do(method, path, body, headers...)
	var out map[string]interface{}
	if len(raw) > 0 {
		require.NoError(s.t, json.Unmarshal(raw, &out), string(raw))
	}
	return code, out
}

func TestRegisterAndDuplicate(t *testing.T) {
	srv := newTestServer(t)

	code, body := srv.object(http.MethodPost, "/users",
		`{"username":"firstname@lastname","name":"Firstname Lastname","password":"x"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "ONLINE", body["status"])
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["creationDate"])
	assert.Equal(t, float64(1), body["id"])

	code, body = srv.object(http.MethodPost, "/users",
		`{"username":"firstname@lastname","name":"Other Name","password":"y"}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "DUPLICATE_FIELD", body["code"])
	assert.Equal(t, []interface{}{"username"}, body["fields"])

	code, body = srv.object(http.MethodPost, "/users",
		`{"username":"someone@else","name":"Firstname Lastname","password":"y"}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []interface{}{"name"}, body["fields"])

	code, body = srv.object(http.MethodPost, "/users",
		`{"username":"firstname@lastname","name":"Firstname Lastname","password":"y"}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []interface{}{"username", "name"}, body["fields"])
	assert.Contains(t, body["error"], "are not unique")
}

func TestListUsers(t *testing.T) {
	srv := newTestServer(t)

	const n = 4
	for i := 0; i < n; i++ {
		code, _ := srv.do(http.MethodPost, "/users",
			fmt.Sprintf(`{"username":"user%d","name":"User %d","password":"pw","birthDay":"0%d.01.1990"}`, i, i, i+1))
		require.Equal(t, http.StatusCreated, code)
	}

	code, raw := srv.do(http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, code)

	var users []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &users))
	require.Len(t, users, n)
	for i, u := range users {
		assert.Equal(t, fmt.Sprintf("user%d", i), u["username"])
		assert.Equal(t, fmt.Sprintf("User %d", i), u["name"])
		assert.Equal(t, "ONLINE", u["status"])
		assert.NotContains(t, u, "token")
	}
}

func TestGetUserByID(t *testing.T) {
	srv := newTestServer(t)

	code, created := srv.object(http.MethodPost, "/users",
		`{"username":"testUsername","name":"Test User","password":"test","birthDay":"24.12.1999"}`)
	require.Equal(t, http.StatusCreated, code)

	code, body := srv.object(http.MethodGet, fmt.Sprintf("/users/%v", created["id"]), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "testUsername", body["username"])
	assert.Equal(t, "Test User", body["name"])
	assert.Equal(t, created["token"], body["token"])
	assert.Equal(t, "24.12.1999", body["birthDay"])

	code, body = srv.object(http.MethodGet, "/users/42", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "USER_NOT_FOUND", body["code"])

	code, _ = srv.do(http.MethodGet, "/users/not-a-number", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLoginLogoutCycle(t *testing.T) {
	srv := newTestServer(t)

	code, created := srv.object(http.MethodPost, "/users",
		`{"username":"botman","name":"gaggi","password":"darkknight"}`)
	require.Equal(t, http.StatusCreated, code)
	token := created["token"].(string)

	code, body := srv.object(http.MethodPut, "/logout", fmt.Sprintf(`{"token":%q}`, token))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OFFLINE", body["status"])
	assert.Equal(t, token, body["token"])

	code, body = srv.object(http.MethodGet, fmt.Sprintf("/users/%v", created["id"]), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OFFLINE", body["status"])

	code, body = srv.object(http.MethodPost, "/login", `{"username":"botman","password":"wrong"}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])

	code, body = srv.object(http.MethodPost, "/login", `{"username":"nobody","password":"darkknight"}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])

	code, body = srv.object(http.MethodPost, "/login", `{"username":"botman","password":"darkknight"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "ONLINE", body["status"])
	assert.Equal(t, token, body["token"])

	code, body = srv.object(http.MethodPut, "/logout", `{"username":"botman","password":"darkknight"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OFFLINE", body["status"])

	code, body = srv.object(http.MethodPut, "/logout", "", echo.HeaderAuthorization, "Bearer "+token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OFFLINE", body["status"])
}

func TestLogoutWithoutSession(t *testing.T) {
	srv := newTestServer(t)

	code, body := srv.object(http.MethodPut, "/logout", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "NOT_LOGGED_IN", body["code"])

	code, body = srv.object(http.MethodPut, "/logout", `{"token":"forged"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "NOT_LOGGED_IN", body["code"])
}

func TestResolveTokenAndMe(t *testing.T) {
	srv := newTestServer(t)

	_, created := srv.object(http.MethodPost, "/users",
		`{"username":"botman","name":"gaggi","password":"darkknight"}`)
	token := created["token"].(string)

	code, body := srv.object(http.MethodPost, "/token", fmt.Sprintf(`{"token":%q}`, token))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "botman", body["username"])

	code, _ = srv.do(http.MethodPost, "/token", `{"token":"unknown"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = srv.object(http.MethodGet, "/me", "", echo.HeaderAuthorization, "Bearer "+token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, created["id"], body["id"])

	code, body = srv.object(http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	forged, err := auth.NewJWTService("other-secret").GenerateToken("botman")
	require.NoError(t, err)
	code, _ = srv.do(http.MethodGet, "/me", "", echo.HeaderAuthorization, "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestEditUser(t *testing.T) {
	srv := newTestServer(t)

	_, owner := srv.object(http.MethodPost, "/users", `{"username":"owner","name":"Owner","password":"pw"}`)
	_, other := srv.object(http.MethodPost, "/users", `{"username":"other","name":"Other","password":"pw"}`)
	ownerToken := owner["token"].(string)
	bearer := "Bearer " + ownerToken

	code, _ := srv.do(http.MethodPut, fmt.Sprintf("/users/%v", owner["id"]),
		`{"username":"owner2","name":"Owner Two","birthDay":"1.1.2000"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, raw := srv.do(http.MethodPut, fmt.Sprintf("/users/%v", owner["id"]),
		`{"username":"owner2","name":"Owner Two","birthDay":"1.1.2000"}`, echo.HeaderAuthorization, bearer)
	require.Equal(t, http.StatusNoContent, code, string(raw))

	_, body := srv.object(http.MethodGet, fmt.Sprintf("/users/%v", owner["id"]), "")
	assert.Equal(t, "owner2", body["username"])
	assert.Equal(t, "Owner Two", body["name"])
	assert.Equal(t, "1.1.2000", body["birthDay"])

	code, body = srv.object(http.MethodPut, fmt.Sprintf("/users/%v", other["id"]),
		`{"username":"hijack","name":"Hijack"}`, echo.HeaderAuthorization, bearer)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", body["code"])

	code, _ = srv.do(http.MethodPut, "/users/99", `{"username":"x","name":"y"}`, echo.HeaderAuthorization, bearer)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	code, raw := srv.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", string(raw))
}
