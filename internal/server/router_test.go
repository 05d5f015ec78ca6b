package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"orgauth-backend/internal/auth"
	"orgauth-backend/internal/organization"
	"orgauth-backend/internal/storage/memory"
)

type testServer struct {
	*httptest.Server
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	tokens, err := auth.NewTokenService("e2e-secret")
	require.NoError(t, err)

	creds := auth.NewCredentialManager(auth.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	gateway := auth.NewGateway(store, creds, tokens, nil)

	srv := httptest.NewServer(NewRouter(Deps{
		Logger:  zerolog.Nop(),
		Store:   store,
		Gateway: gateway,
		Guard:   auth.NewGuard(tokens, gateway),
		Orgs:    organization.NewAuthorizer(store, nil),
	}))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, store: store}
}

type response struct {
	Code int
	Body map[string]any
	Raw  string
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{Code: resp.StatusCode, Raw: string(raw)}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out.Body))
	}
	return out
}

func data(t *testing.T, r response) map[string]any {
	t.Helper()
	d, ok := r.Body["data"].(map[string]any)
	require.True(t, ok, r.Raw)
	return d
}

func session(t *testing.T, r response) (token, userID string) {
	t.Helper()
	d := data(t, r)
	user, ok := d["user"].(map[string]any)
	require.True(t, ok, r.Raw)
	return d["accessToken"].(string), user["userId"].(string)
}

var angel = map[string]any{
	"firstname": "Angel",
	"lastname":  "Benita",
	"email":     "angel@example.com",
	"password":  "benita123",
}

func TestSignupLoginFlow(t *testing.T) {
	s := newTestServer(t)

	signup := s.do(t, http.MethodPost, "/auth/signup", "", angel)
	require.Equal(t, http.StatusCreated, signup.Code, signup.Raw)
	require.Equal(t, "Registration successful", signup.Body["message"])
	require.NotContains(t, signup.Raw, "password")
	token, userID := session(t, signup)
	require.NotEmpty(t, token)

	dup := s.do(t, http.MethodPost, "/auth/signup", "", angel)
	require.Equal(t, http.StatusUnprocessableEntity, dup.Code)
	require.Equal(t, "Duplicate email", dup.Body["message"])
	users, orgs, memberships := s.store.Counts()
	require.Equal(t, []int{1, 1, 1}, []int{users, orgs, memberships})

	wrong := s.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "angel@example.com", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	unknown := s.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "ghost@example.com", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, wrong.Body["message"], unknown.Body["message"])

	login := s.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "angel@example.com", "password": "benita123"})
	require.Equal(t, http.StatusOK, login.Code, login.Raw)
	loginToken, loginUserID := session(t, login)
	require.Equal(t, userID, loginUserID)

	me := s.do(t, http.MethodGet, "/auth/me", loginToken, nil)
	require.Equal(t, http.StatusOK, me.Code, me.Raw)
	require.NotContains(t, me.Raw, "argon2id")
	user := data(t, me)["user"].(map[string]any)
	require.Equal(t, userID, user["userId"])
}

func TestGuardedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/auth/me", "/organizations", "/organizations/org-1", "/users/u1"} {
		r := s.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, r.Code, path)
		require.Equal(t, "Authorization header missing or malformed", r.Body["message"])

		r = s.do(t, http.MethodGet, path, "not-a-jwt", nil)
		require.Equal(t, http.StatusUnauthorized, r.Code, path)
		require.Equal(t, "Invalid token", r.Body["message"])
	}
}

func TestOrganizationFlow(t *testing.T) {
	s := newTestServer(t)

	angelToken, angelID := session(t, s.do(t, http.MethodPost, "/auth/signup", "", angel))
	bob := map[string]any{"firstname": "Bob", "lastname": "Builder", "email": "bob@example.com", "password": "pw"}
	bobToken, bobID := session(t, s.do(t, http.MethodPost, "/auth/signup", "", bob))

	list := s.do(t, http.MethodGet, "/organizations", angelToken, nil)
	require.Equal(t, http.StatusOK, list.Code)
	orgList := data(t, list)["organizations"].([]any)
	require.Len(t, orgList, 1)
	angelOrg := orgList[0].(map[string]any)
	require.Equal(t, "Angel's organization", angelOrg["name"])
	angelOrgID := angelOrg["orgId"].(string)

	missing := s.do(t, http.MethodGet, "/organizations/org-404", bobToken, nil)
	require.Equal(t, http.StatusNotFound, missing.Code)
	require.Equal(t, "Organization does not exist", missing.Body["message"])

	forbidden := s.do(t, http.MethodGet, "/organizations/"+angelOrgID, bobToken, nil)
	require.Equal(t, http.StatusForbidden, forbidden.Code)
	require.Equal(t, "You do not belong to this organization", forbidden.Body["message"])

	invalid := s.do(t, http.MethodPost, "/organizations/"+angelOrgID+"/users", angelToken, map[string]any{})
	require.Equal(t, http.StatusUnprocessableEntity, invalid.Code)

	noUser := s.do(t, http.MethodPost, "/organizations/"+angelOrgID+"/users", angelToken, map[string]any{"userId": "ghost"})
	require.Equal(t, http.StatusNotFound, noUser.Code)
	require.Equal(t, "User does not exist", noUser.Body["message"])

	noOrg := s.do(t, http.MethodPost, "/organizations/missing/users", angelToken, map[string]any{"userId": bobID})
	require.Equal(t, http.StatusNotFound, noOrg.Code)
	require.Equal(t, "Organization does not exist", noOrg.Body["message"])

	added := s.do(t, http.MethodPost, "/organizations/"+angelOrgID+"/users", angelToken, map[string]any{"userId": bobID})
	require.Equal(t, http.StatusOK, added.Code, added.Raw)
	require.Equal(t, "User added to organization", added.Body["message"])

	allowed := s.do(t, http.MethodGet, "/organizations/"+angelOrgID, bobToken, nil)
	require.Equal(t, http.StatusOK, allowed.Code)

	created := s.do(t, http.MethodPost, "/organizations", bobToken, map[string]any{"name": "Builders", "description": "we build"})
	require.Equal(t, http.StatusCreated, created.Code, created.Raw)
	require.Equal(t, "Builders", data(t, created)["name"])

	badCreate := s.do(t, http.MethodPost, "/organizations", bobToken, map[string]any{"description": "no name"})
	require.Equal(t, http.StatusUnprocessableEntity, badCreate.Code)

	list = s.do(t, http.MethodGet, "/organizations", bobToken, nil)
	require.Len(t, data(t, list)["organizations"].([]any), 3)

	user := s.do(t, http.MethodGet, "/users/"+angelID, bobToken, nil)
	require.Equal(t, http.StatusOK, user.Code)
	require.Equal(t, "angel@example.com", data(t, user)["email"])
	require.NotContains(t, user.Raw, "argon2id")

	noSuchUser := s.do(t, http.MethodGet, "/users/ghost", bobToken, nil)
	require.Equal(t, http.StatusNotFound, noSuchUser.Code)
	require.Equal(t, "User does not exist", noSuchUser.Body["message"])
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	health := s.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, health.Code)
	require.Equal(t, "ok", health.Body["status"])

	s.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "x@example.com", "password": "y"})
	metrics := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, metrics.Code)
	require.Contains(t, metrics.Raw, "orgauth_http_requests_total")
	require.Contains(t, metrics.Raw, "orgauth_auth_attempts_total")

	doc := s.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, doc.Code)
	require.Contains(t, doc.Raw, "/auth/signup")
}
