package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/spamid-be/internal/config"
	"github.com/hongminglow/spamid-be/internal/storage/memory"
)

type envelope struct {
	Code    int             `json:"code"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

type searchRow struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	SpamReports int    `json:"spam_reports"`
}

type profile struct {
	Name        string  `json:"name"`
	PhoneNumber string  `json:"phone_number"`
	Email       *string `json:"email"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		JWTSecret:        "test-secret",
		JWTIssuer:        "spamid-test",
		JWTTTL:           time.Hour,
		CORSOrigins:      []string{"*"},
		BcryptCost:       bcrypt.MinCost,
		SearchMaxResults: 50,
	}
	ts := httptest.NewServer(NewHandler(cfg, Deps{Store: memory.New()}))
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, method, target, token string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func registerAndLogin(t *testing.T, baseURL, phone, name string) string {
	t.Helper()
	status, env := call(t, http.MethodPost, baseURL+"/register", "", map[string]string{
		"phone_number": phone,
		"name":         name,
		"email":        name + "@example.com",
		"password":     "password-123",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = call(t, http.MethodPost, baseURL+"/login", "", map[string]string{
		"phone_number": phone,
		"password":     "password-123",
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestRegistryFlow(t *testing.T) {
	ts := newTestServer(t)
	alice := registerAndLogin(t, ts.URL, "+15559000", "Alice")
	bob := registerAndLogin(t, ts.URL, "+15559001", "Bob")

	status, env := call(t, http.MethodPost, ts.URL+"/contacts", bob, map[string]string{"phone_number": "+15559000", "name": "Ally"})
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = call(t, http.MethodPost, ts.URL+"/contacts", bob, map[string]string{"phone_number": "+15559000", "name": "Al"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DuplicateContact", env.Kind)

	status, env = call(t, http.MethodGet, ts.URL+"/contacts", bob, nil)
	require.Equal(t, http.StatusOK, status)
	contacts := decode[page[searchRow]](t, env.Data)
	require.Len(t, contacts.Results, 1)
	assert.Equal(t, "Ally", contacts.Results[0].Name)

	status, env = call(t, http.MethodGet, ts.URL+"/search?search_by=name&name=All", alice, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	rows := decode[page[searchRow]](t, env.Data)
	require.Len(t, rows.Results, 1)
	assert.Equal(t, "Ally", rows.Results[0].Name)
	assert.Equal(t, "+15559000", rows.Results[0].PhoneNumber)

	// Bob saved Alice, so Alice's profile hides her email from Bob, while Bob's
	// profile shows his email to Alice.
	status, env = call(t, http.MethodGet, ts.URL+"/profile?phone_number="+url.QueryEscape("+15559000"), bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, decode[profile](t, env.Data).Email)

	status, env = call(t, http.MethodGet, ts.URL+"/profile?phone_number="+url.QueryEscape("+15559001"), alice, nil)
	require.Equal(t, http.StatusOK, status)
	got := decode[profile](t, env.Data)
	require.NotNil(t, got.Email)
	assert.Equal(t, "Bob@example.com", *got.Email)

	status, env = call(t, http.MethodGet, ts.URL+"/profile?phone_number="+url.QueryEscape("+15559099"), alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NotFound", env.Kind)
}

func TestSpamFlow(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts.URL, "+15559100", "Rita")

	status, env := call(t, http.MethodPost, ts.URL+"/spam", token, map[string]string{"phone_number": "+15559100"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "SelfReport", env.Kind)

	status, _ = call(t, http.MethodPost, ts.URL+"/spam", token, map[string]string{"phone_number": "+15559101"})
	require.Equal(t, http.StatusCreated, status)

	status, env = call(t, http.MethodPost, ts.URL+"/spam", token, map[string]string{"phone_number": "+15559101"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DuplicateReport", env.Kind)

	status, env = call(t, http.MethodGet, ts.URL+"/search?search_by=phone_number&phone_number="+url.QueryEscape("+15559101"), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[page[searchRow]](t, env.Data).Results)

	// The spam placeholder registers later and keeps its reports.
	other := registerAndLogin(t, ts.URL, "+15559101", "Sid")
	status, env = call(t, http.MethodGet, ts.URL+"/search?search_by=phone_number&phone_number="+url.QueryEscape("+15559101"), other, nil)
	require.Equal(t, http.StatusOK, status)
	rows := decode[page[searchRow]](t, env.Data).Results
	require.Len(t, rows, 1)
	assert.Equal(t, "Sid", rows[0].Name)
	assert.Equal(t, 1, rows[0].SpamReports)
}

func TestRegisterConflictAndAuth(t *testing.T) {
	ts := newTestServer(t)
	registerAndLogin(t, ts.URL, "+15559200", "Uma")

	status, env := call(t, http.MethodPost, ts.URL+"/register", "", map[string]string{
		"phone_number": "+15559200",
		"name":         "Impostor",
		"password":     "password-456",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "IdentityConflict", env.Kind)

	status, env = call(t, http.MethodPost, ts.URL+"/login", "", map[string]string{
		"phone_number": "+15559200",
		"password":     "password-456",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "InvalidCredentials", env.Kind)

	status, _ = call(t, http.MethodGet, ts.URL+"/contacts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, http.MethodGet, ts.URL+"/contacts", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSearchValidationAndPaging(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts.URL, "+15559300", "Owner")
	for i, alias := range []string{"Kate", "Kathy", "Katrina"} {
		status, _ := call(t, http.MethodPost, ts.URL+"/contacts", token, map[string]string{
			"phone_number": fmt.Sprintf("+1555931%d", i),
			"name":         alias,
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, env := call(t, http.MethodGet, ts.URL+"/search?search_by=name&name=ka", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ValidationError", env.Kind)

	status, _ = call(t, http.MethodGet, ts.URL+"/search?search_by=email", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = call(t, http.MethodGet, ts.URL+"/search?search_by=name&name=kat&limit=1&offset=1", token, nil)
	require.Equal(t, http.StatusOK, status)
	p := decode[page[searchRow]](t, env.Data)
	assert.Equal(t, 3, p.Count)
	require.Len(t, p.Results, 1)
	assert.Equal(t, "Kathy", p.Results[0].Name)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	status, env := call(t, http.MethodGet, ts.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", env.Message)
}

func TestCreatedEdgesEchoStoredNumber(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts.URL, "+15559300", "Nora")

	status, env := call(t, http.MethodPost, ts.URL+"/contacts", token, map[string]string{"phone_number": "  +15559301 ", "name": "Plumber"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	assert.Equal(t, "+15559301", decode[searchRow](t, env.Data).PhoneNumber)

	status, env = call(t, http.MethodPost, ts.URL+"/spam", token, map[string]string{"phone_number": "\t+15559302 "})
	require.Equal(t, http.StatusCreated, status, env.Message)
	assert.Equal(t, "+15559302", decode[searchRow](t, env.Data).PhoneNumber)

	status, env = call(t, http.MethodGet, ts.URL+"/contacts", token, nil)
	require.Equal(t, http.StatusOK, status)
	contacts := decode[page[searchRow]](t, env.Data)
	require.Len(t, contacts.Results, 1)
	assert.Equal(t, "+15559301", contacts.Results[0].PhoneNumber)
}
