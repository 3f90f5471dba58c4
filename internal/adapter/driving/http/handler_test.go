package httphandler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/passvault/internal/adapter/driven/vaultcipher"
	httphandler "github.com/ericfisherdev/passvault/internal/adapter/driving/http"
	"github.com/ericfisherdev/passvault/internal/application"
	"github.com/ericfisherdev/passvault/internal/domain/model"
	"github.com/ericfisherdev/passvault/internal/domain/port/driven"
)

const principalHeader = "X-Authenticated-Principal"

var testTime = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

// --- Mock implementations ---

type mockAccountStore struct {
	accounts map[string]model.Account
	err      error
}

func (m *mockAccountStore) FindOrCreate(_ context.Context, principal string) (model.Account, error) {
	if m.err != nil {
		return model.Account{}, m.err
	}
	if a, ok := m.accounts[principal]; ok {
		return a, nil
	}
	a := model.Account{ID: int64(len(m.accounts) + 1), Principal: principal}
	m.accounts[principal] = a
	return a, nil
}

func (m *mockAccountStore) Find(_ context.Context, principal string) (*model.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.accounts[principal]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

type mockRecordStore struct {
	records []model.CredentialRecord
	err     error
}

func (m *mockRecordStore) Create(_ context.Context, rec model.CredentialRecord) (model.CredentialRecord, error) {
	if m.err != nil {
		return model.CredentialRecord{}, m.err
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = testTime
	rec.UpdatedAt = testTime
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *mockRecordStore) ListByAccount(_ context.Context, accountID int64) ([]model.CredentialRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.CredentialRecord
	for _, r := range m.records {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRecordStore) GetOwned(_ context.Context, accountID int64, id string) (*model.CredentialRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.records {
		if r.ID == id && r.AccountID == accountID {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("credential %s: %w", id, model.ErrNotFound)
}

func (m *mockRecordStore) DeleteOwned(_ context.Context, accountID int64, id string) error {
	for i, r := range m.records {
		if r.ID == id && r.AccountID == accountID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("credential %s: %w", id, model.ErrNotFound)
}

type mockHealthChecker struct {
	err error
}

func (m mockHealthChecker) Ping(_ context.Context) error { return m.err }

// --- Setup helpers ---

type testServer struct {
	mux      http.Handler
	accounts *mockAccountStore
	records  *mockRecordStore
}

func newTestCipher(t *testing.T) *vaultcipher.Cipher {
	t.Helper()
	key := bytes.Repeat([]byte{0x42}, vaultcipher.KeySize)
	c, err := vaultcipher.New(key)
	require.NoError(t, err)
	return c
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	return setupServerWithHealth(t, mockHealthChecker{})
}

func setupServerWithHealth(t *testing.T, checker driven.HealthChecker) *testServer {
	t.Helper()

	ts := &testServer{
		accounts: &mockAccountStore{accounts: make(map[string]model.Account)},
		records:  &mockRecordStore{},
	}
	creds := application.NewCredentialService(ts.accounts, ts.records, newTestCipher(t), application.NewPasswordGenerator(), slog.Default())
	health := application.NewHealthService(map[string]driven.HealthChecker{"database": checker}, slog.Default())
	h := httphandler.NewHandler(creds, health, slog.Default())
	ts.mux = httphandler.NewServeMux(h, slog.Default(), httphandler.Options{
		ClientOrigin:    "http://localhost:3000",
		PrincipalHeader: principalHeader,
	})
	return ts
}

func (ts *testServer) do(method, path, principal, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if principal != "" {
		r.Header.Set(principalHeader, principal)
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, r)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	err := json.NewDecoder(rec.Body).Decode(v)
	require.NoError(t, err)
}

func savePassword(t *testing.T, ts *testServer, principal, label, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"label":%q,"password":%q}`, label, password)
	rec := ts.do(http.MethodPost, "/api/v1/passwords", principal, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	decodeJSON(t, rec, &resp)
	id, ok := resp["id"].(string)
	require.True(t, ok)
	return id
}

// --- Tests ---

func TestRoot(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(http.MethodGet, "/", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password Generator API is running!", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestUnknownPath(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checker    mockHealthChecker
		wantStatus int
		wantBody   string
	}{
		{name: "healthy", checker: mockHealthChecker{}, wantStatus: http.StatusOK, wantBody: "ok"},
		{name: "database down", checker: mockHealthChecker{err: errors.New("sql: database is closed")}, wantStatus: http.StatusServiceUnavailable, wantBody: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupServerWithHealth(t, tt.checker)

			rec := ts.do(http.MethodGet, "/api/v1/health", "", "")
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp map[string]any
			decodeJSON(t, rec, &resp)
			assert.Equal(t, tt.wantBody, resp["status"])
			assert.NotEmpty(t, resp["time"])
			assert.NotContains(t, rec.Body.String(), "sql:")
		})
	}
}

func TestPasswordRoutes_RequirePrincipal(t *testing.T) {
	ts := setupServer(t)

	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/v1/passwords/generate", `{}`},
		{http.MethodPost, "/api/v1/passwords", `{"label":"GitHub","password":"pw"}`},
		{http.MethodGet, "/api/v1/passwords", ""},
		{http.MethodGet, "/api/v1/passwords/" + uuid.NewString(), ""},
		{http.MethodDelete, "/api/v1/passwords/" + uuid.NewString(), ""},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := ts.do(rt.method, rt.path, "", rt.body)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var resp map[string]any
			decodeJSON(t, rec, &resp)
			assert.Equal(t, "invalid token", resp["error"])
		})
	}

	assert.Empty(t, ts.records.records)
	assert.Empty(t, ts.accounts.accounts)
}

func TestGeneratePassword(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantRegexp string
	}{
		{name: "defaults", body: `{}`, wantStatus: http.StatusOK, wantRegexp: `^.{12}$`},
		{name: "digits only", body: `{"length":8,"include_uppercase":false,"include_lowercase":false,"include_symbols":false}`, wantStatus: http.StatusOK, wantRegexp: `^[0-9]{8}$`},
		{name: "lower only long", body: `{"length":64,"include_uppercase":false,"include_numbers":false,"include_symbols":false}`, wantStatus: http.StatusOK, wantRegexp: `^[a-z]{64}$`},
		{name: "no classes", body: `{"include_uppercase":false,"include_lowercase":false,"include_numbers":false,"include_symbols":false}`, wantStatus: http.StatusBadRequest},
		{name: "zero length", body: `{"length":0}`, wantStatus: http.StatusBadRequest},
		{name: "too long", body: `{"length":4097}`, wantStatus: http.StatusBadRequest},
		{name: "malformed", body: `{"length":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupServer(t)

			rec := ts.do(http.MethodPost, "/api/v1/passwords/generate", "u1", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp map[string]any
			decodeJSON(t, rec, &resp)
			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, resp["error"])
				return
			}
			pw, ok := resp["password"].(string)
			require.True(t, ok)
			assert.Regexp(t, tt.wantRegexp, pw)
		})
	}
}

func TestSavePassword(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(http.MethodPost, "/api/v1/passwords", "u1", `{"label":"GitHub","password":"Tr0ub4dor&3"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Tr0ub4dor&3")

	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "GitHub", resp["label"])
	assert.Equal(t, "2026-02-10T12:00:00Z", resp["created_at"])
	_, err := uuid.Parse(resp["id"].(string))
	assert.NoError(t, err)
	assert.NotContains(t, resp, "ciphertext")
	assert.NotContains(t, resp, "iv")

	require.Len(t, ts.records.records, 1)
	assert.NotContains(t, ts.records.records[0].Ciphertext, "Tr0ub4dor&3")
}

func TestSavePassword_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing label", body: `{"password":"pw"}`, want: http.StatusBadRequest},
		{name: "blank label", body: `{"label":"  ","password":"pw"}`, want: http.StatusBadRequest},
		{name: "missing password", body: `{"label":"GitHub"}`, want: http.StatusBadRequest},
		{name: "not json", body: `label=GitHub`, want: http.StatusBadRequest},
		{name: "too large", body: `{"label":"x","password":"` + strings.Repeat("a", 70<<10) + `"}`, want: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupServer(t)

			rec := ts.do(http.MethodPost, "/api/v1/passwords", "u1", tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.Empty(t, ts.records.records)
		})
	}
}

func TestSavePassword_StoreFailure(t *testing.T) {
	ts := setupServer(t)
	ts.records.err = errors.New("database is locked")

	rec := ts.do(http.MethodPost, "/api/v1/passwords", "u1", `{"label":"GitHub","password":"pw"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "internal server error", resp["error"])
}

func TestListPasswords(t *testing.T) {
	ts := setupServer(t)
	id := savePassword(t, ts, "u1", "GitHub", "Tr0ub4dor&3")
	savePassword(t, ts, "u2", "Bank", "other")

	rec := ts.do(http.MethodGet, "/api/v1/passwords", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []map[string]any
	decodeJSON(t, rec, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, id, resp[0]["id"])
	assert.Equal(t, "GitHub", resp[0]["label"])
	assert.Equal(t, "Tr0ub4dor&3", resp[0]["password"])
	assert.Equal(t, false, resp[0]["decryption_error"])
	assert.NotContains(t, resp[0], "error")
}

func TestListPasswords_UnknownPrincipalIsEmptyArray(t *testing.T) {
	ts := setupServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/passwords", "stranger", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListPasswords_DecryptionFailureIsolated(t *testing.T) {
	ts := setupServer(t)
	savePassword(t, ts, "u1", "Broken", "first")
	savePassword(t, ts, "u1", "Fine", "second")

	// Flip one hex digit of the stored ciphertext.
	ct := []byte(ts.records.records[0].Ciphertext)
	if ct[0] == '0' {
		ct[0] = '1'
	} else {
		ct[0] = '0'
	}
	ts.records.records[0].Ciphertext = string(ct)

	rec := ts.do(http.MethodGet, "/api/v1/passwords", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []map[string]any
	decodeJSON(t, rec, &resp)
	require.Len(t, resp, 2)

	assert.Equal(t, "Broken", resp[0]["label"])
	assert.Nil(t, resp[0]["password"])
	assert.Equal(t, true, resp[0]["decryption_error"])
	assert.Equal(t, "[Decryption Error]", resp[0]["error"])

	assert.Equal(t, "Fine", resp[1]["label"])
	assert.Equal(t, "second", resp[1]["password"])
}

func TestGetPassword(t *testing.T) {
	ts := setupServer(t)
	id := savePassword(t, ts, "u1", "GitHub", "Tr0ub4dor&3")
	savePassword(t, ts, "u2", "Bank", "other")

	rec := ts.do(http.MethodGet, "/api/v1/passwords/"+id, "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, id, resp["id"])
	assert.Equal(t, "GitHub", resp["label"])
	assert.Equal(t, "Tr0ub4dor&3", resp["password"])
	assert.Equal(t, false, resp["decryption_error"])

	for _, tt := range []struct {
		name      string
		principal string
		id        string
	}{
		{name: "foreign record", principal: "u2", id: id},
		{name: "unknown principal", principal: "ghost", id: id},
		{name: "unknown id", principal: "u1", id: uuid.NewString()},
		{name: "malformed id", principal: "u1", id: "not-a-uuid"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/api/v1/passwords/"+tt.id, tt.principal, "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.NotContains(t, rec.Body.String(), "Tr0ub4dor&3")
		})
	}
}

func TestDeletePassword(t *testing.T) {
	ts := setupServer(t)
	id := savePassword(t, ts, "u1", "GitHub", "pw")

	rec := ts.do(http.MethodDelete, "/api/v1/passwords/"+id, "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "Password removed", resp["message"])
	assert.Empty(t, ts.records.records)
}

func TestDeletePassword_NotFound(t *testing.T) {
	ts := setupServer(t)
	id := savePassword(t, ts, "u1", "GitHub", "pw")
	savePassword(t, ts, "u2", "Bank", "pw")

	tests := []struct {
		name      string
		principal string
		id        string
	}{
		{name: "foreign record", principal: "u2", id: id},
		{name: "unknown principal", principal: "ghost", id: id},
		{name: "unknown id", principal: "u1", id: uuid.NewString()},
		{name: "malformed id", principal: "u1", id: "not-a-uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodDelete, "/api/v1/passwords/"+tt.id, tt.principal, "")
			assert.Equal(t, http.StatusNotFound, rec.Code)

			var resp map[string]any
			decodeJSON(t, rec, &resp)
			assert.Equal(t, "password not found", resp["error"])
		})
	}

	assert.Len(t, ts.records.records, 2)
}

func TestCORS(t *testing.T) {
	ts := setupServer(t)

	t.Run("preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/api/v1/passwords", nil)
		r.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		ts.mux.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, PUT, DELETE", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("simple request", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/", "", "")
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
