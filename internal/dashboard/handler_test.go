package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wmsopt/backend/internal/middleware"
	"github.com/wmsopt/backend/internal/models"
	"github.com/wmsopt/backend/internal/services"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type stubAuth struct {
	account *models.Account
}

func (s *stubAuth) Register(context.Context, string, string, string, string) (*models.Account, error) {
	return nil, errors.New("not used")
}
func (s *stubAuth) Login(context.Context, string, string) (string, error) { return "", errors.New("not used") }
func (s *stubAuth) ValidateToken(_ context.Context, token string) (uuid.UUID, string, error) {
	if token != "good" {
		return uuid.Nil, "", errors.New("invalid token")
	}
	return s.account.ID, s.account.Role, nil
}
func (s *stubAuth) Account(_ context.Context, id uuid.UUID) (*models.Account, error) {
	if id == s.account.ID {
		return s.account, nil
	}
	return nil, nil
}

type memKeys struct {
	keys []*models.APIKey
}

func (m *memKeys) Create(_ context.Context, k *models.APIKey) error {
	m.keys = append(m.keys, k)
	return nil
}

func (m *memKeys) Deactivate(_ context.Context, accountID, id uuid.UUID) error {
	for _, k := range m.keys {
		if k.ID == id && k.AccountID == accountID {
			k.IsActive = false
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memKeys) ListByAccountID(_ context.Context, accountID uuid.UUID) ([]*models.APIKey, error) {
	out := []*models.APIKey{}
	for _, k := range m.keys {
		if k.AccountID == accountID {
			out = append(out, k)
		}
	}
	return out, nil
}

type stubSummary struct{}

func (stubSummary) Summary(context.Context) (*services.Summary, error) {
	return &services.Summary{Tasks: 5, Workers: 3, Assignments: map[string]int{"PENDING": 2}}, nil
}

func newTestHandler() (*Handler, *memKeys, *models.Account) {
	acc := &models.Account{ID: uuid.New(), Email: "lead@dc.example", DisplayName: "Lead", Role: models.RoleSupervisor}
	keys := &memKeys{}
	return NewHandler(&stubAuth{account: acc}, keys, stubSummary{}, nil), keys, acc
}

func authed(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer good")
	return req
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestGetMe(t *testing.T) {
	h, _, acc := newTestHandler()

	rec := httptest.NewRecorder()
	h.GetMe(rec, authed(http.MethodGet, "/api/account/me"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["email"] != acc.Email || body["role"] != models.RoleSupervisor {
		t.Errorf("unexpected body %v", body)
	}

	rec = httptest.NewRecorder()
	h.GetMe(rec, httptest.NewRequest(http.MethodGet, "/api/account/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	h, keys, acc := newTestHandler()

	rec := httptest.NewRecorder()
	h.CreateAPIKey(rec, authed(http.MethodPost, "/api/api-keys"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
	var created struct {
		ID     uuid.UUID `json:"id"`
		Prefix string    `json:"key_prefix"`
		RawKey string    `json:"raw_key"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(created.RawKey, "wms_") || !strings.HasPrefix(created.RawKey, created.Prefix) {
		t.Errorf("unexpected key %q / prefix %q", created.RawKey, created.Prefix)
	}
	if len(keys.keys) != 1 || keys.keys[0].KeyHash != middleware.HashKey(created.RawKey) {
		t.Fatal("stored key must be the hash of the raw key")
	}
	if keys.keys[0].AccountID != acc.ID {
		t.Error("key must belong to the caller")
	}

	rec = httptest.NewRecorder()
	h.ListAPIKeys(rec, authed(http.MethodGet, "/api/api-keys"))
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), created.RawKey) {
		t.Errorf("list: expected 200 without raw key, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.DeleteAPIKey(rec, authed(http.MethodDelete, "/api/api-keys/"+created.ID.String()))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	if keys.keys[0].IsActive {
		t.Error("key should be deactivated")
	}

	rec = httptest.NewRecorder()
	h.DeleteAPIKey(rec, authed(http.MethodDelete, "/api/api-keys/"+uuid.NewString()))
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete unknown: expected 404, got %d", rec.Code)
	}
}

func TestSummary(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := httptest.NewRecorder()
	h.Summary(rec, authed(http.MethodGet, "/api/analytics/summary"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"PENDING":2`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
