package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamrosuraksha/reliefchain/internal/anchor"
	"github.com/hamrosuraksha/reliefchain/internal/api"
	"github.com/hamrosuraksha/reliefchain/internal/ledger"
	"github.com/hamrosuraksha/reliefchain/internal/record"
	"go.uber.org/zap"
)

// stubLedger implements ledger.Client for handler tests.
type stubLedger struct {
	mu      sync.Mutex
	submits int

	balanceFn func(ctx context.Context) (uint64, error)
	lookupFn  func(ctx context.Context, txRef string) (*ledger.MemoLookup, error)
}

func (s *stubLedger) Balance(ctx context.Context) (uint64, error) {
	if s.balanceFn != nil {
		return s.balanceFn(ctx)
	}
	return 2_000_000_000, nil
}

func (s *stubLedger) SubmitMemo(context.Context, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submits++
	return fmt.Sprintf("sig-%d", s.submits), nil
}

func (s *stubLedger) LookupMemo(ctx context.Context, txRef string) (*ledger.MemoLookup, error) {
	if s.lookupFn != nil {
		return s.lookupFn(ctx, txRef)
	}
	return &ledger.MemoLookup{Found: true, Decoded: false}, nil
}

type testEnv struct {
	router *gin.Engine
	store  *record.MemoryStore
	svc    *anchor.Service
}

func setupRouter(t *testing.T, client ledger.Client) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := record.NewMemoryStore()
	svc := anchor.NewService(store, client, anchor.Info{
		Network:       "devnet",
		RPCURL:        "http://localhost:8899",
		WalletAddress: "TestWa11etAddre55",
	}, zap.NewNop())

	r := gin.New()
	v1 := r.Group("/api/v1")
	api.NewBlockchainHandler(svc, zap.NewNop()).Register(v1)
	api.NewRecordHandler(store, nil, zap.NewNop()).Register(v1)

	return &testEnv{router: r, store: store, svc: svc}
}

func seedStoreRecord(t *testing.T, store *record.MemoryStore) *record.ReliefRecord {
	t.Helper()
	rec := &record.ReliefRecord{
		FullName:      "Maya Tamang",
		CitizenshipNo: "98-76-54-32109",
		ReliefAmount:  25000,
		Province:      "bagmati",
		District:      "Sindhupalchok",
		DisasterType:  "Earthquake",
		OfficerName:   "Bina Shrestha",
		OfficerID:     "OFF-7",
		CreatedAt:     time.Now().UTC(),
	}
	if err := store.Create(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestStatus_200(t *testing.T) {
	env := setupRouter(t, &stubLedger{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/blockchain/status", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["reachable"] != true {
		t.Errorf("expected reachable=true, got %v", resp["reachable"])
	}
	if resp["balance_sol"].(float64) != 2.0 {
		t.Errorf("expected balance_sol=2.0, got %v", resp["balance_sol"])
	}
}

func TestStatus_200_unreachable(t *testing.T) {
	env := setupRouter(t, &stubLedger{
		balanceFn: func(context.Context) (uint64, error) {
			return 0, errors.New("dial tcp: connection refused")
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/blockchain/status", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	// Unreachable network is still a 200 with reachable=false.
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["reachable"] != false {
		t.Errorf("expected reachable=false, got %v", resp["reachable"])
	}
	if msg, _ := resp["error"].(string); msg == "" {
		t.Error("expected error message in status body")
	}
}

func TestAnchor_201(t *testing.T) {
	env := setupRouter(t, &stubLedger{})
	rec := seedStoreRecord(t, env.store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/blockchain/anchor/"+rec.ID.String(), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["solana_tx_signature"] != "sig-1" {
		t.Errorf("unexpected tx signature: %v", resp["solana_tx_signature"])
	}
}

func TestAnchor_200_alreadyAnchored(t *testing.T) {
	env := setupRouter(t, &stubLedger{})
	rec := seedStoreRecord(t, env.store)

	first := httptest.NewRequest(http.MethodPost, "/api/v1/blockchain/anchor/"+rec.ID.String(), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, first)
	if w.Code != http.StatusCreated {
		t.Fatalf("first anchor: expected 201, got %d", w.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/blockchain/anchor/"+rec.ID.String(), nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, second)

	if w.Code != http.StatusOK {
		t.Fatalf("re-anchor: expected 200, got %d", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["already_anchored"] != true {
		t.Errorf("expected already_anchored=true, got %v", resp["already_anchored"])
	}
}

func TestAnchor_404(t *testing.T) {
	env := setupRouter(t, &stubLedger{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/blockchain/anchor/6a6c9e9e-7b9a-4d0a-9a7e-1f2d3c4b5a69", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAnchor_400_invalidID(t *testing.T) {
	env := setupRouter(t, &stubLedger{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/blockchain/anchor/not-a-uuid", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAnchorAll_200(t *testing.T) {
	env := setupRouter(t, &stubLedger{})
	seedStoreRecord(t, env.store)
	seedStoreRecord(t, env.store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/blockchain/anchor-all", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if int(resp["total"].(float64)) != 2 || int(resp["anchored"].(float64)) != 2 {
		t.Errorf("unexpected summary: %v", resp)
	}
}

func TestVerify_200_verified(t *testing.T) {
	env := setupRouter(t, &stubLedger{})
	rec := seedStoreRecord(t, env.store)

	if _, err := env.svc.Anchor(context.Background(), rec.ID); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/blockchain/verify/"+rec.ID.String(), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["verdict"] != "verified" {
		t.Errorf("expected verified, got %v (%v)", resp["verdict"], resp["diagnostic"])
	}
}

func TestVerify_200_indeterminateWhenUnanchored(t *testing.T) {
	env := setupRouter(t, &stubLedger{})
	rec := seedStoreRecord(t, env.store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/blockchain/verify/"+rec.ID.String(), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["verdict"] != "indeterminate" {
		t.Errorf("expected indeterminate, got %v", resp["verdict"])
	}
}

func TestVerifyOffline_200(t *testing.T) {
	env := setupRouter(t, &stubLedger{})
	rec := seedStoreRecord(t, env.store)

	if _, err := env.svc.Anchor(context.Background(), rec.ID); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/blockchain/verify/"+rec.ID.String()+"/offline", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["match"] != true {
		t.Errorf("expected match=true, got %v", resp["match"])
	}
}

func TestStats_200(t *testing.T) {
	env := setupRouter(t, &stubLedger{})
	rec := seedStoreRecord(t, env.store)
	seedStoreRecord(t, env.store)

	if _, err := env.svc.Anchor(context.Background(), rec.ID); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/blockchain/stats", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if int(resp["total_records"].(float64)) != 2 {
		t.Errorf("expected 2 records, got %v", resp["total_records"])
	}
	if int(resp["blockchain_anchored"].(float64)) != 1 {
		t.Errorf("expected 1 anchored, got %v", resp["blockchain_anchored"])
	}
}
