// Package client provides the Go SDK for the relief record registry and its
// tamper-evidence API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ReliefRecord is a relief disbursement as returned by the registry.
type ReliefRecord struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	CitizenshipNo string    `json:"citizenship_no"`
	ReliefAmount  int64     `json:"relief_amount"`
	Province      string    `json:"province"`
	District      string    `json:"district"`
	DisasterType  string    `json:"disaster_type"`
	OfficerName   string    `json:"officer_name"`
	OfficerID     string    `json:"officer_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	RecordHash    string    `json:"record_hash"`
	TxSignature   string    `json:"solana_tx_signature"`
}

// CreateRecordRequest is the payload for CreateRecord.
type CreateRecordRequest struct {
	FullName      string `json:"full_name"`
	CitizenshipNo string `json:"citizenship_no"`
	ReliefAmount  int64  `json:"relief_amount"`
	Province      string `json:"province"`
	District      string `json:"district"`
	DisasterType  string `json:"disaster_type"`
	OfficerName   string `json:"officer_name"`
	OfficerID     string `json:"officer_id"`
}

// CreateRecordResult holds the stored record and whether background
// anchoring was queued.
type CreateRecordResult struct {
	Record       *ReliefRecord `json:"record"`
	AnchorQueued bool          `json:"anchor_queued"`
}

// ListFilter narrows ListRecords results. Zero values mean no filtering.
type ListFilter struct {
	Province     string
	District     string
	DisasterType string
	Limit        int
	Offset       int
}

// AnchorReceipt is the outcome of an anchor call.
type AnchorReceipt struct {
	RecordID           string `json:"record_id"`
	RecordHash         string `json:"record_hash"`
	TxSignature        string `json:"solana_tx_signature"`
	ExplorerURL        string `json:"explorer_url"`
	Anchored           bool   `json:"anchored"`
	AlreadyAnchored    bool   `json:"already_anchored,omitempty"`
	PersistenceWarning string `json:"persistence_warning,omitempty"`
}

// BatchOutcome is one record's result within an anchor-all run.
type BatchOutcome struct {
	RecordID    string `json:"id"`
	Status      string `json:"status"`
	TxSignature string `json:"tx_signature,omitempty"`
}

// BatchSummary summarises an anchor-all run.
type BatchSummary struct {
	Total    int            `json:"total"`
	Anchored int            `json:"anchored"`
	Failed   int            `json:"failed"`
	Results  []BatchOutcome `json:"results,omitempty"`
}

// VerificationResult is the tri-state outcome of an on-chain verification.
// Verdict is "verified", "tampered", or "indeterminate".
type VerificationResult struct {
	RecordID    string `json:"record_id"`
	Verdict     string `json:"verdict"`
	Mode        string `json:"mode"`
	CurrentHash string `json:"current_hash"`
	StoredHash  string `json:"stored_hash,omitempty"`
	TxSignature string `json:"solana_tx_signature,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`
	Diagnostic  string `json:"diagnostic,omitempty"`
}

// OfflineCheck is the result of a pure hash comparison.
type OfflineCheck struct {
	RecordID    string `json:"record_id"`
	Match       bool   `json:"match"`
	CurrentHash string `json:"current_hash"`
	StoredHash  string `json:"stored_hash"`
}

// Status reports ledger reachability and wallet health.
type Status struct {
	Reachable       bool    `json:"reachable"`
	Network         string  `json:"network"`
	RPCURL          string  `json:"rpc_url"`
	WalletAddress   string  `json:"wallet_address"`
	BalanceLamports uint64  `json:"balance_lamports"`
	BalanceSOL      float64 `json:"balance_sol"`
	Error           string  `json:"error,omitempty"`
}

// Stats reports anchoring coverage.
type Stats struct {
	TotalRecords    int     `json:"total_records"`
	Anchored        int     `json:"blockchain_anchored"`
	Pending         int     `json:"pending"`
	CoveragePercent float64 `json:"coverage_percent"`
	WalletAddress   string  `json:"wallet_address"`
}

// APIError is a non-2xx response from the registry.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("registry returned %d: %s", e.StatusCode, e.Message)
}

// Client is the SDK entry point.
type Client struct {
	base       string
	httpClient *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a Client connected to base, e.g. "http://localhost:8080".
func New(base string, opts ...Option) *Client {
	c := &Client{
		base:       base,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CreateRecord stores a new relief disbursement record.
func (c *Client) CreateRecord(ctx context.Context, req CreateRecordRequest) (*CreateRecordResult, error) {
	var result CreateRecordResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/records", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRecord retrieves a single record by ID.
func (c *Client) GetRecord(ctx context.Context, id string) (*ReliefRecord, error) {
	var rec ReliefRecord
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/records/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRecords returns records matching the filter, newest first.
func (c *Client) ListRecords(ctx context.Context, f ListFilter) ([]ReliefRecord, error) {
	q := url.Values{}
	if f.Province != "" {
		q.Set("province", f.Province)
	}
	if f.District != "" {
		q.Set("district", f.District)
	}
	if f.DisasterType != "" {
		q.Set("disaster_type", f.DisasterType)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}

	path := "/api/v1/records"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Records []ReliefRecord `json:"records"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// AnchorRecord anchors a single record's fingerprint on the ledger.
// Anchoring an already anchored record returns its existing receipt.
func (c *Client) AnchorRecord(ctx context.Context, id string) (*AnchorReceipt, error) {
	var receipt AnchorReceipt
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/blockchain/anchor/"+url.PathEscape(id), nil, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// AnchorAll anchors every unanchored record and returns the batch summary.
func (c *Client) AnchorAll(ctx context.Context) (*BatchSummary, error) {
	var summary BatchSummary
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/blockchain/anchor-all", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// VerifyRecord performs a full on-chain verification.
func (c *Client) VerifyRecord(ctx context.Context, id string) (*VerificationResult, error) {
	var result VerificationResult
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/blockchain/verify/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifyRecordOffline performs a local hash comparison without a ledger
// round-trip.
func (c *Client) VerifyRecordOffline(ctx context.Context, id string) (*OfflineCheck, error) {
	var check OfflineCheck
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/blockchain/verify/"+url.PathEscape(id)+"/offline", nil, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// GetStatus reports ledger reachability and wallet balance.
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/blockchain/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetStats reports anchoring coverage.
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	var st Stats
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/blockchain/stats", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// doJSON sends a request with an optional JSON body and decodes the JSON
// response into out. Non-2xx responses become *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
