package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"surveypay-settlement-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

const statusSuccess = "success"

// APIError is a non-success answer from the provider. It carries the raw
// response payload so support can diagnose provider-side rejections. A plain
// (non-APIError) error from this package means the call itself failed and is
// a transient, retryable condition.
type APIError struct {
	StatusCode int
	Payload    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error (HTTP %d): %s", e.StatusCode, e.Payload)
}

// Service is the stateless REST client for the payment provider.
type Service struct {
	baseURL   string
	secretKey string
	client    http.Client
}

func NewService(cfg models.GatewayConfig) (*Service, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("gateway secret key is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway base URL is required")
	}

	httpClient, err := createCustomHttpClient(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return &Service{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		client:    httpClient,
	}, nil
}

func createCustomHttpClient(timeout time.Duration) (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// InitializeTransaction starts a hosted-checkout funding transaction and
// returns the checkout URL.
func (s *Service) InitializeTransaction(ctx context.Context, req *models.InitializeRequest) (*models.InitializeResponse, error) {
	var resp models.InitializeResponse
	if err := s.post(ctx, "/transaction/initialize", req, &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusSuccess {
		return nil, s.apiError(resp.Status, resp.Message)
	}
	return &resp, nil
}

// VerifyTransaction re-verifies a transaction's status by reference. The
// caller must check both the envelope status and Data.Status.
func (s *Service) VerifyTransaction(ctx context.Context, reference string) (*models.VerifyResponse, error) {
	var resp models.VerifyResponse
	if err := s.get(ctx, "/transaction/verify/"+url.PathEscape(reference), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Transfer initiates an outbound bank transfer; the request reference acts
// as the provider-facing idempotency key.
func (s *Service) Transfer(ctx context.Context, req *models.TransferRequest) (*models.TransferResponse, error) {
	var resp models.TransferResponse
	if err := s.post(ctx, "/transfers", req, &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusSuccess {
		return &resp, s.apiError(resp.Status, resp.Message)
	}
	return &resp, nil
}

// VerifyTransfer checks an outbound transfer's status by reference.
func (s *Service) VerifyTransfer(ctx context.Context, reference string) (*models.TransferResponse, error) {
	var resp models.TransferResponse
	if err := s.get(ctx, "/transfer/verify-transfers/"+url.PathEscape(reference), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListBanks returns the provider's bank directory.
func (s *Service) ListBanks(ctx context.Context) (*models.BanksResponse, error) {
	var resp models.BanksResponse
	if err := s.get(ctx, "/banks", &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusSuccess {
		return nil, s.apiError(resp.Status, resp.Message)
	}
	return &resp, nil
}

func (s *Service) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, out)
}

func (s *Service) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return s.do(req, out)
}

func (s *Service) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode >= 400 {
		zap.L().Warn("Gateway returned error status",
			zap.String("path", req.URL.Path),
			zap.Int("status_code", resp.StatusCode))
		return &APIError{StatusCode: resp.StatusCode, Payload: string(raw)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Payload: string(raw)}
	}
	return nil
}

func (s *Service) apiError(status, message string) error {
	payload, _ := json.Marshal(map[string]string{"status": status, "message": message})
	return &APIError{StatusCode: http.StatusBadRequest, Payload: string(payload)}
}
