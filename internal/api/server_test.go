package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"surveypay-settlement-go/internal/database"
	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/response"
	"surveypay-settlement-go/internal/settlement"
	"surveypay-settlement-go/internal/store"

	"github.com/shopspring/decimal"
)

const testWebhookSecret = "test-webhook-secret"

type okGateway struct{}

func (okGateway) InitializeTransaction(ctx context.Context, req *models.InitializeRequest) (*models.InitializeResponse, error) {
	resp := &models.InitializeResponse{Status: "success"}
	resp.Data.CheckoutURL = "https://checkout.example.com/" + req.TxRef
	return resp, nil
}

func (okGateway) VerifyTransaction(ctx context.Context, reference string) (*models.VerifyResponse, error) {
	resp := &models.VerifyResponse{Status: "success"}
	resp.Data.Status = "success"
	return resp, nil
}

func (okGateway) Transfer(ctx context.Context, req *models.TransferRequest) (*models.TransferResponse, error) {
	return &models.TransferResponse{Status: "success"}, nil
}

func (okGateway) VerifyTransfer(ctx context.Context, reference string) (*models.TransferResponse, error) {
	return &models.TransferResponse{Status: "success"}, nil
}

func (okGateway) ListBanks(ctx context.Context) (*models.BanksResponse, error) {
	return &models.BanksResponse{Status: "success", Data: []models.Bank{{Id: 1, Name: "Test Bank"}}}, nil
}

func setupServer(t *testing.T) (*httptest.Server, *database.Service, func()) {
	t.Helper()

	dbService, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	engine := settlement.NewEngine(dbService, okGateway{}, models.GatewayConfig{
		SecretKey:   "test-key",
		BaseURL:     "https://gateway.example.com",
		CallbackURL: "https://app.example.com/payment/callback",
		ReturnURL:   "https://app.example.com/return",
	}, models.WebhookConfig{Secret: testWebhookSecret})
	responses := response.NewService(dbService)

	server := NewServer(":0", engine, responses)
	ts := httptest.NewServer(server.http.Handler)

	cleanup := func() {
		ts.Close()
		dbService.Close()
	}
	return ts, dbService, cleanup
}

func createUser(t *testing.T, dbService *database.Service, id string) {
	t.Helper()
	_, err := dbService.CreateUser(context.Background(), &models.User{
		Id: id, Name: "Test User", Email: id + "@example.com",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
}

func postJSON(t *testing.T, url, userId string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if userId != "" {
		req.Header.Set(userIdHeader, userId)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func TestFundEndpoint(t *testing.T) {
	ts, dbService, cleanup := setupServer(t)
	defer cleanup()

	createUser(t, dbService, "user1")

	resp := postJSON(t, ts.URL+"/payment/fund", "user1", map[string]string{"amount": "150"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	var result models.FundResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.CheckoutURL == "" {
		t.Error("Expected checkout URL")
	}
}

func TestFundEndpoint_MissingUserHeader(t *testing.T) {
	ts, _, cleanup := setupServer(t)
	defer cleanup()

	resp := postJSON(t, ts.URL+"/payment/fund", "", map[string]string{"amount": "150"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}

func TestWithdrawEndpoint_InsufficientFunds(t *testing.T) {
	ts, dbService, cleanup := setupServer(t)
	defer cleanup()

	createUser(t, dbService, "user1")

	resp := postJSON(t, ts.URL+"/payment/withdraw", "user1", map[string]string{
		"amount":         "50",
		"account_number": "1000123456",
		"bank_code":      "880",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestCallbackEndpoint_SettlesPayment(t *testing.T) {
	ts, dbService, cleanup := setupServer(t)
	defer cleanup()

	ctx := context.Background()
	createUser(t, dbService, "user1")
	payment, err := dbService.CreatePayment(ctx, store.CreatePaymentParams{
		UserId:        "user1",
		Type:          models.PaymentTypeFund,
		Amount:        decimal.NewFromInt(100),
		Currency:      "ETB",
		TransactionId: "ref-cb",
	})
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	resp, err := http.Get(ts.URL + "/payment/callback?trx_ref=" + payment.TransactionId)
	if err != nil {
		t.Fatalf("Callback request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	settled, err := dbService.GetPaymentByReference(ctx, "ref-cb")
	if err != nil {
		t.Fatalf("GetPaymentByReference failed: %v", err)
	}
	if settled.Status != models.PaymentStatusSuccess {
		t.Errorf("Expected settled payment, got %s", settled.Status)
	}
}

func TestCallbackEndpoint_PostBodyReference(t *testing.T) {
	ts, dbService, cleanup := setupServer(t)
	defer cleanup()

	ctx := context.Background()
	createUser(t, dbService, "user1")
	payment, err := dbService.CreatePayment(ctx, store.CreatePaymentParams{
		UserId:        "user1",
		Type:          models.PaymentTypeFund,
		Amount:        decimal.NewFromInt(100),
		Currency:      "ETB",
		TransactionId: "ref-cb-post",
	})
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	// No query parameters; the reference rides in the posted body.
	resp := postJSON(t, ts.URL+"/payment/callback", "",
		map[string]string{"trx_ref": payment.TransactionId})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	settled, err := dbService.GetPaymentByReference(ctx, "ref-cb-post")
	if err != nil {
		t.Fatalf("GetPaymentByReference failed: %v", err)
	}
	if settled.Status != models.PaymentStatusSuccess {
		t.Errorf("Expected settled payment, got %s", settled.Status)
	}
}

func TestServerApprovalEndpoint(t *testing.T) {
	ts, dbService, cleanup := setupServer(t)
	defer cleanup()

	ctx := context.Background()
	createUser(t, dbService, "user1")
	if _, err := dbService.CreatePayment(ctx, store.CreatePaymentParams{
		UserId:        "user1",
		Type:          models.PaymentTypeFund,
		Amount:        decimal.NewFromInt(100),
		Currency:      "ETB",
		TransactionId: "ref-wh",
	}); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	body := []byte(`{"id":"ref-wh","status":"success"}`)
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/payment/server-approval", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set(signatureHeader, signature)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	settled, err := dbService.GetPaymentByReference(ctx, "ref-wh")
	if err != nil {
		t.Fatalf("GetPaymentByReference failed: %v", err)
	}
	if settled.Status != models.PaymentStatusSuccess {
		t.Errorf("Expected settled payment, got %s", settled.Status)
	}
}

func TestServerApprovalEndpoint_BadSignature(t *testing.T) {
	ts, _, cleanup := setupServer(t)
	defer cleanup()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/payment/server-approval",
		bytes.NewReader([]byte(`{"id":"x","status":"success"}`)))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set(signatureHeader, "deadbeef")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}

func TestGetPaymentEndpoint_NotFound(t *testing.T) {
	ts, _, cleanup := setupServer(t)
	defer cleanup()

	resp, err := http.Get(ts.URL + "/payments/no-such-ref")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestSubmitResponseEndpoint(t *testing.T) {
	ts, dbService, cleanup := setupServer(t)
	defer cleanup()

	ctx := context.Background()
	createUser(t, dbService, "creator")
	createUser(t, dbService, "respondent")

	survey, err := dbService.CreateSurvey(ctx, &models.Survey{
		CreatorId:      "creator",
		Title:          "Test Survey",
		Reward:         decimal.NewFromInt(10),
		MaxParticipant: 5,
		Status:         models.SurveyStatusLive,
	}, []models.Question{{Label: "Q1", Type: "text", Order: 1}})
	if err != nil {
		t.Fatalf("CreateSurvey failed: %v", err)
	}
	questions, err := dbService.GetSurveyQuestions(ctx, survey.Id)
	if err != nil {
		t.Fatalf("GetSurveyQuestions failed: %v", err)
	}

	payload := map[string]any{
		"surveyId": survey.Id,
		"answers":  []map[string]string{{"questionId": questions[0].Id, "answer": "yes"}},
	}

	resp := postJSON(t, ts.URL+"/responses", "respondent", payload)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	// The same respondent submitting again conflicts.
	resp2 := postJSON(t, ts.URL+"/responses", "respondent", payload)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409, got %d", resp2.StatusCode)
	}
}

func TestSurveyAnswersEndpoint(t *testing.T) {
	ts, dbService, cleanup := setupServer(t)
	defer cleanup()

	ctx := context.Background()
	createUser(t, dbService, "creator")
	survey, err := dbService.CreateSurvey(ctx, &models.Survey{
		CreatorId:      "creator",
		Title:          "Test Survey",
		Reward:         decimal.NewFromInt(1),
		MaxParticipant: 5,
		Status:         models.SurveyStatusLive,
	}, []models.Question{{Label: "Q1", Type: "text", Order: 1}})
	if err != nil {
		t.Fatalf("CreateSurvey failed: %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("%s/surveys/%s/answers?page=1&limit=5", ts.URL, survey.Id))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var answers models.SurveyAnswers
	if err := json.NewDecoder(resp.Body).Decode(&answers); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(answers.Questions) != 1 {
		t.Errorf("Expected 1 question, got %d", len(answers.Questions))
	}
}
