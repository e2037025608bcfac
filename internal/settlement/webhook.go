package settlement

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/store"

	"go.uber.org/zap"
)

// ServerApproval is the provider webhook entrypoint. The signature is
// recomputed as HMAC-SHA256 over the raw payload bytes with the shared
// secret and compared constant-time; any mismatch is a hard rejection with
// no state change. On a valid signature the referenced payment is settled
// per the payload status; redelivery of a terminal-state transition is an
// idempotent no-op.
func (e *Engine) ServerApproval(ctx context.Context, rawBody []byte, signature string) (*models.WebhookResult, error) {
	if !e.verifySignature(rawBody, signature) {
		zap.L().Warn("Webhook signature mismatch, rejecting")
		return nil, ErrBadSignature
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}
	if payload.Id == "" {
		return nil, ErrMissingReference
	}

	success := payload.Status == "success"
	outcome, err := e.store.SettleFromWebhook(ctx, payload.Id, success)
	if err != nil {
		return nil, err
	}
	switch outcome {
	case store.SettleNotFound:
		// The webhook should only reference transactions we initiated.
		return nil, fmt.Errorf("%w: unknown reference %s", store.ErrPaymentNotFound, payload.Id)
	case store.SettleAlreadyFinal:
		zap.L().Info("Webhook redelivery for settled payment, no-op",
			zap.String("transaction_id", payload.Id))
	}

	return &models.WebhookResult{Status: "approved"}, nil
}

func (e *Engine) verifySignature(rawBody []byte, signature string) bool {
	if e.webhook.Secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(e.webhook.Secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
