package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/logger"

	"go.uber.org/zap"
)

type hostedGateway struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	httpClient    *http.Client

	successURL string
	failureURL string
	cancelURL  string
}

type HostedGatewayConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	SuccessURL    string
	FailureURL    string
	CancelURL     string
}

func NewHostedGateway(cfg HostedGatewayConfig) Gateway {
	if cfg.APIKey == "" {
		logger.L().Warn("payment gateway API key is empty")
	}

	return &hostedGateway{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		webhookSecret: cfg.WebhookSecret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		successURL: cfg.SuccessURL,
		failureURL: cfg.FailureURL,
		cancelURL:  cfg.CancelURL,
	}
}

type createSessionResponse struct {
	ID          string    `json:"id"`
	RedirectURL string    `json:"redirect_url"`
	Status      string    `json:"status"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (g *hostedGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("reference_id", req.ReferenceID),
		zap.Int64("amount", req.Amount),
		zap.String("currency", req.Currency),
	)

	body := map[string]any{
		"reference_id": req.ReferenceID,
		"amount":       req.Amount,
		"currency":     req.Currency,
		"items":        req.Items,
		"customer": map[string]any{
			"email": req.CustomerEmail,
		},
		"success_return_url": g.successURL,
		"failure_return_url": g.failureURL,
		"cancel_return_url":  g.cancelURL,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error("failed to marshal session request", zap.Error(err))
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/checkout/sessions", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Error("failed creating request", zap.Error(err))
		return nil, err
	}

	httpReq.SetBasicAuth(g.apiKey, "")
	httpReq.Header.Add("Content-Type", "application/json")

	log.Info("creating hosted payment session")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		log.Error("payment provider request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Error("payment provider returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody),
		)
		return nil, fmt.Errorf("payment provider error: %s", string(respBody))
	}

	var res createSessionResponse
	if err := json.Unmarshal(respBody, &res); err != nil {
		log.Error("failed decoding provider response", zap.Error(err))
		return nil, err
	}

	log.Info("hosted payment session created",
		zap.String("session_id", res.ID),
		zap.Time("expires_at", res.ExpiresAt),
	)

	return &Session{
		ID:          res.ID,
		RedirectURL: res.RedirectURL,
		ExpiresAt:   res.ExpiresAt,
	}, nil
}

// VerifyWebhook checks the provider's HMAC-SHA256 signature over the raw body.
func (g *hostedGateway) VerifyWebhook(signature string, body []byte) error {
	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperr.Forbidden("payment.invalid_signature", "webhook signature mismatch")
	}
	return nil
}
