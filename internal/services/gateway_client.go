package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"event-registration-platform/internal/models"
)

const (
	payPath    = "/pg/v1/pay"
	statusPath = "/pg/v1/status"
)

// GatewayConfig represents the payment gateway merchant configuration
type GatewayConfig struct {
	MerchantID  string
	BaseURL     string
	CallbackURL string
	RedirectURL string
	Timeout     time.Duration
}

// HTTPGatewayClient calls the gateway's pay and status APIs
type HTTPGatewayClient struct {
	config   GatewayConfig
	checksum *ChecksumService
	client   *http.Client
}

// NewHTTPGatewayClient creates a new gateway client
func NewHTTPGatewayClient(config GatewayConfig, checksum *ChecksumService) *HTTPGatewayClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPGatewayClient{
		config:   config,
		checksum: checksum,
		client:   &http.Client{Timeout: timeout},
	}
}

// PayRequest represents a payment initiation request
type PayRequest struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int               `json:"amount"` // Minor units
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	PaymentInstrument     PaymentInstrument `json:"paymentInstrument"`
}

// PaymentInstrument selects the gateway's payment page
type PaymentInstrument struct {
	Type string `json:"type"`
}

// PayResponse is the part of the pay API response the caller needs
type PayResponse struct {
	Code        string
	RedirectURL string
}

type gatewayEnvelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type payData struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	InstrumentResponse    struct {
		Type         string `json:"type"`
		RedirectInfo struct {
			URL    string `json:"url"`
			Method string `json:"method"`
		} `json:"redirectInfo"`
	} `json:"instrumentResponse"`
}

type statusData struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	TransactionID         string `json:"transactionId"`
	Amount                int    `json:"amount"`
	State                 string `json:"state"`
	ResponseCode          string `json:"responseCode"`
}

// GatewayError is a non-success answer from the gateway API
type GatewayError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
}

// EncodePayRequest returns the base64 request body and its signature
func (c *HTTPGatewayClient) EncodePayRequest(req PayRequest) (string, string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal pay request: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(jsonData)
	return encoded, c.checksum.Sign(encoded, payPath), nil
}

// Pay sends a signed payment initiation request and returns the redirect
func (c *HTTPGatewayClient) Pay(ctx context.Context, req PayRequest) (*PayResponse, error) {
	encoded, signature, err := c.EncodePayRequest(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pay body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+payPath, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create pay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-VERIFY", signature)

	envelope, _, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var data payData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode pay response: %w", err)
	}
	if data.InstrumentResponse.RedirectInfo.URL == "" {
		return nil, fmt.Errorf("pay response for %s has no redirect url", req.MerchantTransactionID)
	}

	return &PayResponse{Code: envelope.Code, RedirectURL: data.InstrumentResponse.RedirectInfo.URL}, nil
}

// CheckStatus asks the gateway for the current outcome of a transaction
func (c *HTTPGatewayClient) CheckStatus(ctx context.Context, mtid string) (*models.GatewayOutcome, error) {
	path := fmt.Sprintf("%s/%s/%s", statusPath, c.config.MerchantID, mtid)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-VERIFY", c.checksum.Sign("", path))
	httpReq.Header.Set("X-MERCHANT-ID", c.config.MerchantID)

	envelope, raw, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var data statusData
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode status response: %w", err)
		}
	}
	if data.MerchantTransactionID == "" {
		data.MerchantTransactionID = mtid
	}

	status, err := statusFromGateway(envelope.Code, data.State)
	if err != nil {
		return nil, err
	}

	return &models.GatewayOutcome{
		MerchantTransactionID: data.MerchantTransactionID,
		GatewayTransactionID:  data.TransactionID,
		Code:                  envelope.Code,
		Status:                status,
		Raw:                   raw,
	}, nil
}

func (c *HTTPGatewayClient) do(httpReq *http.Request) (*gatewayEnvelope, []byte, error) {
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send gateway request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope gatewayEnvelope
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		return nil, nil, &GatewayError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
	}

	// The status API answers failed payments with success=false but a
	// meaningful code, so only transport-level failures are errors here.
	if resp.StatusCode >= http.StatusInternalServerError || (resp.StatusCode != http.StatusOK && envelope.Code == "") {
		return nil, nil, &GatewayError{StatusCode: resp.StatusCode, Code: envelope.Code, Message: envelope.Message}
	}
	if httpReq.Method == http.MethodPost && !envelope.Success {
		return nil, nil, &GatewayError{StatusCode: resp.StatusCode, Code: envelope.Code, Message: envelope.Message}
	}

	log.Printf("[Gateway] %s %s -> %d %s", httpReq.Method, httpReq.URL.Path, resp.StatusCode, envelope.Code)
	return &envelope, bodyBytes, nil
}

// statusFromGateway maps a gateway response code (or, failing that, a
// state/status word) to a payment status.
func statusFromGateway(code, state string) (models.PaymentStatus, error) {
	switch strings.ToUpper(code) {
	case "PAYMENT_SUCCESS":
		return models.PaymentSuccess, nil
	case "PAYMENT_ERROR", "PAYMENT_DECLINED", "TIMED_OUT", "AUTHORIZATION_FAILED", "TRANSACTION_NOT_FOUND", "PAYMENT_CANCELLED":
		return models.PaymentFailed, nil
	case "PAYMENT_PENDING", "INTERNAL_SERVER_ERROR":
		return models.PaymentPending, nil
	}

	switch strings.ToUpper(state) {
	case "COMPLETED", "SUCCESS":
		return models.PaymentSuccess, nil
	case "FAILED", "FAILURE":
		return models.PaymentFailed, nil
	case "PENDING":
		return models.PaymentPending, nil
	}

	return "", models.NewValidation("code", fmt.Sprintf("unrecognised gateway code %q", code))
}
