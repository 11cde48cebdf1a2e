package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nusely/CFLSMS/shared"
)

const (
	defaultFishBaseURL = "https://api.letsfish.africa"
	defaultSenderID    = "CFL"

	// A send that takes longer than this is aborted and reported as a
	// timeout failure.
	sendTimeout = 30 * time.Second
)

// FishGateway talks to the Fish Africa SMS HTTP API.
type FishGateway struct {
	config shared.FishConfig
	client *http.Client
}

func NewFishGateway(config shared.FishConfig) *FishGateway {
	if config.BaseURL == "" {
		config.BaseURL = defaultFishBaseURL
	}
	if config.SenderID == "" {
		config.SenderID = defaultSenderID
	}

	return &FishGateway{
		config: config,
		client: &http.Client{Timeout: sendTimeout},
	}
}

type fishSendRequest struct {
	SenderID   string   `json:"sender_id"`
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

func (gw *FishGateway) Send(ctx context.Context, recipient, message string) (*SendReceipt, error) {
	payload, err := json.Marshal(fishSendRequest{
		SenderID:   gw.config.SenderID,
		Message:    message,
		Recipients: []string{recipient},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gw.config.BaseURL+"/v1/sms", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+gw.bearerToken())

	resp, err := gw.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("send to %v: %w", recipient, ErrTimeout)
		}
		return nil, err
	}
	defer resp.Body.Close()

	rawBody, _ := ioutil.ReadAll(resp.Body)
	result := parseProviderBody(rawBody, resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider rejected send: %v", providerErrorMessage(result, resp))
	}

	return &SendReceipt{
		MessageID:        extractMessageID(result),
		ProviderResponse: string(rawBody),
	}, nil
}

// Status looks up a message by provider id and normalizes the provider's
// status vocabulary to the delivery statuses history rows use. The second
// return value is the raw provider body.
func (gw *FishGateway) Status(ctx context.Context, messageID string) (DeliveryStatus, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gw.config.BaseURL+"/v1/sms/"+messageID, nil)
	if err != nil {
		return DeliveryUnknown, "", err
	}
	req.Header.Set("Authorization", "Bearer "+gw.bearerToken())

	resp, err := gw.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return DeliveryUnknown, "", fmt.Errorf("status for %v: %w", messageID, ErrTimeout)
		}
		return DeliveryUnknown, "", err
	}
	defer resp.Body.Close()

	rawBody, _ := ioutil.ReadAll(resp.Body)
	result := parseProviderBody(rawBody, resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return DeliveryUnknown, string(rawBody), fmt.Errorf("provider status lookup failed: %v", providerErrorMessage(result, resp))
	}

	return normalizeDeliveryStatus(result), string(rawBody), nil
}

// API key wins over app id/secret, matching the provider's auth schemes.
func (gw *FishGateway) bearerToken() string {
	if gw.config.ApiKey != "" {
		return gw.config.ApiKey
	}

	return gw.config.AppID + "." + gw.config.AppSecret
}

// parseProviderBody decodes the response as JSON, falling back to a
// synthesized error object for non-JSON bodies.
func parseProviderBody(rawBody []byte, resp *http.Response) map[string]interface{} {
	result := map[string]interface{}{}
	if err := json.Unmarshal(rawBody, &result); err != nil {
		result = map[string]interface{}{
			"error":      string(rawBody),
			"status":     resp.StatusCode,
			"statusText": resp.Status,
		}
	}

	return result
}

// extractMessageID handles both response forms the provider uses: a 'data'
// array of results, or a scalar object, with either 'message_id' or
// 'reference' as the id field.
func extractMessageID(result map[string]interface{}) string {
	if data, ok := result["data"].([]interface{}); ok && len(data) > 0 {
		if entry, ok := data[0].(map[string]interface{}); ok {
			if id := stringField(entry, "message_id"); id != "" {
				return id
			}
			return stringField(entry, "reference")
		}
		return ""
	}

	if id := stringField(result, "message_id"); id != "" {
		return id
	}

	return stringField(result, "reference")
}

func providerErrorMessage(result map[string]interface{}, resp *http.Response) string {
	if msg := stringField(result, "message"); msg != "" {
		return msg
	}
	if msg := stringField(result, "error"); msg != "" {
		return msg
	}

	return fmt.Sprintf("HTTP %v: %v", resp.StatusCode, resp.Status)
}

// normalizeDeliveryStatus maps the provider vocabulary
// (submitted|sent|delivered|failed|rejected|undelivered|queued|pending)
// to exactly delivered/failed/pending. An explicit delivery_status field
// takes precedence over the submission status.
func normalizeDeliveryStatus(result map[string]interface{}) DeliveryStatus {
	providerStatus := ""
	providerDeliveryStatus := ""

	if data, ok := result["data"].(map[string]interface{}); ok {
		providerStatus = stringField(data, "status")
		providerDeliveryStatus = stringField(data, "delivery_status")
	}
	if providerStatus == "" {
		providerStatus = stringField(result, "status")
	}
	if providerDeliveryStatus == "" {
		providerDeliveryStatus = stringField(result, "delivery_status")
	}

	status := strings.ToLower(providerDeliveryStatus)
	if status == "" {
		status = strings.ToLower(providerStatus)
	}

	switch status {
	case "delivered":
		return DeliveryDelivered
	case "failed", "rejected", "undelivered":
		return DeliveryFailed
	case "pending", "submitted", "sent", "queued":
		// Provider accepted the message, delivery not yet confirmed
		return DeliveryPending
	}

	return DeliveryUnknown
}

func stringField(obj map[string]interface{}, key string) string {
	value, ok := obj[key].(string)
	if !ok {
		return ""
	}

	return value
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}
