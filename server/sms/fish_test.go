package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nusely/CFLSMS/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(srv *httptest.Server) *FishGateway {
	gw := NewFishGateway(shared.FishConfig{BaseURL: srv.URL, ApiKey: "test-key", SenderID: "CFL"})
	return gw
}

func TestFishSendMessageIDFromDataArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body := map[string]interface{}{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "CFL", body["sender_id"])
		assert.Equal(t, []interface{}{"233245678910"}, body["recipients"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"message_id": "msg-123"}},
		})
	}))
	defer srv.Close()

	receipt, err := newTestGateway(srv).Send(context.Background(), "233245678910", "hello")
	require.NoError(t, err)
	assert.Equal(t, "msg-123", receipt.MessageID)
	assert.Contains(t, receipt.ProviderResponse, "msg-123")
}

func TestFishSendMessageIDScalarReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"reference": "ref-9"})
	}))
	defer srv.Close()

	receipt, err := newTestGateway(srv).Send(context.Background(), "233245678910", "hello")
	require.NoError(t, err)
	assert.Equal(t, "ref-9", receipt.MessageID)
}

func TestFishSendNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	_, err := newTestGateway(srv).Send(context.Background(), "233245678910", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestFishSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]interface{}{"message": "invalid recipient"})
	}))
	defer srv.Close()

	_, err := newTestGateway(srv).Send(context.Background(), "123", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestFishSendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	gw := newTestGateway(srv)
	gw.client.Timeout = 20 * time.Millisecond

	_, err := gw.Send(context.Background(), "233245678910", "hello")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestFishStatusNormalization(t *testing.T) {
	testCases := []struct {
		name string
		body map[string]interface{}
		want DeliveryStatus
	}{
		{"delivered", map[string]interface{}{"data": map[string]interface{}{"status": "delivered"}}, DeliveryDelivered},
		{"rejected", map[string]interface{}{"data": map[string]interface{}{"status": "rejected"}}, DeliveryFailed},
		{"undelivered", map[string]interface{}{"status": "undelivered"}, DeliveryFailed},
		{"submitted maps to pending", map[string]interface{}{"status": "submitted"}, DeliveryPending},
		{"queued maps to pending", map[string]interface{}{"data": map[string]interface{}{"status": "queued"}}, DeliveryPending},
		{"explicit delivery_status wins", map[string]interface{}{
			"data": map[string]interface{}{"status": "sent", "delivery_status": "delivered"},
		}, DeliveryDelivered},
		{"unmapped vocabulary", map[string]interface{}{"status": "weird"}, DeliveryUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/sms/msg-1", r.URL.Path)
				json.NewEncoder(w).Encode(tc.body)
			}))
			defer srv.Close()

			status, raw, err := newTestGateway(srv).Status(context.Background(), "msg-1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, status)
			assert.NotEmpty(t, raw)
		})
	}
}
