package sms

import (
	"context"
	"strings"

	"github.com/nusely/CFLSMS/shared"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioGateway is the alternative provider backend, wrapping twilio-go.
type TwilioGateway struct {
	client *twilio.RestClient
	config shared.TwilioConfig
}

func NewTwilioGateway(config shared.TwilioConfig) *TwilioGateway {
	client := twilio.NewRestClientWithParams(twilio.RestClientParams{
		Username: config.AccountSid,
		Password: config.AuthToken,
	})

	return &TwilioGateway{client: client, config: config}
}

func (gw *TwilioGateway) Send(ctx context.Context, recipient, message string) (*SendReceipt, error) {
	params := &openapi.CreateMessageParams{}
	params.SetMessagingServiceSid(gw.config.MessagingServiceSid)
	params.SetTo("+" + recipient)
	params.SetBody(message)

	resp, err := gw.client.ApiV2010.CreateMessage(params)
	if err != nil {
		return nil, err
	}

	receipt := &SendReceipt{}
	if resp.Sid != nil {
		receipt.MessageID = *resp.Sid
	}
	if resp.Status != nil {
		receipt.ProviderResponse = *resp.Status
	}

	return receipt, nil
}

func (gw *TwilioGateway) Status(ctx context.Context, messageID string) (DeliveryStatus, string, error) {
	resp, err := gw.client.ApiV2010.FetchMessage(messageID, &openapi.FetchMessageParams{})
	if err != nil {
		return DeliveryUnknown, "", err
	}

	if resp.Status == nil {
		return DeliveryUnknown, "", nil
	}

	status := strings.ToLower(*resp.Status)
	switch status {
	case "delivered", "read":
		return DeliveryDelivered, status, nil
	case "failed", "undelivered", "canceled":
		return DeliveryFailed, status, nil
	case "accepted", "queued", "sending", "sent":
		return DeliveryPending, status, nil
	}

	return DeliveryUnknown, status, nil
}
