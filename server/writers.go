package server

import (
	"context"
	"time"

	"github.com/nusely/CFLSMS/server/models"
	"github.com/nusely/CFLSMS/server/sms"
)

// scheduledSmsWriter persists deferred sends on behalf of one profile.
type scheduledSmsWriter struct {
	ownerUserID uint
}

func (writer scheduledSmsWriter) CreateScheduled(ctx context.Context, recipient, message string, scheduledAt time.Time, firstName, lastName string) error {
	return models.CreateScheduledSms(&models.ScheduledSms{
		OwnerUserID: writer.ownerUserID,
		Recipient:   recipient,
		Message:     message,
		ScheduledAt: scheduledAt,
		FirstName:   firstName,
		LastName:    lastName,
	})
}

// smsHistoryWriter records submission outcomes. Status is fixed here and
// never revisited; delivery_status starts pending and is only moved by
// later provider lookups.
type smsHistoryWriter struct {
	ownerUserID uint
}

func (writer smsHistoryWriter) RecordSend(ctx context.Context, recipient, message string, receipt *sms.SendReceipt, sendErr error) error {
	record := models.SmsHistory{
		Recipient:      recipient,
		Message:        message,
		Status:         models.SENT_HISTORY_STATUS,
		DeliveryStatus: string(sms.DeliveryPending),
		OwnerUserID:    writer.ownerUserID,
	}

	if sendErr != nil {
		record.Status = models.FAILED_HISTORY_STATUS
		record.DeliveryStatus = string(sms.DeliveryFailed)
		record.ProviderResponse = sendErr.Error()
	}

	if receipt != nil {
		record.MessageID = receipt.MessageID
		record.ProviderResponse = receipt.ProviderResponse
	}

	return models.CreateSmsHistory(&record)
}
