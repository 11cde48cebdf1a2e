package models

import (
	"errors"
	"time"
)

const (
	PENDING_SMS = "pending"
	SENT_SMS    = "sent"
	FAILED_SMS  = "failed"
)

// ErrNotPending guards deletes: a scheduled message that has already been
// swept (sent or failed) is immutable.
var ErrNotPending = errors.New("only pending scheduled messages can be deleted")

// ScheduledSms is one deferred send. The sweep transitions
// pending -> sent|failed once scheduled_at is due, bumping attempts and
// recording last_error on failure; rows are otherwise immutable.
type ScheduledSms struct {
	BaseModel
	OwnerUserID uint      `json:"owner_user_id" gorm:"not null"`
	Recipient   string    `json:"recipient" validate:"required,phone_number" gorm:"not null"`
	Message     string    `json:"message" validate:"required" gorm:"not null"`
	ScheduledAt time.Time `json:"scheduled_at" gorm:"not null;index"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Status      string    `json:"status" gorm:"not null;default:pending"`
	Attempts    int       `json:"attempts" gorm:"default:0"`
	LastError   string    `json:"last_error,omitempty"`
}

func CreateScheduledSms(scheduled *ScheduledSms) error {
	scheduled.Status = PENDING_SMS
	return db.Create(scheduled).Error
}

func FetchScheduledSms(ownerUserID uint) ([]ScheduledSms, error) {
	scheduled := []ScheduledSms{}
	err := db.Where("owner_user_id = ?", ownerUserID).
		Order("scheduled_at asc").Find(&scheduled).Error
	if err != nil {
		return nil, err
	}

	return scheduled, nil
}

// DueScheduledSms returns pending rows whose scheduled_at has passed,
// oldest first. The limit keeps a single sweep bounded.
func DueScheduledSms(limit int) ([]ScheduledSms, error) {
	due := []ScheduledSms{}
	err := db.Where("status = ? AND scheduled_at <= ?", PENDING_SMS, time.Now()).
		Order("scheduled_at asc").Limit(limit).Find(&due).Error
	if err != nil {
		return nil, err
	}

	return due, nil
}

func (scheduled *ScheduledSms) MarkSent() error {
	return db.Model(scheduled).Updates(map[string]interface{}{
		"status":     SENT_SMS,
		"attempts":   scheduled.Attempts + 1,
		"last_error": "",
	}).Error
}

func (scheduled *ScheduledSms) MarkFailed(lastError string) error {
	return db.Model(scheduled).Updates(map[string]interface{}{
		"status":     FAILED_SMS,
		"attempts":   scheduled.Attempts + 1,
		"last_error": lastError,
	}).Error
}

// DeleteScheduledSms removes one of the owner's pending rows.
func DeleteScheduledSms(id interface{}, ownerUserID uint) error {
	scheduled := ScheduledSms{}
	err := db.First(&scheduled, "id = ? AND owner_user_id = ?", id, ownerUserID).Error
	if err != nil {
		return err
	}

	if scheduled.Status != PENDING_SMS {
		return ErrNotPending
	}

	return db.Delete(&ScheduledSms{}, scheduled.ID).Error
}
