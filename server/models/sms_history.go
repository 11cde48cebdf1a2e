package models

import "errors"

const (
	SENT_HISTORY_STATUS   = "sent"
	FAILED_HISTORY_STATUS = "failed"
)

// SmsHistory records one send attempt. Status reflects whether the
// provider accepted the request at submission time and is never altered
// afterwards; delivery_status is updated independently by status
// refreshes. The two are different facts with different lifecycles.
type SmsHistory struct {
	BaseModel
	Recipient        string `json:"recipient" gorm:"not null"`
	Message          string `json:"message"`
	Status           string `json:"status" gorm:"not null"`
	DeliveryStatus   string `json:"delivery_status" gorm:"not null;default:unknown"`
	MessageID        string `json:"message_id,omitempty" gorm:"index"`
	ProviderResponse string `json:"provider_response,omitempty"`
	OwnerUserID      uint   `json:"owner_user_id"`
}

func CreateSmsHistory(record *SmsHistory) error {
	return db.Create(record).Error
}

func FetchSmsHistory(ownerUserID uint, page int) ([]SmsHistory, *Paging, error) {
	var total int64
	records := []SmsHistory{}

	query := db.Model(&SmsHistory{}).Where("owner_user_id = ?", ownerUserID)
	err := query.Count(&total).Error
	if err != nil {
		return nil, nil, err
	}

	err = db.Scopes(paginate(page, MAX_PAGE_SIZE)).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at desc").Find(&records).Error
	if err != nil {
		return nil, nil, err
	}

	return records, newPaging(int64(page), MAX_PAGE_SIZE, total), nil
}

// UpdateDeliveryStatus sets delivery_status for the row matching a
// provider message id. Submission status is deliberately left alone.
func UpdateDeliveryStatus(messageID, deliveryStatus string) error {
	if messageID == "" {
		return errors.New("message id is required")
	}

	return db.Model(&SmsHistory{}).Where("message_id = ?", messageID).
		Update("delivery_status", deliveryStatus).Error
}
