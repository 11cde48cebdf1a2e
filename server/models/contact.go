package models

import (
	"gorm.io/gorm/clause"
)

// Contact is one addressable recipient. Phone is the natural dedup key,
// stored as bare E.164 digits.
type Contact struct {
	BaseModel
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone" validate:"required,phone_number" gorm:"not null;unique"`
}

func CreateContact(contact *Contact) error {
	return db.Create(contact).Error
}

// UpsertContactsByPhone inserts contacts, refreshing names on phone
// conflicts. Used by CSV imports where re-importing a list is routine.
func UpsertContactsByPhone(contacts []Contact) ([]Contact, error) {
	if len(contacts) == 0 {
		return []Contact{}, nil
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "updated_at"}),
	}).Create(&contacts).Error
	if err != nil {
		return nil, err
	}

	// Re-read so updated rows carry their existing ids
	phones := make([]string, 0, len(contacts))
	for _, contact := range contacts {
		phones = append(phones, contact.Phone)
	}

	saved := []Contact{}
	err = db.Where("phone IN ?", phones).Find(&saved).Error
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func FetchContacts() ([]Contact, error) {
	contacts := []Contact{}
	err := db.Order("created_at desc").Limit(500).Find(&contacts).Error
	if err != nil {
		return nil, err
	}

	return contacts, nil
}

// ContactsByPhones returns the stored contacts matching any of the given
// phones, for placeholder personalization of ad-hoc recipient lists.
func ContactsByPhones(phones []string) ([]Contact, error) {
	contacts := []Contact{}
	if len(phones) == 0 {
		return contacts, nil
	}

	err := db.Where("phone IN ?", phones).Find(&contacts).Error
	if err != nil {
		return nil, err
	}

	return contacts, nil
}

func FindContactBy(field string, value interface{}) (*Contact, error) {
	contact := Contact{}
	err := db.First(&contact, field+" = ?", value).Error
	if err != nil {
		return nil, err
	}

	return &contact, nil
}

func UpdateContact(id interface{}, data map[string]interface{}) error {
	return db.Model(&Contact{}).Where("id = ?", id).Updates(data).Error
}

func DeleteContact(id interface{}) error {
	// Membership rows go with the contact
	err := db.Where("contact_id = ?", id).Delete(&ContactListMember{}).Error
	if err != nil {
		return err
	}

	return db.Delete(&Contact{}, id).Error
}
