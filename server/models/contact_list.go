package models

import (
	"errors"
	"strings"
)

// ErrAlreadyInList is the domain translation of the store's unique
// violation on (list_id, contact_id). The application pre-filters
// duplicates before the write; this only covers the residual race.
var ErrAlreadyInList = errors.New("one or more contacts are already in this group")

// ContactList is a named group of contacts. A global list is visible to
// every admin but manageable only by superadmins; a private list belongs
// to its owner.
type ContactList struct {
	BaseModel
	Name        string `json:"name" validate:"required"`
	OwnerUserID uint   `json:"owner_user_id" gorm:"not null"`
	IsGlobal    bool   `json:"is_global" gorm:"default:false"`
	MemberCount int64  `json:"member_count" gorm:"-"`
}

type ContactListMember struct {
	BaseModel
	ListID    uint `json:"list_id" gorm:"not null;uniqueIndex:idx_list_contact"`
	ContactID uint `json:"contact_id" gorm:"not null;uniqueIndex:idx_list_contact"`
}

func CreateContactList(list *ContactList) error {
	return db.Create(list).Error
}

// FetchContactLists returns the owner's private lists plus every global
// list, each with its derived member count.
func FetchContactLists(ownerUserID uint) ([]ContactList, error) {
	lists := []ContactList{}
	err := db.Where("owner_user_id = ? OR is_global = ?", ownerUserID, true).
		Order("created_at desc").Find(&lists).Error
	if err != nil {
		return nil, err
	}

	for i := range lists {
		err = db.Model(&ContactListMember{}).Where("list_id = ?", lists[i].ID).
			Count(&lists[i].MemberCount).Error
		if err != nil {
			return nil, err
		}
	}

	return lists, nil
}

func FindContactList(id interface{}) (*ContactList, error) {
	list := ContactList{}
	err := db.First(&list, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &list, nil
}

func UpdateContactList(id interface{}, data map[string]interface{}) error {
	return db.Model(&ContactList{}).Where("id = ?", id).Updates(data).Error
}

func DeleteContactList(id interface{}) error {
	err := db.Where("list_id = ?", id).Delete(&ContactListMember{}).Error
	if err != nil {
		return err
	}

	return db.Delete(&ContactList{}, id).Error
}

// AddContactsToList inserts memberships idempotently: contacts already in
// the list are filtered out before the write rather than erroring. The
// store's unique constraint remains as a fallback for concurrent adds and
// is translated to ErrAlreadyInList instead of leaking a raw storage error.
func AddContactsToList(listID uint, contactIDs []uint) ([]ContactListMember, error) {
	existing := []ContactListMember{}
	err := db.Where("list_id = ? AND contact_id IN ?", listID, contactIDs).Find(&existing).Error
	if err != nil {
		return nil, err
	}

	existingIDs := map[uint]bool{}
	for _, member := range existing {
		existingIDs[member.ContactID] = true
	}

	members := []ContactListMember{}
	for _, contactID := range contactIDs {
		if !existingIDs[contactID] {
			members = append(members, ContactListMember{ListID: listID, ContactID: contactID})
		}
	}

	// Everything requested is already in the group
	if len(members) == 0 {
		return []ContactListMember{}, nil
	}

	err = db.Create(&members).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrAlreadyInList
		}
		return nil, err
	}

	return members, nil
}

func ListMembers(listID interface{}) ([]Contact, error) {
	contacts := []Contact{}
	err := db.Joins("INNER JOIN contact_list_members ON contact_list_members.contact_id = contacts.id AND contact_list_members.list_id = ?",
		listID).Find(&contacts).Error
	if err != nil {
		return nil, err
	}

	return contacts, nil
}

// GroupPhones returns every member's phone digits for a list.
func GroupPhones(listID interface{}) ([]string, error) {
	contacts, err := ListMembers(listID)
	if err != nil {
		return nil, err
	}

	phones := make([]string, 0, len(contacts))
	for _, contact := range contacts {
		if contact.Phone != "" {
			phones = append(phones, contact.Phone)
		}
	}

	return phones, nil
}

func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique") ||
		strings.Contains(msg, "23505")
}
