package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertContactsByPhone(t *testing.T) {
	InitializeTestDb()

	require.NoError(t, CreateContact(&Contact{FirstName: "Ama", LastName: "Mensah", Phone: "233544000001"}))

	saved, err := UpsertContactsByPhone([]Contact{
		{FirstName: "Amavi", LastName: "Mensah-Bonsu", Phone: "233544000001"},
		{FirstName: "Kojo", Phone: "233544000002"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, len(saved))

	// Re-importing an existing phone updates the name instead of duplicating the row
	contact, err := FindContactBy("phone", "233544000001")
	require.NoError(t, err)
	assert.Equal(t, "Amavi", contact.FirstName)
	assert.Equal(t, "Mensah-Bonsu", contact.LastName)

	all, err := FetchContacts()
	require.NoError(t, err)
	assert.Equal(t, 2, len(all))
}

func TestAddContactsToListSkipsExistingMembers(t *testing.T) {
	InitializeTestDb()

	list := ContactList{Name: "Farmers", OwnerUserID: 1}
	require.NoError(t, CreateContactList(&list))

	contacts, err := UpsertContactsByPhone([]Contact{
		{FirstName: "Ama", Phone: "233544000001"},
		{FirstName: "Kojo", Phone: "233544000002"},
	})
	require.NoError(t, err)

	added, err := AddContactsToList(list.ID, []uint{contacts[0].ID, contacts[1].ID})
	require.NoError(t, err)
	assert.Equal(t, 2, len(added))

	// Second add with one overlapping contact only inserts the new one
	third := Contact{FirstName: "Esi", Phone: "233544000003"}
	require.NoError(t, CreateContact(&third))

	added, err = AddContactsToList(list.ID, []uint{contacts[0].ID, third.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, len(added))
	assert.Equal(t, third.ID, added[0].ContactID)

	// Adding only already-present members is reported as a no-op
	added, err = AddContactsToList(list.ID, []uint{contacts[0].ID, contacts[1].ID})
	require.NoError(t, err)
	assert.Empty(t, added)

	members, err := ListMembers(list.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, len(members))
}

func TestFetchContactListsIncludesGlobalLists(t *testing.T) {
	InitializeTestDb()

	require.NoError(t, CreateContactList(&ContactList{Name: "Mine", OwnerUserID: 1}))
	require.NoError(t, CreateContactList(&ContactList{Name: "Everyone", OwnerUserID: 2, IsGlobal: true}))
	require.NoError(t, CreateContactList(&ContactList{Name: "Theirs", OwnerUserID: 2}))

	lists, err := FetchContactLists(1)
	require.NoError(t, err)

	names := []string{}
	for _, list := range lists {
		names = append(names, list.Name)
	}
	assert.ElementsMatch(t, []string{"Mine", "Everyone"}, names)
}

func TestGroupPhones(t *testing.T) {
	InitializeTestDb()

	list := ContactList{Name: "Broadcast", OwnerUserID: 1}
	require.NoError(t, CreateContactList(&list))

	contacts, err := UpsertContactsByPhone([]Contact{
		{FirstName: "Ama", Phone: "233544000001"},
		{FirstName: "Kojo", Phone: "233544000002"},
	})
	require.NoError(t, err)

	_, err = AddContactsToList(list.ID, []uint{contacts[0].ID, contacts[1].ID})
	require.NoError(t, err)

	phones, err := GroupPhones(list.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"233544000001", "233544000002"}, phones)
}

func TestDueScheduledSms(t *testing.T) {
	InitializeTestDb()

	due := ScheduledSms{OwnerUserID: 1, Recipient: "233544000001", Message: "hi", ScheduledAt: time.Now().Add(-time.Minute)}
	future := ScheduledSms{OwnerUserID: 1, Recipient: "233544000002", Message: "hi", ScheduledAt: time.Now().Add(time.Hour)}
	require.NoError(t, CreateScheduledSms(&due))
	require.NoError(t, CreateScheduledSms(&future))

	dueNow, err := DueScheduledSms(50)
	require.NoError(t, err)
	require.Equal(t, 1, len(dueNow))
	assert.Equal(t, due.ID, dueNow[0].ID)

	// Once sent, the row drops out of the due set
	require.NoError(t, dueNow[0].MarkSent())

	dueNow, err = DueScheduledSms(50)
	require.NoError(t, err)
	assert.Empty(t, dueNow)
}

func TestDeleteScheduledSmsOnlyWhilePending(t *testing.T) {
	InitializeTestDb()

	scheduled := ScheduledSms{OwnerUserID: 1, Recipient: "233544000001", Message: "hi", ScheduledAt: time.Now().Add(time.Hour)}
	require.NoError(t, CreateScheduledSms(&scheduled))

	require.NoError(t, DeleteScheduledSms(scheduled.ID, 1))

	sent := ScheduledSms{OwnerUserID: 1, Recipient: "233544000002", Message: "hi", ScheduledAt: time.Now().Add(-time.Minute)}
	require.NoError(t, CreateScheduledSms(&sent))
	require.NoError(t, sent.MarkSent())

	err := DeleteScheduledSms(sent.ID, 1)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestMarkFailedIncrementsAttempts(t *testing.T) {
	InitializeTestDb()

	scheduled := ScheduledSms{OwnerUserID: 1, Recipient: "233544000001", Message: "hi", ScheduledAt: time.Now().Add(-time.Minute)}
	require.NoError(t, CreateScheduledSms(&scheduled))

	require.NoError(t, scheduled.MarkFailed("provider timeout"))

	records, err := FetchScheduledSms(1)
	require.NoError(t, err)
	require.Equal(t, 1, len(records))
	assert.Equal(t, FAILED_SMS, records[0].Status)
	assert.Equal(t, 1, records[0].Attempts)
	assert.Equal(t, "provider timeout", records[0].LastError)
}

func TestUpdateDeliveryStatusLeavesSubmissionStatusAlone(t *testing.T) {
	InitializeTestDb()

	record := SmsHistory{
		Recipient:      "233544000001",
		Message:        "hello",
		Status:         SENT_HISTORY_STATUS,
		DeliveryStatus: "pending",
		MessageID:      "msg-123",
		OwnerUserID:    1,
	}
	require.NoError(t, CreateSmsHistory(&record))

	require.NoError(t, UpdateDeliveryStatus("msg-123", "delivered"))

	records, _, err := FetchSmsHistory(1, 1)
	require.NoError(t, err)
	require.Equal(t, 1, len(records))
	assert.Equal(t, SENT_HISTORY_STATUS, records[0].Status)
	assert.Equal(t, "delivered", records[0].DeliveryStatus)
}

func TestCreateProfileHashesPassword(t *testing.T) {
	InitializeTestDb()

	profile := Profile{Email: "admin@example.com", Password: "s3cret-pass"}
	require.NoError(t, CreateProfile(&profile))

	found, err := FindProfileBy("email", "admin@example.com")
	require.NoError(t, err)
	assert.Empty(t, found.Password)

	hash, err := FindProfilePassword("admin@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.NotEmpty(t, hash)

	exists, err := AtLeastOneProfileExists()
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpdateProfileRole(t *testing.T) {
	InitializeTestDb()

	profile := Profile{Email: "admin@example.com", Password: "s3cret-pass"}
	require.NoError(t, CreateProfile(&profile))

	require.NoError(t, UpdateProfileRole(profile.ID, SUPERADMIN_ROLE))

	found, err := FindProfileBy("id", profile.ID)
	require.NoError(t, err)
	assert.True(t, found.IsSuperadmin())
}
