package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/gorilla/mux"
	"github.com/nusely/CFLSMS/server/auth"
	"github.com/nusely/CFLSMS/server/auth/key"
	"github.com/nusely/CFLSMS/server/dispatch"
	"github.com/nusely/CFLSMS/server/importer"
	"github.com/nusely/CFLSMS/server/models"
	"github.com/nusely/CFLSMS/server/phone"
	"gorm.io/gorm"
)

const TOKEN_TTL = 24 * time.Hour

type ResponsePayload struct {
	Errors  []string    `json:"errors"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ---------------------------------------------------------------------------------//
// Session
// --------------------------------------------------------------------------------//

func logIn(rw http.ResponseWriter, r *http.Request) {
	data := struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}{}

	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	errs := validate.Struct(data)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	profile, err := models.FindProfileBy("email", data.Email)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid email/password"}}, http.StatusUnauthorized)
		return
	}

	passwordHash, err := models.FindProfilePassword(data.Email)
	if err != nil || !auth.CheckPasswordHash(data.Password, passwordHash) {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid email/password"}}, http.StatusUnauthorized)
		return
	}

	token, err := auth.EncodeJWT(auth.CflsmsTokenClaims{
		Email: profile.Email,
		Role:  profile.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   fmt.Sprint(profile.ID),
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(TOKEN_TTL).Unix(),
		},
	}, authKeyPair)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{"token": token}})
}

func jwks(rw http.ResponseWriter, r *http.Request) {
	keyPairJWK, err := authKeyPair.JWK()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(key.ExportJWKAsJWKS(keyPairJWK))
}

// ---------------------------------------------------------------------------------//
// Profiles
// --------------------------------------------------------------------------------//

func createProfile(rw http.ResponseWriter, r *http.Request) {
	data := models.Profile{}

	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	errs := validate.Struct(data)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	if data.Role != "" && data.Role != models.ADMIN_ROLE && data.Role != models.SUPERADMIN_ROLE {
		writeResponse(rw, ResponsePayload{Errors: []string{"role must be 'admin' or 'superadmin'"}}, http.StatusBadRequest)
		return
	}

	// The bootstrap profile becomes superadmin, so the instance always has one
	if exists, err := models.AtLeastOneProfileExists(); err == nil && !exists {
		data.Role = models.SUPERADMIN_ROLE
	}

	err = models.CreateProfile(&data)
	if isDuplicateErrMsg(err) {
		writeResponse(rw, ResponsePayload{Errors: []string{"a profile with this email already exists"}}, http.StatusConflict)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func fetchProfiles(rw http.ResponseWriter, r *http.Request) {
	profiles, err := models.FetchProfiles()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: profiles})
}

func updateProfileRole(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	data := make(map[string]interface{})

	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	role, _ := data["role"].(string)
	if role == "" {
		writeResponse(rw, ResponsePayload{Errors: []string{"'role' is required"}}, http.StatusBadRequest)
		return
	}

	err = models.UpdateProfileRole(vars["id"], role)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func deleteProfile(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if vars["id"] == requestClaims(r).Subject {
		writeResponse(rw, ResponsePayload{Errors: []string{"you cannot delete your own profile"}}, http.StatusBadRequest)
		return
	}

	err := models.DeleteProfile(vars["id"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

// ---------------------------------------------------------------------------------//
// Contacts
// --------------------------------------------------------------------------------//

func fetchContacts(rw http.ResponseWriter, r *http.Request) {
	contacts, err := models.FetchContacts()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: contacts})
}

func createContact(rw http.ResponseWriter, r *http.Request) {
	data := models.Contact{}

	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	digits, ok := phone.Normalize(data.Phone)
	if !ok {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid phone number"}}, http.StatusBadRequest)
		return
	}
	data.Phone = digits

	errs := validate.Struct(data)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	err = models.CreateContact(&data)
	if isDuplicateErrMsg(err) {
		writeResponse(rw, ResponsePayload{Errors: []string{"a contact with this phone already exists"}}, http.StatusConflict)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: data})
}

func updateContact(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	data := make(map[string]interface{})

	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	removeUnknownFields(data, map[string]bool{"first_name": true, "last_name": true, "phone": true})
	if len(data) <= 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"valid fields required"}}, http.StatusBadRequest)
		return
	}

	if data["phone"] != nil {
		digits, ok := phone.Normalize(fmt.Sprint(data["phone"]))
		if !ok {
			writeResponse(rw, ResponsePayload{Errors: []string{"invalid phone number"}}, http.StatusBadRequest)
			return
		}
		data["phone"] = digits
	}

	err = models.UpdateContact(vars["id"], data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func deleteContact(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	err := models.DeleteContact(vars["id"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

// ---------------------------------------------------------------------------------//
// CSV import
// --------------------------------------------------------------------------------//

const IMPORT_PREVIEW_ROWS = 5

func previewImport(rw http.ResponseWriter, r *http.Request) {
	data := struct {
		CsvText string `json:"csv_text"`
	}{}

	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	doc := importer.ParseCSV(data.CsvText)
	if len(doc.Rows) == 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"no rows found in csv"}}, http.StatusBadRequest)
		return
	}

	mapping := importer.AutoDetectMapping(doc.Headers)

	sample := doc.Rows
	if len(sample) > IMPORT_PREVIEW_ROWS {
		sample = sample[:IMPORT_PREVIEW_ROWS]
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{
		"headers": doc.Headers,
		"mapping": mapping,
		"stats":   importer.ComputeStats(doc.Rows, mapping),
		"sample":  sample,
	}})
}

func runImport(rw http.ResponseWriter, r *http.Request) {
	data := struct {
		CsvText   string           `json:"csv_text"`
		Mapping   importer.Mapping `json:"mapping"`
		GroupName string           `json:"group_name"`
		IsGlobal  bool             `json:"is_global"`
	}{}

	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(data.GroupName) == "" {
		writeResponse(rw, ResponsePayload{Errors: []string{importer.ErrMissingGroupName.Error()}}, http.StatusBadRequest)
		return
	}

	// Only superadmins create global groups; everyone else gets a private one
	if !requestClaims(r).IsSuperadmin() {
		data.IsGlobal = false
	}

	doc := importer.ParseCSV(data.CsvText)
	if len(doc.Rows) == 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"no rows found in csv"}}, http.StatusBadRequest)
		return
	}

	mapping := data.Mapping
	if mapping == (importer.Mapping{}) {
		mapping = importer.AutoDetectMapping(doc.Headers)
	}

	imported, err := importer.BuildContacts(doc.Rows, mapping)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	contacts := make([]models.Contact, 0, len(imported))
	for _, contact := range imported {
		contacts = append(contacts, models.Contact{
			FirstName: contact.FirstName,
			LastName:  contact.LastName,
			Phone:     contact.Phone,
		})
	}

	saved, err := models.UpsertContactsByPhone(contacts)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	group := models.ContactList{
		Name:        strings.TrimSpace(data.GroupName),
		OwnerUserID: requestUserID(r),
		IsGlobal:    data.IsGlobal,
	}
	err = models.CreateContactList(&group)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	contactIDs := make([]uint, 0, len(saved))
	for _, contact := range saved {
		contactIDs = append(contactIDs, contact.ID)
	}

	members, err := models.AddContactsToList(group.ID, contactIDs)
	if err != nil && !errors.Is(err, models.ErrAlreadyInList) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{
		"group_id": group.ID,
		"imported": len(saved),
		"added":    len(members),
		"stats":    importer.ComputeStats(doc.Rows, mapping),
	}})
}

// ---------------------------------------------------------------------------------//
// Groups
// --------------------------------------------------------------------------------//

func fetchGroups(rw http.ResponseWriter, r *http.Request) {
	groups, err := models.FetchContactLists(requestUserID(r))
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: groups})
}

func createGroup(rw http.ResponseWriter, r *http.Request) {
	data := models.ContactList{}

	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	// Only superadmins create global groups; everyone else gets a private one
	if !requestClaims(r).IsSuperadmin() {
		data.IsGlobal = false
	}

	data.OwnerUserID = requestUserID(r)

	errs := validate.Struct(data)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	err = models.CreateContactList(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: data})
}

func updateGroup(rw http.ResponseWriter, r *http.Request) {
	group, ok := manageableGroup(rw, r)
	if !ok {
		return
	}

	data := make(map[string]interface{})
	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	removeUnknownFields(data, map[string]bool{"name": true, "is_global": true})
	if len(data) <= 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"valid fields required"}}, http.StatusBadRequest)
		return
	}

	if isGlobal, present := data["is_global"].(bool); present && isGlobal && !requestClaims(r).IsSuperadmin() {
		writeResponse(rw, ResponsePayload{Errors: []string{"only superadmins can make groups global"}}, http.StatusForbidden)
		return
	}

	err = models.UpdateContactList(group.ID, data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func deleteGroup(rw http.ResponseWriter, r *http.Request) {
	group, ok := manageableGroup(rw, r)
	if !ok {
		return
	}

	err := models.DeleteContactList(group.ID)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func fetchGroupMembers(rw http.ResponseWriter, r *http.Request) {
	group, ok := visibleGroup(rw, r)
	if !ok {
		return
	}

	members, err := models.ListMembers(group.ID)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: members})
}

func addGroupMembers(rw http.ResponseWriter, r *http.Request) {
	group, ok := manageableGroup(rw, r)
	if !ok {
		return
	}

	data := struct {
		ContactIDs []uint `json:"contact_ids"`
	}{}
	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	if len(data.ContactIDs) == 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"'contact_ids' is required"}}, http.StatusBadRequest)
		return
	}

	added, err := models.AddContactsToList(group.ID, data.ContactIDs)
	if errors.Is(err, models.ErrAlreadyInList) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusConflict)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{"added": len(added)}})
}

func fetchGroupPhones(rw http.ResponseWriter, r *http.Request) {
	group, ok := visibleGroup(rw, r)
	if !ok {
		return
	}

	phones, err := models.GroupPhones(group.ID)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: phones})
}

// ---------------------------------------------------------------------------------//
// SMS
// --------------------------------------------------------------------------------//

func dispatchSms(rw http.ResponseWriter, r *http.Request) {
	data := struct {
		RecipientsText string `json:"recipients_text"`
		ContactID      uint   `json:"contact_id"`
		GroupID        uint   `json:"group_id"`
		Message        string `json:"message" validate:"required"`
		ScheduledAt    string `json:"scheduled_at"`
	}{}

	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(data.Message) == "" {
		writeResponse(rw, ResponsePayload{Errors: []string{"'message' is required"}}, http.StatusBadRequest)
		return
	}

	var scheduledAt time.Time
	if data.ScheduledAt != "" {
		scheduledAt, err = time.Parse(time.RFC3339, data.ScheduledAt)
		if err != nil {
			writeResponse(rw, ResponsePayload{Errors: []string{"'scheduled_at' must be RFC3339"}}, http.StatusBadRequest)
			return
		}
	}

	recipients, contacts, err := resolveRecipients(data.RecipientsText, data.ContactID, data.GroupID)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	if len(recipients) == 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{dispatch.ErrNoRecipients.Error()}}, http.StatusBadRequest)
		return
	}

	ownerUserID := requestUserID(r)
	engine := dispatch.NewEngine(smsGateway, scheduledSmsWriter{ownerUserID}, smsHistoryWriter{ownerUserID})

	outcome, err := engine.Dispatch(r.Context(), recipients, data.Message, dispatch.Options{
		ScheduledAt: scheduledAt,
		Contacts:    contacts,
	})
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: outcome.Failed == 0, Data: outcome})
}

func fetchSmsHistory(rw http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}

	records, paging, err := models.FetchSmsHistory(requestUserID(r), page)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{
		"records": records,
		"paging":  paging,
	}})
}

func refreshDeliveryStatus(rw http.ResponseWriter, r *http.Request) {
	data := struct {
		MessageID string `json:"message_id"`
	}{}

	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	if data.MessageID == "" {
		writeResponse(rw, ResponsePayload{Errors: []string{"'message_id' is required"}}, http.StatusBadRequest)
		return
	}

	deliveryStatus, providerResponse, err := smsGateway.Status(r.Context(), data.MessageID)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadGateway)
		return
	}

	err = models.UpdateDeliveryStatus(data.MessageID, string(deliveryStatus))
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]interface{}{
		"message_id":        data.MessageID,
		"delivery_status":   deliveryStatus,
		"provider_response": providerResponse,
	}})
}

// ---------------------------------------------------------------------------------//
// Scheduled SMS
// --------------------------------------------------------------------------------//

func fetchScheduledSms(rw http.ResponseWriter, r *http.Request) {
	scheduled, err := models.FetchScheduledSms(requestUserID(r))
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: scheduled})
}

func deleteScheduledSms(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	err := models.DeleteScheduledSms(vars["id"], requestUserID(r))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"scheduled message not found"}}, http.StatusNotFound)
		return
	}

	if errors.Is(err, models.ErrNotPending) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusConflict)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

// ---------------------------------------------------------------------------------//
// Handler helpers
// --------------------------------------------------------------------------------//

// resolveRecipients turns the request's recipient source into a normalized,
// deduplicated phone list plus the contacts used for personalization.
// Exactly one source is read, in order: group, single contact, free text.
func resolveRecipients(recipientsText string, contactID, groupID uint) ([]string, []dispatch.Contact, error) {
	if groupID != 0 {
		members, err := models.ListMembers(groupID)
		if err != nil {
			return nil, nil, err
		}

		recipients := make([]string, 0, len(members))
		for _, member := range members {
			recipients = append(recipients, member.Phone)
		}

		return recipients, dispatchContacts(members), nil
	}

	if contactID != 0 {
		contact, err := models.FindContactBy("id", contactID)
		if err != nil {
			return nil, nil, err
		}

		return []string{contact.Phone}, dispatchContacts([]models.Contact{*contact}), nil
	}

	recipients := []string{}
	seen := map[string]bool{}
	for _, line := range strings.FieldsFunc(recipientsText, func(r rune) bool { return r == '\n' || r == ',' }) {
		digits, ok := phone.Normalize(line)
		if !ok || seen[digits] {
			continue
		}

		seen[digits] = true
		recipients = append(recipients, digits)
	}

	contacts, err := models.ContactsByPhones(recipients)
	if err != nil {
		return nil, nil, err
	}

	return recipients, dispatchContacts(contacts), nil
}

func dispatchContacts(contacts []models.Contact) []dispatch.Contact {
	result := make([]dispatch.Contact, 0, len(contacts))
	for _, contact := range contacts {
		result = append(result, dispatch.Contact{
			FirstName: contact.FirstName,
			LastName:  contact.LastName,
			Phone:     contact.Phone,
		})
	}

	return result
}

func requestUserID(r *http.Request) uint {
	id, err := strconv.ParseUint(requestClaims(r).Subject, 10, 64)
	if err != nil {
		return 0
	}

	return uint(id)
}

func isDuplicateErrMsg(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique") || strings.Contains(msg, "23505")
}

// manageableGroup loads the group in the route & enforces write access.
// On failure the response has already been written.
func manageableGroup(rw http.ResponseWriter, r *http.Request) (*models.ContactList, bool) {
	group, ok := visibleGroup(rw, r)
	if !ok {
		return nil, false
	}

	if !auth.CanManageList(requestClaims(r), group, requestUserID(r)) {
		writeResponse(rw, ResponsePayload{Errors: []string{"action is forbidden"}}, http.StatusForbidden)
		return nil, false
	}

	return group, true
}

func visibleGroup(rw http.ResponseWriter, r *http.Request) (*models.ContactList, bool) {
	group, err := models.FindContactList(mux.Vars(r)["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"group not found"}}, http.StatusNotFound)
		return nil, false
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return nil, false
	}

	if !group.IsGlobal && group.OwnerUserID != requestUserID(r) {
		writeResponse(rw, ResponsePayload{Errors: []string{"group not found"}}, http.StatusNotFound)
		return nil, false
	}

	return group, true
}
