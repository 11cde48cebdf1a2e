package models

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	SUPERADMIN_ROLE = "superadmin"
	ADMIN_ROLE      = "admin"
)

var profileFieldsExceptPassword = []string{
	"id",
	"email",
	"role",
	"created_at",
	"updated_at",
}

// Profile is an administrator account. Roles are trusted as given by the
// auth layer; 'superadmin' is the only privileged role.
type Profile struct {
	BaseModel
	Email    string `json:"email" validate:"required,email" gorm:"not null;unique"`
	Role     string `json:"role" gorm:"not null;default:admin"`
	Password string `json:"password,omitempty" validate:"required,password" gorm:"not null"`
}

func (profile *Profile) IsSuperadmin() bool {
	return profile.Role == SUPERADMIN_ROLE
}

func CreateProfile(profile *Profile) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(profile.Password), 14)
	if err != nil {
		return err
	}
	profile.Password = string(passwordHash)

	if profile.Role == "" {
		profile.Role = ADMIN_ROLE
	}

	return db.Create(profile).Error
}

func FindProfileBy(field string, value interface{}) (*Profile, error) {
	profile := Profile{}
	err := db.Select(profileFieldsExceptPassword).First(&profile, fmt.Sprintf("%v = ?", field), value).Error
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func FindProfilePassword(email string) (string, error) {
	profile := Profile{}
	err := db.Select("Password").First(&profile, "email = ?", email).Error
	if err != nil {
		return "", err
	}

	return profile.Password, nil
}

func FetchProfiles() ([]Profile, error) {
	profiles := []Profile{}
	err := db.Select(profileFieldsExceptPassword).Order("created_at desc").Find(&profiles).Error
	if err != nil {
		return nil, err
	}

	return profiles, nil
}

func UpdateProfileRole(id interface{}, role string) error {
	if role != SUPERADMIN_ROLE && role != ADMIN_ROLE {
		return fmt.Errorf("unknown role: %v", role)
	}

	return db.Model(&Profile{}).Where("id = ?", id).Update("role", role).Error
}

func DeleteProfile(id interface{}) error {
	return db.Delete(&Profile{}, id).Error
}

func AtLeastOneProfileExists() (bool, error) {
	err := db.First(&Profile{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
