package models

import (
	"fmt"

	sqlite "github.com/Daskott/gorm-sqlite-cipher"
	"github.com/nusely/CFLSMS/shared"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var db *gorm.DB

// Initialize opens the configured store & migrates the schema. Postgres is
// the hosted production store; encrypted sqlite serves dev setups.
func Initialize(config shared.DatabaseConfig) error {
	var err error

	switch config.Driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(config.Dsn), &gorm.Config{})
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(sqliteDsn(config.Dsn, config.PassPhrase)), &gorm.Config{})
	default:
		return fmt.Errorf("unsupported database driver: %v", config.Driver)
	}

	if err != nil {
		return errors.Wrapf(err, "unable to connect to %v database", config.Driver)
	}

	return AutoMigrate()
}

// InitializeTestDb swaps in an in-memory sqlite db for package tests.
func InitializeTestDb() {
	var err error

	db, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("unable to open test database: %v", err))
	}

	// Start from a clean slate on every call
	db.Migrator().DropTable(&Profile{}, &Contact{}, &ContactList{}, &ContactListMember{}, &ScheduledSms{}, &SmsHistory{})

	if err := AutoMigrate(); err != nil {
		panic(err)
	}
}

func AutoMigrate() error {
	return db.AutoMigrate(
		&Profile{},
		&Contact{},
		&ContactList{},
		&ContactListMember{},
		&ScheduledSms{},
		&SmsHistory{},
	)
}

func sqliteDsn(path, passPhrase string) string {
	if path == "" {
		path = "cflsms.db"
	}

	if passPhrase == "" {
		return path
	}

	return fmt.Sprintf("%v?_pragma_key=%v&_pragma_cipher_page_size=4096", path, passPhrase)
}
