package audit

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStoreSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	event := KeyEvent{
		Action:   ActionEncrypt,
		Username: "alice",
		KeyID:    1,
		ClientIP: "10.0.0.1",
		Success:  true,
	}

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			FacilityAuthPriv,  // facility
			int(SeverityInfo), // severity
			sqlmock.AnyArg(),  // timestamp
			sqlmock.AnyArg(),  // hostname
			"custody",         // appname
			sqlmock.AnyArg(),  // procid
			"encrypt",         // msgid
			sqlmock.AnyArg(),  // sdata (JSON)
			"alice encrypted with key 1",
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Save(event); err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreSaveFailedLogin(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	event := AccountEvent{
		Action:       ActionLogin,
		Username:     "mallory",
		ClientIP:     "10.0.0.9",
		ErrorMessage: "invalid credentials",
	}

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			FacilityAuthPriv,
			int(SeverityWarning), // failed events have warning severity
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			"custody",
			sqlmock.AnyArg(),
			"login",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Save(event); err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreSaveError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)
	boom := errors.New("relation \"messages\" does not exist")

	mock.ExpectExec(`INSERT INTO messages`).WillReturnError(boom)

	err = store.Save(AccountEvent{Action: ActionRegister, Username: "bob", Success: true})
	if !errors.Is(err, boom) {
		t.Errorf("Save() error = %v, want %v", err, boom)
	}
}

func TestStoreNilDB(t *testing.T) {
	store := &Store{db: nil}

	if err := store.Save(AccountEvent{Action: ActionRegister, Username: "bob", Success: true}); err != nil {
		t.Errorf("Save() with nil db should not error, got: %v", err)
	}
}

func TestStoreClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	store := NewStoreWithDB(db)

	mock.ExpectClose()

	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNewStoreWithoutURL(t *testing.T) {
	t.Setenv("AUDIT_DATABASE_URL", "")

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if store != nil {
		t.Error("expected nil store without AUDIT_DATABASE_URL")
	}
}
