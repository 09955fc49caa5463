package audit

import (
	"database/sql"
	"encoding/json"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

// Store persists audit records into the messages table of an audit database
type Store struct {
	db       *sql.DB
	hostname string
}

// Message is one row of the messages table
type Message struct {
	Facility  int            `json:"facility"`
	Severity  int            `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Hostname  string         `json:"hostname"`
	Appname   string         `json:"appname"`
	Procid    string         `json:"procid"`
	Msgid     string         `json:"msgid"`
	Sdata     map[string]any `json:"sdata"`
	Message   string         `json:"message"`
}

// NewStore creates a new audit store from AUDIT_DATABASE_URL.
// Returns nil if AUDIT_DATABASE_URL is not set (audit DB disabled).
func NewStore() (*Store, error) {
	dbURL := os.Getenv("AUDIT_DATABASE_URL")
	if dbURL == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	return NewStoreWithDB(db), nil
}

// NewStoreWithDB creates a store with an existing database connection
func NewStoreWithDB(db *sql.DB) *Store {
	hostname, _ := os.Hostname()
	return &Store{db: db, hostname: hostname}
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save persists an audit event
func (s *Store) Save(event Event) error {
	if s.db == nil {
		return nil
	}

	sdataJSON, err := json.Marshal(event.StructuredData())
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO messages (facility, severity, timestamp, hostname, appname, procid, msgid, sdata, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		FacilityAuthPriv,
		int(event.Severity()),
		time.Now().UTC(),
		s.hostname,
		AppName,
		strconv.Itoa(os.Getpid()),
		event.MessageID(),
		sdataJSON,
		event.Message(),
	)

	return err
}
