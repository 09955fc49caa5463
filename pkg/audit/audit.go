package audit

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// SDID constants for structured data IDs (RFC5424).
// 32473 is the enterprise number RFC5612 reserves for documentation use.
const (
	SDIDAuth    = "auth@32473"
	SDIDSubject = "subject@32473"
	SDIDAction  = "action@32473"
	SDIDClient  = "client@32473"
)

// AppName is the APP-NAME field of every audit record
const AppName = "custody"

// FacilityAuthPriv is LOG_AUTHPRIV; every custody event is logged under it
const FacilityAuthPriv = 10

// Severity levels matching syslog (RFC5424).
// Successful operations are informational, failures are warnings.
type Severity int

const (
	SeverityWarning Severity = 4
	SeverityInfo    Severity = 6
)

// Event represents an audit event
type Event interface {
	MessageID() string
	Message() string
	Severity() Severity
	StructuredData() map[string]map[string]string
}

// Logger handles audit logging in RFC5424 syslog format
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	hostname string
	pid      int
	now      func() time.Time
}

// NewLogger creates a new audit logger writing to stdout
func NewLogger() *Logger {
	hostname, _ := os.Hostname()
	return &Logger{
		writer:   os.Stdout,
		hostname: hostname,
		pid:      os.Getpid(),
		now:      time.Now,
	}
}

// SetWriter sets the output writer for the logger
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// Log writes an audit event in RFC5424 syslog format
// Format: <PRI>VERSION TIMESTAMP HOSTNAME APP-NAME PROCID MSGID SD MSG
func (l *Logger) Log(event Event) {
	pri := FacilityAuthPriv*8 + int(event.Severity())
	timestamp := l.now().UTC().Format("2006-01-02T15:04:05.000Z")

	hostname := l.hostname
	if hostname == "" {
		hostname = "-"
	}

	logLine := fmt.Sprintf("<%d>1 %s %s %s %d %s %s %s\n",
		pri,
		timestamp,
		hostname,
		AppName,
		l.pid,
		event.MessageID(),
		formatStructuredData(event.StructuredData()),
		event.Message(),
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.writer.Write([]byte(logLine))
}

// formatStructuredData formats the structured data according to RFC5424.
// Elements and params are sorted so that output is stable.
// Format: [sdid param1="value1" param2="value2"][sdid2 ...]
func formatStructuredData(sd map[string]map[string]string) string {
	sdids := make([]string, 0, len(sd))
	for sdid := range sd {
		sdids = append(sdids, sdid)
	}
	sort.Strings(sdids)

	var b strings.Builder
	for _, sdid := range sdids {
		params := sd[sdid]
		keys := make([]string, 0, len(params))
		for key := range params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		b.WriteString("[" + sdid)
		for _, key := range keys {
			b.WriteString(" " + key + "=" + escapeSDValue(params[key]))
		}
		b.WriteString("]")
	}
	return b.String()
}

// escapeSDValue escapes special characters in structured data values per RFC5424
func escapeSDValue(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	value = strings.ReplaceAll(value, "]", "\\]")
	return "\"" + value + "\""
}

// DefaultLogger is the process-wide audit logger
var DefaultLogger = NewLogger()

// DefaultStore persists events when AUDIT_DATABASE_URL is set, nil otherwise
var DefaultStore *Store

// Audit is on by default and can be disabled with CUSTODY_AUDIT_ENABLED=false
var (
	enabledMu        sync.RWMutex
	auditEnabled     = true
	auditEnabledOnce sync.Once
	storeInitOnce    sync.Once
)

// IsEnabled returns whether audit logging is enabled
func IsEnabled() bool {
	auditEnabledOnce.Do(func() {
		if env := os.Getenv("CUSTODY_AUDIT_ENABLED"); env != "" {
			enabledMu.Lock()
			auditEnabled = env != "false" && env != "0" && env != "no"
			enabledMu.Unlock()
		}
	})
	enabledMu.RLock()
	defer enabledMu.RUnlock()
	return auditEnabled
}

// SetEnabled allows programmatic control of audit logging.
// It overrides CUSTODY_AUDIT_ENABLED.
func SetEnabled(enabled bool) {
	auditEnabledOnce.Do(func() {})
	enabledMu.Lock()
	auditEnabled = enabled
	enabledMu.Unlock()
}

// Log writes an event to the default logger and store (if audit is enabled)
func Log(event Event) {
	if !IsEnabled() {
		return
	}
	DefaultLogger.Log(event)

	storeInitOnce.Do(func() {
		var err error
		DefaultStore, err = NewStore()
		if err != nil {
			// audit DB is optional
			fmt.Fprintf(os.Stderr, "audit: failed to connect to audit database: %v\n", err)
		}
	})

	if DefaultStore != nil {
		if err := DefaultStore.Save(event); err != nil {
			fmt.Fprintf(os.Stderr, "audit: failed to save event: %v\n", err)
		}
	}
}
