package audit

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)
	logger.hostname = "custody-host"
	logger.pid = 42
	logger.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	logger.Log(AccountEvent{
		Action:    ActionLogin,
		Username:  "alice",
		ClientIP:  "192.168.1.1",
		RequestID: "req-1",
		Success:   true,
	})

	// facility 10 * 8 + severity 6
	want := `<86>1 2024-05-01T12:00:00.000Z custody-host custody 42 login ` +
		`[action@32473 operation="login" result="success"]` +
		`[auth@32473 user="alice"]` +
		`[client@32473 ip="192.168.1.1" request="req-1"] alice logged in` + "\n"

	if got := buf.String(); got != want {
		t.Errorf("Log() =\n%q\nwant\n%q", got, want)
	}
}

func TestLoggerUnknownHostname(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)
	logger.hostname = ""

	logger.Log(KeyEvent{Action: ActionGenerate, Username: "alice", Success: true})

	fields := strings.Fields(buf.String())
	if len(fields) < 8 {
		t.Fatalf("unexpected record %q", buf.String())
	}
	if fields[2] != "-" {
		t.Errorf("hostname = %q, want '-'", fields[2])
	}
	if fields[3] != AppName {
		t.Errorf("app name = %q, want %q", fields[3], AppName)
	}
	if !strings.HasPrefix(fields[0], "<86>1") {
		t.Errorf("priority = %q, want <86>1", fields[0])
	}
}

func TestEscapeSDValue(t *testing.T) {
	tests := map[string]string{
		`plain`:      `"plain"`,
		`quo"te`:     `"quo\"te"`,
		`back\slash`: `"back\\slash"`,
		`brack]et`:   `"brack\]et"`,
	}
	for in, want := range tests {
		if got := escapeSDValue(in); got != want {
			t.Errorf("escapeSDValue(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAccountEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     AccountEvent
		wantMsg   string
		wantSev   Severity
		wantMsgID string
	}{
		{
			name:      "registered",
			event:     AccountEvent{Action: ActionRegister, Username: "bob", Success: true},
			wantMsg:   "bob registered",
			wantSev:   SeverityInfo,
			wantMsgID: "register",
		},
		{
			name:      "duplicate registration",
			event:     AccountEvent{Action: ActionRegister, Username: "bob", ErrorMessage: "username already exists"},
			wantMsg:   "bob failed to register: username already exists",
			wantSev:   SeverityWarning,
			wantMsgID: "register",
		},
		{
			name:      "failed login",
			event:     AccountEvent{Action: ActionLogin, Username: "bob", ErrorMessage: "invalid credentials"},
			wantMsg:   "bob failed to login: invalid credentials",
			wantSev:   SeverityWarning,
			wantMsgID: "login",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Message(); got != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", got, tt.wantMsg)
			}
			if tt.event.Severity() != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", tt.event.Severity(), tt.wantSev)
			}
			if tt.event.MessageID() != tt.wantMsgID {
				t.Errorf("MessageID() = %v, want %v", tt.event.MessageID(), tt.wantMsgID)
			}
		})
	}
}

func TestKeyEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   KeyEvent
		wantMsg string
		wantSev Severity
	}{
		{
			name:    "generated",
			event:   KeyEvent{Action: ActionGenerate, Username: "alice", KeyID: 1, Success: true},
			wantMsg: "alice generated key 1",
			wantSev: SeverityInfo,
		},
		{
			name:    "generate failed",
			event:   KeyEvent{Action: ActionGenerate, Username: "alice", ErrorMessage: "internal error"},
			wantMsg: "alice tried to generate a key: internal error",
			wantSev: SeverityWarning,
		},
		{
			name:    "encrypted",
			event:   KeyEvent{Action: ActionEncrypt, Username: "alice", KeyID: 2, Success: true},
			wantMsg: "alice encrypted with key 2",
			wantSev: SeverityInfo,
		},
		{
			name:    "decrypt with foreign key",
			event:   KeyEvent{Action: ActionDecrypt, Username: "bob", KeyID: 2, ErrorMessage: "key not found"},
			wantMsg: "bob tried to decrypt with key 2: key not found",
			wantSev: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Message(); got != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", got, tt.wantMsg)
			}
			if tt.event.Severity() != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", tt.event.Severity(), tt.wantSev)
			}
		})
	}
}

func TestKeyEventStructuredData(t *testing.T) {
	sd := KeyEvent{Action: ActionDecrypt, Username: "alice", KeyID: 9, ClientIP: "10.0.0.1"}.StructuredData()

	if sd[SDIDSubject]["key"] != "9" {
		t.Errorf("subject key = %q, want '9'", sd[SDIDSubject]["key"])
	}
	if sd[SDIDAction]["result"] != "failure" {
		t.Errorf("result = %q, want 'failure'", sd[SDIDAction]["result"])
	}
	if _, ok := sd[SDIDClient]["request"]; ok {
		t.Error("request id should be omitted when empty")
	}

	sd = KeyEvent{Action: ActionGenerate, Username: "alice"}.StructuredData()
	if _, ok := sd[SDIDSubject]; ok {
		t.Error("subject should be omitted without a key id")
	}
}

func TestActionEnum(t *testing.T) {
	for _, a := range ActionValues() {
		parsed, err := ActionString(a.String())
		if err != nil {
			t.Fatalf("ActionString(%q): %v", a.String(), err)
		}
		if parsed != a {
			t.Errorf("ActionString(%q) = %v, want %v", a.String(), parsed, a)
		}
	}
	if _, err := ActionString("delete"); err == nil {
		t.Error("expected error for unknown action")
	}
	if Action(99).IsAAction() {
		t.Error("Action(99) should not be valid")
	}
}

func TestLogDisabled(t *testing.T) {
	var buf bytes.Buffer
	prev := DefaultLogger
	DefaultLogger = NewLogger()
	DefaultLogger.SetWriter(&buf)
	t.Cleanup(func() {
		DefaultLogger = prev
		SetEnabled(true)
	})

	SetEnabled(false)
	Log(AccountEvent{Action: ActionLogin, Username: "alice", Success: true})
	if buf.Len() != 0 {
		t.Errorf("expected no output when disabled, got %q", buf.String())
	}
}
