package audit

import (
	"fmt"
	"strconv"
)

// AccountEvent records a registration or a login attempt
type AccountEvent struct {
	Action       Action // ActionRegister or ActionLogin
	Username     string
	ClientIP     string
	RequestID    string
	Success      bool
	ErrorMessage string
}

func (e AccountEvent) MessageID() string {
	return e.Action.String()
}

func (e AccountEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s %s", e.Username, e.Action.Verb())
	}
	msg := fmt.Sprintf("%s failed to %s", e.Username, e.Action)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AccountEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e AccountEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Username,
		},
		SDIDClient: clientData(e.ClientIP, e.RequestID),
		SDIDAction: {
			"operation": e.Action.String(),
			"result":    result(e.Success),
		},
	}
}

// KeyEvent records a key generation or a use of a key
type KeyEvent struct {
	Action       Action // ActionGenerate, ActionEncrypt or ActionDecrypt
	Username     string
	KeyID        int64
	ClientIP     string
	RequestID    string
	Success      bool
	ErrorMessage string
}

func (e KeyEvent) MessageID() string {
	return e.Action.String()
}

func (e KeyEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s %s key %d", e.Username, e.Action.Verb(), e.KeyID)
	}
	msg := fmt.Sprintf("%s tried to %s with key %d", e.Username, e.Action, e.KeyID)
	if e.Action == ActionGenerate {
		msg = fmt.Sprintf("%s tried to generate a key", e.Username)
	}
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e KeyEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e KeyEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.Username,
		},
		SDIDClient: clientData(e.ClientIP, e.RequestID),
		SDIDAction: {
			"operation": e.Action.String(),
			"result":    result(e.Success),
		},
	}
	if e.KeyID != 0 {
		sd[SDIDSubject] = map[string]string{
			"key": strconv.FormatInt(e.KeyID, 10),
		}
	}
	return sd
}

func clientData(ip, requestID string) map[string]string {
	data := map[string]string{"ip": ip}
	if requestID != "" {
		data["request"] = requestID
	}
	return data
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
