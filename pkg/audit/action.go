package audit

//go:generate go run github.com/dmarkham/enumer -type Action -trimprefix Action -transform lower -json -output action.gen.go

// Action is the operation an audit event records. Its string form is the
// RFC5424 MSGID.
type Action int

const (
	ActionRegister Action = iota
	ActionLogin
	ActionGenerate
	ActionEncrypt
	ActionDecrypt
)

// Verb is the past-tense form used in messages.
func (a Action) Verb() string {
	switch a {
	case ActionRegister:
		return "registered"
	case ActionLogin:
		return "logged in"
	case ActionGenerate:
		return "generated"
	case ActionEncrypt:
		return "encrypted with"
	case ActionDecrypt:
		return "decrypted with"
	default:
		return a.String()
	}
}
