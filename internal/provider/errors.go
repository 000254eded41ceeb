package provider

// Code classifies a provider failure.
type Code string

const (
	CodeInvalidCredentials Code = "invalid-credentials"
	CodeAccountExists      Code = "account-exists"
	CodeWeakCredential     Code = "weak-credential"
	CodeNetworkUnavailable Code = "network-unavailable"
	CodeNoCurrentUser      Code = "no-current-user"
	CodeInvalidArgument    Code = "invalid-argument"
	CodeUnknown            Code = "unknown"
)

// Sentinels for errors.Is. Any *Error with the same Code matches.
var (
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid email or password"}
	ErrAccountExists      = &Error{Code: CodeAccountExists, Message: "an account already exists for this email"}
	ErrWeakCredential     = &Error{Code: CodeWeakCredential, Message: "password is too weak"}
	ErrNetworkUnavailable = &Error{Code: CodeNetworkUnavailable, Message: "identity provider is unreachable"}
	ErrNoCurrentUser      = &Error{Code: CodeNoCurrentUser, Message: "no user is signed in"}
	ErrInvalidArgument    = &Error{Code: CodeInvalidArgument, Message: "email or password is malformed"}
	ErrUnknown            = &Error{Code: CodeUnknown, Message: "unknown identity provider error"}
)

// Error is a provider failure. Message is suitable for display.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// NewError creates an Error with code, keeping message and the cause.
func NewError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
