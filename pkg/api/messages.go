// Package api defines the wire messages of the identity service.
//
// Messages travel as JSON over the Connect protocol; see Codec.
package api

// User is the public view of an account.
type User struct {
	Id          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	CreatedAt   int64  `json:"createdAt,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

type SignUpResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName"`
}

type UpdateProfileResponse struct {
	User *User `json:"user"`
}

type SignOutRequest struct{}

type SignOutResponse struct{}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// ReasonHeader carries the machine-readable cause of an error, one of the
// Reason constants, in the error metadata.
const ReasonHeader = "Authflow-Reason"

const (
	ReasonInvalidCredentials = "invalid-credentials"
	ReasonAccountExists      = "account-exists"
	ReasonWeakCredential     = "weak-credential"
	ReasonInvalidArgument    = "invalid-argument"
)
