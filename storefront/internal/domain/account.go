package domain

import "fmt"

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}

type Registration struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileUpdate struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// BackendError is a non-2xx answer from the orders service. Message is only
// set when the service sent one meant for the user; Reason is its error text.
type BackendError struct {
	StatusCode int
	Code       string
	Reason     string
	Message    string
}

func (e *BackendError) Error() string {
	text := e.Message
	if text == "" {
		text = e.Reason
	}
	return fmt.Sprintf("orders service returned %d: %s", e.StatusCode, text)
}
