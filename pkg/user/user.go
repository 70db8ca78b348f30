package user

import "strings"

// User is the caller identity forwarded by the authenticating proxy.
type User struct {
	Email string
	Name  string
}

// DisplayName falls back to the local part of the email when no name was sent.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return strings.TrimSpace(u.Name)
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}
