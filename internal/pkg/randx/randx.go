/*
Package randx provides identifier generation and name validation helpers.

Connection and message identifiers are UUID v4 strings. Name validation covers
usernames and group names supplied by chat clients.
*/
package randx

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxUsernameLength is the maximum number of runes in a username.
	MaxUsernameLength = 20

	// MaxGroupNameLength is the maximum number of runes in a group name.
	MaxGroupNameLength = 32

	// MaxSignatureLength is the maximum number of runes in a profile signature.
	MaxSignatureLength = 100
)

// ConnectionID generates a UUID v4 string identifying one live connection.
func ConnectionID() string {
	return uuid.New().String()
}

// MessageID generates a standard UUID v4 string to serve as a unique identifier for a message.
func MessageID() string {
	return uuid.New().String()
}

// IsValidUsername checks a client-chosen username.
// It must be 1 to MaxUsernameLength runes, valid UTF-8, carry no leading or
// trailing whitespace, and contain only letters, digits, marks, spaces, '_', '-' and '.'.
func IsValidUsername(name string) bool {
	return isValidName(name, MaxUsernameLength)
}

// IsValidGroupName checks a client-chosen group name using the username
// character rules and MaxGroupNameLength.
func IsValidGroupName(name string) bool {
	return isValidName(name, MaxGroupNameLength)
}

func isValidName(name string, maxLen int) bool {
	if name == "" || !utf8.ValidString(name) {
		return false
	}

	if strings.TrimSpace(name) != name {
		return false
	}

	if utf8.RuneCountInString(name) > maxLen {
		return false
	}

	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
		case r == ' ', r == '_', r == '-', r == '.':
		default:
			return false
		}
	}

	return true
}

// IsValidSignature checks the free-text profile signature.
func IsValidSignature(signature string) bool {
	if !utf8.ValidString(signature) {
		return false
	}

	if utf8.RuneCountInString(signature) > MaxSignatureLength {
		return false
	}

	for _, r := range signature {
		if unicode.IsControl(r) {
			return false
		}
	}

	return true
}
