package utils

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const passwordSpecialChars = "#?!@$%^&*-"

// ValidatePassword enforces the registration password policy: confirmation
// must match and the password needs at least 8 characters, an uppercase
// letter, a digit and a special character.
func ValidatePassword(password, confirmedPassword string) error {
	if password != confirmedPassword {
		return errors.New("passwords are not the same")
	}
	if len(password) < 8 {
		return errors.New("password must have at least 8 characters")
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		return errors.New("password must have at least one uppercase letter")
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return errors.New("password must have at least one number")
	}
	if !strings.ContainsAny(password, passwordSpecialChars) {
		return errors.New("password must have at least one special character")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
