// internal/pkg/auth/password.go
package auth

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"golang.org/x/crypto/bcrypt"
)

var commonPasswords = []string{
	"password", "123456", "qwerty", "letmein", "welcome",
	"monkey", "dragon", "football", "admin",
}

// PasswordManager handles password operations
type PasswordManager struct {
	cost int
}

func NewPasswordManager(cfg *config.Config) *PasswordManager {
	cost := cfg.Security.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordManager{cost: cost}
}

// HashPassword validates strength and hashes with bcrypt.
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := p.ValidatePassword(password); err != nil {
		return "", err
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// VerifyPassword verifies a password against its hash
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword validates password strength
func (p *PasswordManager) ValidatePassword(password string) error {
	if len(password) < 8 {
		return apperror.Validation("password must be at least 8 characters long")
	}
	if len(password) > 72 {
		// bcrypt ignores everything past 72 bytes
		return apperror.Validation("password must be no more than 72 characters long")
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return apperror.Validation("password must contain at least one uppercase letter")
	case !hasLower:
		return apperror.Validation("password must contain at least one lowercase letter")
	case !hasNumber:
		return apperror.Validation("password must contain at least one number")
	case !hasSpecial:
		return apperror.Validation("password must contain at least one special character")
	}

	return checkCommonPatterns(password)
}

func checkCommonPatterns(password string) error {
	lower := strings.ToLower(password)

	for _, common := range commonPasswords {
		if strings.Contains(lower, common) {
			return apperror.Validation("password is too common and easily guessable")
		}
	}

	runes := []rune(lower)
	for i := 2; i < len(runes); i++ {
		a, b, c := runes[i-2], runes[i-1], runes[i]
		if a == b && b == c {
			return apperror.Validation("password cannot contain more than 2 repeating characters")
		}
		if b == a+1 && c == b+1 && (unicode.IsLetter(a) || unicode.IsDigit(a)) {
			return apperror.Validation("password cannot contain sequential characters")
		}
	}

	return nil
}
