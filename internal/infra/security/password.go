package security

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"press-subscription/internal/domain/ports/adapter"
)

var _ adapter.PasswordHasher = (*BcryptHasher)(nil)

// bcrypt only looks at the first 72 bytes of input.
const bcryptMaxBytes = 72

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher uses bcrypt.DefaultCost when cost is out of range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(truncate(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncate(password)) == nil
}

// truncate cuts to 72 bytes without splitting a UTF-8 sequence.
func truncate(password string) []byte {
	b := []byte(password)
	if len(b) <= bcryptMaxBytes {
		return b
	}
	b = b[:bcryptMaxBytes]
	for len(b) > 0 && !utf8.Valid(b) {
		b = b[:len(b)-1]
	}
	return b
}
