// Package tokens implements the single-use, time-boxed token mechanism
// shared by email verification and password reset. The plaintext value is
// handed to the caller exactly once for out-of-band delivery; only its
// SHA-256 digest is ever stored, so a read-only database compromise cannot
// forge a verification or reset action.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Purpose selects which token slot on an account is being issued or
// consumed.
type Purpose string

const (
	PurposeVerification Purpose = "verification"
	PurposeReset        Purpose = "reset"
)

// Expiry windows per purpose. Verification links travel by email and are
// expected to be clicked within a day; reset tokens guard a live credential
// change and stay deliberately short.
const (
	VerificationTTL = 24 * time.Hour
	ResetTTL        = 10 * time.Minute
)

// entropyBytes is the raw entropy per token; hex-encoded to 40 characters.
const entropyBytes = 20

// Issued carries the one-time plaintext together with the storable hash and
// absolute expiry.
type Issued struct {
	Plaintext string
	Hash      string
	ExpiresAt time.Time
}

// Issue generates a new random token for the given purpose.
func Issue(p Purpose) (Issued, error) {
	b := make([]byte, entropyBytes)
	if _, err := rand.Read(b); err != nil {
		return Issued{}, fmt.Errorf("generate token: %w", err)
	}
	plain := hex.EncodeToString(b)
	return Issued{
		Plaintext: plain,
		Hash:      Hash(plain),
		ExpiresAt: time.Now().Add(TTL(p)),
	}, nil
}

// Hash derives the at-rest form of a presented plaintext token.
func Hash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// TTL returns the expiry window for a purpose.
func TTL(p Purpose) time.Duration {
	if p == PurposeReset {
		return ResetTTL
	}
	return VerificationTTL
}
