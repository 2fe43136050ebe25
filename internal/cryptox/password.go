// Package cryptox implements password hashing for stored credentials.
//
// Hashes are argon2id keys rendered as "hex(key).hex(salt)", so a single TEXT
// column holds everything needed to verify a password later.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	saltSize = 16
	keySize  = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// DeriveKey stretches password with salt using argon2id.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, keySize)
}

// HashPassword derives a key from password and a fresh random salt and returns
// the storable "hash.salt" form.
func HashPassword(password string) string {
	salt := common.GenerateRandByteArray(saltSize)
	key := DeriveKey([]byte(password), salt)
	return hex.EncodeToString(key) + "." + hex.EncodeToString(salt)
}

// VerifyPassword recomputes the key for candidate with the salt kept in stored
// and compares both keys in constant time. A malformed stored value never verifies.
func VerifyPassword(stored, candidate string) bool {
	key, salt, err := splitHash(stored)
	if err != nil {
		return false
	}
	derived := DeriveKey([]byte(candidate), salt)
	defer common.WipeByteArray(derived)
	return subtle.ConstantTimeCompare(key, derived) == 1
}

func splitHash(stored string) (key, salt []byte, err error) {
	hexKey, hexSalt, ok := strings.Cut(stored, ".")
	if !ok || hexKey == "" || hexSalt == "" {
		return nil, nil, common.ErrorMalformedHash
	}
	if key, err = hex.DecodeString(hexKey); err != nil {
		return nil, nil, common.ErrorMalformedHash
	}
	if salt, err = hex.DecodeString(hexSalt); err != nil {
		return nil, nil, common.ErrorMalformedHash
	}
	if len(key) != keySize {
		return nil, nil, common.ErrorMalformedHash
	}
	return key, salt, nil
}
