// Package securekeys derives cookie signing and encryption keys from the
// configured session secret.
package securekeys

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key sizes expected by gorilla/securecookie: HMAC-SHA256 wants 64 bytes,
// AES-256 wants 32.
const (
	HashKeySize  = 64
	BlockKeySize = 32
)

// HKDF info strings. Changing any of these logs every user out.
var (
	infoHashKey  = []byte("blog.session.hash.v1")
	infoBlockKey = []byte("blog.session.block.v1")
)

// CookieKeys holds the derived key pair for a cookie store.
type CookieKeys struct {
	HashKey  []byte
	BlockKey []byte
}

// Pairs returns the keys in the order sessions.NewCookieStore expects.
func (k CookieKeys) Pairs() [][]byte {
	return [][]byte{k.HashKey, k.BlockKey}
}

// DeriveCookieKeys expands secret into independent hash and block keys.
func DeriveCookieKeys(secret string) (CookieKeys, error) {
	if secret == "" {
		return CookieKeys{}, fmt.Errorf("session secret is empty")
	}

	hashKey, err := derive([]byte(secret), infoHashKey, HashKeySize)
	if err != nil {
		return CookieKeys{}, err
	}
	blockKey, err := derive([]byte(secret), infoBlockKey, BlockKeySize)
	if err != nil {
		return CookieKeys{}, err
	}
	return CookieKeys{HashKey: hashKey, BlockKey: blockKey}, nil
}

func derive(secret, info []byte, size int) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, nil, info)
	key := make([]byte, size)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return key, nil
}
