package secrets

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// Одноразовые секреты приглашений: наружу уходит hex-строка,
// в сторе остаётся только argon2-хэш.

const salt = "atrium-invite"

// New выпускает 32-байтовый секрет и его hex-кодировку для выдачи клиенту.
func New() (raw []byte, encoded string) {
	var b [32]byte
	_, _ = rand.Read(b[:])
	return b[:], hex.EncodeToString(b[:])
}

func Hash(secret []byte) []byte {
	return argon2.IDKey(secret, []byte(salt), 1, 64*1024, 1, 32)
}

// Verify сравнивает за постоянное время относительно длины хэша.
func Verify(secretHash, candidate []byte) bool {
	h := Hash(candidate)
	if len(h) != len(secretHash) {
		return false
	}
	ok := true
	for i := range h {
		ok = ok && (h[i] == secretHash[i])
	}
	return ok
}
