package pkg

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	BcryptCost       = 12
	legacyIterations = 1000
	legacyKeyLen     = 64
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 兼容 bcrypt 和旧版 "salt:hex" PBKDF2-SHA256 哈希
func VerifyPassword(password, stored string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}

	salt, want, ok := strings.Cut(stored, ":")
	if !ok || salt == "" || want == "" {
		return false
	}
	wantBytes, err := hex.DecodeString(want)
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), []byte(salt), legacyIterations, len(wantBytes), sha256.New)
	return subtle.ConstantTimeCompare(got, wantBytes) == 1
}

// LegacyHash 生成旧格式哈希，只给迁移和测试用
func LegacyHash(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), legacyIterations, legacyKeyLen, sha256.New)
	return salt + ":" + hex.EncodeToString(key)
}
