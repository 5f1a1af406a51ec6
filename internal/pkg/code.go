package pkg

import (
	cryptoRand "crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

func NewID() string {
	return uuid.NewString()
}

// NewGroupID wag-<毫秒时间戳>，带随机后缀防止同一毫秒冲突
func NewGroupID(now time.Time) string {
	suffix, err := RandDigits(3)
	if err != nil {
		return fmt.Sprintf("wag-%d", now.UnixMilli())
	}
	return fmt.Sprintf("wag-%d%s", now.UnixMilli(), suffix)
}

func RandDigits(n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		x, err := cryptoRand.Int(cryptoRand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + x.Int64()))
	}
	return b.String(), nil
}
