package service

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const reportCodeSuffixLen = 5

// GenerateReportCode строит код вида WR-<время base36>-<случайный суффикс base36>
func GenerateReportCode(now time.Time) string {
	timestamp := strconv.FormatInt(now.UnixMilli(), 36)
	return strings.ToUpper("WR-" + timestamp + "-" + randomBase36(reportCodeSuffixLen))
}

func randomBase36(n int) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand на поддерживаемых платформах не возвращает ошибку
			idx = big.NewInt(int64(time.Now().UnixNano() % int64(len(alphabet))))
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b)
}
