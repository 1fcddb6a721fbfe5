package utils

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"strings"
)

const (
	lettersOnly      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lettersAndDigits = lettersOnly + "0123456789"
)

// RandomString returns a random string of the given length drawn from
// ASCII letters, plus digits when withDigits is true.
func RandomString(length int, withDigits bool) string {
	alphabet := lettersOnly
	if withDigits {
		alphabet = lettersAndDigits
	}

	var b strings.Builder
	b.Grow(length)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken
			b.WriteByte(alphabet[0])
			continue
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String()
}

// SignParams computes the WeChat JS-SDK style signature: parameters are
// sorted by key (ASCII order), joined as key=value pairs with '&', keys
// lowercased, and the result is SHA-1 hashed. Values are used raw, without
// URL escaping.
func SignParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", strings.ToLower(k), params[k]))
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(sum[:])
}
