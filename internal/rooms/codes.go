package rooms

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Base-36, upper case.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const codeLength = 4

func GenerateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code), nil
}

// ValidCode reports whether code has the generated shape: four characters
// from the code alphabet.
func ValidCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

// NormalizeCode trims and upper-cases a client-supplied room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
