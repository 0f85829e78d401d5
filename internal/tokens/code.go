package tokens

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeCharset is the alphabet for confirmation codes: digits plus upper and
// lower case letters. Codes are compared case-sensitively.
const codeCharset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewConfirmationCode generates a random alphanumeric code of exactly the
// given length using crypto/rand. Each character is drawn independently, so
// the charset bias of modulo reduction is avoided via rand.Int.
func NewConfirmationCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length: %d", length)
	}

	max := big.NewInt(int64(len(codeCharset)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate confirmation code: %w", err)
		}
		code[i] = codeCharset[n.Int64()]
	}

	return string(code), nil
}
