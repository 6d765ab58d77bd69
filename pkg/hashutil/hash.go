package hashutil

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	errEmptyChecksum       = errors.New("empty checksum string")
	errUnsupportedEncoding = errors.New("unsupported checksum encoding")
)

// HexSHA256 returns the lowercase hex SHA-256 digest of data. Archive content
// hashes are always produced by this function.
func HexSHA256(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// DecodeSHA256String attempts to decode the provided checksum string which may be
// hex-encoded or base64/base64url-encoded. Surrounding quotes, as found in HTTP
// entity tags, are stripped first.
func DecodeSHA256String(s string) ([]byte, error) {
	clean := strings.Trim(strings.TrimSpace(s), `"`)
	if clean == "" {
		return nil, errEmptyChecksum
	}

	if decoded, err := hex.DecodeString(clean); err == nil && len(decoded) == sha256.Size {
		return decoded, nil
	}

	base64Variants := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}

	for _, enc := range base64Variants {
		if decoded, err := enc.DecodeString(clean); err == nil && len(decoded) == sha256.Size {
			return decoded, nil
		}
	}

	return nil, errUnsupportedEncoding
}

// EqualSHA256 reports whether the provided checksum string (hex or base64) matches
// the digest of data.
func EqualSHA256(expected string, data []byte) bool {
	decoded, err := DecodeSHA256String(expected)
	if err != nil {
		return false
	}

	actual := sha256.Sum256(data)

	return subtle.ConstantTimeCompare(decoded, actual[:]) == 1
}
