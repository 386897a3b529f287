package order

import (
	"encoding/base32"
	"encoding/binary"
	"errors"
	"strings"

	"github.com/noah-isme/backend-sewa/internal/common"
)

// ErrBadCode is returned when a public order code cannot be decoded.
var ErrBadCode = errors.New("order: malformed public code")

const codePrefix = "SW"

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Codec maps sequential order ids to opaque public codes so references shared
// over chat or printed on receipts do not leak order volume.
type Codec struct {
	Key uint64
}

// Encode obfuscates the id and renders it as a short uppercase code with a
// trailing checksum.
func (c Codec) Encode(id int64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id)^c.Key)
	body := codeEncoding.EncodeToString(buf[:])
	check := strings.ToUpper(common.Sha256Hex(body)[:2])
	return codePrefix + body + check
}

// Decode reverses Encode, validating the checksum before unmasking the id.
func (c Codec) Decode(code string) (int64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	// prefix + 13 base32 chars for 8 bytes + 2 checksum chars
	if len(code) != len(codePrefix)+13+2 || !strings.HasPrefix(code, codePrefix) {
		return 0, ErrBadCode
	}
	body := code[len(codePrefix) : len(codePrefix)+13]
	check := code[len(codePrefix)+13:]
	if strings.ToUpper(common.Sha256Hex(body)[:2]) != check {
		return 0, ErrBadCode
	}
	raw, err := codeEncoding.DecodeString(body)
	if err != nil || len(raw) != 8 {
		return 0, ErrBadCode
	}
	id := int64(binary.BigEndian.Uint64(raw) ^ c.Key)
	if id <= 0 {
		return 0, ErrBadCode
	}
	return id, nil
}
