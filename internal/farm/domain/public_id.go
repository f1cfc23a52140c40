package domain

import (
	"encoding/binary"
	"regexp"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
)

const (
	publicIDPrefix    = "LOT-"
	publicIDSuffixLen = 6
)

var publicIDPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{2,63}$`)

// ValidPublicID reports whether id is an acceptable external lot identifier.
func ValidPublicID(id string) bool {
	return publicIDPattern.MatchString(id)
}

// NewPublicID returns "LOT-" followed by six base36 characters.
func NewPublicID() string {
	id := ulid.Make()
	entropy := id.Entropy()
	n := binary.BigEndian.Uint64(entropy[len(entropy)-8:])

	suffix := strings.ToUpper(strconv.FormatUint(n, 36))
	if len(suffix) < publicIDSuffixLen {
		suffix = strings.Repeat("0", publicIDSuffixLen-len(suffix)) + suffix
	}
	return publicIDPrefix + suffix[len(suffix)-publicIDSuffixLen:]
}

// SeedPublicID derives the deterministic public id used for demo lots.
func SeedPublicID(farmName string, n int) string {
	compact := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return -1
		}
	}, strings.ToUpper(farmName))
	return publicIDPrefix + compact + "-" + strconv.Itoa(n)
}
