package utils

import (
	rndm "math/rand"
	"strings"

	"github.com/google/uuid"
)

var trackingRunes = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// GenerateTrackingSuffix creates a random string of length n drawn from
// the 36-symbol uppercase alphanumeric alphabet.
func GenerateTrackingSuffix(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = trackingRunes[rndm.Intn(len(trackingRunes))]
	}
	return string(b)
}

func GetUUID() string {
	return uuid.NewString()
}

// RegexEscape backslash-escapes regex metacharacters so user input can sit
// inside a Mongo regex filter.
func RegexEscape(s string) string {
	special := `\.+*?()|[]{}^$`
	var b strings.Builder
	for _, c := range s {
		if strings.ContainsRune(special, c) {
			b.WriteRune('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
