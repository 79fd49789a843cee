package settlement

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var trackingPattern = regexp.MustCompile(`^SD-[A-Z0-9]{6}$`)

func TestGenerateTrackingIDFormat(t *testing.T) {
	for i := 0; i < 500; i++ {
		id := GenerateTrackingID()
		assert.True(t, trackingPattern.MatchString(id), "unexpected tracking id %q", id)
	}
}
