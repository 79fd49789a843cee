package settlement

import "styledecor/utils"

// TrackingPrefix is the fixed customer-facing prefix on tracking codes.
const TrackingPrefix = "SD-"

const trackingSuffixLen = 6

// GenerateTrackingID issues a customer-facing tracking code: the fixed
// prefix plus 6 characters from the 36-symbol uppercase alphanumeric
// alphabet. Collisions are not checked here; the payments unique index
// anchors correctness on transactionId, not on this code.
func GenerateTrackingID() string {
	return TrackingPrefix + utils.GenerateTrackingSuffix(trackingSuffixLen)
}
