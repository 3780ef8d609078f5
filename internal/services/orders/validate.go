package orders

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidTrackingNumber = errors.New("invalid tracking number")

var trackingNumberRe = regexp.MustCompile(`^[A-Z0-9-]{5,}$`)

// NormalizeTrackingNumber trims and uppercases s and checks the tracking number format:
// at least 5 of [A-Z0-9-], not starting or ending with a hyphen.
func NormalizeTrackingNumber(s string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if !trackingNumberRe.MatchString(v) || strings.HasPrefix(v, "-") || strings.HasSuffix(v, "-") {
		return "", ErrInvalidTrackingNumber
	}
	return v, nil
}
