package account

import (
	"fmt"
	"strconv"
	"strings"
)

// Display ids are the human-facing account codes: "CA" + zero-padded
// sequence, e.g. CA000042. Padding widens automatically past 999999.
const displayIDPrefix = "CA"

func FormatDisplayID(seq int) string {
	return fmt.Sprintf("%s%06d", displayIDPrefix, seq)
}

// ParseDisplayID extracts the sequence number, rejecting anything that is
// not prefix + digits.
func ParseDisplayID(displayID string) (int, error) {
	if !strings.HasPrefix(displayID, displayIDPrefix) {
		return 0, fmt.Errorf("malformed display id %q", displayID)
	}
	seq, err := strconv.Atoi(displayID[len(displayIDPrefix):])
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("malformed display id %q", displayID)
	}
	return seq, nil
}
