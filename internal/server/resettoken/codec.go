// Package resettoken encodes stateless password-reset tokens.
//
// A token is the standard base64 encoding of "{userID}:{ticks}", where ticks
// counts 100ns intervals since 0001-01-01 UTC. Tokens are neither signed nor
// encrypted and nothing is persisted: validity depends only on the token
// contents and the current time.
package resettoken

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
)

// DefaultWindow is how long a token stays valid after issuance.
const DefaultWindow = time.Hour

const (
	// ticksAtUnixEpoch is the tick count of 1970-01-01T00:00:00Z.
	ticksAtUnixEpoch int64 = 621355968000000000
	// maxTicks is the tick count of 9999-12-31T23:59:59.9999999Z.
	maxTicks int64 = 3155378975999999999

	ticksPerSecond = int64(time.Second / 100)
)

// Ticks converts t to 100ns intervals since 0001-01-01 UTC.
func Ticks(t time.Time) int64 {
	return t.Unix()*ticksPerSecond + int64(t.Nanosecond())/100 + ticksAtUnixEpoch
}

// FromTicks is the inverse of Ticks, truncated to 100ns.
func FromTicks(ticks int64) time.Time {
	d := ticks - ticksAtUnixEpoch
	return time.Unix(d/ticksPerSecond, (d%ticksPerSecond)*100).UTC()
}

// Encode builds a token for userID issued at t.
func Encode(userID string, t time.Time) string {
	raw := userID + ":" + strconv.FormatInt(Ticks(t), 10)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Decode returns the user id and issuance time carried by token. Any decoding
// problem yields common.ErrMalformed.
func Decode(token string) (string, time.Time, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", time.Time{}, common.ErrMalformed
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 2 {
		return "", time.Time{}, common.ErrMalformed
	}

	ticks, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || ticks < ticksAtUnixEpoch || ticks > maxTicks {
		return "", time.Time{}, common.ErrMalformed
	}

	return parts[0], FromTicks(ticks), nil
}

// Valid reports whether token was issued for userID no more than window
// before now. Tokens dated after now are rejected. It never panics and
// returns false for malformed input.
func Valid(userID, token string, now time.Time, window time.Duration) bool {
	if userID == "" {
		return false
	}
	tokenUser, issued, err := Decode(token)
	if err != nil || tokenUser != userID {
		return false
	}
	elapsed := now.Sub(issued)
	return elapsed >= 0 && elapsed <= window
}
