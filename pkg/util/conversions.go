package util

import (
	"fmt"
	"strconv"
	"time"
)

// Discord epoch: first second of 2015, in milliseconds.
const discordEpochMs = 1420070400000

// Uint64ToString converts uint64 to string
func Uint64ToString(n uint64) string {
	return strconv.FormatUint(n, 10)
}

// StringToUint64 converts string to uint64
func StringToUint64(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse uint64: %w", err)
	}
	return n, nil
}

// SnowflakeTime extracts the creation timestamp embedded in a Discord
// snowflake ID. Returns the zero time for unparseable IDs.
func SnowflakeTime(id string) time.Time {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return time.Time{}
	}
	ms := int64(n>>22) + discordEpochMs
	return time.UnixMilli(ms)
}
