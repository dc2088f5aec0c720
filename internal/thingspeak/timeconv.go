package thingspeak

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const (
	utcLayout   = "2006-01-02T15:04:05Z"
	localLayout = "2006-01-02 15:04:05"
)

var taipei = mustLoadLocation("Asia/Taipei")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// tzdata is embedded, so this only fires on a broken build
		panic(fmt.Sprintf("load location %s: %v", name, err))
	}
	return loc
}

// LocalizeTimestamp converts a ThingSpeak UTC timestamp to Asia/Taipei wall time.
func LocalizeTimestamp(utc string) (string, error) {
	t, err := time.ParseInLocation(utcLayout, utc, time.UTC)
	if err != nil {
		return "", fmt.Errorf("%w: timestamp %q: %v", ErrParse, utc, err)
	}
	return t.In(taipei).Format(localLayout), nil
}

// LocalizeTimestamps converts a batch, failing on the first malformed value.
func LocalizeTimestamps(utc []string) ([]string, error) {
	out := make([]string, len(utc))
	for i, ts := range utc {
		local, err := LocalizeTimestamp(ts)
		if err != nil {
			return nil, err
		}
		out[i] = local
	}
	return out, nil
}
