package model

import (
	"encoding/json"
	"math"
	"time"
)

// Datetimes are persisted as unix timestamps in seconds.

func encodeTimestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func decodeTimestamp(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(math.Round(frac*float64(time.Second)))).UTC()
}

// Timestamp is a time.Time encoded as unix seconds in JSON.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(encodeTimestamp(t.Time))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var ts float64
	if err := json.Unmarshal(data, &ts); err != nil {
		return err
	}
	t.Time = decodeTimestamp(ts)
	return nil
}
