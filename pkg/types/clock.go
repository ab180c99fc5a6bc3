package types

import (
	"encoding/json"
	"fmt"
)

// minutesPerDay bounds the world clock to a 24-hour cycle.
const minutesPerDay = 24 * 60

// GameTime is the in-world clock, stored as minutes since midnight.
// Arithmetic wraps within the 24-hour cycle.
type GameTime int

// DefaultStartTime is when scenarios begin unless they say otherwise.
const DefaultStartTime = GameTime(8 * 60) // 08:00

// ParseGameTime parses an "HH:MM" string into a GameTime.
func ParseGameTime(s string) (GameTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid game time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid game time %q: out of range", s)
	}
	return GameTime(h*60 + m), nil
}

// Add advances the clock by the given number of minutes, wrapping at
// midnight. Negative increments wrap backwards.
func (t GameTime) Add(minutes int) GameTime {
	v := (int(t) + minutes) % minutesPerDay
	if v < 0 {
		v += minutesPerDay
	}
	return GameTime(v)
}

// String renders the clock as "HH:MM".
func (t GameTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON stores the clock in its "HH:MM" form so persisted worlds and
// event feed payloads stay human-readable.
func (t GameTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts either the "HH:MM" form or a raw minute count, the
// latter for backwards compatibility with early snapshots.
func (t *GameTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, perr := ParseGameTime(s)
		if perr != nil {
			return perr
		}
		*t = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid game time %s", string(data))
	}
	*t = GameTime(n % minutesPerDay)
	return nil
}
