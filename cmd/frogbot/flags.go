package main

import (
	"fmt"
	"time"
)

func parseDelay(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid --reminder-delay %q: %w", raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid --reminder-delay %q: must not be negative", raw)
	}
	return d, nil
}
