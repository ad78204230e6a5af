package config

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// lookupSetting returns the first of the candidate keys present in settings,
// trying the lowercased key as well.
func lookupSetting(settings map[string]interface{}, candidates ...string) (interface{}, bool) {
	for _, key := range candidates {
		if val, ok := settings[key]; ok {
			return val, true
		}
		if val, ok := settings[strings.ToLower(key)]; ok {
			return val, true
		}
	}
	return nil, false
}

// toDuration reads a duration setting. Strings use Go duration syntax and
// bare numbers are seconds, fractions included.
func toDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		v = strings.TrimSpace(v)
		if secs, err := cast.ToFloat64E(v); err == nil {
			return time.Duration(secs * float64(time.Second)), nil
		}
		return cast.ToDurationE(v)
	}
	secs, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// toStringSlice reads a list setting. A lone string is one element.
func toStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	}
	return cast.ToStringSliceE(value)
}
