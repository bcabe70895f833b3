package storage

import (
	"fmt"
	"strconv"
	"time"
)

// SetString overwrites any prior value at key with a string value.
// expiresAt is nil for no expiry.
func (s *Store) SetString(key, value string, expiresAt *time.Time) {
	s.data[key] = &Value{
		Type:       StringType,
		StringData: value,
		ExpiresAt:  expiresAt,
	}
}

// GetString returns (value, true) unless the key is absent, expired, or
// holds a non-string. It does not delete expired entries (I4).
func (s *Store) GetString(key string) (string, bool) {
	v := s.lookup(key)
	if v == nil || v.Type != StringType {
		return "", false
	}
	return v.StringData, true
}

// Incr increments the integer value of key by 1, per §4.2's incr contract.
// A missing key is treated as 0 before incrementing.
func (s *Store) Incr(key string) (int64, error) {
	v := s.lookup(key)
	var current int64
	if v != nil {
		if v.Type != StringType {
			// §4.2's INCR contract defines only one failure message for
			// every non-integer case, including a key holding a stream.
			return 0, ErrNotAnInteger
		}
		parsed, err := parseInt64(v.StringData)
		if err != nil {
			return 0, ErrNotAnInteger
		}
		current = parsed
	}

	newValue := current + 1
	s.data[key] = &Value{
		Type:       StringType,
		StringData: fmt.Sprintf("%d", newValue),
		ExpiresAt:  nil,
	}
	return newValue, nil
}

func parseInt64(s string) (int64, error) {
	result, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrNotAnInteger
	}
	return result, nil
}
