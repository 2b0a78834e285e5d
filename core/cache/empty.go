package cache

import "github.com/google/uuid"

// EmptyString reports whether v is the empty string.
func EmptyString(v string) bool { return v == "" }

// ZeroUUID reports whether v is the nil UUID.
func ZeroUUID(v uuid.UUID) bool { return v == uuid.Nil }

// IsZero reports whether v is the zero value of its type.
func IsZero[V comparable](v V) bool {
	var zero V
	return v == zero
}

func neverEmpty[V any](V) bool { return false }

// defaultEmpty picks the "not found" convention for V once, from its
// static type: strings and UUIDs have sentinel values, everything else has none.
func defaultEmpty[V any]() func(V) bool {
	var zero V
	switch any(zero).(type) {
	case string:
		return func(v V) bool { return EmptyString(any(v).(string)) }
	case uuid.UUID:
		return func(v V) bool { return ZeroUUID(any(v).(uuid.UUID)) }
	}
	return neverEmpty[V]
}

func nilPointer[T any](v *T) bool { return v == nil }
