package cache

import (
	"encoding/json"
	"time"

	"github.com/jmgilman/go/errors"
)

// Options configures a Store. They are copied into the store on construction
// and never change afterwards.
type Options struct {
	// ExpiryTime is the time-to-live applied to every entry.
	ExpiryTime time.Duration
	// Capacity is the soft upper bound on the number of entries.
	Capacity int
}

// DefaultOptions are used by a Registry that was not given a resolver.
var DefaultOptions = Options{
	ExpiryTime: 10 * time.Minute,
	Capacity:   1000,
}

// Validate reports whether o can be used to build a store.
func (o Options) Validate() error {
	if o.ExpiryTime <= 0 {
		return errors.Wrapf(ErrInvalidOptions, errors.CodeInvalidConfig, "expiry time must be positive, got %s", o.ExpiryTime)
	}
	if o.Capacity < 1 {
		return errors.Wrapf(ErrInvalidOptions, errors.CodeInvalidConfig, "capacity must be at least 1, got %d", o.Capacity)
	}
	return nil
}

// WithDefaults returns o with every zero field taken from d.
func (o Options) WithDefaults(d Options) Options {
	if o.ExpiryTime == 0 {
		o.ExpiryTime = d.ExpiryTime
	}
	if o.Capacity == 0 {
		o.Capacity = d.Capacity
	}
	return o
}

// ParseOptions builds Options from their textual form, e.g. ("90s", 500).
// An empty expiry leaves ExpiryTime zero. The result is not validated.
func ParseOptions(expiry string, capacity int) (Options, error) {
	o := Options{Capacity: capacity}
	if expiry == "" {
		return o, nil
	}
	d, err := time.ParseDuration(expiry)
	if err != nil {
		return Options{}, errors.Wrapf(err, errors.CodeInvalidConfig, "invalid expiry time %q", expiry)
	}
	o.ExpiryTime = d
	return o, nil
}

// optionsDoc is the document form of Options shared by JSON and YAML:
//
//	expiry_time: 90s
//	capacity: 500
type optionsDoc struct {
	ExpiryTime string `json:"expiry_time,omitempty" yaml:"expiry_time,omitempty"`
	Capacity   int    `json:"capacity,omitempty" yaml:"capacity,omitempty"`
}

func (o Options) doc() optionsDoc {
	doc := optionsDoc{Capacity: o.Capacity}
	if o.ExpiryTime != 0 {
		doc.ExpiryTime = o.ExpiryTime.String()
	}
	return doc
}

func (o *Options) fromDoc(doc optionsDoc) error {
	parsed, err := ParseOptions(doc.ExpiryTime, doc.Capacity)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

func (o Options) MarshalJSON() ([]byte, error) { return json.Marshal(o.doc()) }

func (o *Options) UnmarshalJSON(data []byte) error {
	var doc optionsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return o.fromDoc(doc)
}

func (o Options) MarshalYAML() (any, error) { return o.doc(), nil }

func (o *Options) UnmarshalYAML(unmarshal func(any) error) error {
	var doc optionsDoc
	if err := unmarshal(&doc); err != nil {
		return err
	}
	return o.fromDoc(doc)
}
