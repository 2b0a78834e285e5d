// Package yamlconf loads cache Options from YAML documents of the form:
//
//	defaults:
//	  expiry_time: 10m
//	  capacity: 1000
//	strict: false
//	caches:
//	  pages:
//	    expiry_time: 30s
//	  "string:int":
//	    capacity: 50
//
// Per-store entries inherit missing fields from defaults.
package yamlconf

import (
	"os"

	"github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/codewandler/typecache-go/core/cache"
)

type document struct {
	Defaults *cache.Options           `yaml:"defaults"`
	Strict   bool                     `yaml:"strict"`
	Caches   map[string]cache.Options `yaml:"caches"`
}

// Parse decodes data into a resolver. A missing defaults section uses
// cache.DefaultOptions. Every resulting store configuration is validated.
func Parse(data []byte) (*cache.StaticResolver, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "yamlconf: decode")
	}

	defaults := cache.DefaultOptions
	if doc.Defaults != nil {
		defaults = doc.Defaults.WithDefaults(cache.DefaultOptions)
	}
	if err := defaults.Validate(); err != nil {
		return nil, errors.WithContext(err, "section", "defaults")
	}

	stores := make(map[string]cache.Options, len(doc.Caches))
	for name, o := range doc.Caches {
		o = o.WithDefaults(defaults)
		if err := o.Validate(); err != nil {
			return nil, errors.WithContext(err, "store", name)
		}
		stores[name] = o
	}

	r := cache.Static(defaults, stores)
	r.Strict = doc.Strict
	return r, nil
}

// LoadFile reads and parses the file at path.
func LoadFile(path string) (*cache.StaticResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithContext(errors.Wrap(err, errors.CodeNotFound, "yamlconf: read file"), "path", path)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, errors.WithContext(err, "path", path)
	}
	return r, nil
}
