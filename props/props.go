// Package props implements a lock-free property registry: values are stored
// in atomic.Value slots so a control thread can update them while a
// realtime thread reads without ever blocking.
package props

import (
	"fmt"
	"sync/atomic"
)

// Store holds a set of named properties that can be updated without locks.
// All properties should be registered before any reads take place.
type Store struct {
	properties map[string]*atomic.Value
	setters    map[string]Setter
}

func NewStore() *Store {
	return &Store{
		properties: make(map[string]*atomic.Value),
		setters:    make(map[string]Setter),
	}
}

// Set updates the property with value. The key has to be registered first using Register.
func (s *Store) Set(key string, value interface{}) error {
	prop, ok := s.properties[key]
	if !ok {
		return fmt.Errorf("unknown property %s", key)
	}
	set, ok := s.setters[key]
	if !ok {
		return fmt.Errorf("unknown property %s", key)
	}
	if err := set(value, prop); err != nil {
		return fmt.Errorf("set property %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(key string) (interface{}, error) {
	prop, ok := s.properties[key]
	if !ok {
		return nil, fmt.Errorf("unknown property %s", key)
	}
	return prop.Load(), nil
}

// Register adds a new property.
func (s *Store) Register(key string, set Setter, init interface{}) (*atomic.Value, error) {
	var prop atomic.Value
	s.properties[key] = &prop
	s.setters[key] = set
	return &prop, set(init, &prop)
}

func (s *Store) MustRegister(key string, set Setter, init interface{}) *atomic.Value {
	prop, err := s.Register(key, set, init)
	if err != nil {
		panic(err)
	}
	return prop
}

// Keys returns the registered property names.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.properties))
	for k := range s.properties {
		keys = append(keys, k)
	}
	return keys
}

type Setter func(val interface{}, dest *atomic.Value) error

func SetFloat64(min, max float64) Setter {
	return func(v interface{}, dest *atomic.Value) error {
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		default:
			return fmt.Errorf("value is not a float64: %v", v)
		}
		if f < min || f > max {
			return fmt.Errorf("property value is not in valid range %v - %v: %v", min, max, f)
		}
		dest.Store(f)
		return nil
	}
}

func SetInt(min, max int) Setter {
	return func(v interface{}, dest *atomic.Value) error {
		var n int
		switch x := v.(type) {
		case float64:
			n = int(x)
		case int:
			n = x
		default:
			return fmt.Errorf("value is not an int: %v", v)
		}
		if n < min || n > max {
			return fmt.Errorf("property value is not in valid range %v - %v: %v", min, max, n)
		}
		dest.Store(n)
		return nil
	}
}

func SetBool(v interface{}, dest *atomic.Value) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("value is not a bool: %v", v)
	}
	dest.Store(b)
	return nil
}

func SetString(v interface{}, dest *atomic.Value) error {
	if s, ok := v.(string); ok {
		dest.Store(s)
		return nil
	}
	return fmt.Errorf("value is not a string: %v", v)
}

// SetOneOf builds a setter that only accepts the given string values.
func SetOneOf(valid ...string) Setter {
	return func(v interface{}, dest *atomic.Value) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("value is not a string: %v", v)
		}
		for _, ok := range valid {
			if s == ok {
				dest.Store(s)
				return nil
			}
		}
		return fmt.Errorf("not a valid value: %v (want one of %v)", s, valid)
	}
}
