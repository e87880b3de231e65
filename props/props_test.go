package props

import "testing"

func TestStoreRegisterGetSet(t *testing.T) {
	s := NewStore()
	s.MustRegister("gain", SetFloat64(0, 1), 0.5)

	v, err := s.Get("gain")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.(float64) != 0.5 {
		t.Fatalf("Get(gain) = %v, want 0.5", v)
	}

	if err := s.Set("gain", 0.8); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, _ = s.Get("gain")
	if v.(float64) != 0.8 {
		t.Fatalf("Get(gain) after Set = %v, want 0.8", v)
	}
}

func TestStoreSetOutOfRangeRejected(t *testing.T) {
	s := NewStore()
	s.MustRegister("gain", SetFloat64(0, 1), 0.5)
	if err := s.Set("gain", 1.5); err == nil {
		t.Fatal("expected an error setting a value outside the registered range")
	}
	v, _ := s.Get("gain")
	if v.(float64) != 0.5 {
		t.Fatal("a rejected Set should leave the stored value unchanged")
	}
}

func TestStoreUnknownKey(t *testing.T) {
	s := NewStore()
	if _, err := s.Get("missing"); err == nil {
		t.Fatal("expected an error getting an unregistered key")
	}
	if err := s.Set("missing", 1); err == nil {
		t.Fatal("expected an error setting an unregistered key")
	}
}

func TestStoreRegisterRejectsBadInit(t *testing.T) {
	s := NewStore()
	if _, err := s.Register("gain", SetFloat64(0, 1), 2.0); err == nil {
		t.Fatal("expected Register to validate the initial value through the setter")
	}
}

func TestStoreMustRegisterPanicsOnBadInit(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected MustRegister to panic on an invalid initial value")
		}
	}()
	NewStore().MustRegister("gain", SetFloat64(0, 1), 2.0)
}

func TestStoreKeys(t *testing.T) {
	s := NewStore()
	s.MustRegister("gain", SetFloat64(0, 1), 0)
	s.MustRegister("pan", SetFloat64(-1, 1), 0)

	keys := s.Keys()
	if len(keys) != 2 {
		t.Fatalf("Keys() returned %d entries, want 2", len(keys))
	}
	seen := map[string]bool{}
	for _, k := range keys {
		seen[k] = true
	}
	if !seen["gain"] || !seen["pan"] {
		t.Fatalf("Keys() = %v, want gain and pan", keys)
	}
}

func TestSetIntAcceptsFloatAndValidatesRange(t *testing.T) {
	s := NewStore()
	s.MustRegister("count", SetInt(0, 10), 0)
	if err := s.Set("count", 5.0); err != nil {
		t.Fatalf("Set with a float64 value: %v", err)
	}
	v, _ := s.Get("count")
	if v.(int) != 5 {
		t.Fatalf("Get(count) = %v, want 5", v)
	}
	if err := s.Set("count", 11); err == nil {
		t.Fatal("expected an error for a value above the max")
	}
	if err := s.Set("count", "five"); err == nil {
		t.Fatal("expected an error for a non-numeric value")
	}
}

func TestSetBool(t *testing.T) {
	s := NewStore()
	s.MustRegister("mute", SetBool, false)
	if err := s.Set("mute", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, _ := s.Get("mute")
	if v.(bool) != true {
		t.Fatal("expected mute to be true")
	}
	if err := s.Set("mute", "true"); err == nil {
		t.Fatal("expected an error for a non-bool value")
	}
}

func TestSetString(t *testing.T) {
	s := NewStore()
	s.MustRegister("name", SetString, "")
	if err := s.Set("name", "kick"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("name", 42); err == nil {
		t.Fatal("expected an error for a non-string value")
	}
}

func TestSetOneOf(t *testing.T) {
	s := NewStore()
	s.MustRegister("wave", SetOneOf("sine", "square", "saw"), "sine")
	if err := s.Set("wave", "square"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("wave", "triangle"); err == nil {
		t.Fatal("expected an error for a value outside the allowed set")
	}
}
