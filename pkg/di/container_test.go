package di

import "testing"

func TestContainer_WithConfig(t *testing.T) {
	c := New()

	c.RegisterConfig("app.name", "TestApp")
	c.RegisterConfig("app.version", "1.0.0")

	name, ok := c.GetConfig("app.name")
	if !ok {
		t.Fatal("Expected app.name config to exist")
	}
	if name != "TestApp" {
		t.Errorf("Expected app.name to be 'TestApp', got %q", name)
	}

	version, ok := c.GetConfig("app.version")
	if !ok {
		t.Fatal("Expected app.version config to exist")
	}
	if version != "1.0.0" {
		t.Errorf("Expected app.version to be '1.0.0', got %q", version)
	}
}

// TestContainer_GetConfigMissing tests retrieving a missing config key returns ok=false.
func TestContainer_GetConfigMissing(t *testing.T) {
	c := New()
	_, ok := c.GetConfig("no_such")
	if ok {
		t.Error("Expected no value for missing config key, got one")
	}
}

// TestContainer_GetString tests the typed string configuration getter.
func TestContainer_GetString(t *testing.T) {
	c := New()
	c.RegisterConfig("key", "value")
	val, ok := c.GetString("key")
	if !ok || val != "value" {
		t.Errorf("Expected GetString to return 'value', got '%s', ok=%v", val, ok)
	}
	if _, ok2 := c.GetString("missing"); ok2 {
		t.Error("Expected GetString to return ok=false for missing key")
	}
	c.RegisterConfig("num", 123)
	if _, ok3 := c.GetString("num"); ok3 {
		t.Error("Expected GetString to fail type assertion for non-string")
	}
}

// TestContainer_GetInt tests the typed int configuration getter.
func TestContainer_GetInt(t *testing.T) {
	c := New()
	c.RegisterConfig("num", 42)
	i, ok := c.GetInt("num")
	if !ok || i != 42 {
		t.Errorf("Expected GetInt to return 42, got %d, ok=%v", i, ok)
	}
	if _, ok2 := c.GetInt("missing"); ok2 {
		t.Error("Expected GetInt to return ok=false for missing key")
	}
	c.RegisterConfig("str", "value")
	if _, ok3 := c.GetInt("str"); ok3 {
		t.Error("Expected GetInt to fail type assertion for non-int")
	}
}

// TestContainer_GetBool tests the typed bool configuration getter.
func TestContainer_GetBool(t *testing.T) {
	c := New()
	c.RegisterConfig("flag", true)
	b, ok := c.GetBool("flag")
	if !ok || !b {
		t.Errorf("Expected GetBool to return true, got %v, ok=%v", b, ok)
	}
	if _, ok2 := c.GetBool("missing"); ok2 {
		t.Error("Expected GetBool to return ok=false for missing key")
	}
	c.RegisterConfig("str", "value")
	if _, ok3 := c.GetBool("str"); ok3 {
		t.Error("Expected GetBool to fail type assertion for non-bool")
	}
}
