package config

import (
	"testing"
	"time"
)

func TestApplyEnv(t *testing.T) {
	value := "default"

	applyEnv("CAMPUSLINK_TEST_UNSET", &value)
	if value != "default" {
		t.Errorf("unset env must not override, got %q", value)
	}

	t.Setenv("CAMPUSLINK_TEST_STR", "from-env")
	applyEnv("CAMPUSLINK_TEST_STR", &value)
	if value != "from-env" {
		t.Errorf("expected from-env, got %q", value)
	}
}

func TestApplyEnvInt(t *testing.T) {
	value := 5432

	t.Setenv("CAMPUSLINK_TEST_INT", "6543")
	applyEnvInt("CAMPUSLINK_TEST_INT", &value)
	if value != 6543 {
		t.Errorf("expected 6543, got %d", value)
	}

	t.Setenv("CAMPUSLINK_TEST_INT", "not-a-number")
	applyEnvInt("CAMPUSLINK_TEST_INT", &value)
	if value != 6543 {
		t.Errorf("invalid value must be ignored, got %d", value)
	}
}

func TestApplyEnvDuration(t *testing.T) {
	value := time.Minute

	t.Setenv("CAMPUSLINK_TEST_DUR", "45s")
	applyEnvDuration("CAMPUSLINK_TEST_DUR", &value)
	if value != 45*time.Second {
		t.Errorf("expected 45s, got %v", value)
	}

	t.Setenv("CAMPUSLINK_TEST_DUR", "bogus")
	applyEnvDuration("CAMPUSLINK_TEST_DUR", &value)
	if value != 45*time.Second {
		t.Errorf("invalid value must be ignored, got %v", value)
	}
}

func TestApplyEnvBool(t *testing.T) {
	tests := []struct {
		env     string
		initial bool
		want    bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"0", true, false},
		{"maybe", true, true},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run("value "+tt.env, func(t *testing.T) {
			value := tt.initial
			t.Setenv("CAMPUSLINK_TEST_BOOL", tt.env)
			applyEnvBool("CAMPUSLINK_TEST_BOOL", &value)
			if value != tt.want {
				t.Errorf("env %q: expected %v, got %v", tt.env, tt.want, value)
			}
		})
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	if got := getEnvOrDefault("CAMPUSLINK_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}

	t.Setenv("CAMPUSLINK_TEST_PRESENT", "set")
	if got := getEnvOrDefault("CAMPUSLINK_TEST_PRESENT", "fallback"); got != "set" {
		t.Errorf("expected set, got %q", got)
	}
}
