package tracking

import "testing"

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.TrailLen != 30 {
		t.Errorf("TrailLen = %d, want 30", cfg.TrailLen)
	}
}

func TestConfig_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero trail", func(c *Config) { c.TrailLen = 0 }},
		{"iou above one", func(c *Config) { c.MatchIoU = 1.5 }},
		{"bad policy", func(c *Config) { c.Policy = IdentityPolicy(7) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]IdentityPolicy{
		"":           PolicyGreedy,
		"greedy":     PolicyGreedy,
		"Positional": PolicyPositional,
	} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParsePolicy("random"); err == nil {
		t.Error("ParsePolicy(random) should fail")
	}
}
