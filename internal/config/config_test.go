package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HWPX_MAX_PIXELS", "")
	cfg := Load()
	if cfg.Imaging.MaxPixels != 128_000_000 {
		t.Errorf("MaxPixels = %d; want default 128000000", cfg.Imaging.MaxPixels)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HWPX_MAX_PIXELS", "5000000")
	if got := Load().Imaging.MaxPixels; got != 5_000_000 {
		t.Errorf("MaxPixels = %d; want 5000000", got)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not a number", "lots"},
		{"negative", "-5"},
		{"zero", "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("HWPX_MAX_PIXELS", tc.value)
			if got := Load().Imaging.MaxPixels; got != 128_000_000 {
				t.Errorf("MaxPixels = %d; want default for %q", got, tc.value)
			}
		})
	}
}
