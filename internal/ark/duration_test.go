package ark_test

import (
	"errors"
	"testing"
	"time"

	"arkeep/internal/ark"
)

func TestParseRetainDuration(t *testing.T) {
	day := 24 * time.Hour

	valid := []struct {
		in   string
		want time.Duration
	}{
		{"36h", 36 * time.Hour},
		{"1d", day},
		{"30d", 30 * day},
		{"4w", 4 * 7 * day},
		{"6m", 6 * 30 * day},
		{"1y", 365 * day},
		{"2y", 2 * 365 * day},
		{"0h", 0},
		{"007d", 7 * day},
	}
	for _, tc := range valid {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ark.ParseRetainDuration(tc.in)
			if err != nil {
				t.Fatalf("ParseRetainDuration(%q) returned error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseRetainDuration(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}

	invalid := []string{
		"",
		"d",
		"7",
		"30x",
		"30D",
		"+3d",
		"-3d",
		"3.5d",
		"d30",
		" 30d",
		"30d ",
	}
	for _, in := range invalid {
		t.Run("invalid/"+in, func(t *testing.T) {
			_, err := ark.ParseRetainDuration(in)
			if err == nil {
				t.Fatalf("ParseRetainDuration(%q) succeeded, want error", in)
			}
			if !errors.Is(err, ark.ErrInvalidDuration) {
				t.Errorf("ParseRetainDuration(%q) error = %v, want ErrInvalidDuration", in, err)
			}
		})
	}
}
