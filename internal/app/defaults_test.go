package app

import (
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("ARKEEP_CONFIG_PATH", "/etc/arkeep/arkeep.toml")
		t.Setenv("ARKEEP_HOME", "/srv/arkeep")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults: %v", err)
		}
		if defaults["config_path"] != "/etc/arkeep/arkeep.toml" {
			t.Errorf("config_path = %q", defaults["config_path"])
		}
		if defaults["base_dir"] != "/srv/arkeep" {
			t.Errorf("base_dir = %q", defaults["base_dir"])
		}
		if defaults["log_dir"] != filepath.Join("/srv/arkeep", "log") {
			t.Errorf("log_dir = %q", defaults["log_dir"])
		}
	})

	t.Run("home directory fallbacks", func(t *testing.T) {
		t.Setenv("ARKEEP_CONFIG_PATH", "")
		t.Setenv("ARKEEP_HOME", "")
		t.Setenv("HOME", "/home/u")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults: %v", err)
		}
		if defaults["config_path"] != "/home/u/.config/arkeep.toml" {
			t.Errorf("config_path = %q", defaults["config_path"])
		}
		if defaults["base_dir"] != "/home/u/.local/share/arkeep" {
			t.Errorf("base_dir = %q", defaults["base_dir"])
		}
	})
}
