package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Routine != DefaultRoutine {
		t.Errorf("expected routine %s, got %s", DefaultRoutine, cfg.Routine)
	}
	if cfg.Drivetrain.Period <= 0 {
		t.Error("period should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestEveryPresetValidates(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %s missing", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("precise")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Actions.LinearSettle.Error != 5 {
		t.Errorf("expected linear tolerance 5, got %f", cfg.Actions.LinearSettle.Error)
	}

	// presets never leak into each other
	cfg.Drivetrain.MaxVoltage = 1
	if GetPreset("precise").Drivetrain.MaxVoltage != 10 {
		t.Error("preset mutated by a caller")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresetsSorted(t *testing.T) {
	names := ListPresets()
	want := []string{"aggressive", "default", "noisy", "odom-pods", "precise"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("presets (-want +got):\n%s", diff)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	cfg := GetPreset("noisy")
	cfg.Side = "blue"

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, loaded, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
	if !loaded.Reversed() {
		t.Error("blue side should be reversed")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	data := []byte(`
routine: square
drivetrain:
  max_voltage: 9
actions:
  linear_settle:
    timeout: 2s
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Routine != "square" || cfg.Drivetrain.MaxVoltage != 9 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Actions.LinearSettle.Timeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %v", cfg.Actions.LinearSettle.Timeout)
	}
	if cfg.Drivetrain.Period != DefaultPeriod || cfg.Actions.Linear.Kp == 0 {
		t.Error("unset fields should keep their defaults")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"side", "side: green"},
		{"voltage", "drivetrain:\n  max_voltage: 24"},
		{"orientation", "tracking:\n  - name: a\n    orientation: diagonal\n    source: pod\n    circumference: 200"},
		{"integrator", "integrator: leapfrog"},
		{"actions", "actions:\n  pursuit_lookahead: -1"},
		{"timeout", "actions:\n  turn_settle:\n    timeout: 0s"},
	}

	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), tt.name+".yaml")
		if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
	}
}

func TestPodNames(t *testing.T) {
	names := GetPreset("odom-pods").PodNames()
	if diff := cmp.Diff([]string{"vertical", "horizontal"}, names); diff != "" {
		t.Errorf("pods (-want +got):\n%s", diff)
	}
	if DefaultConfig().PodNames() != nil {
		t.Error("default robot has no pods")
	}
}

func TestSetParam(t *testing.T) {
	cfg := DefaultConfig()
	for _, name := range ParamNames() {
		if err := cfg.SetParam(name, 0.25); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got := cfg.GetParams()[name]; got != 0.25 {
			t.Errorf("%s: expected 0.25, got %f", name, got)
		}
	}

	if err := cfg.SetParam("linear.kq", 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}
