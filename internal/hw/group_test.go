package hw

import (
	"errors"
	"math"
	"testing"

	"go.uber.org/multierr"
)

type fakeMotor struct {
	volts    float64
	position float64
	velocity float64
	temp     float64
	err      error
}

func (f *fakeMotor) SetVoltage(v float64) error {
	if f.err != nil {
		return f.err
	}
	f.volts = v
	return nil
}

func (f *fakeMotor) Position() (float64, error)    { return f.position, f.err }
func (f *fakeMotor) Velocity() (float64, error)    { return f.velocity, f.err }
func (f *fakeMotor) Temperature() (float64, error) { return f.temp, f.err }

func TestEmptyGroup(t *testing.T) {
	if _, err := NewMotorGroup(); !errors.Is(err, ErrEmptyGroup) {
		t.Errorf("expected ErrEmptyGroup, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected MustMotorGroup to panic on empty list")
		}
	}()
	MustMotorGroup()
}

func TestGroupFusedReadings(t *testing.T) {
	a := &fakeMotor{position: 1, velocity: 100, temp: 30}
	b := &fakeMotor{position: 3, velocity: 200, temp: 40}
	g := MustMotorGroup(a, b)

	tests := []struct {
		name     string
		read     func() (float64, error)
		expected float64
	}{
		{"position", g.Position, 2},
		{"velocity", g.Velocity, 150},
		{"temperature", g.Temperature, 35},
	}
	for _, tt := range tests {
		got, err := tt.read()
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("%s: expected %.2f, got %.2f", tt.name, tt.expected, got)
		}
	}
}

func TestGroupFailedMotor(t *testing.T) {
	a := &fakeMotor{position: 4, velocity: 50, temp: 30}
	b := &fakeMotor{position: 100, velocity: 900, temp: 90, err: ErrDisconnected}
	g := MustMotorGroup(a, b)

	if _, err := g.Position(); !errors.Is(err, ErrDisconnected) {
		t.Errorf("expected position to fail with ErrDisconnected, got %v", err)
	}
	if _, err := g.Velocity(); !errors.Is(err, ErrDisconnected) {
		t.Errorf("expected velocity to fail with ErrDisconnected, got %v", err)
	}

	got, err := g.Temperature()
	if err != nil {
		t.Fatalf("expected partial temperature read to succeed, got %v", err)
	}
	if got != 30 {
		t.Errorf("expected 30, got %f", got)
	}

	all := MustMotorGroup(&fakeMotor{err: ErrDisconnected}, &fakeMotor{err: ErrStale})
	for name, read := range map[string]func() (float64, error){"position": all.Position, "temperature": all.Temperature} {
		if _, err := read(); !errors.Is(err, ErrDisconnected) || !errors.Is(err, ErrStale) {
			t.Errorf("%s: expected combined errors, got %v", name, err)
		}
	}
}

func TestGroupSetVoltageWritesAll(t *testing.T) {
	a := &fakeMotor{err: ErrDisconnected}
	b := &fakeMotor{}
	c := &fakeMotor{err: ErrDisconnected}
	g := MustMotorGroup(a, b, c)

	err := g.SetVoltage(6)
	if b.volts != 6 {
		t.Errorf("expected healthy motor to receive 6V, got %f", b.volts)
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("expected 2 errors, got %d", n)
	}
}

func TestReverse(t *testing.T) {
	m := &fakeMotor{position: 2, velocity: 50}
	r := Reverse(m)

	if err := r.SetVoltage(5); err != nil {
		t.Fatal(err)
	}
	if m.volts != -5 {
		t.Errorf("expected -5V, got %f", m.volts)
	}
	if p, _ := r.Position(); p != -2 {
		t.Errorf("expected -2, got %f", p)
	}
	if v, _ := r.Velocity(); v != -50 {
		t.Errorf("expected -50, got %f", v)
	}
}
