package analysis

import (
	"math"
	"math/cmplx"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/doxa/internal/storage"
)

var (
	ErrUnknownSignal = errors.New("analysis: unknown signal")
	ErrTooShort      = errors.New("analysis: not enough samples")
)

// Signal picks one series out of a run.
type Signal func(storage.Sample) float64

var Signals = map[string]Signal{
	"heading": func(s storage.Sample) float64 { return s.Heading },
	"turn":    func(s storage.Sample) float64 { return (s.Left - s.Right) / 2 },
	"drive":   func(s storage.Sample) float64 { return (s.Left + s.Right) / 2 },
	"drift":   func(s storage.Sample) float64 { return math.Hypot(s.X-s.TrueX, s.Y-s.TrueY) },
}

func SignalNames() []string {
	names := make([]string, 0, len(Signals))
	for n := range Signals {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PowerSpectrum is the magnitude of the one-sided spectrum of data with its mean removed.
// Bin k is k/len(data) cycles per sample.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := stat.Mean(data, nil)
	centred := make([]float64, len(data))
	for i, v := range data {
		centred[i] = v - mean
	}

	fft := fourier.NewFFT(len(centred))
	coeff := fft.Coefficients(nil, centred)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// Report is the outcome of Analyze.
type Report struct {
	Signal   string
	Freq     float64 // Hz, zero when the signal is flat
	Period   float64 // s
	Power    float64
	Spectrum []float64
	Rate     float64 // samples per second
}

// Analyze finds the dominant frequency of a signal in samples taken every period.
func Analyze(samples []storage.Sample, signal string, period time.Duration) (*Report, error) {
	fn, ok := Signals[signal]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSignal, "%q", signal)
	}
	if len(samples) < 4 {
		return nil, errors.Wrapf(ErrTooShort, "%d", len(samples))
	}
	if period <= 0 {
		return nil, errors.New("analysis: period must be positive")
	}

	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = fn(s)
	}
	ps := PowerSpectrum(data)
	rate := 1 / period.Seconds()

	rep := &Report{Signal: signal, Spectrum: ps, Rate: rate}
	// skip the DC bin
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	if ps[best] < 1e-9 {
		return rep, nil
	}
	rep.Power = ps[best]
	rep.Freq = float64(best) / float64(len(data)) * rate
	rep.Period = 1 / rep.Freq
	return rep, nil
}
