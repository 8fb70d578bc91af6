package actions

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/doxa/internal/control"
	"github.com/san-kum/doxa/internal/path"
	"github.com/san-kum/doxa/internal/pose"
)

const tick = 10 * time.Millisecond

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// plant is an ideal differential drive: wheel speed proportional to voltage.
type plant struct {
	p   pose.Pose
	now time.Time
}

func (pl *plant) step(out Output) {
	const (
		mmPerVolt = 1600.0 / 12
		track     = 300.0
	)
	l := control.Clamp(out.Left, -12, 12)
	r := control.Clamp(out.Right, -12, 12)
	dt := tick.Seconds()

	v := mmPerVolt * (l + r) / 2
	w := mmPerVolt * (l - r) / track
	pl.p.Offset = r2.Add(pl.p.Offset, r2.Scale(v*dt, pose.Direction(pl.p.Heading+w*dt/2)))
	pl.p.Heading += w * dt
	pl.now = pl.now.Add(tick)
}

// run polls a until done or limit, returning the final pose and output.
func run(a Action, start pose.Pose, limit time.Duration) (pose.Pose, Output) {
	pl := &plant{p: start, now: epoch}
	for pl.now.Sub(epoch) <= limit {
		out := a.Poll(pl.p, pl.now)
		if out.Done {
			return pl.p, out
		}
		pl.step(out)
	}
	return pl.p, Output{}
}

func TestReasonString(t *testing.T) {
	tests := map[Reason]string{Running: "running", Settled: "settled", TimedOut: "timed out"}
	for r, expected := range tests {
		if r.String() != expected {
			t.Errorf("expected %q, got %q", expected, r.String())
		}
	}
}

func TestConfigBuildersCopy(t *testing.T) {
	base := DefaultConfig()
	tuned := base.
		WithLinearErrorTolerance(5).
		WithLinearLimit(6).
		WithTurnTimeout(time.Second).
		WithPursuitLookahead(450).
		WithPursuitTurnKp(2)

	if base.LinearSettle.Error != 10 || base.Linear.OutputLimit != 12 {
		t.Error("builders must not modify the receiver")
	}
	if tuned.LinearSettle.Error != 5 || tuned.Linear.OutputLimit != 6 {
		t.Errorf("linear builders not applied: %+v", tuned)
	}
	if tuned.TurnSettle.Timeout != time.Second || tuned.PursuitLookahead != 450 || tuned.PursuitTurn.Kp != 2 {
		t.Errorf("builders not applied: %+v", tuned)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	bad := []Config{
		DefaultConfig().WithPursuitLookahead(0),
		DefaultConfig().WithLinearKp(-1),
		DefaultConfig().WithTurnErrorTolerance(0),
		DefaultConfig().WithBoomerangLead(-0.5),
		DefaultConfig().WithLinearTimeout(0),
		DefaultConfig().WithTurnTimeout(-time.Second),
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("case %d: expected ErrInvalidConfig, got %v", i, err)
		}
	}
}

func TestTimeoutIsExact(t *testing.T) {
	cfg := DefaultConfig().WithTurnTimeout(time.Second)
	a := NewTurnTo(math.Pi/2, cfg)
	stuck := pose.New(0, 0, 0)

	for ms := 0; ms < 1000; ms += 10 {
		if out := a.Poll(stuck, epoch.Add(time.Duration(ms)*time.Millisecond)); out.Done {
			t.Fatalf("finished early at %dms with %v", ms, out.Reason)
		}
	}
	out := a.Poll(stuck, epoch.Add(time.Second))
	if !out.Done || out.Reason != TimedOut {
		t.Errorf("expected timeout at exactly 1s, got %+v", out)
	}
}

func TestStalledDriveTimesOut(t *testing.T) {
	cfg := DefaultConfig().WithLinearTimeout(500 * time.Millisecond)
	a := NewDriveToPoint(pose.Point(0, 600), false, cfg)
	stuck := pose.New(0, 0, 0)

	var out Output
	var ms int
	for ms = 0; !out.Done; ms += 10 {
		out = a.Poll(stuck, epoch.Add(time.Duration(ms)*time.Millisecond))
	}
	if out.Reason != TimedOut || ms-10 != 500 {
		t.Errorf("expected timeout at 500ms, got %v at %dms", out.Reason, ms-10)
	}
}

func TestTurnDirection(t *testing.T) {
	tests := []struct {
		name      string
		from, to  float64
		clockwise bool
	}{
		{"quarter right", 0, 90, true},
		{"quarter left", 0, -90, false},
		{"across north", 350, 10, true},
		{"across north left", 10, 350, false},
	}
	for _, tt := range tests {
		a := NewTurnTo(pose.Radians(tt.to), DefaultConfig())
		out := a.Poll(pose.Degrees(0, 0, tt.from), epoch)
		if (out.Left > 0 && out.Right < 0) != tt.clockwise {
			t.Errorf("%s: expected clockwise=%v, got left=%.2f right=%.2f", tt.name, tt.clockwise, out.Left, out.Right)
		}
		if math.Abs(out.Left+out.Right) > 1e-9 {
			t.Errorf("%s: turn in place should be symmetric, got %.2f/%.2f", tt.name, out.Left, out.Right)
		}
	}
}

func TestTurnToSettles(t *testing.T) {
	final, out := run(NewTurnTo(pose.Radians(90), DefaultConfig()), pose.New(0, 0, 0), 3*time.Second)
	if out.Reason != Settled {
		t.Fatalf("expected settled, got %v", out.Reason)
	}
	if err := math.Abs(pose.AngleDiff(pose.Radians(90), final.Heading)); err > 0.02 {
		t.Errorf("expected heading within 0.02 rad, off by %f", err)
	}
	if final.Offset.X != 0 || final.Offset.Y != 0 {
		t.Errorf("turn in place moved the robot to %v", final)
	}
}

func TestTurnDivergenceReported(t *testing.T) {
	a := NewTurnTo(pose.Radians(45), DefaultConfig())
	// robot turning the wrong way, as with inverted polarity
	for i := 0; i < 20; i++ {
		a.Poll(pose.Degrees(0, 0, float64(-i)), epoch.Add(time.Duration(i)*tick))
	}
	if !a.Diverged() {
		t.Error("expected divergence to be reported")
	}
	if out := a.Poll(pose.Degrees(0, 0, -20), epoch.Add(20*tick)); out.Left <= 0 {
		t.Error("turn output sign must not flip after divergence")
	}
}

func TestTurnToPointApproachSkipsWatchdog(t *testing.T) {
	target := pose.Point(600, 600)
	watched := NewTurnToPoint(target, false, DefaultConfig())
	approach := NewTurnToPoint(target, true, DefaultConfig())

	for i := 0; i < 20; i++ {
		p := pose.Degrees(0, 0, float64(-i))
		now := epoch.Add(time.Duration(i) * tick)
		watched.Poll(p, now)
		approach.Poll(p, now)
	}
	if !watched.Diverged() {
		t.Error("expected watched turn to report divergence")
	}
	if approach.Diverged() {
		t.Error("approach turn should not watch for divergence")
	}
}

func TestTurnToPointFacesPoint(t *testing.T) {
	final, out := run(NewTurnToPoint(pose.Point(-600, 0), false, DefaultConfig()), pose.New(0, 0, 0), 3*time.Second)
	if out.Reason != Settled {
		t.Fatalf("expected settled, got %v", out.Reason)
	}
	if d := pose.Deg(pose.AngleDiff(pose.Radians(-90), final.Heading)); math.Abs(d) > 1.5 {
		t.Errorf("expected to face -90 degrees, off by %.2f", d)
	}
}

func TestForwardOneTile(t *testing.T) {
	final, out := run(NewForward(600, DefaultConfig()), pose.New(0, 0, 0), 5*time.Second)
	if out.Reason != Settled {
		t.Fatalf("expected settled, got %v", out.Reason)
	}
	if math.Abs(final.X()) > 1 || math.Abs(final.Y()-600) > 10 {
		t.Errorf("expected to stop near (0, 600), got %v", final)
	}
	if math.Abs(final.Heading) > 0.01 {
		t.Errorf("expected heading held at 0, got %f", final.Heading)
	}
}

func TestForwardNegativeDistance(t *testing.T) {
	start := pose.Degrees(100, 100, 90)
	final, out := run(NewForward(-300, DefaultConfig()), start, 5*time.Second)
	if out.Reason != Settled {
		t.Fatalf("expected settled, got %v", out.Reason)
	}
	if math.Abs(final.X()+200) > 10 || math.Abs(final.Y()-100) > 1 {
		t.Errorf("expected to back up to (-200, 100), got %v", final)
	}
}

func TestForwardHeadingHold(t *testing.T) {
	a := NewForward(600, DefaultConfig())
	a.Poll(pose.New(0, 0, 0), epoch)
	// knocked clockwise: hold turns back counter-clockwise
	out := a.Poll(pose.New(0, 5, 0.1), epoch.Add(tick))
	if out.Left >= out.Right {
		t.Errorf("expected left < right to correct a clockwise knock, got %.2f/%.2f", out.Left, out.Right)
	}
}

func TestDriveToPointReverseArrivesBackwards(t *testing.T) {
	final, out := run(NewDriveToPoint(pose.Point(0, -600), true, DefaultConfig()), pose.New(0, 0, 0), 5*time.Second)
	if out.Reason != Settled {
		t.Fatalf("expected settled, got %v", out.Reason)
	}
	if d := final.Distance(pose.Point(0, -600)); d > 10 {
		t.Errorf("expected within 10mm of target, off by %.1f", d)
	}
	if math.Abs(pose.AngleDiff(0, final.Heading)) > 0.05 {
		t.Errorf("expected to arrive still facing +y, got %v", final)
	}
}

func TestDriveToPointFirstOutputs(t *testing.T) {
	ahead := NewDriveToPoint(pose.Point(0, 1000), false, DefaultConfig()).Poll(pose.New(0, 0, 0), epoch)
	if ahead.Left <= 0 || ahead.Left != ahead.Right {
		t.Errorf("expected equal forward output, got %+v", ahead)
	}

	behind := NewDriveToPoint(pose.Point(0, -1000), true, DefaultConfig()).Poll(pose.New(0, 0, 0), epoch)
	if behind.Left >= 0 || behind.Left != behind.Right {
		t.Errorf("expected equal reverse output, got %+v", behind)
	}

	side := NewDriveToPoint(pose.Point(1000, 1000), false, DefaultConfig()).Poll(pose.New(0, 0, 0), epoch)
	if side.Left <= side.Right {
		t.Errorf("expected to turn right toward the point, got %+v", side)
	}
	if math.Max(math.Abs(side.Left), math.Abs(side.Right)) > 12+1e-9 {
		t.Errorf("outputs should be normalised to the linear limit, got %+v", side)
	}
}

func TestDriveToPointOffAxis(t *testing.T) {
	target := pose.Point(600, 900)
	final, out := run(NewDriveToPoint(target, false, DefaultConfig()), pose.New(0, 0, 0), 5*time.Second)
	if out.Reason != Settled {
		t.Fatalf("expected settled, got %v", out.Reason)
	}
	if d := final.Distance(target); d > 10 {
		t.Errorf("expected within 10mm of target, off by %.1f", d)
	}
}

func TestBoomerangCarrot(t *testing.T) {
	target := pose.Degrees(600, 600, 90)
	b := NewBoomerang(target, DefaultConfig().WithBoomerangLead(0.5))

	from := pose.Point(600-800, 600)
	carrot := b.Carrot(from)
	if math.Abs(carrot.X-200) > 1e-9 || math.Abs(carrot.Y-600) > 1e-9 {
		t.Errorf("expected carrot at (200, 600), got %v", carrot)
	}

	b.Poll(pose.Point(600, 500), epoch)
	if got := b.Carrot(pose.Point(0, 0)); got != target.Offset {
		t.Errorf("carrot should stay pinned to the target once locked, got %v", got)
	}
}

func TestBoomerangReachesTarget(t *testing.T) {
	target := pose.Degrees(600, 1200, 90)
	final, out := run(NewBoomerang(target, DefaultConfig()), pose.New(0, 0, 0), 6*time.Second)
	if out.Reason != Settled {
		t.Fatalf("expected settled, got %v at %v", out.Reason, final)
	}
	if d := final.Distance(target); d > 10 {
		t.Errorf("expected within 10mm of target, off by %.1f", d)
	}
}

func TestPurePursuitStraight(t *testing.T) {
	p := path.NewCubicParametric(pose.New(0, 0, 0), 300, pose.New(0, 1500, 0), 300)
	a := NewPurePursuit(p, false, false, DefaultConfig())

	out := a.Poll(pose.New(0, 0, 0), epoch)
	if math.Abs(a.Curvature()) > 1e-9 {
		t.Errorf("expected zero curvature on the path, got %g", a.Curvature())
	}
	if out.Left <= 0 || math.Abs(out.Left-out.Right) > 1e-9 {
		t.Errorf("expected straight forward drive, got %+v", out)
	}

	a = NewPurePursuit(p, false, false, DefaultConfig())
	a.Poll(pose.New(-100, 0, 0), epoch)
	if a.Curvature() <= 0 {
		t.Errorf("expected to steer right toward the path, got curvature %g", a.Curvature())
	}
}

func TestPurePursuitFollowsCurve(t *testing.T) {
	start := pose.New(0, 0, 0)
	end := pose.New(600, 1200, 0)
	p := path.NewCubicParametric(start, 400, end, 400)

	final, out := run(NewPurePursuit(p, false, false, DefaultConfig()), start, 6*time.Second)
	if out.Reason != Settled {
		t.Fatalf("expected settled, got %v at %v", out.Reason, final)
	}
	if d := final.Distance(end); d > 60 {
		t.Errorf("expected to finish near the path end, off by %.1f at %v", d, final)
	}
}

func TestPurePursuitDisableSeekingReachesEnd(t *testing.T) {
	start := pose.New(0, 0, 0)
	end := pose.Degrees(200, 200, 90)
	p := path.NewCubicParametric(start, 100, end, 100)
	a := NewPurePursuit(p, false, true, DefaultConfig())

	final, out := run(a, start, 4*time.Second)
	if out.Reason != Settled {
		t.Fatalf("expected settled, got %v at %v", out.Reason, final)
	}
	if a.Seeking() {
		t.Error("expected seeking to stop once the end is inside the lookahead")
	}
	if d := r2.Norm(r2.Sub(end.Offset, final.Offset)); d > 30 {
		t.Errorf("expected to finish near the path end, off by %.1f at %v", d, final)
	}
}

func TestPurePursuitDisableSeekingSteersAtEnd(t *testing.T) {
	p := path.NewCubicParametric(pose.New(0, 0, 0), 100, pose.New(0, 500, 0), 100)
	a := NewPurePursuit(p, false, true, DefaultConfig())

	// end is ahead and to the left
	out := a.Poll(pose.New(100, 300, 0), epoch)
	if a.Seeking() {
		t.Error("expected seeking to stop once the end is inside the lookahead")
	}
	if a.Curvature() >= 0 {
		t.Errorf("expected to steer left toward the end, got curvature %g", a.Curvature())
	}
	if out.Left >= out.Right {
		t.Errorf("expected a left turn, got %+v", out)
	}
}

func TestPurePursuitReverse(t *testing.T) {
	// backing down -y while facing +y
	p := path.NewCubicParametric(pose.New(0, 0, math.Pi), 300, pose.New(0, -1500, math.Pi), 300)
	a := NewPurePursuit(p, true, false, DefaultConfig())

	out := a.Poll(pose.New(0, 0, 0), epoch)
	if out.Left >= 0 || math.Abs(out.Left-out.Right) > 1e-9 {
		t.Errorf("expected straight reverse drive, got %+v", out)
	}
}

func TestLazyBuildsFromFirstPose(t *testing.T) {
	var built pose.Pose
	calls := 0
	l := NewLazy(func(p pose.Pose) Action {
		built = p
		calls++
		return NewForward(100, DefaultConfig())
	})
	if l.Name() != "lazy" {
		t.Errorf("expected placeholder name, got %q", l.Name())
	}

	first := pose.Degrees(10, 20, 30)
	l.Poll(first, epoch)
	l.Poll(pose.Degrees(11, 21, 30), epoch.Add(tick))

	if calls != 1 {
		t.Errorf("expected factory called once, got %d", calls)
	}
	if built != first {
		t.Errorf("expected factory to see %v, got %v", first, built)
	}
	if l.Name() != "forward" {
		t.Errorf("expected inner name, got %q", l.Name())
	}
	if l.Diverged() {
		t.Error("forward never diverges")
	}
}
