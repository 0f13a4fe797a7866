package domain_test

import (
	"testing"
	"time"

	"staywithme/internal/modules/checkin/domain"
)

func TestLevelForThresholdsAtThirtyMinutes(t *testing.T) {
	t.Parallel()
	cases := []struct {
		elapsed time.Duration
		want    domain.Level
	}{
		{elapsed: -time.Minute, want: domain.LevelNone},
		{elapsed: 0, want: domain.LevelNone},
		{elapsed: 29*time.Minute + 59*time.Second, want: domain.LevelNone},
		{elapsed: 30 * time.Minute, want: domain.LevelGentle},
		{elapsed: 44*time.Minute + 59*time.Second, want: domain.LevelGentle},
		{elapsed: 45 * time.Minute, want: domain.LevelUrgent},
		{elapsed: 59 * time.Minute, want: domain.LevelUrgent},
		{elapsed: 60 * time.Minute, want: domain.LevelEmergency},
		{elapsed: 89 * time.Minute, want: domain.LevelEmergency},
		{elapsed: 90 * time.Minute, want: domain.LevelBroadcast},
		{elapsed: 48 * time.Hour, want: domain.LevelBroadcast},
	}
	for _, tc := range cases {
		if got := domain.LevelFor(tc.elapsed, 30); got != tc.want {
			t.Fatalf("LevelFor(%s, 30) = %s, want %s", tc.elapsed, got, tc.want)
		}
	}
}

func TestLevelForOddIntervalUsesExactHalf(t *testing.T) {
	t.Parallel()
	// 1.5 * 7 minutes is 10m30s, not 10m.
	if got := domain.LevelFor(10*time.Minute+29*time.Second, 7); got != domain.LevelGentle {
		t.Fatalf("expected gentle just before 10m30s, got %s", got)
	}
	if got := domain.LevelFor(10*time.Minute+30*time.Second, 7); got != domain.LevelUrgent {
		t.Fatalf("expected urgent at 10m30s, got %s", got)
	}
}

func TestLevelForIsMonotonicAndMatchesHighestThreshold(t *testing.T) {
	t.Parallel()
	for interval := 2; interval <= 120; interval++ {
		thresholds := domain.Thresholds(interval)
		prev := domain.LevelNone
		limit := 4 * time.Duration(interval) * time.Minute
		for elapsed := time.Duration(0); elapsed <= limit; elapsed += 15 * time.Second {
			got := domain.LevelFor(elapsed, interval)
			if got < prev {
				t.Fatalf("interval %d: level decreased from %s to %s at %s", interval, prev, got, elapsed)
			}
			want := domain.LevelNone
			for level := domain.LevelGentle; level <= domain.LevelBroadcast; level++ {
				if elapsed >= thresholds[level] {
					want = level
				}
			}
			if got != want {
				t.Fatalf("interval %d elapsed %s: got %s want %s", interval, elapsed, got, want)
			}
			prev = got
		}
	}
}

func TestThresholdsAndCycleTime(t *testing.T) {
	t.Parallel()
	th := domain.Thresholds(30)
	want := [...]time.Duration{0, 30 * time.Minute, 45 * time.Minute, 60 * time.Minute, 90 * time.Minute}
	if th != want {
		t.Fatalf("unexpected thresholds: %v", th)
	}
	if got := domain.CycleTime(30); got != 45*time.Minute {
		t.Fatalf("cycle time = %s", got)
	}
	if domain.Threshold(domain.Level(9), 30) != 0 {
		t.Fatalf("unknown level must have zero threshold")
	}
}

func TestPlanForCycleBoundary(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	cases := []struct {
		duration         time.Duration
		checkInReachable bool
		urgentReachable  bool
	}{
		{duration: 30 * time.Minute, checkInReachable: false, urgentReachable: false},
		{duration: 31 * time.Minute, checkInReachable: true, urgentReachable: false},
		{duration: 40 * time.Minute, checkInReachable: true, urgentReachable: false},
		{duration: 45 * time.Minute, checkInReachable: true, urgentReachable: false},
		{duration: 46 * time.Minute, checkInReachable: true, urgentReachable: true},
		{duration: 2 * time.Hour, checkInReachable: true, urgentReachable: true},
	}
	for _, tc := range cases {
		plan := domain.PlanFor(domain.Session{ID: "s", StartedAt: start, Duration: tc.duration, Active: true}, 30)
		if plan.CheckInReachable != tc.checkInReachable || plan.UrgentReachable != tc.urgentReachable {
			t.Fatalf("duration %s: got checkIn=%v urgent=%v", tc.duration, plan.CheckInReachable, plan.UrgentReachable)
		}
		if plan.FullCycle != tc.urgentReachable {
			t.Fatalf("duration %s: full cycle %v disagrees with urgent step", tc.duration, plan.FullCycle)
		}
		if !plan.NextCheckInAt.Equal(start.Add(30*time.Minute)) || !plan.UrgentAt.Equal(start.Add(45*time.Minute)) {
			t.Fatalf("unexpected deadlines: %+v", plan)
		}
	}
}

func TestPlanForMovesWithConfirmation(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	confirmed := start.Add(20 * time.Minute)
	plan := domain.PlanFor(domain.Session{ID: "s", StartedAt: start, Duration: time.Hour, Active: true, LastConfirmedAt: &confirmed}, 30)
	if !plan.NextCheckInAt.Equal(start.Add(50 * time.Minute)) {
		t.Fatalf("check-in should follow confirmation, got %s", plan.NextCheckInAt)
	}
	// 40 minutes remain after the confirmation, less than the 45 minute cycle.
	if !plan.CheckInReachable || plan.UrgentReachable {
		t.Fatalf("unexpected reachability: %+v", plan)
	}
}

func TestSessionTimeline(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	s := domain.Session{ID: "s", StartedAt: start, Duration: time.Hour, Active: true}
	if err := s.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	now := start.Add(25 * time.Minute)
	if s.Elapsed(now) != 25*time.Minute || s.Remaining(now) != 35*time.Minute {
		t.Fatalf("unexpected elapsed/remaining")
	}
	if s.Expired(start.Add(59*time.Minute)) || !s.Expired(start.Add(time.Hour)) {
		t.Fatalf("expiry must start exactly at the end")
	}
	if s.Remaining(start.Add(2*time.Hour)) != 0 {
		t.Fatalf("remaining must not go negative")
	}
	early := start.Add(-time.Minute)
	s.LastConfirmedAt = &early
	if !s.Baseline().Equal(start) {
		t.Fatalf("baseline must never precede the start")
	}
	if err := domain.ValidateDuration(4 * time.Minute); err == nil {
		t.Fatalf("expected minimum duration error")
	}
	if err := domain.Source("cron").Validate(); err == nil {
		t.Fatalf("expected unknown source error")
	}
}
