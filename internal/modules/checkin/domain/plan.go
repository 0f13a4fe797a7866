package domain

import "time"

// Plan is the countdown schedule of the current confirmation cycle.
type Plan struct {
	Baseline      time.Time
	EndsAt        time.Time
	NextCheckInAt time.Time
	UrgentAt      time.Time
	// CheckInReachable and UrgentReachable report whether the step's instant
	// falls strictly before the session end.
	CheckInReachable bool
	UrgentReachable  bool
	// FullCycle is false when the time left after the baseline does not
	// exceed CycleTime; the urgent step is then never scheduled.
	FullCycle bool
}

func PlanFor(s Session, intervalMinutes int) Plan {
	baseline := s.Baseline()
	end := s.EndsAt()
	checkIn := baseline.Add(Threshold(LevelGentle, intervalMinutes))
	urgent := baseline.Add(Threshold(LevelUrgent, intervalMinutes))
	fullCycle := end.Sub(baseline) > CycleTime(intervalMinutes)
	return Plan{
		Baseline:         baseline,
		EndsAt:           end,
		NextCheckInAt:    checkIn,
		UrgentAt:         urgent,
		CheckInReachable: checkIn.Before(end),
		UrgentReachable:  fullCycle,
		FullCycle:        fullCycle,
	}
}
