package domain

import (
	"fmt"
	"time"
)

// Level is how far past the expected check-in the user is.
type Level int

const (
	LevelNone Level = iota
	LevelGentle
	LevelUrgent
	LevelEmergency
	LevelBroadcast
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelGentle:
		return "gentle"
	case LevelUrgent:
		return "urgent"
	case LevelEmergency:
		return "emergency"
	case LevelBroadcast:
		return "broadcast"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

func (l Level) Valid() bool {
	return l >= LevelNone && l <= LevelBroadcast
}

// Threshold multipliers are expressed in half intervals so 1.5·I stays exact.
var halfIntervalSteps = [...]int64{
	LevelGentle:    2,
	LevelUrgent:    3,
	LevelEmergency: 4,
	LevelBroadcast: 6,
}

// Threshold is the elapsed time at which level becomes active for an
// interval of intervalMinutes. LevelNone has a zero threshold.
func Threshold(level Level, intervalMinutes int) time.Duration {
	if level <= LevelNone || level > LevelBroadcast {
		return 0
	}
	half := time.Duration(intervalMinutes) * time.Minute / 2
	return time.Duration(halfIntervalSteps[level]) * half
}

// Thresholds lists the threshold of every level, indexed by level.
func Thresholds(intervalMinutes int) [LevelBroadcast + 1]time.Duration {
	var out [LevelBroadcast + 1]time.Duration
	for level := LevelGentle; level <= LevelBroadcast; level++ {
		out[level] = Threshold(level, intervalMinutes)
	}
	return out
}

// LevelFor returns the highest level whose threshold does not exceed elapsed.
// It keeps no memory of what was already dispatched.
func LevelFor(elapsed time.Duration, intervalMinutes int) Level {
	if elapsed < 0 || intervalMinutes <= 0 {
		return LevelNone
	}
	for level := LevelBroadcast; level > LevelNone; level-- {
		if elapsed >= Threshold(level, intervalMinutes) {
			return level
		}
	}
	return LevelNone
}

// CycleTime is the time needed to reach the urgent step: I + I/2.
func CycleTime(intervalMinutes int) time.Duration {
	return Threshold(LevelUrgent, intervalMinutes)
}
