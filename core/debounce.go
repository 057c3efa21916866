package core

import "time"

// SensorState tracks one square's raw and debounced presence reading.
// The whole array is owned exclusively by the engine on the sensor task.
type SensorState struct {
	Raw             bool      // last raw sample
	Stable          bool      // committed debounced state
	PrevStable      bool      // stable state before the last commit
	LastRawChange   time.Time // when the raw sample last flipped
	ConsistentCount uint8     // consecutive identical raw samples, saturating
	ChangedThisTick bool      // a stable transition committed this tick
}

// debounce folds one raw sample into the square's state. A stable commit
// requires both enough consecutive identical samples and enough elapsed time
// since the last raw flip; the dual condition rejects high-frequency chatter
// as well as slow partial-contact drift. A commit whose raw transition began
// before startupEnd becomes the resting baseline and reports no transition;
// that absorbs the settling of pieces placed at game start.
func (st *SensorState) debounce(raw bool, now time.Time, cfg Timings, startupEnd time.Time) {
	st.ChangedThisTick = false

	if raw != st.Raw {
		st.Raw = raw
		st.ConsistentCount = 1
		st.LastRawChange = now
		return
	}
	if st.ConsistentCount < 255 {
		st.ConsistentCount++
	}

	if st.ConsistentCount < cfg.ConsistentReads {
		return
	}
	if now.Sub(st.LastRawChange) < cfg.DebounceWindow {
		return
	}
	if raw == st.Stable {
		return
	}

	st.PrevStable = st.Stable
	st.Stable = raw
	if !st.LastRawChange.Before(startupEnd) {
		st.ChangedThisTick = true
	}
}
