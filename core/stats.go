package core

// TimerStats represents runtime observability state for a Timer.
type TimerStats struct {
	Name    string
	Pending int
	Stopped bool
}
