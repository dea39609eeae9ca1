package session

// RunSummary is handed to listeners when a run ends.
type RunSummary struct {
	RunID     string
	BotID     string
	Score     int
	HighScore int
	NewRecord bool
	Duration  float64 // Seconds of play, pauses excluded
	Coins     int
}

// Listener observes session events. Callbacks run after the state they
// describe has been committed, never before, so a listener reading back
// through the session sees the new state.
type Listener interface {
	OnGameStateChanged(from, to State)
	OnScoreChanged(score int)
	OnGameOver(summary RunSummary)
}

// Funcs adapts free functions to the Listener interface. Nil fields are
// skipped.
type Funcs struct {
	StateChanged func(from, to State)
	ScoreChanged func(score int)
	GameOver     func(summary RunSummary)
}

func (f Funcs) OnGameStateChanged(from, to State) {
	if f.StateChanged != nil {
		f.StateChanged(from, to)
	}
}

func (f Funcs) OnScoreChanged(score int) {
	if f.ScoreChanged != nil {
		f.ScoreChanged(score)
	}
}

func (f Funcs) OnGameOver(summary RunSummary) {
	if f.GameOver != nil {
		f.GameOver(summary)
	}
}
