package ports

// Reporter presents end-of-game results.
type Reporter interface {
	PrintGameSummary(summary GameSummary)
}

// ReplayResult is the outcome of replaying one recorded feed.
type ReplayResult struct {
	Name     string
	Messages int
	Fills    int
	Games    []GameSummary
	Err      error
}
