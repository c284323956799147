package domain

import (
	"fmt"
	"strings"
)

// RegulationSeconds is the clock value at tip-off (4 x 12 minutes).
const RegulationSeconds = 2880.0

// Team identifies one side of the game.
type Team int

const (
	TeamUnknown Team = iota
	Home
	Away
)

func (t Team) String() string {
	switch t {
	case Home:
		return "home"
	case Away:
		return "away"
	}
	return "unknown"
}

// Other returns the opposing team; unknown stays unknown.
func (t Team) Other() Team {
	switch t {
	case Home:
		return Away
	case Away:
		return Home
	}
	return TeamUnknown
}

// ParseTeam maps the feed's home_away tag.
func ParseTeam(s string) Team {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home":
		return Home
	case "away":
		return Away
	}
	return TeamUnknown
}

// EventKind enumerates the game events the feed produces.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventJumpBall
	EventScore
	EventMissed
	EventRebound
	EventSteal
	EventBlock
	EventTurnover
	EventFoul
	EventTimeout
	EventSubstitution
	EventStartPeriod
	EventEndPeriod
	EventEndGame
	EventDeadBall
	EventNothing
)

var eventKindNames = map[EventKind]string{
	EventUnknown:      "UNKNOWN",
	EventJumpBall:     "JUMP_BALL",
	EventScore:        "SCORE",
	EventMissed:       "MISSED",
	EventRebound:      "REBOUND",
	EventSteal:        "STEAL",
	EventBlock:        "BLOCK",
	EventTurnover:     "TURNOVER",
	EventFoul:         "FOUL",
	EventTimeout:      "TIMEOUT",
	EventSubstitution: "SUBSTITUTION",
	EventStartPeriod:  "START_PERIOD",
	EventEndPeriod:    "END_PERIOD",
	EventEndGame:      "END_GAME",
	EventDeadBall:     "DEADBALL",
	EventNothing:      "NOTHING",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// ParseEventKind maps a wire tag to an EventKind. Unrecognised tags map to
// EventUnknown, which only updates score and clock.
func ParseEventKind(s string) EventKind {
	tag := strings.ToUpper(strings.TrimSpace(s))
	for k, name := range eventKindNames {
		if name == tag {
			return k
		}
	}
	return EventUnknown
}

// ShotType classifies a made or missed shot.
type ShotType string

const (
	ShotThreePoint ShotType = "THREE_POINT"
	ShotTwoPoint   ShotType = "TWO_POINT"
	ShotFreeThrow  ShotType = "FREE_THROW"
	ShotDunk       ShotType = "DUNK"
	ShotLayup      ShotType = "LAYUP"
)

// Points is the value of a made shot of this type.
func (s ShotType) Points() int {
	switch s {
	case ShotThreePoint:
		return 3
	case ShotFreeThrow:
		return 1
	}
	return 2
}

// Payload is the kind-specific part of a GameEvent. The set of payloads is
// closed: only types in this package implement it.
type Payload interface {
	payload()
}

// ShotPayload accompanies SCORE and MISSED.
type ShotPayload struct {
	Shooter string
	Shot    ShotType
	Assist  string
	X, Y    float64
}

// ReboundPayload accompanies REBOUND.
type ReboundPayload struct {
	Player string
	Kind   string // offensive | defensive
}

// SubstitutionPayload accompanies SUBSTITUTION.
type SubstitutionPayload struct {
	In  string
	Out string
}

// PlayerPayload accompanies single-player actions (steal, block, turnover, foul).
type PlayerPayload struct {
	Player string
}

// NoPayload is used by clock and stoppage events.
type NoPayload struct{}

func (ShotPayload) payload() {}
func (ReboundPayload) payload() {}
func (SubstitutionPayload) payload() {}
func (PlayerPayload) payload() {}
func (NoPayload) payload() {}

// GameEvent is one structured play-by-play record.
type GameEvent struct {
	Kind      EventKind
	Team      Team
	HomeScore int
	AwayScore int
	// Clock is the game clock in seconds remaining; only meaningful when HasClock.
	Clock    float64
	HasClock bool
	Payload  Payload
}

// Momentum is the current scoring run.
type Momentum struct {
	Team   Team
	Points int
}

// GameState is the fair-value input, mutated only through Apply and Tick.
type GameState struct {
	HomeScore     int
	AwayScore     int
	TimeRemaining float64
	// MaxTime is the first positive clock observed; 0 until then.
	MaxTime    float64
	Possession Team
	Momentum   Momentum
}

// NewGameState returns the start-of-game state.
func NewGameState() GameState {
	return GameState{TimeRemaining: RegulationSeconds}
}

// ScoreDiff is home minus away.
func (g GameState) ScoreDiff() int {
	return g.HomeScore - g.AwayScore
}

// Apply folds an event into the state.
func (g *GameState) Apply(ev GameEvent) {
	g.HomeScore = ev.HomeScore
	g.AwayScore = ev.AwayScore
	if ev.HasClock {
		g.Tick(ev.Clock)
	}

	switch ev.Kind {
	case EventJumpBall:
		if ev.Team != TeamUnknown {
			g.Possession = ev.Team
		}
	case EventScore:
		g.Possession = g.Possession.Other()
		g.addMomentum(ev)
	case EventRebound, EventSteal:
		g.Possession = ev.Team
	case EventTurnover:
		g.Possession = ev.Team.Other()
	case EventMissed, EventBlock, EventFoul, EventTimeout, EventSubstitution,
		EventStartPeriod, EventEndPeriod, EventEndGame, EventDeadBall,
		EventNothing, EventUnknown:
	}
}

// Tick moves the clock without a play. Negative clocks read as zero.
func (g *GameState) Tick(clock float64) {
	g.TimeRemaining = max(0, clock)
	if g.MaxTime == 0 && g.TimeRemaining > 0 {
		g.MaxTime = g.TimeRemaining
	}
}

func (g *GameState) addMomentum(ev GameEvent) {
	points := 2
	if shot, ok := ev.Payload.(ShotPayload); ok {
		points = shot.Shot.Points()
	}
	if g.Momentum.Team != ev.Team {
		g.Momentum = Momentum{Team: ev.Team, Points: points}
		return
	}
	g.Momentum.Points += points
}
