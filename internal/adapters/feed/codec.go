package feed

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
)

// ErrUnknownType is returned for records with an unrecognised "type".
var ErrUnknownType = errors.New("unknown message type")

// wireMessage is the JSON form shared by replay files and the websocket.
//
//	{"type":"snapshot","ticker":"TEAM_A","bids":[[45,10]],"asks":[[55,8]]}
//	{"type":"book","ticker":"TEAM_A","side":"buy","price":45,"quantity":0}
//	{"type":"trade","ticker":"TEAM_A","side":"sell","price":45,"quantity":2}
//	{"type":"game","event_type":"SCORE","home_away":"home","home_score":2,...}
//	{"type":"clock","time_seconds":2875}
type wireMessage struct {
	Type     string       `json:"type"`
	Ticker   string       `json:"ticker"`
	Side     string       `json:"side"`
	Price    float64      `json:"price"`
	Quantity float64      `json:"quantity"`
	Bids     [][2]float64 `json:"bids"`
	Asks     [][2]float64 `json:"asks"`

	EventType             string   `json:"event_type"`
	HomeAway              string   `json:"home_away"`
	HomeScore             int      `json:"home_score"`
	AwayScore             int      `json:"away_score"`
	PlayerName            string   `json:"player_name"`
	SubstitutedPlayerName string   `json:"substituted_player_name"`
	ShotType              string   `json:"shot_type"`
	AssistPlayer          string   `json:"assist_player"`
	ReboundType           string   `json:"rebound_type"`
	CoordinateX           float64  `json:"coordinate_x"`
	CoordinateY           float64  `json:"coordinate_y"`
	TimeSeconds           *float64 `json:"time_seconds"`
}

// Decode parses one JSON record.
func Decode(data []byte) (ports.Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return ports.Message{}, fmt.Errorf("feed.Decode: %w", err)
	}

	switch w.Type {
	case "snapshot":
		return ports.Message{
			Kind:       ports.MsgBookSnapshot,
			Instrument: instrument(w.Ticker),
			Bids:       levels(w.Bids),
			Asks:       levels(w.Asks),
		}, nil

	case "book", "trade":
		side, err := domain.ParseSide(w.Side)
		if err != nil {
			return ports.Message{}, fmt.Errorf("feed.Decode: %w", err)
		}
		kind := ports.MsgBookDelta
		if w.Type == "trade" {
			kind = ports.MsgTrade
		}
		return ports.Message{
			Kind:       kind,
			Instrument: instrument(w.Ticker),
			Side:       side,
			Price:      w.Price,
			Quantity:   w.Quantity,
		}, nil

	case "game":
		return ports.Message{Kind: ports.MsgGameEvent, Event: gameEvent(w)}, nil

	case "clock":
		if w.TimeSeconds == nil {
			return ports.Message{}, fmt.Errorf("feed.Decode: clock record without time_seconds")
		}
		return ports.Message{Kind: ports.MsgClock, Clock: *w.TimeSeconds}, nil
	}
	return ports.Message{}, fmt.Errorf("feed.Decode: %w: %q", ErrUnknownType, w.Type)
}

func instrument(ticker string) domain.Instrument {
	if ticker == "" {
		return domain.TeamA
	}
	return domain.Instrument(ticker)
}

func levels(raw [][2]float64) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(raw))
	for _, l := range raw {
		out = append(out, domain.PriceLevel{Price: l[0], Quantity: l[1]})
	}
	return out
}

func gameEvent(w wireMessage) domain.GameEvent {
	ev := domain.GameEvent{
		Kind:      domain.ParseEventKind(w.EventType),
		Team:      domain.ParseTeam(w.HomeAway),
		HomeScore: w.HomeScore,
		AwayScore: w.AwayScore,
	}
	if w.TimeSeconds != nil {
		ev.Clock = *w.TimeSeconds
		ev.HasClock = true
	}

	switch ev.Kind {
	case domain.EventScore, domain.EventMissed:
		ev.Payload = domain.ShotPayload{
			Shooter: w.PlayerName,
			Shot:    domain.ShotType(w.ShotType),
			Assist:  w.AssistPlayer,
			X:       w.CoordinateX,
			Y:       w.CoordinateY,
		}
	case domain.EventRebound:
		ev.Payload = domain.ReboundPayload{Player: w.PlayerName, Kind: w.ReboundType}
	case domain.EventSubstitution:
		ev.Payload = domain.SubstitutionPayload{In: w.PlayerName, Out: w.SubstitutedPlayerName}
	case domain.EventSteal, domain.EventBlock, domain.EventTurnover, domain.EventFoul:
		ev.Payload = domain.PlayerPayload{Player: w.PlayerName}
	case domain.EventUnknown, domain.EventJumpBall, domain.EventTimeout, domain.EventStartPeriod,
		domain.EventEndPeriod, domain.EventEndGame, domain.EventDeadBall, domain.EventNothing:
		ev.Payload = domain.NoPayload{}
	}
	return ev
}
