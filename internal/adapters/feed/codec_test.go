package feed_test

import (
	"testing"

	"github.com/alejandrodnm/courtside/internal/adapters/feed"
	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Book(t *testing.T) {
	msg, err := feed.Decode([]byte(`{"type":"snapshot","ticker":"TEAM_A","bids":[[45,10],[44,3]],"asks":[[55,8]]}`))
	require.NoError(t, err)
	assert.Equal(t, ports.MsgBookSnapshot, msg.Kind)
	assert.Equal(t, domain.TeamA, msg.Instrument)
	assert.Equal(t, []domain.PriceLevel{{Price: 45, Quantity: 10}, {Price: 44, Quantity: 3}}, msg.Bids)
	assert.Equal(t, []domain.PriceLevel{{Price: 55, Quantity: 8}}, msg.Asks)

	msg, err = feed.Decode([]byte(`{"type":"book","side":"sell","price":55,"quantity":0}`))
	require.NoError(t, err)
	assert.Equal(t, ports.Message{Kind: ports.MsgBookDelta, Instrument: domain.TeamA, Side: domain.Sell, Price: 55}, msg)

	msg, err = feed.Decode([]byte(`{"type":"trade","ticker":"TEAM_A","side":"BUY","price":55,"quantity":2}`))
	require.NoError(t, err)
	assert.Equal(t, ports.MsgTrade, msg.Kind)
	assert.Equal(t, domain.Buy, msg.Side)
}

func TestDecode_GameEvents(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want domain.GameEvent
	}{
		{
			name: "three pointer",
			in:   `{"type":"game","event_type":"SCORE","home_away":"away","home_score":10,"away_score":13,"player_name":"Guard","shot_type":"THREE_POINT","assist_player":"Center","coordinate_x":7.5,"coordinate_y":-2,"time_seconds":1801.5}`,
			want: domain.GameEvent{
				Kind: domain.EventScore, Team: domain.Away, HomeScore: 10, AwayScore: 13,
				Clock: 1801.5, HasClock: true,
				Payload: domain.ShotPayload{Shooter: "Guard", Shot: domain.ShotThreePoint, Assist: "Center", X: 7.5, Y: -2},
			},
		},
		{
			name: "rebound",
			in:   `{"type":"game","event_type":"REBOUND","home_away":"home","player_name":"Big","rebound_type":"defensive","time_seconds":1790}`,
			want: domain.GameEvent{
				Kind: domain.EventRebound, Team: domain.Home, Clock: 1790, HasClock: true,
				Payload: domain.ReboundPayload{Player: "Big", Kind: "defensive"},
			},
		},
		{
			name: "substitution without clock",
			in:   `{"type":"game","event_type":"SUBSTITUTION","home_away":"home","player_name":"In","substituted_player_name":"Out"}`,
			want: domain.GameEvent{
				Kind: domain.EventSubstitution, Team: domain.Home,
				Payload: domain.SubstitutionPayload{In: "In", Out: "Out"},
			},
		},
		{
			name: "end game",
			in:   `{"type":"game","event_type":"END_GAME","home_away":"unknown","home_score":101,"away_score":99,"time_seconds":0}`,
			want: domain.GameEvent{
				Kind: domain.EventEndGame, HomeScore: 101, AwayScore: 99, HasClock: true,
				Payload: domain.NoPayload{},
			},
		},
		{
			name: "unknown tag",
			in:   `{"type":"game","event_type":"CHALLENGE","home_score":4}`,
			want: domain.GameEvent{Kind: domain.EventUnknown, HomeScore: 4, Payload: domain.NoPayload{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := feed.Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, ports.MsgGameEvent, msg.Kind)
			assert.Equal(t, tt.want, msg.Event)
		})
	}
}

func TestDecode_Clock(t *testing.T) {
	msg, err := feed.Decode([]byte(`{"type":"clock","time_seconds":0}`))
	require.NoError(t, err)
	assert.Equal(t, ports.Message{Kind: ports.MsgClock}, msg)

	_, err = feed.Decode([]byte(`{"type":"clock"}`))
	assert.Error(t, err)
}

func TestDecode_Errors(t *testing.T) {
	_, err := feed.Decode([]byte(`{"type":"heartbeat"}`))
	assert.ErrorIs(t, err, feed.ErrUnknownType)

	_, err = feed.Decode([]byte(`{"type":"book","side":"sideways","price":1,"quantity":1}`))
	assert.Error(t, err)

	_, err = feed.Decode([]byte(`not json`))
	assert.Error(t, err)
}
