package session

import (
	"testing"

	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestParseTrigger(t *testing.T) {
	tests := []struct {
		name        string
		destination string
		body        string
		want        Trigger
		ok          bool
	}{
		{"destination only", "/snapshot/positions/1000", "", Trigger{domain.KindPositions, 1000, 100}, true},
		{"explicit batch", "/snapshot/trades/1000/25", "", Trigger{domain.KindTrades, 1000, 25}, true},
		{"low rate clamps batch to one", "/snapshot/trades/5", "", Trigger{domain.KindTrades, 5, 1}, true},
		{"body wins", "/app/request", "/snapshot/positions/100", Trigger{domain.KindPositions, 100, 10}, true},
		{"body wins over matching destination", "/snapshot/trades/10", "/snapshot/positions/20/3", Trigger{domain.KindPositions, 20, 3}, true},
		{"non-trigger body falls back to destination", "/snapshot/trades/50", "hello", Trigger{domain.KindTrades, 50, 5}, true},
		{"unknown kind", "/snapshot/bonds/10", "", Trigger{}, false},
		{"zero rate", "/snapshot/positions/0", "", Trigger{}, false},
		{"zero batch", "/snapshot/positions/10/0", "", Trigger{}, false},
		{"negative rate", "/snapshot/positions/-1", "", Trigger{}, false},
		{"trailing slash", "/snapshot/positions/10/", "", Trigger{}, false},
		{"rate overflow", "/snapshot/positions/99999999999999999999", "", Trigger{}, false},
		{"missing rate", "/snapshot/positions", "", Trigger{}, false},
		{"body starting with prefix but invalid", "/snapshot/positions/10", "/snapshot/nope", Trigger{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTrigger(tt.destination, tt.body)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLiveInterval(t *testing.T) {
	assert.Equal(t, "5ms", liveInterval(200).String())
	assert.Equal(t, "1s", liveInterval(1).String())
	assert.Equal(t, "1ms", liveInterval(5000).String())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		destination string
		want        domain.Kind
		ok          bool
	}{
		{"/snapshot/positions", domain.KindPositions, true},
		{"/snapshot/trades", domain.KindTrades, true},
		{"/snapshot/bonds", "", false},
		{"/snapshot/positions/10", "", false},
		{"/topic/positions", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.destination, func(t *testing.T) {
			got, ok := kindOf(tt.destination)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
