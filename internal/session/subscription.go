package session

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nndrao/stomp-server/internal/domain"
)

const defaultAckMode = "auto"

// deliveryState is the tagged union of what a subscription is currently doing.
type deliveryState interface{ isDeliveryState() }

type baseDeliveryState struct{}

func (baseDeliveryState) isDeliveryState() {}

type idleState struct {
	baseDeliveryState
}

type snapshotState struct {
	baseDeliveryState
	dataset     *domain.Dataset
	rate        int
	batchSize   int
	cursor      int
	batchNumber int
}

type liveState struct {
	baseDeliveryState
	rate     int
	interval time.Duration
	updates  int
}

type subscription struct {
	id          string
	destination string
	ack         string
	kind        domain.Kind
	state       deliveryState

	// delivered holds exactly the records sent during the snapshot, in order.
	delivered []domain.Record

	// timer is the single pending tick for this subscription, nil when idle.
	timer clockwork.Timer
	// generation tags the ticks of the current schedule. Values come from a
	// per-session counter and are never reused, even across subscriptions
	// that share an id.
	generation uint64
}

func newSubscription(id, destination, ack string, generation uint64) *subscription {
	if ack == "" {
		ack = defaultAckMode
	}
	return &subscription{
		id:          id,
		destination: destination,
		ack:         ack,
		state:       idleState{},
		generation:  generation,
	}
}

// stop cancels the pending tick, if any, and moves the subscription to the
// given generation so ticks already queued are discarded.
func (sub *subscription) stop(generation uint64) {
	if sub.timer != nil {
		sub.timer.Stop()
		sub.timer = nil
	}
	sub.generation = generation
}

// table keeps subscriptions by id while preserving insertion order, which
// decides the winner when several subscriptions share a destination.
type table struct {
	byID  map[string]*subscription
	order []string
}

func newTable() *table {
	return &table{byID: make(map[string]*subscription)}
}

func (t *table) get(id string) (*subscription, bool) {
	sub, ok := t.byID[id]
	return sub, ok
}

// put stores sub, returning the subscription it replaced if any.
func (t *table) put(sub *subscription) *subscription {
	prev, exists := t.byID[sub.id]
	if !exists {
		t.order = append(t.order, sub.id)
	}
	t.byID[sub.id] = sub
	return prev
}

func (t *table) remove(id string) (*subscription, bool) {
	sub, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	delete(t.byID, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return sub, true
}

func (t *table) byDestination(destination string) (*subscription, bool) {
	for _, id := range t.order {
		if sub := t.byID[id]; sub.destination == destination {
			return sub, true
		}
	}
	return nil, false
}

func (t *table) all() []*subscription {
	subs := make([]*subscription, 0, len(t.order))
	for _, id := range t.order {
		subs = append(subs, t.byID[id])
	}
	return subs
}

func (t *table) clear() {
	t.byID = make(map[string]*subscription)
	t.order = nil
}

func (t *table) len() int { return len(t.order) }
