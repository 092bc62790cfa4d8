package session

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nndrao/stomp-server/internal/domain"
)

const snapshotPrefix = "/snapshot/"

var triggerPattern = regexp.MustCompile(`^/snapshot/(positions|trades)/(\d+)(?:/(\d+))?$`)

// Trigger is a parsed snapshot request: /snapshot/<kind>/<rate>[/<batchSize>].
type Trigger struct {
	Kind      domain.Kind
	Rate      int
	BatchSize int
}

// ParseTrigger extracts a trigger from a SEND frame. The body wins when it
// starts with /snapshot/, otherwise the destination header is used.
func ParseTrigger(destination, body string) (Trigger, bool) {
	request := destination
	if strings.HasPrefix(body, snapshotPrefix) {
		request = body
	}

	m := triggerPattern.FindStringSubmatch(request)
	if m == nil {
		return Trigger{}, false
	}

	rate, err := strconv.Atoi(m[2])
	if err != nil || rate <= 0 {
		return Trigger{}, false
	}

	batchSize := max(1, rate/10)
	if m[3] != "" {
		batchSize, err = strconv.Atoi(m[3])
		if err != nil || batchSize <= 0 {
			return Trigger{}, false
		}
	}

	kind, err := domain.ParseKind(m[1])
	if err != nil {
		return Trigger{}, false
	}
	return Trigger{Kind: kind, Rate: rate, BatchSize: batchSize}, true
}
