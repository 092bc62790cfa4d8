package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nndrao/stomp-server/internal/adapter/metrics"
)

// queryTracer records per-statement latency and errors.
type queryTracer struct {
	metrics *metrics.DatabaseMetrics
	now     func() time.Time
}

var _ pgx.QueryTracer = (*queryTracer)(nil)

type traceKey struct{}

type traceStart struct {
	at    time.Time
	query string
}

func newQueryTracer(m *metrics.DatabaseMetrics) *queryTracer {
	return &queryTracer{metrics: m, now: time.Now}
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{at: t.now(), query: queryVerb(data.SQL)})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	t.metrics.QueryDuration.WithLabelValues(start.query).Observe(t.now().Sub(start.at).Seconds())
	if data.Err != nil {
		t.metrics.QueryErrors.WithLabelValues(start.query).Inc()
	}
}

// queryVerb keeps metric labels low-cardinality by using the leading keyword.
func queryVerb(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	verb := strings.ToUpper(fields[0])
	if len(verb) > 20 {
		verb = verb[:20]
	}
	return verb
}
