package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/nndrao/stomp-server/internal/platform/config"
	"github.com/nndrao/stomp-server/internal/record"
)

var testStart = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fakeListener struct {
	active int
	served atomic.Int32
}

func (f *fakeListener) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	f.served.Add(1)
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func (f *fakeListener) ActiveConnections() int { return f.active }

func healthOK(_ context.Context) error { return nil }

func healthErr(msg string) func(context.Context) error {
	return func(_ context.Context) error { return errors.New(msg) }
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) { s.healthChecks = checks }
}

func withData(data domain.Loaded) func(*Server) {
	return func(s *Server) { s.data = data }
}

func withListener(l websocketListener) func(*Server) {
	return func(s *Server) { s.listener = l }
}

func withLocalData() func(*Server) {
	return func(s *Server) { s.config.UseLocalData = true }
}

func newTestServer(t *testing.T, opts ...func(*Server)) (*Server, *clockwork.FakeClock) {
	t.Helper()

	clock := clockwork.NewFakeClockAt(testStart)
	srv := &Server{
		echo:      echo.New(),
		config:    &config.Config{AppEnv: "test", Port: "8080"},
		clock:     clock,
		startTime: clock.Now(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.registerRoutes()
	return srv, clock
}

func loaded(source domain.DataSource, positions, trades int) domain.Loaded {
	return domain.Loaded{
		Source: source,
		Datasets: domain.Datasets{
			domain.KindPositions: domain.NewDataset(domain.KindPositions, makeRecords(positions)),
			domain.KindTrades:    domain.NewDataset(domain.KindTrades, makeRecords(trades)),
		},
	}
}

func makeRecords(n int) []domain.Record {
	out := make([]domain.Record, n)
	for i := range out {
		out[i] = &record.Position{PositionID: "P" + strconv.Itoa(i)}
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{AppEnv: "test", Port: "8080"}
}
