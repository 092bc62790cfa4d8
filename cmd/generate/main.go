// Command generate writes synthetic positions and trades to the local data
// directory.
package main

import (
	"flag"
	"log"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/nndrao/stomp-server/internal/adapter/localfile"
	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/nndrao/stomp-server/internal/platform/logging"
	"github.com/nndrao/stomp-server/internal/record"
)

func main() {
	var (
		outDir    = flag.String("out", "data", "Output directory")
		positions = flag.Int("positions", 1000, "Number of positions to generate")
		trades    = flag.Int("trades", 1000, "Number of trades to generate")
		cusips    = flag.Int("cusips", 5000, "Size of the CUSIP pool shared by positions and trades")
	)
	flag.Parse()

	logging.InitLogger("info", "text")

	if *positions < 0 || *trades < 0 {
		log.Fatal("positions and trades must not be negative")
	}

	gen := record.NewGenerator(clockwork.NewRealClock(), nil, *cusips)
	store := localfile.NewStore(*outDir)

	counts := map[domain.Kind]int{domain.KindPositions: *positions, domain.KindTrades: *trades}
	for _, kind := range domain.Kinds {
		records := make([]domain.Record, counts[kind])
		for i := range records {
			if kind == domain.KindPositions {
				records[i] = gen.Position(i)
			} else {
				records[i] = gen.Trade(i)
			}
		}

		if err := store.Write(kind, records); err != nil {
			log.Fatalf("Failed to write %s: %v", kind, err)
		}
		slog.Info("Generated records", "kind", kind, "records", len(records), "path", store.Path(kind))
	}
}
