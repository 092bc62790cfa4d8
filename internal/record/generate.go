package record

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var (
	instrumentTypes = []string{"Treasury", "Corporate", "Municipal", "MBS", "ABS", "Agency", "Sovereign"}
	currencies      = []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF"}
	sectors         = []string{"Financial", "Technology", "Healthcare", "Energy", "Consumer", "Industrial", "Utilities", "Real Estate"}
	ratings         = []string{"AAA", "AA+", "AA", "AA-", "A+", "A", "A-", "BBB+", "BBB", "BBB-", "BB+", "BB", "BB-"}
	traders         = []string{"John Smith", "Jane Doe", "Mike Johnson", "Sarah Williams", "Tom Brown", "Lisa Davis"}
	books           = []string{"BOOK001", "BOOK002", "BOOK003", "BOOK004", "BOOK005"}
	desks           = []string{"IG Credit", "HY Credit", "Govies", "EM Debt", "Structured Products", "Rates"}
	regions         = []string{"Americas", "EMEA", "APAC"}
	priceSources    = []string{"Bloomberg", "Reuters", "ICE", "MarketAxess"}
)

const cusipAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generator builds synthetic datasets for local development and load tests.
type Generator struct {
	clock  clockwork.Clock
	random func() float64
	cusips []string
}

func NewGenerator(clock clockwork.Clock, random func() float64, cusipCount int) *Generator {
	g := &Generator{clock: clock, random: random}
	if g.random == nil {
		g.random = rand.Float64
	}
	for range max(cusipCount, 1) {
		g.cusips = append(g.cusips, g.cusip())
	}
	return g
}

func (g *Generator) between(lo, hi float64, decimals int) float64 {
	v := lo + g.random()*(hi-lo)
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

func (g *Generator) pick(values []string) string {
	return values[int(g.random()*float64(len(values)))%len(values)]
}

func (g *Generator) cusip() string {
	b := make([]byte, 9)
	for i := range b {
		b[i] = cusipAlphabet[int(g.random()*float64(len(cusipAlphabet)))%len(cusipAlphabet)]
	}
	return string(b)
}

func (g *Generator) dateWithin(from, to time.Time) string {
	span := to.Sub(from)
	return from.Add(time.Duration(g.random() * float64(span))).Format(dateLayout)
}

func mustRaw(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("generator: marshal static section: %v", err))
	}
	return data
}

// Position builds the index-th synthetic position.
func (g *Generator) Position(index int) *Position {
	now := g.clock.Now().UTC()
	ts := now.Format(timestampLayout)
	notional := g.between(100_000, 50_000_000, 0)
	price := g.between(85, 115, 4)
	marketValue := notional * price / 100
	accrued := g.between(0, notional*0.05, 2)

	return &Position{
		PositionID:         "POS-" + uuid.NewString(),
		Cusip:              g.cusips[index%len(g.cusips)],
		Isin:               "US" + g.cusip()[:9] + "0",
		Ticker:             fmt.Sprintf("TICK%d", index),
		InstrumentName:     fmt.Sprintf("%s %d %.3f%%", g.pick(sectors), int(g.between(2025, 2050, 0)), g.between(1, 10, 3)),
		InstrumentType:     g.pick(instrumentTypes),
		AsOfDate:           ts,
		BookName:           g.pick(books),
		Portfolio:          fmt.Sprintf("PORT%d", index/100),
		Trader:             g.pick(traders),
		Desk:               g.pick(desks),
		Region:             g.pick(regions),
		Currency:           g.pick(currencies),
		Quantity:           g.between(100, 10_000, 0),
		NotionalAmount:     notional,
		MarketValue:        marketValue,
		BookValue:          marketValue * g.between(0.95, 1.05, 4),
		AccruedInterest:    accrued,
		TotalValue:         marketValue + accrued,
		CostBasis:          marketValue * g.between(0.9, 1.1, 4),
		AveragePrice:       price,
		CurrentPrice:       price,
		PriceSource:        g.pick(priceSources),
		Pnl:                g.between(-100_000, 100_000, 0),
		UnrealizedPnl:      g.between(-50_000, 50_000, 0),
		RealizedPnl:        g.between(-50_000, 50_000, 0),
		DailyPnl:           g.between(-10_000, 10_000, 0),
		MtdPnl:             g.between(-50_000, 50_000, 0),
		YtdPnl:             g.between(-200_000, 200_000, 0),
		MaturityDate:       g.dateWithin(now, now.AddDate(30, 0, 0)),
		IssueDate:          g.dateWithin(now.AddDate(-10, 0, 0), now),
		CouponRate:         g.between(0, 8, 3),
		CouponFrequency:    2,
		DayCountConvention: "30/360",
		Yield:              g.between(0, 8, 3),
		YieldToMaturity:    g.between(0, 8, 3),
		ModifiedDuration:   g.between(0.1, 20, 2),
		EffectiveDuration:  g.between(0.1, 20, 2),
		MacaulayDuration:   g.between(0.1, 20, 2),
		Convexity:          g.between(0, 500, 2),
		EffectiveConvexity: g.between(0, 500, 2),
		Spread:             g.between(-50, 500, 0),
		AssetSwapSpread:    g.between(-50, 500, 0),
		ZSpread:            g.between(-50, 500, 0),
		Oas:                g.between(-50, 500, 0),
		Dv01:               g.between(10, 10_000, 2),
		Pv01:               g.between(10, 10_000, 2),
		Cs01:               g.between(1, 1_000, 2),
		RiskMetrics: &PositionRiskMetrics{
			Var95:             g.between(10_000, 1_000_000, 2),
			Var99:             g.between(20_000, 2_000_000, 2),
			Cvar95:            g.between(15_000, 1_500_000, 2),
			Cvar99:            g.between(25_000, 2_500_000, 2),
			ExpectedShortfall: g.between(20_000, 2_000_000, 2),
			Beta:              g.between(0.5, 1.5, 3),
			Correlation:       g.between(-1, 1, 3),
			TrackingError:     g.between(0, 5, 3),
			SharpeRatio:       g.between(-2, 3, 3),
			InformationRatio:  g.between(-2, 3, 3),
		},
		Analytics: &PositionAnalytics{
			KeyRateDuration: mustRaw(map[string]float64{"1Y": g.between(-0.5, 0.5, 4), "5Y": g.between(-3, 3, 4), "10Y": g.between(-5, 5, 4)}),
			ScenarioAnalysis: &ScenarioAnalysis{
				ParallelShiftUp100:   g.between(-10, -1, 2),
				ParallelShiftDown100: g.between(1, 10, 2),
				Steepening50:         g.between(-5, 5, 2),
				Flattening50:         g.between(-5, 5, 2),
				Twist:                g.between(-3, 3, 2),
			},
			Greeks: &Greeks{
				Delta: g.between(-1, 1, 4),
				Gamma: g.between(0, 0.1, 6),
				Theta: g.between(-100, 0, 2),
				Vega:  g.between(0, 1_000, 2),
				Rho:   g.between(-1_000, 1_000, 2),
			},
		},
		MarketData: &PositionMarketData{
			LastTradeTime:  ts,
			LastTradePrice: price,
			BidPrice:       price - g.between(0.1, 0.5, 4),
			AskPrice:       price + g.between(0.1, 0.5, 4),
			MidPrice:       price,
			Volume:         g.between(1_000_000, 100_000_000, 0),
		},
		Liquidity: &Liquidity{
			BidAskSpread:    g.between(0.01, 2, 4),
			AvgDailyVolume:  g.between(1_000_000, 100_000_000, 0),
			LiquidityScore:  g.between(1, 10, 2),
			MarketDepth:     g.between(1_000_000, 50_000_000, 0),
			DaysToLiquidate: g.between(1, 30, 0),
		},
		Performance: &Performance{
			DailyReturn:     g.between(-5, 5, 4),
			MtdReturn:       g.between(-10, 10, 4),
			QtdReturn:       g.between(-15, 15, 4),
			YtdReturn:       g.between(-20, 20, 4),
			InceptionReturn: g.between(-30, 50, 4),
		},
		Compliance: &PositionCompliance{
			RegulatoryCapital:  g.between(10_000, 1_000_000, 2),
			Rwa:                g.between(10_000, 5_000_000, 2),
			LiquidityCoverage:  g.between(100, 200, 2),
			Nsfr:               g.between(100, 150, 2),
			LeverageRatio:      g.between(3, 10, 2),
			ConcentrationLimit: g.between(0, 100, 2),
			BreachStatus:       g.random() > 0.95,
		},
		Reporting: &PositionReporting{
			ReportingCurrency: g.pick(currencies),
			ReportingValue:    marketValue * g.between(0.8, 1.2, 2),
			FxRate:            g.between(0.5, 2, 4),
			ReportingDate:     now.Format(dateLayout),
		},
		Metadata: &PositionMetadata{
			CreatedDate:  ts,
			ModifiedDate: ts,
			CreatedBy:    g.pick(traders),
			ModifiedBy:   g.pick(traders),
			Version:      1,
		},
		Rating: mustRaw(map[string]string{"moody": g.pick(ratings), "sp": g.pick(ratings), "fitch": g.pick(ratings)}),
		Issuer: mustRaw(map[string]string{"name": fmt.Sprintf("%s Corp %d", g.pick(sectors), index), "sector": g.pick(sectors)}),
	}
}

// Trade builds the index-th synthetic trade.
func (g *Generator) Trade(index int) *Trade {
	now := g.clock.Now().UTC()
	ts := now.Format(timestampLayout)
	side := SideBuy
	if g.random() < 0.5 {
		side = SideSell
	}
	quantity := g.between(100, 10_000, 0)
	price := g.between(85, 115, 4)
	notional := quantity * 1000 * price / 100

	realized, unrealized := 0.0, 0.0
	if side == SideSell {
		realized = g.between(-10_000, 50_000, 0)
	} else {
		unrealized = g.between(-10_000, 50_000, 0)
	}

	return &Trade{
		TradeID:            "TRD-" + uuid.NewString(),
		Cusip:              g.cusips[int(g.random()*float64(len(g.cusips)))%len(g.cusips)],
		Ticker:             fmt.Sprintf("TICK%d", index%1000),
		InstrumentName:     fmt.Sprintf("%s %d %.3f%%", g.pick(sectors), int(g.between(2025, 2050, 0)), g.between(1, 10, 3)),
		InstrumentType:     g.pick(instrumentTypes),
		TradeDate:          ts,
		SettlementDate:     g.dateWithin(now, now.Add(72*time.Hour)),
		ValueDate:          g.dateWithin(now, now.Add(72*time.Hour)),
		Side:               side,
		Quantity:           quantity,
		NotionalAmount:     notional,
		Price:              price,
		Yield:              g.between(0, 8, 3),
		Spread:             g.between(-50, 500, 0),
		AccruedInterest:    g.between(0, notional*0.02, 2),
		TotalConsideration: notional + g.between(0, notional*0.02, 2),
		PrincipalAmount:    notional,
		Currency:           g.pick(currencies),
		FxRate:             g.between(0.8, 1.2, 4),
		BaseCurrencyAmount: notional * g.between(0.8, 1.2, 2),
		TradeType:          "PRINCIPAL",
		Status:             "FILLED",
		Trader:             g.pick(traders),
		Book:               g.pick(books),
		Portfolio:          fmt.Sprintf("PORT%d", index/300),
		Desk:               g.pick(desks),
		Settlement:         &TradeSettlement{Custodian: "BNY Mellon", SettlementAccount: fmt.Sprintf("SETTACC-%d", index), Dvp: true},
		Fees: &TradeFees{
			BrokerCommission: g.between(0, 100, 2),
			ExchangeFee:      g.between(0, 50, 2),
			ClearingFee:      g.between(0, 30, 2),
			SettlementFee:    g.between(0, 20, 2),
			RegulatoryFee:    g.between(0, 10, 2),
			OtherFees:        g.between(0, 20, 2),
			TotalFees:        g.between(0, 250, 2),
		},
		Compliance: &TradeCompliance{BestExecution: true, RegulatoryReporting: true, MifidClass: "BOND", PreTradeChecks: "Passed", PostTradeChecks: "Passed"},
		Pricing: &Pricing{
			PriceSource:    g.pick(priceSources),
			QuotedPrice:    price - g.between(0, 0.5, 4),
			ExecutedPrice:  price,
			MarkupMarkdown: g.between(-0.5, 0.5, 4),
			BenchmarkPrice: price - g.between(-0.2, 0.2, 4),
			Slippage:       g.between(-0.1, 0.1, 4),
		},
		Execution: &Execution{
			ExecutionTime:    ts,
			ExecutionVenue:   "Tradeweb",
			ExecutionMethod:  "RFQ",
			OrderTime:        now.Add(-time.Duration(g.between(60, 600, 0)) * time.Second).Format(timestampLayout),
			ConfirmationTime: ts,
			Latency:          g.between(10, 1_000, 0),
		},
		MarketData: &TradeMarketData{
			BidPriceAtExecution: price - g.between(0.1, 0.5, 4),
			AskPriceAtExecution: price + g.between(0.1, 0.5, 4),
			MidPriceAtExecution: price,
			Vwap:                price + g.between(-0.2, 0.2, 4),
			MarketVolume:        g.between(10_000_000, 1_000_000_000, 0),
		},
		Analytics: &TradeAnalytics{
			Tca: &TCA{
				ImplementationShortfall: g.between(-50, 50, 2),
				ArrivalPrice:            price - g.between(-0.1, 0.1, 4),
				ParticipationRate:       g.between(0, 20, 2),
				MarketImpact:            g.between(-20, 20, 2),
				TimingCost:              g.between(-10, 10, 2),
			},
			Pnl: &TradePnl{
				RealizedPnl:   realized,
				UnrealizedPnl: unrealized,
				TradePnl:      g.between(-5_000, 5_000, 0),
				DayOnePnl:     g.between(-2_000, 2_000, 0),
			},
		},
		RiskMetrics: &TradeRiskMetrics{
			Dv01:           g.between(10, 10_000, 2),
			Duration:       g.between(0.1, 20, 2),
			Convexity:      g.between(0, 500, 2),
			Var:            g.between(1_000, 100_000, 2),
			CreditExposure: g.between(0, notional*0.1, 2),
		},
		Lifecycle: &Lifecycle{CreatedDate: ts, ModifiedDate: ts, AmendmentHistory: json.RawMessage(`[]`)},
		Collateral: &TradeCollateral{
			CollateralType:    "Cash",
			CollateralAmount:  g.between(0, notional*0.2, 2),
			MarginRequirement: g.between(0, notional*0.1, 2),
			Haircut:           g.between(0, 10, 2),
		},
		Reporting: &TradeReporting{
			TradeReportingStatus:   "Reported",
			RegulatoryReportingID:  "REG-" + uuid.NewString(),
			ReportingTimestamp:     ts,
			ReportingJurisdictions: []string{"US", "EU"},
		},
		Metadata:     &TradeMetadata{Source: "FIX", Version: 1, LastUpdatedBy: g.pick(traders)},
		Counterparty: mustRaw(map[string]string{"name": fmt.Sprintf("Counterparty %d", index/100), "rating": g.pick(ratings)}),
	}
}
