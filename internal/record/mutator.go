package record

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nndrao/stomp-server/internal/domain"
)

const (
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
	dateLayout      = "2006-01-02"
)

// Mutator produces plausible next-tick versions of records. The input record
// is never modified: changed sections are reallocated, untouched ones shared.
type Mutator struct {
	clock  clockwork.Clock
	random func() float64
}

// NewMutator creates a Mutator. random must return values in [0, 1) and be
// safe for concurrent use; nil selects math/rand/v2.
func NewMutator(clock clockwork.Clock, random func() float64) *Mutator {
	if random == nil {
		random = rand.Float64
	}
	return &Mutator{clock: clock, random: random}
}

// Mutate returns the next tick of r. Identity is always preserved.
func (m *Mutator) Mutate(r domain.Record) (domain.Record, error) {
	now := m.clock.Now().UTC()
	switch v := r.(type) {
	case *Position:
		return m.mutatePosition(v, now), nil
	case *Trade:
		return m.mutateTrade(v, now), nil
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnknownKind, r)
	}
}

// Refresh returns a copy of r with its time-of-day fields set to the current time.
func (m *Mutator) Refresh(r domain.Record) domain.Record {
	now := m.clock.Now().UTC()
	switch v := r.(type) {
	case *Position:
		return refreshPosition(v, now)
	case *Trade:
		return refreshTrade(v, now)
	default:
		return r
	}
}

// jitter returns 1 ± spread/2, uniformly distributed.
func (m *Mutator) jitter(spread float64) float64 {
	return 1 + (m.random()-0.5)*spread
}

// centered returns a value uniformly distributed in [-0.5, 0.5).
func (m *Mutator) centered() float64 {
	return m.random() - 0.5
}

// volumeFactor returns a uniform factor in [0.8, 1.2).
func (m *Mutator) volumeFactor() float64 {
	return 0.8 + m.random()*0.4
}

func (m *Mutator) mutatePosition(prev *Position, now time.Time) *Position {
	next := *prev
	ts := now.Format(timestampLayout)

	next.CurrentPrice = prev.CurrentPrice * m.jitter(0.02)
	next.MarketValue = next.NotionalAmount * next.CurrentPrice / 100
	next.TotalValue = next.MarketValue + next.AccruedInterest

	next.Pnl = round(next.MarketValue - next.BookValue)
	next.UnrealizedPnl = round(next.Pnl * 0.8)
	next.DailyPnl = round(m.centered() * math.Abs(next.Pnl) * 0.1)
	next.MtdPnl = round(prev.MtdPnl + next.DailyPnl)
	next.YtdPnl = round(prev.YtdPnl + next.DailyPnl)

	if prev.RiskMetrics != nil {
		rm := *prev.RiskMetrics
		rm.Var95 = round(rm.Var95 * m.jitter(0.1))
		rm.Var99 = round(rm.Var99 * m.jitter(0.1))
		rm.ExpectedShortfall = round(rm.Var99 * 1.2)
		rm.SharpeRatio = ratio(next.Pnl, next.NotionalAmount) / 0.16 * 252
		next.RiskMetrics = &rm
	}

	next.Dv01 = prev.Dv01 * m.jitter(0.05)
	next.Pv01 = prev.Pv01 * m.jitter(0.05)
	next.Cs01 = prev.Cs01 * m.jitter(0.05)
	next.Convexity = prev.Convexity * m.jitter(0.03)

	next.Spread = round(prev.Spread + m.centered()*10)
	next.AssetSwapSpread = round(prev.AssetSwapSpread + m.centered()*10)
	next.ZSpread = round(prev.ZSpread + m.centered()*10)
	next.Oas = round(prev.Oas + m.centered()*10)

	if prev.MarketData != nil {
		md := *prev.MarketData
		md.LastTradeTime = ts
		md.LastTradePrice = next.CurrentPrice
		md.BidPrice = next.CurrentPrice - m.random()*0.5
		md.AskPrice = next.CurrentPrice + m.random()*0.5
		md.MidPrice = (md.BidPrice + md.AskPrice) / 2
		md.Volume = round(md.Volume * m.volumeFactor())
		next.MarketData = &md
	}

	if prev.Analytics != nil {
		an := *prev.Analytics
		if an.Greeks != nil {
			g := *an.Greeks
			g.Delta *= m.jitter(0.1)
			g.Gamma = math.Abs(g.Gamma * m.jitter(0.2))
			g.Theta = -math.Abs(g.Theta * m.jitter(0.1))
			g.Vega = math.Abs(g.Vega * m.jitter(0.15))
			g.Rho *= m.jitter(0.1)
			an.Greeks = &g
		}
		if an.ScenarioAnalysis != nil {
			sa := *an.ScenarioAnalysis
			pnlChange := next.Pnl - prev.Pnl
			sa.ParallelShiftUp100 = round(-math.Abs(next.Dv01) * 100)
			sa.ParallelShiftDown100 = round(math.Abs(next.Dv01) * 100)
			sa.Steepening50 = round(pnlChange * m.centered() * 2)
			sa.Flattening50 = round(pnlChange * m.centered() * 2)
			an.ScenarioAnalysis = &sa
		}
		next.Analytics = &an
	}

	if prev.Liquidity != nil {
		lq := *prev.Liquidity
		if next.MarketData != nil {
			lq.BidAskSpread = math.Abs(next.MarketData.AskPrice - next.MarketData.BidPrice)
		}
		lq.LiquidityScore = clamp(lq.LiquidityScore+m.centered()*2, 1, 10)
		lq.MarketDepth = round(lq.MarketDepth * m.volumeFactor())
		next.Liquidity = &lq
	}

	if prev.Performance != nil {
		pf := *prev.Performance
		pf.DailyReturn = ratio(next.DailyPnl, next.NotionalAmount) * 100
		pf.MtdReturn = ratio(next.MtdPnl, next.NotionalAmount) * 100
		pf.YtdReturn = ratio(next.YtdPnl, next.NotionalAmount) * 100
		next.Performance = &pf
	}

	if prev.Compliance != nil {
		c := *prev.Compliance
		c.RegulatoryCapital = round(next.MarketValue * 0.08)
		if next.RiskMetrics != nil {
			c.Rwa = round(ratio(next.MarketValue*next.RiskMetrics.Var95, next.NotionalAmount))
		}
		c.ConcentrationLimit = math.Abs(next.MarketValue / 1e9 * 100)
		c.BreachStatus = c.ConcentrationLimit > 95
		next.Compliance = &c
	}

	if prev.Metadata != nil {
		md := *prev.Metadata
		md.ModifiedDate = ts
		next.Metadata = &md
	}

	return refreshPosition(&next, now)
}

func (m *Mutator) mutateTrade(prev *Trade, now time.Time) *Trade {
	next := *prev
	ts := now.Format(timestampLayout)

	marketPrice := prev.Price * m.jitter(0.02)
	movement := marketPrice - prev.Price
	direction := prev.direction()
	unrealized := round(prev.Quantity * 1000 * movement * direction)

	if prev.Analytics != nil {
		an := *prev.Analytics
		if an.Pnl != nil {
			p := *an.Pnl
			p.UnrealizedPnl = unrealized
			p.TradePnl = round(p.RealizedPnl + p.UnrealizedPnl)
			p.DayOnePnl = round(m.centered() * math.Abs(p.UnrealizedPnl) * 0.1)
			an.Pnl = &p
		}
		if an.Tca != nil {
			tca := *an.Tca
			tca.ImplementationShortfall = round((marketPrice - tca.ArrivalPrice) * direction * 10000)
			tca.MarketImpact = round(m.centered() * 50)
			tca.TimingCost = round(m.centered() * 20)
			tca.ParticipationRate = clamp(tca.ParticipationRate+m.centered()*10, 0, 100)
			an.Tca = &tca
		}
		next.Analytics = &an
	}

	if prev.MarketData != nil {
		md := *prev.MarketData
		md.BidPriceAtExecution = marketPrice - m.random()*0.5
		md.AskPriceAtExecution = marketPrice + m.random()*0.5
		md.MidPriceAtExecution = marketPrice
		md.Vwap = marketPrice + m.centered()*0.2
		md.MarketVolume = round(md.MarketVolume * m.volumeFactor())
		next.MarketData = &md
	}

	if prev.Pricing != nil {
		pr := *prev.Pricing
		pr.MarkupMarkdown = movement * direction
		pr.BenchmarkPrice = marketPrice - m.centered()*0.1
		pr.Slippage = ratio(pr.ExecutedPrice-pr.BenchmarkPrice, pr.BenchmarkPrice) * 10000
		next.Pricing = &pr
	}

	if prev.RiskMetrics != nil {
		rm := *prev.RiskMetrics
		rm.Var = round(rm.Var * m.jitter(0.1))
		rm.CreditExposure = round(math.Abs(unrealized) * 0.1)
		rm.Dv01 *= m.jitter(0.05)
		rm.Duration *= m.jitter(0.02)
		rm.Convexity *= m.jitter(0.03)
		next.RiskMetrics = &rm
	}

	next.Spread = round(prev.Spread + m.centered()*10)
	next.Yield = prev.Yield * m.jitter(0.02)

	if prev.Settlement != nil && next.Status != StatusSettled && settlementDue(prev.SettlementDate, now) {
		st := *prev.Settlement
		st.SettlementStatus = "Settled"
		next.Settlement = &st
		next.Status = StatusSettled
	}

	if prev.Fees != nil {
		f := *prev.Fees
		impact := round(math.Abs(movement*prev.Quantity*1000/100) * 0.0001)
		f.MarketImpactCost = &impact
		f.TotalFees = f.BrokerCommission + f.ExchangeFee + f.ClearingFee + f.SettlementFee + f.RegulatoryFee + impact
		next.Fees = &f
	}

	if prev.Collateral != nil {
		c := *prev.Collateral
		c.MarginRequirement = round(math.Abs(unrealized) * 0.1)
		c.CollateralAmount = round(c.MarginRequirement * 1.2)
		next.Collateral = &c
	}

	if prev.Compliance != nil {
		c := *prev.Compliance
		c.BestExecution = math.Abs(movement) < 0.5
		if unrealized > -100000 {
			c.PostTradeChecks = "Passed"
		} else {
			c.PostTradeChecks = "Warning"
		}
		next.Compliance = &c
	}

	if prev.Reporting != nil {
		r := *prev.Reporting
		r.ReportingTimestamp = ts
		r.LastUpdateTime = ts
		next.Reporting = &r
	}

	if prev.Lifecycle != nil {
		lc := *prev.Lifecycle
		lc.ModifiedDate = ts
		if lc.LastPriceUpdateTime == "" {
			lc.LastPriceUpdateTime = ts
		}
		next.Lifecycle = &lc
	}

	if prev.Metadata != nil {
		md := *prev.Metadata
		change := ratio(movement, prev.Price) * 100
		md.LastMarketPrice = &marketPrice
		md.LastUpdateTime = ts
		md.PriceChangePercent = &change
		next.Metadata = &md
	}

	return refreshTrade(&next, now)
}

func refreshPosition(prev *Position, now time.Time) *Position {
	next := *prev
	ts := now.Format(timestampLayout)

	if next.AsOfDate != "" {
		next.AsOfDate = ts
	}
	if prev.Metadata != nil && prev.Metadata.ModifiedDate != "" {
		md := *prev.Metadata
		md.ModifiedDate = ts
		next.Metadata = &md
	}
	if prev.Reporting != nil && prev.Reporting.ReportingDate != "" {
		r := *prev.Reporting
		r.ReportingDate = now.Format(dateLayout)
		next.Reporting = &r
	}
	if prev.MarketData != nil && prev.MarketData.LastTradeTime != "" {
		md := *prev.MarketData
		md.LastTradeTime = ts
		next.MarketData = &md
	}
	return &next
}

func refreshTrade(prev *Trade, now time.Time) *Trade {
	next := *prev
	ts := now.Format(timestampLayout)

	if next.TradeDate != "" {
		next.TradeDate = ts
	}
	if prev.Execution != nil && prev.Execution.ExecutionTime != "" {
		ex := *prev.Execution
		ex.ExecutionTime = ts
		next.Execution = &ex
	}
	return &next
}

// settlementDue reports whether a settlement date (date-only or RFC 3339) has passed.
func settlementDue(settlementDate string, now time.Time) bool {
	if settlementDate == "" {
		return false
	}
	due, err := time.Parse(dateLayout, settlementDate)
	if err != nil {
		due, err = time.Parse(time.RFC3339, settlementDate)
		if err != nil {
			return false
		}
	}
	return !now.Before(due)
}

// round rounds half up, matching the rounding used when the datasets were generated.
func round(x float64) float64 {
	return math.Floor(x + 0.5)
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
