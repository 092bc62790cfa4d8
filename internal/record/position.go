package record

import (
	"encoding/json"

	"github.com/nndrao/stomp-server/internal/domain"
)

// Position is a fixed-income holding. Sections that the live generator never
// touches are carried as raw JSON so they round-trip unchanged.
type Position struct {
	PositionID         string  `json:"positionId"`
	Cusip              string  `json:"cusip,omitempty"`
	Isin               string  `json:"isin,omitempty"`
	Sedol              string  `json:"sedol,omitempty"`
	Ticker             string  `json:"ticker,omitempty"`
	InstrumentName     string  `json:"instrumentName,omitempty"`
	InstrumentType     string  `json:"instrumentType,omitempty"`
	AsOfDate           string  `json:"asOfDate,omitempty"`
	BookName           string  `json:"bookName,omitempty"`
	Portfolio          string  `json:"portfolio,omitempty"`
	Trader             string  `json:"trader,omitempty"`
	Desk               string  `json:"desk,omitempty"`
	Region             string  `json:"region,omitempty"`
	Country            string  `json:"country,omitempty"`
	Currency           string  `json:"currency,omitempty"`
	Quantity           float64 `json:"quantity"`
	NotionalAmount     float64 `json:"notionalAmount"`
	MarketValue        float64 `json:"marketValue"`
	BookValue          float64 `json:"bookValue"`
	AccruedInterest    float64 `json:"accruedInterest"`
	TotalValue         float64 `json:"totalValue"`
	CostBasis          float64 `json:"costBasis"`
	AveragePrice       float64 `json:"averagePrice"`
	CurrentPrice       float64 `json:"currentPrice"`
	PriceSource        string  `json:"priceSource,omitempty"`
	Pnl                float64 `json:"pnl"`
	UnrealizedPnl      float64 `json:"unrealizedPnl"`
	RealizedPnl        float64 `json:"realizedPnl"`
	DailyPnl           float64 `json:"dailyPnl"`
	MtdPnl             float64 `json:"mtdPnl"`
	YtdPnl             float64 `json:"ytdPnl"`
	MaturityDate       string  `json:"maturityDate,omitempty"`
	IssueDate          string  `json:"issueDate,omitempty"`
	CouponRate         float64 `json:"couponRate"`
	CouponFrequency    int     `json:"couponFrequency,omitempty"`
	DayCountConvention string  `json:"dayCountConvention,omitempty"`
	NextCouponDate     string  `json:"nextCouponDate,omitempty"`
	Yield              float64 `json:"yield"`
	YieldToMaturity    float64 `json:"yieldToMaturity"`
	ModifiedDuration   float64 `json:"modifiedDuration"`
	EffectiveDuration  float64 `json:"effectiveDuration"`
	MacaulayDuration   float64 `json:"macaulayDuration"`
	Convexity          float64 `json:"convexity"`
	EffectiveConvexity float64 `json:"effectiveConvexity"`
	Spread             float64 `json:"spread"`
	AssetSwapSpread    float64 `json:"assetSwapSpread"`
	ZSpread            float64 `json:"zSpread"`
	Oas                float64 `json:"oas"`
	Dv01               float64 `json:"dv01"`
	Pv01               float64 `json:"pv01"`
	Cs01               float64 `json:"cs01"`

	RiskMetrics *PositionRiskMetrics `json:"riskMetrics,omitempty"`
	Analytics   *PositionAnalytics   `json:"analytics,omitempty"`
	MarketData  *PositionMarketData  `json:"marketData,omitempty"`
	Liquidity   *Liquidity           `json:"liquidity,omitempty"`
	Performance *Performance         `json:"performance,omitempty"`
	Compliance  *PositionCompliance  `json:"compliance,omitempty"`
	Reporting   *PositionReporting   `json:"reporting,omitempty"`
	Metadata    *PositionMetadata    `json:"metadata,omitempty"`

	Rating               json.RawMessage `json:"rating,omitempty"`
	Issuer               json.RawMessage `json:"issuer,omitempty"`
	Cashflows            json.RawMessage `json:"cashflows,omitempty"`
	Prepayment           json.RawMessage `json:"prepayment,omitempty"`
	Collateral           json.RawMessage `json:"collateral,omitempty"`
	Accounting           json.RawMessage `json:"accounting,omitempty"`
	Settlement           json.RawMessage `json:"settlement,omitempty"`
	Optionality          json.RawMessage `json:"optionality,omitempty"`
	HistoricalData       json.RawMessage `json:"historicalData,omitempty"`
	Benchmarks           json.RawMessage `json:"benchmarks,omitempty"`
	Stress               json.RawMessage `json:"stress,omitempty"`
	Allocation           json.RawMessage `json:"allocation,omitempty"`
	Fees                 json.RawMessage `json:"fees,omitempty"`
	Counterparty         json.RawMessage `json:"counterparty,omitempty"`
	Documentation        json.RawMessage `json:"documentation,omitempty"`
	Tax                  json.RawMessage `json:"tax,omitempty"`
	Hedging              json.RawMessage `json:"hedging,omitempty"`
	TradingLimits        json.RawMessage `json:"tradingLimits,omitempty"`
	AdditionalAttributes json.RawMessage `json:"additionalAttributes,omitempty"`
}

var _ domain.Record = (*Position)(nil)

func (p *Position) Identity() string  { return p.PositionID }
func (p *Position) Kind() domain.Kind { return domain.KindPositions }

type PositionRiskMetrics struct {
	Var95             float64 `json:"var95"`
	Var99             float64 `json:"var99"`
	Cvar95            float64 `json:"cvar95"`
	Cvar99            float64 `json:"cvar99"`
	ExpectedShortfall float64 `json:"expectedShortfall"`
	Beta              float64 `json:"beta"`
	Correlation       float64 `json:"correlation"`
	TrackingError     float64 `json:"trackingError"`
	SharpeRatio       float64 `json:"sharpeRatio"`
	InformationRatio  float64 `json:"informationRatio"`
}

type PositionAnalytics struct {
	KeyRateDuration  json.RawMessage   `json:"keyRateDuration,omitempty"`
	ScenarioAnalysis *ScenarioAnalysis `json:"scenarioAnalysis,omitempty"`
	Greeks           *Greeks           `json:"greeks,omitempty"`
}

type ScenarioAnalysis struct {
	ParallelShiftUp100   float64 `json:"parallelShiftUp100"`
	ParallelShiftDown100 float64 `json:"parallelShiftDown100"`
	Steepening50         float64 `json:"steepening50"`
	Flattening50         float64 `json:"flattening50"`
	Twist                float64 `json:"twist"`
}

type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

type PositionMarketData struct {
	LastTradeTime  string  `json:"lastTradeTime,omitempty"`
	LastTradePrice float64 `json:"lastTradePrice"`
	BidPrice       float64 `json:"bidPrice"`
	AskPrice       float64 `json:"askPrice"`
	MidPrice       float64 `json:"midPrice"`
	Volume         float64 `json:"volume"`
}

type Liquidity struct {
	BidAskSpread    float64 `json:"bidAskSpread"`
	AvgDailyVolume  float64 `json:"avgDailyVolume"`
	LiquidityScore  float64 `json:"liquidityScore"`
	MarketDepth     float64 `json:"marketDepth"`
	DaysToLiquidate float64 `json:"daysToLiquidate"`
}

type Performance struct {
	DailyReturn     float64 `json:"dailyReturn"`
	MtdReturn       float64 `json:"mtdReturn"`
	QtdReturn       float64 `json:"qtdReturn"`
	YtdReturn       float64 `json:"ytdReturn"`
	InceptionReturn float64 `json:"inceptionReturn"`
}

type PositionCompliance struct {
	RegulatoryCapital  float64 `json:"regulatoryCapital"`
	Rwa                float64 `json:"rwa"`
	LiquidityCoverage  float64 `json:"liquidityCoverage"`
	Nsfr               float64 `json:"nsfr"`
	LeverageRatio      float64 `json:"leverageRatio"`
	ConcentrationLimit float64 `json:"concentrationLimit"`
	BreachStatus       bool    `json:"breachStatus"`
}

type PositionReporting struct {
	ReportingCurrency string  `json:"reportingCurrency,omitempty"`
	ReportingValue    float64 `json:"reportingValue"`
	FxRate            float64 `json:"fxRate"`
	ReportingDate     string  `json:"reportingDate,omitempty"`
}

type PositionMetadata struct {
	CreatedDate  string `json:"createdDate,omitempty"`
	ModifiedDate string `json:"modifiedDate,omitempty"`
	CreatedBy    string `json:"createdBy,omitempty"`
	ModifiedBy   string `json:"modifiedBy,omitempty"`
	Version      int    `json:"version"`
}
