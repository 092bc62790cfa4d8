package record

import (
	"encoding/json"

	"github.com/nndrao/stomp-server/internal/domain"
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	StatusSettled = "SETTLED"
)

// Trade is a single executed fixed-income trade.
type Trade struct {
	TradeID            string  `json:"tradeId"`
	Cusip              string  `json:"cusip,omitempty"`
	Isin               string  `json:"isin,omitempty"`
	Sedol              string  `json:"sedol,omitempty"`
	Ticker             string  `json:"ticker,omitempty"`
	InstrumentName     string  `json:"instrumentName,omitempty"`
	InstrumentType     string  `json:"instrumentType,omitempty"`
	TradeDate          string  `json:"tradeDate,omitempty"`
	SettlementDate     string  `json:"settlementDate,omitempty"`
	ValueDate          string  `json:"valueDate,omitempty"`
	Side               string  `json:"side,omitempty"`
	Quantity           float64 `json:"quantity"`
	NotionalAmount     float64 `json:"notionalAmount"`
	Price              float64 `json:"price"`
	Yield              float64 `json:"yield"`
	Spread             float64 `json:"spread"`
	AccruedInterest    float64 `json:"accruedInterest"`
	TotalConsideration float64 `json:"totalConsideration"`
	PrincipalAmount    float64 `json:"principalAmount"`
	Currency           string  `json:"currency,omitempty"`
	FxRate             float64 `json:"fxRate"`
	BaseCurrencyAmount float64 `json:"baseCurrencyAmount"`
	TradeType          string  `json:"tradeType,omitempty"`
	ExecutionType      string  `json:"executionType,omitempty"`
	OrderType          string  `json:"orderType,omitempty"`
	Status             string  `json:"status,omitempty"`
	Trader             string  `json:"trader,omitempty"`
	Salesperson        string  `json:"salesperson,omitempty"`
	Book               string  `json:"book,omitempty"`
	Portfolio          string  `json:"portfolio,omitempty"`
	Desk               string  `json:"desk,omitempty"`
	Strategy           string  `json:"strategy,omitempty"`

	Settlement  *TradeSettlement  `json:"settlement,omitempty"`
	Fees        *TradeFees        `json:"fees,omitempty"`
	Compliance  *TradeCompliance  `json:"compliance,omitempty"`
	Pricing     *Pricing          `json:"pricing,omitempty"`
	Execution   *Execution        `json:"execution,omitempty"`
	MarketData  *TradeMarketData  `json:"marketData,omitempty"`
	Analytics   *TradeAnalytics   `json:"analytics,omitempty"`
	RiskMetrics *TradeRiskMetrics `json:"riskMetrics,omitempty"`
	Lifecycle   *Lifecycle        `json:"lifecycle,omitempty"`
	Collateral  *TradeCollateral  `json:"collateral,omitempty"`
	Reporting   *TradeReporting   `json:"reporting,omitempty"`
	Metadata    *TradeMetadata    `json:"metadata,omitempty"`

	Counterparty  json.RawMessage `json:"counterparty,omitempty"`
	Broker        json.RawMessage `json:"broker,omitempty"`
	Venue         json.RawMessage `json:"venue,omitempty"`
	Clearing      json.RawMessage `json:"clearing,omitempty"`
	Allocation    json.RawMessage `json:"allocation,omitempty"`
	Reference     json.RawMessage `json:"reference,omitempty"`
	Documentation json.RawMessage `json:"documentation,omitempty"`
}

var _ domain.Record = (*Trade)(nil)

func (t *Trade) Identity() string  { return t.TradeID }
func (t *Trade) Kind() domain.Kind { return domain.KindTrades }

func (t *Trade) direction() float64 {
	if t.Side == SideBuy {
		return 1
	}
	return -1
}

type TradeSettlement struct {
	Custodian              string  `json:"custodian,omitempty"`
	SettlementAccount      string  `json:"settlementAccount,omitempty"`
	SettlementInstructions string  `json:"settlementInstructions,omitempty"`
	Dvp                    bool    `json:"dvp"`
	FailureReason          *string `json:"failureReason"`
	SettlementStatus       string  `json:"settlementStatus,omitempty"`
}

type TradeFees struct {
	BrokerCommission float64  `json:"brokerCommission"`
	ExchangeFee      float64  `json:"exchangeFee"`
	ClearingFee      float64  `json:"clearingFee"`
	SettlementFee    float64  `json:"settlementFee"`
	RegulatoryFee    float64  `json:"regulatoryFee"`
	OtherFees        float64  `json:"otherFees"`
	TotalFees        float64  `json:"totalFees"`
	MarketImpactCost *float64 `json:"marketImpactCost,omitempty"`
}

type TradeCompliance struct {
	BestExecution       bool   `json:"bestExecution"`
	RegulatoryReporting bool   `json:"regulatoryReporting"`
	MifidClass          string `json:"mifidClass,omitempty"`
	DoddFrank           bool   `json:"doddFrank"`
	Volcker             bool   `json:"volcker"`
	PreTradeChecks      string `json:"preTradeChecks,omitempty"`
	PostTradeChecks     string `json:"postTradeChecks,omitempty"`
}

type Pricing struct {
	PriceSource    string  `json:"priceSource,omitempty"`
	QuotedPrice    float64 `json:"quotedPrice"`
	ExecutedPrice  float64 `json:"executedPrice"`
	MarkupMarkdown float64 `json:"markupMarkdown"`
	BenchmarkPrice float64 `json:"benchmarkPrice"`
	Slippage       float64 `json:"slippage"`
}

type Execution struct {
	ExecutionTime    string  `json:"executionTime,omitempty"`
	ExecutionVenue   string  `json:"executionVenue,omitempty"`
	ExecutionMethod  string  `json:"executionMethod,omitempty"`
	OrderTime        string  `json:"orderTime,omitempty"`
	ConfirmationTime string  `json:"confirmationTime,omitempty"`
	Latency          float64 `json:"latency"`
}

type TradeMarketData struct {
	BidPriceAtExecution float64 `json:"bidPriceAtExecution"`
	AskPriceAtExecution float64 `json:"askPriceAtExecution"`
	MidPriceAtExecution float64 `json:"midPriceAtExecution"`
	Vwap                float64 `json:"vwap"`
	MarketVolume        float64 `json:"marketVolume"`
}

type TradeAnalytics struct {
	Tca *TCA      `json:"tca,omitempty"`
	Pnl *TradePnl `json:"pnl,omitempty"`
}

type TCA struct {
	ImplementationShortfall float64 `json:"implementationShortfall"`
	ArrivalPrice            float64 `json:"arrivalPrice"`
	ParticipationRate       float64 `json:"participationRate"`
	MarketImpact            float64 `json:"marketImpact"`
	TimingCost              float64 `json:"timingCost"`
}

type TradePnl struct {
	RealizedPnl   float64 `json:"realizedPnl"`
	UnrealizedPnl float64 `json:"unrealizedPnl"`
	TradePnl      float64 `json:"tradePnl"`
	DayOnePnl     float64 `json:"dayOnePnl"`
}

type TradeRiskMetrics struct {
	Dv01           float64 `json:"dv01"`
	Duration       float64 `json:"duration"`
	Convexity      float64 `json:"convexity"`
	Var            float64 `json:"var"`
	CreditExposure float64 `json:"creditExposure"`
}

type Lifecycle struct {
	CreatedDate         string          `json:"createdDate,omitempty"`
	ModifiedDate        string          `json:"modifiedDate,omitempty"`
	CancelledDate       *string         `json:"cancelledDate"`
	AmendmentHistory    json.RawMessage `json:"amendmentHistory,omitempty"`
	LastPriceUpdateTime string          `json:"lastPriceUpdateTime,omitempty"`
}

type TradeCollateral struct {
	CollateralType    string  `json:"collateralType,omitempty"`
	CollateralAmount  float64 `json:"collateralAmount"`
	MarginRequirement float64 `json:"marginRequirement"`
	Haircut           float64 `json:"haircut"`
}

type TradeReporting struct {
	TradeReportingStatus   string   `json:"tradeReportingStatus,omitempty"`
	RegulatoryReportingID  string   `json:"regulatoryReportingId,omitempty"`
	ReportingTimestamp     string   `json:"reportingTimestamp,omitempty"`
	ReportingJurisdictions []string `json:"reportingJurisdictions,omitempty"`
	LastUpdateTime         string   `json:"lastUpdateTime,omitempty"`
}

type TradeMetadata struct {
	Source             string   `json:"source,omitempty"`
	Version            int      `json:"version"`
	LastUpdatedBy      string   `json:"lastUpdatedBy,omitempty"`
	Comments           string   `json:"comments"`
	LastMarketPrice    *float64 `json:"lastMarketPrice,omitempty"`
	LastUpdateTime     string   `json:"lastUpdateTime,omitempty"`
	PriceChangePercent *float64 `json:"priceChangePercent,omitempty"`
}
