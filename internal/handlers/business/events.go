package business

import (
	"time"

	"launchpad/internal/models"
)

// GraduationQueue is the RabbitMQ queue graduation events are published to.
const GraduationQueue = "curve_graduation"

// TradeEvent is broadcast after a trade commits.
type TradeEvent struct {
	EventID      string    `json:"event_id"`
	TradeID      string    `json:"trade_id"`
	TokenAddress string    `json:"token_address"`
	Trader       string    `json:"trader"`
	Side         string    `json:"side"`
	BNBAmount    string    `json:"bnb_amount"`
	TokenAmount  string    `json:"token_amount"`
	PriceAfter   string    `json:"price_after"`
	SoldSupply   string    `json:"sold_supply"`
	BNBRaised    string    `json:"bnb_raised"`
	Graduated    bool      `json:"graduated"`
	Timestamp    time.Time `json:"timestamp"`
}

// GraduationEvent asks the graduation worker to seed the DEX pool of a token.
type GraduationEvent struct {
	EventID         string    `json:"event_id"`
	TokenAddress    string    `json:"token_address"`
	LiquidityBNB    string    `json:"liquidity_bnb"`
	LiquidityTokens string    `json:"liquidity_tokens"`
	CreatorBNB      string    `json:"creator_bnb"`
	PlatformBNB     string    `json:"platform_bnb"`
	ListingPrice    string    `json:"listing_price"`
	Timestamp       time.Time `json:"timestamp"`
}

// TradeNotifier receives committed trades, e.g. the websocket feed.
type TradeNotifier interface {
	NotifyTrade(event TradeEvent)
}

// EventPublisher publishes a message to a named queue.
type EventPublisher interface {
	Publish(queueName string, message interface{}) error
}

func newGraduationEvent(id string, g *models.CurveGraduation, at time.Time) GraduationEvent {
	return GraduationEvent{
		EventID:         id,
		TokenAddress:    g.TokenAddress,
		LiquidityBNB:    g.LiquidityBNB.String(),
		LiquidityTokens: g.LiquidityTokens.String(),
		CreatorBNB:      g.CreatorBNB.String(),
		PlatformBNB:     g.PlatformBNB.String(),
		ListingPrice:    g.ListingPrice.String(),
		Timestamp:       at,
	}
}
