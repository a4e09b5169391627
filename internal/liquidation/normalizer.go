// internal/liquidation/normalizer.go
package liquidation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/domingochavezspecops/TradingScripts/internal/domain"
	"github.com/shopspring/decimal"
)

const forceOrderEventType = "forceOrder"

// streamEnvelope wraps payloads delivered over a combined stream.
type streamEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// forceOrderMessage mirrors the exchange forceOrder payload.
type forceOrderMessage struct {
	EventType string      `json:"e"`
	EventTime int64       `json:"E"`
	Order     *forceOrder `json:"o"`
}

type forceOrder struct {
	Symbol    string `json:"s"`
	Side      string `json:"S"`
	OrderType string `json:"o"`
	Price     string `json:"p"`
	AvgPrice  string `json:"ap"`
	Status    string `json:"X"`
	Quantity  string `json:"q"`
	TradeTime int64  `json:"T"`
}

// Parse converts a raw feed message into a LiquidationEvent. receivedAt is
// used as the observation time when the payload carries no timestamp.
func Parse(raw []byte, receivedAt time.Time) (domain.LiquidationEvent, error) {
	payload := raw

	var env streamEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.LiquidationEvent{}, malformed("", fmt.Errorf("decode payload: %w", err))
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		payload = env.Data
	}

	var msg forceOrderMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return domain.LiquidationEvent{}, malformed("", fmt.Errorf("decode payload: %w", err))
	}
	if msg.EventType != "" && msg.EventType != forceOrderEventType {
		return domain.LiquidationEvent{}, malformed("e", fmt.Errorf("unexpected event type %q", msg.EventType))
	}
	if msg.Order == nil {
		return domain.LiquidationEvent{}, malformed("o", errors.New("missing order"))
	}

	o := msg.Order
	symbol := strings.ToUpper(strings.TrimSpace(o.Symbol))
	if symbol == "" {
		return domain.LiquidationEvent{}, malformed("o.s", errors.New("missing symbol"))
	}

	side, err := parseSide(o.Side)
	if err != nil {
		return domain.LiquidationEvent{}, malformed("o.S", err)
	}

	price, err := parsePositive(o.Price)
	if err != nil {
		return domain.LiquidationEvent{}, malformed("o.p", err)
	}

	quantity, err := parsePositive(o.Quantity)
	if err != nil {
		return domain.LiquidationEvent{}, malformed("o.q", err)
	}

	observedAt := receivedAt
	switch {
	case o.TradeTime > 0:
		observedAt = time.UnixMilli(o.TradeTime)
	case msg.EventTime > 0:
		observedAt = time.UnixMilli(msg.EventTime)
	}

	return domain.NewLiquidationEvent(symbol, side, price, quantity, observedAt), nil
}

func parseSide(raw string) (domain.Side, error) {
	switch domain.Side(strings.ToUpper(strings.TrimSpace(raw))) {
	case domain.SideBuy:
		return domain.SideBuy, nil
	case domain.SideSell:
		return domain.SideSell, nil
	case "":
		return "", errors.New("missing side")
	default:
		return "", fmt.Errorf("unknown side %q", raw)
	}
}

func parsePositive(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, errors.New("missing value")
	}
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %q: %w", raw, err)
	}
	if !v.IsPositive() {
		return decimal.Zero, fmt.Errorf("value %s must be positive", v)
	}
	return v, nil
}
