package ledger

import (
	"math/big"

	"streamledger/core/events"
	"streamledger/native/settlement"
	"streamledger/observability"
)

// metricsEmitter feeds committed events into the prometheus registries.
type metricsEmitter struct {
	metrics *observability.LedgerMetrics
}

func (m metricsEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	observability.Events().RecordEvent(evt.EventType())
	if evt.EventType() != settlement.EventTypePaymentSettled {
		return
	}
	raw := events.Raw(evt)
	if raw == nil {
		return
	}
	m.metrics.RecordSettlement(raw.Attributes["domain"],
		parseAmount(raw.Attributes["gross"]),
		parseAmount(raw.Attributes["fee"]),
		parseAmount(raw.Attributes["net"]))
}

func parseAmount(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}
