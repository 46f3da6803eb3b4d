package pubsub

import (
	"math/big"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
)

// getEventPayload returns the serializable form of an event. Amounts are
// base 10 strings and addresses are 0x hex.
func getEventPayload(eventLog domain.EventLog) map[string]interface{} {
	return map[string]interface{}{
		"event":    string(eventLog.Event.Topic()),
		"contract": eventLog.Contract.Hex(),
		"data":     getEventData(eventLog.Event),
	}
}

func getEventData(event domain.Event) map[string]interface{} {
	switch e := event.(type) {
	case domain.OrderCreated:
		return map[string]interface{}{
			"id":          e.OrderID,
			"creator":     e.Creator.Hex(),
			"tokenToSell": e.TokenToSell.Hex(),
			"tokenToBuy":  e.TokenToBuy.Hex(),
			"sellAmount":  amountString(e.SellAmount),
			"buyAmount":   amountString(e.BuyAmount),
			"timestamp":   e.Timestamp,
		}
	case domain.OrderCancelled:
		return map[string]interface{}{
			"id":        e.OrderID,
			"creator":   e.Creator.Hex(),
			"timestamp": e.Timestamp,
		}
	case domain.OrderExecuted:
		return map[string]interface{}{
			"id":        e.OrderID,
			"timestamp": e.Timestamp,
		}
	case domain.TradeExecuted:
		return map[string]interface{}{
			"orderId":    e.OrderID,
			"executor":   e.Executor.Hex(),
			"creator":    e.Creator.Hex(),
			"sellAmount": amountString(e.SellAmount),
			"buyAmount":  amountString(e.BuyAmount),
			"timestamp":  e.Timestamp,
		}
	case domain.TokenAdded:
		return map[string]interface{}{"token": e.Token.Hex()}
	case domain.TokenRemoved:
		return map[string]interface{}{"token": e.Token.Hex()}
	case domain.TradeContractUpdated:
		return map[string]interface{}{
			"previous": e.Previous.Hex(),
			"current":  e.Current.Hex(),
		}
	case domain.TokenRestrictionToggled:
		return map[string]interface{}{"enabled": e.Enabled}
	case domain.OwnershipTransferred:
		return map[string]interface{}{
			"previousOwner": e.PreviousOwner.Hex(),
			"newOwner":      e.NewOwner.Hex(),
		}
	default:
		return map[string]interface{}{}
	}
}

func amountString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
