// internal/types/types.go
package types

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// SwapType идентифицирует тип площадки в реестре адаптеров.
type SwapType uint8

const (
	SwapTypeRaydium SwapType = iota + 1
	SwapTypePumpSwapBuy
	SwapTypePumpSwapSell
)

// AllSwapTypes lists every known swap type.
var AllSwapTypes = []SwapType{SwapTypeRaydium, SwapTypePumpSwapBuy, SwapTypePumpSwapSell}

func (s SwapType) String() string {
	switch s {
	case SwapTypeRaydium:
		return "raydium"
	case SwapTypePumpSwapBuy:
		return "pumpswap_buy"
	case SwapTypePumpSwapSell:
		return "pumpswap_sell"
	default:
		return fmt.Sprintf("swap_type(%d)", uint8(s))
	}
}

// ParseSwapType maps a configured venue name onto its SwapType.
func ParseSwapType(name string) (SwapType, error) {
	for _, st := range AllSwapTypes {
		if st.String() == name {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unsupported swap type: %s", name)
}

// TriggerKind decides the direction a limit order waits for.
type TriggerKind uint8

const (
	TakeProfit TriggerKind = iota
	StopLoss
)

func (k TriggerKind) String() string {
	switch k {
	case TakeProfit:
		return "take_profit"
	case StopLoss:
		return "stop_loss"
	default:
		return fmt.Sprintf("trigger(%d)", uint8(k))
	}
}

// OrderStatus is the lifecycle state of a limit order.
type OrderStatus uint8

const (
	OrderInit OrderStatus = iota
	OrderOpen
	OrderFilled
	OrderCancelled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderInit:
		return "init"
	case OrderOpen:
		return "open"
	case OrderFilled:
		return "filled"
	case OrderCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// RouteHop описывает один вызов площадки в плане маршрута. Аккаунты хопа
// берутся из общего списка в окне [InputIndex, OutputIndex).
type RouteHop struct {
	SwapType    SwapType
	Percent     uint8
	InputIndex  uint8
	OutputIndex uint8
}

// RoutePlan is the ordered list of hops of one route.
type RoutePlan []RouteHop

// SwapRequest carries the caller-supplied terms of one route.
type SwapRequest struct {
	Plan            RoutePlan
	Accounts        []*solana.AccountMeta
	InAmount        uint64
	QuotedOutAmount uint64
	SlippageBps     uint16
	PlatformFeeBps  uint16
}
