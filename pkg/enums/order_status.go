package enums

import "fmt"

// OrderStatus maps to the order_status enum in Postgres.
type OrderStatus string

const (
	OrderReceive OrderStatus = "receive"
	OrderMaking  OrderStatus = "making"
	OrderDeliver OrderStatus = "deliver"
	OrderDone    OrderStatus = "done"
	OrderCancel  OrderStatus = "cancel"
)

var validOrderStatuses = []OrderStatus{
	OrderReceive,
	OrderMaking,
	OrderDeliver,
	OrderDone,
	OrderCancel,
}

// orderTransitions lists the legal forward moves for a ticket.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderReceive: {OrderMaking, OrderCancel},
	OrderMaking:  {OrderDeliver, OrderCancel},
	OrderDeliver: {OrderDone, OrderCancel},
	OrderDone:    {},
	OrderCancel:  {},
}

// IsValid reports whether the value matches the canonical order_status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// ParseOrderStatus converts raw input into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

func (s OrderStatus) String() string {
	return string(s)
}
