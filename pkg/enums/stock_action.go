package enums

import "fmt"

// StockAction maps to the stock_action enum in Postgres. Every row in
// stock_histories records exactly one of these mutations.
type StockAction string

const (
	StockActionRestock                StockAction = "restock"
	StockActionEditStock              StockAction = "edit_stock"
	StockActionEditMinimum            StockAction = "edit_minimum"
	StockActionConsume                StockAction = "consume"
	StockActionRollback               StockAction = "rollback"
	StockActionMakeAvailable          StockAction = "make_available"
	StockActionMakeUnavailable        StockAction = "make_unavailable"
	StockActionEditItemName           StockAction = "edit_item_name"
	StockActionEditCategory           StockAction = "edit_category"
	StockActionEditUnit               StockAction = "edit_unit"
	StockActionEditPurchasePriceTotal StockAction = "edit_purchase_price_total"
	StockActionEditPurchaseQuantity   StockAction = "edit_purchase_quantity"
)

var validStockActions = []StockAction{
	StockActionRestock,
	StockActionEditStock,
	StockActionEditMinimum,
	StockActionConsume,
	StockActionRollback,
	StockActionMakeAvailable,
	StockActionMakeUnavailable,
	StockActionEditItemName,
	StockActionEditCategory,
	StockActionEditUnit,
	StockActionEditPurchasePriceTotal,
	StockActionEditPurchaseQuantity,
}

// IsValid reports whether the value matches the canonical stock_action enum.
func (a StockAction) IsValid() bool {
	for _, candidate := range validStockActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseStockAction converts raw input into StockAction.
func ParseStockAction(value string) (StockAction, error) {
	for _, candidate := range validStockActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock action %q", value)
}
