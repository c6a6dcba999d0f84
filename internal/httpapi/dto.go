package httpapi

import (
	"time"

	cartdomain "github.com/shopkit/checkout-core/internal/cart/domain"
	checkoutdomain "github.com/shopkit/checkout-core/internal/checkout/domain"
)

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int32 `json:"quantity"`
}

type cartItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type cartResponse struct {
	ID            string             `json:"id"`
	Lines         []cartLineResponse `json:"items"`
	SubtotalCents int64              `json:"subtotal_cents"`
}

type cartLineResponse struct {
	ID             string `json:"id"`
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Quantity       int32  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
	StockQuantity  int32  `json:"stock_quantity"`
}

type orderResponse struct {
	OrderID    string              `json:"order_id"`
	TotalCents int64               `json:"total_cents"`
	CreatedAt  time.Time           `json:"created_at"`
	Items      []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ProductID      string `json:"product_id"`
	Quantity       int32  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func toCartItemResponse(item cartdomain.CartItem) cartItemResponse {
	return cartItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	}
}

func toCartResponse(view checkoutdomain.CartView) cartResponse {
	out := cartResponse{
		ID:    view.Cart.ID,
		Lines: make([]cartLineResponse, 0, len(view.Lines)),
	}
	for _, line := range view.Lines {
		lineTotal := int64(line.Item.Quantity) * line.UnitPriceCents
		out.Lines = append(out.Lines, cartLineResponse{
			ID:             line.Item.ID,
			ProductID:      line.Item.ProductID,
			Name:           line.ProductName,
			Quantity:       line.Item.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			LineTotalCents: lineTotal,
			StockQuantity:  line.StockQuantity,
		})
		out.SubtotalCents += lineTotal
	}
	return out
}

func toOrderResponse(result checkoutdomain.CheckoutResult) orderResponse {
	out := orderResponse{
		OrderID:    result.Order.ID,
		TotalCents: result.Order.TotalCents,
		CreatedAt:  result.Order.CreatedAt,
		Items:      make([]orderItemResponse, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		out.Items = append(out.Items, orderItemResponse{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return out
}
