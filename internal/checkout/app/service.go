package app

import (
	"context"
	"errors"
	"log/slog"

	cartdomain "github.com/shopkit/checkout-core/internal/cart/domain"
	"github.com/shopkit/checkout-core/internal/checkout/domain"
	inventorydomain "github.com/shopkit/checkout-core/internal/inventory/domain"
	orderdomain "github.com/shopkit/checkout-core/internal/order/domain"
)

// Service is the transactional state machine over cart, inventory, and order
// ledger. All stock reads happen under the product row lock acquired by
// ReserveCheck, and the conditional decrement re-validates at write time, so
// stock can never go negative even if the lock discipline is bypassed.
type Service struct {
	store    Store
	lowStock LowStockRecorder
	log      *slog.Logger
}

// NewService wires the checkout service. lowStock may be nil, in which case
// threshold crossings are dropped.
func NewService(store Store, lowStock LowStockRecorder, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		lowStock: lowStock,
		log:      log,
	}
}

// GetCart returns the user's cart (creating it on first access) with its
// lines enriched by current product data.
func (s *Service) GetCart(ctx context.Context, userID string) (domain.CartView, error) {
	var view domain.CartView

	err := s.store.ExecTx(ctx, func(tx Tx) error {
		cart, err := tx.Carts().GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		items, err := tx.Carts().ListItems(ctx, cart.ID)
		if err != nil {
			return err
		}

		lines := make([]domain.CartLine, 0, len(items))
		for _, item := range items {
			product, err := tx.Inventory().Get(ctx, item.ProductID)
			if err != nil {
				return err
			}
			lines = append(lines, domain.CartLine{
				Item:           item,
				ProductName:    product.Name,
				UnitPriceCents: product.PriceCents,
				StockQuantity:  product.StockQuantity,
			})
		}

		view = domain.CartView{Cart: cart, Lines: lines}
		return nil
	})
	if err != nil {
		return domain.CartView{}, err
	}
	return view, nil
}

// AddItem puts quantity units of a product into the user's cart. Adding a
// product that is already in the cart increments the existing line; the new
// total quantity is validated against stock under the product row lock.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int32) (cartdomain.CartItem, error) {
	if quantity <= 0 {
		return cartdomain.CartItem{}, domain.ErrInvalidQuantity
	}

	var out cartdomain.CartItem

	err := s.store.ExecTx(ctx, func(tx Tx) error {
		product, err := tx.Inventory().ReserveCheck(ctx, productID)
		if err != nil {
			return err
		}
		if product.StockQuantity < quantity {
			return &domain.InsufficientStockError{ProductName: product.Name, Available: product.StockQuantity}
		}

		cart, err := tx.Carts().GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		existing, err := tx.Carts().FindItem(ctx, cart.ID, productID)
		switch {
		case err == nil:
			newQty := existing.Quantity + quantity
			if product.StockQuantity < newQty {
				return &domain.InsufficientStockError{ProductName: product.Name, Available: product.StockQuantity}
			}
			out, err = tx.Carts().SetQuantity(ctx, existing.ID, newQty)
			return err
		case errors.Is(err, domain.ErrNotFound):
			out, err = tx.Carts().UpsertItem(ctx, cart.ID, productID, quantity)
			return err
		default:
			return err
		}
	})
	if err != nil {
		return cartdomain.CartItem{}, err
	}
	return out, nil
}

// UpdateItem sets an item's quantity to an absolute target, validated against
// current stock under the product row lock.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID string, quantity int32) (cartdomain.CartItem, error) {
	if quantity <= 0 {
		return cartdomain.CartItem{}, domain.ErrInvalidQuantity
	}

	var out cartdomain.CartItem

	err := s.store.ExecTx(ctx, func(tx Tx) error {
		cart, err := tx.Carts().GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		item, err := tx.Carts().FindItemByID(ctx, cart.ID, itemID)
		if err != nil {
			return err
		}

		product, err := tx.Inventory().ReserveCheck(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if product.StockQuantity < quantity {
			return &domain.InsufficientStockError{ProductName: product.Name, Available: product.StockQuantity}
		}

		out, err = tx.Carts().SetQuantity(ctx, item.ID, quantity)
		return err
	})
	if err != nil {
		return cartdomain.CartItem{}, err
	}
	return out, nil
}

// RemoveItem deletes an item from the user's cart. Nothing was reserved for
// it, so inventory is untouched.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	return s.store.ExecTx(ctx, func(tx Tx) error {
		cart, err := tx.Carts().GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		item, err := tx.Carts().FindItemByID(ctx, cart.ID, itemID)
		if err != nil {
			return err
		}

		return tx.Carts().DeleteItem(ctx, item.ID)
	})
}

// Checkout converts the cart into an order in one transaction: per item it
// locks the product, validates stock, decrements conditionally, and snapshots
// the price; then it appends the order and clears the cart. Any failure rolls
// everything back. Threshold crossings are handed to the low-stock recorder
// only after commit.
func (s *Service) Checkout(ctx context.Context, userID string) (domain.CheckoutResult, error) {
	cartID, items, err := s.loadCart(ctx, userID)
	if err != nil {
		return domain.CheckoutResult{}, err
	}
	if len(items) == 0 {
		return domain.CheckoutResult{}, domain.ErrEmptyCart
	}

	var (
		result   domain.CheckoutResult
		lowStock []inventorydomain.Product
	)

	err = s.store.ExecTx(ctx, func(tx Tx) error {
		lowStock = lowStock[:0]

		pending := make([]orderdomain.PendingItem, 0, len(items))
		var total int64

		// Items iterate in their stored order; no reordering, so two
		// checkouts over the same cart contents lock products identically.
		for _, item := range items {
			product, err := tx.Inventory().ReserveCheck(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if product.StockQuantity < item.Quantity {
				return &domain.InsufficientStockError{ProductName: product.Name, Available: product.StockQuantity}
			}

			affected, err := tx.Inventory().ConditionalDecrement(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				// Unreachable while the row lock holds; fail closed anyway.
				return &domain.InsufficientStockError{ProductName: product.Name, Available: product.StockQuantity}
			}

			updated, err := tx.Inventory().Get(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if updated.IsLowStock() {
				lowStock = append(lowStock, updated)
			}

			pending = append(pending, orderdomain.PendingItem{
				ProductID:      product.ID,
				Quantity:       item.Quantity,
				UnitPriceCents: product.PriceCents,
			})
			total += int64(item.Quantity) * product.PriceCents
		}

		order, orderItems, err := tx.Orders().Append(ctx, userID, total, pending)
		if err != nil {
			return err
		}

		if err := tx.Carts().ClearItems(ctx, cartID); err != nil {
			return err
		}

		result = domain.CheckoutResult{Order: order, Items: orderItems}
		return nil
	})
	if err != nil {
		return domain.CheckoutResult{}, err
	}

	if len(lowStock) > 0 && s.lowStock != nil {
		s.log.Info("low stock crossed during checkout",
			slog.Int("products", len(lowStock)),
			slog.String("order_id", result.Order.ID),
		)
		s.lowStock.Enqueue(lowStock...)
	}

	return result, nil
}

// loadCart reads the cart contents in their own short transaction so an empty
// cart is rejected before the mutating transaction ever opens.
func (s *Service) loadCart(ctx context.Context, userID string) (string, []cartdomain.CartItem, error) {
	var (
		cartID string
		items  []cartdomain.CartItem
	)

	err := s.store.ExecTx(ctx, func(tx Tx) error {
		cart, err := tx.Carts().GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		cartID = cart.ID

		items, err = tx.Carts().ListItems(ctx, cart.ID)
		return err
	})
	if err != nil {
		return "", nil, err
	}
	return cartID, items, nil
}
