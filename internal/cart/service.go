package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-sewa/internal/db"
	"github.com/noah-isme/backend-sewa/internal/discount"
	"github.com/noah-isme/backend-sewa/internal/pricing"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidDateRange is returned when the rental window ends before it starts.
var ErrInvalidDateRange = errors.New("rental end date precedes start date")

// Querier captures the database access the cart service needs.
type Querier interface {
	GetCart(ctx context.Context, id int64) (db.Cart, error)
	GetCartByClient(ctx context.Context, clientID int64) (db.Cart, error)
	GetCartByAnonID(ctx context.Context, anonID string) (db.Cart, error)
	InsertCart(ctx context.Context, arg db.InsertCartParams) (db.Cart, error)
	TouchCart(ctx context.Context, arg db.TouchCartParams) error
	UpdateCartWindow(ctx context.Context, arg db.UpdateCartWindowParams) error
	SetCartDiscount(ctx context.Context, arg db.SetCartDiscountParams) error
	ListCartLines(ctx context.Context, cartID int64) ([]db.CartLine, error)
	UpsertCartLine(ctx context.Context, arg db.UpsertCartLineParams) error
	DeleteCartLine(ctx context.Context, arg db.DeleteCartLineParams) error
	GetInventoryItem(ctx context.Context, id int64) (db.InventoryItem, error)
}

// Service encapsulates cart domain operations. Line prices are snapshotted
// from the inventory at add time so an admin repricing an item does not
// silently change carts already being negotiated.
type Service struct {
	Q         Querier
	Discounts *discount.Service
	TTL       time.Duration
	Now       func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EnsureCart loads or creates a cart for the provided identifiers.
func (s *Service) EnsureCart(ctx context.Context, clientID *int64, anonID *string) (db.Cart, error) {
	if s == nil || s.Q == nil {
		return db.Cart{}, errors.New("cart service not configured")
	}
	expires := pgtype.Timestamptz{Time: s.now().Add(s.ttl()), Valid: true}

	if clientID != nil && *clientID > 0 {
		cart, err := s.Q.GetCartByClient(ctx, *clientID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return s.Q.InsertCart(ctx, db.InsertCartParams{
					ClientID:  pgtype.Int8{Int64: *clientID, Valid: true},
					ExpiresAt: expires,
				})
			}
			return db.Cart{}, err
		}
		_ = s.Q.TouchCart(ctx, db.TouchCartParams{ID: cart.ID, ExpiresAt: expires})
		return cart, nil
	}

	if anonID != nil && *anonID != "" {
		cart, err := s.Q.GetCartByAnonID(ctx, *anonID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return s.Q.InsertCart(ctx, db.InsertCartParams{
					AnonID:    pgtype.Text{String: *anonID, Valid: true},
					ExpiresAt: expires,
				})
			}
			return db.Cart{}, err
		}
		_ = s.Q.TouchCart(ctx, db.TouchCartParams{ID: cart.ID, ExpiresAt: expires})
		return cart, nil
	}

	return db.Cart{}, ErrInvalidInput
}

// SetWindow stores the rental period on the cart.
func (s *Service) SetWindow(ctx context.Context, cartID int64, start, end time.Time) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("both dates are required: %w", ErrInvalidInput)
	}
	if end.Before(start) {
		return ErrInvalidDateRange
	}
	if err := s.Q.UpdateCartWindow(ctx, db.UpdateCartWindowParams{
		ID:        cartID,
		StartDate: pgtype.Date{Time: start, Valid: true},
		EndDate:   pgtype.Date{Time: end, Valid: true},
	}); err != nil {
		return err
	}
	s.touch(ctx, cartID)
	return nil
}

// AddItem adds qty units of an inventory item to the cart, snapshotting the
// current daily price. Adding an item already in the cart increments its
// quantity while keeping the original snapshot price.
func (s *Service) AddItem(ctx context.Context, cartID, itemID int64, qty int) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	if qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	lines, err := s.Q.ListCartLines(ctx, cartID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if line.ItemID == itemID {
			if err := s.Q.UpsertCartLine(ctx, db.UpsertCartLineParams{
				CartID:    cartID,
				ItemID:    itemID,
				Name:      line.Name,
				Qty:       line.Qty + int32(qty),
				UnitPrice: line.UnitPrice,
			}); err != nil {
				return err
			}
			s.touch(ctx, cartID)
			return nil
		}
	}
	item, err := s.Q.GetInventoryItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("unknown inventory item: %w", ErrInvalidInput)
		}
		return err
	}
	if err := s.Q.UpsertCartLine(ctx, db.UpsertCartLineParams{
		CartID:    cartID,
		ItemID:    itemID,
		Name:      item.Name,
		Qty:       int32(qty),
		UnitPrice: item.PricePerDay,
	}); err != nil {
		return err
	}
	s.touch(ctx, cartID)
	return nil
}

// UpdateQty sets the absolute quantity for a cart line. Setting it to zero
// removes the line.
func (s *Service) UpdateQty(ctx context.Context, cartID, itemID int64, qty int) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	if qty < 0 {
		return fmt.Errorf("qty cannot be negative: %w", ErrInvalidInput)
	}
	if qty == 0 {
		return s.RemoveItem(ctx, cartID, itemID)
	}
	lines, err := s.Q.ListCartLines(ctx, cartID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if line.ItemID == itemID {
			if err := s.Q.UpsertCartLine(ctx, db.UpsertCartLineParams{
				CartID:    cartID,
				ItemID:    itemID,
				Name:      line.Name,
				Qty:       int32(qty),
				UnitPrice: line.UnitPrice,
			}); err != nil {
				return err
			}
			s.touch(ctx, cartID)
			return nil
		}
	}
	return ErrNotFound
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID int64) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	if err := s.Q.DeleteCartLine(ctx, db.DeleteCartLineParams{CartID: cartID, ItemID: itemID}); err != nil {
		return err
	}
	s.touch(ctx, cartID)
	return nil
}

// ApplyDiscount validates and attaches a discount code to the cart, returning
// the advisory amount for the cart's current subtotal.
func (s *Service) ApplyDiscount(ctx context.Context, cartID int64, code string) (discount.Result, error) {
	if s == nil || s.Q == nil || s.Discounts == nil {
		return discount.Result{}, errors.New("cart service not configured")
	}
	cart, err := s.Q.GetCart(ctx, cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return discount.Result{}, ErrNotFound
		}
		return discount.Result{}, err
	}
	var clientID *int64
	if cart.ClientID.Valid {
		clientID = &cart.ClientID.Int64
	}
	summary, _, err := s.summary(ctx, cart, clientID)
	if err != nil {
		return discount.Result{}, err
	}
	result, err := s.Discounts.Validate(ctx, code, clientID, summary.Subtotal)
	if err != nil {
		return discount.Result{}, err
	}
	if err := s.Q.SetCartDiscount(ctx, db.SetCartDiscountParams{
		ID:           cart.ID,
		DiscountCode: pgtype.Text{String: result.Code, Valid: true},
	}); err != nil {
		return discount.Result{}, err
	}
	s.touch(ctx, cart.ID)
	return result, nil
}

// RemoveDiscount clears an applied discount code.
func (s *Service) RemoveDiscount(ctx context.Context, cartID int64) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	if err := s.Q.SetCartDiscount(ctx, db.SetCartDiscountParams{ID: cartID}); err != nil {
		return err
	}
	s.touch(ctx, cartID)
	return nil
}

// Preview is the cart with its computed totals.
type Preview struct {
	Cart    db.Cart
	Lines   []db.CartLine
	Summary pricing.Summary
	// DiscountIssue carries the reason an attached code currently fails to
	// apply; the quote simply omits the discount in that case.
	DiscountIssue string
}

// Quote prices the cart over its rental window, re-validating any attached
// discount code.
func (s *Service) Quote(ctx context.Context, cartID int64) (Preview, error) {
	if s == nil || s.Q == nil {
		return Preview{}, errors.New("cart service not configured")
	}
	cart, err := s.Q.GetCart(ctx, cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Preview{}, ErrNotFound
		}
		return Preview{}, err
	}
	var clientID *int64
	if cart.ClientID.Valid {
		clientID = &cart.ClientID.Int64
	}
	summary, lines, err := s.summary(ctx, cart, clientID)
	if err != nil {
		return Preview{}, err
	}
	preview := Preview{Cart: cart, Lines: lines, Summary: summary}
	if cart.DiscountCode.Valid && summary.Discount == 0 {
		if _, derr := s.Discounts.Validate(ctx, cart.DiscountCode.String, clientID, summary.Subtotal); derr != nil {
			preview.DiscountIssue = derr.Error()
		}
	}
	return preview, nil
}

func (s *Service) summary(ctx context.Context, cart db.Cart, clientID *int64) (pricing.Summary, []db.CartLine, error) {
	lines, err := s.Q.ListCartLines(ctx, cart.ID)
	if err != nil {
		return pricing.Summary{}, nil, err
	}
	pricingLines := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		pricingLines = append(pricingLines, pricing.Line{Qty: int(l.Qty), UnitPrice: l.UnitPrice})
	}
	start, end := s.now(), s.now()
	if cart.StartDate.Valid {
		start = cart.StartDate.Time
	}
	if cart.EndDate.Valid {
		end = cart.EndDate.Time
	}
	var applied *pricing.Discount
	if cart.DiscountCode.Valid && cart.DiscountCode.String != "" && s.Discounts != nil {
		subtotal := pricing.Compute(pricingLines, start, end, nil, 0).Subtotal
		if res, err := s.Discounts.Validate(ctx, cart.DiscountCode.String, clientID, subtotal); err == nil {
			applied = &pricing.Discount{Kind: res.Kind, Value: res.Value}
		}
	}
	return pricing.Compute(pricingLines, start, end, applied, 0), lines, nil
}

func (s *Service) touch(ctx context.Context, cartID int64) {
	expires := pgtype.Timestamptz{Time: s.now().Add(s.ttl()), Valid: true}
	_ = s.Q.TouchCart(ctx, db.TouchCartParams{ID: cartID, ExpiresAt: expires})
}
