package db

import (
	"database/sql/driver"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

type DiscountKind string

const (
	DiscountKindFixed      DiscountKind = "fixed"
	DiscountKindPercentage DiscountKind = "percentage"
)

func (e *DiscountKind) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = DiscountKind(s)
	case string:
		*e = DiscountKind(s)
	default:
		return fmt.Errorf("unsupported scan type for DiscountKind: %T", src)
	}
	return nil
}

type NullDiscountKind struct {
	DiscountKind DiscountKind
	Valid        bool
}

func (ns *NullDiscountKind) Scan(src interface{}) error {
	if src == nil {
		ns.DiscountKind, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.DiscountKind.Scan(src)
}

func (ns NullDiscountKind) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.DiscountKind), nil
}

type DiscountDuration string

const (
	DiscountDurationOneTime   DiscountDuration = "one_time"
	DiscountDurationUnlimited DiscountDuration = "unlimited"
	DiscountDurationPeriod    DiscountDuration = "period"
)

func (e *DiscountDuration) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = DiscountDuration(s)
	case string:
		*e = DiscountDuration(s)
	default:
		return fmt.Errorf("unsupported scan type for DiscountDuration: %T", src)
	}
	return nil
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusApproved   OrderStatus = "APPROVED"
	OrderStatusRejected   OrderStatus = "REJECTED"
	OrderStatusActive     OrderStatus = "ACTIVE"
	OrderStatusSettlement OrderStatus = "SETTLEMENT"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
)

func (e *OrderStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = OrderStatus(s)
	case string:
		*e = OrderStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for OrderStatus: %T", src)
	}
	return nil
}

type NullOrderStatus struct {
	OrderStatus OrderStatus
	Valid       bool
}

func (ns *NullOrderStatus) Scan(src interface{}) error {
	if src == nil {
		ns.OrderStatus, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.OrderStatus.Scan(src)
}

func (ns NullOrderStatus) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.OrderStatus), nil
}

type InventoryItem struct {
	ID              int64
	Name            string
	Category        string
	PricePerDay     int64
	ReplacementCost int64
	Stock           int32
	SortOrder       int32
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type Client struct {
	ID          int64
	FirstName   string
	LastName    string
	Phone       string
	Email       string
	TotalOrders int32
	TotalSpent  int64
	LastOrderAt pgtype.Timestamptz
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type Discount struct {
	ID        int64
	Name      string
	Code      string
	Kind      DiscountKind
	Value     int64
	Duration  DiscountDuration
	StartsAt  pgtype.Timestamptz
	EndsAt    pgtype.Timestamptz
	Active    bool
	Approval  string
	UsedCount int32
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type Order struct {
	ID            int64
	ClientID      int64
	ClientName    string
	ClientPhone   string
	ClientEmail   string
	Status        OrderStatus
	StartDate     pgtype.Date
	EndDate       pgtype.Date
	ClosedAt      pgtype.Timestamptz
	Total         int64
	Paid          int64
	Penalty       int64
	DiscountCode  pgtype.Text
	DiscountName  pgtype.Text
	DiscountKind  NullDiscountKind
	DiscountValue pgtype.Int8
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

type OrderItem struct {
	ID              int64
	OrderID         int64
	ItemID          int64
	Name            string
	Qty             int32
	UnitPrice       int64
	ReplacementCost int64
	ReturnedQty     int32
	LostQty         int32
	DamagedQty      int32
}

type DiscountRedemption struct {
	ID         int64
	DiscountID int64
	OrderID    int64
	ClientID   int64
	Amount     int64
	RedeemedAt pgtype.Timestamptz
}

type Cart struct {
	ID           int64
	ClientID     pgtype.Int8
	AnonID       pgtype.Text
	StartDate    pgtype.Date
	EndDate      pgtype.Date
	DiscountCode pgtype.Text
	ExpiresAt    pgtype.Timestamptz
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type CartLine struct {
	ID        int64
	CartID    int64
	ItemID    int64
	Name      string
	Qty       int32
	UnitPrice int64
}

type DomainEvent struct {
	ID          int64
	Topic       string
	AggregateID int64
	Payload     []byte
	OccurredAt  pgtype.Timestamptz
}

type AdminAudit struct {
	ID         int64
	Actor      string
	Action     string
	OrderID    pgtype.Int8
	FromStatus NullOrderStatus
	ToStatus   NullOrderStatus
	Reason     string
	CreatedAt  pgtype.Timestamptz
}
