package domain

import "time"

// Event is anything the services announce after a successful write.
type Event interface {
	Type() string
}

// CatalogEvent marks events that change what the approved catalog looks like.
type CatalogEvent interface {
	Event
	AffectsCatalog() bool
}

type ProductSubmitted struct {
	ProductID string    `json:"productId"`
	VendorID  string    `json:"vendorId"`
	Title     string    `json:"title"`
	At        time.Time `json:"at"`
}

func (ProductSubmitted) Type() string         { return "product.submitted" }
func (ProductSubmitted) AffectsCatalog() bool { return true }

type ProductReviewed struct {
	ProductID string    `json:"productId"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

func (ProductReviewed) Type() string         { return "product.reviewed" }
func (ProductReviewed) AffectsCatalog() bool { return true }

type ProductDeleted struct {
	ProductID string    `json:"productId"`
	VendorID  string    `json:"vendorId"`
	At        time.Time `json:"at"`
}

func (ProductDeleted) Type() string         { return "product.deleted" }
func (ProductDeleted) AffectsCatalog() bool { return true }

type ProductStockChanged struct {
	ProductID    string    `json:"productId"`
	ChangeAmount int       `json:"changeAmount"`
	NewQuantity  int       `json:"newQuantity"`
	At           time.Time `json:"at"`
}

func (ProductStockChanged) Type() string         { return "product.stock_changed" }
func (ProductStockChanged) AffectsCatalog() bool { return true }

type CartItemAdded struct {
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	At        time.Time `json:"at"`
}

func (CartItemAdded) Type() string { return "cart.item_added" }

type CartItemRemoved struct {
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Restored  int       `json:"restored"`
	At        time.Time `json:"at"`
}

func (CartItemRemoved) Type() string { return "cart.item_removed" }

type FavoriteToggled struct {
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Favorite  bool      `json:"favorite"`
	At        time.Time `json:"at"`
}

func (FavoriteToggled) Type() string { return "favorite.toggled" }

type FeedbackSubmitted struct {
	FeedbackID string    `json:"feedbackId"`
	ProductID  string    `json:"productId"`
	UserID     string    `json:"userId"`
	Rating     int       `json:"rating"`
	At         time.Time `json:"at"`
}

func (FeedbackSubmitted) Type() string         { return "feedback.submitted" }
func (FeedbackSubmitted) AffectsCatalog() bool { return true }

type FeedbackDeleted struct {
	FeedbackID string    `json:"feedbackId"`
	ProductID  string    `json:"productId"`
	At         time.Time `json:"at"`
}

func (FeedbackDeleted) Type() string         { return "feedback.deleted" }
func (FeedbackDeleted) AffectsCatalog() bool { return true }

type OrderPlacedEvent struct {
	OrderID string    `json:"orderId"`
	UserID  string    `json:"userId"`
	Total   float64   `json:"total"`
	At      time.Time `json:"at"`
}

func (OrderPlacedEvent) Type() string { return "order.placed" }

type OrderStatusChanged struct {
	OrderID string    `json:"orderId"`
	Status  string    `json:"status"`
	At      time.Time `json:"at"`
}

func (OrderStatusChanged) Type() string { return "order.status_changed" }

type UserDeleted struct {
	UserID string    `json:"userId"`
	At     time.Time `json:"at"`
}

func (UserDeleted) Type() string         { return "user.deleted" }
func (UserDeleted) AffectsCatalog() bool { return true }
