package domain

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Product struct {
	ID           string  `db:"id" json:"id"`
	VendorID     string  `db:"vendor_id" json:"vendorId"`
	CategoryID   string  `db:"category_id" json:"categoryId"`
	CategoryName string  `db:"category_name" json:"categoryName"`
	Title        string  `db:"title" json:"title"`
	Description  string  `db:"description" json:"description"`
	Price        float64 `db:"price" json:"price"`
	Stock        int     `db:"stock" json:"stock"`
	ImgURL       string  `db:"img_url" json:"imgURL"`
	Status       string  `db:"status" json:"status"` // pending | approved | rejected
	CreatedAt    string  `db:"created_at" json:"createdAt"`
	UpdatedAt    string  `db:"updated_at" json:"updatedAt,omitempty"`
}

// ProductCard is a product as shown in listings.
type ProductCard struct {
	Product
	AverageRating float64 `json:"averageRating"`
	Availability  string  `json:"availability"`
	Favorite      bool    `json:"favorite"`
}

const (
	InStock    = "IN_STOCK"
	LowStock   = "LOW_STOCK"
	OutOfStock = "OUT_OF_STOCK"
)

type Availability struct {
	ProductID string `json:"productId"`
	Status    string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty       int    `json:"qty"`
}

// AvailabilityOf maps a stock level to its label.
func AvailabilityOf(stock int) string {
	switch {
	case stock >= 5:
		return InStock
	case stock > 0:
		return LowStock
	}
	return OutOfStock
}

type CartItem struct {
	ID        string  `db:"id" json:"id"`
	UserID    string  `db:"user_id" json:"userId"`
	ProductID string  `db:"product_id" json:"productId"`
	Quantity  int     `db:"quantity" json:"quantity"`
	Title     string  `db:"title" json:"title"`
	Price     float64 `db:"price" json:"price"`
	ImgURL    string  `db:"img_url" json:"imgURL"`
	CreatedAt string  `db:"created_at" json:"createdAt"`
	UpdatedAt string  `db:"updated_at" json:"updatedAt,omitempty"`
}

type Favorite struct {
	ID        string  `db:"id" json:"id"`
	UserID    string  `db:"user_id" json:"userId"`
	ProductID string  `db:"product_id" json:"productId"`
	Title     string  `db:"title" json:"title"`
	ImgURL    string  `db:"img_url" json:"imgURL"`
	Price     float64 `db:"price" json:"price"`
	CreatedAt string  `db:"created_at" json:"createdAt"`
}

type Feedback struct {
	ID        string `db:"id" json:"id"`
	ProductID string `db:"product_id" json:"productId"`
	UserID    string `db:"user_id" json:"userId"`
	Rating    int    `db:"rating" json:"rating"` // 0 = comment only
	Comment   string `db:"comment" json:"comment"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}

const (
	OrderPlaced    = "PLACED"
	OrderShipped   = "SHIPPED"
	OrderDelivered = "DELIVERED"
	OrderCanceled  = "CANCELED"
)

type Order struct {
	ID            string      `db:"id" json:"id"`
	UserID        string      `db:"user_id" json:"userId"`
	CustomerName  string      `db:"customer_name" json:"customerName"`
	CustomerEmail string      `db:"customer_email" json:"customerEmail"`
	Total         float64     `db:"total" json:"total"`
	Status        string      `db:"status" json:"status"`
	CreatedAt     string      `db:"created_at" json:"createdAt"`
	Items         []OrderItem `db:"-" json:"items,omitempty"`
}

type OrderItem struct {
	OrderID   string  `db:"order_id" json:"-"`
	ProductID string  `db:"product_id" json:"productId"`
	Title     string  `db:"title" json:"title"`
	Quantity  int     `db:"quantity" json:"quantity"`
	Price     float64 `db:"price" json:"price"`
}

// Page describes one slice of a paginated list.
type Page struct {
	Number     int `json:"page"`
	Size       int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPage clamps number to 1..TotalPages+1. A number past the last page lands
// on the first empty page, so callers return an empty slice rather than
// silently jumping back.
func NewPage(number, size, total int) Page {
	if size <= 0 {
		size = 10
	}
	if total < 0 {
		total = 0
	}
	pages := (total + size - 1) / size
	if number < 1 {
		number = 1
	}
	if number > pages+1 {
		number = pages + 1
	}
	return Page{Number: number, Size: size, Total: total, TotalPages: pages}
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }
