package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Money renders an amount as a JSON string with exactly two decimals.
type Money decimal.Decimal

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(decimal.Decimal(m).StringFixed(2))
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         *string   `json:"name"`
	PasswordHash *string   `json:"-"`
	Phone        *string   `json:"phone"`
	Address      *string   `json:"address"`
	Role         string    `json:"role"`
	Avatar       *string   `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Product struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	ShortDescription *string         `json:"short_description,omitempty"`
	Category         string          `json:"category"`
	Price            decimal.Decimal `json:"price"`
	Image            string          `json:"image"`
	Images           []string        `json:"images"`
	Author           string          `json:"author"`
	AuthorID         *string         `json:"author_id,omitempty"`
	Rating           decimal.Decimal `json:"rating"`
	Downloads        int             `json:"downloads"`
	IsFeatured       bool            `json:"is_featured"`
	Tags             []string        `json:"tags"`
	LicenseType      string          `json:"license_type"`
	DownloadURL      *string         `json:"download_url,omitempty"`
	FileSize         *string         `json:"file_size,omitempty"`
	Version          *string         `json:"version,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		Price Money `json:"price"`
	}{product(p), Money(p.Price)})
}

type Category struct {
	Name         string `json:"name"`
	ProductCount int64  `json:"product_count"`
}

type Deal struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DiscountPercent int       `json:"discount_percent"`
	Code            string    `json:"code"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	IsActive        bool      `json:"is_active"`
	ProductIDs      []string  `json:"product_ids"`
	CategoryIDs     []string  `json:"category_ids"`
	CreatedAt       time.Time `json:"created_at"`
}

// ActiveAt reports whether the deal applies at t.
func (d Deal) ActiveAt(t time.Time) bool {
	return d.IsActive && !t.Before(d.StartDate) && !t.After(d.EndDate)
}

type Testimonial struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       *string   `json:"role,omitempty"`
	Avatar     *string   `json:"avatar,omitempty"`
	Rating     int       `json:"rating"`
	Content    string    `json:"content"`
	IsVerified bool      `json:"is_verified"`
	IsVisible  bool      `json:"is_visible"`
	CreatedAt  time.Time `json:"created_at"`
}

type CartItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// CartLine is a cart item joined with the product's current price.
type CartLine struct {
	CartItemID   string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductTitle string          `json:"title"`
	Image        string          `json:"image"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	PaymentIntentID string          `json:"payment_intent_id"`
	IdempotencyKey  string          `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items,omitempty"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	type order Order
	return json.Marshal(struct {
		order
		TotalAmount Money `json:"total_amount"`
	}{order(o), Money(o.TotalAmount)})
}

type OrderItem struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"order_id"`
	ProductID  string          `json:"product_id"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	LicenseKey *string         `json:"license_key,omitempty"`
}

func (i OrderItem) MarshalJSON() ([]byte, error) {
	type orderItem OrderItem
	return json.Marshal(struct {
		orderItem
		Price Money `json:"price"`
	}{orderItem(i), Money(i.Price)})
}

type LoginEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Device    string    `json:"device"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginAnalytics struct {
	Days        int              `json:"days"`
	TotalLogins int64            `json:"total_logins"`
	UniqueUsers int64            `json:"unique_users"`
	ByDevice    map[string]int64 `json:"by_device"`
	Daily       []DailyCount     `json:"daily"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type NewsletterSubscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductRequest struct {
	ID          string    `json:"id"`
	ProductName string    `json:"product_name"`
	Email       string    `json:"email"`
	Message     *string   `json:"message,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
)

const (
	ProductRequestPending   = "pending"
	ProductRequestReviewed  = "reviewed"
	ProductRequestFulfilled = "fulfilled"
	ProductRequestRejected  = "rejected"
)
