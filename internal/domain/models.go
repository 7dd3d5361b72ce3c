package domain

import "time"

type Product struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	PriceCents    int64  `json:"price_cents"`
	Stock         int    `json:"stock"`
	MinStock      int    `json:"min_stock"`
	ImageURL      string `json:"image_url,omitempty"`
	Description   string `json:"description,omitempty"`
	Highlighted   bool   `json:"highlighted"`
	OnlineCatalog bool   `json:"online_catalog"`
}

type ProductCreateRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	PriceCents    int64  `json:"price_cents"`
	Stock         int    `json:"stock"`
	MinStock      int    `json:"min_stock"`
	ImageURL      string `json:"image_url,omitempty"`
	Description   string `json:"description,omitempty"`
	Highlighted   bool   `json:"highlighted"`
	OnlineCatalog bool   `json:"online_catalog"`
}

type ProductUpdateRequest struct {
	Name          *string `json:"name,omitempty"`
	Category      *string `json:"category,omitempty"`
	PriceCents    *int64  `json:"price_cents,omitempty"`
	Stock         *int    `json:"stock,omitempty"`
	MinStock      *int    `json:"min_stock,omitempty"`
	ImageURL      *string `json:"image_url,omitempty"`
	Description   *string `json:"description,omitempty"`
	Highlighted   *bool   `json:"highlighted,omitempty"`
	OnlineCatalog *bool   `json:"online_catalog,omitempty"`
}

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CustomerCreateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type CustomerUpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// OrderLine captures the unit price at the moment the sale completed.
// It never changes when the product's catalog price changes later.
type OrderLine struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type Order struct {
	ID                  string      `json:"id"`
	CustomerID          string      `json:"customer_id,omitempty"`
	TotalCents          int64       `json:"total_cents"`
	PaymentMethod       string      `json:"payment_method"`
	AmountReceivedCents int64       `json:"amount_received_cents,omitempty"`
	ChangeCents         int64       `json:"change_cents,omitempty"`
	Status              string      `json:"status"`
	Notes               string      `json:"notes,omitempty"`
	IdempotencyKey      string      `json:"-"`
	CreatedAt           time.Time   `json:"created_at"`
	Items               []OrderLine `json:"items"`
}

type CheckoutRequest struct {
	CustomerID          string     `json:"customer_id,omitempty"`
	PaymentMethod       string     `json:"payment_method"`
	AmountReceivedCents int64      `json:"amount_received_cents"`
	Notes               string     `json:"notes,omitempty"`
	IdempotencyKey      string     `json:"idempotency_key,omitempty"`
	CartItems           []CartItem `json:"cart_items"`
}

type CheckoutResponse struct {
	Order     Order `json:"order"`
	Duplicate bool  `json:"duplicate"`
}

type OrderStatusRequest struct {
	Status string `json:"status"`
}

// OrderView is an Order plus the resolved customer display name. Orders hold
// only a weak customer reference; a deleted or absent customer resolves to
// the walk-in label.
type OrderView struct {
	Order
	CustomerName string `json:"customer_name"`
}

type Receipt struct {
	OrderID             string      `json:"order_id"`
	CustomerName        string      `json:"customer_name"`
	PaymentMethod       string      `json:"payment_method"`
	TotalCents          int64       `json:"total_cents"`
	AmountReceivedCents int64       `json:"amount_received_cents,omitempty"`
	ChangeCents         int64       `json:"change_cents,omitempty"`
	Currency            string      `json:"currency"`
	CreatedAt           string      `json:"created_at"`
	Items               []OrderLine `json:"items"`
}

// TimeBucket is a derived, never-persisted aggregate for one calendar unit.
// AvgTicketCents is populated for hourly buckets; Customers (distinct buyer
// count) for daily, weekday and monthly buckets.
type TimeBucket struct {
	Label          string `json:"label"`
	RevenueCents   int64  `json:"revenue_cents"`
	Sales          int    `json:"sales"`
	AvgTicketCents int64  `json:"avg_ticket_cents"`
	Customers      int    `json:"customers"`
}

type CategoryShare struct {
	Name    string `json:"name"`
	Percent int    `json:"percent"`
	Color   string `json:"color"`
}

// Summary is the same-day KPI snapshot. BestHour and WorstHour are nil when
// no orders exist today; the presentation layer chooses its own placeholder.
type Summary struct {
	RevenueCents        int64   `json:"revenue_cents"`
	Sales               int     `json:"sales"`
	AvgTicketCents      int64   `json:"avg_ticket_cents"`
	ProfitsCents        int64   `json:"profits_cents"`
	ConversionRate      float64 `json:"conversion_rate"`
	RegisteredCustomers int     `json:"registered_customers"`
	BestHour            *string `json:"best_hour,omitempty"`
	WorstHour           *string `json:"worst_hour,omitempty"`
}

type Dashboard struct {
	Date       string          `json:"date"`
	Summary    Summary         `json:"summary"`
	Hourly     []TimeBucket    `json:"hourly"`
	Categories []CategoryShare `json:"categories"`
}

// AnalyticsExport mirrors the structures exactly as computed; nesting is
// preserved for file export.
type AnalyticsExport struct {
	GeneratedAt string       `json:"generated_at"`
	Granularity string       `json:"granularity"`
	Date        string       `json:"date"`
	Buckets     []TimeBucket `json:"buckets"`
	Orders      []Order      `json:"orders"`
}

type LoginRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	PIN       string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const WalkInCustomerName = "Walk-in Customer"
