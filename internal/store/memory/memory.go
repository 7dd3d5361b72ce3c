package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"salepoint/backend/internal/domain"
	"salepoint/backend/internal/store"
	"salepoint/backend/internal/xid"
)

type Store struct {
	mu           sync.RWMutex
	products     map[string]domain.Product
	customers    map[string]domain.Customer
	ordersByID   map[string]*domain.Order
	ordersByIdem map[string]*domain.Order
	users        map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory accounts for dev/demo mode. PINs are
// read from SEED_ADMIN_PIN and SEED_CASHIER_PIN; hardcoded dev defaults are
// used with a warning when unset. Production deployments use PostgreSQL
// (DATABASE_URL) and never touch these.
func seedUsers() map[string]domain.UserAccount {
	adminPIN := envOr("SEED_ADMIN_PIN", "937412")
	cashierPIN := envOr("SEED_CASHIER_PIN", "4917")
	if os.Getenv("SEED_ADMIN_PIN") == "" || os.Getenv("SEED_CASHIER_PIN") == "" {
		log.Println("[memory-store] WARNING: using default dev PINs. Set SEED_ADMIN_PIN and SEED_CASHIER_PIN to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		pin      string
		role     string
	}{
		{"admin", adminPIN, "admin"},
		{"cashier", cashierPIN, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.pin), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed PIN for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			PIN:       string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	products := []domain.Product{
		{Name: "Wireless Earbuds", Category: "Electronics", PriceCents: 1250000, Stock: 24, MinStock: 5, Highlighted: true, OnlineCatalog: true},
		{Name: "USB-C Charger 30W", Category: "Electronics", PriceCents: 420000, Stock: 40, MinStock: 8, OnlineCatalog: true},
		{Name: "Cotton T-Shirt", Category: "Clothing", PriceCents: 180000, Stock: 60, MinStock: 10, OnlineCatalog: true},
		{Name: "Denim Jacket", Category: "Clothing", PriceCents: 750000, Stock: 12, MinStock: 3},
		{Name: "Ground Coffee 250g", Category: "Food", PriceCents: 95000, Stock: 80, MinStock: 15, Highlighted: true, OnlineCatalog: true},
		{Name: "Olive Oil 1L", Category: "Food", PriceCents: 130000, Stock: 35, MinStock: 10, OnlineCatalog: true},
		{Name: "Mineral Water 6-pack", Category: "Food", PriceCents: 24000, Stock: 120, MinStock: 24},
		{Name: "Pocket Notebook", Category: "Books", PriceCents: 45000, Stock: 50, MinStock: 10},
		{Name: "City Travel Guide", Category: "Books", PriceCents: 210000, Stock: 15, MinStock: 4, OnlineCatalog: true},
		{Name: "Gift Wrap Roll", Category: "Others", PriceCents: 30000, Stock: 45, MinStock: 10},
	}

	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		p.ID = xid.New("prod")
		productMap[p.ID] = p
	}

	return &Store{
		products:     productMap,
		customers:    make(map[string]domain.Customer),
		ordersByID:   make(map[string]*domain.Order),
		ordersByIdem: make(map[string]*domain.Order),
		users:        seedUsers(),
	}
}

// New returns an empty store, used by tests that want full control of the
// seed data.
func New() *Store {
	return &Store{
		products:     make(map[string]domain.Product),
		customers:    make(map[string]domain.Customer),
		ordersByID:   make(map[string]*domain.Order),
		ordersByIdem: make(map[string]*domain.Order),
		users:        make(map[string]domain.UserAccount),
	}
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sortProducts(products)
	return products, nil
}

func (s *Store) ListCatalogProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.OnlineCatalog {
			continue
		}
		products = append(products, p)
	}
	sortProducts(products)
	return products, nil
}

func sortProducts(products []domain.Product) {
	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.Category, b.Category)
	})
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || product.Name == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrConflict
	}

	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copied := product
	return &copied, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if product, exists := s.products[id]; exists {
			result[id] = product
		}
	}
	return result, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || product.Name == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.products[product.ID]; !exists {
		return nil, store.ErrNotFound
	}

	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) DecrementStock(_ context.Context, items []domain.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		product, exists := s.products[item.ProductID]
		if !exists {
			return store.ErrNotFound
		}
		product.Stock -= item.Qty
		if product.Stock < 0 {
			product.Stock = 0
		}
		s.products[item.ProductID] = product
	}
	return nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return strings.Compare(a.Name, b.Name)
	})
	return customers, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == "" || customer.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.customers[customer.ID]; exists {
		return nil, store.ErrConflict
	}

	s.customers[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) GetCustomerByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copied := customer
	return &copied, nil
}

func (s *Store) UpdateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == "" || customer.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.customers[customer.ID]; !exists {
		return nil, store.ErrNotFound
	}

	s.customers[customer.ID] = customer
	updated := customer
	return &updated, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[id]; !exists {
		return store.ErrNotFound
	}
	// Past orders keep their customer_id; the dangling reference resolves to
	// the walk-in label at display time.
	delete(s.customers, id)
	return nil
}

func (s *Store) ListOrders(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, len(s.ordersByID))
	for _, order := range s.ordersByID {
		orders = append(orders, copyOrder(order))
	}
	slices.SortFunc(orders, func(a, b domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return orders, nil
}

func (s *Store) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.ordersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copied := copyOrder(order)
	return &copied, nil
}

func (s *Store) FindOrderByIdempotency(_ context.Context, key string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.ordersByIdem[key]
	if !exists {
		return nil, store.ErrNotFound
	}
	copied := copyOrder(order)
	return &copied, nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" || len(order.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.ordersByID[order.ID]; exists {
		return nil, store.ErrConflict
	}
	if order.IdempotencyKey != "" {
		if _, exists := s.ordersByIdem[order.IdempotencyKey]; exists {
			return nil, store.ErrConflict
		}
	}

	stored := copyOrder(&order)
	s.ordersByID[order.ID] = &stored
	if order.IdempotencyKey != "" {
		s.ordersByIdem[order.IdempotencyKey] = &stored
	}
	created := copyOrder(&stored)
	return &created, nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id string, status string, _ time.Time) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.ordersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	order.Status = status
	updated := copyOrder(order)
	return &updated, nil
}

func (s *Store) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.ordersByID[id]
	if !exists {
		return store.ErrNotFound
	}
	if order.IdempotencyKey != "" {
		delete(s.ordersByIdem, order.IdempotencyKey)
	}
	delete(s.ordersByID, id)
	return nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.users[user.Username]; exists {
		return store.ErrConflict
	}
	s.users[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	return users, nil
}

func (s *Store) UpdateUserPIN(_ context.Context, username string, pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[username]
	if !exists {
		return store.ErrNotFound
	}
	user.PIN = pin
	s.users[username] = user
	return nil
}

func copyOrder(order *domain.Order) domain.Order {
	copied := *order
	copied.Items = make([]domain.OrderLine, len(order.Items))
	copy(copied.Items, order.Items)
	return copied
}
