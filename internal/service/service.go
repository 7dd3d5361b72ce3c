package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"salepoint/backend/internal/analytics"
	"salepoint/backend/internal/cache"
	"salepoint/backend/internal/domain"
	"salepoint/backend/internal/store"
	"salepoint/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo         store.Repository
	dashboards   cache.DashboardCache
	dashboardTTL time.Duration
	currency     string
}

func New(repo store.Repository, dashboards cache.DashboardCache, dashboardTTL time.Duration, currency string) *Service {
	if dashboards == nil {
		dashboards = cache.NoopDashboardCache{}
	}
	if dashboardTTL < time.Second {
		dashboardTTL = 30 * time.Second
	}
	if currency == "" {
		currency = "DZD"
	}

	return &Service{
		repo:         repo,
		dashboards:   dashboards,
		dashboardTTL: dashboardTTL,
		currency:     currency,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

// CatalogProducts returns only products flagged for the public online
// catalog. It backs the unauthenticated storefront endpoint.
func (s *Service) CatalogProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListCatalogProducts(ctx)
}

func (s *Service) LowStockProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	low := make([]domain.Product, 0, 8)
	for _, p := range products {
		if p.Stock <= p.MinStock {
			low = append(low, p)
		}
	}
	return low, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireRole(ctx, "admin"); err != nil {
		return domain.Product{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		req.Category = "Others"
	}
	if req.Name == "" || req.PriceCents < 1 || req.Stock < 0 || req.MinStock < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}

	product := domain.Product{
		ID:            xid.New("prod"),
		Name:          req.Name,
		Category:      req.Category,
		PriceCents:    req.PriceCents,
		Stock:         req.Stock,
		MinStock:      req.MinStock,
		ImageURL:      strings.TrimSpace(req.ImageURL),
		Description:   strings.TrimSpace(req.Description),
		Highlighted:   req.Highlighted,
		OnlineCatalog: req.OnlineCatalog,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireRole(ctx, "admin"); err != nil {
		return domain.Product{}, err
	}
	if id == "" {
		return domain.Product{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			category = "Others"
		}
		updated.Category = category
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 1 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.PriceCents = *req.PriceCents
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Stock = *req.Stock
	}
	if req.MinStock != nil {
		if *req.MinStock < 0 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.MinStock = *req.MinStock
	}
	if req.ImageURL != nil {
		updated.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.Highlighted != nil {
		updated.Highlighted = *req.Highlighted
	}
	if req.OnlineCatalog != nil {
		updated.OnlineCatalog = *req.OnlineCatalog
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := requireRole(ctx, "admin"); err != nil {
		return err
	}
	if id == "" {
		return store.ErrInvalidInput
	}
	return s.repo.DeleteProduct(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Customer{}, store.ErrInvalidInput
	}

	customer := domain.Customer{
		ID:        xid.New("cust"),
		Name:      req.Name,
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}
	return *created, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, req domain.CustomerUpdateRequest) (domain.Customer, error) {
	if id == "" {
		return domain.Customer{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Customer{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Phone != nil {
		updated.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		updated.Email = strings.TrimSpace(*req.Email)
	}

	saved, err := s.repo.UpdateCustomer(ctx, updated)
	if err != nil {
		return domain.Customer{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	if err := requireRole(ctx, "admin"); err != nil {
		return err
	}
	if id == "" {
		return store.ErrInvalidInput
	}
	return s.repo.DeleteCustomer(ctx, id)
}

func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = xid.New("idem")
	}
	switch req.PaymentMethod {
	case "cash", "card", "transfer":
	default:
		return domain.CheckoutResponse{}, store.ErrInvalidInput
	}

	normalized := normalizeItems(req.CartItems)
	if len(normalized) == 0 {
		return domain.CheckoutResponse{}, store.ErrInvalidInput
	}

	if existing, err := s.repo.FindOrderByIdempotency(ctx, req.IdempotencyKey); err == nil {
		return domain.CheckoutResponse{Order: *existing, Duplicate: true}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.CheckoutResponse{}, err
	}

	if req.CustomerID != "" {
		if _, err := s.repo.GetCustomerByID(ctx, req.CustomerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.CheckoutResponse{}, store.ErrInvalidInput
			}
			return domain.CheckoutResponse{}, err
		}
	}

	ids := make([]string, 0, len(normalized))
	for _, item := range normalized {
		ids = append(ids, item.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	// Unit prices are captured here. Later catalog edits never touch
	// recorded lines.
	totalCents := int64(0)
	lines := make([]domain.OrderLine, 0, len(normalized))
	for _, item := range normalized {
		product, exists := products[item.ProductID]
		if !exists {
			return domain.CheckoutResponse{}, fmt.Errorf("product %s unavailable: %w", item.ProductID, store.ErrInvalidInput)
		}
		lines = append(lines, domain.OrderLine{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Qty:            item.Qty,
			UnitPriceCents: product.PriceCents,
		})
		totalCents += product.PriceCents * int64(item.Qty)
	}

	changeCents := int64(0)
	if req.PaymentMethod == "cash" {
		if req.AmountReceivedCents < totalCents {
			return domain.CheckoutResponse{}, store.ErrInvalidInput
		}
		changeCents = req.AmountReceivedCents - totalCents
	} else {
		req.AmountReceivedCents = totalCents
	}

	order := domain.Order{
		ID:                  xid.New("ord"),
		CustomerID:          req.CustomerID,
		TotalCents:          totalCents,
		PaymentMethod:       req.PaymentMethod,
		AmountReceivedCents: req.AmountReceivedCents,
		ChangeCents:         changeCents,
		Status:              domain.OrderStatusCompleted,
		Notes:               strings.TrimSpace(req.Notes),
		IdempotencyKey:      req.IdempotencyKey,
		CreatedAt:           time.Now().UTC(),
		Items:               lines,
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			if existing, lookupErr := s.repo.FindOrderByIdempotency(ctx, req.IdempotencyKey); lookupErr == nil {
				return domain.CheckoutResponse{Order: *existing, Duplicate: true}, nil
			}
		}
		return domain.CheckoutResponse{}, err
	}

	if err := s.repo.DecrementStock(ctx, normalized); err != nil {
		log.Printf("[service] WARN: stock decrement failed for order %s: %v", created.ID, err)
	}

	return domain.CheckoutResponse{Order: *created, Duplicate: false}, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]domain.OrderView, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	names, err := s.customerNames(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]domain.OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, domain.OrderView{
			Order:        order,
			CustomerName: resolveCustomerName(names, order.CustomerID),
		})
	}
	return views, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.OrderView, error) {
	if id == "" {
		return domain.OrderView{}, store.ErrInvalidInput
	}

	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return domain.OrderView{}, err
	}

	names, err := s.customerNames(ctx)
	if err != nil {
		return domain.OrderView{}, err
	}

	return domain.OrderView{
		Order:        *order,
		CustomerName: resolveCustomerName(names, order.CustomerID),
	}, nil
}

func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status string) (domain.OrderView, error) {
	if err := requireRole(ctx, "admin"); err != nil {
		return domain.OrderView{}, err
	}
	if id == "" {
		return domain.OrderView{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return domain.OrderView{}, err
	}
	if !isAllowedTransition(existing.Status, status) {
		return domain.OrderView{}, store.ErrInvalidInput
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, id, status, time.Now().UTC())
	if err != nil {
		return domain.OrderView{}, err
	}

	names, err := s.customerNames(ctx)
	if err != nil {
		return domain.OrderView{}, err
	}
	return domain.OrderView{
		Order:        *updated,
		CustomerName: resolveCustomerName(names, updated.CustomerID),
	}, nil
}

func isAllowedTransition(from string, to string) bool {
	switch from {
	case domain.OrderStatusPending:
		return to == domain.OrderStatusCompleted || to == domain.OrderStatusCancelled
	case domain.OrderStatusCompleted:
		return to == domain.OrderStatusCancelled
	default:
		return false
	}
}

func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	if err := requireRole(ctx, "admin"); err != nil {
		return err
	}
	if id == "" {
		return store.ErrInvalidInput
	}
	return s.repo.DeleteOrder(ctx, id)
}

func (s *Service) Receipt(ctx context.Context, orderID string) (domain.Receipt, error) {
	view, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Receipt{}, err
	}

	return domain.Receipt{
		OrderID:             view.Order.ID,
		CustomerName:        view.CustomerName,
		PaymentMethod:       view.Order.PaymentMethod,
		TotalCents:          view.Order.TotalCents,
		AmountReceivedCents: view.Order.AmountReceivedCents,
		ChangeCents:         view.Order.ChangeCents,
		Currency:            s.currency,
		CreatedAt:           view.Order.CreatedAt.Format(time.RFC3339),
		Items:               view.Order.Items,
	}, nil
}

// Dashboard assembles today's KPI summary, hourly revenue buckets and
// category shares. Results are cached briefly since the sales page polls.
func (s *Service) Dashboard(ctx context.Context, ref time.Time) (domain.Dashboard, error) {
	date := ref.Format("2006-01-02")
	key := "dashboard:" + date

	cached, found, err := s.dashboards.Get(ctx, key)
	if err != nil {
		log.Printf("[service] WARN: dashboard cache read failed: %v", err)
	} else if found {
		return *cached, nil
	}

	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}

	dashboard := domain.Dashboard{
		Date:       date,
		Summary:    analytics.Summarize(orders, customers, ref),
		Hourly:     analytics.HourlyBuckets(orders, ref),
		Categories: analytics.CategoryShares(orders, products),
	}

	if err := s.dashboards.Set(ctx, key, &dashboard, s.dashboardTTL); err != nil {
		log.Printf("[service] WARN: dashboard cache write failed: %v", err)
	}
	return dashboard, nil
}

func (s *Service) Buckets(ctx context.Context, granularity analytics.Granularity, ref time.Time) ([]domain.TimeBucket, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Buckets(orders, granularity, ref), nil
}

func (s *Service) CategoryShares(ctx context.Context) ([]domain.CategoryShare, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.CategoryShares(orders, products), nil
}

// Export builds the raw analytics download: the bucket series for the
// requested granularity plus every countable order that fed it.
func (s *Service) Export(ctx context.Context, granularity analytics.Granularity, ref time.Time) (domain.AnalyticsExport, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return domain.AnalyticsExport{}, err
	}

	included := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if order.Status == domain.OrderStatusCancelled {
			continue
		}
		included = append(included, order)
	}

	return domain.AnalyticsExport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Granularity: string(granularity),
		Date:        ref.Format("2006-01-02"),
		Buckets:     analytics.Buckets(orders, granularity, ref),
		Orders:      included,
	}, nil
}

func (s *Service) customerNames(ctx context.Context) (map[string]string, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}
	return names, nil
}

func resolveCustomerName(names map[string]string, customerID string) string {
	if customerID == "" {
		return domain.WalkInCustomerName
	}
	if name, ok := names[customerID]; ok {
		return name
	}
	// Deleted customer. The order keeps its dangling reference.
	return domain.WalkInCustomerName
}

func requireRole(ctx context.Context, role string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != role {
		return fmt.Errorf("%s role required", role)
	}
	return nil
}

func normalizeItems(items []domain.CartItem) []domain.CartItem {
	merged := make(map[string]int, len(items))
	orderOf := make([]string, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Qty < 1 {
			continue
		}
		if _, seen := merged[item.ProductID]; !seen {
			orderOf = append(orderOf, item.ProductID)
		}
		merged[item.ProductID] += item.Qty
	}

	normalized := make([]domain.CartItem, 0, len(orderOf))
	for _, id := range orderOf {
		normalized = append(normalized, domain.CartItem{ProductID: id, Qty: merged[id]})
	}
	return normalized
}
