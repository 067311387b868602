package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"food-delivery/internal/domain"
	"food-delivery/internal/repository"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the database shared by all mock
// repositories. mockTxRunner restores a snapshot when fn fails.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	users      map[int64]domain.User
	tokens     map[string]domain.RefreshToken
	customers  map[int64]domain.Customer
	merchants  map[int64]domain.Merchant
	categories map[int64]domain.Category
	products   map[int64]domain.Product
	orders     map[int64]domain.Order
	feedbacks  map[int64]domain.Feedback
	clock      time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[int64]domain.User{},
		tokens:     map[string]domain.RefreshToken{},
		customers:  map[int64]domain.Customer{},
		merchants:  map[int64]domain.Merchant{},
		categories: map[int64]domain.Category{},
		products:   map[int64]domain.Product{},
		orders:     map[int64]domain.Order{},
		feedbacks:  map[int64]domain.Feedback{},
		clock:      time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() *memStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := make(map[int64]domain.Product, len(s.products))
	for id, p := range s.products {
		p.Stock = copyInt(p.Stock)
		products[id] = p
	}
	return &memStore{
		nextID:     s.nextID,
		users:      cloneMap(s.users),
		tokens:     cloneMap(s.tokens),
		customers:  cloneMap(s.customers),
		merchants:  cloneMap(s.merchants),
		categories: cloneMap(s.categories),
		products:   products,
		orders:     cloneMap(s.orders),
		feedbacks:  cloneMap(s.feedbacks),
		clock:      s.clock,
	}
}

func (s *memStore) restore(from *memStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = from.nextID
	s.users, s.tokens = from.users, from.tokens
	s.customers, s.merchants = from.customers, from.merchants
	s.categories, s.products = from.categories, from.products
	s.orders, s.feedbacks = from.orders, from.feedbacks
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func paginate[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type mockTxRunner struct {
	store *memStore
	calls int
}

func (m *mockTxRunner) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	m.calls++
	saved := m.store.snapshot()
	if err := fn(nil); err != nil {
		m.store.restore(saved)
		return err
	}
	return nil
}

// Users

type mockUserRepository struct{ s *memStore }

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.users {
		if existing.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	user.ID = m.s.id()
	user.CreatedAt = m.s.now()
	user.UpdatedAt = user.CreatedAt
	m.s.users[user.ID] = *user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, user := range m.s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	user, ok := m.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

func (m *mockUserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	user, ok := m.s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Active = active
	user.UpdatedAt = m.s.now()
	m.s.users[id] = user
	return nil
}

func (m *mockUserRepository) WithTx(tx *sql.Tx) repository.UserRepository { return m }

// Refresh tokens

type mockRefreshTokenRepository struct{ s *memStore }

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	token.ID = m.s.id()
	token.CreatedAt = m.s.now()
	m.s.tokens[token.Token] = *token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	refreshToken, exists := m.s.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return &refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	refreshToken, exists := m.s.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	m.s.tokens[token] = refreshToken
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for key, token := range m.s.tokens {
		if token.UserID == userID {
			token.Revoked = true
			m.s.tokens[key] = token
		}
	}
	return nil
}

func (m *mockRefreshTokenRepository) WithTx(tx *sql.Tx) repository.RefreshTokenRepository { return m }

// Customers

type mockCustomerRepository struct{ s *memStore }

func (m *mockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.customers {
		if existing.TaxID == customer.TaxID {
			return repository.ErrCustomerAlreadyExists
		}
	}
	customer.ID = m.s.id()
	customer.CreatedAt = m.s.now()
	customer.UpdatedAt = customer.CreatedAt
	m.s.customers[customer.ID] = *customer
	return nil
}

func (m *mockCustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.customers[customer.ID]; !ok {
		return repository.ErrCustomerNotFound
	}
	customer.UpdatedAt = m.s.now()
	m.s.customers[customer.ID] = *customer
	return nil
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	customer, ok := m.s.customers[id]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	return &customer, nil
}

func (m *mockCustomerRepository) FindByUserID(ctx context.Context, userID int64) (*domain.Customer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, customer := range m.s.customers {
		if customer.UserID == userID {
			c := customer
			return &c, nil
		}
	}
	return nil, repository.ErrCustomerNotFound
}

func (m *mockCustomerRepository) WithTx(tx *sql.Tx) repository.CustomerRepository { return m }

// Merchants

type mockMerchantRepository struct{ s *memStore }

func (m *mockMerchantRepository) Create(ctx context.Context, merchant *domain.Merchant) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.merchants {
		if existing.TaxID == merchant.TaxID {
			return repository.ErrMerchantAlreadyExists
		}
	}
	merchant.ID = m.s.id()
	merchant.CreatedAt = m.s.now()
	merchant.UpdatedAt = merchant.CreatedAt
	m.s.merchants[merchant.ID] = *merchant
	return nil
}

func (m *mockMerchantRepository) FindByID(ctx context.Context, id int64) (*domain.Merchant, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	merchant, ok := m.s.merchants[id]
	if !ok {
		return nil, repository.ErrMerchantNotFound
	}
	return &merchant, nil
}

func (m *mockMerchantRepository) FindByUserID(ctx context.Context, userID int64) (*domain.Merchant, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, merchant := range m.s.merchants {
		if merchant.UserID == userID {
			c := merchant
			return &c, nil
		}
	}
	return nil, repository.ErrMerchantNotFound
}

func (m *mockMerchantRepository) ListActive(ctx context.Context, categoryID *int64, page, pageSize int) ([]*domain.Merchant, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Merchant
	for _, merchant := range m.s.merchants {
		if !merchant.Active {
			continue
		}
		if categoryID != nil && (merchant.CategoryID == nil || *merchant.CategoryID != *categoryID) {
			continue
		}
		c := merchant
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TradeName < out[j].TradeName })
	return paginate(out, page, pageSize), len(out), nil
}

func (m *mockMerchantRepository) ListAll(ctx context.Context, page, pageSize int) ([]*domain.Merchant, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Merchant
	for _, merchant := range m.s.merchants {
		c := merchant
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TradeName < out[j].TradeName })
	return paginate(out, page, pageSize), len(out), nil
}

func (m *mockMerchantRepository) WithTx(tx *sql.Tx) repository.MerchantRepository { return m }

// Categories

type mockCategoryRepository struct{ s *memStore }

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.categories {
		if existing.Name == category.Name || existing.Slug == category.Slug {
			return repository.ErrCategoryAlreadyExists
		}
	}
	category.ID = m.s.id()
	category.CreatedAt = m.s.now()
	m.s.categories[category.ID] = *category
	return nil
}

func (m *mockCategoryRepository) ListActive(ctx context.Context) ([]*domain.Category, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Category
	for _, category := range m.s.categories {
		if category.Active {
			c := category
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockCategoryRepository) ListAll(ctx context.Context) ([]*domain.Category, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []*domain.Category{}
	for _, category := range m.s.categories {
		c := category
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	category, ok := m.s.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return &category, nil
}

func (m *mockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, category := range m.s.categories {
		if category.Slug == slug {
			c := category
			return &c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

// Products

type mockProductRepository struct{ s *memStore }

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	product.ID = m.s.id()
	product.CreatedAt = m.s.now()
	product.UpdatedAt = product.CreatedAt
	stored := *product
	stored.Stock = copyInt(product.Stock)
	m.s.products[product.ID] = stored
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	product.UpdatedAt = m.s.now()
	stored := *product
	stored.Stock = copyInt(product.Stock)
	m.s.products[product.ID] = stored
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	product, ok := m.s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	product.Stock = copyInt(product.Stock)
	return &product, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter, page, pageSize int) ([]*domain.Product, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Product
	for _, product := range m.s.products {
		if filter.MerchantID != nil && product.MerchantID != *filter.MerchantID {
			continue
		}
		if filter.ActiveOnly && !product.Active {
			continue
		}
		p := product
		p.Stock = copyInt(product.Stock)
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page, pageSize), len(out), nil
}

func (m *mockProductRepository) Search(ctx context.Context, term string, page, pageSize int) ([]*domain.Product, int, error) {
	return m.List(ctx, repository.ProductFilter{ActiveOnly: true}, page, pageSize)
}

func (m *mockProductRepository) SetActive(ctx context.Context, id int64, active bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	product, ok := m.s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.Active = active
	m.s.products[id] = product
	return nil
}

func (m *mockProductRepository) SetStock(ctx context.Context, id int64, stock *int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	product, ok := m.s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.Stock = copyInt(stock)
	m.s.products[id] = product
	return nil
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, id int64, quantity int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	product, ok := m.s.products[id]
	if !ok || product.Stock == nil || *product.Stock < quantity {
		return repository.ErrInsufficientStock
	}
	remaining := *product.Stock - quantity
	product.Stock = &remaining
	m.s.products[id] = product
	return nil
}

func (m *mockProductRepository) LowStock(ctx context.Context, merchantID int64, threshold int) ([]*domain.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Product
	for _, product := range m.s.products {
		if product.MerchantID == merchantID && product.Stock != nil && *product.Stock < threshold {
			p := product
			out = append(out, &p)
		}
	}
	return out, nil
}

func (m *mockProductRepository) Stats(ctx context.Context, merchantID int64, threshold int) (domain.ProductStats, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var stats domain.ProductStats
	for _, product := range m.s.products {
		if product.MerchantID != merchantID {
			continue
		}
		stats.Total++
		if product.Active {
			stats.Active++
		}
		if product.Stock != nil && *product.Stock < threshold {
			stats.LowStock++
		}
	}
	return stats, nil
}

func (m *mockProductRepository) WithTx(tx *sql.Tx) repository.ProductRepository { return m }

// Orders

type mockOrderRepository struct{ s *memStore }

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	order.ID = m.s.id()
	order.CreatedAt = m.s.now()
	order.UpdatedAt = order.CreatedAt
	lines := make([]domain.OrderLine, len(order.Lines))
	for i := range order.Lines {
		order.Lines[i].ID = m.s.id()
		order.Lines[i].OrderID = order.ID
		lines[i] = order.Lines[i]
	}
	stored := *order
	stored.Lines = lines
	m.s.orders[order.ID] = stored
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	order, ok := m.s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return m.copyOrder(order), nil
}

func (m *mockOrderRepository) copyOrder(order domain.Order) *domain.Order {
	order.Lines = append([]domain.OrderLine(nil), order.Lines...)
	if merchant, ok := m.s.merchants[order.MerchantID]; ok {
		order.MerchantName = merchant.TradeName
	}
	return &order
}

func (m *mockOrderRepository) list(keep func(domain.Order) bool, page, pageSize int) ([]*domain.Order, int) {
	var out []*domain.Order
	for _, order := range m.s.orders {
		if keep(order) {
			out = append(out, m.copyOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, page, pageSize), len(out)
}

func (m *mockOrderRepository) ListByCustomer(ctx context.Context, customerID int64, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	orders, total := m.list(func(o domain.Order) bool {
		return o.CustomerID == customerID && (status == nil || o.Status == *status)
	}, page, pageSize)
	return orders, total, nil
}

func (m *mockOrderRepository) ListByMerchant(ctx context.Context, merchantID int64, page, pageSize int) ([]*domain.Order, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	orders, total := m.list(func(o domain.Order) bool { return o.MerchantID == merchantID }, page, pageSize)
	return orders, total, nil
}

func (m *mockOrderRepository) TransitionStatus(ctx context.Context, id int64, from domain.OrderStatus, to domain.OrderStatus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	order, ok := m.s.orders[id]
	if !ok || order.Status != from {
		return repository.ErrOrderStateChanged
	}
	order.Status = to
	order.UpdatedAt = m.s.now()
	m.s.orders[id] = order
	return nil
}

func (m *mockOrderRepository) MarkPaid(ctx context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	order, ok := m.s.orders[id]
	if !ok || order.Status != domain.OrderStatusPending || order.PaymentStatus != domain.PaymentStatusPending {
		return repository.ErrOrderStateChanged
	}
	order.Status = domain.OrderStatusConfirmed
	order.PaymentStatus = domain.PaymentStatusPaid
	order.UpdatedAt = m.s.now()
	m.s.orders[id] = order
	return nil
}

func (m *mockOrderRepository) CustomerStats(ctx context.Context, customerID int64) (domain.CustomerOrderStats, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stats := domain.CustomerOrderStats{TotalSpent: decimal.Zero}
	for _, order := range m.s.orders {
		if order.CustomerID != customerID {
			continue
		}
		stats.TotalOrders++
		if order.Status != domain.OrderStatusCanceled {
			stats.TotalSpent = stats.TotalSpent.Add(order.Total)
		}
	}
	return stats, nil
}

func (m *mockOrderRepository) MerchantTotals(ctx context.Context, merchantID int64, start, end time.Time) (repository.OrderTotals, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	totals := repository.OrderTotals{Revenue: decimal.Zero}
	for _, order := range m.s.orders {
		if order.MerchantID != merchantID || order.CreatedAt.Before(start) || !order.CreatedAt.Before(end) {
			continue
		}
		totals.Count++
		if order.Status != domain.OrderStatusCanceled {
			totals.Revenue = totals.Revenue.Add(order.Total)
		}
	}
	return totals, nil
}

func (m *mockOrderRepository) StatusBreakdown(ctx context.Context, merchantID int64, start, end time.Time) ([]domain.StatusTotals, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	grouped := make(map[domain.OrderStatus]*domain.StatusTotals)
	for _, order := range m.s.orders {
		if order.MerchantID != merchantID || order.CreatedAt.Before(start) || !order.CreatedAt.Before(end) {
			continue
		}
		totals, ok := grouped[order.Status]
		if !ok {
			totals = &domain.StatusTotals{Status: order.Status, Revenue: decimal.Zero}
			grouped[order.Status] = totals
		}
		totals.Count++
		if order.Status != domain.OrderStatusCanceled {
			totals.Revenue = totals.Revenue.Add(order.Total)
		}
	}
	breakdown := make([]domain.StatusTotals, 0, len(grouped))
	for _, totals := range grouped {
		breakdown = append(breakdown, *totals)
	}
	return breakdown, nil
}

func (m *mockOrderRepository) WithTx(tx *sql.Tx) repository.OrderRepository { return m }

// setOrder overwrites a stored order; tests use it to place orders in the past
// or in arbitrary states.
func (m *mockOrderRepository) setOrder(order domain.Order) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if order.ID == 0 {
		order.ID = m.s.id()
	}
	m.s.orders[order.ID] = order
}

// Feedback

type mockFeedbackRepository struct{ s *memStore }

func (m *mockFeedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.feedbacks {
		if existing.OrderID == feedback.OrderID {
			return repository.ErrFeedbackAlreadyExists
		}
	}
	feedback.ID = m.s.id()
	feedback.CreatedAt = m.s.now()
	m.s.feedbacks[feedback.ID] = *feedback
	return nil
}

func (m *mockFeedbackRepository) ExistsByOrderID(ctx context.Context, orderID int64) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.feedbacks {
		if existing.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockFeedbackRepository) ListByMerchant(ctx context.Context, merchantID int64, page, pageSize int) ([]*domain.Feedback, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Feedback
	for _, feedback := range m.s.feedbacks {
		if feedback.MerchantID == merchantID {
			f := feedback
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, page, pageSize), len(out), nil
}

func (m *mockFeedbackRepository) StatsByMerchant(ctx context.Context, merchantID int64) (domain.FeedbackStats, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var stats domain.FeedbackStats
	sum := 0
	for _, feedback := range m.s.feedbacks {
		if feedback.MerchantID == merchantID {
			stats.TotalRatings++
			sum += feedback.Rating
		}
	}
	if stats.TotalRatings > 0 {
		stats.AverageRating = float64(sum) / float64(stats.TotalRatings)
	}
	return stats, nil
}

func (m *mockFeedbackRepository) WithTx(tx *sql.Tx) repository.FeedbackRepository { return m }

// Platform stats

type mockStatsRepository struct{ s *memStore }

func (m *mockStatsRepository) Platform(ctx context.Context) (domain.PlatformStats, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return domain.PlatformStats{
		Customers:  int64(len(m.s.customers)),
		Merchants:  int64(len(m.s.merchants)),
		Products:   int64(len(m.s.products)),
		Orders:     int64(len(m.s.orders)),
		Categories: int64(len(m.s.categories)),
	}, nil
}

// fixture wires every service to one memStore.
type fixture struct {
	store      *memStore
	tx         *mockTxRunner
	users      *mockUserRepository
	tokens     *mockRefreshTokenRepository
	customers  *mockCustomerRepository
	merchants  *mockMerchantRepository
	categories *mockCategoryRepository
	products   *mockProductRepository
	orders     *mockOrderRepository
	feedbacks  *mockFeedbackRepository
	stats      *mockStatsRepository
}

func newFixture() *fixture {
	store := newMemStore()
	return &fixture{
		store:      store,
		tx:         &mockTxRunner{store: store},
		users:      &mockUserRepository{s: store},
		tokens:     &mockRefreshTokenRepository{s: store},
		customers:  &mockCustomerRepository{s: store},
		merchants:  &mockMerchantRepository{s: store},
		categories: &mockCategoryRepository{s: store},
		products:   &mockProductRepository{s: store},
		orders:     &mockOrderRepository{s: store},
		feedbacks:  &mockFeedbackRepository{s: store},
		stats:      &mockStatsRepository{s: store},
	}
}

// addCustomer stores a user with a customer profile and returns its identity.
func (f *fixture) addCustomer(name string) (domain.Identity, *domain.Customer) {
	ctx := context.Background()
	user := &domain.User{Email: name + "@example.com", Role: domain.RoleCustomer, Active: true}
	_ = f.users.Create(ctx, user)
	customer := &domain.Customer{UserID: user.ID, Name: name, TaxID: "tax-" + name}
	_ = f.customers.Create(ctx, customer)
	return domain.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}, customer
}

// addMerchant stores a user with an active merchant profile.
func (f *fixture) addMerchant(name string) (domain.Identity, *domain.Merchant) {
	ctx := context.Background()
	user := &domain.User{Email: name + "@shop.com", Role: domain.RoleMerchant, Active: true}
	_ = f.users.Create(ctx, user)
	merchant := &domain.Merchant{UserID: user.ID, TradeName: name, TaxID: "cnpj-" + name, Active: true}
	_ = f.merchants.Create(ctx, merchant)
	return domain.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}, merchant
}

func (f *fixture) addProduct(merchantID int64, name, price string, stock *int) *domain.Product {
	product := &domain.Product{
		MerchantID: merchantID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Active:     true,
		Stock:      stock,
	}
	_ = f.products.Create(context.Background(), product)
	return product
}

func (f *fixture) stockOf(t interface{ Fatalf(string, ...any) }, productID int64) *int {
	product, err := f.products.FindByID(context.Background(), productID)
	if err != nil {
		t.Fatalf("product %d: %v", productID, err)
	}
	return product.Stock
}

func intPtr(v int) *int { return &v }
