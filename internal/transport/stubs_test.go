package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-delivery/internal/domain"
	"food-delivery/internal/middleware"
	"food-delivery/internal/service"
	"food-delivery/internal/timeutil"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// Stubs embed the service interface so that only the methods a test
// exercises need an implementation.

type stubUserService struct {
	service.UserService
	registered  []service.RegisterCustomerInput
	result      *service.AuthResult
	deactivated []int64
	err         error
}

func (s *stubUserService) RegisterCustomer(ctx context.Context, input service.RegisterCustomerInput) (*service.AuthResult, error) {
	s.registered = append(s.registered, input)
	if s.err != nil {
		return nil, s.err
	}
	return &service.AuthResult{
		AccessToken:  "access-" + input.Email,
		RefreshToken: "refresh-" + input.Email,
		ExpiresIn:    900,
		User:         &domain.User{ID: int64(len(s.registered)), Email: input.Email, Role: domain.RoleCustomer, Active: true},
	}, nil
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubUserService) Me(ctx context.Context, identity domain.Identity) (*service.Account, error) {
	return &service.Account{User: &domain.User{ID: identity.UserID, Email: identity.Email, Role: identity.Role}}, nil
}

func (s *stubUserService) Deactivate(ctx context.Context, identity domain.Identity) error {
	if s.err != nil {
		return s.err
	}
	s.deactivated = append(s.deactivated, identity.UserID)
	return nil
}

type stubOrderService struct {
	service.OrderService
	created  []service.CreateOrderInput
	statuses []domain.OrderStatus
	listed   *domain.OrderStatus
	err      error
}

func (s *stubOrderService) CreateOrder(ctx context.Context, identity domain.Identity, input service.CreateOrderInput) (*domain.Order, error) {
	s.created = append(s.created, input)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Order{ID: 1, MerchantID: input.MerchantID, Status: domain.OrderStatusPending, PaymentMethod: input.PaymentMethod}, nil
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, identity domain.Identity, orderID int64, status domain.OrderStatus) (*domain.Order, error) {
	s.statuses = append(s.statuses, status)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Order{ID: orderID, Status: status}, nil
}

func (s *stubOrderService) CancelOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Order{ID: orderID, Status: domain.OrderStatusCanceled}, nil
}

func (s *stubOrderService) ListCustomerOrders(ctx context.Context, identity domain.Identity, status *domain.OrderStatus, page service.PageRequest) (domain.Page[*domain.Order], error) {
	s.listed = status
	return domain.NewPage[*domain.Order](nil, page.Page, page.Size, 0), nil
}

type stubFeedbackService struct {
	service.FeedbackService
}

type stubProductService struct {
	service.ProductService
	opts        service.ProductListOptions
	page        service.PageRequest
	deactivated []int64
	err         error
}

func (s *stubProductService) ListMerchantProducts(ctx context.Context, identity domain.Identity, opts service.ProductListOptions, page service.PageRequest) (domain.Page[*domain.Product], error) {
	s.opts = opts
	s.page = page
	return domain.NewPage[*domain.Product](nil, page.Page, page.Size, 0), nil
}

func (s *stubProductService) CreateProduct(ctx context.Context, identity domain.Identity, input service.ProductInput) (*domain.Product, error) {
	return &domain.Product{ID: 9, Name: input.Name, Price: input.Price, Stock: input.Stock, Active: true}, nil
}

func (s *stubProductService) DeactivateProduct(ctx context.Context, identity domain.Identity, productID int64) error {
	if s.err != nil {
		return s.err
	}
	s.deactivated = append(s.deactivated, productID)
	return nil
}

type stubReportService struct {
	service.ReportService
	month, year int
	period      timeutil.Range
}

func (s *stubReportService) MonthlyReport(ctx context.Context, identity domain.Identity, month, year int) (*domain.SalesReport, error) {
	s.month, s.year = month, year
	return &domain.SalesReport{MerchantID: 1}, nil
}

func (s *stubReportService) PeriodReport(ctx context.Context, identity domain.Identity, period timeutil.Range) (*domain.SalesReport, error) {
	s.period = period
	return &domain.SalesReport{MerchantID: 1, PeriodStart: period.Start, PeriodEnd: period.End}, nil
}

type stubCatalogService struct {
	service.CatalogService
	categoryID *int64
	page       service.PageRequest
	term       string
}

func (s *stubCatalogService) ListMerchants(ctx context.Context, categoryID *int64, page service.PageRequest) (domain.Page[*domain.Merchant], error) {
	s.categoryID = categoryID
	s.page = page
	return domain.NewPage[*domain.Merchant](nil, page.Page, page.Size, 0), nil
}

func (s *stubCatalogService) SearchProducts(ctx context.Context, term string, page service.PageRequest) (domain.Page[*domain.Product], error) {
	s.term = term
	s.page = page
	return domain.NewPage[*domain.Product](nil, page.Page, page.Size, 0), nil
}

type stubMerchantService struct {
	service.MerchantService
	err error
}

func (s *stubMerchantService) GetProfile(ctx context.Context, identity domain.Identity) (*domain.Merchant, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Merchant{ID: 4, UserID: identity.UserID, TradeName: "Cantina da Praça", Active: true}, nil
}

type stubAdminService struct {
	service.AdminService
	page service.PageRequest
	err  error
}

func (s *stubAdminService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return []*domain.Category{
		{ID: 1, Name: "Arquivada", Slug: "arquivada", Active: false},
		{ID: 2, Name: "Pizza", Slug: "pizza", Active: true},
	}, nil
}

func (s *stubAdminService) ListMerchants(ctx context.Context, page service.PageRequest) (domain.Page[*domain.Merchant], error) {
	s.page = page
	merchants := []*domain.Merchant{{ID: 7, TradeName: "Fechada", Active: false}}
	return domain.NewPage(merchants, page.Page, page.Size, 1), nil
}

func (s *stubAdminService) CreateCategory(ctx context.Context, input service.CategoryInput) (*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Category{ID: 3, Name: input.Name, Slug: service.Slugify(input.Name), Active: true}, nil
}

var (
	customerIdentity = domain.Identity{UserID: 10, Email: "ana@example.com", Role: domain.RoleCustomer}
	merchantIdentity = domain.Identity{UserID: 20, Email: "loja@example.com", Role: domain.RoleMerchant}
	adminIdentity    = domain.Identity{UserID: 1, Email: "admin@example.com", Role: domain.RoleAdmin}
)

// authenticateAs stands in for AuthMiddleware with a fixed caller.
func authenticateAs(id domain.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), id)))
		})
	}
}

func newRouter(register func(chi.Router)) chi.Router {
	r := chi.NewRouter()
	register(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func fixedClock(ts string) func() time.Time {
	return func() time.Time {
		t, _ := time.Parse(time.RFC3339, ts)
		return t
	}
}
