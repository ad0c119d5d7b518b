package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/sitetrack/procurement-api/internal/config"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/evidence"
	"github.com/sitetrack/procurement-api/internal/http/handler"
	"github.com/sitetrack/procurement-api/internal/http/middleware"
	"github.com/sitetrack/procurement-api/internal/http/router"
	"github.com/sitetrack/procurement-api/internal/i18n"
	"github.com/sitetrack/procurement-api/internal/keylock"
	"github.com/sitetrack/procurement-api/internal/repository"
	"github.com/sitetrack/procurement-api/internal/service"
	"github.com/sitetrack/procurement-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testAPIKey = "router-test-api-key"

type testServer struct {
	handler http.Handler
	db      *gorm.DB
	store   *testutil.MemoryStorage
	tokens  *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	store := testutil.NewMemoryStorage()
	publisher := &testutil.RecordingPublisher{}
	locker := keylock.NewMemoryLocker()
	uploader := evidence.NewUploader(store, 5*time.Second, logger)

	translator, err := i18n.New("tr")
	require.NoError(t, err)

	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	stockRepo := repository.NewStockRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	anomalyRepo := repository.NewAnomalyRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)

	warehouses := service.NewWarehouseService(warehouseRepo, locker, logger)
	stock := service.NewStockService(db, warehouseRepo, stockRepo, movementRepo, anomalyRepo, uploader, locker, publisher, logger)

	errs := handler.NewErrorWriter(translator, logger)
	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(),
		Order:     handler.NewOrderHandler(service.NewOrderService(db, orderRepo, deliveryRepo, locker, publisher, logger), errs, logger),
		Delivery:  handler.NewDeliveryHandler(service.NewDeliveryService(db, orderRepo, deliveryRepo, uploader, locker, publisher, logger), 5, errs, logger),
		Warehouse: handler.NewWarehouseHandler(warehouses, errs, logger),
		Stock:     handler.NewStockHandler(stock, 5, errs, logger),
		Inventory: handler.NewInventoryHandler(service.NewInventoryService(db, inventoryRepo, warehouses, stock, locker, publisher, logger), errs, logger),
		Report:    handler.NewReportHandler(service.NewReportService(warehouseRepo, stockRepo, movementRepo, anomalyRepo, inventoryRepo, logger), errs, logger),
		Evidence:  handler.NewEvidenceHandler(store, errs, logger),
	}

	cfg := &config.Config{
		App:       config.AppConfig{Environment: "test"},
		RateLimit: config.RateLimitConfig{Enabled: false},
		Security:  config.SecurityConfig{ContentTypeNosniff: true},
	}
	tokens := auth.NewTokenManager("router-test-secret-router-test-secret", "procurement-api", time.Hour)
	rt := router.NewRouter(
		cfg,
		logger,
		db,
		auth.NewMiddleware(tokens, testAPIKey, logger),
		middleware.NewRateLimiter(&cfg.RateLimit, logger),
		handlers,
		nil,
	)

	return &testServer{handler: rt.Setup(), db: db, store: store, tokens: tokens}
}

func (s *testServer) token(t *testing.T, user *auth.UserContext) string {
	t.Helper()
	token, err := s.tokens.Generate(user)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, req *http.Request, user *auth.UserContext) *httptest.ResponseRecorder {
	t.Helper()
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(t, user))
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func newUser(roles ...auth.Role) *auth.UserContext {
	return &auth.UserContext{UserID: uuid.New(), DisplayName: "Mehmet Kaya", Email: "mehmet@sitetrack.local", Roles: roles}
}

func deliveryRequest(t *testing.T, orderID uuid.UUID, quantity string, photos ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("quantity", quantity))
	require.NoError(t, mw.WriteField("qualityCheck", "true"))
	for _, name := range photos {
		part, err := mw.CreateFormFile("photos", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("jpeg bytes of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/deliveries", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept-Language", "en")
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) domain.APIError {
	t.Helper()
	var apiErr domain.APIError
	require.NoError(t, json.NewDecoder(w.Body).Decode(&apiErr))
	return apiErr
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/health/db", nil), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("x-api-key", testAPIKey)
	w = s.do(t, req, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestAuthMe(t *testing.T) {
	s := newTestServer(t)
	user := newUser(auth.RoleSiteManager)

	w := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), user)
	require.Equal(t, http.StatusOK, w.Code)

	var me domain.AuthUserDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&me))
	assert.Equal(t, user.UserID.String(), me.ID)
	assert.Equal(t, "MK", me.Initials)
	assert.Equal(t, []string{"site_manager"}, me.Roles)
}

func TestSubmitDelivery(t *testing.T) {
	s := newTestServer(t)
	order := testutil.CreateOrder(t, s.db, "10", domain.OrderStatusApproved)
	keeper := newUser(auth.RoleWarehouseKeeper)

	w := s.do(t, deliveryRequest(t, order.ID, "4", "truck.jpg"), keeper)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result domain.DeliveryResultDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, domain.OrderStatusPartiallyDelivered, result.OrderStatus)
	assert.True(t, result.State.Remaining.Equal(testutil.Dec("6")))
	assert.Len(t, result.Delivery.DeliveryPhotoURLs, 1)

	t.Run("exceeds remaining", func(t *testing.T) {
		w := s.do(t, deliveryRequest(t, order.ID, "7", "second.jpg"), keeper)
		require.Equal(t, http.StatusConflict, w.Code)
		apiErr := decodeError(t, w)
		assert.Equal(t, domain.CodeExceedsRemaining, apiErr.Code)
		require.NotNil(t, apiErr.Remaining)
		assert.Equal(t, "6", *apiErr.Remaining)
		assert.Equal(t, "Quantity exceeds the remaining quantity of 6", apiErr.Detail)
	})

	t.Run("missing evidence", func(t *testing.T) {
		w := s.do(t, deliveryRequest(t, order.ID, "1"), keeper)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, domain.CodeMissingEvidence, decodeError(t, w).Code)
	})

	t.Run("malformed quantity", func(t *testing.T) {
		w := s.do(t, deliveryRequest(t, order.ID, "four", "truck.jpg"), keeper)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, domain.CodeInvalidQuantity, decodeError(t, w).Code)
	})

	t.Run("workers cannot receive deliveries", func(t *testing.T) {
		w := s.do(t, deliveryRequest(t, order.ID, "1", "truck.jpg"), newUser(auth.RoleWorker))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("delivery state", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+order.ID.String()+"/delivery-state", nil)
		w := s.do(t, req, newUser(auth.RoleWorker))
		require.Equal(t, http.StatusOK, w.Code)
		var state domain.DeliveryStateDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
		assert.True(t, state.TotalDelivered.Equal(testutil.Dec("4")))
		assert.Equal(t, 1, state.DeliveryCount)
	})

	t.Run("evidence download", func(t *testing.T) {
		paths := s.store.Paths()
		require.Len(t, paths, 1)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/evidence/"+paths[0], nil)
		w := s.do(t, req, keeper)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
		body, err := io.ReadAll(w.Body)
		require.NoError(t, err)
		assert.Equal(t, "jpeg bytes of truck.jpg", string(body))

		req = httptest.NewRequest(http.MethodGet, "/api/v1/evidence/deliveries/missing.jpg", nil)
		assert.Equal(t, http.StatusNotFound, s.do(t, req, keeper).Code)
	})
}

func TestSubmitDelivery_UnknownOrder(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, deliveryRequest(t, uuid.New(), "1", "truck.jpg"), newUser(auth.RoleProcurement))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.CodeNotFound, decodeError(t, w).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid/delivery-state", nil)
	assert.Equal(t, http.StatusBadRequest, s.do(t, req, newUser(auth.RoleProcurement)).Code)
}

func TestInventory_WorkerScope(t *testing.T) {
	s := newTestServer(t)
	worker := newUser(auth.RoleWorker)
	other := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+other.String()+"/inventory", nil)
	w := s.do(t, req, worker)
	require.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/"+worker.UserID.String()+"/inventory", nil)
	w = s.do(t, req, worker)
	require.Equal(t, http.StatusOK, w.Code)

	var page domain.PaginatedResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&page))
	assert.Equal(t, int64(0), page.Total)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/"+other.String()+"/inventory", nil)
	assert.Equal(t, http.StatusOK, s.do(t, req, newUser(auth.RoleSiteManager)).Code)
}

func TestStockMovement_RejectsTransferType(t *testing.T) {
	s := newTestServer(t)
	central := testutil.CreateWarehouse(t, s.db, "CENTRAL", domain.WarehouseTypeCentral, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("productId", uuid.New().String()))
	require.NoError(t, mw.WriteField("warehouseId", central.ID.String()))
	require.NoError(t, mw.WriteField("quantity", "5"))
	require.NoError(t, mw.WriteField("movementType", "transfer"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/movements", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := s.do(t, req, newUser(auth.RoleWarehouseKeeper))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReports_RequireReceivingRole(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/stock/export", nil)
	assert.Equal(t, http.StatusForbidden, s.do(t, req, newUser(auth.RoleWorker)).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports/stock/export", nil)
	w := s.do(t, req, newUser(auth.RoleWarehouseKeeper))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotZero(t, w.Body.Len())
}
