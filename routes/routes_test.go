package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/notification"
	"github.com/junaidrashid-git/storefront-api/services/cart"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/junaidrashid-git/storefront-api/services/order"
	"github.com/junaidrashid-git/storefront-api/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type brokenGateway struct{}

func (brokenGateway) Send(context.Context, string, string) error {
	return errors.New("gateway down")
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	tokens *auth.TokenMaker

	customer models.User
	admin    models.User
	lamp     models.Product
}

func newTestServer(t *testing.T, notifier notification.Gateway) *testServer {
	t.Helper()
	log := zerolog.Nop()
	db := testutil.NewDB(t)

	store := catalog.NewStore(db, nil, log)
	tokens := auth.NewTokenMaker("routes-test-secret", time.Hour)
	hub := events.NewHub(log)

	r := gin.New()
	SetupRoutes(r, Services{
		DB:      db,
		Tokens:  tokens,
		Auth:    auth.NewService(db, tokens, nil, log),
		Catalog: store,
		Cart:    cart.NewService(db, store, cart.PricingPolicy{StrictPricing: true}, log),
		Orders: order.NewService(db, notifier, hub, order.Options{
			NotifyTimeout: time.Second,
		}, log),
		OrderFeed:  hub,
		UploadsDir: t.TempDir(),
		Log:        log,
	})

	return &testServer{
		router:   r,
		db:       db,
		tokens:   tokens,
		customer: testutil.SeedUser(t, db, "customer@example.com", models.RoleUser),
		admin:    testutil.SeedUser(t, db, "admin@example.com", models.RoleAdmin),
		lamp:     testutil.SeedProduct(t, db, "Lamp", "10.00", ""),
	}
}

func (s *testServer) tokenFor(t *testing.T, u models.User) string {
	t.Helper()
	token, _, err := s.tokens.Issue(u.ID, u.Role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, target, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) checkout(phone string) gin.H {
	return gin.H{
		"products":      []gin.H{{"product": s.lamp.ID, "quantity": 2}},
		"totalAmount":   20,
		"paymentMethod": "Cash on Delivery",
		"address":       "12 Canal Road",
		"phoneNumber":   phone,
	}
}

func TestCartEmptiedByLastRemovalIsGone(t *testing.T) {
	s := newTestServer(t, notification.NewLogGateway(zerolog.Nop()))
	token := s.tokenFor(t, s.customer)

	w := s.do(t, http.MethodPost, "/api/cart/add-to-cart", token, gin.H{
		"productId":       s.lamp.ID,
		"quantity":        1,
		"discountedPrice": 10,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/cart/%d", s.lamp.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"emptied":true`)

	w = s.do(t, http.MethodGet, "/api/cart", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddToCartRejectsTamperedPrice(t *testing.T) {
	s := newTestServer(t, notification.NewLogGateway(zerolog.Nop()))

	w := s.do(t, http.MethodPost, "/api/cart/add-to-cart", s.tokenFor(t, s.customer), gin.H{
		"productId":       s.lamp.ID,
		"quantity":        1,
		"discountedPrice": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderWithoutPhoneIsRejected(t *testing.T) {
	s := newTestServer(t, notification.NewLogGateway(zerolog.Nop()))

	w := s.do(t, http.MethodPost, "/api/orders", s.tokenFor(t, s.customer), s.checkout(""))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, s.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOrderNotificationFailureKeepsOrder(t *testing.T) {
	s := newTestServer(t, brokenGateway{})
	token := s.tokenFor(t, s.customer)

	w := s.do(t, http.MethodPost, "/api/orders", token, s.checkout("+923001234567"))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body struct {
		OrderCreated bool          `json:"orderCreated"`
		Order        *models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.OrderCreated)
	require.NotNil(t, body.Order)
	assert.Equal(t, models.NotificationFailed, body.Order.NotificationStatus)

	w = s.do(t, http.MethodGet, "/api/orders/my-orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, body.Order.ID, mine[0].ID)
	assert.Equal(t, models.OrderStatusPending, mine[0].Status)
}

func TestCreateOrderSucceeds(t *testing.T) {
	s := newTestServer(t, notification.NewLogGateway(zerolog.Nop()))

	w := s.do(t, http.MethodPost, "/api/orders", s.tokenFor(t, s.customer), s.checkout("+923001234567"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.OrderStatusPending, created.Status)
	assert.Equal(t, s.customer.ID, created.UserID)
}

func TestUpdateUnknownOrderIsNotFound(t *testing.T) {
	s := newTestServer(t, notification.NewLogGateway(zerolog.Nop()))

	w := s.do(t, http.MethodPut, "/api/orders/999", s.tokenFor(t, s.admin), gin.H{"status": "Shipped"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutesNeedAdminRole(t *testing.T) {
	s := newTestServer(t, notification.NewLogGateway(zerolog.Nop()))
	customer := s.tokenFor(t, s.customer)
	admin := s.tokenFor(t, s.admin)

	cases := []struct {
		method, target string
	}{
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/orders/export"},
		{http.MethodPut, "/api/orders/1"},
		{http.MethodDelete, "/api/orders/1"},
		{http.MethodGet, "/api/admin/users"},
		{http.MethodDelete, fmt.Sprintf("/api/products/%d", s.lamp.ID)},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, s.do(t, tc.method, tc.target, "", nil).Code)
			assert.Equal(t, http.StatusForbidden, s.do(t, tc.method, tc.target, customer, nil).Code)
		})
	}

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/orders", admin, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/admin/users", admin, nil).Code)
}

func TestProductsArePublic(t *testing.T) {
	s := newTestServer(t, notification.NewLogGateway(zerolog.Nop()))

	w := s.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Lamp"`)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", s.lamp.ID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterThenLogin(t *testing.T) {
	s := newTestServer(t, notification.NewLogGateway(zerolog.Nop()))
	creds := gin.H{"name": "Sana", "email": "sana@example.com", "password": "long-enough-pw"}

	w := s.do(t, http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "sana@example.com", "password": "long-enough-pw"})
	require.Equal(t, http.StatusOK, w.Code)

	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)

	w = s.do(t, http.MethodGet, "/api/users/me", session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sana@example.com")
}

func TestAdminPromotesUser(t *testing.T) {
	s := newTestServer(t, notification.NewLogGateway(zerolog.Nop()))
	admin := s.tokenFor(t, s.admin)

	w := s.do(t, http.MethodPut, "/api/admin/role", admin, gin.H{"email": s.customer.Email, "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/admin/admins", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var admins []models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &admins))
	assert.Len(t, admins, 2)

	w = s.do(t, http.MethodPut, "/api/admin/role", admin, gin.H{"email": "nobody@example.com", "role": "admin"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, "/api/admin/role", admin, gin.H{"email": s.customer.Email, "role": "owner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	s := newTestServer(t, notification.NewLogGateway(zerolog.Nop()))
	token := s.tokenFor(t, s.customer)

	w := s.do(t, http.MethodPut, "/api/users/me", token, gin.H{"name": "Ayesha", "phone": "+923001112233"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.User
	require.NoError(t, s.db.First(&stored, s.customer.ID).Error)
	assert.Equal(t, "Ayesha", stored.Name)
	assert.Equal(t, "+923001112233", stored.Phone)
}

func TestDemotedAdminLosesAccessImmediately(t *testing.T) {
	s := newTestServer(t, notification.NewLogGateway(zerolog.Nop()))
	admin := s.tokenFor(t, s.admin)

	w := s.do(t, http.MethodPut, "/api/admin/role", admin, gin.H{"email": s.customer.Email, "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	promoted, _, err := s.tokens.Issue(s.customer.ID, models.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/orders", promoted, nil).Code)

	w = s.do(t, http.MethodPut, "/api/admin/role", admin, gin.H{"email": s.customer.Email, "role": "user"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/orders", promoted, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/admin/users", promoted, nil).Code)
}

func TestSetRoleMatchesEmailCaseInsensitively(t *testing.T) {
	s := newTestServer(t, notification.NewLogGateway(zerolog.Nop()))

	w := s.do(t, http.MethodPut, "/api/admin/role", s.tokenFor(t, s.admin), gin.H{"email": "  Customer@Example.COM ", "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.User
	require.NoError(t, s.db.First(&stored, s.customer.ID).Error)
	assert.Equal(t, models.RoleAdmin, stored.Role)
}
