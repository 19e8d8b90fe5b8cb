// internal/router/router_test.go
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/ledrent/ledrent-backend/internal/config"
	"github.com/ledrent/ledrent-backend/internal/i18n"
	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository/memory"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

type APITestSuite struct {
	suite.Suite
	store    *memory.Store
	router   *Router
	customer *models.User
	other    *models.User
	staff    *models.User
	admin    *models.User
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta struct {
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	} `json:"meta"`
}

func (suite *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("router-test-secret")
	suite.Require().NoError(i18n.Initialize())
}

func (suite *APITestSuite) SetupTest() {
	cfg := &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{Host: "localhost", Port: "8080", RateLimitRPS: 1000, RateBurst: 1000},
		Payment:     config.PaymentConfig{Currency: "ETB"},
		Rental:      config.RentalConfig{StoreTimeout: time.Second, PendingTTLHours: 48},
		CORS:        config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}

	suite.store = memory.New()
	svc := NewServices(cfg, suite.store)
	suite.router = Initialize(cfg, suite.store, nil, svc)

	suite.customer = suite.seedUser("customer@example.com", models.UserRoleCustomer)
	suite.other = suite.seedUser("other@example.com", models.UserRoleCustomer)
	suite.staff = suite.seedUser("staff@example.com", models.UserRoleStaff)
	suite.admin = suite.seedUser("admin@example.com", models.UserRoleAdmin)
}

func (suite *APITestSuite) TearDownTest() {
	suite.router.Stop()
}

func (suite *APITestSuite) seedUser(email string, role models.UserRole) *models.User {
	user := &models.User{Email: email, Name: "Test User", Role: role, Status: models.UserStatusActive}
	suite.Require().NoError(suite.store.Users().Create(context.Background(), user))
	return user
}

func (suite *APITestSuite) request(method, path string, user *models.User, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		token, err := utils.GenerateJWT(user.ID, string(user.Role), time.Hour)
		suite.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.Engine.ServeHTTP(w, req)

	var response apiResponse
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func (suite *APITestSuite) decode(raw json.RawMessage, out interface{}) {
	suite.Require().NoError(json.Unmarshal(raw, out))
}

// catalog seeds an active product with one rentable variant and n units through the admin API.
func (suite *APITestSuite) catalog(units int) (productID, variantID uuid.UUID) {
	w, resp := suite.request("POST", "/v1/admin/products", suite.staff, map[string]interface{}{
		"name":     "P3.9 Outdoor Cabinet",
		"category": "outdoor",
		"status":   "active",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var product models.Product
	suite.decode(resp.Data, &product)

	w, resp = suite.request("POST", "/v1/admin/products/"+product.ID.String()+"/variants", suite.staff, map[string]interface{}{
		"sku":                "P39-500",
		"name":               "500x500 cabinet",
		"sale_price":         "1200",
		"rent_price_per_day": "50",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var variant models.Variant
	suite.decode(resp.Data, &variant)

	for i := 0; i < units; i++ {
		w, _ = suite.request("POST", "/v1/admin/units", suite.staff, map[string]interface{}{
			"variant_id":    variant.ID,
			"serial_number": "P39-" + uuid.NewString()[:8],
		})
		suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	}
	return product.ID, variant.ID
}

func (suite *APITestSuite) TestHealth() {
	w, _ := suite.request("GET", "/health", nil, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var body map[string]string
	assert.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(suite.T(), "healthy", body["status"])
	assert.Equal(suite.T(), Version, body["version"])
}

func (suite *APITestSuite) TestAuthenticationAndRoles() {
	w, resp := suite.request("GET", "/v1/rentals", nil, nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.False(suite.T(), resp.Success)

	w, _ = suite.request("GET", "/v1/admin/products", suite.customer, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w, _ = suite.request("GET", "/v1/admin/products", suite.staff, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, _ = suite.request("GET", "/v1/admin/users", suite.staff, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w, resp = suite.request("GET", "/v1/admin/users", suite.admin, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), int64(4), resp.Meta.Pagination.Total)

	w, resp = suite.request("GET", "/v1/users/me", suite.customer, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	var me models.User
	suite.decode(resp.Data, &me)
	assert.Equal(suite.T(), suite.customer.ID, me.ID)
}

func (suite *APITestSuite) TestSuspendedUserIsLockedOut() {
	w, _ := suite.request("PUT", "/v1/admin/users/"+suite.other.ID.String()+"/status", suite.admin, map[string]string{"status": "suspended"})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, _ = suite.request("GET", "/v1/rentals", suite.other, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *APITestSuite) TestRentalLifecycle() {
	_, variantID := suite.catalog(2)

	// The customer's price override is ignored.
	w, resp := suite.request("POST", "/v1/rentals", suite.customer, map[string]interface{}{
		"start_date": "2024-07-01",
		"end_date":   "2024-07-02",
		"items": []map[string]interface{}{
			{"variant_id": variantID, "quantity": 1, "unit_rent_price_per_day": "1"},
		},
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		RentalID    uuid.UUID       `json:"rental_id"`
		TotalAmount decimal.Decimal `json:"total_amount"`
	}
	suite.decode(resp.Data, &created)
	assert.Equal(suite.T(), "100.00", created.TotalAmount.StringFixed(2))
	rentalPath := "/v1/rentals/" + created.RentalID.String()

	w, _ = suite.request("GET", rentalPath, suite.customer, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	w, _ = suite.request("GET", rentalPath, suite.other, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	statusPath := "/v1/admin/rentals/" + created.RentalID.String() + "/status"
	w, resp = suite.request("PUT", statusPath, suite.staff, map[string]string{"status": "shipped"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "INVALID_STATUS", resp.Error.Code)

	w, _ = suite.request("PUT", statusPath, suite.staff, map[string]string{"status": "confirmed"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w, resp = suite.request("POST", "/v1/admin/rentals/"+created.RentalID.String()+"/assignments", suite.staff, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var assigned models.Rental
	suite.decode(resp.Data, &assigned)
	assert.Len(suite.T(), assigned.Assignments, 1)

	w, resp = suite.request("GET", "/v1/variants/"+variantID.String()+"/availability?start=2024-07-02&end=2024-07-05", nil, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var availability models.Availability
	suite.decode(resp.Data, &availability)
	// The assigned unit leaves the available pool and is also counted as committed.
	assert.Equal(suite.T(), int64(1), availability.Total)
	assert.Equal(suite.T(), int64(1), availability.Committed)
	assert.Equal(suite.T(), int64(0), availability.Available)

	w, resp = suite.request("GET", "/v1/rentals", suite.customer, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), int64(1), resp.Meta.Pagination.Total)

	w, resp = suite.request("GET", "/v1/rentals", suite.other, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), int64(0), resp.Meta.Pagination.Total)
}

func (suite *APITestSuite) TestStaffBooksForCustomerAtNegotiatedPrice() {
	_, variantID := suite.catalog(1)

	w, resp := suite.request("POST", "/v1/rentals", suite.staff, map[string]interface{}{
		"user_id":    suite.customer.ID,
		"start_date": "2024-08-10",
		"end_date":   "2024-08-12",
		"items": []map[string]interface{}{
			{"variant_id": variantID, "quantity": 1, "unit_rent_price_per_day": "40"},
		},
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		TotalAmount decimal.Decimal `json:"total_amount"`
		Rental      models.Rental   `json:"rental"`
	}
	suite.decode(resp.Data, &created)
	assert.Equal(suite.T(), "120.00", created.TotalAmount.StringFixed(2))
	assert.Equal(suite.T(), suite.customer.ID, created.Rental.UserID)
}

func (suite *APITestSuite) TestRentalValidation() {
	_, variantID := suite.catalog(0)

	w, resp := suite.request("POST", "/v1/rentals", suite.customer, map[string]interface{}{
		"start_date": "01/07/2024",
		"end_date":   "2024-07-02",
		"items":      []map[string]interface{}{{"variant_id": variantID, "quantity": 1}},
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", resp.Error.Code)

	w, _ = suite.request("POST", "/v1/rentals", suite.customer, map[string]interface{}{
		"start_date": "2024-07-05",
		"end_date":   "2024-07-01",
		"items":      []map[string]interface{}{{"variant_id": variantID, "quantity": 1}},
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w, _ = suite.request("POST", "/v1/rentals", suite.customer, map[string]interface{}{
		"start_date": "2024-07-01",
		"end_date":   "2024-07-02",
		"items":      []map[string]interface{}{{"variant_id": uuid.New(), "quantity": 1}},
	})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w, _ = suite.request("GET", "/v1/rentals/not-a-uuid", suite.customer, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestDraftProductsNeedStaff() {
	w, resp := suite.request("POST", "/v1/admin/products", suite.staff, map[string]interface{}{
		"name":     "Prototype Curved Wall",
		"category": "indoor",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var product models.Product
	suite.decode(resp.Data, &product)

	w, _ = suite.request("GET", "/v1/products/"+product.ID.String(), nil, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w, _ = suite.request("GET", "/v1/products/"+product.ID.String(), suite.staff, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, resp = suite.request("GET", "/v1/products", nil, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), int64(0), resp.Meta.Pagination.Total)
}

func (suite *APITestSuite) TestDuplicateSerialIsConflict() {
	_, variantID := suite.catalog(0)

	body := map[string]interface{}{"variant_id": variantID, "serial_number": "LED-0001"}
	w, _ := suite.request("POST", "/v1/admin/units", suite.staff, body)
	suite.Require().Equal(http.StatusCreated, w.Code)

	w, resp := suite.request("POST", "/v1/admin/units", suite.staff, body)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	assert.Equal(suite.T(), "CONFLICT", resp.Error.Code)
}

func (suite *APITestSuite) TestCartCheckout() {
	_, variantID := suite.catalog(0)

	w, _ := suite.request("POST", "/v1/cart/items", suite.customer, map[string]interface{}{"variant_id": variantID, "quantity": 2})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w, resp := suite.request("POST", "/v1/orders/checkout", suite.customer, map[string]string{"shipping_address": "Bole, Addis Ababa"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	suite.decode(resp.Data, &order)
	assert.Equal(suite.T(), "2400.00", order.TotalAmount.StringFixed(2))

	w, resp = suite.request("GET", "/v1/orders", suite.customer, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), int64(1), resp.Meta.Pagination.Total)

	w, _ = suite.request("GET", "/v1/orders/"+order.ID.String(), suite.other, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	// No payment provider is configured in tests.
	w, resp = suite.request("POST", "/v1/payments", suite.customer, map[string]interface{}{
		"provider": "chapa", "purpose": "order", "purpose_id": order.ID,
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", resp.Error.Code)
}

func (suite *APITestSuite) TestWebhookRequiresReference() {
	w, _ := suite.request("POST", "/v1/webhooks/chapa", nil, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestMutationsAreAudited() {
	suite.catalog(0)

	assert.Eventually(suite.T(), func() bool {
		for _, entry := range suite.store.AuditEntries() {
			if entry.Action == "POST /v1/admin/products" && entry.UserID != nil && *entry.UserID == suite.staff.ID {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
