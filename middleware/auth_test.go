package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"restaurant-pos-api/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func tokenFor(t *testing.T, role models.UserRole, restaurantID *uint) string {
	t.Helper()
	token, err := GenerateToken(&models.User{
		ID: 7, Email: "staff@example.com", Role: role, RestaurantID: restaurantID,
	})
	require.NoError(t, err)
	return token
}

func doRequest(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredRejectsMissingOrBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/ping", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/ping", "not-a-token").Code)
}

func TestAuthRequiredInjectsClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":       GetUserID(c),
			"role":          GetRole(c),
			"restaurant_id": GetRestaurantID(c),
		})
	})

	w := doRequest(r, "/whoami", tokenFor(t, models.RoleWaiter, uintPtr(3)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"waiter","restaurant_id":3}`, w.Body.String())
}

func TestRestaurantScopedEnforcesHomeRestaurant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/restaurants/:id/orders", AuthRequired(), RestaurantScoped(),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	scoped := tokenFor(t, models.RoleKitchen, uintPtr(1))
	assert.Equal(t, http.StatusOK, doRequest(r, "/restaurants/1/orders", scoped).Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/restaurants/2/orders", scoped).Code)

	// accounts without a home restaurant see the whole network
	networkWide := tokenFor(t, models.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, doRequest(r, "/restaurants/2/orders", networkWide).Code)
}

func TestRoleRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/managers-only", AuthRequired(), RoleRequired(models.RoleManager),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusForbidden,
		doRequest(r, "/managers-only", tokenFor(t, models.RoleWaiter, uintPtr(1))).Code)
	assert.Equal(t, http.StatusOK,
		doRequest(r, "/managers-only", tokenFor(t, models.RoleManager, uintPtr(1))).Code)
}
