// internal/utils/utils_test.go
package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "2024-02-29", FormatDate(d))

	for _, bad := range []string{"2023-02-29", "29/02/2024", "2024-2-9", ""} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestTruncateDate(t *testing.T) {
	addis := time.FixedZone("EAT", 3*60*60)
	in := time.Date(2024, 6, 1, 23, 30, 0, 0, addis)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), TruncateDate(in))
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	SetJWTIssuer("")
	userID := uuid.New()

	token, err := GenerateJWT(userID, "staff", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "staff", claims.Role)

	expired, err := GenerateJWT(userID, "staff", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT(expired)
	assert.Error(t, err)

	SetJWTSecret("rotated")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestJWTIssuer(t *testing.T) {
	SetJWTSecret("test-secret")
	SetJWTIssuer("https://id.ledrent.example")
	defer SetJWTIssuer("")

	token, err := GenerateJWT(uuid.New(), "customer", time.Hour)
	require.NoError(t, err)
	_, err = ValidateJWT(token)
	assert.NoError(t, err)

	SetJWTIssuer("https://other.example")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

type unitForm struct {
	SerialNumber string `validate:"required,serial_number"`
	StartDate    string `validate:"required,calendar_date"`
}

func TestCustomValidators(t *testing.T) {
	assert.NoError(t, ValidateStruct(unitForm{SerialNumber: "LED-P3/0001", StartDate: "2024-06-01"}))

	err := ValidateStruct(unitForm{SerialNumber: "-bad", StartDate: "06/01/2024"})
	require.Error(t, err)
	fields := map[string]string{}
	for _, e := range GetValidationErrors(err) {
		fields[e.Field] = e.Tag
	}
	assert.Equal(t, map[string]string{"serialnumber": "serial_number", "startdate": "calendar_date"}, fields)
}

func TestGenerateReference(t *testing.T) {
	a, err := GenerateReference("lr")
	require.NoError(t, err)
	b, err := GenerateReference("lr")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^lr-\d{8}-\S+$`, a)
}

func TestPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/v1/products?page=3&limit=500&order=sideways&status=active", nil)

	params := GetPaginationParams(c)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, DefaultPageSize, params.Limit)
	assert.True(t, params.Descending())
	assert.Equal(t, "active", params.Status)
	assert.Equal(t, 40, params.Offset())

	result := CreatePaginationResult([]int{}, 41, params)
	assert.Equal(t, 3, result.TotalPages)
	assert.Zero(t, CreatePaginationResult(nil, 5, PaginationParams{}).TotalPages)
}
