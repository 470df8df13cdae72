package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dlehman/mechanic-shop-api/config"
	"github.com/dlehman/mechanic-shop-api/models"
	"github.com/dlehman/mechanic-shop-api/tests/testutil"
)

func TestMain(m *testing.M) {
	os.Setenv("GO_ENV", "test")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// freshDB wires an in-memory database into the global config for the
// duration of one test
func freshDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := testutil.NewTestDB(t)
	config.SetDB(db)
	return db
}

// performJSON runs one request through the router with an optional JSON body
func performJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		assert.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a response body into a generic envelope
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// responseErrorCode digs the error code out of an error envelope
func responseErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	body := decodeBody(t, w)
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response has no error object: %s", w.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// seedCustomer inserts a customer with a real bcrypt hash for password
func seedCustomer(t *testing.T, db *gorm.DB, email, password string) models.Customer {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)

	customer := models.Customer{
		FirstName:    "Test",
		LastName:     "Customer",
		Email:        email,
		PhoneNumber:  "555-0100",
		PasswordHash: string(hash),
	}
	assert.NoError(t, db.Create(&customer).Error)
	return customer
}

// seedMechanic inserts an active mechanic
func seedMechanic(t *testing.T, db *gorm.DB, name, email string) models.Mechanic {
	t.Helper()

	mechanic := models.Mechanic{
		Name:     name,
		Email:    email,
		IsActive: true,
	}
	assert.NoError(t, db.Create(&mechanic).Error)
	return mechanic
}

// seedInventory inserts a part
func seedInventory(t *testing.T, db *gorm.DB, name string, price float64) models.Inventory {
	t.Helper()

	part := models.Inventory{Name: name, Price: price}
	assert.NoError(t, db.Create(&part).Error)
	return part
}

// itoaUint formats an id for use in a request path
func itoaUint(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// testServiceDate is a fixed date so assertions are deterministic
func testServiceDate() time.Time {
	return time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
}

// seedTicket inserts a pending ticket for a customer
func seedTicket(t *testing.T, db *gorm.DB, customerID uint, description string) models.ServiceTicket {
	t.Helper()

	ticket := models.ServiceTicket{
		CustomerID:  customerID,
		Description: description,
		ServiceDate: testServiceDate(),
		Status:      models.StatusPending,
	}
	assert.NoError(t, db.Create(&ticket).Error)
	return ticket
}
