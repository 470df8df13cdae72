package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/dlehman/mechanic-shop-api/models"
	"github.com/dlehman/mechanic-shop-api/services"
)

func inventoryRouter() (*gin.Engine, *services.ListingCache) {
	cache := services.NewListingCache(time.Minute)
	ctl := NewInventoryController(cache)

	router := gin.New()
	group := router.Group("/inventory")
	group.POST("/", ctl.Create)
	group.POST("/bulk", ctl.BulkCreate)
	group.GET("/", ctl.List)
	group.GET("/:id", ctl.Get)
	group.PUT("/:id", ctl.Update)
	group.DELETE("/:id", ctl.Delete)
	return router, cache
}

func TestCreateInventory(t *testing.T) {
	db := freshDB(t)
	router, _ := inventoryRouter()

	w := performJSON(t, router, "POST", "/inventory/", gin.H{
		"name":  "Brake Pad",
		"price": 49.99,
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var stored models.Inventory
	assert.NoError(t, db.Where("name = ?", "Brake Pad").First(&stored).Error)
	assert.Equal(t, 49.99, stored.Price)
}

func TestCreateInventoryValidation(t *testing.T) {
	freshDB(t)
	router, _ := inventoryRouter()

	tests := []struct {
		name    string
		payload gin.H
		field   string
	}{
		{name: "missing name", payload: gin.H{"price": 5.0}, field: "name"},
		{name: "missing price", payload: gin.H{"name": "Oil Filter"}, field: "price"},
		{name: "negative price", payload: gin.H{"name": "Oil Filter", "price": -0.5}, field: "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(t, router, "POST", "/inventory/", tt.payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.field)
		})
	}
}

func TestCreateInventoryZeroPriceAllowed(t *testing.T) {
	freshDB(t)
	router, _ := inventoryRouter()

	w := performJSON(t, router, "POST", "/inventory/", gin.H{"name": "Shop Towel", "price": 0.0})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateInventoryDuplicateNameIsCaseInsensitive(t *testing.T) {
	db := freshDB(t)
	seedInventory(t, db, "Brake Pad", 49.99)
	router, _ := inventoryRouter()

	w := performJSON(t, router, "POST", "/inventory/", gin.H{"name": "BRAKE PAD", "price": 10.0})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NAME_EXISTS", responseErrorCode(t, w))
}

func TestBulkCreateInventory(t *testing.T) {
	db := freshDB(t)
	router, _ := inventoryRouter()

	w := performJSON(t, router, "POST", "/inventory/bulk", []gin.H{
		{"name": "Brake Pad", "price": 49.99},
		{"name": "Oil Filter", "price": 12.50},
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var count int64
	db.Model(&models.Inventory{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestBulkCreateInventoryIsAtomic(t *testing.T) {
	db := freshDB(t)
	seedInventory(t, db, "Oil Filter", 12.50)
	router, _ := inventoryRouter()

	w := performJSON(t, router, "POST", "/inventory/bulk", []gin.H{
		{"name": "Brake Pad", "price": 49.99},
		{"name": "oil filter", "price": 10.0},
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "oil filter", "conflict names the duplicate item")

	// The whole batch rolls back, including the valid first item
	var count int64
	db.Model(&models.Inventory{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestBulkCreateInventoryRejectsEmptyList(t *testing.T) {
	freshDB(t)
	router, _ := inventoryRouter()

	w := performJSON(t, router, "POST", "/inventory/bulk", []gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListInventoryServesUnfilteredFromCache(t *testing.T) {
	db := freshDB(t)
	seedInventory(t, db, "Brake Pad", 49.99)
	router, cache := inventoryRouter()

	// First call populates the cache
	w := performJSON(t, router, "GET", "/inventory/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	_, ok := cache.Get(services.AllInventoryKey)
	assert.True(t, ok, "unfiltered listing should be cached")

	// A row inserted behind the cache's back is not visible yet
	seedInventory(t, db, "Oil Filter", 12.50)
	w = performJSON(t, router, "GET", "/inventory/", nil)
	assert.NotContains(t, w.Body.String(), "Oil Filter")
}

func TestListInventoryFilteredQueriesBypassCache(t *testing.T) {
	db := freshDB(t)
	seedInventory(t, db, "Brake Pad", 49.99)
	router, cache := inventoryRouter()

	w := performJSON(t, router, "GET", "/inventory/?min_price=10", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	_, ok := cache.Get(services.AllInventoryKey)
	assert.False(t, ok, "filtered listings are never cached")

	// Fresh rows show up immediately on filtered queries
	seedInventory(t, db, "Oil Filter", 12.50)
	w = performJSON(t, router, "GET", "/inventory/?min_price=10", nil)
	assert.Contains(t, w.Body.String(), "Oil Filter")
}

func TestInventoryMutationsInvalidateCache(t *testing.T) {
	db := freshDB(t)
	item := seedInventory(t, db, "Brake Pad", 49.99)
	router, cache := inventoryRouter()

	prime := func() {
		performJSON(t, router, "GET", "/inventory/", nil)
		_, ok := cache.Get(services.AllInventoryKey)
		assert.True(t, ok)
	}

	t.Run("create invalidates", func(t *testing.T) {
		prime()
		performJSON(t, router, "POST", "/inventory/", gin.H{"name": "Spark Plug", "price": 3.99})
		_, ok := cache.Get(services.AllInventoryKey)
		assert.False(t, ok)
	})

	t.Run("update invalidates", func(t *testing.T) {
		prime()
		performJSON(t, router, "PUT", "/inventory/1", gin.H{"price": 59.99})
		_, ok := cache.Get(services.AllInventoryKey)
		assert.False(t, ok)
	})

	t.Run("delete invalidates", func(t *testing.T) {
		prime()
		performJSON(t, router, "DELETE", "/inventory/"+itoaUint(item.ID), nil)
		_, ok := cache.Get(services.AllInventoryKey)
		assert.False(t, ok)
	})
}

func TestListInventoryPriceFilters(t *testing.T) {
	db := freshDB(t)
	seedInventory(t, db, "Shop Towel", 1.50)
	seedInventory(t, db, "Brake Pad", 49.99)
	seedInventory(t, db, "Engine Block", 2000.00)
	router, _ := inventoryRouter()

	w := performJSON(t, router, "GET", "/inventory/?min_price=10&max_price=100", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	items := decodeBody(t, w)["data"].(map[string]interface{})["items"].([]interface{})
	assert.Len(t, items, 1)
	assert.Contains(t, w.Body.String(), "Brake Pad")
}

func TestUpdateInventoryNameConflict(t *testing.T) {
	db := freshDB(t)
	seedInventory(t, db, "Brake Pad", 49.99)
	seedInventory(t, db, "Oil Filter", 12.50)
	router, _ := inventoryRouter()

	w := performJSON(t, router, "PUT", "/inventory/2", gin.H{"name": "brake pad"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NAME_EXISTS", responseErrorCode(t, w))
}

func TestDeleteInventoryClearsTicketAssociations(t *testing.T) {
	db := freshDB(t)
	customer := seedCustomer(t, db, "rosa@example.com", "password123")
	part := seedInventory(t, db, "Brake Pad", 49.99)
	ticket := seedTicket(t, db, customer.ID, "Brake job")
	assert.NoError(t, db.Model(&ticket).Association("Parts").Append(&part))

	router, _ := inventoryRouter()
	w := performJSON(t, router, "DELETE", "/inventory/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var reloaded models.ServiceTicket
	assert.NoError(t, db.Preload("Parts").First(&reloaded, ticket.ID).Error)
	assert.Empty(t, reloaded.Parts)
}
