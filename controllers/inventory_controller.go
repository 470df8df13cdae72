package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dlehman/mechanic-shop-api/config"
	"github.com/dlehman/mechanic-shop-api/models"
	"github.com/dlehman/mechanic-shop-api/services"
	"github.com/dlehman/mechanic-shop-api/utils"
)

// InventoryController handles inventory CRUD with a cached listing
type InventoryController struct {
	cache *services.ListingCache
}

// NewInventoryController creates an inventory controller
func NewInventoryController(cache *services.ListingCache) *InventoryController {
	return &InventoryController{cache: cache}
}

// CreateInventoryRequest represents the request body for creating a part
type CreateInventoryRequest struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
}

func (r *CreateInventoryRequest) validate() utils.Violations {
	v := utils.Violations{}
	v.Required("name", r.Name)
	v.MaxLen("name", r.Name, 200)
	if r.Price == nil {
		v["price"] = "is required"
	} else {
		v.NonNegative("price", *r.Price)
	}
	return v
}

// UpdateInventoryRequest represents a partial inventory update
type UpdateInventoryRequest struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
}

// Create handles POST /inventory/ - creates a new part
func (ctl *InventoryController) Create(c *gin.Context) {
	var req CreateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	if violations := req.validate(); !violations.Empty() {
		validationJSON(c, http.StatusBadRequest, violations)
		return
	}

	db := config.GetDB()

	// Name uniqueness is case-insensitive
	var count int64
	db.Model(&models.Inventory{}).Where("LOWER(name) = LOWER(?)", req.Name).Count(&count)
	if count > 0 {
		errorJSON(c, http.StatusConflict, "NAME_EXISTS", "Inventory item with this name already exists")
		return
	}

	item := models.Inventory{
		Name:  req.Name,
		Price: *req.Price,
	}

	if err := db.Create(&item).Error; err != nil {
		if isDuplicateKeyErr(err) {
			errorJSON(c, http.StatusConflict, "NAME_EXISTS", "Inventory item with this name already exists")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create inventory item")
		return
	}

	ctl.cache.Invalidate(services.AllInventoryKey)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    item,
	})
}

// BulkCreate handles POST /inventory/bulk - creates multiple parts in one
// atomic call. Any duplicate name rejects the whole batch.
func (ctl *InventoryController) BulkCreate(c *gin.Context) {
	var reqs []CreateInventoryRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input must be a list of inventory items")
		return
	}
	if len(reqs) == 0 {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input must be a non-empty list of inventory items")
		return
	}

	for i := range reqs {
		if violations := reqs[i].validate(); !violations.Empty() {
			validationJSON(c, http.StatusBadRequest, violations)
			return
		}
	}

	db := config.GetDB()
	items := make([]models.Inventory, 0, len(reqs))

	err := db.Transaction(func(tx *gorm.DB) error {
		for i := range reqs {
			var count int64
			tx.Model(&models.Inventory{}).Where("LOWER(name) = LOWER(?)", reqs[i].Name).Count(&count)
			if count > 0 {
				return &conflictError{name: reqs[i].Name}
			}
			item := models.Inventory{Name: reqs[i].Name, Price: *reqs[i].Price}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		if conflict, ok := err.(*conflictError); ok {
			errorJSON(c, http.StatusConflict, "NAME_EXISTS",
				"Inventory item with name '"+conflict.name+"' already exists")
			return
		}
		if isDuplicateKeyErr(err) {
			errorJSON(c, http.StatusConflict, "NAME_EXISTS", "Inventory item with this name already exists")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create inventory items")
		return
	}

	ctl.cache.Invalidate(services.AllInventoryKey)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    items,
	})
}

type conflictError struct {
	name string
}

func (e *conflictError) Error() string {
	return "inventory item with name '" + e.name + "' already exists"
}

// List handles GET /inventory/ - paginated, filterable part listing. The
// unfiltered default listing is served from cache; invalidation is coarse
// (the whole key) on any inventory mutation.
func (ctl *InventoryController) List(c *gin.Context) {
	cacheable := c.Request.URL.RawQuery == ""
	if cacheable {
		if cached, ok := ctl.cache.Get(services.AllInventoryKey); ok {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	db := config.GetDB()
	query := db.Model(&models.Inventory{})

	if name := c.Query("name"); name != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+name+"%")
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		price, err := strconv.ParseFloat(minPrice, 64)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "min_price must be a number")
			return
		}
		query = query.Where("price >= ?", price)
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		price, err := strconv.ParseFloat(maxPrice, 64)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "max_price must be a number")
			return
		}
		query = query.Where("price <= ?", price)
	}

	sortField, sortOrder, ok := utils.ParseSort(c, []string{"id", "name", "price"}, "id")
	if !ok {
		errorJSON(c, http.StatusBadRequest, "INVALID_SORT_FIELD", "Unknown sort field")
		return
	}

	page := utils.ParsePageRequest(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count inventory items")
		return
	}

	var items []models.Inventory
	if err := query.Order(sortField + " " + sortOrder).
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&items).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list inventory items")
		return
	}

	response := gin.H{
		"success": true,
		"data": gin.H{
			"items":      items,
			"pagination": utils.BuildPageMeta(page, total),
		},
	}

	if cacheable {
		ctl.cache.Set(services.AllInventoryKey, response)
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /inventory/:id - fetches one part
func (ctl *InventoryController) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Inventory id must be a positive integer")
		return
	}

	db := config.GetDB()
	var item models.Inventory
	if err := db.First(&item, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "INVENTORY_NOT_FOUND", "Inventory item not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// Update handles PUT /inventory/:id - partial part update
func (ctl *InventoryController) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Inventory id must be a positive integer")
		return
	}

	var req UpdateInventoryRequest
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data: "+err.Error())
		return
	}

	db := config.GetDB()
	var item models.Inventory
	if err := db.First(&item, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "INVENTORY_NOT_FOUND", "Inventory item not found")
		return
	}

	violations := utils.Violations{}
	updates := make(map[string]interface{})
	if req.Name != nil {
		violations.Required("name", *req.Name)
		violations.MaxLen("name", *req.Name, 200)
		updates["name"] = *req.Name
	}
	if req.Price != nil {
		violations.NonNegative("price", *req.Price)
		updates["price"] = *req.Price
	}

	if !violations.Empty() {
		validationJSON(c, http.StatusBadRequest, violations)
		return
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    item,
		})
		return
	}

	if req.Name != nil {
		var count int64
		db.Model(&models.Inventory{}).
			Where("LOWER(name) = LOWER(?) AND id <> ?", *req.Name, item.ID).
			Count(&count)
		if count > 0 {
			errorJSON(c, http.StatusConflict, "NAME_EXISTS", "Inventory item with this name already exists")
			return
		}
	}

	if err := db.Model(&item).Updates(updates).Error; err != nil {
		if isDuplicateKeyErr(err) {
			errorJSON(c, http.StatusConflict, "NAME_EXISTS", "Inventory item with this name already exists")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update inventory item")
		return
	}

	ctl.cache.Invalidate(services.AllInventoryKey)

	if err := db.First(&item, id).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch updated inventory item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// Delete handles DELETE /inventory/:id - removes a part and its ticket
// association rows
func (ctl *InventoryController) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Inventory id must be a positive integer")
		return
	}

	db := config.GetDB()
	var item models.Inventory
	if err := db.First(&item, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "INVENTORY_NOT_FOUND", "Inventory item not found")
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM service_inventory WHERE inventory_id = ?", item.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete inventory item")
		return
	}

	ctl.cache.Invalidate(services.AllInventoryKey)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Inventory item successfully deleted",
	})
}
