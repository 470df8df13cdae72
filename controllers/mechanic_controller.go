package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dlehman/mechanic-shop-api/config"
	"github.com/dlehman/mechanic-shop-api/models"
	"github.com/dlehman/mechanic-shop-api/utils"
)

// MechanicController handles mechanic CRUD
type MechanicController struct{}

// NewMechanicController creates a mechanic controller
func NewMechanicController() *MechanicController {
	return &MechanicController{}
}

// CreateMechanicRequest represents the request body for creating a mechanic
type CreateMechanicRequest struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Salary          *float64 `json:"salary"`
	IsActive        *bool    `json:"is_active"`
	Specializations string   `json:"specializations"`
}

func (r *CreateMechanicRequest) validate() utils.Violations {
	v := utils.Violations{}
	v.Required("name", r.Name)
	v.Required("email", r.Email)
	v.MaxLen("name", r.Name, 255)
	v.MaxLen("phone", r.Phone, 20)
	v.Email("email", r.Email)
	if r.Salary != nil {
		v.NonNegative("salary", *r.Salary)
	}
	return v
}

// UpdateMechanicRequest represents a partial mechanic update
type UpdateMechanicRequest struct {
	Name            *string  `json:"name"`
	Email           *string  `json:"email"`
	Phone           *string  `json:"phone"`
	Salary          *float64 `json:"salary"`
	IsActive        *bool    `json:"is_active"`
	Specializations *string  `json:"specializations"`
}

// Create handles POST /mechanics/ - creates a new mechanic
func (ctl *MechanicController) Create(c *gin.Context) {
	var req CreateMechanicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	if violations := req.validate(); !violations.Empty() {
		validationJSON(c, http.StatusBadRequest, violations)
		return
	}

	db := config.GetDB()

	var count int64
	db.Model(&models.Mechanic{}).Where("LOWER(email) = LOWER(?)", req.Email).Count(&count)
	if count > 0 {
		errorJSON(c, http.StatusConflict, "EMAIL_EXISTS", "Email already associated with another mechanic")
		return
	}

	mechanic := models.Mechanic{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Salary:          req.Salary,
		IsActive:        true,
		Specializations: req.Specializations,
	}
	if req.IsActive != nil {
		mechanic.IsActive = *req.IsActive
	}

	if err := db.Create(&mechanic).Error; err != nil {
		if isDuplicateKeyErr(err) {
			errorJSON(c, http.StatusConflict, "EMAIL_EXISTS", "Email already associated with another mechanic")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create mechanic")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    mechanic,
	})
}

// List handles GET /mechanics/ - paginated mechanic listing
func (ctl *MechanicController) List(c *gin.Context) {
	db := config.GetDB()
	query := db.Model(&models.Mechanic{})

	if name := c.Query("name"); name != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+name+"%")
	}
	if active := c.Query("is_active"); active != "" {
		isActive, err := strconv.ParseBool(active)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "is_active must be a boolean")
			return
		}
		query = query.Where("is_active = ?", isActive)
	}

	sortField, sortOrder, ok := utils.ParseSort(c, []string{"id", "name", "email", "salary"}, "id")
	if !ok {
		errorJSON(c, http.StatusBadRequest, "INVALID_SORT_FIELD", "Unknown sort field")
		return
	}

	page := utils.ParsePageRequest(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count mechanics")
		return
	}

	var mechanics []models.Mechanic
	if err := query.Order(sortField + " " + sortOrder).
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&mechanics).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list mechanics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"items":      mechanics,
			"pagination": utils.BuildPageMeta(page, total),
		},
	})
}

// Get handles GET /mechanics/:id - fetches one mechanic
func (ctl *MechanicController) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Mechanic id must be a positive integer")
		return
	}

	db := config.GetDB()
	var mechanic models.Mechanic
	if err := db.First(&mechanic, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "MECHANIC_NOT_FOUND", "Mechanic not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mechanic,
	})
}

// Update handles PUT /mechanics/:id - partial mechanic update
func (ctl *MechanicController) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Mechanic id must be a positive integer")
		return
	}

	var req UpdateMechanicRequest
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data: "+err.Error())
		return
	}

	db := config.GetDB()
	var mechanic models.Mechanic
	if err := db.First(&mechanic, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "MECHANIC_NOT_FOUND", "Mechanic not found")
		return
	}

	violations := utils.Violations{}
	updates := make(map[string]interface{})
	if req.Name != nil {
		violations.Required("name", *req.Name)
		violations.MaxLen("name", *req.Name, 255)
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		violations.Required("email", *req.Email)
		violations.Email("email", *req.Email)
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		violations.MaxLen("phone", *req.Phone, 20)
		updates["phone"] = *req.Phone
	}
	if req.Salary != nil {
		violations.NonNegative("salary", *req.Salary)
		updates["salary"] = *req.Salary
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Specializations != nil {
		updates["specializations"] = *req.Specializations
	}

	if !violations.Empty() {
		validationJSON(c, http.StatusBadRequest, violations)
		return
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    mechanic,
		})
		return
	}

	if req.Email != nil {
		var count int64
		db.Model(&models.Mechanic{}).
			Where("LOWER(email) = LOWER(?) AND id <> ?", *req.Email, mechanic.ID).
			Count(&count)
		if count > 0 {
			errorJSON(c, http.StatusConflict, "EMAIL_EXISTS", "Email already associated with another mechanic")
			return
		}
	}

	if err := db.Model(&mechanic).Updates(updates).Error; err != nil {
		if isDuplicateKeyErr(err) {
			errorJSON(c, http.StatusConflict, "EMAIL_EXISTS", "Email already associated with another mechanic")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update mechanic")
		return
	}

	if err := db.First(&mechanic, id).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch updated mechanic")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mechanic,
	})
}

// Delete handles DELETE /mechanics/:id - removes a mechanic. Only the
// association rows to tickets are removed, never the tickets themselves.
func (ctl *MechanicController) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Mechanic id must be a positive integer")
		return
	}

	db := config.GetDB()
	var mechanic models.Mechanic
	if err := db.First(&mechanic, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "MECHANIC_NOT_FOUND", "Mechanic not found")
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&mechanic).Association("Tickets").Clear(); err != nil {
			return err
		}
		return tx.Delete(&mechanic).Error
	})
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete mechanic")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Mechanic successfully deleted",
	})
}
