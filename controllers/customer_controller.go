package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dlehman/mechanic-shop-api/config"
	"github.com/dlehman/mechanic-shop-api/middleware"
	"github.com/dlehman/mechanic-shop-api/models"
	"github.com/dlehman/mechanic-shop-api/services"
	"github.com/dlehman/mechanic-shop-api/utils"
)

// CustomerController handles customer registration, login and self-service
type CustomerController struct {
	tokens *services.TokenService
}

// NewCustomerController creates a customer controller
func NewCustomerController(tokens *services.TokenService) *CustomerController {
	return &CustomerController{tokens: tokens}
}

// RegisterRequest represents the request body for customer registration
type RegisterRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
}

func (r *RegisterRequest) validate() utils.Violations {
	v := utils.Violations{}
	v.Required("first_name", r.FirstName)
	v.Required("last_name", r.LastName)
	v.Required("email", r.Email)
	v.Required("password", r.Password)
	v.MaxLen("first_name", r.FirstName, 100)
	v.MaxLen("last_name", r.LastName, 100)
	v.MaxLen("phone_number", r.PhoneNumber, 20)
	v.Email("email", r.Email)
	if r.Password != "" && len(r.Password) < 8 {
		v["password"] = "must be at least 8 characters"
	}
	return v
}

// LoginRequest represents the request body for customer login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateCustomerRequest represents a partial customer update. Nil fields
// are left untouched.
type UpdateCustomerRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
}

// Register handles POST /customers/ - creates a new customer account
func (ctl *CustomerController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	if violations := req.validate(); !violations.Empty() {
		validationJSON(c, http.StatusBadRequest, violations)
		return
	}

	db := config.GetDB()

	// Email uniqueness is case-insensitive
	var count int64
	db.Model(&models.Customer{}).Where("LOWER(email) = LOWER(?)", req.Email).Count(&count)
	if count > 0 {
		errorJSON(c, http.StatusConflict, "EMAIL_EXISTS", "Email already associated with another account")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process password")
		return
	}

	customer := models.Customer{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: string(hash),
		Address:      req.Address,
	}

	if err := db.Create(&customer).Error; err != nil {
		if isDuplicateKeyErr(err) {
			errorJSON(c, http.StatusConflict, "EMAIL_EXISTS", "Email already associated with another account")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create customer")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    customer,
	})
}

// Login handles POST /customers/login - verifies credentials and issues a token
func (ctl *CustomerController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required")
		return
	}

	db := config.GetDB()
	var customer models.Customer
	if err := db.Where("LOWER(email) = LOWER(?)", req.Email).First(&customer).Error; err != nil {
		// Same response for unknown email and wrong password
		errorJSON(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(req.Password)); err != nil {
		errorJSON(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	token, err := ctl.tokens.IssueToken(customer.ID, services.RoleCustomer)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token":    token,
			"customer": customer,
		},
	})
}

// List handles GET /customers/ - paginated customer listing
func (ctl *CustomerController) List(c *gin.Context) {
	db := config.GetDB()
	query := db.Model(&models.Customer{})

	if email := c.Query("email"); email != "" {
		query = query.Where("LOWER(email) LIKE LOWER(?)", "%"+email+"%")
	}

	sortField, sortOrder, ok := utils.ParseSort(c, []string{"id", "first_name", "last_name", "email"}, "id")
	if !ok {
		errorJSON(c, http.StatusBadRequest, "INVALID_SORT_FIELD", "Unknown sort field")
		return
	}

	page := utils.ParsePageRequest(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count customers")
		return
	}

	var customers []models.Customer
	if err := query.Order(sortField + " " + sortOrder).
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&customers).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list customers")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"items":      customers,
			"pagination": utils.BuildPageMeta(page, total),
		},
	})
}

// Get handles GET /customers/:id - fetches one customer
func (ctl *CustomerController) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Customer id must be a positive integer")
		return
	}

	db := config.GetDB()
	var customer models.Customer
	if err := db.First(&customer, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    customer,
	})
}

// Update handles PUT /customers/:id - partial update of the caller's own
// account. Ownership is enforced by the route guard.
func (ctl *CustomerController) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Customer id must be a positive integer")
		return
	}

	// Unknown fields are rejected rather than silently dropped
	var req UpdateCustomerRequest
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data: "+err.Error())
		return
	}

	db := config.GetDB()
	var customer models.Customer
	if err := db.First(&customer, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer not found")
		return
	}

	violations := utils.Violations{}
	updates := make(map[string]interface{})
	if req.FirstName != nil {
		violations.Required("first_name", *req.FirstName)
		violations.MaxLen("first_name", *req.FirstName, 100)
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		violations.Required("last_name", *req.LastName)
		violations.MaxLen("last_name", *req.LastName, 100)
		updates["last_name"] = *req.LastName
	}
	if req.Email != nil {
		violations.Required("email", *req.Email)
		violations.Email("email", *req.Email)
		updates["email"] = *req.Email
	}
	if req.PhoneNumber != nil {
		violations.MaxLen("phone_number", *req.PhoneNumber, 20)
		updates["phone_number"] = *req.PhoneNumber
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}

	if !violations.Empty() {
		validationJSON(c, http.StatusBadRequest, violations)
		return
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    customer,
		})
		return
	}

	// Re-check uniqueness when the email changes, excluding this row
	if req.Email != nil {
		var count int64
		db.Model(&models.Customer{}).
			Where("LOWER(email) = LOWER(?) AND id <> ?", *req.Email, customer.ID).
			Count(&count)
		if count > 0 {
			errorJSON(c, http.StatusConflict, "EMAIL_EXISTS", "Email already associated with another account")
			return
		}
	}

	if err := db.Model(&customer).Updates(updates).Error; err != nil {
		if isDuplicateKeyErr(err) {
			errorJSON(c, http.StatusConflict, "EMAIL_EXISTS", "Email already associated with another account")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update customer")
		return
	}

	if err := db.First(&customer, id).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch updated customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    customer,
	})
}

// Delete handles DELETE /customers/:id - removes the caller's own account
// along with their tickets. A ticket always references an existing
// customer, so tickets cannot outlive their owner.
func (ctl *CustomerController) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Customer id must be a positive integer")
		return
	}

	db := config.GetDB()
	var customer models.Customer
	if err := db.First(&customer, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer not found")
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var tickets []models.ServiceTicket
		if err := tx.Where("customer_id = ?", customer.ID).Find(&tickets).Error; err != nil {
			return err
		}
		for i := range tickets {
			if err := tx.Model(&tickets[i]).Association("Mechanics").Clear(); err != nil {
				return err
			}
			if err := tx.Model(&tickets[i]).Association("Parts").Clear(); err != nil {
				return err
			}
		}
		if err := tx.Where("customer_id = ?", customer.ID).Delete(&models.ServiceTicket{}).Error; err != nil {
			return err
		}
		return tx.Delete(&customer).Error
	})
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Customer successfully deleted",
	})
}

// MyTickets handles GET /customers/my-tickets - tickets owned by the
// authenticated customer
func (ctl *CustomerController) MyTickets(c *gin.Context) {
	principalID, ok := middleware.GetPrincipalID(c)
	if !ok {
		errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract principal from token")
		return
	}

	db := config.GetDB()
	var tickets []models.ServiceTicket
	if err := db.Preload("Mechanics").Preload("Parts").
		Where("customer_id = ?", principalID).
		Find(&tickets).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load tickets")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tickets,
	})
}
