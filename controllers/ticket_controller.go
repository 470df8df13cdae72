package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dlehman/mechanic-shop-api/config"
	"github.com/dlehman/mechanic-shop-api/models"
	"github.com/dlehman/mechanic-shop-api/services"
	"github.com/dlehman/mechanic-shop-api/utils"
)

// TicketController handles service ticket CRUD, relationship editing,
// cost calculation and photo uploads
type TicketController struct {
	photos services.PhotoService
}

// NewTicketController creates a ticket controller
func NewTicketController(photos services.PhotoService) *TicketController {
	return &TicketController{photos: photos}
}

// CreateTicketRequest represents the request body for creating a ticket
type CreateTicketRequest struct {
	CustomerID    uint     `json:"customer_id"`
	Description   string   `json:"description"`
	ServiceDate   string   `json:"service_date"`
	VehicleInfo   string   `json:"vehicle_info"`
	Status        string   `json:"status"`
	Priority      string   `json:"priority"`
	EstimatedCost *float64 `json:"estimated_cost"`
	MechanicIDs   []uint   `json:"mechanic_ids"`
}

// UpdateTicketRequest represents a partial ticket update
type UpdateTicketRequest struct {
	Description   *string  `json:"description"`
	ServiceDate   *string  `json:"service_date"`
	VehicleInfo   *string  `json:"vehicle_info"`
	Status        *string  `json:"status"`
	Priority      *string  `json:"priority"`
	EstimatedCost *float64 `json:"estimated_cost"`
	ActualCost    *float64 `json:"actual_cost"`
}

// EditMechanicsRequest represents the bulk add/remove body
type EditMechanicsRequest struct {
	AddIDs    []uint `json:"add_ids"`
	RemoveIDs []uint `json:"remove_ids"`
}

// loadTicket fetches a ticket with its relationships and computes the
// presigned photo URL when one exists
func (ctl *TicketController) loadTicket(db *gorm.DB, id uint) (*models.ServiceTicket, error) {
	var ticket models.ServiceTicket
	if err := db.Preload("Customer").Preload("Mechanics").Preload("Parts").
		First(&ticket, id).Error; err != nil {
		return nil, err
	}

	if ticket.PhotoS3Key != nil && *ticket.PhotoS3Key != "" {
		if url, err := ctl.photos.GetPhotoURL(*ticket.PhotoS3Key); err == nil && url != "" {
			ticket.PhotoURL = &url
		}
	}

	return &ticket, nil
}

// Create handles POST /service-tickets/ - creates a new work order
func (ctl *TicketController) Create(c *gin.Context) {
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	violations := utils.Violations{}
	violations.Required("description", req.Description)
	violations.MaxLen("description", req.Description, 500)
	if req.CustomerID == 0 {
		violations["customer_id"] = "is required"
	}
	if req.ServiceDate == "" {
		violations["service_date"] = "is required"
	}
	if req.Status != "" && !models.IsValidStatus(req.Status) {
		violations["status"] = "must be one of: pending, in_progress, completed"
	}
	if req.EstimatedCost != nil {
		violations.NonNegative("estimated_cost", *req.EstimatedCost)
	}

	var serviceDate time.Time
	if req.ServiceDate != "" {
		var err error
		serviceDate, err = time.Parse(time.RFC3339, req.ServiceDate)
		if err != nil {
			violations["service_date"] = "must be an RFC 3339 timestamp"
		}
	}

	if !violations.Empty() {
		validationJSON(c, http.StatusBadRequest, violations)
		return
	}

	db := config.GetDB()

	// A ticket always references an existing customer
	var customerCount int64
	db.Model(&models.Customer{}).Where("id = ?", req.CustomerID).Count(&customerCount)
	if customerCount == 0 {
		errorJSON(c, http.StatusBadRequest, "CUSTOMER_NOT_FOUND", "Customer not found")
		return
	}

	status := req.Status
	if status == "" {
		status = models.StatusPending
	}

	ticket := models.ServiceTicket{
		CustomerID:    req.CustomerID,
		Description:   req.Description,
		ServiceDate:   serviceDate,
		VehicleInfo:   req.VehicleInfo,
		Status:        status,
		Priority:      req.Priority,
		EstimatedCost: req.EstimatedCost,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ticket).Error; err != nil {
			return err
		}
		// Optional initial mechanic assignments; unknown ids are skipped
		for _, mechID := range req.MechanicIDs {
			var mechanic models.Mechanic
			if err := tx.First(&mechanic, mechID).Error; err != nil {
				continue
			}
			if err := tx.Model(&ticket).Association("Mechanics").Append(&mechanic); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create service ticket")
		return
	}

	created, err := ctl.loadTicket(db, ticket.ID)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load created ticket")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    created,
	})
}

// List handles GET /service-tickets/ - paginated ticket listing
func (ctl *TicketController) List(c *gin.Context) {
	db := config.GetDB()
	query := db.Model(&models.ServiceTicket{})

	if status := c.Query("status"); status != "" {
		if !models.IsValidStatus(status) {
			errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "status must be one of: pending, in_progress, completed")
			return
		}
		query = query.Where("status = ?", status)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		id, err := strconv.ParseUint(customerID, 10, 64)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "customer_id must be a positive integer")
			return
		}
		query = query.Where("customer_id = ?", id)
	}

	sortField, sortOrder, ok := utils.ParseSort(c, []string{"id", "service_date", "status", "created_at"}, "id")
	if !ok {
		errorJSON(c, http.StatusBadRequest, "INVALID_SORT_FIELD", "Unknown sort field")
		return
	}

	page := utils.ParsePageRequest(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count service tickets")
		return
	}

	var tickets []models.ServiceTicket
	if err := query.Preload("Mechanics").Preload("Parts").
		Order(sortField + " " + sortOrder).
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&tickets).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list service tickets")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"items":      tickets,
			"pagination": utils.BuildPageMeta(page, total),
		},
	})
}

// Get handles GET /service-tickets/:id - fetches one ticket
func (ctl *TicketController) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Ticket id must be a positive integer")
		return
	}

	ticket, err := ctl.loadTicket(config.GetDB(), uint(id))
	if err != nil {
		errorJSON(c, http.StatusNotFound, "TICKET_NOT_FOUND", "Service ticket not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ticket,
	})
}

// Update handles PUT /service-tickets/:id - partial ticket update.
// Transitioning to completed stamps completed_at.
func (ctl *TicketController) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Ticket id must be a positive integer")
		return
	}

	var req UpdateTicketRequest
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data: "+err.Error())
		return
	}

	db := config.GetDB()
	var ticket models.ServiceTicket
	if err := db.First(&ticket, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "TICKET_NOT_FOUND", "Service ticket not found")
		return
	}

	violations := utils.Violations{}
	updates := make(map[string]interface{})
	if req.Description != nil {
		violations.Required("description", *req.Description)
		violations.MaxLen("description", *req.Description, 500)
		updates["description"] = *req.Description
	}
	if req.ServiceDate != nil {
		serviceDate, err := time.Parse(time.RFC3339, *req.ServiceDate)
		if err != nil {
			violations["service_date"] = "must be an RFC 3339 timestamp"
		} else {
			updates["service_date"] = serviceDate
		}
	}
	if req.VehicleInfo != nil {
		updates["vehicle_info"] = *req.VehicleInfo
	}
	if req.Status != nil {
		if !models.IsValidStatus(*req.Status) {
			violations["status"] = "must be one of: pending, in_progress, completed"
		} else {
			updates["status"] = *req.Status
			if *req.Status == models.StatusCompleted && ticket.Status != models.StatusCompleted {
				updates["completed_at"] = time.Now()
			}
		}
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.EstimatedCost != nil {
		violations.NonNegative("estimated_cost", *req.EstimatedCost)
		updates["estimated_cost"] = *req.EstimatedCost
	}
	if req.ActualCost != nil {
		violations.NonNegative("actual_cost", *req.ActualCost)
		updates["actual_cost"] = *req.ActualCost
	}

	if !violations.Empty() {
		validationJSON(c, http.StatusBadRequest, violations)
		return
	}

	if len(updates) > 0 {
		if err := db.Model(&ticket).Updates(updates).Error; err != nil {
			errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update service ticket")
			return
		}
	}

	updated, err := ctl.loadTicket(db, ticket.ID)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load updated ticket")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}

// Delete handles DELETE /service-tickets/:id - removes a ticket and its
// association rows; mechanics and parts themselves are untouched
func (ctl *TicketController) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Ticket id must be a positive integer")
		return
	}

	db := config.GetDB()
	var ticket models.ServiceTicket
	if err := db.First(&ticket, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "TICKET_NOT_FOUND", "Service ticket not found")
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&ticket).Association("Mechanics").Clear(); err != nil {
			return err
		}
		if err := tx.Model(&ticket).Association("Parts").Clear(); err != nil {
			return err
		}
		return tx.Delete(&ticket).Error
	})
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete service ticket")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Service ticket successfully deleted",
	})
}

// AssignMechanic handles PUT /service-tickets/:id/assign-mechanic/:mechanicID
func (ctl *TicketController) AssignMechanic(c *gin.Context) {
	ticketID, err1 := strconv.ParseUint(c.Param("id"), 10, 64)
	mechanicID, err2 := strconv.ParseUint(c.Param("mechanicID"), 10, 64)
	if err1 != nil || err2 != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Ids must be positive integers")
		return
	}

	db := config.GetDB()
	var ticket models.ServiceTicket
	if err := db.Preload("Mechanics").First(&ticket, ticketID).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "TICKET_NOT_FOUND", "Service ticket not found")
		return
	}

	var mechanic models.Mechanic
	if err := db.First(&mechanic, mechanicID).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "MECHANIC_NOT_FOUND", "Mechanic not found")
		return
	}

	// Adding an already-present pair is reported, never duplicated
	for i := range ticket.Mechanics {
		if ticket.Mechanics[i].ID == mechanic.ID {
			errorJSON(c, http.StatusBadRequest, "ALREADY_ASSIGNED", "Mechanic already assigned to this service ticket")
			return
		}
	}

	if err := db.Model(&ticket).Association("Mechanics").Append(&mechanic); err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to assign mechanic")
		return
	}

	updated, err := ctl.loadTicket(db, ticket.ID)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load updated ticket")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Mechanic %s assigned to service ticket %d", mechanic.Name, ticket.ID),
		"data":    updated,
	})
}

// RemoveMechanic handles PUT /service-tickets/:id/remove-mechanic/:mechanicID
func (ctl *TicketController) RemoveMechanic(c *gin.Context) {
	ticketID, err1 := strconv.ParseUint(c.Param("id"), 10, 64)
	mechanicID, err2 := strconv.ParseUint(c.Param("mechanicID"), 10, 64)
	if err1 != nil || err2 != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Ids must be positive integers")
		return
	}

	db := config.GetDB()
	var ticket models.ServiceTicket
	if err := db.Preload("Mechanics").First(&ticket, ticketID).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "TICKET_NOT_FOUND", "Service ticket not found")
		return
	}

	var mechanic models.Mechanic
	if err := db.First(&mechanic, mechanicID).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "MECHANIC_NOT_FOUND", "Mechanic not found")
		return
	}

	assigned := false
	for i := range ticket.Mechanics {
		if ticket.Mechanics[i].ID == mechanic.ID {
			assigned = true
			break
		}
	}
	if !assigned {
		errorJSON(c, http.StatusBadRequest, "NOT_ASSIGNED", "Mechanic is not assigned to this service ticket")
		return
	}

	if err := db.Model(&ticket).Association("Mechanics").Delete(&mechanic); err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to remove mechanic")
		return
	}

	updated, err := ctl.loadTicket(db, ticket.ID)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load updated ticket")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Mechanic %s removed from service ticket %d", mechanic.Name, ticket.ID),
		"data":    updated,
	})
}

// EditMechanics handles PUT /service-tickets/:id/edit - bulk add/remove of
// mechanics with partial-success reporting.
//
// Removals are processed before additions against a single batched fetch
// of every referenced mechanic. Per-id problems are accumulated as error
// strings; applied changes go to changes_made. The commit happens once,
// and only when at least one change was applied. Status: 200 when every
// requested change succeeded, 207 when changes and errors are mixed, 400
// when nothing changed.
func (ctl *TicketController) EditMechanics(c *gin.Context) {
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Ticket id must be a positive integer")
		return
	}

	var req EditMechanicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	addIDs := dedupe(req.AddIDs)
	removeIDs := dedupe(req.RemoveIDs)
	if len(addIDs) == 0 && len(removeIDs) == 0 {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "No add_ids or remove_ids provided")
		return
	}

	db := config.GetDB()

	var changesMade []string
	var errorList []string

	txErr := db.Transaction(func(tx *gorm.DB) error {
		var ticket models.ServiceTicket
		if err := tx.Preload("Mechanics").First(&ticket, ticketID).Error; err != nil {
			return err
		}

		// One batched lookup over add ∪ remove avoids per-id queries
		allIDs := append(append([]uint{}, addIDs...), removeIDs...)
		var mechanics []models.Mechanic
		if err := tx.Where("id IN ?", allIDs).Find(&mechanics).Error; err != nil {
			return err
		}
		mechanicsByID := make(map[uint]*models.Mechanic, len(mechanics))
		for i := range mechanics {
			mechanicsByID[mechanics[i].ID] = &mechanics[i]
		}

		assigned := make(map[uint]bool, len(ticket.Mechanics))
		for i := range ticket.Mechanics {
			assigned[ticket.Mechanics[i].ID] = true
		}

		// Removals first
		for _, mechID := range removeIDs {
			mechanic, found := mechanicsByID[mechID]
			if !found {
				errorList = append(errorList, fmt.Sprintf("Mechanic with ID %d not found for removal.", mechID))
				continue
			}
			if !assigned[mechID] {
				errorList = append(errorList, fmt.Sprintf("Mechanic %s (ID: %d) was not assigned to this ticket.", mechanic.Name, mechID))
				continue
			}
			if err := tx.Model(&ticket).Association("Mechanics").Delete(mechanic); err != nil {
				return err
			}
			assigned[mechID] = false
			changesMade = append(changesMade, fmt.Sprintf("Removed mechanic %s (ID: %d)", mechanic.Name, mechID))
		}

		// Then additions
		for _, mechID := range addIDs {
			mechanic, found := mechanicsByID[mechID]
			if !found {
				errorList = append(errorList, fmt.Sprintf("Mechanic with ID %d not found for addition.", mechID))
				continue
			}
			if assigned[mechID] {
				errorList = append(errorList, fmt.Sprintf("Mechanic %s (ID: %d) is already assigned to this ticket.", mechanic.Name, mechID))
				continue
			}
			if err := tx.Model(&ticket).Association("Mechanics").Append(mechanic); err != nil {
				return err
			}
			assigned[mechID] = true
			changesMade = append(changesMade, fmt.Sprintf("Added mechanic %s (ID: %d)", mechanic.Name, mechID))
		}

		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			errorJSON(c, http.StatusNotFound, "TICKET_NOT_FOUND", "Service ticket not found")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update mechanic assignments")
		return
	}

	ticket, err := ctl.loadTicket(db, uint(ticketID))
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load updated ticket")
		return
	}

	if changesMade == nil {
		changesMade = []string{}
	}
	if errorList == nil {
		errorList = []string{}
	}

	var status int
	switch {
	case len(errorList) == 0:
		status = http.StatusOK
	case len(changesMade) > 0:
		status = http.StatusMultiStatus // partial success
	default:
		status = http.StatusBadRequest // only errors occurred
	}

	c.JSON(status, gin.H{
		"success":        len(errorList) == 0,
		"message":        "Mechanic assignments updated.",
		"changes_made":   changesMade,
		"errors":         errorList,
		"service_ticket": ticket,
	})
}

// AttachPart handles POST /service-tickets/:id/inventory/:inventoryID -
// records that a part was used on a ticket
func (ctl *TicketController) AttachPart(c *gin.Context) {
	ticketID, err1 := strconv.ParseUint(c.Param("id"), 10, 64)
	inventoryID, err2 := strconv.ParseUint(c.Param("inventoryID"), 10, 64)
	if err1 != nil || err2 != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Ids must be positive integers")
		return
	}

	db := config.GetDB()
	var ticket models.ServiceTicket
	if err := db.Preload("Parts").First(&ticket, ticketID).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "TICKET_NOT_FOUND", "Service ticket not found")
		return
	}

	var part models.Inventory
	if err := db.First(&part, inventoryID).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "INVENTORY_NOT_FOUND", "Inventory item not found")
		return
	}

	for i := range ticket.Parts {
		if ticket.Parts[i].ID == part.ID {
			errorJSON(c, http.StatusBadRequest, "ALREADY_ATTACHED", "Part already attached to this service ticket")
			return
		}
	}

	if err := db.Model(&ticket).Association("Parts").Append(&part); err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to attach part")
		return
	}

	updated, err := ctl.loadTicket(db, ticket.ID)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load updated ticket")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Part %s added to service ticket %d", part.Name, ticket.ID),
		"data":    updated,
	})
}

// PartLine is one entry in a cost breakdown
type PartLine struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// GetCost handles GET /service-tickets/:id/cost - derives the ticket's
// total from its attached parts. Pure read.
func (ctl *TicketController) GetCost(c *gin.Context) {
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Ticket id must be a positive integer")
		return
	}

	db := config.GetDB()
	var ticket models.ServiceTicket
	if err := db.Preload("Parts").First(&ticket, ticketID).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "TICKET_NOT_FOUND", "Service ticket not found")
		return
	}

	total := 0.0
	breakdown := make([]PartLine, 0, len(ticket.Parts))
	for i := range ticket.Parts {
		part := &ticket.Parts[i]
		total += part.Price
		breakdown = append(breakdown, PartLine{ID: part.ID, Name: part.Name, Price: part.Price})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"ticket_id":   ticket.ID,
			"total_cost":  total,
			"parts_count": len(ticket.Parts),
			"breakdown":   breakdown,
		},
	})
}

// UploadPhoto handles POST /service-tickets/:id/photo - attaches a vehicle
// photo to the ticket, replacing any previous one
func (ctl *TicketController) UploadPhoto(c *gin.Context) {
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Ticket id must be a positive integer")
		return
	}

	db := config.GetDB()
	var ticket models.ServiceTicket
	if err := db.First(&ticket, ticketID).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "TICKET_NOT_FOUND", "Service ticket not found")
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "MISSING_FILE", "A photo file is required in the 'photo' form field")
		return
	}

	photoKey, err := ctl.photos.UploadPhoto(ticket.ID, fileHeader)
	if err != nil {
		if uploadErr, ok := err.(*utils.FileUploadError); ok {
			errorJSON(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return
		}
		errorJSON(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to upload photo")
		return
	}

	oldKey := ticket.PhotoS3Key
	if err := db.Model(&ticket).Update("photo_s3_key", photoKey).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save photo reference")
		return
	}

	// Replaced photos are removed from storage; a failure here is logged
	// by the photo service but does not fail the request
	if oldKey != nil && *oldKey != "" {
		_ = ctl.photos.DeletePhoto(*oldKey)
	}

	updated, err := ctl.loadTicket(db, ticket.ID)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load updated ticket")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    updated,
	})
}

// dedupe returns ids with duplicates removed, preserving order
func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
