package handlers

import (
	"errors"
	"net/http"

	"jobtracker/internal/middleware"
	"jobtracker/internal/services"
	"jobtracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type CreateApplicationRequest struct {
	CompanyName     string  `json:"company_name" binding:"required,max=200"`
	PositionTitle   string  `json:"position_title" binding:"required,max=200"`
	Location        *string `json:"location" binding:"omitempty,max=200"`
	JobType         *string `json:"job_type" binding:"omitempty,max=50"`
	JobLevel        *string `json:"job_level" binding:"omitempty,max=50"`
	ApplicationDate *string `json:"application_date"`
	Status          *string `json:"status" binding:"omitempty,max=50"`
	JobDescription  *string `json:"job_description"`
	Notes           *string `json:"notes"`
}

// UpdateApplicationRequest tracks which keys were present in the body; an
// absent key leaves the column alone and null clears it.
type UpdateApplicationRequest struct {
	CompanyName     utils.Optional[string] `json:"company_name"`
	PositionTitle   utils.Optional[string] `json:"position_title"`
	Location        utils.Optional[string] `json:"location"`
	JobType         utils.Optional[string] `json:"job_type"`
	JobLevel        utils.Optional[string] `json:"job_level"`
	ApplicationDate utils.Optional[string] `json:"application_date"`
	Status          utils.Optional[string] `json:"status"`
	JobDescription  utils.Optional[string] `json:"job_description"`
	Notes           utils.Optional[string] `json:"notes"`
}

func (h *Handler) ListApplications(c *gin.Context) {
	apps, err := h.applications.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *Handler) GetApplication(c *gin.Context) {
	id, ok := h.applicationID(c)
	if !ok {
		return
	}

	app, err := h.applications.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) CreateApplication(c *gin.Context) {
	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}

	dto := services.CreateApplicationDTO{
		CompanyName:    req.CompanyName,
		PositionTitle:  req.PositionTitle,
		Location:       req.Location,
		JobType:        req.JobType,
		JobLevel:       req.JobLevel,
		Status:         req.Status,
		JobDescription: req.JobDescription,
		Notes:          req.Notes,
	}
	if req.ApplicationDate != nil {
		dto.ApplicationDate = *req.ApplicationDate
	}
	if userID, ok := middleware.CurrentUserID(c); ok {
		dto.UserID = &userID
	}

	app, err := h.applications.Create(c.Request.Context(), dto)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *Handler) UpdateApplication(c *gin.Context) {
	id, ok := h.applicationID(c)
	if !ok {
		return
	}

	var req UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}

	app, err := h.applications.Update(c.Request.Context(), id, services.UpdateApplicationDTO{
		CompanyName:     req.CompanyName,
		PositionTitle:   req.PositionTitle,
		Location:        req.Location,
		JobType:         req.JobType,
		JobLevel:        req.JobLevel,
		ApplicationDate: req.ApplicationDate,
		Status:          req.Status,
		JobDescription:  req.JobDescription,
		Notes:           req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) DeleteApplication(c *gin.Context) {
	id, ok := h.applicationID(c)
	if !ok {
		return
	}

	if err := h.applications.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application deleted successfully"})
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid JSON body"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	}
	return fe.Field() + " is invalid"
}
