package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/secureprint/backend/internal/db"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type CreatePrinterRequest struct {
	Name         string   `json:"name" binding:"required"`
	Location     string   `json:"location"`
	Model        string   `json:"model"`
	Status       string   `json:"status"`
	IP           string   `json:"ip"`
	Capabilities []string `json:"capabilities"`
	Department   string   `json:"department"`
}

type UpdatePrinterStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=online offline maintenance"`
}

type PrinterResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	Model        string    `json:"model"`
	Status       string    `json:"status"`
	IP           string    `json:"ip"`
	Capabilities []string  `json:"capabilities"`
	Department   string    `json:"department"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PrinterHandler struct {
	db *sql.DB
}

func NewPrinterHandler(database *sql.DB) *PrinterHandler {
	return &PrinterHandler{db: database}
}

func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	printers, err := db.Printers.ListPrinters(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve printers",
		})
		return
	}

	responses := make([]PrinterResponse, 0, len(printers))
	for _, p := range printers {
		responses = append(responses, printerToResponse(p))
	}

	c.JSON(http.StatusOK, gin.H{"printers": responses})
}

func (h *PrinterHandler) GetPrinter(c *gin.Context) {
	id := c.Param("id")

	printer, err := db.Printers.GetPrinterByID(c.Request.Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Printer not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve printer",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"printer": printerToResponse(printer)})
}

func (h *PrinterHandler) CreatePrinter(c *gin.Context) {
	var req CreatePrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if req.Status == "" {
		req.Status = "online"
	}
	if req.Department == "" {
		req.Department = "All"
	}
	if req.Capabilities == nil {
		req.Capabilities = []string{}
	}

	printer := &db.Printer{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Location:     req.Location,
		Model:        req.Model,
		Status:       req.Status,
		IP:           req.IP,
		Capabilities: req.Capabilities,
		Department:   req.Department,
	}

	if err := db.Printers.CreatePrinter(c.Request.Context(), printer); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create printer",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"printer": printerToResponse(printer)})
}

func (h *PrinterHandler) UpdatePrinterStatus(c *gin.Context) {
	id := c.Param("id")

	var req UpdatePrinterStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if err := db.Printers.UpdatePrinterStatus(c.Request.Context(), id, req.Status); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Printer not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to update printer",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PrinterHandler) DeletePrinter(c *gin.Context) {
	id := c.Param("id")

	if err := db.Printers.DeletePrinter(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to delete printer",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func printerToResponse(p *db.Printer) PrinterResponse {
	return PrinterResponse{
		ID:           p.ID,
		Name:         p.Name,
		Location:     p.Location,
		Model:        p.Model,
		Status:       p.Status,
		IP:           p.IP,
		Capabilities: p.Capabilities,
		Department:   p.Department,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (h *PrinterHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/printers", h.ListPrinters)
	r.GET("/printers/:id", h.GetPrinter)
}

func (h *PrinterHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/printers", h.CreatePrinter)
	r.PATCH("/printers/:id", h.UpdatePrinterStatus)
	r.DELETE("/printers/:id", h.DeletePrinter)
}
