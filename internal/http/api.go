package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/services"
)

// APIController exposes books and bills as read-only JSON.
type APIController struct {
	catalog Catalog
	billing Billing
}

func NewAPIController(catalog Catalog, billing Billing) *APIController {
	return &APIController{
		catalog: catalog,
		billing: billing,
	}
}

// GET /api/books?search=&sort_by=
func (ac *APIController) ListBooks(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	sortBy := books.NormalizeSort(c.Query("sort_by"))

	list, err := ac.catalog.ListBooks(c.Request.Context(), search, sortBy)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// GET /api/books/:id
func (ac *APIController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := ac.catalog.GetBook(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// GET /api/bills
func (ac *APIController) ListBills(c *gin.Context) {
	bills, err := ac.billing.ListBills(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list bills")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"bills": bills, "count": len(bills)})
}

// GET /api/bills/:id
func (ac *APIController) GetBill(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	bill, err := ac.billing.GetBill(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		respondNotFound(c, "bill")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get bill")
		return
	}
	c.IndentedJSON(http.StatusOK, bill)
}

// AuditController lists recorded mutations.
type AuditController struct {
	reader AuditReader
}

func NewAuditController(reader AuditReader) *AuditController {
	return &AuditController{reader: reader}
}

// GetAuditEvents returns paginated audit events as JSON. With entity_id it
// returns the whole history of one book or bill instead.
// GET /api/audit?entity_type=&entity_id=&page=&limit=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	if c.Query("entity_id") != "" {
		ac.entityHistory(c)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}
	offset := (page - 1) * limit

	events, total, err := ac.reader.GetEvents(c.Query("entity_type"), limit, offset)
	if err != nil {
		respondInternalError(c, err, "audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}

func (ac *AuditController) entityHistory(c *gin.Context) {
	entityType := c.Query("entity_type")
	if entityType == "" {
		respondBadRequest(c, "entity_type is required with entity_id")
		return
	}
	id, err := strconv.ParseUint(c.Query("entity_id"), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid entity_id")
		return
	}

	events, err := ac.reader.GetEventsForEntity(entityType, uint(id))
	if err != nil {
		respondInternalError(c, err, "audit history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entity_type":  entityType,
		"entity_id":    id,
		"events":       events,
		"total_events": len(events),
	})
}
