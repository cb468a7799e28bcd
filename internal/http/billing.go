package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/middleware"
	"github.com/mrlokans/bookstore/internal/services"
)

type billForm struct {
	BookID   string `form:"book_id"`
	Quantity string `form:"quantity"`
}

// values parses the form. Blank or malformed fields come back as zero so the
// service reports them as missing.
func (f billForm) values() (bookID uint, quantity int, parseErrs services.ValidationErrors) {
	parseErrs = services.ValidationErrors{}

	if s := strings.TrimSpace(f.BookID); s != "" {
		id, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			parseErrs["book_id"] = "Select a book from the list"
		} else {
			bookID = uint(id)
		}
	}
	if s := strings.TrimSpace(f.Quantity); s != "" {
		q, err := strconv.Atoi(s)
		if err != nil {
			parseErrs["quantity"] = "Quantity must be a whole number"
		} else {
			quantity = q
		}
	}
	return bookID, quantity, parseErrs
}

// BillingController serves the billing form and the bills list.
type BillingController struct {
	pages
	billing Billing
}

func NewBillingController(billing Billing, flashes Flasher) *BillingController {
	return &BillingController{
		pages:   pages{flashes: flashes},
		billing: billing,
	}
}

// BillingForm renders the form with every book to choose from.
// GET /billing
func (bc *BillingController) BillingForm(c *gin.Context) {
	bc.renderBillingForm(c, billForm{}, nil)
}

// CreateBill records a sale and renders its confirmation.
// POST /billing
func (bc *BillingController) CreateBill(c *gin.Context) {
	var form billForm
	if !bc.bindForm(c, &form) {
		return
	}

	bookID, quantity, parseErrs := form.values()
	if len(parseErrs) > 0 {
		in := services.BillInput{BookID: bookID, Quantity: quantity}
		if verrs, ok := services.AsValidationErrors(in.Validate()); ok {
			for field, msg := range verrs {
				if _, taken := parseErrs[field]; !taken {
					parseErrs[field] = msg
				}
			}
		}
		bc.renderBillingForm(c, form, parseErrs)
		return
	}

	bill, err := bc.billing.CreateBill(c.Request.Context(), bookID, quantity)
	if err == nil {
		bc.render(c, http.StatusOK, "bill", gin.H{
			"Title": "Bill created",
			"Bill":  bill,
			"Flash": &middleware.Flash{Kind: middleware.FlashSuccess, Message: "Bill created."},
		})
		return
	}

	if errors.Is(err, services.ErrNotFound) {
		bc.notFound(c, "Book not found")
		return
	}
	if verrs, ok := services.AsValidationErrors(err); ok {
		bc.renderBillingForm(c, form, verrs)
		return
	}
	bc.mutationFailed(c, "/billing", err)
}

// Bills lists bills newest first.
// GET /bills
func (bc *BillingController) Bills(c *gin.Context) {
	bills, err := bc.billing.ListBills(c.Request.Context())
	if err != nil {
		bc.serverError(c, err, "bills")
		return
	}

	var revenue float64
	for _, bill := range bills {
		revenue += bill.TotalPrice
	}

	bc.render(c, http.StatusOK, "bills", gin.H{
		"Title":   "Bills",
		"Bills":   bills,
		"Count":   len(bills),
		"Revenue": revenue,
	})
}

// DeleteBill removes a bill.
// POST /bills/delete/:bill_id
func (bc *BillingController) DeleteBill(c *gin.Context) {
	id, ok := parseID(c, "bill_id")
	if !ok {
		bc.notFound(c, "Bill not found")
		return
	}

	err := bc.billing.DeleteBill(c.Request.Context(), id)
	switch {
	case err == nil:
		bc.redirect(c, "/bills", middleware.FlashSuccess, fmt.Sprintf("Bill #%d deleted.", id))
	case errors.Is(err, services.ErrNotFound):
		bc.notFound(c, "Bill not found")
	default:
		bc.mutationFailed(c, "/bills", err)
	}
}

func (bc *BillingController) renderBillingForm(c *gin.Context, form billForm, errs services.ValidationErrors) {
	books, err := bc.billing.ListBooksForBilling(c.Request.Context())
	if err != nil {
		bc.serverError(c, err, "books")
		return
	}
	if errs == nil {
		errs = services.ValidationErrors{}
	}

	bc.render(c, http.StatusOK, "billing", gin.H{
		"Title":  "New bill",
		"Books":  books,
		"Form":   form,
		"Errors": errs,
	})
}
