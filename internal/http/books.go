package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/middleware"
	"github.com/mrlokans/bookstore/internal/services"
)

// bookForm holds the raw form values so a rejected submission can be shown
// back exactly as typed.
type bookForm struct {
	Title  string `form:"title"`
	Author string `form:"author"`
	Year   string `form:"year"`
	Genre  string `form:"genre"`
	Price  string `form:"price"`
}

func bookFormFrom(book *entities.Book) bookForm {
	return bookForm{
		Title:  book.Title,
		Author: book.Author,
		Year:   strconv.Itoa(book.Year),
		Genre:  book.GenreOrEmpty(),
		Price:  strconv.FormatFloat(book.Price, 'f', -1, 64),
	}
}

// input converts the form into a BookInput. Numbers that do not parse are
// reported together with every other validation failure.
func (f bookForm) input() (services.BookInput, error) {
	in := services.BookInput{Title: f.Title, Author: f.Author, Genre: f.Genre}
	parseErrs := services.ValidationErrors{}

	if s := strings.TrimSpace(f.Year); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil {
			parseErrs["year"] = "Year must be a whole number"
		} else {
			in.Year = &year
		}
	}
	if s := strings.TrimSpace(f.Price); s != "" {
		price, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(price, 0) || math.IsNaN(price) {
			parseErrs["price"] = "Price must be a number"
		} else {
			in.Price = &price
		}
	}

	if len(parseErrs) == 0 {
		return in, nil
	}
	if verrs, ok := services.AsValidationErrors(in.Validate()); ok {
		for field, msg := range verrs {
			if _, taken := parseErrs[field]; !taken {
				parseErrs[field] = msg
			}
		}
	}
	return in, parseErrs
}

// BooksController serves the catalog pages.
type BooksController struct {
	pages
	catalog Catalog
}

func NewBooksController(catalog Catalog, flashes Flasher) *BooksController {
	return &BooksController{
		pages:   pages{flashes: flashes},
		catalog: catalog,
	}
}

// Index lists books.
// GET /?search=&sort_by=
func (bc *BooksController) Index(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	sortBy := books.NormalizeSort(c.Query("sort_by"))

	list, err := bc.catalog.ListBooks(c.Request.Context(), search, sortBy)
	if err != nil {
		bc.serverError(c, err, "books")
		return
	}

	data := gin.H{
		"Title":  "Books",
		"Books":  list,
		"Count":  len(list),
		"Search": search,
		"SortBy": sortBy,
	}
	if search != "" {
		total, err := bc.catalog.CountBooks(c.Request.Context())
		if err != nil {
			bc.serverError(c, err, "books")
			return
		}
		data["Total"] = total
	}

	bc.render(c, http.StatusOK, "index", data)
}

// AddForm renders an empty book form.
// GET /add
func (bc *BooksController) AddForm(c *gin.Context) {
	bc.renderForm(c, "Add book", "/add", bookForm{}, nil)
}

// Add creates a book.
// POST /add
func (bc *BooksController) Add(c *gin.Context) {
	var form bookForm
	if !bc.bindForm(c, &form) {
		return
	}

	in, err := form.input()
	if err == nil {
		var book *entities.Book
		book, err = bc.catalog.AddBook(c.Request.Context(), in)
		if err == nil {
			bc.redirect(c, "/", middleware.FlashSuccess, fmt.Sprintf("Book %q added.", book.Title))
			return
		}
	}

	if verrs, ok := services.AsValidationErrors(err); ok {
		bc.renderForm(c, "Add book", "/add", form, verrs)
		return
	}
	bc.mutationFailed(c, "/", err)
}

// EditForm renders the form pre-filled with the stored book.
// GET /edit/:book_id
func (bc *BooksController) EditForm(c *gin.Context) {
	id, ok := parseID(c, "book_id")
	if !ok {
		bc.notFound(c, "Book not found")
		return
	}

	book, err := bc.catalog.GetBook(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		bc.notFound(c, "Book not found")
		return
	}
	if err != nil {
		bc.serverError(c, err, "book")
		return
	}

	bc.renderForm(c, "Edit book", editPath(id), bookFormFrom(book), nil)
}

// Edit overwrites a book.
// POST /edit/:book_id
func (bc *BooksController) Edit(c *gin.Context) {
	id, ok := parseID(c, "book_id")
	if !ok {
		bc.notFound(c, "Book not found")
		return
	}

	var form bookForm
	if !bc.bindForm(c, &form) {
		return
	}

	in, err := form.input()
	if err != nil {
		// Unknown ids answer 404 even when the form is also invalid.
		if _, getErr := bc.catalog.GetBook(c.Request.Context(), id); errors.Is(getErr, services.ErrNotFound) {
			bc.notFound(c, "Book not found")
			return
		}
	} else {
		var book *entities.Book
		book, err = bc.catalog.EditBook(c.Request.Context(), id, in)
		if err == nil {
			bc.redirect(c, "/", middleware.FlashSuccess, fmt.Sprintf("Book %q updated.", book.Title))
			return
		}
	}

	if errors.Is(err, services.ErrNotFound) {
		bc.notFound(c, "Book not found")
		return
	}
	if verrs, ok := services.AsValidationErrors(err); ok {
		bc.renderForm(c, "Edit book", editPath(id), form, verrs)
		return
	}
	bc.mutationFailed(c, "/", err)
}

// Delete removes a book.
// POST /delete/:book_id
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseID(c, "book_id")
	if !ok {
		bc.notFound(c, "Book not found")
		return
	}

	err := bc.catalog.DeleteBook(c.Request.Context(), id)
	switch {
	case err == nil:
		bc.redirect(c, "/", middleware.FlashSuccess, "Book deleted.")
	case errors.Is(err, services.ErrNotFound):
		bc.notFound(c, "Book not found")
	case errors.Is(err, services.ErrBookHasBills):
		bc.redirect(c, "/", middleware.FlashError, "Cannot delete this book while bills reference it. Delete its bills first.")
	default:
		bc.mutationFailed(c, "/", err)
	}
}

func (bc *BooksController) renderForm(c *gin.Context, title, action string, form bookForm, errs services.ValidationErrors) {
	if errs == nil {
		errs = services.ValidationErrors{}
	}
	bc.render(c, http.StatusOK, "book_form", gin.H{
		"Title":  title,
		"Action": action,
		"Form":   form,
		"Errors": errs,
	})
}

func editPath(id uint) string {
	return fmt.Sprintf("/edit/%d", id)
}
