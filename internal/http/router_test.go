package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/audit"
	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	dbaudit "github.com/mrlokans/bookstore/internal/database/audit"
	"github.com/mrlokans/bookstore/internal/database/dbtest"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/middleware"
	"github.com/mrlokans/bookstore/internal/services"
)

const templatesPath = "../../templates"

// browser sends requests to a router and keeps the cookies it is given.
type browser struct {
	t       *testing.T
	router  *gin.Engine
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, router *gin.Engine) *browser {
	return &browser{t: t, router: router, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)

	for _, ck := range (&http.Response{Header: w.Header()}).Cookies() {
		b.cookies[ck.Name] = ck
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, nil)
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return b.do(http.MethodPost, path, form)
}

type testApp struct {
	db      *gorm.DB
	audit   *audit.Service
	router  *gin.Engine
	browser *browser
}

// newTestApp wires real services over a migrated, seeded SQLite database.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store := dbtest.Open(t)
	_, err := database.Seed(context.Background(), store.DB)
	require.NoError(t, err)

	auditService := audit.NewService(dbaudit.NewRepository(store.DB))
	t.Cleanup(auditService.Flush)

	router := NewRouter(RouterConfig{
		Catalog:       services.NewCatalogService(store.DB, auditService),
		Billing:       services.NewBillingService(store.DB, auditService),
		Audit:         auditService,
		DB:            store,
		Sessions:      middleware.NewSessionManager(nil, config.Session{Lifetime: time.Hour}),
		TemplatesPath: templatesPath,
		Version:       "test",
	})

	return &testApp{
		db:      store.DB,
		audit:   auditService,
		router:  router,
		browser: newBrowser(t, router),
	}
}

var bookTitleCell = regexp.MustCompile(`<td class="book-title">([^<]*)</td>`)

func listedTitles(body string) []string {
	var titles []string
	for _, m := range bookTitleCell.FindAllStringSubmatch(body, -1) {
		titles = append(titles, m[1])
	}
	return titles
}

func bookIDByTitle(t *testing.T, db *gorm.DB, title string) uint {
	t.Helper()
	var book entities.Book
	require.NoError(t, db.Where("title = ?", title).First(&book).Error)
	return book.ID
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestIndex(t *testing.T) {
	app := newTestApp(t)

	t.Run("lists every seeded book by id", func(t *testing.T) {
		w := app.browser.get("/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{
			"To Kill a Mockingbird", "1984", "The Great Gatsby", "Pride and Prejudice", "The Hobbit",
		}, listedTitles(w.Body.String()))
	})

	t.Run("search is case-insensitive over title and author", func(t *testing.T) {
		w := app.browser.get("/?search=++TOLKIEN++")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"The Hobbit"}, listedTitles(w.Body.String()))

		w = app.browser.get("/?search=gatsby")
		assert.Equal(t, []string{"The Great Gatsby"}, listedTitles(w.Body.String()))
		assert.Contains(t, w.Body.String(), "1 of 5 book(s)")
	})

	t.Run("unknown sort falls back to id", func(t *testing.T) {
		byID := listedTitles(app.browser.get("/").Body.String())
		assert.Equal(t, byID, listedTitles(app.browser.get("/?sort_by=price").Body.String()))
	})

	t.Run("sorts by year", func(t *testing.T) {
		w := app.browser.get("/?sort_by=year")
		assert.Equal(t, []string{
			"Pride and Prejudice", "The Great Gatsby", "The Hobbit", "1984", "To Kill a Mockingbird",
		}, listedTitles(w.Body.String()))
	})
}

func TestAddBook(t *testing.T) {
	app := newTestApp(t)

	t.Run("form renders", func(t *testing.T) {
		w := app.browser.get("/add")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `name="title"`)
	})

	t.Run("invalid input re-renders with field errors", func(t *testing.T) {
		w := app.browser.post("/add", url.Values{
			"title":  {"   "},
			"author": {"Someone"},
			"year":   {"10000"},
			"price":  {"0"},
		})
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Title is required")
		assert.Contains(t, body, "Year must be at most 9999")
		assert.Contains(t, body, "Price must be greater than 0")
		assert.Contains(t, body, `value="Someone"`, "submitted values are kept")
		assert.EqualValues(t, 5, countRows(t, app.db, &entities.Book{}))
	})

	t.Run("infinite price is rejected", func(t *testing.T) {
		w := app.browser.post("/add", url.Values{
			"title": {"Dune"}, "author": {"Frank Herbert"}, "year": {"1965"}, "price": {"Inf"},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Price must be a number")
		assert.EqualValues(t, 5, countRows(t, app.db, &entities.Book{}))
		assert.Equal(t, http.StatusOK, app.browser.get("/api/books").Code)
	})

	t.Run("valid input redirects and flashes once", func(t *testing.T) {
		w := app.browser.post("/add", url.Values{
			"title":  {"  Dune "},
			"author": {"Frank Herbert"},
			"year":   {"1965"},
			"genre":  {""},
			"price":  {"1000"},
		})
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))

		w = app.browser.get("/")
		assert.Contains(t, w.Body.String(), "flash-success")
		assert.Contains(t, w.Body.String(), "added.")
		assert.NotContains(t, app.browser.get("/").Body.String(), "flash-success")

		var book entities.Book
		require.NoError(t, app.db.Where("title = ?", "Dune").First(&book).Error)
		assert.Nil(t, book.Genre)
		assert.EqualValues(t, 6, countRows(t, app.db, &entities.Book{}))
	})
}

func TestEditBook(t *testing.T) {
	app := newTestApp(t)
	id := bookIDByTitle(t, app.db, "1984")

	t.Run("form is pre-filled", func(t *testing.T) {
		w := app.browser.get(editPath(id))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `value="George Orwell"`)
		assert.Contains(t, w.Body.String(), `value="399"`)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, app.browser.get("/edit/9999").Code)
		assert.Equal(t, http.StatusNotFound, app.browser.get("/edit/abc").Code)

		w := app.browser.post("/edit/9999", url.Values{
			"title": {"X"}, "author": {"Y"}, "year": {"2000"}, "price": {"1"},
		})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = app.browser.post("/edit/9999", url.Values{"year": {"soon"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid input re-renders", func(t *testing.T) {
		w := app.browser.post(editPath(id), url.Values{
			"title": {"1984"}, "author": {""}, "year": {"1949"}, "price": {"399"},
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Author is required")
	})

	t.Run("valid input overwrites the book", func(t *testing.T) {
		w := app.browser.post(editPath(id), url.Values{
			"title": {"Nineteen Eighty-Four"}, "author": {"George Orwell"},
			"year": {"1949"}, "genre": {"Dystopian"}, "price": {"420.5"},
		})
		require.Equal(t, http.StatusSeeOther, w.Code)

		var book entities.Book
		require.NoError(t, app.db.First(&book, id).Error)
		assert.Equal(t, "Nineteen Eighty-Four", book.Title)
		assert.Equal(t, 420.5, book.Price)
	})
}

func TestDeleteBook(t *testing.T) {
	app := newTestApp(t)

	t.Run("unknown id is 404", func(t *testing.T) {
		w := app.browser.post("/delete/9999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Book not found")
	})

	t.Run("book with bills is kept", func(t *testing.T) {
		id := bookIDByTitle(t, app.db, "The Hobbit")
		w := app.browser.post("/billing", url.Values{"book_id": {itoa(id)}, "quantity": {"1"}})
		require.Equal(t, http.StatusOK, w.Code)

		w = app.browser.post("/delete/"+itoa(id), nil)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Contains(t, app.browser.get("/").Body.String(), "flash-error")
		assert.EqualValues(t, 5, countRows(t, app.db, &entities.Book{}))
	})

	t.Run("deletes and redirects", func(t *testing.T) {
		id := bookIDByTitle(t, app.db, "1984")
		w := app.browser.post("/delete/"+itoa(id), nil)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
		assert.EqualValues(t, 4, countRows(t, app.db, &entities.Book{}))
	})
}

func TestBilling(t *testing.T) {
	app := newTestApp(t)
	hobbit := bookIDByTitle(t, app.db, "The Hobbit")

	t.Run("form lists books", func(t *testing.T) {
		w := app.browser.get("/billing")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Pride and Prejudice")
	})

	t.Run("invalid quantity re-renders", func(t *testing.T) {
		w := app.browser.post("/billing", url.Values{"book_id": {itoa(hobbit)}, "quantity": {"0"}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Quantity is required")

		w = app.browser.post("/billing", url.Values{"book_id": {itoa(hobbit)}, "quantity": {"-2"}})
		assert.Contains(t, w.Body.String(), "Quantity must be greater than 0")

		w = app.browser.post("/billing", url.Values{"book_id": {itoa(hobbit)}, "quantity": {"two"}})
		assert.Contains(t, w.Body.String(), "Quantity must be a whole number")
		assert.EqualValues(t, 0, countRows(t, app.db, &entities.Bill{}))
	})

	t.Run("unknown book is 404", func(t *testing.T) {
		w := app.browser.post("/billing", url.Values{"book_id": {"9999"}, "quantity": {"1"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("renders confirmation", func(t *testing.T) {
		w := app.browser.post("/billing", url.Values{"book_id": {itoa(hobbit)}, "quantity": {"2"}})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "The Hobbit")
		assert.Contains(t, w.Body.String(), "1040.00")
	})

	t.Run("bills list and delete", func(t *testing.T) {
		w := app.browser.get("/bills")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "1040.00")

		var bill entities.Bill
		require.NoError(t, app.db.First(&bill).Error)

		assert.Equal(t, http.StatusNotFound, app.browser.post("/bills/delete/9999", nil).Code)

		w = app.browser.post("/bills/delete/"+itoa(bill.ID), nil)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/bills", w.Header().Get("Location"))
		assert.Contains(t, app.browser.get("/bills").Body.String(), "No bills yet")
	})
}

func TestDuneEndToEnd(t *testing.T) {
	app := newTestApp(t)

	w := app.browser.post("/add", url.Values{
		"title": {"Dune"}, "author": {"Frank Herbert"}, "year": {"1965"}, "price": {"1000"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = app.browser.get("/?sort_by=title")
	assert.Equal(t, []string{
		"1984", "Dune", "Pride and Prejudice", "The Great Gatsby", "The Hobbit", "To Kill a Mockingbird",
	}, listedTitles(w.Body.String()))

	dune := bookIDByTitle(t, app.db, "Dune")
	w = app.browser.post("/billing", url.Values{"book_id": {itoa(dune)}, "quantity": {"3"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "3000.00")

	var bill entities.Bill
	require.NoError(t, app.db.Where("book_id = ?", dune).First(&bill).Error)
	assert.Equal(t, 3000.0, bill.TotalPrice)

	assert.Equal(t, http.StatusNotFound, app.browser.post("/delete/424242", nil).Code)
}

func TestAPI(t *testing.T) {
	app := newTestApp(t)

	hobbit := bookIDByTitle(t, app.db, "The Hobbit")
	require.Equal(t, http.StatusOK, app.browser.post("/billing", url.Values{
		"book_id": {itoa(hobbit)}, "quantity": {"1"},
	}).Code)

	t.Run("books", func(t *testing.T) {
		w := app.browser.get("/api/books?search=the&sort_by=title")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Books []entities.Book `json:"books"`
			Count int             `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
		assert.Equal(t, "The Great Gatsby", resp.Books[0].Title)

		w = app.browser.get("/api/books/" + itoa(hobbit))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"title": "The Hobbit"`)

		assert.Equal(t, http.StatusNotFound, app.browser.get("/api/books/9999").Code)
		assert.Equal(t, http.StatusBadRequest, app.browser.get("/api/books/nope").Code)
	})

	t.Run("bills", func(t *testing.T) {
		w := app.browser.get("/api/bills")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Bills []entities.Bill `json:"bills"`
			Count int             `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, 520.0, resp.Bills[0].TotalPrice)
		assert.Equal(t, "The Hobbit", resp.Bills[0].Book.Title)

		w = app.browser.get("/api/bills/" + itoa(resp.Bills[0].ID))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, http.StatusNotFound, app.browser.get("/api/bills/9999").Code)
	})

	t.Run("audit", func(t *testing.T) {
		app.audit.Flush()

		w := app.browser.get("/api/audit?entity_type=bill")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Events      []entities.AuditEvent `json:"events"`
			TotalEvents int64                 `json:"total_events"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.EqualValues(t, 1, resp.TotalEvents)
		assert.Equal(t, "bill_create", resp.Events[0].Action)
		assert.NotEmpty(t, resp.Events[0].RequestID)
	})

	t.Run("audit history of one book", func(t *testing.T) {
		require.Equal(t, http.StatusSeeOther, app.browser.post("/add", url.Values{
			"title": {"Dune"}, "author": {"Frank Herbert"}, "year": {"1965"}, "price": {"1000"},
		}).Code)
		dune := bookIDByTitle(t, app.db, "Dune")
		require.Equal(t, http.StatusSeeOther, app.browser.post(editPath(dune), url.Values{
			"title": {"Dune"}, "author": {"Frank Herbert"}, "year": {"1965"}, "price": {"1200"},
		}).Code)
		app.audit.Flush()

		w := app.browser.get("/api/audit?entity_type=book&entity_id=" + itoa(dune))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Events      []entities.AuditEvent `json:"events"`
			TotalEvents int                   `json:"total_events"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, 2, resp.TotalEvents)
		for _, event := range resp.Events {
			require.NotNil(t, event.EntityID)
			assert.Equal(t, dune, *event.EntityID)
		}

		assert.Equal(t, http.StatusBadRequest, app.browser.get("/api/audit?entity_id="+itoa(dune)).Code)
		assert.Equal(t, http.StatusBadRequest, app.browser.get("/api/audit?entity_type=book&entity_id=x").Code)
	})
}

func TestMalformedFormIsBadRequest(t *testing.T) {
	app := newTestApp(t)
	id := bookIDByTitle(t, app.db, "1984")

	for _, path := range []string{"/add", editPath(id), "/billing"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("title=%zz&book_id=%"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()
			app.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotContains(t, w.Body.String(), "is required")
		})
	}
	assert.EqualValues(t, 5, countRows(t, app.db, &entities.Book{}))
	assert.EqualValues(t, 0, countRows(t, app.db, &entities.Bill{}))
}

func TestUnknownRouteIs404(t *testing.T) {
	app := newTestApp(t)
	w := app.browser.get("/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")
}

// failingCatalog fails every write the way a lost connection would.
type failingCatalog struct {
	Catalog
}

func (failingCatalog) AddBook(context.Context, services.BookInput) (*entities.Book, error) {
	return nil, &services.StoreError{Op: "book_create", Err: errors.New("database is locked")}
}

func (failingCatalog) DeleteBook(context.Context, uint) error {
	return &services.StoreError{Op: "book_delete", Err: errors.New("database is locked")}
}

func (failingCatalog) ListBooks(context.Context, string, string) ([]entities.Book, error) {
	return nil, nil
}

func TestStoreErrorsRedirectWithFlash(t *testing.T) {
	router := NewRouter(RouterConfig{
		Catalog:       failingCatalog{},
		Sessions:      middleware.NewSessionManager(nil, config.Session{}),
		TemplatesPath: templatesPath,
	})
	b := newBrowser(t, router)

	w := b.post("/add", url.Values{
		"title": {"Dune"}, "author": {"Frank Herbert"}, "year": {"1965"}, "price": {"1000"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	body := b.get("/").Body.String()
	assert.Contains(t, body, "flash-error")
	assert.Contains(t, body, "database is locked")

	w = b.post("/delete/1", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, b.get("/").Body.String(), "database is locked")
}

func TestCSRFProtectsForms(t *testing.T) {
	key, err := middleware.DeriveCSRFKey("test-secret")
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Catalog:       failingCatalog{},
		Sessions:      middleware.NewSessionManager(nil, config.Session{}),
		CSRFKey:       key,
		TemplatesPath: templatesPath,
	})
	b := newBrowser(t, router)

	w := b.get("/add")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="gorilla.csrf.Token"`)

	w = b.post("/add", url.Values{"title": {"Dune"}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimitedWrites(t *testing.T) {
	router := NewRouter(RouterConfig{
		Catalog:       failingCatalog{},
		RateLimiter:   middleware.NewIPRateLimiter(0.001, 1),
		TemplatesPath: templatesPath,
	})
	b := newBrowser(t, router)

	assert.Equal(t, http.StatusSeeOther, b.post("/delete/1", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, b.post("/delete/1", nil).Code)
	assert.Equal(t, http.StatusOK, b.get("/").Code)
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	router := NewRouter(RouterConfig{
		Catalog:       failingCatalog{},
		RateLimiter:   middleware.NewIPRateLimiter(0.001, 1),
		TemplatesPath: templatesPath,
	})

	post := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/delete/1", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusSeeOther, post("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, post("203.0.113.2"))
}

func TestRequestIDHeader(t *testing.T) {
	app := newTestApp(t)
	w := app.browser.get("/ping")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}
