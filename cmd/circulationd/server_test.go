package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analisys/circulation-go/circulation"
	"github.com/analisys/circulation-go/core"
)

func Test_HTTPHandler_OpenLoan_ReturnsCreated(t *testing.T) {
	// setup
	handler, _ := givenHandler(t, map[string]bool{"book-1": true})

	// act
	response := performRequest(handler, http.MethodPost, "/loans", `{"userId": "user-1", "bookId": "book-1"}`)

	// assert
	assert.Equal(t, http.StatusCreated, response.Code)
}

func Test_HTTPHandler_OpenLoan_RejectsInvalidJSON(t *testing.T) {
	// setup
	handler, _ := givenHandler(t, map[string]bool{"book-1": true})

	// act
	response := performRequest(handler, http.MethodPost, "/loans", `{"userId": `)

	// assert
	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func Test_HTTPHandler_OpenLoan_RejectsMissingIdentifiers(t *testing.T) {
	// setup
	handler, _ := givenHandler(t, map[string]bool{"book-1": true})

	// act
	response := performRequest(handler, http.MethodPost, "/loans", `{"userId": "", "bookId": "book-1"}`)

	// assert
	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func Test_HTTPHandler_OpenLoan_ReportsConflictForUnavailableBook(t *testing.T) {
	// setup
	handler, _ := givenHandler(t, map[string]bool{"book-1": false})

	// act
	response := performRequest(handler, http.MethodPost, "/loans", `{"userId": "user-1", "bookId": "book-1"}`)

	// assert
	assert.Equal(t, http.StatusConflict, response.Code)
	assert.Contains(t, response.Body.String(), "book is not available")
}

func Test_HTTPHandler_CloseLoan_ReturnsNoContent(t *testing.T) {
	// setup
	handler, repo := givenHandler(t, map[string]bool{"book-1": true})

	openResponse := performRequest(handler, http.MethodPost, "/loans", `{"userId": "user-1", "bookId": "book-1"}`)
	require.Equal(t, http.StatusCreated, openResponse.Code)

	loanID := repo.firstLoanID(t)

	// act
	response := performRequest(handler, http.MethodPost, "/loans/"+loanID+"/return", "")

	// assert
	assert.Equal(t, http.StatusNoContent, response.Code)
}

func Test_HTTPHandler_CloseLoan_ReportsNotFoundForUnknownLoan(t *testing.T) {
	// setup
	handler, _ := givenHandler(t, nil)

	// act
	response := performRequest(handler, http.MethodPost, "/loans/no-such-loan/return", "")

	// assert
	assert.Equal(t, http.StatusNotFound, response.Code)
}

func Test_HTTPHandler_ListLoans_ReturnsAllLoans(t *testing.T) {
	// setup
	handler, _ := givenHandler(t, map[string]bool{"book-1": true, "book-2": true})

	require.Equal(t, http.StatusCreated,
		performRequest(handler, http.MethodPost, "/loans", `{"userId": "user-1", "bookId": "book-1"}`).Code)
	require.Equal(t, http.StatusCreated,
		performRequest(handler, http.MethodPost, "/loans", `{"userId": "user-2", "bookId": "book-2"}`).Code)

	// act
	response := performRequest(handler, http.MethodGet, "/loans", "")

	// assert
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "application/json", response.Header().Get("Content-Type"))
	assert.Contains(t, response.Body.String(), `"bookId":"book-1"`)
	assert.Contains(t, response.Body.String(), `"bookId":"book-2"`)
	assert.Contains(t, response.Body.String(), `"status":"ACTIVE"`)
}

func Test_HTTPHandler_Status_ReportsOK(t *testing.T) {
	// setup
	handler, _ := givenHandler(t, nil)

	// act
	response := performRequest(handler, http.MethodGet, "/status", "")

	// assert
	assert.Equal(t, http.StatusOK, response.Code)
	assert.JSONEq(t, `{"status": "ok"}`, response.Body.String())
}

/*** Test Helper Methods ***/

func givenHandler(t *testing.T, availability map[string]bool) (http.Handler, *memoryRepository) {
	t.Helper()

	repo := &memoryRepository{loans: make(map[string]core.Loan)}
	cat := &memoryCatalog{available: availability}

	workflow, err := circulation.NewWorkflow(repo, cat, noopDispatcher{})
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	return newHTTPHandler(workflow, logger), repo
}

func performRequest(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	response := httptest.NewRecorder()
	handler.ServeHTTP(response, request)

	return response
}

type memoryRepository struct {
	mu    sync.Mutex
	loans map[string]core.Loan
}

func (r *memoryRepository) Save(_ context.Context, loan core.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.loans[loan.ID] = loan

	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id core.LoanIDString) (core.Loan, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	loan, found := r.loans[id]

	return loan, found, nil
}

func (r *memoryRepository) FindAll(_ context.Context) ([]core.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	loans := make([]core.Loan, 0, len(r.loans))
	for _, loan := range r.loans {
		loans = append(loans, loan)
	}

	return loans, nil
}

func (r *memoryRepository) firstLoanID(t *testing.T) string {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.loans {
		return id
	}

	t.Fatal("no loan was persisted")

	return ""
}

type memoryCatalog struct {
	mu        sync.Mutex
	available map[string]bool
}

func (c *memoryCatalog) IsAvailable(_ context.Context, bookID core.BookIDString) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.available[bookID], nil
}

func (c *memoryCatalog) SetAvailability(_ context.Context, bookID core.BookIDString, available bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.available == nil {
		c.available = make(map[string]bool)
	}

	c.available[bookID] = available

	return nil
}

type noopDispatcher struct{}

func (noopDispatcher) PublishQueue(context.Context, circulation.Notification) error {
	return nil
}

func (noopDispatcher) PublishStream(context.Context, circulation.Notification) error {
	return nil
}
