package main

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/analisys/circulation-go/circulation"
	"github.com/analisys/circulation-go/core"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type openLoanRequest struct {
	UserID string `json:"userId"`
	BookID string `json:"bookId"`
}

type loanResponse struct {
	LoanID   string `json:"loanId"`
	UserID   string `json:"userId"`
	BookID   string `json:"bookId"`
	LoanDate string `json:"loanDate"`
	DueDate  string `json:"dueDate"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// newHTTPHandler builds the HTTP API for the loan workflow.
//
//	POST /loans                open a loan, body {"userId": ..., "bookId": ...}
//	POST /loans/{id}/return    close a loan
//	GET  /loans                list all loans
//	GET  /status               liveness check
func newHTTPHandler(workflow circulation.Workflow, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /loans", func(w http.ResponseWriter, r *http.Request) {
		body, readErr := io.ReadAll(r.Body)
		if readErr != nil {
			writeError(w, http.StatusBadRequest, "reading request body failed")
			return
		}

		var req openLoanRequest
		if unmarshalErr := jsonAPI.Unmarshal(body, &req); unmarshalErr != nil {
			writeError(w, http.StatusBadRequest, "request body is not valid JSON")
			return
		}

		if err := workflow.OpenLoan(r.Context(), req.UserID, req.BookID); err != nil {
			writeWorkflowError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("POST /loans/{id}/return", func(w http.ResponseWriter, r *http.Request) {
		if err := workflow.CloseLoan(r.Context(), r.PathValue("id")); err != nil {
			writeWorkflowError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /loans", func(w http.ResponseWriter, r *http.Request) {
		loans, err := workflow.ListLoans(r.Context())
		if err != nil {
			writeWorkflowError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, loansToResponse(loans))
	})

	mux.HandleFunc("GET /status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}

func loansToResponse(loans []core.Loan) []loanResponse {
	response := make([]loanResponse, 0, len(loans))

	for _, loan := range loans {
		response = append(response, loanResponse{
			LoanID:   loan.ID,
			UserID:   loan.UserID,
			BookID:   loan.BookID,
			LoanDate: loan.LoanDate.Format(time.RFC3339Nano),
			DueDate:  loan.DueDate.Format(time.RFC3339Nano),
			Status:   string(loan.Status),
		})
	}

	return response
}

func writeWorkflowError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, circulation.ErrBookUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, circulation.ErrLoanNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, circulation.ErrEmptyUserID),
		errors.Is(err, circulation.ErrEmptyBookID),
		errors.Is(err, circulation.ErrEmptyLoanID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, circulation.ErrExternalServiceFailure):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("request failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, marshalErr := jsonAPI.Marshal(payload)
	if marshalErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
