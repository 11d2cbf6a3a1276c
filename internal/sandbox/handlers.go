package sandbox

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/roundup/internal/client/models"
	"github.com/dmitrijs2005/roundup/internal/common"
)

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

type tokenBody struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", ErrorDescription: err.Error()})
		return
	}
	if gt := r.PostForm.Get("grant_type"); gt != "refresh_token" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unsupported_grant_type", ErrorDescription: gt})
		return
	}

	pair, err := s.tokens.Exchange(r.PostForm.Get("client_id"), r.PostForm.Get("client_secret"), r.PostForm.Get("refresh_token"))
	switch {
	case errors.Is(err, ErrInvalidClient):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid_client"})
		return
	case errors.Is(err, ErrInvalidGrant):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_grant", ErrorDescription: "refresh token is not valid"})
		return
	case err != nil:
		s.logger.Error(r.Context(), "token exchange failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "server_error"})
		return
	}

	s.logger.Info(r.Context(), "access token issued", "expires_in", pair.ExpiresIn)
	writeJSON(w, http.StatusOK, tokenBody{
		AccessToken:  pair.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(pair.ExpiresIn / time.Second),
		RefreshToken: pair.RefreshToken,
	})
}

// requireBearer answers 403 for a missing, malformed, expired or revoked
// access token, the way the upstream API does.
func (s *Server) requireBearer(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "invalid_token", ErrorDescription: "missing bearer token"})
			return
		}

		holderUID, err := s.tokens.Authenticate(token)
		if err != nil {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "invalid_token", ErrorDescription: err.Error()})
			return
		}
		if holderUID != s.bank.HolderUID() {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "invalid_token", ErrorDescription: "unknown account holder"})
			return
		}

		next(w, r)
	})
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Accounts []models.Account `json:"accounts"`
	}{Accounts: []models.Account{s.bank.Account()}})
}

func (s *Server) handleAccountHolder(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bank.Holder())
}

func (s *Server) handleTransactionsBetween(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, errFrom := time.Parse(time.RFC3339Nano, q.Get("minTransactionTimestamp"))
	to, errTo := time.Parse(time.RFC3339Nano, q.Get("maxTransactionTimestamp"))
	if errFrom != nil || errTo != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", ErrorDescription: "bad transaction timestamp"})
		return
	}

	items, err := s.bank.TransactionsBetween(r.PathValue("accountUid"), r.PathValue("categoryUid"), from, to)
	if err != nil {
		writeBankError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		FeedItems []models.Transaction `json:"feedItems"`
	}{FeedItems: items})
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.bank.SavingsGoals(r.PathValue("accountUid"))
	if err != nil {
		writeBankError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		SavingsGoalList []models.SavingsGoal `json:"savingsGoalList"`
	}{SavingsGoalList: goals})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string        `json:"name"`
		Currency string        `json:"currency"`
		Target   *models.Money `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", ErrorDescription: err.Error()})
		return
	}

	uid, err := s.bank.CreateSavingsGoal(r.PathValue("accountUid"), req.Name, req.Target)
	if err != nil {
		writeBankError(w, err)
		return
	}
	s.logger.Info(r.Context(), "savings goal created", "goal", uid)
	writeJSON(w, http.StatusOK, struct {
		SavingsGoalUID string `json:"savingsGoalUid"`
		Success        bool   `json:"success"`
	}{SavingsGoalUID: uid, Success: true})
}

func (s *Server) handleAddMoney(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount models.Money `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", ErrorDescription: err.Error()})
		return
	}

	transferUID := r.PathValue("transferUid")
	if err := s.bank.AddMoney(r.PathValue("accountUid"), r.PathValue("goalUid"), transferUID, req.Amount); err != nil {
		writeBankError(w, err)
		return
	}
	s.logger.Info(r.Context(), "money added to goal", "goal", r.PathValue("goalUid"), "minor_units", req.Amount.MinorUnits)
	writeJSON(w, http.StatusOK, struct {
		TransferUID string `json:"transferUid"`
		Success     bool   `json:"success"`
	}{TransferUID: transferUID, Success: true})
}

func writeBankError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found"})
	case errors.Is(err, common.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "server_error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", common.JSONContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
