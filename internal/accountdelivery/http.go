// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/go-petr/fx-ledger/internal/middleware"
	"github.com/go-petr/fx-ledger/pkg/errorspkg"
	"github.com/go-petr/fx-ledger/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	GetAccounts(ctx context.Context, userID int64) ([]domain.Account, error)
	GetAccountBalance(ctx context.Context, userID, accountID int64) (domain.Account, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) Handler {
	return Handler{service: as}
}

type data struct {
	Account domain.Account `json:"account"`
}
type response struct {
	Data data `json:"data,omitempty"`
}

type dataAccounts struct {
	Accounts []domain.Account `json:"accounts"`
}
type responseAccounts struct {
	Data dataAccounts `json:"data,omitempty"`
}

// errStatus maps a query failure to the http status code and client facing error.
func errStatus(err error) (int, error) {
	switch {
	case errors.Is(err, domain.ErrInvalidReference):
		return http.StatusNotFound, domain.ErrAccountNotFound
	case errors.Is(err, domain.ErrEngineUnavailable):
		return http.StatusServiceUnavailable, domain.ErrEngineUnavailable
	}

	return http.StatusInternalServerError, errorspkg.ErrInternal
}

func writeErr(gctx *gin.Context, err error) {
	status, clientErr := errStatus(err)
	if status == http.StatusServiceUnavailable {
		gctx.Header("Retry-After", "1")
	}

	gctx.JSON(status, web.Error(clientErr))
}

// List handles http request to list the accounts of the authenticated user.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	userID, ok := middleware.UserID(gctx)
	if !ok {
		gctx.JSON(http.StatusUnauthorized, web.Error(middleware.ErrAuthHeaderNotFound))
		return
	}

	accounts, err := h.service.GetAccounts(ctx, userID)
	if err != nil {
		writeErr(gctx, err)
		return
	}

	res := responseAccounts{
		Data: dataAccounts{accounts},
	}

	gctx.JSON(http.StatusOK, res)
}

type getRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// Get handles http request to get one account with its balance.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		var (
			ve     validator.ValidationErrors
			errMsg = "invalid account id"
		)

		if errors.As(err, &ve) {
			field := ve[0]
			errMsg = field.Field() + web.GetErrorMsg(field)
		}

		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: errMsg})

		return
	}

	userID, ok := middleware.UserID(gctx)
	if !ok {
		gctx.JSON(http.StatusUnauthorized, web.Error(middleware.ErrAuthHeaderNotFound))
		return
	}

	acc, err := h.service.GetAccountBalance(ctx, userID, req.ID)
	if err != nil {
		writeErr(gctx, err)
		return
	}

	res := response{
		Data: data{acc},
	}

	gctx.JSON(http.StatusOK, res)
}
