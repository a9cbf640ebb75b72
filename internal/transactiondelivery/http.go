// Package transactiondelivery manages delivery layer of transfers and currency exchanges.
package transactiondelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/go-petr/fx-ledger/internal/middleware"
	"github.com/go-petr/fx-ledger/pkg/errorspkg"
	"github.com/go-petr/fx-ledger/pkg/moneypkg"
	"github.com/go-petr/fx-ledger/pkg/web"
)

// RetryAfterSeconds is sent with 503 responses.
const RetryAfterSeconds = "1"

// Service provides service layer interface needed by transaction delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transactiondelivery
type Service interface {
	Transfer(ctx context.Context, userID int64, arg domain.TransferParams) (domain.TransactionResult, error)
	Exchange(ctx context.Context, userID int64, arg domain.ExchangeParams) (domain.TransactionResult, error)
}

// Handler facilitates transaction delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transaction handler.
func NewHandler(ts Service) *Handler {
	return &Handler{
		service: ts,
	}
}

type transferRequest struct {
	FromAccountID int64  `json:"from_account_id" binding:"required,min=1"`
	ToAccountID   int64  `json:"to_account_id" binding:"required,min=1"`
	Amount        string `json:"amount" binding:"required,decimal_gt0"`
	Description   string `json:"description" binding:"max=255"`
}

type exchangeRequest struct {
	FromAccountID int64  `json:"from_account_id" binding:"required,min=1"`
	ToAccountID   int64  `json:"to_account_id" binding:"required,min=1"`
	SourceAmount  string `json:"source_amount" binding:"required,decimal_gt0"`
	ExchangeRate  string `json:"exchange_rate" binding:"required,decimal_gt0"`
	TargetAmount  string `json:"target_amount" binding:"omitempty,decimal_gt0"`
	Description   string `json:"description" binding:"max=255"`
}

type data struct {
	Transaction domain.TransactionResult `json:"transaction"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

// Transfer handles http request to move money between two accounts of the same currency.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req transferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	amount, err := moneypkg.ParseAmount(req.Amount)
	if err != nil {
		l.Info().Err(err).Str("amount", req.Amount).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(domain.ErrInvalidAmount))

		return
	}

	userID, ok := middleware.UserID(gctx)
	if !ok {
		gctx.JSON(http.StatusUnauthorized, web.Error(middleware.ErrAuthHeaderNotFound))
		return
	}

	arg := domain.TransferParams{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
		Description:   req.Description,
	}

	result, err := h.service.Transfer(ctx, userID, arg)
	if err != nil {
		writeErr(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, response{Data: data{result}})
}

// Exchange handles http request to convert money between two accounts of different currencies.
func (h *Handler) Exchange(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req exchangeRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	sourceAmount, err := moneypkg.ParseAmount(req.SourceAmount)
	if err != nil {
		l.Info().Err(err).Str("source_amount", req.SourceAmount).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(domain.ErrInvalidAmount))

		return
	}

	rate, err := moneypkg.ParseRate(req.ExchangeRate)
	if err != nil {
		l.Info().Err(err).Str("exchange_rate", req.ExchangeRate).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(domain.ErrInvalidRate))

		return
	}

	var target decimal.NullDecimal

	if req.TargetAmount != "" {
		d, err := moneypkg.ParsePositive(req.TargetAmount, -1)
		if err != nil {
			l.Info().Err(err).Str("target_amount", req.TargetAmount).Send()
			gctx.JSON(http.StatusBadRequest, web.Error(domain.ErrInvalidTargetAmount))

			return
		}

		target = decimal.NewNullDecimal(d)
	}

	userID, ok := middleware.UserID(gctx)
	if !ok {
		gctx.JSON(http.StatusUnauthorized, web.Error(middleware.ErrAuthHeaderNotFound))
		return
	}

	arg := domain.ExchangeParams{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		SourceAmount:  sourceAmount,
		ExchangeRate:  rate,
		TargetAmount:  target,
		Description:   req.Description,
	}

	result, err := h.service.Exchange(ctx, userID, arg)
	if err != nil {
		writeErr(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, response{Data: data{result}})
}

func badRequest(gctx *gin.Context, err error) {
	var (
		ve     validator.ValidationErrors
		errMsg = "invalid request body"
	)

	if errors.As(err, &ve) {
		field := ve[0]
		errMsg = field.Field() + web.GetErrorMsg(field)
	}

	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, web.Response{Error: errMsg})
}

// StatusCode maps an engine error to the http status code of the response.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInvalidReference):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAccountLocked):
		return http.StatusLocked
	case errors.Is(err, domain.ErrEngineUnavailable):
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

func writeErr(gctx *gin.Context, err error) {
	l := zerolog.Ctx(gctx.Request.Context())

	status := StatusCode(err)

	switch status {
	case http.StatusInternalServerError:
		l.Error().Err(err).Send()
		gctx.JSON(status, web.Error(errorspkg.ErrInternal))
	case http.StatusServiceUnavailable:
		l.Warn().Err(err).Send()
		gctx.Header("Retry-After", RetryAfterSeconds)
		gctx.JSON(status, web.Error(domain.ErrEngineUnavailable))
	default:
		l.Info().Err(err).Send()
		gctx.JSON(status, web.Error(err))
	}
}
