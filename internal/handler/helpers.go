package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"reflect"

	"playzone/internal/apierror"
	"playzone/internal/middleware"
	"playzone/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// decimal.Decimal is a struct; expose it as a number so min/max/gt work.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds the JSON body and runs the validator tags.
// On false the response is already written.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", "invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindOptionalJSON is bindAndValidate for endpoints whose body may be
// omitted; an empty body leaves req at its zero value.
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", "invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", "invalid query: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", err.Error()))
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
	return false
}

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", "invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var domainErrors = []errorMapping{
	{service.ErrDeviceNotFound, http.StatusNotFound, "device_not_found"},
	{service.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{service.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{service.ErrSaleNotFound, http.StatusNotFound, "sale_not_found"},
	{service.ErrExpenseNotFound, http.StatusNotFound, "expense_not_found"},
	{service.ErrDebtNotFound, http.StatusNotFound, "debt_not_found"},
	{service.ErrUserNotFound, http.StatusNotFound, "user_not_found"},

	{service.ErrDeviceNotAvailable, http.StatusConflict, "device_not_available"},
	{service.ErrDeviceOccupied, http.StatusConflict, "device_occupied"},
	{service.ErrDeviceBusy, http.StatusConflict, "device_busy"},
	{service.ErrDeviceHasHistory, http.StatusConflict, "device_has_history"},
	{service.ErrSessionCompleted, http.StatusConflict, "session_completed"},
	{service.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{service.ErrProductHasSales, http.StatusConflict, "product_has_sales"},
	{service.ErrDebtAlreadyPaid, http.StatusConflict, "debt_already_paid"},
	{service.ErrEmailTaken, http.StatusConflict, "email_taken"},

	{service.ErrInvalidDiscount, http.StatusUnprocessableEntity, "invalid_discount"},
	{service.ErrInvalidRange, http.StatusUnprocessableEntity, "invalid_range"},
	{service.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input"},
}

// respondError writes the response for a service error. Anything that is
// not a domain error is logged and reported without its cause.
func respondError(c *gin.Context, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			c.JSON(m.status, apierror.WithCode(m.code, err.Error()))
			return
		}
	}

	log.Error().
		Err(err).
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("request failed")

	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusServiceUnavailable, apierror.WithCode("unavailable", "storage unavailable, retry"))
		return
	}
	c.JSON(http.StatusInternalServerError, apierror.WithCode("internal", "internal server error"))
}
