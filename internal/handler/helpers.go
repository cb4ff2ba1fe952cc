package handler

import (
	"net/http"
	"reflect"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondServiceError maps the service error taxonomy onto status codes.
// Anything outside the taxonomy is a remote/internal failure: the caller
// must not assume partial success, and nothing is retried automatically.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case apierror.IsValidation(err):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case apierror.IsPrecondition(err):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case apierror.IsNotFound(err):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Erro interno do servidor"))
	}
}
