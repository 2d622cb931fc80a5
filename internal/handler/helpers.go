package handler

import (
	"net/http"
	"reflect"

	"chainpilot/internal/apierror"
	"chainpilot/internal/apperr"
	"chainpilot/internal/dto"
	"chainpilot/internal/model"
	"chainpilot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
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
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query strings.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid query: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
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

// respondError writes the envelope for a domain error.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := apierror.FromError(err)
	c.JSON(status, body)
}

// paramID parses a uuid path parameter, writing a 400 when it is malformed.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return uuid.Nil, false
	}
	return id, true
}

// queryLocation resolves the optional location filter. nil means "the whole
// scope of the actor".
func queryLocation(q dto.LocationQuery) (*service.Location, error) {
	if q.LocationID == "" && q.LocationType == "" {
		return nil, nil
	}
	return parseLocation(q.LocationType, q.LocationID)
}

func parseLocation(locationType, locationID string) (*service.Location, error) {
	t, err := model.ParseLocationType(locationType)
	if err != nil {
		return nil, apperr.Invalid("%v", err)
	}
	id, err := uuid.Parse(locationID)
	if err != nil {
		return nil, apperr.Invalid("invalid location id %q", locationID)
	}
	return &service.Location{ID: id, Type: t}, nil
}
