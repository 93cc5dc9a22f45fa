package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/safar/storefront/internal/checkout"
	"github.com/safar/storefront/internal/database"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorMapping struct {
	target  error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{checkout.ErrEmptyCart, http.StatusBadRequest, "Cart is empty"},
	{checkout.ErrGatewayUnavailable, http.StatusServiceUnavailable, "Payment gateway not configured"},
	{checkout.ErrMissingSignature, http.StatusBadRequest, "Missing signature"},
	{checkout.ErrInvalidSignature, http.StatusBadRequest, "Invalid payment signature"},
	{checkout.ErrMalformedEvent, http.StatusBadRequest, "Malformed webhook event"},

	{database.ErrOrderNotFound, http.StatusNotFound, "Order not found"},
	{database.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{database.ErrProductNotFound, http.StatusNotFound, "Product not found"},
	{database.ErrDealNotFound, http.StatusNotFound, "Deal not found"},
	{database.ErrTestimonialNotFound, http.StatusNotFound, "Testimonial not found"},
	{database.ErrProductRequestNotFound, http.StatusNotFound, "Product request not found"},
	{database.ErrCartItemNotFound, http.StatusNotFound, "Cart item not found"},

	{database.ErrEmailTaken, http.StatusConflict, "Email already registered"},
	{database.ErrDealCodeTaken, http.StatusConflict, "Deal code already exists"},
	{database.ErrProductInUse, http.StatusConflict, "Product is referenced by existing orders"},
	{database.ErrOrderNotPending, http.StatusConflict, "Order is not pending"},
	{database.ErrDuplicatePendingOrder, http.StatusConflict, "A pending order already exists for this cart"},
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// handleError maps domain errors to responses. Anything unrecognised is
// logged and reported as a generic 500.
func (s *Server) handleError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			respondError(c, m.status, m.message)
			return
		}
	}

	s.logger.ErrorContext(c.Request.Context(), "request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"error", err)
	respondError(c, http.StatusInternalServerError, "Internal server error")
}

// bindJSON decodes and validates the request body, writing a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondValidation(c, err)
		return false
	}
	return true
}

func respondValidation(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"message": "Validation error",
			"errors":  []fieldError{{Field: "body", Message: "must be valid JSON"}},
		})
		return
	}

	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fieldError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"message": "Validation error",
		"errors":  out,
	})
}

func respondFieldError(c *gin.Context, field, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"message": "Validation error",
		"errors":  []fieldError{{Field: field, Message: message}},
	})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a valid id"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "gtefield":
		return fmt.Sprintf("must not be before %s", fe.Param())
	default:
		return "is invalid"
	}
}

var tagNameOnce sync.Once

// registerValidatorTagNames makes validation errors report JSON field names.
func registerValidatorTagNames() {
	tagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}

// pathID reads a UUID path parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context, name, label string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid "+label+" ID")
		return "", false
	}
	return id, true
}
