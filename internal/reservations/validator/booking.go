package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"innkeep/pkg/logger"
	"innkeep/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// ParseStay parses wire-format YYYY-MM-DD dates into midnight-UTC instants.
// Both dates are required; a booking without a parseable stay cannot be
// checked for availability at all.
func ParseStay(checkInStr, checkOutStr string) (time.Time, time.Time, ValidationErrors) {
	var errs ValidationErrors

	checkIn, err := parseDate(checkInStr)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   "check_in",
			Message: err.Error(),
		})
	}

	checkOut, err := parseDate(checkOutStr)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   "check_out",
			Message: err.Error(),
		})
	}

	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}

	return checkIn, checkOut, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("date is required in YYYY-MM-DD format")
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, must be YYYY-MM-DD", s)
	}

	return t.UTC(), nil
}

// Validate checks a fully assembled booking. The degenerate stay check runs
// before the struct pass so it wins over the gtfield tag with a readable
// message.
func (v *BookingValidator) Validate(booking *model.Booking) error {
	if !booking.CheckOut.IsZero() && !booking.CheckIn.IsZero() && !booking.CheckOut.After(booking.CheckIn) {
		return ValidationErrors{
			ValidationError{
				Field:   "check_out",
				Message: "check_out must be after check_in",
			},
		}
	}

	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return nil
}

func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.RoomID == "" && update.CheckIn == "" && update.CheckOut == "" {
		return ValidationErrors{
			ValidationError{
				Field:   "update",
				Message: "at least one of room_id, check_in, check_out must be provided",
			},
		}
	}

	return nil
}

// jsonFieldName makes translated errors report wire field names (check_out,
// room_id) instead of Go struct names.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
