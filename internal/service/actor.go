package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/scheduling"
)

// ErrForbidden is returned when the actor's role does not permit the operation.
var ErrForbidden = errors.New("insufficient permissions")

// Actor is the already authenticated user performing an operation.
type Actor struct {
	ID   string
	Name string
	Role models.Role
}

// IsAdmin reports whether the actor reviews reservations.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanManageRooms reports whether the actor maintains room status and utilities.
func (a Actor) CanManageRooms() bool {
	return a.Role == models.RoleFacility || a.Role == models.RoleAdmin
}

// CanRequest reports whether the actor may submit reservation requests.
func (a Actor) CanRequest() bool {
	switch a.Role {
	case models.RoleStudent, models.RoleFaculty, models.RoleAdmin:
		return true
	}
	return false
}

func (a Actor) label() string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	return a.ID
}

// NewValidator returns a validator that reports JSON field names. It also knows the
// end_clock tag, an HH:MM time of day that may be "24:00".
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	_ = validate.RegisterValidation("end_clock", func(fl validator.FieldLevel) bool {
		_, err := scheduling.ParseEndClock(fl.Field().String())
		return err == nil
	})
	return validate
}
