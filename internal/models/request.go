package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CreateEventRequest is the body of POST /events.
type CreateEventRequest struct {
	Title         string `json:"title"`
	Date          Date   `json:"date"`
	Status        Status `json:"status,omitempty"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	Location      string `json:"location,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

// ToEvent trims every text field and applies the Pending default.
func (r CreateEventRequest) ToEvent() Event {
	status := Status(strings.TrimSpace(string(r.Status)))
	if status == "" {
		status = StatusPending
	}
	return Event{
		Title:         strings.TrimSpace(r.Title),
		Date:          r.Date,
		Status:        status,
		CustomerName:  strings.TrimSpace(r.CustomerName),
		CustomerPhone: strings.TrimSpace(r.CustomerPhone),
		Location:      strings.TrimSpace(r.Location),
		CustomerEmail: strings.TrimSpace(r.CustomerEmail),
	}
}

// UpdateEventRequest is the body of PUT /events. Nil fields are left as stored.
type UpdateEventRequest struct {
	ID            string  `json:"id,omitempty"`
	LegacyID      string  `json:"_id,omitempty"`
	Title         *string `json:"title,omitempty"`
	Date          *Date   `json:"date,omitempty"`
	Status        *Status `json:"status,omitempty"`
	CustomerName  *string `json:"customerName,omitempty"`
	CustomerPhone *string `json:"customerPhone,omitempty"`
	Location      *string `json:"location,omitempty"`
	CustomerEmail *string `json:"customerEmail,omitempty"`
}

// EventID prefers id over the legacy _id key.
func (r UpdateEventRequest) EventID() string {
	if id := strings.TrimSpace(r.ID); id != "" {
		return id
	}
	return strings.TrimSpace(r.LegacyID)
}

func (r UpdateEventRequest) HasChanges() bool {
	return r.Title != nil || r.Date != nil || r.Status != nil || r.CustomerName != nil ||
		r.CustomerPhone != nil || r.Location != nil || r.CustomerEmail != nil
}

// IsStatusOnly reports whether the request changes nothing but the status.
func (r UpdateEventRequest) IsStatusOnly() bool {
	return r.Status != nil && r.Title == nil && r.Date == nil && r.CustomerName == nil &&
		r.CustomerPhone == nil && r.Location == nil && r.CustomerEmail == nil
}

// Apply merges the non-nil fields onto ev, trimming text.
func (r UpdateEventRequest) Apply(ev *Event) {
	if r.Title != nil {
		ev.Title = strings.TrimSpace(*r.Title)
	}
	if r.Date != nil {
		ev.Date = *r.Date
	}
	if r.Status != nil {
		ev.Status = Status(strings.TrimSpace(string(*r.Status)))
	}
	if r.CustomerName != nil {
		ev.CustomerName = strings.TrimSpace(*r.CustomerName)
	}
	if r.CustomerPhone != nil {
		ev.CustomerPhone = strings.TrimSpace(*r.CustomerPhone)
	}
	if r.Location != nil {
		ev.Location = strings.TrimSpace(*r.Location)
	}
	if r.CustomerEmail != nil {
		ev.CustomerEmail = strings.TrimSpace(*r.CustomerEmail)
	}
}

// eventRules mirrors Event with validation tags so the storage model stays tag-free.
type eventRules struct {
	Title         string `json:"title" validate:"required"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	Status        string `json:"status" validate:"required,oneof=Pending Confirmed Completed Cancelled"`
	CustomerName  string `json:"customerName" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"omitempty,email"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateEvent checks the fields every stored event must satisfy.
func ValidateEvent(ev Event) error {
	rules := eventRules{
		Title:         ev.Title,
		Date:          string(ev.Date),
		Status:        string(ev.Status),
		CustomerName:  ev.CustomerName,
		CustomerEmail: ev.CustomerEmail,
	}
	err := validate.Struct(rules)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewValidationError(err.Error())
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return NewValidationError(problems...)
}

// ValidEmail reports whether s is a usable recipient address.
func ValidEmail(s string) bool {
	return validate.Var(strings.TrimSpace(s), "required,email") == nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of Pending, Confirmed, Completed, Cancelled", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must be formatted YYYY-MM-DD", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
