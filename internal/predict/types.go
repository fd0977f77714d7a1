package predict

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the /get_potency body. Required fields are pointers so a
// missing key can be told apart from a zero value.
type Response struct {
	CanonicalSmile string   `json:"Canonical Smile,omitempty"`
	PIC50          *float64 `json:"pIC50,omitempty"`

	MW   *float64 `json:"MW" validate:"required"`
	LogP *float64 `json:"logP" validate:"required"`
	HBD  *float64 `json:"HBD" validate:"required"`
	HBA  *float64 `json:"HBA" validate:"required"`

	IsPotent  *bool    `json:"ispotent" validate:"required"`
	Inhibitor *string  `json:"inhibitor" validate:"required"`
	IC50      *float64 `json:"IC50" validate:"required"`

	SVG   *string `json:"svg" validate:"required"`
	IUPAC *string `json:"iupac"`
}

// ErrPredictionFailed is reported for every non-2xx response.
var ErrPredictionFailed = errors.New("Failed to get prediction")

// StatusError is a non-2xx response from the service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return ErrPredictionFailed.Error()
}

func (e *StatusError) Unwrap() error {
	return ErrPredictionFailed
}

// TransportError is a failure to complete the HTTP exchange.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the exchange failed because a deadline passed.
func (e *TransportError) Timeout() bool {
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// SchemaError is a 2xx response whose body does not match the contract.
type SchemaError struct {
	Problems []string
	Err      error
}

func (e *SchemaError) Error() string {
	return "Malformed prediction response: " + strings.Join(e.Problems, "; ")
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (c *Client) check(resp *Response) error {
	err := c.validate.Struct(resp)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &SchemaError{Problems: []string{err.Error()}, Err: err}
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			problems = append(problems, fmt.Sprintf("missing %s", fe.Field()))
		default:
			problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return &SchemaError{Problems: problems, Err: err}
}
