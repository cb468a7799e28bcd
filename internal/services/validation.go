package services

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// Report fields by their json name so messages line up with form fields.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	// finite rejects Inf and NaN, which strconv.ParseFloat accepts.
	_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() == reflect.Ptr {
			if f.IsNil() {
				return true
			}
			f = f.Elem()
		}
		v := f.Float()
		return !math.IsInf(v, 0) && !math.IsNaN(v)
	})
}

// BookInput is the editable part of a book. Year and Price are pointers so a
// missing value can be told apart from zero.
type BookInput struct {
	Title  string   `json:"title" validate:"required,max=200"`
	Author string   `json:"author" validate:"required,max=150"`
	Year   *int     `json:"year" validate:"required,min=0,max=9999"`
	Genre  string   `json:"genre" validate:"max=100"`
	Price  *float64 `json:"price" validate:"required,finite,gt=0"`
}

// Normalize trims every string field.
func (in *BookInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Genre = strings.TrimSpace(in.Genre)
}

// Validate normalizes the input and returns ValidationErrors, or nil.
func (in *BookInput) Validate() error {
	in.Normalize()
	return validateStruct(in)
}

// BillInput selects a book and how many copies were sold.
type BillInput struct {
	BookID   uint `json:"book_id" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,gt=0"`
}

func (in *BillInput) Validate() error {
	return validateStruct(in)
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := ValidationErrors{}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = messageFor(fe)
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	label := fieldLabel(fe.Field())
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, param)
		}
		return fmt.Sprintf("%s must be at most %s", label, param)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, param)
		}
		return fmt.Sprintf("%s must be at least %s", label, param)
	case "finite":
		return fmt.Sprintf("%s must be a finite number", label)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, param)
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// fieldLabel turns "book_id" into "Book id".
func fieldLabel(field string) string {
	label := strings.ReplaceAll(field, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
