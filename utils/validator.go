package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	nikRegex       = regexp.MustCompile(`^[0-9]{16}$`)
	phoneRegex     = regexp.MustCompile(`^08[1-9][0-9]{6,11}$`)
	eventCodeRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{1,19}$`)

	phoneReplacer = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
)

// ValidationError is a single invalid field
type ValidationError struct {
	Field   string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors groups the field errors of one payload
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Fields maps each invalid field to its message.
func (v ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(v))
	for _, e := range v {
		if _, ok := fields[e.Field]; !ok {
			fields[e.Field] = e.Message
		}
	}
	return fields
}

// Collect merges the ValidationError values among errs. It returns nil when
// all of errs are nil; any other error is returned as is.
func Collect(errs ...error) error {
	var out ValidationErrors
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ve ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		out = append(out, ve)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// NormalizeNIK strips the spaces people type between digit groups.
func NormalizeNIK(nik string) string {
	return strings.ReplaceAll(strings.TrimSpace(nik), " ", "")
}

// ValidateNIK checks an Indonesian national identity number: sixteen digits.
func ValidateNIK(nik string) error {
	nik = NormalizeNIK(nik)
	if nik == "" {
		return ValidationError{Field: "nik", Message: "NIK is required"}
	}
	if !nikRegex.MatchString(nik) {
		return ValidationError{Field: "nik", Message: "NIK must be exactly 16 digits"}
	}
	if strings.Trim(nik, "0") == "" {
		return ValidationError{Field: "nik", Message: "NIK is invalid"}
	}
	return nil
}

// NormalizePhone returns the local 08xx form of an Indonesian mobile number.
func NormalizePhone(phone string) string {
	phone = phoneReplacer.Replace(strings.TrimSpace(phone))
	switch {
	case strings.HasPrefix(phone, "+62"):
		phone = "0" + phone[3:]
	case strings.HasPrefix(phone, "62"):
		phone = "0" + phone[2:]
	}
	return phone
}

func ValidatePhone(phone string) error {
	phone = NormalizePhone(phone)
	if phone == "" {
		return ValidationError{Field: "phone", Message: "phone number is required"}
	}
	if !phoneRegex.MatchString(phone) {
		return ValidationError{Field: "phone", Message: "invalid phone number format"}
	}
	return nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// NormalizeEventCode upper-cases and trims a seminar code.
func NormalizeEventCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func ValidateEventCode(code string) error {
	code = NormalizeEventCode(code)
	if code == "" {
		return ValidationError{Field: "code", Message: "code is required"}
	}
	if !eventCodeRegex.MatchString(code) {
		return ValidationError{Field: "code", Message: "code must be 2-20 letters, digits or dashes"}
	}
	return nil
}

func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: fmt.Sprintf("%s is required", field)}
	}
	return nil
}

// MaskNIK keeps the first and last four digits.
func MaskNIK(nik string) string {
	if len(nik) <= 8 {
		return nik
	}
	return nik[:4] + strings.Repeat("*", len(nik)-8) + nik[len(nik)-4:]
}

var registerOnce sync.Once

// RegisterBindings adds the nik and idphone tags to gin's validator and
// makes its errors name fields by their json or form key.
func RegisterBindings() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		// report json/form names instead of Go field names
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
		if err = v.RegisterValidation("nik", func(fl validator.FieldLevel) bool {
			return ValidateNIK(fl.Field().String()) == nil
		}); err != nil {
			return
		}
		err = v.RegisterValidation("idphone", func(fl validator.FieldLevel) bool {
			return ValidatePhone(fl.Field().String()) == nil
		})
	})
	return err
}
