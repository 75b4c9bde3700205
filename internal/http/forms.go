package http

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"billminder/internal/core"
	"billminder/internal/services"
)

// The binder only checks the shape of the input. Business rules and
// warnings live in core.CheckBill and core.CheckPayment.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		_, err := core.ParseDecimalToCents(fl.Field().String())
		return err == nil
	})
	return v
}

// BillForm is the create/edit bill form as posted by the browser or as JSON.
type BillForm struct {
	Name       string `json:"name" label:"Bill name" validate:"max=200"`
	Amount     string `json:"amount" label:"Amount" validate:"omitempty,money"`
	DueDate    string `json:"due_date" label:"Due date" validate:"omitempty,datetime=2006-01-02"`
	Category   string `json:"category" label:"Category"`
	Recurrence string `json:"recurrence" label:"Recurrence" validate:"omitempty,oneof=monthly quarterly yearly"`
	Paid       bool   `json:"paid"`
}

func bindBillForm(p *RequestBodyParser) BillForm {
	return BillForm{
		Name:       sanitizeInput(p.Get("name")),
		Amount:     strings.TrimSpace(p.Get("amount")),
		DueDate:    strings.TrimSpace(p.Get("due_date")),
		Category:   sanitizeInput(p.Get("category")),
		Recurrence: strings.TrimSpace(p.Get("recurrence")),
		Paid:       checked(p.Get("paid")),
	}
}

// ToInput validates the form and converts it. A missing amount or date is
// passed on as zero so the service reports it with its own message.
func (f BillForm) ToInput() (services.BillInput, error) {
	if err := checkForm(f); err != nil {
		return services.BillInput{}, err
	}
	in := services.BillInput{
		Name:       f.Name,
		Category:   core.Category(f.Category),
		Recurrence: core.Recurrence(f.Recurrence),
		Paid:       f.Paid,
	}
	if f.Amount != "" {
		cents, _ := core.ParseDecimalToCents(f.Amount)
		in.Amount = core.Money{Cents: cents}
	}
	if f.DueDate != "" {
		in.DueDate, _ = core.ParseDate(f.DueDate)
	}
	return in, nil
}

// PaymentForm is the record payment form.
type PaymentForm struct {
	BillID   string `json:"bill_id" label:"Bill" validate:"omitempty,number"`
	Amount   string `json:"amount" label:"Payment amount" validate:"omitempty,money"`
	Date     string `json:"payment_date" label:"Payment date" validate:"omitempty,datetime=2006-01-02"`
	Method   string `json:"payment_method" label:"Payment method"`
	Notes    string `json:"notes" label:"Notes" validate:"max=2000"`
	MarkPaid bool   `json:"mark_paid"`
}

func bindPaymentForm(p *RequestBodyParser) PaymentForm {
	return PaymentForm{
		BillID:   strings.TrimSpace(p.Get("bill_id")),
		Amount:   strings.TrimSpace(p.Get("amount")),
		Date:     strings.TrimSpace(p.Get("payment_date")),
		Method:   sanitizeInput(p.Get("payment_method")),
		Notes:    sanitizeInput(p.Get("notes")),
		MarkPaid: checked(p.Get("mark_paid")),
	}
}

func (f PaymentForm) ToInput() (services.PaymentInput, error) {
	if err := checkForm(f); err != nil {
		return services.PaymentInput{}, err
	}
	in := services.PaymentInput{
		Method:   core.PaymentMethod(f.Method),
		Notes:    f.Notes,
		MarkPaid: f.MarkPaid,
	}
	if f.BillID != "" {
		in.BillID, _ = strconv.ParseInt(f.BillID, 10, 64)
	}
	if f.Amount != "" {
		cents, _ := core.ParseDecimalToCents(f.Amount)
		in.Amount = core.Money{Cents: cents}
	}
	if f.Date != "" {
		in.Date, _ = core.ParseDate(f.Date)
	}
	return in, nil
}

// checkForm runs the validator and turns its findings into a
// services.ValidationError so handlers treat both layers alike.
func checkForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	ve := &services.ValidationError{}
	for _, fe := range fieldErrs {
		ve.Errors = append(ve.Errors, fieldMessage(fe))
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "money":
		return fmt.Sprintf("%s must be a positive amount, e.g. 12.50", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must use the YYYY-MM-DD format", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "number":
		return fmt.Sprintf("%s must be a number", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
