package timeoff

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/peopledear/peopledear/generic"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag  = "notblank"
	notBlankText = "{0} cannot be blank"
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterTranslation(notBlankTag, translator,
		func(t ut.Translator) error { return t.Add(notBlankTag, notBlankText, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(notBlankTag, fe.Field())
			return s
		},
	)
}

// ValidateInput runs struct tag validation and returns a
// *generic.ValidationError with one translated message per failed field.
func ValidateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &generic.ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), fe.Translate(translator))
	}
	return out
}

// =============================================================================
// INPUTS
// =============================================================================

// CreateRequestInput is the submission of a time-off request.
type CreateRequestInput struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	TypeID     string `json:"time_off_type_id" validate:"required"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsHalfDay  bool   `json:"is_half_day"`
	Reason     string `json:"reason,omitempty" validate:"max=1000"`
}

// TimeOffTypeInput creates or updates an organization's time-off type.
// Day quantities are decimals in days.
type TimeOffTypeInput struct {
	ID                    string  `json:"id,omitempty"`
	Kind                  string  `json:"kind" validate:"required,oneof=vacation sick_leave personal_day bereavement"`
	Name                  string  `json:"name" validate:"required,notblank,max=100"`
	RequiresApproval      bool    `json:"requires_approval"`
	RequiresJustification bool    `json:"requires_justification"`
	BalanceMode           string  `json:"balance_mode,omitempty" validate:"omitempty,oneof=none annual"`
	Inactive              bool    `json:"inactive,omitempty"`
	AnnualAllowance       float64 `json:"annual_allowance,omitempty" validate:"gte=0"`
	AccrualDaysPerMonth   float64 `json:"accrual_days_per_month,omitempty" validate:"gte=0"`
	CarryOverEnabled      bool    `json:"carry_over_enabled,omitempty"`
	CarryOverLimit        float64 `json:"carry_over_limit,omitempty" validate:"gte=0"`
	MaxDaysPerRequest     float64 `json:"max_days_per_request,omitempty" validate:"gte=0"`
	MaxRequestsPerYear    int     `json:"max_requests_per_year,omitempty" validate:"gte=0"`
}

// Validate checks the field rules and that the balance mode matches the
// kind: only vacation draws from the ledger.
func (in TimeOffTypeInput) Validate() error {
	if err := ValidateInput(in); err != nil {
		return err
	}
	if in.BalanceMode != "" && BalanceMode(in.BalanceMode) != modeOf(TypeKind(in.Kind)) {
		return generic.NewValidationError("balance_mode",
			fmt.Sprintf("%s types must use balance mode %s", in.Kind, modeOf(TypeKind(in.Kind))))
	}
	return nil
}

func modeOf(kind TypeKind) BalanceMode {
	if kind == KindVacation {
		return BalanceAnnual
	}
	return BalanceNone
}

// ToType converts the input into a TimeOffType for orgID.
func (in TimeOffTypeInput) ToType(orgID generic.OrganizationID) TimeOffType {
	mode := BalanceMode(in.BalanceMode)
	if mode == "" {
		mode = modeOf(TypeKind(in.Kind))
	}
	return TimeOffType{
		ID:                    in.ID,
		OrganizationID:        orgID,
		Kind:                  TypeKind(in.Kind),
		Name:                  strings.TrimSpace(in.Name),
		RequiresApproval:      in.RequiresApproval,
		RequiresJustification: in.RequiresJustification,
		BalanceMode:           mode,
		IsActive:              !in.Inactive,
		Config: BalanceConfig{
			AnnualAllowance:     generic.AmountFromFloat(in.AnnualAllowance),
			AccrualDaysPerMonth: generic.AmountFromFloat(in.AccrualDaysPerMonth),
			CarryOverEnabled:    in.CarryOverEnabled,
			CarryOverLimit:      generic.AmountFromFloat(in.CarryOverLimit),
			MaxDaysPerRequest:   generic.AmountFromFloat(in.MaxDaysPerRequest),
			MaxRequestsPerYear:  in.MaxRequestsPerYear,
		},
	}
}

// EmployeeInput adds an employee to the organization.
type EmployeeInput struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name" validate:"required,notblank,max=200"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role,omitempty" validate:"omitempty,oneof=employee manager owner"`
}

// HolidayInput adds an organization holiday.
type HolidayInput struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `json:"name" validate:"required,notblank,max=200"`
	Recurring bool   `json:"recurring"`
}

// BalanceInput sets an employee's balance for a year, in days.
type BalanceInput struct {
	FromLastYear float64 `json:"from_last_year" validate:"gte=0"`
	Accrued      float64 `json:"accrued" validate:"gte=0"`
	Taken        float64 `json:"taken" validate:"gte=0"`
}
