package validator

import (
	"reflect"
	"strings"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct tag validation with request business rules
type Validator struct {
	structValidator   *validator.Validate
	businessValidator *BusinessValidator
}

func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		businessValidator: NewBusinessValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// ValidateBusiness validates business rules only
func (v *Validator) ValidateBusiness(s interface{}) ValidationErrors {
	return v.businessValidator.Validate(s)
}

// Validate performs complete validation (struct + business rules). Tag failures
// come back as ValidationErrors so callers see one error type.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}

	if errors := v.ValidateBusiness(s); len(errors) > 0 {
		return errors
	}

	return nil
}

func (v *Validator) Business() *BusinessValidator {
	return v.businessValidator
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("task_type", validateTaskType)
	validate.RegisterValidation("mock_type", validateMockType)
	validate.RegisterValidation("navigate_action", validateNavigateAction)
	validate.RegisterValidation("upload_kind", validateUploadKind)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateTaskType(fl validator.FieldLevel) bool {
	validTypes := []models.TaskType{
		models.TaskTypeQuiz,
		models.TaskTypeExamMock,
		models.TaskTypePracticeMock,
		models.TaskTypeCustomMock,
	}

	value := strings.ToUpper(fl.Field().String())
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateMockType(fl validator.FieldLevel) bool {
	validTypes := []models.MockType{
		models.MockTypeListening,
		models.MockTypeReading,
		models.MockTypeWriting,
	}

	value := strings.ToUpper(fl.Field().String())
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateNavigateAction(fl validator.FieldLevel) bool {
	switch models.NavigateAction(fl.Field().String()) {
	case models.NavigateNext, models.NavigatePrevious, models.NavigateSelect, models.NavigatePart:
		return true
	}
	return false
}

func validateUploadKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case models.UploadAvatar, models.UploadAudio, models.UploadImage, models.UploadAttachment:
		return true
	}
	return false
}
