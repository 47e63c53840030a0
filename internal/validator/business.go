package validator

import (
	"strings"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
)

// BusinessValidator checks rules that span fields and cannot be expressed as tags
type BusinessValidator struct{}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{}
}

func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	switch req := s.(type) {
	case *models.NavigateRequest:
		return bv.ValidateNavigate(req)
	case *models.AnswersBatchRequest:
		return bv.ValidateAnswersBatch(req)
	case *models.StartSessionRequest:
		return bv.ValidateStart(req)
	}
	return nil
}

// ValidateNavigate requires an index for select and part moves.
func (bv *BusinessValidator) ValidateNavigate(req *models.NavigateRequest) ValidationErrors {
	var errors ValidationErrors
	switch req.Action {
	case models.NavigateSelect, models.NavigatePart:
		if req.Index == nil {
			errors = append(errors, *NewValidationErrorWithRule("index", "is required for "+string(req.Action), "required_with_action", nil))
		}
	case models.NavigateNext, models.NavigatePrevious:
		if req.Index != nil {
			errors = append(errors, *NewValidationErrorWithRule("index", "is not allowed for "+string(req.Action), "excluded_with_action", *req.Index))
		}
	}
	return errors
}

// ValidateAnswersBatch rejects a batch that answers the same number twice.
func (bv *BusinessValidator) ValidateAnswersBatch(req *models.AnswersBatchRequest) ValidationErrors {
	var errors ValidationErrors
	seen := make(map[int]bool, len(req.Answers))
	for _, a := range req.Answers {
		if seen[a.QuestionNumber] {
			errors = append(errors, *NewValidationErrorWithRule("answers", "contains question number more than once", "unique_number", a.QuestionNumber))
			continue
		}
		seen[a.QuestionNumber] = true
	}
	return errors
}

// ValidateStart normalizes mock_type and requires a mock for mock types.
func (bv *BusinessValidator) ValidateStart(req *models.StartSessionRequest) ValidationErrors {
	req.MockType = models.MockType(strings.ToUpper(string(req.MockType)))
	if req.MockType != "" && req.MockID == "" {
		return ValidationErrors{*NewValidationErrorWithRule("mock_id", "is required when mock_type is set", "required_with", nil)}
	}
	return nil
}
