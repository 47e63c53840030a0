package models

// NavigateAction is one of the navigation moves a client can request.
type NavigateAction string

const (
	NavigateNext     NavigateAction = "next"
	NavigatePrevious NavigateAction = "previous"
	NavigateSelect   NavigateAction = "select"
	NavigatePart     NavigateAction = "part"
)

// Upload kinds accepted by the multipart proxy.
const (
	UploadAvatar     = "avatar"
	UploadAudio      = "audio"
	UploadImage      = "image"
	UploadAttachment = "attachment"
)

type StartSessionRequest struct {
	TaskID   string   `json:"task_id" validate:"required,max=64"`
	MockID   string   `json:"mock_id" validate:"omitempty,max=64"`
	MockType MockType `json:"mock_type" validate:"omitempty,mock_type"`
}

type AnswerRequest struct {
	QuestionNumber int    `json:"question_number" validate:"required,min=1"`
	Value          string `json:"value" validate:"max=20000"`
}

type AnswersBatchRequest struct {
	Answers []AnswerRequest `json:"answers" validate:"required,min=1,max=200,dive"`
}

type NavigateRequest struct {
	Action NavigateAction `json:"action" validate:"required,navigate_action"`
	Index  *int           `json:"index" validate:"omitempty,min=0"`
}

type SwitchMockRequest struct {
	MockID   string   `json:"mock_id" validate:"required,max=64"`
	MockType MockType `json:"mock_type" validate:"omitempty,mock_type"`
}

type SubmitRequest struct {
	AllowPartial bool `json:"allow_partial"`
}

type UploadRequest struct {
	Kind string `json:"kind" validate:"required,upload_kind"`
}
