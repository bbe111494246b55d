package model

// StartSessionRequest is the payload for starting or resuming a session.
type StartSessionRequest struct {
	Email string `json:"email" binding:"required,max=255"`
	Phone string `json:"phone" binding:"required,max=32"`
}

// CheckAttemptQuery is the query string of the attempt probe.
type CheckAttemptQuery struct {
	Email string `form:"email" binding:"required,max=255"`
	Phone string `form:"phone" binding:"required,max=32"`
}

// SaveProgressRequest is the payload for saving wizard progress.
type SaveProgressRequest struct {
	CurrentStep int      `json:"currentStep" binding:"required,min=1,max=4"`
	FormData    FormData `json:"formData"`
}

// SubmitExamRequest is the payload for the final submit.
type SubmitExamRequest struct {
	FormData   FormData    `json:"formData"`
	MCQAnswers []MCQAnswer `json:"mcqAnswers" binding:"max=200,dive"`
	MCQScore   *MCQScore   `json:"mcqScore"`
}

// FailAssessmentRequest is the payload for locking a session after a failed assessment.
type FailAssessmentRequest struct {
	MCQScore *MCQScore `json:"mcqScore"`
}
