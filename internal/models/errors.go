package models

import "errors"

// Error taxonomy for the generation pipeline. Stage-local errors are wrapped
// with fmt.Errorf("%w: ...") so callers can branch with errors.Is.
var (
	// ErrPaymentNotVerified - the checkout session could not be confirmed as paid.
	ErrPaymentNotVerified = errors.New("payment not verified")

	// ErrMalformedResponse - a collaborator returned output that could not be
	// parsed into the expected structured shape.
	ErrMalformedResponse = errors.New("malformed collaborator response")

	// ErrUpstreamGenerationFailure - the text or image provider call itself failed.
	ErrUpstreamGenerationFailure = errors.New("upstream generation failure")

	// ErrStorageUploadFailure - the permanent-storage write failed after a
	// successful generation. Fatal: ephemeral provider URLs must never be persisted.
	ErrStorageUploadFailure = errors.New("storage upload failure")

	// ErrGenerationAlreadyRunning - trigger guard rejection. Not a failure;
	// the caller should keep polling the run that is already in flight.
	ErrGenerationAlreadyRunning = errors.New("generation already running")

	// ErrProgressRegression - a progress write ordered earlier than the stored
	// snapshot. Indicates an orchestrator bug; the write is rejected.
	ErrProgressRegression = errors.New("progress regression rejected")

	// ErrProgressTerminal - a progress write arrived after the run was frozen
	// at complete or failed.
	ErrProgressTerminal = errors.New("progress record is terminal")

	ErrOrderNotFound     = errors.New("order not found")
	ErrStorybookNotFound = errors.New("storybook not found")
	ErrProgressNotFound  = errors.New("generation progress not found")
	ErrChapterNotFound   = errors.New("chapter not found")
)
