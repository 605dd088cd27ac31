package catalog

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrCourseNotFound is returned when a course id resolves to nothing
var ErrCourseNotFound = goerrors.New("Course not found", goerrors.CategoryNotFound).
	WithTextCode("COURSE_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrAlreadyEnrolled guards enroll idempotence
var ErrAlreadyEnrolled = goerrors.New("Already enrolled", goerrors.CategoryConflict).
	WithTextCode("ALREADY_ENROLLED").
	WithCode(goerrors.CodeConflict)

// ErrAlreadyReviewed allows one review per student per course
var ErrAlreadyReviewed = goerrors.New("Course already reviewed", goerrors.CategoryConflict).
	WithTextCode("ALREADY_REVIEWED").
	WithCode(goerrors.CodeConflict)

// ErrInvalidRating rejects ratings outside the 1-5 scale
var ErrInvalidRating = goerrors.New("Rating must be between 1 and 5", goerrors.CategoryValidation).
	WithTextCode("INVALID_RATING").
	WithCode(goerrors.CodeBadRequest)
