package chat

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrReceiverRequired rejects direct messages without a receiver
var ErrReceiverRequired = goerrors.New("Receiver ID required for direct message", goerrors.CategoryValidation).
	WithTextCode("RECEIVER_REQUIRED").
	WithCode(goerrors.CodeBadRequest)

// ErrTechStackRequired rejects broadcasts without a tech stack
var ErrTechStackRequired = goerrors.New("Tech stack required for broadcast", goerrors.CategoryValidation).
	WithTextCode("TECH_STACK_REQUIRED").
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidMessageType rejects unknown message types
var ErrInvalidMessageType = goerrors.New("Invalid message type. Must be direct or broadcast.", goerrors.CategoryValidation).
	WithTextCode("INVALID_MESSAGE_TYPE").
	WithCode(goerrors.CodeBadRequest)

// NoMentorsFound builds the broadcast miss error, naming the tech stack
func NoMentorsFound(techStack string) error {
	return goerrors.New("No mentors found for "+techStack, goerrors.CategoryNotFound).
		WithTextCode("NO_MENTORS_FOUND").
		WithCode(goerrors.CodeNotFound)
}
