package errors

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidMemberRole   = errors.New("invalid member role")
	ErrProjectNotFound     = errors.New("project not found")
	ErrProjectArchived     = errors.New("project archived")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("member already exists")
	ErrLastOwner           = errors.New("project requires at least one owner")
	ErrForbidden           = errors.New("forbidden")
)
