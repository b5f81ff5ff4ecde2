package services

import "errors"

var (
	ErrPromptNotFound   = errors.New("prompt not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category with this name already exists")
	ErrCategoryInUse    = errors.New("cannot delete category that contains prompts")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrInvalidInput     = errors.New("invalid input data")

	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
