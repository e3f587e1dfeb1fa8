package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrNotAuthenticated   = fmt.Errorf("authentication credentials were not provided")
	ErrInvalidCredentials = fmt.Errorf("unable to log in with provided credentials")
	ErrInvalidToken       = fmt.Errorf("invalid token")
	ErrPermissionDenied   = fmt.Errorf("you do not have permission to perform this action")
	ErrTooManyRequests    = fmt.Errorf("request was throttled")

	// Relation errors
	ErrSelfSubscription  = fmt.Errorf("cannot subscribe to yourself")
	ErrAlreadySubscribed = fmt.Errorf("already subscribed to this author")
	ErrAlreadyFavorited  = fmt.Errorf("recipe already in favorites")
	ErrNotFavorited      = fmt.Errorf("recipe is not in favorites")
	ErrAlreadyInCart     = fmt.Errorf("recipe already in shopping cart")
	ErrNotInCart         = fmt.Errorf("recipe is not in shopping cart")

	// Persistence errors
	ErrNotFound           = fmt.Errorf("not found")
	ErrAlreadyExists      = fmt.Errorf("already exists")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrMissingArgument   = fmt.Errorf("missing required argument")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrUnsupportedImage  = fmt.Errorf("unsupported image format")
	ErrUnsupportedFormat = fmt.Errorf("unsupported export format")
)
