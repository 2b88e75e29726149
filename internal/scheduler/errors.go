package scheduler

import "errors"

// ErrInvalidRating is returned when a rating outside {1,2,3,4} is supplied.
var ErrInvalidRating = errors.New("scheduler: rating must be one of Again, Hard, Good, Easy")
