package usecase

import "fmt"

// ErrPersistence indicates an infrastructure/repository failure inside a use case.
// It is the only error class controllers map to a 5xx response.
var ErrPersistence = fmt.Errorf("pulse use case persistence error")
