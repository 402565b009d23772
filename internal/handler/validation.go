package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/shareit/service-booking/internal/application"
)

var registerOnce sync.Once

// RegisterValidators installs the struct-level rules on gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterStructValidation(bookingIntervalValidation, application.CreateBookingRequest{})
		}
	})
}

// bookingIntervalValidation rejects a booking whose end is not after start.
func bookingIntervalValidation(sl validator.StructLevel) {
	req := sl.Current().Interface().(application.CreateBookingRequest)
	if req.Start.IsZero() || req.End.IsZero() {
		return
	}
	if !req.End.After(req.Start) {
		sl.ReportError(req.End, "End", "end", "gtfield", "Start")
	}
}
