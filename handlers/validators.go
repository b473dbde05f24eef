package handlers

import (
	"fmt"
	"strings"
	"sync"

	"learnerslogue/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var registerOnce sync.Once

// RegisterValidators adds the domain tags to gin's validator engine.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic("handlers: gin validator engine is not go-playground/validator")
		}
		must(v.RegisterValidation("role", parses(func(s string) error { _, err := models.ParseRole(s); return err })))
		must(v.RegisterValidation("posttype", parses(func(s string) error { _, err := models.ParsePostType(s); return err })))
		must(v.RegisterValidation("eventtype", parses(func(s string) error { _, err := models.ParseEventType(s); return err })))
		must(v.RegisterValidation("jobtype", parses(func(s string) error { _, err := models.ParseJobType(s); return err })))
		must(v.RegisterValidation("visibility", parses(func(s string) error { _, err := models.ParseVisibility(s); return err })))
		must(v.RegisterValidation("objectid", parses(func(s string) error { _, err := primitive.ObjectIDFromHex(s); return err })))
	})
}

func parses(parse func(string) error) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return parse(fl.Field().String()) == nil
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "objectid", "role", "posttype", "eventtype", "jobtype", "visibility":
		return fmt.Sprintf("Invalid %s %q", strings.ToLower(field[:1])+field[1:], fe.Value())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
