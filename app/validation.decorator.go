package app

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	ctx2 "github.com/go-arrower/productstore/ctx"
)

const CtxValidated ctx2.CTXKey = "productstore.validated"

// PassedValidation is a helper giving you feedback, if a request passed the validation decorator.
// Use it in case you want to ensure that this decorator was called before continuing with your business logic.
func PassedValidation(ctx context.Context) bool {
	v, ok := ctx.Value(CtxValidated).(bool)

	return ok && v
}

// NewValidator returns a validator that reports fields by their json name,
// so a validation error names the field as the client sent it.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		if name == "" {
			return field.Name
		}

		return name
	})

	return validate
}

func NewValidatedRequest[Req any, Res any](validate *validator.Validate, req Request[Req, Res]) Request[Req, Res] {
	return newValidatingDecorator(validate, req)
}

func NewValidatedCommand[C any](validate *validator.Validate, cmd Command[C]) Command[C] {
	return decorateCommand(cmd, func(req Request[C, struct{}]) Request[C, struct{}] {
		return newValidatingDecorator(validate, req)
	})
}

func NewValidatedQuery[Q any, Res any](validate *validator.Validate, query Query[Q, Res]) Query[Q, Res] {
	return newValidatingDecorator[Q, Res](validate, query)
}

func newValidatingDecorator[In any, Out any](validate *validator.Validate, base Request[In, Out]) *validatingDecorator[In, Out] {
	if validate == nil {
		validate = NewValidator()
	}

	return &validatingDecorator[In, Out]{validate: validate, base: base}
}

type validatingDecorator[In any, Out any] struct {
	validate *validator.Validate
	base     Request[In, Out]
}

func (d *validatingDecorator[In, Out]) H(ctx context.Context, in In) (Out, error) { //nolint:ireturn // valid use of generics
	if err := d.validate.StructCtx(ctx, in); err != nil {
		return *new(Out), err //nolint:wrapcheck // validation errors are returned as is, to be inspected with errors.As
	}

	return d.base.H(context.WithValue(ctx, CtxValidated, true), in) //nolint:wrapcheck // decorate but not change anything
}
