// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

// Package validation wraps go-playground/validator with a shared instance and
// messages that name fields by their JSON path, e.g.
// "parameters.windows[south].window_frame_ratio must be less than or equal to 1".
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Message
}

// RequestValidationError collects every field failure from one ValidateStruct call.
type RequestValidationError struct {
	Fields []FieldError
}

func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
	})
	return validate
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	default:
		return name
	}
}

// ValidateStruct validates s. It returns nil on success and a
// *RequestValidationError otherwise.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{Fields: []FieldError{{
			Field:   "request",
			Tag:     "invalid",
			Message: err.Error(),
		}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		path := fieldPath(fe)
		out[i] = FieldError{
			Field:   path,
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translateError(fe, path),
		}
	}
	return &RequestValidationError{Fields: out}
}

// fieldPath drops the Go type name that prefixes validator namespaces.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"number":   "%s must be a number",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func translateError(fe validator.FieldError, field string) string {
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}
	return translateSize(fe, field, tag, param)
}

// translateSize handles min/max/len with collection-aware wording.
func translateSize(fe validator.FieldError, field, tag, param string) string {
	unit := ""
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = " items"
	}

	if unit == "" {
		switch tag {
		case "min":
			return fmt.Sprintf("%s must be at least %s", field, param)
		case "max":
			return fmt.Sprintf("%s must be at most %s", field, param)
		}
	}

	switch tag {
	case "min":
		return fmt.Sprintf("%s must contain at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must contain at most %s%s", field, param, unit)
	case "len":
		return fmt.Sprintf("%s must contain exactly %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
