package api

import "github.com/go-playground/validator/v10"

var validate = validator.New()

type createVersionRequest struct {
	Type        int    `json:"type" validate:"oneof=0 1 2"`
	Description string `json:"description" validate:"required,min=1,max=256"`
}

type editVersionRequest struct {
	ID          string `json:"id" validate:"required,len=24,hexadecimal"`
	Description string `json:"description" validate:"required,min=1,max=256"`
}

type processVersionRequest struct {
	ID string `json:"id" validate:"required,len=24,hexadecimal"`
}
