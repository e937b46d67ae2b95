package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-system/internal/core/domain"
)

// bodyValidator lets c.Validate use the same tag rules as record drafts.
type bodyValidator struct{}

func NewValidator() echo.Validator { return bodyValidator{} }

func (bodyValidator) Validate(i any) error { return domain.Check(i) }
