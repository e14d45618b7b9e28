// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"

	"pulse/internal/models"

	"gorm.io/gorm"
)

// floorDecrement returns an expression that decrements column without going below zero.
func floorDecrement(column string) interface{} {
	return gorm.Expr("CASE WHEN " + column + " > 0 THEN " + column + " - 1 ELSE 0 END")
}

// translate maps gorm.ErrRecordNotFound to NOT_FOUND and wraps every other
// database error as INTERNAL_ERROR.
func translate(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
