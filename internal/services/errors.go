package services

import (
	"errors"

	"household/internal/scope"
)

var (
	ErrUnauthenticated     = scope.ErrUnauthenticated
	ErrForbidden           = errors.New("you do not have permission to change this record")
	ErrFamilyBudgetLocked  = errors.New("members cannot change family budget limits")
	ErrNotFound            = errors.New("record not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")
	ErrAccountLimitReached = errors.New("account limit reached for your plan")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAlreadyInFamily     = errors.New("you already belong to a family")
	ErrNotInFamily         = errors.New("you do not belong to a family")
	ErrFamilyNotFound      = errors.New("family not found for this code")
	ErrFamilyFull          = errors.New("family member limit reached for the admin's plan")
	ErrNotFamilyAdmin      = errors.New("only the family admin can do this")
	ErrAdminMustTransfer   = errors.New("transfer the admin role before leaving the family")
	ErrAdminAccountMissing = errors.New("the family admin has no account to pay from")
	ErrInvalidRole         = errors.New("role must be partner or member")
	ErrCodeExhausted       = errors.New("could not generate a unique family code")
)
