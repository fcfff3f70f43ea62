// Package service holds the transactional business operations: bills and
// their collections, orders, staff lookups and reports.
package service

import (
	"errors"
	"fmt"
	"time"

	"laxmi-billing/internal/apperror"
	"laxmi-billing/internal/models"
	"laxmi-billing/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   uint
	Name string
	Role string
}

func (a Actor) IsDSR() bool { return a.Role == models.RoleDSR }

// ActorFromUser builds an Actor from a user with its Role preloaded.
func ActorFromUser(u models.User) Actor {
	return Actor{ID: u.ID, Name: u.Username, Role: u.Role.Name}
}

// Paging is a normalized page/limit pair.
type Paging struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (p Paging) normalize() Paging {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	return p
}

func (p Paging) offset() int { return (p.Page - 1) * p.Limit }

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// classify turns storage errors into apperror kinds. Errors that already
// carry a kind pass through unchanged.
func classify(err error, what string) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFoundf("%s not found", what)
	case database.IsRetryable(err):
		return apperror.Transient(fmt.Sprintf("%s is being updated concurrently, please retry", what), err)
	case database.IsUniqueViolation(err):
		return apperror.Conflictf("%s already exists", what)
	default:
		return apperror.Internal(fmt.Sprintf("failed to process %s", what), err)
	}
}

// inTx runs fn in a transaction. A failure after fn returned nil can only be
// the commit, which is reported as transient.
func inTx(db *gorm.DB, what string, fn func(tx *gorm.DB) error) error {
	fnDone := false
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		fnDone = true
		return nil
	})
	if err != nil && fnDone {
		return apperror.Transient(fmt.Sprintf("could not commit %s, please retry", what), err)
	}
	return classify(err, what)
}

func nowUTC() time.Time { return time.Now().UTC() }
