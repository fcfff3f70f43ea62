package importer

import (
	"context"
	"errors"
	"fmt"

	"laxmi-billing/internal/apperror"
	"laxmi-billing/internal/models"
	"laxmi-billing/internal/service"
)

type RetailerStore interface {
	RetailerNameTaken(ctx context.Context, name string) (bool, error)
	CreateRetailer(ctx context.Context, in service.RetailerInput, actor service.Actor) (*models.Retailer, error)
}

// StaffResolver finds a DSR by username, ignoring case.
type StaffResolver interface {
	ResolveDSR(ctx context.Context, name string) (*models.User, error)
}

type RetailerRows struct {
	Store RetailerStore
	Staff StaffResolver
	Actor service.Actor
}

func (RetailerRows) Entity() string { return "retailers" }

func (RetailerRows) Columns() []Column {
	return []Column{
		{Key: "name", Match: "name", Required: true},
		{Key: "address1", Match: "address 1", Required: true},
		{Key: "address2", Match: "address 2"},
		{Key: "day", Match: "day"},
		{Key: "assigned", Match: "assigned"},
	}
}

func (h RetailerRows) ImportRow(ctx context.Context, row Row) (string, error) {
	in := service.RetailerInput{
		Name:        row.Get("name"),
		Address1:    row.Get("address1"),
		Address2:    row.Get("address2"),
		DayAssigned: models.NormalizeWeekday(row.Get("day")),
	}
	if in.Name == "" {
		return "", errors.New("retailer name is empty")
	}
	if in.Address1 == "" {
		return "", errors.New("address 1 is empty")
	}

	taken, err := h.Store.RetailerNameTaken(ctx, in.Name)
	if err != nil {
		return "", err
	}
	if taken {
		return "", fmt.Errorf("retailer %s already exists", in.Name)
	}

	var warning string
	if name := row.Get("assigned"); name != "" {
		dsr, err := h.Staff.ResolveDSR(ctx, name)
		switch {
		case err == nil:
			in.AssignedToID = &dsr.ID
		case apperror.Is(err, apperror.KindNotFound):
			warning = fmt.Sprintf("staff '%s' not found, retailer created unassigned", name)
		default:
			return "", err
		}
	}

	if _, err := h.Store.CreateRetailer(ctx, in, h.Actor); err != nil {
		return "", err
	}
	return warning, nil
}
