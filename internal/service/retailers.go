package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"laxmi-billing/internal/apperror"
	"laxmi-billing/internal/models"

	"gorm.io/gorm"
)

type RetailerService struct {
	db *gorm.DB
}

func NewRetailerService(db *gorm.DB) *RetailerService {
	return &RetailerService{db: db}
}

type RetailerInput struct {
	Name         string `json:"name" binding:"required,max=150"`
	Address1     string `json:"address1" binding:"required,max=255"`
	Address2     string `json:"address2" binding:"max=255"`
	AssignedToID *uint  `json:"assignedTo"`
	DayAssigned  string `json:"dayAssigned" binding:"omitempty,weekday"`
}

type RetailerFilter struct {
	Search       string
	AssignedToID *uint
	Day          string
	Paging
}

func (in *RetailerInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Address1 = strings.TrimSpace(in.Address1)
	in.Address2 = strings.TrimSpace(in.Address2)
	in.DayAssigned = models.NormalizeWeekday(in.DayAssigned)

	var fields []apperror.FieldError
	if in.Name == "" {
		fields = append(fields, apperror.FieldError{Field: "name", Message: "name is required"})
	}
	if in.Address1 == "" {
		fields = append(fields, apperror.FieldError{Field: "address1", Message: "address 1 is required"})
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid retailer", fields...)
	}
	return nil
}

func (s *RetailerService) CreateRetailer(ctx context.Context, in RetailerInput, actor Actor) (*models.Retailer, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	r := models.Retailer{
		Name:        in.Name,
		Address1:    in.Address1,
		Address2:    in.Address2,
		DayAssigned: in.DayAssigned,
		CreatedByID: actor.ID,
	}
	err := inTx(s.db.WithContext(ctx), "retailer", func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Retailer{}).Where("LOWER(name) = ?", strings.ToLower(in.Name)).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperror.Conflictf("retailer %s already exists", in.Name)
		}
		if in.AssignedToID != nil {
			dsr, err := activeDSR(tx, *in.AssignedToID)
			if err != nil {
				return err
			}
			r.AssignedToID, r.AssignedToName = &dsr.ID, dsr.Username
		}
		return tx.Create(&r).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RetailerNameTaken reports whether an existing retailer's name starts with
// name, ignoring case. Bulk imports use it as their duplicate rule.
func (s *RetailerService) RetailerNameTaken(ctx context.Context, name string) (bool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false, nil
	}
	// compared as a substring so % and _ in names are plain characters
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Retailer{}).
		Where("LOWER(SUBSTR(name, 1, ?)) = ?", utf8.RuneCountInString(name), name).
		Count(&n).Error
	return n > 0, classify(err, "retailer")
}

func (s *RetailerService) GetRetailer(ctx context.Context, id uint) (*models.Retailer, error) {
	var r models.Retailer
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, classify(err, "retailer")
	}
	return &r, nil
}

func (s *RetailerService) ListRetailers(ctx context.Context, f RetailerFilter) ([]models.Retailer, int64, error) {
	f.Paging = f.Paging.normalize()
	q := s.db.WithContext(ctx).Model(&models.Retailer{})
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(address1) LIKE ?", like, like)
	}
	if f.AssignedToID != nil {
		q = q.Where("assigned_to_id = ?", *f.AssignedToID)
	}
	if day := models.NormalizeWeekday(f.Day); day != "" {
		q = q.Where("day_assigned = ?", day)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err, "retailers")
	}
	retailers := []models.Retailer{}
	if err := q.Order("name").Limit(f.Limit).Offset(f.offset()).Find(&retailers).Error; err != nil {
		return nil, 0, classify(err, "retailers")
	}
	return retailers, total, nil
}

func (s *RetailerService) UpdateRetailer(ctx context.Context, id uint, in RetailerInput) (*models.Retailer, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var r models.Retailer
	err := inTx(s.db.WithContext(ctx), "retailer", func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&r, id).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Retailer{}).
			Where("LOWER(name) = ? AND id <> ?", strings.ToLower(in.Name), r.ID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperror.Conflictf("retailer %s already exists", in.Name)
		}
		r.Name, r.Address1, r.Address2, r.DayAssigned = in.Name, in.Address1, in.Address2, in.DayAssigned
		r.AssignedToID, r.AssignedToName = nil, ""
		if in.AssignedToID != nil {
			dsr, err := activeDSR(tx, *in.AssignedToID)
			if err != nil {
				return err
			}
			r.AssignedToID, r.AssignedToName = &dsr.ID, dsr.Username
		}
		return tx.Save(&r).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// AssignRetailer sets the DSR and visiting day of a retailer. A nil dsrID
// clears the assignment.
func (s *RetailerService) AssignRetailer(ctx context.Context, id uint, dsrID *uint, day string) (*models.Retailer, error) {
	var r models.Retailer
	err := inTx(s.db.WithContext(ctx), "retailer", func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&r, id).Error; err != nil {
			return err
		}
		r.AssignedToID, r.AssignedToName = nil, ""
		if dsrID != nil {
			dsr, err := activeDSR(tx, *dsrID)
			if err != nil {
				return err
			}
			r.AssignedToID, r.AssignedToName = &dsr.ID, dsr.Username
		}
		r.DayAssigned = models.NormalizeWeekday(day)
		return tx.Model(&models.Retailer{}).Where("id = ?", r.ID).Updates(map[string]any{
			"assigned_to_id":   r.AssignedToID,
			"assigned_to_name": r.AssignedToName,
			"day_assigned":     r.DayAssigned,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRetailer removes a retailer with no outstanding bills.
func (s *RetailerService) DeleteRetailer(ctx context.Context, id uint) error {
	return inTx(s.db.WithContext(ctx), "retailer", func(tx *gorm.DB) error {
		var r models.Retailer
		if err := tx.First(&r, id).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Bill{}).
			Where("retailer_id = ? AND status <> ?", r.ID, models.BillPaid).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperror.Conflictf("retailer %s has %d open bills", r.Name, n)
		}
		return tx.Delete(&r).Error
	})
}
