package models

import "time"

type Retailer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:150;not null;index" json:"name"`
	Address1       string    `gorm:"size:255;not null" json:"address1"`
	Address2       string    `gorm:"size:255" json:"address2"`
	AssignedToID   *uint     `gorm:"index" json:"assignedTo"`
	AssignedToName string    `gorm:"size:100" json:"assignedToName"`
	DayAssigned    string    `gorm:"size:10" json:"dayAssigned"`
	CreatedByID    uint      `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
