package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleDSR   = "dsr"
)

type Role struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;unique;not null" json:"name"` // 'admin', 'dsr'
	CreatedAt time.Time `json:"createdAt"`
	Users     []User    `json:"-"`
}

type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	EmployeeID     string         `gorm:"size:20;unique;not null" json:"employeeId"`
	Username       string         `gorm:"size:100;not null;index" json:"username"`
	Mobile         string         `gorm:"size:15" json:"mobile"`
	PasswordHash   string         `gorm:"size:255;not null" json:"-"`
	RoleID         uint           `json:"roleId"`
	Role           Role           `gorm:"foreignKey:RoleID" json:"role"`
	IsActive       bool           `gorm:"default:true" json:"isActive"`
	InactiveReason string         `gorm:"type:text" json:"inactiveReason"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsDSR reports whether the user is field staff. Role must be preloaded.
func (u User) IsDSR() bool {
	return u.Role.Name == RoleDSR
}

type LoginHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `json:"userId"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	LoginTime time.Time `gorm:"autoCreateTime" json:"loginTime"`
	IPAddress string    `gorm:"size:45" json:"ipAddress"`
}
