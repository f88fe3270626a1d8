// Package model defines the persisted records of the dispatch backend.
package model

import (
	"time"
)

const (
	NameMaxLength  = 100
	PhoneMaxLength = 12
	RoleMaxLength  = 20
)

type Role string

const (
	RoleManager    Role = "manager"
	RoleDispatcher Role = "dispatcher"
	RoleViewer     Role = "viewer"
)

// Roles lists the recognized roles in display order.
func Roles() []Role {
	return []Role{RoleManager, RoleDispatcher, RoleViewer}
}

func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleDispatcher, RoleViewer:
		return true
	}
	return false
}

// Driver is a delivery driver. Id and CreatedAt are written on insert only.
// IsActive carries no column default: gorm would substitute it for an
// explicit false on insert. DriverCreate.NewRecord applies the true default.
type Driver struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Phone     string    `json:"phone" gorm:"size:12;not null"`
	IsActive  bool      `json:"is_active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;<-:create"`
}

func (Driver) TableName() string { return "drivers" }

// User is an operator of the system, identified externally by a Telegram id.
type User struct {
	Id         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	TelegramID int64     `json:"telegram_id" gorm:"column:telegram_id;uniqueIndex;not null"`
	Name       string    `json:"name" gorm:"size:100;not null"`
	Role       Role      `json:"role" gorm:"size:20;not null"`
	Phone      string    `json:"phone" gorm:"size:12;not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;<-:create"`
}

func (User) TableName() string { return "users" }
