package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

// AdminAccount is a teacher-admin. Students reference an admin by Username through
// their TeacherName field; the account marked IsMain is shown to every student.
type AdminAccount struct {
	Username    string  `json:"username" gorm:"primaryKey;size:100"`
	Password    string  `json:"-" gorm:"size:255"`
	DisplayName string  `json:"displayName" gorm:"size:100"`
	Avatar      *string `json:"avatar,omitempty" gorm:"type:text"`
	IsMain      bool    `json:"isMain" gorm:"default:false;index"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (AdminAccount) TableName() string {
	return "admins"
}
