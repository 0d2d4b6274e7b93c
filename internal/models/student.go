package models

import (
	"time"
)

// Student records are owned by the admin service; this service only reads them
// for order creation, receipts and notifications.
type Student struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"column:name;size:255;not null" json:"name"`
	RollNumber string    `gorm:"column:roll_number;size:50;not null;uniqueIndex" json:"roll_number"`
	Class      string    `gorm:"column:class;size:20;not null" json:"class"`
	Section    string    `gorm:"column:section;size:10" json:"section"`
	Email      string    `gorm:"column:email;size:255;not null" json:"email"`
	Phone      string    `gorm:"column:phone;size:20" json:"phone"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Student) TableName() string {
	return "students"
}
