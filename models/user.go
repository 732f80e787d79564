package models

import "time"

const (
	RoleAdmin    = "Admin"
	RoleCashier  = "Cashier"
	RoleCustomer = "Customer"
)

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FirstName   string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName    string    `gorm:"type:varchar(100);not null" json:"last_name"`
	MiddleName  string    `gorm:"type:varchar(100)" json:"middle_name,omitempty"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"type:varchar(255);not null" json:"-"`
	Role        string    `gorm:"type:varchar(50);not null;default:'Customer'" json:"role"`
	PhoneNumber string    `gorm:"type:varchar(30)" json:"phone_number,omitempty"`
	City        string    `gorm:"type:varchar(100)" json:"city,omitempty"`
	Province    string    `gorm:"type:varchar(100)" json:"province,omitempty"`
	Address     string    `gorm:"type:text" json:"address,omitempty"`
	UserImage   string    `gorm:"type:varchar(255)" json:"user_image,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
