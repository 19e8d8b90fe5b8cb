// internal/models/user.go
package models

type User struct {
	BaseModel
	Email       string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Name        string     `json:"name" gorm:"size:255;not null"`
	Phone       string     `json:"phone,omitempty" gorm:"size:32"`
	Role        UserRole   `json:"role" gorm:"type:varchar(20);not null;default:'customer'"`
	Status      UserStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	ProfileData JSONB      `json:"profile_data,omitempty" gorm:"type:jsonb"`
}

func (u *User) IsStaff() bool {
	return u.Role == UserRoleStaff || u.Role == UserRoleAdmin
}
