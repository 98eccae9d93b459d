package model

import "time"

type User struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsOrganizer  bool      `json:"is_organizer" db:"is_organizer"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// RegisterUserParams 註冊參數，nil 代表表單未提供該欄位
type RegisterUserParams struct {
	Email           *string
	Username        *string
	Password        *string
	PasswordConfirm *string
	IsOrganizer     bool
}
