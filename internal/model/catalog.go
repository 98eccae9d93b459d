package model

// Venue 場地
type Venue struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"name" validate:"required,max=200"`
	City     string `json:"city" db:"city" validate:"required,max=100"`
	Address  string `json:"address" db:"address" validate:"required,max=200"`
	Capacity int    `json:"capacity" db:"capacity" validate:"gt=0"`
	Contact  string `json:"contact" db:"contact" validate:"required,max=100"`
}

// Category 活動分類
type Category struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name" validate:"required,max=100"`
	Description string `json:"description" db:"description"`
	IsActive    bool   `json:"is_active" db:"is_active"`
}
