package models

import "time"

// FeelingType groups feelings by energy and pleasantness,
// e.g. "high_energy_pleasant".
type FeelingType struct {
	Name        string `gorm:"primaryKey;size:100"`
	Description string
	CreatedAt   time.Time
}

// Feeling is a named, colored emotion that can be attached to posts and messages.
type Feeling struct {
	Name            string  `gorm:"primaryKey;size:100"`
	Color           string  `gorm:"size:16;not null"` // hex color like #FF5733
	Description     string
	FeelingTypeName *string `gorm:"size:100;index"`
	CreatedAt       time.Time

	FeelingType *FeelingType `gorm:"foreignKey:FeelingTypeName;references:Name"`
}
