package models

import "time"

// Post is a piece of text shared by an account, optionally expressing a feeling.
type Post struct {
	UID         string     `gorm:"primaryKey;size:36"`
	Body        string     `gorm:"not null"`
	AuthorUID   string     `gorm:"size:36;not null;index:idx_posts_author_created,priority:1"`
	FeelingName *string    `gorm:"size:100"`
	CreatedAt   time.Time  `gorm:"index:idx_posts_author_created,priority:2,sort:desc"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false"`

	Author  Account  `gorm:"foreignKey:AuthorUID;references:UID;constraint:OnDelete:CASCADE;"`
	Feeling *Feeling `gorm:"foreignKey:FeelingName;references:Name"`
}

// PostRead records that an account has read a post.
type PostRead struct {
	PostUID    string `gorm:"primaryKey;size:36"`
	AccountUID string `gorm:"primaryKey;size:36"`
	CreatedAt  time.Time
}
