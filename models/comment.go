package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reply to a post. There is no update or delete path for comments.
type Comment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PostID   uint      `gorm:"<-:create;index;not null" json:"post_id"`
	AuthorID uint      `gorm:"<-:create;index;not null" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Text     string    `gorm:"<-:create;type:text;not null" json:"text"`
	TextHTML string    `gorm:"-" json:"text_html"`
	Created  time.Time `gorm:"<-:create;index;not null" json:"created"`
}

// BeforeCreate stamps the creation date once.
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.Created.IsZero() {
		c.Created = time.Now()
	}
	return nil
}

// AfterFind fills the HTML rendering of the text.
func (c *Comment) AfterFind(tx *gorm.DB) error {
	c.TextHTML = RenderText(c.Text)
	return nil
}
