package models

import (
	"time"

	"gorm.io/gorm"
)

// PostOrder is the default listing order, newest first.
const PostOrder = "pub_date DESC, id DESC"

// postPreviewLen bounds String() output.
const postPreviewLen = 15

// Post is authored text with an optional image and group.
// AuthorID and PubDate are write-once: gorm never includes them in updates.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	TextHTML string    `gorm:"-" json:"text_html"`
	PubDate  time.Time `gorm:"<-:create;index;not null" json:"pub_date"`
	AuthorID uint      `gorm:"<-:create;index;not null" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	GroupID  *uint     `gorm:"index" json:"group_id"`
	Group    *Group    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"group,omitempty"`
	Image    string    `gorm:"size:255" json:"image"`
	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (p Post) String() string {
	r := []rune(p.Text)
	if len(r) > postPreviewLen {
		r = r[:postPreviewLen]
	}
	return string(r)
}

// BeforeCreate stamps the publication date once.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.PubDate.IsZero() {
		p.PubDate = time.Now()
	}
	return nil
}

// AfterFind fills the HTML rendering of the text.
func (p *Post) AfterFind(tx *gorm.DB) error {
	p.TextHTML = RenderText(p.Text)
	return nil
}
