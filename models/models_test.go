package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/yatube/config"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestPostString(t *testing.T) {
	long := Post{Text: "Тестовый пост длиннее пятнадцати символов"}
	assert.Equal(t, "Тестовый пост д", long.String())
	assert.Equal(t, 15, len([]rune(long.String())))

	short := Post{Text: "Коротко"}
	assert.Equal(t, "Коротко", short.String())
}

func TestGroupString(t *testing.T) {
	g := Group{Title: "Тестовая группа", Slug: "test"}
	assert.Equal(t, "Тестовая группа", g.String())
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "Лев Толстой", User{Username: "leo", FirstName: "Лев", LastName: "Толстой"}.FullName())
	assert.Equal(t, "Лев", User{Username: "leo", FirstName: "Лев"}.FullName())
	assert.Equal(t, "leo", User{Username: "leo"}.FullName())
}

func TestPostBeforeCreateStampsOnce(t *testing.T) {
	p := &Post{Text: "x"}
	assert.NoError(t, p.BeforeCreate(nil))
	first := p.PubDate
	assert.False(t, first.IsZero())

	assert.NoError(t, p.BeforeCreate(nil))
	assert.Equal(t, first, p.PubDate)
}

func TestPostAuthorAndPubDateAreWriteOnce(t *testing.T) {
	db := openTestDB(t)
	author := User{Username: "author"}
	other := User{Username: "other"}
	require.NoError(t, db.Create(&author).Error)
	require.NoError(t, db.Create(&other).Error)
	post := Post{Text: "original", AuthorID: author.ID}
	require.NoError(t, db.Create(&post).Error)

	require.NoError(t, db.Model(&post).Updates(map[string]any{"author_id": other.ID, "text": "changed"}).Error)
	require.NoError(t, db.Model(&Post{ID: post.ID}).Updates(Post{AuthorID: other.ID}).Error)

	var got Post
	require.NoError(t, db.First(&got, post.ID).Error)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.Equal(t, "changed", got.Text)
	assert.True(t, post.PubDate.Equal(got.PubDate))
}

func TestFollowPairIsUnique(t *testing.T) {
	db := openTestDB(t)
	a := User{Username: "a"}
	b := User{Username: "b"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)

	require.NoError(t, db.Create(&Follow{UserID: a.ID, AuthorID: b.ID}).Error)
	assert.Error(t, db.Create(&Follow{UserID: a.ID, AuthorID: b.ID}).Error)
	require.NoError(t, db.Create(&Follow{UserID: b.ID, AuthorID: a.ID}).Error)

	var n int64
	require.NoError(t, db.Model(&Follow{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}

func TestTextHTMLFilledOnLoad(t *testing.T) {
	db := openTestDB(t)
	author := User{Username: "author"}
	require.NoError(t, db.Create(&author).Error)
	post := Post{Text: "a < b <script>x()</script>", AuthorID: author.ID}
	require.NoError(t, db.Create(&post).Error)
	require.NoError(t, db.Create(&Comment{PostID: post.ID, AuthorID: author.ID, Text: "Tom & Jerry"}).Error)

	var got Post
	require.NoError(t, db.First(&got, post.ID).Error)
	assert.Equal(t, "a < b <script>x()</script>", got.Text)
	assert.Equal(t, "a &lt; b ", got.TextHTML)

	var comment Comment
	require.NoError(t, db.First(&comment).Error)
	assert.Equal(t, "Tom & Jerry", comment.Text)
	assert.Equal(t, "Tom &amp; Jerry", comment.TextHTML)
}
