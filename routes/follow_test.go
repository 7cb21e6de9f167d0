package routes

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/yatube/models"
)

func followCount(t *testing.T, env *testEnv, follower, author *models.User) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", follower.ID, author.ID).
		Count(&n).Error)
	return n
}

func TestFollowIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	author := env.user("Author")
	reader := env.user("Reader")

	for i := 0; i < 2; i++ {
		w := env.get("/profile/Author/follow/", reader)
		require.Equal(t, http.StatusFound, w.Code)
	}
	assert.EqualValues(t, 1, followCount(t, env, reader, author))
}

func TestFollowSelfIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	author := env.user("Author")

	w := env.get("/profile/Author/follow/", author)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/Author/", w.Header().Get("Location"))
	assert.Zero(t, followCount(t, env, author, author))
}

func TestFollowUniqueAtStorage(t *testing.T) {
	env := newTestEnv(t)
	author := env.user("Author")
	reader := env.user("Reader")

	require.NoError(t, env.db.Create(&models.Follow{UserID: reader.ID, AuthorID: author.ID}).Error)
	assert.Error(t, env.db.Create(&models.Follow{UserID: reader.ID, AuthorID: author.ID}).Error)
	assert.EqualValues(t, 1, followCount(t, env, reader, author))
}

func TestUnfollow(t *testing.T) {
	env := newTestEnv(t)
	author := env.user("Author")
	reader := env.user("Reader")
	require.NoError(t, env.db.Create(&models.Follow{UserID: reader.ID, AuthorID: author.ID}).Error)

	w := env.get("/profile/Author/unfollow/", reader)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/Author/", w.Header().Get("Location"))
	assert.Zero(t, followCount(t, env, reader, author))

	// unfollowing again is a no-op
	w = env.get("/profile/Author/unfollow/", reader)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestFeed(t *testing.T) {
	env := newTestEnv(t)
	author := env.user("Author")
	other := env.user("Other")
	reader := env.user("Reader")
	followed := env.post(author, "Пост автора", nil)
	env.post(other, "Чужой пост", nil)

	feed := func(as *models.User) []models.Post {
		w := env.get("/follow/", as)
		require.Equal(t, http.StatusOK, w.Code)
		var body pageBody
		decode(t, w, &body)
		return body.PageObj.Items
	}

	assert.Empty(t, feed(reader))

	require.Equal(t, http.StatusFound, env.get("/profile/Author/follow/", reader).Code)
	items := feed(reader)
	require.Len(t, items, 1)
	assert.Equal(t, followed.ID, items[0].ID)
	assert.Empty(t, feed(other))

	require.Equal(t, http.StatusFound, env.get("/profile/Author/unfollow/", reader).Code)
	assert.Empty(t, feed(reader))
}

func TestFeedPagination(t *testing.T) {
	env := newTestEnv(t)
	author := env.user("Author")
	reader := env.user("Reader")
	env.posts(author, 13, nil)
	require.NoError(t, env.db.Create(&models.Follow{UserID: reader.ID, AuthorID: author.ID}).Error)

	var first, second pageBody
	decode(t, env.get("/follow/", reader), &first)
	decode(t, env.get("/follow/?page=2", reader), &second)
	assert.Len(t, first.PageObj.Items, 10)
	assert.True(t, first.PageObj.HasNext)
	assert.Len(t, second.PageObj.Items, 3)
	assert.True(t, second.PageObj.HasPrevious)
	assert.False(t, second.PageObj.HasNext)
}
