package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// PostController serves the post listings, the post detail page and post/comment writes.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// Index lists every post, newest first.
func (p *PostController) Index(ctx *gin.Context) {
	q := p.db.Model(&models.Post{}).Order(models.PostOrder)
	page, err := utils.Paginate[models.Post](q, ctx.Query("page"), config.Get().Posts, "Author", "Group")
	if err != nil {
		serverError(ctx, 50010, "failed to list posts", err)
		return
	}
	utils.Success(ctx, gin.H{"page_obj": page})
}

// GroupPosts lists the posts of one group.
func (p *PostController) GroupPosts(ctx *gin.Context) {
	var group models.Group
	if err := p.db.Where("slug = ?", ctx.Param("slug")).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "group not found")
			return
		}
		serverError(ctx, 50011, "failed to load group", err)
		return
	}

	q := p.db.Model(&models.Post{}).Where("group_id = ?", group.ID).Order(models.PostOrder)
	page, err := utils.Paginate[models.Post](q, ctx.Query("page"), config.Get().Posts, "Author", "Group")
	if err != nil {
		serverError(ctx, 50012, "failed to list group posts", err)
		return
	}
	utils.Success(ctx, gin.H{"group": group, "page_obj": page})
}

// Profile lists an author's posts and whether the viewer follows them.
func (p *PostController) Profile(ctx *gin.Context) {
	author, ok := findUser(ctx, p.db, ctx.Param("username"))
	if !ok {
		return
	}

	q := p.db.Model(&models.Post{}).Where("author_id = ?", author.ID).Order(models.PostOrder)
	page, err := utils.Paginate[models.Post](q, ctx.Query("page"), config.Get().Posts, "Author", "Group")
	if err != nil {
		serverError(ctx, 50013, "failed to list author posts", err)
		return
	}

	following := false
	if viewerID, ok := middleware.UserID(ctx); ok {
		var n int64
		if err := p.db.Model(&models.Follow{}).
			Where("user_id = ? AND author_id = ?", viewerID, author.ID).
			Count(&n).Error; err != nil {
			serverError(ctx, 50014, "failed to load follow state", err)
			return
		}
		following = n > 0
	}

	utils.Success(ctx, gin.H{
		"author":      publicUser(*author),
		"page_obj":    page,
		"posts_count": page.Total,
		"following":   following,
	})
}

// PostDetail shows a post with its comments and an empty comment form.
func (p *PostController) PostDetail(ctx *gin.Context) {
	post, ok := p.findPost(ctx, "Author", "Group")
	if !ok {
		return
	}

	var comments []models.Comment
	if err := p.db.Preload("Author").
		Where("post_id = ?", post.ID).
		Order("created DESC, id DESC").
		Find(&comments).Error; err != nil {
		serverError(ctx, 50015, "failed to load comments", err)
		return
	}

	var postsCount int64
	if err := p.db.Model(&models.Post{}).Where("author_id = ?", post.AuthorID).Count(&postsCount).Error; err != nil {
		serverError(ctx, 50016, "failed to count author posts", err)
		return
	}

	utils.Success(ctx, gin.H{
		"post":        post,
		"comments":    comments,
		"form":        commentForm(),
		"posts_count": postsCount,
	})
}

// PostCreateForm returns the empty post form.
func (p *PostController) PostCreateForm(ctx *gin.Context) {
	groups, err := p.groups()
	if err != nil {
		serverError(ctx, 50017, "failed to load groups", err)
		return
	}
	utils.Success(ctx, gin.H{"form": postForm(groups, nil, nil), "is_edit": false})
}

// PostCreate publishes a post authored by the viewer.
func (p *PostController) PostCreate(ctx *gin.Context) {
	userID, _ := middleware.UserID(ctx)
	groups, err := p.groups()
	if err != nil {
		serverError(ctx, 50017, "failed to load groups", err)
		return
	}

	post := models.Post{AuthorID: userID}
	if !p.bindPost(ctx, &post, groups) {
		return
	}
	if err := p.db.Create(&post).Error; err != nil {
		serverError(ctx, 50020, "failed to create post", err)
		return
	}
	invalidatePostCaches()

	utils.Sugar.Infow("post created", "post_id", post.ID, "author_id", userID)
	ctx.Redirect(http.StatusFound, profileURL(middleware.Username(ctx)))
}

// PostEditForm returns the post form bound to an existing post.
func (p *PostController) PostEditForm(ctx *gin.Context) {
	post, ok := p.findAuthoredPost(ctx)
	if !ok {
		return
	}
	groups, err := p.groups()
	if err != nil {
		serverError(ctx, 50017, "failed to load groups", err)
		return
	}

	values := map[string]any{"text": post.Text, "group": "", "image": post.Image}
	if post.GroupID != nil {
		values["group"] = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	utils.Success(ctx, gin.H{"form": postForm(groups, values, nil), "post": post, "is_edit": true})
}

// PostEdit saves new text, group and image; author and publication date stay as they were.
func (p *PostController) PostEdit(ctx *gin.Context) {
	post, ok := p.findAuthoredPost(ctx)
	if !ok {
		return
	}
	groups, err := p.groups()
	if err != nil {
		serverError(ctx, 50017, "failed to load groups", err)
		return
	}

	if !p.bindPost(ctx, post, groups) {
		return
	}
	err = p.db.Model(post).
		Select("Text", "GroupID", "Image").
		Updates(models.Post{Text: post.Text, GroupID: post.GroupID, Image: post.Image}).Error
	if err != nil {
		serverError(ctx, 50021, "failed to update post", err)
		return
	}
	invalidatePostCaches()

	ctx.Redirect(http.StatusFound, postURL(post.ID))
}

// PostDelete removes a post together with its comments.
func (p *PostController) PostDelete(ctx *gin.Context) {
	post, ok := p.findAuthoredPost(ctx)
	if !ok {
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		serverError(ctx, 50022, "failed to delete post", err)
		return
	}
	invalidatePostCaches()

	utils.Sugar.Infow("post deleted", "post_id", post.ID, "author_id", post.AuthorID)
	ctx.Redirect(http.StatusFound, profileURL(middleware.Username(ctx)))
}

// AddComment stores a comment by the viewer. Invalid input is dropped; the viewer always lands on the post.
func (p *PostController) AddComment(ctx *gin.Context) {
	post, ok := p.findPost(ctx)
	if !ok {
		return
	}

	var in commentInput
	if err := ctx.ShouldBind(&in); err == nil {
		if text := strings.TrimSpace(in.Text); utils.Sanitize(text) != "" {
			userID, _ := middleware.UserID(ctx)
			comment := models.Comment{PostID: post.ID, AuthorID: userID, Text: text}
			if err := p.db.Create(&comment).Error; err != nil {
				serverError(ctx, 50023, "failed to create comment", err)
				return
			}
		}
	}
	ctx.Redirect(http.StatusFound, postURL(post.ID))
}

// bindPost validates the submitted post form into post. On failure the form with its
// errors has already been written and false is returned.
func (p *PostController) bindPost(ctx *gin.Context, post *models.Post, groups []models.Group) bool {
	var in postInput
	errs := map[string]string{}
	if err := ctx.ShouldBind(&in); err != nil {
		fe, ok := fieldErrors(err)
		if !ok {
			utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
			return false
		}
		errs = fe
	}

	text := strings.TrimSpace(in.Text)
	if utils.Sanitize(text) == "" {
		errs["text"] = msgRequired
	}
	groupID, ok := resolveGroup(in.Group, groups)
	if !ok {
		errs["group"] = msgInvalidChoice
	}

	var image string
	if len(errs) == 0 {
		if header, err := ctx.FormFile("image"); err == nil {
			image, err = utils.SaveImage(config.Get().MediaRoot, header)
			switch {
			case errors.Is(err, utils.ErrNotImage), errors.Is(err, utils.ErrImageTooLarge):
				errs["image"] = err.Error()
			case err != nil:
				serverError(ctx, 50024, "failed to store image", err)
				return false
			}
		}
	}

	if len(errs) > 0 {
		values := map[string]any{"text": in.Text, "group": in.Group}
		utils.Invalid(ctx, 40011, postForm(groups, values, errs))
		return false
	}

	post.Text = text
	post.GroupID = groupID
	if image != "" {
		post.Image = image
	}
	return true
}

// findPost loads the post named by the :id parameter, writing 404 when it does not exist.
func (p *PostController) findPost(ctx *gin.Context, preloads ...string) (*models.Post, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return nil, false
	}

	q := p.db
	for _, assoc := range preloads {
		q = q.Preload(assoc)
	}
	var post models.Post
	if err := q.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return nil, false
		}
		serverError(ctx, 50025, "failed to load post", err)
		return nil, false
	}
	return &post, true
}

// findAuthoredPost is findPost for author-only routes: anyone else is sent back to the post.
func (p *PostController) findAuthoredPost(ctx *gin.Context) (*models.Post, bool) {
	post, ok := p.findPost(ctx)
	if !ok {
		return nil, false
	}
	if userID, _ := middleware.UserID(ctx); post.AuthorID != userID {
		ctx.Redirect(http.StatusFound, postURL(post.ID))
		return nil, false
	}
	return post, true
}

func (p *PostController) groups() ([]models.Group, error) {
	var groups []models.Group
	if err := p.db.Order("title ASC, id ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// resolveGroup maps the submitted choice onto an existing group; blank means no group.
func resolveGroup(raw string, groups []models.Group) (*uint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	for _, g := range groups {
		if uint64(g.ID) == id {
			gid := g.ID
			return &gid, true
		}
	}
	return nil, false
}

// findUser loads a user by username, writing 404 when there is none.
func findUser(ctx *gin.Context, db *gorm.DB, username string) (*models.User, bool) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "user not found")
			return nil, false
		}
		serverError(ctx, 50026, "failed to load user", err)
		return nil, false
	}
	return &user, true
}

// invalidatePostCaches drops every cached index page after a post write.
func invalidatePostCaches() {
	utils.InvalidateByPrefix(middleware.IndexCachePrefix)
}

func serverError(ctx *gin.Context, code int, message string, err error) {
	utils.Logger.Error(message,
		zap.Error(err),
		zap.Int("code", code),
		zap.String("path", ctx.Request.URL.Path),
	)
	utils.Error(ctx, http.StatusInternalServerError, code, message)
}

func publicUser(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"full_name":  user.FullName(),
		"created_at": user.CreatedAt,
	}
}
