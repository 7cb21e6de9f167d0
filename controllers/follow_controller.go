package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// FollowController manages subscriptions between users and the resulting feed.
type FollowController struct {
	db *gorm.DB
}

// NewFollowController creates a FollowController.
func NewFollowController(db *gorm.DB) *FollowController {
	return &FollowController{db: db}
}

// FollowIndex lists posts by the authors the viewer follows.
func (f *FollowController) FollowIndex(ctx *gin.Context) {
	userID, _ := middleware.UserID(ctx)
	followed := f.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", userID)
	q := f.db.Model(&models.Post{}).Where("author_id IN (?)", followed).Order(models.PostOrder)

	page, err := utils.Paginate[models.Post](q, ctx.Query("page"), config.Get().Posts, "Author", "Group")
	if err != nil {
		serverError(ctx, 50030, "failed to list followed posts", err)
		return
	}
	utils.Success(ctx, gin.H{"page_obj": page})
}

// ProfileFollow subscribes the viewer to an author. Following yourself or
// following twice changes nothing.
func (f *FollowController) ProfileFollow(ctx *gin.Context) {
	author, ok := findUser(ctx, f.db, ctx.Param("username"))
	if !ok {
		return
	}
	userID, _ := middleware.UserID(ctx)
	if author.ID != userID {
		follow := models.Follow{UserID: userID, AuthorID: author.ID}
		if err := f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow).Error; err != nil {
			serverError(ctx, 50031, "failed to follow author", err)
			return
		}
	}
	ctx.Redirect(http.StatusFound, profileURL(author.Username))
}

// ProfileUnfollow removes the subscription if there is one.
func (f *FollowController) ProfileUnfollow(ctx *gin.Context) {
	author, ok := findUser(ctx, f.db, ctx.Param("username"))
	if !ok {
		return
	}
	userID, _ := middleware.UserID(ctx)
	if err := f.db.Where("user_id = ? AND author_id = ?", userID, author.ID).Delete(&models.Follow{}).Error; err != nil {
		serverError(ctx, 50032, "failed to unfollow author", err)
		return
	}
	ctx.Redirect(http.StatusFound, profileURL(author.Username))
}
