package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/utils"
)

// AboutController serves the static, configuration-driven about pages.
type AboutController struct{}

func NewAboutController() *AboutController { return &AboutController{} }

// Author returns the "about the author" page.
func (a *AboutController) Author(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"title": cfg.AboutAuthorTitle,
		"html":  cfg.AboutAuthorHTML,
	})
}

// Tech returns the "technologies" page.
func (a *AboutController) Tech(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"title": cfg.AboutTechTitle,
		"html":  cfg.AboutTechHTML,
	})
}
