package cmd

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/models"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

var (
	groupTitle       string
	groupSlug        string
	groupDescription string
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage post groups",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group posts can be assigned to",
	Long: `Creates a group. The slug becomes part of the group URL (/group/<slug>/).

Example:
  yatube group create --title "Cats" --slug cats --description "All about cats"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := config.OpenDatabase(config.Load())
		if err != nil {
			return err
		}
		if err := models.AutoMigrate(db); err != nil {
			return err
		}
		group, err := createGroup(db, groupTitle, groupSlug, groupDescription)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created group %d %q at /group/%s/\n", group.ID, group.Title, group.Slug)
		return nil
	},
}

func init() {
	groupCreateCmd.Flags().StringVar(&groupTitle, "title", "", "group title (required)")
	groupCreateCmd.Flags().StringVar(&groupSlug, "slug", "", "unique URL slug (required)")
	groupCreateCmd.Flags().StringVar(&groupDescription, "description", "", "group description")
	_ = groupCreateCmd.MarkFlagRequired("title")
	_ = groupCreateCmd.MarkFlagRequired("slug")
	groupCmd.AddCommand(groupCreateCmd)
}

// ErrSlugTaken is returned when another group already uses the slug.
var ErrSlugTaken = errors.New("slug already in use")

func createGroup(db *gorm.DB, title, slug, description string) (*models.Group, error) {
	title = strings.TrimSpace(title)
	slug = strings.TrimSpace(slug)
	if title == "" {
		return nil, errors.New("title must not be empty")
	}
	if len([]rune(title)) > 200 {
		return nil, errors.New("title must be at most 200 characters")
	}
	if !slugPattern.MatchString(slug) || len(slug) > 100 {
		return nil, fmt.Errorf("invalid slug %q: use up to 100 letters, digits, hyphens or underscores", slug)
	}

	var n int64
	if err := db.Model(&models.Group{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: %s", ErrSlugTaken, slug)
	}

	group := models.Group{Title: title, Slug: slug, Description: strings.TrimSpace(description)}
	if err := db.Create(&group).Error; err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return &group, nil
}
