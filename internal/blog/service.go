package blog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Kyz7/dashboard/internal/activity"
	"github.com/Kyz7/dashboard/internal/apperror"
	"github.com/Kyz7/dashboard/internal/cache"
	"github.com/Kyz7/dashboard/internal/logger"
	"github.com/Kyz7/dashboard/internal/middleware"
	"github.com/Kyz7/dashboard/internal/models"
	"github.com/Kyz7/dashboard/internal/permission"
	"github.com/Kyz7/dashboard/internal/validation"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	cache    cache.Cache
	cacheTTL time.Duration

	// listGen moves on every listing invalidation.
	listGen atomic.Uint64
}

func NewService(db *gorm.DB, c cache.Cache, ttl time.Duration) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{db: db, cache: c, cacheTTL: ttl}
}

type CreateInput struct {
	Title        string           `json:"title" validate:"required,max=255"`
	Slug         string           `json:"slug" validate:"required,max=255"`
	FeatureImage *string          `json:"feature_image"`
	State        models.BlogState `json:"state" validate:"required,oneof=draft published archived unpublished"`
	AuthorID     *uint            `json:"author_id"`
}

type UpdateInput struct {
	ID           uint              `json:"id" validate:"required"`
	Title        *string           `json:"title" validate:"omitnil,min=1,max=255"`
	Slug         *string           `json:"slug" validate:"omitnil,min=1,max=255"`
	FeatureImage *string           `json:"feature_image"`
	State        *models.BlogState `json:"state" validate:"omitnil,oneof=draft published archived unpublished"`
	AuthorID     *uint             `json:"author_id"`
}

type DeleteInput struct {
	ID uint `json:"id" validate:"required"`
}

type DeleteManyInput struct {
	IDs []uint `json:"ids" validate:"required,min=1"`
}

func denied(verb string) error {
	return apperror.PermissionDenied(fmt.Sprintf("You do not have permission to %s blog posts.", verb))
}

// authorize runs the blog-post permission gate on db, which may be a
// transaction.
func authorize(ctx context.Context, db *gorm.DB, userID uint, action permission.Action) error {
	allowed, err := middleware.HasPermission(ctx, db, userID, models.EntityBlogPost, action)
	if err != nil {
		return apperror.Persistence("Failed to check permissions", err)
	}
	if !allowed {
		return denied(action.String())
	}
	return nil
}

func slugTaken(tx *gorm.DB, slug string, exceptID uint) (bool, error) {
	var count int64
	q := tx.Model(&models.BlogPost{}).Where("slug = ?", slug)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func mutationError(err error, message string) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("A blog post with this slug already exists")
	}
	return apperror.Persistence(message, err)
}

func activityFor(state models.BlogState) models.ActivityType {
	switch state {
	case models.BlogPublished:
		return models.ActivityPublishBlogPost
	case models.BlogArchived:
		return models.ActivityArchiveBlogPost
	case models.BlogUnpublished:
		return models.ActivityUnpublishBlogPost
	}
	return models.ActivityUpdateBlogPost
}

func (s *Service) CreateBlog(ctx context.Context, in CreateInput, userID uint) apperror.Result {
	if err := authorize(ctx, s.db, userID, permission.ActionCreate); err != nil {
		return apperror.Fail(err)
	}

	in.Title = validation.StripHTML(in.Title)
	if in.Slug == "" {
		in.Slug = GenerateSlug(in.Title)
	}
	if in.State == "" {
		in.State = models.BlogDraft
	}
	if err := validation.Struct(in); err != nil {
		return apperror.Fail(err)
	}

	author := in.AuthorID
	if author == nil {
		author = &userID
	}

	post := models.BlogPost{
		Title:        in.Title,
		Slug:         in.Slug,
		FeatureImage: in.FeatureImage,
		State:        in.State,
		AuthorID:     author,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := slugTaken(tx, post.Slug, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Conflict("A blog post with this slug already exists")
		}

		if err := tx.Create(&post).Error; err != nil {
			return err
		}

		return activity.Log(tx, activity.Entry{
			UserID:     userID,
			TeamUserID: *post.AuthorID,
			EntityID:   post.ID,
			Action:     models.ActivityCreateBlogPost,
			Metadata:   map[string]any{"title": post.Title, "state": post.State},
		})
	})
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to create blog post")
		return apperror.Fail(mutationError(err, "Failed to create blog post"))
	}

	s.InvalidateListings(ctx)
	return apperror.OK(post)
}

func (s *Service) UpdateBlog(ctx context.Context, in UpdateInput, userID uint) apperror.Result {
	var post *models.BlogPost
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		post, err = s.UpdateBlogInTx(tx, in, userID)
		return err
	})
	if err != nil {
		if !errors.Is(err, apperror.ErrPermissionDenied) {
			logger.Log.WithError(err).WithField("blog_id", in.ID).Error("Failed to update blog post")
		}
		return apperror.Fail(mutationError(err, "Failed to update blog post"))
	}

	s.InvalidateListings(ctx)
	return apperror.OK(post)
}

// UpdateBlogInTx applies a partial update inside the caller's transaction
// and returns a permission error instead of a result, so the caller can
// abort its own work. The caller invalidates listings after commit.
func (s *Service) UpdateBlogInTx(tx *gorm.DB, in UpdateInput, userID uint) (*models.BlogPost, error) {
	ctx := tx.Statement.Context
	if err := authorize(ctx, tx, userID, permission.ActionUpdate); err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := validation.StripHTML(*in.Title)
		in.Title = &title
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var post models.BlogPost
	if err := tx.Where("id = ? AND is_deleted = ?", in.ID, false).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Blog post")
		}
		return nil, err
	}

	changes := map[string]any{}
	if in.Title != nil {
		changes["title"] = *in.Title
	}
	if in.Slug != nil {
		taken, err := slugTaken(tx, *in.Slug, post.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperror.Conflict("A blog post with this slug already exists")
		}
		changes["slug"] = *in.Slug
	}
	if in.FeatureImage != nil {
		changes["feature_image"] = *in.FeatureImage
	}
	if in.State != nil {
		changes["state"] = *in.State
	}
	if in.AuthorID != nil {
		changes["author_id"] = *in.AuthorID
	}

	action := models.ActivityUpdateBlogPost
	if in.State != nil && *in.State != post.State {
		action = activityFor(*in.State)
	}

	if len(changes) > 0 {
		if err := tx.Model(&post).Updates(changes).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.First(&post, post.ID).Error; err != nil {
		return nil, err
	}

	if err := activity.Log(tx, activity.Entry{
		UserID:   userID,
		EntityID: post.ID,
		Action:   action,
		Metadata: map[string]any{"changes": changedFields(changes)},
	}); err != nil {
		return nil, err
	}

	return &post, nil
}

func changedFields(changes map[string]any) []string {
	fields := make([]string, 0, len(changes))
	for _, name := range []string{"title", "slug", "feature_image", "state", "author_id"} {
		if _, ok := changes[name]; ok {
			fields = append(fields, name)
		}
	}
	return fields
}

func (s *Service) DeleteBlog(ctx context.Context, in DeleteInput, userID uint) apperror.Result {
	if err := authorize(ctx, s.db, userID, permission.ActionDelete); err != nil {
		return apperror.Fail(err)
	}
	if err := validation.Struct(in); err != nil {
		return apperror.Fail(err)
	}

	var removed int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		removed, err = softDelete(tx, []uint{in.ID}, userID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return apperror.NotFound("Blog post")
		}
		return nil
	})
	if err != nil {
		return apperror.Fail(mutationError(err, "Failed to delete blog post"))
	}

	s.InvalidateListings(ctx)
	return apperror.OK(map[string]int{"deleted": removed})
}

// DeleteBlogs soft deletes every live post in ids. Ids that are unknown or
// already deleted are ignored.
func (s *Service) DeleteBlogs(ctx context.Context, in DeleteManyInput, userID uint) apperror.Result {
	if err := authorize(ctx, s.db, userID, permission.ActionDelete); err != nil {
		return apperror.Fail(err)
	}
	if err := validation.Struct(in); err != nil {
		return apperror.Fail(err)
	}

	var removed int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		removed, err = softDelete(tx, in.IDs, userID)
		return err
	})
	if err != nil {
		logger.Log.WithError(err).WithField("blog_ids", in.IDs).Error("Failed to delete blog posts")
		return apperror.Fail(mutationError(err, "Failed to delete blog posts"))
	}

	s.InvalidateListings(ctx)
	return apperror.OK(map[string]int{"deleted": removed})
}

// softDelete flags the live posts among ids and writes one activity row
// for each of them.
func softDelete(tx *gorm.DB, ids []uint, userID uint) (int, error) {
	var live []uint
	if err := tx.Model(&models.BlogPost{}).
		Where("id IN ? AND is_deleted = ?", ids, false).
		Order("id").
		Pluck("id", &live).Error; err != nil {
		return 0, err
	}
	if len(live) == 0 {
		return 0, nil
	}

	now := time.Now()
	if err := tx.Model(&models.BlogPost{}).
		Where("id IN ?", live).
		Updates(map[string]any{"is_deleted": true, "deleted_at": now}).Error; err != nil {
		return 0, err
	}

	for _, id := range live {
		if err := activity.Log(tx, activity.Entry{
			UserID:   userID,
			EntityID: id,
			Action:   models.ActivityDeleteBlogPost,
		}); err != nil {
			return 0, err
		}
	}
	return len(live), nil
}

func (s *Service) Activity(ctx context.Context, postID uint) ([]models.ActivityLog, error) {
	logs, err := activity.List(ctx, s.db, postID)
	if err != nil {
		return nil, apperror.Persistence("Failed to load blog activity", err)
	}
	return logs, nil
}
