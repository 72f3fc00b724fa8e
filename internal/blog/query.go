package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kyz7/dashboard/internal/apperror"
	"github.com/Kyz7/dashboard/internal/logger"
	"github.com/Kyz7/dashboard/internal/models"
	"gorm.io/gorm"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100

	listCachePrefix = "blogs:list:"
)

type ListParams struct {
	Page     int    `query:"page" json:"page"`
	PerPage  int    `query:"per_page" json:"per_page"`
	Sort     string `query:"sort" json:"sort"`
	Title    string `query:"title" json:"title"`
	State    string `query:"state" json:"state"`
	Operator string `query:"operator" json:"operator"`
}

type Page struct {
	Data      []models.BlogPost `json:"data"`
	PageCount int64             `json:"page_count"`
}

func emptyPage() Page {
	return Page{Data: []models.BlogPost{}, PageCount: 0}
}

// sortColumns maps the accepted sort names, camelCase or snake_case, to
// blog_posts columns.
var sortColumns = map[string]string{
	"id":            "id",
	"title":         "title",
	"slug":          "slug",
	"state":         "state",
	"featureImage":  "feature_image",
	"feature_image": "feature_image",
	"authorId":      "author_id",
	"author_id":     "author_id",
	"createdAt":     "created_at",
	"created_at":    "created_at",
	"updatedAt":     "updated_at",
	"updated_at":    "updated_at",
	"isDeleted":     "is_deleted",
	"is_deleted":    "is_deleted",
	"deletedAt":     "deleted_at",
	"deleted_at":    "deleted_at",
}

func (p ListParams) normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	p.Title = strings.TrimSpace(p.Title)
	p.State = strings.TrimSpace(p.State)
	if strings.ToLower(p.Operator) == "or" {
		p.Operator = "or"
	} else {
		p.Operator = "and"
	}
	return p
}

func (p ListParams) cacheKey() string {
	return fmt.Sprintf("%spage=%d:per=%d:sort=%s:title=%s:state=%s:op=%s",
		listCachePrefix, p.Page, p.PerPage, p.Sort, strings.ToLower(p.Title), p.State, p.Operator)
}

// orderClause turns "column.direction" into an ORDER BY clause. No sort
// means newest first; an unknown column falls back to id.
func orderClause(sort string) string {
	if sort == "" {
		return "created_at DESC"
	}

	name, dir, _ := strings.Cut(sort, ".")
	column, ok := sortColumns[name]
	if !ok {
		return "id DESC"
	}
	if strings.ToLower(dir) == "asc" {
		return column + " ASC"
	}
	return column + " DESC"
}

// filter combines the title and state predicates with the operator and
// always excludes soft-deleted posts.
func filter(p ListParams) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("is_deleted = ?", false)

		var conds []string
		var args []any
		if p.Title != "" {
			conds = append(conds, "LOWER(title) LIKE ?")
			args = append(args, "%"+strings.ToLower(p.Title)+"%")
		}
		if p.State != "" {
			conds = append(conds, "state IN ?")
			args = append(args, strings.Split(p.State, "."))
		}
		if len(conds) == 0 {
			return q
		}

		joiner := " AND "
		if p.Operator == "or" {
			joiner = " OR "
		}
		return q.Where("("+strings.Join(conds, joiner)+")", args...)
	}
}

// GetBlogs returns one page of live posts and the number of pages. On
// failure the page is empty and the error says why.
func (s *Service) GetBlogs(ctx context.Context, params ListParams) (Page, error) {
	p := params.normalize()
	key := p.cacheKey()

	var cached Page
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		logger.Log.WithError(err).Warn("Blog listing cache read failed")
	} else if ok {
		return cached, nil
	}

	gen := s.listGen.Load()
	page := emptyPage()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total int64
		if err := tx.Model(&models.BlogPost{}).Scopes(filter(p)).Count(&total).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.BlogPost{}).
			Scopes(filter(p)).
			Order(orderClause(p.Sort)).
			Limit(p.PerPage).
			Offset((p.Page - 1) * p.PerPage).
			Find(&page.Data).Error; err != nil {
			return err
		}

		page.PageCount = (total + int64(p.PerPage) - 1) / int64(p.PerPage)
		return nil
	})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to list blog posts")
		return emptyPage(), apperror.Persistence("Failed to load blog posts", err)
	}

	s.storeListing(ctx, key, page, gen)
	return page, nil
}

// storeListing caches a page read at generation gen. A page read before an
// invalidation is never left behind: it is skipped when the generation has
// already moved, and dropped again when it moves during the write.
func (s *Service) storeListing(ctx context.Context, key string, page Page, gen uint64) {
	if s.listGen.Load() != gen {
		return
	}
	if err := s.cache.Set(ctx, key, page, s.cacheTTL); err != nil {
		logger.Log.WithError(err).Warn("Blog listing cache write failed")
		return
	}
	if s.listGen.Load() != gen {
		if err := s.cache.DeletePrefix(ctx, key); err != nil {
			logger.Log.WithError(err).Warn("Blog listing cache invalidation failed")
		}
	}
}

// InvalidateListings drops every cached listing page. Call it after a
// transaction that changed posts has committed.
func (s *Service) InvalidateListings(ctx context.Context) {
	s.listGen.Add(1)
	if err := s.cache.DeletePrefix(ctx, listCachePrefix); err != nil {
		logger.Log.WithError(err).Warn("Blog listing cache invalidation failed")
	}
}
