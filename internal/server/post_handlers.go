package server

import (
	"blogadmin/internal/models"
	"blogadmin/internal/resource"
	"blogadmin/internal/service"

	"github.com/gofiber/fiber/v2"
)

// formOptions describes the thumbnail upload for the form schema.
func (s *Server) formOptions() resource.FormOptions {
	return resource.FormOptions{
		Now:                s.now().In(s.config.Location()),
		ThumbnailDirectory: s.thumbnails.Directory(),
		ThumbnailPrefix:    s.thumbnails.Prefix(),
		ThumbnailMaxSizeKB: s.thumbnails.MaxSizeKB(),
	}
}

// GetResourceSchema handles GET /admin/posts/schema
func (s *Server) GetResourceSchema(c *fiber.Ctx) error {
	return c.JSON(resource.Describe(s.tr, s.formOptions()))
}

// ListPosts handles GET /admin/posts
func (s *Server) ListPosts(c *fiber.Ctx) error {
	search := c.Query("search")
	page, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Search:    search,
		Sort:      c.Query("sort"),
		Direction: c.Query("direction"),
		Page:      c.QueryInt("page", 1),
		PerPage:   c.QueryInt("per_page", resource.DefaultPerPage),
	})
	if err != nil {
		return respondError(c, err)
	}

	rows := resource.RenderRows(page.Posts, resource.RowContext{
		Now:      s.now(),
		Location: s.config.Location(),
		URLFor:   s.thumbnails.URL,
	})

	return c.JSON(fiber.Map{
		"labels": resource.GetLabels(s.tr),
		"table":  resource.Table(s.tr),
		"rows":   rows,
		"sort":   page.Sort,
		"search": search,
		"pagination": fiber.Map{
			"total":     page.Total,
			"page":      page.Page,
			"per_page":  page.PerPage,
			"last_page": page.LastPage,
		},
	})
}

// GetCreateForm handles GET /admin/posts/create
func (s *Server) GetCreateForm(c *fiber.Ctx) error {
	opts := s.formOptions()
	return c.JSON(fiber.Map{
		"form":  resource.Form(s.tr, opts),
		"state": resource.DefaultState(opts.Now),
	})
}

// CreatePost handles POST /admin/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	in, err := s.readPostForm(c)
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		Title:       in.Title,
		Content:     in.Content,
		PublishedAt: in.PublishedAt,
		Featured:    in.Featured,
		Thumbnail:   in.Thumbnail,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"state":    resource.FormState(post, s.thumbnails.URL),
		"redirect": resource.PageURL(resource.PageEdit, post.ID),
	})
}

// DeriveSlug handles POST /admin/posts/slug, the live update of the title field.
func (s *Server) DeriveSlug(c *fiber.Ctx) error {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	return c.JSON(resource.DeriveState(resource.FieldTitle, req.Title))
}

// ViewPost handles GET /admin/posts/:record
func (s *Server) ViewPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "record")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"form":      resource.Form(s.tr, s.formOptions()),
		"state":     resource.FormState(post, s.thumbnails.URL),
		"read_only": true,
	})
}

// GetEditForm handles GET /admin/posts/:record/edit
func (s *Server) GetEditForm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "record")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"form":  resource.Form(s.tr, s.formOptions()),
		"state": resource.FormState(post, s.thumbnails.URL),
	})
}

// UpdatePost handles PUT /admin/posts/:record
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "record")
	if err != nil {
		return nil
	}

	in, err := s.readPostForm(c)
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		PostID:      id,
		Title:       in.Title,
		Content:     in.Content,
		PublishedAt: in.PublishedAt,
		Featured:    in.Featured,
		Thumbnail:   in.Thumbnail,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"state": resource.FormState(post, s.thumbnails.URL),
	})
}

// DeletePost handles DELETE /admin/posts/:record
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "record")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// BulkDeletePosts handles POST /admin/posts/bulk-delete
func (s *Server) BulkDeletePosts(c *fiber.Ctx) error {
	var req struct {
		IDs []uint `json:"ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	deleted, err := s.postService.BulkDeletePosts(c.UserContext(), req.IDs)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"deleted": deleted})
}
