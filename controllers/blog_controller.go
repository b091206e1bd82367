package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"giftshop/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

type blogInput struct {
	Title     *string `json:"title"`
	Slug      *string `json:"slug"`
	Excerpt   *string `json:"excerpt"`
	Body      *string `json:"body"`
	ImageURL  *string `json:"imageUrl"`
	Published *bool   `json:"published"`
}

func (in blogInput) fields() (bson.M, string) {
	set := bson.M{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, "Title must not be empty"
		}
		set["title"] = title
	}
	if in.Slug != nil {
		slug := strings.ToLower(strings.TrimSpace(*in.Slug))
		if !slugPattern.MatchString(slug) {
			return nil, "Invalid slug"
		}
		set["slug"] = slug
	}
	if in.Excerpt != nil {
		set["excerpt"] = strings.TrimSpace(*in.Excerpt)
	}
	if in.Body != nil {
		set["body"] = *in.Body
	}
	if in.ImageURL != nil {
		set["imageUrl"] = strings.TrimSpace(*in.ImageURL)
	}
	if in.Published != nil {
		set["published"] = *in.Published
	}
	return set, ""
}

func blogFilter(c *gin.Context) (models.BlogFilter, bool) {
	var f models.BlogFilter
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit < 0 {
		badRequest(c, "Invalid limit")
		return f, false
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	skip, err := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	if err != nil || skip < 0 {
		badRequest(c, "Invalid skip")
		return f, false
	}
	f.Limit, f.Skip = limit, skip
	return f, true
}

func (h *Handler) GetBlogsPublic(c *gin.Context) {
	filter, ok := blogFilter(c)
	if !ok {
		return
	}
	filter.PublishedOnly = true

	ctx, cancel := requestCtx(c)
	defer cancel()

	posts, err := h.Blogs.List(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": posts})
}

func (h *Handler) GetBlogBySlug(c *gin.Context) {
	ctx, cancel := requestCtx(c)
	defer cancel()

	post, err := h.Blogs.GetPublishedBySlug(ctx, strings.ToLower(c.Param("slug")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": post})
}

// GetBlogsAdmin lists drafts and published posts.
func (h *Handler) GetBlogsAdmin(c *gin.Context) {
	filter, ok := blogFilter(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	posts, err := h.Blogs.List(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": posts})
}

func (h *Handler) CreateBlog(c *gin.Context) {
	var in blogInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if in.Title == nil || in.Body == nil {
		badRequest(c, "Title and body are required")
		return
	}
	if in.Slug == nil {
		s := slugify(*in.Title)
		in.Slug = &s
	}
	set, msg := in.fields()
	if msg != "" {
		badRequest(c, msg)
		return
	}

	post := models.Blog{}
	post.Title, _ = set["title"].(string)
	post.Slug, _ = set["slug"].(string)
	post.Excerpt, _ = set["excerpt"].(string)
	post.Body, _ = set["body"].(string)
	post.ImageURL, _ = set["imageUrl"].(string)
	post.Published, _ = set["published"].(bool)

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Blogs.Create(ctx, &post); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Created", "data": post})
}

func (h *Handler) UpdateBlog(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in blogInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	set, msg := in.fields()
	if msg != "" {
		badRequest(c, msg)
		return
	}
	if len(set) == 0 {
		badRequest(c, "Nothing to update")
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	// The publish date is stamped the first time a draft goes live.
	if published, _ := set["published"].(bool); published {
		current, err := h.Blogs.Get(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		if current.PublishedAt == nil {
			set["publishedAt"] = h.now().UTC()
		}
	}

	post, err := h.Blogs.Update(ctx, id, set)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Updated", "data": post})
}

func (h *Handler) DeleteBlog(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Blogs.Delete(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}
