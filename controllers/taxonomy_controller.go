package controllers

import (
	"net/http"
	"regexp"
	"strings"

	"giftshop/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type taxonInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

func (in taxonInput) fields() (bson.M, string) {
	set := bson.M{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, "Name must not be empty"
		}
		set["name"] = name
	}
	if in.Slug != nil {
		slug := strings.ToLower(strings.TrimSpace(*in.Slug))
		if !slugPattern.MatchString(slug) {
			return nil, "Invalid slug"
		}
		set["slug"] = slug
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	return set, ""
}

// slugify derives a slug from a display name, e.g. "Mother's Day" -> "mother-s-day".
func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func (h *Handler) GetCategories(c *gin.Context) { listTaxa(c, h.Categories) }
func (h *Handler) GetOccasions(c *gin.Context)  { listTaxa(c, h.Occasions) }

func (h *Handler) CreateCategory(c *gin.Context) { createTaxon(c, h.Categories) }
func (h *Handler) CreateOccasion(c *gin.Context) { createTaxon(c, h.Occasions) }

func (h *Handler) UpdateCategory(c *gin.Context) { updateTaxon(c, h.Categories) }
func (h *Handler) UpdateOccasion(c *gin.Context) { updateTaxon(c, h.Occasions) }

func (h *Handler) DeleteCategory(c *gin.Context) { deleteTaxon(c, h.Categories) }
func (h *Handler) DeleteOccasion(c *gin.Context) { deleteTaxon(c, h.Occasions) }

func listTaxa(c *gin.Context, repo TaxonomyRepository) {
	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := repo.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": items})
}

func createTaxon(c *gin.Context, repo TaxonomyRepository) {
	var in taxonInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if in.Name == nil {
		badRequest(c, "Name is required")
		return
	}
	if in.Slug == nil {
		s := slugify(*in.Name)
		in.Slug = &s
	}
	set, msg := in.fields()
	if msg != "" {
		badRequest(c, msg)
		return
	}

	t := models.Taxon{}
	t.Name, _ = set["name"].(string)
	t.Slug, _ = set["slug"].(string)
	t.Description, _ = set["description"].(string)

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := repo.Create(ctx, &t); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Created", "data": t})
}

func updateTaxon(c *gin.Context, repo TaxonomyRepository) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in taxonInput
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

	t, err := repo.Update(ctx, id, set)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Updated", "data": t})
}

func deleteTaxon(c *gin.Context, repo TaxonomyRepository) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := repo.Delete(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}
