package category

import (
	"errors"
	"net/http"
	"prompt-library-backend/internal/database"
	"prompt-library-backend/internal/metrics"
	"prompt-library-backend/internal/mockdata"
	"prompt-library-backend/internal/services"
	"prompt-library-backend/internal/utils"
	"prompt-library-backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	categories *services.CategoryService
}

func NewHandler(categories *services.CategoryService) *Handler {
	return &Handler{categories: categories}
}

func respondError(c *gin.Context, err error, failure string) {
	switch {
	case errors.Is(err, services.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse("Category not found"))
	case errors.Is(err, services.ErrCategoryExists):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Category with this name already exists"))
	case errors.Is(err, services.ErrCategoryInUse):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Cannot delete category that contains prompts"))
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, utils.ErrorResponse{Error: utils.InvalidRequestMessage, Message: err.Error()})
	default:
		logger.Log.Error(failure, zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(failure))
	}
}

// ListCategories godoc
// @Summary List categories
// @Description List categories sorted by name, each with its prompt count. Served from sample data with a warning when the database is unreachable.
// @Tags categories
// @Produce  json
// @Success 200 {object} utils.Response{data=[]category.CategoryResponse}
// @Failure 500 {object} utils.ErrorResponse
// @Router /categories [get]
func (h *Handler) ListCategories(c *gin.Context) {
	rows, err := h.categories.ListCategories(c.Request.Context())
	if err != nil {
		if database.IsUnavailable(err) {
			metrics.FallbackResponses.WithLabelValues("categories").Inc()
			logger.Log.Warn("Database unavailable, returning mock categories", zap.Error(err))
			c.JSON(http.StatusOK, utils.NewFallbackResponse(FallbackCategories(), mockdata.FallbackWarning))
			return
		}
		respondError(c, err, "Failed to fetch categories")
		return
	}

	items := make([]CategoryResponse, 0, len(rows))
	for i := range rows {
		items = append(items, withCount(&rows[i].Category, rows[i].PromptCount))
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse(items))
}

// FallbackCategories is the sample category set with its prompt counts.
func FallbackCategories() []CategoryResponse {
	samples := mockdata.Categories()
	items := make([]CategoryResponse, 0, len(samples))
	for i := range samples {
		items = append(items, withCount(&samples[i], mockdata.PromptCount(samples[i].Name)))
	}
	return items
}

// CreateCategory godoc
// @Summary Create a category
// @Description Create a category. Authentication is optional.
// @Tags categories
// @Accept  json
// @Produce  json
// @Param   input body category.CategoryRequest true "Category"
// @Success 201 {object} utils.Response{data=category.CategoryResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /categories [post]
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Category name is required"))
		return
	}

	category, err := h.categories.CreateCategory(c.Request.Context(), req.toInput())
	if err != nil {
		respondError(c, err, "Failed to create category")
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(toCategoryResponse(category)))
}

// UpdateCategory godoc
// @Summary Update a category
// @Description Partially update a category. Renaming onto an existing name is rejected.
// @Tags categories
// @Accept  json
// @Produce  json
// @Security Bearer
// @Param   id    path string true "Category ID"
// @Param   input body category.CategoryRequest true "Fields to change"
// @Success 200 {object} utils.Response{data=category.CategoryResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /categories/{id} [put]
func (h *Handler) UpdateCategory(c *gin.Context) {
	var req CategoryRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	category, err := h.categories.UpdateCategory(c.Request.Context(), c.Param("id"), req.toInput())
	if err != nil {
		respondError(c, err, "Failed to update category")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(toCategoryResponse(category)))
}

// DeleteCategory godoc
// @Summary Delete a category
// @Description Delete a category that has no prompts.
// @Tags categories
// @Security Bearer
// @Param   id path string true "Category ID"
// @Success 204
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /categories/{id} [delete]
func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.categories.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete category")
		return
	}

	c.Status(http.StatusNoContent)
}
