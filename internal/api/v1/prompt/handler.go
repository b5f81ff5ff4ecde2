package prompt

import (
	"errors"
	"math"
	"net/http"
	"prompt-library-backend/internal/database"
	"prompt-library-backend/internal/metrics"
	"prompt-library-backend/internal/middleware"
	"prompt-library-backend/internal/mockdata"
	"prompt-library-backend/internal/models"
	"prompt-library-backend/internal/services"
	"prompt-library-backend/internal/utils"
	"prompt-library-backend/pkg/logger"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgPromptNotFound   = "Prompt not found"
	msgTitleAndPrompt   = "Title and prompt are required"
	msgRatingRange      = "Rating must be between 1 and 5"
	msgEditForbidden    = "You can only edit your own prompts"
	msgDeleteForbidden  = "You can only delete your own prompts"
	msgFetchPromptsFail = "Failed to fetch prompts"
)

type Handler struct {
	prompts  *services.PromptService
	activity *services.ActivityService
}

func NewHandler(prompts *services.PromptService, activity *services.ActivityService) *Handler {
	return &Handler{prompts: prompts, activity: activity}
}

// queryInt parses a non-negative integer query parameter, falling back to def
// when it is missing or invalid.
func queryInt(c *gin.Context, key string, def int, allowZero bool) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 || (v == 0 && !allowZero) {
		return def
	}
	return v
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// respondError maps service errors that every prompt endpoint shares.
func respondError(c *gin.Context, err error, failure string) {
	switch {
	case errors.Is(err, services.ErrPromptNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(msgPromptNotFound))
	case errors.Is(err, services.ErrInvalidRating):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(msgRatingRange))
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, utils.ErrorResponse{Error: utils.InvalidRequestMessage, Message: err.Error()})
	default:
		logger.Log.Error(failure,
			zap.Error(err),
			zap.String("request_id", middleware.RequestMeta(c).RequestID),
		)
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(failure))
	}
}

func logFallback(err error) {
	metrics.FallbackResponses.WithLabelValues("prompts").Inc()
	logger.Log.Warn("Database unavailable, returning mock data", zap.Error(err))
}

func validRating(r *float64) bool {
	if r == nil || *r != math.Trunc(*r) {
		return false
	}
	return *r >= models.MinRating && *r <= models.MaxRating
}

// ListPrompts godoc
// @Summary List prompts
// @Description Page through prompts, newest first. Served from sample data with a warning when the database is unreachable.
// @Tags prompts
// @Produce  json
// @Param   category query string false "Exact category name"
// @Param   search   query string false "Case-insensitive text search"
// @Param   tags     query string false "Comma-separated tags, match any"
// @Param   limit    query int    false "Page size" default(50)
// @Param   offset   query int    false "Rows to skip" default(0)
// @Success 200 {object} utils.Response{data=[]prompt.PromptListItem}
// @Failure 500 {object} utils.ErrorResponse
// @Router /prompts [get]
func (h *Handler) ListPrompts(c *gin.Context) {
	limit := queryInt(c, "limit", services.DefaultPromptLimit, false)
	filter := services.PromptFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Tags:     splitTags(c.Query("tags")),
		Limit:    limit,
		Offset:   queryInt(c, "offset", 0, true),
	}

	prompts, err := h.prompts.ListPrompts(c.Request.Context(), filter)
	if err != nil {
		if database.IsUnavailable(err) {
			logFallback(err)
			c.JSON(http.StatusOK, utils.NewFallbackResponse(SampleList(mockdata.Limit(mockdata.Prompts(), limit)), mockdata.FallbackWarning))
			return
		}
		respondError(c, err, msgFetchPromptsFail)
		return
	}

	items := make([]PromptListItem, 0, len(prompts))
	for _, p := range prompts {
		items = append(items, toListItem(p))
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse(items))
}

// GetPrompt godoc
// @Summary Get a prompt
// @Description Get a prompt with its reviews and category. The rating is recomputed from the reviews.
// @Tags prompts
// @Produce  json
// @Param   id path string true "Prompt ID"
// @Success 200 {object} utils.Response{data=prompt.PromptDetail}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /prompts/{id} [get]
func (h *Handler) GetPrompt(c *gin.Context) {
	id := c.Param("id")

	p, err := h.prompts.GetPrompt(c.Request.Context(), id)
	if err != nil {
		if database.IsUnavailable(err) {
			logFallback(err)
			sample, ok := mockdata.FindPrompt(id)
			if !ok {
				c.JSON(http.StatusNotFound, utils.NewErrorResponse(msgPromptNotFound))
				return
			}
			c.JSON(http.StatusOK, utils.NewFallbackResponse(SampleDetail(sample), mockdata.FallbackWarning))
			return
		}
		respondError(c, err, "Failed to fetch prompt")
		return
	}

	h.activity.Track(c.Request.Context(), services.ActivityEntry{
		Action:   models.ActivityView,
		PromptID: p.ID,
		UserID:   middleware.CurrentUserID(c),
		Meta:     middleware.RequestMeta(c),
	})

	c.JSON(http.StatusOK, utils.NewSuccessResponse(toPromptDetail(p)))
}

// CreatePrompt godoc
// @Summary Create a prompt
// @Description Create a prompt owned by the caller. Omitted fields get defaults.
// @Tags prompts
// @Accept  json
// @Produce  json
// @Security Bearer
// @Param   input body prompt.CreatePromptRequest true "Prompt"
// @Success 201 {object} utils.Response{data=prompt.PromptResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /prompts [post]
func (h *Handler) CreatePrompt(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req CreatePromptRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(msgTitleAndPrompt))
		return
	}

	p, err := h.prompts.CreatePrompt(c.Request.Context(), user, req.toInput(), middleware.RequestMeta(c))
	if err != nil {
		respondError(c, err, "Failed to create prompt")
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(toPromptResponse(p)))
}

// UpdatePrompt godoc
// @Summary Update a prompt
// @Description Partially update a prompt. Only the author may edit.
// @Tags prompts
// @Accept  json
// @Produce  json
// @Security Bearer
// @Param   id    path string true "Prompt ID"
// @Param   input body prompt.UpdatePromptRequest true "Fields to change"
// @Success 200 {object} utils.Response{data=prompt.PromptResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /prompts/{id} [put]
func (h *Handler) UpdatePrompt(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req UpdatePromptRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	p, err := h.prompts.UpdatePrompt(c.Request.Context(), c.Param("id"), user, req.toInput(), middleware.RequestMeta(c))
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			c.JSON(http.StatusForbidden, utils.NewErrorResponse(msgEditForbidden))
			return
		}
		respondError(c, err, "Failed to update prompt")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(toPromptResponse(p)))
}

// DeletePrompt godoc
// @Summary Delete a prompt
// @Description Delete a prompt and its reviews. Only the author may delete.
// @Tags prompts
// @Security Bearer
// @Param   id path string true "Prompt ID"
// @Success 204
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /prompts/{id} [delete]
func (h *Handler) DeletePrompt(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	err := h.prompts.DeletePrompt(c.Request.Context(), c.Param("id"), user, middleware.RequestMeta(c))
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			c.JSON(http.StatusForbidden, utils.NewErrorResponse(msgDeleteForbidden))
			return
		}
		respondError(c, err, "Failed to delete prompt")
		return
	}

	c.Status(http.StatusNoContent)
}

// TrackUsage godoc
// @Summary Track prompt usage
// @Description Increment the usage counter of a prompt. Authentication is optional.
// @Tags prompts
// @Produce  json
// @Param   id path string true "Prompt ID"
// @Success 200 {object} utils.MessageResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /prompts/{id}/use [post]
func (h *Handler) TrackUsage(c *gin.Context) {
	err := h.prompts.TrackUsage(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), middleware.RequestMeta(c))
	if err != nil {
		respondError(c, err, "Failed to track usage")
		return
	}

	c.JSON(http.StatusOK, utils.MessageResponse{Message: "Usage tracked"})
}

// AddReview godoc
// @Summary Review a prompt
// @Description Add a 1-5 rating with optional feedback. The prompt's rating becomes the mean of all its reviews.
// @Tags prompts
// @Accept  json
// @Produce  json
// @Security Bearer
// @Param   id    path string true "Prompt ID"
// @Param   input body prompt.CreateReviewRequest true "Review"
// @Success 201 {object} utils.Response{data=prompt.ReviewResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /prompts/{id}/review [post]
func (h *Handler) AddReview(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req CreateReviewRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if !validRating(req.Rating) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(msgRatingRange))
		return
	}

	review, err := h.prompts.AddReview(c.Request.Context(), c.Param("id"), user, services.CreateReviewInput{
		Rating:                 int(*req.Rating),
		Comment:                req.Comment,
		ToolUsed:               req.ToolUsed,
		WhatWorked:             req.WhatWorked,
		WhatDidntWork:          req.WhatDidntWork,
		ImprovementSuggestions: req.ImprovementSuggestions,
		TestRunGraphicsLink:    req.TestRunGraphicsLink,
	}, middleware.RequestMeta(c))
	if err != nil {
		respondError(c, err, "Failed to add review")
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(toReviewResponse(review)))
}
