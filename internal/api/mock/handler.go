// Package mock serves the fixed sample data set without a database. It backs
// MOCK_MODE demos; nothing posted to it is persisted.
package mock

import (
	"net/http"
	"prompt-library-backend/internal/api/v1/category"
	"prompt-library-backend/internal/api/v1/prompt"
	"prompt-library-backend/internal/api/v1/stats"
	"prompt-library-backend/internal/mockdata"
	"prompt-library-backend/internal/utils"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	StatusMockData = "MOCK DATA"
	StatusMock     = "MOCK"

	Environment  = "mock-test"
	DatabaseNote = "MOCK DATA ONLY"

	listMessage    = "Using mock data - database unavailable"
	notPersisted   = "MOCK: Data not persisted (no database)"
	userNotCreated = "MOCK: User not actually created"
)

type MockUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse mirrors the shape of a real login without issuing a usable
// token.
type AuthResponse struct {
	Token   string   `json:"token"`
	User    MockUser `json:"user"`
	Message string   `json:"message,omitempty"`
	Status  string   `json:"status"`
}

type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
	Database    string    `json:"database"`
}

func nowMillis() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "OK",
		Timestamp:   time.Now().UTC(),
		Environment: Environment,
		Database:    DatabaseNote,
	})
}

func ListPrompts(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			limit = n
		}
	}

	results := mockdata.FilterPrompts(c.Query("category"), c.Query("search"), limit)
	c.JSON(http.StatusOK, utils.Response{
		Data:    prompt.SampleList(results),
		Status:  StatusMockData,
		Message: listMessage,
	})
}

func GetPrompt(c *gin.Context) {
	sample, ok := mockdata.FindPrompt(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse("Prompt not found"))
		return
	}
	c.JSON(http.StatusOK, utils.Response{Data: prompt.SampleDetail(sample), Status: StatusMockData})
}

func ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, utils.Response{Data: category.FallbackCategories(), Status: StatusMockData})
}

func GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, utils.Response{Data: stats.FallbackStats(), Status: StatusMockData})
}

// Echo answers a create request with the posted body plus a generated id.
func Echo(c *gin.Context) {
	body := map[string]interface{}{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse{Error: utils.InvalidRequestMessage, Message: err.Error()})
			return
		}
	}
	body["id"] = "new-" + nowMillis()
	body["createdAt"] = time.Now().UTC()

	c.JSON(http.StatusCreated, utils.Response{Data: body, Message: notPersisted, Status: StatusMock})
}

func Login(c *gin.Context) {
	c.JSON(http.StatusOK, AuthResponse{
		Token:  "mock-token-" + nowMillis(),
		User:   MockUser{ID: "mock-user", Name: "Mock User", Email: "mock@test.com"},
		Status: StatusMock,
	})
}

func Signup(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	_ = c.ShouldBindJSON(&req)

	c.JSON(http.StatusCreated, AuthResponse{
		Token:   "mock-token-" + nowMillis(),
		User:    MockUser{ID: "mock-user", Name: req.Name, Email: req.Email},
		Message: userNotCreated,
		Status:  StatusMock,
	})
}
