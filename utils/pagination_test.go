package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paginationForQuery(query string) *Pagination {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return NewPagination(c)
}

func TestNewPaginationDefaults(t *testing.T) {
	p := paginationForQuery("")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestNewPaginationOffset(t *testing.T) {
	p := paginationForQuery("page=3&limit=20")
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 40, p.Offset)
}

func TestNewPaginationClampsBadInput(t *testing.T) {
	p := paginationForQuery("page=-1&limit=500")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)

	p = paginationForQuery("page=abc&limit=xyz")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
}

func TestSetTotal(t *testing.T) {
	p := paginationForQuery("limit=10")
	p.SetTotal(41)
	assert.Equal(t, int64(41), p.Total)
	assert.Equal(t, 5, p.LastPage)
}
