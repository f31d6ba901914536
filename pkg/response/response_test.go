package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginatedMeta(t *testing.T) {
	res := Paginated([]int{1, 2, 3}, 45, 2, 20)
	assert.Equal(t, "success", res.Status)
	require.NotNil(t, res.Meta)
	assert.EqualValues(t, 45, res.Meta.Total)
	assert.Equal(t, 2, res.Meta.Page)
	assert.Equal(t, 3, res.Meta.TotalPages)
}

func TestPaginatedZeroLimit(t *testing.T) {
	res := Paginated(nil, 10, 1, 0)
	require.NotNil(t, res.Meta)
	assert.Equal(t, 0, res.Meta.TotalPages)
}

func TestSuccessAndError(t *testing.T) {
	ok := Success(200, "payload")
	assert.Equal(t, "success", ok.Status)
	assert.Nil(t, ok.Meta)

	fail := Error(404, "not found")
	assert.Equal(t, "error", fail.Status)
	assert.Equal(t, "not found", fail.Error)
}
