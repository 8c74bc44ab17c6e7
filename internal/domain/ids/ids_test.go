package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeelus/server/internal/validation"
)

const testULID = "01HYX3KQW7ERTV9XNBM2P8QJZF"

func TestNewULIDReturnsValid(t *testing.T) {
	value, err := NewULID()

	require.NoError(t, err)
	require.True(t, IsULID(value))
}

func TestIsULID(t *testing.T) {
	require.True(t, IsULID(testULID))
	require.True(t, IsULID(" "+testULID+" "))
	require.False(t, IsULID("not-a-ulid"))
}

func TestParse(t *testing.T) {
	id, err := Parse("id", "01hyx3kqw7ertv9xnbm2p8qjzf")
	require.NoError(t, err)
	require.Equal(t, testULID, id)

	_, err = Parse("id", "abc123")
	var cast *validation.CastError
	require.ErrorAs(t, err, &cast)
	require.Equal(t, "id", cast.Path)
	require.Equal(t, "abc123", cast.Value)
}
