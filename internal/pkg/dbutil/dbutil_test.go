package dbutil

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalize_RebindsPlaceholders(t *testing.T) {
	query, args := Finalize("SELECT id FROM t WHERE a = ? AND b = ?", []interface{}{1, 2})
	require.Equal(t, "SELECT id FROM t WHERE a = $1 AND b = $2", query)
	require.Equal(t, []interface{}{1, 2}, args)
}

func TestFinalize_RewritesMySQLLimit(t *testing.T) {
	query, args := Finalize("SELECT id FROM t WHERE a = ? LIMIT ?,?", []interface{}{1, 10, 20})
	require.Equal(t, "SELECT id FROM t WHERE a = $1 LIMIT $2 OFFSET $3", query)
	// offset/count swap: postgres wants count before offset
	require.Equal(t, []interface{}{1, 20, 10}, args)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "42P01"}))
	require.False(t, IsConflict(errors.New("plain")))
	require.False(t, IsConflict(nil))
}

func TestIsMissingTable(t *testing.T) {
	require.True(t, IsMissingTable(&pq.Error{Code: "42P01"}))
	require.False(t, IsMissingTable(&pq.Error{Code: "23505"}))
	require.False(t, IsMissingTable(errors.New("plain")))
	require.False(t, IsMissingTable(nil))
}
