package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergeflow/mergeflow/pkg/domain"
	"github.com/mergeflow/mergeflow/pkg/validate"
)

func TestCheck_AcceptsKnownExtensions(t *testing.T) {
	files := []domain.FileInfo{
		{Name: "customers.csv", SizeBytes: 1024},
		{Name: "accounts.XLSX", SizeBytes: 2048},
		{Name: "transactions.parquet", SizeBytes: 4096},
	}

	assert.NoError(t, validate.Check(files, validate.DataPolicy()))
}

func TestCheck_RejectsUnsupportedType(t *testing.T) {
	files := []domain.FileInfo{
		{Name: "customers.csv", SizeBytes: 1024},
		{Name: "virus.exe", SizeBytes: 10},
	}

	err := validate.Check(files, validate.DataPolicy())
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.UnsupportedType, verr.Kind)
	assert.Equal(t, "virus.exe", verr.File)
	assert.Contains(t, verr.Allowed, "csv")
	assert.Contains(t, err.Error(), "virus.exe")
}

func TestCheck_RejectsMissingExtension(t *testing.T) {
	err := validate.Check([]domain.FileInfo{{Name: "README", SizeBytes: 5}}, validate.DataPolicy())

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.UnsupportedType, verr.Kind)
}

func TestCheck_RejectsTooLarge(t *testing.T) {
	policy := validate.Policy{AllowedExtensions: []string{"csv"}, MaxSizeMB: 1}
	files := []domain.FileInfo{
		{Name: "small.csv", SizeBytes: 512},
		{Name: "huge.csv", SizeBytes: 2 << 20},
	}

	err := validate.Check(files, policy)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.TooLarge, verr.Kind)
	assert.Equal(t, "huge.csv", verr.File)
	assert.Equal(t, int64(1), verr.LimitMB)
}

func TestCheck_BoundaryIsInclusive(t *testing.T) {
	policy := validate.Policy{AllowedExtensions: []string{"csv"}, MaxSizeMB: 1}

	// Exactly at the limit is admitted; one byte over is not.
	assert.NoError(t, validate.Check([]domain.FileInfo{{Name: "edge.csv", SizeBytes: 1 << 20}}, policy))
	assert.Error(t, validate.Check([]domain.FileInfo{{Name: "edge.csv", SizeBytes: 1<<20 + 1}}, policy))
}

func TestCheck_ShortCircuitsOnFirstOffender(t *testing.T) {
	policy := validate.Policy{AllowedExtensions: []string{"csv"}, MaxSizeMB: 1}
	files := []domain.FileInfo{
		{Name: "first.bin", SizeBytes: 1},
		{Name: "second.csv", SizeBytes: 5 << 20},
	}

	err := validate.Check(files, policy)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "first.bin", verr.File, "the first violation in iteration order must be reported")
}

func TestPolicyFor(t *testing.T) {
	assert.Contains(t, validate.PolicyFor(domain.SchemaA).AllowedExtensions, "yaml")
	assert.Contains(t, validate.PolicyFor(domain.BundleA).AllowedExtensions, "parquet")
	assert.NotContains(t, validate.PolicyFor(domain.BundleB).AllowedExtensions, "yaml")
}
