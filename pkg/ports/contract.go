package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergeflow/mergeflow/pkg/domain"
)

// RunResultStoreContract runs a suite of tests to verify that a ResultStore
// implementation adheres to the defined interface contract.
func RunResultStoreContract(t *testing.T, store ResultStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	sample := &domain.JobResult{
		SessionID:   sessionID,
		OutputFiles: []string{"merged_customers.csv", "merged_output.zip"},
		Mappings: &domain.MappingReport{
			TableMappings: []domain.TableMapping{
				{
					SourceTable: "customers",
					TargetTable: "clients",
					FieldMappings: []domain.FieldMapping{
						{SourceField: "cust_id", TargetField: "client_id", Confidence: 0.95, Reasoning: "same key space"},
					},
				},
			},
			Summary: "one-to-one customer mapping",
		},
		Message: "Successfully merged 1 tables",
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, sessionID, sample)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sample.OutputFiles, loaded.OutputFiles)
		require.NotNil(t, loaded.Mappings)
		assert.Equal(t, "one-to-one customer mapping", loaded.Mappings.Summary)
		assert.Equal(t, 0.95, loaded.Mappings.TableMappings[0].FieldMappings[0].Confidence)
	})

	t.Run("Overwrite replaces entirely", func(t *testing.T) {
		replacement := &domain.JobResult{OutputFiles: []string{"merged_output.zip"}}
		require.NoError(t, store.Save(ctx, sessionID, replacement))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, []string{"merged_output.zip"}, loaded.OutputFiles)
		assert.Nil(t, loaded.Mappings, "prior fields must not survive an overwrite")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrResultNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, sample))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrResultNotFound, "Load after Delete should return ErrResultNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, sample))
		require.NoError(t, store.Save(ctx, id2, sample))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
