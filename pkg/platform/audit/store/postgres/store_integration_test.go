//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/stagelink/stagelink/pkg/domain"
	"github.com/stagelink/stagelink/pkg/platform/audit"
	"github.com/stagelink/stagelink/pkg/platform/audit/store/postgres"
	"github.com/stagelink/stagelink/pkg/testutil/containers"
)

func TestOutboxRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pc := containers.NewPostgresContainer(t)
	store := postgres.New(pc.DB)
	ctx := context.Background()

	appID := id.ApplicationID(uuid.New())
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, audit.Event{
			Action:        audit.ActionSubmitted,
			ApplicationID: appID,
			ActorID:       id.UserID(uuid.New()),
			To:            "pending",
			Timestamp:     time.Now().UTC(),
		}))
	}

	batch, err := store.NextBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, appID.String(), batch[0].AggregateID)
	assert.Equal(t, string(audit.ActionSubmitted), batch[0].EventType)

	ids := []uuid.UUID{batch[0].ID, batch[1].ID}
	require.NoError(t, store.MarkPublished(ctx, ids))

	remaining, err := store.NextBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, batch[2].ID, remaining[0].ID)
}

func TestNextBatchHonorsLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pc := containers.NewPostgresContainer(t)
	store := postgres.New(pc.DB)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, audit.Event{
			Action:        audit.ActionRejected,
			ApplicationID: id.ApplicationID(uuid.New()),
			ActorID:       id.UserID(uuid.New()),
			To:            "rejected",
			Timestamp:     time.Now().UTC(),
		}))
	}

	batch, err := store.NextBatch(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)
}
