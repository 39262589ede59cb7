package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDsMarshalAsUUIDStrings(t *testing.T) {
	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	for name, v := range map[string]any{
		"user":        UserID(u),
		"application": ApplicationID(u),
		"profile":     ProfileID(u),
	} {
		raw, err := json.Marshal(v)
		require.NoError(t, err, name)
		assert.Equal(t, `"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`, string(raw), name)
	}
}

func TestApplicationIDRoundTripsThroughJSON(t *testing.T) {
	type payload struct {
		ID      ApplicationID `json:"id"`
		OwnerID UserID        `json:"owner_id"`
	}
	in := payload{
		ID:      ApplicationID(uuid.New()),
		OwnerID: UserID(uuid.New()),
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var generic map[string]string
	require.NoError(t, json.Unmarshal(raw, &generic), "IDs must decode as plain strings")

	parsed, err := ParseApplicationID(generic["id"])
	require.NoError(t, err)
	assert.Equal(t, in.ID, parsed)

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestUnmarshalTextRejectsGarbage(t *testing.T) {
	var appID ApplicationID
	assert.Error(t, json.Unmarshal([]byte(`"not-a-uuid"`), &appID))
}
