package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandleMessageAppendsLine(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	body, err := json.Marshal(ActivityEvent{
		ID:         3,
		UserID:     11,
		Action:     "logout",
		IPAddress:  "192.0.2.1",
		OccurredAt: "2024-05-01T10:00:00Z",
	})
	require.NoError(t, err)

	require.NoError(t, HandleMessage(dir, body))
	require.NoError(t, HandleMessage(dir, body))

	out, err := os.ReadFile(filepath.Join(dir, "activity.log"))
	require.NoError(t, err)
	line := "[2024-05-01T10:00:00Z] activity=logout | id=3 | user_id=11 | ip=192.0.2.1\n"
	require.Equal(t, line+line, string(out))
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	require.Error(t, HandleMessage(t.TempDir(), []byte("{not json")))
}
