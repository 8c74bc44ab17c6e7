package audit

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeAudit(t *testing.T, buf *bytes.Buffer) (map[string]json.RawMessage, Entry) {
	t.Helper()
	var wrapper map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &wrapper))

	raw, ok := wrapper["audit"]
	require.True(t, ok, "no audit field in %s", buf.String())

	var entry Entry
	require.NoError(t, json.Unmarshal(raw, &entry))
	return wrapper, entry
}

func TestLogger_LogSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	logger.LogSuccess("booking.delete", "01HX12ABC123", "admin", "booking", "01HX12BOOK01", map[string]string{"owner_id": "01HX12OWNER1"})

	wrapper, entry := decodeAudit(t, &buf)
	require.Equal(t, `"audit"`, string(wrapper["component"]))
	require.Equal(t, "booking.delete", entry.Action)
	require.Equal(t, "01HX12ABC123", entry.Actor)
	require.Equal(t, "admin", entry.ActorRole)
	require.Equal(t, "success", entry.Status)
	require.Equal(t, "01HX12OWNER1", entry.Details["owner_id"])
	require.False(t, entry.Timestamp.IsZero())
}

func TestLogger_LogFailure(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(zerolog.New(&buf)).LogFailure("event.delete", "u1", "admin", "event", "e1", nil)

	_, entry := decodeAudit(t, &buf)
	require.Equal(t, "failure", entry.Status)
	require.Empty(t, entry.Details)
}

func TestLogger_NilIsNoop(t *testing.T) {
	var logger *Logger
	logger.LogSuccess("noop", "", "", "", "", nil)
}
