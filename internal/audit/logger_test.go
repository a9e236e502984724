package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	Log("identity", ActionSignIn, "u1", "a@x.com", "password", false, errors.New("bad password"))

	var line struct {
		AuditEvent Event `json:"audit_event"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "identity", line.AuditEvent.Service)
	assert.Equal(t, ActionSignIn, line.AuditEvent.Action)
	assert.Equal(t, "u1", line.AuditEvent.User)
	assert.Equal(t, "a@x.com", line.AuditEvent.Target)
	assert.False(t, line.AuditEvent.Success)
	assert.Equal(t, "bad password", line.AuditEvent.Error)
}
