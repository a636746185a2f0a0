package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchMessage_Encode(t *testing.T) {
	job := NewJob("0190f3c4-5d6e-7a8b-9c0d-1e2f3a4b5c6d", "https://example.com", time.Now())

	body, err := NewDispatchMessage(job).Encode()
	require.NoError(t, err)

	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &wire))

	// The wire shape is exactly {id, uri}
	assert.Len(t, wire, 2)
	assert.Equal(t, job.ID, wire["id"])
	assert.Equal(t, "https://example.com", wire["uri"])
}

func TestDecodeDispatchMessage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantID  string
		wantURI string
		wantErr bool
	}{
		{
			name:    "valid message",
			body:    `{"id":"0190f3c4-5d6e-7a8b-9c0d-1e2f3a4b5c6d","uri":"https://example.com"}`,
			wantID:  "0190f3c4-5d6e-7a8b-9c0d-1e2f3a4b5c6d",
			wantURI: "https://example.com",
		},
		{
			name:    "malformed json",
			body:    `{"id":`,
			wantErr: true,
		},
		{
			name:    "missing id",
			body:    `{"uri":"https://example.com"}`,
			wantErr: true,
		},
		{
			name:    "id is not a uuid",
			body:    `{"id":"J1","uri":"https://example.com"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeDispatchMessage([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, msg.ID)
			assert.Equal(t, tt.wantURI, msg.URI)
		})
	}
}
