package beacon

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNATSSubject(t *testing.T) {
	b := NewNATS(nil, NATSConfig{SubjectPrefix: "fc.beacon"}, zerolog.Nop())

	tests := []struct {
		path string
		want string
	}{
		{"/presence/leave", "fc.beacon.presence.leave"},
		{"/study/end", "fc.beacon.study.end"},
		{"study//end/", "fc.beacon.study.end"},
		{"", "fc.beacon"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Subject(tt.path), "Subject(%q)", tt.path)
	}
}

func TestNewNATSDefaults(t *testing.T) {
	b := NewNATS(nil, NATSConfig{}, zerolog.Nop())

	assert.Equal(t, DefaultNATSConfig().SubjectPrefix, b.config.SubjectPrefix)
	assert.Equal(t, DefaultDispatchTimeout, b.config.DispatchTimeout)
	assert.NoError(t, b.Close())
}

func TestDialNATSUnreachable(t *testing.T) {
	cfg := DefaultNATSConfig()
	cfg.URL = "nats://127.0.0.1:1"
	cfg.MaxReconnects = 0

	_, err := DialNATS(cfg, zerolog.Nop())
	assert.Error(t, err)
}
