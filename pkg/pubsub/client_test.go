package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-payouts/pkg/config"
)

func TestResourceName(t *testing.T) {
	tests := []struct {
		name      string
		projectID string
		input     string
		want      string
	}{
		{name: "short id", projectID: "pf-prod", input: "pf-notification-events", want: "projects/pf-prod/topics/pf-notification-events"},
		{name: "full name passthrough", projectID: "pf-prod", input: "projects/other/topics/events", want: "projects/other/topics/events"},
		{name: "blank name", projectID: "pf-prod", input: "  ", want: ""},
		{name: "subscription kind does not pass a topic", projectID: "pf-prod", input: "projects/other/subscriptions/events", want: "projects/pf-prod/topics/projects/other/subscriptions/events"},
		{name: "trims whitespace", projectID: " pf-prod ", input: " events ", want: "projects/pf-prod/topics/events"},
		{name: "missing project", projectID: "", input: "events", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resourceName(tt.projectID, "topics", tt.input))
		})
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{NotificationTopic: "events"}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)

	_, err = NewClient(context.Background(), config.GCPConfig{ProjectID: "pf"}, config.PubSubConfig{}, nil)
	require.ErrorIs(t, err, errNoTopic)
}

func TestNilClientHelpers(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("events"))
	assert.Nil(t, c.NotificationPublisher())
	assert.NoError(t, c.Close())
	assert.ErrorIs(t, c.Ping(context.Background()), errNotInitialized)

	empty := &Client{}
	assert.Nil(t, empty.Publisher("events"))
	assert.ErrorIs(t, empty.Ping(context.Background()), errNotInitialized)
}
