package pubsub

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/medimitra/medimitra-backend/pkg/config"
)

func TestResourceName(t *testing.T) {
	require.Equal(t, "projects/medimitra-dev/topics/orders", resourceName("medimitra-dev", "topics", "orders"))
	require.Equal(t, "projects/other/topics/orders", resourceName("medimitra-dev", "topics", "projects/other/topics/orders"))
	require.Equal(t, "projects/medimitra-dev/subscriptions/notify-sub", resourceName("medimitra-dev", "subscriptions", " notify-sub "))
}

func TestUninitializedClient(t *testing.T) {
	var c *Client
	require.Nil(t, c.Publisher("orders"))
	require.Error(t, c.Ping(t.Context()))
	require.NoError(t, c.Close())
}

func TestTopicNamesSkipsBlank(t *testing.T) {
	require.Equal(t, []string{"orders"}, topicNames(config.PubSubConfig{OrdersTopic: "orders", NotificationTopic: "  "}))
	require.Empty(t, topicNames(config.PubSubConfig{}))
}

func TestClientOptionsPrecedence(t *testing.T) {
	all := config.GCPConfig{
		PubSubEmulatorHost:     "localhost:8085",
		CredentialsJSON:        `{"type":"service_account"}`,
		ApplicationCredentials: "/etc/medimitra/gcp.json",
	}
	require.Len(t, clientOptions(all), 3)

	all.PubSubEmulatorHost = ""
	require.Len(t, clientOptions(all), 1)

	require.Len(t, clientOptions(config.GCPConfig{ApplicationCredentials: "/etc/medimitra/gcp.json"}), 1)
	require.Empty(t, clientOptions(config.GCPConfig{}))
}

func TestDescribe(t *testing.T) {
	require.NoError(t, describe("topic", "orders", nil))
	require.EqualError(t, describe("topic", "orders", status.Error(codes.NotFound, "gone")), `topic "orders" does not exist`)
	require.ErrorContains(t, describe("subscription", "n", errors.New("dial")), `check subscription "n": dial`)
}
