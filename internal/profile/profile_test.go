package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("TIREBOT_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TIREBOT_WEBHOOK_SECRET", "hook-secret")
	t.Setenv("TIREBOT_PANEL_BASE_URL", "https://panel.example.com/")
	t.Setenv("TIREBOT_ALLOWED_USERS", " 111, 222 ,,333 ")

	p := &Profile{}
	p.FromEnv()

	require.Equal(t, "123:abc", p.BotToken)
	require.Equal(t, "hook-secret", p.WebhookSecret)
	// Trailing slash is stripped so URL joins stay predictable.
	require.Equal(t, "https://panel.example.com", p.PanelBaseURL)
	require.Equal(t, []string{"111", "222", "333"}, p.AllowedUserIDs)
	require.True(t, p.IsBotEnabled())
}

func TestFromEnvEmptyAllowList(t *testing.T) {
	t.Setenv("TIREBOT_ALLOWED_USERS", "")

	p := &Profile{}
	p.FromEnv()

	require.Empty(t, p.AllowedUserIDs)
	require.False(t, p.IsBotEnabled())
}

func TestValidate(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "sqlite", Data: t.TempDir()}
	require.NoError(t, p.Validate())
	require.True(t, strings.HasSuffix(p.DSN, "tirebot_dev.db"))

	p = &Profile{Mode: "nonsense", Driver: "sqlite", Data: t.TempDir()}
	require.NoError(t, p.Validate())
	require.Equal(t, "demo", p.Mode)

	p = &Profile{Mode: "dev", Driver: "mysql", Data: t.TempDir()}
	require.Error(t, p.Validate())

	p = &Profile{Mode: "dev", Driver: "postgres", Data: t.TempDir()}
	require.Error(t, p.Validate())

	p = &Profile{Mode: "dev", Driver: "postgres", Data: t.TempDir(), DSN: "postgresql://localhost/tirebot"}
	require.NoError(t, p.Validate())
}
