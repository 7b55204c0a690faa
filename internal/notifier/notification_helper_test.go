package notifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/robotswatch/internal/config"
	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []models.Message
	failOn map[string]error
}

func (r *recordingNotifier) Send(_ context.Context, msg models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failOn[msg.Address]; err != nil {
		return err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func testNotificationConfig() config.NotificationConfig {
	cfg := config.NewDefaultNotificationConfig()
	cfg.EmailsEnabled = true
	cfg.AdminEmail = "admin@x.com"
	return cfg
}

func newTestHelper(t *testing.T, cfg config.NotificationConfig, email, discord Notifier) (*NotificationHelper, string, *[]time.Duration) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "_unsent_emails")
	var delays []time.Duration
	helper := NewNotificationHelper(cfg, NotificationHelperDeps{
		Email:   email,
		Discord: discord,
		Unsent:  NewUnsentStore(dir, zerolog.Nop()),
	}, zerolog.Nop()).WithSleep(func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	})
	return helper, dir, &delays
}

func unsentFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestNotificationHelper_FlushSendsInOrder(t *testing.T) {
	email := &recordingNotifier{}
	helper, dir, delays := newTestHelper(t, testNotificationConfig(), email, nil)

	for i := 0; i < 3; i++ {
		helper.Enqueue(models.Message{Address: fmt.Sprintf("site%d@x.com", i), Subject: "s"})
	}
	assert.Equal(t, 3, helper.Pending())

	result := helper.Flush(context.Background())
	assert.Equal(t, 3, result.Sent)
	assert.Empty(t, result.Errors)
	assert.Zero(t, helper.Pending())
	require.Len(t, email.sent, 3)
	assert.Equal(t, "site0@x.com", email.sent[0].Address)
	assert.Equal(t, "site2@x.com", email.sent[2].Address)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, *delays)
	assert.Empty(t, unsentFiles(t, dir))
}

func TestNotificationHelper_FailedSendIsSaved(t *testing.T) {
	email := &recordingNotifier{failOn: map[string]error{"bad@x.com": errors.New("mailbox unavailable")}}
	helper, dir, _ := newTestHelper(t, testNotificationConfig(), email, nil)

	helper.Enqueue(models.Message{Address: "bad@x.com", Subject: "Robots.txt check failed: B", Body: "body"})
	helper.Enqueue(models.Message{Address: "good@x.com", Subject: "s"})

	result := helper.Flush(context.Background())
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Saved)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Error sending email to bad@x.com.")

	files := unsentFiles(t, dir)
	require.Len(t, files, 1)
	content, err := os.ReadFile(filepath.Join(dir, files[0]))
	require.NoError(t, err)
	assert.Equal(t, "bad@x.com\n\nRobots.txt check failed: B\n\nbody", string(content))
}

func TestNotificationHelper_LoginFailureStopsSending(t *testing.T) {
	authErr := fmt.Errorf("%w: 535 bad credentials", ErrAuthentication)
	email := &recordingNotifier{failOn: map[string]error{"first@x.com": authErr}}
	helper, dir, _ := newTestHelper(t, testNotificationConfig(), email, nil)

	helper.Enqueue(models.Message{Address: "first@x.com"})
	helper.Enqueue(models.Message{Address: "second@x.com"})
	helper.Enqueue(models.Message{Address: "third@x.com"})

	result := helper.Flush(context.Background())
	assert.Zero(t, result.Sent)
	assert.Equal(t, 3, result.Saved)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Email login failed")
	assert.Empty(t, email.sent)
	assert.Len(t, unsentFiles(t, dir), 3)
}

func TestNotificationHelper_EmailsDisabled(t *testing.T) {
	cfg := testNotificationConfig()
	cfg.EmailsEnabled = false
	email := &recordingNotifier{}
	helper, dir, _ := newTestHelper(t, cfg, email, nil)

	helper.Enqueue(models.Message{Address: "a@x.com"})
	result := helper.Flush(context.Background())

	assert.Equal(t, 1, result.Dropped)
	assert.Empty(t, email.sent)
	assert.Empty(t, unsentFiles(t, dir))
}

func TestNotificationHelper_AdminMessagesMirroredToDiscord(t *testing.T) {
	email := &recordingNotifier{}
	discord := &recordingNotifier{}
	helper, _, _ := newTestHelper(t, testNotificationConfig(), email, discord)

	helper.Enqueue(models.Message{Address: "site@x.com"})
	helper.Flush(context.Background())
	assert.Empty(t, discord.sent)

	result := helper.SendNow(context.Background(), models.Message{Address: "admin@x.com", Subject: "summary"})
	assert.Equal(t, 1, result.Sent)
	require.Len(t, discord.sent, 1)
	assert.Equal(t, "summary", discord.sent[0].Subject)
}

func TestNotificationHelper_ConcurrentEnqueue(t *testing.T) {
	helper, _, _ := newTestHelper(t, testNotificationConfig(), &recordingNotifier{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			helper.Enqueue(models.Message{Address: "a@x.com"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, helper.Pending())
}

func TestUnsentStore_UniqueNames(t *testing.T) {
	store := NewUnsentStore(t.TempDir(), zerolog.Nop())
	store.now = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) }

	first, err := store.Save(models.Message{Address: "a@x.com"})
	require.NoError(t, err)
	second, err := store.Save(models.Message{Address: "b@x.com"})
	require.NoError(t, err)

	assert.Equal(t, "05-03-24 T 14-07-09.txt", filepath.Base(first))
	assert.Equal(t, "05-03-24 T 14-07-09-1.txt", filepath.Base(second))
}

func TestNewNotificationHelperFromConfig(t *testing.T) {
	cfg := testNotificationConfig()
	cfg.DiscordWebhookURL = "https://discord.com/api/webhooks/1/abc"

	helper, err := NewNotificationHelperFromConfig(cfg, t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, helper.email)
	assert.NotNil(t, helper.discord)
	assert.Equal(t, "admin@x.com", helper.AdminEmail())
}
