// Package notifier hands reminders to the local tray agent, which owns the
// actual delivery of notifications.
package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-ps"

	"github.com/nholden/lifeweeks/internal/constants"
	"github.com/nholden/lifeweeks/internal/models"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

type Notifier struct{}

// SchedulePayload asks the tray agent to fire a notification at a point in
// time. The id is this side's handle; cancellation references it.
type SchedulePayload struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	FireAt     string `json:"fire_at"` // RFC3339
	DurationMs uint32 `json:"duration_ms"`
}

type CancelPayload struct {
	CancelID string `json:"cancel_id"`
}

func New() *Notifier {
	return &Notifier{}
}

// ScheduleReminder registers a reminder for the entry with the tray agent and
// returns the opaque notification id for later cancellation.
func (n *Notifier) ScheduleReminder(entry models.Entry, at time.Time) (string, error) {
	port, secret, err := n.trayEndpoint()
	if err != nil {
		return "", err
	}

	payload := SchedulePayload{
		ID:         uuid.New().String(),
		Text:       entry.Title,
		FireAt:     at.Format(time.RFC3339),
		DurationMs: constants.NotificationDurationMs,
	}
	if err := post(port, secret, "/schedule", payload); err != nil {
		return "", err
	}
	return payload.ID, nil
}

// CancelReminder revokes a previously scheduled reminder. Unknown ids are the
// agent's problem; it treats them as a no-op.
func (n *Notifier) CancelReminder(notificationID string) error {
	port, secret, err := n.trayEndpoint()
	if err != nil {
		return err
	}
	return post(port, secret, "/cancel", CancelPayload{CancelID: notificationID})
}

func (n *Notifier) trayEndpoint() (string, string, error) {
	trayConfigDir, err := TrayAppConfigDir()
	if err != nil {
		return "", "", err
	}
	return findAndValidateTrayProcess(filepath.Join(trayConfigDir, constants.NotifierLockfileName))
}

// TrayAppConfigDir returns the configuration directory used by the tray agent.
func TrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	// Check for settings.json to see if a custom lockfile dir is set
	settingsPath := filepath.Join(trayConfigDir, "settings.json")
	if _, err := os.Stat(settingsPath); err == nil {
		data, err := os.ReadFile(settingsPath)
		if err == nil {
			var store struct {
				Settings struct {
					LockfileDir *string `json:"lockfile_dir"`
				} `json:"settings"`
			}
			if err := json.Unmarshal(data, &store); err == nil {
				if store.Settings.LockfileDir != nil && *store.Settings.LockfileDir != "" {
					return *store.Settings.LockfileDir, nil
				}
			}
		}
	}

	return trayConfigDir, nil
}

func findAndValidateTrayProcess(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", errors.New("lifeweeks-tray is not running")
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := parts[0]
	if strings.TrimSpace(port) == "" {
		return "", "", errors.New("port in lockfile is empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", errors.New("lifeweeks-tray process not running")
	}

	if !strings.HasPrefix(process.Executable(), "lifeweeks-tray") {
		return "", "", fmt.Errorf("process with PID %d is not lifeweeks-tray (is %s)", pid, process.Executable())
	}

	return port, secret, nil
}

// post delivers one request to the tray agent, retrying transient connection
// failures. Non-200 responses are not retried; the agent has already seen
// the request.
func post(port, secret, path string, payload interface{}) error {
	url := fmt.Sprintf("http://127.0.0.1:%s%s", port, path)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	client := &http.Client{}
	var lastErr error
	for attempt := 0; attempt < constants.NotifyMaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(constants.NotifyRetryDelay)
		}

		req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Lifeweeks-Secret", secret)

		res, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if res.StatusCode == http.StatusOK {
			res.Body.Close()
			return nil
		}
		body, _ := io.ReadAll(res.Body)
		res.Body.Close()
		return fmt.Errorf("notification request failed with status %d: %s", res.StatusCode, string(body))
	}
	return lastErr
}
