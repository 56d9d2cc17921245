package constants

import "time"

const (
	AppName            = "lifeweeks"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/lifeweeks/lifeweeks.db"
	Version            = "v0.2.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Grid bounds. The grid covers ages 0 through MaxAgeYears. WeeksPerYear is
	// the number of full 7-day boxes; the last one or two days of each calendar
	// year spill into a short extra box (see lifecalendar.MaxWeekIndex).
	MaxAgeYears  = 90
	WeeksPerYear = 52
	DaysPerWeek  = 7

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "lifeweeks-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "lifeweeks-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.nholden.lifeweeks"
)
