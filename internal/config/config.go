package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Birthday-Tracker/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Birthday Tracker"
	AppBinary         = "go-birthday-tracker"
	AppID             = "com.github.tartampluch.go-birthday-tracker"
	KeyringService    = "com.github.tartampluch.go-birthday-tracker"
	SecretAccountPfx  = "vcard:" // keyring account prefix for the vCard server password
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	SettingsFileName  = "settings.json"
	CacheFileName     = "cache.db"
	MemoryDSN         = ":memory:"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs and the offline cache.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagDebug        = "debug"
	FlagLang         = "lang"
	FlagOffline      = "offline"
	FlagSearch       = "search"
	FlagCategory     = "category"
	FlagRelationship = "relationship"
	FlagSort         = "sort"
	FlagWindow       = "window"
	FlagRecent       = "recent-window"
	FlagJSON         = "json"
	FlagOutput       = "output"
	FlagUser         = "user"
	FlagPort         = "port"
	FlagSource       = "source"
	FlagDryRun       = "dry-run"
	FlagName         = "name"
	FlagDate         = "date"
	FlagNotes        = "notes"
	FlagNotifyBefore = "notify-before"
	FlagNoNotify     = "no-notify"
	FlagMarkRead     = "mark-read"

	FlagDescDebug        = "Enable debug logging"
	FlagDescLang         = "Language for labels (en, fr)"
	FlagDescOffline      = "Read birthdays from the offline cache only"
	FlagDescSearch       = "Case-insensitive search over name, notes and relationship"
	FlagDescCategory     = "Filter by category (today, upcoming, recent, this-month, other, invalid)"
	FlagDescRelationship = "Keep only these relationships (repeatable)"
	FlagDescSort         = "Sort key (name, date, upcoming, recent, added)"
	FlagDescWindow       = "Upcoming window in days"
	FlagDescRecent       = "Recent window in days"
	FlagDescJSON         = "Print JSON instead of a table"
	FlagDescOutput       = "Write to this file instead of stdout"
	FlagDescUser         = "Account name on the backend"
	FlagDescPort         = "Port for the local HTTP service"
	FlagDescSource       = "Record source for serve (api, vcard, cache)"
	FlagDescDryRun       = "Parse and validate without uploading"
	FlagDescName         = "Display name"
	FlagDescDate         = "Birth date (YYYY-MM-DD, or --MM-DD when the year is unknown)"
	FlagDescNotes        = "Free-text notes"
	FlagDescNotifyBefore = "Reminder lead time in days (0, 1, 3, 7, 14, 30)"
	FlagDescNoNotify     = "Disable reminders for this birthday"
	FlagDescMarkRead     = "Mark this notification as read"
	FlagDescRelOne       = "Relationship (friend, family, colleague...)"

	MsgVersionOutput = "%s version %s (commit %s, built %s, %s/%s)\n"
)

// -----------------------------------------------------------------------------
// Environment Variables
// -----------------------------------------------------------------------------

const (
	EnvPrefix      = "GOBDAY_"
	EnvAPIURL      = EnvPrefix + "API_URL"
	EnvUser        = EnvPrefix + "USER"
	EnvDataDir     = EnvPrefix + "DATA_DIR"
	EnvPort        = EnvPrefix + "PORT"
	EnvLanguage    = EnvPrefix + "LANG"
	EnvRefreshMin  = EnvPrefix + "REFRESH_MIN"
	EnvVCardPath   = EnvPrefix + "VCARD_PATH"
	EnvVCardURL    = EnvPrefix + "VCARD_URL"
	EnvVCardUser   = EnvPrefix + "VCARD_USER"
	EnvSourceMode  = EnvPrefix + "SOURCE"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	SourceModeAPI   = "api"
	SourceModeVCard = "vcard"
	SourceModeCache = "cache"

	DefaultAPIURL     = "http://localhost:8000/api"
	DefaultPort       = "18080"
	DefaultRefreshMin = 60
	DefaultLanguage   = "en"
	DefaultLeapYear   = 2000 // Leap year used to validate month/day pairs such as --02-29

	// Classification windows. The engine has no defaults of its own;
	// callers pick one of these and pass it explicitly.
	WindowWeek  = 7
	WindowMonth = 30

	// TopUpcoming is how many upcoming birthdays the analytics summary lists.
	TopUpcoming = 5

	// Reminder settings applied to records imported from vCards.
	DefaultNotifyBeforeDays = 1
	DefaultNotifications    = true

	// UIDNamespace seeds deterministic record and event identifiers.
	UIDNamespace = "go-birthday-tracker-v1"
)

// NotifyBeforeDaysOptions is the fixed set of reminder lead times (in days).
var NotifyBeforeDaysOptions = []int{0, 1, 3, 7, 14, 30}

// SupportedLanguages defines the list of available label languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Cache Keys
// -----------------------------------------------------------------------------

const (
	CacheKeyBirthdays     = "birthdays"
	CacheKeyNotifications = "notifications"
	CacheKeySep           = ":"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyEvtSummary      = "event_summary"       // Requires Name
	TKeyEvtSummaryAge   = "event_summary_age"   // Requires Name, Age
	TKeyEvtSummaryBirth = "event_summary_birth" // Requires Name (For age 0)
	TKeyReminder        = "reminder_message"    // Requires Name, Days
	TKeyReminderToday   = "reminder_today"      // Requires Name

	TKeyColName     = "col_name"
	TKeyColDate     = "col_date"
	TKeyColDays     = "col_days"
	TKeyColAge      = "col_age"
	TKeyColZodiac   = "col_zodiac"
	TKeyColCategory = "col_category"
	TKeyFormatDate  = "format_date_short"
	TKeyAgeUnknown  = "age_unknown"
	TKeyNoResults   = "no_results"

	TKeyStatsTotal    = "stats_total"
	TKeyStatsToday    = "stats_today"
	TKeyStatsWeek     = "stats_week"
	TKeyStatsMonth    = "stats_month"
	TKeyStatsInvalid  = "stats_invalid"
	TKeyStatsAvgAge   = "stats_average_age"
	TKeyStatsByMonth  = "stats_by_month"
	TKeyStatsByZodiac = "stats_by_zodiac"
	TKeyStatsByRel    = "stats_by_relationship"
	TKeyStatsNext     = "stats_next"

	// CLI status lines
	TKeyCliCreated       = "cli_created"        // Requires Name, ID
	TKeyCliUpdated       = "cli_updated"        // Requires Name, ID
	TKeyCliDeleted       = "cli_deleted"        // Requires ID
	TKeyCliMarkedRead    = "cli_marked_read"    // Requires ID
	TKeyCliUnread        = "cli_unread"         // Plural on Count
	TKeyCliStale         = "cli_stale"          // Requires Time
	TKeyCliDryRun        = "cli_dry_run"
	TKeyCliImportSummary = "cli_import_summary" // Plural on Count, requires Skipped
	TKeyCliImportInvalid = "cli_import_invalid" // Requires Name, Error
	TKeyCliLoginOK       = "cli_login_ok"       // Requires User
	TKeyCliLogoutOK      = "cli_logout_ok"      // Requires User
	TKeyCliExportWritten = "cli_export_written" // Requires Path
	TKeyCliPassword      = "cli_password_prompt"
	TKeyCliVCardSaved    = "cli_vcard_saved" // Requires User

	// Prefixes combined with engine identifiers (e.g. "zodiac_aries", "category_today").
	TKeyPrefixZodiac   = "zodiac_"
	TKeyPrefixCategory = "category_"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go Birthday Tracker//Engine//EN"
	ICalCalName   = "Birthdays"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "gobirthdaytracker"

	// vCard schemes accepted as image references
	PhotoSchemePrefix = "http"

	// iCal/vCard Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"
	PropCategories  = "CATEGORIES"

	DefaultICalRefresh = 1 * time.Hour

	// ISO8601 trigger: "-P3D" means three days before the event.
	FormatTriggerBefore = "-P%dD"
	TriggerOnTheDay     = "PT0S"
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	// Date layouts accepted for stored and imported birth dates
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"
	DateFormatDisplay   = "2006-01-02"
	DateFormatNoYear    = "--%02d-%02d"

	// Limits
	MinPort = 1
	MaxPort = 65535

	// UID Generation
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s-%d@%s"

	// File Extensions
	ExtVCF = ".vcf"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	AllowedRefresh      = "POST"
	MaxHTTPResponseSize = 256 * 1024 * 1024 // 256MB, vCards may embed photos
	MaxAPIResponseSize  = 16 * 1024 * 1024
	APIRequestsPerSec   = 5
	APIBurst            = 10
	CacheBusyTimeoutMS  = 5000
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AddrSeparator       = ":"
)

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

const (
	// Local service
	RouteHealth    = "/health"
	RouteCalendar  = "/calendar.ics"
	RouteAPI       = "/api"
	RouteBirthdays = "/birthdays"
	RouteBirthday  = "/birthdays/{id}"
	RouteAnalytics = "/analytics"
	RouteReminders = "/reminders"
	RouteRefresh   = "/refresh"
	URLParamID     = "id"

	// Backend REST API
	APIPathLogin         = "/auth/login"
	APIPathBirthdays     = "/birthdays"
	APIPathNotifications = "/notifications"
	APIPathMarkRead      = "/read"

	// Query parameters
	QueryParamSearch       = "q"
	QueryParamCategory     = "category"
	QueryParamRelationship = "relationship"
	QueryParamSort         = "sort"
	QueryParamWindow       = "window"
	QueryParamRecent       = "recent"
	QueryParamLang         = "lang"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAuthorization   = "Authorization"
	HeaderAccept          = "Accept"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"
	BearerPrefix        = "Bearer "

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrLocalPathEmpty   = "configuration error: local path is empty"
	ErrWebURLEmpty      = "configuration error: web URL is empty"
	ErrAPIURLEmpty      = "configuration error: API base URL is empty"
	ErrFetcherMissing   = "internal error: network fetcher is not initialized"
	ErrModeUnsupport    = "configuration error: unsupported source mode"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrPortNumber       = "server port must be a number"
	ErrPortRange        = "server port must be between 1 and 65535"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrVCardRead        = "failed to read vCard stream"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrDateParse        = "unable to parse date"
	ErrDateRange        = "date is out of range"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrConfigDir        = "could not determine user config dir"
	ErrCreateDir        = "could not create app directory"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrSettingsRead     = "failed to read settings file"
	ErrSettingsDecode   = "failed to decode settings file"
	ErrRefreshInterval  = "refresh interval must be a number of minutes"
	ErrRequestBuild     = "failed to create request"
	ErrRequestEncode    = "failed to encode request body"
	ErrNetwork          = "network error"
	ErrUnexpectedStatus = "server returned unexpected status"
	ErrResponseDecode   = "failed to decode response body"
	ErrUnauthorized     = "not authenticated: run login first"
	ErrNotFound         = "record not found"
	ErrIDRequired       = "record id is required"
	ErrTokenMissing     = "no token stored for user"
	ErrTokenStore       = "failed to access OS keyring"
	ErrCacheOpen        = "failed to open offline cache"
	ErrCacheMigrate     = "failed to migrate offline cache"
	ErrCacheMiss        = "offline cache has no entry"
	ErrCacheWrite       = "failed to write offline cache"
	ErrCacheRead        = "failed to read offline cache"
	ErrCacheDelete      = "failed to delete offline cache entry"
	ErrValidation       = "validation failed"
	ErrValidatorSetup   = "failed to register validator"
	ErrSourceLoad       = "failed to load birthdays"
	ErrUnknownSort      = "unknown sort key"
	ErrUnknownCategory  = "unknown category"
	ErrBadWindow        = "window must be a non-negative number of days"
	ErrNoRefresher      = "manual refresh is not available"
	ErrUserRequired     = "a user name is required (flag --user or GOBDAY_USER)"
	ErrVCardUser        = "a vCard user is required (setting vcard_user or GOBDAY_VCARD_USER)"
	ErrWriteOutput      = "failed to write output"
	ErrImportFailed     = "import finished with errors"
	ErrVCardNoBirthday  = "card has no birthday"
	ErrVCardOpen        = "failed to open vCard source"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Birthdays loading, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgNotFound     = "Not Found"
	HTTPMsgOK           = "ok"
	HTTPMsgRefreshing   = "refresh scheduled"
)

// -----------------------------------------------------------------------------
// Fallbacks & Defaults
// -----------------------------------------------------------------------------

const (
	FallbackSummary      = "Birthday: %s"
	FallbackSummaryAge   = "Birthday: %s (%d)"
	FallbackSummaryBirth = "Birthday: %s (birth)"
	FallbackReminder     = "%s's birthday is in %d days"
	FallbackReminderDay  = "%s's birthday is today"
	FallbackName         = "Unknown"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MsgSyncStarted    = "Synchronization started"
	MsgSyncSuccess    = "Synchronization completed"
	MsgSyncFailed     = "Synchronization failed"
	MsgWorkerStart    = "Background refresher started"
	MsgWorkerStop     = "Refresher stopping due to context cancellation"
	MsgSyncManual     = "Manual refresh requested"
	MsgSecretMissing  = "No stored password for vCard server"
	MsgAppStop        = "Application stopped gracefully"
	MsgAppStarting    = "Starting application"
	MsgSkippedCard    = "Skipping malformed vCard"
	MsgSkippedDate    = "Skipping invalid date format"
	MsgSkippedRecord  = "Skipping record with invalid date"
	MsgGenSuccess     = "Calendar generation successful"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgCacheUpdated   = "Calendar cache updated"
	MsgHTTPRequest    = "HTTP request"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleBadName  = "Skipping malformed locale filename"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
	MsgLogWarning     = "Warning: %s at %s: %v\n"
	MsgBdayToday      = "Birthday found today"
	MsgCacheFallback  = "Backend unreachable, serving offline cache"
	MsgCacheStored    = "Offline cache updated"
	MsgAPIRequest     = "Backend request"
	MsgAPIStatus      = "Backend returned error status"
	MsgImportDone     = "vCard import finished"
	MsgVCardDownload  = "vCards downloading"
	MsgSettingsLoaded = "Settings loaded"
	MsgTokenSaved     = "Session token stored"
	MsgTokenCleared   = "Session token removed"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyMethod    = "method"
	LogKeyPath      = "path"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyMode      = "mode"
	LogKeyInterval  = "interval"
	LogKeyUser      = "user"
	LogKeyID        = "id"
	LogKeyTotal     = "total_cards"
	LogKeyFound     = "birthdays_found"
	LogKeyToday     = "birthdays_today"
	LogKeyInvalid   = "invalid"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeyCount     = "count"
	LogKeyName      = "name"
	LogKeyDOB       = "date_of_birth"
	LogKeyDuration  = "duration_ms"
	LogKeyFetchedAt = "fetched_at"
	LogKeyLength    = "content_length"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompMain     = "main"
	CompCLI      = "cli"
	CompAPI      = "api"
	CompAuth     = "auth"
	CompCache    = "cache"
	CompCalendar = "calendar"
	CompVCard    = "vcard"
	CompFetcher  = "fetcher"
	CompServer   = "server"
	CompSource   = "source"
	CompWorker   = "worker"
	CompI18n     = "i18n"
	CompConfig   = "config"
)
