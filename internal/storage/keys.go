package storage

// Logical keys for the persisted streak state. The Adapter prefixes every key
// with the namespace and writes a shadow copy under a derived backup key.
const (
	KeyStreakRecord       = "streak_record"
	KeyCalendarHistory    = "calendar_history"
	KeyStreakStartDate    = "streak_start_date"
	KeyFailsafePrimary    = "streak_failsafe_primary"
	KeyFailsafeBackup     = "streak_failsafe_backup"
	KeyFailsafeLastResort = "streak_failsafe_lastresort"
	KeyIntentionalReset   = "intentional_reset_marker"
	KeyLastLocalWrite     = "last_local_write_at"
)

const (
	// namespace prefixes every adapter-managed key so that a bulk clear and
	// the schema purge cannot touch foreign data sharing the same substrate.
	namespace = "cleanstreak/"

	shadowSuffix = "#shadow"

	keySchemaVersion = "storage_schema_version"
)
