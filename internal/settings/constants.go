package settings

// Settings keys for lifecycle policy overrides. Values live in the settings
// table and shadow the config-file defaults when present.
const (
	// CodeTTLDaysKey overrides the verification code lifetime in days.
	CodeTTLDaysKey = "CODE_TTL_DAYS"
	// CodeLengthKey overrides the verification code length.
	CodeLengthKey = "CODE_LENGTH"
	// MaxRejectionsKey overrides the auto-ban rejection threshold.
	MaxRejectionsKey = "MAX_REJECTIONS"
	// MinReasonLengthKey overrides the minimum reject/remove reason length.
	MinReasonLengthKey = "MIN_REASON_LENGTH"
	// ApplyPerHourKey overrides the per-subject apply throttle.
	ApplyPerHourKey = "APPLY_PER_HOUR"
	// RevalidatePerHourKey overrides the per-subject revalidation throttle.
	RevalidatePerHourKey = "REVALIDATE_PER_HOUR"
)

// KnownKeys lists every key the settings API accepts.
var KnownKeys = []string{
	CodeTTLDaysKey,
	CodeLengthKey,
	MaxRejectionsKey,
	MinReasonLengthKey,
	ApplyPerHourKey,
	RevalidatePerHourKey,
}
