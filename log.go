package tiktok

import "github.com/rs/zerolog/log"

// perfLog emits request-timing lines at debug level. Visible only when the
// global zerolog level allows debug.
func perfLog(format string, args ...any) {
	log.Debug().Str("scope", "perf").Msgf(format, args...)
}
