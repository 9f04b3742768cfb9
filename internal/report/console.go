package report

import "github.com/rs/zerolog/log"

// ConsoleSink prints one line per outcome, matching spec.md §7's
// "user-visible behavior": updated / up-to-date / skipped-by-guard /
// error (with reason).
type ConsoleSink struct{}

func (ConsoleSink) Emit(r Record) {
	if r.Phase != PhaseDone {
		return
	}
	switch {
	case r.Failed:
		log.Error().Str("identity", r.Identity).Str("action", r.Action).Str("reason", derefOr(r.SkipReason, "")).Msg("error")
	case r.WasUpdated:
		log.Info().Str("identity", r.Identity).Str("action", r.Action).Dur("elapsed", r.Elapsed).Msg("updated")
	case r.SkipReason != nil:
		log.Info().Str("identity", r.Identity).Str("action", r.Action).Str("reason", *r.SkipReason).Msg("skipped")
	default:
		log.Info().Str("identity", r.Identity).Str("action", r.Action).Msg("up to date")
	}
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
