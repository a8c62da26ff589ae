// Package rules decides whether a tag attempt is currently permitted.
// Evaluation is pure: the UI may call it speculatively before
// committing an attempt, and the state machine calls it again inside
// the authoritative transition.
package rules

import (
	"time"

	"github.com/streettag/api/internal/geo"
	"github.com/streettag/api/internal/streettag"
)

// Verdict is the outcome of an eligibility check. Reason is set only
// when the attempt is not allowed.
type Verdict struct {
	Allowed bool
	Reason  streettag.Code
}

func deny(reason streettag.Code) Verdict { return Verdict{Reason: reason} }

var allow = Verdict{Allowed: true}

// CanTag evaluates, in order: no-tag time windows, the tagger's safe
// zones, then the target's. The first failing check wins, so denial
// reasons are deterministic. Personal zones a player activated for
// this game compose with the game-level zones.
func CanTag(game *streettag.Game, tagger, target *streettag.Player, now time.Time) Verdict {
	for _, w := range game.Settings.NoTagTimes {
		if geo.InTimeWindow(now, w) {
			return deny(streettag.CodeTimeProtected)
		}
	}

	if inAnyZone(tagger, game.Settings.NoTagZones) {
		return deny(streettag.CodeTaggerInSafeZone)
	}
	if inAnyZone(target, game.Settings.NoTagZones) {
		return deny(streettag.CodeTargetInSafeZone)
	}

	if tagger.Location != nil && target.Location != nil &&
		game.Settings.TagRadiusMeters > 0 &&
		geo.DistanceMeters(tagger.Location.LatLng, target.Location.LatLng) > game.Settings.TagRadiusMeters {
		return deny(streettag.CodeOutOfRange)
	}

	return allow
}

func inAnyZone(p *streettag.Player, gameZones []streettag.NoTagZone) bool {
	var point *streettag.LatLng
	if p.Location != nil {
		point = &p.Location.LatLng
	}
	for _, z := range gameZones {
		if geo.InZone(point, z) {
			return true
		}
	}
	for _, z := range p.PersonalZones {
		if geo.InZone(point, z) {
			return true
		}
	}
	return false
}
