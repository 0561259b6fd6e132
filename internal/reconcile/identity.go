// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package reconcile

import (
	"fmt"
	"strings"

	"github.com/tomtom215/reelsync/internal/models"
)

// AmbiguityPolicy decides what a title/year match means when several remote
// entries collide on it.
type AmbiguityPolicy string

const (
	// AmbiguityFirst takes the first title/year match in remote order.
	AmbiguityFirst AmbiguityPolicy = "first"
	// AmbiguityUnique only accepts a title/year match when it is the only one.
	// Colliding entries count as no match, so the record is sent and the
	// remote decides.
	AmbiguityUnique AmbiguityPolicy = "unique"
)

// ParseAmbiguityPolicy parses a policy name. Empty means AmbiguityFirst.
func ParseAmbiguityPolicy(s string) (AmbiguityPolicy, error) {
	switch AmbiguityPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", AmbiguityFirst:
		return AmbiguityFirst, nil
	case AmbiguityUnique:
		return AmbiguityUnique, nil
	default:
		return "", fmt.Errorf("unknown ambiguity policy %q", s)
	}
}

// MatchTier is the tier at which two identities matched.
type MatchTier int

const (
	NoMatch MatchTier = iota
	// MatchByID means a canonical or native id decided.
	MatchByID
	// MatchByTitleYear means title and year were equal.
	MatchByTitleYear
)

// Resolver decides whether local identities and remote entries refer to the
// same item. All string comparison is case-insensitive.
type Resolver struct {
	policy AmbiguityPolicy
}

// NewResolver returns a resolver using policy. Unknown policies fall back to
// AmbiguityFirst.
func NewResolver(policy AmbiguityPolicy) *Resolver {
	if policy != AmbiguityUnique {
		policy = AmbiguityFirst
	}
	return &Resolver{policy: policy}
}

// Policy returns the ambiguity policy in use.
func (r *Resolver) Policy() AmbiguityPolicy { return r.policy }

// Compare matches id against e.
//
// Movies and shows: equal native ids match; differing native ids never match,
// whatever the titles say. Without ids on both sides, title and year must be
// equal and the year known on both sides.
//
// Episodes: the canonical episode id decides when both sides have one, then
// the native id. Failing that the series is matched with the same rules and
// season and number must agree. A remote show carrying a watched breakdown
// matches an episode when the series matches and the exact season/episode is
// in the breakdown.
func (r *Resolver) Compare(id models.ResolvedIdentity, e models.RemoteEntry) MatchTier {
	if id.Episode != nil {
		return compareEpisode(id, e)
	}
	return compareTitled(id.NativeID, id.Title, id.Year, "", e.NativeID, e.Title, e.Year, "")
}

// Matches reports whether Compare finds any match.
func (r *Resolver) Matches(id models.ResolvedIdentity, e models.RemoteEntry) bool {
	return r.Compare(id, e) != NoMatch
}

// Find returns the index of the entry matching id.
//
// An id-tier match anywhere in entries wins over title/year matches. Among
// title/year matches the policy applies: the first one, or only a unique one.
func (r *Resolver) Find(id models.ResolvedIdentity, entries []models.RemoteEntry) (int, bool) {
	titleMatch, titleMatches := -1, 0
	for i := range entries {
		switch r.Compare(id, entries[i]) {
		case MatchByID:
			return i, true
		case MatchByTitleYear:
			if titleMatches == 0 {
				titleMatch = i
			}
			titleMatches++
		}
	}
	if titleMatches == 0 {
		return -1, false
	}
	if titleMatches > 1 && r.policy == AmbiguityUnique {
		return -1, false
	}
	return titleMatch, true
}

// Contains reports whether Find locates id in entries.
func (r *Resolver) Contains(id models.ResolvedIdentity, entries []models.RemoteEntry) bool {
	_, ok := r.Find(id, entries)
	return ok
}

// Same reports whether two local identities refer to the same item.
func (r *Resolver) Same(a, b models.ResolvedIdentity) bool {
	return r.Matches(a, entryOf(b))
}

func entryOf(id models.ResolvedIdentity) models.RemoteEntry {
	e := models.RemoteEntry{
		CanonicalID: id.CanonicalEpisodeID,
		NativeID:    id.NativeID,
		Title:       id.Title,
		Year:        id.Year,
	}
	if ep := id.Episode; ep != nil {
		series := ep.Series
		e.Show = &series
		e.Season = ep.Season
		e.Number = ep.Number
	}
	return e
}

func compareEpisode(id models.ResolvedIdentity, e models.RemoteEntry) MatchTier {
	ep := id.Episode
	if e.HasBreakdown() {
		tier := compareSeries(ep.Series, showOf(e))
		if tier != NoMatch && e.HasEpisode(ep.Season, ep.Number) {
			return tier
		}
		return NoMatch
	}
	if e.Show == nil {
		return NoMatch
	}
	if id.CanonicalEpisodeID != "" && e.CanonicalID != "" {
		return idTier(strings.EqualFold(id.CanonicalEpisodeID, e.CanonicalID))
	}
	if id.NativeID != "" && e.NativeID != "" {
		return idTier(strings.EqualFold(id.NativeID, e.NativeID))
	}
	if ep.Season != e.Season || ep.Number != e.Number {
		return NoMatch
	}
	return compareSeries(ep.Series, *e.Show)
}

func showOf(e models.RemoteEntry) models.ShowRef {
	return models.ShowRef{CanonicalID: e.CanonicalID, NativeID: e.NativeID, Title: e.Title, Year: e.Year}
}

func compareSeries(a, b models.ShowRef) MatchTier {
	return compareTitled(a.NativeID, a.Title, a.Year, a.CanonicalID, b.NativeID, b.Title, b.Year, b.CanonicalID)
}

func compareTitled(aNative, aTitle string, aYear *int, aCanonical, bNative, bTitle string, bYear *int, bCanonical string) MatchTier {
	if aCanonical != "" && bCanonical != "" {
		return idTier(strings.EqualFold(aCanonical, bCanonical))
	}
	if aNative != "" && bNative != "" {
		return idTier(strings.EqualFold(aNative, bNative))
	}
	if aYear == nil || bYear == nil || *aYear != *bYear {
		return NoMatch
	}
	if aTitle == "" || !strings.EqualFold(strings.TrimSpace(aTitle), strings.TrimSpace(bTitle)) {
		return NoMatch
	}
	return MatchByTitleYear
}

func idTier(equal bool) MatchTier {
	if equal {
		return MatchByID
	}
	return NoMatch
}
