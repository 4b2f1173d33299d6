// Package matching decides which events a performer may still apply to.
// Everything here is pure: no stores, no clocks, safe to call concurrently.
package matching

import (
	"strings"

	"github.com/gigmatch/gigmatch/internal/domain/geo"
	"github.com/gigmatch/gigmatch/internal/domain/model"
)

// Reason explains why an event was excluded. The gates run in a fixed order
// and short-circuit on the first failure, so a verdict carries exactly one
// reason.
type Reason string

// Exclusion reasons, one per gate.
const (
	ReasonEligible       Reason = "eligible"
	ReasonNotPublished   Reason = "not_published"
	ReasonAlreadyApplied Reason = "already_applied"
	ReasonOutOfRange     Reason = "out_of_range"
	ReasonFull           Reason = "full"
)

// Verdict is the outcome of checking one event against one performer.
type Verdict struct {
	Eligible bool
	Reason   Reason
	// DistanceKm is set when the distance gate ran on resolved coordinates.
	DistanceKm float64
}

// Check applies the eligibility gates in order: published, not already
// applied, within mobility radius, capacity left. performerApplied holds the
// event IDs the performer already has an application for (any status; a
// rejected application still blocks), acceptedCount is the event's current
// accepted-application count.
func Check(p model.PerformerProfile, e model.Event, performerApplied map[string]bool, acceptedCount int) Verdict {
	if e.Status != model.EventPublished {
		return Verdict{Reason: ReasonNotPublished}
	}

	if performerApplied[e.EventID] {
		return Verdict{Reason: ReasonAlreadyApplied}
	}

	v := distanceGate(p, e)
	if !v.Eligible {
		return v
	}

	if !capacityLeft(e, acceptedCount) {
		return Verdict{Reason: ReasonFull, DistanceKm: v.DistanceKm}
	}

	return v
}

// AvailableEvents filters events down to those the performer may apply to.
// applications is the full application set covering the candidate events; the
// performer's own applications and per-event accepted counts are derived from
// it. Result order is not part of the contract.
func AvailableEvents(p model.PerformerProfile, events []model.Event, applications []model.Application) []model.Event {
	applied := make(map[string]bool)
	accepted := make(map[string]int)
	for _, a := range applications {
		if a.PerformerID == p.PerformerID {
			applied[a.EventID] = true
		}
		if a.Status == model.ApplicationAccepted {
			accepted[a.EventID]++
		}
	}

	var out []model.Event
	for _, e := range events {
		if Check(p, e, applied, accepted[e.EventID]).Eligible {
			out = append(out, e)
		}
	}
	return out
}

// AcceptedCount tallies accepted applications for a single event.
func AcceptedCount(eventID string, applications []model.Application) int {
	n := 0
	for _, a := range applications {
		if a.EventID == eventID && a.Status == model.ApplicationAccepted {
			n++
		}
	}
	return n
}

// distanceGate admits the event when it lies within the performer's mobility
// radius. When either side lacks coordinates it degrades to case-insensitive
// city equality; an unresolved location must never admit every event.
func distanceGate(p model.PerformerProfile, e model.Event) Verdict {
	radius := p.MobilityRadiusKm
	if radius <= 0 {
		radius = model.DefaultMobilityRadiusKm
	}

	if p.Coordinates != nil && e.Location.Resolved() {
		d := geo.DistanceKm(*p.Coordinates, *e.Location.Coordinates)
		if d > radius {
			return Verdict{Reason: ReasonOutOfRange, DistanceKm: d}
		}
		return Verdict{Eligible: true, Reason: ReasonEligible, DistanceKm: d}
	}

	if strings.EqualFold(strings.TrimSpace(p.City), strings.TrimSpace(e.Location.City)) &&
		strings.TrimSpace(p.City) != "" {
		return Verdict{Eligible: true, Reason: ReasonEligible}
	}
	return Verdict{Reason: ReasonOutOfRange}
}

// capacityLeft is a defensive fallback for consistency lag: a full event
// should already have had its status flipped by the lifecycle recomputation.
func capacityLeft(e model.Event, acceptedCount int) bool {
	if e.MaxPerformers <= 0 {
		return true
	}
	return acceptedCount < e.MaxPerformers
}
