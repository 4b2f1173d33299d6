// Package stats derives performer and organizer statistics from the current
// application, event and rating sets. Nothing here is cached; correctness
// comes from always recomputing against source data.
package stats

import (
	"math"

	"github.com/gigmatch/gigmatch/internal/domain/model"
)

// Viral score weights and cap.
const (
	maxViralScore       = 1000.0
	acceptedWeight      = 100.0
	completedShowWeight = 150.0
	averageRatingWeight = 50.0
)

// PerformerStats computes a performer's derived statistics. events maps
// event IDs to events so completed shows can be told apart from merely
// accepted ones; ratings are the performer's received ratings.
func PerformerStats(performerID string, applications []model.Application, events map[string]model.Event, ratings []model.Rating) model.DerivedStats {
	var s model.DerivedStats
	for _, a := range applications {
		if a.PerformerID != performerID {
			continue
		}
		s.TotalApplications++
		if a.Status != model.ApplicationAccepted {
			continue
		}
		s.AcceptedApplications++
		if e, ok := events[a.EventID]; ok && e.Status == model.EventCompleted {
			s.CompletedShows++
		}
	}

	s.AverageRating = averageRating(performerID, ratings)
	s.ViralScore = ViralScore(s.AcceptedApplications, s.CompletedShows, s.AverageRating)
	return s
}

// ViralScore combines acceptance count, completed shows and average rating
// into a popularity metric capped at 1000.
func ViralScore(accepted, completedShows int, averageRating float64) float64 {
	score := float64(accepted)*acceptedWeight +
		float64(completedShows)*completedShowWeight +
		averageRating*averageRatingWeight
	return math.Min(maxViralScore, score)
}

// OrganizerStats aggregates over the organizer's own events. applications is
// the application set covering those events.
func OrganizerStats(organizerID string, events []model.Event, applications []model.Application) model.OrganizerStats {
	var s model.OrganizerStats
	owned := make(map[string]bool)
	for _, e := range events {
		if e.OrganizerID != organizerID {
			continue
		}
		s.TotalEvents++
		owned[e.EventID] = true
		if e.Status == model.EventCompleted {
			s.CompletedEvents++
		}
	}
	for _, a := range applications {
		if owned[a.EventID] {
			s.TotalApplications++
		}
	}
	return s
}

func averageRating(performerID string, ratings []model.Rating) float64 {
	sum, n := 0, 0
	for _, r := range ratings {
		if r.PerformerID == performerID {
			sum += r.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
