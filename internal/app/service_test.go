package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gigmatch/gigmatch/internal/adapters/mq/notify"
	"github.com/gigmatch/gigmatch/internal/adapters/repository"
	service "github.com/gigmatch/gigmatch/internal/app"
	"github.com/gigmatch/gigmatch/internal/domain/geo"
	"github.com/gigmatch/gigmatch/internal/domain/lifecycle"
	"github.com/gigmatch/gigmatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	parisCoords = geo.Coordinates{Latitude: 48.8566, Longitude: 2.3522}
	lyonCoords  = geo.Coordinates{Latitude: 45.7640, Longitude: 4.8357}
)

// recordingSink captures notifications for assertions.
type recordingSink struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (s *recordingSink) Deliver(_ context.Context, n notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}

func (s *recordingSink) byType(notificationType string) []notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []notify.Notification
	for _, n := range s.sent {
		if n.Type == notificationType {
			out = append(out, n)
		}
	}
	return out
}

func startService(t *testing.T) (*service.Service, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	svc := service.New(
		service.WithNotificationSink(sink),
		service.WithNotifyWorkers(1),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc, sink
}

func seedPerformer(ctx context.Context, svc *service.Service, id string, radius float64) model.PerformerProfile {
	p, _ := svc.UpsertPerformer(ctx, model.PerformerProfile{
		PerformerID:      id,
		StageName:        "act-" + id,
		City:             "Paris",
		Coordinates:      &parisCoords,
		MobilityRadiusKm: radius,
	})
	return p
}

func seedPublishedEvent(ctx context.Context, svc *service.Service, organizerID string, coords geo.Coordinates, maxPerformers int) model.Event {
	e, _ := svc.CreateEvent(ctx, model.Event{
		OrganizerID:   organizerID,
		Title:         "comedy night",
		Location:      model.Location{City: "Paris", Coordinates: &coords},
		Date:          time.Date(2026, 10, 1, 20, 0, 0, 0, time.UTC),
		MaxPerformers: maxPerformers,
	})
	e, _ = svc.PublishEvent(ctx, e.EventID, organizerID)
	return e
}

func TestEventLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc, _ := startService(t)

		Convey("When an organizer creates an event", func() {
			e, err := svc.CreateEvent(ctx, model.Event{OrganizerID: "o1", Title: "open mic", Location: model.Location{City: "Paris"}})

			Convey("Then it starts as a draft with an ID and resolved city", func() {
				So(err, ShouldBeNil)
				So(e.EventID, ShouldNotBeBlank)
				So(e.Status, ShouldEqual, model.EventDraft)
				So(e.Location.Resolved(), ShouldBeTrue)
			})

			Convey("And publishing it twice fails the second time", func() {
				_, err := svc.PublishEvent(ctx, e.EventID, "o1")
				So(err, ShouldBeNil)
				_, err = svc.PublishEvent(ctx, e.EventID, "o1")
				So(err, ShouldWrap, lifecycle.ErrInvalidTransition)
			})

			Convey("And a stranger cannot publish it", func() {
				_, err := svc.PublishEvent(ctx, e.EventID, "o2")
				So(err, ShouldWrap, lifecycle.ErrUnauthorized)
			})

			Convey("And cancelling a draft works but not twice", func() {
				_, err := svc.CancelEvent(ctx, e.EventID, "o1")
				So(err, ShouldBeNil)
				_, err = svc.CancelEvent(ctx, e.EventID, "o1")
				So(err, ShouldWrap, lifecycle.ErrInvalidTransition)
			})

			Convey("And completing a draft is illegal", func() {
				_, err := svc.CompleteEvent(ctx, e.EventID, "o1")
				So(err, ShouldWrap, lifecycle.ErrInvalidTransition)
			})
		})

		Convey("When an unknown event is published", func() {
			_, err := svc.PublishEvent(ctx, "ghost", "o1")

			Convey("Then it is not found", func() {
				So(err, ShouldWrap, lifecycle.ErrEventNotFound)
			})
		})
	})
}

func TestMatchingFlow(t *testing.T) {
	ctx := context.Background()

	Convey("Given a Paris performer with a 30 km radius and two events", t, func() {
		svc, _ := startService(t)
		seedPerformer(ctx, svc, "p1", 30)
		near := seedPublishedEvent(ctx, svc, "o1", parisCoords, 1)
		seedPublishedEvent(ctx, svc, "o1", lyonCoords, 0)

		Convey("When listing available events", func() {
			events, err := svc.AvailableEvents(ctx, "p1")

			Convey("Then only the nearby event shows up", func() {
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 1)
				So(events[0].EventID, ShouldEqual, near.EventID)
			})
		})

		Convey("When the performer applies to the nearby event", func() {
			app, err := svc.SubmitApplication(ctx, "p1", near.EventID, "pick me")
			So(err, ShouldBeNil)
			So(app.Status, ShouldEqual, model.ApplicationPending)

			Convey("Then the event disappears from the available list", func() {
				events, err := svc.AvailableEvents(ctx, "p1")
				So(err, ShouldBeNil)
				So(events, ShouldBeEmpty)
			})

			Convey("Then applying again is a duplicate", func() {
				_, err := svc.SubmitApplication(ctx, "p1", near.EventID, "again")
				So(err, ShouldWrap, lifecycle.ErrDuplicateApplication)
			})
		})

		Convey("When the performer applies to an unknown event", func() {
			_, err := svc.SubmitApplication(ctx, "p1", "ghost", "hello")
			So(err, ShouldWrap, lifecycle.ErrEventNotFound)
		})

		Convey("When an unknown performer lists events", func() {
			_, err := svc.AvailableEvents(ctx, "nobody")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestApplicationDecisions(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pending application on a single-slot event", t, func() {
		svc, sink := startService(t)
		seedPerformer(ctx, svc, "p1", 30)
		seedPerformer(ctx, svc, "p2", 30)
		event := seedPublishedEvent(ctx, svc, "o1", parisCoords, 1)
		app, err := svc.SubmitApplication(ctx, "p1", event.EventID, "pick me")
		So(err, ShouldBeNil)

		Convey("When the organizer views then accepts", func() {
			viewed, err := svc.MarkViewed(ctx, app.ApplicationID)
			So(err, ShouldBeNil)
			So(viewed.Status, ShouldEqual, model.ApplicationViewed)

			decided, err := svc.DecideApplication(ctx, app.ApplicationID, "o1", lifecycle.OutcomeAccepted)
			So(err, ShouldBeNil)

			Convey("Then the application is accepted with a response time", func() {
				So(decided.Status, ShouldEqual, model.ApplicationAccepted)
				So(decided.RespondedAt, ShouldNotBeNil)
			})

			Convey("Then the event flips to full", func() {
				events, err := svc.AvailableEvents(ctx, "p2")
				So(err, ShouldBeNil)
				So(events, ShouldBeEmpty)
			})

			Convey("Then a second decision is refused", func() {
				_, err := svc.DecideApplication(ctx, app.ApplicationID, "o1", lifecycle.OutcomeRejected)
				So(err, ShouldWrap, lifecycle.ErrAlreadyDecided)
			})

			Convey("Then marking viewed afterwards is a harmless no-op", func() {
				late, err := svc.MarkViewed(ctx, app.ApplicationID)
				So(err, ShouldBeNil)
				So(late.Status, ShouldEqual, model.ApplicationAccepted)
			})
		})

		Convey("When a stranger decides", func() {
			_, err := svc.DecideApplication(ctx, app.ApplicationID, "o2", lifecycle.OutcomeAccepted)

			Convey("Then the decision is unauthorized", func() {
				So(err, ShouldWrap, lifecycle.ErrUnauthorized)
			})
		})

		Convey("When the outcome is not a valid decision", func() {
			_, err := svc.DecideApplication(ctx, app.ApplicationID, "o1", lifecycle.Outcome("shortlist"))

			Convey("Then it is rejected as invalid", func() {
				So(err, ShouldWrap, lifecycle.ErrInvalidOutcome)
			})
		})

		Convey("When the flow completes", func() {
			_, err := svc.DecideApplication(ctx, app.ApplicationID, "o1", lifecycle.OutcomeAccepted)
			So(err, ShouldBeNil)
			svc.Stop()

			Convey("Then both sides were notified", func() {
				So(sink.byType(notify.TypeApplicationReceived), ShouldHaveLength, 1)
				accepted := sink.byType(notify.TypeApplicationAccepted)
				So(accepted, ShouldHaveLength, 1)
				So(accepted[0].UserID, ShouldEqual, "p1")
			})
		})
	})
}

// racingStore slips a status transition in between the service's read of an
// application and its compare-and-swap write, once.
type racingStore struct {
	repository.Store
	flipTo model.ApplicationStatus
	once   sync.Once
}

func (s *racingStore) UpdateApplicationStatus(ctx context.Context, applicationID string, from, to model.ApplicationStatus, respondedAt *time.Time) (model.Application, error) {
	if from == model.ApplicationPending && to.Terminal() {
		s.once.Do(func() {
			_, _ = s.Store.UpdateApplicationStatus(ctx, applicationID, model.ApplicationPending, s.flipTo, nil)
		})
	}
	return s.Store.UpdateApplicationStatus(ctx, applicationID, from, to, respondedAt)
}

func TestDecisionRaces(t *testing.T) {
	ctx := context.Background()

	startRacing := func(t *testing.T, flipTo model.ApplicationStatus) *service.Service {
		t.Helper()
		svc := service.New(
			service.WithStore(&racingStore{Store: repository.NewMemStore(), flipTo: flipTo}),
			service.WithNotificationSink(&recordingSink{}),
			service.WithNotifyWorkers(1),
		)
		if err := svc.Start(ctx); err != nil {
			t.Fatalf("start service: %v", err)
		}
		t.Cleanup(svc.Stop)
		return svc
	}

	Convey("Given a decision racing a concurrent view", t, func() {
		svc := startRacing(t, model.ApplicationViewed)
		seedPerformer(ctx, svc, "p1", 30)
		event := seedPublishedEvent(ctx, svc, "o1", parisCoords, 1)
		app, err := svc.SubmitApplication(ctx, "p1", event.EventID, "pick me")
		So(err, ShouldBeNil)

		Convey("When the organizer accepts and the view lands first", func() {
			decided, err := svc.DecideApplication(ctx, app.ApplicationID, "o1", lifecycle.OutcomeAccepted)

			Convey("Then the decision still goes through", func() {
				So(err, ShouldBeNil)
				So(decided.Status, ShouldEqual, model.ApplicationAccepted)
				So(decided.RespondedAt, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a decision racing a concurrent rejection", t, func() {
		svc := startRacing(t, model.ApplicationRejected)
		seedPerformer(ctx, svc, "p1", 30)
		event := seedPublishedEvent(ctx, svc, "o1", parisCoords, 1)
		app, err := svc.SubmitApplication(ctx, "p1", event.EventID, "pick me")
		So(err, ShouldBeNil)

		Convey("When the organizer accepts after the rejection lands", func() {
			_, err := svc.DecideApplication(ctx, app.ApplicationID, "o1", lifecycle.OutcomeAccepted)

			Convey("Then the decision is reported as already made", func() {
				So(err, ShouldWrap, lifecycle.ErrAlreadyDecided)
				stored, err := svc.MarkViewed(ctx, app.ApplicationID)
				So(err, ShouldBeNil)
				So(stored.Status, ShouldEqual, model.ApplicationRejected)
			})
		})
	})
}

func TestRatingsAndStats(t *testing.T) {
	ctx := context.Background()

	Convey("Given an accepted performer on a completed event", t, func() {
		svc, _ := startService(t)
		seedPerformer(ctx, svc, "p1", 30)
		event := seedPublishedEvent(ctx, svc, "o1", parisCoords, 0)
		app, err := svc.SubmitApplication(ctx, "p1", event.EventID, "")
		So(err, ShouldBeNil)
		_, err = svc.DecideApplication(ctx, app.ApplicationID, "o1", lifecycle.OutcomeAccepted)
		So(err, ShouldBeNil)

		Convey("When the event is still running", func() {
			_, err := svc.RatePerformer(ctx, "o1", model.Rating{EventID: event.EventID, PerformerID: "p1", Score: 5})

			Convey("Then rating is refused", func() {
				So(err, ShouldWrap, lifecycle.ErrInvalidTransition)
			})
		})

		Convey("When the event completes", func() {
			_, err := svc.CompleteEvent(ctx, event.EventID, "o1")
			So(err, ShouldBeNil)

			Convey("Then an invalid score is refused", func() {
				_, err := svc.RatePerformer(ctx, "o1", model.Rating{EventID: event.EventID, PerformerID: "p1", Score: 9})
				So(err, ShouldWrap, model.ErrInvalidRatingScore)
			})

			Convey("Then a valid rating feeds the derived stats", func() {
				rating, err := svc.RatePerformer(ctx, "o1", model.Rating{EventID: event.EventID, PerformerID: "p1", Score: 4})
				So(err, ShouldBeNil)
				So(rating.RatingID, ShouldNotBeBlank)

				s, err := svc.PerformerStats(ctx, "p1")
				So(err, ShouldBeNil)
				So(s.TotalApplications, ShouldEqual, 1)
				So(s.AcceptedApplications, ShouldEqual, 1)
				So(s.CompletedShows, ShouldEqual, 1)
				So(s.AverageRating, ShouldEqual, 4)
				// 1*100 + 1*150 + 4*50
				So(s.ViralScore, ShouldEqual, 450)

				os, err := svc.OrganizerStats(ctx, "o1")
				So(err, ShouldBeNil)
				So(os.TotalEvents, ShouldEqual, 1)
				So(os.CompletedEvents, ShouldEqual, 1)
				So(os.TotalApplications, ShouldEqual, 1)
			})
		})
	})
}

// strayProfile is a profile variant the engine does not know about.
type strayProfile struct{}

func (strayProfile) Role() model.Role { return model.Role("alien") }

func TestSaveProfile(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc, _ := startService(t)

		Convey("When a performer profile is saved", func() {
			saved, err := svc.SaveProfile(ctx, model.PerformerProfile{
				PerformerID: "p1", City: "Paris",
			})
			So(err, ShouldBeNil)

			Convey("Then it round-trips as a performer with defaults applied", func() {
				p, ok := saved.(model.PerformerProfile)
				So(ok, ShouldBeTrue)
				So(p.Role(), ShouldEqual, model.RolePerformer)
				So(p.MobilityRadiusKm, ShouldEqual, model.DefaultMobilityRadiusKm)
				So(p.Coordinates, ShouldNotBeNil)
			})
		})

		Convey("When an organizer profile is saved", func() {
			saved, err := svc.SaveProfile(ctx, model.OrganizerProfile{
				OrganizerID: "o1", CompanyName: "Laugh Factory", City: "Paris",
			})
			So(err, ShouldBeNil)

			Convey("Then it round-trips as an organizer", func() {
				So(saved.Role(), ShouldEqual, model.RoleOrganizer)
				stored, err := svc.Organizer(ctx, "o1")
				So(err, ShouldBeNil)
				So(stored.CompanyName, ShouldEqual, "Laugh Factory")
			})
		})

		Convey("When a profile of an unknown variant is saved", func() {
			_, err := svc.SaveProfile(ctx, strayProfile{})

			Convey("Then it is refused", func() {
				So(err, ShouldWrap, model.ErrUnknownProfileRole)
			})
		})
	})
}

func TestServiceHelpers(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc, _ := startService(t)

		Convey("Then the distance helper matches the known fixture", func() {
			d := svc.DistanceKm(parisCoords, lyonCoords)
			So(d, ShouldBeGreaterThan, 390)
			So(d, ShouldBeLessThan, 395)
		})

		Convey("Then known cities resolve without a network geocoder", func() {
			res, err := svc.ResolveAddress(ctx, "Lyon")
			So(err, ShouldBeNil)
			So(res.Coordinates.Valid(), ShouldBeTrue)
		})

		Convey("Then service stats report the running state", func() {
			stats := svc.GetStats(ctx)
			So(stats["started"], ShouldBeTrue)
			So(stats["country"], ShouldEqual, "fr")
		})
	})
}
