package lifecycle_test

import (
	"testing"

	"github.com/gigmatch/gigmatch/internal/domain/lifecycle"
	"github.com/gigmatch/gigmatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCanTransition(t *testing.T) {
	Convey("Given the application state machine", t, func() {
		Convey("Then pending admits viewed and both decisions", func() {
			So(lifecycle.CanTransition(model.ApplicationPending, model.ApplicationViewed), ShouldBeTrue)
			So(lifecycle.CanTransition(model.ApplicationPending, model.ApplicationAccepted), ShouldBeTrue)
			So(lifecycle.CanTransition(model.ApplicationPending, model.ApplicationRejected), ShouldBeTrue)
		})

		Convey("Then viewed admits both decisions but not pending", func() {
			So(lifecycle.CanTransition(model.ApplicationViewed, model.ApplicationAccepted), ShouldBeTrue)
			So(lifecycle.CanTransition(model.ApplicationViewed, model.ApplicationRejected), ShouldBeTrue)
			So(lifecycle.CanTransition(model.ApplicationViewed, model.ApplicationPending), ShouldBeFalse)
		})

		Convey("Then terminal states admit nothing", func() {
			for _, from := range []model.ApplicationStatus{model.ApplicationAccepted, model.ApplicationRejected} {
				for _, to := range []model.ApplicationStatus{model.ApplicationPending, model.ApplicationViewed, model.ApplicationAccepted, model.ApplicationRejected} {
					So(lifecycle.CanTransition(from, to), ShouldBeFalse)
				}
			}
		})
	})
}

func TestOutcomeStatus(t *testing.T) {
	Convey("Given decision outcomes", t, func() {
		Convey("Then known outcomes resolve to their statuses", func() {
			s, err := lifecycle.OutcomeAccepted.Status()
			So(err, ShouldBeNil)
			So(s, ShouldEqual, model.ApplicationAccepted)

			s, err = lifecycle.OutcomeRejected.Status()
			So(err, ShouldBeNil)
			So(s, ShouldEqual, model.ApplicationRejected)
		})

		Convey("Then an unknown outcome is rejected", func() {
			_, err := lifecycle.Outcome("maybe").Status()
			So(err, ShouldWrap, lifecycle.ErrInvalidOutcome)
		})
	})
}

func TestValidateDecision(t *testing.T) {
	Convey("Given a pending application on an owned event", t, func() {
		e := model.Event{EventID: "e1", OrganizerID: "o1", Status: model.EventPublished}
		a := model.Application{ApplicationID: "a1", EventID: "e1", PerformerID: "p1", Status: model.ApplicationPending}

		Convey("When the owner accepts", func() {
			target, err := lifecycle.ValidateDecision(a, e, "o1", lifecycle.OutcomeAccepted)

			Convey("Then the target status is accepted", func() {
				So(err, ShouldBeNil)
				So(target, ShouldEqual, model.ApplicationAccepted)
			})
		})

		Convey("When a different organizer decides", func() {
			_, err := lifecycle.ValidateDecision(a, e, "o2", lifecycle.OutcomeRejected)

			Convey("Then the decision is unauthorized", func() {
				So(err, ShouldWrap, lifecycle.ErrUnauthorized)
			})
		})

		Convey("When the outcome is garbage", func() {
			_, err := lifecycle.ValidateDecision(a, e, "o1", lifecycle.Outcome("later"))

			Convey("Then the outcome error wins", func() {
				So(err, ShouldWrap, lifecycle.ErrInvalidOutcome)
			})
		})
	})

	Convey("Given an already decided application", t, func() {
		e := model.Event{EventID: "e1", OrganizerID: "o1"}
		a := model.Application{ApplicationID: "a1", EventID: "e1", Status: model.ApplicationRejected}

		Convey("Then any further decision fails as already decided", func() {
			_, err := lifecycle.ValidateDecision(a, e, "o1", lifecycle.OutcomeAccepted)
			So(err, ShouldWrap, lifecycle.ErrAlreadyDecided)
		})
	})
}

func TestRecomputeEventStatus(t *testing.T) {
	Convey("Given a published event with a capacity of two", t, func() {
		e := model.Event{EventID: "e1", MaxPerformers: 2, Status: model.EventPublished}

		Convey("Then it stays published below capacity", func() {
			status, changed := lifecycle.RecomputeEventStatus(e, 1)
			So(status, ShouldEqual, model.EventPublished)
			So(changed, ShouldBeFalse)
		})

		Convey("Then it flips to full at capacity", func() {
			status, changed := lifecycle.RecomputeEventStatus(e, 2)
			So(status, ShouldEqual, model.EventFull)
			So(changed, ShouldBeTrue)
		})
	})

	Convey("Given a full event whose capacity was raised", t, func() {
		e := model.Event{EventID: "e1", MaxPerformers: 5, Status: model.EventFull}

		Convey("Then it reopens as published", func() {
			status, changed := lifecycle.RecomputeEventStatus(e, 2)
			So(status, ShouldEqual, model.EventPublished)
			So(changed, ShouldBeTrue)
		})
	})

	Convey("Given an unlimited event", t, func() {
		e := model.Event{EventID: "e1", Status: model.EventPublished}

		Convey("Then no accepted count changes the status", func() {
			status, changed := lifecycle.RecomputeEventStatus(e, 9000)
			So(status, ShouldEqual, model.EventPublished)
			So(changed, ShouldBeFalse)
		})
	})

	Convey("Given a cancelled event", t, func() {
		e := model.Event{EventID: "e1", MaxPerformers: 1, Status: model.EventCancelled}

		Convey("Then recomputation never touches it", func() {
			status, changed := lifecycle.RecomputeEventStatus(e, 1)
			So(status, ShouldEqual, model.EventCancelled)
			So(changed, ShouldBeFalse)
		})
	})
}
