package model_test

import (
	"errors"
	"testing"

	"github.com/okian/rally/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRules_Validate(t *testing.T) {
	Convey("Given the default rules", t, func() {
		rules := model.DefaultRules()

		Convey("Then they should be valid", func() {
			So(rules.Validate(), ShouldBeNil)
			So(rules.PlayersPerCourt, ShouldEqual, 4)
			So(rules.MaxSkillDifference, ShouldEqual, 3)
			So(rules.EnforceEveryTwoRounds, ShouldBeTrue)
		})

		Convey("When the team size is odd", func() {
			rules.PlayersPerCourt = 3

			Convey("Then validation should fail with ErrInvalidRules", func() {
				err := rules.Validate()
				So(err, ShouldNotBeNil)
				So(errors.Is(err, model.ErrInvalidRules), ShouldBeTrue)
			})
		})

		Convey("When the games difference is zero", func() {
			rules.MaxGamesDifference = 0

			Convey("Then validation should fail", func() {
				So(errors.Is(rules.Validate(), model.ErrInvalidRules), ShouldBeTrue)
			})
		})

		Convey("When the skill difference is negative", func() {
			rules.MaxSkillDifference = -1

			Convey("Then validation should fail", func() {
				So(errors.Is(rules.Validate(), model.ErrInvalidRules), ShouldBeTrue)
			})
		})

		Convey("When the minimum games is above the ceiling", func() {
			rules.MinGamesByRoundTwo = 11

			Convey("Then validation should fail", func() {
				So(errors.Is(rules.Validate(), model.ErrInvalidRules), ShouldBeTrue)
			})
		})
	})
}

func TestParticipant_Preference(t *testing.T) {
	Convey("Given a participant with preferences", t, func() {
		p := model.Participant{
			ID: "a",
			Preferences: []model.Preference{
				{OtherID: "b", Kind: model.Preferred},
				{OtherID: "c", Kind: model.Avoided},
			},
		}

		Convey("Then known preferences should be returned", func() {
			kind, ok := p.Preference("b")
			So(ok, ShouldBeTrue)
			So(kind, ShouldEqual, model.Preferred)

			kind, ok = p.Preference("c")
			So(ok, ShouldBeTrue)
			So(kind, ShouldEqual, model.Avoided)
		})

		Convey("And unknown ids should report no preference", func() {
			_, ok := p.Preference("z")
			So(ok, ShouldBeFalse)
		})

		Convey("And a fresh participant has not played", func() {
			So(p.HasPlayed(), ShouldBeFalse)
			p.LastPlayedRound = 2
			So(p.HasPlayed(), ShouldBeTrue)
		})
	})
}

func TestActiveCourts(t *testing.T) {
	Convey("Given a mix of active and inactive courts", t, func() {
		courts := []model.Court{
			{ID: "1", Active: true},
			{ID: "2", Active: false},
			{ID: "3", Active: true},
		}

		Convey("Then only active courts should remain, in order", func() {
			active := model.ActiveCourts(courts)
			So(len(active), ShouldEqual, 2)
			So(active[0].ID, ShouldEqual, "1")
			So(active[1].ID, ShouldEqual, "3")
		})
	})
}

func TestGameAllocation_PlayerIDs(t *testing.T) {
	Convey("Given an allocation", t, func() {
		a := model.GameAllocation{Players: []model.Participant{{ID: "x"}, {ID: "y"}}}

		Convey("Then ids should follow seat order", func() {
			So(a.PlayerIDs(), ShouldResemble, []string{"x", "y"})
		})
	})
}
