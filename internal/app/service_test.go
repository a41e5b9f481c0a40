package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	service "github.com/okian/rally/internal/app"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/pairing"
	"github.com/okian/rally/pkg/logger"

	"github.com/google/uuid"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

func sequence() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%02d", n)
	}
}

func started(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithIDGenerator(sequence()), service.WithRandomSeed(7)}, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func seed(svc *service.Service, players, courts int) {
	ctx := context.Background()
	for i := range players {
		_, err := svc.AddParticipant(ctx, fmt.Sprintf("Player %d", i+1), i%10+1)
		So(err, ShouldBeNil)
	}
	for i := range courts {
		_, err := svc.AddCourt(ctx, fmt.Sprintf("Court %d", i+1))
		So(err, ShouldBeNil)
	}
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service that was not started", t, func() {
		svc := service.New()

		Convey("Then operations are refused", func() {
			_, err := svc.AddParticipant(ctx, "Ann", 5)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.NextGame(ctx)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.Stats(ctx).Started, ShouldBeFalse)
		})

		Convey("When it is started twice and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Stats(ctx).Started, ShouldBeTrue)
			svc.Stop()
			So(svc.Stats(ctx).Started, ShouldBeFalse)
		})
	})

	Convey("Given a session that is stopped and started after a completed game", t, func() {
		svc := started()
		seed(svc, 8, 2)
		first, err := svc.NextGame(ctx)
		So(err, ShouldBeNil)
		applied, err := svc.CompleteGame(ctx, 1)
		So(err, ShouldBeNil)
		So(applied, ShouldBeTrue)

		svc.Stop()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("Then pairing history and completed games survive", func() {
			st := svc.Stats(ctx)
			So(st.PairingHistory, ShouldEqual, 2)
			So(st.CompletedGames, ShouldEqual, 1)
			So(st.NextGame, ShouldEqual, 2)
		})

		Convey("Then completing the game again is still a duplicate", func() {
			applied, err := svc.CompleteGame(ctx, 1)
			So(err, ShouldBeNil)
			So(applied, ShouldBeFalse)
			ps, _ := svc.Participants(ctx)
			for _, p := range ps {
				So(p.GamesPlayed, ShouldEqual, 1)
			}
		})

		Convey("Then the next game continues the numbering without repeating a court", func() {
			res, err := svc.NextGame(ctx)
			So(err, ShouldBeNil)
			So(res.Game, ShouldEqual, 2)
			So(res.Round, ShouldEqual, 1)
			So(res.Allocations, ShouldNotBeEmpty)
			before := lo.SliceToMap(first.Allocations, func(a model.GameAllocation) (string, string) {
				return a.CourtID, pairing.Key(a.PlayerIDs())
			})
			for _, a := range res.Allocations {
				So(pairing.Key(a.PlayerIDs()), ShouldNotEqual, before[a.CourtID])
			}
			So(svc.Stats(ctx).PairingHistory, ShouldBeGreaterThanOrEqualTo, 2)
		})
	})
}

func TestService_Roster(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := started()

		Convey("When a participant is added", func() {
			p, err := svc.AddParticipant(ctx, "  Ann  ", 6)

			Convey("Then the name is trimmed and an id assigned", func() {
				So(err, ShouldBeNil)
				So(p.ID, ShouldEqual, "id-01")
				So(p.Name, ShouldEqual, "Ann")
				So(p.GamesPlayed, ShouldEqual, 0)
			})
		})

		Convey("When input is out of range", func() {
			_, err := svc.AddParticipant(ctx, "   ", 5)
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			_, err = svc.AddParticipant(ctx, "Bob", 11)
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			_, err = svc.AddParticipant(ctx, "Bob", 0)
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When a participant is updated", func() {
			a, _ := svc.AddParticipant(ctx, "Ann", 5)
			b, _ := svc.AddParticipant(ctx, "Bob", 5)
			level, prio := 8, 2
			prefs := []model.Preference{{OtherID: b.ID, Kind: model.Avoided}}

			got, err := svc.UpdateParticipant(ctx, a.ID, service.ParticipantUpdate{
				Level:            &level,
				RotationPriority: &prio,
				Preferences:      &prefs,
			})

			Convey("Then the fields change", func() {
				So(err, ShouldBeNil)
				So(got.Level, ShouldEqual, 8)
				So(*got.RotationPriority, ShouldEqual, 2)
				kind, ok := got.Preference(b.ID)
				So(ok, ShouldBeTrue)
				So(kind, ShouldEqual, model.Avoided)
			})

			Convey("And the priority can be cleared", func() {
				got, err := svc.UpdateParticipant(ctx, a.ID, service.ParticipantUpdate{ClearPriority: true})
				So(err, ShouldBeNil)
				So(got.RotationPriority, ShouldBeNil)
				So(got.Level, ShouldEqual, 8)
			})
		})

		Convey("When an update is invalid", func() {
			a, _ := svc.AddParticipant(ctx, "Ann", 5)
			self := []model.Preference{{OtherID: a.ID, Kind: model.Preferred}}
			ghost := []model.Preference{{OtherID: "nobody", Kind: model.Preferred}}
			bad := 12

			_, err := svc.UpdateParticipant(ctx, a.ID, service.ParticipantUpdate{Preferences: &self})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			_, err = svc.UpdateParticipant(ctx, a.ID, service.ParticipantUpdate{Preferences: &ghost})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			_, err = svc.UpdateParticipant(ctx, a.ID, service.ParticipantUpdate{Level: &bad})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			_, err = svc.UpdateParticipant(ctx, "nobody", service.ParticipantUpdate{Level: &bad})
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a participant is removed", func() {
			a, _ := svc.AddParticipant(ctx, "Ann", 5)
			So(svc.RemoveParticipant(ctx, a.ID), ShouldBeNil)
			So(errors.Is(svc.RemoveParticipant(ctx, a.ID), service.ErrNotFound), ShouldBeTrue)
			ps, err := svc.Participants(ctx)
			So(err, ShouldBeNil)
			So(ps, ShouldBeEmpty)
		})

		Convey("When courts are added and toggled", func() {
			c, err := svc.AddCourt(ctx, "Centre")
			So(err, ShouldBeNil)
			So(c.Active, ShouldBeTrue)

			c, err = svc.SetCourtActive(ctx, c.ID, false)
			So(err, ShouldBeNil)
			So(c.Active, ShouldBeFalse)
			So(svc.Stats(ctx).ActiveCourts, ShouldEqual, 0)

			_, err = svc.SetCourtActive(ctx, "nowhere", true)
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given the default id generator", t, func() {
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		p, err := svc.AddParticipant(ctx, "Ann", 5)
		So(err, ShouldBeNil)
		_, err = uuid.Parse(p.ID)
		So(err, ShouldBeNil)
	})
}

func TestService_Games(t *testing.T) {
	ctx := context.Background()

	Convey("Given eight participants and two courts", t, func() {
		svc := started()
		seed(svc, 8, 2)

		Convey("When the first game is allocated", func() {
			res, err := svc.NextGame(ctx)
			So(err, ShouldBeNil)

			Convey("Then both courts are filled and the game is pending", func() {
				So(res.Game, ShouldEqual, 1)
				So(res.Round, ShouldEqual, 1)
				So(res.Allocations, ShouldHaveLength, 2)
				So(res.Stats.TotalPlayers, ShouldEqual, 8)
				st := svc.Stats(ctx)
				So(st.NextGame, ShouldEqual, 2)
				So(st.PendingGames, ShouldResemble, []int{1})
				So(st.PairingHistory, ShouldEqual, 2)
			})

			Convey("And completing it updates every player once", func() {
				applied, err := svc.CompleteGame(ctx, 1)
				So(err, ShouldBeNil)
				So(applied, ShouldBeTrue)

				ps, _ := svc.Participants(ctx)
				for _, p := range ps {
					So(p.GamesPlayed, ShouldEqual, 1)
					So(p.LastPlayedRound, ShouldEqual, 1)
				}

				Convey("And completing it again changes nothing", func() {
					applied, err := svc.CompleteGame(ctx, 1)
					So(err, ShouldBeNil)
					So(applied, ShouldBeFalse)
					ps, _ := svc.Participants(ctx)
					So(ps[0].GamesPlayed, ShouldEqual, 1)
					So(svc.Stats(ctx).CompletedGames, ShouldEqual, 1)
				})
			})

			Convey("And an unknown game cannot be completed", func() {
				_, err := svc.CompleteGame(ctx, 9)
				So(errors.Is(err, service.ErrUnknownGame), ShouldBeTrue)
			})

			Convey("And a player removed meanwhile is skipped on completion", func() {
				gone := res.Allocations[0].Players[0].ID
				So(svc.RemoveParticipant(ctx, gone), ShouldBeNil)
				applied, err := svc.CompleteGame(ctx, 1)
				So(err, ShouldBeNil)
				So(applied, ShouldBeTrue)
			})
		})

		Convey("When the session is reset after a game", func() {
			_, err := svc.NextGame(ctx)
			So(err, ShouldBeNil)
			_, err = svc.CompleteGame(ctx, 1)
			So(err, ShouldBeNil)
			So(svc.ResetSession(ctx), ShouldBeNil)

			Convey("Then counters, history and numbering start over", func() {
				ps, _ := svc.Participants(ctx)
				So(ps, ShouldHaveLength, 8)
				for _, p := range ps {
					So(p.GamesPlayed, ShouldEqual, 0)
					So(p.LastPlayedRound, ShouldEqual, 0)
				}
				st := svc.Stats(ctx)
				So(st.NextGame, ShouldEqual, 1)
				So(st.PairingHistory, ShouldEqual, 0)
				So(st.CompletedGames, ShouldEqual, 0)
				So(st.PendingGames, ShouldBeEmpty)
			})
		})
	})

	Convey("Given participants but no active court", t, func() {
		svc := started()
		seed(svc, 8, 0)

		Convey("When a game is requested", func() {
			res, err := svc.NextGame(ctx)

			Convey("Then nothing is allocated and the index does not move", func() {
				So(err, ShouldBeNil)
				So(res.Allocations, ShouldBeEmpty)
				So(res.Validation.Valid, ShouldBeTrue)
				So(svc.Stats(ctx).NextGame, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a session played over several games", t, func() {
		svc := started()
		seed(svc, 10, 2)

		for range 6 {
			res, err := svc.NextGame(ctx)
			So(err, ShouldBeNil)
			applied, err := svc.CompleteGame(ctx, res.Game)
			So(err, ShouldBeNil)
			So(applied, ShouldBeTrue)
		}

		Convey("Then the rotation stays within the games ceiling", func() {
			st := svc.Stats(ctx)
			So(st.NextGame, ShouldEqual, 7)
			So(st.Rotation.GamesSpread, ShouldBeLessThanOrEqualTo, 2)
			So(st.Rotation.Participants, ShouldEqual, 10)
		})
	})
}

func TestService_Rules(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := started()

		Convey("When invalid rules are submitted", func() {
			bad := model.DefaultRules()
			bad.MaxGamesDifference = 0
			err := svc.SetRules(ctx, bad)
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			So(errors.Is(err, model.ErrInvalidRules), ShouldBeTrue)
			So(svc.Rules(ctx), ShouldResemble, model.DefaultRules())
		})

		Convey("When singles rules are submitted", func() {
			singles := model.DefaultRules()
			singles.PlayersPerCourt = 2
			So(svc.SetRules(ctx, singles), ShouldBeNil)
			seed(svc, 4, 2)

			res, err := svc.NextGame(ctx)
			So(err, ShouldBeNil)
			So(res.Allocations, ShouldHaveLength, 2)
			So(res.Validation.Valid, ShouldBeTrue)
			So(svc.Stats(ctx).Rules.PlayersPerCourt, ShouldEqual, 2)
		})
	})
}
