package simulation_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/simulation"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfig_Validate(t *testing.T) {
	Convey("Given the default config", t, func() {
		cfg := simulation.DefaultConfig()

		Convey("Then it is valid", func() {
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("When a count is not positive", func() {
			for _, mutate := range []func(*simulation.Config){
				func(c *simulation.Config) { c.Players = 0 },
				func(c *simulation.Config) { c.Courts = -1 },
				func(c *simulation.Config) { c.Games = 0 },
				func(c *simulation.Config) { c.Seed = 0 },
			} {
				c := cfg
				mutate(&c)
				So(errors.Is(c.Validate(), simulation.ErrInvalidConfig), ShouldBeTrue)
			}
		})

		Convey("When the rules are out of range", func() {
			cfg.Rules.PlayersPerCourt = 5
			err := cfg.Validate()
			So(errors.Is(err, simulation.ErrInvalidConfig), ShouldBeTrue)
			So(errors.Is(err, model.ErrInvalidRules), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given twelve players on two courts", t, func() {
		cfg := simulation.DefaultConfig()

		rep, err := simulation.Run(ctx, cfg)
		So(err, ShouldBeNil)

		Convey("Then every check holds", func() {
			So(rep.Failures, ShouldBeEmpty)
			So(rep.Passed(), ShouldBeTrue)
		})

		Convey("And every requested game is accounted for", func() {
			So(rep.Played+rep.Idle, ShouldEqual, cfg.Games)
			So(len(rep.History), ShouldEqual, rep.Played)
			So(len(rep.Participants), ShouldEqual, cfg.Players)
		})

		Convey("And the pool rotated evenly", func() {
			So(rep.Rotation.MinGames, ShouldBeGreaterThanOrEqualTo, 1)
			So(rep.Rotation.GamesSpread, ShouldBeLessThanOrEqualTo, 2)
			So(rep.MeanBalance, ShouldBeBetweenOrEqual, 0, 10)
		})

		Convey("And the text report lists the session", func() {
			var buf bytes.Buffer
			So(rep.WriteText(&buf), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "games spread")
			So(buf.String(), ShouldContainSubstring, "Player 01")
			So(buf.String(), ShouldNotContainSubstring, "failures")
		})
	})

	Convey("Given fourteen players on three courts", t, func() {
		cfg := simulation.DefaultConfig()
		cfg.Players, cfg.Courts, cfg.Games = 14, 3, 12

		rep, err := simulation.Run(ctx, cfg)

		Convey("Then the spread stays bounded throughout", func() {
			So(err, ShouldBeNil)
			So(rep.Failures, ShouldBeEmpty)
		})
	})

	Convey("Given the same seed twice", t, func() {
		cfg := simulation.DefaultConfig()
		cfg.Seed = 99

		first, err := simulation.Run(ctx, cfg)
		So(err, ShouldBeNil)
		second, err := simulation.Run(ctx, cfg)
		So(err, ShouldBeNil)

		Convey("Then the sessions match game for game", func() {
			So(second.History, ShouldResemble, first.History)
			So(second.Participants, ShouldResemble, first.Participants)
		})
	})

	Convey("Given an invalid config", t, func() {
		cfg := simulation.DefaultConfig()
		cfg.Courts = 0

		rep, err := simulation.Run(ctx, cfg)

		Convey("Then nothing runs", func() {
			So(errors.Is(err, simulation.ErrInvalidConfig), ShouldBeTrue)
			So(rep, ShouldBeNil)
		})
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		rep, err := simulation.Run(cctx, simulation.DefaultConfig())

		Convey("Then the run stops", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(rep, ShouldBeNil)
		})
	})
}

func TestSweep(t *testing.T) {
	ctx := context.Background()

	Convey("Given a sweep over eight seeds", t, func() {
		cfg := simulation.DefaultConfig()
		cfg.Games = 6

		rep, err := simulation.Sweep(ctx, cfg, 8, 3)
		So(err, ShouldBeNil)

		Convey("Then every seed ran once in order", func() {
			So(len(rep.Seeds), ShouldEqual, 8)
			for i, s := range rep.Seeds {
				So(s.Seed, ShouldEqual, cfg.Seed+int64(i))
				So(s.Played+s.Idle, ShouldEqual, cfg.Games)
			}
			So(rep.Workers, ShouldEqual, 3)
		})

		Convey("And they all passed", func() {
			So(rep.Failed, ShouldBeEmpty)
			So(rep.Passed(), ShouldBeTrue)
			So(rep.WorstSpread, ShouldBeLessThanOrEqualTo, 2)
		})

		Convey("And a seed matches its standalone run", func() {
			single := cfg
			single.Seed = cfg.Seed + 5
			alone, err := simulation.Run(ctx, single)
			So(err, ShouldBeNil)
			So(rep.Seeds[5].Played, ShouldEqual, alone.Played)
			So(rep.Seeds[5].GamesSpread, ShouldEqual, alone.Rotation.GamesSpread)
			So(rep.Seeds[5].MeanBalance, ShouldEqual, alone.MeanBalance)
		})

		Convey("And the text report has one row per seed", func() {
			var buf bytes.Buffer
			So(rep.WriteText(&buf), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "8 runs on 3 workers, 0 failed")
		})
	})

	Convey("Given more workers than runs", t, func() {
		rep, err := simulation.Sweep(ctx, simulation.DefaultConfig(), 2, 16)

		Convey("Then the pool shrinks to the runs", func() {
			So(err, ShouldBeNil)
			So(rep.Workers, ShouldEqual, 2)
		})
	})

	Convey("Given no runs", t, func() {
		_, err := simulation.Sweep(ctx, simulation.DefaultConfig(), 0, 1)

		Convey("Then the sweep is refused", func() {
			So(errors.Is(err, simulation.ErrInvalidConfig), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := simulation.Sweep(cctx, simulation.DefaultConfig(), 4, 2)

		Convey("Then the sweep stops with the context error", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
