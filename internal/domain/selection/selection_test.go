package selection_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/pairing"
	"github.com/okian/rally/internal/domain/priority"
	"github.com/okian/rally/internal/domain/selection"
	. "github.com/smartystreets/goconvey/convey"
)

func view(id string, level, games int) priority.View {
	return priority.View{
		Participant: model.Participant{ID: id, Name: id, Level: level, GamesPlayed: games},
		Score:       float64(games * 1000),
	}
}

func ids(views []priority.View) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.ID()
	}
	return out
}

func gamesOf(views []priority.View) map[string]int {
	out := make(map[string]int, len(views))
	for _, v := range views {
		out[v.ID()] = v.Games()
	}
	return out
}

func TestConstraints(t *testing.T) {
	Convey("Given team levels", t, func() {
		Convey("When an even split exists", func() {
			So(selection.BestSplitDifference([]int{1, 2, 3, 4}), ShouldEqual, 0)
			So(selection.IsBalanced([]int{1, 2, 3, 4}, 0), ShouldBeTrue)
		})

		Convey("When one player outclasses the rest", func() {
			So(selection.BestSplitDifference([]int{1, 1, 1, 10}), ShouldEqual, 9)
			So(selection.IsBalanced([]int{1, 1, 1, 10}, 3), ShouldBeFalse)
		})

		Convey("When the team is a pair", func() {
			So(selection.BestSplitDifference([]int{4, 7}), ShouldEqual, 3)
		})
	})

	Convey("Given pool games", t, func() {
		games := map[string]int{"a": 1, "b": 1, "c": 0}

		Convey("Then the spread is max minus min", func() {
			So(selection.GamesSpread(games), ShouldEqual, 1)
			So(selection.Spread(nil), ShouldEqual, 0)
		})

		Convey("Then committing a played participant widens it", func() {
			So(selection.ProjectedSpread(games, "a"), ShouldEqual, 2)
		})

		Convey("Then committing the laggard closes it", func() {
			So(selection.ProjectedSpread(games, "c"), ShouldEqual, 0)
		})
	})

	Convey("Given the games ceiling", t, func() {
		So(selection.GamesCeiling(0, 1), ShouldEqual, 1)
		So(selection.GamesCeiling(1, 1), ShouldEqual, 2)
		So(selection.GamesCeiling(2, 2), ShouldEqual, 2)
		So(selection.GamesCeiling(3, 4), ShouldEqual, 4)

		Convey("And a pool already past it may not widen further", func() {
			So(selection.GamesCeiling(5, 2), ShouldEqual, 5)
			So(selection.GamesCeiling(4, 1), ShouldEqual, 4)
		})
	})
}

func TestStrategies(t *testing.T) {
	Convey("Given a pool ordered by priority", t, func() {
		pool := []priority.View{
			view("a", 1, 0), view("b", 2, 1), view("c", 3, 2), view("d", 4, 3), view("e", 5, 4),
		}

		Convey("When the priority slice walks combinations", func() {
			s := selection.PrioritySlice{}
			So(ids(s.Candidate(pool, 4, 0, nil)), ShouldResemble, []string{"a", "b", "c", "d"})
			So(ids(s.Candidate(pool, 4, 1, nil)), ShouldResemble, []string{"a", "b", "c", "e"})
			So(ids(s.Candidate(pool, 4, 4, nil)), ShouldResemble, []string{"b", "c", "d", "e"})
			So(s.Candidate(pool, 4, 5, nil), ShouldBeNil)
		})

		Convey("When skill diversity alternates ends of the window", func() {
			s := selection.SkillDiversity{}
			So(ids(s.Candidate(pool, 4, 0, nil)), ShouldResemble, []string{"a", "d", "b", "c"})
			So(ids(s.Candidate(pool, 4, 1, nil)), ShouldResemble, []string{"a", "e", "b", "d"})
			So(s.Candidate(pool, 4, 2, nil), ShouldBeNil)
		})

		Convey("When the random strategy has no source", func() {
			So(selection.RandomShuffle{}.Candidate(pool, 4, 0, nil), ShouldBeNil)
		})

		Convey("When the random strategy is seeded", func() {
			got := selection.RandomShuffle{}.Candidate(pool, 4, 0, rand.New(rand.NewSource(7)))
			So(got, ShouldHaveLength, 4)
			seen := map[string]bool{}
			for _, id := range ids(got) {
				So(seen[id], ShouldBeFalse)
				seen[id] = true
			}
		})
	})

	Convey("Given participants with different waits", t, func() {
		pool := []priority.View{view("a", 5, 0), view("b", 5, 0), view("c", 5, 0), view("d", 5, 0), view("e", 5, 0)}
		for i, w := range []int{0, 3, 1, 3, 2} {
			pool[i].WaitingGames = w
		}
		s := selection.WaitingGames{}

		Convey("Then the longest waits come first and the last seat rotates", func() {
			So(ids(s.Candidate(pool, 2, 0, nil)), ShouldResemble, []string{"b", "d"})
			So(ids(s.Candidate(pool, 2, 1, nil)), ShouldResemble, []string{"b", "e"})
			So(ids(s.Candidate(pool, 2, 3, nil)), ShouldResemble, []string{"b", "a"})
			So(s.Candidate(pool, 2, 4, nil), ShouldBeNil)
		})
	})
}

func TestSelect(t *testing.T) {
	ctx := context.Background()
	court := model.Court{ID: "c1", Name: "Court 1", Active: true}

	Convey("Given a selector", t, func() {
		sel := selection.NewSelector(selection.WithRand(rand.New(rand.NewSource(1))))

		Convey("When fewer participants than seats remain", func() {
			pool := []priority.View{view("a", 5, 0), view("b", 5, 0), view("c", 5, 0)}
			_, err := sel.Select(ctx, selection.Request{Court: court, Game: 1, Courts: 1, Pool: pool, Games: gamesOf(pool)})
			So(errors.Is(err, selection.ErrInsufficientPool), ShouldBeTrue)
		})

		Convey("When exactly one team remains", func() {
			pool := []priority.View{view("a", 1, 0), view("b", 1, 0), view("c", 1, 0), view("d", 10, 0)}
			team, err := sel.Select(ctx, selection.Request{Court: court, Game: 1, Courts: 1, Pool: pool, Games: gamesOf(pool)})
			So(err, ShouldBeNil)
			So(team.Key, ShouldEqual, "a,b,c,d")

			Convey("Then an unbalanced team is still taken on the relaxed pass", func() {
				So(team.Balanced, ShouldBeFalse)
				So(team.SplitDifference, ShouldEqual, 9)
			})
		})

		Convey("When the only team is still the latest on this court", func() {
			pool := []priority.View{view("a", 5, 1), view("b", 5, 1), view("c", 5, 1), view("d", 5, 1)}
			history := pairing.NewTracker()
			history.RecordTeamPairing(ids(pool), 1, court.ID)

			_, err := sel.Select(ctx, selection.Request{Court: court, Game: 2, Courts: 1, Pool: pool, Games: gamesOf(pool), History: history})
			So(errors.Is(err, selection.ErrConstraintUnsatisfiable), ShouldBeTrue)
		})

		Convey("When committing any team would break the games ceiling", func() {
			pool := []priority.View{view("a", 5, 2), view("b", 5, 2), view("c", 5, 2), view("d", 5, 2)}
			games := gamesOf(pool)
			games["e"] = 0

			_, err := sel.Select(ctx, selection.Request{Court: court, Game: 9, Courts: 1, Pool: pool, Games: games})
			So(errors.Is(err, selection.ErrConstraintUnsatisfiable), ShouldBeTrue)
		})

		Convey("When some participants must play", func() {
			pool := []priority.View{view("a", 5, 0), view("b", 5, 0), view("c", 5, 0), view("d", 5, 0), view("e", 5, 0), view("f", 5, 0)}
			pool[4].MustPlay, pool[4].Score = true, -500
			pool[5].MustPlay, pool[5].Score = true, -500

			team, err := sel.Select(ctx, selection.Request{Court: court, Game: 3, Courts: 1, Pool: pool, Games: gamesOf(pool)})
			So(err, ShouldBeNil)
			So(team.IDs(), ShouldContain, "e")
			So(team.IDs(), ShouldContain, "f")
		})

		Convey("When more participants must play than there are seats", func() {
			pool := []priority.View{view("a", 5, 0), view("b", 5, 0), view("c", 5, 0), view("d", 5, 0), view("e", 5, 0), view("f", 5, 0), view("g", 5, 0)}
			for i := 2; i < len(pool); i++ {
				pool[i].MustPlay = true
			}

			team, err := sel.Select(ctx, selection.Request{Court: court, Game: 3, Courts: 1, Pool: pool, Games: gamesOf(pool)})
			So(err, ShouldBeNil)
			for _, m := range team.Members {
				So(m.MustPlay, ShouldBeTrue)
			}
		})
	})

	Convey("Given a deterministic selector over an even pool", t, func() {
		sel := selection.NewSelector(selection.WithStrategies(selection.PrioritySlice{}))
		pool := []priority.View{
			view("a", 5, 0), view("b", 5, 0), view("c", 5, 0), view("d", 5, 0),
			view("e", 5, 0), view("f", 5, 0), view("g", 5, 0), view("h", 5, 0),
		}

		Convey("When a avoids b", func() {
			pool[0].Participant.Preferences = []model.Preference{{OtherID: "b", Kind: model.Avoided}}
			team, err := sel.Select(ctx, selection.Request{Court: court, Game: 1, Courts: 2, Pool: pool, Games: gamesOf(pool)})

			Convey("Then they are kept apart", func() {
				So(err, ShouldBeNil)
				So(team.IDs(), ShouldResemble, []string{"a", "c", "d", "e"})
				So(team.Evaluated, ShouldEqual, 70)
			})
		})

		Convey("When a team already played twice elsewhere", func() {
			history := pairing.NewTracker()
			history.RecordTeamPairing([]string{"a", "b", "c", "d"}, 1, "c9")
			history.RecordTeamPairing([]string{"a", "b", "c", "d"}, 3, "c9")
			small := pool[:5]

			team, err := sel.Select(ctx, selection.Request{Court: court, Game: 9, Courts: 2, Pool: small, Games: gamesOf(small), History: history})
			So(err, ShouldBeNil)
			So(team.Key, ShouldNotEqual, "a,b,c,d")
			So(team.Repeats, ShouldEqual, 0)
		})
	})
}
