package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/okian/rally/internal/domain/ledger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryLedger(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new ledger", t, func() {
		l := ledger.NewInMemoryLedger()

		Convey("Then it starts empty", func() {
			So(l.Size(), ShouldEqual, 0)
			So(l.Seen(1), ShouldBeFalse)
		})

		Convey("When a game is recorded", func() {
			So(l.SeenAndRecord(ctx, 1), ShouldBeFalse)

			Convey("Then a second record reports a repeat", func() {
				So(l.SeenAndRecord(ctx, 1), ShouldBeTrue)
				So(l.Size(), ShouldEqual, 1)
				So(l.Seen(1), ShouldBeTrue)
			})

			Convey("And reset forgets everything", func() {
				l.Reset()
				So(l.Size(), ShouldEqual, 0)
				So(l.SeenAndRecord(ctx, 1), ShouldBeFalse)
			})
		})
	})

	Convey("Given a bounded ledger", t, func() {
		l := ledger.NewInMemoryLedger(ledger.WithMaxSize(2))
		l.SeenAndRecord(ctx, 1)
		l.SeenAndRecord(ctx, 2)
		l.SeenAndRecord(ctx, 3)

		Convey("Then the oldest game is evicted", func() {
			So(l.Size(), ShouldEqual, 2)
			So(l.Seen(1), ShouldBeFalse)
			So(l.Seen(2), ShouldBeTrue)
			So(l.Seen(3), ShouldBeTrue)
		})
	})

	Convey("Given an unbounded ledger", t, func() {
		l := ledger.NewInMemoryLedger(ledger.WithMaxSize(0))
		for g := 1; g <= 100; g++ {
			l.SeenAndRecord(ctx, g)
		}
		So(l.Size(), ShouldEqual, 100)
	})

	Convey("Given concurrent completions of the same game", t, func() {
		l := ledger.NewInMemoryLedger()
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !l.SeenAndRecord(ctx, 7) {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		So(fresh, ShouldEqual, 1)
	})
}
