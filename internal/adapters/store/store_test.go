package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/okian/windward/internal/adapters/store"
	"github.com/okian/windward/internal/domain/polar"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStore(t *testing.T) {
	Convey("Given a polar table store", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		path := filepath.Join(dir, "tables", "worlds.json")

		table := polar.NewTable(polar.DefaultGrid, "worlds")
		table.Add(7, 50, 6)
		table.Add(7, 50, 6.4)
		table.Add(13, 110, 9.2)

		Convey("When saving and loading a table", func() {
			s := store.New(path)
			So(s.Save(ctx, table), ShouldBeNil)

			loaded, err := s.Load(ctx)
			So(err, ShouldBeNil)

			Convey("Then the table round-trips intact", func() {
				So(loaded.Regatta, ShouldEqual, "worlds")
				So(loaded.Grid, ShouldResemble, table.Grid)
				So(loaded.SampleCount(), ShouldEqual, 3)
				key := polar.Key{Speed: 3, Angle: 10}
				So(loaded.Bins[key].Count, ShouldEqual, 2)
				So(loaded.Bins[key].Mean, ShouldAlmostEqual, 6.2, 1e-9)
				So(loaded.Bins[key].Min, ShouldEqual, 6)
				So(loaded.Bins[key].Max, ShouldEqual, 6.4)
			})

			Convey("And saving again replaces the file", func() {
				table.Add(7, 50, 7)
				So(s.Save(ctx, table), ShouldBeNil)
				again, err := s.Load(ctx)
				So(err, ShouldBeNil)
				So(again.SampleCount(), ShouldEqual, 4)
			})
		})

		Convey("When loading a path that was never written", func() {
			_, err := store.New(filepath.Join(dir, "absent.json")).Load(ctx)

			Convey("Then the miss is distinguishable", func() {
				So(err, ShouldWrap, store.ErrNotFound)
			})
		})

		Convey("When the context is already canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			So(store.New(path).Save(canceled, table), ShouldNotBeNil)
		})
	})
}
