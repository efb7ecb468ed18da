package sessionlog_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/postura/internal/adapters/sessionlog"
	"github.com/okian/postura/internal/domain/model"
	"github.com/okian/postura/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestSessionLog(t *testing.T) {
	ctx := context.Background()

	Convey("Given a session log backed by a file", t, func() {
		path := filepath.Join(t.TempDir(), "session.log")
		sl := sessionlog.New(sessionlog.WithPath(path))

		Convey("When assessments are recorded", func() {
			sl.Record(ctx, model.Result{
				Score:    65,
				Smoothed: 72,
				Issues:   []model.Issue{{Label: "slouch", Deviation: 0.08}},
				TS:       time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
			})
			sl.Record(ctx, model.Result{Score: 100, Smoothed: 98, TS: time.Now()})
			So(sl.Close(), ShouldBeNil)

			Convey("Then the file holds one JSON line per assessment", func() {
				f, err := os.Open(path)
				So(err, ShouldBeNil)
				defer f.Close()

				var rows []map[string]any
				scanner := bufio.NewScanner(f)
				for scanner.Scan() {
					var row map[string]any
					So(json.Unmarshal(scanner.Bytes(), &row), ShouldBeNil)
					rows = append(rows, row)
				}
				So(rows, ShouldHaveLength, 2)

				// The smoothed score is the one worth trending.
				So(rows[0]["score"], ShouldEqual, 72)
				So(rows[0]["ts"], ShouldEqual, "2026-08-30T10:00:00Z")
				So(rows[0]["issues"], ShouldResemble, []any{"slouch"})
				So(rows[1]["score"], ShouldEqual, 98)
				_, hasIssues := rows[1]["issues"]
				So(hasIssues, ShouldBeFalse)
			})
		})
	})

	Convey("Given a session log with no path", t, func() {
		sl := sessionlog.New()

		Convey("When an assessment is recorded", func() {
			sl.Record(ctx, model.Result{Score: 50, Smoothed: 50, TS: time.Now()})

			Convey("Then it is a no-op", func() {
				So(sl.Close(), ShouldBeNil)
			})
		})
	})
}
