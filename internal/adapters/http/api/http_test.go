package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/drivescore/internal/adapters/http/api"
	"github.com/okian/drivescore/internal/adapters/ingest"
	"github.com/okian/drivescore/internal/domain/model"
	"github.com/okian/drivescore/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies scores with the real fold but keeps no state.
type mockDependencies struct {
	maxSamples int
	err        error
	result     *model.SessionResult
	calls      int
}

func (m *mockDependencies) ScoreSamples(_ context.Context, samples []model.Sample) (model.SessionResult, error) {
	m.calls++
	if m.err != nil {
		return model.SessionResult{}, m.err
	}
	if m.result != nil {
		return *m.result, nil
	}
	if len(samples) > m.maxSamples {
		return model.SessionResult{}, fmt.Errorf("%w: over limit", model.ErrTooManySamples)
	}
	res, err := session.Fold(samples)
	if err != nil {
		return model.SessionResult{}, err
	}
	res.ID = "session-test"
	return res, nil
}

func (m *mockDependencies) ScoreReader(ctx context.Context, r io.Reader) (model.SessionResult, error) {
	samples, err := ingest.DecodeAll(r)
	if err != nil {
		return model.SessionResult{}, err
	}
	return m.ScoreSamples(ctx, samples)
}

func (m *mockDependencies) MaxSamples() int { return m.maxSamples }

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

type sessionBody struct {
	SessionID       string    `json:"session_id"`
	RawScores       []float64 `json:"raw_scores"`
	TotalRaw        float64   `json:"total_raw"`
	TotalMax        float64   `json:"total_max"`
	NormalizedScore float64   `json:"normalized_score"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newMux(deps *mockDependencies, stats *mockStatsProvider) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, stats).Register(context.Background(), mux)
	return mux
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		mux := newMux(&mockDependencies{maxSamples: 10}, &mockStatsProvider{stats: map[string]interface{}{"sessionsScored": 3}})

		Convey("When requesting the health endpoint", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should expose Prometheus metrics", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "drivescore_scoring")
			})
		})

		Convey("When requesting the stats endpoint", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return the provider stats", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["sessionsScored"], ShouldEqual, 3.0)
			})
		})

		Convey("When posting to stats", func() {
			req := httptest.NewRequest(http.MethodPost, "/stats", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should not be found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSessionsHandler(t *testing.T) {
	Convey("Given the sessions endpoint", t, func() {
		deps := &mockDependencies{maxSamples: 3}
		mux := newMux(deps, &mockStatsProvider{})

		post := func(contentType, body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(body))
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			return w
		}

		Convey("When posting a JSON session", func() {
			w := post("application/json", `{"samples":[{"steering_angle":0,"throttle":0,"reverse":0,"speed":10},{"steering_angle":0,"throttle":0,"reverse":0,"speed":20}]}`)

			Convey("Then it should return the scored session", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body sessionBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.SessionID, ShouldEqual, "session-test")
				So(body.RawScores, ShouldHaveLength, 2)
				So(body.TotalMax, ShouldEqual, 100.0)
				So(body.NormalizedScore, ShouldAlmostEqual, 40.0, 1e-9)
			})
		})

		Convey("When posting an empty session", func() {
			w := post("application/json", `{"samples":[]}`)

			Convey("Then it should score 0 with empty raw scores", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body sessionBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.RawScores, ShouldNotBeNil)
				So(body.RawScores, ShouldBeEmpty)
				So(body.NormalizedScore, ShouldEqual, 0.0)
			})
		})

		Convey("When posting a plain text log", func() {
			w := post("text/plain; charset=utf-8", "img.jpg 0 0 0 15\n")

			Convey("Then it should decode and score it", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body sessionBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.RawScores, ShouldResemble, []float64{25.0})
				So(body.NormalizedScore, ShouldEqual, 50.0)
			})
		})

		Convey("When posting malformed JSON", func() {
			w := post("application/json", `{"samples":`)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Code, ShouldEqual, "bad_request")
				So(deps.calls, ShouldEqual, 0)
			})
		})

		Convey("When posting too many samples", func() {
			w := post("application/json", `{"samples":[{"speed":1},{"speed":2},{"speed":3},{"speed":4}]}`)

			Convey("Then it should be rejected before scoring", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(deps.calls, ShouldEqual, 0)
			})
		})

		Convey("When a text log exceeds the cap", func() {
			w := post("text/plain", "0 0 0 1\n0 0 0 2\n0 0 0 3\n0 0 0 4\n")

			Convey("Then the service error maps to too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				var body errorBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Code, ShouldEqual, "too_large")
			})
		})

		Convey("When a text log holds invalid sample data", func() {
			w := post("text/plain", "0 0 0 1\n0 zero 0 2\n")

			Convey("Then it should be unprocessable", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				var body errorBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Code, ShouldEqual, "invalid_sample")
				So(body.Message, ShouldContainSubstring, "invalid sample data")
			})
		})

		Convey("When the service fails unexpectedly", func() {
			deps.err = errors.New("boom")
			w := post("application/json", `{"samples":[{"speed":1}]}`)

			Convey("Then it should be an internal error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When throttles overflow the session total", func() {
			w := post("application/json", `{"samples":[{"throttle":1.7e308,"speed":15},{"throttle":1.7e308,"speed":15}]}`)

			Convey("Then the session is rejected with a body", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				var body errorBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Code, ShouldEqual, "invalid_sample")
				So(body.Message, ShouldContainSubstring, "sample 1")
			})
		})

		Convey("When a result cannot be encoded", func() {
			deps.result = &model.SessionResult{ID: "inf", RawScores: []float64{math.Inf(1)}, TotalRaw: math.Inf(1)}
			w := post("application/json", `{"samples":[{"speed":1}]}`)

			Convey("Then it is an internal error instead of an empty success", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				var body errorBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Code, ShouldEqual, "internal")
				So(body.Message, ShouldContainSubstring, "encode response")
			})
		})

		Convey("When a JSON body exceeds the byte budget", func() {
			w := post("application/json", strings.Repeat(" ", 8000)+`{"samples":[]}`)

			Convey("Then it is rejected as too large before scoring", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				var body errorBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Code, ShouldEqual, "too_large")
				So(deps.calls, ShouldEqual, 0)
			})
		})

		Convey("When a text body exceeds the byte budget", func() {
			w := post("text/plain", strings.Repeat("\n", 8000))

			Convey("Then it is rejected as too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(deps.calls, ShouldEqual, 0)
			})
		})

		Convey("When using GET", func() {
			req := httptest.NewRequest(http.MethodGet, "/sessions", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should not be found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestWrapKind(t *testing.T) {
	Convey("Given a wrapped API error", t, func() {
		cause := errors.New("cause")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)

		Convey("Then both the kind and the cause should match", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: cause")
		})

		Convey("And a nil cause should fall back to the kind", func() {
			So(api.WrapKind("api.op", api.ErrTooLarge, nil).Error(), ShouldEqual, "api.op: session too large")
		})
	})
}
