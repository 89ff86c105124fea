package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/sitemapdiag/internal/diag"
)

// MockFetcher is a mock implementation of the diag.Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, request diag.FetchRequest) (diag.FetchResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(diag.FetchResponse), args.Error(1)
}

func (m *MockFetcher) expect(method, url string, status int) {
	m.On("Fetch", mock.Anything, diag.FetchRequest{Method: method, URL: url}).
		Return(diag.FetchResponse{URL: url, StatusCode: status}, nil)
}

func (m *MockFetcher) expectErr(method, url string, err error) {
	m.On("Fetch", mock.Anything, diag.FetchRequest{Method: method, URL: url}).
		Return(diag.FetchResponse{}, err)
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveProbe(method string, statusCode int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, fmt.Sprintf("%s %d", method, statusCode))
}

const loc = "http://example.com/page"

func TestCheckHeadOK(t *testing.T) {
	t.Parallel()

	fetcher := new(MockFetcher)
	fetcher.expect(http.MethodHead, loc, http.StatusOK)

	problem, err := New(fetcher, Config{}, nil, nil, nil).Check(context.Background(), loc)
	require.NoError(t, err)
	assert.Nil(t, problem)
	fetcher.AssertExpectations(t)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, diag.FetchRequest{Method: http.MethodGet, URL: loc})
}

func TestCheckHead404GetOK(t *testing.T) {
	t.Parallel()

	fetcher := new(MockFetcher)
	fetcher.expect(http.MethodHead, loc, http.StatusNotFound)
	fetcher.expect(http.MethodGet, loc, http.StatusOK)

	problem, err := New(fetcher, Config{}, nil, nil, nil).Check(context.Background(), loc)
	require.NoError(t, err)
	assert.Nil(t, problem)
	fetcher.AssertExpectations(t)
}

func TestCheckHead404Get404(t *testing.T) {
	t.Parallel()

	fetcher := new(MockFetcher)
	fetcher.expect(http.MethodHead, loc, http.StatusNotFound)
	fetcher.expect(http.MethodGet, loc, http.StatusNotFound)

	problem, err := New(fetcher, Config{}, nil, nil, nil).Check(context.Background(), loc)
	require.NoError(t, err)
	require.NotNil(t, problem)
	assert.Equal(t, diag.StatusCodeIssue(http.StatusNotFound, loc), *problem)
}

func TestCheckReportsHeadStatusWhenGetDiffers(t *testing.T) {
	t.Parallel()

	fetcher := new(MockFetcher)
	fetcher.expect(http.MethodHead, loc, http.StatusNotFound)
	fetcher.expect(http.MethodGet, loc, http.StatusForbidden)

	problem, err := New(fetcher, Config{}, nil, nil, nil).Check(context.Background(), loc)
	require.NoError(t, err)
	require.NotNil(t, problem)
	assert.Equal(t, "Status Code: 404 Url:"+loc, problem.String())
}

func TestCheckOtherStatusSkipsGet(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusInternalServerError, http.StatusMovedPermanently, http.StatusNoContent, http.StatusMethodNotAllowed} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			t.Parallel()
			fetcher := new(MockFetcher)
			fetcher.expect(http.MethodHead, loc, status)

			problem, err := New(fetcher, Config{}, nil, nil, nil).Check(context.Background(), loc)
			require.NoError(t, err)
			require.NotNil(t, problem)
			assert.Equal(t, diag.StatusCodeIssue(status, loc), *problem)
			fetcher.AssertNumberOfCalls(t, "Fetch", 1)
		})
	}
}

func TestCheckTransportFailureRecorded(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	fetcher := new(MockFetcher)
	fetcher.expectErr(http.MethodHead, loc, boom)

	problem, err := New(fetcher, Config{}, nil, nil, nil).Check(context.Background(), loc)
	require.NoError(t, err)
	require.NotNil(t, problem)
	assert.Equal(t, diag.ProbeFailed(loc, boom), *problem)
}

func TestCheckGetFallbackFailureRecorded(t *testing.T) {
	t.Parallel()

	boom := errors.New("reset by peer")
	fetcher := new(MockFetcher)
	fetcher.expect(http.MethodHead, loc, http.StatusNotFound)
	fetcher.expectErr(http.MethodGet, loc, boom)

	problem, err := New(fetcher, Config{}, nil, nil, nil).Check(context.Background(), loc)
	require.NoError(t, err)
	require.NotNil(t, problem)
	assert.Equal(t, diag.KindProbeFailed, problem.Kind)
}

func TestProbeAbortOnError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	fetcher := new(MockFetcher)
	fetcher.expect(http.MethodHead, "http://a.example/", http.StatusInternalServerError)
	fetcher.expectErr(http.MethodHead, "http://b.example/", boom)

	problems, err := New(fetcher, Config{AbortOnError: true}, nil, nil, nil).
		Probe(context.Background(), []string{"http://a.example/", "http://b.example/", "http://c.example/"})

	var probeErr *diag.ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, "http://b.example/", probeErr.URL)
	assert.Equal(t, http.MethodHead, probeErr.Method)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []diag.Problem{diag.StatusCodeIssue(500, "http://a.example/")}, problems)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, diag.FetchRequest{Method: http.MethodHead, URL: "http://c.example/"})
}

func TestProbeSequentialOrderAndProgress(t *testing.T) {
	t.Parallel()

	locations := []string{"http://a.example/", "http://b.example/", "http://c.example/", "http://d.example/"}
	fetcher := new(MockFetcher)
	fetcher.expect(http.MethodHead, locations[0], http.StatusOK)
	fetcher.expect(http.MethodHead, locations[1], http.StatusNotFound)
	fetcher.expect(http.MethodGet, locations[1], http.StatusNotFound)
	fetcher.expect(http.MethodHead, locations[2], http.StatusNotFound)
	fetcher.expect(http.MethodGet, locations[2], http.StatusOK)
	fetcher.expect(http.MethodHead, locations[3], http.StatusInternalServerError)

	var progress bytes.Buffer
	observer := &recordingObserver{}
	problems, err := New(fetcher, Config{Workers: 1}, &progress, observer, nil).
		Probe(context.Background(), locations)
	require.NoError(t, err)

	assert.Equal(t, []diag.Problem{
		diag.StatusCodeIssue(404, locations[1]),
		diag.StatusCodeIssue(500, locations[3]),
	}, problems)
	assert.Equal(t, strings.Join(locations, "\n")+"\n", progress.String())
	assert.Equal(t, []string{"HEAD 200", "HEAD 404", "GET 404", "HEAD 404", "GET 200", "HEAD 500"}, observer.calls)
}

func TestProbeParallelPreservesOrder(t *testing.T) {
	t.Parallel()

	var locations []string
	fetcher := new(MockFetcher)
	for i := 0; i < 20; i++ {
		u := fmt.Sprintf("http://example.com/%02d", i)
		locations = append(locations, u)
		fetcher.expect(http.MethodHead, u, 500+i%3)
	}

	var progress bytes.Buffer
	problems, err := New(fetcher, Config{Workers: 8}, &progress, nil, nil).
		Probe(context.Background(), locations)
	require.NoError(t, err)
	require.Len(t, problems, len(locations))
	for i, p := range problems {
		assert.Equal(t, locations[i], p.URL)
		assert.Equal(t, 500+i%3, p.StatusCode)
	}
	assert.Len(t, strings.Split(strings.TrimSpace(progress.String()), "\n"), len(locations))
}

func TestProbeCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := new(MockFetcher)
	problems, err := New(fetcher, Config{}, nil, nil, nil).Probe(ctx, []string{loc})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, problems)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestProbeEmpty(t *testing.T) {
	t.Parallel()

	problems, err := New(new(MockFetcher), Config{}, nil, nil, nil).Probe(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, problems)
}
