package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/layer-3/learnchain/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL, HTTPClient: srv.Client()}
	for _, o := range opts {
		o(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"uName": "alice", "pass": "secret"}, body)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"token":"tok","uName":"alice","name":"Alice","walletAddress":"0xabc","uuid":"u-1"}`)
	})

	s, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, &core.Session{Token: "tok", UserName: "alice", Name: "Alice", WalletAddress: "0xabc", UserID: "u-1"}, s)
}

func TestLoginInvalidCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"wrong password"}`, http.StatusUnauthorized)
	})

	_, err := c.Login(context.Background(), "alice", "nope")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func TestLoginEmptyToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"uName":"alice"}`)
	})

	_, err := c.Login(context.Background(), "alice", "secret")
	assert.ErrorIs(t, err, core.ErrBackend)
}

func TestSignup(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"uName": "alice", "name": "Alice", "pass": "secret", "walletAddress": "0xabc"}, body)
		w.WriteHeader(http.StatusCreated)
	})

	err := c.Signup(context.Background(), core.SignupRequest{Username: "alice", Name: "Alice", Password: "secret", WalletAddress: "0xabc"})
	require.NoError(t, err)
}

func TestSignupConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "exists", http.StatusConflict)
	})

	err := c.Signup(context.Background(), core.SignupRequest{Username: "alice"})
	assert.ErrorIs(t, err, core.ErrBackend)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Status)
	assert.Equal(t, "exists", se.Body)
}

func TestListCoursesDecodesWireFormat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/content", r.URL.Path)
		io.WriteString(w, `[
			{"id":7,"uuid":"c-1","title":"Solidity","description":"d","author":"bob","price":0.05},
			{"id":"abc","uuid":"c-2","title":"Go","description":"d","author":"eve","price":"1.25","cids":["bafy1"]}
		]`)
	})

	courses, err := c.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)

	assert.Equal(t, "7", courses[0].ID)
	assert.True(t, decimal.RequireFromString("0.05").Equal(courses[0].Price))
	assert.Equal(t, "abc", courses[1].ID)
	assert.True(t, decimal.RequireFromString("1.25").Equal(courses[1].Price))
	assert.Equal(t, []string{"bafy1"}, courses[1].ContentIDs)
}

func TestListCoursesCachedWhenAllowed(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=60")
		io.WriteString(w, `[]`)
	}, func(cfg *Config) { cfg.CacheCatalog = true })

	for range 3 {
		_, err := c.ListCourses(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestGetCourseSendsBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/content/c-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		io.WriteString(w, `{"title":"Solidity","price":"2","cids":["bafy1","bafy2"]}`)
	})

	course, err := c.GetCourse(context.Background(), "c-1", "tok")
	require.NoError(t, err)
	assert.Equal(t, "c-1", course.UUID, "uuid falls back to the requested one")
	assert.Equal(t, []string{"bafy1", "bafy2"}, course.ContentIDs)
}

func TestGetCourseStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, core.ErrNotFound},
		{http.StatusUnauthorized, core.ErrUnauthenticated},
		{http.StatusInternalServerError, core.ErrBackend},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := c.GetCourse(context.Background(), "c-1", "tok")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetCourseRejectsTraversal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.GetCourse(context.Background(), "..", "tok")
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestGetCourseEscapesUUID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/content/a%2Fb", r.URL.RawPath)
		io.WriteString(w, `{}`)
	})

	_, err := c.GetCourse(context.Background(), "a/b", "tok")
	require.NoError(t, err)
}

func TestGetRetriesServerErrorsWhenEnabled(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"uuid":"c-1"}`)
	}, func(cfg *Config) { cfg.MaxTries = 3 })

	_, err := c.GetCourse(context.Background(), "c-1", "tok")
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestGetDoesNotRetryByDefault(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.GetCourse(context.Background(), "c-1", "tok")
	assert.ErrorIs(t, err, core.ErrBackend)
	assert.Equal(t, int32(1), hits.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}, func(cfg *Config) { cfg.MaxTries = 5 })

	_, err := c.GetCourse(context.Background(), "c-1", "tok")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, int32(1), hits.Load())
}

func TestBuyCourse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/content/buy/c-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"signature": "0xsig", "message": "msg"}, body)
	})

	err := c.BuyCourse(context.Background(), "c-1", "tok", &core.PurchaseProof{Signature: "0xsig", Message: "msg"})
	require.NoError(t, err)
}

func TestBuyCourseWithoutProofSendsEmptyObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{}`, string(raw))
	})

	require.NoError(t, c.BuyCourse(context.Background(), "c-1", "tok", nil))
}

func TestBuyCourseStatusMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.BuyCourse(context.Background(), "missing", "tok", nil)
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = c.BuyCourse(context.Background(), "c-1", "tok", nil)
	assert.ErrorIs(t, err, core.ErrBackend)
}

func TestListOwnedTokens(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tokens", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0xsig", body["signature"])
		io.WriteString(w, `[{"courseUUID":"c-1","tokenId":1},{"courseUUID":""},{"courseUUID":"c-2"}]`)
	})

	tokens, err := c.ListOwnedTokens(context.Background(), "0xsig", "tok")
	require.NoError(t, err)
	assert.Equal(t, []core.OwnershipToken{
		{CourseUUID: "c-1", Signature: "0xsig"},
		{CourseUUID: "c-2", Signature: "0xsig"},
	}, tokens)
}

func TestCreateCourseMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/content", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Solidity", r.FormValue("title"))
		assert.Equal(t, "0.5", r.FormValue("price"))
		assert.Equal(t, "learn it", r.FormValue("description"))

		files := r.MultipartForm.File["material"]
		require.Len(t, files, 2)
		assert.Equal(t, "one.pdf", files[0].Filename)
		f, err := files[1].Open()
		require.NoError(t, err)
		raw, _ := io.ReadAll(f)
		assert.Equal(t, "second", string(raw))

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"courseUUID":"c-9"}`)
	})

	id, err := c.CreateCourse(context.Background(), core.CourseDraft{
		Title:       "Solidity",
		Price:       decimal.RequireFromString("0.5"),
		Description: "learn it",
		Materials: []core.Material{
			{Name: "one.pdf", Body: strings.NewReader("first")},
			{Name: "two.pdf", Body: strings.NewReader("second")},
		},
	}, "tok")
	require.NoError(t, err)
	assert.Equal(t, "c-9", id)
}

func TestCanceledContextStopsRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListCourses(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"})
	assert.Error(t, err)
}
