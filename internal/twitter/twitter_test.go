package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	identifierSubtask string
	setCSRF           bool
	timeline          string
	following         []string // JSON page bodies, served in order
	followingCalls    atomic.Int32
	mu                sync.Mutex
	friendships       []string
	rejectAll         atomic.Bool
}

func (p *fakePlatform) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/1.1/guest/activate.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-bearer", r.Header.Get("Authorization"))
		io.WriteString(w, `{"guest_token":"g-1"}`)
	})
	mux.HandleFunc("/1.1/onboarding/task.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "g-1", r.Header.Get("X-Guest-Token"))
		if r.URL.Query().Get("flow_name") == "login" {
			io.WriteString(w, `{"flow_token":"f-0","subtasks":[]}`)
			return
		}
		var body struct {
			FlowToken     string           `json:"flow_token"`
			SubtaskInputs []map[string]any `json:"subtask_inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if len(body.SubtaskInputs) == 0 {
			io.WriteString(w, `{"flow_token":"f-1","subtasks":[{"subtask_id":"LoginEnterUserIdentifierSSO"}]}`)
			return
		}
		switch body.SubtaskInputs[0]["subtask_id"] {
		case subtaskIdentifier:
			next := p.identifierSubtask
			if next == "" {
				next = subtaskPassword
			}
			io.WriteString(w, `{"flow_token":"f-2","subtasks":[{"subtask_id":"`+next+`"}]}`)
		case subtaskPassword:
			io.WriteString(w, `{"flow_token":"f-3","subtasks":[{"subtask_id":"AccountDuplicationCheck"}]}`)
		case subtaskDuplication:
			if p.setCSRF {
				http.SetCookie(w, &http.Cookie{Name: "ct0", Value: "csrf-abc", Path: "/"})
			}
			io.WriteString(w, `{"flow_token":"f-4","subtasks":[]}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/i/api/graphql/", func(w http.ResponseWriter, r *http.Request) {
		if p.rejectAll.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "csrf-abc", r.Header.Get("X-Csrf-Token"))
		switch {
		case strings.HasSuffix(r.URL.Path, "/UserByScreenName"):
			io.WriteString(w, `{"data":{"user":{"result":{"rest_id":"777"}}}}`)
		case strings.HasSuffix(r.URL.Path, "/Following"):
			n := int(p.followingCalls.Add(1)) - 1
			if n >= len(p.following) {
				io.WriteString(w, `{"data":{}}`)
				return
			}
			io.WriteString(w, p.following[n])
		case strings.HasSuffix(r.URL.Path, "/HomeLatestTimeline"):
			assert.Equal(t, http.MethodPost, r.Method)
			io.WriteString(w, p.timeline)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("/i/api/1.1/friendships/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		p.mu.Lock()
		defer p.mu.Unlock()
		p.friendships = append(p.friendships, strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/i/api/1.1/friendships/"), ".json")+":"+r.PostForm.Get("user_id"))
		io.WriteString(w, `{}`)
	})
	return mux
}

func newTestClient(t *testing.T, p *fakePlatform) *Client {
	t.Helper()
	srv := httptest.NewServer(p.handler(t))
	t.Cleanup(srv.Close)
	client, err := NewClient(Options{APIBase: srv.URL, WebBase: srv.URL, Bearer: "test-bearer", Log: zerolog.Nop()})
	require.NoError(t, err)
	return client
}

func login(t *testing.T, p *fakePlatform) *Session {
	t.Helper()
	p.setCSRF = true
	session, err := newTestClient(t, p).Login(context.Background(), Credentials{Username: "op", Password: "pw"})
	require.NoError(t, err)
	return session
}

func TestLoginReachesAuthenticated(t *testing.T) {
	session := login(t, &fakePlatform{})
	assert.Equal(t, "csrf-abc", session.CSRFToken())
	assert.True(t, session.Valid())
}

func TestLoginAlternateIdentifierIsUnsupported(t *testing.T) {
	p := &fakePlatform{identifierSubtask: subtaskAltIdentifier, setCSRF: true}
	_, err := newTestClient(t, p).Login(context.Background(), Credentials{Username: "op", Password: "pw"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedChallenge)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, UnsupportedChallenge, authErr.State)
}

func TestLoginWithoutCSRFCookieFails(t *testing.T) {
	p := &fakePlatform{}
	_, err := newTestClient(t, p).Login(context.Background(), Credentials{Username: "op", Password: "pw"})
	assert.ErrorIs(t, err, ErrMissingCSRF)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, PasswordSubmitted, authErr.State)
}

func TestLoginStateTerminal(t *testing.T) {
	assert.True(t, Authenticated.Terminal())
	assert.True(t, UnsupportedChallenge.Terminal())
	assert.False(t, FlowInitiated.Terminal())
	assert.Equal(t, "identifier_submitted", IdentifierSubmitted.String())
}

func TestUserID(t *testing.T) {
	session := login(t, &fakePlatform{})
	id, err := session.UserID(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "777", id)
}

func TestFollowingPaginates(t *testing.T) {
	page := func(ids []string, cursor string) string {
		var entries []string
		for _, id := range ids {
			entries = append(entries, `{"entryId":"user-`+id+`","content":{"itemContent":{"user_results":{"result":{"rest_id":"`+id+`"}}}}}`)
		}
		entries = append(entries, `{"entryId":"cursor-bottom-x","content":{"cursorType":"Bottom","value":"`+cursor+`"}}`)
		return `{"data":{"user":{"result":{"timeline":{"timeline":{"instructions":[{"type":"TimelineAddEntries","entries":[` + strings.Join(entries, ",") + `]}]}}}}}}`
	}
	p := &fakePlatform{following: []string{
		page([]string{"1", "2"}, "c1"),
		page([]string{"3"}, "c2"),
		page(nil, "c3"),
	}}
	session := login(t, p)

	ids, err := session.Following(context.Background(), "777")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.EqualValues(t, 3, p.followingCalls.Load())
}

func TestFollowAndUnfollow(t *testing.T) {
	p := &fakePlatform{}
	session := login(t, p)
	require.NoError(t, session.Follow(context.Background(), "10"))
	require.NoError(t, session.Unfollow(context.Background(), "11"))
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, []string{"create:10", "destroy:11"}, p.friendships)
}

func TestLatestTimelineParsesEntries(t *testing.T) {
	p := &fakePlatform{timeline: `{"data":{"home":{"home_timeline_urt":{"instructions":[{"type":"TimelineAddEntries","entries":[
		{"entryId":"tweet-1","content":{"itemContent":{"tweet_results":{"result":{"__typename":"Tweet","legacy":{"user_id_str":"A","id_str":"1","full_text":"hello"}}}}}},
		{"entryId":"home-conversation-9","content":{"items":[
			{"item":{"itemContent":{"tweet_results":{"result":{"__typename":"TweetWithVisibilityResults","tweet":{"legacy":{"user_id_str":"B","id_str":"2","full_text":"nested"}}}}}}}
		]}},
		{"entryId":"promoted-tweet-3","content":{"itemContent":{"tweet_results":{"result":{"legacy":{"user_id_str":"C","id_str":"3","full_text":"ad"}}}}}},
		{"entryId":"cursor-top-1","content":{"value":"x"}}
	]}]}}}}`}
	session := login(t, p)

	posts, err := session.LatestTimeline(context.Background(), 20, []string{"0"})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "A", posts[0].AccountID)
	assert.Equal(t, "1", posts[0].PostID)
	assert.Equal(t, "hello", posts[0].Text)
	assert.Equal(t, "B", posts[1].AccountID)
	assert.Equal(t, "nested", posts[1].Text)
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	p := &fakePlatform{timeline: `{}`}
	session := login(t, p)
	p.rejectAll.Store(true)

	_, err := session.LatestTimeline(context.Background(), 20, nil)
	assert.ErrorIs(t, err, ErrSessionInvalid)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)
	assert.False(t, session.Valid())

	p.rejectAll.Store(false)
	_, err = session.UserID(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrSessionInvalid)
}
