package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"learnerslogue/database"
	"learnerslogue/handlers"
	"learnerslogue/mailer"
	"learnerslogue/meeting"
	"learnerslogue/middleware"
	"learnerslogue/push"
	"learnerslogue/routes"
	"learnerslogue/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMeetings struct{}

func (stubMeetings) CreateMeeting(_ context.Context, req meeting.Request) (*meeting.Meeting, error) {
	return &meeting.Meeting{ID: 1, JoinURL: "https://zoom.example/j/1", StartURL: "https://zoom.example/s/1"}, nil
}

type api struct {
	t      *testing.T
	router *gin.Engine
	stores *database.Stores
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stores := database.NewMemoryStores()
	svc := services.New(services.Deps{
		Stores:   stores,
		Mailer:   mailer.NewConsole(nil),
		Meetings: stubMeetings{},
	})
	auth := middleware.NewAuthenticator("test-secret", time.Hour, stores.Users)
	pushSvc := push.NewService(stores.PushSubs, push.Keys{Public: "test-public", Private: "test-private", Subject: "mailto:ops@example.com"})
	h := handlers.New(svc, auth, pushSvc)

	return &api{
		t:      t,
		stores: stores,
		router: routes.SetupRouter(h, routes.Options{
			Auth:       auth,
			OTPLimiter: middleware.NewIPRateLimiter(100, time.Minute),
		}),
	}
}

func (a *api) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func (a *api) list(path, token string) []map[string]interface{} {
	a.t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())

	var out []map[string]interface{}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// signup registers an account and returns its token and id.
func (a *api) signup(role, email string) (string, string) {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/user/register", "", map[string]string{
		"role": role, "email": email, "password": "secret1", "fullName": email,
	})
	require.Equal(a.t, http.StatusCreated, code, body)
	user := body["user"].(map[string]interface{})
	return body["token"].(string), user["id"].(string)
}

func TestRegisterLoginAndMe(t *testing.T) {
	a := newAPI(t)
	token, id := a.signup("student", "ada@example.com")
	assert.NotEmpty(t, token)

	code, body := a.do(http.MethodPost, "/user/login", "", map[string]string{"emailOrPhone": "ada@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, code, body)
	assert.NotEmpty(t, body["token"])

	code, body = a.do(http.MethodPost, "/user/login", "", map[string]string{"email": "ada@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])

	code, body = a.do(http.MethodGet, "/user/me", token, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, id, body["id"])
	assert.NotContains(t, body, "passwordHash")
}

func TestRegisterRejectsBadInput(t *testing.T) {
	a := newAPI(t)

	code, body := a.do(http.MethodPost, "/user/register", "", map[string]string{"role": "admin", "email": "a@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION", body["code"])

	a.signup("student", "a@example.com")
	code, body = a.do(http.MethodPost, "/user/register", "", map[string]string{"role": "student", "email": "a@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "USER_EXISTS", body["code"])
}

func TestPasswordResetFlow(t *testing.T) {
	a := newAPI(t)
	a.signup("student", "ada@example.com")

	code, body := a.do(http.MethodPost, "/user/send-otp", "", map[string]string{"email": "ada@example.com"})
	require.Equal(t, http.StatusOK, code, body)
	otp, err := a.stores.OTPs.Get(context.Background(), "ada@example.com")
	require.NoError(t, err)

	code, body = a.do(http.MethodPost, "/user/verify-otp", "", map[string]string{"email": "ada@example.com", "otp": otp.Code})
	require.Equal(t, http.StatusOK, code, body)

	code, body = a.do(http.MethodPost, "/user/reset-password", "", map[string]string{
		"email": "ada@example.com", "otp": otp.Code, "newPassword": "brandnew",
	})
	require.Equal(t, http.StatusOK, code, body)

	code, _ = a.do(http.MethodPost, "/user/login", "", map[string]string{"email": "ada@example.com", "password": "brandnew"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodPost, "/user/login", "", map[string]string{"email": "ada@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = a.do(http.MethodPost, "/user/reset-password", "", map[string]string{
		"email": "ada@example.com", "otp": otp.Code, "newPassword": "another1",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "OTP_NOT_FOUND", body["code"])
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	a := newAPI(t)

	code, body := a.do(http.MethodGet, "/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	code, _ = a.do(http.MethodPost, "/posts/create", "not-a-jwt", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestFollowOverHTTP(t *testing.T) {
	a := newAPI(t)
	tokenA, _ := a.signup("student", "a@example.com")
	_, idB := a.signup("student", "b@example.com")

	code, body := a.do(http.MethodPost, "/user/follow/"+idB, tokenA, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, []interface{}{idB}, body["following"])

	code, body = a.do(http.MethodPost, "/user/follow/"+idB, tokenA, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_FOLLOWING", body["code"])

	code, _ = a.do(http.MethodPost, "/user/follow/not-an-id", tokenA, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = a.do(http.MethodGet, "/user/profile/"+idB, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["followers"], 1)

	code, body = a.do(http.MethodPost, "/user/unfollow/"+idB, tokenA, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Empty(t, body["following"])
}

func TestPollOverHTTP(t *testing.T) {
	a := newAPI(t)
	author, _ := a.signup("teacher", "t@example.com")
	voter, _ := a.signup("student", "s@example.com")

	code, body := a.do(http.MethodPost, "/posts/create", author, map[string]interface{}{
		"type": "poll", "title": "Colour?", "pollOptions": []string{"Red", "Green"},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = a.do(http.MethodPost, "/posts/create", author, map[string]interface{}{
		"type": "poll", "title": "Colour?", "pollOptions": []string{"Red", "Green", "Blue"},
	})
	require.Equal(t, http.StatusCreated, code, body)
	postID := body["post"].(map[string]interface{})["id"].(string)

	code, body = a.do(http.MethodPut, "/posts/poll/vote", voter, map[string]interface{}{"postId": postID, "optionIndex": 1})
	require.Equal(t, http.StatusOK, code, body)
	tally := body["pollResult"].([]interface{})
	require.Len(t, tally, 3)
	assert.EqualValues(t, 1, tally[1].(map[string]interface{})["voteCount"])

	code, body = a.do(http.MethodPut, "/posts/poll/vote", voter, map[string]interface{}{"postId": postID, "optionIndex": 0})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_VOTED", body["code"])

	code, body = a.do(http.MethodPut, "/posts/poll/vote", author, map[string]interface{}{"postId": postID, "optionIndex": 3})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_OPTION", body["code"])

	code, _ = a.do(http.MethodPut, "/posts/poll/vote", author, map[string]interface{}{"postId": postID})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = a.do(http.MethodGet, "/posts/"+postID+"/poll", voter, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["pollResult"], 3)
}

func TestExpiredPollIsGone(t *testing.T) {
	a := newAPI(t)
	author, _ := a.signup("teacher", "t@example.com")

	code, body := a.do(http.MethodPost, "/posts/create", author, map[string]interface{}{
		"type": "poll", "title": "Old", "pollOptions": []string{"a", "b", "c"}, "pollExpiresAt": "2020-01-01",
	})
	require.Equal(t, http.StatusCreated, code, body)
	postID := body["post"].(map[string]interface{})["id"].(string)

	code, body = a.do(http.MethodPut, "/posts/poll/vote", author, map[string]interface{}{"postId": postID, "optionIndex": 0})
	assert.Equal(t, http.StatusGone, code)
	assert.Equal(t, "POLL_EXPIRED", body["code"])
}

func TestFeedOverHTTP(t *testing.T) {
	a := newAPI(t)
	owner, _ := a.signup("student", "o@example.com")
	other, _ := a.signup("student", "x@example.com")

	code, body := a.do(http.MethodPost, "/posts/create", owner, map[string]interface{}{"title": "Hello", "tags": []string{"go"}})
	require.Equal(t, http.StatusCreated, code, body)
	postID := body["post"].(map[string]interface{})["id"].(string)
	_, _ = a.do(http.MethodPost, "/posts/create", owner, map[string]interface{}{"title": "Diary", "visibility": "private"})

	assert.Len(t, a.list("/posts/all", ""), 1)
	assert.Len(t, a.list("/posts/myPosts", owner), 2)

	code, body = a.do(http.MethodPut, "/posts/"+postID+"/like", other, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["liked"])

	code, body = a.do(http.MethodPost, "/posts/"+postID+"/comments", other, map[string]string{"text": "nice"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Len(t, a.list("/posts/"+postID+"/getComments", other), 1)

	code, _ = a.do(http.MethodDelete, "/posts/"+postID+"/delete", other, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = a.do(http.MethodDelete, "/posts/"+postID+"/delete", owner, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestEventsOverHTTP(t *testing.T) {
	a := newAPI(t)
	school, _ := a.signup("school", "school@example.com")
	student, _ := a.signup("student", "s@example.com")
	event := map[string]interface{}{"title": "Go 101", "type": "webinar", "date": "2026-06-10", "time": "10:00"}

	code, body := a.do(http.MethodPost, "/event/create", student, event)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", body["code"])

	code, body = a.do(http.MethodPost, "/event/create", school, event)
	require.Equal(t, http.StatusCreated, code, body)
	eventID := body["event"].(map[string]interface{})["id"].(string)

	code, body = a.do(http.MethodPost, "/event/register/"+eventID, student, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["registrationCount"])

	events := a.list("/event/getEvents", student)
	require.Len(t, events, 1)
	assert.NotContains(t, events[0], "videoCallStartLink")
	assert.Equal(t, true, events[0]["isRegistered"])

	code, body = a.do(http.MethodPost, "/event/register/"+eventID, student, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_REGISTERED", body["code"])
}

func TestJobsOverHTTP(t *testing.T) {
	a := newAPI(t)
	school, _ := a.signup("school", "school@example.com")

	code, body := a.do(http.MethodPost, "/job/create", school, map[string]interface{}{
		"title": "Intern", "company": "Acme", "description": "Go work",
	})
	require.Equal(t, http.StatusCreated, code, body)
	job := body["job"].(map[string]interface{})
	assert.Equal(t, "internship", job["type"])

	code, body = a.do(http.MethodGet, "/job/getJob/"+job["id"].(string), "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Acme", body["company"])
	assert.Len(t, a.list("/job/getAllJobs", ""), 1)
}

func TestPushEndpoints(t *testing.T) {
	a := newAPI(t)
	token, _ := a.signup("student", "s@example.com")

	code, body := a.do(http.MethodGet, "/push/vapid-public-key", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "test-public", body["publicKey"])

	code, body = a.do(http.MethodPost, "/push/subscribe", token, map[string]interface{}{
		"endpoint": "https://push.example/abc",
		"keys":     map[string]string{"p256dh": "key", "auth": "secret"},
	})
	require.Equal(t, http.StatusOK, code, body)

	code, _ = a.do(http.MethodPost, "/push/subscribe", token, map[string]interface{}{"endpoint": "not a url"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUnknownRoute(t *testing.T) {
	a := newAPI(t)
	code, body := a.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", body["code"])
}
