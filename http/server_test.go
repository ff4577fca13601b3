package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quantonganh/newsletter"
	"github.com/quantonganh/newsletter/inmem"
	"github.com/quantonganh/newsletter/mock"
)

const testSecret = "da02e221bc331c9875c5e1299fa8d765"

var notFound = &newsletter.Error{Code: newsletter.ErrNotFound, Message: "subscriber not found"}

type testServer struct {
	*Server
	subscribers *mock.SubscriberService
	mail        *mock.MailService
	pending     *inmem.PendingStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s, err := NewServer()
	require.NoError(t, err)

	ts := &testServer{
		Server:      s,
		subscribers: new(mock.SubscriberService),
		mail:        new(mock.MailService),
		pending:     inmem.NewPendingStore(),
	}
	s.Secret = testSecret
	s.SubscriberService = ts.subscribers
	s.MailService = ts.mail
	s.PendingStore = ts.pending

	codes := []string{"123456", "654321", "111111"}
	s.GenerateOTP = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	return ts
}

func (ts *testServer) post(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name && c.MaxAge >= 0 {
			return c
		}
	}
	return nil
}

// flash decodes the flash cookie set by w
func (ts *testServer) flash(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	c := cookie(w, flashCookie)
	require.NotNil(t, c, "no flash cookie")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	return ts.popFlash(httptest.NewRecorder(), req)
}

func signupForm(name, email, password string) url.Values {
	return url.Values{"name": {name}, "email": {email}, "password": {password}}
}

func TestStaticPages(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/", "/signup", "/about", "/faqs", "/logout"} {
		w := ts.get(path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "<nav>", path)
	}

	w := ts.get("/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFlashIsShownOnce(t *testing.T) {
	ts := newTestServer(t)
	ts.subscribers.On("FindByEmail", "a@x.com").Return(nil, notFound)

	w := ts.post("/unsubscribe", url.Values{"email": {"a@x.com"}, "password": {"pw"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	page := ts.get("/", cookie(w, flashCookie))
	assert.Contains(t, page.Body.String(), "why not try subscribing")

	cleared := false
	for _, c := range page.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestTamperedFlashIsIgnored(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/", &http.Cookie{Name: flashCookie, Value: "aGVsbG8.bogus"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "hello")
}

func TestSubscribeHandler(t *testing.T) {
	ts := newTestServer(t)
	email := "a@x.com"

	ts.subscribers.On("FindByEmail", email).Return(nil, notFound)
	ts.mail.On("SendOTP", email, "123456").Return(nil)

	w := ts.post("/subscribe", signupForm("Alice", email, "secret"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), otpSentMessage)
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`value="%s"`, email))

	ts.mail.AssertNumberOfCalls(t, "SendOTP", 1)
	assert.Equal(t, 1, ts.pending.Len())

	token := cookie(w, tokenCookie)
	require.NotNil(t, token)
	assert.True(t, token.HttpOnly)
	pending, err := ts.pending.Get(context.Background(), token.Value)
	require.NoError(t, err)
	assert.Equal(t, "Alice", pending.Name)
	assert.Equal(t, email, pending.Email)
	assert.Equal(t, "secret", pending.Password)
	assert.Equal(t, "123456", pending.OTP)
}

func TestSubscribeSendsSixDigitCode(t *testing.T) {
	ts := newTestServer(t)
	ts.GenerateOTP = newsletter.GenerateOTP
	sixDigits := regexp.MustCompile(`^[1-9][0-9]{5}$`)

	ts.subscribers.On("FindByEmail", "a@x.com").Return(nil, notFound)
	ts.mail.On("SendOTP", "a@x.com", testifymock.MatchedBy(func(otp string) bool {
		return sixDigits.MatchString(otp)
	})).Return(nil)

	w := ts.post("/subscribe", signupForm("Alice", "a@x.com", "secret"))
	require.Equal(t, http.StatusOK, w.Code)
	ts.mail.AssertExpectations(t)
}

func TestSubscribeExistingEmail(t *testing.T) {
	ts := newTestServer(t)
	email := "a@x.com"

	ts.subscribers.On("FindByEmail", email).Return(&newsletter.Subscriber{Name: "Alice", Email: email}, nil)

	w := ts.post("/subscribe", signupForm("Alice", email, "secret"))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, alreadySubscribedMessage, ts.flash(t, w))

	ts.mail.AssertNotCalled(t, "SendOTP", testifymock.Anything, testifymock.Anything)
	assert.Equal(t, 0, ts.pending.Len())
	assert.Nil(t, cookie(w, tokenCookie))
}

func TestSubscribeMailFailure(t *testing.T) {
	ts := newTestServer(t)
	email := "a@x.com"

	ts.subscribers.On("FindByEmail", email).Return(nil, notFound)
	ts.mail.On("SendOTP", email, "123456").Return(errors.New("535 authentication failed"))

	w := ts.post("/subscribe", signupForm("Alice", email, "secret"))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/signup", w.Header().Get("Location"))
	assert.Equal(t, sendOTPErrorMessage, ts.flash(t, w))
	assert.Equal(t, 0, ts.pending.Len())
	assert.Nil(t, cookie(w, tokenCookie))
}

func TestSubscribeInvalidForm(t *testing.T) {
	ts := newTestServer(t)

	for _, form := range []url.Values{
		signupForm("", "a@x.com", "secret"),
		signupForm("Alice", "", "secret"),
		signupForm("Alice", "not-an-email", "secret"),
		signupForm("Alice", "a@x.com", ""),
	} {
		w := ts.post("/subscribe", form)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/signup", w.Header().Get("Location"))
		assert.Equal(t, invalidSignupMessage, ts.flash(t, w))
	}

	ts.subscribers.AssertNotCalled(t, "FindByEmail", testifymock.Anything)
}

func TestSubscribeStorageFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.subscribers.On("FindByEmail", "a@x.com").Return(nil, errors.New("connection refused"))

	w := ts.post("/subscribe", signupForm("Alice", "a@x.com", "secret"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	ts.mail.AssertNotCalled(t, "SendOTP", testifymock.Anything, testifymock.Anything)
}

func TestVerifyHandler(t *testing.T) {
	ts := newTestServer(t)
	email := "a@x.com"

	ts.subscribers.On("FindByEmail", email).Return(nil, notFound)
	ts.mail.On("SendOTP", email, "123456").Return(nil)
	ts.subscribers.On("Insert", &newsletter.Subscriber{Name: "Alice", Email: email, OTP: "123456", Password: "secret"}).Return(nil)

	w := ts.post("/subscribe", signupForm("Alice", email, "secret"))
	require.Equal(t, http.StatusOK, w.Code)
	token := cookie(w, tokenCookie)
	require.NotNil(t, token)

	w = ts.post("/verify", url.Values{"email": {email}, "otp": {"123456"}}, token)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, thankyouMessage, ts.flash(t, w))

	ts.subscribers.AssertNumberOfCalls(t, "Insert", 1)
	assert.Equal(t, 0, ts.pending.Len())
	assert.Nil(t, cookie(w, tokenCookie))
}

func TestVerifyUsesPendingEmail(t *testing.T) {
	ts := newTestServer(t)

	ts.subscribers.On("FindByEmail", "a@x.com").Return(nil, notFound)
	ts.mail.On("SendOTP", "a@x.com", "123456").Return(nil)
	ts.subscribers.On("Insert", &newsletter.Subscriber{Name: "Alice", Email: "a@x.com", OTP: "123456", Password: "secret"}).Return(nil)

	w := ts.post("/subscribe", signupForm("Alice", "a@x.com", "secret"))
	token := cookie(w, tokenCookie)
	require.NotNil(t, token)

	w = ts.post("/verify", url.Values{"email": {"b@x.com"}, "otp": {"123456"}}, token)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	ts.subscribers.AssertExpectations(t)
}

func TestVerifyIgnoresMalformedEmail(t *testing.T) {
	ts := newTestServer(t)

	ts.subscribers.On("FindByEmail", "a@x.com").Return(nil, notFound)
	ts.mail.On("SendOTP", "a@x.com", "123456").Return(nil)
	ts.subscribers.On("Insert", &newsletter.Subscriber{Name: "Alice", Email: "a@x.com", OTP: "123456", Password: "secret"}).Return(nil)

	w := ts.post("/subscribe", signupForm("Alice", "a@x.com", "secret"))
	token := cookie(w, tokenCookie)
	require.NotNil(t, token)

	w = ts.post("/verify", url.Values{"email": {"not-an-email"}, "otp": {"123456"}}, token)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, thankyouMessage, ts.flash(t, w))
	ts.subscribers.AssertExpectations(t)
}

func TestVerifyIncorrectOTP(t *testing.T) {
	ts := newTestServer(t)
	email := "a@x.com"

	ts.subscribers.On("FindByEmail", email).Return(nil, notFound)
	ts.mail.On("SendOTP", email, "123456").Return(nil)
	ts.subscribers.On("Insert", testifymock.Anything).Return(nil)

	w := ts.post("/subscribe", signupForm("Alice", email, "secret"))
	token := cookie(w, tokenCookie)
	require.NotNil(t, token)

	w = ts.post("/verify", url.Values{"email": {email}, "otp": {"000000"}}, token)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/signup", w.Header().Get("Location"))
	assert.Equal(t, incorrectOTPMessage, ts.flash(t, w))
	ts.subscribers.AssertNotCalled(t, "Insert", testifymock.Anything)
	assert.Equal(t, 1, ts.pending.Len())

	// the pending signup survives, so the right code still works
	w = ts.post("/verify", url.Values{"email": {email}, "otp": {"123456"}}, token)
	assert.Equal(t, thankyouMessage, ts.flash(t, w))
	ts.subscribers.AssertNumberOfCalls(t, "Insert", 1)
}

func TestVerifyMissingOTP(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post("/verify", url.Values{"email": {"a@x.com"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/signup", w.Header().Get("Location"))
	assert.Equal(t, invalidDataMessage, ts.flash(t, w))
}

func TestVerifyWithoutPendingSignup(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post("/verify", url.Values{"email": {"a@x.com"}, "otp": {"123456"}})
	assert.Equal(t, "/signup", w.Header().Get("Location"))
	assert.Equal(t, incorrectOTPMessage, ts.flash(t, w))

	w = ts.post("/verify", url.Values{"email": {"a@x.com"}, "otp": {"123456"}}, &http.Cookie{Name: tokenCookie, Value: "unknown"})
	assert.Equal(t, "/signup", w.Header().Get("Location"))
	assert.Equal(t, incorrectOTPMessage, ts.flash(t, w))
	ts.subscribers.AssertNotCalled(t, "Insert", testifymock.Anything)
}

func TestSignupTwiceReplacesPendingCode(t *testing.T) {
	ts := newTestServer(t)
	email := "a@x.com"

	ts.subscribers.On("FindByEmail", email).Return(nil, notFound)
	ts.mail.On("SendOTP", email, "123456").Return(nil)
	ts.mail.On("SendOTP", email, "654321").Return(nil)
	ts.subscribers.On("Insert", &newsletter.Subscriber{Name: "Alice", Email: email, OTP: "654321", Password: "secret2"}).Return(nil)

	w := ts.post("/subscribe", signupForm("Alice", email, "secret"))
	first := cookie(w, tokenCookie)
	require.NotNil(t, first)

	w = ts.post("/subscribe", signupForm("Alice", email, "secret2"), first)
	second := cookie(w, tokenCookie)
	require.NotNil(t, second)
	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, 1, ts.pending.Len())

	w = ts.post("/verify", url.Values{"email": {email}, "otp": {"123456"}}, second)
	assert.Equal(t, incorrectOTPMessage, ts.flash(t, w))

	w = ts.post("/verify", url.Values{"email": {email}, "otp": {"123456"}}, first)
	assert.Equal(t, incorrectOTPMessage, ts.flash(t, w))

	w = ts.post("/verify", url.Values{"email": {email}, "otp": {"654321"}}, second)
	assert.Equal(t, thankyouMessage, ts.flash(t, w))
	ts.subscribers.AssertExpectations(t)
}

func TestVerifyConflict(t *testing.T) {
	ts := newTestServer(t)
	email := "a@x.com"

	ts.subscribers.On("FindByEmail", email).Return(nil, notFound)
	ts.mail.On("SendOTP", email, "123456").Return(nil)
	ts.subscribers.On("Insert", testifymock.Anything).Return(&newsletter.Error{Code: newsletter.ErrConflict})

	w := ts.post("/subscribe", signupForm("Alice", email, "secret"))
	token := cookie(w, tokenCookie)

	w = ts.post("/verify", url.Values{"email": {email}, "otp": {"123456"}}, token)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, alreadySubscribedMessage, ts.flash(t, w))
	assert.Equal(t, 0, ts.pending.Len())
}

func TestUnsubscribeHandler(t *testing.T) {
	ts := newTestServer(t)
	email := "a@x.com"

	ts.subscribers.On("FindByEmail", email).Return(&newsletter.Subscriber{Name: "Alice", Email: email, OTP: "123456", Password: "secret"}, nil)
	ts.subscribers.On("Delete", email).Return(nil)

	w := ts.post("/unsubscribe", url.Values{"email": {email}, "password": {"secret"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, unsubscribeMessage, ts.flash(t, w))
	ts.subscribers.AssertNumberOfCalls(t, "Delete", 1)
}

func TestUnsubscribeWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	email := "a@x.com"

	ts.subscribers.On("FindByEmail", email).Return(&newsletter.Subscriber{Name: "Alice", Email: email, Password: "secret"}, nil)

	for _, password := range []string{"Secret", "secret ", "secre"} {
		w := ts.post("/unsubscribe", url.Values{"email": {email}, "password": {password}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/logout", w.Header().Get("Location"))
		assert.Equal(t, wrongPasswordMessage, ts.flash(t, w))
	}
	ts.subscribers.AssertNotCalled(t, "Delete", testifymock.Anything)
}

func TestUnsubscribeUnknownEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.subscribers.On("FindByEmail", "a@x.com").Return(nil, notFound)

	w := ts.post("/unsubscribe", url.Values{"email": {"a@x.com"}, "password": {"secret"}})
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, noAccountMessage, ts.flash(t, w))
	ts.subscribers.AssertNotCalled(t, "Delete", testifymock.Anything)
}

func TestUnsubscribeInvalidForm(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post("/unsubscribe", url.Values{"email": {"a@x.com"}})
	assert.Equal(t, "/logout", w.Header().Get("Location"))
	assert.Equal(t, invalidUnsubscribeMessage, ts.flash(t, w))
	ts.subscribers.AssertNotCalled(t, "FindByEmail", testifymock.Anything)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/subscribe")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestErrorStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ErrorStatusCode(newsletter.ErrInvalid))
	assert.Equal(t, http.StatusNotFound, ErrorStatusCode(newsletter.ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, ErrorStatusCode("unknown"))
}

func TestOpenClose(t *testing.T) {
	s, err := NewServer()
	require.NoError(t, err)
	s.Addr = "127.0.0.1:0"

	require.NoError(t, s.Open())
	defer func() {
		assert.NoError(t, s.Close())
	}()

	assert.NotZero(t, s.Port())
	assert.Equal(t, "http://localhost", s.URL())

	res, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", s.Port()))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	s.Domain = "newsletter.example.com"
	assert.Equal(t, "https", s.Scheme())
}
