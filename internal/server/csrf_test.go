package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/gomega"
)

func TestConsumeStateCookie(t *testing.T) {
	tests := []struct {
		name          string
		cookieState   string
		setCookie     bool
		callbackState string
		expectedErr   error
	}{
		{
			name:          "valid state",
			setCookie:     true,
			cookieState:   "state-1",
			callbackState: "state-1",
		},
		{
			name:          "no cookie",
			callbackState: "state-1",
			expectedErr:   errStateCookieMissing,
		},
		{
			name:          "empty cookie",
			setCookie:     true,
			callbackState: "state-1",
			expectedErr:   errStateCookieMissing,
		},
		{
			name:        "no state on callback",
			setCookie:   true,
			cookieState: "state-1",
			expectedErr: errStateQueryMissing,
		},
		{
			name:          "different state on callback",
			setCookie:     true,
			cookieState:   "state-1",
			callbackState: "state-2",
			expectedErr:   errStateMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			req := httptest.NewRequest(http.MethodGet, callbackPath(testProvider), nil)
			if tt.setCookie {
				req.AddCookie(&http.Cookie{Name: stateCookieName, Value: tt.cookieState})
			}
			rec := httptest.NewRecorder()

			state, err := consumeStateCookie(rec, req, testProvider, tt.callbackState)

			if tt.expectedErr != nil {
				g.Expect(err).To(MatchError(tt.expectedErr))
				g.Expect(state).To(BeEmpty())
			} else {
				g.Expect(err).ToNot(HaveOccurred())
				g.Expect(state).To(Equal(tt.cookieState))
			}

			if tt.setCookie && tt.cookieState != "" {
				cookies := rec.Result().Cookies()
				g.Expect(cookies).To(HaveLen(1))
				g.Expect(cookies[0].Name).To(Equal(stateCookieName))
				g.Expect(cookies[0].Path).To(Equal(callbackPath(testProvider)))
				g.Expect(cookies[0].MaxAge).To(BeNumerically("<", 0))
			}
		})
	}
}

func TestSetStateCookie(t *testing.T) {
	g := NewWithT(t)

	rec := httptest.NewRecorder()
	setStateCookie(rec, testProvider, "state-1")

	cookies := rec.Result().Cookies()
	g.Expect(cookies).To(HaveLen(1))
	c := cookies[0]
	g.Expect(c.Name).To(Equal(stateCookieName))
	g.Expect(c.Value).To(Equal("state-1"))
	g.Expect(c.Path).To(Equal("/callback/" + testProvider))
	g.Expect(c.HttpOnly).To(BeTrue())
	g.Expect(c.Secure).To(BeTrue())
	g.Expect(c.SameSite).To(Equal(http.SameSiteLaxMode))
	g.Expect(c.MaxAge).To(Equal(600))
}
