package sessions

import (
	"net/http"
	"time"
)

type CookieConfig struct {
	Name       string
	TTL        time.Duration
	Production bool
}

// Set writes the session cookie. Production cookies are Secure and
// SameSite=None so a separately hosted frontend can send them.
func (c CookieConfig) Set(w http.ResponseWriter, token string) {
	cookie := c.base()
	cookie.Value = token
	cookie.MaxAge = int(c.TTL.Seconds())
	cookie.Expires = time.Now().Add(c.TTL)
	http.SetCookie(w, cookie)
}

func (c CookieConfig) Clear(w http.ResponseWriter) {
	cookie := c.base()
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)
}

func (c CookieConfig) base() *http.Cookie {
	cookie := &http.Cookie{
		Name:     c.Name,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	if c.Production {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}
