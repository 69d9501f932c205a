package i18n

import (
	"net/http"
	"time"
)

const langCookie = "lang"

// Middleware picks the request language from the ?lang= parameter, the lang
// cookie, then Accept-Language, falling back to the default given to Init.
// An explicit ?lang= is remembered in the cookie.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookie string
			if c, err := r.Cookie(langCookie); err == nil {
				cookie = c.Value
			}
			q := r.URL.Query().Get("lang")
			lang := Match(q, cookie, r.Header.Get("Accept-Language"))
			if q != "" && q == lang {
				http.SetCookie(w, &http.Cookie{
					Name:     langCookie,
					Value:    lang,
					Path:     "/",
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := WithLocalizer(r.Context(), lang, NewLocalizer(lang))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
