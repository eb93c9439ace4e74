package middleware

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/MrEthical07/navGuard/authstore"
)

// NoticeCookie is the one-shot cookie telling the page to show the "session
// expired" message.
const NoticeCookie = "navguard_notice"

const noticeSessionExpired = "session_expired"

type flashContextKey struct{}

type flash struct {
	set atomic.Bool
}

func (f *flash) pending() bool {
	return f != nil && f.set.Load()
}

func withFlash(ctx context.Context) (context.Context, *flash) {
	f := &flash{}
	return context.WithValue(ctx, flashContextKey{}, f), f
}

// FlashNotifier is an authstore.Notifier that turns a session-expired notice
// raised during a guarded request into a [NoticeCookie] on that response.
// Notices raised outside a guarded request are passed to Fallback, if set.
type FlashNotifier struct {
	Fallback authstore.Notifier
}

func (n FlashNotifier) SessionExpired(ctx context.Context, notice authstore.Notice) {
	if f, ok := ctx.Value(flashContextKey{}).(*flash); ok && f != nil {
		f.set.Store(true)
		return
	}
	if n.Fallback != nil {
		n.Fallback.SessionExpired(ctx, notice)
	}
}

// ConsumeNotice reports whether r carries a pending session-expired notice and
// expires the cookie so the message shows once.
func ConsumeNotice(w http.ResponseWriter, r *http.Request) bool {
	c, err := r.Cookie(NoticeCookie)
	if err != nil || c.Value != noticeSessionExpired {
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:   NoticeCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return true
}

func setNoticeCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     NoticeCookie,
		Value:    noticeSessionExpired,
		Path:     "/",
		MaxAge:   60,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
