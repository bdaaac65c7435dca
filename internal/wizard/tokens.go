package wizard

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
)

// TokenStore keeps small named values on the client between requests.
// ReadToken reports false for tokens that are missing, expired or tampered
// with.
type TokenStore interface {
	ReadToken(name string) (string, bool)
	WriteToken(name, value string, ttl time.Duration) error
	ClearToken(name string)
}

// CookieCodec signs and encrypts wizard cookies
type CookieCodec struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// NewCookieCodec creates a codec from the configured keys. Empty keys are
// replaced with random ones, which invalidates cookies on restart.
func NewCookieCodec(hashKey, blockKey string, ttl time.Duration, secure bool) *CookieCodec {
	hk := []byte(hashKey)
	if len(hk) == 0 {
		hk = securecookie.GenerateRandomKey(64)
	}
	var bk []byte
	if blockKey != "" {
		bk = []byte(blockKey)
	} else {
		bk = securecookie.GenerateRandomKey(32)
	}

	sc := securecookie.New(hk, bk)
	sc.MaxAge(int(ttl.Seconds()))
	return &CookieCodec{sc: sc, secure: secure}
}

// For binds the codec to one request and its response
func (c *CookieCodec) For(w http.ResponseWriter, r *http.Request) TokenStore {
	return &CookieTokens{codec: c, w: w, r: r}
}

// CookieTokens stores tokens as secure cookies
type CookieTokens struct {
	codec *CookieCodec
	w     http.ResponseWriter
	r     *http.Request
}

func (t *CookieTokens) ReadToken(name string) (string, bool) {
	cookie, err := t.r.Cookie(name)
	if err != nil {
		return "", false
	}
	var value string
	if err := t.codec.sc.Decode(name, cookie.Value, &value); err != nil {
		return "", false
	}
	return value, true
}

func (t *CookieTokens) WriteToken(name, value string, ttl time.Duration) error {
	encoded, err := t.codec.sc.Encode(name, value)
	if err != nil {
		return err
	}
	http.SetCookie(t.w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   t.codec.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (t *CookieTokens) ClearToken(name string) {
	if _, err := t.r.Cookie(name); err != nil {
		return
	}
	http.SetCookie(t.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.codec.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// MemoryTokens is an in-process TokenStore
type MemoryTokens struct {
	mu     sync.Mutex
	values map[string]memoryToken
	now    func() time.Time
}

type memoryToken struct {
	value   string
	expires time.Time
}

// NewMemoryTokens creates an empty store
func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{values: make(map[string]memoryToken), now: time.Now}
}

func (m *MemoryTokens) ReadToken(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.values[name]
	if !ok {
		return "", false
	}
	if !tok.expires.IsZero() && !m.now().Before(tok.expires) {
		delete(m.values, name)
		return "", false
	}
	return tok.value, true
}

func (m *MemoryTokens) WriteToken(name, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok := memoryToken{value: value}
	if ttl > 0 {
		tok.expires = m.now().Add(ttl)
	}
	m.values[name] = tok
	return nil
}

func (m *MemoryTokens) ClearToken(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
}
