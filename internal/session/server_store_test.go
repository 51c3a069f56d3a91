package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"modulys-admin/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerBackend_FreshBrowser(t *testing.T) {
	kv := testutil.NewMockKV()
	backend := NewServerBackend(kv, CookieOptions{})
	ctx := context.Background()
	w := httptest.NewRecorder()

	store := backend.For(w, httptest.NewRequest(http.MethodGet, "/", nil))

	_, ok, err := store.Get(ctx, CredentialKey)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.Delete(ctx, CredentialKey))

	assert.Empty(t, w.Result().Cookies(), "no browser id until something is written")
	assert.Empty(t, kv.DeleteCalls)
}

func TestServerBackend_IssuesBrowserIDOnWrite(t *testing.T) {
	kv := testutil.NewMockKV()
	backend := NewServerBackend(kv, CookieOptions{})
	ctx := context.Background()
	w := httptest.NewRecorder()

	store := backend.For(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, store.Set(ctx, CredentialKey, "tok-abc", Retention))
	require.NoError(t, store.Set(ctx, IdentityKey, "{}", Retention))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1, "browser id is issued once per request")
	c := cookies[0]
	assert.Equal(t, BrowserCookie, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, int(Retention.Seconds()), c.MaxAge)
	_, err := uuid.Parse(c.Value)
	require.NoError(t, err)

	v, ok := kv.Value("console:" + c.Value + ":" + CredentialKey)
	assert.True(t, ok)
	assert.Equal(t, "tok-abc", v)

	// After issuing, the same request reads its own writes.
	got, ok, err := store.Get(ctx, CredentialKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-abc", got)
}

func TestServerBackend_KnownBrowser(t *testing.T) {
	kv := testutil.NewMockKV()
	backend := NewServerBackend(kv, CookieOptions{})
	ctx := context.Background()
	id := uuid.NewString()
	kv.Put("console:"+id+":"+CredentialKey, "tok-abc")

	req := testutil.NewRequestWithCookie(t, http.MethodGet, "/dashboard", BrowserCookie, id)
	store := backend.For(httptest.NewRecorder(), req)

	got, ok, err := store.Get(ctx, CredentialKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-abc", got)

	require.NoError(t, store.Delete(ctx, CredentialKey))
	assert.False(t, kv.Has("console:"+id+":"+CredentialKey))
}

func TestServerBackend_InvalidBrowserIDIsReplaced(t *testing.T) {
	kv := testutil.NewMockKV()
	kv.Put("console:../../etc:"+CredentialKey, "tok-abc")
	backend := NewServerBackend(kv, CookieOptions{})

	req := testutil.NewRequestWithCookie(t, http.MethodGet, "/", BrowserCookie, "../../etc")
	_, ok, err := backend.For(httptest.NewRecorder(), req).Get(context.Background(), CredentialKey)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServerBackend_BrowsersAreIsolated(t *testing.T) {
	kv := testutil.NewMockKV()
	backend := NewServerBackend(kv, CookieOptions{})
	ctx := context.Background()

	a := testutil.NewRequestWithCookie(t, http.MethodGet, "/", BrowserCookie, uuid.NewString())
	b := testutil.NewRequestWithCookie(t, http.MethodGet, "/", BrowserCookie, uuid.NewString())

	require.NoError(t, backend.For(httptest.NewRecorder(), a).Set(ctx, CredentialKey, "tok-a", Retention))

	_, ok, err := backend.For(httptest.NewRecorder(), b).Get(ctx, CredentialKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServerBackend_PropagatesKVErrors(t *testing.T) {
	kv := testutil.NewMockKV()
	kv.GetFunc = func(ctx context.Context, key string) (string, bool, error) {
		return "", false, testutil.ErrMockStorage
	}
	backend := NewServerBackend(kv, CookieOptions{})

	req := testutil.NewRequestWithCookie(t, http.MethodGet, "/", BrowserCookie, uuid.NewString())
	_, _, err := backend.For(httptest.NewRecorder(), req).Get(context.Background(), CredentialKey)

	assert.ErrorIs(t, err, testutil.ErrMockStorage)
}

func TestServerBackend_Ping(t *testing.T) {
	kv := testutil.NewMockKV()
	backend := NewServerBackend(kv, CookieOptions{})
	assert.NoError(t, backend.Ping(context.Background()))

	kv.PingFunc = func(ctx context.Context) error { return testutil.ErrMockStorage }
	assert.ErrorIs(t, backend.Ping(context.Background()), testutil.ErrMockStorage)
}

func TestServerBackend_GuardRoundTrip(t *testing.T) {
	kv := testutil.NewMockKV()
	backend := NewServerBackend(kv, CookieOptions{})
	ctx := context.Background()
	identity := testutil.NewTestIdentity()

	w := httptest.NewRecorder()
	g := New(backend.For(w, httptest.NewRequest(http.MethodPost, "/login", nil)), &PendingRedirect{})
	g.Restore(ctx)
	require.NoError(t, g.Login(ctx, identity, "tok-server"))

	req := testutil.CarryCookies(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	g2 := New(backend.For(httptest.NewRecorder(), req), &PendingRedirect{})
	g2.Restore(ctx)

	require.NotNil(t, g2.Identity())
	assert.Equal(t, *identity, *g2.Identity())
	assert.Equal(t, "tok-server", g2.Credential())

	require.NoError(t, g2.Logout(ctx))
	assert.Equal(t, 0, kv.Len())
}
