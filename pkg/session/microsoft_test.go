package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator(t *testing.T, handler http.Handler) *MicrosoftAuthenticator {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewMicrosoftAuthenticator(MicrosoftConfig{
		ClientID:    "client-1",
		RedirectURI: "http://127.0.0.1:8754",
		LiveURL:     ts.URL,
		XboxUserURL: ts.URL,
		XSTSURL:     ts.URL,
		ServicesURL: ts.URL,
	})
}

func TestAuthorizeURL(t *testing.T) {
	auth := NewMicrosoftAuthenticator(MicrosoftConfig{
		ClientID:    "client-1",
		RedirectURI: "http://127.0.0.1:8754",
	})

	parsed, err := url.Parse(auth.AuthorizeURL("state-1"))
	require.NoError(t, err)

	assert.Equal(t, "login.live.com", parsed.Host)
	assert.Equal(t, "/oauth20_authorize.srf", parsed.Path)

	q := parsed.Query()
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "http://127.0.0.1:8754", q.Get("redirect_uri"))
	assert.Equal(t, "XboxLive.signin offline_access", q.Get("scope"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "select_account", q.Get("prompt"))
}

// TestAuthenticateChain drives the full chain against one fake server
// handling every hop.
func TestAuthenticateChain(t *testing.T) {
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth20_token.srf", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client-1", r.PostFormValue("client_id"))
		assert.Equal(t, "code-1", r.PostFormValue("code"))
		assert.Equal(t, "authorization_code", r.PostFormValue("grant_type"))
		w.Write([]byte(`{"access_token":"ms-token","token_type":"bearer","expires_in":86400}`))
	})

	mux.HandleFunc("/user/authenticate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Properties struct {
				AuthMethod string `json:"AuthMethod"`
				RpsTicket  string `json:"RpsTicket"`
			} `json:"Properties"`
			RelyingParty string `json:"RelyingParty"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "RPS", req.Properties.AuthMethod)
		assert.Equal(t, "d=ms-token", req.Properties.RpsTicket)
		assert.Equal(t, "http://auth.xboxlive.com", req.RelyingParty)
		w.Write([]byte(`{"Token":"xbl-token","DisplayClaims":{"xui":[{"uhs":"hash-1"}]}}`))
	})

	mux.HandleFunc("/xsts/authorize", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Properties struct {
				SandboxId  string   `json:"SandboxId"`
				UserTokens []string `json:"UserTokens"`
			} `json:"Properties"`
			RelyingParty string `json:"RelyingParty"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "RETAIL", req.Properties.SandboxId)
		assert.Equal(t, []string{"xbl-token"}, req.Properties.UserTokens)
		assert.Equal(t, "rp://api.minecraftservices.com/", req.RelyingParty)
		w.Write([]byte(`{"Token":"xsts-token","DisplayClaims":{"xui":[{"uhs":"hash-1"}]}}`))
	})

	mux.HandleFunc("/authentication/login_with_xbox", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IdentityToken string `json:"identityToken"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "XBL3.0 x=hash-1;xsts-token", req.IdentityToken)
		w.Write([]byte(`{"username":"` + notchID + `","roles":[],"access_token":"mc-token","token_type":"Bearer","expires_in":86400}`))
	})

	auth := newTestAuthenticator(t, mux)

	session, err := auth.Authenticate(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "mc-token", session.AccessToken)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, notchDashed, session.ProfileID.String())
	assert.Equal(t, 24*time.Hour, session.ExpiresIn)
}

func TestAuthorizeXSTSDenial(t *testing.T) {
	auth := newTestAuthenticator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"Identity":"0","XErr":2148916238,"Message":"","Redirect":"https://start.ui.xboxlive.com/AddChildToFamily"}`))
	}))

	_, err := auth.AuthorizeXSTS(context.Background(), &XboxToken{Token: "xbl-token"}, EditionJava)
	require.Error(t, err)

	var denial *XSTSError
	require.ErrorAs(t, err, &denial)
	assert.EqualValues(t, 2148916238, denial.Code)
	assert.Contains(t, denial.Reason(), "child")
	assert.Equal(t, "https://start.ui.xboxlive.com/AddChildToFamily", denial.Redirect)
}

func TestLoginWithXboxRequiresXSTS(t *testing.T) {
	auth := NewMicrosoftAuthenticator(MicrosoftConfig{ClientID: "client-1"})

	_, err := auth.LoginWithXbox(context.Background(), &XboxToken{Token: "user-token", UserHash: "hash-1"})
	assert.ErrorIs(t, err, ErrNotXSTSToken)
}

func TestHasGame(t *testing.T) {
	session := &MinecraftSession{AccessToken: "mc-token"}

	t.Run("Owned", func(t *testing.T) {
		auth := newTestAuthenticator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/entitlements/mcstore", r.URL.Path)
			assert.Equal(t, "Bearer mc-token", r.Header.Get("Authorization"))
			w.Write([]byte(`{"items":[{"name":"product_minecraft"},{"name":"game_minecraft"}]}`))
		}))

		owned, err := auth.HasGame(context.Background(), session)
		require.NoError(t, err)
		assert.True(t, owned)
	})

	t.Run("NotOwned", func(t *testing.T) {
		auth := newTestAuthenticator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"items":[]}`))
		}))

		owned, err := auth.HasGame(context.Background(), session)
		require.NoError(t, err)
		assert.False(t, owned)
	})

	t.Run("BadToken", func(t *testing.T) {
		auth := newTestAuthenticator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := auth.HasGame(context.Background(), session)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}
