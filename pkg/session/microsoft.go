package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultLiveURL     = "https://login.live.com"
	defaultXboxUserURL = "https://user.auth.xboxlive.com"
	defaultXSTSURL     = "https://xsts.auth.xboxlive.com"

	xblRelyingParty = "http://auth.xboxlive.com"
	oauthScope      = "XboxLive.signin offline_access"
)

// Edition selects the XSTS relying party.
type Edition int

const (
	EditionJava Edition = iota
	EditionBedrock
)

func (e Edition) relyingParty() string {
	if e == EditionBedrock {
		return "https://pocket.realms.minecraft.net/"
	}
	return "rp://api.minecraftservices.com/"
}

// AccessToken is a Microsoft OAuth access token.
type AccessToken struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
}

// XboxToken is an Xbox Live token plus the user hash the Minecraft
// login needs. XSTS reports whether it came out of the XSTS authorize
// step; only those unlock the Minecraft login.
type XboxToken struct {
	Token    string
	UserHash string
	XSTS     bool
}

// MinecraftSession is the product of the full account chain: the
// bearer token game services accept, bound to a profile id.
type MinecraftSession struct {
	ProfileID   uuid.UUID
	Roles       []string
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
}

// XSTSError is a structured denial from the XSTS authorize endpoint.
type XSTSError struct {
	Code     uint64
	Identity string
	Message  string
	Redirect string
}

func (e *XSTSError) Error() string {
	return fmt.Sprintf("xsts authorize denied: %s (%d)", e.Reason(), e.Code)
}

// Reason renders the known XErr codes.
func (e *XSTSError) Reason() string {
	switch e.Code {
	case 2148916233:
		return "the account has no Xbox profile"
	case 2148916235:
		return "Xbox Live is banned or unavailable in the account's country"
	case 2148916236, 2148916237:
		return "the account needs adult verification on the Xbox page"
	case 2148916238:
		return "the account belongs to a child and must be added to a family"
	default:
		return "unknown denial"
	}
}

// MicrosoftConfig wires a MicrosoftAuthenticator. Base URLs default
// to the public endpoints.
type MicrosoftConfig struct {
	// ClientID is the Azure application id tokens are issued to.
	ClientID string

	// RedirectURI must match the application registration; the OAuth
	// code arrives there.
	RedirectURI string

	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     zerolog.Logger

	// Base URL overrides.
	LiveURL     string
	XboxUserURL string
	XSTSURL     string
	ServicesURL string
}

// MicrosoftAuthenticator runs the Microsoft account chain: OAuth code,
// Xbox Live user token, XSTS token, Minecraft session. It holds no
// token state; callers thread the step results through.
type MicrosoftAuthenticator struct {
	clientID    string
	redirectURI string

	liveURL     string
	xboxUserURL string
	xstsURL     string
	servicesURL string

	req requester
}

// NewMicrosoftAuthenticator builds an authenticator from cfg.
func NewMicrosoftAuthenticator(cfg MicrosoftConfig) *MicrosoftAuthenticator {
	liveURL := strings.TrimSuffix(cfg.LiveURL, "/")
	if liveURL == "" {
		liveURL = defaultLiveURL
	}
	xboxUserURL := strings.TrimSuffix(cfg.XboxUserURL, "/")
	if xboxUserURL == "" {
		xboxUserURL = defaultXboxUserURL
	}
	xstsURL := strings.TrimSuffix(cfg.XSTSURL, "/")
	if xstsURL == "" {
		xstsURL = defaultXSTSURL
	}
	servicesURL := strings.TrimSuffix(cfg.ServicesURL, "/")
	if servicesURL == "" {
		servicesURL = DefaultServicesURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &MicrosoftAuthenticator{
		clientID:    cfg.ClientID,
		redirectURI: cfg.RedirectURI,
		liveURL:     liveURL,
		xboxUserURL: xboxUserURL,
		xstsURL:     xstsURL,
		servicesURL: servicesURL,
		req:         requester{http: httpClient, log: cfg.Logger},
	}
}

// AuthorizeURL builds the browser URL that starts the OAuth flow. The
// authorization code lands on the redirect URI with the echoed state.
func (m *MicrosoftAuthenticator) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", m.clientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", m.redirectURI)
	q.Set("scope", oauthScope)
	q.Set("state", state)
	q.Set("prompt", "select_account")
	return m.liveURL + "/oauth20_authorize.srf?" + q.Encode()
}

// ExchangeCode trades an OAuth authorization code for an access token.
func (m *MicrosoftAuthenticator) ExchangeCode(ctx context.Context, code string) (*AccessToken, error) {
	form := url.Values{}
	form.Set("client_id", m.clientID)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", m.redirectURI)

	status, body, err := m.req.postForm(ctx, m.liveURL+"/oauth20_token.srf", form)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusErr("oauth token", status)
	}

	var raw struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	return &AccessToken{
		AccessToken: raw.AccessToken,
		TokenType:   raw.TokenType,
		ExpiresIn:   time.Duration(raw.ExpiresIn) * time.Second,
	}, nil
}

// AuthenticateXbox trades the OAuth access token for an Xbox Live
// user token.
func (m *MicrosoftAuthenticator) AuthenticateXbox(ctx context.Context, token *AccessToken) (*XboxToken, error) {
	payload := map[string]any{
		"Properties": map[string]any{
			"AuthMethod": "RPS",
			"SiteName":   "user.auth.xboxlive.com",
			"RpsTicket":  "d=" + token.AccessToken,
		},
		"RelyingParty": xblRelyingParty,
		"TokenType":    "JWT",
	}

	status, body, err := m.req.postJSON(ctx, m.xboxUserURL+"/user/authenticate", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusErr("xbox authenticate", status)
	}
	return parseXboxToken(body, false)
}

// AuthorizeXSTS trades an Xbox user token for an XSTS token scoped to
// the edition's relying party. Denials surface as *XSTSError.
func (m *MicrosoftAuthenticator) AuthorizeXSTS(ctx context.Context, userToken *XboxToken, edition Edition) (*XboxToken, error) {
	payload := map[string]any{
		"Properties": map[string]any{
			"SandboxId":  "RETAIL",
			"UserTokens": []string{userToken.Token},
		},
		"RelyingParty": edition.relyingParty(),
		"TokenType":    "JWT",
	}

	status, body, err := m.req.postJSON(ctx, m.xstsURL+"/xsts/authorize", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		if denial := parseXSTSDenial(body); denial != nil {
			return nil, denial
		}
		return nil, statusErr("xsts authorize", status)
	}

	tok, err := parseXboxToken(body, true)
	if err != nil {
		// Some denials still arrive with a 200 and no token.
		if denial := parseXSTSDenial(body); denial != nil {
			return nil, denial
		}
		return nil, err
	}
	return tok, nil
}

// LoginWithXbox trades an XSTS token for a Minecraft session.
func (m *MicrosoftAuthenticator) LoginWithXbox(ctx context.Context, xsts *XboxToken) (*MinecraftSession, error) {
	if !xsts.XSTS {
		return nil, ErrNotXSTSToken
	}

	payload := map[string]string{
		"identityToken": fmt.Sprintf("XBL3.0 x=%s;%s", xsts.UserHash, xsts.Token),
	}
	status, body, err := m.req.postJSON(ctx, m.servicesURL+"/authentication/login_with_xbox", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusErr("login_with_xbox", status)
	}

	var raw struct {
		Username    string   `json:"username"`
		Roles       []string `json:"roles"`
		AccessToken string   `json:"access_token"`
		TokenType   string   `json:"token_type"`
		ExpiresIn   int64    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}

	// The username field carries the profile id, not the player name.
	profileID, err := uuid.Parse(raw.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session profile id: %w", err)
	}
	return &MinecraftSession{
		ProfileID:   profileID,
		Roles:       raw.Roles,
		AccessToken: raw.AccessToken,
		TokenType:   raw.TokenType,
		ExpiresIn:   time.Duration(raw.ExpiresIn) * time.Second,
	}, nil
}

// HasGame reports whether the session's account owns the game.
func (m *MicrosoftAuthenticator) HasGame(ctx context.Context, session *MinecraftSession) (bool, error) {
	status, body, err := m.req.get(ctx, m.servicesURL+"/entitlements/mcstore", session.AccessToken)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, ErrUnauthorized
	default:
		return false, statusErr("entitlements", status)
	}

	var raw struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return false, fmt.Errorf("failed to parse entitlements response: %w", err)
	}
	return len(raw.Items) > 0, nil
}

// Authenticate runs the whole chain from an OAuth authorization code
// to a Minecraft session.
func (m *MicrosoftAuthenticator) Authenticate(ctx context.Context, code string) (*MinecraftSession, error) {
	access, err := m.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	user, err := m.AuthenticateXbox(ctx, access)
	if err != nil {
		return nil, err
	}
	xsts, err := m.AuthorizeXSTS(ctx, user, EditionJava)
	if err != nil {
		return nil, err
	}
	return m.LoginWithXbox(ctx, xsts)
}

// ===== RESPONSE PARSING =====

type rawXboxToken struct {
	Token         string `json:"Token"`
	DisplayClaims struct {
		XUI []struct {
			UserHash string `json:"uhs"`
		} `json:"xui"`
	} `json:"DisplayClaims"`
}

func parseXboxToken(body []byte, xsts bool) (*XboxToken, error) {
	var raw rawXboxToken
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse xbox token response: %w", err)
	}
	if raw.Token == "" || len(raw.DisplayClaims.XUI) == 0 {
		return nil, fmt.Errorf("xbox token response missing claims")
	}
	return &XboxToken{
		Token:    raw.Token,
		UserHash: raw.DisplayClaims.XUI[0].UserHash,
		XSTS:     xsts,
	}, nil
}

func parseXSTSDenial(body []byte) *XSTSError {
	var denial struct {
		Identity string `json:"Identity"`
		XErr     uint64 `json:"XErr"`
		Message  string `json:"Message"`
		Redirect string `json:"Redirect"`
	}
	if err := json.Unmarshal(body, &denial); err != nil || denial.XErr == 0 {
		return nil
	}
	return &XSTSError{
		Code:     denial.XErr,
		Identity: denial.Identity,
		Message:  denial.Message,
		Redirect: denial.Redirect,
	}
}
