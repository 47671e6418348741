package session

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultSessionURL  = "https://sessionserver.mojang.com"
	DefaultAccountURL  = "https://api.mojang.com"
	DefaultServicesURL = "https://api.minecraftservices.com"

	defaultTimeout = 10 * time.Second
)

// Profile is a resolved player profile as the session service renders
// it. The ID travels as undashed hex.
type Profile struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Properties []Property `json:"properties,omitempty"`
}

// Property is one signed profile property, typically "textures".
type Property struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}

// UUID parses the profile id.
func (p *Profile) UUID() (uuid.UUID, error) {
	return uuid.Parse(p.ID)
}

// ProfileCache is an optional read-through store for resolved
// profiles. Lookup reports a miss with ok false; a failing cache is
// treated as a miss and never blocks the remote call.
type ProfileCache interface {
	Lookup(ctx context.Context, id uuid.UUID) (*Profile, bool, error)
	Store(ctx context.Context, profile *Profile) error
}

// Config wires a Client. Zero-value fields fall back to the public
// endpoints and a default timeout.
type Config struct {
	// SessionURL is the session service base: hasJoined, join,
	// profile lookups, blocked servers.
	SessionURL string

	// AccountURL is the account API base: name to id resolution.
	AccountURL string

	// ServicesURL is the services API base: player attributes and the
	// Minecraft half of the account chain.
	ServicesURL string

	// HTTPClient overrides the transport. Timeout is ignored when set.
	HTTPClient *http.Client

	Timeout time.Duration
	Cache   ProfileCache
	Logger  zerolog.Logger
}

// Client talks to the session collaborator.
type Client struct {
	sessionURL  string
	accountURL  string
	servicesURL string

	cache ProfileCache
	req   requester
	log   zerolog.Logger
}

// NewClient builds a session client from cfg.
func NewClient(cfg Config) *Client {
	sessionURL := strings.TrimSuffix(cfg.SessionURL, "/")
	if sessionURL == "" {
		sessionURL = DefaultSessionURL
	}
	accountURL := strings.TrimSuffix(cfg.AccountURL, "/")
	if accountURL == "" {
		accountURL = DefaultAccountURL
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

	return &Client{
		sessionURL:  sessionURL,
		accountURL:  accountURL,
		servicesURL: servicesURL,
		cache:       cfg.Cache,
		req:         requester{http: httpClient, log: cfg.Logger},
		log:         cfg.Logger,
	}
}

// ===== LOGIN VERIFY =====

// HasJoined verifies a joining player against the session service and
// returns the authenticated profile. ip is optional; when set the join
// must have been announced from that address.
func (c *Client) HasJoined(ctx context.Context, username, serverHash, ip string) (*Profile, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("serverId", serverHash)
	if ip != "" {
		q.Set("ip", ip)
	}

	status, body, err := c.req.get(ctx, c.sessionURL+"/session/minecraft/hasJoined?"+q.Encode(), "")
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusForbidden:
		return nil, ErrNotJoined
	default:
		return nil, statusErr("hasJoined", status)
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse hasJoined response: %w", err)
	}
	if profile.ID == "" {
		return nil, ErrNotJoined
	}
	return &profile, nil
}

type joinRequest struct {
	AccessToken     string `json:"accessToken"`
	SelectedProfile string `json:"selectedProfile"`
	ServerID        string `json:"serverId"`
}

// Join announces this client's intent to join a server, proving
// ownership of the access token. The service records the pair for the
// server's HasJoined check; the call itself returns no body.
func (c *Client) Join(ctx context.Context, accessToken string, profileID uuid.UUID, serverHash string) error {
	payload := joinRequest{
		AccessToken:     accessToken,
		SelectedProfile: hex.EncodeToString(profileID[:]),
		ServerID:        serverHash,
	}

	status, _, err := c.req.postJSON(ctx, c.sessionURL+"/session/minecraft/join", payload)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return statusErr("join", status)
	}
}

// ===== PROFILE LOOKUPS =====

// ProfileByUUID resolves a profile with its signed properties. A
// configured cache is consulted first and refreshed on a remote hit.
func (c *Client) ProfileByUUID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	if c.cache != nil {
		cached, ok, err := c.cache.Lookup(ctx, id)
		if err != nil {
			c.log.Debug().Err(err).Stringer("uuid", id).Msg("profile cache lookup failed")
		} else if ok {
			return cached, nil
		}
	}

	endpoint := c.sessionURL + "/session/minecraft/profile/" + id.String() + "?unsigned=false"
	status, body, err := c.req.get(ctx, endpoint, "")
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		return nil, ErrNoSuchProfile
	default:
		return nil, statusErr("profile", status)
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile response: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Store(ctx, &profile); err != nil {
			c.log.Debug().Err(err).Stringer("uuid", id).Msg("profile cache store failed")
		}
	}
	return &profile, nil
}

// UUIDByName resolves a username to its profile id.
func (c *Client) UUIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	endpoint := c.accountURL + "/users/profiles/minecraft/" + url.PathEscape(name)
	status, body, err := c.req.get(ctx, endpoint, "")
	if err != nil {
		return uuid.Nil, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		return uuid.Nil, ErrNoSuchProfile
	default:
		return uuid.Nil, statusErr("uuid lookup", status)
	}
	if len(body) == 0 {
		return uuid.Nil, ErrNoSuchProfile
	}

	var resp struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse uuid response: %w", err)
	}
	id, err := uuid.Parse(resp.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse profile id %q: %w", resp.ID, err)
	}
	return id, nil
}

// BlockedServers fetches the SHA-1 hashes of blocked server addresses,
// one hash per line.
func (c *Client) BlockedServers(ctx context.Context) ([]string, error) {
	status, body, err := c.req.get(ctx, c.sessionURL+"/blockedservers", "")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusErr("blockedservers", status)
	}

	var hashes []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			hashes = append(hashes, line)
		}
	}
	return hashes, nil
}

// ===== PLAYER ATTRIBUTES =====

// Privilege is one account capability switch.
type Privilege struct {
	Enabled bool `json:"enabled"`
}

// Privileges are the multiplayer capabilities of an account.
type Privileges struct {
	OnlineChat        Privilege `json:"onlineChat"`
	MultiplayerServer Privilege `json:"multiplayerServer"`
	MultiplayerRealms Privilege `json:"multiplayerRealms"`
	Telemetry         Privilege `json:"telemetry"`
}

// BanScope is one active ban. Known reasons are the BanReason
// constants.
type BanScope struct {
	BanID         string `json:"banId"`
	Expires       int64  `json:"expires,omitempty"`
	Reason        string `json:"reason"`
	ReasonMessage string `json:"reasonMessage,omitempty"`
}

// BanStatus carries active bans keyed by scope.
type BanStatus struct {
	BannedScopes map[string]BanScope `json:"bannedScopes"`
}

// Multiplayer returns the multiplayer ban, if any.
func (b *BanStatus) Multiplayer() (BanScope, bool) {
	if b == nil {
		return BanScope{}, false
	}
	scope, ok := b.BannedScopes["MULTIPLAYER"]
	return scope, ok
}

// Attributes is the player attributes document.
type Attributes struct {
	Privileges Privileges `json:"privileges"`
	BanStatus  *BanStatus `json:"banStatus,omitempty"`
}

// Ban reasons the services API currently issues.
const (
	BanReasonFalseReporting  = "false_reporting"
	BanReasonHateSpeech      = "hate_speech"
	BanReasonTerrorism       = "terrorism_or_violent_extremism"
	BanReasonChildAbuse      = "child_sexual_exploitation_or_abuse"
	BanReasonImminentHarm    = "imminent_harm"
	BanReasonIntimateImagery = "non_consensual_intimate_imagery"
	BanReasonHarassment      = "harassment_or_bullying"
	BanReasonDefamation      = "defamation_impersonation_false_information"
	BanReasonSelfHarm        = "self_harm_or_suicide"
	BanReasonDrugs           = "alcohol_tobacco_drugs"
)

// PlayerAttributes fetches the capabilities and ban status of the
// account behind accessToken.
func (c *Client) PlayerAttributes(ctx context.Context, accessToken string) (*Attributes, error) {
	status, body, err := c.req.get(ctx, c.servicesURL+"/player/attributes", accessToken)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		return nil, statusErr("player attributes", status)
	}

	var attrs Attributes
	if err := json.Unmarshal(body, &attrs); err != nil {
		return nil, fmt.Errorf("failed to parse attributes response: %w", err)
	}
	return &attrs, nil
}

// ===== HTTP PLUMBING =====

// maxResponseBytes caps how much of any response body is read.
const maxResponseBytes = 1 << 20

func statusErr(endpoint string, status int) error {
	return fmt.Errorf("%s: %w %d", endpoint, ErrUnexpectedStatus, status)
}

// requester is the shared HTTP plumbing under the session clients.
type requester struct {
	http *http.Client
	log  zerolog.Logger
}

func (r requester) get(ctx context.Context, endpoint, bearer string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return r.do(req)
}

func (r requester) postJSON(ctx context.Context, endpoint string, payload any) (int, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return r.do(req)
}

func (r requester) postForm(ctx context.Context, endpoint string, form url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r.do(req)
}

func (r requester) do(req *http.Request) (int, []byte, error) {
	start := time.Now()
	resp, err := r.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	r.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("session request")
	return resp.StatusCode, body, nil
}
