package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// QQ production endpoints.
const (
	qqAuthorizeURL = "https://graph.qq.com/oauth2.0/authorize"
	qqTokenURL     = "https://graph.qq.com/oauth2.0/token"
	qqOpenIDURL    = "https://graph.qq.com/oauth2.0/me"
	qqUserInfoURL  = "https://graph.qq.com/user/get_user_info"

	// QQ never exposes a real email address, so accounts are keyed by a
	// synthetic one: <openid>@qq.com. Existing accounts were created under
	// this rule; changing it would orphan them.
	qqEmailDomain = "@qq.com"
)

// QQ is the custom adapter. The provider's token response carries no
// stable subject identifier, so a second call to the me endpoint resolves
// the per-app openid, which then stands in as the identity token.
type QQ struct {
	clientID     string
	clientSecret string
	redirectURL  string
	client       *http.Client

	authorizeURL string
	tokenURL     string
	openIDURL    string
	userInfoURL  string
}

func NewQQ(clientID, clientSecret, redirectURL string) *QQ {
	return &QQ{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		client:       &http.Client{Timeout: 10 * time.Second},
		authorizeURL: qqAuthorizeURL,
		tokenURL:     qqTokenURL,
		openIDURL:    qqOpenIDURL,
		userInfoURL:  qqUserInfoURL,
	}
}

func (q *QQ) Name() string { return "qq" }

func (q *QQ) AuthCodeURL(state string) string {
	v := url.Values{
		"response_type": {"code"},
		"client_id":     {q.clientID},
		"redirect_uri":  {q.redirectURL},
		"state":         {state},
		"scope":         {"get_user_info"},
	}
	return q.authorizeURL + "?" + v.Encode()
}

func (q *QQ) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {q.clientID},
		"client_secret": {q.clientSecret},
		"code":          {code},
		"redirect_uri":  {q.redirectURL},
		"format":        {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("qq token request: %v: %w", err, ErrProvider)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qq token exchange: %v: %w", err, ErrProvider)
	}
	defer resp.Body.Close()

	var tokens struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   any    `json:"expires_in"`
		Error       any    `json:"error"`
		ErrorDesc   string `json:"error_description"`
	}
	if err := decodeJSONP(resp.Body, &tokens); err != nil {
		return nil, fmt.Errorf("qq token decode: %v: %w", err, ErrProvider)
	}
	if tokens.Error != nil {
		return nil, fmt.Errorf("qq token endpoint: %v %s: %w", tokens.Error, tokens.ErrorDesc, ErrProvider)
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("qq token response missing access_token: %w", ErrProvider)
	}

	openID, err := q.resolveOpenID(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	return &TokenSet{
		AccessToken:   tokens.AccessToken,
		IdentityToken: openID,
	}, nil
}

// resolveOpenID fetches the opaque per-app identifier for the access token.
func (q *QQ) resolveOpenID(ctx context.Context, accessToken string) (string, error) {
	v := url.Values{
		"access_token": {accessToken},
		"format":       {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.openIDURL+"?"+v.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("qq openid request: %v: %w", err, ErrProvider)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("qq openid fetch: %v: %w", err, ErrProvider)
	}
	defer resp.Body.Close()

	var data struct {
		ClientID string `json:"client_id"`
		OpenID   string `json:"openid"`
	}
	if err := decodeJSONP(resp.Body, &data); err != nil {
		return "", fmt.Errorf("qq openid decode: %v: %w", err, ErrProvider)
	}
	if data.OpenID == "" {
		return "", fmt.Errorf("qq openid response missing openid: %w", ErrProvider)
	}
	return data.OpenID, nil
}

func (q *QQ) FetchProfile(ctx context.Context, tokens *TokenSet) (*Profile, error) {
	v := url.Values{
		"access_token":       {tokens.AccessToken},
		"oauth_consumer_key": {q.clientID},
		"openid":             {tokens.IdentityToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.userInfoURL+"?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("qq userinfo request: %v: %w", err, ErrProvider)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qq userinfo fetch: %v: %w", err, ErrProvider)
	}
	defer resp.Body.Close()

	var profile struct {
		Ret          int    `json:"ret"`
		Msg          string `json:"msg"`
		Nickname     string `json:"nickname"`
		FigureURLQQ1 string `json:"figureurl_qq_1"`
		FigureURLQQ2 string `json:"figureurl_qq_2"`
	}
	if err := decodeJSONP(resp.Body, &profile); err != nil {
		return nil, fmt.Errorf("qq userinfo decode: %v: %w", err, ErrProvider)
	}
	if profile.Ret != 0 {
		return nil, fmt.Errorf("qq userinfo endpoint: ret=%d %s: %w", profile.Ret, profile.Msg, ErrProvider)
	}

	image := profile.FigureURLQQ2
	if image == "" {
		image = profile.FigureURLQQ1
	}

	return &Profile{
		ID:    tokens.IdentityToken,
		Name:  profile.Nickname,
		Email: tokens.IdentityToken + qqEmailDomain,
		Image: image,
	}, nil
}

// decodeJSONP parses a QQ API response. format=json is requested
// everywhere, but some error paths still answer with the legacy
// callback( {...} ); wrapper, so it is stripped when present.
func decodeJSONP(r io.Reader, v any) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s := strings.TrimSpace(string(body))
	if open := strings.Index(s, "("); strings.HasPrefix(s, "callback") && open >= 0 {
		if end := strings.LastIndex(s, ")"); end > open {
			s = s[open+1 : end]
		}
	}
	return json.Unmarshal([]byte(s), v)
}
