package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultWeiboAuthURL    = "https://api.weibo.com/oauth2/authorize"
	defaultWeiboTokenURL   = "https://api.weibo.com/oauth2/access_token"
	defaultWeiboUserURL    = "https://api.weibo.com/2/users/show.json"
	defaultWeiboFriendsURL = "https://api.weibo.com/2/friendships/friends.json"
)

// WeiboOAuthConfig はWeibo OAuthプロバイダーの設定。
type WeiboOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL    string
	TokenURL   string
	UserURL    string
	FriendsURL string
}

// WeiboOAuthProvider はWeibo OAuth 2.0による認証と友人リスト取得を提供する。
type WeiboOAuthProvider struct {
	config WeiboOAuthConfig
	client *http.Client
}

// NewWeiboOAuthProvider はWeiboOAuthProviderを生成する。
// clientにはSSRF防止機能付きのHTTPクライアントを渡すことを想定している。
// nilの場合はhttp.DefaultClientを使用する。
func NewWeiboOAuthProvider(config WeiboOAuthConfig, client *http.Client) *WeiboOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultWeiboAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultWeiboTokenURL
	}
	if config.UserURL == "" {
		config.UserURL = defaultWeiboUserURL
	}
	if config.FriendsURL == "" {
		config.FriendsURL = defaultWeiboFriendsURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WeiboOAuthProvider{config: config, client: client}
}

// AuthorizeURL はWeibo OAuthの認証URLを返す。
func (p *WeiboOAuthProvider) AuthorizeURL() string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// weiboTokenResponse はWeiboのトークンエンドポイントのレスポンス。
type weiboTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	UID         string `json:"uid"`
}

// weiboUser はWeiboのユーザーオブジェクト。
type weiboUser struct {
	ID              json.Number `json:"id"`
	ScreenName      string      `json:"screen_name"`
	Name            string      `json:"name"`
	ProfileImageURL string      `json:"profile_image_url"`
}

// weiboFriendsResponse はWeiboの友人リストエンドポイントのレスポンス。
type weiboFriendsResponse struct {
	Users      []weiboUser `json:"users"`
	NextCursor int64       `json:"next_cursor"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、本人のアカウント情報を取得する。
func (p *WeiboOAuthProvider) ExchangeCode(ctx context.Context, code string) (*ProviderProfile, error) {
	// 1. 認可コードをアクセストークンに交換
	tokenResp, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	// 2. アクセストークンで本人のアカウント情報を取得
	user, err := p.fetchUser(ctx, tokenResp.AccessToken, tokenResp.UID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &ProviderProfile{
		ID:              user.ID.String(),
		ScreenName:      user.ScreenName,
		ProfileImageURL: user.ProfileImageURL,
		AccessToken:     tokenResp.AccessToken,
		SessionExpires:  strconv.FormatInt(tokenResp.ExpiresIn, 10),
	}, nil
}

// ListFriends は友人リストをカーソル指定で1ページ取得する。
func (p *WeiboOAuthProvider) ListFriends(ctx context.Context, accessToken, uid string, cursor int64) (*FriendPage, error) {
	params := url.Values{
		"access_token": {accessToken},
		"uid":          {uid},
		"cursor":       {strconv.FormatInt(cursor, 10)},
	}

	body, err := p.get(ctx, p.config.FriendsURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("friends request failed: %w", err)
	}

	var resp weiboFriendsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse friends response: %w", err)
	}

	page := &FriendPage{NextCursor: resp.NextCursor}
	for _, u := range resp.Users {
		name := u.ScreenName
		if name == "" {
			name = u.Name
		}
		page.Users = append(page.Users, ProviderUser{
			ID:              u.ID.String(),
			ScreenName:      name,
			ProfileImageURL: u.ProfileImageURL,
		})
	}
	return page, nil
}

// exchangeToken は認可コードをアクセストークンに交換する。
func (p *WeiboOAuthProvider) exchangeToken(ctx context.Context, code string) (*weiboTokenResponse, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp weiboTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	return &tokenResp, nil
}

// fetchUser はアクセストークンで本人のアカウント情報を取得する。
func (p *WeiboOAuthProvider) fetchUser(ctx context.Context, accessToken, uid string) (*weiboUser, error) {
	params := url.Values{
		"access_token": {accessToken},
		"uid":          {uid},
	}

	body, err := p.get(ctx, p.config.UserURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("user request failed: %w", err)
	}

	var user weiboUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}

	if user.ID.String() == "" || user.ID.String() == "0" {
		return nil, fmt.Errorf("empty id in user response")
	}

	return &user, nil
}

// get はGETリクエストを実行し、200のときレスポンスボディを返す。
func (p *WeiboOAuthProvider) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// compile-time interface check
var _ OAuthProvider = (*WeiboOAuthProvider)(nil)
