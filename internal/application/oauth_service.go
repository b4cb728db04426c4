package application

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"profitpulse-sync-core/internal/config"
	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/infrastructure/platforms"
	"profitpulse-sync-core/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const oauthStateTTL = 10 * time.Minute

// OAuthService owns the credential lifecycle: begin/complete the
// authorization code flow, refresh expired tokens, disconnect.
type OAuthService struct {
	cfg          config.Config
	integrations ports.IntegrationRepository
	states       ports.OAuthStateRepository
	tokens       *TokenManager
	httpClient   *http.Client
	logger       zerolog.Logger
	now          func() time.Time
}

// NewOAuthService creates a new OAuth service
func NewOAuthService(
	cfg config.Config,
	integrations ports.IntegrationRepository,
	states ports.OAuthStateRepository,
	tokens *TokenManager,
	logger zerolog.Logger,
) *OAuthService {
	return &OAuthService{
		cfg:          cfg,
		integrations: integrations,
		states:       states,
		tokens:       tokens,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
		now:          time.Now,
	}
}

// Begin issues a single-use state token and returns the provider authorize
// URL to redirect the user to. The shop argument fills per-store endpoint
// templates and is only meaningful for Shopify.
func (s *OAuthService) Begin(ctx context.Context, platform domain.Platform, shop string) (string, error) {
	orgID := domain.OrgIDFromContext(ctx)
	if orgID == "" {
		return "", fmt.Errorf("missing organization in request context")
	}

	po, err := s.cfg.Platform(platform)
	if err != nil {
		return "", err
	}

	state := uuid.NewString()
	now := s.now()
	err = s.states.Create(ctx, &domain.OAuthState{
		ID:        uuid.NewString(),
		OrgID:     orgID,
		UserID:    domain.UserIDFromContext(ctx),
		Platform:  platform,
		State:     state,
		ExpiresAt: now.Add(oauthStateTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("client_id", po.ClientID)
	q.Set("redirect_uri", s.redirectURI(platform))
	q.Set("scope", strings.Join(po.Scopes, ","))
	q.Set("state", state)
	q.Set("response_type", "code")

	authorizeURL := fillShop(po.AuthorizeURL, shop) + "?" + q.Encode()
	s.logger.Info().Str("platform", platform.String()).Str("orgId", orgID).Msg("Started OAuth flow")
	return authorizeURL, nil
}

// CompleteParams carries the provider callback parameters.
type CompleteParams struct {
	Platform domain.Platform
	Code     string
	State    string
	// Shop is the store handle Shopify echoes back on its callback.
	Shop string
	// AccountID is the ad account selected during authorization, when the
	// provider reports one.
	AccountID string
}

// Complete consumes the state token, exchanges the authorization code, and
// stores the connected integration with encrypted credentials. The state is
// burned before the exchange so a replayed callback cannot trigger a second
// code exchange.
func (s *OAuthService) Complete(ctx context.Context, p CompleteParams) (*domain.Integration, error) {
	st, err := s.states.Consume(ctx, p.State)
	if err != nil {
		return nil, err
	}
	if st.Expired(s.now()) {
		return nil, domain.ErrExpiredOAuthState
	}
	if st.Platform != p.Platform {
		return nil, fmt.Errorf("%w: platform mismatch", domain.ErrInvalidOAuthState)
	}

	po, err := s.cfg.Platform(p.Platform)
	if err != nil {
		return nil, err
	}

	tok, err := s.exchangeCode(ctx, po, p)
	if err != nil {
		return nil, err
	}

	now := s.now()
	integration := &domain.Integration{
		ID:        uuid.NewString(),
		OrgID:     st.OrgID,
		Platform:  p.Platform,
		AccountID: p.AccountID,
		Connected: true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if existing, err := s.integrations.GetByOrgAndPlatform(ctx, st.OrgID, p.Platform); err == nil && existing != nil {
		integration.ID = existing.ID
		integration.CreatedAt = existing.CreatedAt
		integration.LastSyncAt = existing.LastSyncAt
		if integration.AccountID == "" {
			integration.AccountID = existing.AccountID
		}
	}

	if p.Platform == domain.PlatformShopify {
		shop := platforms.NormalizeShopDomain(p.Shop)
		integration.AccountID = shop
		integration.Metadata = map[string]string{"shop": shop}
		integration.AccountName = s.shopifyShopName(ctx, po, shop, tok.AccessToken)
	} else if integration.AccountName == "" {
		integration.AccountName = integration.AccountID
	}

	if tok.ExpiresIn > 0 {
		expiresAt := now.Add(time.Duration(tok.ExpiresIn) * time.Second)
		integration.ExpiresAt = &expiresAt
	}

	if err := s.tokens.SetTokens(integration, tok.AccessToken, tok.RefreshToken); err != nil {
		return nil, err
	}

	if err := s.integrations.Upsert(ctx, integration); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("platform", p.Platform.String()).
		Str("orgId", st.OrgID).
		Str("accountId", integration.AccountID).
		Msg("Completed OAuth flow")

	return integration, nil
}

// Refresh exchanges the stored refresh token for new credentials and persists
// them. Integrations without a refresh token cannot recover and surface
// domain.ErrAuthenticationExpired.
func (s *OAuthService) Refresh(ctx context.Context, integration *domain.Integration) error {
	refresh, err := s.tokens.RefreshToken(integration)
	if err != nil {
		return err
	}
	if refresh == "" {
		return fmt.Errorf("%w: no refresh token stored", domain.ErrAuthenticationExpired)
	}

	po, err := s.cfg.Platform(integration.Platform)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refresh)
	form.Set("client_id", po.ClientID)
	form.Set("client_secret", po.ClientSecret)

	tok, err := s.postToken(ctx, fillShop(po.TokenURL, integration.Metadata["shop"]), form)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}

	if err := s.tokens.SetTokens(integration, tok.AccessToken, tok.RefreshToken); err != nil {
		return err
	}
	if tok.ExpiresIn > 0 {
		expiresAt := s.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
		integration.ExpiresAt = &expiresAt
	}

	if err := s.integrations.Update(ctx, integration); err != nil {
		return err
	}

	s.logger.Info().
		Str("platform", integration.Platform.String()).
		Str("orgId", integration.OrgID).
		Msg("Refreshed platform credentials")

	return nil
}

// Disconnect marks the integration disconnected and blanks its credentials.
// Stored orders, spend and metrics are kept.
func (s *OAuthService) Disconnect(ctx context.Context, orgID string, platform domain.Platform) error {
	if err := s.integrations.Disconnect(ctx, orgID, platform); err != nil {
		return err
	}
	s.logger.Info().Str("platform", platform.String()).Str("orgId", orgID).Msg("Disconnected integration")
	return nil
}

// CleanupStates removes expired state tokens.
func (s *OAuthService) CleanupStates(ctx context.Context) error {
	deleted, err := s.states.DeleteExpired(ctx, s.now())
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Debug().Int64("deleted", deleted).Msg("Removed expired oauth states")
	}
	return nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (s *OAuthService) exchangeCode(ctx context.Context, po config.PlatformOAuth, p CompleteParams) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", p.Code)
	form.Set("client_id", po.ClientID)
	form.Set("client_secret", po.ClientSecret)
	form.Set("redirect_uri", s.redirectURI(p.Platform))

	tok, err := s.postToken(ctx, fillShop(po.TokenURL, p.Shop), form)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	return tok, nil
}

func (s *OAuthService) postToken(ctx context.Context, tokenURL string, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	return &tok, nil
}

// shopifyShopName looks up the store's display name. Best effort: a failure
// here falls back to the shop handle rather than failing the connect.
func (s *OAuthService) shopifyShopName(ctx context.Context, po config.PlatformOAuth, shop, accessToken string) string {
	app := goshopify.App{ApiKey: po.ClientID, ApiSecret: po.ClientSecret}
	client, err := goshopify.NewClient(app, shop, accessToken)
	if err != nil {
		return shop
	}
	info, err := client.Shop.Get(ctx, nil)
	if err != nil || info == nil || info.Name == "" {
		s.logger.Debug().Err(err).Str("shop", shop).Msg("Could not fetch shop profile")
		return shop
	}
	return info.Name
}

func (s *OAuthService) redirectURI(platform domain.Platform) string {
	return fmt.Sprintf("%s/auth/%s/callback", s.cfg.AppURL, platform)
}

func fillShop(template, shop string) string {
	return strings.ReplaceAll(template, "{shop}", platforms.NormalizeShopDomain(shop))
}
