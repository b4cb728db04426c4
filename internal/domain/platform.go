package domain

// Platform identifies an external commerce or advertising platform.
type Platform string

const (
	PlatformShopify  Platform = "shopify"
	PlatformSalla    Platform = "salla"
	PlatformMeta     Platform = "meta"
	PlatformGoogle   Platform = "google"
	PlatformTikTok   Platform = "tiktok"
	PlatformSnapchat Platform = "snapchat"
)

// IsCommerce reports whether the platform is an order source.
func (p Platform) IsCommerce() bool {
	return p == PlatformShopify || p == PlatformSalla
}

// IsAds reports whether the platform is an ad spend/campaign source.
func (p Platform) IsAds() bool {
	switch p {
	case PlatformMeta, PlatformGoogle, PlatformTikTok, PlatformSnapchat:
		return true
	}
	return false
}

func (p Platform) String() string { return string(p) }
