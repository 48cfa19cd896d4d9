package tplink

import "tplc/internal/domain"

// AppVersion is the Kasa/Tapo app release the signing keys were taken
// from; the server pins request metadata to known app builds.
const AppVersion = "3.4.451"

// CloudConfig is the static per-provider wiring: endpoint, app-level
// signing credentials and passthrough wire shape. The access/secret keys
// identify the app to the API server, not the user; they ship identically
// in every installation of the Android app.
type CloudConfig struct {
	Provider  domain.Provider
	Host      string
	AccessKey string
	SecretKey string
	AppType   string

	// PassthroughPath is where device commands are posted.
	// WrapPassthrough selects the V1 method/params envelope Kasa expects;
	// Tapo takes the flat body.
	PassthroughPath string
	WrapPassthrough bool
}

var clouds = map[domain.Provider]CloudConfig{
	domain.ProviderKasa: {
		Provider:        domain.ProviderKasa,
		Host:            "https://n-wap.tplinkcloud.com",
		AccessKey:       "e37525375f8845999bcc56d5e6faa76d",
		SecretKey:       "314bc6700b3140ca80bc655e527cb062",
		AppType:         "Kasa_Android_Mix",
		PassthroughPath: "/",
		WrapPassthrough: true,
	},
	domain.ProviderTapo: {
		Provider:        domain.ProviderTapo,
		Host:            "https://n-wap.i.tplinkcloud.com",
		AccessKey:       "4d11b6b9d5ea4d19a829adbb9714b057",
		SecretKey:       "6ed7d97f3e73467f8a5bab90b577ba4c",
		AppType:         "TP-Link_Tapo_Android",
		PassthroughPath: "/api/v2/common/passthrough",
		WrapPassthrough: false,
	},
}

// Cloud returns the static configuration for a provider.
func Cloud(p domain.Provider) CloudConfig {
	return clouds[p]
}
