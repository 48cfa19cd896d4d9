package tplink

import "tplc/internal/domain"

// DeviceInfo is one entry of the cloud's getDeviceList result.
type DeviceInfo struct {
	DeviceType   string `json:"deviceType"`
	Role         int    `json:"role"`
	FwVer        string `json:"fwVer"`
	AppServerURL string `json:"appServerUrl"`
	DeviceRegion string `json:"deviceRegion"`
	DeviceID     string `json:"deviceId"`
	DeviceName   string `json:"deviceName"`
	DeviceHwVer  string `json:"deviceHwVer"`
	Alias        string `json:"alias"`
	DeviceMAC    string `json:"deviceMac"`
	OemID        string `json:"oemId"`
	DeviceModel  string `json:"deviceModel"`
	HwID         string `json:"hwId"`
	FwID         string `json:"fwId"`
	IsSameRegion bool   `json:"isSameRegion"`
	Status       int    `json:"status"`
}

// AliasOrName prefers the user-assigned alias over the factory name.
func (d DeviceInfo) AliasOrName() string {
	if d.Alias != "" {
		return d.Alias
	}
	if d.DeviceName != "" {
		return d.DeviceName
	}
	return "Unknown"
}

func (d DeviceInfo) Online() bool {
	return d.Status == 1
}

// Record converts a list entry into the provider-tagged domain record.
func (d DeviceInfo) Record(provider domain.Provider) domain.DeviceRecord {
	return domain.DeviceRecord{
		DeviceID:     d.DeviceID,
		Alias:        d.AliasOrName(),
		Model:        d.DeviceModel,
		Provider:     provider,
		Online:       d.Online(),
		Type:         domain.TypeFromModel(d.DeviceModel),
		AppServerURL: d.AppServerURL,
	}
}
