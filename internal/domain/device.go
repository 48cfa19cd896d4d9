package domain

// Provider identifies which TP-Link cloud ecosystem a device belongs to.
type Provider string

const (
	ProviderKasa Provider = "kasa"
	ProviderTapo Provider = "tapo"
)

// Providers lists the supported clouds in query order. Kasa is always
// first; merge order depends on this.
func Providers() []Provider {
	return []Provider{ProviderKasa, ProviderTapo}
}

// DeviceRecord is one addressable device as reported by a cloud device
// list. Multi-outlet units produce one record for the parent plus one
// record per child outlet.
type DeviceRecord struct {
	DeviceID     string
	Alias        string
	Model        string
	Provider     Provider
	Online       bool
	Type         DeviceType
	AppServerURL string

	// ParentID and ChildID are set only for child outlets. DeviceID stays
	// the parent's cloud ID because passthrough commands target the parent
	// and scope to the outlet via the child context.
	ParentID string
	ChildID  string
}

// IsChild reports whether this record addresses one outlet of a
// multi-outlet unit.
func (r DeviceRecord) IsChild() bool {
	return r.ChildID != ""
}

// ResolvedDevice is the unique handle produced by resolving a user query
// against the merged device set. It carries everything needed to issue
// passthrough calls.
type ResolvedDevice struct {
	DeviceID     string
	Provider     Provider
	Alias        string
	Model        string
	Type         DeviceType
	AppServerURL string
	ChildID      string
	Online       bool
}

// Credentials are supplied once per login and never persisted; only the
// resulting tokens go to the secret store.
type Credentials struct {
	Username string
	Password string
}
