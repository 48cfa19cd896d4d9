package domain

// DeviceType classifies a device by its model string. The classification
// is a pure function of the model; capability checks derive from it.
type DeviceType string

const (
	TypeHS100      DeviceType = "HS100"
	TypeHS103      DeviceType = "HS103"
	TypeHS105      DeviceType = "HS105"
	TypeHS110      DeviceType = "HS110"
	TypeHS200      DeviceType = "HS200"
	TypeHS300      DeviceType = "HS300"
	TypeHS300Child DeviceType = "HS300 Outlet"
	TypeKP115      DeviceType = "KP115"
	TypeKP125      DeviceType = "KP125"
	TypeKP200      DeviceType = "KP200"
	TypeKP200Child DeviceType = "KP200 Outlet"
	TypeKP303      DeviceType = "KP303"
	TypeKP303Child DeviceType = "KP303 Outlet"
	TypeKP400      DeviceType = "KP400"
	TypeKP400Child DeviceType = "KP400 Outlet"
	TypeEP40       DeviceType = "EP40"
	TypeEP40Child  DeviceType = "EP40 Outlet"
	TypeKL420L5    DeviceType = "KL420L5"
	TypeKL430      DeviceType = "KL430"
	TypeUnknown    DeviceType = "Unknown"
)

// Model prefixes ordered longest first so KL420L5 wins over a bare KL4
// match. Model strings carry a region suffix, e.g. "HS300(US)".
var modelPrefixes = []struct {
	prefix string
	dtype  DeviceType
}{
	{"KL420L5", TypeKL420L5},
	{"KL430", TypeKL430},
	{"HS100", TypeHS100},
	{"HS103", TypeHS103},
	{"HS105", TypeHS105},
	{"HS110", TypeHS110},
	{"HS200", TypeHS200},
	{"HS300", TypeHS300},
	{"KP115", TypeKP115},
	{"KP125", TypeKP125},
	{"KP200", TypeKP200},
	{"KP303", TypeKP303},
	{"KP400", TypeKP400},
	{"EP40", TypeEP40},
}

// TypeFromModel maps a cloud-reported model string to a DeviceType.
func TypeFromModel(model string) DeviceType {
	for _, m := range modelPrefixes {
		if len(model) >= len(m.prefix) && model[:len(m.prefix)] == m.prefix {
			return m.dtype
		}
	}
	return TypeUnknown
}

// ChildType returns the per-outlet type for a multi-outlet parent.
func (t DeviceType) ChildType() DeviceType {
	switch t {
	case TypeHS300:
		return TypeHS300Child
	case TypeKP200:
		return TypeKP200Child
	case TypeKP303:
		return TypeKP303Child
	case TypeKP400:
		return TypeKP400Child
	case TypeEP40:
		return TypeEP40Child
	default:
		return TypeUnknown
	}
}

// HasChildren reports whether the model is a multi-outlet parent whose
// outlets are addressed individually.
func (t DeviceType) HasChildren() bool {
	switch t {
	case TypeHS300, TypeKP200, TypeKP303, TypeKP400, TypeEP40:
		return true
	}
	return false
}

// HasEmeter reports whether the device supports energy metering.
func (t DeviceType) HasEmeter() bool {
	switch t {
	case TypeHS110, TypeKP115, TypeKP125, TypeHS300Child:
		return true
	}
	return false
}

// IsLight reports whether the device is a light strip.
func (t DeviceType) IsLight() bool {
	return t == TypeKL420L5 || t == TypeKL430
}

// IsChild reports whether the type denotes one outlet of a parent unit.
func (t DeviceType) IsChild() bool {
	switch t {
	case TypeHS300Child, TypeKP200Child, TypeKP303Child, TypeKP400Child, TypeEP40Child:
		return true
	}
	return false
}

// Category groups types into the coarse classes shown in listings.
func (t DeviceType) Category() string {
	switch {
	case t.IsLight():
		return "light"
	case t == TypeHS200:
		return "switch"
	default:
		return "plug"
	}
}

func (t DeviceType) DisplayName() string {
	return string(t)
}
