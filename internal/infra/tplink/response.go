package tplink

import "encoding/json"

// Vendor error codes observed from the cloud relay. Only the token-expiry
// code is contractual; the rest are kept in one place so a corrected
// observation is a one-line change.
const (
	codeTokenExpired        = -20651
	codeRefreshTokenExpired = -20652
	codeWrongCredentials    = -20601
	codeAccountLocked       = -20661
	codeMFARequired         = -20676
	codeDeviceOffline       = -20571
)

// apiResponse is the outer envelope every cloud endpoint returns.
type apiResponse struct {
	ErrorCode int             `json:"error_code"`
	Msg       string          `json:"msg"`
	Result    json.RawMessage `json:"result"`
}

func (r *apiResponse) successful() bool {
	return r.ErrorCode == 0
}

// resultField plucks one named field out of the result object.
func (r *apiResponse) resultField(name string) (json.RawMessage, bool) {
	if len(r.Result) == 0 {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.Result, &fields); err != nil {
		return nil, false
	}
	raw, ok := fields[name]
	return raw, ok
}
