package models

import "encoding/json"

// Known identity keys; everything else round-trips through Extra.
const (
	identityKeyTitle   = "title"
	identityKeyType    = "type"
	identityKeyStatus  = "status"
	identityKeyCreated = "created"
)

// MarshalJSON emits the known fields plus Extra as one flat object.
func (id Identity) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(id.Extra)+4)
	for k, v := range id.Extra {
		out[k] = v
	}
	out[identityKeyTitle] = id.Title
	if id.Type != "" {
		out[identityKeyType] = id.Type
	}
	if id.Status != "" {
		out[identityKeyStatus] = id.Status
	}
	if id.Created != "" {
		out[identityKeyCreated] = id.Created
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits a flat node.json object into known fields and Extra.
func (id *Identity) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*id = Identity{}
	for k, v := range raw {
		s, isString := v.(string)
		switch {
		case k == identityKeyTitle && isString:
			id.Title = s
		case k == identityKeyType && isString:
			id.Type = s
		case k == identityKeyStatus && isString:
			id.Status = s
		case k == identityKeyCreated && isString:
			id.Created = s
		default:
			if id.Extra == nil {
				id.Extra = make(map[string]any)
			}
			id.Extra[k] = v
		}
	}
	return nil
}
