package rules

import "encoding/json"

func remarshal(src interface{}, dst interface{}) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// ToMap flattens a typed config into the jsonb form stored on the rule row
func ToMap(cfg RuleConfig) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	if err := remarshal(cfg, &out); err != nil {
		return nil, err
	}
	return out, nil
}
