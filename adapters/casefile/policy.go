package casefile

import (
	"encoding/json"
	"fmt"
	"os"

	"abfactory/domain/policy"
)

// LoadPolicy reads a policy file over the baseline defaults, so a partial
// policy file only overrides the fields it names. An empty path returns the
// defaults unchanged.
func LoadPolicy(path string) (policy.Policy, error) {
	pol := policy.Default()
	if path == "" {
		return pol, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("read policy %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &pol); err != nil {
		return policy.Policy{}, fmt.Errorf("parse policy %s: %w", path, err)
	}
	if err := pol.Validate(); err != nil {
		return policy.Policy{}, err
	}
	return pol, nil
}
