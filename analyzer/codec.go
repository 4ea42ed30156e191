package analyzer

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Tiers travel through config files and journal rows as their lowercase
// names, not as ordinals.

func (c Confidence) MarshalYAML() (any, error) { return c.String(), nil }

func (c *Confidence) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseConfidence(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Confidence) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (c *Confidence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("confidence: %w", err)
	}
	parsed, err := ParseConfidence(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (s Strength) MarshalYAML() (any, error) { return s.String(), nil }

func (s *Strength) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseStrength(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Strength) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *Strength) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("strength: %w", err)
	}
	parsed, err := ParseStrength(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
