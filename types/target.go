package types

import "encoding/json"

// Target is a target as listed by the API. Raw holds the original object so
// that fields not modelled here survive a round trip to disk.
type Target struct {
	ID            string          `json:"id"`
	Type          string          `json:"type,omitempty"`
	Attributes    map[string]any  `json:"attributes,omitempty"`
	Relationships map[string]any  `json:"relationships,omitempty"`
	Links         map[string]any  `json:"links,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

type targetFields Target

func (target *Target) UnmarshalJSON(data []byte) error {
	var fields targetFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*target = Target(fields)
	target.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (target Target) MarshalJSON() ([]byte, error) {
	if len(target.Raw) > 0 {
		return target.Raw, nil
	}
	return json.Marshal(targetFields(target))
}

func (target Target) DisplayName() string {
	if name, ok := target.Attributes["display_name"].(string); ok {
		return name
	}
	return ""
}

type TargetPage struct {
	Data  []Target  `json:"data"`
	Links PageLinks `json:"links"`
}

type PageLinks struct {
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
	Self string `json:"self,omitempty"`
}

type TargetDeletion struct {
	Target Target
	Err    error
}

type TargetDeletionOutcome struct {
	Targets    []Target
	Successful []Target
	Failed     []TargetDeletion
}

func (outcome *TargetDeletionOutcome) FailedTargets() []Target {
	targets := make([]Target, 0, len(outcome.Failed))
	for _, failure := range outcome.Failed {
		targets = append(targets, failure.Target)
	}
	return targets
}
