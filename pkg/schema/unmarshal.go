package schema

import (
	"encoding/json"
	"fmt"
)

// UnmarshalJSON picks the stage variant by field shape: Aws carries
// "region", Gcs carries "presignedUrl", everything else is Azure. The three
// shapes don't overlap, so a field probe is enough here.
func (s *PutGetStageInfo) UnmarshalJSON(data []byte) error {
	var probe struct {
		Region       *string `json:"region"`
		PresignedURL *string `json:"presignedUrl"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("probe stage info shape: %w", err)
	}

	switch {
	case probe.Region != nil:
		var aws AwsPutGetStageInfo
		if err := json.Unmarshal(data, &aws); err != nil {
			return fmt.Errorf("decode aws stage info: %w", err)
		}
		s.Aws = &aws
	case probe.PresignedURL != nil:
		var gcs GcsPutGetStageInfo
		if err := json.Unmarshal(data, &gcs); err != nil {
			return fmt.Errorf("decode gcs stage info: %w", err)
		}
		s.Gcs = &gcs
	default:
		var azure AzurePutGetStageInfo
		if err := json.Unmarshal(data, &azure); err != nil {
			return fmt.Errorf("decode azure stage info: %w", err)
		}
		s.Azure = &azure
	}
	return nil
}

func (s PutGetStageInfo) MarshalJSON() ([]byte, error) {
	switch {
	case s.Aws != nil:
		return json.Marshal(s.Aws)
	case s.Gcs != nil:
		return json.Marshal(s.Gcs)
	case s.Azure != nil:
		return json.Marshal(s.Azure)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts either a single encryption-material object or an
// array of them, normalizing both into Entries.
func (e *EncryptionMaterial) UnmarshalJSON(data []byte) error {
	var arr []PutGetEncryptionMaterial
	if err := json.Unmarshal(data, &arr); err == nil {
		e.Entries = arr
		return nil
	}

	var single PutGetEncryptionMaterial
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("decode encryption material: %w", err)
	}
	e.Entries = []PutGetEncryptionMaterial{single}
	return nil
}
