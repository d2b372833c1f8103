package activity

import (
	"sync"

	"github.com/goliatone/go-masker"
	"github.com/goliatone/go-workspaces/pkg/types"
)

var defaultMaskerOnce sync.Once

// DefaultMasker returns the shared masker with the activity denylist
// registered.
func DefaultMasker() *masker.Masker {
	defaultMaskerOnce.Do(func() {
		if masker.Default == nil {
			return
		}
		registerDefaultMaskFields(masker.Default)
	})
	return masker.Default
}

// SanitizeRecord masks sensitive values in the record payload. When masking
// fails the payload is dropped.
func SanitizeRecord(mask *masker.Masker, record types.ActivityRecord) types.ActivityRecord {
	if len(record.Data) == 0 {
		return record
	}
	if mask == nil {
		mask = DefaultMasker()
	}
	if mask == nil {
		record.Data = map[string]any{}
		return record
	}

	masked, err := mask.Mask(cloneMap(record.Data))
	if err != nil {
		record.Data = map[string]any{}
		return record
	}
	if out, ok := masked.(map[string]any); ok {
		record.Data = out
	} else {
		record.Data = map[string]any{}
	}
	return record
}

func registerDefaultMaskFields(mask *masker.Masker) {
	if mask == nil {
		return
	}
	for _, field := range []string{"secret", "Secret", "password", "Password", "token", "Token"} {
		mask.RegisterMaskField(field, "filled4")
	}
}
