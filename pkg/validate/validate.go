// Package validate admits candidate files into a bundle before any network
// I/O happens. Checks are pure: extension allow-list and size ceiling only.
package validate

import (
	"strings"

	"github.com/mergeflow/mergeflow/pkg/domain"
)

const bytesPerMB = 1 << 20

// Policy is the admission rule for one upload slot.
type Policy struct {
	// AllowedExtensions lists acceptable extensions without the leading dot,
	// matched case-insensitively against the substring after the last dot.
	AllowedExtensions []string

	// MaxSizeMB caps each individual file. Zero means no limit.
	MaxSizeMB int64
}

// DataPolicy matches the accepted dataset formats of the merge service.
func DataPolicy() Policy {
	return Policy{
		AllowedExtensions: []string{"csv", "xlsx", "xls", "parquet"},
		MaxSizeMB:         100,
	}
}

// SchemaPolicy matches the accepted schema-document formats.
func SchemaPolicy() Policy {
	return Policy{
		AllowedExtensions: []string{"json", "yaml", "yml", "xlsx", "xls", "csv"},
		MaxSizeMB:         100,
	}
}

// PolicyFor returns the admission policy for an upload slot.
func PolicyFor(bundle domain.Bundle) Policy {
	if bundle == domain.SchemaA || bundle == domain.SchemaB {
		return SchemaPolicy()
	}
	return DataPolicy()
}

// Check validates a batch against the policy. It short-circuits on the first
// offending file in iteration order: either the whole batch is admissible or
// a *domain.ValidationError naming that file is returned.
func Check(files []domain.FileInfo, policy Policy) error {
	for _, f := range files {
		if !extensionAllowed(f.Name, policy.AllowedExtensions) {
			return &domain.ValidationError{
				Kind:    domain.UnsupportedType,
				File:    f.Name,
				Allowed: policy.AllowedExtensions,
			}
		}
		if policy.MaxSizeMB > 0 && f.SizeBytes > policy.MaxSizeMB*bytesPerMB {
			return &domain.ValidationError{
				Kind:    domain.TooLarge,
				File:    f.Name,
				LimitMB: policy.MaxSizeMB,
			}
		}
	}
	return nil
}

func extensionAllowed(name string, allowed []string) bool {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return false
	}
	ext := strings.ToLower(name[idx+1:])
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}
