package i18n

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// maxBundleDepth bounds nested-bundle traversal so a pathological or cyclic
// structure terminates with an error instead of recursing forever.
const maxBundleDepth = 32

// ErrorKind classifies a validation finding. Callers branch on the kind, not
// on message text.
type ErrorKind string

const (
	ErrMissingLocale   ErrorKind = "missing-locale"
	ErrEmptyBundle     ErrorKind = "empty-bundle"
	ErrMalformedBundle ErrorKind = "malformed-bundle"
	ErrMissingKey      ErrorKind = "missing-key"
	ErrTypeMismatch    ErrorKind = "type-mismatch"
)

// ValidationError is one structured validation finding.
type ValidationError struct {
	Kind   ErrorKind `json:"kind"`
	Locale string    `json:"locale"`
	Key    string    `json:"key,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("i18n: %s: locale %s, key %s", e.Kind, e.Locale, e.Key)
	}
	return fmt.Sprintf("i18n: %s: locale %s", e.Kind, e.Locale)
}

// ValidationResult is the outcome of one validation run. Computed fresh on
// every call, never persisted.
type ValidationResult struct {
	Valid    bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors"`
	Coverage float64           `json:"coverage"` // 0-100
}

// Validator compares every supported locale's bundle against the reference
// locale's key set.
type Validator struct {
	loader    Loader
	locales   []string
	reference string
}

// NewValidator creates a validator. reference is typically the default locale.
func NewValidator(loader Loader, locales []string, reference string) *Validator {
	return &Validator{loader: loader, locales: locales, reference: reference}
}

// Validate loads each configured locale and reports missing keys, malformed
// structures, and the overall coverage percentage. Malformed input never makes
// Validate fail; it is reported in the result.
func (v *Validator) Validate(ctx context.Context) ValidationResult {
	result := ValidationResult{Valid: true}

	refBundle, err := v.loader.Load(ctx, v.reference)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Kind:   ErrMissingLocale,
			Locale: v.reference,
			Detail: err.Error(),
		})
		return result
	}

	refKeys, malformed := flattenKeys(refBundle)
	if malformed != "" {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Kind:   ErrMalformedBundle,
			Locale: v.reference,
			Key:    malformed,
		})
	}

	var coverages []float64
	for _, locale := range v.locales {
		if locale == v.reference {
			continue
		}
		coverages = append(coverages, v.validateLocale(ctx, locale, refBundle, refKeys, &result))
	}

	switch {
	case len(coverages) == 0:
		result.Coverage = 100
	default:
		var sum float64
		for _, c := range coverages {
			sum += c
		}
		result.Coverage = sum / float64(len(coverages))
	}
	return result
}

// validateLocale checks one locale against the reference key set and returns
// its coverage contribution.
func (v *Validator) validateLocale(ctx context.Context, locale string, refBundle Messages, refKeys []string, result *ValidationResult) float64 {
	bundle, err := v.loader.Load(ctx, locale)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Kind:   ErrMissingLocale,
			Locale: locale,
			Detail: err.Error(),
		})
		return 0
	}

	// An empty bundle is invalid but covers 100% of nothing.
	if len(bundle) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Kind:   ErrEmptyBundle,
			Locale: locale,
		})
		return 100
	}

	keys, malformed := flattenKeys(bundle)
	if malformed != "" {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Kind:   ErrMalformedBundle,
			Locale: locale,
			Key:    malformed,
		})
		return 0
	}

	have := make(map[string]bool, len(keys))
	for _, k := range keys {
		have[k] = true
	}

	matched := 0
	for _, k := range refKeys {
		if have[k] {
			matched++
			continue
		}
		result.Valid = false
		if mismatch(refBundle, bundle, k) {
			result.Errors = append(result.Errors, ValidationError{
				Kind:   ErrTypeMismatch,
				Locale: locale,
				Key:    k,
			})
		} else {
			result.Errors = append(result.Errors, ValidationError{
				Kind:   ErrMissingKey,
				Locale: locale,
				Key:    k,
			})
		}
	}

	if len(refKeys) == 0 {
		return 100
	}
	return float64(matched) / float64(len(refKeys)) * 100
}

// flattenKeys walks a bundle and returns its sorted leaf key paths. When the
// depth cap is hit, the offending path is returned as malformed and traversal
// of that branch stops.
func flattenKeys(bundle Messages) (keys []string, malformed string) {
	var walk func(prefix string, node map[string]interface{}, depth int)
	walk = func(prefix string, node map[string]interface{}, depth int) {
		if depth > maxBundleDepth {
			if malformed == "" {
				malformed = prefix
			}
			return
		}
		for k, val := range node {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			switch child := val.(type) {
			case map[string]interface{}:
				walk(path, child, depth+1)
			case Messages:
				walk(path, child, depth+1)
			default:
				keys = append(keys, path)
			}
		}
	}
	walk("", bundle, 1)
	sort.Strings(keys)
	return keys, malformed
}

// mismatch reports whether key exists in bundle but as a different shape than
// in the reference (leaf vs subtree).
func mismatch(ref, bundle Messages, key string) bool {
	parts := strings.Split(key, ".")
	node := map[string]interface{}(bundle)
	for i, p := range parts {
		val, ok := node[p]
		if !ok {
			return false
		}
		if i == len(parts)-1 {
			// Present but not counted as a leaf: it is a subtree here.
			return true
		}
		switch child := val.(type) {
		case map[string]interface{}:
			node = child
		case Messages:
			node = child
		default:
			// Leaf where the reference has a subtree.
			return true
		}
	}
	return false
}
