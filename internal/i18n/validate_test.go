package i18n

import (
	"context"
	"testing"
)

func validator(bundles map[string]Messages, locales []string) *Validator {
	return NewValidator(bundleLoader(bundles), locales, "en")
}

func hasError(result ValidationResult, kind ErrorKind, locale string) bool {
	for _, e := range result.Errors {
		if e.Kind == kind && e.Locale == locale {
			return true
		}
	}
	return false
}

func TestValidateAllMatching(t *testing.T) {
	common := map[string]interface{}{"hello": "x", "bye": "y"}
	v := validator(map[string]Messages{
		"en": {"common": common},
		"zh": {"common": map[string]interface{}{"hello": "你好", "bye": "再见"}},
	}, []string{"en", "zh"})

	res := v.Validate(context.Background())
	if !res.Valid {
		t.Fatalf("Valid = false, errors: %+v", res.Errors)
	}
	if res.Coverage != 100 {
		t.Fatalf("Coverage = %v, want 100", res.Coverage)
	}
}

func TestValidateEmptyBundle(t *testing.T) {
	v := validator(map[string]Messages{
		"en": {"common": map[string]interface{}{"hello": "Hi"}},
		"zh": {},
	}, []string{"en", "zh"})

	res := v.Validate(context.Background())
	if res.Valid {
		t.Fatal("empty zh bundle must be invalid")
	}
	if !hasError(res, ErrEmptyBundle, "zh") {
		t.Fatalf("no empty-bundle error for zh: %+v", res.Errors)
	}
	// 100% of nothing.
	if res.Coverage != 100 {
		t.Fatalf("Coverage = %v, want 100", res.Coverage)
	}
}

func TestValidateMissingLocale(t *testing.T) {
	v := validator(map[string]Messages{
		"en": {"common": map[string]interface{}{"hello": "Hi"}},
	}, []string{"en", "zh"})

	res := v.Validate(context.Background())
	if res.Valid {
		t.Fatal("missing zh bundle must be invalid")
	}
	if !hasError(res, ErrMissingLocale, "zh") {
		t.Fatalf("no missing-locale error for zh: %+v", res.Errors)
	}
	if res.Coverage != 0 {
		t.Fatalf("Coverage = %v, want 0", res.Coverage)
	}
}

func TestValidateMissingKeys(t *testing.T) {
	v := validator(map[string]Messages{
		"en": {"common": map[string]interface{}{"hello": "Hi", "bye": "Bye", "thanks": "Thanks", "yes": "Yes"}},
		"zh": {"common": map[string]interface{}{"hello": "你好", "bye": "再见", "thanks": "谢谢"}},
	}, []string{"en", "zh"})

	res := v.Validate(context.Background())
	if res.Valid {
		t.Fatal("missing key must be invalid")
	}
	if !hasError(res, ErrMissingKey, "zh") {
		t.Fatalf("no missing-key error: %+v", res.Errors)
	}
	if res.Coverage != 75 {
		t.Fatalf("Coverage = %v, want 75", res.Coverage)
	}
}

func TestValidateTypeMismatch(t *testing.T) {
	v := validator(map[string]Messages{
		"en": {"common": map[string]interface{}{"hello": "Hi"}},
		"zh": {"common": map[string]interface{}{"hello": map[string]interface{}{"formal": "您好"}}},
	}, []string{"en", "zh"})

	res := v.Validate(context.Background())
	if res.Valid {
		t.Fatal("shape mismatch must be invalid")
	}
	if !hasError(res, ErrTypeMismatch, "zh") {
		t.Fatalf("no type-mismatch error: %+v", res.Errors)
	}
}

func TestValidateDeepNestingTerminates(t *testing.T) {
	deep := Messages{}
	node := map[string]interface{}{}
	deep["root"] = node
	for i := 0; i < 100; i++ {
		next := map[string]interface{}{}
		node["n"] = next
		node = next
	}
	node["leaf"] = "v"

	v := validator(map[string]Messages{"en": deep, "zh": deep}, []string{"en", "zh"})
	res := v.Validate(context.Background())
	if res.Valid {
		t.Fatal("over-deep bundle must be invalid")
	}
	if !hasError(res, ErrMalformedBundle, "en") {
		t.Fatalf("no malformed-bundle error: %+v", res.Errors)
	}
}

func TestCoverageBounds(t *testing.T) {
	cases := []map[string]Messages{
		{"en": {"a": "1"}, "zh": {"a": "1"}},
		{"en": {"a": "1", "b": "2"}, "zh": {"a": "1"}},
		{"en": {"a": "1"}, "zh": {}},
		{"en": {"a": "1"}},
	}
	for i, bundles := range cases {
		res := validator(bundles, []string{"en", "zh"}).Validate(context.Background())
		if res.Coverage < 0 || res.Coverage > 100 {
			t.Errorf("case %d: Coverage = %v, out of [0,100]", i, res.Coverage)
		}
	}
}
