package i18n

// DateStyle is a named date formatting preset.
type DateStyle struct {
	DateStyle string `json:"dateStyle"`
	TimeStyle string `json:"timeStyle,omitempty"`
}

// CurrencyStyle is a currency formatting preset. Currency carries the ISO
// 4217 code tied to the locale.
type CurrencyStyle struct {
	Style    string `json:"style"`
	Currency string `json:"currency"`
}

// PercentStyle is a percentage formatting preset.
type PercentStyle struct {
	Style                 string `json:"style"`
	MaximumFractionDigits int    `json:"maximumFractionDigits"`
}

// NumberFormats groups the locale's number formatting presets.
type NumberFormats struct {
	Currency CurrencyStyle `json:"currency"`
	Percent  PercentStyle  `json:"percent"`
}

// DateFormats groups the locale's date formatting presets.
type DateFormats struct {
	Short DateStyle `json:"short"`
	Long  DateStyle `json:"long"`
}

// ListFormats describes how enumerations are joined.
type ListFormats struct {
	Enumeration struct {
		Style string `json:"style"`
		Type  string `json:"type"`
	} `json:"enumeration"`
}

// Formats bundles every formatting preset resolved for one locale.
type Formats struct {
	Date   DateFormats   `json:"dateTime"`
	Number NumberFormats `json:"number"`
	List   ListFormats   `json:"list"`
}

// formatPresets holds the per-locale formatting tables. Locales without an
// entry use the "en" presets.
var formatPresets = map[string]Formats{
	"en": buildFormats("USD"),
	"zh": buildFormats("CNY"),
}

func buildFormats(currency string) Formats {
	f := Formats{
		Date: DateFormats{
			Short: DateStyle{DateStyle: "short"},
			Long:  DateStyle{DateStyle: "long", TimeStyle: "short"},
		},
		Number: NumberFormats{
			Currency: CurrencyStyle{Style: "currency", Currency: currency},
			Percent:  PercentStyle{Style: "percent", MaximumFractionDigits: 1},
		},
	}
	f.List.Enumeration.Style = "long"
	f.List.Enumeration.Type = "conjunction"
	return f
}

// FormatsFor returns the formatting presets for locale.
func FormatsFor(locale string) Formats {
	if f, ok := formatPresets[locale]; ok {
		return f
	}
	return formatPresets["en"]
}
