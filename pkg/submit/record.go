// Package submit turns a completed wizard session into a hosted property
// record: images are uploaded, answers are mapped onto the record, the record
// is created and the draft is cleared.
package submit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/propertyshodh/shodh/pkg/catalog"
)

// StatusPendingReview is the status every new listing starts in.
const StatusPendingReview = "pending_review"

// RecordID identifies a created record.
type RecordID string

// PropertyRecord mirrors a row of the hosted properties table.
type PropertyRecord struct {
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Category      string         `json:"category"`
	PropertyType  string         `json:"property_type,omitempty"`
	ListingType   string         `json:"listing_type"`
	Price         float64        `json:"price"`
	City          string         `json:"city"`
	Locality      string         `json:"locality,omitempty"`
	Address       string         `json:"address,omitempty"`
	Bedrooms      int            `json:"bedrooms,omitempty"`
	Bathrooms     int            `json:"bathrooms,omitempty"`
	AreaSqft      float64        `json:"area_sqft,omitempty"`
	Furnishing    string         `json:"furnishing,omitempty"`
	Amenities     []string       `json:"amenities"`
	Images        []string       `json:"images"`
	ContactMobile string         `json:"contact_mobile"`
	OwnerID       string         `json:"owner_id,omitempty"`
	Status        string         `json:"status"`
	Details       map[string]any `json:"details,omitempty"`
}

// ToExternalRecord maps answers onto a record. Only steps in the effective
// catalog contribute; answers orphaned by an earlier change are ignored.
// Steps bound to a field fill that field, the rest land in Details. When
// imageURLs is non-nil it replaces the images answer.
//
// Defaults: a blank title is synthesized from bedrooms, property type,
// listing type and location; status is pending_review unless answered.
func ToExternalRecord(cat *catalog.Catalog, answers catalog.Answers, imageURLs []string) PropertyRecord {
	effective := cat.Prune(answers)
	rec := PropertyRecord{Amenities: []string{}, Images: []string{}}
	labels := map[string]string{}

	for _, s := range cat.Compute(effective) {
		v, ok := effective[s.ID]
		if !ok {
			continue
		}
		if s.Kind == catalog.KindSingleSelect {
			for _, o := range s.Options(effective) {
				if o.Val() == v {
					labels[fieldOf(s)] = o.Label
				}
			}
		}
		if s.Field == "" || !rec.assign(s.Field, v) {
			if rec.Details == nil {
				rec.Details = map[string]any{}
			}
			rec.Details[fieldOf(s)] = v
		}
	}

	if imageURLs != nil {
		rec.Images = append([]string{}, imageURLs...)
	}
	rec.Title = strings.TrimSpace(rec.Title)
	rec.Description = strings.TrimSpace(rec.Description)
	rec.ContactMobile = catalog.NormalizeMobile(rec.ContactMobile)
	if rec.Title == "" {
		rec.Title = SynthesizeTitle(rec, labels)
	}
	if rec.Status == "" {
		rec.Status = StatusPendingReview
	}
	return rec
}

func fieldOf(s *catalog.Step) string {
	if s.Field != "" {
		return s.Field
	}
	return s.ID
}

// assign sets a known field and reports whether name was one.
func (r *PropertyRecord) assign(name string, v any) bool {
	str := func() string { return strings.TrimSpace(catalog.FormatValue(v)) }
	switch name {
	case "title":
		r.Title = str()
	case "description":
		r.Description = str()
	case "category":
		r.Category = str()
	case "property_type":
		r.PropertyType = str()
	case "listing_type":
		r.ListingType = str()
	case "price":
		r.Price = toFloat(v)
	case "city":
		r.City = str()
	case "locality":
		r.Locality = str()
	case "address":
		r.Address = str()
	case "bedrooms":
		r.Bedrooms = toInt(v)
	case "bathrooms":
		r.Bathrooms = toInt(v)
	case "area_sqft":
		r.AreaSqft = toFloat(v)
	case "furnishing":
		r.Furnishing = str()
	case "amenities":
		r.Amenities = toStrings(v)
	case "images":
		r.Images = toStrings(v)
	case "contact_mobile":
		r.ContactMobile = str()
	case "owner_id":
		r.OwnerID = str()
	case "status":
		r.Status = str()
	default:
		return false
	}
	return true
}

var listingPhrases = map[string]string{
	"sale":  "for Sale",
	"sell":  "for Sale",
	"rent":  "for Rent",
	"lease": "for Lease",
}

// SynthesizeTitle builds a title such as "3 BHK Flat for Rent in Baner,
// Pune". labels maps field names to the chosen option labels.
func SynthesizeTitle(rec PropertyRecord, labels map[string]string) string {
	var b strings.Builder
	if rec.Bedrooms > 0 {
		fmt.Fprintf(&b, "%d BHK ", rec.Bedrooms)
	}
	kind := firstNonEmpty(labels["property_type"], humanize(rec.PropertyType), labels["category"], humanize(rec.Category), "Property")
	b.WriteString(kind)
	if phrase := listingPhrases[strings.ToLower(rec.ListingType)]; phrase != "" {
		b.WriteString(" " + phrase)
	}
	var loc []string
	for _, part := range []string{rec.Locality, rec.City} {
		if p := strings.TrimSpace(part); p != "" {
			loc = append(loc, p)
		}
	}
	if len(loc) > 0 {
		b.WriteString(" in " + strings.Join(loc, ", "))
	}
	return b.String()
}

func humanize(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f
	}
	return 0
}

func toInt(v any) int {
	f := toFloat(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

func toStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return append([]string{}, s...)
	case string:
		if s == "" {
			return []string{}
		}
		return []string{s}
	}
	return []string{}
}
