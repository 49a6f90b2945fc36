package aplib

import (
	"errors"
	"sort"
	"strings"

	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
	"aplib-go/internal/xmp"
)

func contactInfo(field string) xmp.Property {
	return xmp.FieldProp(xmp.NsIptc4xmpCore, "CreatorContactInfo", xmp.Prop(xmp.NsIptc4xmpCore, field))
}

// iptcTable maps Aperture iptcProperties keys to XMP.
var iptcTable = map[string]xmp.Translator{
	"Byline":                      xmp.To(xmp.SeqProp(xmp.NsDC, "creator")),
	"BylineTitle":                 xmp.To(xmp.Prop(xmp.NsPhotoshop, "AuthorsPosition")),
	"CaptionAbstract":             xmp.To(xmp.AltProp(xmp.NsDC, "description")),
	"Category":                    xmp.To(xmp.Prop(xmp.NsPhotoshop, "Category")),
	"CiAdrCity":                   xmp.To(contactInfo("CiAdrCity")),
	"CiAdrCtry":                   xmp.To(contactInfo("CiAdrCtry")),
	"CiAdrExtadr":                 xmp.To(contactInfo("CiAdrExtadr")),
	"CiAdrPcode":                  xmp.To(contactInfo("CiAdrPcode")),
	"CiAdrRegion":                 xmp.To(contactInfo("CiAdrRegion")),
	"CiEmailWork":                 xmp.To(contactInfo("CiEmailWork")),
	"CiTelWork":                   xmp.To(contactInfo("CiTelWork")),
	"CiUrlWork":                   xmp.To(contactInfo("CiUrlWork")),
	"City":                        xmp.To(xmp.Prop(xmp.NsPhotoshop, "City")),
	"CopyrightNotice":             xmp.To(xmp.AltProp(xmp.NsDC, "rights")),
	"Country/PrimaryLocationName": xmp.To(xmp.Prop(xmp.NsPhotoshop, "Country")),
	"Credit":                      xmp.To(xmp.Prop(xmp.NsPhotoshop, "Credit")),
	"DateCreated":                 xmp.To(xmp.Prop(xmp.NsPhotoshop, "DateCreated")),
	"Headline":                    xmp.To(xmp.Prop(xmp.NsPhotoshop, "Headline")),
	"ImageType":                   xmp.Dropped,
	"Keywords":                    xmp.CustomRule,
	"ObjectName":                  xmp.To(xmp.AltProp(xmp.NsDC, "title")),
	"ProvinceState":               xmp.To(xmp.Prop(xmp.NsPhotoshop, "State")),
	"Source":                      xmp.To(xmp.Prop(xmp.NsPhotoshop, "Source")),
	"SpecialInstructions":         xmp.To(xmp.Prop(xmp.NsPhotoshop, "Instructions")),
	"SubLocation":                 xmp.To(xmp.Prop(xmp.NsIptc4xmpCore, "Location")),
	"SupplementalCategories":      xmp.To(xmp.BagProp(xmp.NsPhotoshop, "SupplementalCategories")),
	"TimeCreated":                 xmp.Dropped,
	"TransmissionReference":       xmp.To(xmp.Prop(xmp.NsPhotoshop, "TransmissionReference")),
	"Urgency":                     xmp.To(xmp.Prop(xmp.NsPhotoshop, "Urgency")),
	"Writer/Editor":               xmp.To(xmp.Prop(xmp.NsPhotoshop, "CaptionWriter")),
}

// IptcTranslator returns the XMP translation rule for an IPTC key.
func IptcTranslator(key string) (xmp.Translator, bool) {
	t, ok := iptcTable[key]
	return t, ok
}

// IptcProperties is the iptcProperties bag of a version. Every value is a
// string.
type IptcProperties struct {
	bag map[string]string
}

// IptcFromDict keeps the string entries of d. Other entries are skipped as
// "Iptc.<key>" with InvalidType; strings with no translation rule are kept
// and flagged with UnknownProp.
func IptcFromDict(d plutil.Dict, report *audit.Report) *IptcProperties {
	bag := make(map[string]string, len(d))
	for k, raw := range d {
		s, ok := raw.(string)
		if !ok {
			if report != nil {
				report.Skip("Iptc."+k, audit.InvalidType)
			}
			continue
		}
		bag[k] = s
		if _, known := iptcTable[k]; !known && report != nil {
			report.Skip("Iptc."+k, audit.UnknownProp)
		}
	}
	return &IptcProperties{bag: bag}
}

func (p *IptcProperties) Len() int { return len(p.bag) }

// Get returns the value stored for key.
func (p *IptcProperties) Get(key string) (string, bool) {
	v, ok := p.bag[key]
	return v, ok
}

// Keys returns the keys of the bag, sorted.
func (p *IptcProperties) Keys() []string {
	keys := make([]string, 0, len(p.bag))
	for k := range p.bag {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToXMP writes the bag into meta and reports whether anything was written.
// Write failures are logged to log.
func (p *IptcProperties) ToXMP(meta *xmp.Meta, log Logger) bool {
	log = orNop(log)
	written := false
	for _, k := range p.Keys() {
		t, ok := iptcTable[k]
		if !ok {
			continue
		}
		v := p.bag[k]
		switch t.Kind {
		case xmp.Direct:
			if err := t.Property.Put(meta, v); err != nil {
				if !errors.Is(err, xmp.ErrEmptyValue) {
					log.Warn("iptc to XMP", "key", k, "error", err)
				}
				continue
			}
			written = true
		case xmp.Custom:
			if k == "Keywords" && putKeywords(meta, v, log) {
				written = true
			}
		}
	}
	return written
}

// putKeywords splits the comma separated IPTC keyword list into dc:subject.
func putKeywords(meta *xmp.Meta, list string, log Logger) bool {
	subject := xmp.BagProp(xmp.NsDC, "subject")
	written := false
	for _, kw := range strings.Split(list, ",") {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if err := subject.Put(meta, kw); err != nil {
			log.Warn("iptc keywords to XMP", "keyword", kw, "error", err)
			continue
		}
		written = true
	}
	return written
}
