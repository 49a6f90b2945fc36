package aplib

import (
	"path/filepath"
	"slices"
	"testing"
	"time"

	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
	"aplib-go/internal/xmp"
)

func TestLoadVersion(t *testing.T) {
	path := filepath.Join("testdata", "Version-1.apversion")
	report := audit.NewReport()

	v, err := LoadVersion(path, report)
	if err != nil {
		t.Fatalf("LoadVersion() error = %v", err)
	}

	if deref(v.UUID()) != "kK9rjEbBRSa3lYSNEdmnDw" {
		t.Errorf("UUID() = %q", deref(v.UUID()))
	}
	if deref(v.ParentUUID()) != "HlEIxCh5QRS2ICBRsK9tqA" {
		t.Errorf("ParentUUID() = %q", deref(v.ParentUUID()))
	}
	if v.ModelID() != 1042 || deref(v.VersionNumber) != 1 || deref(v.Rating) != 4 {
		t.Errorf("ModelID, VersionNumber, Rating = %d, %d, %d", v.ModelID(), deref(v.VersionNumber), deref(v.Rating))
	}
	wantDate := time.Date(2009, 10, 26, 21, 0, 0, 0, time.UTC)
	if v.ImageDate == nil || !v.ImageDate.Equal(wantDate) {
		t.Errorf("ImageDate = %v, want %v", v.ImageDate, wantDate)
	}
	if !slices.Equal(v.Keywords, []string{"harbour", "night"}) {
		t.Errorf("Keywords = %v", v.Keywords)
	}
	if v.Exif == nil || v.Exif.Len() != 7 {
		t.Errorf("Exif = %v", v.Exif)
	}
	if v.Iptc == nil || v.Iptc.Len() != 2 {
		t.Errorf("Iptc = %v", v.Iptc)
	}
	if v.CustomInfo == nil || deref(v.CustomInfo.CameraTimeZoneName) != "Australia/Sydney" {
		t.Errorf("CustomInfo = %+v", v.CustomInfo)
	}
	if len(v.Notes) != 1 || deref(v.Notes[0].Note) != "Shot from the ferry" {
		t.Errorf("Notes = %+v", v.Notes)
	}

	d, err := plutil.ParseFileDict(path)
	if err != nil {
		t.Fatalf("ParseFileDict() error = %v", err)
	}
	assertPartition(t, d, report)

	tests := []struct {
		key     string
		parsed  bool
		ignored bool
		reason  audit.SkipReason
	}{
		{key: "exifProperties", parsed: true},
		{key: "customInfo", parsed: true},
		{key: "notes", parsed: true},
		{key: "stackUuid", ignored: true},
		{key: "customInfo.cameraOffset", ignored: true},
		{key: "statistics", reason: audit.Ignore},
		{key: "thumbnailGroup", reason: audit.Ignore},
		{key: "fileName", reason: audit.NotFound},
	}
	for _, tt := range tests {
		switch {
		case tt.parsed:
			if !report.IsParsed(tt.key) {
				t.Errorf("%s should be parsed", tt.key)
			}
		case tt.ignored:
			if !report.IsIgnored(tt.key) {
				t.Errorf("%s should be ignored", tt.key)
			}
		default:
			if got, _ := report.SkipReasonFor(tt.key); got != tt.reason {
				t.Errorf("%s reason = %v, want %v", tt.key, got, tt.reason)
			}
		}
	}
	if report.IsKnown("imageProxyState") {
		t.Error("absent ignorable key should not be recorded")
	}
}

func TestLoadVersion_Missing(t *testing.T) {
	if _, err := LoadVersion(filepath.Join("testdata", "missing.apversion"), nil); err == nil {
		t.Error("LoadVersion() of a missing file should fail")
	}
}

func TestVersionToXMP(t *testing.T) {
	v, err := LoadVersion(filepath.Join("testdata", "Version-1.apversion"), nil)
	if err != nil {
		t.Fatalf("LoadVersion() error = %v", err)
	}

	meta := xmp.New()
	if !v.ToXMP(meta, nil) {
		t.Fatal("ToXMP() = false, want true")
	}

	props := []struct {
		ns, name, want string
	}{
		{xmp.NsXMP, "Rating", "4"},
		{xmp.NsTIFF, "Model", "Canon EOS 5D Mark II"},
		{xmp.NsExif, "ApertureValue", "297/100"},
		{xmp.NsExifEX, "LensInfo", "2400/100 7000/100 0/1 0/1"},
		{xmp.NsPhotoshop, "City", "Sydney"},
		{xmp.NsAplib, "VersionUuid", "kK9rjEbBRSa3lYSNEdmnDw"},
		{xmp.NsAplib, "MasterUuid", "HlEIxCh5QRS2ICBRsK9tqA"},
	}
	for _, p := range props {
		if got, ok := meta.Property(p.ns, p.name); !ok || got != p.want {
			t.Errorf("Property(%s) = %q, %v, want %q", p.name, got, ok, p.want)
		}
	}
	if got, _ := meta.LocalizedText(xmp.NsDC, "title", ""); got != "IMG_0417" {
		t.Errorf("dc:title = %q, want IMG_0417", got)
	}
	if got, _ := meta.ArrayItem(xmp.NsExif, "ISOSpeedRatings", 0); got != "400" {
		t.Errorf("ISOSpeedRatings[0] = %q, want 400", got)
	}
	if n := meta.ArrayLen(xmp.NsDC, "subject"); n != 2 {
		t.Errorf("dc:subject has %d items, want 2", n)
	}
}

func TestVersionToXMP_Precedence(t *testing.T) {
	v := VersionFromDict(plutil.Dict{
		"uuid":     "v1",
		"name":     "IMG_0001",
		"keywords": []any{"from-version"},
		"iptcProperties": map[string]any{
			"ObjectName": "Harbour at night",
			"Keywords":   "from-iptc",
		},
	}, nil)

	meta := xmp.New()
	if !v.ToXMP(meta, nil) {
		t.Fatal("ToXMP() = false, want true")
	}
	if got, _ := meta.LocalizedText(xmp.NsDC, "title", ""); got != "Harbour at night" {
		t.Errorf("dc:title = %q, IPTC ObjectName should win", got)
	}
	if n := meta.ArrayLen(xmp.NsDC, "subject"); n != 1 {
		t.Fatalf("dc:subject has %d items, want 1", n)
	}
	if got, _ := meta.ArrayItem(xmp.NsDC, "subject", 0); got != "from-iptc" {
		t.Errorf("dc:subject[0] = %q, want from-iptc", got)
	}
}

func TestVersionToXMP_IptcWinsOverExif(t *testing.T) {
	tests := []struct {
		name        string
		exif        map[string]any
		iptc        map[string]any
		wantCreator []string
		wantRights  string
	}{
		{
			name:        "same creator in both",
			exif:        map[string]any{"Artist": "Jane Doe"},
			iptc:        map[string]any{"Byline": "Jane Doe"},
			wantCreator: []string{"Jane Doe"},
		},
		{
			name:        "different creators",
			exif:        map[string]any{"Artist": "John Roe", "Copyright": "(c) John"},
			iptc:        map[string]any{"Byline": "Jane Doe", "CopyrightNotice": "(c) Jane"},
			wantCreator: []string{"Jane Doe"},
			wantRights:  "(c) Jane",
		},
		{
			name:        "exif only",
			exif:        map[string]any{"Artist": "John Roe", "Copyright": "(c) John"},
			wantCreator: []string{"John Roe"},
			wantRights:  "(c) John",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := plutil.Dict{"uuid": "v1", "exifProperties": tt.exif}
			if tt.iptc != nil {
				d["iptcProperties"] = tt.iptc
			}
			meta := xmp.New()
			if !VersionFromDict(d, nil).ToXMP(meta, nil) {
				t.Fatal("ToXMP() = false, want true")
			}

			var creators []string
			for i := range meta.ArrayLen(xmp.NsDC, "creator") {
				c, _ := meta.ArrayItem(xmp.NsDC, "creator", i)
				creators = append(creators, c)
			}
			if !slices.Equal(creators, tt.wantCreator) {
				t.Errorf("dc:creator = %v, want %v", creators, tt.wantCreator)
			}
			if got, _ := meta.LocalizedText(xmp.NsDC, "rights", ""); got != tt.wantRights {
				t.Errorf("dc:rights = %q, want %q", got, tt.wantRights)
			}
		})
	}
}

func TestVersionToXMP_IdentityOnly(t *testing.T) {
	v := VersionFromDict(plutil.Dict{
		"uuid":       "v1",
		"masterUuid": "m1",
		"exifProperties": map[string]any{
			"AspectRatio": 1.5,
		},
	}, nil)

	meta := xmp.New()
	if v.ToXMP(meta, nil) {
		t.Error("ToXMP() = true, want false")
	}
	if meta.Len() != 0 {
		t.Errorf("Len() = %d, identity should not be written alone", meta.Len())
	}
}
