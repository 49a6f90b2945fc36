package aplib

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
	"aplib-go/internal/xmp"
)

// ExifKind is the type of an Exif bag value.
type ExifKind int

const (
	ExifInt ExifKind = iota + 1
	ExifString
	ExifDate
	ExifReal
)

// ExifValue is one typed value of the exifProperties bag.
type ExifValue struct {
	Kind ExifKind
	Int  int64
	Str  string
	Date time.Time
	Real float64
}

// XMPString formats the value for a direct XMP property.
func (v ExifValue) XMPString() string {
	switch v.Kind {
	case ExifInt:
		return xmp.FormatInt(v.Int)
	case ExifReal:
		return xmp.FormatRational(v.Real)
	case ExifDate:
		return xmp.FormatDate(v.Date)
	default:
		return v.Str
	}
}

// Number returns the value as a float for integer and real values.
func (v ExifValue) Number() (float64, bool) {
	switch v.Kind {
	case ExifInt:
		return float64(v.Int), true
	case ExifReal:
		return v.Real, true
	default:
		return 0, false
	}
}

func exifValueOf(v any) (ExifValue, bool) {
	switch plutil.KindOf(v) {
	case plutil.KindInteger:
		n, _ := plutil.AsInt(v)
		return ExifValue{Kind: ExifInt, Int: n}, true
	case plutil.KindReal:
		f, _ := plutil.AsReal(v)
		return ExifValue{Kind: ExifReal, Real: f}, true
	case plutil.KindString:
		return ExifValue{Kind: ExifString, Str: v.(string)}, true
	case plutil.KindDate:
		t, _ := plutil.AsDate(v)
		return ExifValue{Kind: ExifDate, Date: t}, true
	default:
		return ExifValue{}, false
	}
}

// exifTable maps Aperture exifProperties keys to XMP.
var exifTable = map[string]xmp.Translator{
	"ApertureValue":         xmp.To(xmp.Prop(xmp.NsExif, "ApertureValue")),
	"Artist":                xmp.To(xmp.SeqProp(xmp.NsDC, "creator")),
	"AspectRatio":           xmp.Dropped,
	"Altitude":              xmp.CustomRule,
	"Brightness":            xmp.To(xmp.Prop(xmp.NsExif, "BrightnessValue")),
	"CaptureDayOfMonth":     xmp.Dropped,
	"CaptureDayOfWeek":      xmp.Dropped,
	"CaptureHourOfDay":      xmp.Dropped,
	"CaptureMinuteOfHour":   xmp.Dropped,
	"CaptureMonthOfYear":    xmp.Dropped,
	"CaptureSecondOfMinute": xmp.Dropped,
	"CaptureYear":           xmp.Dropped,
	"ColorModel":            xmp.Dropped,
	"ColorSpace":            xmp.To(xmp.Prop(xmp.NsExif, "ColorSpace")),
	"Contrast":              xmp.To(xmp.Prop(xmp.NsExif, "Contrast")),
	"Copyright":             xmp.To(xmp.AltProp(xmp.NsDC, "rights")),
	"Depth":                 xmp.Dropped,
	"ExposureBiasValue":     xmp.To(xmp.Prop(xmp.NsExif, "ExposureBiasValue")),
	"ExposureMode":          xmp.To(xmp.Prop(xmp.NsExif, "ExposureMode")),
	"ExposureProgram":       xmp.To(xmp.Prop(xmp.NsExif, "ExposureProgram")),
	"FirmwareVersion":       xmp.To(xmp.Prop(xmp.NsExifAux, "Firmware")),
	"Flash":                 xmp.Dropped,
	"FNumber":               xmp.To(xmp.Prop(xmp.NsExif, "FNumber")),
	"FocalLength":           xmp.To(xmp.Prop(xmp.NsExif, "FocalLength")),
	"FocalLengthIn35mmFilm": xmp.To(xmp.Prop(xmp.NsExif, "FocalLengthIn35mmFilm")),
	"ImageDate":             xmp.To(xmp.Prop(xmp.NsExif, "DateTimeOriginal")),
	"ISOSpeedRatings":       xmp.CustomRule,
	"Latitude":              xmp.CustomRule,
	"LensMaxMM":             xmp.CustomRule,
	"LensMinMM":             xmp.CustomRule,
	"LensModel":             xmp.To(xmp.Prop(xmp.NsExifEX, "LensModel")),
	"LightSource":           xmp.To(xmp.Prop(xmp.NsExif, "LightSource")),
	"Longitude":             xmp.CustomRule,
	"Make":                  xmp.To(xmp.Prop(xmp.NsTIFF, "Make")),
	"MaxApertureValue":      xmp.To(xmp.Prop(xmp.NsExif, "MaxApertureValue")),
	"MeteringMode":          xmp.To(xmp.Prop(xmp.NsExif, "MeteringMode")),
	"Model":                 xmp.To(xmp.Prop(xmp.NsTIFF, "Model")),
	"Orientation":           xmp.To(xmp.Prop(xmp.NsTIFF, "Orientation")),
	"PixelHeight":           xmp.To(xmp.Prop(xmp.NsExif, "PixelYDimension")),
	"PixelWidth":            xmp.To(xmp.Prop(xmp.NsExif, "PixelXDimension")),
	"ProfileName":           xmp.Dropped,
	"Saturation":            xmp.To(xmp.Prop(xmp.NsExif, "Saturation")),
	"SceneCaptureType":      xmp.To(xmp.Prop(xmp.NsExif, "SceneCaptureType")),
	"SerialNumber":          xmp.To(xmp.Prop(xmp.NsExifAux, "SerialNumber")),
	"Sharpness":             xmp.To(xmp.Prop(xmp.NsExif, "Sharpness")),
	"ShutterSpeed":          xmp.To(xmp.Prop(xmp.NsExif, "ExposureTime")),
	"Software":              xmp.To(xmp.Prop(xmp.NsTIFF, "Software")),
	"SubjectDistance":       xmp.To(xmp.Prop(xmp.NsExif, "SubjectDistance")),
	"UserComment":           xmp.To(xmp.AltProp(xmp.NsExif, "UserComment")),
	"WhiteBalance":          xmp.To(xmp.Prop(xmp.NsExif, "WhiteBalance")),
}

// ExifTranslator returns the XMP translation rule for an Exif key.
func ExifTranslator(key string) (xmp.Translator, bool) {
	t, ok := exifTable[key]
	return t, ok
}

// ExifProperties is the typed exifProperties bag of a version.
type ExifProperties struct {
	bag map[string]ExifValue
}

// ExifFromDict types every entry of d. Entries of an unsupported plist type
// are skipped as "Exif.<key>" with InvalidType; typed entries with no
// translation rule are kept and flagged with UnknownProp.
func ExifFromDict(d plutil.Dict, report *audit.Report) *ExifProperties {
	bag := make(map[string]ExifValue, len(d))
	for k, raw := range d {
		v, ok := exifValueOf(raw)
		if !ok {
			if report != nil {
				report.Skip("Exif."+k, audit.InvalidType)
			}
			continue
		}
		bag[k] = v
		if _, known := exifTable[k]; !known && report != nil {
			report.Skip("Exif."+k, audit.UnknownProp)
		}
	}
	return &ExifProperties{bag: bag}
}

func (e *ExifProperties) Len() int { return len(e.bag) }

// Get returns the value stored for key.
func (e *ExifProperties) Get(key string) (ExifValue, bool) {
	v, ok := e.bag[key]
	return v, ok
}

// Keys returns the keys of the bag, sorted.
func (e *ExifProperties) Keys() []string {
	keys := make([]string, 0, len(e.bag))
	for k := range e.bag {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToXMP writes the bag into meta and reports whether anything was written.
// Direct targets that already hold a value are left alone, so IPTC values
// written first take precedence. Write failures are logged to log.
func (e *ExifProperties) ToXMP(meta *xmp.Meta, log Logger) bool {
	written := false
	for _, k := range e.Keys() {
		t, ok := exifTable[k]
		if !ok {
			continue
		}
		v := e.bag[k]
		var err error
		did := false
		switch t.Kind {
		case xmp.Direct:
			if meta.Has(t.Property) {
				continue
			}
			err = t.Property.Put(meta, v.XMPString())
			did = err == nil
		case xmp.Custom:
			did, err = e.custom(k, v, meta)
		}
		if errors.Is(err, xmp.ErrEmptyValue) {
			continue
		}
		if err != nil {
			orNop(log).Warn("exif to XMP", "key", k, "error", err)
			continue
		}
		if did {
			written = true
		}
	}
	return written
}

func (e *ExifProperties) custom(key string, v ExifValue, meta *xmp.Meta) (bool, error) {
	switch key {
	case "ISOSpeedRatings":
		return true, meta.SetArrayItem(xmp.NsExif, "ISOSpeedRatings", xmp.Seq, 0, v.XMPString())
	case "LensMinMM":
		info, ok := e.lensInfo()
		if !ok {
			return false, nil
		}
		return true, meta.SetProperty(xmp.NsExifEX, "LensInfo", info)
	case "Latitude":
		deg, ok := v.Number()
		if !ok {
			return false, nil
		}
		return true, meta.SetProperty(xmp.NsExif, "GPSLatitude", gpsCoordinate(deg, 'N', 'S'))
	case "Longitude":
		deg, ok := v.Number()
		if !ok {
			return false, nil
		}
		return true, meta.SetProperty(xmp.NsExif, "GPSLongitude", gpsCoordinate(deg, 'E', 'W'))
	case "Altitude":
		alt, ok := v.Number()
		if !ok {
			return false, nil
		}
		ref := "0"
		if alt < 0 {
			ref = "1"
		}
		if err := meta.SetProperty(xmp.NsExif, "GPSAltitudeRef", ref); err != nil {
			return false, err
		}
		return true, meta.SetProperty(xmp.NsExif, "GPSAltitude", xmp.FormatRational(math.Abs(alt)))
	}
	// LensMaxMM is consumed with LensMinMM.
	return false, nil
}

// lensInfo builds the four-rational exifEX:LensInfo value from the focal
// range. Both ends must be present.
func (e *ExifProperties) lensInfo() (string, bool) {
	minV, ok := e.bag["LensMinMM"]
	if !ok {
		return "", false
	}
	maxV, ok := e.bag["LensMaxMM"]
	if !ok {
		return "", false
	}
	lo, ok := minV.Number()
	if !ok {
		return "", false
	}
	hi, ok := maxV.Number()
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%d/100 %d/100 0/1 0/1",
		int64(math.Round(lo*100)), int64(math.Round(hi*100))), true
}

// gpsCoordinate formats signed decimal degrees as an XMP GPSCoordinate,
// "DDD,MM.mmmmR".
func gpsCoordinate(deg float64, pos, neg byte) string {
	ref := pos
	if deg < 0 {
		ref = neg
		deg = -deg
	}
	whole := math.Floor(deg)
	minutes := (deg - whole) * 60
	return fmt.Sprintf("%d,%.4f%c", int64(whole), minutes, ref)
}
