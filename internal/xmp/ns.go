package xmp

// Namespace URIs for the schemas the translation tables write into.
const (
	NsRDF          = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NsMeta         = "adobe:ns:meta/"
	NsXML          = "http://www.w3.org/XML/1998/namespace"
	NsDC           = "http://purl.org/dc/elements/1.1/"
	NsIptc4xmpCore = "http://iptc.org/std/Iptc4xmpCore/1.0/xmlns/"
	NsXMP          = "http://ns.adobe.com/xap/1.0/"
	NsXMPRights    = "http://ns.adobe.com/xap/1.0/rights/"
	NsXMPMM        = "http://ns.adobe.com/xap/1.0/mm/"
	NsPhotoshop    = "http://ns.adobe.com/photoshop/1.0/"
	NsExif         = "http://ns.adobe.com/exif/1.0/"
	NsExifAux      = "http://ns.adobe.com/exif/1.0/aux/"
	NsExifEX       = "http://cipa.jp/exif/1.0/"
	NsTIFF         = "http://ns.adobe.com/tiff/1.0/"
	NsAplib        = "http://ns.aplib-go.dev/aperture/1.0/"
)

var prefixes = map[string]string{
	NsRDF:          "rdf",
	NsMeta:         "x",
	NsXML:          "xml",
	NsDC:           "dc",
	NsIptc4xmpCore: "Iptc4xmpCore",
	NsXMP:          "xmp",
	NsXMPRights:    "xmpRights",
	NsXMPMM:        "xmpMM",
	NsPhotoshop:    "photoshop",
	NsExif:         "exif",
	NsExifAux:      "aux",
	NsExifEX:       "exifEX",
	NsTIFF:         "tiff",
	NsAplib:        "aplib",
}

var uris = func() map[string]string {
	m := make(map[string]string, len(prefixes))
	for uri, prefix := range prefixes {
		m[prefix] = uri
	}
	return m
}()

// NamespacePrefix returns the registered prefix for uri.
func NamespacePrefix(uri string) (string, bool) {
	p, ok := prefixes[uri]
	return p, ok
}

// NamespaceURI returns the namespace registered under prefix.
func NamespaceURI(prefix string) (string, bool) {
	u, ok := uris[prefix]
	return u, ok
}
