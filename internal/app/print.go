package app

import (
	"fmt"
	"io"
	"strings"

	"aplib-go/internal/aplib"
	"aplib-go/internal/database"
)

// libraryFolderUUID is the uuid of the root folder of every library.
const libraryFolderUUID = "LibraryFolder"

// printer collects the first write error so table code stays linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

// show formats an optional value, "-" when absent.
func show[T any](v *T) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func printInfo(w io.Writer, version string, mi *aplib.ModelInfo) error {
	p := &printer{w: w}
	p.printf("Version %s\n", version)
	p.printf("model info\n")
	p.printf("\tDB uuid: %s\n", show(mi.DBUUID))
	p.printf("\tDB version: %s\n", show(mi.DBVersion))
	p.printf("\tDB minor version: %s\n", show(mi.DBMinorVersion))
	p.printf("\tProject version: %s\n", show(mi.ProjectVersion))
	p.printf("\tMasters: %s\n", show(mi.MasterCount))
	p.printf("\tVersions: %s\n", show(mi.VersionCount))
	if mi.CreateDate != nil {
		p.printf("\tCreated: %s\n", mi.CreateDate.UTC().Format("2006-01-02 15:04:05"))
	}
	return p.err
}

func printDump(w io.Writer, lib *aplib.Library) error {
	p := &printer{w: w}

	folders := lib.Folders()
	p.printf("%d Folders:\n", len(folders))
	p.printf("| name | uuid | type | model id | path |\n")
	for _, id := range folders {
		wr, _ := lib.Get(id)
		f := wr.Folder
		p.printf("| %s | %s | %s | %d | %s |\n", show(f.Name), id, show(f.FolderType), f.ModelID(), show(f.Path))
	}

	albums := lib.Albums()
	p.printf("%d Albums:\n", len(albums))
	p.printf("| name | uuid | folder | type | class | model id | items |\n")
	for _, id := range albums {
		wr, _ := lib.Get(id)
		a := wr.Album
		p.printf("| %s | %s | %s | %s | %s | %d | %d |\n", show(a.Name), id, show(a.ParentUUID()),
			show(a.AlbumType), show(a.Subclass), a.ModelID(), len(a.Content))
	}

	if kws, err := lib.Keywords(); err == nil {
		p.printf("%d keywords:\n", countKeywords(kws))
		if p.err == nil {
			p.err = printKeywords(w, kws)
		}
	}

	masters := lib.Masters()
	p.printf("%d Masters:\n", len(masters))
	p.printf("| uuid | project | volume | path |\n")
	for _, id := range masters {
		wr, _ := lib.Get(id)
		m := wr.Master
		p.printf("| %s | %s | %s | %s |\n", id, show(m.ParentUUID()), show(m.FileVolumeUUID), show(m.ImagePath))
	}

	versions := lib.Versions()
	p.printf("%d Versions:\n", len(versions))
	p.printf("| uuid | master | project | name | original |\n")
	for _, id := range versions {
		wr, _ := lib.Get(id)
		v := wr.Version
		p.printf("| %s | %s | %s | %s | %s |\n", id, show(v.ParentUUID()), show(v.ProjectUUID), show(v.Name), show(v.IsOriginal))
	}

	volumes := lib.Volumes()
	p.printf("%d Volumes:\n", len(volumes))
	p.printf("| uuid | name | disk |\n")
	for _, id := range volumes {
		wr, _ := lib.Get(id)
		v := wr.Volume
		p.printf("| %s | %s | %s |\n", id, show(v.VolumeName), show(v.DiskUUID))
	}
	return p.err
}

func countKeywords(kws []*aplib.Keyword) int {
	n := 0
	for _, kw := range kws {
		kw.Walk(func(*aplib.Keyword, int) { n++ })
	}
	return n
}

// printKeywords writes one table row per keyword, indenting children
// below their parent.
func printKeywords(w io.Writer, kws []*aplib.Keyword) error {
	p := &printer{w: w}
	p.printf("| name | uuid | parent |\n")
	for _, root := range kws {
		root.Walk(func(kw *aplib.Keyword, depth int) {
			indent := ""
			if depth > 0 {
				indent = strings.Repeat("\t", depth-1) + "+- "
			}
			p.printf("| %s%s | %s | %s |\n", indent, show(kw.Name), show(kw.UUID()), show(kw.ParentUUID()))
		})
	}
	return p.err
}

// treeTag is the bracketed kind marker of a tree line.
func treeTag(wr *aplib.Wrapper) string {
	switch wr.Kind {
	case aplib.TypeAlbum:
		if wr.Album.Subclass == nil {
			return "A"
		}
		switch *wr.Album.Subclass {
		case aplib.AlbumSubclassImplicit:
			return "AI"
		case aplib.AlbumSubclassSmart:
			return "AS"
		case aplib.AlbumSubclassUser:
			return "AU"
		default:
			return "A*"
		}
	case aplib.TypeFolder:
		if wr.Folder.FolderType == nil {
			return "F"
		}
		switch *wr.Folder.FolderType {
		case aplib.FolderTypeFolder:
			return "FF"
		case aplib.FolderTypeProject:
			return "FP"
		default:
			return "F*"
		}
	case aplib.TypeVersion:
		n := int64(-1)
		if wr.Version.VersionNumber != nil {
			n = *wr.Version.VersionNumber
		}
		return fmt.Sprintf("V%d", n)
	case aplib.TypeMaster:
		return "M"
	default:
		return "*"
	}
}

func printTree(w io.Writer, lib *aplib.Library, skipMasters bool) error {
	p := &printer{w: w}
	tree := lib.Tree()

	top := libraryFolderUUID
	if _, ok := lib.Get(top); !ok {
		top = ""
	}
	p.printf("TOP LEVEL\n")
	printChildren(p, lib, tree, top, skipMasters, 2)
	return p.err
}

func printChildren(p *printer, lib *aplib.Library, tree map[string][]string, parent string, skipMasters bool, indent int) {
	var skippedMasters, skippedVersions int
	pad := strings.Repeat(" ", indent)

	for _, child := range tree[parent] {
		wr, ok := lib.Get(child)
		if !ok || child == parent {
			continue
		}
		if skipMasters {
			switch wr.Kind {
			case aplib.TypeMaster:
				skippedMasters++
				continue
			case aplib.TypeVersion:
				skippedVersions++
				continue
			}
		}
		p.printf("%s[%s] %s\n", pad, treeTag(wr), wr.Name())
		printChildren(p, lib, tree, child, skipMasters, indent+2)
	}

	if skipMasters && (skippedMasters != 0 || skippedVersions != 0) {
		p.printf("%s(Skipped %d masters and %d versions.)\n", pad, skippedMasters, skippedVersions)
	}
}

func printRuns(w io.Writer, runs []database.Run) error {
	p := &printer{w: w}
	p.printf("| run | version | started | parsed | skipped | ignored |\n")
	for _, r := range runs {
		p.printf("| %s | %s | %s | %d | %d | %d |\n", r.ID, r.LibraryVersion,
			r.StartedAt.UTC().Format("2006-01-02 15:04:05"), r.ParsedFiles, r.SkippedFiles, r.IgnoredFiles)
	}
	return p.err
}
