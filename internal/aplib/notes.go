package aplib

import (
	"fmt"
	"time"

	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
)

// Note is one entry of the notes array of a master or version.
type Note struct {
	AttachedToUUID *string
	CreateDate     *time.Time
	Data           []byte
	ModelID        *int64
	Note           *string
	PropertyKey    *string
	UUID           *string
}

// NotesFromArray decodes a notes array. Each note is audited in its own
// report and merged under "notes[i]", so keys of different notes stay
// apart; entries that are not dictionaries are skipped as "notes[i]" with
// InvalidType.
func NotesFromArray(array []any, report *audit.Report) []Note {
	notes := make([]Note, 0, len(array))
	for i, v := range array {
		d, ok := v.(map[string]any)
		if !ok {
			if report != nil {
				report.Skip(fmt.Sprintf("notes[%d]", i), audit.InvalidType)
			}
			continue
		}
		var sub *audit.Report
		if report != nil {
			sub = audit.NewReport()
		}
		notes = append(notes, noteFromDict(d, sub))
		if report != nil {
			report.Merge(fmt.Sprintf("notes[%d]", i), sub)
		}
	}
	return notes
}

func noteFromDict(d plutil.Dict, report *audit.Report) Note {
	n := Note{
		AttachedToUUID: audit.String(d, "attachedToUuid", report),
		CreateDate:     audit.Date(d, "createDate", report),
		Data:           audit.Data(d, "data", report),
		ModelID:        audit.Int(d, "modelId", report),
		Note:           audit.String(d, "note", report),
		PropertyKey:    audit.String(d, "propertyKey", report),
		UUID:           audit.String(d, "uuid", report),
	}
	if report != nil {
		report.AuditIgnored(d, "")
	}
	return n
}
