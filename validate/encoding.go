package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/caio-sobreiro/dicommanifest/dicom"
)

const (
	charsetUTF8  = "ISO_IR 192"
	charsetASCII = "ISO_IR 6"
	iso2022      = "ISO 2022"
)

// characterSets maps Specific Character Set defined terms to encodings.
// ISO 2022 terms map to nil: their values switch repertoires with escape
// sequences and are not decoded.
var characterSets = map[string]encoding.Encoding{
	charsetASCII:      nil,
	"ISO_IR 100":      charmap.ISO8859_1,
	"ISO_IR 101":      charmap.ISO8859_2,
	"ISO_IR 109":      charmap.ISO8859_3,
	"ISO_IR 110":      charmap.ISO8859_4,
	"ISO_IR 144":      charmap.ISO8859_5,
	"ISO_IR 127":      charmap.ISO8859_6,
	"ISO_IR 126":      charmap.ISO8859_7,
	"ISO_IR 138":      charmap.ISO8859_8,
	"ISO_IR 148":      charmap.ISO8859_9,
	"ISO_IR 203":      charmap.ISO8859_15,
	"ISO_IR 166":      charmap.Windows874,
	"ISO_IR 13":       japanese.ShiftJIS,
	charsetUTF8:       unicode.UTF8,
	"GB18030":         simplifiedchinese.GB18030,
	"GBK":             simplifiedchinese.GBK,
	"ISO 2022 IR 6":   nil,
	"ISO 2022 IR 100": nil,
	"ISO 2022 IR 101": nil,
	"ISO 2022 IR 109": nil,
	"ISO 2022 IR 110": nil,
	"ISO 2022 IR 144": nil,
	"ISO 2022 IR 127": nil,
	"ISO 2022 IR 126": nil,
	"ISO 2022 IR 138": nil,
	"ISO 2022 IR 148": nil,
	"ISO 2022 IR 203": nil,
	"ISO 2022 IR 13":  nil,
	"ISO 2022 IR 87":  nil,
	"ISO 2022 IR 159": nil,
	"ISO 2022 IR 149": nil,
	"ISO 2022 IR 58":  nil,
	"ISO 2022 IR 166": nil,
}

// checkCharacterSet checks character strings against the declared
// Specific Character Set.
func checkCharacterSet(doc *document, res *Result) {
	const csPath = "SpecificCharacterSet"
	var terms []string
	for _, t := range doc.ds.GetStrings(dicom.TagSpecificCharacterSet) {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}

	escapes := false
	for _, t := range terms {
		if _, known := characterSets[t]; !known {
			res.Errorf(ModuleCharacterSet, csPath, "unknown character set defined term %q", t)
		}
		if strings.HasPrefix(t, iso2022) {
			escapes = true
		}
	}
	if contains(terms, charsetUTF8) && len(terms) > 1 {
		res.Errorf(ModuleCharacterSet, csPath, "%s must be the only declared character set, found %s", charsetUTF8, strings.Join(terms, `\`))
	}

	// A single non-ISO 2022 term selects one decoder for every value.
	var enc encoding.Encoding
	ascii := len(terms) == 0
	if len(terms) == 1 && !escapes {
		enc = characterSets[terms[0]]
		ascii = terms[0] == charsetASCII
	}

	doc.ds.Walk(func(path string, e *dicom.Element) {
		if !dicom.IsTextVR(e.VR) {
			return
		}
		s, ok := e.Value.(string)
		if !ok {
			return
		}
		if !dicom.IsCharsetVR(e.VR) {
			if hasHighByte(s) {
				res.Errorf(ModuleCharacterSet, path, "%s value contains bytes above 0x7F but the VR is limited to the default repertoire", e.VR)
			}
			return
		}
		if strings.IndexByte(s, 0x1B) >= 0 && !escapes {
			res.Errorf(ModuleCharacterSet, path, "escape sequence in value without an ISO 2022 character set")
		}
		if !hasHighByte(s) {
			return
		}
		switch {
		case len(terms) == 0:
			res.Errorf(ModuleCharacterSet, path, "undeclared extended character: value contains bytes above 0x7F but no SpecificCharacterSet is declared")
		case ascii:
			res.Errorf(ModuleCharacterSet, path, "value contains bytes above 0x7F but the declared character set is %s", charsetASCII)
		case enc != nil:
			decoded, err := enc.NewDecoder().String(s)
			if err != nil || strings.ContainsRune(decoded, utf8.RuneError) {
				res.Errorf(ModuleCharacterSet, path, "value is not valid in the declared character set %s", terms[0])
			}
		}
	})
}

// checkPadding checks the padding byte of raw values: UIDs pad with NUL,
// character strings with SPACE.
func checkPadding(doc *document, res *Result) {
	doc.ds.Walk(func(path string, e *dicom.Element) {
		s, ok := e.Value.(string)
		if !ok || s == "" {
			return
		}
		switch {
		case e.VR == dicom.VR_UI:
			if strings.HasSuffix(s, " ") {
				res.Errorf(ModulePadding, path, "UID value is padded with SPACE instead of NUL")
			}
		case dicom.IsTextVR(e.VR):
			if strings.HasSuffix(s, "\x00") {
				res.Errorf(ModulePadding, path, "%s value is padded with NUL instead of SPACE", e.VR)
			}
		}
	})
}

var offsetPattern = regexp.MustCompile(`^[+-](\d{2})(\d{2})$`)

// parseOffset parses a Timezone Offset From UTC value.
func parseOffset(value string) (time.Duration, error) {
	m := offsetPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("%q does not match ±HHMM", value)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if hours > 14 {
		return 0, fmt.Errorf("%q has hours above 14", value)
	}
	if minutes > 59 {
		return 0, fmt.Errorf("%q has minutes above 59", value)
	}
	d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	if value[0] == '-' {
		d = -d
	}
	return d, nil
}

// parseDateTime combines a DA and a TM value. Fractional seconds are ignored
// and missing minutes or seconds read as zero.
func parseDateTime(date, tm string) (time.Time, error) {
	if i := strings.IndexByte(tm, '.'); i >= 0 {
		tm = tm[:i]
	}
	switch len(tm) {
	case 2, 4:
		tm += strings.Repeat("0", 6-len(tm))
	}
	return time.Parse("20060102150405", date+tm)
}

// checkTimezone checks the Timezone Offset From UTC format and reports the
// content time in UTC. Without an offset, a study date that differs from
// the content date is a WARNING.
func checkTimezone(doc *document, res *Result) {
	const path = "TimezoneOffsetFromUTC"
	ds := doc.ds
	tz := ds.GetString(dicom.TagTimezoneOffsetFromUTC)
	contentDate := ds.GetString(dicom.TagContentDate)
	contentTime := ds.GetString(dicom.TagContentTime)

	if tz == "" {
		studyDate := ds.GetString(dicom.TagStudyDate)
		if studyDate != "" && contentDate != "" && studyDate != contentDate {
			res.Warnf(ModuleTimezone, path, "StudyDate %s differs from ContentDate %s and no timezone offset is declared", studyDate, contentDate)
		}
		return
	}

	offset, err := parseOffset(tz)
	if err != nil {
		res.Errorf(ModuleTimezone, path, "invalid timezone offset: %v", err)
		return
	}
	if contentDate == "" || contentTime == "" {
		return
	}
	local, err := parseDateTime(contentDate, contentTime)
	if err != nil {
		res.Warnf(ModuleTimezone, "ContentTime", "cannot convert content date/time to UTC: %v", err)
		return
	}
	if doc.verbose {
		utc := local.Add(-offset)
		res.Infof(ModuleTimezone, "ContentTime", "content time is %s UTC", utc.Format("2006-01-02 15:04:05"))
	}
}
