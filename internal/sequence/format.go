package sequence

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"transformrecorder/internal/transform"
)

// Header field values describing the degenerate single-pixel image container.
// Sequence files carry no pixel payload, only per-frame custom fields.
var headerFields = [][2]string{
	{"ObjectType", "Image"},
	{"NDims", "3"},
	{"BinaryData", "True"},
	{"BinaryDataByteOrderMSB", "False"},
	{"CompressedData", "False"},
	{"TransformMatrix", "1 0 0 0 1 0 0 0 1"},
	{"Offset", "0 0 0"},
	{"CenterOfRotation", "0 0 0"},
	{"AnatomicalOrientation", "RAI"},
	{"ElementSpacing", "1 1 1"},
	{"CustomFieldNames", "DefaultFrameTransformName UltrasoundImageOrientation"},
}

const (
	framePrefix      = "Seq_Frame"
	frameIndexWidth  = 4
	fieldFrameNumber = "FrameNumber"
	fieldTimestamp   = "Timestamp"
	suffixTransform  = "Transform"
	suffixStatus     = "TransformStatus"
	statusOK         = "OK"
	homogeneousRow   = "0.0 0.0 0.0 1.0"
	legacyFrameCount = 500
	keyCustomFrame   = "CustomFrameFieldNames"
	keyDefaultFrame  = "DefaultFrameTransformName"
	keyDimSize       = "DimSize"
	keyOrientation   = "UltrasoundImageOrientation"
	valueOrientation = "MFA"
	keyKinds         = "Kinds"
	valueKinds       = "domain domain list"
	keyElementType   = "ElementType"
	valueElementType = "MET_UCHAR"
	keyElementData   = "ElementDataFile"
	valueElementData = "LOCAL"
	writtenEntries   = 12
)

// FrameKey returns the zero padded frame key, e.g. "Seq_Frame0007". Indexes
// above 9999 widen to as many digits as needed.
func FrameKey(index int) string {
	digits := strconv.Itoa(index)
	for len(digits) < frameIndexWidth {
		digits = "0" + digits
	}
	return framePrefix + digits
}

// ValidateName checks that name can be embedded in field keys and in the
// space separated CustomFrameFieldNames list.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	for _, r := range name {
		if r == '=' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// TransformFieldName is the per-frame field holding the matrix for name.
func TransformFieldName(name string) string {
	return name + suffixTransform
}

// StatusFieldName is the per-frame status field for name.
func StatusFieldName(name string) string {
	return name + suffixStatus
}

// FormatMatrix renders the top three rows of m followed by the constant
// homogeneous row. Entries use the shortest representation that parses back
// to the identical float64.
func FormatMatrix(m transform.Matrix) string {
	buf := make([]byte, 0, 160)
	for i := 0; i < writtenEntries; i++ {
		buf = strconv.AppendFloat(buf, m[i], 'g', -1, 64)
		buf = append(buf, ' ')
	}
	buf = append(buf, homogeneousRow...)
	return string(buf)
}

// FormatTimestamp renders seconds with the shortest exact decimal form.
func FormatTimestamp(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
