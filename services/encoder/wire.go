package encoder

import (
	"strconv"
	"strings"

	"motioncode-go/x/conv"
)

// Telemetry line format shared by board mains and the host monitor:
//
//	Q <id> <position> <errors>\n
//
// The encoding side is allocation-free so it can run from an MCU loop.

// AppendReport appends one telemetry line for the given encoder state.
func AppendReport(dst []byte, id string, position int64, errors uint16) []byte {
	dst = append(dst, 'Q', ' ')
	dst = append(dst, id...)
	dst = append(dst, ' ')
	dst = conv.AppendInt(dst, position)
	dst = append(dst, ' ')
	dst = conv.AppendUint(dst, uint64(errors))
	return append(dst, '\n')
}

// ParseReport decodes one telemetry line (without requiring the trailing
// newline). ok is false for anything that is not a well-formed report.
func ParseReport(line string) (id string, position int64, errors uint16, ok bool) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) != 4 || fields[0] != "Q" {
		return "", 0, 0, false
	}
	pos, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return "", 0, 0, false
	}
	errs, err := strconv.ParseUint(fields[3], 10, 16)
	if err != nil {
		return "", 0, 0, false
	}
	return fields[1], pos, uint16(errs), true
}
