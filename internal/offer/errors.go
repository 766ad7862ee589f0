package offer

import "errors"

// Hard failures. Soft degradations (missing optional fields, unmatched
// segment references) are not errors and never reach the caller as one.
var (
	// ErrInvalidFileType is returned when the file name does not end in ".xml".
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrReadFailure is returned when the file content cannot be read or decoded.
	ErrReadFailure = errors.New("read failure")

	// ErrMalformedXML is returned when the text cannot be parsed into a tree.
	ErrMalformedXML = errors.New("malformed xml")

	// ErrInvariant is returned when a route group's totals disagree with its
	// segments.
	ErrInvariant = errors.New("route group invariant violated")
)

// InvalidFileTypeMessage is the user-facing alert for ErrInvalidFileType.
const InvalidFileTypeMessage = "Please upload a valid XML file."

// Kind names the error category of err, or "" when it is none of ours.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidFileType):
		return "InvalidFileType"
	case errors.Is(err, ErrReadFailure):
		return "ReadFailure"
	case errors.Is(err, ErrMalformedXML):
		return "MalformedXml"
	case errors.Is(err, ErrInvariant):
		return "Invariant"
	default:
		return ""
	}
}
