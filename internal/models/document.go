package models

type DocumentKind string

const (
	DocumentResume      DocumentKind = "resume"
	DocumentCoverLetter DocumentKind = "cover_letter"
)

// Label is the human readable name used in response messages.
func (k DocumentKind) Label() string {
	switch k {
	case DocumentResume:
		return "Resume"
	case DocumentCoverLetter:
		return "Cover letter"
	}
	return "Document"
}

// Columns returns the path and filename column names backing kind.
func (k DocumentKind) Columns() (pathColumn, filenameColumn string) {
	switch k {
	case DocumentResume:
		return "resume_path", "resume_filename"
	case DocumentCoverLetter:
		return "cover_letter_path", "cover_letter_filename"
	}
	return "", ""
}

func (k DocumentKind) Valid() bool {
	return k == DocumentResume || k == DocumentCoverLetter
}
