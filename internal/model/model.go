// Package model defines core data structures for headerpack.
package model

// Directive is a parsed `#include` line.
type Directive struct {
	Raw   string // the line exactly as read
	Open  byte   // '<' or '"'
	Close byte   // '>' or '"'
	Path  string // text strictly between the delimiters
}

// System reports whether the directive uses angle brackets.
func (d Directive) System() bool {
	return d.Open == '<'
}

// Document is the text of one source file, split into lines.
// Line terminators are not included.
type Document struct {
	Path   string
	Lines  []string
	Offset int // lines dropped from the top of the file before Lines[0]
}

// Outcome classifies a single line met by the packer.
type Outcome string

const (
	Text            Outcome = "text"
	AlreadySeen     Outcome = "seen"
	Resolved        Outcome = "inlined"
	NotFoundLocally Outcome = "external"
	Malformed       Outcome = "malformed"
)

// Edge records one include directive: Source includes Target at Line.
type Edge struct {
	Source  string
	Target  string
	Line    int
	Outcome Outcome
}

// Report summarizes one packing run.
type Report struct {
	Root     string
	Included []string // inlined files in first-reference order, root first
	External []string // targets passed through as directives
	Edges    []Edge
	Lines    int // lines written to the sink by the packer
}

// TagKind indicates the syntactic kind of a declaration found in a header.
type TagKind string

const (
	Function TagKind = "function"
	Struct   TagKind = "struct"
	Union    TagKind = "union"
	Enum     TagKind = "enum"
	Typedef  TagKind = "typedef"
	Macro    TagKind = "macro"
)

// Tag is a single declaration extracted from a parsed header.
type Tag struct {
	Name string
	Kind TagKind
	Line int
}

// SyntaxIssue is an ERROR or MISSING node reported by the C parser.
type SyntaxIssue struct {
	Line    int
	Column  int
	Missing bool
	Text    string
}

// FileStatus describes how a header took part in a packing run.
type FileStatus string

const (
	StatusRoot      FileStatus = "root"
	StatusInlined   FileStatus = "inlined"
	StatusExternal  FileStatus = "external"
	StatusUnreached FileStatus = "unreached"
)

// FileInfo is one node of the include graph.
type FileInfo struct {
	Path   string
	Status FileStatus
	Rank   float64
}

// IncludeMap is the analyzed include graph, ready for serialization.
type IncludeMap struct {
	Root  string
	Files []FileInfo
	Edges []Edge
}
