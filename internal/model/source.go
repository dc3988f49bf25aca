package model

// Path represents a file system path.
type Path string

// File is a blueprint or base source file together with the hash of its
// contents.
type File struct {
	Path Path
	Hash string
}
