package model

import (
	"reflect"
	"time"

	"weave.dev/pkg/weave/pkg/notify"
)

// BehaviorBinding records a live attachment so it can be detached later.
type BehaviorBinding struct {
	Point    string
	Handle   notify.Handle
	Callable reflect.Value
}

// CompileRecord is one entry of the compile journal.
type CompileRecord struct {
	ID         string    `msgpack:"id"`
	Package    string    `msgpack:"package"`
	TypeName   string    `msgpack:"type_name"`
	Blueprint  string    `msgpack:"blueprint"`
	Succeeded  bool      `msgpack:"succeeded"`
	Errors     int       `msgpack:"errors"`
	Warnings   int       `msgpack:"warnings"`
	SourceHash string    `msgpack:"source_hash"`
	Timestamp  time.Time `msgpack:"timestamp"`
}
