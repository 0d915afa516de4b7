// Package stdconv provides conversions for common Go types that have a
// canonical string form: UUIDs, RFC 3339 timestamps and durations.
package stdconv

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/wippyai/typecodec/conversion"
	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/reflectdesc"
)

// Descriptors of the supported types. They are strings in trees.
var (
	UUID     = descriptor.String.WithGoType(reflect.TypeFor[uuid.UUID]()).WithName("uuid")
	Time     = descriptor.String.WithGoType(reflect.TypeFor[time.Time]()).WithName("datetime")
	Duration = descriptor.String.WithGoType(reflect.TypeFor[time.Duration]()).WithName("duration")
)

type entry struct {
	dir    descriptor.Direction
	source *descriptor.Type
	target *descriptor.Type
	fn     any
}

func entries() []entry {
	return []entry{
		{descriptor.Deserialization, descriptor.String, UUID, uuid.Parse},
		{descriptor.Serialization, UUID, descriptor.String, uuid.UUID.String},

		{descriptor.Deserialization, descriptor.String, Time, parseTime},
		{descriptor.Serialization, Time, descriptor.String, formatTime},

		// durations also accept integer nanoseconds; the string form is
		// registered last so it is tried first
		{descriptor.Deserialization, descriptor.Int, Duration, nanoseconds},
		{descriptor.Deserialization, descriptor.String, Duration, time.ParseDuration},
		{descriptor.Serialization, Duration, descriptor.String, time.Duration.String},
	}
}

// Register adds the conversions to reg.
func Register(reg *conversion.Registry) error {
	for _, e := range entries() {
		if err := reg.RegisterFunc(e.dir, e.source, e.target, e.fn); err != nil {
			return fmt.Errorf("register %s: %w", e.target, err)
		}
	}
	return nil
}

// Define binds the Go types to their descriptors in d.
func Define(d *reflectdesc.Describer) {
	for _, t := range []*descriptor.Type{UUID, Time, Duration} {
		d.Define(t.GoType, t)
	}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func nanoseconds(n int64) time.Duration {
	return time.Duration(n)
}
