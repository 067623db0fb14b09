package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "direct error",
			err:  New(KindValidation, "schema does not exist"),
			want: KindValidation,
		},
		{
			name: "wrapped once",
			err:  fmt.Errorf("running sync: %w", New(KindAcquisition, "query failed")),
			want: KindAcquisition,
		},
		{
			name: "wrapped cause keeps outer kind",
			err:  Wrap(KindAcquisition, "reading schema.sql", fs.ErrNotExist),
			want: KindAcquisition,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: KindUnknown,
		},
		{
			name: "nil",
			err:  nil,
			want: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnwrapPreservesCause(t *testing.T) {
	err := Wrap(KindAcquisition, "reading procs.sql", fs.ErrNotExist)

	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if !IsAcquisition(err) {
		t.Error("IsAcquisition should match the outer kind")
	}
	if IsValidation(err) {
		t.Error("IsValidation should not match an acquisition error")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Newf(KindValidation, "schema '%s' contains no tables", "public")
	want := "validation: schema 'public' contains no tables"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := Wrap(KindConfig, "parsing ignore file", errors.New("bad toml"))
	want = "config: parsing ignore file: bad toml"
	if wrapped.Error() != want {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), want)
	}
}
